// Package http turns typed request descriptors into wire-level HTTP
// requests and dispatches them through a pluggable transport.
//
// This package provides:
//   - URL resolution from strings, components, parsed URLs and built requests
//   - Parameter encodings: URL (query string or form body), JSON and property list
//   - Typed request descriptors with GET / no-payload / JSON defaults
//   - A SessionManager that dispatches descriptors and decodes typed results
//   - Transports backed by net/http (with phase timing) or go-resty
//
// Basic Usage:
//
//	type CreateItem struct {
//	    Name string `json:"name"`
//	}
//
//	func (CreateItem) URL() http.URLConvertible {
//	    return http.URLString("https://api.example.com/items")
//	}
//	func (CreateItem) Method() http.Method { return http.MethodPost }
//	func (c CreateItem) Parameters() any  { return c }
//
//	manager := http.NewSessionManager()
//	defer manager.Close()
//
//	task := http.Dispatch[Item](ctx, manager, CreateItem{Name: "widget"})
//	result, err := task.Wait(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.Value.ID)
//
// Encoding Usage:
//
//	req, _ := http.NewRequest(http.URLString("https://api.example.com/items"), http.MethodGet, nil)
//	req, err := http.URLEncoding{}.Encode(req, struct {
//	    Page int `json:"page"`
//	}{Page: 2})
//	// req.URL().RawQuery == "page=2"
//
// Dates:
//
// Date fields serialize with DateFormat (RFC 3339) on both the encode and
// the decode path. A date string in any other format fails decoding with a
// *DecodeError naming the field.
//
// Thread Safety:
//
// SessionManager, Task and the provided transports are safe for concurrent
// use. Requests are immutable once built.
package http
