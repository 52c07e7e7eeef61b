package http

// Requestable describes one logical API call. Only the URL is required;
// the optional provider interfaces below supply the rest, and the
// corresponding *Of functions fill in defaults when a descriptor does not
// implement them.
//
// Example:
//
//	type GetItem struct{ ID string }
//
//	func (r GetItem) URL() http.URLConvertible {
//	    return http.URLString("https://api.example.com/items/" + r.ID)
//	}
type Requestable interface {
	URL() URLConvertible
}

// MethodProvider is implemented by descriptors that use a method other
// than GET.
type MethodProvider interface {
	Method() Method
}

// HeaderProvider is implemented by descriptors that send header fields.
type HeaderProvider interface {
	Headers() Header
}

// EncodingProvider is implemented by descriptors that choose their
// parameter encoding.
type EncodingProvider interface {
	Encoding() ParameterEncoding
}

// EncodableRequestable is a descriptor carrying a serializable parameter
// payload.
type EncodableRequestable interface {
	Requestable
	Parameters() any
}

// MethodOf returns the descriptor's method, GET by default.
func MethodOf(r Requestable) Method {
	if p, ok := r.(MethodProvider); ok {
		if m := p.Method(); m != "" {
			return m
		}
	}
	return MethodGet
}

// HeadersOf returns the descriptor's header fields, if any.
func HeadersOf(r Requestable) Header {
	if p, ok := r.(HeaderProvider); ok {
		return p.Headers()
	}
	return nil
}

// EncodingOf returns the descriptor's parameter encoding, JSONEncoding by
// default.
func EncodingOf(r Requestable) ParameterEncoding {
	if p, ok := r.(EncodingProvider); ok {
		if e := p.Encoding(); e != nil {
			return e
		}
	}
	return JSONEncoding{}
}

// ParametersOf returns the descriptor's parameter payload and whether one
// is present.
func ParametersOf(r Requestable) (any, bool) {
	p, ok := r.(EncodableRequestable)
	if !ok {
		return nil, false
	}
	params := p.Parameters()
	return params, params != nil
}

// AsRequest builds the wire request for a descriptor: resolve the URL,
// create the base request with method and headers, then apply the payload
// with the descriptor's encoding when one is present.
func AsRequest(r Requestable) (*Request, error) {
	if r == nil {
		return nil, &InvalidURLError{Source: r}
	}
	base, err := NewRequest(r.URL(), MethodOf(r), HeadersOf(r))
	if err != nil {
		return nil, err
	}
	params, ok := ParametersOf(r)
	if !ok {
		return base, nil
	}
	return EncodingOf(r).Encode(base, params)
}
