package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

// execute runs the command tree with args and returns its output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(append(args, "--no-color"))
	err := root.Execute()
	return out.String(), err
}

func TestParseParams(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    map[string]any
		wantErr bool
	}{
		{
			name: "strings",
			args: []string{"name=widget", "q=a=b"},
			want: map[string]any{"name": "widget", "q": "a=b"},
		},
		{
			name: "repeated keys collect",
			args: []string{"tag=a", "tag=b", "tag=c"},
			want: map[string]any{"tag": []any{"a", "b", "c"}},
		},
		{
			name: "typed values",
			args: []string{"count:=3", "active:=true", "meta:={\"k\":null}"},
			want: map[string]any{
				"count":  json.Number("3"),
				"active": true,
				"meta":   map[string]any{"k": nil},
			},
		},
		{
			name: "empty value",
			args: []string{"q="},
			want: map[string]any{"q": ""},
		},
		{name: "missing separator", args: []string{"novalue"}, wantErr: true},
		{name: "empty key", args: []string{"=x"}, wantErr: true},
		{name: "empty typed key", args: []string{":=1"}, wantErr: true},
		{name: "bad JSON", args: []string{"n:=nope"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseParams(tt.args)
			if tt.wantErr {
				if err == nil {
					t.Errorf("Expected error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("parseParams() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestParseHeaders(t *testing.T) {
	headers, err := parseHeaders([]string{"Accept: application/json", "X-Token:abc:def"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if headers["Accept"] != "application/json" || headers["X-Token"] != "abc:def" {
		t.Errorf("Unexpected headers: %v", headers)
	}

	if _, err := parseHeaders([]string{"no-colon"}); err == nil {
		t.Error("Expected error for header without colon")
	}
	if _, err := parseHeaders([]string{": value"}); err == nil {
		t.Error("Expected error for header without name")
	}
	if headers, err := parseHeaders(nil); err != nil || headers != nil {
		t.Errorf("Expected nil headers, got %v, %v", headers, err)
	}
}

func TestNormalizeURL(t *testing.T) {
	tests := map[string]string{
		"example.com/path":          "http://example.com/path",
		"http://localhost:8080/api": "http://localhost:8080/api",
		"https://example.com":       "https://example.com",
	}
	for input, want := range tests {
		if got := normalizeURL(input); got != want {
			t.Errorf("normalizeURL(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestParseVars(t *testing.T) {
	vars, err := parseVars([]string{"id=42", "q=a=b"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if vars["id"] != "42" || vars["q"] != "a=b" {
		t.Errorf("Unexpected vars: %v", vars)
	}
	if _, err := parseVars([]string{"id"}); err == nil {
		t.Error("Expected error for variable without value")
	}
}

func TestGetCommand(t *testing.T) {
	var got nethttp.Header
	var query map[string][]string
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		got = r.Header
		query = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"items":[]}`))
	}))
	defer server.Close()

	out, err := execute(t, "get", server.URL+"/items",
		"-p", "q=go", "-p", "tag=a", "-p", "tag=b",
		"-H", "X-Trace: 1")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if query["q"][0] != "go" || !reflect.DeepEqual(query["tag[]"], []string{"a", "b"}) {
		t.Errorf("Unexpected query: %v", query)
	}
	if got.Get("X-Trace") != "1" {
		t.Errorf("Expected X-Trace header, got %v", got)
	}
	if !strings.HasPrefix(got.Get("User-Agent"), "courier/") {
		t.Errorf("Expected courier User-Agent, got %q", got.Get("User-Agent"))
	}
	for _, want := range []string{"▶ REQUEST: GET " + server.URL + "/items?", "◀ RESPONSE: 200 OK"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected output to contain %q, got:\n%s", want, out)
		}
	}
}

func TestPostCommand_JSON(t *testing.T) {
	var contentType string
	var body map[string]any
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		contentType = r.Header.Get("Content-Type")
		json.NewDecoder(r.Body).Decode(&body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(nethttp.StatusCreated)
		w.Write([]byte(`{"id":"1"}`))
	}))
	defer server.Close()

	out, err := execute(t, "post", server.URL+"/items", "-p", "name=widget", "-p", "count:=2", "-o", "json")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if contentType != "application/json" {
		t.Errorf("Expected JSON content type, got %q", contentType)
	}
	if body["name"] != "widget" || body["count"] != float64(2) {
		t.Errorf("Unexpected body: %v", body)
	}
	if !strings.Contains(out, `"statusCode": 201`) || !strings.Contains(out, `"method": "POST"`) {
		t.Errorf("Expected JSON output, got:\n%s", out)
	}
}

func TestPostCommand_URLEncodedBody(t *testing.T) {
	var contentType, body string
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		contentType = r.Header.Get("Content-Type")
		data, _ := io.ReadAll(r.Body)
		body = string(data)
	}))
	defer server.Close()

	_, err := execute(t, "post", server.URL, "--encoding", "url", "--literal-bools",
		"-p", "active:=true", "-p", "name=a b")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if !strings.HasPrefix(contentType, "application/x-www-form-urlencoded") {
		t.Errorf("Expected form content type, got %q", contentType)
	}
	if body != "active=true&name=a%20b" {
		t.Errorf("Unexpected body: %q", body)
	}
}

func TestMethodCommand_Transports(t *testing.T) {
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.Header().Set("X-Method", r.Method)
	}))
	defer server.Close()

	for _, transport := range []string{"net", "resty"} {
		t.Run(transport, func(t *testing.T) {
			for _, method := range []string{"put", "patch", "delete", "head"} {
				out, err := execute(t, method, server.URL, "--transport", transport)
				if err != nil {
					t.Fatalf("%s: unexpected error: %v", method, err)
				}
				if !strings.Contains(out, "REQUEST: "+strings.ToUpper(method)) {
					t.Errorf("%s: unexpected output:\n%s", method, out)
				}
			}
		})
	}

	if _, err := execute(t, "get", server.URL, "--transport", "carrier-pigeon"); err == nil {
		t.Error("Expected error for unknown transport")
	}
}

func TestMethodCommand_Failures(t *testing.T) {
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.WriteHeader(nethttp.StatusNotFound)
	}))
	url := server.URL

	// A response is printed even when its status is not 2xx.
	out, err := execute(t, "get", url)
	if err != nil {
		t.Errorf("Expected no error for a 404 response, got %v", err)
	}
	if !strings.Contains(out, "404") {
		t.Errorf("Expected 404 in output, got:\n%s", out)
	}

	if _, err := execute(t, "get", url, "--encoding", "xml"); err == nil {
		t.Error("Expected error for unknown encoding")
	}
	if _, err := execute(t, "get", url, "-o", "csv"); err == nil {
		t.Error("Expected error for unknown output format")
	}
	if _, err := execute(t, "get", url, "-p", "broken"); err == nil {
		t.Error("Expected error for malformed parameter")
	}
	if _, err := execute(t, "get"); err == nil {
		t.Error("Expected error without URL")
	}

	server.Close()
	if _, err := execute(t, "get", url); err == nil || !strings.Contains(err.Error(), "request failed") {
		t.Errorf("Expected request failure, got %v", err)
	}
}

const runTemplate = `
environments:
  local:
    baseUrl: BASE_URL
    headers:
      Accept: application/json
    variables:
      userId: "42"
requests:
  getUser:
    url: /users/{{userId}}
    extract:
      id: $.id
      missing: $.nope
    validate:
      status: 200
      schema: user
  getUserLoose:
    url: /users/{{userId}}
    extract:
      email: $.email
  getStrict:
    url: /users/{{userId}}
    validate:
      schema: strict
schemas:
  user:
    type: object
    required: [id]
  strict:
    type: object
    required: [name]
`

func writeRunTemplate(t *testing.T, baseURL string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "requests.yaml")
	content := strings.Replace(runTemplate, "BASE_URL", baseURL, 1)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write template: %v", err)
	}
	return path
}

func TestRunCommand(t *testing.T) {
	var paths []string
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		paths = append(paths, r.URL.Path)
		if r.Header.Get("Accept") != "application/json" {
			w.WriteHeader(nethttp.StatusNotAcceptable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":42,"email":"a@example.com"}`))
	}))
	defer server.Close()
	path := writeRunTemplate(t, server.URL)

	t.Run("checks pass", func(t *testing.T) {
		out, err := execute(t, "run", "-c", path, "-e", "local", "-r", "getUserLoose")
		if err != nil {
			t.Fatalf("Unexpected error: %v\n%s", err, out)
		}
		for _, want := range []string{"✓ status: expected 2xx, got 200", "✓ extract email = a@example.com"} {
			if !strings.Contains(out, want) {
				t.Errorf("Expected output to contain %q, got:\n%s", want, out)
			}
		}
	})

	t.Run("variable override", func(t *testing.T) {
		paths = nil
		if _, err := execute(t, "run", "-c", path, "-e", "local", "-r", "getUserLoose", "--var", "userId=7"); err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if len(paths) != 1 || paths[0] != "/users/7" {
			t.Errorf("Expected /users/7, got %v", paths)
		}
	})

	t.Run("failed extraction", func(t *testing.T) {
		out, err := execute(t, "run", "-c", path, "-e", "local", "-r", "getUser")
		if !errors.Is(err, errChecksFailed) {
			t.Fatalf("Expected errChecksFailed, got %v", err)
		}
		for _, want := range []string{"✓ status: expected 200, got 200", "✓ extract id = 42", "✗ extract missing", "✓ schema user"} {
			if !strings.Contains(out, want) {
				t.Errorf("Expected output to contain %q, got:\n%s", want, out)
			}
		}
	})

	t.Run("failed schema", func(t *testing.T) {
		out, err := execute(t, "run", "-c", path, "-e", "local", "-r", "getStrict")
		if !errors.Is(err, errChecksFailed) {
			t.Fatalf("Expected errChecksFailed, got %v", err)
		}
		if !strings.Contains(out, "✗ schema strict") {
			t.Errorf("Expected failed schema check, got:\n%s", out)
		}
	})
}

func TestRunCommand_Errors(t *testing.T) {
	path := writeRunTemplate(t, "http://127.0.0.1:1")

	if _, err := execute(t, "run", "-e", "local", "-r", "getUser"); err == nil {
		t.Error("Expected error without config file")
	}
	if _, err := execute(t, "run", "-c", path, "-e", "staging", "-r", "getUser"); err == nil {
		t.Error("Expected error for unknown environment")
	}
	if _, err := execute(t, "run", "-c", path, "-e", "local", "-r", "deleteUser"); err == nil {
		t.Error("Expected error for unknown request")
	}
	if _, err := execute(t, "run", "-c", path, "-e", "local", "-r", "getUser", "--var", "bad"); err == nil {
		t.Error("Expected error for malformed variable")
	}

	invalid := filepath.Join(t.TempDir(), "invalid.json")
	os.WriteFile(invalid, []byte(`{"environments": {}, "requests": {"r": {"url": ""}}}`), 0o644)
	_, err := execute(t, "run", "-c", invalid, "-e", "local", "-r", "r")
	if err == nil || !strings.Contains(err.Error(), "configuration validation errors") {
		t.Errorf("Expected validation errors, got %v", err)
	}
}
