package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wesleyorama2/courier/http"
	"github.com/wesleyorama2/courier/internal/config"
)

// requestFlags holds the flags of the method commands.
type requestFlags struct {
	params       []string
	headers      []string
	encoding     string
	destination  string
	noBrackets   bool
	literalBools bool
	pretty       bool
}

func newMethodCmd(opts *options, settings *config.Settings, method http.Method) *cobra.Command {
	flags := &requestFlags{}
	name := strings.ToLower(method.String())

	cmd := &cobra.Command{
		Use:   name + " URL",
		Short: fmt.Sprintf("Make a %s request to the specified URL", method),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			endpoint, err := flags.endpoint(method, args[0])
			if err != nil {
				return err
			}

			s, err := opts.session(cmd, settings)
			if err != nil {
				return err
			}
			defer s.close()

			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()

			_, err = s.exchange(ctx, cmd.OutOrStdout(), endpoint)
			return err
		},
	}

	f := cmd.Flags()
	f.StringArrayVarP(&flags.params, "param", "p", nil, "Parameter as key=value, or key:=json for typed values (can be used multiple times)")
	f.StringArrayVarP(&flags.headers, "header", "H", nil, "HTTP headers to include (can be used multiple times)")
	f.StringVar(&flags.encoding, "encoding", "", "Parameter encoding (json, url, plist); url for GET, HEAD and DELETE, json otherwise")
	f.StringVar(&flags.destination, "destination", "method", "Where URL-encoded parameters go (method, query, body)")
	f.BoolVar(&flags.noBrackets, "no-brackets", false, "Encode array keys without trailing []")
	f.BoolVar(&flags.literalBools, "literal-bools", false, "Encode booleans as true/false instead of 1/0")
	f.BoolVar(&flags.pretty, "pretty", false, "Pretty-print JSON bodies")
	return cmd
}

// endpoint builds the descriptor for one command-line request.
func (f *requestFlags) endpoint(method http.Method, rawURL string) (http.Endpoint, error) {
	headers, err := parseHeaders(f.headers)
	if err != nil {
		return http.Endpoint{}, err
	}

	enc := config.Encoding{
		Type:        f.encoding,
		Destination: f.destination,
		Pretty:      f.pretty,
	}
	if enc.Type == "" {
		enc.Type = "json"
		switch method {
		case http.MethodGet, http.MethodHead, http.MethodDelete:
			enc.Type = "url"
		}
	}
	if f.noBrackets {
		enc.ArrayEncoding = "noBrackets"
	}
	if f.literalBools {
		enc.BoolEncoding = "literal"
	}
	policy, err := enc.Policy()
	if err != nil {
		return http.Endpoint{}, err
	}

	endpoint := http.Endpoint{
		Target:  http.URLString(normalizeURL(rawURL)),
		Verb:    method,
		Fields:  headers,
		Encoder: policy,
	}
	if len(f.params) > 0 {
		params, err := parseParams(f.params)
		if err != nil {
			return http.Endpoint{}, err
		}
		endpoint.Params = params
	}
	return endpoint, nil
}

// exchange dispatches endpoint and prints the wire request and the
// response. A response with a non-2xx status is printed and returned
// without error; callers decide what it means.
func (s *session) exchange(ctx context.Context, w io.Writer, endpoint http.Requestable) (http.Result[[]byte], error) {
	task := http.Dispatch[[]byte](ctx, s.manager, endpoint)

	// The task observes ctx itself, so waiting on it cannot hang.
	result, err := task.Wait(context.Background())
	if req := task.Request(); req != nil {
		write(w, s.formatter.FormatRequest(req))
	}
	if result.Response == nil {
		return result, fmt.Errorf("request failed: %w", err)
	}
	write(w, s.formatter.FormatResponse(result.Response))
	if err != nil {
		s.logger.Debug("request completed with error", zap.Error(err))
	}
	return result, nil
}

// write prints a formatter section, terminating it with a newline.
func write(w io.Writer, section string) {
	if section == "" {
		return
	}
	io.WriteString(w, section)
	if !strings.HasSuffix(section, "\n") {
		io.WriteString(w, "\n")
	}
}

// parseHeaders parses "Key: Value" arguments.
func parseHeaders(args []string) (http.Header, error) {
	if len(args) == 0 {
		return nil, nil
	}
	headers := make(http.Header, len(args))
	for _, header := range args {
		parts := strings.SplitN(header, ":", 2)
		key := strings.TrimSpace(parts[0])
		if len(parts) != 2 || key == "" {
			return nil, fmt.Errorf("invalid header %q (want \"Key: Value\")", header)
		}
		headers[key] = strings.TrimSpace(parts[1])
	}
	return headers, nil
}

// parseParams parses key=value arguments into a parameter map. key:=value
// takes value as JSON, so numbers, booleans and nested structures keep
// their type. Repeating a key collects its values into an array.
func parseParams(args []string) (map[string]any, error) {
	params := make(map[string]any, len(args))
	repeated := make(map[string]bool)

	for _, arg := range args {
		idx := strings.Index(arg, "=")
		if idx <= 0 {
			return nil, fmt.Errorf("invalid parameter %q (want key=value or key:=json)", arg)
		}

		key, raw := arg[:idx], arg[idx+1:]
		var value any = raw
		if strings.HasSuffix(key, ":") {
			key = strings.TrimSuffix(key, ":")
			dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
			dec.UseNumber()
			if err := dec.Decode(&value); err != nil {
				return nil, fmt.Errorf("invalid JSON value for parameter %q: %w", key, err)
			}
		}
		if key == "" {
			return nil, fmt.Errorf("invalid parameter %q: empty key", arg)
		}

		existing, ok := params[key]
		switch {
		case !ok:
			params[key] = value
		case repeated[key]:
			params[key] = append(existing.([]any), value)
		default:
			params[key] = []any{existing, value}
			repeated[key] = true
		}
	}
	return params, nil
}

// normalizeURL adds an http scheme to URLs given without one.
func normalizeURL(raw string) string {
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		return raw
	}
	return "http://" + raw
}
