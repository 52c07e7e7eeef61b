package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/wesleyorama2/courier/http"
)

// Config represents a request-template file
type Config struct {
	Environments map[string]Environment `json:"environments" yaml:"environments"`
	Requests     map[string]Request     `json:"requests" yaml:"requests"`
	Schemas      map[string]any         `json:"schemas,omitempty" yaml:"schemas,omitempty"`
}

// Environment represents an environment configuration
type Environment struct {
	BaseURL string            `json:"baseUrl" yaml:"baseUrl"`
	Headers map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	Vars    map[string]string `json:"variables,omitempty" yaml:"variables,omitempty"`
}

// Request represents a request template
type Request struct {
	URL      string            `json:"url" yaml:"url"`
	Method   string            `json:"method" yaml:"method"`
	Headers  map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	Params   map[string]any    `json:"params,omitempty" yaml:"params,omitempty"`
	Encoding Encoding          `json:"encoding,omitempty" yaml:"encoding,omitempty"`
	Extract  map[string]string `json:"extract,omitempty" yaml:"extract,omitempty"`
	Validate Validation        `json:"validate,omitempty" yaml:"validate,omitempty"`
}

// Encoding names the parameter encoding of a request template. The zero
// value selects JSON.
type Encoding struct {
	Type          string `json:"type,omitempty" yaml:"type,omitempty"`                   // json, url, plist
	Destination   string `json:"destination,omitempty" yaml:"destination,omitempty"`     // method, query, body
	ArrayEncoding string `json:"arrayEncoding,omitempty" yaml:"arrayEncoding,omitempty"` // brackets, noBrackets
	BoolEncoding  string `json:"boolEncoding,omitempty" yaml:"boolEncoding,omitempty"`   // numeric, literal
	Pretty        bool   `json:"pretty,omitempty" yaml:"pretty,omitempty"`
}

// Validation holds the response checks of a request template
type Validation struct {
	Status int    `json:"status,omitempty" yaml:"status,omitempty"`
	Schema string `json:"schema,omitempty" yaml:"schema,omitempty"`
}

// LoadConfig loads a request-template file. Files ending in .yaml or .yml
// are parsed as YAML, anything else as JSON.
func LoadConfig(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	config, err := ParseConfig(data, formatOf(path))
	if err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}
	return config, nil
}

// Format is the serialization of a request-template file.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

func formatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// ParseConfig parses a request-template document.
func ParseConfig(data []byte, format Format) (*Config, error) {
	var config Config
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, err
		}
	case FormatJSON:
		if err := json.Unmarshal(data, &config); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported config format %q", format)
	}
	return &config, nil
}

// SchemaJSON returns the named schema serialized as JSON.
func (c *Config) SchemaJSON(name string) ([]byte, error) {
	schema, ok := c.Schemas[name]
	if !ok {
		return nil, fmt.Errorf("schema not found: %s", name)
	}
	return json.Marshal(schema)
}

// Policy returns the parameter encoding described by e.
func (e Encoding) Policy() (http.ParameterEncoding, error) {
	switch strings.ToLower(e.Type) {
	case "", "json":
		return http.JSONEncoding{Pretty: e.Pretty}, nil
	case "plist":
		return http.PropertyListEncoding{}, nil
	case "url":
	default:
		return nil, fmt.Errorf("unknown encoding type %q", e.Type)
	}

	var enc http.URLEncoding
	switch strings.ToLower(e.Destination) {
	case "", "method":
		enc.Destination = http.DestinationMethodDependent
	case "query":
		enc.Destination = http.DestinationQueryString
	case "body":
		enc.Destination = http.DestinationHTTPBody
	default:
		return nil, fmt.Errorf("unknown destination %q", e.Destination)
	}
	switch strings.ToLower(e.ArrayEncoding) {
	case "", "brackets":
		enc.ArrayEncoding = http.ArrayBrackets
	case "nobrackets":
		enc.ArrayEncoding = http.ArrayNoBrackets
	default:
		return nil, fmt.Errorf("unknown array encoding %q", e.ArrayEncoding)
	}
	switch strings.ToLower(e.BoolEncoding) {
	case "", "numeric":
		enc.BoolEncoding = http.BoolNumeric
	case "literal":
		enc.BoolEncoding = http.BoolLiteral
	default:
		return nil, fmt.Errorf("unknown bool encoding %q", e.BoolEncoding)
	}
	return enc, nil
}

// Endpoint builds the request descriptor for a template in env. Variables
// from vars override the environment's. Relative template URLs are joined
// to the environment's base URL, and template headers override environment
// headers.
func (r Request) Endpoint(env Environment, vars map[string]string) (http.Endpoint, error) {
	values := MergeEnvironments(env.Vars, vars)

	method := http.MethodGet
	if r.Method != "" {
		m, err := http.ParseMethod(r.Method)
		if err != nil {
			return http.Endpoint{}, err
		}
		method = m
	}

	policy, err := r.Encoding.Policy()
	if err != nil {
		return http.Endpoint{}, err
	}

	headers := MergeEnvironments(env.Headers, r.Headers)

	endpoint := http.Endpoint{
		Target:  http.URLString(JoinURL(ProcessEnvironment(env.BaseURL, values), ProcessEnvironment(r.URL, values))),
		Verb:    method,
		Fields:  http.Header(ProcessEnvironmentInMap(headers, values)),
		Encoder: policy,
	}
	if len(r.Params) > 0 {
		endpoint.Params = ProcessValue(r.Params, values)
	}
	return endpoint, nil
}

// JoinURL joins a relative path to a base URL. Absolute paths are returned
// unchanged.
func JoinURL(base, path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") || base == "" {
		return path
	}
	if path == "" {
		return base
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}

// ProcessEnvironment replaces {{name}} placeholders in input. Names are
// applied longest first so that overlapping names resolve the same way on
// every call.
func ProcessEnvironment(input string, env map[string]string) string {
	if !strings.Contains(input, "{{") {
		return input
	}
	keys := make([]string, 0, len(env))
	for key := range env {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})

	result := input
	for _, key := range keys {
		result = strings.ReplaceAll(result, "{{"+key+"}}", env[key])
	}
	return result
}

// ProcessEnvironmentInMap processes placeholders in every map value
func ProcessEnvironmentInMap(input map[string]string, env map[string]string) map[string]string {
	if input == nil {
		return nil
	}
	result := make(map[string]string, len(input))
	for key, value := range input {
		result[key] = ProcessEnvironment(value, env)
	}
	return result
}

// ProcessValue processes placeholders in every string inside a decoded
// parameter tree. Other values are returned as is.
func ProcessValue(value any, env map[string]string) any {
	switch v := value.(type) {
	case string:
		return ProcessEnvironment(v, env)
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, elem := range v {
			out[key] = ProcessValue(elem, env)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, elem := range v {
			out[i] = ProcessValue(elem, env)
		}
		return out
	default:
		return v
	}
}

// MergeEnvironments merges two environments, with the second taking precedence
func MergeEnvironments(base, override map[string]string) map[string]string {
	result := make(map[string]string, len(base)+len(override))
	for key, value := range base {
		result[key] = value
	}
	for key, value := range override {
		result[key] = value
	}
	return result
}
