package config

import (
	"fmt"
	"sort"

	"github.com/wesleyorama2/courier/http"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Path    string
	Message string
}

// Error returns the error message
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// ValidateConfig validates the configuration. Errors are reported in a
// stable order.
func ValidateConfig(config *Config) []ValidationError {
	var errors []ValidationError

	if len(config.Environments) == 0 {
		errors = append(errors, ValidationError{
			Path:    "environments",
			Message: "at least one environment is required",
		})
	}

	for _, name := range sortedKeys(config.Environments) {
		env := config.Environments[name]
		if env.BaseURL == "" {
			errors = append(errors, ValidationError{
				Path:    fmt.Sprintf("environments.%s.baseUrl", name),
				Message: "baseUrl is required",
			})
		}
	}

	if len(config.Requests) == 0 {
		errors = append(errors, ValidationError{
			Path:    "requests",
			Message: "at least one request is required",
		})
	}

	for _, name := range sortedKeys(config.Requests) {
		errors = append(errors, validateRequest(config, name, config.Requests[name])...)
	}

	return errors
}

func validateRequest(config *Config, name string, req Request) []ValidationError {
	var errors []ValidationError

	if req.URL == "" {
		errors = append(errors, ValidationError{
			Path:    fmt.Sprintf("requests.%s.url", name),
			Message: "url is required",
		})
	}

	// An empty method means GET.
	if req.Method != "" {
		if _, err := http.ParseMethod(req.Method); err != nil {
			errors = append(errors, ValidationError{
				Path:    fmt.Sprintf("requests.%s.method", name),
				Message: fmt.Sprintf("invalid method: %s", req.Method),
			})
		}
	}

	if _, err := req.Encoding.Policy(); err != nil {
		errors = append(errors, ValidationError{
			Path:    fmt.Sprintf("requests.%s.encoding", name),
			Message: err.Error(),
		})
	}

	for _, varName := range sortedKeys(req.Extract) {
		if req.Extract[varName] == "" {
			errors = append(errors, ValidationError{
				Path:    fmt.Sprintf("requests.%s.extract.%s", name, varName),
				Message: "extract path cannot be empty",
			})
		}
	}

	if status := req.Validate.Status; status != 0 && (status < 100 || status > 599) {
		errors = append(errors, ValidationError{
			Path:    fmt.Sprintf("requests.%s.validate.status", name),
			Message: fmt.Sprintf("invalid status code: %d", status),
		})
	}

	if schema := req.Validate.Schema; schema != "" {
		if _, ok := config.Schemas[schema]; !ok {
			errors = append(errors, ValidationError{
				Path:    fmt.Sprintf("requests.%s.validate.schema", name),
				Message: fmt.Sprintf("schema not found: %s", schema),
			})
		}
	}

	return errors
}

// ValidateEnvironment validates that an environment exists
func ValidateEnvironment(config *Config, envName string) error {
	if _, ok := config.Environments[envName]; !ok {
		return fmt.Errorf("environment not found: %s", envName)
	}
	return nil
}

// ValidateRequest validates that a request exists
func ValidateRequest(config *Config, reqName string) error {
	if _, ok := config.Requests[reqName]; !ok {
		return fmt.Errorf("request not found: %s", reqName)
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
