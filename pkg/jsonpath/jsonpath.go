package jsonpath

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tidwall/gjson"
)

// Extract extracts a value from a JSON document using a JSONPath
// expression such as $.users[0].name. Strings are returned unquoted, null
// as "null", and objects and arrays as raw JSON.
func Extract(data []byte, path string) (string, error) {
	result, err := Lookup(data, path)
	if err != nil {
		return "", err
	}
	if result.Type == gjson.Null {
		return "null", nil
	}
	return result.String(), nil
}

// Lookup returns the gjson result addressed by a JSONPath expression.
func Lookup(data []byte, path string) (gjson.Result, error) {
	if len(data) == 0 {
		return gjson.Result{}, fmt.Errorf("empty JSON document")
	}
	if path == "" {
		return gjson.Result{}, fmt.Errorf("empty JSONPath expression")
	}
	if !gjson.ValidBytes(data) {
		return gjson.Result{}, fmt.Errorf("invalid JSON document")
	}

	result := gjson.GetBytes(data, convertToGjsonPath(path))
	if !result.Exists() {
		return gjson.Result{}, fmt.Errorf("path not found: %s", path)
	}
	return result, nil
}

// ExtractMultiple extracts one value per named expression. Values that
// could be extracted are returned even when others fail.
func ExtractMultiple(data []byte, paths map[string]string) (map[string]string, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("no JSONPath expressions provided")
	}

	names := make([]string, 0, len(paths))
	for name := range paths {
		names = append(names, name)
	}
	sort.Strings(names)

	results := make(map[string]string, len(paths))
	var errs []string
	for _, name := range names {
		value, err := Extract(data, paths[name])
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", name, err))
			continue
		}
		results[name] = value
	}

	if len(errs) > 0 {
		return results, fmt.Errorf("extraction errors: %s", strings.Join(errs, "; "))
	}
	return results, nil
}

// convertToGjsonPath converts a JSONPath expression to gjson syntax:
// $.users[0]['first name'] becomes users.0.first name.
func convertToGjsonPath(path string) string {
	path = strings.TrimPrefix(strings.TrimSpace(path), "$")
	if path == "" {
		return "@this"
	}

	var segments []string
	for i := 0; i < len(path); {
		switch path[i] {
		case '.':
			i++
		case '[':
			end := strings.IndexByte(path[i:], ']')
			if end < 0 {
				segments = append(segments, escapeSegment(path[i+1:]))
				i = len(path)
				continue
			}
			inner := strings.Trim(path[i+1:i+end], `'"`)
			segments = append(segments, escapeSegment(inner))
			i += end + 1
		default:
			end := strings.IndexAny(path[i:], ".[")
			if end < 0 {
				end = len(path) - i
			}
			segments = append(segments, escapeSegment(path[i:i+end]))
			i += end
		}
	}
	if len(segments) == 0 {
		return "@this"
	}
	return strings.Join(segments, ".")
}

// escapeSegment escapes gjson's path metacharacters inside a key.
func escapeSegment(s string) string {
	if !strings.ContainsAny(s, `.*?|#@\`) {
		return s
	}
	var sb strings.Builder
	for _, r := range s {
		if strings.ContainsRune(`.*?|#@\`, r) {
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
