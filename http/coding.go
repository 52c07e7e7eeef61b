package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"
)

// DateFormat is the single textual date format used when encoding
// parameters and decoding responses. Fractional seconds are written only
// when non-zero, so plain RFC 3339 text parses too.
const DateFormat = time.RFC3339Nano

// Date is a time.Time that serializes with DateFormat. Decoded dates are
// normalized to UTC: a round trip keeps the instant, down to the
// nanosecond, so compare dates with Equal rather than ==.
type Date struct {
	time.Time
}

// NewDate wraps t.
func NewDate(t time.Time) Date {
	return Date{Time: t}
}

// ParseDate parses s using DateFormat.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateFormat, s)
	if err != nil {
		return Date{}, err
	}
	return Date{Time: t.UTC()}, nil
}

// FormatDate renders t using DateFormat.
func FormatDate(t time.Time) string {
	return t.Format(DateFormat)
}

// String renders the date using DateFormat.
func (d Date) String() string {
	return FormatDate(d.Time)
}

// MarshalJSON implements json.Marshaler.
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(FormatDate(d.Time))
}

// UnmarshalJSON implements json.Unmarshaler. A value that is not a string
// in DateFormat is reported as a type mismatch, which the decoder annotates
// with the field path.
func (d *Date) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return &json.UnmarshalTypeError{Value: string(data), Type: dateType}
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return &json.UnmarshalTypeError{Value: "string " + string(data), Type: dateType}
	}
	*d = parsed
	return nil
}

var dateType = reflect.TypeOf(Date{})

// JSONCoder serializes parameter payloads and deserializes response
// bodies. Encoding and decoding agree on DateFormat through the Date type.
type JSONCoder struct {
	// Indent, when non-empty, pretty-prints output with the given indent.
	Indent string
}

// Encode serializes v. HTML characters are not escaped and no trailing
// newline is written.
func (c JSONCoder) Encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if c.Indent != "" {
		enc.SetIndent("", c.Indent)
	}
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// EncodeIndent serializes v with each nesting level indented by indent.
func (c JSONCoder) EncodeIndent(v any, indent string) ([]byte, error) {
	c.Indent = indent
	return c.Encode(v)
}

// Decode deserializes data into v, which must be a non-nil pointer. Shape
// mismatches are returned as *DecodeError.
func (c JSONCoder) Decode(data []byte, v any) error {
	err := json.Unmarshal(data, v)
	if err == nil {
		return nil
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		path := typeErr.Field
		if typeErr.Struct != "" && path == "" {
			path = typeErr.Struct
		}
		return &DecodeError{Path: path, Expected: typeName(typeErr.Type), Err: err}
	}

	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return &DecodeError{Expected: typeName(reflect.TypeOf(v)), Err: fmt.Errorf("offset %d: %w", syntaxErr.Offset, err)}
	}
	return &DecodeError{Expected: typeName(reflect.TypeOf(v)), Err: err}
}

func typeName(t reflect.Type) string {
	if t == nil {
		return "value"
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == dateType {
		return "date (" + DateFormat + ")"
	}
	name := t.String()
	if name == "" {
		return strings.ToLower(t.Kind().String())
	}
	return name
}

// MarshalText implements encoding.TextMarshaler using DateFormat.
func (d Date) MarshalText() ([]byte, error) {
	return []byte(FormatDate(d.Time)), nil
}

// UnmarshalText implements encoding.TextUnmarshaler using DateFormat.
func (d *Date) UnmarshalText(text []byte) error {
	parsed, err := ParseDate(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
