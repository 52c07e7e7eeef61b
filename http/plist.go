package http

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/tidwall/gjson"
	"howett.net/plist"
)

// PropertyListFormat selects the serialization of PropertyListEncoding.
type PropertyListFormat int

const (
	// PropertyListXML writes an XML property list. This is the default.
	PropertyListXML PropertyListFormat = iota
	// PropertyListBinary writes a binary property list.
	PropertyListBinary
)

// PropertyListEncoding serializes parameters as a property list body.
// The payload goes through the JSON coder first so that field names and
// dates match the other encodings. Property lists have no null: null object
// members are omitted, and a null array element fails the encoding.
type PropertyListEncoding struct {
	Format PropertyListFormat
}

// Encode implements ParameterEncoding.
func (e PropertyListEncoding) Encode(rc RequestConvertible, params any) (*Request, error) {
	base, err := requestFrom(rc)
	if err != nil {
		return nil, err
	}
	req := base.clone()
	if params == nil {
		return req, nil
	}

	data, err := JSONCoder{}.Encode(params)
	if err != nil {
		return nil, &ParameterEncodingError{Reason: ReasonPropertyListEncodingFailed, Err: err}
	}
	if !gjson.ValidBytes(data) {
		return nil, &ParameterEncodingError{Reason: ReasonPropertyListEncodingFailed, Err: errors.New("invalid intermediate JSON")}
	}

	format := plist.XMLFormat
	if e.Format == PropertyListBinary {
		format = plist.BinaryFormat
	}
	value, err := plistValue(gjson.ParseBytes(data))
	if err != nil {
		return nil, &ParameterEncodingError{Reason: ReasonPropertyListEncodingFailed, Err: err}
	}
	body, err := plist.Marshal(value, format)
	if err != nil {
		return nil, &ParameterEncodingError{Reason: ReasonPropertyListEncodingFailed, Err: err}
	}

	if req.header.Get("Content-Type") == "" {
		req.header.Set("Content-Type", ContentTypePropertyList)
	}
	req.body = body
	return req, nil
}

// errPropertyListNull reports a null array element, which property lists
// cannot represent without shifting the elements after it.
var errPropertyListNull = errors.New("property lists cannot hold null array elements")

// plistValue converts a JSON value into the plain Go values the plist
// encoder understands. Integral numbers stay integers.
func plistValue(v gjson.Result) (any, error) {
	switch {
	case v.IsObject():
		m := make(map[string]any)
		var err error
		v.ForEach(func(k, val gjson.Result) bool {
			if val.Type == gjson.Null {
				return true
			}
			m[k.String()], err = plistValue(val)
			return err == nil
		})
		return m, err
	case v.IsArray():
		elems := v.Array()
		out := make([]any, 0, len(elems))
		for i, elem := range elems {
			if elem.Type == gjson.Null {
				return nil, fmt.Errorf("index %d: %w", i, errPropertyListNull)
			}
			value, err := plistValue(elem)
			if err != nil {
				return nil, err
			}
			out = append(out, value)
		}
		return out, nil
	case v.IsBool():
		return v.Bool(), nil
	case v.Type == gjson.Number:
		if i, err := strconv.ParseInt(v.Raw, 10, 64); err == nil {
			return i, nil
		}
		return v.Float(), nil
	default:
		return v.String(), nil
	}
}
