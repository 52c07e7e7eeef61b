package http

import (
	"errors"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"
)

type queryPair struct {
	key   string
	value string
}

type queryPairs []queryPair

func (p queryPairs) encode() string {
	var sb strings.Builder
	for i, pair := range p {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(escape(pair.key))
		sb.WriteByte('=')
		sb.WriteString(escape(pair.value))
	}
	return sb.String()
}

// flatten walks a serialized JSON object and renders every leaf as a
// key/value pair. Pairs keep the order of the serialized payload.
func flatten(data []byte, arrays ArrayEncoding, bools BoolEncoding) (queryPairs, error) {
	if !gjson.ValidBytes(data) {
		return nil, errors.New("parameters did not serialize to valid JSON")
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, errors.New("parameters must serialize to a JSON object")
	}

	var pairs queryPairs
	root.ForEach(func(key, value gjson.Result) bool {
		pairs = appendComponents(pairs, key.String(), value, arrays, bools)
		return true
	})
	return pairs, nil
}

func appendComponents(pairs queryPairs, key string, value gjson.Result, arrays ArrayEncoding, bools BoolEncoding) queryPairs {
	switch {
	case value.IsObject():
		value.ForEach(func(k, v gjson.Result) bool {
			pairs = appendComponents(pairs, key+"["+k.String()+"]", v, arrays, bools)
			return true
		})
	case value.IsArray():
		for _, elem := range value.Array() {
			pairs = appendComponents(pairs, arrays.key(key), elem, arrays, bools)
		}
	case value.IsBool():
		pairs = append(pairs, queryPair{key: key, value: bools.value(value.Bool())})
	case value.Type == gjson.Number:
		pairs = append(pairs, queryPair{key: key, value: value.Raw})
	case value.Type == gjson.Null:
		pairs = append(pairs, queryPair{key: key})
	default:
		pairs = append(pairs, queryPair{key: key, value: value.String()})
	}
	return pairs
}

// escape percent-encodes s for use in a query component. Spaces become
// %20 rather than +.
func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
