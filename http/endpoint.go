package http

// Endpoint is a descriptor assembled from plain values, for callers that
// build requests at run time rather than declaring a type per call.
type Endpoint struct {
	Target  URLConvertible
	Verb    Method
	Fields  Header
	Params  any
	Encoder ParameterEncoding
}

// URL implements Requestable.
func (e Endpoint) URL() URLConvertible { return e.Target }

// Method implements MethodProvider.
func (e Endpoint) Method() Method { return e.Verb }

// Headers implements HeaderProvider.
func (e Endpoint) Headers() Header { return e.Fields }

// Encoding implements EncodingProvider.
func (e Endpoint) Encoding() ParameterEncoding { return e.Encoder }

// Parameters implements EncodableRequestable.
func (e Endpoint) Parameters() any { return e.Params }
