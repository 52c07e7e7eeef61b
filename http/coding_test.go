package http

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type event struct {
	Name      string `json:"name"`
	CreatedAt Date   `json:"created_at"`
}

func TestDate_RoundTrip(t *testing.T) {
	original := event{
		Name:      "deploy",
		CreatedAt: NewDate(time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)),
	}

	data, err := JSONCoder{}.Encode(original)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"deploy","created_at":"2024-01-15T10:30:00Z"}`, string(data))

	var decoded event
	require.NoError(t, JSONCoder{}.Decode(data, &decoded))
	assert.True(t, original.CreatedAt.Equal(decoded.CreatedAt.Time))

	again, err := JSONCoder{}.Encode(decoded)
	require.NoError(t, err)
	assert.Equal(t, string(data), string(again))
}

func TestDate_RoundTripKeepsInstant(t *testing.T) {
	tests := []struct {
		name string
		when time.Time
		text string
	}{
		{
			name: "nanoseconds",
			when: time.Date(2024, 1, 15, 10, 30, 0, 123456789, time.UTC),
			text: "2024-01-15T10:30:00.123456789Z",
		},
		{
			name: "milliseconds with offset",
			when: time.Date(2024, 1, 15, 10, 30, 0, 500000000, time.FixedZone("CET", 3600)),
			text: "2024-01-15T10:30:00.5+01:00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := JSONCoder{}.Encode(event{CreatedAt: NewDate(tt.when)})
			require.NoError(t, err)
			assert.Contains(t, string(data), `"created_at":"`+tt.text+`"`)

			var decoded event
			require.NoError(t, JSONCoder{}.Decode(data, &decoded))
			assert.True(t, tt.when.Equal(decoded.CreatedAt.Time), "decoded %s", decoded.CreatedAt)
			assert.Equal(t, time.UTC, decoded.CreatedAt.Location())
		})
	}

	// The same round trip through a parameter encoding.
	req, err := JSONEncoding{}.Encode(baseRequest(t, MethodPost, "https://api.example.com/events"),
		event{CreatedAt: NewDate(tests[0].when)})
	require.NoError(t, err)
	var decoded event
	require.NoError(t, JSONCoder{}.Decode(req.Body(), &decoded))
	assert.True(t, tests[0].when.Equal(decoded.CreatedAt.Time))
}

func TestDate_DecodeNormalizesToUTC(t *testing.T) {
	var decoded event
	require.NoError(t, JSONCoder{}.Decode([]byte(`{"name":"x","created_at":"2024-01-15T12:30:00+02:00"}`), &decoded))
	assert.Equal(t, time.UTC, decoded.CreatedAt.Location())
	assert.Equal(t, 10, decoded.CreatedAt.Hour())
}

func TestDate_NullLeavesZero(t *testing.T) {
	var decoded event
	require.NoError(t, JSONCoder{}.Decode([]byte(`{"name":"x","created_at":null}`), &decoded))
	assert.True(t, decoded.CreatedAt.IsZero())
}

func TestDecode_DateMismatchNamesField(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "wrong format", body: `{"name":"x","created_at":"15/01/2024"}`},
		{name: "not a string", body: `{"name":"x","created_at":12345}`},
		{name: "date only", body: `{"name":"x","created_at":"2024-01-15"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var decoded event
			err := JSONCoder{}.Decode([]byte(tt.body), &decoded)
			var decodeErr *DecodeError
			require.ErrorAs(t, err, &decodeErr)
			assert.Equal(t, "created_at", decodeErr.Path)
			assert.Contains(t, decodeErr.Expected, "date")
		})
	}
}

func TestDecode_NestedPath(t *testing.T) {
	var decoded struct {
		Event event `json:"event"`
	}
	err := JSONCoder{}.Decode([]byte(`{"event":{"name":"x","created_at":"yesterday"}}`), &decoded)
	var decodeErr *DecodeError
	require.ErrorAs(t, err, &decodeErr)
	assert.Equal(t, "event.created_at", decodeErr.Path)
}

func TestDecode_ShapeMismatch(t *testing.T) {
	var decoded event
	err := JSONCoder{}.Decode([]byte(`{"name":42}`), &decoded)
	var decodeErr *DecodeError
	require.ErrorAs(t, err, &decodeErr)
	assert.Equal(t, "name", decodeErr.Path)
	assert.Equal(t, "string", decodeErr.Expected)

	err = JSONCoder{}.Decode([]byte(`{"name":`), &decoded)
	require.ErrorAs(t, err, &decodeErr)
	assert.Empty(t, decodeErr.Path)
}

func TestJSONCoder_DoesNotEscapeHTML(t *testing.T) {
	data, err := JSONCoder{}.Encode(map[string]string{"q": "a<b>&c"})
	require.NoError(t, err)
	assert.Equal(t, `{"q":"a<b>&c"}`, string(data))
}

func TestJSONCoder_EncodeIndent(t *testing.T) {
	data, err := JSONCoder{}.EncodeIndent(map[string][]int{"ids": {1}}, "  ")
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"ids\": [\n    1\n  ]\n}", string(data))
}

func TestDate_Text(t *testing.T) {
	d, err := ParseDate("2024-06-01T00:00:00Z")
	require.NoError(t, err)

	text, err := d.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "2024-06-01T00:00:00Z", string(text))

	var parsed Date
	require.NoError(t, parsed.UnmarshalText(text))
	assert.True(t, parsed.Equal(d.Time))
	assert.Error(t, parsed.UnmarshalText([]byte("June 1st")))
}
