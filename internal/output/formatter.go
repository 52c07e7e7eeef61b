package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/wesleyorama2/courier/http"
)

// Formatter is responsible for formatting requests and responses in text format
type Formatter struct {
	Verbose bool
	NoColor bool
	colors  *ColorScheme
}

// NewFormatter creates a new formatter with the given options
func NewFormatter(verbose, noColor bool) *Formatter {
	colors := NoColorScheme()
	if !noColor {
		colors = forceColor(DefaultColorScheme())
	}
	return &Formatter{
		Verbose: verbose,
		NoColor: noColor,
		colors:  colors,
	}
}

// FormatRequest formats a wire request for display
func (f *Formatter) FormatRequest(req *http.Request) string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "▶ REQUEST: %s %s\n",
		f.colors.Method.Sprint(req.Method()),
		f.colors.URL.Sprint(req.URL().String()))

	header := req.Header()
	if f.Verbose || len(header) > 0 {
		buf.WriteString("  Headers:\n")
		f.writeHeaders(&buf, header)
	}

	if req.HasBody() {
		buf.WriteString("  Body: ")
		buf.WriteString(formatBody(req.Body()))
		buf.WriteString("\n")
	}

	return buf.String()
}

// FormatResponse formats a response for display
func (f *Formatter) FormatResponse(resp *http.Response) string {
	var buf strings.Builder

	statusColor := f.colors.StatusError
	if resp.IsSuccess() {
		statusColor = f.colors.StatusOK
	} else if resp.IsRedirect() {
		statusColor = f.colors.StatusWarn
	}

	status := resp.Status
	if status == "" {
		status = fmt.Sprintf("%d", resp.StatusCode)
	}
	fmt.Fprintf(&buf, "◀ RESPONSE: %s (%dms)\n", statusColor.Sprint(status), resp.ResponseTimeMillis())

	if f.Verbose {
		t := resp.Timing
		buf.WriteString("  Timing:\n")
		fmt.Fprintf(&buf, "    DNS Lookup:         %dms\n", t.DNSLookupTime.Milliseconds())
		fmt.Fprintf(&buf, "    TCP Connection:     %dms\n", t.TCPConnectTime.Milliseconds())
		fmt.Fprintf(&buf, "    TLS Handshake:      %dms\n", t.TLSHandshakeTime.Milliseconds())
		fmt.Fprintf(&buf, "    Time to First Byte: %dms\n", t.TimeToFirstByte.Milliseconds())
		fmt.Fprintf(&buf, "    Content Transfer:   %dms\n", t.ContentTransferTime.Milliseconds())
		fmt.Fprintf(&buf, "    Total:              %dms\n", t.TotalTime.Milliseconds())

		buf.WriteString("  Headers:\n")
		f.writeHeaders(&buf, resp.Headers)
	}

	if len(resp.Body) > 0 {
		buf.WriteString("  Body:\n")
		buf.WriteString(formatBody(resp.Body))
		buf.WriteString("\n")
	}

	return buf.String()
}

// FormatChecks formats check results, one line each
func (f *Formatter) FormatChecks(checks []Check) string {
	var buf strings.Builder
	for _, c := range checks {
		icon := SuccessIcon(f.NoColor)
		if !c.Passed {
			icon = ErrorIcon(f.NoColor)
		}
		label := c.Type
		if c.Name != "" {
			label += " " + f.colors.Highlight.Sprint(c.Name)
		}
		switch {
		case c.Message != "":
			fmt.Fprintf(&buf, "%s %s: %s\n", icon, label, c.Message)
		case c.Value != "":
			fmt.Fprintf(&buf, "%s %s = %s\n", icon, label, c.Value)
		default:
			fmt.Fprintf(&buf, "%s %s\n", icon, label)
		}
	}
	return buf.String()
}

// writeHeaders writes header fields in sorted order
func (f *Formatter) writeHeaders(buf *strings.Builder, header map[string][]string) {
	keys := make([]string, 0, len(header))
	for key := range header {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		for _, value := range header[key] {
			fmt.Fprintf(buf, "    %s: %s\n", f.colors.HeaderKey.Sprint(key), value)
		}
	}
}

// formatBody pretty-prints JSON and returns other text unchanged
func formatBody(body []byte) string {
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, body, "  ", "  "); err == nil {
		return pretty.String()
	}
	if utf8.Valid(body) {
		return string(body)
	}
	return fmt.Sprintf("<%d bytes of binary data>", len(body))
}
