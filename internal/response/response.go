package response

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/xaitan80/fileserve/internal/request"
)

// StatusCode is a limited set of HTTP status codes we support.
type StatusCode int

const (
	StatusOK                  StatusCode = 200
	StatusBadRequest          StatusCode = 400
	StatusNotFound            StatusCode = 404
	StatusInternalServerError StatusCode = 500
)

// Reason returns the reason phrase for the status code, or "" if unknown.
func (s StatusCode) Reason() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusBadRequest:
		return "Bad Request"
	case StatusNotFound:
		return "Not Found"
	case StatusInternalServerError:
		return "Internal Server Error"
	default:
		return ""
	}
}

// String renders the code the way it appears on the status line, e.g. "404 Not Found".
func (s StatusCode) String() string {
	if reason := s.Reason(); reason != "" {
		return fmt.Sprintf("%d %s", int(s), reason)
	}
	return strconv.Itoa(int(s))
}

// AcceptRanges is the value advertised in the Accept-Ranges header.
// Ranges are advertised but never honored.
type AcceptRanges int

const (
	AcceptRangesNone AcceptRanges = iota
	AcceptRangesBytes
)

func (a AcceptRanges) String() string {
	if a == AcceptRangesBytes {
		return "bytes"
	}
	return "none"
}

// Header is a single response header field.
type Header struct {
	Name  string
	Value string
}

// Headers is an ordered list of response header fields with unique names.
type Headers []Header

// Set replaces the value of name, or appends the field if it is not present.
func (h *Headers) Set(name, value string) {
	for i := range *h {
		if (*h)[i].Name == name {
			(*h)[i].Value = value
			return
		}
	}
	*h = append(*h, Header{Name: name, Value: value})
}

// Get returns the value of name, or "" if it is not present.
func (h Headers) Get(name string) string {
	for _, f := range h {
		if f.Name == name {
			return f.Value
		}
	}
	return ""
}

// headerOrder fixes where the well-known fields go on the wire. Fields not
// listed follow in the order they were set.
var headerOrder = []string{"Content-Type", "Content-Length", "Accept-Ranges", "Content-Disposition"}

// Response is a complete response, built in one go and then serialized.
type Response struct {
	Version request.Version
	Status  StatusCode
	Headers Headers
	Body    []byte
}

// New returns a response carrying body with its Content-Type (if any) and
// Content-Length already set.
func New(version request.Version, status StatusCode, contentType string, body []byte) *Response {
	r := &Response{Version: version, Status: status, Body: body}
	if contentType != "" {
		r.Headers.Set("Content-Type", contentType)
	}
	r.Headers.Set("Content-Length", strconv.Itoa(len(body)))
	return r
}

// ErrorPage returns a small HTML response for status,
// e.g. "<html><body><h1>404 Not Found</h1></body></html>".
func ErrorPage(version request.Version, status StatusCode) *Response {
	body := []byte("<html><body><h1>" + status.String() + "</h1></body></html>")
	r := New(version, status, "text/html", body)
	r.Headers.Set("Accept-Ranges", AcceptRangesNone.String())
	return r
}

// Write serializes r through w. Content-Length is always taken from the body
// so the declared and transmitted lengths cannot disagree.
func (r *Response) Write(w *Writer) error {
	if err := w.WriteStatusLine(r.Status); err != nil {
		return err
	}
	hdrs := append(Headers(nil), r.Headers...)
	hdrs.Set("Content-Length", strconv.Itoa(len(r.Body)))
	if err := w.WriteHeaders(hdrs); err != nil {
		return err
	}
	_, err := w.WriteBody(r.Body)
	return err
}

// Bytes returns the full wire form of r: status line, headers, blank line and body.
func (r *Response) Bytes() []byte {
	var buf bytes.Buffer
	// Writes to a bytes.Buffer cannot fail.
	_ = r.Write(NewWriter(&buf, r.Version))
	return buf.Bytes()
}

// WriteTo writes the wire form of r to w in a single write.
func (r *Response) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(r.Bytes())
	return int64(n), err
}

// ErrWriteOrder is returned when a response part is written out of order.
var ErrWriteOrder = errors.New("response parts written out of order")

type writerState int

const (
	stateStatusLine writerState = iota
	stateHeaders
	stateBody
)

// Writer writes a response in three steps: status line, headers, body.
// Each step must follow the previous one.
type Writer struct {
	w       io.Writer
	version request.Version
	state   writerState
	wrote   bool
}

// NewWriter returns a Writer that labels the status line with version.
func NewWriter(w io.Writer, version request.Version) *Writer {
	return &Writer{w: w, version: version}
}

// WroteAnything reports whether any bytes were handed to the underlying writer.
func (w *Writer) WroteAnything() bool {
	return w.wrote
}

// WriteStatusLine writes "VERSION CODE REASON\r\n".
func (w *Writer) WriteStatusLine(status StatusCode) error {
	if w.state != stateStatusLine {
		return ErrWriteOrder
	}
	n, err := fmt.Fprintf(w.w, "%s %s\r\n", w.version, status)
	if n > 0 {
		w.wrote = true
	}
	if err != nil {
		return err
	}
	w.state = stateHeaders
	return nil
}

// WriteHeaders writes headers as "Key: Value\r\n" lines and a final CRLF.
func (w *Writer) WriteHeaders(h Headers) error {
	if w.state != stateHeaders {
		return ErrWriteOrder
	}
	written := make(map[string]struct{}, len(h))
	for _, name := range headerOrder {
		for _, f := range h {
			if f.Name == name {
				if _, err := fmt.Fprintf(w.w, "%s: %s\r\n", f.Name, f.Value); err != nil {
					return err
				}
				written[name] = struct{}{}
				break
			}
		}
	}
	for _, f := range h {
		if _, ok := written[f.Name]; ok {
			continue
		}
		if _, err := fmt.Fprintf(w.w, "%s: %s\r\n", f.Name, f.Value); err != nil {
			return err
		}
	}
	if _, err := io.WriteString(w.w, "\r\n"); err != nil {
		return err
	}
	w.state = stateBody
	return nil
}

// WriteBody writes body bytes verbatim. It may be called more than once.
func (w *Writer) WriteBody(p []byte) (int, error) {
	if w.state != stateBody {
		return 0, ErrWriteOrder
	}
	return w.w.Write(p)
}
