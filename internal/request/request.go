package request

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xaitan80/fileserve/internal/headers"
)

const (
	crlf      = "\r\n"
	headerEnd = "\r\n\r\n"

	// DefaultBufferSize bounds how many request bytes are read per connection.
	DefaultBufferSize = 1024
)

// ErrNoRequest is returned when the peer closes the connection without
// sending a single byte.
var ErrNoRequest = errors.New("connection closed before a request was sent")

// Outcome records how a permissively parsed part of the request was obtained.
type Outcome int

const (
	// Parsed means the value was read from the request.
	Parsed Outcome = iota
	// Absent means the request did not carry the value and a default was used.
	Absent
	// Malformed means the value was present but unusable and a default was used.
	Malformed
)

func (o Outcome) String() string {
	switch o {
	case Parsed:
		return "parsed"
	case Absent:
		return "absent"
	case Malformed:
		return "malformed"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Request is a parsed HTTP request. It is built once per connection and
// treated as read-only afterwards.
type Request struct {
	RequestLine    RequestLine
	Headers        headers.Headers
	HeadersOutcome Outcome
	Body           []byte
}

type RequestLine struct {
	Method  Method
	Version Version
	// Target is the request target without its leading '/'. It is "" when
	// TargetOutcome is Absent, which callers serve as the root.
	Target        string
	TargetOutcome Outcome
}

// Parse builds a Request from raw request bytes. Only a missing or
// unrecognized protocol version is an error; method, target and headers
// fall back to defaults and record the fallback in their Outcome.
func Parse(raw []byte) (*Request, error) {
	s := string(raw)

	version, err := ParseVersion(s)
	if err != nil {
		return nil, err
	}

	target, targetOutcome := ParseResource(s)
	if targetOutcome != Parsed {
		target = ""
	}

	hdrs, hdrsOutcome := parseHeaders(s)

	var body []byte
	if idx := strings.Index(s, headerEnd); idx != -1 {
		body = []byte(s[idx+len(headerEnd):])
	}

	return &Request{
		RequestLine: RequestLine{
			Method:        ParseMethod(s),
			Version:       version,
			Target:        target,
			TargetOutcome: targetOutcome,
		},
		Headers:        hdrs,
		HeadersOutcome: hdrsOutcome,
		Body:           body,
	}, nil
}

func parseHeaders(s string) (headers.Headers, Outcome) {
	_, block, ok := strings.Cut(s, crlf)
	if !ok {
		return headers.NewHeaders(), Absent
	}
	h, err := headers.ParseBlock(block)
	if err != nil {
		return headers.NewHeaders(), Malformed
	}
	return h, Parsed
}

// RequestFromReader reads a single request of at most size bytes from reader
// and parses it. Reading stops once the blank line ending the header section
// has arrived, the buffer is full, or the reader reports EOF. Anything beyond
// size bytes is never read.
func RequestFromReader(reader io.Reader, size int) (*Request, error) {
	if size <= 0 {
		size = DefaultBufferSize
	}
	buf := make([]byte, size)
	n := 0
	for n < len(buf) {
		m, err := reader.Read(buf[n:])
		// The terminator may straddle two reads.
		from := max(n-len(headerEnd)+1, 0)
		n += m
		if bytes.Contains(buf[from:n], []byte(headerEnd)) {
			break
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read request: %w", err)
		}
	}
	if n == 0 {
		return nil, ErrNoRequest
	}
	return Parse(buf[:n])
}
