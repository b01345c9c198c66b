package headers

import (
	"bytes"
	"errors"
	"strings"
)

const crlf = "\r\n"

// ErrMissingColon is returned when a header line has no ':' separator.
var ErrMissingColon = errors.New("invalid header: missing colon")

// Headers maps header names to values. Names are case-sensitive and a
// repeated name keeps only its last value.
type Headers map[string]string

// NewHeaders creates an empty Headers map.
func NewHeaders() Headers {
	return make(Headers)
}

// Get returns the value stored under key, or "" if there is none.
func (h Headers) Get(key string) string {
	return h[key]
}

// Set stores value under key, replacing any previous value.
func (h Headers) Set(key, value string) {
	h[key] = value
}

// Parse consumes at most one header line from data and updates the map.
// It returns n (bytes consumed), done (true iff an empty line was found), and err.
// Behavior:
//   - If no CRLF is found, returns (0, false, nil) and consumes nothing.
//   - If CRLF is at the start ("\r\n"), returns (2, true, nil) indicating end of headers.
//   - Otherwise parses a single "key: value" line, split at the first ':'.
//     Surrounding whitespace of key and value is trimmed.
func (h Headers) Parse(data []byte) (n int, done bool, err error) {
	idx := bytes.Index(data, []byte(crlf))
	if idx == -1 {
		return 0, false, nil
	}
	if idx == 0 {
		return 2, true, nil
	}
	key, val, err := parseLine(string(data[:idx]))
	if err != nil {
		return 0, false, err
	}
	h.Set(key, val)
	return idx + 2, false, nil
}

// ParseBlock parses the header section that follows the request line by
// feeding it to Parse one line at a time. Parsing stops at the first empty
// line; a trailing line without CRLF is still parsed. A line without a
// colon aborts the whole block: the returned map is nil and err is
// ErrMissingColon, so one bad line discards every header parsed before it.
func ParseBlock(block string) (Headers, error) {
	h := NewHeaders()
	data := []byte(block)
	if !bytes.HasSuffix(data, []byte(crlf)) {
		data = append(data, crlf...)
	}
	for len(data) > 0 {
		n, done, err := h.Parse(data)
		if err != nil {
			return nil, err
		}
		if done || n == 0 {
			break
		}
		data = data[n:]
	}
	return h, nil
}

func parseLine(line string) (string, string, error) {
	rawKey, rawVal, ok := strings.Cut(line, ":")
	if !ok {
		return "", "", ErrMissingColon
	}
	return strings.TrimSpace(rawKey), strings.TrimSpace(rawVal), nil
}
