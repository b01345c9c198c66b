package request

import (
	"fmt"
	"strings"
)

// Version is the protocol version declared on the request line.
type Version int

const (
	HTTP11 Version = iota
	HTTP2
)

func (v Version) String() string {
	switch v {
	case HTTP11:
		return "HTTP/1.1"
	case HTTP2:
		return "HTTP/2"
	default:
		return fmt.Sprintf("Version(%d)", int(v))
	}
}

// VersionError reports a request whose request line carries no recognized
// protocol version, or that has no request line at all.
type VersionError struct {
	Input string
}

func (e *VersionError) Error() string {
	return fmt.Sprintf("unknown protocol version in %q", e.Input)
}

// ParseVersion scans the whitespace-separated tokens of the request line and
// returns the first recognized version.
func ParseVersion(raw string) (Version, error) {
	line, _, ok := strings.Cut(raw, crlf)
	if !ok {
		return 0, &VersionError{Input: raw}
	}
	for _, tok := range strings.Fields(line) {
		switch tok {
		case "HTTP/1.1":
			return HTTP11, nil
		case "HTTP/2", "HTTP/2.0":
			return HTTP2, nil
		}
	}
	return 0, &VersionError{Input: raw}
}
