package request

import "strings"

// Method is the request verb, reduced to the set this server understands.
type Method int

const (
	MethodUnrecognized Method = iota
	MethodGet
	MethodPost
)

func (m Method) String() string {
	switch m {
	case MethodGet:
		return "GET"
	case MethodPost:
		return "POST"
	default:
		return "UNRECOGNIZED"
	}
}

func classify(token string) Method {
	switch token {
	case "GET":
		return MethodGet
	case "POST":
		return MethodPost
	default:
		return MethodUnrecognized
	}
}

// ParseMethod classifies the token before the first space of the request
// line. It never fails: a missing request line or verb is MethodUnrecognized.
func ParseMethod(raw string) Method {
	line, _, ok := strings.Cut(raw, crlf)
	if !ok {
		return MethodUnrecognized
	}
	token, _, ok := strings.Cut(line, " ")
	if !ok {
		return MethodUnrecognized
	}
	return classify(token)
}

// ParseResource extracts the request target for GET and POST requests with
// exactly one leading '/' removed. The outcome is Absent when the method is
// not recognized or the request line does not split into
// method, target and version.
func ParseResource(raw string) (string, Outcome) {
	line, _, ok := strings.Cut(raw, crlf)
	if !ok {
		return "", Absent
	}
	method, rest, ok := strings.Cut(line, " ")
	if !ok {
		return "", Absent
	}
	if classify(method) == MethodUnrecognized {
		return "", Absent
	}
	target, _, ok := strings.Cut(rest, " ")
	if !ok {
		return "", Absent
	}
	return strings.TrimPrefix(target, "/"), Parsed
}
