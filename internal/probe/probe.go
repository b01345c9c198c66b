// Package probe talks to a running file server over raw TCP.
package probe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"

	"github.com/xaitan80/fileserve/internal/response"
)

// ErrIncomplete is returned when the peer closed before the header section ended.
var ErrIncomplete = errors.New("incomplete response")

// Result is a response read back from the server.
type Result struct {
	Proto   string
	Status  response.StatusCode
	Reason  string
	Headers response.Headers
	Body    []byte
}

// Fetch sends a GET for target to addr and reads the response until the
// server closes the connection. The context deadline, if any, bounds the
// whole exchange.
func Fetch(ctx context.Context, addr, target string) (*Result, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()
	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			return nil, err
		}
	}

	if !strings.HasPrefix(target, "/") {
		target = "/" + target
	}
	req := fmt.Sprintf("GET %s HTTP/1.1\r\nHost: %s\r\nUser-Agent: fileserve-fetch\r\nAccept: */*\r\n\r\n", target, addr)
	if _, err := io.WriteString(conn, req); err != nil {
		return nil, fmt.Errorf("write request: %w", err)
	}

	raw, err := io.ReadAll(conn)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return ParseResponse(raw)
}

// ParseResponse splits raw response bytes into status line, headers and
// body. It fails if Content-Length disagrees with the body received.
func ParseResponse(raw []byte) (*Result, error) {
	head, body, ok := bytes.Cut(raw, []byte("\r\n\r\n"))
	if !ok {
		return nil, ErrIncomplete
	}
	lines := strings.Split(string(head), "\r\n")

	proto, rest, ok := strings.Cut(lines[0], " ")
	if !ok {
		return nil, fmt.Errorf("invalid status line %q", lines[0])
	}
	codeStr, reason, _ := strings.Cut(rest, " ")
	code, err := strconv.Atoi(codeStr)
	if err != nil {
		return nil, fmt.Errorf("invalid status code %q", codeStr)
	}

	res := &Result{
		Proto:  proto,
		Status: response.StatusCode(code),
		Reason: reason,
		Body:   body,
	}
	for _, line := range lines[1:] {
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			return nil, fmt.Errorf("invalid header line %q", line)
		}
		res.Headers.Set(strings.TrimSpace(name), strings.TrimSpace(value))
	}

	if cl := res.Headers.Get("Content-Length"); cl != "" {
		n, err := strconv.Atoi(cl)
		if err != nil {
			return nil, fmt.Errorf("invalid Content-Length %q", cl)
		}
		if n != len(body) {
			return nil, fmt.Errorf("Content-Length %d does not match body length %d", n, len(body))
		}
	}
	return res, nil
}

// Lines reads from f in 8-byte chunks, assembles complete lines,
// and sends each line (without newline) on a channel. It closes f and
// the channel when done.
func Lines(f io.ReadCloser) <-chan string {
	ch := make(chan string)
	go func() {
		defer f.Close()
		defer close(ch)

		buf := make([]byte, 8)
		current := make([]byte, 0, 128)

		for {
			n, err := f.Read(buf)
			data := buf[:n]
			for len(data) > 0 {
				i := bytes.IndexByte(data, '\n')
				if i < 0 {
					current = append(current, data...)
					break
				}
				line := append(current, data[:i]...)
				// Trim a trailing '\r' to handle CRLF (\r\n)
				ch <- string(bytes.TrimSuffix(line, []byte{'\r'}))
				current = current[:0]
				data = data[i+1:]
			}
			if err != nil {
				break
			}
		}

		// flush any remaining partial line
		if len(current) > 0 {
			ch <- string(bytes.TrimSuffix(current, []byte{'\r'}))
		}
	}()
	return ch
}
