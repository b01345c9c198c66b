package server_test

import (
	"errors"
	"io"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xaitan80/fileserve/internal/fileserver"
	"github.com/xaitan80/fileserve/internal/fsys"
	"github.com/xaitan80/fileserve/internal/request"
	"github.com/xaitan80/fileserve/internal/response"
	"github.com/xaitan80/fileserve/internal/server"
)

func start(t *testing.T, h server.Handler, maxConns int) *server.Server {
	t.Helper()
	srv, err := server.Serve(server.Config{
		Addr:           "127.0.0.1:0",
		MaxConnections: maxConns,
	}, h)
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Close() })
	return srv
}

func dial(t *testing.T, srv *server.Server) net.Conn {
	t.Helper()
	conn, err := net.Dial("tcp", srv.Addr().String())
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readAll(t *testing.T, conn net.Conn) string {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	out, err := io.ReadAll(conn)
	require.NoError(t, err)
	return string(out)
}

func roundTrip(t *testing.T, srv *server.Server, raw string) string {
	t.Helper()
	conn := dial(t, srv)
	_, err := conn.Write([]byte(raw))
	require.NoError(t, err)
	return readAll(t, conn)
}

func okHandler(r *request.Request, w *response.Writer) *server.HandlerError {
	body := []byte("target=" + r.RequestLine.Target)
	if err := response.New(r.RequestLine.Version, response.StatusOK, "text/plain", body).Write(w); err != nil {
		return &server.HandlerError{Status: response.StatusInternalServerError, Err: err}
	}
	return nil
}

func TestServe(t *testing.T) {
	srv := start(t, okHandler, 0)

	got := roundTrip(t, srv, "GET /coffee HTTP/1.1\r\nHost: localhost\r\n\r\n")
	assert.Equal(t,
		"HTTP/1.1 200 OK\r\n"+
			"Content-Type: text/plain\r\n"+
			"Content-Length: 13\r\n"+
			"\r\n"+
			"target=coffee",
		got)
}

func TestServe_Bad_Version_Gets_400(t *testing.T) {
	called := false
	srv := start(t, func(*request.Request, *response.Writer) *server.HandlerError {
		called = true
		return nil
	}, 0)

	got := roundTrip(t, srv, "GET / HTTP/1.0\r\n\r\n")
	body := "<html><body><h1>400 Bad Request</h1></body></html>"
	assert.Equal(t,
		"HTTP/1.1 400 Bad Request\r\n"+
			"Content-Type: text/html\r\n"+
			"Content-Length: "+strconv.Itoa(len(body))+"\r\n"+
			"Accept-Ranges: none\r\n"+
			"\r\n"+
			body,
		got)
	assert.False(t, called)
}

func TestServe_Handler_Error_Gets_500(t *testing.T) {
	srv := start(t, func(*request.Request, *response.Writer) *server.HandlerError {
		return &server.HandlerError{Status: response.StatusInternalServerError, Err: errors.New("boom")}
	}, 0)

	got := roundTrip(t, srv, "GET / HTTP/2\r\n\r\n")
	assert.Contains(t, got, "HTTP/2 500 Internal Server Error\r\n")
	assert.Contains(t, got, "<h1>500 Internal Server Error</h1>")
}

func TestServe_Silent_Handler_Gets_Empty_200(t *testing.T) {
	srv := start(t, func(*request.Request, *response.Writer) *server.HandlerError {
		return nil
	}, 0)

	got := roundTrip(t, srv, "GET / HTTP/1.1\r\n\r\n")
	assert.Equal(t, "HTTP/1.1 200 OK\r\nContent-Length: 0\r\n\r\n", got)
}

func TestServe_Empty_Connection(t *testing.T) {
	srv := start(t, okHandler, 0)

	conn := dial(t, srv)
	require.NoError(t, conn.(*net.TCPConn).CloseWrite())
	assert.Empty(t, readAll(t, conn))
}

func TestServe_Bounded_Connections(t *testing.T) {
	srv := start(t, okHandler, 1)

	// The first connection takes the only slot and holds it until it sends
	// its request.
	first := dial(t, srv)
	time.Sleep(50 * time.Millisecond)

	second := dial(t, srv)
	_, err := second.Write([]byte("GET /second HTTP/1.1\r\n\r\n"))
	require.NoError(t, err)

	require.NoError(t, second.SetReadDeadline(time.Now().Add(300*time.Millisecond)))
	_, err = second.Read(make([]byte, 1))
	var nerr net.Error
	require.ErrorAs(t, err, &nerr)
	assert.True(t, nerr.Timeout())

	_, err = first.Write([]byte("GET /first HTTP/1.1\r\n\r\n"))
	require.NoError(t, err)
	assert.Contains(t, readAll(t, first), "target=first")
	assert.Contains(t, readAll(t, second), "target=second")
}

func TestClose(t *testing.T) {
	srv, err := server.Serve(server.Config{Addr: "127.0.0.1:0"}, okHandler)
	require.NoError(t, err)
	addr := srv.Addr().String()

	require.NoError(t, srv.Close())
	_, err = net.DialTimeout("tcp", addr, time.Second)
	require.Error(t, err)

	var nilSrv *server.Server
	assert.NoError(t, nilSrv.Close())
}

func TestServe_Files(t *testing.T) {
	mfs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(mfs, "/index.html", []byte("<h1>home</h1>"), 0o644))
	fs := fileserver.New(fsys.New(mfs), nil, fileserver.Options{AcceptRanges: true})
	srv := start(t, fs.Handle, 4)

	got := roundTrip(t, srv, "GET /index.html HTTP/1.1\r\nHost: localhost\r\n\r\n")
	assert.Equal(t,
		"HTTP/1.1 200 OK\r\n"+
			"Content-Type: text/html\r\n"+
			"Content-Length: 13\r\n"+
			"Accept-Ranges: bytes\r\n"+
			"\r\n"+
			"<h1>home</h1>",
		got)

	got = roundTrip(t, srv, "GET /does/not/exist HTTP/1.1\r\n\r\n")
	assert.Contains(t, got, "HTTP/1.1 404 Not Found\r\n")

	got = roundTrip(t, srv, "GET / HTTP/1.1\r\n\r\n")
	assert.Contains(t, got, `<li><a href="index.html">index.html</a></li>`)
}
