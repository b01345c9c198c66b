package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/xaitan80/fileserve/internal/request"
	"github.com/xaitan80/fileserve/internal/response"
)

const DefaultMaxConnections = 64

// Config controls how connections are accepted and read.
type Config struct {
	// Addr is the TCP address to listen on, e.g. "127.0.0.1:5500".
	Addr string
	// ReadBufferSize bounds the bytes read for a single request.
	ReadBufferSize int
	// MaxConnections bounds how many connections are handled at once. The
	// accept loop waits for a free slot before accepting the next one.
	MaxConnections int
}

type Server struct {
	ln     net.Listener
	closed atomic.Bool
	h      Handler
	cfg    Config
	slots  *semaphore.Weighted
	ctx    context.Context
	cancel context.CancelFunc
}

// Serve starts a TCP listener on cfg.Addr and begins accepting
// connections in a background goroutine.
func Serve(cfg Config, h Handler) (*Server, error) {
	if cfg.ReadBufferSize <= 0 {
		cfg.ReadBufferSize = request.DefaultBufferSize
	}
	if cfg.MaxConnections <= 0 {
		cfg.MaxConnections = DefaultMaxConnections
	}
	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", cfg.Addr, err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		ln:     ln,
		h:      h,
		cfg:    cfg,
		slots:  semaphore.NewWeighted(int64(cfg.MaxConnections)),
		ctx:    ctx,
		cancel: cancel,
	}
	go s.listen()
	return s, nil
}

// Addr returns the address the server is listening on.
func (s *Server) Addr() net.Addr {
	return s.ln.Addr()
}

// Close stops the server and closes the underlying listener. Connections
// already being handled run to completion.
func (s *Server) Close() error {
	if s == nil {
		return nil
	}
	s.closed.Store(true)
	s.cancel()
	if s.ln != nil {
		return s.ln.Close()
	}
	return nil
}

// listen accepts connections until the server is closed, handling each in a goroutine.
func (s *Server) listen() {
	for {
		if err := s.slots.Acquire(s.ctx, 1); err != nil {
			return
		}
		conn, err := s.ln.Accept()
		if err != nil {
			s.slots.Release(1)
			if s.closed.Load() || errors.Is(err, net.ErrClosed) {
				return
			}
			// Ignore transient errors and continue accepting
			slog.Warn("accept failed", slog.Any("error", err))
			continue
		}
		go func() {
			defer s.slots.Release(1)
			s.handle(conn)
		}()
	}
}

// handle reads one request, hands it to the handler and closes the connection.
func (s *Server) handle(conn net.Conn) {
	defer conn.Close()
	logger := slog.With(
		slog.String("conn", uuid.NewString()),
		slog.String("remote", conn.RemoteAddr().String()),
	)

	r, err := request.RequestFromReader(conn, s.cfg.ReadBufferSize)
	if err != nil {
		var verr *request.VersionError
		switch {
		case errors.As(err, &verr):
			logger.Warn("rejecting request", slog.Any("error", err))
			if _, werr := response.ErrorPage(request.HTTP11, response.StatusBadRequest).WriteTo(conn); werr != nil {
				logger.Debug("failed to write response", slog.Any("error", werr))
			}
		case errors.Is(err, request.ErrNoRequest):
			logger.Debug("connection closed without a request")
		default:
			logger.Error("failed to read request", slog.Any("error", err))
		}
		return
	}

	logger.Info("request",
		slog.String("method", r.RequestLine.Method.String()),
		slog.String("target", r.RequestLine.Target),
		slog.String("version", r.RequestLine.Version.String()),
		slog.String("host", r.Headers.Get("Host")))
	if r.RequestLine.TargetOutcome != request.Parsed {
		logger.Debug("no usable request target, serving root",
			slog.String("outcome", r.RequestLine.TargetOutcome.String()))
	}
	if r.HeadersOutcome != request.Parsed {
		logger.Debug("header block dropped",
			slog.String("outcome", r.HeadersOutcome.String()))
	}

	rw := response.NewWriter(conn, r.RequestLine.Version)
	if s.h != nil {
		if herr := s.h(r, rw); herr != nil {
			logger.Error("handler failed", slog.Int("status", int(herr.Status)), slog.Any("error", herr.Err))
			// If handler returned an error and hasn't written anything, default error output
			if !rw.WroteAnything() {
				if err := writeHandlerError(rw, r.RequestLine.Version, herr); err != nil {
					logger.Debug("failed to write error response", slog.Any("error", err))
				}
			}
			return
		}
	}
	// If handler didn't write anything, write default empty 200
	if !rw.WroteAnything() {
		if err := response.New(r.RequestLine.Version, response.StatusOK, "", nil).Write(rw); err != nil {
			logger.Debug("failed to write response", slog.Any("error", err))
		}
	}
}

// Handler is the function signature used to handle requests.
type Handler func(r *request.Request, w *response.Writer) *HandlerError

// HandlerError represents an error returned from a Handler.
type HandlerError struct {
	Status response.StatusCode
	Err    error
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("%s: %v", e.Status, e.Err)
}

func (e *HandlerError) Unwrap() error {
	return e.Err
}

// writeHandlerError writes a standardized error page for he.Status.
func writeHandlerError(w *response.Writer, version request.Version, he *HandlerError) error {
	if he == nil {
		return nil
	}
	return response.ErrorPage(version, he.Status).Write(w)
}
