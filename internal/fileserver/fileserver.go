// Package fileserver turns a parsed request into a file, a directory
// listing or a 404, read from an injected root.
package fileserver

import (
	"fmt"
	"html"
	"net/url"
	"path"
	"strings"

	"github.com/xaitan80/fileserve/internal/contenttype"
	"github.com/xaitan80/fileserve/internal/fsys"
	"github.com/xaitan80/fileserve/internal/log"
	"github.com/xaitan80/fileserve/internal/request"
	"github.com/xaitan80/fileserve/internal/response"
	"github.com/xaitan80/fileserve/internal/server"
)

// Options selects the header variant used for files.
type Options struct {
	// AcceptRanges advertises "Accept-Ranges: bytes" on files instead of "none".
	AcceptRanges bool
	// InlineDisposition adds "Content-Disposition: inline" to files.
	InlineDisposition bool
}

// FileServer builds responses from the files under its root.
type FileServer struct {
	root  fsys.FS
	types contenttype.Resolver
	opts  Options
}

// New returns a FileServer reading from root. A nil types falls back to the
// extension table.
func New(root fsys.FS, types contenttype.Resolver, opts Options) *FileServer {
	if types == nil {
		types = contenttype.Extensions{}
	}
	return &FileServer{root: root, types: types, opts: opts}
}

// Handle is a server.Handler that writes the response built for r.
func (s *FileServer) Handle(r *request.Request, w *response.Writer) *server.HandlerError {
	resp, err := s.Build(r)
	if err != nil {
		return &server.HandlerError{Status: response.StatusInternalServerError, Err: err}
	}
	if err := resp.Write(w); err != nil {
		return &server.HandlerError{Status: response.StatusInternalServerError, Err: fmt.Errorf("write response: %w", err)}
	}
	return nil
}

// Build runs the serving state machine for r. Every run ends in exactly one
// response, or in an error when the filesystem fails; no partial response
// is ever returned.
func (s *FileServer) Build(r *request.Request) (*response.Response, error) {
	b := &builder{s: s, req: r}
	for state := contain; state != nil; {
		state = state(b)
	}
	if b.err != nil {
		return nil, b.err
	}
	return b.resp, nil
}

type builder struct {
	s    *FileServer
	req  *request.Request
	rel  string
	resp *response.Response
	err  error
}

type stateFunc func(*builder) stateFunc

func (b *builder) version() request.Version {
	return b.req.RequestLine.Version
}

// state funcs

func contain(b *builder) stateFunc {
	rel, ok := Canonicalize(b.req.RequestLine.Target)
	if !ok {
		log.Debugf("target %q escapes the root", b.req.RequestLine.Target)
		return notFound
	}
	b.rel = rel
	return rootJoin
}

func rootJoin(b *builder) stateFunc {
	kind, err := b.s.root.Kind(b.rel)
	if err != nil {
		b.err = err
		return nil
	}
	switch kind {
	case fsys.File:
		return serveFile
	case fsys.Directory:
		return serveDirectory
	default:
		return notFound
	}
}

func notFound(b *builder) stateFunc {
	b.resp = response.ErrorPage(b.version(), response.StatusNotFound)
	return nil
}

func serveFile(b *builder) stateFunc {
	data, err := b.s.root.ReadAll(b.rel)
	if err != nil {
		b.err = err
		return nil
	}
	ct := b.s.types.ContentType(b.rel, data)
	resp := response.New(b.version(), response.StatusOK, ct, data)
	ranges := response.AcceptRangesNone
	if b.s.opts.AcceptRanges {
		ranges = response.AcceptRangesBytes
	}
	resp.Headers.Set("Accept-Ranges", ranges.String())
	if b.s.opts.InlineDisposition {
		resp.Headers.Set("Content-Disposition", "inline")
	}
	b.resp = resp
	return nil
}

func serveDirectory(b *builder) stateFunc {
	entries, err := b.s.root.ListChildren(b.rel)
	if err != nil {
		b.err = err
		return nil
	}
	body := []byte(Listing("/"+b.rel, entries))
	resp := response.New(b.version(), response.StatusOK, "text/html", body)
	resp.Headers.Set("Accept-Ranges", response.AcceptRangesNone.String())
	b.resp = resp
	return nil
}

// Canonicalize turns a request target into a clean path relative to the
// root ("" for the root itself). The query string is dropped and
// percent-escapes are decoded. ok is false when the path climbs above the
// root or contains a NUL byte, neither of which can name a file under it.
func Canonicalize(target string) (rel string, ok bool) {
	target, _, _ = strings.Cut(target, "?")
	if unescaped, err := url.PathUnescape(target); err == nil {
		target = unescaped
	}
	if strings.ContainsRune(target, 0) {
		return "", false
	}
	if target == "" {
		return "", true
	}
	clean := path.Clean(target)
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return "", false
	}
	clean = strings.TrimLeft(clean, "/")
	if clean == "." {
		clean = ""
	}
	return clean, true
}

// Listing renders the HTML index of a directory. Only the immediate
// children are listed; directories get a trailing '/'.
func Listing(title string, entries []fsys.Entry) string {
	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html><html><body><h1>")
	sb.WriteString(html.EscapeString(title))
	sb.WriteString(`</h1><a href="../">Go Back</a><ul>`)
	for _, e := range entries {
		href := html.EscapeString(url.PathEscape(e.Name))
		label := html.EscapeString(e.Name)
		if e.IsDir {
			href += "/"
			label += "/"
		}
		fmt.Fprintf(&sb, `<li><a href="%s">%s</a></li>`, href, label)
	}
	sb.WriteString("</ul></body></html>")
	return sb.String()
}
