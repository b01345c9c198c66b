// Package contenttype decides the Content-Type of served files.
package contenttype

import (
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Default is used when nothing more specific is known.
const Default = "application/octet-stream"

// Resolver maps a file to a MIME type. name is the served path and data the
// file contents.
type Resolver interface {
	ContentType(name string, data []byte) string
}

var extensions = map[string]string{
	".html": "text/html",
	".htm":  "text/html",
	".css":  "text/css",
	".js":   "text/javascript",
	".mjs":  "text/javascript",
	".json": "application/json",
	".txt":  "text/plain",
	".md":   "text/markdown",
	".csv":  "text/csv",
	".xml":  "application/xml",
	".svg":  "image/svg+xml",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
	".ico":  "image/x-icon",
	".pdf":  "application/pdf",
	".wasm": "application/wasm",
	".mp4":  "video/mp4",
	".webm": "video/webm",
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".zip":  "application/zip",
	".gz":   "application/gzip",
	".tar":  "application/x-tar",
}

// Extensions resolves by file extension against a closed table. Matching is
// case-insensitive; unknown extensions get Default.
type Extensions struct{}

func (Extensions) ContentType(name string, _ []byte) string {
	return ByExtension(name)
}

// ByExtension looks up the extension of name in the table.
func ByExtension(name string) string {
	if ct, ok := extensions[strings.ToLower(path.Ext(name))]; ok {
		return ct
	}
	return Default
}

// Sniffer resolves by file signature. Text content carries no signature
// worth trusting for html/css/js, so text results defer to the extension
// table when it knows the file.
type Sniffer struct{}

func (Sniffer) ContentType(name string, data []byte) string {
	m := mimetype.Detect(data)
	if m.Is("text/plain") || m.Is(Default) {
		if ct := ByExtension(name); ct != Default {
			return ct
		}
	}
	return m.String()
}

// ForName returns the resolver registered under name: "extension" or "sniff".
func ForName(name string) (Resolver, bool) {
	switch name {
	case "extension", "":
		return Extensions{}, true
	case "sniff":
		return Sniffer{}, true
	default:
		return nil, false
	}
}
