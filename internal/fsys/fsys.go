// Package fsys is the read-only filesystem the server serves from.
package fsys

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/afero"
)

// Kind classifies what a path points to.
type Kind int

const (
	Missing Kind = iota
	File
	Directory
	// Other covers everything that is neither a regular file nor a
	// directory, such as devices, sockets and named pipes.
	Other
)

func (k Kind) String() string {
	switch k {
	case Missing:
		return "missing"
	case File:
		return "file"
	case Directory:
		return "directory"
	default:
		return "other"
	}
}

// Entry is one immediate child of a directory.
type Entry struct {
	Name  string
	IsDir bool
}

// FS is the filesystem capability consumed by the file server. Paths are
// slash-separated and relative to the root, "" being the root itself.
type FS interface {
	Kind(name string) (Kind, error)
	ReadAll(name string) ([]byte, error)
	ListChildren(name string) ([]Entry, error)
}

// Afero adapts an afero.Fs to FS.
type Afero struct {
	fs afero.Fs
	// real is the symlink-free path of the root on disk, empty when fs is
	// not backed by the OS.
	real string
}

// New wraps fs. Paths handed to the returned FS are looked up as "/"+name.
func New(fs afero.Fs) *Afero {
	return &Afero{fs: fs}
}

// NewRoot returns a read-only FS confined to the directory root on disk.
func NewRoot(root string) (*Afero, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root %q: %w", root, err)
	}
	st, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("stat root: %w", err)
	}
	if !st.IsDir() {
		return nil, fmt.Errorf("root %q is not a directory", abs)
	}
	real, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("resolve root %q: %w", root, err)
	}
	base := afero.NewBasePathFs(afero.NewOsFs(), real)
	a := New(afero.NewReadOnlyFs(base))
	a.real = real
	return a, nil
}

func (a *Afero) abs(name string) string {
	return path.Join("/", name)
}

// isNotExist reports whether err means there is nothing at the path,
// including a path that runs through a regular file.
func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENOTDIR)
}

// confine fails with fs.ErrNotExist when name resolves, through symlinks,
// to a place outside the root on disk.
func (a *Afero) confine(name string) error {
	if a.real == "" {
		return nil
	}
	resolved, err := filepath.EvalSymlinks(filepath.Join(a.real, filepath.FromSlash(a.abs(name))))
	if err != nil {
		return err
	}
	rel, err := filepath.Rel(a.real, resolved)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fs.ErrNotExist
	}
	return nil
}

// Kind follows symlinks that stay inside the root. A path that does not
// exist, runs through a regular file, or leaves the root is Missing.
func (a *Afero) Kind(name string) (Kind, error) {
	if err := a.confine(name); err != nil {
		if isNotExist(err) {
			return Missing, nil
		}
		return Missing, fmt.Errorf("resolve %q: %w", name, err)
	}
	st, err := a.fs.Stat(a.abs(name))
	if err != nil {
		if isNotExist(err) {
			return Missing, nil
		}
		return Missing, fmt.Errorf("stat %q: %w", name, err)
	}
	switch {
	case st.Mode().IsRegular():
		return File, nil
	case st.IsDir():
		return Directory, nil
	default:
		return Other, nil
	}
}

// ReadAll returns the full contents of the file at name.
func (a *Afero) ReadAll(name string) ([]byte, error) {
	if err := a.confine(name); err != nil {
		return nil, fmt.Errorf("read %q: %w", name, err)
	}
	data, err := afero.ReadFile(a.fs, a.abs(name))
	if err != nil {
		return nil, fmt.Errorf("read %q: %w", name, err)
	}
	return data, nil
}

// ListChildren returns the immediate children of the directory at name,
// sorted by name. Symlinks to directories are reported as directories.
func (a *Afero) ListChildren(name string) ([]Entry, error) {
	if err := a.confine(name); err != nil {
		return nil, fmt.Errorf("list %q: %w", name, err)
	}
	dir := a.abs(name)
	infos, err := afero.ReadDir(a.fs, dir)
	if err != nil {
		return nil, fmt.Errorf("list %q: %w", name, err)
	}
	entries := make([]Entry, 0, len(infos))
	for _, info := range infos {
		isDir := info.IsDir()
		if info.Mode()&fs.ModeSymlink != 0 {
			if st, err := a.fs.Stat(path.Join(dir, info.Name())); err == nil {
				isDir = st.IsDir()
			}
		}
		entries = append(entries, Entry{Name: info.Name(), IsDir: isDir})
	}
	return entries, nil
}
