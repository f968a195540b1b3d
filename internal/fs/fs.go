package fs

import (
	"errors"
	iofs "io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"testing/fstest"
)

// FS is the read-only view of the file system used while rewriting modules.
// Paths handed to it are absolute. Paths inside the io/fs views returned by
// Sub are slash-separated and relative to that directory.
type FS interface {
	// Sub returns a view rooted at an absolute directory. A directory that
	// does not exist is not an error here. Reads through the view fail with
	// io/fs.ErrNotExist instead.
	Sub(dir string) (iofs.FS, error)
	ReadFile(path string) (string, error)

	// This is part of the interface because the mock interface used for tests
	// should not depend on file system behavior (i.e. different slashes for
	// Windows) while the real interface should.
	Abs(path string) (string, bool)
	IsAbs(path string) bool
	Dir(path string) string
	Join(parts ...string) string
	Cwd() string
}

////////////////////////////////////////////////////////////////////////////////

type realFS struct {
	// For the current working directory
	cwd string
}

func realpath(path string) string {
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		return resolved
	}
	return path
}

func RealFS() FS {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = ""
	} else {
		// Resolve symlinks in the current working directory so that module ids
		// and the directories they are globbed in agree on one spelling
		cwd = realpath(cwd)
	}
	return &realFS{cwd: cwd}
}

func (*realFS) Sub(dir string) (iofs.FS, error) {
	if !filepath.IsAbs(dir) {
		return nil, &iofs.PathError{Op: "sub", Path: dir, Err: iofs.ErrInvalid}
	}
	return os.DirFS(dir), nil
}

func (*realFS) ReadFile(path string) (string, error) {
	buffer, err := os.ReadFile(path)
	return string(buffer), err
}

func (fs *realFS) Abs(p string) (string, bool) {
	if !filepath.IsAbs(p) {
		p = filepath.Join(fs.cwd, p)
	}
	return filepath.Clean(p), true
}

func (*realFS) IsAbs(p string) bool {
	return filepath.IsAbs(p)
}

func (*realFS) Dir(p string) string {
	return filepath.Dir(p)
}

func (*realFS) Join(parts ...string) string {
	return filepath.Clean(filepath.Join(parts...))
}

func (fs *realFS) Cwd() string {
	return fs.cwd
}

////////////////////////////////////////////////////////////////////////////////

// FromFS adapts a file system whose root is "/". Absolute paths lose their
// leading slash before being looked up, so "/src/a.js" is "src/a.js" in fsys.
func FromFS(fsys iofs.FS) FS {
	return &ioFS{fsys: fsys}
}

// This is a mock implementation of the "fs" module for use with tests. It does
// not actually read from the file system. Instead, it reads from a pre-specified
// map of absolute file paths to file contents.
func MockFS(input map[string]string) FS {
	files := make(fstest.MapFS, len(input))
	for k, v := range input {
		files[strings.TrimPrefix(path.Clean(k), "/")] = &fstest.MapFile{Data: []byte(v), Mode: 0o644}
	}
	return FromFS(files)
}

type ioFS struct {
	fsys iofs.FS
}

func toIOPath(p string) string {
	if rel := strings.TrimPrefix(path.Clean(p), "/"); rel != "" {
		return rel
	}
	return "."
}

func (fs *ioFS) Sub(dir string) (iofs.FS, error) {
	if !path.IsAbs(dir) {
		return nil, &iofs.PathError{Op: "sub", Path: dir, Err: iofs.ErrInvalid}
	}
	rel := toIOPath(dir)
	if rel == "." {
		return fs.fsys, nil
	}
	return iofs.Sub(fs.fsys, rel)
}

func (fs *ioFS) ReadFile(p string) (string, error) {
	if !path.IsAbs(p) {
		return "", &iofs.PathError{Op: "read", Path: p, Err: iofs.ErrInvalid}
	}
	buffer, err := iofs.ReadFile(fs.fsys, toIOPath(p))
	if err != nil {
		var pathErr *iofs.PathError
		if errors.As(err, &pathErr) {
			pathErr.Path = p
		}
		return "", err
	}
	return string(buffer), nil
}

func (*ioFS) Abs(p string) (string, bool) {
	return path.Clean(path.Join("/", p)), true
}

func (*ioFS) IsAbs(p string) bool {
	return path.IsAbs(p)
}

func (*ioFS) Dir(p string) string {
	return path.Dir(p)
}

func (*ioFS) Join(parts ...string) string {
	return path.Clean(path.Join(parts...))
}

func (*ioFS) Cwd() string {
	return "/"
}
