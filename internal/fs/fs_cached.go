package fs

import (
	iofs "io/fs"
	"path"

	lru "github.com/hashicorp/golang-lru/v2"
)

type dirEntries struct {
	entries []iofs.DirEntry
	err     error
}

// cachedFS remembers directory listings so that modules importing from the
// same directory only list it once. The listings are never invalidated, so
// a cached FS must not outlive the build that created it.
type cachedFS struct {
	FS
	listings *lru.Cache[string, dirEntries]
}

func NewCachedFS(inner FS, size int) (FS, error) {
	listings, err := lru.New[string, dirEntries](size)
	if err != nil {
		return nil, err
	}
	return &cachedFS{FS: inner, listings: listings}, nil
}

func (fs *cachedFS) Sub(dir string) (iofs.FS, error) {
	sub, err := fs.FS.Sub(dir)
	if err != nil {
		return nil, err
	}
	return &cachedDir{FS: sub, root: fs.FS.Join(dir), listings: fs.listings}, nil
}

type cachedDir struct {
	iofs.FS
	root     string
	listings *lru.Cache[string, dirEntries]
}

func (d *cachedDir) ReadDir(name string) ([]iofs.DirEntry, error) {
	key := path.Join(d.root, name)
	if cached, ok := d.listings.Get(key); ok {
		return cached.entries, cached.err
	}
	entries, err := iofs.ReadDir(d.FS, name)
	d.listings.Add(key, dirEntries{entries: entries, err: err})
	return entries, err
}

func (d *cachedDir) Stat(name string) (iofs.FileInfo, error) {
	return iofs.Stat(d.FS, name)
}
