// otfs.go adapts a Tree to billy.Filesystem for willscott/go-nfs, the
// NFS mount backend. Grounded directly on internal/nfsmount/graphfs.go's
// GraphFS: the same billy.Basic/Dir/Symlink/Chroot/Capable method set,
// the same staticFileInfo value type, the same cleanPath normalisation —
// narrowed to read-only (no Create/Remove/write-back splice pipeline,
// since the mounted projection of a path expression has no source
// origin to splice edits back into).
package mount

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/helper/chroot"

	"github.com/agentic-research/otquery/ot"
)

var errReadOnly = fmt.Errorf("read-only filesystem")

// OTFS adapts a Tree to billy.Filesystem.
type OTFS struct {
	tree      *Tree
	mountTime time.Time
}

// NewOTFS builds a read-only billy.Filesystem backed by root.
func NewOTFS(root ot.Node) *OTFS {
	return &OTFS{tree: New(root), mountTime: time.Now()}
}

// --- billy.Basic ---

func (fs *OTFS) Create(filename string) (billy.File, error) { return nil, errReadOnly }

func (fs *OTFS) Open(filename string) (billy.File, error) {
	return fs.OpenFile(filename, os.O_RDONLY, 0)
}

func (fs *OTFS) OpenFile(filename string, flag int, perm os.FileMode) (billy.File, error) {
	if flag&(os.O_WRONLY|os.O_RDWR|os.O_CREATE|os.O_TRUNC) != 0 {
		return nil, errReadOnly
	}
	n, err := fs.tree.Resolve(filename)
	if err != nil {
		return nil, &os.PathError{Op: "open", Path: filename, Err: os.ErrNotExist}
	}
	if IsContainer(n) {
		return nil, &os.PathError{Op: "open", Path: filename, Err: fmt.Errorf("is a directory")}
	}
	return &bytesFile{name: filepath.Base(filename), data: Render(n)}, nil
}

func (fs *OTFS) Stat(filename string) (os.FileInfo, error) { return fs.Lstat(filename) }

func (fs *OTFS) Rename(oldpath, newpath string) error { return errReadOnly }
func (fs *OTFS) Remove(filename string) error         { return errReadOnly }

func (fs *OTFS) Join(elem ...string) string { return filepath.Join(elem...) }

// --- billy.TempFile ---

func (fs *OTFS) TempFile(dir, prefix string) (billy.File, error) {
	return nil, billy.ErrNotSupported
}

// --- billy.Dir ---

func (fs *OTFS) ReadDir(path string) ([]os.FileInfo, error) {
	n, err := fs.tree.Resolve(path)
	if err != nil {
		return nil, &os.PathError{Op: "readdir", Path: path, Err: os.ErrNotExist}
	}
	if !IsContainer(n) {
		return nil, &os.PathError{Op: "readdir", Path: path, Err: fmt.Errorf("not a directory")}
	}
	entries, err := List(n)
	if err != nil {
		return nil, &os.PathError{Op: "readdir", Path: path, Err: err}
	}
	infos := make([]os.FileInfo, len(entries))
	for i, e := range entries {
		infos[i] = fs.entryInfo(e)
	}
	return infos, nil
}

func (fs *OTFS) MkdirAll(filename string, perm os.FileMode) error { return errReadOnly }

// --- billy.Symlink ---

func (fs *OTFS) Lstat(filename string) (os.FileInfo, error) {
	if clean(filename) == "/" {
		return &staticFileInfo{name: "/", mode: os.ModeDir | 0o555, modTime: fs.mountTime}, nil
	}
	n, err := fs.tree.Resolve(filename)
	if err != nil {
		return nil, &os.PathError{Op: "lstat", Path: filename, Err: os.ErrNotExist}
	}
	return fs.entryInfo(Entry{
		Name:  filepath.Base(filename),
		IsDir: IsContainer(n),
		Size:  int64(len(Render(n))),
	}), nil
}

func (fs *OTFS) Symlink(target, link string) error   { return billy.ErrNotSupported }
func (fs *OTFS) Readlink(link string) (string, error) { return "", billy.ErrNotSupported }

// --- billy.Chroot ---

func (fs *OTFS) Chroot(path string) (billy.Filesystem, error) { return chroot.New(fs, path), nil }
func (fs *OTFS) Root() string                                 { return "/" }

// --- billy.Capable ---

func (fs *OTFS) Capabilities() billy.Capability {
	return billy.ReadCapability | billy.SeekCapability
}

func (fs *OTFS) entryInfo(e Entry) os.FileInfo {
	mode := os.FileMode(0o444)
	if e.IsDir {
		mode = os.ModeDir | 0o555
	}
	return &staticFileInfo{name: e.Name, size: e.Size, mode: mode, modTime: fs.mountTime}
}

// staticFileInfo implements os.FileInfo with static values, identical in
// shape to nfsmount's own staticFileInfo.
type staticFileInfo struct {
	name    string
	size    int64
	mode    os.FileMode
	modTime time.Time
}

func (fi *staticFileInfo) Name() string       { return fi.name }
func (fi *staticFileInfo) Size() int64        { return fi.size }
func (fi *staticFileInfo) Mode() os.FileMode  { return fi.mode }
func (fi *staticFileInfo) ModTime() time.Time { return fi.modTime }
func (fi *staticFileInfo) IsDir() bool        { return fi.mode.IsDir() }
func (fi *staticFileInfo) Sys() interface{}   { return nil }

var (
	_ billy.Filesystem = (*OTFS)(nil)
	_ billy.Capable    = (*OTFS)(nil)
)
