// fuse.go wires a Tree into cgofuse's FileSystemInterface, the FUSE
// mount backend. Grounded on cmd/mount.go's mountFUSE (fuse.
// NewFileSystemHost(macheFs) + host.SetCapReaddirPlus(true) + host.Mount
// with the same -o uid=/-o gid=/-o entry_timeout=0.0/-o attr_timeout=0.0
// option set the teacher passes for a live, uncached backing store) —
// narrowed to read-only, since a mounted path-expression result has no
// write-back target. internal/fs/root.go's MacheRoot (hanwen/go-fuse,
// Inode-per-child) is NOT the template here: that library isn't part of
// the dependency stack this module settled on (cgofuse + go-nfs cover
// both mount backends), so only its read-only "hardcode content, answer
// Read" idiom carries over, reimplemented against cgofuse's flat
// path-based interface instead of go-fuse's Inode tree.
package mount

import (
	"os"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/winfsp/cgofuse/fuse"

	"github.com/agentic-research/otquery/ot"
)

// FS implements fuse.FileSystemInterface over a Tree. Open file handles
// are small integers mapping to a rendered byte slice, since every leaf
// is read in full on Open rather than streamed lazily — the mounted
// projection is expected to be queried output, not arbitrarily large
// media.
type FS struct {
	fuse.FileSystemBase

	tree *Tree

	mu      sync.Mutex
	handles map[uint64][]byte
	nextFH  uint64
}

// NewFS builds a read-only FUSE filesystem backed by root.
func NewFS(root ot.Node) *FS {
	return &FS{tree: New(root), handles: make(map[uint64][]byte)}
}

func (f *FS) Getattr(path string, stat *fuse.Stat_t, fh uint64) int {
	n, err := f.tree.Resolve(path)
	if err != nil {
		return -fuse.ENOENT
	}
	fillStat(stat, n)
	return 0
}

func (f *FS) Opendir(path string) (int, uint64) {
	n, err := f.tree.Resolve(path)
	if err != nil {
		return -fuse.ENOENT, 0
	}
	if !IsContainer(n) {
		return -fuse.ENOTDIR, 0
	}
	return 0, 0
}

func (f *FS) Readdir(path string, fill func(name string, stat *fuse.Stat_t, ofst int64) bool, ofst int64, fh uint64) int {
	n, err := f.tree.Resolve(path)
	if err != nil {
		return -fuse.ENOENT
	}
	if !IsContainer(n) {
		return -fuse.ENOTDIR
	}
	fill(".", nil, 0)
	fill("..", nil, 0)

	entries, err := List(n)
	if err != nil {
		return -fuse.EIO
	}
	for _, e := range entries {
		var st fuse.Stat_t
		fillEntryStat(&st, e)
		if !fill(e.Name, &st, 0) {
			break
		}
	}
	return 0
}

func (f *FS) Open(path string, flags int) (int, uint64) {
	n, err := f.tree.Resolve(path)
	if err != nil {
		return -fuse.ENOENT, 0
	}
	if IsContainer(n) {
		return -fuse.EISDIR, 0
	}
	if flags&(os.O_WRONLY|os.O_RDWR) != 0 {
		return -fuse.EROFS, 0
	}

	fh := atomic.AddUint64(&f.nextFH, 1)
	f.mu.Lock()
	f.handles[fh] = Render(n)
	f.mu.Unlock()
	return 0, fh
}

func (f *FS) Read(path string, buff []byte, ofst int64, fh uint64) int {
	f.mu.Lock()
	data, ok := f.handles[fh]
	f.mu.Unlock()
	if !ok {
		return -fuse.EBADF
	}
	if ofst >= int64(len(data)) {
		return 0
	}
	end := ofst + int64(len(buff))
	if end > int64(len(data)) {
		end = int64(len(data))
	}
	return copy(buff, data[ofst:end])
}

func (f *FS) Release(path string, fh uint64) int {
	f.mu.Lock()
	delete(f.handles, fh)
	f.mu.Unlock()
	return 0
}

func fillStat(stat *fuse.Stat_t, n ot.Node) {
	if IsContainer(n) {
		stat.Mode = fuse.S_IFDIR | 0o555
		return
	}
	stat.Mode = fuse.S_IFREG | 0o444
	stat.Size = int64(len(Render(n)))
}

func fillEntryStat(stat *fuse.Stat_t, e Entry) {
	if e.IsDir {
		stat.Mode = fuse.S_IFDIR | 0o555
		return
	}
	stat.Mode = fuse.S_IFREG | 0o444
	stat.Size = e.Size
}

// MountOptions mirrors mountFUSE's read-only option set: the same
// uid/gid mapping and zero-caching flags, since a mounted OT projection
// is live and should never be served stale from the kernel's attr/entry
// cache.
func MountOptions() []string {
	opts := []string{
		"-o", "uid=" + strconv.Itoa(os.Getuid()),
		"-o", "gid=" + strconv.Itoa(os.Getgid()),
		"-o", "fsname=otquery",
		"-o", "subtype=otquery",
		"-o", "entry_timeout=0.0",
		"-o", "attr_timeout=0.0",
		"-o", "negative_timeout=0.0",
		"-o", "ro",
	}
	if runtime.GOOS == "darwin" {
		opts = append(opts, "-o", "nobrowse", "-o", "noattrcache")
	}
	return opts
}

// Mount starts a FUSE host for root at mountpoint and blocks until
// unmounted. Returns an error if the mount itself fails to start; the
// blocking serve loop has no error to report (mirrors host.Mount's bool
// return in cmd/mount.go).
func Mount(root ot.Node, mountpoint string) error {
	fsys := NewFS(root)
	host := fuse.NewFileSystemHost(fsys)
	host.SetCapReaddirPlus(true)

	if !host.Mount(mountpoint, MountOptions()) {
		return os.ErrInvalid
	}
	return nil
}
