package filesystem

import (
	"cmp"
	"maps"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/brettbedarf/memfs/config"
	"github.com/brettbedarf/memfs/internal/pathutil"
	"github.com/brettbedarf/memfs/internal/util"
	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v4"
)

// TimeProvider returns the current instant used for every timestamp the
// file system stamps.
type TimeProvider func() time.Time

// FileSystem is an in-memory hierarchical file system. Nodes are keyed by
// their normalized absolute path under the configured case policy.
//
// One lock guards every structural change (add, remove, move) and every
// bulk snapshot. Current directory and time provider are per instance so
// independent file systems can live side by side.
type FileSystem struct {
	cfg      config.Config
	platform pathutil.Platform
	comparer pathutil.Comparer

	mu      sync.RWMutex
	entries map[string]*entry // keyed by comparer.Key(full path)

	cwd     atomic.Pointer[string]
	now     atomic.Pointer[TimeProvider]
	handles *xsync.Map[uuid.UUID, *Handle]

	directory *DirectoryOps
	file      *FileOps
}

// NewFS creates a file system from cfg (nil for defaults) seeded with
// entries. Directory nodes in entries become directories; every other node
// is added as a file. Missing ancestors, the current directory and, when
// configured, the temp directory are created.
func NewFS(cfg *config.Config, entries map[string]*Node) (*FileSystem, error) {
	logger := util.GetLogger("NewFS")

	if cfg == nil {
		cfg = config.NewDefaultConfig()
	}
	platform, err := cfg.PathPlatform()
	if err != nil {
		return nil, err
	}

	cwd := cfg.CurrentDirectory
	if cwd == "" {
		cwd = platform.DefaultRoot()
	} else if !platform.IsAbsolute(cwd) {
		return nil, pathErrorf("newfs", cwd, ErrInvalidArgument, "current directory must be an absolute path")
	}
	full, err := platform.Normalize(cwd, cwd)
	if err != nil {
		return nil, pathError("newfs", cwd, err)
	}

	fsys := &FileSystem{
		cfg:      *cfg,
		platform: platform,
		comparer: pathutil.NewComparer(cfg.CaseSensitive),
		entries:  make(map[string]*entry),
		handles:  xsync.NewMap[uuid.UUID, *Handle](),
	}
	full = platform.TrimSeparators(full)
	fsys.cwd.Store(&full)
	fsys.directory = &DirectoryOps{timestamps{fsys}}
	fsys.file = &FileOps{timestamps{fsys}}

	paths := slices.SortedFunc(maps.Keys(entries), fsys.comparer.Compare)
	for _, p := range paths {
		node := entries[p]
		target, err := fsys.resolve(p)
		if err != nil {
			return nil, pathError("newfs", p, err)
		}
		fsys.mu.Lock()
		if node == nil || node.IsDirectory() {
			_, err = fsys.addDirectoryLocked(target, node)
		} else {
			_, err = fsys.addFileLocked(target, node, false)
		}
		fsys.mu.Unlock()
		if err != nil {
			return nil, err
		}
	}

	if err := fsys.AddDirectory(full); err != nil {
		return nil, err
	}
	if cfg.CreateTempDir {
		if err := fsys.AddDirectory(platform.TempDir()); err != nil {
			return nil, err
		}
	}

	logger.Debug().Str("platform", platform.Name()).Bool("caseSensitive", cfg.CaseSensitive).
		Str("cwd", full).Int("entries", len(fsys.entries)).Msg("Created file system")
	return fsys, nil
}

// Config returns a copy of the configuration the file system was built with
func (fsys *FileSystem) Config() config.Config {
	return fsys.cfg
}

func (fsys *FileSystem) Platform() pathutil.Platform {
	return fsys.platform
}

func (fsys *FileSystem) Comparer() pathutil.Comparer {
	return fsys.comparer
}

// Directory returns the directory verbs
func (fsys *FileSystem) Directory() *DirectoryOps {
	return fsys.directory
}

// File returns the file verbs
func (fsys *FileSystem) File() *FileOps {
	return fsys.file
}

// SetTimeProvider replaces the clock. nil restores time.Now.
func (fsys *FileSystem) SetTimeProvider(provider TimeProvider) {
	if provider == nil {
		fsys.now.Store(nil)
		return
	}
	fsys.now.Store(&provider)
}

// Now returns the current instant according to the time provider
func (fsys *FileSystem) Now() time.Time {
	if p := fsys.now.Load(); p != nil {
		return (*p)()
	}
	return time.Now()
}

func (fsys *FileSystem) CurrentDirectory() string {
	return *fsys.cwd.Load()
}

// SetCurrentDirectory changes the directory relative paths resolve against.
// The directory does not need to exist.
func (fsys *FileSystem) SetCurrentDirectory(path string) error {
	full, err := fsys.resolve(path)
	if err != nil {
		return pathError("chdir", path, err)
	}
	fsys.cwd.Store(&full)
	return nil
}

// FullPath resolves path against the current directory without touching the
// store. A trailing separator is kept.
func (fsys *FileSystem) FullPath(path string) (string, error) {
	full, err := fsys.platform.Normalize(path, fsys.CurrentDirectory())
	if err != nil {
		return "", pathError("fullpath", path, err)
	}
	return full, nil
}

// OpenHandles returns the handles that have not been closed yet, ordered by
// path.
func (fsys *FileSystem) OpenHandles() []*Handle {
	handles := make([]*Handle, 0, fsys.handles.Size())
	fsys.handles.Range(func(_ uuid.UUID, h *Handle) bool {
		handles = append(handles, h)
		return true
	})
	slices.SortFunc(handles, func(a, b *Handle) int {
		if c := fsys.comparer.Compare(a.path, b.path); c != 0 {
			return c
		}
		return cmp.Compare(a.id.String(), b.id.String())
	})
	return handles
}

// Snapshot returns a deep copy of every node keyed by its path
func (fsys *FileSystem) Snapshot() map[string]*Node {
	fsys.mu.RLock()
	defer fsys.mu.RUnlock()

	snap := make(map[string]*Node, len(fsys.entries))
	for _, e := range fsys.entries {
		snap[e.path] = CloneNode(e.node)
	}
	return snap
}

// Restore builds a new file system with this one's configuration and
// current directory from a snapshot. The snapshot is copied, and the new
// file system uses the default time provider.
func (fsys *FileSystem) Restore(snapshot map[string]*Node) (*FileSystem, error) {
	cfg := fsys.cfg
	cfg.CurrentDirectory = fsys.CurrentDirectory()
	cfg.CreateTempDir = false

	entries := make(map[string]*Node, len(snapshot))
	for p, n := range snapshot {
		if n != nil {
			n = CloneNode(n)
		}
		entries[p] = n
	}
	return NewFS(&cfg, entries)
}
