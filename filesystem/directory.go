package filesystem

import (
	"context"
	"iter"
	"slices"
	"strings"

	"github.com/brettbedarf/memfs/internal/pattern"
	"github.com/brettbedarf/memfs/internal/util"
)

// SearchOption selects whether enumeration descends into subdirectories
type SearchOption int

const (
	TopDirectoryOnly SearchOption = iota
	AllDirectories
)

// EntryType selects which node kinds a search returns
type EntryType int

const (
	EntryFiles EntryType = 1 << iota
	EntryDirectories
	EntryAll = EntryFiles | EntryDirectories
)

// MatchCasing selects how search patterns compare names
type MatchCasing int

const (
	// MatchPlatformDefault matches case-insensitively regardless of the store
	// policy, like classic directory searches.
	MatchPlatformDefault MatchCasing = iota
	MatchCaseSensitive
	MatchCaseInsensitive
)

// EnumerationOptions tune [DirectoryOps.Search]. The zero value searches
// the top directory only and skips nothing.
type EnumerationOptions struct {
	RecurseSubdirectories bool
	MatchCasing           MatchCasing
	// AttributesToSkip drops entries carrying any of these flags
	AttributesToSkip FileAttributes
	// MaxRecursionDepth limits how many directories below the search root
	// are entered when recursing; 0 means unlimited.
	MaxRecursionDepth int
}

// DefaultEnumerationOptions skips hidden and system entries
func DefaultEnumerationOptions() EnumerationOptions {
	return EnumerationOptions{AttributesToSkip: AttrHidden | AttrSystem}
}

// DirectoryOps implements the directory verbs of a [FileSystem]
type DirectoryOps struct {
	timestamps
}

// Create creates path and every missing ancestor and returns its info.
// Creating an existing directory is a no-op; an existing file at path
// fails with ErrFileAlreadyExists.
func (d *DirectoryOps) Create(path string) (*DirectoryInfo, error) {
	logger := util.GetLogger("Directory.Create")
	fsys := d.fsys

	if path == "" {
		return nil, pathErrorf("mkdir", path, ErrInvalidArgument, "path cannot be the empty string or all whitespace")
	}
	if fsys.platform.HasIllegalChars(path, true) {
		return nil, pathError("mkdir", path, ErrIllegalPath)
	}
	full, err := fsys.platform.Normalize(path, fsys.CurrentDirectory())
	if err != nil {
		return nil, pathError("mkdir", path, err)
	}
	if fsys.platform.IsWindows() {
		full = strings.TrimRight(full, " ")
	}
	full = fsys.platform.TrimSeparators(full)

	created, err := func() (string, error) {
		fsys.mu.Lock()
		defer fsys.mu.Unlock()
		if e := fsys.lookupLocked(full); e != nil && e.node.IsFile() {
			return "", pathErrorf("mkdir", path, ErrFileAlreadyExists, "cannot create %q because a file with the same name already exists", e.path)
		}
		e, err := fsys.addDirectoryLocked(full, nil)
		if err != nil {
			return "", err
		}
		return e.path, nil
	}()
	if err != nil {
		return nil, err
	}
	logger.Debug().Str("path", created).Msg("Created directory")
	return fsys.newDirectoryInfo(created, path), nil
}

// CreateContext is Create that fails with ctx.Err() when ctx is already done
func (d *DirectoryOps) CreateContext(ctx context.Context, path string) (*DirectoryInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return d.Create(path)
}

// Delete removes the directory at path. Without recursive the directory must
// be empty. Nothing is removed when any affected node is read-only.
func (d *DirectoryOps) Delete(path string, recursive bool) error {
	logger := util.GetLogger("Directory.Delete")
	fsys := d.fsys

	full, err := fsys.resolve(path)
	if err != nil {
		return pathError("rmdir", path, err)
	}

	fsys.mu.Lock()
	defer fsys.mu.Unlock()
	affected := fsys.subtreeLocked(full)
	if len(affected) == 0 {
		return pathError("rmdir", path, ErrDirectoryNotFound)
	}
	if e := fsys.lookupLocked(full); e != nil && e.node.IsFile() {
		return pathErrorf("rmdir", path, ErrIO, "the directory name is invalid")
	}
	if !recursive && len(affected) > 1 {
		return pathErrorf("rmdir", path, ErrIO, "the directory is not empty")
	}
	if err := fsys.removeEntriesLocked("rmdir", affected); err != nil {
		return err
	}
	logger.Debug().Str("path", full).Int("removed", len(affected)).Msg("Deleted directory")
	return nil
}

// DeleteContext is Delete that fails with ctx.Err() when ctx is already done
func (d *DirectoryOps) DeleteContext(ctx context.Context, path string, recursive bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return d.Delete(path, recursive)
}

// Exists reports whether path is an existing directory. Invalid paths
// report false.
func (d *DirectoryOps) Exists(path string) bool {
	node := d.fsys.GetNode(path)
	return node != nil && node.IsDirectory()
}

// Move renames the directory src to dst, keeping every node below it. A
// file at src is moved as a file.
func (d *DirectoryOps) Move(src, dst string) error {
	logger := util.GetLogger("Directory.Move")
	fsys := d.fsys

	fullSrc, err := fsys.resolve(src)
	if err != nil {
		return pathError("move", src, err)
	}
	fullDst, err := fsys.resolve(dst)
	if err != nil {
		return pathError("move", dst, err)
	}
	if fullSrc == fullDst {
		return pathErrorf("move", src, ErrIO, "source and destination path must be different")
	}

	if n := fsys.GetNode(fullSrc); n != nil && n.IsFile() {
		return fsys.file.Move(src, dst, false)
	}

	fsys.mu.Lock()
	defer fsys.mu.Unlock()

	p := fsys.platform
	if !fsys.comparer.Equal(p.Root(fullSrc), p.Root(fullDst)) {
		return pathErrorf("move", src, ErrIO, "source and destination path must have identical roots")
	}
	if !fsys.dirExistsLocked(fullSrc) {
		return pathError("move", src, ErrDirectoryNotFound)
	}
	if !fsys.parentExistsLocked(fullDst) {
		return pathError("move", dst, ErrDirectoryNotFound)
	}
	caseRename := fsys.comparer.Equal(fullSrc, fullDst)
	if !caseRename && fsys.comparer.HasPrefix(fullDst, fsys.descendantPrefix(fullSrc)) {
		return pathErrorf("move", dst, ErrIO, "cannot move a directory into itself")
	}
	if fsys.lookupLocked(fullDst) != nil && !caseRename {
		return pathErrorf("move", dst, ErrIO, "cannot create %q because a file or directory with the same name already exists", fullDst)
	}
	fsys.renameLocked(fullSrc, fullDst)
	logger.Debug().Str("src", fullSrc).Str("dst", fullDst).Msg("Moved directory")
	return nil
}

// GetParent returns the parent directory of path, or nil without an error
// when path is a root.
func (d *DirectoryOps) GetParent(path string) (*DirectoryInfo, error) {
	fsys := d.fsys
	if path == "" {
		return nil, pathErrorf("getparent", path, ErrInvalidArgument, "path cannot be the empty string or all whitespace")
	}
	if fsys.platform.HasIllegalChars(path, false) {
		return nil, pathError("getparent", path, ErrIllegalPath)
	}
	full, err := fsys.resolve(path)
	if err != nil {
		return nil, pathError("getparent", path, err)
	}
	parent, ok := fsys.platform.Dir(full)
	if !ok || parent == "" {
		return nil, nil
	}
	return fsys.newDirectoryInfo(parent, parent), nil
}

// GetDirectoryRoot returns the root of path: "/", a drive such as `C:\`
// or a UNC share.
func (d *DirectoryOps) GetDirectoryRoot(path string) (string, error) {
	full, err := d.fsys.resolve(path)
	if err != nil {
		return "", pathError("getroot", path, err)
	}
	return d.fsys.platform.Root(full), nil
}

func (d *DirectoryOps) GetCurrentDirectory() string {
	return d.fsys.CurrentDirectory()
}

func (d *DirectoryOps) SetCurrentDirectory(path string) error {
	return d.fsys.SetCurrentDirectory(path)
}

// Search lists the entries below path whose path relative to path matches
// the search pattern. Results are sorted and prefixed with path exactly as
// given, so a relative argument yields relative results.
func (d *DirectoryOps) Search(path string, types EntryType, searchPattern string, opts EnumerationOptions) ([]string, error) {
	logger := util.GetLogger("Directory.Search")
	fsys := d.fsys

	full, err := fsys.resolve(path)
	if err != nil {
		return nil, pathError("search", path, err)
	}
	matcher, err := pattern.Compile(searchPattern, fsys.platform, pattern.Options{
		Recursive:     opts.RecurseSubdirectories,
		CaseSensitive: opts.MatchCasing == MatchCaseSensitive,
	})
	if err != nil {
		return nil, pathError("search", searchPattern, err)
	}

	fsys.mu.RLock()
	defer fsys.mu.RUnlock()

	root := fsys.lookupLocked(full)
	if root == nil {
		return nil, pathError("search", path, ErrDirectoryNotFound)
	}
	if root.node.IsFile() {
		return nil, pathErrorf("search", path, ErrIO, "the directory name is invalid")
	}

	sep := fsys.platform.SeparatorString()
	prefix := fsys.descendantPrefix(root.path)
	var results []string
	for _, e := range fsys.sortedLocked(nil) {
		if !fsys.comparer.HasPrefix(e.path, prefix) || len(e.path) == len(prefix) {
			continue
		}
		rel := e.path[len(prefix):]
		depth := strings.Count(rel, sep)
		if !opts.RecurseSubdirectories && depth > 0 {
			continue
		}
		if opts.MaxRecursionDepth > 0 && depth > opts.MaxRecursionDepth {
			continue
		}
		if e.node.IsDirectory() && types&EntryDirectories == 0 {
			continue
		}
		if e.node.IsFile() && types&EntryFiles == 0 {
			continue
		}
		if opts.AttributesToSkip != 0 && e.node.Attributes()&opts.AttributesToSkip != 0 {
			continue
		}
		if !matcher.Match(rel) {
			continue
		}
		results = append(results, fsys.platform.Join(path, rel))
	}
	logger.Trace().Str("path", full).Str("pattern", searchPattern).Int("matches", len(results)).Msg("Searched directory")
	return results, nil
}

func searchOptions(opt SearchOption) EnumerationOptions {
	return EnumerationOptions{RecurseSubdirectories: opt == AllDirectories}
}

// GetFiles lists the files below path matching searchPattern ("*" for all)
func (d *DirectoryOps) GetFiles(path, searchPattern string, opt SearchOption) ([]string, error) {
	return d.Search(path, EntryFiles, searchPattern, searchOptions(opt))
}

// GetDirectories lists the directories below path matching searchPattern
func (d *DirectoryOps) GetDirectories(path, searchPattern string, opt SearchOption) ([]string, error) {
	return d.Search(path, EntryDirectories, searchPattern, searchOptions(opt))
}

// GetFileSystemEntries lists files and directories below path
func (d *DirectoryOps) GetFileSystemEntries(path, searchPattern string, opt SearchOption) ([]string, error) {
	return d.Search(path, EntryAll, searchPattern, searchOptions(opt))
}

// EnumerateFiles is GetFiles as an iterator over a snapshot taken at call
// time. Errors are reported eagerly.
func (d *DirectoryOps) EnumerateFiles(path, searchPattern string, opt SearchOption) (iter.Seq[string], error) {
	results, err := d.GetFiles(path, searchPattern, opt)
	return slices.Values(results), err
}

func (d *DirectoryOps) EnumerateDirectories(path, searchPattern string, opt SearchOption) (iter.Seq[string], error) {
	results, err := d.GetDirectories(path, searchPattern, opt)
	return slices.Values(results), err
}

func (d *DirectoryOps) EnumerateFileSystemEntries(path, searchPattern string, opt SearchOption) (iter.Seq[string], error) {
	results, err := d.GetFileSystemEntries(path, searchPattern, opt)
	return slices.Values(results), err
}

// GetLogicalDrives lists the roots present in the store
func (d *DirectoryOps) GetLogicalDrives() []string {
	fsys := d.fsys
	var roots []string
	for _, p := range fsys.AllDirectories() {
		root := fsys.platform.Root(p)
		if root != "" && !slices.ContainsFunc(roots, func(r string) bool { return fsys.comparer.Equal(r, root) }) {
			roots = append(roots, root)
		}
	}
	return roots
}
