package filesystem

import (
	"slices"
	"strings"

	"github.com/brettbedarf/memfs/internal/util"
)

// entry binds a node to the display path it was stored under. The path
// keeps the casing first seen for it.
type entry struct {
	path string
	node *Node
}

// resolve normalizes path against the current directory and strips trailing
// separators, producing the form store keys are derived from.
func (fsys *FileSystem) resolve(path string) (string, error) {
	full, err := fsys.platform.Normalize(path, fsys.CurrentDirectory())
	if err != nil {
		return "", err
	}
	return fsys.platform.TrimSeparators(full), nil
}

func (fsys *FileSystem) lookupLocked(full string) *entry {
	return fsys.entries[fsys.comparer.Key(full)]
}

func (fsys *FileSystem) dirExistsLocked(full string) bool {
	e := fsys.lookupLocked(full)
	return e != nil && e.node.IsDirectory()
}

// parentExistsLocked reports whether the parent of full is an existing
// directory. Roots count as having one.
func (fsys *FileSystem) parentExistsLocked(full string) bool {
	dir, ok := fsys.platform.Dir(full)
	if !ok || dir == "" {
		return true
	}
	return fsys.dirExistsLocked(dir)
}

// descendantPrefix is the prefix every path below full starts with
func (fsys *FileSystem) descendantPrefix(full string) string {
	if strings.HasSuffix(full, fsys.platform.SeparatorString()) {
		return full
	}
	return full + fsys.platform.SeparatorString()
}

// displayPathLocked returns full with the casing of an existing parent
func (fsys *FileSystem) displayPathLocked(full string) string {
	if dir, ok := fsys.platform.Dir(full); ok && dir != "" {
		if pe := fsys.lookupLocked(dir); pe != nil {
			return fsys.platform.Join(pe.path, fsys.platform.Base(full))
		}
	}
	return full
}

// putLocked stores node at full, replacing whatever node was there, and
// stamps timestamps the node does not carry yet.
func (fsys *FileSystem) putLocked(full string, node *Node) *entry {
	node.stampZero(fsys.Now())
	key := fsys.comparer.Key(full)
	if e, ok := fsys.entries[key]; ok {
		e.node = node
		return e
	}
	e := &entry{path: fsys.displayPathLocked(full), node: node}
	fsys.entries[key] = e
	return e
}

// ancestors lists the parent chain of full from the root down
func (fsys *FileSystem) ancestors(full string) []string {
	var chain []string
	for p, ok := fsys.platform.Dir(full); ok && p != ""; p, ok = fsys.platform.Dir(p) {
		chain = append(chain, p)
	}
	slices.Reverse(chain)
	return chain
}

// materializeLocked creates every missing ancestor of full as a directory
func (fsys *FileSystem) materializeLocked(full string) error {
	for _, dir := range fsys.ancestors(full) {
		e := fsys.lookupLocked(dir)
		if e == nil {
			fsys.putLocked(dir, NewDirectoryNode())
			continue
		}
		if !e.node.IsDirectory() {
			return pathErrorf("mkdir", e.path, ErrAccessDenied, "a file exists where a directory is required")
		}
	}
	return nil
}

// addDirectoryLocked creates full and its ancestors. An existing directory
// is kept unless node is given, in which case node replaces it.
func (fsys *FileSystem) addDirectoryLocked(full string, node *Node) (*entry, error) {
	if e := fsys.lookupLocked(full); e != nil {
		if !e.node.IsDirectory() {
			return nil, pathErrorf("mkdir", full, ErrAccessDenied, "a file with the same name already exists")
		}
		if node != nil {
			fsys.putLocked(full, node)
		}
		return e, nil
	}
	if err := fsys.materializeLocked(full); err != nil {
		return nil, err
	}
	if node == nil {
		node = NewDirectoryNode()
	}
	return fsys.putLocked(full, node), nil
}

// addFileLocked stores node at full. An existing file must allow write
// sharing and, when verifyAccess is set, be neither read-only nor hidden.
// The creation time of a replaced file carries over.
func (fsys *FileSystem) addFileLocked(full string, node *Node, verifyAccess bool) (*entry, error) {
	if e := fsys.lookupLocked(full); e != nil {
		if e.node.IsDirectory() {
			return nil, pathErrorf("addfile", full, ErrAccessDenied, "a directory with the same name already exists")
		}
		if verifyAccess && (e.node.IsReadOnly() || e.node.IsHidden()) {
			return nil, pathError("addfile", full, ErrAccessDenied)
		}
		if err := e.node.checkAccess(AccessWrite); err != nil {
			return nil, pathError("addfile", full, err)
		}
		node.creationTime = e.node.creationTime
	}
	if err := fsys.materializeLocked(full); err != nil {
		return nil, err
	}
	return fsys.putLocked(full, node), nil
}

// subtreeLocked returns the entry at full followed by every entry below it
func (fsys *FileSystem) subtreeLocked(full string) []*entry {
	var affected []*entry
	if e := fsys.lookupLocked(full); e != nil {
		affected = append(affected, e)
	}
	prefix := fsys.descendantPrefix(full)
	for _, e := range fsys.entries {
		if fsys.comparer.HasPrefix(e.path, prefix) && !fsys.comparer.Equal(e.path, full) {
			affected = append(affected, e)
		}
	}
	return affected
}

// removeEntriesLocked deletes entries after checking none is read-only, so a
// refusal leaves the store untouched.
func (fsys *FileSystem) removeEntriesLocked(op string, affected []*entry) error {
	for _, e := range affected {
		if e.node.IsReadOnly() {
			return pathError(op, e.path, ErrAccessDenied)
		}
	}
	for _, e := range affected {
		delete(fsys.entries, fsys.comparer.Key(e.path))
	}
	return nil
}

// renameLocked re-keys every entry at or below src to live under dst,
// keeping node identity. Paths are compared segment by segment so /ab is
// never treated as inside /a.
func (fsys *FileSystem) renameLocked(src, dst string) {
	srcSegs := fsys.platform.Split(src)
	var moved []*entry
	for _, e := range fsys.entries {
		segs := fsys.platform.Split(e.path)
		if len(segs) < len(srcSegs) {
			continue
		}
		match := true
		for i, s := range srcSegs {
			if !fsys.comparer.Equal(s, segs[i]) {
				match = false
				break
			}
		}
		if !match {
			continue
		}
		newPath := fsys.platform.Join(append([]string{dst}, segs[len(srcSegs):]...)...)
		moved = append(moved, &entry{path: newPath, node: e.node})
		delete(fsys.entries, fsys.comparer.Key(e.path))
	}
	// parents first so children pick up their casing
	slices.SortFunc(moved, func(a, b *entry) int { return len(a.path) - len(b.path) })
	for _, e := range moved {
		fsys.entries[fsys.comparer.Key(e.path)] = &entry{path: fsys.displayPathLocked(e.path), node: e.node}
	}
}

// sortedLocked returns the entries ordered by path
func (fsys *FileSystem) sortedLocked(keep func(*entry) bool) []*entry {
	out := make([]*entry, 0, len(fsys.entries))
	for _, e := range fsys.entries {
		if keep == nil || keep(e) {
			out = append(out, e)
		}
	}
	slices.SortFunc(out, func(a, b *entry) int { return fsys.comparer.Compare(a.path, b.path) })
	return out
}

// AddFile stores node at path, creating missing ancestor directories. It
// fails with ErrAccessDenied when an existing file at path is read-only or
// hidden and ErrSharingViolation when it does not allow write sharing. A nil
// node adds an empty file.
func (fsys *FileSystem) AddFile(path string, node *Node) error {
	return fsys.addFile(path, node, true)
}

// AddFileWithoutAccessCheck is AddFile without the read-only and hidden
// checks. Sharing is still enforced.
func (fsys *FileSystem) AddFileWithoutAccessCheck(path string, node *Node) error {
	return fsys.addFile(path, node, false)
}

func (fsys *FileSystem) addFile(path string, node *Node, verifyAccess bool) error {
	logger := util.GetLogger("Store.AddFile")

	full, err := fsys.resolve(path)
	if err != nil {
		return pathError("addfile", path, err)
	}
	if node == nil {
		node = NewFileNode(nil)
	}
	if node.IsDirectory() {
		return pathErrorf("addfile", path, ErrInvalidArgument, "node is a directory")
	}

	fsys.mu.Lock()
	defer fsys.mu.Unlock()
	if _, err := fsys.addFileLocked(full, node, verifyAccess); err != nil {
		logger.Debug().Err(err).Str("path", full).Msg("Failed to add file")
		return err
	}
	logger.Debug().Str("path", full).Msg("Added file node")
	return nil
}

// AddEmptyFile adds a zero length file at path
func (fsys *FileSystem) AddEmptyFile(path string) error {
	return fsys.AddFile(path, NewFileNode(nil))
}

// AddDirectory creates path and every missing ancestor. It is a no-op for an
// existing directory and fails with ErrAccessDenied when a file is in the
// way. UNC share roots (\\server\share) may be created.
func (fsys *FileSystem) AddDirectory(path string) error {
	logger := util.GetLogger("Store.AddDirectory")

	full, err := fsys.resolve(path)
	if err != nil {
		return pathError("mkdir", path, err)
	}

	fsys.mu.Lock()
	defer fsys.mu.Unlock()
	if _, err := fsys.addDirectoryLocked(full, nil); err != nil {
		logger.Debug().Err(err).Str("path", full).Msg("Failed to add directory")
		return err
	}
	logger.Debug().Str("path", full).Msg("Added directory node")
	return nil
}

// RemoveFile removes the node at path; for a directory its whole subtree
// goes too. Nothing is removed if any affected node is read-only. A missing
// path is not an error.
func (fsys *FileSystem) RemoveFile(path string) error {
	logger := util.GetLogger("Store.RemoveFile")

	full, err := fsys.resolve(path)
	if err != nil {
		return pathError("remove", path, err)
	}

	fsys.mu.Lock()
	defer fsys.mu.Unlock()
	e := fsys.lookupLocked(full)
	if e == nil {
		return nil
	}
	affected := []*entry{e}
	if e.node.IsDirectory() {
		affected = fsys.subtreeLocked(full)
	}
	if err := fsys.removeEntriesLocked("remove", affected); err != nil {
		return err
	}
	logger.Debug().Str("path", full).Int("removed", len(affected)).Msg("Removed node")
	return nil
}

// MoveDirectory re-keys src and everything below it to dst without copying
// any node. No existence or collision checks are made; see
// [DirectoryOps.Move] for the checked verb.
func (fsys *FileSystem) MoveDirectory(src, dst string) error {
	logger := util.GetLogger("Store.MoveDirectory")

	fullSrc, err := fsys.resolve(src)
	if err != nil {
		return pathError("move", src, err)
	}
	fullDst, err := fsys.resolve(dst)
	if err != nil {
		return pathError("move", dst, err)
	}

	fsys.mu.Lock()
	defer fsys.mu.Unlock()
	fsys.renameLocked(fullSrc, fullDst)
	logger.Debug().Str("src", fullSrc).Str("dst", fullDst).Msg("Moved directory")
	return nil
}

// Exists reports whether any node lives at path. Unresolvable paths yield
// false.
func (fsys *FileSystem) Exists(path string) bool {
	return fsys.GetNode(path) != nil
}

// GetNode returns the node at path, or nil
func (fsys *FileSystem) GetNode(path string) *Node {
	logger := util.GetLogger("Store.GetNode")

	full, err := fsys.resolve(path)
	if err != nil {
		logger.Trace().Err(err).Str("path", path).Msg("Unresolvable path")
		return nil
	}
	fsys.mu.RLock()
	defer fsys.mu.RUnlock()
	if e := fsys.lookupLocked(full); e != nil {
		return e.node
	}
	logger.Trace().Str("path", full).Msg("No node found")
	return nil
}

// AllPaths returns every stored path, sorted
func (fsys *FileSystem) AllPaths() []string {
	return fsys.paths(nil)
}

// AllFiles returns the paths of all file nodes, sorted
func (fsys *FileSystem) AllFiles() []string {
	return fsys.paths(func(e *entry) bool { return e.node.IsFile() })
}

// AllDirectories returns the paths of all directory nodes, sorted
func (fsys *FileSystem) AllDirectories() []string {
	return fsys.paths(func(e *entry) bool { return e.node.IsDirectory() })
}

// AllNodes returns every node ordered by path
func (fsys *FileSystem) AllNodes() []*Node {
	fsys.mu.RLock()
	defer fsys.mu.RUnlock()
	sorted := fsys.sortedLocked(nil)
	nodes := make([]*Node, len(sorted))
	for i, e := range sorted {
		nodes[i] = e.node
	}
	return nodes
}

func (fsys *FileSystem) paths(keep func(*entry) bool) []string {
	fsys.mu.RLock()
	defer fsys.mu.RUnlock()
	sorted := fsys.sortedLocked(keep)
	paths := make([]string, len(sorted))
	for i, e := range sorted {
		paths[i] = e.path
	}
	return paths
}
