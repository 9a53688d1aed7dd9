package filesystem

import (
	"context"
	"io/fs"
	"strings"

	"github.com/brettbedarf/memfs/internal/util"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// FileOps implements the file verbs of a [FileSystem]
type FileOps struct {
	timestamps
}

// notFoundLocked picks ErrDirectoryNotFound when the parent of full is
// missing and ErrFileNotFound otherwise.
func (fsys *FileSystem) notFoundLocked(op, path, full string) error {
	if !fsys.parentExistsLocked(full) {
		return pathError(op, path, ErrDirectoryNotFound)
	}
	return pathError(op, path, ErrFileNotFound)
}

// Exists reports whether path is an existing file. Invalid paths report
// false.
func (f *FileOps) Exists(path string) bool {
	if strings.TrimSpace(path) == "" {
		return false
	}
	node := f.fsys.GetNode(path)
	return node != nil && node.IsFile()
}

// Open opens path with mode, read/write access (write-only for ModeAppend)
// and no sharing.
func (f *FileOps) Open(path string, mode FileMode) (*Handle, error) {
	return f.OpenFile(path, OpenOptions{Mode: mode, Share: ShareNone})
}

// OpenRead opens an existing file for reading
func (f *FileOps) OpenRead(path string) (*Handle, error) {
	return f.OpenFile(path, OpenOptions{Mode: ModeOpen, Access: AccessRead, Share: ShareRead})
}

// OpenWrite opens or creates a file for writing
func (f *FileOps) OpenWrite(path string) (*Handle, error) {
	return f.OpenFile(path, OpenOptions{Mode: ModeOpenOrCreate, Access: AccessWrite, Share: ShareNone})
}

// Create creates or truncates a file and opens it read/write
func (f *FileOps) Create(path string) (*Handle, error) {
	return f.OpenFile(path, OpenOptions{Mode: ModeCreate, Access: AccessReadWrite, Share: ShareNone})
}

func (f *FileOps) readContents(op, path string) ([]byte, error) {
	fsys := f.fsys
	full, err := fsys.resolve(path)
	if err != nil {
		return nil, pathError(op, path, err)
	}

	// reading stamps the access time
	fsys.mu.Lock()
	defer fsys.mu.Unlock()
	e := fsys.lookupLocked(full)
	if e == nil {
		return nil, fsys.notFoundLocked(op, path, full)
	}
	if e.node.IsDirectory() {
		return nil, pathError(op, path, ErrAccessDenied)
	}
	if err := e.node.checkAccess(AccessRead); err != nil {
		return nil, pathError(op, path, err)
	}
	fsys.adjustTimes(e.node, adjustAccess)
	return e.node.Contents(), nil
}

// writeContents replaces the contents of the file at path, or with
// appending set extends them, creating the file when it is missing.
func (f *FileOps) writeContents(op, path string, data []byte, appending bool) error {
	logger := util.GetLogger("File.Write")
	fsys := f.fsys

	full, err := fsys.resolve(path)
	if err != nil {
		return pathError(op, path, err)
	}

	fsys.mu.Lock()
	defer fsys.mu.Unlock()
	e := fsys.lookupLocked(full)
	if e == nil {
		if !fsys.parentExistsLocked(full) {
			return pathError(op, path, ErrDirectoryNotFound)
		}
		if _, err := fsys.addFileLocked(full, NewFileNode(data), true); err != nil {
			return err
		}
		logger.Debug().Str("op", op).Str("path", full).Int("bytes", len(data)).Msg("Created file")
		return nil
	}

	node := e.node
	if node.IsDirectory() {
		return pathError(op, path, ErrAccessDenied)
	}
	if node.IsReadOnly() || (!appending && node.IsHidden()) {
		return pathError(op, path, ErrAccessDenied)
	}
	if err := node.checkAccess(AccessWrite); err != nil {
		return pathError(op, path, err)
	}
	if appending {
		node.contents = append(node.contents, data...)
	} else {
		node.SetContents(data)
	}
	fsys.adjustTimes(node, adjustAccess|adjustWrite)
	logger.Debug().Str("op", op).Str("path", e.path).Int("bytes", len(data)).Msg("Wrote file")
	return nil
}

// ReadAllBytes returns the contents of the file at path and stamps its last
// access time.
func (f *FileOps) ReadAllBytes(path string) ([]byte, error) {
	return f.readContents("read", path)
}

// ReadAllText returns the contents decoded as UTF-8, or as UTF-16 when a
// byte order mark says so. The mark is not part of the result.
func (f *FileOps) ReadAllText(path string) (string, error) {
	return f.ReadAllTextEncoding(path, unicode.UTF8)
}

// ReadAllTextEncoding decodes the contents with enc unless a byte order
// mark selects another Unicode encoding.
func (f *FileOps) ReadAllTextEncoding(path string, enc encoding.Encoding) (string, error) {
	data, err := f.readContents("read", path)
	if err != nil {
		return "", err
	}
	text, _, err := transform.Bytes(unicode.BOMOverride(enc.NewDecoder()), data)
	if err != nil {
		return "", pathError("read", path, err)
	}
	return string(text), nil
}

// ReadAllLines returns the text split on "\n", "\r\n" and "\r". A final
// line terminator does not produce an empty last line.
func (f *FileOps) ReadAllLines(path string) ([]string, error) {
	text, err := f.ReadAllText(path)
	if err != nil {
		return nil, err
	}
	return splitLines(text), nil
}

func splitLines(s string) []string {
	lines := []string{}
	for len(s) > 0 {
		i := strings.IndexAny(s, "\r\n")
		if i < 0 {
			lines = append(lines, s)
			break
		}
		lines = append(lines, s[:i])
		if s[i] == '\r' && i+1 < len(s) && s[i+1] == '\n' {
			i++
		}
		s = s[i+1:]
	}
	return lines
}

// WriteAllBytes creates or overwrites the file at path. The parent directory
// must exist; an existing file keeps its identity and creation time.
func (f *FileOps) WriteAllBytes(path string, data []byte) error {
	return f.writeContents("write", path, data, false)
}

// WriteAllText writes text as UTF-8 without a byte order mark
func (f *FileOps) WriteAllText(path, text string) error {
	return f.writeContents("write", path, []byte(text), false)
}

// WriteAllTextEncoding writes text encoded with enc. Encodings configured to
// emit a byte order mark do so.
func (f *FileOps) WriteAllTextEncoding(path, text string, enc encoding.Encoding) error {
	data, err := enc.NewEncoder().Bytes([]byte(text))
	if err != nil {
		return pathError("write", path, err)
	}
	return f.writeContents("write", path, data, false)
}

// WriteAllLines writes each line followed by the platform newline
func (f *FileOps) WriteAllLines(path string, lines []string) error {
	return f.writeContents("write", path, []byte(f.joinLines(lines)), false)
}

func (f *FileOps) joinLines(lines []string) string {
	var b strings.Builder
	nl := f.fsys.platform.NewLine()
	for _, l := range lines {
		b.WriteString(l)
		b.WriteString(nl)
	}
	return b.String()
}

// AppendAllBytes appends data to the file at path, creating it if needed
func (f *FileOps) AppendAllBytes(path string, data []byte) error {
	return f.writeContents("append", path, data, true)
}

func (f *FileOps) AppendAllText(path, text string) error {
	return f.writeContents("append", path, []byte(text), true)
}

func (f *FileOps) AppendAllLines(path string, lines []string) error {
	return f.writeContents("append", path, []byte(f.joinLines(lines)), true)
}

// ReadAllBytesContext is ReadAllBytes that fails with ctx.Err() when ctx is
// already done. The same holds for every other Context variant.
func (f *FileOps) ReadAllBytesContext(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return f.ReadAllBytes(path)
}

func (f *FileOps) ReadAllTextContext(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return f.ReadAllText(path)
}

func (f *FileOps) ReadAllTextEncodingContext(ctx context.Context, path string, enc encoding.Encoding) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return f.ReadAllTextEncoding(path, enc)
}

func (f *FileOps) ReadAllLinesContext(ctx context.Context, path string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return f.ReadAllLines(path)
}

func (f *FileOps) WriteAllBytesContext(ctx context.Context, path string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return f.WriteAllBytes(path, data)
}

func (f *FileOps) WriteAllTextContext(ctx context.Context, path, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return f.WriteAllText(path, text)
}

func (f *FileOps) WriteAllTextEncodingContext(ctx context.Context, path, text string, enc encoding.Encoding) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return f.WriteAllTextEncoding(path, text, enc)
}

func (f *FileOps) WriteAllLinesContext(ctx context.Context, path string, lines []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return f.WriteAllLines(path, lines)
}

func (f *FileOps) AppendAllBytesContext(ctx context.Context, path string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return f.AppendAllBytes(path, data)
}

func (f *FileOps) AppendAllTextContext(ctx context.Context, path, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return f.AppendAllText(path, text)
}

func (f *FileOps) AppendAllLinesContext(ctx context.Context, path string, lines []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return f.AppendAllLines(path, lines)
}

// Copy copies the file src to dst. The copy gets a new identity and its
// creation and last access times are stamped with now.
func (f *FileOps) Copy(src, dst string, overwrite bool) error {
	logger := util.GetLogger("File.Copy")
	fsys := f.fsys

	fullSrc, err := fsys.resolve(src)
	if err != nil {
		return pathError("copy", src, err)
	}
	fullDst, err := fsys.resolve(dst)
	if err != nil {
		return pathError("copy", dst, err)
	}

	fsys.mu.Lock()
	defer fsys.mu.Unlock()
	se := fsys.lookupLocked(fullSrc)
	if se == nil {
		return fsys.notFoundLocked("copy", src, fullSrc)
	}
	if se.node.IsDirectory() {
		return pathError("copy", src, ErrAccessDenied)
	}
	if !fsys.parentExistsLocked(fullDst) {
		return pathError("copy", dst, ErrDirectoryNotFound)
	}
	if de := fsys.lookupLocked(fullDst); de != nil {
		if de.node.IsDirectory() {
			return pathErrorf("copy", dst, ErrIO, "the target file is a directory, not a file")
		}
		if !overwrite {
			return pathError("copy", dst, ErrFileAlreadyExists)
		}
		if fsys.comparer.Equal(fullSrc, fullDst) {
			return pathError("copy", dst, ErrSharingViolation)
		}
		if de.node.IsReadOnly() {
			return pathError("copy", dst, ErrAccessDenied)
		}
	}
	if err := se.node.checkAccess(AccessRead); err != nil {
		return pathError("copy", src, err)
	}

	c := copyNode(se.node)
	now := fsys.Now()
	c.creationTime = now
	c.lastAccessTime = now
	if _, err := fsys.addFileLocked(fullDst, c, false); err != nil {
		return err
	}
	logger.Debug().Str("src", se.path).Str("dst", fullDst).Msg("Copied file")
	return nil
}

// Move renames the file src to dst keeping its node. Moving a file onto its
// own path is a no-op apart from a case-only rename on case-insensitive
// stores. The source must allow delete sharing.
func (f *FileOps) Move(src, dst string, overwrite bool) error {
	logger := util.GetLogger("File.Move")
	fsys := f.fsys

	if src == "" || dst == "" {
		return pathErrorf("move", src, ErrInvalidArgument, "empty file name is not legal")
	}
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
	se := fsys.lookupLocked(fullSrc)
	if se == nil || se.node.IsDirectory() {
		return fsys.notFoundLocked("move", src, fullSrc)
	}
	if !se.node.allowedShare.Has(ShareDelete) {
		return pathError("move", src, ErrSharingViolation)
	}
	if !fsys.parentExistsLocked(fullDst) {
		return pathError("move", dst, ErrDirectoryNotFound)
	}
	if de := fsys.lookupLocked(fullDst); de != nil {
		if de == se {
			if fullSrc != fullDst {
				fsys.renameLocked(fullSrc, fullDst)
			}
			return nil
		}
		if de.node.IsDirectory() || !overwrite {
			return pathError("move", dst, ErrFileAlreadyExists)
		}
		if err := fsys.removeEntriesLocked("move", []*entry{de}); err != nil {
			return err
		}
	}
	fsys.renameLocked(fullSrc, fullDst)
	logger.Debug().Str("src", fullSrc).Str("dst", fullDst).Msg("Moved file")
	return nil
}

// Replace replaces dst with src, first copying dst to backup unless backup
// is empty.
func (f *FileOps) Replace(src, dst, backup string) error {
	if !f.Exists(src) {
		return pathError("replace", src, ErrFileNotFound)
	}
	if !f.Exists(dst) {
		return pathError("replace", dst, ErrFileNotFound)
	}
	if backup != "" {
		if err := f.Copy(dst, backup, true); err != nil {
			return err
		}
	}
	if err := f.Delete(dst); err != nil {
		return err
	}
	return f.Move(src, dst, false)
}

// Delete removes the file at path. A missing file is not an error but a
// missing parent directory is.
func (f *FileOps) Delete(path string) error {
	logger := util.GetLogger("File.Delete")
	fsys := f.fsys

	full, err := fsys.resolve(path)
	if err != nil {
		return pathError("remove", path, err)
	}

	fsys.mu.Lock()
	defer fsys.mu.Unlock()
	if !fsys.parentExistsLocked(full) {
		return pathError("remove", path, ErrDirectoryNotFound)
	}
	e := fsys.lookupLocked(full)
	if e == nil {
		return nil
	}
	if !e.node.allowedShare.Has(ShareDelete) {
		return pathError("remove", path, ErrSharingViolation)
	}
	if e.node.IsDirectory() {
		return pathError("remove", path, ErrAccessDenied)
	}
	if err := fsys.removeEntriesLocked("remove", []*entry{e}); err != nil {
		return err
	}
	logger.Debug().Str("path", e.path).Msg("Deleted file")
	return nil
}

// lookup returns the node at path together with its resolved full path
func (f *FileOps) lookup(op, path string) (*Node, string, error) {
	fsys := f.fsys
	full, err := fsys.resolve(path)
	if err != nil {
		return nil, "", pathError(op, path, err)
	}
	fsys.mu.RLock()
	defer fsys.mu.RUnlock()
	if e := fsys.lookupLocked(full); e != nil {
		return e.node, full, nil
	}
	return nil, "", fsys.notFoundLocked(op, path, full)
}

// update runs fn on the node at path under the write lock
func (f *FileOps) update(op, path string, fn func(*Node)) error {
	fsys := f.fsys
	full, err := fsys.resolve(path)
	if err != nil {
		return pathError(op, path, err)
	}
	fsys.mu.Lock()
	defer fsys.mu.Unlock()
	e := fsys.lookupLocked(full)
	if e == nil {
		return fsys.notFoundLocked(op, path, full)
	}
	fn(e.node)
	return nil
}

// GetAttributes returns the attribute flags of the file or directory at path
func (f *FileOps) GetAttributes(path string) (FileAttributes, error) {
	node, _, err := f.lookup("getattributes", path)
	if err != nil {
		return 0, err
	}
	return node.Attributes(), nil
}

// SetAttributes replaces the attribute flags and stamps the last access time
func (f *FileOps) SetAttributes(path string, attrs FileAttributes) error {
	return f.update("setattributes", path, func(node *Node) {
		node.SetAttributes(attrs)
		f.fsys.adjustTimes(node, adjustAccess)
	})
}

// Encrypt sets AttrEncrypted on the file at path
func (f *FileOps) Encrypt(path string) error {
	return f.update("encrypt", path, func(node *Node) {
		node.SetAttributes(node.Attributes() | AttrEncrypted)
	})
}

// Decrypt clears AttrEncrypted
func (f *FileOps) Decrypt(path string) error {
	return f.update("decrypt", path, func(node *Node) {
		node.SetAttributes(node.Attributes() &^ AttrEncrypted)
	})
}

// Stat returns a *FileInfo or *DirectoryInfo for an existing path
func (f *FileOps) Stat(path string) (fs.FileInfo, error) {
	node, full, err := f.lookup("stat", path)
	if err != nil {
		return nil, err
	}
	if node.IsDirectory() {
		return f.fsys.newDirectoryInfo(full, path), nil
	}
	return f.fsys.newFileInfo(full, path), nil
}

// GetInfo returns a view of path as a file. The file need not exist.
func (f *FileOps) GetInfo(path string) (*FileInfo, error) {
	full, err := f.fsys.resolve(path)
	if err != nil {
		return nil, pathError("getinfo", path, err)
	}
	return f.fsys.newFileInfo(full, path), nil
}
