package filesystem

import (
	"context"
	"io"
	"sync"

	"github.com/brettbedarf/memfs/internal/util"
	"github.com/google/uuid"
)

// FileMode tells OpenFile how to treat an existing or missing file
type FileMode int

const (
	ModeCreateNew FileMode = iota + 1
	ModeCreate
	ModeOpen
	ModeOpenOrCreate
	ModeTruncate
	ModeAppend
)

func (m FileMode) String() string {
	switch m {
	case ModeCreateNew:
		return "CreateNew"
	case ModeCreate:
		return "Create"
	case ModeOpen:
		return "Open"
	case ModeOpenOrCreate:
		return "OpenOrCreate"
	case ModeTruncate:
		return "Truncate"
	case ModeAppend:
		return "Append"
	default:
		return "Unknown"
	}
}

// FileAccess is the access a handle is opened with
type FileAccess int

const (
	AccessRead      FileAccess = 1
	AccessWrite     FileAccess = 2
	AccessReadWrite FileAccess = AccessRead | AccessWrite
)

func (a FileAccess) String() string {
	switch a {
	case AccessRead:
		return "Read"
	case AccessWrite:
		return "Write"
	case AccessReadWrite:
		return "ReadWrite"
	default:
		return "Unknown"
	}
}

func (a FileAccess) CanRead() bool { return a&AccessRead != 0 }

func (a FileAccess) CanWrite() bool { return a&AccessWrite != 0 }

// FileOptions are advanced open options
type FileOptions uint32

const (
	OptionNone           FileOptions = 0
	OptionEncrypted      FileOptions = 0x4000
	OptionDeleteOnClose  FileOptions = 0x4000000
	OptionSequentialScan FileOptions = 0x8000000
	OptionRandomAccess   FileOptions = 0x10000000
	OptionAsynchronous   FileOptions = 0x40000000
	OptionWriteThrough   FileOptions = 0x80000000
)

func (o FileOptions) Has(flag FileOptions) bool { return o&flag == flag }

// OpenOptions describes how to open a file. A zero Access means read/write,
// or write-only for ModeAppend.
type OpenOptions struct {
	Mode    FileMode
	Access  FileAccess
	Share   FileShare
	Options FileOptions
}

func (o OpenOptions) access() FileAccess {
	if o.Access != 0 {
		return o.Access
	}
	if o.Mode == ModeAppend {
		return AccessWrite
	}
	return AccessReadWrite
}

func validateModeAccess(mode FileMode, access FileAccess) error {
	if mode < ModeCreateNew || mode > ModeAppend {
		return ErrInvalidArgument
	}
	if access&^AccessReadWrite != 0 {
		return ErrInvalidArgument
	}
	if mode == ModeAppend && access.CanRead() {
		// append is write-only
		return ErrInvalidArgument
	}
	if !access.CanWrite() {
		switch mode {
		case ModeCreate, ModeCreateNew, ModeTruncate, ModeAppend:
			return ErrInvalidArgument
		}
	}
	return nil
}

type timeAdjustment uint8

const (
	adjustAccess timeAdjustment = 1 << iota
	adjustWrite
)

// openAdjustments are the timestamps touched when an existing file is opened
func openAdjustments(mode FileMode, access FileAccess) timeAdjustment {
	switch mode {
	case ModeAppend, ModeCreateNew:
		if access.CanRead() {
			return adjustAccess
		}
	case ModeCreate, ModeTruncate:
		if access.CanWrite() {
			return adjustAccess | adjustWrite
		}
		return adjustAccess
	}
	return 0
}

// Handle is an open file. It buffers the file contents in memory and copies
// them back to the node at its path on Flush and Close.
type Handle struct {
	id      uuid.UUID
	fsys    *FileSystem
	path    string // resolved path
	name    string // path as given to open
	mode    FileMode
	access  FileAccess
	share   FileShare
	options FileOptions

	mu     sync.Mutex
	buf    []byte
	pos    int64
	closed bool

	metadata *Metadata
}

// OpenFile opens or creates the file at path.
//
// An existing file must allow every requested access through its sharing
// mode. Create and Truncate start from an empty buffer, Append positions at
// the end, everything else at the start. A missing file is created unless
// mode is Open or Truncate.
func (f *FileOps) OpenFile(path string, opts OpenOptions) (*Handle, error) {
	logger := util.GetLogger("File.OpenFile")
	fsys := f.fsys

	access := opts.access()
	if err := validateModeAccess(opts.Mode, access); err != nil {
		return nil, pathErrorf("open", path, err, "invalid combination of mode %s and access %s", opts.Mode, access)
	}
	full, err := fsys.resolve(path)
	if err != nil {
		return nil, pathError("open", path, err)
	}

	fsys.mu.Lock()
	defer fsys.mu.Unlock()

	h := &Handle{
		id:       uuid.New(),
		fsys:     fsys,
		path:     full,
		name:     path,
		mode:     opts.Mode,
		access:   access,
		share:    opts.Share,
		options:  opts.Options,
		metadata: NewMetadata(),
	}

	if e := fsys.lookupLocked(full); e != nil {
		node := e.node
		if node.IsDirectory() {
			return nil, pathError("open", path, ErrAccessDenied)
		}
		if opts.Mode == ModeCreateNew {
			return nil, pathError("open", path, ErrFileAlreadyExists)
		}
		if access.CanWrite() && node.IsReadOnly() {
			return nil, pathError("open", path, ErrAccessDenied)
		}
		if err := node.checkAccess(access); err != nil {
			return nil, pathError("open", path, err)
		}
		h.path = e.path
		fsys.adjustTimes(node, openAdjustments(opts.Mode, access))
		if opts.Mode != ModeCreate && opts.Mode != ModeTruncate {
			h.buf = node.Contents()
		}
		if opts.Mode == ModeAppend {
			h.pos = int64(len(h.buf))
		}
	} else {
		if !fsys.parentExistsLocked(full) {
			return nil, pathError("open", path, ErrDirectoryNotFound)
		}
		if opts.Mode == ModeOpen || opts.Mode == ModeTruncate {
			return nil, pathError("open", path, ErrFileNotFound)
		}
		node := NewFileNode(nil)
		now := fsys.Now()
		node.creationTime = now
		node.lastAccessTime = now
		e, err := fsys.addFileLocked(full, node, true)
		if err != nil {
			return nil, err
		}
		h.path = e.path
		logger.Debug().Str("path", e.path).Msg("Created file on open")
	}

	fsys.handles.Store(h.id, h)
	logger.Debug().Str("path", h.path).Str("mode", opts.Mode.String()).Str("access", access.String()).
		Str("handle", h.id.String()).Msg("Opened handle")
	return h, nil
}

// adjustTimes stamps the requested timestamps of node with now. The caller
// holds fsys.mu for writing.
func (fsys *FileSystem) adjustTimes(node *Node, adj timeAdjustment) {
	if adj == 0 {
		return
	}
	now := fsys.Now()
	if adj&adjustAccess != 0 {
		node.lastAccessTime = now
	}
	if adj&adjustWrite != 0 {
		node.lastWriteTime = now
	}
}

// withNode runs fn under the write lock on the file currently stored at
// the handle's path, if any
func (h *Handle) withNode(fn func(*Node)) {
	h.fsys.mu.Lock()
	defer h.fsys.mu.Unlock()
	if e := h.fsys.lookupLocked(h.path); e != nil && e.node.IsFile() {
		fn(e.node)
	}
}

func (h *Handle) stamp(adj timeAdjustment) {
	h.withNode(func(node *Node) { h.fsys.adjustTimes(node, adj) })
}

func (h *Handle) ID() uuid.UUID { return h.id }

// Name returns the path the handle was opened with
func (h *Handle) Name() string { return h.name }

// Path returns the resolved path of the handle
func (h *Handle) Path() string { return h.path }

func (h *Handle) Mode() FileMode { return h.mode }

func (h *Handle) Access() FileAccess { return h.access }

func (h *Handle) Share() FileShare { return h.share }

func (h *Handle) Options() FileOptions { return h.options }

func (h *Handle) Metadata() *Metadata { return h.metadata }

func (h *Handle) CanRead() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return !h.closed && h.access.CanRead()
}

func (h *Handle) CanWrite() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return !h.closed && h.access.CanWrite()
}

func (h *Handle) CanSeek() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return !h.closed
}

// Len is the length of the buffered contents
func (h *Handle) Len() int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return int64(len(h.buf))
}

func (h *Handle) Position() int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.pos
}

// Bytes returns a copy of the buffered contents
func (h *Handle) Bytes() []byte {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]byte, len(h.buf))
	copy(out, h.buf)
	return out
}

func (h *Handle) checkLocked(op string, need FileAccess) error {
	if h.closed {
		return pathError(op, h.name, ErrClosed)
	}
	if need != 0 && h.access&need == 0 {
		return pathError(op, h.name, ErrNotSupported)
	}
	return nil
}

// Read reads from the current position and stamps the last access time
func (h *Handle) Read(p []byte) (int, error) {
	h.mu.Lock()
	if err := h.checkLocked("read", AccessRead); err != nil {
		h.mu.Unlock()
		return 0, err
	}
	var n int
	if h.pos < int64(len(h.buf)) {
		n = copy(p, h.buf[h.pos:])
		h.pos += int64(n)
	}
	h.mu.Unlock()

	h.stamp(adjustAccess)
	if n == 0 && len(p) > 0 {
		return 0, io.EOF
	}
	return n, nil
}

// ReadByte reads a single byte
func (h *Handle) ReadByte() (byte, error) {
	var b [1]byte
	if _, err := h.Read(b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

// Write writes at the current position, growing the buffer as needed, and
// stamps the last access and last write times at the moment of the write.
func (h *Handle) Write(p []byte) (int, error) {
	h.mu.Lock()
	if err := h.checkLocked("write", AccessWrite); err != nil {
		h.mu.Unlock()
		return 0, err
	}
	end := h.pos + int64(len(p))
	if end > int64(len(h.buf)) {
		grown := make([]byte, end)
		copy(grown, h.buf)
		h.buf = grown
	}
	copy(h.buf[h.pos:], p)
	h.pos = end
	h.mu.Unlock()

	h.stamp(adjustAccess | adjustWrite)
	return len(p), nil
}

func (h *Handle) WriteByte(c byte) error {
	_, err := h.Write([]byte{c})
	return err
}

func (h *Handle) WriteString(s string) (int, error) {
	return h.Write([]byte(s))
}

// Seek sets the position for the next Read or Write. Seeking past the end
// is allowed; a negative position is not.
func (h *Handle) Seek(offset int64, whence int) (int64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.checkLocked("seek", 0); err != nil {
		return 0, err
	}
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = h.pos + offset
	case io.SeekEnd:
		abs = int64(len(h.buf)) + offset
	default:
		return 0, pathErrorf("seek", h.name, ErrInvalidArgument, "invalid whence %d", whence)
	}
	if abs < 0 {
		return 0, pathErrorf("seek", h.name, ErrInvalidArgument, "negative position")
	}
	h.pos = abs
	return abs, nil
}

// SetLength truncates or zero-extends the buffer
func (h *Handle) SetLength(n int64) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.checkLocked("truncate", AccessWrite); err != nil {
		return err
	}
	if n < 0 {
		return pathErrorf("truncate", h.name, ErrInvalidArgument, "negative length")
	}
	if n <= int64(len(h.buf)) {
		h.buf = h.buf[:n]
	} else {
		grown := make([]byte, n)
		copy(grown, h.buf)
		h.buf = grown
	}
	h.pos = min(h.pos, n)
	return nil
}

// Flush copies the buffer into the node currently stored at the handle's
// path. Nothing happens when the file is gone.
func (h *Handle) Flush() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.checkLocked("flush", 0); err != nil {
		return err
	}
	h.flushLocked()
	return nil
}

func (h *Handle) flushLocked() {
	if !h.access.CanWrite() {
		return
	}
	h.withNode(func(node *Node) { node.SetContents(h.buf) })
}

// Close flushes the buffer, applies the DeleteOnClose and Encrypted options
// and releases the handle. Closing twice is a no-op.
func (h *Handle) Close() error {
	logger := util.GetLogger("Handle.Close")

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.flushLocked()
	h.closed = true
	h.buf = nil
	h.mu.Unlock()

	h.fsys.handles.Delete(h.id)

	var err error
	if h.options.Has(OptionDeleteOnClose) {
		err = h.fsys.RemoveFile(h.path)
	}
	if h.options.Has(OptionEncrypted) {
		h.withNode(func(node *Node) { node.SetAttributes(node.Attributes() | AttrEncrypted) })
	}
	logger.Debug().Str("path", h.path).Str("handle", h.id.String()).Msg("Closed handle")
	return err
}

// ReadContext is Read that fails with ctx.Err() when ctx is already done
func (h *Handle) ReadContext(ctx context.Context, p []byte) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return h.Read(p)
}

// WriteContext is Write that fails with ctx.Err() when ctx is already done
func (h *Handle) WriteContext(ctx context.Context, p []byte) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return h.Write(p)
}

// FlushContext is Flush that fails with ctx.Err() when ctx is already done
func (h *Handle) FlushContext(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return h.Flush()
}
