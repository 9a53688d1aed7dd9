package filesystem

import (
	"bytes"
	"io/fs"
	"time"

	"github.com/google/uuid"
)

// Kind discriminates the two node variants
type Kind uint8

const (
	KindFile Kind = iota
	KindDirectory
)

func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindDirectory:
		return "directory"
	default:
		return "unknown"
	}
}

// Default permission bits reported through fs.FileInfo.Mode
const (
	DefaultFileMode fs.FileMode = 0o644
	DefaultDirMode  fs.FileMode = 0o755
)

// Node is a file or a directory stored in a [FileSystem].
//
// NOTE: fields are not locked. The store serializes structural changes but
// callers mutating one node from several goroutines must coordinate.
type Node struct {
	kind           Kind
	id             uuid.UUID
	contents       []byte // always nil for directories
	creationTime   time.Time
	lastAccessTime time.Time
	lastWriteTime  time.Time
	attributes     FileAttributes
	allowedShare   FileShare
	metadata       *Metadata

	// Security is an opaque access-control slot; nothing interprets it
	Security any
	// UnixMode holds the permission bits reported by fs.FileInfo.Mode
	UnixMode fs.FileMode
}

func newNode(kind Kind) *Node {
	n := &Node{
		kind:         kind,
		id:           uuid.New(),
		allowedShare: DefaultShare,
		metadata:     NewMetadata(),
	}
	if kind == KindDirectory {
		n.attributes = AttrDirectory
		n.UnixMode = DefaultDirMode
	} else {
		n.attributes = AttrNormal
		n.UnixMode = DefaultFileMode
	}
	return n
}

// NewFileNode creates a file node holding a copy of contents.
// Timestamps are left zero and stamped when the node is added to a store.
func NewFileNode(contents []byte) *Node {
	n := newNode(KindFile)
	n.contents = bytes.Clone(contents)
	if n.contents == nil {
		n.contents = []byte{}
	}
	return n
}

// NewTextFileNode creates a file node holding text encoded as UTF-8
func NewTextFileNode(text string) *Node {
	return NewFileNode([]byte(text))
}

func NewDirectoryNode() *Node {
	return newNode(KindDirectory)
}

// CloneNode returns a deep copy of n that keeps its ID
func CloneNode(n *Node) *Node {
	c := *n
	c.contents = bytes.Clone(n.contents)
	c.metadata = n.metadata.Clone()
	return &c
}

// copyNode returns a copy of n with a fresh identity and empty metadata
func copyNode(n *Node) *Node {
	c := CloneNode(n)
	c.id = uuid.New()
	c.metadata = NewMetadata()
	return c
}

func (n *Node) ID() uuid.UUID { return n.id }

// SetID pins the identity of a node that has not been added to a store yet
func (n *Node) SetID(id uuid.UUID) { n.id = id }

func (n *Node) Kind() Kind { return n.kind }

func (n *Node) IsDirectory() bool { return n.kind == KindDirectory }

func (n *Node) IsFile() bool { return n.kind == KindFile }

// Contents returns a copy of the file contents; nil for directories
func (n *Node) Contents() []byte {
	if n.kind == KindDirectory {
		return nil
	}
	return bytes.Clone(n.contents)
}

// SetContents replaces the contents of a file node. It is a no-op on
// directories and does not touch timestamps.
func (n *Node) SetContents(contents []byte) {
	if n.kind == KindDirectory {
		return
	}
	n.contents = bytes.Clone(contents)
	if n.contents == nil {
		n.contents = []byte{}
	}
}

// TextContents returns the contents interpreted as UTF-8
func (n *Node) TextContents() string {
	return string(n.contents)
}

// Len is the content length in bytes
func (n *Node) Len() int64 {
	return int64(len(n.contents))
}

func (n *Node) CreationTime() time.Time { return n.creationTime }

func (n *Node) LastAccessTime() time.Time { return n.lastAccessTime }

func (n *Node) LastWriteTime() time.Time { return n.lastWriteTime }

func (n *Node) SetCreationTime(t time.Time) { n.creationTime = t }

func (n *Node) SetLastAccessTime(t time.Time) { n.lastAccessTime = t }

func (n *Node) SetLastWriteTime(t time.Time) { n.lastWriteTime = t }

// Attributes returns the attribute flags. Directories always carry
// AttrDirectory; a file without flags reports AttrNormal.
func (n *Node) Attributes() FileAttributes {
	if n.kind == KindDirectory {
		return n.attributes | AttrDirectory
	}
	if n.attributes == 0 {
		return AttrNormal
	}
	return n.attributes
}

// SetAttributes replaces the attribute flags, keeping AttrDirectory in
// line with the node kind.
func (n *Node) SetAttributes(a FileAttributes) {
	if n.kind == KindDirectory {
		a |= AttrDirectory
	} else {
		a &^= AttrDirectory
	}
	n.attributes = a
}

func (n *Node) IsReadOnly() bool { return n.attributes.Has(AttrReadOnly) }

func (n *Node) IsHidden() bool { return n.attributes.Has(AttrHidden) }

// AllowedShare is the set of accesses other openers may request
func (n *Node) AllowedShare() FileShare { return n.allowedShare }

func (n *Node) SetAllowedShare(s FileShare) { n.allowedShare = s }

func (n *Node) Metadata() *Metadata { return n.metadata }

// Mode reports the fs.FileMode of the node; read-only nodes lose their write
// bits.
func (n *Node) Mode() fs.FileMode {
	mode := n.UnixMode.Perm()
	if n.IsReadOnly() {
		mode &^= 0o222
	}
	if n.kind == KindDirectory {
		mode |= fs.ModeDir
	}
	return mode
}

// checkAccess fails with ErrSharingViolation unless the node's sharing mode
// allows every bit of access.
func (n *Node) checkAccess(access FileAccess) error {
	if !n.allowedShare.Has(FileShare(access)) {
		return ErrSharingViolation
	}
	return nil
}

// stampZero fills timestamps the caller left unset
func (n *Node) stampZero(now time.Time) {
	if n.creationTime.IsZero() {
		n.creationTime = now
	}
	if n.lastAccessTime.IsZero() {
		n.lastAccessTime = now
	}
	if n.lastWriteTime.IsZero() {
		n.lastWriteTime = now
	}
}
