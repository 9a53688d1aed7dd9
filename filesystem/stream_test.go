package filesystem

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ io.ReadWriteSeeker = (*Handle)(nil)
	_ io.Closer          = (*Handle)(nil)
	_ io.ByteReader      = (*Handle)(nil)
	_ io.ByteWriter      = (*Handle)(nil)
	_ io.StringWriter    = (*Handle)(nil)
)

func TestHandle_CreateWriteClose(t *testing.T) {
	t.Parallel()

	fsys := newTestFS(t, "posix", nil)

	h, err := fsys.File().Create("/out.txt")
	require.NoError(t, err)
	assert.True(t, h.CanRead())
	assert.True(t, h.CanWrite())
	assert.True(t, h.CanSeek())
	assert.Equal(t, "/out.txt", h.Name())
	assert.Len(t, fsys.OpenHandles(), 1)

	n, err := h.WriteString("hello ")
	require.NoError(t, err)
	assert.Equal(t, 6, n)
	require.NoError(t, h.WriteByte('w'))
	_, err = h.Write([]byte("orld"))
	require.NoError(t, err)
	assert.Equal(t, int64(11), h.Len())
	assert.Equal(t, int64(11), h.Position())

	// contents reach the node on close
	assert.Empty(t, fsys.GetNode("/out.txt").TextContents())
	require.NoError(t, h.Close())
	assert.Equal(t, "hello world", fsys.GetNode("/out.txt").TextContents())
	assert.Empty(t, fsys.OpenHandles())

	require.NoError(t, h.Close())
	assert.False(t, h.CanRead())
}

func TestHandle_OpenRead(t *testing.T) {
	t.Parallel()

	fsys := newTestFS(t, "posix", map[string]*Node{"/in.txt": NewTextFileNode("abc")})

	h, err := fsys.File().OpenRead("/in.txt")
	require.NoError(t, err)
	defer h.Close()

	b, err := h.ReadByte()
	require.NoError(t, err)
	assert.Equal(t, byte('a'), b)

	rest, err := io.ReadAll(h)
	require.NoError(t, err)
	assert.Equal(t, "bc", string(rest))

	_, err = h.Read(make([]byte, 4))
	assert.ErrorIs(t, err, io.EOF)

	_, err = h.Write([]byte("x"))
	assert.ErrorIs(t, err, ErrNotSupported)
	assert.ErrorIs(t, h.SetLength(0), ErrNotSupported)
}

func TestHandle_OpenModes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		path    string
		opts    OpenOptions
		wantErr error
		want    string // buffered contents after open
		wantPos int64
	}{
		{"open existing", "/f.txt", OpenOptions{Mode: ModeOpen}, nil, "data", 0},
		{"open or create existing", "/f.txt", OpenOptions{Mode: ModeOpenOrCreate}, nil, "data", 0},
		{"open or create missing", "/new.txt", OpenOptions{Mode: ModeOpenOrCreate}, nil, "", 0},
		{"create existing truncates", "/f.txt", OpenOptions{Mode: ModeCreate}, nil, "", 0},
		{"create new missing", "/new.txt", OpenOptions{Mode: ModeCreateNew}, nil, "", 0},
		{"truncate existing", "/f.txt", OpenOptions{Mode: ModeTruncate, Access: AccessWrite}, nil, "", 0},
		{"append existing", "/f.txt", OpenOptions{Mode: ModeAppend}, nil, "data", 4},
		{"append missing", "/new.txt", OpenOptions{Mode: ModeAppend}, nil, "", 0},

		{"create new existing", "/f.txt", OpenOptions{Mode: ModeCreateNew}, ErrFileAlreadyExists, "", 0},
		{"open missing", "/new.txt", OpenOptions{Mode: ModeOpen}, ErrFileNotFound, "", 0},
		{"truncate missing", "/new.txt", OpenOptions{Mode: ModeTruncate}, ErrFileNotFound, "", 0},
		{"missing parent", "/no/new.txt", OpenOptions{Mode: ModeCreate}, ErrDirectoryNotFound, "", 0},
		{"directory", "/dir", OpenOptions{Mode: ModeOpen, Access: AccessRead}, ErrAccessDenied, "", 0},
		{"read-only for write", "/ro.txt", OpenOptions{Mode: ModeOpen, Access: AccessWrite}, ErrAccessDenied, "", 0},
		{"append with read", "/f.txt", OpenOptions{Mode: ModeAppend, Access: AccessReadWrite}, ErrInvalidArgument, "", 0},
		{"create read-only access", "/f.txt", OpenOptions{Mode: ModeCreate, Access: AccessRead}, ErrInvalidArgument, "", 0},
		{"truncate read-only access", "/f.txt", OpenOptions{Mode: ModeTruncate, Access: AccessRead}, ErrInvalidArgument, "", 0},
		{"unknown mode", "/f.txt", OpenOptions{Mode: FileMode(42)}, ErrInvalidArgument, "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			fsys := newTestFS(t, "posix", map[string]*Node{
				"/f.txt":  NewTextFileNode("data"),
				"/ro.txt": NewTextFileNode("ro"),
				"/dir":    nil,
			})
			fsys.GetNode("/ro.txt").SetAttributes(AttrReadOnly)

			h, err := fsys.File().OpenFile(tt.path, tt.opts)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, h)
				assert.Empty(t, fsys.OpenHandles())
				return
			}
			require.NoError(t, err)
			defer h.Close()
			assert.Equal(t, tt.want, string(h.Bytes()))
			assert.Equal(t, tt.wantPos, h.Position())
			assert.True(t, fsys.File().Exists(tt.path))
		})
	}
}

func TestHandle_ReadOnlyFileOpenedForRead(t *testing.T) {
	t.Parallel()

	fsys := newTestFS(t, "posix", map[string]*Node{"/ro.txt": NewTextFileNode("ro")})
	fsys.GetNode("/ro.txt").SetAttributes(AttrReadOnly)

	h, err := fsys.File().OpenRead("/ro.txt")
	require.NoError(t, err)
	require.NoError(t, h.Close())
}

func TestHandle_Sharing(t *testing.T) {
	t.Parallel()

	fsys := newTestFS(t, "posix", map[string]*Node{"/s.txt": NewTextFileNode("s")})
	node := fsys.GetNode("/s.txt")

	node.SetAllowedShare(ShareNone)
	_, err := fsys.File().OpenRead("/s.txt")
	assert.ErrorIs(t, err, ErrSharingViolation)
	assert.ErrorIs(t, err, ErrIO)

	node.SetAllowedShare(ShareRead)
	h, err := fsys.File().OpenRead("/s.txt")
	require.NoError(t, err)
	require.NoError(t, h.Close())

	_, err = fsys.File().OpenWrite("/s.txt")
	assert.ErrorIs(t, err, ErrSharingViolation)
}

func TestHandle_Seek(t *testing.T) {
	t.Parallel()

	fsys := newTestFS(t, "posix", map[string]*Node{"/s.bin": NewTextFileNode("0123456789")})
	h, err := fsys.File().Open("/s.bin", ModeOpen)
	require.NoError(t, err)
	defer h.Close()

	tests := []struct {
		offset int64
		whence int
		want   int64
	}{
		{3, io.SeekStart, 3},
		{2, io.SeekCurrent, 5},
		{-1, io.SeekEnd, 9},
		{5, io.SeekEnd, 15},
	}
	for _, tt := range tests {
		pos, err := h.Seek(tt.offset, tt.whence)
		require.NoError(t, err)
		assert.Equal(t, tt.want, pos)
	}

	_, err = h.Seek(-100, io.SeekCurrent)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = h.Seek(0, 7)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	// writing past the end zero fills the gap
	_, err = h.Write([]byte("!"))
	require.NoError(t, err)
	assert.Equal(t, "0123456789\x00\x00\x00\x00\x00!", string(h.Bytes()))
}

func TestHandle_SetLength(t *testing.T) {
	t.Parallel()

	fsys := newTestFS(t, "posix", map[string]*Node{"/s.bin": NewTextFileNode("abcdef")})
	h, err := fsys.File().Open("/s.bin", ModeOpen)
	require.NoError(t, err)

	_, err = h.Seek(0, io.SeekEnd)
	require.NoError(t, err)
	require.NoError(t, h.SetLength(3))
	assert.Equal(t, "abc", string(h.Bytes()))
	assert.Equal(t, int64(3), h.Position())

	require.NoError(t, h.SetLength(5))
	assert.Equal(t, "abc\x00\x00", string(h.Bytes()))
	assert.ErrorIs(t, h.SetLength(-1), ErrInvalidArgument)

	require.NoError(t, h.Close())
	assert.Equal(t, "abc\x00\x00", fsys.GetNode("/s.bin").TextContents())
}

func TestHandle_Flush(t *testing.T) {
	t.Parallel()

	fsys := newTestFS(t, "posix", map[string]*Node{"/f.txt": NewTextFileNode("old")})

	w, err := fsys.File().Open("/f.txt", ModeOpen)
	require.NoError(t, err)
	_, err = w.Write([]byte("new"))
	require.NoError(t, err)
	require.NoError(t, w.Flush())
	assert.Equal(t, "new", fsys.GetNode("/f.txt").TextContents())

	// a read-only handle never writes back
	r, err := fsys.File().OpenRead("/f.txt")
	require.NoError(t, err)
	require.NoError(t, fsys.File().WriteAllText("/f.txt", "external"))
	require.NoError(t, r.Flush())
	require.NoError(t, r.Close())
	assert.Equal(t, "external", fsys.GetNode("/f.txt").TextContents())

	require.NoError(t, w.Close())
	assert.ErrorIs(t, w.Flush(), ErrClosed)
}

func TestHandle_FlushAfterFileRemoved(t *testing.T) {
	t.Parallel()

	fsys := newTestFS(t, "posix", nil)
	h, err := fsys.File().Create("/gone.txt")
	require.NoError(t, err)
	_, err = h.WriteString("data")
	require.NoError(t, err)

	require.NoError(t, fsys.RemoveFile("/gone.txt"))
	require.NoError(t, h.Close())
	assert.False(t, fsys.Exists("/gone.txt"))
}

func TestHandle_ClosedOperations(t *testing.T) {
	t.Parallel()

	fsys := newTestFS(t, "posix", nil)
	h, err := fsys.File().Create("/c.txt")
	require.NoError(t, err)
	require.NoError(t, h.Close())

	_, err = h.Read(make([]byte, 1))
	assert.ErrorIs(t, err, ErrClosed)
	_, err = h.Write([]byte("x"))
	assert.ErrorIs(t, err, ErrClosed)
	_, err = h.Seek(0, io.SeekStart)
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, h.SetLength(1), ErrClosed)
	assert.False(t, h.CanSeek())
	assert.False(t, h.CanWrite())
}

func TestHandle_Options(t *testing.T) {
	t.Parallel()

	fsys := newTestFS(t, "posix", nil)

	tmp, err := fsys.File().OpenFile("/tmp.txt", OpenOptions{Mode: ModeCreate, Options: OptionDeleteOnClose})
	require.NoError(t, err)
	assert.True(t, fsys.Exists("/tmp.txt"))
	assert.True(t, tmp.Options().Has(OptionDeleteOnClose))
	require.NoError(t, tmp.Close())
	assert.False(t, fsys.Exists("/tmp.txt"))

	enc, err := fsys.File().OpenFile("/enc.txt", OpenOptions{Mode: ModeCreate, Options: OptionEncrypted})
	require.NoError(t, err)
	require.NoError(t, enc.Close())
	assert.True(t, fsys.GetNode("/enc.txt").Attributes().Has(AttrEncrypted))
}

func TestHandle_OpenTimeAdjustments(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		opts        OpenOptions
		wantAccess  bool
		wantWritten bool
	}{
		{"open", OpenOptions{Mode: ModeOpen}, false, false},
		{"open read", OpenOptions{Mode: ModeOpen, Access: AccessRead}, false, false},
		{"open or create", OpenOptions{Mode: ModeOpenOrCreate}, false, false},
		{"append", OpenOptions{Mode: ModeAppend}, false, false},
		{"create", OpenOptions{Mode: ModeCreate}, true, true},
		{"create write-only", OpenOptions{Mode: ModeCreate, Access: AccessWrite}, true, true},
		{"truncate", OpenOptions{Mode: ModeTruncate}, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			fsys, _ := newClockedFS(t, "posix", map[string]*Node{"/f.txt": NewTextFileNode("f")})
			node := fsys.GetNode("/f.txt")
			access, written := node.LastAccessTime(), node.LastWriteTime()

			h, err := fsys.File().OpenFile("/f.txt", tt.opts)
			require.NoError(t, err)

			assert.Equal(t, tt.wantAccess, node.LastAccessTime().After(access))
			assert.Equal(t, tt.wantWritten, node.LastWriteTime().After(written))
			assert.Equal(t, access, node.CreationTime())

			// close only flushes contents
			access, written = node.LastAccessTime(), node.LastWriteTime()
			require.NoError(t, h.Close())
			assert.Equal(t, access, node.LastAccessTime())
			assert.Equal(t, written, node.LastWriteTime())
		})
	}
}

func TestHandle_StampsAtOperationTime(t *testing.T) {
	t.Parallel()

	fsys, _ := newClockedFS(t, "posix", map[string]*Node{"/f.txt": NewTextFileNode("f")})
	node := fsys.GetNode("/f.txt")

	h, err := fsys.File().Open("/f.txt", ModeOpen)
	require.NoError(t, err)
	defer h.Close()
	opened := node.LastWriteTime()

	_, err = h.Write([]byte("x"))
	require.NoError(t, err)
	wrote := node.LastWriteTime()
	assert.True(t, wrote.After(opened))
	assert.Equal(t, wrote, node.LastAccessTime())

	_, err = h.Seek(0, io.SeekStart)
	require.NoError(t, err)
	_, err = h.Read(make([]byte, 1))
	require.NoError(t, err)
	assert.Equal(t, wrote, node.LastWriteTime())
	assert.True(t, node.LastAccessTime().After(wrote))
}

func TestHandle_Context(t *testing.T) {
	t.Parallel()

	fsys := newTestFS(t, "posix", nil)
	h, err := fsys.File().Create("/ctx.txt")
	require.NoError(t, err)
	defer h.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = h.WriteContext(ctx, []byte("x"))
	assert.ErrorIs(t, err, context.Canceled)
	_, err = h.ReadContext(ctx, make([]byte, 1))
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, h.FlushContext(ctx), context.Canceled)
	assert.Zero(t, h.Len())

	bg := context.Background()
	_, err = h.WriteContext(bg, []byte("ok"))
	require.NoError(t, err)
	require.NoError(t, h.FlushContext(bg))
	assert.Equal(t, "ok", fsys.GetNode("/ctx.txt").TextContents())
}

func TestHandle_Metadata(t *testing.T) {
	t.Parallel()

	fsys := newTestFS(t, "posix", nil)
	h, err := fsys.File().Create("/m.txt")
	require.NoError(t, err)
	defer h.Close()

	h.Metadata().Set("owner", "test")
	assert.Equal(t, "test", MetadataValue[string](h.Metadata(), "owner"))
	assert.Zero(t, fsys.GetNode("/m.txt").Metadata().Len())
	assert.NotEqual(t, h.ID(), fsys.GetNode("/m.txt").ID())
}
