package filesystem

import (
	"context"
	"io"
	"io/fs"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/unicode"
)

func TestFile_WriteReadRoundTrip(t *testing.T) {
	t.Parallel()

	fsys := newTestFS(t, "posix", map[string]*Node{"/d": nil})
	file := fsys.File()

	data := []byte{0xde, 0xad, 0xbe, 0xef}
	require.NoError(t, file.WriteAllBytes("/d/blob", data))
	got, err := file.ReadAllBytes("/d/blob")
	require.NoError(t, err)
	assert.Equal(t, data, got)

	require.NoError(t, file.WriteAllText("/d/t.txt", "héllo"))
	text, err := file.ReadAllText("/d/t.txt")
	require.NoError(t, err)
	assert.Equal(t, "héllo", text)
	assert.True(t, file.Exists("/d/t.txt"))
}

func TestFile_ReadAllTextByteOrderMarks(t *testing.T) {
	t.Parallel()

	fsys := newTestFS(t, "posix", map[string]*Node{
		"/utf8bom":  NewFileNode([]byte("\xef\xbb\xbfhello")),
		"/utf16le":  NewFileNode([]byte{0xff, 0xfe, 'h', 0, 'i', 0}),
		"/utf16be":  NewFileNode([]byte{0xfe, 0xff, 0, 'h', 0, 'i'}),
		"/plain":    NewFileNode([]byte("plain")),
		"/be-nobom": NewFileNode([]byte{0, 'o', 0, 'k'}),
	})
	file := fsys.File()

	tests := []struct {
		path string
		want string
	}{
		{"/utf8bom", "hello"},
		{"/utf16le", "hi"},
		{"/utf16be", "hi"},
		{"/plain", "plain"},
	}
	for _, tt := range tests {
		got, err := file.ReadAllText(tt.path)
		require.NoError(t, err, tt.path)
		assert.Equal(t, tt.want, got, tt.path)
	}

	got, err := file.ReadAllTextEncoding("/be-nobom", unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM))
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
}

func TestFile_WriteAllTextEncoding(t *testing.T) {
	t.Parallel()

	fsys := newTestFS(t, "posix", nil)
	file := fsys.File()

	enc := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM)
	require.NoError(t, file.WriteAllTextEncoding("/w.txt", "hi", enc))

	raw, err := file.ReadAllBytes("/w.txt")
	require.NoError(t, err)
	assert.Equal(t, []byte{0xff, 0xfe, 'h', 0, 'i', 0}, raw)

	text, err := file.ReadAllText("/w.txt")
	require.NoError(t, err)
	assert.Equal(t, "hi", text)
}

func TestFile_Lines(t *testing.T) {
	t.Parallel()

	posix := newTestFS(t, "posix", nil)
	require.NoError(t, posix.File().WriteAllLines("/l.txt", []string{"a", "b"}))
	assert.Equal(t, "a\nb\n", posix.GetNode("/l.txt").TextContents())

	win := newTestFS(t, "windows", nil)
	require.NoError(t, win.File().WriteAllLines(`C:\l.txt`, []string{"a", "b"}))
	assert.Equal(t, "a\r\nb\r\n", win.GetNode(`C:\l.txt`).TextContents())
	require.NoError(t, win.File().AppendAllLines(`C:\l.txt`, []string{"c"}))

	lines, err := win.File().ReadAllLines(`C:\l.txt`)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, lines)

	mustAddFile(t, posix, "/mixed.txt", "one\r\ntwo\nthree\rfour\n\nsix")
	lines, err = posix.File().ReadAllLines("/mixed.txt")
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two", "three", "four", "", "six"}, lines)

	mustAddFile(t, posix, "/empty.txt", "")
	lines, err = posix.File().ReadAllLines("/empty.txt")
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestFile_Append(t *testing.T) {
	t.Parallel()

	fsys := newTestFS(t, "posix", nil)
	file := fsys.File()

	require.NoError(t, file.AppendAllText("/log.txt", "one"))
	require.NoError(t, file.AppendAllText("/log.txt", "two"))
	require.NoError(t, file.AppendAllBytes("/log.txt", []byte("!")))
	assert.Equal(t, "onetwo!", fsys.GetNode("/log.txt").TextContents())

	// appending to a hidden file is allowed, overwriting it is not
	fsys.GetNode("/log.txt").SetAttributes(AttrHidden)
	require.NoError(t, file.AppendAllText("/log.txt", "?"))
	assert.ErrorIs(t, file.WriteAllText("/log.txt", "x"), ErrAccessDenied)
	assert.Equal(t, "onetwo!?", fsys.GetNode("/log.txt").TextContents())
}

func TestFile_WriteKeepsIdentityAndStampsTimes(t *testing.T) {
	t.Parallel()

	fsys, _ := newClockedFS(t, "posix", nil)
	file := fsys.File()

	node := mustAddFile(t, fsys, "/f.txt", "v1")
	created := node.CreationTime()
	id := node.ID()

	require.NoError(t, file.WriteAllText("/f.txt", "v2"))
	got := fsys.GetNode("/f.txt")
	assert.Equal(t, id, got.ID())
	assert.Equal(t, created, got.CreationTime())
	assert.True(t, got.LastWriteTime().After(created))
	assert.Equal(t, got.LastWriteTime(), got.LastAccessTime())
	written := got.LastWriteTime()

	_, err := file.ReadAllText("/f.txt")
	require.NoError(t, err)
	assert.Equal(t, written, got.LastWriteTime())
	assert.True(t, got.LastAccessTime().After(written))
}

func TestFile_ReadWriteErrors(t *testing.T) {
	t.Parallel()

	fsys := newTestFS(t, "posix", map[string]*Node{
		"/dir":                nil,
		"/ro.txt":             NewTextFileNode("ro"),
		"/unshared.txt":       NewTextFileNode("locked"),
		"/readonly-share.txt": NewTextFileNode("r"),
	})
	fsys.GetNode("/ro.txt").SetAttributes(AttrReadOnly)
	fsys.GetNode("/unshared.txt").SetAllowedShare(ShareNone)
	fsys.GetNode("/readonly-share.txt").SetAllowedShare(ShareRead)
	file := fsys.File()

	_, err := file.ReadAllBytes("/missing.txt")
	assert.ErrorIs(t, err, ErrFileNotFound)
	assert.ErrorIs(t, err, fs.ErrNotExist)

	_, err = file.ReadAllBytes("/no/dir/x.txt")
	assert.ErrorIs(t, err, ErrDirectoryNotFound)

	_, err = file.ReadAllBytes("/dir")
	assert.ErrorIs(t, err, ErrAccessDenied)

	_, err = file.ReadAllBytes("/unshared.txt")
	assert.ErrorIs(t, err, ErrSharingViolation)

	_, err = file.ReadAllText("/readonly-share.txt")
	assert.NoError(t, err)
	assert.ErrorIs(t, file.WriteAllText("/readonly-share.txt", "x"), ErrSharingViolation)

	assert.ErrorIs(t, file.WriteAllText("/no/dir/x.txt", "x"), ErrDirectoryNotFound)
	assert.ErrorIs(t, file.WriteAllText("/dir", "x"), ErrAccessDenied)
	assert.ErrorIs(t, file.WriteAllText("/ro.txt", "x"), ErrAccessDenied)
	assert.ErrorIs(t, file.AppendAllText("/ro.txt", "x"), ErrAccessDenied)
	assert.ErrorIs(t, file.WriteAllText("", "x"), ErrInvalidArgument)

	assert.False(t, file.Exists(""))
	assert.False(t, file.Exists("/dir"))
	assert.False(t, file.Exists("/bad\x00name"))
}

func TestFile_ContextCancelled(t *testing.T) {
	t.Parallel()

	fsys := newTestFS(t, "posix", nil)
	file := fsys.File()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, file.WriteAllTextContext(ctx, "/c.txt", "x"), context.Canceled)
	assert.ErrorIs(t, file.WriteAllBytesContext(ctx, "/c.txt", nil), context.Canceled)
	assert.ErrorIs(t, file.AppendAllTextContext(ctx, "/c.txt", "x"), context.Canceled)
	assert.ErrorIs(t, file.WriteAllLinesContext(ctx, "/c.txt", nil), context.Canceled)
	assert.False(t, fsys.Exists("/c.txt"))

	bg := context.Background()
	require.NoError(t, file.WriteAllTextContext(bg, "/c.txt", "x"))
	require.NoError(t, file.AppendAllLinesContext(bg, "/c.txt", []string{"y"}))

	_, err := file.ReadAllTextContext(ctx, "/c.txt")
	assert.ErrorIs(t, err, context.Canceled)
	_, err = file.ReadAllBytesContext(ctx, "/c.txt")
	assert.ErrorIs(t, err, context.Canceled)

	text, err := file.ReadAllTextContext(bg, "/c.txt")
	require.NoError(t, err)
	assert.Equal(t, "xy\n", text)
}

func TestFile_Copy(t *testing.T) {
	t.Parallel()

	fsys, _ := newClockedFS(t, "posix", map[string]*Node{"/src.txt": NewTextFileNode("payload")})
	src := fsys.GetNode("/src.txt")
	src.Metadata().Set("tag", "source only")

	require.NoError(t, fsys.File().Copy("/src.txt", "/dst.txt", false))

	dst := fsys.GetNode("/dst.txt")
	require.NotNil(t, dst)
	assert.NotEqual(t, src.ID(), dst.ID())
	assert.Equal(t, "payload", dst.TextContents())
	assert.Equal(t, src.LastWriteTime(), dst.LastWriteTime())
	assert.True(t, dst.CreationTime().After(src.CreationTime()))
	assert.Equal(t, dst.CreationTime(), dst.LastAccessTime())
	assert.Zero(t, dst.Metadata().Len())

	// the copy is independent of its source
	dst.SetContents([]byte("changed"))
	assert.Equal(t, "payload", src.TextContents())
}

func TestFile_CopyOverwriteKeepsCreationTime(t *testing.T) {
	t.Parallel()

	fsys, _ := newClockedFS(t, "posix", nil)
	old := mustAddFile(t, fsys, "/dst.txt", "old")
	mustAddFile(t, fsys, "/src.txt", "new")

	require.NoError(t, fsys.File().Copy("/src.txt", "/dst.txt", true))
	dst := fsys.GetNode("/dst.txt")
	assert.Equal(t, "new", dst.TextContents())
	assert.Equal(t, old.CreationTime(), dst.CreationTime())
}

func TestFile_CopyErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		src, dst  string
		overwrite bool
		wantErr   error
	}{
		{"missing source", "/missing", "/x", false, ErrFileNotFound},
		{"missing source dir", "/no/such", "/x", false, ErrDirectoryNotFound},
		{"source is directory", "/dir", "/x", false, ErrAccessDenied},
		{"missing destination parent", "/a.txt", "/no/such/x", false, ErrDirectoryNotFound},
		{"destination is directory", "/a.txt", "/dir", true, ErrIO},
		{"destination exists", "/a.txt", "/b.txt", false, ErrFileAlreadyExists},
		{"same file", "/a.txt", "/a.txt", true, ErrSharingViolation},
		{"read-only destination", "/a.txt", "/ro.txt", true, ErrAccessDenied},
		{"source not shared for read", "/locked.txt", "/x", false, ErrSharingViolation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			fsys := newTestFS(t, "posix", map[string]*Node{
				"/dir":        nil,
				"/a.txt":      NewTextFileNode("a"),
				"/b.txt":      NewTextFileNode("b"),
				"/ro.txt":     NewTextFileNode("ro"),
				"/locked.txt": NewTextFileNode("l"),
			})
			fsys.GetNode("/ro.txt").SetAttributes(AttrReadOnly)
			fsys.GetNode("/locked.txt").SetAllowedShare(ShareWrite)
			before := fsys.AllPaths()

			err := fsys.File().Copy(tt.src, tt.dst, tt.overwrite)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, before, fsys.AllPaths())
			assert.Equal(t, "b", fsys.GetNode("/b.txt").TextContents())
		})
	}
}

func TestFile_Move(t *testing.T) {
	t.Parallel()

	fsys := newTestFS(t, "posix", map[string]*Node{
		"/a/one.txt": NewTextFileNode("1"),
		"/b":         nil,
	})
	one := fsys.GetNode("/a/one.txt")

	require.NoError(t, fsys.File().Move("/a/one.txt", "/b/renamed.txt", false))
	assert.False(t, fsys.Exists("/a/one.txt"))
	moved := fsys.GetNode("/b/renamed.txt")
	require.Same(t, one, moved)
	assert.Equal(t, "1", moved.TextContents())

	// moving onto itself is a no-op
	require.NoError(t, fsys.File().Move("/b/renamed.txt", "/b/renamed.txt", false))
	assert.Same(t, one, fsys.GetNode("/b/renamed.txt"))
}

func TestFile_MoveOverwrite(t *testing.T) {
	t.Parallel()

	fsys := newTestFS(t, "posix", map[string]*Node{
		"/src.txt": NewTextFileNode("src"),
		"/dst.txt": NewTextFileNode("dst"),
	})

	err := fsys.File().Move("/src.txt", "/dst.txt", false)
	assert.ErrorIs(t, err, ErrFileAlreadyExists)

	require.NoError(t, fsys.File().Move("/src.txt", "/dst.txt", true))
	assert.Equal(t, []string{"/dst.txt"}, fsys.AllFiles())
	assert.Equal(t, "src", fsys.GetNode("/dst.txt").TextContents())
}

func TestFile_MoveErrors(t *testing.T) {
	t.Parallel()

	fsys := newTestFS(t, "posix", map[string]*Node{
		"/dir":          nil,
		"/a.txt":        NewTextFileNode("a"),
		"/nodelete.txt": NewTextFileNode("n"),
	})
	fsys.GetNode("/nodelete.txt").SetAllowedShare(ShareReadWrite)
	file := fsys.File()

	assert.ErrorIs(t, file.Move("/missing", "/x", false), ErrFileNotFound)
	assert.ErrorIs(t, file.Move("/dir", "/x", false), ErrFileNotFound)
	assert.ErrorIs(t, file.Move("/a.txt", "/no/such/x", false), ErrDirectoryNotFound)
	assert.ErrorIs(t, file.Move("/a.txt", "/dir", true), ErrFileAlreadyExists)
	assert.ErrorIs(t, file.Move("/nodelete.txt", "/x", false), ErrSharingViolation)
	assert.ErrorIs(t, file.Move("", "/x", false), ErrInvalidArgument)
	assert.True(t, file.Exists("/a.txt"))
}

func TestFile_MoveCaseRename(t *testing.T) {
	t.Parallel()

	fsys := newTestFS(t, "windows", map[string]*Node{`C:\docs\readme.txt`: NewTextFileNode("r")})
	node := fsys.GetNode(`C:\docs\readme.txt`)

	require.NoError(t, fsys.File().Move(`C:\docs\readme.txt`, `C:\docs\README.TXT`, false))
	assert.Equal(t, []string{`C:\docs\README.TXT`}, fsys.AllFiles())
	assert.Same(t, node, fsys.GetNode(`c:\docs\readme.txt`))
}

func TestFile_Replace(t *testing.T) {
	t.Parallel()

	fsys := newTestFS(t, "posix", map[string]*Node{
		"/new.txt": NewTextFileNode("new"),
		"/cur.txt": NewTextFileNode("current"),
	})
	file := fsys.File()

	require.NoError(t, file.Replace("/new.txt", "/cur.txt", "/bak.txt"))
	assert.Equal(t, []string{"/bak.txt", "/cur.txt"}, fsys.AllFiles())
	assert.Equal(t, "new", fsys.GetNode("/cur.txt").TextContents())
	assert.Equal(t, "current", fsys.GetNode("/bak.txt").TextContents())

	mustAddFile(t, fsys, "/next.txt", "next")
	require.NoError(t, file.Replace("/next.txt", "/cur.txt", ""))
	assert.Equal(t, "next", fsys.GetNode("/cur.txt").TextContents())

	assert.ErrorIs(t, file.Replace("/missing", "/cur.txt", ""), ErrFileNotFound)
	assert.ErrorIs(t, file.Replace("/bak.txt", "/missing", ""), ErrFileNotFound)
}

func TestFile_Delete(t *testing.T) {
	t.Parallel()

	fsys := newTestFS(t, "posix", map[string]*Node{
		"/d/a.txt":  NewTextFileNode("a"),
		"/d/ro.txt": NewTextFileNode("ro"),
		"/d/nd.txt": NewTextFileNode("nd"),
		"/d/sub":    nil,
	})
	fsys.GetNode("/d/ro.txt").SetAttributes(AttrReadOnly)
	fsys.GetNode("/d/nd.txt").SetAllowedShare(ShareRead)
	file := fsys.File()

	require.NoError(t, file.Delete("/d/a.txt"))
	assert.False(t, fsys.Exists("/d/a.txt"))
	require.NoError(t, file.Delete("/d/a.txt"))

	assert.ErrorIs(t, file.Delete("/nope/a.txt"), ErrDirectoryNotFound)
	assert.ErrorIs(t, file.Delete("/d/ro.txt"), ErrAccessDenied)
	assert.ErrorIs(t, file.Delete("/d/sub"), ErrAccessDenied)
	assert.ErrorIs(t, file.Delete("/d/nd.txt"), ErrSharingViolation)
	assert.True(t, fsys.Exists("/d/ro.txt"))
	assert.True(t, fsys.Exists("/d/nd.txt"))
}

func TestFile_Attributes(t *testing.T) {
	t.Parallel()

	fsys, _ := newClockedFS(t, "posix", map[string]*Node{"/f": NewTextFileNode("f"), "/d": nil})
	file := fsys.File()

	attrs, err := file.GetAttributes("/f")
	require.NoError(t, err)
	assert.Equal(t, AttrNormal, attrs)

	attrs, err = file.GetAttributes("/d")
	require.NoError(t, err)
	assert.Equal(t, AttrDirectory, attrs)

	before := fsys.GetNode("/f").LastAccessTime()
	require.NoError(t, file.SetAttributes("/f", AttrHidden|AttrArchive))
	attrs, err = file.GetAttributes("/f")
	require.NoError(t, err)
	assert.Equal(t, AttrHidden|AttrArchive, attrs)
	assert.True(t, fsys.GetNode("/f").LastAccessTime().After(before))

	require.NoError(t, file.Encrypt("/f"))
	assert.True(t, fsys.GetNode("/f").Attributes().Has(AttrEncrypted))
	require.NoError(t, file.Decrypt("/f"))
	assert.False(t, fsys.GetNode("/f").Attributes().Has(AttrEncrypted))

	_, err = file.GetAttributes("/missing")
	assert.ErrorIs(t, err, ErrFileNotFound)
	assert.ErrorIs(t, file.SetAttributes("/no/where", AttrHidden), ErrDirectoryNotFound)
}

func TestFile_Stat(t *testing.T) {
	t.Parallel()

	fsys := newTestFS(t, "posix", map[string]*Node{"/d/f.txt": NewTextFileNode("12345")})
	file := fsys.File()

	info, err := file.Stat("/d/f.txt")
	require.NoError(t, err)
	assert.Equal(t, "f.txt", info.Name())
	assert.Equal(t, int64(5), info.Size())
	assert.False(t, info.IsDir())
	assert.Equal(t, fs.FileMode(0o644), info.Mode())
	assert.True(t, info.ModTime().Equal(fsys.GetNode("/d/f.txt").LastWriteTime()))
	assert.IsType(t, &FileInfo{}, info)

	info, err = file.Stat("/d")
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.IsType(t, &DirectoryInfo{}, info)

	_, err = file.Stat("/d/none")
	assert.ErrorIs(t, err, fs.ErrNotExist)

	missing, err := file.GetInfo("/d/none")
	require.NoError(t, err)
	assert.False(t, missing.Exists())
}

func TestFile_StatRelative(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		platform string
		cwd      string
		path     string
		wantFull string
		wantDir  bool
	}{
		{"posix file", "posix", "/d", "f.txt", "/d/f.txt", false},
		{"posix parent", "posix", "/d/sub", "..", "/d", true},
		{"windows file", "windows", `C:\d`, `F.TXT`, `C:\d\f.txt`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			fsys := newTestFS(t, tt.platform, nil)
			require.NoError(t, fsys.AddDirectory(tt.cwd))
			if tt.platform == "windows" {
				mustAddFile(t, fsys, `C:\d.txt`, "x")
			} else {
				mustAddFile(t, fsys, "/d/f.txt", "x")
			}
			require.NoError(t, fsys.Directory().SetCurrentDirectory(tt.cwd))

			info, err := fsys.File().Stat(tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.wantDir, info.IsDir())
			if tt.wantDir {
				assert.Equal(t, tt.wantFull, info.(*DirectoryInfo).FullName())
			} else {
				assert.Equal(t, tt.wantFull, info.(*FileInfo).FullName())
			}
		})
	}
}

func TestFile_ConcurrentReadersStampSafely(t *testing.T) {
	t.Parallel()

	fsys := newTestFS(t, "posix", map[string]*Node{"/d/f.txt": NewTextFileNode("shared")})
	file := fsys.File()
	var wg sync.WaitGroup

	for i := range 40 {
		wg.Go(func() {
			switch i % 4 {
			case 0:
				text, err := file.ReadAllText("/d/f.txt")
				assert.NoError(t, err)
				assert.Equal(t, "shared", text)
			case 1:
				assert.NoError(t, file.SetAttributes("/d/f.txt", AttrNormal))
			case 2:
				assert.NoError(t, file.SetLastAccessTime("/d/f.txt", time.Now()))
			case 3:
				h, err := file.OpenRead("/d/f.txt")
				if !assert.NoError(t, err) {
					return
				}
				_, err = io.ReadAll(h)
				assert.NoError(t, err)
				assert.NoError(t, h.Close())
			}
		})
	}
	wg.Wait()

	text, err := file.ReadAllText("/d/f.txt")
	require.NoError(t, err)
	assert.Equal(t, "shared", text)
}
