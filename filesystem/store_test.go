package filesystem

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_AddFileRoundTrip(t *testing.T) {
	t.Parallel()

	fsys := newTestFS(t, "posix", nil)
	node := NewFileNode([]byte{0, 1, 2, 255})

	require.NoError(t, fsys.AddFile("/deep/er/file.bin", node))

	got := fsys.GetNode("/deep/er/file.bin")
	require.Same(t, node, got)
	assert.Equal(t, []byte{0, 1, 2, 255}, got.Contents())
	assert.True(t, fsys.Directory().Exists("/deep"))
	assert.True(t, fsys.Directory().Exists("/deep/er"))
	assert.False(t, got.CreationTime().IsZero())
}

func TestStore_AddFileNilNode(t *testing.T) {
	t.Parallel()

	fsys := newTestFS(t, "posix", nil)
	require.NoError(t, fsys.AddFile("/empty.txt", nil))
	require.NoError(t, fsys.AddEmptyFile("/empty2.txt"))

	assert.Zero(t, fsys.GetNode("/empty.txt").Len())
	assert.Zero(t, fsys.GetNode("/empty2.txt").Len())
}

func TestStore_AddFileConflicts(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		setup   func(t *testing.T, fsys *FileSystem)
		path    string
		node    *Node
		wantErr error
	}{
		{
			name:    "directory in the way",
			setup:   func(t *testing.T, fsys *FileSystem) { require.NoError(t, fsys.AddDirectory("/target")) },
			path:    "/target",
			wantErr: ErrAccessDenied,
		},
		{
			name:    "file as ancestor",
			setup:   func(t *testing.T, fsys *FileSystem) { mustAddFile(t, fsys, "/file", "x") },
			path:    "/file/child.txt",
			wantErr: ErrAccessDenied,
		},
		{
			name: "read-only file",
			setup: func(t *testing.T, fsys *FileSystem) {
				mustAddFile(t, fsys, "/ro.txt", "x").SetAttributes(AttrReadOnly)
			},
			path:    "/ro.txt",
			wantErr: ErrAccessDenied,
		},
		{
			name: "hidden file",
			setup: func(t *testing.T, fsys *FileSystem) {
				mustAddFile(t, fsys, "/hidden.txt", "x").SetAttributes(AttrHidden)
			},
			path:    "/hidden.txt",
			wantErr: ErrAccessDenied,
		},
		{
			name: "no write sharing",
			setup: func(t *testing.T, fsys *FileSystem) {
				mustAddFile(t, fsys, "/locked.txt", "x").SetAllowedShare(ShareRead)
			},
			path:    "/locked.txt",
			wantErr: ErrSharingViolation,
		},
		{
			name:    "directory node",
			setup:   func(t *testing.T, fsys *FileSystem) {},
			path:    "/dir",
			node:    NewDirectoryNode(),
			wantErr: ErrInvalidArgument,
		},
		{
			name:    "illegal path",
			setup:   func(t *testing.T, fsys *FileSystem) {},
			path:    "/a\x00b",
			wantErr: ErrIllegalPath,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			fsys := newTestFS(t, "posix", nil)
			tt.setup(t, fsys)
			node := tt.node
			if node == nil {
				node = NewTextFileNode("new")
			}
			err := fsys.AddFile(tt.path, node)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestStore_AddFileWithoutAccessCheck(t *testing.T) {
	t.Parallel()

	fsys := newTestFS(t, "posix", nil)
	mustAddFile(t, fsys, "/ro.txt", "old").SetAttributes(AttrReadOnly)

	require.NoError(t, fsys.AddFileWithoutAccessCheck("/ro.txt", NewTextFileNode("new")))
	assert.Equal(t, "new", fsys.GetNode("/ro.txt").TextContents())
}

func TestStore_ReplacedFileKeepsCreationTime(t *testing.T) {
	t.Parallel()

	fsys, _ := newClockedFS(t, "posix", nil)
	first := mustAddFile(t, fsys, "/a.txt", "one")
	second := mustAddFile(t, fsys, "/a.txt", "two")

	assert.Equal(t, first.CreationTime(), second.CreationTime())
	assert.True(t, second.LastWriteTime().After(first.LastWriteTime()))
	assert.Same(t, second, fsys.GetNode("/a.txt"))
}

func TestStore_AddDirectoryIdempotent(t *testing.T) {
	t.Parallel()

	fsys := newTestFS(t, "posix", nil)
	require.NoError(t, fsys.AddDirectory("/a/b"))
	id := fsys.GetNode("/a/b").ID()
	mustAddFile(t, fsys, "/a/b/keep.txt", "k")

	require.NoError(t, fsys.AddDirectory("/a/b/"))
	assert.Equal(t, id, fsys.GetNode("/a/b").ID())
	assert.True(t, fsys.Exists("/a/b/keep.txt"))

	mustAddFile(t, fsys, "/a/f", "x")
	assert.ErrorIs(t, fsys.AddDirectory("/a/f"), ErrAccessDenied)
}

func TestStore_CaseInsensitive(t *testing.T) {
	t.Parallel()

	fsys := newTestFS(t, "windows", nil)
	require.NoError(t, fsys.AddDirectory(`C:\Projects`))
	mustAddFile(t, fsys, `c:\PROJECTS\Readme.md`, "r")

	assert.True(t, fsys.Exists(`C:\projects\readme.MD`))
	assert.Equal(t, []string{`C:\Projects\Readme.md`}, fsys.AllFiles())

	// a second add under other casing replaces the same entry
	mustAddFile(t, fsys, `C:\projects\README.MD`, "replaced")
	assert.Len(t, fsys.AllFiles(), 1)
	assert.Equal(t, "replaced", fsys.GetNode(`C:\Projects\Readme.md`).TextContents())
}

func TestStore_CaseInsensitiveUnicodeFolding(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name, first, second string
	}{
		{"kelvin sign", `C:\k`, "C:\\\u212A"},
		{"sigma", "C:\\\u03C3.txt", "C:\\\u03A3.TXT"},
		{"final sigma", "C:\\\u03C2", "C:\\\u03C3"},
		{"titlecase digraph", "C:\\\u01C5", "C:\\\u01C4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			fsys := newTestFS(t, "windows", nil)
			mustAddFile(t, fsys, tt.first, "one")
			mustAddFile(t, fsys, tt.second, "two")

			assert.Equal(t, []string{tt.first}, fsys.AllFiles())
			assert.True(t, fsys.Exists(tt.second))
			assert.Equal(t, "two", fsys.GetNode(tt.first).TextContents())
		})
	}
}

func TestStore_CaseSensitive(t *testing.T) {
	t.Parallel()

	fsys := newTestFS(t, "posix", nil)
	mustAddFile(t, fsys, "/A.txt", "upper")
	mustAddFile(t, fsys, "/a.txt", "lower")

	assert.Equal(t, []string{"/A.txt", "/a.txt"}, fsys.AllFiles())
	assert.Equal(t, "upper", fsys.GetNode("/A.txt").TextContents())
	assert.Nil(t, fsys.GetNode("/A.TXT"))
}

func TestStore_RemoveFile(t *testing.T) {
	t.Parallel()

	fsys := newTestFS(t, "posix", map[string]*Node{
		"/keep/x.txt":   NewTextFileNode("x"),
		"/gone/a.txt":   NewTextFileNode("a"),
		"/gone/s/b.txt": NewTextFileNode("b"),
		"/gonebut.txt":  NewTextFileNode("sibling"),
	})

	require.NoError(t, fsys.RemoveFile("/gone"))
	assert.Equal(t, []string{"/gonebut.txt", "/keep/x.txt"}, fsys.AllFiles())
	assert.Equal(t, []string{"/", "/keep"}, fsys.AllDirectories())

	// missing paths are not an error
	require.NoError(t, fsys.RemoveFile("/never"))
	require.NoError(t, fsys.RemoveFile("/keep/x.txt"))
	assert.False(t, fsys.Exists("/keep/x.txt"))
}

func TestStore_RemoveFileReadOnlyLeavesTreeIntact(t *testing.T) {
	t.Parallel()

	fsys := newTestFS(t, "posix", map[string]*Node{
		"/d/a.txt":    NewTextFileNode("a"),
		"/d/s/ro.txt": NewTextFileNode("ro"),
	})
	fsys.GetNode("/d/s/ro.txt").SetAttributes(AttrReadOnly)

	err := fsys.RemoveFile("/d")
	require.ErrorIs(t, err, ErrAccessDenied)
	assert.Equal(t, []string{"/d/a.txt", "/d/s/ro.txt"}, fsys.AllFiles())
}

func TestStore_MoveDirectory(t *testing.T) {
	t.Parallel()

	fsys := newTestFS(t, "posix", map[string]*Node{
		"/a/one.txt":   NewTextFileNode("1"),
		"/a/s/two.txt": NewTextFileNode("2"),
		"/ab/three":    NewTextFileNode("3"),
	})
	one := fsys.GetNode("/a/one.txt")
	dir := fsys.GetNode("/a")

	require.NoError(t, fsys.MoveDirectory("/a", "/z"))

	assert.Equal(t, []string{"/ab/three", "/z/one.txt", "/z/s/two.txt"}, fsys.AllFiles())
	assert.Same(t, one, fsys.GetNode("/z/one.txt"))
	assert.Same(t, dir, fsys.GetNode("/z"))
	assert.False(t, fsys.Exists("/a"))
}

func TestStore_AllNodes(t *testing.T) {
	t.Parallel()

	fsys := newTestFS(t, "posix", map[string]*Node{"/b.txt": NewTextFileNode("b"), "/a": nil})
	nodes := fsys.AllNodes()
	require.Len(t, nodes, 3)
	assert.True(t, nodes[0].IsDirectory()) // "/"
	assert.True(t, nodes[1].IsDirectory()) // "/a"
	assert.Equal(t, "b", nodes[2].TextContents())
	assert.Equal(t, []string{"/", "/a", "/b.txt"}, fsys.AllPaths())
}
