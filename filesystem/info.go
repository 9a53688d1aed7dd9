package filesystem

import (
	"io/fs"
	"time"
)

// FileSystemInfo is the state shared by [FileInfo] and [DirectoryInfo]. It
// caches a copy of the node seen at construction; Refresh reloads it and
// every mutating method refreshes on success.
type FileSystemInfo struct {
	fsys     *FileSystem
	fullPath string
	original string
	state    *Node // nil when nothing exists at fullPath
	detached *Metadata
}

func (fsys *FileSystem) newInfo(full, original string) FileSystemInfo {
	i := FileSystemInfo{fsys: fsys, fullPath: full, original: original}
	i.Refresh()
	return i
}

func (fsys *FileSystem) newFileInfo(full, original string) *FileInfo {
	return &FileInfo{fsys.newInfo(full, original)}
}

func (fsys *FileSystem) newDirectoryInfo(full, original string) *DirectoryInfo {
	return &DirectoryInfo{fsys.newInfo(full, original)}
}

// Refresh reloads the cached state from the store
func (i *FileSystemInfo) Refresh() {
	i.fsys.mu.RLock()
	defer i.fsys.mu.RUnlock()
	if e := i.fsys.lookupLocked(i.fullPath); e != nil {
		i.fullPath = e.path
		i.state = CloneNode(e.node)
		return
	}
	i.state = nil
}

func (i *FileSystemInfo) FullName() string { return i.fullPath }

// OriginalPath is the path the info was created from
func (i *FileSystemInfo) OriginalPath() string { return i.original }

// Exists reports whether the path existed when the state was last loaded
func (i *FileSystemInfo) Exists() bool { return i.state != nil }

// Name returns the last element of the path, or the root itself
func (i *FileSystemInfo) Name() string {
	if name := i.fsys.platform.Base(i.fullPath); name != "" {
		return name
	}
	return i.fullPath
}

// Extension includes the leading dot
func (i *FileSystemInfo) Extension() string {
	return i.fsys.platform.Ext(i.fullPath)
}

// Size is the length of a file and 0 for directories and missing paths
func (i *FileSystemInfo) Size() int64 {
	if i.state == nil || i.state.IsDirectory() {
		return 0
	}
	return i.state.Len()
}

func (i *FileSystemInfo) Mode() fs.FileMode {
	if i.state == nil {
		return 0
	}
	return i.state.Mode()
}

// ModTime is the last write time
func (i *FileSystemInfo) ModTime() time.Time {
	return i.LastWriteTime()
}

func (i *FileSystemInfo) IsDir() bool {
	return i.state != nil && i.state.IsDirectory()
}

// Sys returns the cached copy of the node, or nil
func (i *FileSystemInfo) Sys() any {
	if i.state == nil {
		return nil
	}
	return i.state
}

// Attributes returns the cached attribute flags; missing paths report none
func (i *FileSystemInfo) Attributes() FileAttributes {
	if i.state == nil {
		return 0
	}
	return i.state.Attributes()
}

func (i *FileSystemInfo) SetAttributes(attrs FileAttributes) error {
	if err := i.fsys.file.SetAttributes(i.fullPath, attrs); err != nil {
		return err
	}
	i.Refresh()
	return nil
}

func (i *FileSystemInfo) timeOf(field timeField) time.Time {
	if i.state == nil {
		return DefaultFileTime.Local()
	}
	return field.get(i.state).Local()
}

func (i *FileSystemInfo) setTime(op string, field timeField, t time.Time) error {
	if err := i.fsys.file.setTime(op, i.fullPath, field, t); err != nil {
		return err
	}
	i.Refresh()
	return nil
}

func (i *FileSystemInfo) CreationTime() time.Time { return i.timeOf(creationTime) }

func (i *FileSystemInfo) CreationTimeUtc() time.Time { return i.CreationTime().UTC() }

func (i *FileSystemInfo) LastAccessTime() time.Time { return i.timeOf(lastAccessTime) }

func (i *FileSystemInfo) LastAccessTimeUtc() time.Time { return i.LastAccessTime().UTC() }

func (i *FileSystemInfo) LastWriteTime() time.Time { return i.timeOf(lastWriteTime) }

func (i *FileSystemInfo) LastWriteTimeUtc() time.Time { return i.LastWriteTime().UTC() }

func (i *FileSystemInfo) SetCreationTime(t time.Time) error {
	return i.setTime("setcreationtime", creationTime, t)
}

func (i *FileSystemInfo) SetLastAccessTime(t time.Time) error {
	return i.setTime("setlastaccesstime", lastAccessTime, t)
}

func (i *FileSystemInfo) SetLastWriteTime(t time.Time) error {
	return i.setTime("setlastwritetime", lastWriteTime, t)
}

// Metadata returns the live metadata of the node. When the path does not
// exist it returns a table owned by the info object itself.
func (i *FileSystemInfo) Metadata() *Metadata {
	if node := i.fsys.GetNode(i.fullPath); node != nil && node.Metadata() != nil {
		return node.Metadata()
	}
	if i.detached == nil {
		i.detached = NewMetadata()
	}
	return i.detached
}

// FileInfo is a view of a path as a file
type FileInfo struct {
	FileSystemInfo
}

// Exists reports whether a file existed at the path when the state was
// last loaded
func (f *FileInfo) Exists() bool {
	return f.state != nil && f.state.IsFile()
}

// Length fails with ErrFileNotFound when the file does not exist
func (f *FileInfo) Length() (int64, error) {
	if f.state == nil || f.state.IsDirectory() {
		return 0, pathError("length", f.fullPath, ErrFileNotFound)
	}
	return f.state.Len(), nil
}

// Directory returns the parent directory
func (f *FileInfo) Directory() *DirectoryInfo {
	dir, ok := f.fsys.platform.Dir(f.fullPath)
	if !ok {
		return nil
	}
	return f.fsys.newDirectoryInfo(dir, dir)
}

func (f *FileInfo) DirectoryName() string {
	dir, _ := f.fsys.platform.Dir(f.fullPath)
	return dir
}

func (f *FileInfo) IsReadOnly() bool {
	return f.Attributes().Has(AttrReadOnly)
}

func (f *FileInfo) SetReadOnly(readOnly bool) error {
	attrs, err := f.fsys.file.GetAttributes(f.fullPath)
	if err != nil {
		return err
	}
	if readOnly {
		attrs |= AttrReadOnly
	} else {
		attrs &^= AttrReadOnly
	}
	return f.SetAttributes(attrs)
}

func (f *FileInfo) OpenFile(opts OpenOptions) (*Handle, error) {
	h, err := f.fsys.file.OpenFile(f.fullPath, opts)
	f.Refresh()
	return h, err
}

func (f *FileInfo) OpenRead() (*Handle, error) {
	return f.fsys.file.OpenRead(f.fullPath)
}

func (f *FileInfo) Create() (*Handle, error) {
	h, err := f.fsys.file.Create(f.fullPath)
	f.Refresh()
	return h, err
}

func (f *FileInfo) Delete() error {
	if err := f.fsys.file.Delete(f.fullPath); err != nil {
		return err
	}
	f.Refresh()
	return nil
}

// CopyTo copies the file and returns info for the copy
func (f *FileInfo) CopyTo(dst string, overwrite bool) (*FileInfo, error) {
	if err := f.fsys.file.Copy(f.fullPath, dst, overwrite); err != nil {
		return nil, err
	}
	full, err := f.fsys.resolve(dst)
	if err != nil {
		return nil, pathError("copy", dst, err)
	}
	return f.fsys.newFileInfo(full, dst), nil
}

// MoveTo moves the file and points the info at its new path
func (f *FileInfo) MoveTo(dst string, overwrite bool) error {
	if err := f.fsys.file.Move(f.fullPath, dst, overwrite); err != nil {
		return err
	}
	full, err := f.fsys.resolve(dst)
	if err != nil {
		return pathError("move", dst, err)
	}
	f.fullPath, f.original = full, dst
	f.Refresh()
	return nil
}

// DirectoryInfo is a view of a path as a directory
type DirectoryInfo struct {
	FileSystemInfo
}

func (d *DirectoryInfo) Exists() bool {
	return d.state != nil && d.state.IsDirectory()
}

// Parent returns nil for a root
func (d *DirectoryInfo) Parent() *DirectoryInfo {
	dir, ok := d.fsys.platform.Dir(d.fullPath)
	if !ok || dir == "" {
		return nil
	}
	return d.fsys.newDirectoryInfo(dir, dir)
}

func (d *DirectoryInfo) Root() *DirectoryInfo {
	root := d.fsys.platform.Root(d.fullPath)
	return d.fsys.newDirectoryInfo(root, root)
}

func (d *DirectoryInfo) Create() error {
	if _, err := d.fsys.directory.Create(d.fullPath); err != nil {
		return err
	}
	d.Refresh()
	return nil
}

func (d *DirectoryInfo) Delete(recursive bool) error {
	if err := d.fsys.directory.Delete(d.fullPath, recursive); err != nil {
		return err
	}
	d.Refresh()
	return nil
}

// CreateSubdirectory creates name below the directory. name must be relative.
func (d *DirectoryInfo) CreateSubdirectory(name string) (*DirectoryInfo, error) {
	if d.fsys.platform.IsRooted(name) {
		return nil, pathErrorf("mkdir", name, ErrInvalidArgument, "second path fragment must not be a drive or UNC name")
	}
	return d.fsys.directory.Create(d.fsys.platform.Join(d.fullPath, name))
}

func (d *DirectoryInfo) MoveTo(dst string) error {
	if err := d.fsys.directory.Move(d.fullPath, dst); err != nil {
		return err
	}
	full, err := d.fsys.resolve(dst)
	if err != nil {
		return pathError("move", dst, err)
	}
	d.fullPath, d.original = full, dst
	d.Refresh()
	return nil
}

// GetFiles returns info for the matching files below the directory
func (d *DirectoryInfo) GetFiles(searchPattern string, opt SearchOption) ([]*FileInfo, error) {
	paths, err := d.fsys.directory.GetFiles(d.fullPath, searchPattern, opt)
	if err != nil {
		return nil, err
	}
	infos := make([]*FileInfo, len(paths))
	for n, p := range paths {
		infos[n] = d.fsys.newFileInfo(p, p)
	}
	return infos, nil
}

func (d *DirectoryInfo) GetDirectories(searchPattern string, opt SearchOption) ([]*DirectoryInfo, error) {
	paths, err := d.fsys.directory.GetDirectories(d.fullPath, searchPattern, opt)
	if err != nil {
		return nil, err
	}
	infos := make([]*DirectoryInfo, len(paths))
	for n, p := range paths {
		infos[n] = d.fsys.newDirectoryInfo(p, p)
	}
	return infos, nil
}

// GetFileSystemInfos returns *FileInfo and *DirectoryInfo values in path
// order.
func (d *DirectoryInfo) GetFileSystemInfos(searchPattern string, opt SearchOption) ([]fs.FileInfo, error) {
	paths, err := d.fsys.directory.GetFileSystemEntries(d.fullPath, searchPattern, opt)
	if err != nil {
		return nil, err
	}
	infos := make([]fs.FileInfo, 0, len(paths))
	for _, p := range paths {
		if d.fsys.directory.Exists(p) {
			infos = append(infos, d.fsys.newDirectoryInfo(p, p))
		} else {
			infos = append(infos, d.fsys.newFileInfo(p, p))
		}
	}
	return infos, nil
}

var (
	_ fs.FileInfo = (*FileInfo)(nil)
	_ fs.FileInfo = (*DirectoryInfo)(nil)
)
