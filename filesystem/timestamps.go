package filesystem

import "time"

// DefaultFileTime is reported as every timestamp of a path that does not
// exist: 1601-01-01T00:00:00Z, the zero of Windows file times.
var DefaultFileTime = time.Date(1601, time.January, 1, 0, 0, 0, 0, time.UTC)

type timeField int

const (
	creationTime timeField = iota
	lastAccessTime
	lastWriteTime
)

func (f timeField) get(n *Node) time.Time {
	switch f {
	case creationTime:
		return n.creationTime
	case lastAccessTime:
		return n.lastAccessTime
	default:
		return n.lastWriteTime
	}
}

func (f timeField) set(n *Node, t time.Time) {
	switch f {
	case creationTime:
		n.creationTime = t
	case lastAccessTime:
		n.lastAccessTime = t
	default:
		n.lastWriteTime = t
	}
}

// timestamps holds the time verbs shared by files and directories
type timestamps struct {
	fsys *FileSystem
}

func (ts timestamps) getTime(op, path string, field timeField) (time.Time, error) {
	full, err := ts.fsys.resolve(path)
	if err != nil {
		return time.Time{}, pathError(op, path, err)
	}
	ts.fsys.mu.RLock()
	defer ts.fsys.mu.RUnlock()
	if e := ts.fsys.lookupLocked(full); e != nil {
		return field.get(e.node), nil
	}
	return DefaultFileTime, nil
}

func (ts timestamps) setTime(op, path string, field timeField, t time.Time) error {
	full, err := ts.fsys.resolve(path)
	if err != nil {
		return pathError(op, path, err)
	}
	ts.fsys.mu.Lock()
	defer ts.fsys.mu.Unlock()
	e := ts.fsys.lookupLocked(full)
	if e == nil {
		return pathError(op, path, ErrFileNotFound)
	}
	field.set(e.node, t)
	return nil
}

func local(t time.Time, err error) (time.Time, error) { return t.Local(), err }

func utc(t time.Time, err error) (time.Time, error) { return t.UTC(), err }

// GetCreationTime returns the creation time in local time, or
// DefaultFileTime when path does not exist.
func (ts timestamps) GetCreationTime(path string) (time.Time, error) {
	return local(ts.getTime("getcreationtime", path, creationTime))
}

func (ts timestamps) GetCreationTimeUtc(path string) (time.Time, error) {
	return utc(ts.getTime("getcreationtime", path, creationTime))
}

// SetCreationTime fails with ErrFileNotFound when path does not exist
func (ts timestamps) SetCreationTime(path string, t time.Time) error {
	return ts.setTime("setcreationtime", path, creationTime, t.Local())
}

func (ts timestamps) SetCreationTimeUtc(path string, t time.Time) error {
	return ts.setTime("setcreationtime", path, creationTime, t.UTC())
}

func (ts timestamps) GetLastAccessTime(path string) (time.Time, error) {
	return local(ts.getTime("getlastaccesstime", path, lastAccessTime))
}

func (ts timestamps) GetLastAccessTimeUtc(path string) (time.Time, error) {
	return utc(ts.getTime("getlastaccesstime", path, lastAccessTime))
}

func (ts timestamps) SetLastAccessTime(path string, t time.Time) error {
	return ts.setTime("setlastaccesstime", path, lastAccessTime, t.Local())
}

func (ts timestamps) SetLastAccessTimeUtc(path string, t time.Time) error {
	return ts.setTime("setlastaccesstime", path, lastAccessTime, t.UTC())
}

func (ts timestamps) GetLastWriteTime(path string) (time.Time, error) {
	return local(ts.getTime("getlastwritetime", path, lastWriteTime))
}

func (ts timestamps) GetLastWriteTimeUtc(path string) (time.Time, error) {
	return utc(ts.getTime("getlastwritetime", path, lastWriteTime))
}

func (ts timestamps) SetLastWriteTime(path string, t time.Time) error {
	return ts.setTime("setlastwritetime", path, lastWriteTime, t.Local())
}

func (ts timestamps) SetLastWriteTimeUtc(path string, t time.Time) error {
	return ts.setTime("setlastwritetime", path, lastWriteTime, t.UTC())
}
