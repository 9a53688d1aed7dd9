package pathutil

import (
	"fmt"
	"strings"

	"github.com/brettbedarf/memfs/internal/errs"
)

// FixSeparators replaces the alternate separator with the canonical one
func (p Platform) FixSeparators(path string) string {
	if p.altSep == p.sep {
		return path
	}
	return strings.ReplaceAll(path, string(p.altSep), string(p.sep))
}

// IsUNC reports whether path starts with a UNC prefix (`\\` or `//`)
func (p Platform) IsUNC(path string) bool {
	return len(path) >= 2 && p.isSep(rune(path[0])) && p.isSep(rune(path[1]))
}

func (p Platform) hasDrive(path string) bool {
	return p.windows && len(path) >= 2 && path[1] == ':' && isLetter(path[0])
}

// Root returns the root portion of path: "/" on POSIX; `C:\`, `C:`,
// `\\server\share` or `\` on Windows; "" for relative paths.
func (p Platform) Root(path string) string {
	if path == "" {
		return ""
	}
	path = p.FixSeparators(path)
	if !p.windows {
		if path[0] == p.sep {
			return p.SeparatorString()
		}
		return ""
	}
	if p.IsUNC(path) {
		i := strings.IndexByte(path[2:], p.sep)
		if i < 0 {
			return path
		}
		i += 2
		j := strings.IndexByte(path[i+1:], p.sep)
		if j < 0 {
			return path
		}
		return path[:i+1+j]
	}
	if p.hasDrive(path) {
		if len(path) > 2 && path[2] == p.sep {
			return path[:3]
		}
		return path[:2]
	}
	if path[0] == p.sep {
		return p.SeparatorString()
	}
	return ""
}

// IsRooted reports whether path has any root, including `\` and `C:` on Windows
func (p Platform) IsRooted(path string) bool {
	return p.Root(path) != ""
}

// IsAbsolute reports whether path is fully qualified: "/..." on POSIX,
// `C:\...` or a UNC share on Windows.
func (p Platform) IsAbsolute(path string) bool {
	path = p.FixSeparators(path)
	if !p.windows {
		return strings.HasPrefix(path, "/")
	}
	if p.IsUNC(path) {
		return len(p.Split(path)) >= 2
	}
	return p.hasDrive(path) && len(path) > 2 && path[2] == p.sep
}

// Split returns the non-empty segments of path
func (p Platform) Split(path string) []string {
	return strings.FieldsFunc(path, p.isSep)
}

// TrimSeparators removes trailing separators while keeping roots intact
// ("/" and `C:\` survive).
func (p Platform) TrimSeparators(path string) string {
	if path == "" {
		return path
	}
	trimmed := strings.TrimRight(path, string([]byte{p.sep, p.altSep}))
	if trimmed == "" && p.isSep(rune(path[0])) {
		return p.SeparatorString()
	}
	if p.windows && len(trimmed) == 2 && p.hasDrive(trimmed) {
		return trimmed + p.SeparatorString()
	}
	return trimmed
}

// Dir returns everything but the last element of path. The second result is
// false when path is a root and so has no parent.
// A relative single-element path yields "", true.
func (p Platform) Dir(path string) (string, bool) {
	path = p.FixSeparators(path)
	root := p.Root(path)
	if strings.Trim(path[len(root):], string(p.sep)) == "" && root != "" {
		return "", false
	}
	i := strings.LastIndexByte(path, p.sep)
	if i < len(root) {
		return root, true
	}
	dir := strings.TrimRight(path[:i], string(p.sep))
	if len(dir) < len(root) {
		dir = root
	}
	return dir, true
}

// Base returns the last element of path; "" when path ends in a separator
func (p Platform) Base(path string) string {
	path = p.FixSeparators(path)
	path = path[len(p.Root(path)):]
	return path[strings.LastIndexByte(path, p.sep)+1:]
}

// Ext returns the extension of the last element including the dot.
// A trailing dot yields "".
func (p Platform) Ext(path string) string {
	base := p.Base(path)
	i := strings.LastIndexByte(base, '.')
	if i < 0 || i == len(base)-1 {
		return ""
	}
	return base[i:]
}

// Join combines elements with the separator. A rooted element discards
// everything before it.
func (p Platform) Join(elems ...string) string {
	var joined string
	for _, e := range elems {
		switch {
		case e == "":
		case joined == "" || p.IsRooted(e):
			joined = e
		case p.isSep(rune(joined[len(joined)-1])):
			joined += e
		default:
			joined += p.SeparatorString() + e
		}
	}
	return joined
}

// CheckLegal validates path without resolving it.
func (p Platform) CheckLegal(path string) error {
	if path == "" {
		return fmt.Errorf("%w: empty path is not legal", errs.InvalidArgument)
	}
	if strings.TrimSpace(path) == "" {
		return errs.PathNotLegalForm
	}
	fixed := p.FixSeparators(path)
	if p.windows {
		// a colon is only legal as the drive separator
		if i := strings.IndexByte(fixed, ':'); i >= 0 {
			if i != 1 || !isLetter(fixed[0]) || strings.IndexByte(fixed[2:], ':') >= 0 {
				return fmt.Errorf("%w: the given path's format is not supported", errs.NotSupported)
			}
		}
	}
	root := p.Root(fixed)
	rest := fixed[len(root):]
	leafStart := strings.LastIndexByte(rest, p.sep) + 1
	for _, c := range rest[leafStart:] {
		if p.invalidFileNameChar(c) {
			return errs.IllegalPath
		}
	}
	if p.HasIllegalChars(root+rest[:leafStart], false) {
		return errs.IllegalPath
	}
	return nil
}

// Normalize resolves path against cwd into an absolute, separator-normalized
// path. `.` segments are dropped and `..` pops a segment, never going below
// the root (two segments for UNC shares, the drive on Windows). A trailing
// separator on the input is kept.
func (p Platform) Normalize(path, cwd string) (string, error) {
	if err := p.CheckLegal(path); err != nil {
		return "", err
	}
	sep := p.SeparatorString()
	path = p.FixSeparators(path)
	trailing := len(path) > 1 && path[len(path)-1] == p.sep

	root := p.Root(path)
	switch {
	case root == "":
		cwd = p.FixSeparators(cwd)
		if cwd != "" && !strings.HasSuffix(cwd, sep) {
			cwd += sep
		}
		path = cwd + path
	case p.windows && root == sep:
		// rooted on the current drive or share
		path = strings.TrimSuffix(p.Root(cwd), sep) + path
	case p.hasDrive(root) && len(root) == 2:
		path = root + sep + path[2:]
	}

	unc := p.IsUNC(path)
	segments := p.Split(path)
	floor := 0
	switch {
	case unc:
		if len(segments) < 2 {
			return "", errs.InvalidUNC
		}
		floor = 2
	case p.windows:
		floor = 1
	}

	stack := make([]string, 0, len(segments))
	for _, s := range segments {
		switch s {
		case ".":
		case "..":
			if len(stack) > floor {
				stack = stack[:len(stack)-1]
			}
		default:
			stack = append(stack, s)
		}
	}

	full := strings.Join(stack, sep)
	switch {
	case unc:
		full = sep + sep + full
	case !p.windows:
		full = sep + full
	}
	bareRoot := (!unc && !p.windows && len(stack) == 0) || (!unc && p.windows && len(stack) == 1)
	if bareRoot {
		if p.windows {
			full += sep
		}
		return full, nil
	}
	if trailing {
		full += sep
	}
	return full, nil
}
