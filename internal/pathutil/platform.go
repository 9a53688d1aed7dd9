// Package pathutil canonicalises path strings for the in-memory file system.
//
// Nothing here touches the host: POSIX and Windows conventions are both
// expressed as plain string manipulation so either can be emulated on any OS.
package pathutil

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/brettbedarf/memfs/internal/errs"
)

// Platform describes the path conventions of an emulated operating system.
type Platform struct {
	name    string
	sep     byte
	altSep  byte
	windows bool
}

var (
	// Posix uses '/' as its only separator and roots every path at "/".
	Posix = Platform{name: "posix", sep: '/', altSep: '/'}
	// Windows uses '\' (accepting '/'), drive letters and UNC shares.
	Windows = Platform{name: "windows", sep: '\\', altSep: '/', windows: true}
)

// Host returns the Platform matching the running operating system
func Host() Platform {
	if runtime.GOOS == "windows" {
		return Windows
	}
	return Posix
}

// ParsePlatform resolves a platform name ("posix", "unix", "linux", "darwin",
// "windows"). An empty name selects the host platform.
func ParsePlatform(name string) (Platform, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "":
		return Host(), nil
	case "posix", "unix", "linux", "darwin":
		return Posix, nil
	case "windows", "win":
		return Windows, nil
	}
	return Platform{}, fmt.Errorf("%w: unknown platform %q", errs.InvalidArgument, name)
}

func (p Platform) Name() string { return p.name }

func (p Platform) String() string { return p.name }

func (p Platform) IsWindows() bool { return p.windows }

func (p Platform) Separator() byte { return p.sep }

func (p Platform) SeparatorString() string { return string(p.sep) }

// DefaultCaseSensitive reports the platform's native name comparison policy
func (p Platform) DefaultCaseSensitive() bool {
	return !p.windows
}

// DefaultRoot is the current directory used when none is configured
func (p Platform) DefaultRoot() string {
	if p.windows {
		return `C:\`
	}
	return "/"
}

// TempDir is the location of the optional default temp directory
func (p Platform) TempDir() string {
	if p.windows {
		return `C:\temp`
	}
	return "/tmp"
}

// NewLine is the line terminator used by line-oriented write verbs
func (p Platform) NewLine() string {
	if p.windows {
		return "\r\n"
	}
	return "\n"
}

func (p Platform) isSep(c rune) bool {
	return c == rune(p.sep) || c == rune(p.altSep)
}

func (p Platform) invalidPathChar(c rune) bool {
	if c == 0 {
		return true
	}
	if !p.windows {
		return false
	}
	if c < 32 {
		return true
	}
	switch c {
	case '"', '<', '>', '|':
		return true
	}
	return false
}

func (p Platform) invalidFileNameChar(c rune) bool {
	if p.invalidPathChar(c) || p.isSep(c) {
		return true
	}
	if p.windows {
		switch c {
		case ':', '*', '?':
			return true
		}
	}
	return false
}

// HasIllegalChars reports whether path contains characters that are never
// legal in a path. With wildcards set, '*' and '?' count as illegal too.
func (p Platform) HasIllegalChars(path string, wildcards bool) bool {
	for _, c := range path {
		if p.invalidPathChar(c) {
			return true
		}
		if wildcards && (c == '*' || c == '?') {
			return true
		}
	}
	return false
}

func isLetter(c byte) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}
