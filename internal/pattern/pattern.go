// Package pattern compiles DOS-style search patterns ("*", "?") into
// matchers over paths relative to a search root.
package pattern

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/brettbedarf/memfs/internal/errs"
	"github.com/brettbedarf/memfs/internal/pathutil"
	"github.com/brettbedarf/memfs/internal/util"
)

// Matcher reports whether a candidate path, relative to the search root,
// satisfies a compiled search pattern.
type Matcher interface {
	Match(rel string) bool
}

type Options struct {
	// Recursive allows any number of intermediate directories between the
	// search root and the matched name.
	Recursive bool
	// CaseSensitive disables the default case-insensitive matching.
	CaseSensitive bool
}

// regexpMatcher is the only Matcher Compile produces
type regexpMatcher struct {
	pattern string
	re      *regexp.Regexp
}

func (m *regexpMatcher) Match(rel string) bool {
	return m.re.MatchString(rel)
}

// String returns the source search pattern
func (m *regexpMatcher) String() string {
	return m.pattern
}

// Check validates a search pattern without compiling it.
// ".." may not end the pattern nor be followed by a separator since that
// would let a search escape its root.
func Check(pattern string, p pathutil.Platform) error {
	rest := pattern
	for {
		i := strings.Index(rest, "..")
		if i < 0 {
			break
		}
		if i+2 == len(rest) {
			return fmt.Errorf("%w: search pattern cannot end with \"..\"", errs.IllegalPath)
		}
		if c := rest[i+2]; c == '/' || c == p.Separator() {
			return fmt.Errorf("%w: search pattern cannot contain \"..\" to move up directories", errs.IllegalPath)
		}
		rest = rest[i+2:]
	}
	if p.HasIllegalChars(pattern, false) {
		return fmt.Errorf("%w: illegal characters in search pattern", errs.IllegalPath)
	}
	return nil
}

// Compile turns pattern into a Matcher for platform p.
func Compile(pattern string, p pathutil.Platform, opts Options) (Matcher, error) {
	logger := util.GetLogger("pattern.Compile")

	if err := Check(pattern, p); err != nil {
		return nil, err
	}
	pattern = p.FixSeparators(pattern)

	sep := regexp.QuoteMeta(p.SeparatorString())
	cls := nameClass(p, false)

	var name string
	switch {
	case pattern == "*":
		name = "[^" + sep + "]*"
	case hasTrailingDotQuirk(pattern):
		stem := strings.TrimRight(pattern, ".")
		// names without any dot, or names that themselves end in dots
		name = "(?:" + translate(stem, nameClass(p, true)) + "|" + translate(stem, cls) + `\.+` + ")"
	default:
		name = translate(pattern, cls)
		if ext := p.Ext(pattern); len(ext) == 4 && !strings.ContainsAny(ext, "*?") {
			// 8.3 short names: "*.txt" also matches "a.txtx"
			name = "(?:" + name + "|" + name + "[^.]" + ")"
		}
	}

	var b strings.Builder
	if !opts.CaseSensitive {
		b.WriteString("(?i)")
	}
	b.WriteString("^")
	if opts.Recursive {
		b.WriteString("(?:" + cls + "*" + sep + ")*")
	}
	b.WriteString(name)
	b.WriteString("(?:" + sep + ")?$")

	re, err := regexp.Compile(b.String())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.IllegalPath, err)
	}
	logger.Trace().Str("pattern", pattern).Str("regexp", re.String()).Msg("Compiled search pattern")
	return &regexpMatcher{pattern: pattern, re: re}, nil
}

// nameClass is the character class a wildcard may expand to: anything but
// separators and reserved characters.
func nameClass(p pathutil.Platform, excludeDot bool) string {
	cls := `[^<>:"/|?*`
	if p.IsWindows() {
		cls = `[^<>:"/\\|?*`
	}
	if excludeDot {
		cls += "."
	}
	return cls + "]"
}

func translate(pattern, cls string) string {
	var b strings.Builder
	for _, r := range pattern {
		switch r {
		case '*':
			b.WriteString(cls + "*")
		case '?':
			b.WriteString(cls + "?")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	return b.String()
}

// hasTrailingDotQuirk reports whether pattern ends in a run of dots that
// directly follows a wildcard, as in "*.".
func hasTrailingDotQuirk(pattern string) bool {
	stem := strings.TrimRight(pattern, ".")
	if stem == pattern || stem == "" {
		return false
	}
	last := stem[len(stem)-1]
	return last == '*' || last == '?'
}
