package pathutil

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Comparer applies a case sensitivity policy to every path comparison and
// to the keys of the entry store.
type Comparer struct {
	caseSensitive bool
}

func NewComparer(caseSensitive bool) Comparer {
	return Comparer{caseSensitive: caseSensitive}
}

func (c Comparer) CaseSensitive() bool {
	return c.caseSensitive
}

func (c Comparer) Equal(a, b string) bool {
	if c.caseSensitive {
		return a == b
	}
	return strings.EqualFold(a, b)
}

func (c Comparer) HasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && c.Equal(s[:len(prefix)], prefix)
}

func (c Comparer) HasSuffix(s, suffix string) bool {
	return len(s) >= len(suffix) && c.Equal(s[len(s)-len(suffix):], suffix)
}

// Index returns the byte index of the first match of sub in s, or -1
func (c Comparer) Index(s, sub string) int {
	if c.caseSensitive {
		return strings.Index(s, sub)
	}
	for i := 0; i+len(sub) <= len(s); i++ {
		if strings.EqualFold(s[i:i+len(sub)], sub) {
			return i
		}
	}
	return -1
}

// Key folds s into the form used as a map key. Two strings share a key
// exactly when Equal reports them equal.
func (c Comparer) Key(s string) string {
	if c.caseSensitive {
		return s
	}
	return foldKey(s)
}

// Compare orders a and b under this policy. Case-insensitive ties fall back
// to ordinal order so sorting stays deterministic.
func (c Comparer) Compare(a, b string) int {
	if !c.caseSensitive {
		if r := strings.Compare(foldKey(a), foldKey(b)); r != 0 {
			return r
		}
	}
	return strings.Compare(a, b)
}

// foldKey maps every rune to the smallest member of its simple case folding
// orbit, the same equivalence strings.EqualFold tests.
func foldKey(s string) string {
	ascii := true
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			ascii = false
			break
		}
	}
	if ascii {
		return strings.ToUpper(s)
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		b.WriteRune(foldRune(r))
	}
	return b.String()
}

func foldRune(r rune) rune {
	low := r
	for f := unicode.SimpleFold(r); f != r; f = unicode.SimpleFold(f) {
		low = min(low, f)
	}
	return low
}
