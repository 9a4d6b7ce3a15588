package localstore

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

var (
	unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)
	separatorReplacer   = strings.NewReplacer("/", " ", "\\", " ")
)

// SecureFilename reduces an untrusted name to a flat, ASCII-only file name
// that can be joined to the upload root without escaping it. An empty
// string means nothing usable was left.
func SecureFilename(name string) string {
	name = norm.NFKD.String(name)

	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		if r < utf8.RuneSelf {
			b.WriteRune(r)
		}
	}

	name = separatorReplacer.Replace(b.String())
	name = strings.Join(strings.Fields(name), "_")
	name = unsafeFilenameChars.ReplaceAllString(name, "")
	return strings.Trim(name, "._")
}

// CleanName sanitizes a user supplied name and rejects it when nothing
// usable remains.
func CleanName(name string) (string, error) {
	clean := SecureFilename(name)
	if clean == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return clean, nil
}

// IsSafeName reports whether name is already in sanitized form
func IsSafeName(name string) bool {
	return name != "" && SecureFilename(name) == name
}

// Extension returns the lower-cased text after the last dot, or "" if the
// name has none.
func Extension(name string) string {
	idx := strings.LastIndexByte(name, '.')
	if idx < 0 {
		return ""
	}
	return strings.ToLower(name[idx+1:])
}

// Stem returns the name without its extension
func Stem(name string) string {
	idx := strings.LastIndexByte(name, '.')
	if idx < 0 {
		return name
	}
	return name[:idx]
}
