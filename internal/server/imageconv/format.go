package imageconv

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"slices"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/openmined/filedrop/internal/server/localstore"
)

const convertedSuffix = "_converted"

var ErrUnsupportedFormat = errors.New("unsupported image format")

// Formats accepted as conversion targets
var Formats = []string{"jpg", "jpeg", "png", "bmp", "tiff", "webp", "gif"}

// ParseFormat validates a target format name
func ParseFormat(s string) (string, error) {
	f := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), "."))
	if !slices.Contains(Formats, f) {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
	return f, nil
}

// canonical folds aliases so that jpg and jpeg compare equal
func canonical(format string) string {
	switch format {
	case "jpg":
		return "jpeg"
	case "tif":
		return "tiff"
	}
	return format
}

// SameFormat reports whether a and b name the same encoding
func SameFormat(a, b string) bool {
	return canonical(strings.ToLower(a)) == canonical(strings.ToLower(b))
}

// DetectFormat sniffs the image header and falls back to the file
// extension. The result is canonical ("jpeg", "tiff") or empty if unknown.
func DetectFormat(data []byte, name string) string {
	if _, format, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		return canonical(format)
	}

	ext := canonical(localstore.Extension(name))
	if slices.Contains(Formats, ext) {
		return ext
	}
	return ""
}

// IsImageName reports whether the extension looks like a convertible image
func IsImageName(name string) bool {
	ext := localstore.Extension(name)
	return ext == "tif" || slices.Contains(Formats, ext)
}

// OutputName derives `<stem>_converted.<target>`
func OutputName(name, target string) string {
	return localstore.Stem(name) + convertedSuffix + "." + target
}

// hasAlpha is false for targets that cannot carry transparency
func hasAlpha(target string) bool {
	switch canonical(target) {
	case "jpeg", "bmp":
		return false
	}
	return true
}

func imagingFormat(target string) (imaging.Format, error) {
	return imaging.FormatFromExtension(target)
}
