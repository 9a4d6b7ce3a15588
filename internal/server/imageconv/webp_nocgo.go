//go:build !cgo

package imageconv

import (
	"fmt"
	"image"
	"io"

	_ "golang.org/x/image/webp"
)

const webpEncodeSupported = false

func encodeWebP(io.Writer, image.Image) error {
	return fmt.Errorf("%w: webp encoding needs a cgo build", ErrUnsupportedFormat)
}
