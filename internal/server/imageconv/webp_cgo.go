//go:build cgo

package imageconv

import (
	"image"
	"io"

	"github.com/chai2010/webp"
)

const webpEncodeSupported = true

func encodeWebP(w io.Writer, img image.Image) error {
	return webp.Encode(w, img, &webp.Options{Lossless: true})
}
