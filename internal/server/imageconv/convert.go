package imageconv

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"io"
	"log/slog"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/disintegration/imaging"
)

const jpegQuality = 95

// Encode converts data into target, flattening transparency onto white
// when the target has no alpha channel.
func Encode(data []byte, target string) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	if !hasAlpha(target) {
		img = flatten(img)
	}

	var buf bytes.Buffer
	if canonical(target) == "webp" {
		if err := encodeWebP(&buf, img); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}

	format, err := imagingFormat(target)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, target)
	}
	if err := imaging.Encode(&buf, img, format, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, fmt.Errorf("encode %s: %w", target, err)
	}
	return buf.Bytes(), nil
}

func flatten(img image.Image) image.Image {
	b := img.Bounds()
	bg := imaging.New(b.Dx(), b.Dy(), color.White)
	return imaging.Overlay(bg, img, image.Pt(0, 0), 1.0)
}

type Store interface {
	List() (mapset.Set[string], error)
	Read(name string) ([]byte, error)
	SaveConverted(name string, r io.Reader) (int64, error)
}

// Report of one conversion batch
type Report struct {
	Format    string   `json:"format"`
	Converted []string `json:"converted"`
	Skipped   []string `json:"skipped"`
	Failed    []string `json:"failed"`
	Message   string   `json:"message"`
}

type Converter struct {
	store Store
}

func NewConverter(store Store) *Converter {
	return &Converter{store: store}
}

// Convert writes converted copies of names into the converted namespace.
// With no names every local file with an image extension is a candidate.
// Files of unknown format or already in the target format are skipped.
func (c *Converter) Convert(ctx context.Context, target string, names []string) (*Report, error) {
	target, err := ParseFormat(target)
	if err != nil {
		return nil, err
	}

	if len(names) == 0 {
		all, err := c.store.List()
		if err != nil {
			return nil, fmt.Errorf("list local files: %w", err)
		}
		for _, name := range mapset.Sorted(all) {
			if IsImageName(name) {
				names = append(names, name)
			}
		}
	}

	report := &Report{
		Format:    target,
		Converted: []string{},
		Skipped:   []string{},
		Failed:    []string{},
	}

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		out, err := c.convertOne(name, target)
		switch {
		case err != nil:
			slog.Error("image convert", "name", name, "format", target, "error", err)
			report.Failed = append(report.Failed, name)
		case out == "":
			report.Skipped = append(report.Skipped, name)
		default:
			report.Converted = append(report.Converted, out)
		}
	}

	report.Message = fmt.Sprintf("Converted %d image(s) to %s.", len(report.Converted), target)
	if n := len(report.Skipped); n > 0 {
		report.Message += fmt.Sprintf(" Skipped %d.", n)
	}
	if n := len(report.Failed); n > 0 {
		report.Message += fmt.Sprintf(" %d failed.", n)
	}
	return report, nil
}

// convertOne returns the output name, or "" when the file is skipped
func (c *Converter) convertOne(name, target string) (string, error) {
	data, err := c.store.Read(name)
	if err != nil {
		return "", err
	}

	source := DetectFormat(data, name)
	if source == "" || SameFormat(source, target) {
		slog.Debug("image convert skipped", "name", name, "source", source, "target", target)
		return "", nil
	}

	encoded, err := Encode(data, target)
	if err != nil {
		return "", err
	}

	out := OutputName(name, target)
	if _, err := c.store.SaveConverted(out, bytes.NewReader(encoded)); err != nil {
		return "", err
	}
	return out, nil
}
