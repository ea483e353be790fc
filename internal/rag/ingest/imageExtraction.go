package ingest

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"sort"

	"github.com/akolanti/StudyRAG/pkg/logger_i"
	"github.com/dslipak/pdf"
)

// RawImage is an embedded page image already encoded as PNG.
type RawImage struct {
	PageNumber int
	// Index is 1-based within the page.
	Index  int
	Width  int
	Height int
	PNG    []byte
}

// extractImages walks the image XObjects of every page. Only Flate-compressed
// 8-bit gray and RGB images are decoded; anything else is skipped.
func extractImages(ctx context.Context, r *pdf.Reader, minSize int, log *logger_i.Logger) ([]RawImage, error) {
	var images []RawImage
	for i := 1; i <= r.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		xobjects := page.Resources().Key("XObject")
		names := xobjects.Keys()
		sort.Strings(names)

		index := 0
		for _, name := range names {
			obj := xobjects.Key(name)
			if obj.Kind() != pdf.Stream || obj.Key("Subtype").Name() != "Image" {
				continue
			}
			width, height := int(obj.Key("Width").Int64()), int(obj.Key("Height").Int64())
			if width < minSize || height < minSize {
				continue
			}
			encoded, err := decodeImage(obj, width, height)
			if err != nil {
				log.Debug("skipping page image", "page", i, "name", name, "reason", err)
				continue
			}
			index++
			images = append(images, RawImage{PageNumber: i, Index: index, Width: width, Height: height, PNG: encoded})
		}
	}
	return images, nil
}

func decodeImage(obj pdf.Value, width, height int) (encoded []byte, err error) {
	if f := filterName(obj.Key("Filter")); f != "FlateDecode" {
		return nil, fmt.Errorf("unsupported filter %q", f)
	}
	if bpc := obj.Key("BitsPerComponent").Int64(); bpc != 8 {
		return nil, fmt.Errorf("unsupported bits per component %d", bpc)
	}
	var components int
	switch obj.Key("ColorSpace").Name() {
	case "DeviceGray":
		components = 1
	case "DeviceRGB":
		components = 3
	default:
		return nil, fmt.Errorf("unsupported color space %s", obj.Key("ColorSpace"))
	}

	// the stream decoder panics on predictors and filters it does not know
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("stream decode panic: %v", rec)
		}
	}()
	rc := obj.Reader()
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, err
	}
	if len(data) < width*height*components {
		return nil, fmt.Errorf("short image data: %d bytes", len(data))
	}

	var img image.Image
	if components == 1 {
		gray := image.NewGray(image.Rect(0, 0, width, height))
		copy(gray.Pix, data[:width*height])
		img = gray
	} else {
		rgba := image.NewRGBA(image.Rect(0, 0, width, height))
		for p := 0; p < width*height; p++ {
			rgba.SetRGBA(p%width, p/width, color.RGBA{R: data[p*3], G: data[p*3+1], B: data[p*3+2], A: 0xff})
		}
		img = rgba
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// filterName accepts both /Filter /X and a single-element /Filter [/X].
func filterName(v pdf.Value) string {
	switch v.Kind() {
	case pdf.Name:
		return v.Name()
	case pdf.Array:
		if v.Len() == 1 {
			return v.Index(0).Name()
		}
	}
	return ""
}
