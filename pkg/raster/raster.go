package raster

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"strings"

	"github.com/disintegration/imaging"
)

// ThumbnailWidth is the archived preview width in pixels.
const ThumbnailWidth = 320

// DecodeBase64 accepts a bare base64 PNG or a data URI.
func DecodeBase64(raster string) ([]byte, error) {
	if i := strings.Index(raster, ","); strings.HasPrefix(raster, "data:") && i >= 0 {
		raster = raster[i+1:]
	}
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(raster))
	if err != nil {
		return nil, fmt.Errorf("decode raster: %w", err)
	}
	return data, nil
}

// Thumbnail scales a PNG down to width, keeping aspect ratio. Images
// already narrower than width are re-encoded unchanged.
func Thumbnail(png []byte, width int) ([]byte, error) {
	src, err := imaging.Decode(bytes.NewReader(png))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	var dst image.Image = src
	if src.Bounds().Dx() > width {
		dst = imaging.Resize(src, width, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, dst, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}
