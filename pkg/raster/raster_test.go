package raster

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 255, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestDecodeBase64(t *testing.T) {
	raw := encodePNG(t, 4, 4)
	b64 := base64.StdEncoding.EncodeToString(raw)

	got, err := DecodeBase64(b64)
	require.NoError(t, err)
	assert.Equal(t, raw, got)

	got, err = DecodeBase64("data:image/png;base64," + b64)
	require.NoError(t, err)
	assert.Equal(t, raw, got)

	_, err = DecodeBase64("%%%")
	assert.Error(t, err)
}

func TestThumbnail(t *testing.T) {
	thumb, err := Thumbnail(encodePNG(t, 640, 480), ThumbnailWidth)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(thumb))
	require.NoError(t, err)
	assert.Equal(t, 320, img.Bounds().Dx())
	assert.Equal(t, 240, img.Bounds().Dy())

	small, err := Thumbnail(encodePNG(t, 100, 50), ThumbnailWidth)
	require.NoError(t, err)
	img, err = png.Decode(bytes.NewReader(small))
	require.NoError(t, err)
	assert.Equal(t, 100, img.Bounds().Dx())
}
