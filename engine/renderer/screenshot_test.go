package renderer

import (
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripRowPadding(t *testing.T) {
	// Two rows of three pixels, padded to a 16-byte stride.
	const (
		width  = 3
		height = 2
		stride = 16
	)
	padded := make([]byte, stride*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width*4; x++ {
			padded[y*stride+x] = byte(y*100 + x)
		}
	}

	out := stripRowPadding(padded, stride, width, height)
	require.Len(t, out, width*height*4)

	for y := 0; y < height; y++ {
		for x := 0; x < width*4; x++ {
			want := byte(y*100 + x)
			if x%4 == 3 {
				want = 0xFF // alpha forced opaque
			}
			assert.Equal(t, want, out[y*width*4+x], "row %d byte %d", y, x)
		}
	}
}

func TestStripRowPaddingTightInput(t *testing.T) {
	// Stride equal to the row width passes bytes through except alpha.
	padded := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	out := stripRowPadding(padded, 8, 2, 1)
	assert.Equal(t, []byte{1, 2, 3, 0xFF, 5, 6, 7, 0xFF}, out)
}

func TestFileSinkWritesPNG(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "shots")
	sink := NewFileSink(dir)

	data := &ScreenshotData{
		Width:  2,
		Height: 2,
		Pixels: []byte{
			255, 0, 0, 255, 0, 255, 0, 255,
			0, 0, 255, 255, 255, 255, 255, 255,
		},
	}
	require.NoError(t, sink.Write(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, ".png", filepath.Ext(entries[0].Name()))

	f, err := os.Open(filepath.Join(dir, entries[0].Name()))
	require.NoError(t, err)
	defer f.Close()

	img, err := png.Decode(f)
	require.NoError(t, err)
	bounds := img.Bounds()
	assert.Equal(t, 2, bounds.Dx())
	assert.Equal(t, 2, bounds.Dy())

	r, g, b, a := img.At(0, 0).RGBA()
	assert.Equal(t, uint32(0xFFFF), r)
	assert.Equal(t, uint32(0), g)
	assert.Equal(t, uint32(0), b)
	assert.Equal(t, uint32(0xFFFF), a)
}
