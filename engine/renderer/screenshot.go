package renderer

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"time"
)

// ScreenshotSink receives the pixels of a captured frame. Write is called
// off the render thread; implementations do not need to be fast, but they
// must not touch the backend.
type ScreenshotSink interface {
	// Write persists one captured frame.
	//
	// Parameters:
	//   - data: the frame's tightly packed RGBA pixels
	//
	// Returns:
	//   - error: persistence failure
	Write(data *ScreenshotData) error
}

// fileSink writes captured frames as timestamped PNG files in a directory.
type fileSink struct {
	dir string
}

var _ ScreenshotSink = &fileSink{}

// NewFileSink returns a sink writing PNGs into dir, creating it on first
// use.
//
// Parameters:
//   - dir: the target directory
//
// Returns:
//   - ScreenshotSink: the file sink
func NewFileSink(dir string) ScreenshotSink {
	return &fileSink{dir: dir}
}

func (s *fileSink) Write(data *ScreenshotData) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("screenshot: creating %s: %w", s.dir, err)
	}

	img := &image.RGBA{
		Pix:    data.Pixels,
		Stride: int(data.Width) * 4,
		Rect:   image.Rect(0, 0, int(data.Width), int(data.Height)),
	}

	name := time.Now().Format("2006-01-02_15-04-05.000") + ".png"
	path := filepath.Join(s.dir, name)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("screenshot: creating %s: %w", path, err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("screenshot: encoding %s: %w", path, err)
	}
	return nil
}

// stripRowPadding repacks a row-padded GPU readback into tight rows and
// forces the alpha channel opaque. paddedBytesPerRow is the aligned stride
// the staging buffer was copied with; width and height are in pixels.
func stripRowPadding(padded []byte, paddedBytesPerRow, width, height uint32) []byte {
	rowBytes := width * 4
	out := make([]byte, 0, rowBytes*height)
	for y := uint32(0); y < height; y++ {
		row := padded[y*paddedBytesPerRow : y*paddedBytesPerRow+rowBytes]
		out = append(out, row...)
	}
	for i := uint32(3); i < uint32(len(out)); i += 4 {
		out[i] = 0xFF
	}
	return out
}
