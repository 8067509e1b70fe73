// Package imaging decodes leaf photos into normalized classifier input.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"io"

	_ "golang.org/x/image/bmp"  // register BMP decoder
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff" // register TIFF decoder
	_ "golang.org/x/image/webp" // register WebP decoder

	"github.com/Jagmohan-Prajapati/Smart-Agriculture/internal/domain/model"
)

// Defaults for the classifier input.
const (
	DefaultSize      = 224
	Channels         = 3
	DefaultMaxPixels = 64 << 20
)

// Tensor is a single-sample NHWC float32 batch with values in [0,1].
type Tensor struct {
	Shape [4]int64
	Data  []float32
}

// Height returns the spatial height.
func (t Tensor) Height() int { return int(t.Shape[1]) }

// Width returns the spatial width.
func (t Tensor) Width() int { return int(t.Shape[2]) }

// At returns the value at row y, column x, channel c.
func (t Tensor) At(y, x, c int) float32 {
	return t.Data[(y*t.Width()+x)*Channels+c]
}

// Preprocessor turns image payloads into Tensors. It is stateless and safe
// for concurrent use.
type Preprocessor struct {
	size      int
	maxPixels int
	scaler    draw.Scaler
}

// NewPreprocessor creates a preprocessor with bilinear resampling to
// DefaultSize unless overridden.
func NewPreprocessor(opts ...Option) *Preprocessor {
	p := &Preprocessor{
		size:      DefaultSize,
		maxPixels: DefaultMaxPixels,
		scaler:    draw.BiLinear,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Size returns the square edge of produced tensors.
func (p *Preprocessor) Size() int { return p.size }

// Decode reads an encoded image from r.
func (p *Preprocessor) Decode(r io.Reader) (Tensor, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Tensor{}, fmt.Errorf("read image: %w", err)
	}
	return p.DecodeBytes(data)
}

// DecodeBytes decodes JPEG, PNG, GIF, WebP, BMP or TIFF data.
func (p *Preprocessor) DecodeBytes(data []byte) (Tensor, error) {
	const op = "imaging.decode"
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Tensor{}, model.Wrap(op, model.ErrUnsupportedImage, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return Tensor{}, model.Wrap(op, model.ErrUnsupportedImage, fmt.Errorf("empty image %dx%d", cfg.Width, cfg.Height))
	}
	if cfg.Width*cfg.Height > p.maxPixels {
		return Tensor{}, model.Wrap(op, model.ErrUnsupportedImage, fmt.Errorf("image %dx%d too large", cfg.Width, cfg.Height))
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Tensor{}, model.Wrap(op, model.ErrUnsupportedImage, err)
	}
	return p.FromImage(img)
}

// FromImage resizes img to the configured square and scales channels to
// [0,1]. Alpha is dropped without compositing; grayscale and CMYK inputs
// come out as RGB.
func (p *Preprocessor) FromImage(img image.Image) (Tensor, error) {
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return Tensor{}, model.Wrap("imaging.resize", model.ErrUnsupportedImage, fmt.Errorf("empty image %dx%d", b.Dx(), b.Dy()))
	}

	dst := image.NewNRGBA(image.Rect(0, 0, p.size, p.size))
	p.scaler.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)

	t := Tensor{
		Shape: [4]int64{1, int64(p.size), int64(p.size), Channels},
		Data:  make([]float32, p.size*p.size*Channels),
	}
	i := 0
	for y := 0; y < p.size; y++ {
		off := dst.PixOffset(0, y)
		for x := 0; x < p.size; x++ {
			for c := 0; c < Channels; c++ {
				t.Data[i] = float32(dst.Pix[off+c]) / 255
				i++
			}
			off += 4
		}
	}
	return t, nil
}
