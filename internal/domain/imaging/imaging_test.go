package imaging_test

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"golang.org/x/image/bmp"

	"github.com/Jagmohan-Prajapati/Smart-Agriculture/internal/domain/imaging"
	"github.com/Jagmohan-Prajapati/Smart-Agriculture/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func solid(w, h int, c color.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func encodePNG(img image.Image) []byte {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

func TestDecode(t *testing.T) {
	Convey("Given a preprocessor", t, func() {
		p := imaging.NewPreprocessor()

		Convey("When decoding a non-square red PNG", func() {
			tensor, err := p.DecodeBytes(encodePNG(solid(40, 90, color.NRGBA{R: 255, A: 255})))

			Convey("Then it should become a 1x224x224x3 batch of pure red", func() {
				So(err, ShouldBeNil)
				So(tensor.Shape, ShouldResemble, [4]int64{1, 224, 224, 3})
				So(len(tensor.Data), ShouldEqual, 224*224*3)
				So(tensor.At(0, 0, 0), ShouldEqual, 1)
				So(tensor.At(223, 223, 0), ShouldEqual, 1)
				So(tensor.At(100, 50, 1), ShouldEqual, 0)
				So(tensor.At(100, 50, 2), ShouldEqual, 0)
			})
		})

		Convey("When decoding a grayscale BMP", func() {
			gray := image.NewGray(image.Rect(0, 0, 16, 16))
			for i := range gray.Pix {
				gray.Pix[i] = 51
			}
			var buf bytes.Buffer
			So(bmp.Encode(&buf, gray), ShouldBeNil)

			tensor, err := p.Decode(&buf)

			Convey("Then every channel should carry the same normalized value", func() {
				So(err, ShouldBeNil)
				for c := 0; c < 3; c++ {
					So(tensor.At(5, 5, c), ShouldAlmostEqual, 0.2, 1e-6)
				}
			})
		})

		Convey("When decoding a JPEG", func() {
			var buf bytes.Buffer
			So(jpeg.Encode(&buf, solid(64, 64, color.NRGBA{G: 200, A: 255}), &jpeg.Options{Quality: 95}), ShouldBeNil)

			tensor, err := p.DecodeBytes(buf.Bytes())

			Convey("Then values should stay inside [0,1]", func() {
				So(err, ShouldBeNil)
				for _, v := range tensor.Data {
					So(v >= 0 && v <= 1, ShouldBeTrue)
				}
				So(tensor.At(32, 32, 1), ShouldBeGreaterThan, 0.7)
			})
		})

		Convey("When the payload is not an image", func() {
			_, err := p.DecodeBytes([]byte("definitely not a leaf"))

			Convey("Then it should be rejected as unsupported", func() {
				So(errors.Is(err, model.ErrUnsupportedImage), ShouldBeTrue)
			})
		})

		Convey("When the image has no pixels", func() {
			_, err := p.FromImage(image.NewRGBA(image.Rect(0, 0, 0, 0)))
			So(errors.Is(err, model.ErrUnsupportedImage), ShouldBeTrue)
		})

		Convey("When the image exceeds the pixel cap", func() {
			small := imaging.NewPreprocessor(imaging.WithMaxPixels(100))
			_, err := small.DecodeBytes(encodePNG(solid(20, 20, color.White)))
			So(errors.Is(err, model.ErrUnsupportedImage), ShouldBeTrue)
		})
	})

	Convey("Given a custom output size", t, func() {
		p := imaging.NewPreprocessor(imaging.WithSize(8))
		tensor, err := p.DecodeBytes(encodePNG(solid(3, 3, color.White)))

		So(err, ShouldBeNil)
		So(p.Size(), ShouldEqual, 8)
		So(tensor.Shape, ShouldResemble, [4]int64{1, 8, 8, 3})
	})
}
