package classifier

import (
	"image"

	"github.com/nfnt/resize"
)

// Preprocess resizes img to the model input size and flattens it into the
// tensor layout described by meta.
func Preprocess(img image.Image, meta Metadata) []float32 {
	size := uint(meta.ImageSize)
	resized := resize.Resize(size, size, img, resize.Bilinear)

	bounds := resized.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	plane := width * height
	data := make([]float32, 3*plane)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, g, b, _ := resized.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			rgb := [3]float32{
				float32(r>>8) * meta.PixelScale,
				float32(g>>8) * meta.PixelScale,
				float32(b>>8) * meta.PixelScale,
			}

			pixel := y*width + x
			for c, v := range rgb {
				if meta.Layout == LayoutNCHW {
					data[c*plane+pixel] = v
				} else {
					data[pixel*3+c] = v
				}
			}
		}
	}

	return data
}
