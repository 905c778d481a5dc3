package pixel

import (
	"image"
	"image/color"
	"math/bits"

	"golang.org/x/image/draw"
)

// AverageHash returns the 64-bit average hash of img: the image is scaled
// to 8x8 grayscale and each bit records whether a pixel is above the mean.
func AverageHash(img image.Image) uint64 {
	small := image.NewGray(image.Rect(0, 0, 8, 8))
	draw.ApproxBiLinear.Scale(small, small.Bounds(), img, img.Bounds(), draw.Src, nil)
	var sum int
	for _, v := range small.Pix {
		sum += int(v)
	}
	mean := sum / len(small.Pix)
	var h uint64
	for i, v := range small.Pix {
		if int(v) > mean {
			h |= 1 << uint(i)
		}
	}
	return h
}

// Distance is the Hamming distance between two hashes.
func Distance(a, b uint64) int {
	return bits.OnesCount64(a ^ b)
}

// BrightnessSaturation returns the mean HSV value and saturation of img on
// a 0-255 scale.
func BrightnessSaturation(img image.Image) (brightness, saturation float64) {
	b := img.Bounds()
	n := b.Dx() * b.Dy()
	if n == 0 {
		return 0, 0
	}
	var vSum, sSum float64
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			hi := max(c.R, c.G, c.B)
			lo := min(c.R, c.G, c.B)
			vSum += float64(hi)
			if hi > 0 {
				sSum += float64(hi-lo) * 255 / float64(hi)
			}
		}
	}
	return vSum / float64(n), sSum / float64(n)
}
