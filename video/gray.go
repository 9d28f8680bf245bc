package video

import (
	"image"

	"golang.org/x/image/draw"
)

// ToGray returns img as an 8-bit grayscale image with origin (0, 0). Gray
// images already at the origin are returned as is; anything else is
// converted with the luma weights of [image/color.GrayModel].
func ToGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok && g.Rect.Min == (image.Point{}) {
		return g
	}

	b := img.Bounds()
	dst := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)

	return dst
}
