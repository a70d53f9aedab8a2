package imagescan

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
)

var markColor = color.RGBA{R: 255, A: 255}

// EncodeGray returns the grayscale map base64-encoded as JPEG, used to
// ship the ELA difference map in a JSON response.
func EncodeGray(img *image.Gray) (string, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85}); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// Annotate draws the region boundaries in red over a copy of the image
// and returns it base64-encoded as JPEG, ready to embed in a JSON
// response.
func Annotate(img image.Image, regions []Region) (string, error) {
	bounds := img.Bounds()
	out := image.NewRGBA(bounds)
	draw.Draw(out, bounds, img, bounds.Min, draw.Src)

	for _, region := range regions {
		drawPolygon(out, region.Polygon)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, out, &jpeg.Options{Quality: 85}); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func drawPolygon(img *image.RGBA, pts []image.Point) {
	if len(pts) < 2 {
		return
	}
	for i := 1; i < len(pts); i++ {
		drawLine(img, pts[i-1], pts[i])
	}
	drawLine(img, pts[len(pts)-1], pts[0])
}

// drawLine rasterizes a segment with Bresenham's algorithm.
func drawLine(img *image.RGBA, a, b image.Point) {
	dx := abs(b.X - a.X)
	dy := -abs(b.Y - a.Y)
	sx, sy := 1, 1
	if a.X > b.X {
		sx = -1
	}
	if a.Y > b.Y {
		sy = -1
	}
	err := dx + dy

	x, y := a.X, a.Y
	for {
		img.SetRGBA(x, y, markColor)
		if x == b.X && y == b.Y {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x += sx
		}
		if e2 <= dx {
			err += dx
			y += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
