// Package imagescan detects image manipulation with error level
// analysis, a frequency-domain heuristic and region extraction around
// suspicious areas.
package imagescan

import (
	"bytes"
	"image"
	"image/jpeg"
)

const (
	elaQuality    = 90
	elaSuspicious = 55.0
)

// ELAResult is the error level analysis of one image: the brightness
// normalized difference map, its mean score on 0-100 and whether that
// score crosses the suspicion threshold.
type ELAResult struct {
	Diff       *image.Gray
	Score      float64
	Suspicious bool
}

// AnalyzeELA re-encodes the image as JPEG at quality 90 and measures
// the per-pixel error level against the original. Genuine photos
// recompress evenly; spliced or regenerated regions leave brighter
// residue in the difference map.
func AnalyzeELA(img image.Image) (*ELAResult, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: elaQuality}); err != nil {
		return nil, err
	}
	recoded, err := jpeg.Decode(&buf)
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	raw := make([]int, bounds.Dx()*bounds.Dy())
	maxDiff := 0
	i := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r1, g1, b1, _ := img.At(x, y).RGBA()
			r2, g2, b2, _ := recoded.At(x, y).RGBA()
			d := absDiff(r1, r2) + absDiff(g1, g2) + absDiff(b1, b2)
			d = (d / 3) >> 8 // back to 8-bit
			raw[i] = d
			if d > maxDiff {
				maxDiff = d
			}
			i++
		}
	}
	if maxDiff == 0 {
		maxDiff = 1
	}

	// Scale so the strongest residue maps to full brightness, the same
	// enhancement a human analyst applies before reading an ELA map.
	diff := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	var sum float64
	for i, d := range raw {
		v := d * 255 / maxDiff
		diff.Pix[i] = uint8(v)
		sum += float64(v)
	}
	score := sum / float64(len(raw)) * 100 / 255

	return &ELAResult{
		Diff:       diff,
		Score:      score,
		Suspicious: score > elaSuspicious,
	}, nil
}

func absDiff(a, b uint32) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}
