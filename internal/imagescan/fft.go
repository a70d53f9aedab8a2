package imagescan

import (
	"image"
	"image/color"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
)

// Natural photographs concentrate a predictable share of their spectral
// energy in the upper frequency half. GAN upsampling leaves too much
// (grid artifacts); heavy smoothing or diffusion output leaves too
// little.
const (
	highFreqLow  = 0.08
	highFreqHigh = 0.35
)

// FFTResult is the frequency-domain heuristic for one image.
type FFTResult struct {
	Ratio      float64 // share of spectral energy above the Nyquist midpoint
	Score      float64 // 0-100 suspicion score
	Suspicious bool
}

// AnalyzeFFT grayscales the image, transforms every row and column and
// compares high-frequency energy against the natural band.
func AnalyzeFFT(img image.Image) *FFTResult {
	gray := toGray(img)
	w := gray.Rect.Dx()
	h := gray.Rect.Dy()
	if w < 4 || h < 4 {
		return &FFTResult{}
	}

	var total, high float64

	rowFFT := fourier.NewFFT(w)
	row := make([]float64, w)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			row[x] = float64(gray.GrayAt(x, y).Y)
		}
		coeffs := rowFFT.Coefficients(nil, row)
		t, hi := bandEnergy(coeffs)
		total += t
		high += hi
	}

	colFFT := fourier.NewFFT(h)
	col := make([]float64, h)
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			col[y] = float64(gray.GrayAt(x, y).Y)
		}
		coeffs := colFFT.Coefficients(nil, col)
		t, hi := bandEnergy(coeffs)
		total += t
		high += hi
	}

	if total == 0 {
		return &FFTResult{}
	}
	ratio := high / total

	out := &FFTResult{Ratio: ratio}
	switch {
	case ratio > highFreqHigh:
		out.Score = 70 + (ratio-highFreqHigh)/(1-highFreqHigh)*30
		out.Suspicious = true
	case ratio < highFreqLow:
		out.Score = 70 + (highFreqLow-ratio)/highFreqLow*30
		out.Suspicious = true
	default:
		out.Score = 50 * ratio / highFreqHigh
	}
	out.Score = math.Min(out.Score, 100)
	return out
}

// bandEnergy splits a half-spectrum into total energy and the energy in
// its upper half. The DC term is excluded so flat images do not swamp
// the ratio.
func bandEnergy(coeffs []complex128) (total, high float64) {
	mid := len(coeffs) / 2
	for i := 1; i < len(coeffs); i++ {
		e := cmplx.Abs(coeffs[i])
		e *= e
		total += e
		if i >= mid {
			high += e
		}
	}
	return total, high
}

func toGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	bounds := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			// ITU-R 601 luma
			lum := (299*r + 587*g + 114*b) / 1000
			gray.SetGray(x-bounds.Min.X, y-bounds.Min.Y, color.Gray{Y: uint8(lum >> 8)})
		}
	}
	return gray
}
