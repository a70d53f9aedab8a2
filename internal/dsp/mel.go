// Package dsp computes the spectral representations consumed by the
// deepfake classifier and the voice fingerprint matcher: mel
// spectrograms, MFCC vectors and the auxiliary spectral indicators
// reported alongside a verdict.
package dsp

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/LeeJaeHaeng/voiceshield/internal/audio"
)

// ErrNoAudio indicates feature extraction produced nothing usable.
var ErrNoAudio = errors.New("no usable audio for feature extraction")

// MelConfig controls mel spectrogram extraction. Defaults match the
// front-end the primary classifier was trained with.
type MelConfig struct {
	SampleRate    int     // audio sample rate in Hz
	NumMels       int     // number of mel bins
	FFTSize       int     // FFT / window size in samples
	HopSize       int     // hop length in samples
	FMax          float64 // highest mel frequency
	TargetSeconds float64 // clips are zero-padded or truncated to this length
	TopDB         float64 // dynamic range clamp after dB conversion
}

// DefaultMelConfig returns the extraction parameters the primary
// classifier expects: 128 mels over 3 s of 16 kHz audio, giving a
// constant [128 x 94] feature shape.
func DefaultMelConfig() MelConfig {
	return MelConfig{
		SampleRate:    audio.TargetRate,
		NumMels:       128,
		FFTSize:       2048,
		HopSize:       512,
		FMax:          8000,
		TargetSeconds: 3,
		TopDB:         80,
	}
}

// Mel is a z-score normalized log mel spectrogram, indexed
// [mel][frame].
type Mel struct {
	Data    [][]float64
	NumMels int
	Frames  int
}

// MelExtractor computes mel spectrograms with a fixed filterbank.
type MelExtractor struct {
	cfg     MelConfig
	window  []float64
	melBank [][]float64
	fft     *fourier.FFT
}

// NewMelExtractor creates an extractor for the given config.
func NewMelExtractor(cfg MelConfig) *MelExtractor {
	return &MelExtractor{
		cfg:     cfg,
		window:  hannWindow(cfg.FFTSize),
		melBank: melFilterBank(cfg.NumMels, cfg.FFTSize, cfg.SampleRate, 0, cfg.FMax),
		fft:     fourier.NewFFT(cfg.FFTSize),
	}
}

// Extract computes the normalized mel spectrogram of a clip. The clip
// is zero-padded or truncated to TargetSeconds so the output shape is
// constant regardless of input length.
func (e *MelExtractor) Extract(clip *audio.Clip) (*Mel, error) {
	if clip == nil || len(clip.Samples) == 0 {
		return nil, ErrNoAudio
	}
	cfg := e.cfg

	target := int(cfg.TargetSeconds * float64(cfg.SampleRate))
	samples := make([]float64, target)
	for i := 0; i < target && i < len(clip.Samples); i++ {
		samples[i] = float64(clip.Samples[i])
	}

	// Center the frames: pad half a window on each side so frame t is
	// centered on sample t*hop.
	half := cfg.FFTSize / 2
	padded := make([]float64, half+target+half)
	copy(padded[half:], samples)

	frames := 1 + target/cfg.HopSize
	halfFFT := cfg.FFTSize/2 + 1

	mel := make([][]float64, cfg.NumMels)
	for m := range mel {
		mel[m] = make([]float64, frames)
	}

	frame := make([]float64, cfg.FFTSize)
	coeffs := make([]complex128, halfFFT)
	power := make([]float64, halfFFT)

	for t := 0; t < frames; t++ {
		start := t * cfg.HopSize
		for i := 0; i < cfg.FFTSize; i++ {
			frame[i] = padded[start+i] * e.window[i]
		}
		e.fft.Coefficients(coeffs, frame)
		for i := 0; i < halfFFT; i++ {
			power[i] = real(coeffs[i])*real(coeffs[i]) + imag(coeffs[i])*imag(coeffs[i])
		}
		for m := 0; m < cfg.NumMels; m++ {
			var sum float64
			for k, w := range e.melBank[m] {
				if w != 0 {
					sum += w * power[k]
				}
			}
			mel[m][t] = sum
		}
	}

	powerToDB(mel, cfg.TopDB)
	normalize(mel)

	return &Mel{Data: mel, NumMels: cfg.NumMels, Frames: frames}, nil
}

// powerToDB converts a power spectrogram to decibels relative to its
// maximum, clamping the dynamic range to topDB.
func powerToDB(s [][]float64, topDB float64) {
	ref := 1e-10
	for _, row := range s {
		for _, v := range row {
			if v > ref {
				ref = v
			}
		}
	}
	maxDB := math.Inf(-1)
	for _, row := range s {
		for i, v := range row {
			if v < 1e-10 {
				v = 1e-10
			}
			db := 10 * math.Log10(v/ref)
			row[i] = db
			if db > maxDB {
				maxDB = db
			}
		}
	}
	if topDB > 0 {
		floor := maxDB - topDB
		for _, row := range s {
			for i, v := range row {
				if v < floor {
					row[i] = floor
				}
			}
		}
	}
}

// normalize applies global z-score normalization (mean 0, std 1).
func normalize(s [][]float64) {
	var sum float64
	var n int
	for _, row := range s {
		for _, v := range row {
			sum += v
			n++
		}
	}
	if n == 0 {
		return
	}
	mean := sum / float64(n)
	var varSum float64
	for _, row := range s {
		for _, v := range row {
			d := v - mean
			varSum += d * d
		}
	}
	std := math.Sqrt(varSum / float64(n))
	for _, row := range s {
		for i, v := range row {
			row[i] = (v - mean) / (std + 1e-6)
		}
	}
}

// FrequencyScore maps the variance-to-range ratio of the spectrogram to
// a 0-100 indicator. Reported as auxiliary detail, not part of the
// fusion decision.
func (m *Mel) FrequencyScore() int {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, row := range m.Data {
		for _, v := range row {
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
	}
	v := popVariance(flatten(m.Data))
	score := int((v / (hi - lo + 1e-6)) * 100)
	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}
	return score
}

// TemporalScore maps the variance of per-frame means to a 0-100
// indicator of temporal consistency.
func (m *Mel) TemporalScore() int {
	if m.Frames == 0 {
		return 0
	}
	means := make([]float64, m.Frames)
	for t := 0; t < m.Frames; t++ {
		var sum float64
		for _, row := range m.Data {
			sum += row[t]
		}
		means[t] = sum / float64(m.NumMels)
	}
	score := int(popVariance(means) * 50)
	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}
	return score
}

func flatten(s [][]float64) []float64 {
	out := make([]float64, 0, len(s)*len(s[0]))
	for _, row := range s {
		out = append(out, row...)
	}
	return out
}

func popVariance(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	mean := sum / float64(len(xs))
	var varSum float64
	for _, x := range xs {
		d := x - mean
		varSum += d * d
	}
	return varSum / float64(len(xs))
}

// hannWindow generates a Hann window of the given length.
func hannWindow(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n))
	}
	return w
}

// hzToMel converts frequency in Hz to mel scale.
func hzToMel(hz float64) float64 {
	return 2595.0 * math.Log10(1.0+hz/700.0)
}

// melToHz converts mel scale frequency back to Hz.
func melToHz(mel float64) float64 {
	return 700.0 * (math.Pow(10.0, mel/2595.0) - 1.0)
}

// melFilterBank creates the triangular mel filterbank matrix,
// [numMels][fftSize/2+1].
func melFilterBank(numMels, fftSize, sampleRate int, lowFreq, highFreq float64) [][]float64 {
	halfFFT := fftSize/2 + 1
	lowMel := hzToMel(lowFreq)
	highMel := hzToMel(highFreq)

	melPoints := make([]float64, numMels+2)
	step := (highMel - lowMel) / float64(numMels+1)
	for i := range melPoints {
		melPoints[i] = lowMel + float64(i)*step
	}

	bins := make([]int, numMels+2)
	for i, m := range melPoints {
		hz := melToHz(m)
		bin := int(math.Round(hz * float64(fftSize) / float64(sampleRate)))
		if bin >= halfFFT {
			bin = halfFFT - 1
		}
		bins[i] = bin
	}
	// Each filter needs at least one bin of width.
	for i := 1; i < len(bins); i++ {
		if bins[i] <= bins[i-1] {
			bins[i] = bins[i-1] + 1
		}
	}

	bank := make([][]float64, numMels)
	for m := 0; m < numMels; m++ {
		filter := make([]float64, halfFFT)
		left, center, right := bins[m], bins[m+1], bins[m+2]
		for k := left; k < center && k < halfFFT; k++ {
			filter[k] = float64(k-left) / float64(center-left)
		}
		for k := center; k <= right && k < halfFFT; k++ {
			filter[k] = float64(right-k) / float64(right-center)
		}
		bank[m] = filter
	}
	return bank
}
