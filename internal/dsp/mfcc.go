package dsp

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/LeeJaeHaeng/voiceshield/internal/audio"
)

// MFCCConfig controls MFCC extraction for voice fingerprints.
type MFCCConfig struct {
	SampleRate int
	NumMels    int
	NumCoeffs  int
	FFTSize    int
	HopSize    int
}

// DefaultMFCCConfig returns the fingerprint front-end parameters:
// 40 coefficients from a 128-bin mel spectrogram.
func DefaultMFCCConfig() MFCCConfig {
	return MFCCConfig{
		SampleRate: audio.TargetRate,
		NumMels:    128,
		NumCoeffs:  40,
		FFTSize:    2048,
		HopSize:    512,
	}
}

// MFCCExtractor computes mel-frequency cepstral coefficients.
type MFCCExtractor struct {
	cfg     MFCCConfig
	window  []float64
	melBank [][]float64
	fft     *fourier.FFT
	dct     [][]float64 // [coeff][mel] orthonormal DCT-II basis
}

// NewMFCCExtractor creates an extractor for the given config.
func NewMFCCExtractor(cfg MFCCConfig) *MFCCExtractor {
	return &MFCCExtractor{
		cfg:     cfg,
		window:  hannWindow(cfg.FFTSize),
		melBank: melFilterBank(cfg.NumMels, cfg.FFTSize, cfg.SampleRate, 0, float64(cfg.SampleRate)/2),
		fft:     fourier.NewFFT(cfg.FFTSize),
		dct:     dctBasis(cfg.NumCoeffs, cfg.NumMels),
	}
}

// MeanMFCC computes the per-coefficient mean MFCC over the whole clip,
// the fixed-length vector used as a voice fingerprint. Returns
// ErrNoAudio when the clip is too short for a single frame.
func (e *MFCCExtractor) MeanMFCC(clip *audio.Clip) ([]float64, error) {
	if clip == nil || len(clip.Samples) < e.cfg.FFTSize {
		return nil, ErrNoAudio
	}
	cfg := e.cfg

	n := len(clip.Samples)
	frames := 1 + (n-cfg.FFTSize)/cfg.HopSize
	halfFFT := cfg.FFTSize/2 + 1

	frame := make([]float64, cfg.FFTSize)
	coeffs := make([]complex128, halfFFT)
	power := make([]float64, halfFFT)
	logMel := make([]float64, cfg.NumMels)
	mean := make([]float64, cfg.NumCoeffs)

	for t := 0; t < frames; t++ {
		start := t * cfg.HopSize
		for i := 0; i < cfg.FFTSize; i++ {
			frame[i] = float64(clip.Samples[start+i]) * e.window[i]
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
			if sum < 1e-10 {
				sum = 1e-10
			}
			logMel[m] = 10 * math.Log10(sum)
		}
		for c := 0; c < cfg.NumCoeffs; c++ {
			var sum float64
			for m, b := range e.dct[c] {
				sum += b * logMel[m]
			}
			mean[c] += sum
		}
	}

	for c := range mean {
		mean[c] /= float64(frames)
	}
	return mean, nil
}

// dctBasis builds an orthonormal DCT-II basis, [numCoeffs][numMels].
func dctBasis(numCoeffs, numMels int) [][]float64 {
	basis := make([][]float64, numCoeffs)
	for c := 0; c < numCoeffs; c++ {
		row := make([]float64, numMels)
		scale := math.Sqrt(2.0 / float64(numMels))
		if c == 0 {
			scale = math.Sqrt(1.0 / float64(numMels))
		}
		for m := 0; m < numMels; m++ {
			row[m] = scale * math.Cos(math.Pi*float64(c)*(float64(m)+0.5)/float64(numMels))
		}
		basis[c] = row
	}
	return basis
}
