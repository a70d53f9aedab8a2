package audio

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	gosamples "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/rs/zerolog/log"
	resampling "github.com/tphakala/go-audio-resampling"
)

// ErrDecode indicates the input could not be read as audio.
var ErrDecode = errors.New("unreadable audio data")

// Decode reads a WAV stream and returns a mono clip at targetRate.
// Stereo input is downmixed by channel averaging and the sample rate is
// converted with a high-quality polyphase resampler. maxSeconds > 0 caps
// the decoded duration (applied before resampling).
func Decode(r io.Reader, targetRate int, maxSeconds float64) (*Clip, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	dec := wav.NewDecoder(bytes.NewReader(raw))
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%w: not a valid WAV file", ErrDecode)
	}

	var buf *gosamples.IntBuffer
	buf, err = dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if buf.Format == nil || buf.Format.SampleRate <= 0 || len(buf.Data) == 0 {
		return nil, fmt.Errorf("%w: empty PCM stream", ErrDecode)
	}

	srcRate := buf.Format.SampleRate
	channels := buf.Format.NumChannels
	if channels < 1 {
		channels = 1
	}

	// Downmix to mono, normalizing to [-1, 1].
	scale := 1.0 / float64(int(1)<<(uint(buf.SourceBitDepth)-1))
	if buf.SourceBitDepth == 0 {
		scale = 1.0 / 32768.0
	}
	frames := len(buf.Data) / channels
	mono := make([]float64, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		for ch := 0; ch < channels; ch++ {
			sum += float64(buf.Data[i*channels+ch])
		}
		mono[i] = sum / float64(channels) * scale
	}

	if maxSeconds > 0 {
		limit := int(maxSeconds * float64(srcRate))
		if limit < len(mono) {
			mono = mono[:limit]
		}
	}

	if srcRate != targetRate {
		mono, err = resample(mono, srcRate, targetRate)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDecode, err)
		}
	}

	samples := make([]float32, len(mono))
	for i, s := range mono {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		samples[i] = float32(s)
	}

	log.Debug().
		Int("source_rate", srcRate).
		Int("channels", channels).
		Int("samples", len(samples)).
		Msg("Decoded audio clip")

	return &Clip{Samples: samples, SampleRate: targetRate}, nil
}

func resample(in []float64, srcRate, dstRate int) ([]float64, error) {
	rs, err := resampling.New(&resampling.Config{
		InputRate:  float64(srcRate),
		OutputRate: float64(dstRate),
		Channels:   1,
		Quality:    resampling.QualitySpec{Preset: resampling.QualityHigh},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create resampler: %w", err)
	}
	out, err := rs.Process(in)
	if err != nil {
		return nil, fmt.Errorf("resample error: %w", err)
	}
	return out, nil
}
