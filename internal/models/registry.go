// Package models defines the contracts for the external pretrained
// models the analysis pipeline consumes. Every model is a black box:
// the core only sees the documented input/output shapes, never the
// model internals. Loading happens once at process start; components
// receive an already-populated Registry.
package models

import (
	"context"
	"errors"
	"image"

	"github.com/LeeJaeHaeng/voiceshield/internal/audio"
	"github.com/LeeJaeHaeng/voiceshield/internal/dsp"
)

// ErrModelUnavailable indicates a mandatory classifier has not been
// loaded. Requests depending on it must be rejected; there is no
// fallback without operator action.
var ErrModelUnavailable = errors.New("mandatory model not loaded")

// AudioClassifier scores a mel feature as the probability [0,1] that
// the clip is synthetic speech. This is the mandatory primary signal
// for the audio verdict.
type AudioClassifier interface {
	Predict(ctx context.Context, mel *dsp.Mel) (float64, error)
}

// WaveformClassifier scores raw audio as the probability [0,1] that it
// is synthetic speech. Used as the optional secondary ensemble signal.
type WaveformClassifier interface {
	Predict(ctx context.Context, clip *audio.Clip) (float64, error)
}

// ImageClassifier scores an image as the probability [0,1] that it is
// AI-generated. Multiple classifiers may be registered; their scores
// are aggregated by the fusion engine.
type ImageClassifier interface {
	Name() string
	Predict(ctx context.Context, img image.Image) (float64, error)
}

// AgeGenderClassifier returns the raw label the model emits for a
// clip (e.g. "female_26"). Label parsing is owned by the demographics
// decoder, not the model adapter.
type AgeGenderClassifier interface {
	Classify(ctx context.Context, clip *audio.Clip) (string, error)
}

// SpeakerEmbedder maps a speech segment to a fixed-length embedding
// vector for clustering and comparison.
type SpeakerEmbedder interface {
	Embed(ctx context.Context, clip *audio.Clip) ([]float64, error)
}

// VoiceActivityDetector locates speech intervals in a clip.
type VoiceActivityDetector interface {
	Detect(ctx context.Context, clip *audio.Clip) ([]audio.Segment, error)
}

// SpeechToText transcribes a clip. An empty transcript is reported via
// the returned string, not an error.
type SpeechToText interface {
	Transcribe(ctx context.Context, clip *audio.Clip) (string, error)
}

// Summarizer condenses a transcript to between minLen and maxLen
// characters.
type Summarizer interface {
	Summarize(ctx context.Context, text string, maxLen, minLen int) (string, error)
}

// Registry holds the model handles available to an analysis request.
// Only Audio is mandatory for the audio verdict; every other field may
// be nil, in which case its signal silently drops out of fusion or
// aggregation.
type Registry struct {
	Audio          AudioClassifier
	SecondaryAudio WaveformClassifier
	Image          []ImageClassifier
	AgeGender      AgeGenderClassifier
	Embedder       SpeakerEmbedder
	VAD            VoiceActivityDetector
	STT            SpeechToText
	Summarizer     Summarizer
}

// RequireAudio returns ErrModelUnavailable when the primary audio
// classifier is absent.
func (r *Registry) RequireAudio() error {
	if r == nil || r.Audio == nil {
		return ErrModelUnavailable
	}
	return nil
}
