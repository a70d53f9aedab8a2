// Package vad provides voice activity detection adapters. Silero is
// the primary detector; WebRTC is the frame-level fallback used when no
// Silero model is configured.
package vad

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/streamer45/silero-vad-go/speech"

	"github.com/LeeJaeHaeng/voiceshield/internal/audio"
)

// Silero wraps the Silero VAD ONNX model. Detection is serialized; the
// underlying detector keeps internal state between frames.
type Silero struct {
	mu       sync.Mutex
	detector *speech.Detector
}

// NewSilero loads the Silero model from modelPath.
func NewSilero(modelPath string) (*Silero, error) {
	sd, err := speech.NewDetector(speech.DetectorConfig{
		ModelPath:            modelPath,
		SampleRate:           audio.TargetRate,
		Threshold:            0.5,
		MinSilenceDurationMs: 250,
		SpeechPadMs:          30,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create speech detector: %w", err)
	}
	log.Info().Str("model_path", modelPath).Msg("Silero VAD loaded")
	return &Silero{detector: sd}, nil
}

// Detect returns the speech intervals found in the clip. No speech is
// an empty slice, not an error.
func (s *Silero) Detect(ctx context.Context, clip *audio.Clip) ([]audio.Segment, error) {
	if clip == nil || len(clip.Samples) == 0 {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := s.detector.Detect(clip.Samples)
	if err != nil {
		return nil, fmt.Errorf("failed to detect speech segments: %w", err)
	}
	if err := s.detector.Reset(); err != nil {
		log.Warn().Err(err).Msg("Failed to reset VAD state")
	}

	segments := make([]audio.Segment, 0, len(raw))
	for _, seg := range raw {
		end := seg.SpeechEndAt
		if end <= 0 {
			// Zero end means speech ran to the end of the clip.
			end = clip.Duration()
		}
		if end <= seg.SpeechStartAt {
			continue
		}
		segments = append(segments, audio.Segment{Start: seg.SpeechStartAt, End: end})
	}
	return segments, nil
}

// Close releases the detector.
func (s *Silero) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.detector != nil {
		return s.detector.Destroy()
	}
	return nil
}
