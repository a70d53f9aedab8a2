// Package vosk adapts the offline Vosk recognizer to the speech-to-text
// contract.
package vosk

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	vosk "github.com/alphacep/vosk-api/go"
	"github.com/rs/zerolog/log"

	"github.com/LeeJaeHaeng/voiceshield/internal/audio"
)

type Transcriber struct {
	mu         sync.Mutex
	model      *vosk.VoskModel
	sampleRate int
}

type voskResult struct {
	Text string `json:"text"`
}

// New loads the Vosk model from modelPath. The model is shared; a fresh
// recognizer is created per transcription so calls never leak partial
// state into each other.
func New(modelPath string, sampleRate int) (*Transcriber, error) {
	log.Info().Str("model_path", modelPath).Msg("Loading Vosk model")

	model, err := vosk.NewModel(modelPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load Vosk model from %s: %w", modelPath, err)
	}

	log.Info().Msg("Vosk model loaded successfully")
	return &Transcriber{model: model, sampleRate: sampleRate}, nil
}

func (t *Transcriber) Transcribe(ctx context.Context, clip *audio.Clip) (string, error) {
	if clip == nil || len(clip.Samples) == 0 {
		return "", nil
	}

	// The cgo recognizer is not safe for concurrent use.
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, err := vosk.NewRecognizer(t.model, float64(t.sampleRate))
	if err != nil {
		return "", fmt.Errorf("failed to create Vosk recognizer: %w", err)
	}
	defer rec.Free()

	pcm := make([]byte, len(clip.Samples)*2)
	for i, sample := range clip.Samples {
		if sample > 1 {
			sample = 1
		} else if sample < -1 {
			sample = -1
		}
		v := int16(sample * 32767)
		pcm[i*2] = byte(v)
		pcm[i*2+1] = byte(v >> 8)
	}

	if rec.AcceptWaveform(pcm) == -1 {
		return "", fmt.Errorf("failed to process audio")
	}

	var result voskResult
	if err := json.Unmarshal([]byte(rec.FinalResult()), &result); err != nil {
		log.Warn().Err(err).Msg("Failed to parse Vosk result")
		return "", nil
	}

	log.Debug().
		Int("samples", len(clip.Samples)).
		Int("chars", len(result.Text)).
		Msg("Vosk transcription completed")
	return result.Text, nil
}

func (t *Transcriber) Close() error {
	if t.model != nil {
		t.model.Free()
	}
	return nil
}
