// Package transcribe turns diarized audio into speaker-attributed
// transcript lines through a pluggable speech-to-text backend.
package transcribe

import (
	"context"
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/LeeJaeHaeng/voiceshield/internal/audio"
	"github.com/LeeJaeHaeng/voiceshield/internal/diarize"
	"github.com/LeeJaeHaeng/voiceshield/internal/models"
)

// Line is one speaker turn of the conversation transcript.
type Line struct {
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Speaker string  `json:"speaker"`
	Text    string  `json:"text"`
}

// SegmentTranscriber transcribes each diarized segment separately so
// every line carries its speaker attribution.
type SegmentTranscriber struct {
	stt models.SpeechToText
}

// NewSegmentTranscriber creates a transcriber over the STT backend. The
// backend may be nil; Lines then returns nothing.
func NewSegmentTranscriber(stt models.SpeechToText) *SegmentTranscriber {
	return &SegmentTranscriber{stt: stt}
}

// Lines transcribes every segment of every cluster and returns the
// non-empty lines in chronological order. A failed segment is dropped
// with a warning, not fatal to the transcript.
func (s *SegmentTranscriber) Lines(ctx context.Context, clip *audio.Clip, clusters []diarize.Cluster) []Line {
	if s.stt == nil {
		return nil
	}

	var lines []Line
	for _, cluster := range clusters {
		for _, seg := range cluster.Segments {
			text, err := s.stt.Transcribe(ctx, audio.Slice(clip, seg))
			if err != nil {
				log.Warn().Err(err).
					Str("speaker", cluster.ID).
					Float64("start", seg.Start).
					Msg("Segment transcription failed")
				continue
			}
			if text == "" {
				continue
			}
			lines = append(lines, Line{
				Start:   seg.Start,
				End:     seg.End,
				Speaker: cluster.ID,
				Text:    text,
			})
		}
	}

	sort.Slice(lines, func(i, j int) bool { return lines[i].Start < lines[j].Start })
	return lines
}
