package analyzer

import (
	"time"

	"github.com/google/uuid"

	"github.com/LeeJaeHaeng/voiceshield/internal/demographics"
	"github.com/LeeJaeHaeng/voiceshield/internal/fusion"
	"github.com/LeeJaeHaeng/voiceshield/internal/imagescan"
	"github.com/LeeJaeHaeng/voiceshield/internal/risk"
	"github.com/LeeJaeHaeng/voiceshield/internal/transcribe"
	"github.com/LeeJaeHaeng/voiceshield/internal/voiceid"
)

// SpeakerReport is one diarized speaker with their inferred
// demographics.
type SpeakerReport struct {
	ID            string                  `json:"id"`
	TotalDuration float64                 `json:"total_duration"`
	SegmentCount  int                     `json:"segment_count"`
	Demographics  demographics.Prediction `json:"demographics"`
}

// AudioDetails are the auxiliary spectral indicators surfaced alongside
// the verdict for operator review.
type AudioDetails struct {
	FrequencyScore int     `json:"frequency_score"`
	TemporalScore  int     `json:"temporal_score"`
	Duration       float64 `json:"duration"`
}

// AudioResult is the full analysis of one audio clip.
type AudioResult struct {
	ID             uuid.UUID         `json:"id"`
	Verdict        fusion.Verdict    `json:"verdict"`
	Details        AudioDetails      `json:"details"`
	Speakers       []SpeakerReport   `json:"speakers"`
	PrimarySpeaker *voiceid.Match    `json:"primary_speaker,omitempty"`
	Risk           *risk.Assessment  `json:"risk,omitempty"`
	Transcript     []transcribe.Line `json:"transcript,omitempty"`
	AnalyzedAt     time.Time         `json:"analyzed_at"`
}

// ImageResult is the full analysis of one image.
type ImageResult struct {
	ID            uuid.UUID          `json:"id"`
	Verdict       fusion.Verdict     `json:"verdict"`
	ELAScore      float64            `json:"ela_score"`
	FFTScore      float64            `json:"fft_score"`
	FFTSuspicious bool               `json:"fft_suspicious"`
	Regions       []imagescan.Region `json:"regions,omitempty"`
	ELAJPEG       string             `json:"ela_jpeg,omitempty"`       // base64
	AnnotatedJPEG string             `json:"annotated_jpeg,omitempty"` // base64
	AnalyzedAt    time.Time          `json:"analyzed_at"`
}

// Strip returns a copy without the embedded image payloads, the form
// persisted to the analysis log.
func (r ImageResult) Strip() ImageResult {
	r.ELAJPEG = ""
	r.AnnotatedJPEG = ""
	return r
}
