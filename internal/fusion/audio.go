package fusion

import "github.com/rs/zerolog/log"

// AudioThresholds holds the tunable constants of the audio decision
// zones. The defaults were tuned empirically; change them through
// configuration, not control flow.
type AudioThresholds struct {
	HighConfidence  float64 // score at or above: confident deepfake
	Moderate        float64 // score at or above: deepfake with penalized confidence
	LowConfidence   float64 // score at or below: confident real
	AmbiguousCutoff float64 // tie-break inside the uncertain zone
	SecondaryWeight float64 // ensemble weight of the secondary classifier
}

// DefaultAudioThresholds returns the production decision zones.
func DefaultAudioThresholds() AudioThresholds {
	return AudioThresholds{
		HighConfidence:  0.70,
		Moderate:        0.55,
		LowConfidence:   0.30,
		AmbiguousCutoff: 0.50,
		SecondaryWeight: 0.30,
	}
}

type audioRule struct {
	name  string
	match func(t AudioThresholds, score float64) bool
	apply func(t AudioThresholds, score float64) (bool, float64)
}

// audioRules is the ordered audio decision policy. Order matters: the
// first matching rule decides.
var audioRules = []audioRule{
	{
		name: "high-confidence-fake",
		match: func(t AudioThresholds, s float64) bool { return s >= t.HighConfidence },
		apply: func(t AudioThresholds, s float64) (bool, float64) {
			return true, min(s*100, 99)
		},
	},
	{
		name: "moderate-fake",
		match: func(t AudioThresholds, s float64) bool { return s >= t.Moderate },
		apply: func(t AudioThresholds, s float64) (bool, float64) {
			// Penalized confidence in the moderate zone.
			return true, s * 85
		},
	},
	{
		name: "uncertain-zone",
		match: func(t AudioThresholds, s float64) bool { return s > t.LowConfidence },
		apply: func(t AudioThresholds, s float64) (bool, float64) {
			positive := s > t.AmbiguousCutoff
			return positive, max(s, 1-s) * 70
		},
	},
	{
		name: "high-confidence-real",
		match: func(t AudioThresholds, s float64) bool { return true },
		apply: func(t AudioThresholds, s float64) (bool, float64) {
			return false, min((1-s)*100, 99)
		},
	},
}

// FuseAudio combines the mandatory primary probability with the
// optional secondary one. secondary is nil when the secondary model is
// absent or its call failed; it then contributes nothing.
func FuseAudio(t AudioThresholds, primary float64, secondary *float64) Verdict {
	score := primary
	scores := []SourceScore{{Source: "primary", Probability: primary}}
	if secondary != nil {
		score = primary*(1-t.SecondaryWeight) + *secondary*t.SecondaryWeight
		scores = append(scores, SourceScore{Source: "secondary", Probability: *secondary})
	}

	for _, r := range audioRules {
		if !r.match(t, score) {
			continue
		}
		positive, confidence := r.apply(t, score)
		log.Debug().
			Str("rule", r.name).
			Float64("score", score).
			Bool("positive", positive).
			Msg("Audio fusion decided")
		return Verdict{
			Positive:   positive,
			Confidence: confidence,
			Score:      score,
			Rule:       r.name,
			Scores:     scores,
		}
	}
	// Unreachable: the last rule always matches.
	return Verdict{Score: score, Scores: scores}
}
