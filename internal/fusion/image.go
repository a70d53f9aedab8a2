package fusion

import "github.com/rs/zerolog/log"

// ImageThresholds holds the tunable constants of the image decision
// rules. All values are on the 0-100 scale.
type ImageThresholds struct {
	AIHigh           float64 // classifier mean alone decides
	AIModerate       float64 // classifier mean needs heuristic support
	ELASupport       float64 // ELA score corroborating a moderate classifier
	FFTSupport       float64 // frequency score corroborating a moderate classifier
	ELAHigh          float64 // ELA alone decides
	FFTHigh          float64 // frequency alone decides, with classifier corroboration
	AICorroboration  float64 // minimum classifier mean for the frequency rule
	VarianceLimit    float64 // classifier disagreement limit before discounting
	VarianceDiscount float64 // discount factor applied on strong disagreement
	FallbackELA      float64 // ELA threshold when no classifiers are loaded
	FallbackFFT      float64 // frequency threshold when no classifiers are loaded
}

// DefaultImageThresholds returns the production image decision
// constants.
func DefaultImageThresholds() ImageThresholds {
	return ImageThresholds{
		AIHigh:           70,
		AIModerate:       50,
		ELASupport:       45,
		FFTSupport:       70,
		ELAHigh:          65,
		FFTHigh:          80,
		AICorroboration:  30,
		VarianceLimit:    500,
		VarianceDiscount: 0.85,
		FallbackELA:      70,
		FallbackFFT:      85,
	}
}

// ImageSignals are the fusion inputs for one image: the aggregated
// classifier percentage (HasAI false when no classifier is loaded), the
// error-level score and the frequency-domain heuristic.
type ImageSignals struct {
	AI            float64
	HasAI         bool
	ELA           float64
	FFTSuspicious bool
	FFTScore      float64
}

// AggregateClassifiers averages the per-classifier percentages. When
// more than one classifier disagrees strongly (population variance
// above the limit) the mean is discounted before use. Returns ok=false
// when no classifier contributed.
func AggregateClassifiers(t ImageThresholds, scores []SourceScore) (float64, bool) {
	if len(scores) == 0 {
		return 0, false
	}
	var sum float64
	for _, s := range scores {
		sum += s.Probability
	}
	mean := sum / float64(len(scores))

	if len(scores) > 1 {
		var varSum float64
		for _, s := range scores {
			d := s.Probability - mean
			varSum += d * d
		}
		if varSum/float64(len(scores)) > t.VarianceLimit {
			log.Debug().Float64("mean", mean).Msg("Classifier disagreement, discounting mean")
			mean *= t.VarianceDiscount
		}
	}
	return mean, true
}

type imageRule struct {
	name  string
	match func(t ImageThresholds, in ImageSignals) bool
	apply func(t ImageThresholds, in ImageSignals) (bool, float64)
}

// imageRules is the priority-ordered decision policy used when at
// least one classifier is available. First match wins.
var imageRules = []imageRule{
	{
		name:  "classifier-high",
		match: func(t ImageThresholds, in ImageSignals) bool { return in.AI >= t.AIHigh },
		apply: func(t ImageThresholds, in ImageSignals) (bool, float64) {
			return true, in.AI
		},
	},
	{
		name: "classifier-moderate",
		match: func(t ImageThresholds, in ImageSignals) bool {
			return in.AI >= t.AIModerate
		},
		apply: func(t ImageThresholds, in ImageSignals) (bool, float64) {
			supported := in.ELA >= t.ELASupport ||
				(in.FFTSuspicious && in.FFTScore > t.FFTSupport)
			if !supported {
				return false, in.AI
			}
			return true, (in.AI + max(in.ELA, in.FFTScore)) / 2
		},
	},
	{
		name:  "ela-high",
		match: func(t ImageThresholds, in ImageSignals) bool { return in.ELA >= t.ELAHigh },
		apply: func(t ImageThresholds, in ImageSignals) (bool, float64) {
			return true, in.ELA
		},
	},
	{
		name: "frequency-corroborated",
		match: func(t ImageThresholds, in ImageSignals) bool {
			return in.FFTSuspicious && in.FFTScore > t.FFTHigh && in.AI > t.AICorroboration
		},
		apply: func(t ImageThresholds, in ImageSignals) (bool, float64) {
			return true, in.FFTScore
		},
	},
	{
		name:  "default-genuine",
		match: func(t ImageThresholds, in ImageSignals) bool { return true },
		apply: func(t ImageThresholds, in ImageSignals) (bool, float64) {
			return false, max(100-in.AI, 100-in.ELA)
		},
	},
}

// fallbackRules decide conservatively from heuristics alone when no
// classifier is loaded.
var fallbackRules = []imageRule{
	{
		name:  "fallback-ela",
		match: func(t ImageThresholds, in ImageSignals) bool { return in.ELA >= t.FallbackELA },
		apply: func(t ImageThresholds, in ImageSignals) (bool, float64) {
			return true, min(in.ELA*1.1, 90)
		},
	},
	{
		name: "fallback-frequency",
		match: func(t ImageThresholds, in ImageSignals) bool {
			return in.FFTSuspicious && in.FFTScore >= t.FallbackFFT
		},
		apply: func(t ImageThresholds, in ImageSignals) (bool, float64) {
			return true, in.FFTScore
		},
	},
	{
		name:  "fallback-genuine",
		match: func(t ImageThresholds, in ImageSignals) bool { return true },
		apply: func(t ImageThresholds, in ImageSignals) (bool, float64) {
			return false, max(100-in.ELA, 50)
		},
	},
}

// FuseImage runs the priority-ordered image decision policy over the
// available signals.
func FuseImage(t ImageThresholds, in ImageSignals, scores []SourceScore) Verdict {
	rules := imageRules
	if !in.HasAI {
		rules = fallbackRules
	}
	for _, r := range rules {
		if !r.match(t, in) {
			continue
		}
		positive, confidence := r.apply(t, in)
		log.Debug().
			Str("rule", r.name).
			Float64("ai", in.AI).
			Float64("ela", in.ELA).
			Float64("fft", in.FFTScore).
			Bool("positive", positive).
			Msg("Image fusion decided")
		return Verdict{
			Positive:   positive,
			Confidence: confidence,
			Score:      in.AI,
			Rule:       r.name,
			Scores:     scores,
		}
	}
	return Verdict{Scores: scores}
}
