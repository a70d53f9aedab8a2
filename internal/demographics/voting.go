package demographics

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/LeeJaeHaeng/voiceshield/internal/audio"
	"github.com/LeeJaeHaeng/voiceshield/internal/models"
)

const (
	windowSeconds  = 5
	overlapSeconds = 2
	childAgeLimit  = 13
)

// Prediction is the aggregated demographic estimate for one speaker.
type Prediction struct {
	Gender   Gender `json:"gender"`
	AgeGroup string `json:"age_group"`
}

// Unknown is the prediction when nothing could be inferred.
func Unknown() Prediction {
	return Prediction{Gender: GenderUnknown, AgeGroup: "Unknown"}
}

// Voter aggregates chunk-level model labels into one prediction per
// speaker.
type Voter struct {
	model models.AgeGenderClassifier
}

// NewVoter creates a voter over the external age/gender model. The
// model may be nil; Vote then reports Unknown.
func NewVoter(model models.AgeGenderClassifier) *Voter {
	return &Voter{model: model}
}

// Vote splits the clip into 5 s windows with 2 s overlap (a single
// window when shorter), classifies each and aggregates: majority vote
// for gender with first-seen tie-break, mean of parsed ages bucketed to
// the decade. A mean age under 13 forces the Child class. Model
// failures degrade individual windows, never the whole vote.
func (v *Voter) Vote(ctx context.Context, clip *audio.Clip) Prediction {
	if v.model == nil || clip == nil || len(clip.Samples) == 0 {
		return Unknown()
	}

	var labels []Label
	for _, window := range audio.Windows(clip, windowSeconds, overlapSeconds) {
		raw, err := v.model.Classify(ctx, window)
		if err != nil {
			log.Warn().Err(err).Msg("Age/gender classification failed for window")
			continue
		}
		labels = append(labels, DecodeLabel(raw))
	}
	return aggregate(labels)
}

func aggregate(labels []Label) Prediction {
	counts := map[Gender]int{}
	var order []Gender
	var ageSum, ageN int

	for _, l := range labels {
		if l.Gender != GenderUnknown {
			if counts[l.Gender] == 0 {
				order = append(order, l.Gender)
			}
			counts[l.Gender]++
		}
		if l.HasAge {
			ageSum += l.Age
			ageN++
		}
	}

	out := Unknown()
	best := 0
	for _, g := range order { // first-seen order resolves ties
		if counts[g] > best {
			best = counts[g]
			out.Gender = g
		}
	}

	if ageN > 0 {
		mean := float64(ageSum) / float64(ageN)
		if mean < childAgeLimit {
			out.Gender = GenderChild
			out.AgeGroup = "Child"
		} else {
			out.AgeGroup = fmt.Sprintf("%ds", int(mean)/10*10)
		}
	}
	return out
}
