// Package voiceid enrolls voice fingerprints and matches clips against
// them by cosine similarity.
package voiceid

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/floats"

	"github.com/LeeJaeHaeng/voiceshield/internal/audio"
	"github.com/LeeJaeHaeng/voiceshield/internal/dsp"
)

var (
	// ErrExtraction indicates no usable audio for a fingerprint.
	ErrExtraction = errors.New("could not extract voice fingerprint")
	// ErrNotFound indicates the named voice is not enrolled.
	ErrNotFound = errors.New("voice not found")
)

// UnknownSpeaker is reported when no enrolled voice matches well
// enough.
const UnknownSpeaker = "Unknown"

// fingerprintSeconds caps the audio used for a fingerprint.
const fingerprintSeconds = 10

// Store is the persistence collaborator for enrolled fingerprints.
// Reads may run concurrently; writes to the same name are serialized by
// the implementation.
type Store interface {
	GetFingerprint(name string) ([]float64, error)
	UpsertFingerprint(name string, fingerprint []float64) error
	ListNames() ([]string, error)
}

// Thresholds are the similarity cutoffs on the 0-100 scale.
type Thresholds struct {
	Verify   float64 // minimum similarity for a named verification
	Identify float64 // minimum best similarity before reporting Unknown
}

// DefaultThresholds returns the production matching cutoffs.
func DefaultThresholds() Thresholds {
	return Thresholds{Verify: 80, Identify: 70}
}

// Match is the outcome of verifying a clip against a named voice.
type Match struct {
	Name       string  `json:"name"`
	Similarity float64 `json:"similarity"`
	IsMatch    bool    `json:"is_match"`
}

// Matcher extracts fingerprints and compares them against the
// registry.
type Matcher struct {
	store Store
	mfcc  *dsp.MFCCExtractor
	t     Thresholds
}

// NewMatcher creates a matcher over the given store.
func NewMatcher(store Store, t Thresholds) *Matcher {
	return &Matcher{
		store: store,
		mfcc:  dsp.NewMFCCExtractor(dsp.DefaultMFCCConfig()),
		t:     t,
	}
}

// Fingerprint computes the 40-coefficient mean-MFCC fingerprint from up
// to 10 s of the clip.
func (m *Matcher) Fingerprint(clip *audio.Clip) ([]float64, error) {
	fp, err := m.mfcc.MeanMFCC(audio.Head(clip, fingerprintSeconds))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtraction, err)
	}
	return fp, nil
}

// Enroll stores the clip's fingerprint under name, overwriting any
// existing entry for that name.
func (m *Matcher) Enroll(ctx context.Context, name string, clip *audio.Clip) error {
	fp, err := m.Fingerprint(clip)
	if err != nil {
		return err
	}
	if err := m.store.UpsertFingerprint(name, fp); err != nil {
		return fmt.Errorf("failed to store fingerprint: %w", err)
	}
	log.Info().Str("name", name).Msg("Voice enrolled")
	return nil
}

// Verify compares the clip against the named enrolled voice.
func (m *Matcher) Verify(ctx context.Context, name string, clip *audio.Clip) (Match, error) {
	target, err := m.store.GetFingerprint(name)
	if err != nil {
		return Match{}, err
	}
	fp, err := m.Fingerprint(clip)
	if err != nil {
		return Match{}, err
	}
	sim := similarity(fp, target)
	return Match{Name: name, Similarity: sim, IsMatch: sim > m.t.Verify}, nil
}

// Identify compares the clip against every enrolled voice and returns
// the best match, or UnknownSpeaker when the best similarity falls
// below the identification threshold.
func (m *Matcher) Identify(ctx context.Context, clip *audio.Clip) (Match, error) {
	fp, err := m.Fingerprint(clip)
	if err != nil {
		return Match{}, err
	}

	names, err := m.store.ListNames()
	if err != nil {
		return Match{}, fmt.Errorf("failed to list voices: %w", err)
	}
	sort.Strings(names)

	best := Match{Name: UnknownSpeaker}
	for _, name := range names {
		target, err := m.store.GetFingerprint(name)
		if err != nil {
			log.Warn().Err(err).Str("name", name).Msg("Skipping unreadable fingerprint")
			continue
		}
		if sim := similarity(fp, target); sim > best.Similarity {
			best = Match{Name: name, Similarity: sim}
		}
	}
	if best.Similarity < m.t.Identify {
		best.Name = UnknownSpeaker
		best.IsMatch = false
		return best, nil
	}
	best.IsMatch = true
	return best, nil
}

// similarity is (1 - cosine distance) x 100.
func similarity(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	if n == 0 {
		return 0
	}
	na := floats.Norm(a[:n], 2)
	nb := floats.Norm(b[:n], 2)
	if na == 0 || nb == 0 {
		return 0
	}
	return floats.Dot(a[:n], b[:n]) / (na * nb) * 100
}
