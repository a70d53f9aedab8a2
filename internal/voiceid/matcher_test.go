package voiceid

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/LeeJaeHaeng/voiceshield/internal/audio"
)

type memStore struct {
	prints map[string][]float64
}

func newMemStore() *memStore {
	return &memStore{prints: map[string][]float64{}}
}

func (m *memStore) GetFingerprint(name string) ([]float64, error) {
	fp, ok := m.prints[name]
	if !ok {
		return nil, ErrNotFound
	}
	return fp, nil
}

func (m *memStore) UpsertFingerprint(name string, fp []float64) error {
	m.prints[name] = fp
	return nil
}

func (m *memStore) ListNames() ([]string, error) {
	names := make([]string, 0, len(m.prints))
	for name := range m.prints {
		names = append(names, name)
	}
	return names, nil
}

// toneClip synthesizes a deterministic clip from a few harmonics so
// fingerprints are stable across runs.
func toneClip(baseHz float64, seconds float64) *audio.Clip {
	n := int(seconds * float64(audio.TargetRate))
	samples := make([]float32, n)
	for i := range samples {
		t := float64(i) / float64(audio.TargetRate)
		v := 0.5*math.Sin(2*math.Pi*baseHz*t) +
			0.25*math.Sin(2*math.Pi*2*baseHz*t) +
			0.125*math.Sin(2*math.Pi*3*baseHz*t)
		samples[i] = float32(v)
	}
	return &audio.Clip{Samples: samples, SampleRate: audio.TargetRate}
}

func TestEnrollVerifyRoundtrip(t *testing.T) {
	store := newMemStore()
	m := NewMatcher(store, DefaultThresholds())
	clip := toneClip(220, 3)

	if err := m.Enroll(context.Background(), "alice", clip); err != nil {
		t.Fatal(err)
	}
	match, err := m.Verify(context.Background(), "alice", clip)
	if err != nil {
		t.Fatal(err)
	}
	if !match.IsMatch {
		t.Fatalf("same clip should verify, similarity = %v", match.Similarity)
	}
	if match.Similarity < 99 {
		t.Fatalf("similarity = %v, want near 100 for identical audio", match.Similarity)
	}
}

func TestVerifyUnknownName(t *testing.T) {
	m := NewMatcher(newMemStore(), DefaultThresholds())
	_, err := m.Verify(context.Background(), "nobody", toneClip(220, 3))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestIdentifyPicksBest(t *testing.T) {
	store := newMemStore()
	m := NewMatcher(store, DefaultThresholds())

	alice := toneClip(220, 3)
	bob := toneClip(700, 3)
	if err := m.Enroll(context.Background(), "alice", alice); err != nil {
		t.Fatal(err)
	}
	if err := m.Enroll(context.Background(), "bob", bob); err != nil {
		t.Fatal(err)
	}

	match, err := m.Identify(context.Background(), alice)
	if err != nil {
		t.Fatal(err)
	}
	if match.Name != "alice" || !match.IsMatch {
		t.Fatalf("match = %+v", match)
	}
	if match.Similarity < 95 {
		t.Fatalf("similarity = %v", match.Similarity)
	}
}

func TestIdentifyUnknownBelowThreshold(t *testing.T) {
	store := newMemStore()
	m := NewMatcher(store, DefaultThresholds())

	clip := toneClip(220, 3)
	fp, err := m.Fingerprint(clip)
	if err != nil {
		t.Fatal(err)
	}
	// An inverted fingerprint has similarity -100, far under the cutoff.
	inverted := make([]float64, len(fp))
	for i, v := range fp {
		inverted[i] = -v
	}
	if err := store.UpsertFingerprint("anti", inverted); err != nil {
		t.Fatal(err)
	}

	match, err := m.Identify(context.Background(), clip)
	if err != nil {
		t.Fatal(err)
	}
	if match.Name != UnknownSpeaker || match.IsMatch {
		t.Fatalf("match = %+v, want Unknown", match)
	}
}

func TestFingerprintTooShort(t *testing.T) {
	m := NewMatcher(newMemStore(), DefaultThresholds())
	short := &audio.Clip{Samples: make([]float32, 100), SampleRate: audio.TargetRate}
	if _, err := m.Fingerprint(short); !errors.Is(err, ErrExtraction) {
		t.Fatalf("err = %v, want ErrExtraction", err)
	}
}

func TestFingerprintLength(t *testing.T) {
	m := NewMatcher(newMemStore(), DefaultThresholds())
	fp, err := m.Fingerprint(toneClip(220, 3))
	if err != nil {
		t.Fatal(err)
	}
	if len(fp) != 40 {
		t.Fatalf("fingerprint length = %d, want 40", len(fp))
	}
}
