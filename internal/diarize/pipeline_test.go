package diarize

import (
	"context"
	"errors"
	"testing"

	"github.com/LeeJaeHaeng/voiceshield/internal/audio"
)

type fakeVAD struct {
	segments []audio.Segment
	err      error
}

func (f *fakeVAD) Detect(ctx context.Context, clip *audio.Clip) ([]audio.Segment, error) {
	return f.segments, f.err
}

// fakeEmbedder returns a fixed vector per segment start time so cluster
// membership is fully controlled by the test.
type fakeEmbedder struct {
	vectors map[float64][]float64
	err     error
}

func (f *fakeEmbedder) Embed(ctx context.Context, clip *audio.Clip) ([]float64, error) {
	if f.err != nil {
		return nil, f.err
	}
	key := float64(len(clip.Samples)) / float64(clip.SampleRate)
	if v, ok := f.vectors[key]; ok {
		return v, nil
	}
	return []float64{0, 0}, nil
}

func testClip(seconds float64) *audio.Clip {
	return &audio.Clip{
		Samples:    make([]float32, int(seconds*float64(audio.TargetRate))),
		SampleRate: audio.TargetRate,
	}
}

func TestRunNoSpeech(t *testing.T) {
	p := New(&fakeVAD{}, &fakeEmbedder{})
	clusters, err := p.Run(context.Background(), testClip(10), 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(clusters) != 0 {
		t.Fatalf("expected empty result, got %d clusters", len(clusters))
	}
}

func TestRunMissingModels(t *testing.T) {
	p := New(nil, nil)
	if _, err := p.Run(context.Background(), testClip(10), 0); err == nil {
		t.Fatal("expected error without models")
	}
}

func TestRunVADError(t *testing.T) {
	p := New(&fakeVAD{err: errors.New("boom")}, &fakeEmbedder{})
	if _, err := p.Run(context.Background(), testClip(10), 0); err == nil {
		t.Fatal("expected VAD error to propagate")
	}
}

func TestRunDropsShortSegments(t *testing.T) {
	vad := &fakeVAD{segments: []audio.Segment{
		{Start: 0, End: 0.3}, // below the minimum
		{Start: 1, End: 2},
	}}
	p := New(vad, &fakeEmbedder{})
	clusters, err := p.Run(context.Background(), testClip(10), 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(clusters) != 1 || len(clusters[0].Segments) != 1 {
		t.Fatalf("clusters = %+v", clusters)
	}
	if clusters[0].Segments[0].Start != 1 {
		t.Fatalf("kept wrong segment: %+v", clusters[0].Segments[0])
	}
}

func TestRunSingleEmbeddingSingleCluster(t *testing.T) {
	vad := &fakeVAD{segments: []audio.Segment{{Start: 0, End: 1}}}
	p := New(vad, &fakeEmbedder{})
	clusters, err := p.Run(context.Background(), testClip(10), 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(clusters) != 1 {
		t.Fatalf("expected 1 cluster, got %d", len(clusters))
	}
	if clusters[0].ID != "Speaker 1" {
		t.Fatalf("ID = %q", clusters[0].ID)
	}
}

func TestRunTwoSpeakers(t *testing.T) {
	// Four segments with distinct durations so the fake embedder can
	// key on them: two tight groups in embedding space.
	vad := &fakeVAD{segments: []audio.Segment{
		{Start: 0, End: 1},
		{Start: 2, End: 4},
		{Start: 5, End: 8},
		{Start: 9, End: 13},
	}}
	emb := &fakeEmbedder{vectors: map[float64][]float64{
		1: {0, 0},
		2: {0.1, 0},
		3: {10, 10},
		4: {10.1, 10},
	}}
	p := New(vad, emb)
	clusters, err := p.Run(context.Background(), testClip(20), 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(clusters) != 2 {
		t.Fatalf("expected 2 clusters, got %d", len(clusters))
	}
	if clusters[0].ID != "Speaker 1" || clusters[1].ID != "Speaker 2" {
		t.Fatalf("IDs = %q, %q", clusters[0].ID, clusters[1].ID)
	}
	if len(clusters[0].Segments) != 2 || clusters[0].Segments[0].Start != 0 {
		t.Fatalf("cluster 1 = %+v", clusters[0].Segments)
	}
	if len(clusters[1].Segments) != 2 || clusters[1].Segments[0].Start != 5 {
		t.Fatalf("cluster 2 = %+v", clusters[1].Segments)
	}
	if clusters[0].TotalDuration != 3 || clusters[1].TotalDuration != 7 {
		t.Fatalf("durations = %v, %v", clusters[0].TotalDuration, clusters[1].TotalDuration)
	}
}

func TestRunClusterOrderingAndAudio(t *testing.T) {
	vad := &fakeVAD{segments: []audio.Segment{
		{Start: 0, End: 1},
		{Start: 2, End: 4},
	}}
	p := New(vad, &fakeEmbedder{})
	clusters, err := p.Run(context.Background(), testClip(10), 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(clusters) != 1 {
		t.Fatalf("expected 1 cluster, got %d", len(clusters))
	}
	c := clusters[0]
	if c.Segments[0].Start > c.Segments[1].Start {
		t.Fatal("segments not in start order")
	}
	wantSamples := 3 * audio.TargetRate
	if len(c.Audio.Samples) != wantSamples {
		t.Fatalf("concatenated audio = %d samples, want %d", len(c.Audio.Samples), wantSamples)
	}
}

func TestAgglomerateDeterministic(t *testing.T) {
	vectors := [][]float64{
		{0, 0}, {0.1, 0}, {10, 10}, {10.1, 10}, {0.05, 0.05},
	}
	first := agglomerate(vectors, 2)
	for i := 0; i < 10; i++ {
		if got := agglomerate(vectors, 2); !equalInts(got, first) {
			t.Fatalf("run %d differs: %v vs %v", i, got, first)
		}
	}
	// The two tight groups must separate.
	if first[0] != first[1] || first[0] != first[4] {
		t.Fatalf("near points split: %v", first)
	}
	if first[2] != first[3] {
		t.Fatalf("far pair split: %v", first)
	}
	if first[0] == first[2] {
		t.Fatalf("groups merged: %v", first)
	}
}

func TestAgglomerateSingleCluster(t *testing.T) {
	vectors := [][]float64{{0, 0}, {1, 1}, {2, 2}}
	labels := agglomerate(vectors, 1)
	for _, l := range labels {
		if l != labels[0] {
			t.Fatalf("labels = %v, want one cluster", labels)
		}
	}
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
