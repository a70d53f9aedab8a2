// Package diarize segments an audio stream into speaker turns: voice
// activity detection, per-segment speaker embeddings, deterministic
// clustering and speaker-grouped segment lists.
package diarize

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/LeeJaeHaeng/voiceshield/internal/audio"
	"github.com/LeeJaeHaeng/voiceshield/internal/models"
)

// MinSegmentSeconds is the shortest speech interval worth embedding.
// Anything shorter is discarded before clustering.
const MinSegmentSeconds = 0.5

// Cluster is one speaker's share of the clip: its member segments in
// start-time order and their concatenated audio for downstream
// demographic inference. Lifetime is one analysis request.
type Cluster struct {
	ID            string
	Segments      []audio.Segment
	Audio         *audio.Clip
	TotalDuration float64
}

// Pipeline runs VAD, embedding and clustering against the external
// speaker models.
type Pipeline struct {
	vad      models.VoiceActivityDetector
	embedder models.SpeakerEmbedder
}

// New creates a diarization pipeline over the given collaborators.
func New(vad models.VoiceActivityDetector, embedder models.SpeakerEmbedder) *Pipeline {
	return &Pipeline{vad: vad, embedder: embedder}
}

// Run diarizes the clip. numSpeakers > 0 fixes the cluster count;
// otherwise a heuristic picks 2 speakers when at least 4 usable
// segments exist, else 1, always capped at the number of embeddings.
// A clip with no detected speech yields an empty result, not an error.
func (p *Pipeline) Run(ctx context.Context, clip *audio.Clip, numSpeakers int) ([]Cluster, error) {
	if p.vad == nil || p.embedder == nil {
		return nil, fmt.Errorf("%w: speaker pipeline", models.ErrModelUnavailable)
	}

	intervals, err := p.vad.Detect(ctx, clip)
	if err != nil {
		return nil, fmt.Errorf("voice activity detection: %w", err)
	}
	if len(intervals) == 0 {
		log.Debug().Msg("No speech detected, empty diarization")
		return []Cluster{}, nil
	}

	var segments []audio.Segment
	var embeddings [][]float64
	for _, seg := range intervals {
		if seg.Duration() < MinSegmentSeconds {
			continue
		}
		emb, err := p.embedder.Embed(ctx, audio.Slice(clip, seg))
		if err != nil {
			log.Warn().Err(err).
				Float64("start", seg.Start).
				Float64("end", seg.End).
				Msg("Embedding failed, skipping segment")
			continue
		}
		segments = append(segments, seg)
		embeddings = append(embeddings, emb)
	}
	if len(embeddings) == 0 {
		return []Cluster{}, nil
	}

	k := numSpeakers
	if k <= 0 {
		// Phone calls usually carry two voices when there is enough
		// material to separate them.
		if len(embeddings) >= 4 {
			k = 2
		} else {
			k = 1
		}
	}
	if k > len(embeddings) {
		k = len(embeddings)
	}

	var labels []int
	if len(embeddings) < 2 {
		labels = make([]int, len(embeddings))
	} else {
		labels = agglomerate(embeddings, k)
	}

	return p.group(clip, segments, labels), nil
}

// group assembles labeled segments into speaker clusters ordered by
// first appearance in the clip.
func (p *Pipeline) group(clip *audio.Clip, segments []audio.Segment, labels []int) []Cluster {
	byLabel := map[int][]audio.Segment{}
	for i, seg := range segments {
		byLabel[labels[i]] = append(byLabel[labels[i]], seg)
	}

	type entry struct {
		first    float64
		segments []audio.Segment
	}
	entries := make([]entry, 0, len(byLabel))
	for _, segs := range byLabel {
		sort.Slice(segs, func(i, j int) bool { return segs[i].Start < segs[j].Start })
		entries = append(entries, entry{first: segs[0].Start, segments: segs})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].first < entries[j].first })

	clusters := make([]Cluster, 0, len(entries))
	for i, e := range entries {
		var total float64
		parts := make([]*audio.Clip, 0, len(e.segments))
		for _, seg := range e.segments {
			total += seg.Duration()
			parts = append(parts, audio.Slice(clip, seg))
		}
		clusters = append(clusters, Cluster{
			ID:            fmt.Sprintf("Speaker %d", i+1),
			Segments:      e.segments,
			Audio:         audio.Concat(parts...),
			TotalDuration: total,
		})
	}

	log.Debug().
		Int("segments", len(segments)).
		Int("speakers", len(clusters)).
		Msg("Diarization complete")
	return clusters
}
