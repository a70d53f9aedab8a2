// Package analyzer orchestrates the analysis pipelines: deepfake
// fusion, diarization, demographics, voice identification, contextual
// risk and image forensics.
package analyzer

import (
	"context"
	"image"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/LeeJaeHaeng/voiceshield/internal/audio"
	"github.com/LeeJaeHaeng/voiceshield/internal/demographics"
	"github.com/LeeJaeHaeng/voiceshield/internal/diarize"
	"github.com/LeeJaeHaeng/voiceshield/internal/dsp"
	"github.com/LeeJaeHaeng/voiceshield/internal/fusion"
	"github.com/LeeJaeHaeng/voiceshield/internal/imagescan"
	"github.com/LeeJaeHaeng/voiceshield/internal/models"
	"github.com/LeeJaeHaeng/voiceshield/internal/risk"
	"github.com/LeeJaeHaeng/voiceshield/internal/transcribe"
	"github.com/LeeJaeHaeng/voiceshield/internal/voiceid"
)

// AnalysisLog receives stripped results for the persistent audit trail.
type AnalysisLog interface {
	AppendLog(record any) error
}

// Analyzer wires the detection components together. Only the primary
// audio classifier is mandatory; every other collaborator degrades to
// an absent section in the result.
type Analyzer struct {
	registry *models.Registry
	audioT   fusion.AudioThresholds
	imageT   fusion.ImageThresholds

	mel      *dsp.MelExtractor
	diarizer *diarize.Pipeline
	voter    *demographics.Voter
	matcher  *voiceid.Matcher
	scorer   *risk.Scorer
	segments *transcribe.SegmentTranscriber
	audit    AnalysisLog
}

// New creates an analyzer over the model registry. matcher and audit
// may be nil.
func New(registry *models.Registry, matcher *voiceid.Matcher, audit AnalysisLog) *Analyzer {
	return &Analyzer{
		registry: registry,
		audioT:   fusion.DefaultAudioThresholds(),
		imageT:   fusion.DefaultImageThresholds(),
		mel:      dsp.NewMelExtractor(dsp.DefaultMelConfig()),
		diarizer: diarize.New(registry.VAD, registry.Embedder),
		voter:    demographics.NewVoter(registry.AgeGender),
		matcher:  matcher,
		scorer:   risk.NewScorer(registry.Summarizer),
		segments: transcribe.NewSegmentTranscriber(registry.STT),
		audit:    audit,
	}
}

// AnalyzeAudio runs the full audio pipeline on the clip. numSpeakers
// fixes the diarization cluster count when positive.
func (a *Analyzer) AnalyzeAudio(ctx context.Context, clip *audio.Clip, numSpeakers int) (*AudioResult, error) {
	if err := a.registry.RequireAudio(); err != nil {
		return nil, err
	}

	mel, err := a.mel.Extract(clip)
	if err != nil {
		return nil, err
	}
	primary, err := a.registry.Audio.Predict(ctx, mel)
	if err != nil {
		return nil, err
	}

	var secondary *float64
	if a.registry.SecondaryAudio != nil {
		p, err := a.registry.SecondaryAudio.Predict(ctx, clip)
		if err != nil {
			log.Warn().Err(err).Msg("Secondary classifier failed, using primary only")
		} else {
			secondary = &p
		}
	}

	result := &AudioResult{
		ID:      uuid.New(),
		Verdict: fusion.FuseAudio(a.audioT, primary, secondary),
		Details: AudioDetails{
			FrequencyScore: mel.FrequencyScore(),
			TemporalScore:  mel.TemporalScore(),
			Duration:       clip.Duration(),
		},
		AnalyzedAt: time.Now(),
	}

	clusters := a.diarizeClip(ctx, clip, numSpeakers)
	result.Speakers = a.speakerReports(ctx, clip, clusters)
	result.PrimarySpeaker = a.identifyPrimary(ctx, clip, clusters)
	a.assessContext(ctx, clip, clusters, result)

	if a.audit != nil {
		if err := a.audit.AppendLog(result); err != nil {
			log.Warn().Err(err).Msg("Failed to persist analysis record")
		}
	}

	log.Info().
		Str("id", result.ID.String()).
		Bool("positive", result.Verdict.Positive).
		Float64("confidence", result.Verdict.Confidence).
		Int("speakers", len(result.Speakers)).
		Msg("Audio analysis completed")
	return result, nil
}

// diarizeClip runs speaker separation when the speaker models are
// loaded. Failures degrade to an empty speaker list.
func (a *Analyzer) diarizeClip(ctx context.Context, clip *audio.Clip, numSpeakers int) []diarize.Cluster {
	if a.registry.VAD == nil || a.registry.Embedder == nil {
		return nil
	}
	clusters, err := a.diarizer.Run(ctx, clip, numSpeakers)
	if err != nil {
		log.Warn().Err(err).Msg("Diarization failed, continuing without speakers")
		return nil
	}
	return clusters
}

// speakerReports attaches a demographic estimate to each cluster. When
// a cluster's own audio yields nothing, the whole clip is used as
// fallback material.
func (a *Analyzer) speakerReports(ctx context.Context, clip *audio.Clip, clusters []diarize.Cluster) []SpeakerReport {
	if len(clusters) == 0 {
		// No diarization (speaker models absent or no usable speech):
		// still estimate demographics over the whole clip.
		if a.registry.AgeGender == nil {
			return nil
		}
		return []SpeakerReport{{
			ID:            "Speaker 1",
			TotalDuration: clip.Duration(),
			Demographics:  a.voter.Vote(ctx, clip),
		}}
	}

	reports := make([]SpeakerReport, 0, len(clusters))
	for _, c := range clusters {
		pred := a.voter.Vote(ctx, c.Audio)
		if pred.Gender == demographics.GenderUnknown {
			pred = a.voter.Vote(ctx, clip)
		}
		reports = append(reports, SpeakerReport{
			ID:            c.ID,
			TotalDuration: c.TotalDuration,
			SegmentCount:  len(c.Segments),
			Demographics:  pred,
		})
	}
	return reports
}

// identifyPrimary matches the longest-speaking cluster (or the whole
// clip when diarization produced nothing) against the voice registry.
func (a *Analyzer) identifyPrimary(ctx context.Context, clip *audio.Clip, clusters []diarize.Cluster) *voiceid.Match {
	if a.matcher == nil {
		return nil
	}

	target := clip
	if longest := longestCluster(clusters); longest != nil {
		target = longest.Audio
	}

	match, err := a.matcher.Identify(ctx, target)
	if err != nil {
		log.Warn().Err(err).Msg("Voice identification failed")
		return nil
	}
	return &match
}

func longestCluster(clusters []diarize.Cluster) *diarize.Cluster {
	var best *diarize.Cluster
	for i := range clusters {
		if best == nil || clusters[i].TotalDuration > best.TotalDuration {
			best = &clusters[i]
		}
	}
	return best
}

// assessContext transcribes the clip, scores the transcript for
// voice-phishing indicators and builds the speaker-attributed lines.
func (a *Analyzer) assessContext(ctx context.Context, clip *audio.Clip, clusters []diarize.Cluster, result *AudioResult) {
	if a.registry.STT == nil {
		return
	}

	transcript, err := a.registry.STT.Transcribe(ctx, clip)
	if err != nil {
		log.Warn().Err(err).Msg("Transcription failed, skipping risk assessment")
		return
	}
	assessment := a.scorer.Score(ctx, transcript)
	if assessment.Transcript != "" {
		result.Risk = &assessment
	}
	result.Transcript = a.segments.Lines(ctx, clip, clusters)
}

// AnalyzeImage runs error level analysis, the frequency heuristic and
// every loaded image classifier, then fuses the signals.
func (a *Analyzer) AnalyzeImage(ctx context.Context, img image.Image) (*ImageResult, error) {
	ela, err := imagescan.AnalyzeELA(img)
	if err != nil {
		return nil, err
	}
	fft := imagescan.AnalyzeFFT(img)

	var scores []fusion.SourceScore
	for _, clf := range a.registry.Image {
		p, err := clf.Predict(ctx, img)
		if err != nil {
			log.Warn().Err(err).Str("model", clf.Name()).Msg("Image classifier failed")
			continue
		}
		scores = append(scores, fusion.SourceScore{Source: clf.Name(), Probability: p * 100})
	}

	signals := fusion.ImageSignals{
		ELA:           ela.Score,
		FFTSuspicious: fft.Suspicious,
		FFTScore:      fft.Score,
	}
	signals.AI, signals.HasAI = fusion.AggregateClassifiers(a.imageT, scores)

	result := &ImageResult{
		ID:            uuid.New(),
		Verdict:       fusion.FuseImage(a.imageT, signals, scores),
		ELAScore:      ela.Score,
		FFTScore:      fft.Score,
		FFTSuspicious: fft.Suspicious,
		AnalyzedAt:    time.Now(),
	}

	result.Regions = imagescan.ExtractRegions(ela.Diff)
	if encoded, err := imagescan.EncodeGray(ela.Diff); err != nil {
		log.Warn().Err(err).Msg("Failed to encode ELA map")
	} else {
		result.ELAJPEG = encoded
	}
	if annotated, err := imagescan.Annotate(img, result.Regions); err != nil {
		log.Warn().Err(err).Msg("Failed to annotate image")
	} else {
		result.AnnotatedJPEG = annotated
	}

	if a.audit != nil {
		if err := a.audit.AppendLog(result.Strip()); err != nil {
			log.Warn().Err(err).Msg("Failed to persist analysis record")
		}
	}

	log.Info().
		Str("id", result.ID.String()).
		Bool("positive", result.Verdict.Positive).
		Str("rule", result.Verdict.Rule).
		Msg("Image analysis completed")
	return result, nil
}
