// Package risk scores a call transcript for voice-phishing indicators
// using a weighted keyword table, and summarizes long transcripts.
package risk

import (
	"context"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/LeeJaeHaeng/voiceshield/internal/models"
)

// keywordWeights maps voice-phishing trigger words to their severity
// weight. Impersonation of authorities, payment demands and coercion
// carry the heaviest weights.
var keywordWeights = map[string]int{
	"검찰":    50,
	"송금":    50,
	"납치":    50,
	"비밀번호":  40,
	"상품권":   40,
	"기프트카드": 40,
	"경찰":    35,
	"검사":    35,
	"계좌":    25,
	"보안":    25,
	"대출":    25,
	"신용":    25,
	"사고":    25,
	"어플":    25,
	"설치":    25,
	"가족":    15,
	"엄마":    10,
	"아빠":    10,
}

// summaryTrigger is the transcript length (in runes) above which a
// model summary is requested instead of a prefix.
const summaryTrigger = 50

// Assessment is the contextual risk result for one transcript.
type Assessment struct {
	Transcript       string   `json:"transcript"`
	Summary          string   `json:"summary"`
	DetectedKeywords []string `json:"detected_keywords"`
	RiskScore        int      `json:"risk_score"`
}

// Scorer evaluates transcripts. The summarizer may be nil; long
// transcripts then fall back to a truncated prefix.
type Scorer struct {
	summarizer models.Summarizer
}

// NewScorer creates a scorer over the optional summarizer.
func NewScorer(summarizer models.Summarizer) *Scorer {
	return &Scorer{summarizer: summarizer}
}

// Score assesses the transcript. An empty transcript yields a zero
// assessment; the caller decides whether that is worth reporting.
func (s *Scorer) Score(ctx context.Context, transcript string) Assessment {
	if strings.TrimSpace(transcript) == "" {
		return Assessment{}
	}

	keywords, score := matchKeywords(transcript)
	return Assessment{
		Transcript:       transcript,
		Summary:          s.summarize(ctx, transcript),
		DetectedKeywords: keywords,
		RiskScore:        score,
	}
}

// matchKeywords scans the transcript for each table entry, counting a
// keyword at most once. Matching runs against both the raw text and a
// whitespace-stripped copy so split words like "송 금" still hit.
// Heavy keywords pull the total up to an escalation floor before the
// final cap at 100.
func matchKeywords(transcript string) ([]string, int) {
	stripped := strings.Join(strings.Fields(transcript), "")

	var keywords []string
	score := 0
	maxWeight := 0
	for word, weight := range keywordWeights {
		if !strings.Contains(transcript, word) && !strings.Contains(stripped, word) {
			continue
		}
		keywords = append(keywords, word)
		score += weight
		if weight > maxWeight {
			maxWeight = weight
		}
	}
	sort.Strings(keywords)

	switch {
	case maxWeight >= 20 && score < 60:
		score = 60
	case maxWeight >= 15 && score < 35:
		score = 35
	}
	if score > 100 {
		score = 100
	}
	return keywords, score
}

func (s *Scorer) summarize(ctx context.Context, transcript string) string {
	runes := []rune(transcript)
	if len(runes) <= summaryTrigger {
		return transcript
	}

	if s.summarizer != nil {
		maxLen := min(100, len(runes)/2)
		minLen := min(20, len(runes)/4)
		summary, err := s.summarizer.Summarize(ctx, transcript, maxLen, minLen)
		if err == nil && strings.TrimSpace(summary) != "" {
			return summary
		}
		log.Warn().Err(err).Msg("Summarization failed, truncating transcript")
	}
	return string(runes[:summaryTrigger]) + "..."
}
