package risk

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestScoreEmptyTranscript(t *testing.T) {
	s := NewScorer(nil)
	a := s.Score(context.Background(), "   ")
	if a.RiskScore != 0 || a.Transcript != "" {
		t.Fatalf("assessment = %+v, want zero", a)
	}
}

func TestScoreNoKeywords(t *testing.T) {
	s := NewScorer(nil)
	a := s.Score(context.Background(), "오늘 날씨가 좋네요")
	if a.RiskScore != 0 {
		t.Fatalf("score = %d, want 0", a.RiskScore)
	}
	if len(a.DetectedKeywords) != 0 {
		t.Fatalf("keywords = %v", a.DetectedKeywords)
	}
}

func TestScoreHeavyKeywordFloor(t *testing.T) {
	s := NewScorer(nil)
	// One weight-35 keyword alone escalates to the floor of 60.
	a := s.Score(context.Background(), "여기는 경찰입니다")
	if a.RiskScore != 60 {
		t.Fatalf("score = %d, want floor 60", a.RiskScore)
	}
	if len(a.DetectedKeywords) != 1 || a.DetectedKeywords[0] != "경찰" {
		t.Fatalf("keywords = %v", a.DetectedKeywords)
	}
}

func TestScoreFamilyKeywordFloor(t *testing.T) {
	s := NewScorer(nil)
	a := s.Score(context.Background(), "가족이 위험합니다")
	if a.RiskScore != 35 {
		t.Fatalf("score = %d, want floor 35", a.RiskScore)
	}
}

func TestScoreCap(t *testing.T) {
	s := NewScorer(nil)
	a := s.Score(context.Background(), "검찰입니다 계좌에서 송금하시고 비밀번호를 알려주세요 상품권도 필요합니다")
	if a.RiskScore != 100 {
		t.Fatalf("score = %d, want cap 100", a.RiskScore)
	}
}

func TestScoreWhitespaceEvasion(t *testing.T) {
	s := NewScorer(nil)
	a := s.Score(context.Background(), "지금 바로 송 금 해주세요")
	found := false
	for _, k := range a.DetectedKeywords {
		if k == "송금" {
			found = true
		}
	}
	if !found {
		t.Fatalf("split keyword not detected, keywords = %v", a.DetectedKeywords)
	}
}

func TestScoreKeywordCountedOnce(t *testing.T) {
	s := NewScorer(nil)
	a := s.Score(context.Background(), "대출 대출 대출")
	if len(a.DetectedKeywords) != 1 {
		t.Fatalf("keywords = %v, want one entry", a.DetectedKeywords)
	}
	if a.RiskScore != 60 {
		t.Fatalf("score = %d, want floor 60 from a single weight-25 hit", a.RiskScore)
	}
}

type fakeSummarizer struct {
	out string
	err error
}

func (f *fakeSummarizer) Summarize(ctx context.Context, text string, maxLen, minLen int) (string, error) {
	return f.out, f.err
}

func TestSummaryShortTranscriptVerbatim(t *testing.T) {
	s := NewScorer(&fakeSummarizer{out: "should not be used"})
	a := s.Score(context.Background(), "짧은 통화")
	if a.Summary != "짧은 통화" {
		t.Fatalf("summary = %q", a.Summary)
	}
}

func TestSummaryLongTranscriptUsesModel(t *testing.T) {
	s := NewScorer(&fakeSummarizer{out: "모델 요약"})
	long := strings.Repeat("보이스피싱 의심 통화 내용입니다 ", 10)
	a := s.Score(context.Background(), long)
	if a.Summary != "모델 요약" {
		t.Fatalf("summary = %q", a.Summary)
	}
}

func TestSummaryFallbackOnModelError(t *testing.T) {
	s := NewScorer(&fakeSummarizer{err: errors.New("quota")})
	long := strings.Repeat("가", 80)
	a := s.Score(context.Background(), long)
	want := strings.Repeat("가", 50) + "..."
	if a.Summary != want {
		t.Fatalf("summary = %q, want truncated prefix", a.Summary)
	}
}

func TestSummaryFallbackWithoutModel(t *testing.T) {
	s := NewScorer(nil)
	long := strings.Repeat("나", 60)
	a := s.Score(context.Background(), long)
	want := strings.Repeat("나", 50) + "..."
	if a.Summary != want {
		t.Fatalf("summary = %q", a.Summary)
	}
}
