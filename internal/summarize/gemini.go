// Package summarize condenses call transcripts through the Gemini API.
package summarize

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"
)

type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini creates a Gemini-backed summarizer.
func NewGemini(apiKey, model string) (*Gemini, error) {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &Gemini{client: client, model: model}, nil
}

// Summarize condenses text to between minLen and maxLen characters.
func (g *Gemini) Summarize(ctx context.Context, text string, maxLen, minLen int) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil
	}

	prompt := fmt.Sprintf(`You summarize phone call transcripts for a fraud review queue.
Summarize the following transcript in its own language, in one plain sentence
between %d and %d characters. Mention who is asking whom for what. Output only
the summary, no preamble.

TRANSCRIPT:
%s

SUMMARY:`, minLen, maxLen, text)

	genModel := g.client.GenerativeModel(g.model)
	resp, err := genModel.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate summary: %w", err)
	}
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no summary generated")
	}

	var summary strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			summary.WriteString(string(t))
		}
	}

	log.Debug().
		Int("transcript_length", len(text)).
		Int("summary_length", summary.Len()).
		Msg("Generated transcript summary")
	return strings.TrimSpace(summary.String()), nil
}

func (g *Gemini) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}
