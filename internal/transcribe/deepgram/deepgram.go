// Package deepgram adapts the Deepgram pre-recorded HTTP API to the
// speech-to-text contract.
package deepgram

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/rs/zerolog/log"

	"github.com/LeeJaeHaeng/voiceshield/internal/audio"
)

type Transcriber struct {
	apiKey   string
	model    string
	language string
	client   *http.Client
}

type deepgramResponse struct {
	Results struct {
		Channels []struct {
			Alternatives []struct {
				Transcript string  `json:"transcript"`
				Confidence float64 `json:"confidence"`
			} `json:"alternatives"`
		} `json:"channels"`
	} `json:"results"`
}

func New(apiKey, model, language string) *Transcriber {
	return &Transcriber{
		apiKey:   apiKey,
		model:    model,
		language: language,
		client:   &http.Client{},
	}
}

func (t *Transcriber) Transcribe(ctx context.Context, clip *audio.Clip) (string, error) {
	if clip == nil || len(clip.Samples) == 0 {
		return "", nil
	}

	wavData := pcmToWAV(clip.Samples, clip.SampleRate)

	params := url.Values{}
	if t.model != "" {
		params.Set("model", t.model)
	}
	params.Set("punctuate", "true")
	params.Set("smart_format", "true")
	params.Set("language", t.language)
	fullURL := "https://api.deepgram.com/v1/listen?" + params.Encode()

	log.Debug().
		Str("model", t.model).
		Int("audio_size_bytes", len(wavData)).
		Msg("Making Deepgram API request")

	req, err := http.NewRequestWithContext(ctx, "POST", fullURL, bytes.NewReader(wavData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+t.apiKey)
	req.Header.Set("Content-Type", "audio/*")

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("Deepgram API request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		log.Warn().
			Int("status_code", resp.StatusCode).
			Str("response_body", string(body)).
			Msg("Deepgram API error response")
		return "", fmt.Errorf("Deepgram API error %d: %s", resp.StatusCode, string(body))
	}

	var result deepgramResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if len(result.Results.Channels) == 0 ||
		len(result.Results.Channels[0].Alternatives) == 0 {
		return "", nil
	}

	alt := result.Results.Channels[0].Alternatives[0]
	log.Debug().
		Float64("confidence", alt.Confidence).
		Int("chars", len(alt.Transcript)).
		Msg("Deepgram transcription completed")
	return alt.Transcript, nil
}

func (t *Transcriber) Close() error { return nil }

func pcmToWAV(samples []float32, sampleRate int) []byte {
	buf := new(bytes.Buffer)

	buf.WriteString("RIFF")
	binary.Write(buf, binary.LittleEndian, uint32(36+len(samples)*2))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(buf, binary.LittleEndian, uint32(16))
	binary.Write(buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(buf, binary.LittleEndian, uint16(1)) // mono
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate*2)) // byte rate
	binary.Write(buf, binary.LittleEndian, uint16(2))            // block align
	binary.Write(buf, binary.LittleEndian, uint16(16))           // bits per sample

	buf.WriteString("data")
	binary.Write(buf, binary.LittleEndian, uint32(len(samples)*2))
	for _, sample := range samples {
		if sample > 1 {
			sample = 1
		} else if sample < -1 {
			sample = -1
		}
		binary.Write(buf, binary.LittleEndian, int16(sample*32767))
	}
	return buf.Bytes()
}
