package models

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"net/http"
	"time"

	"github.com/LeeJaeHaeng/voiceshield/internal/audio"
	"github.com/LeeJaeHaeng/voiceshield/internal/dsp"
)

// RemoteClient calls an inference sidecar that serves the pretrained
// models over HTTP. Each endpoint accepts JSON and responds with the
// model output; the core treats the responses as ready-made signals.
type RemoteClient struct {
	baseURL string
	c       *http.Client
}

// NewRemoteClient creates a client for the inference service at baseURL.
func NewRemoteClient(baseURL string) *RemoteClient {
	return &RemoteClient{
		baseURL: baseURL,
		c:       &http.Client{Timeout: 60 * time.Second},
	}
}

type probResponse struct {
	Probability float64 `json:"probability"`
}

type labelResponse struct {
	Label string `json:"label"`
}

type embeddingResponse struct {
	Embedding []float64 `json:"embedding"`
}

func (r *RemoteClient) post(ctx context.Context, path string, payload, out any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+path, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.c.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("inference %s %s: %s", path, resp.Status, string(body))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("inference %s decode: %w", path, err)
	}
	return nil
}

// MelClassifier returns an AudioClassifier backed by the /audio/mel
// endpoint of the inference service.
func (r *RemoteClient) MelClassifier() AudioClassifier {
	return &remoteMel{r}
}

type remoteMel struct{ c *RemoteClient }

func (m *remoteMel) Predict(ctx context.Context, mel *dsp.Mel) (float64, error) {
	req := struct {
		NumMels int         `json:"num_mels"`
		Frames  int         `json:"frames"`
		Data    [][]float64 `json:"data"`
	}{mel.NumMels, mel.Frames, mel.Data}
	var out probResponse
	if err := m.c.post(ctx, "/audio/mel", req, &out); err != nil {
		return 0, err
	}
	return out.Probability, nil
}

// WaveClassifier returns the optional secondary classifier backed by
// the /audio/wave endpoint.
func (r *RemoteClient) WaveClassifier() WaveformClassifier {
	return &remoteWave{r}
}

type remoteWave struct{ c *RemoteClient }

func (w *remoteWave) Predict(ctx context.Context, clip *audio.Clip) (float64, error) {
	req := struct {
		SampleRate int       `json:"sample_rate"`
		Samples    []float32 `json:"samples"`
	}{clip.SampleRate, clip.Samples}
	var out probResponse
	if err := w.c.post(ctx, "/audio/wave", req, &out); err != nil {
		return 0, err
	}
	return out.Probability, nil
}

// ImageDetector returns an ImageClassifier backed by the named model on
// the /image/{name} endpoint.
func (r *RemoteClient) ImageDetector(name string) ImageClassifier {
	return &remoteImage{r, name}
}

type remoteImage struct {
	c    *RemoteClient
	name string
}

func (m *remoteImage) Name() string { return m.name }

func (m *remoteImage) Predict(ctx context.Context, img image.Image) (float64, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 95}); err != nil {
		return 0, err
	}
	req := struct {
		ImageJPEG string `json:"image_jpeg"`
	}{base64.StdEncoding.EncodeToString(buf.Bytes())}
	var out probResponse
	if err := m.c.post(ctx, "/image/"+m.name, req, &out); err != nil {
		return 0, err
	}
	return out.Probability, nil
}

// AgeGender returns the demographic classifier backed by the
// /audio/age_gender endpoint.
func (r *RemoteClient) AgeGender() AgeGenderClassifier {
	return &remoteAgeGender{r}
}

type remoteAgeGender struct{ c *RemoteClient }

func (a *remoteAgeGender) Classify(ctx context.Context, clip *audio.Clip) (string, error) {
	req := struct {
		SampleRate int       `json:"sample_rate"`
		Samples    []float32 `json:"samples"`
	}{clip.SampleRate, clip.Samples}
	var out labelResponse
	if err := a.c.post(ctx, "/audio/age_gender", req, &out); err != nil {
		return "", err
	}
	return out.Label, nil
}

// Embedder returns the speaker embedding model backed by the
// /audio/embedding endpoint.
func (r *RemoteClient) Embedder() SpeakerEmbedder {
	return &remoteEmbedder{r}
}

type remoteEmbedder struct{ c *RemoteClient }

func (e *remoteEmbedder) Embed(ctx context.Context, clip *audio.Clip) ([]float64, error) {
	req := struct {
		SampleRate int       `json:"sample_rate"`
		Samples    []float32 `json:"samples"`
	}{clip.SampleRate, clip.Samples}
	var out embeddingResponse
	if err := e.c.post(ctx, "/audio/embedding", req, &out); err != nil {
		return nil, err
	}
	return out.Embedding, nil
}
