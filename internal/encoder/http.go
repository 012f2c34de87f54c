package encoder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	appErr "github.com/xxxsen/samplesearch/internal/pkg/errors"
)

type httpConfig struct {
	BaseURL        string `json:"base_url"`
	APIKey         string `json:"api_key"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

// httpEncoder talks to a CLAP inference sidecar.
type httpEncoder struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

type audioEmbedRequest struct {
	Model      string    `json:"model"`
	SampleRate int       `json:"sample_rate"`
	Samples    []float32 `json:"samples"`
}

type textEmbedRequest struct {
	Model string `json:"model"`
	Text  string `json:"text"`
}

type embedResponse struct {
	Embedding []float32 `json:"embedding"`
}

func init() {
	Register("http", createHTTPEncoder)
}

func createHTTPEncoder(args interface{}) (IEncoder, error) {
	cfg := &httpConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("encoder base_url is required")
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &httpEncoder{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: timeout},
	}, nil
}

func (e *httpEncoder) Name() string {
	return "http"
}

func (e *httpEncoder) EmbedAudio(ctx context.Context, model string, samples []float32, sampleRate int) ([]float32, error) {
	if len(samples) == 0 {
		return nil, appErr.ErrEmptyAudio
	}
	return e.post(ctx, "/embed/audio", audioEmbedRequest{Model: model, SampleRate: sampleRate, Samples: samples})
}

func (e *httpEncoder) EmbedText(ctx context.Context, model string, text string) ([]float32, error) {
	return e.post(ctx, "/embed/text", textEmbedRequest{Model: model, Text: text})
}

func (e *httpEncoder) post(ctx context.Context, path string, body interface{}) ([]float32, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if e.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.apiKey)
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("encoder request: %v: %w", err, appErr.ErrEncoderUnavailable)
	}
	defer resp.Body.Close()
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		raw, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("encoder request failed: %s: %s", resp.Status, strings.TrimSpace(string(raw)))
	}
	var out embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	if len(out.Embedding) == 0 {
		return nil, fmt.Errorf("encoder response has no embedding")
	}
	return out.Embedding, nil
}
