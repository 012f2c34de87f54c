package encoder

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	appErr "github.com/xxxsen/samplesearch/internal/pkg/errors"
)

// IEncoder is a client of an audio/text embedding model server.
type IEncoder interface {
	Name() string
	EmbedAudio(ctx context.Context, model string, samples []float32, sampleRate int) ([]float32, error)
	EmbedText(ctx context.Context, model string, text string) ([]float32, error)
}

// IModelEncoder is an IEncoder bound to one model.
type IModelEncoder interface {
	ModelName() string
	EmbedAudio(ctx context.Context, samples []float32, sampleRate int) ([]float32, error)
	EmbedText(ctx context.Context, text string) ([]float32, error)
}

type modelEncoder struct {
	enc   IEncoder
	model string
}

func Bind(enc IEncoder, model string) IModelEncoder {
	return &modelEncoder{enc: enc, model: model}
}

func (m *modelEncoder) ModelName() string {
	return m.model
}

func (m *modelEncoder) EmbedAudio(ctx context.Context, samples []float32, sampleRate int) ([]float32, error) {
	return m.enc.EmbedAudio(ctx, m.model, samples, sampleRate)
}

func (m *modelEncoder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	return m.enc.EmbedText(ctx, m.model, text)
}

// ModelMap maps public model keys to the identifiers the encoder serves.
type ModelMap map[string]string

func DefaultModelMap() ModelMap {
	return ModelMap{
		"laion/clap-htsat-unfused":  "Xenova/clap-htsat-unfused",
		"laion/larger_clap_general": "Xenova/larger_clap_general",
		"laion/larger_clap_music":   "Xenova/larger_clap_music_and_speech",
	}
}

func (m ModelMap) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (m ModelMap) Resolve(key string) (string, error) {
	if target, ok := m[key]; ok {
		return target, nil
	}
	return "", fmt.Errorf("model %s not supported, available: %s: %w",
		key, strings.Join(m.Keys(), ", "), appErr.ErrUnsupportedModel)
}

type Factory func(args interface{}) (IEncoder, error)

var registry = map[string]Factory{}

func Register(name string, factory Factory) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" || factory == nil {
		return
	}
	registry[key] = factory
}

func NewEncoder(name string, args interface{}) (IEncoder, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return nil, fmt.Errorf("encoder.provider is required")
	}
	factory := registry[key]
	if factory == nil {
		return nil, fmt.Errorf("unsupported encoder provider: %s", name)
	}
	return factory(args)
}

func decodeConfig(args interface{}, dst interface{}) error {
	if args == nil {
		return fmt.Errorf("encoder config is required")
	}
	data, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encode encoder config: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode encoder config: %w", err)
	}
	return nil
}
