package embedcache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/xxxsen/samplesearch/internal/config"
	"github.com/xxxsen/samplesearch/internal/model"
	appErr "github.com/xxxsen/samplesearch/internal/pkg/errors"
)

// BundleStore persists one CachedModelBundle per model key. Load reports a
// missing or unreadable bundle as not found instead of an error. Save
// replaces the whole bundle.
type BundleStore interface {
	Type() string
	Load(ctx context.Context, modelKey string) (*model.CachedModelBundle, bool)
	Save(ctx context.Context, modelKey string, audio []model.AudioEmbedding, text map[string][]float32) error
	Close() error
}

type Factory func(args interface{}) (BundleStore, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

func Register(name string, factory Factory) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" || factory == nil {
		return
	}
	registryMu.Lock()
	registry[key] = factory
	registryMu.Unlock()
}

func New(cfg config.CacheStoreConfig) (BundleStore, error) {
	key := strings.ToLower(strings.TrimSpace(cfg.Type))
	if key == "" {
		return nil, fmt.Errorf("cache_store.type is required")
	}
	registryMu.RLock()
	factory := registry[key]
	registryMu.RUnlock()
	if factory == nil {
		return nil, fmt.Errorf("unsupported cache store type: %s", cfg.Type)
	}
	return factory(cfg.Data)
}

func decodeConfig(args interface{}, dst interface{}) error {
	if args == nil {
		return fmt.Errorf("cache store config is required")
	}
	data, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encode cache store config: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode cache store config: %w", err)
	}
	return nil
}

// BundleFileName maps a model key such as "laion/larger_clap_music" to the
// file holding its bundle.
func BundleFileName(modelKey string) string {
	return strings.NewReplacer("/", "_", "\\", "_").Replace(modelKey) + ".json"
}

func newBundle(modelKey string, audio []model.AudioEmbedding, text map[string][]float32, ts int64) *model.CachedModelBundle {
	if audio == nil {
		audio = []model.AudioEmbedding{}
	}
	if text == nil {
		text = map[string][]float32{}
	}
	return &model.CachedModelBundle{
		ModelName:       modelKey,
		AudioEmbeddings: audio,
		TextEmbeddings:  text,
		Timestamp:       ts,
	}
}

// Lookup resolves every requested file and query from bundle. A single miss
// fails the whole lookup with ErrCacheIncomplete.
func Lookup(bundle *model.CachedModelBundle, files []string, queries []string) ([]model.AudioEmbedding, map[string][]float32, error) {
	if bundle == nil {
		return nil, nil, appErr.ErrCacheIncomplete
	}
	byName := make(map[string]model.AudioEmbedding, len(bundle.AudioEmbeddings))
	for _, item := range bundle.AudioEmbeddings {
		byName[item.FileName] = item
	}
	audio := make([]model.AudioEmbedding, 0, len(files))
	for _, name := range files {
		item, ok := byName[name]
		if !ok {
			return nil, nil, fmt.Errorf("no cached embedding for file %s: %w", name, appErr.ErrCacheIncomplete)
		}
		audio = append(audio, item)
	}
	text := make(map[string][]float32, len(queries))
	for _, q := range queries {
		vec, ok := bundle.TextEmbeddings[q]
		if !ok {
			return nil, nil, fmt.Errorf("no cached embedding for query %s: %w", q, appErr.ErrCacheIncomplete)
		}
		text[q] = vec
	}
	return audio, text, nil
}
