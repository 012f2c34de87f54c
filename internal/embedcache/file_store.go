package embedcache

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/samplesearch/internal/config"
	"github.com/xxxsen/samplesearch/internal/filestore"
	"github.com/xxxsen/samplesearch/internal/model"
	appErr "github.com/xxxsen/samplesearch/internal/pkg/errors"
)

type fileBundleStore struct {
	store filestore.Store
	now   func() time.Time
}

func init() {
	Register("file", createFileBundleStore)
}

func createFileBundleStore(args interface{}) (BundleStore, error) {
	cfg := &config.FileStoreConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	store, err := filestore.New(*cfg)
	if err != nil {
		return nil, fmt.Errorf("init bundle file store: %w", err)
	}
	return NewFileBundleStore(store), nil
}

func NewFileBundleStore(store filestore.Store) BundleStore {
	return &fileBundleStore{store: store, now: time.Now}
}

func (s *fileBundleStore) Type() string {
	return "file"
}

func (s *fileBundleStore) Load(ctx context.Context, modelKey string) (*model.CachedModelBundle, bool) {
	name := BundleFileName(modelKey)
	logger := logutil.GetLogger(ctx).With(zap.String("model", modelKey), zap.String("file", name))
	rc, err := s.store.Open(ctx, name)
	if err != nil {
		if !appErr.IsNotFound(err) {
			logger.Warn("open embedding bundle failed", zap.Error(err))
		}
		return nil, false
	}
	defer rc.Close()
	raw, err := io.ReadAll(rc)
	if err != nil {
		logger.Warn("read embedding bundle failed", zap.Error(err))
		return nil, false
	}
	bundle := &model.CachedModelBundle{}
	if err := json.Unmarshal(raw, bundle); err != nil {
		logger.Warn("embedding bundle is not valid json", zap.Error(err))
		return nil, false
	}
	if bundle.TextEmbeddings == nil {
		bundle.TextEmbeddings = map[string][]float32{}
	}
	logger.Debug("embedding bundle loaded", zap.Int("audio_count", len(bundle.AudioEmbeddings)))
	return bundle, true
}

func (s *fileBundleStore) Save(ctx context.Context, modelKey string, audio []model.AudioEmbedding, text map[string][]float32) error {
	bundle := newBundle(modelKey, audio, text, s.now().UnixMilli())
	raw, err := json.MarshalIndent(bundle, "", "  ")
	if err != nil {
		return fmt.Errorf("encode embedding bundle: %w", err)
	}
	if err := s.store.Save(ctx, BundleFileName(modelKey), bytes.NewReader(raw), int64(len(raw))); err != nil {
		return fmt.Errorf("save embedding bundle: %w", err)
	}
	logutil.GetLogger(ctx).Info("embedding bundle saved",
		zap.String("model", modelKey),
		zap.Int("audio_count", len(bundle.AudioEmbeddings)),
		zap.Int("text_count", len(bundle.TextEmbeddings)),
	)
	return nil
}

func (s *fileBundleStore) Close() error {
	return nil
}
