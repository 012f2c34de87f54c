package embedcache

import (
	"context"
	"errors"
	"fmt"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/vmihailenco/msgpack/v5"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/samplesearch/internal/model"
)

const badgerKeyPrefix = "bundle:"

type badgerConfig struct {
	Dir      string `json:"dir"`
	InMemory bool   `json:"in_memory"`
}

type badgerBundleStore struct {
	db  *badger.DB
	now func() time.Time
}

func init() {
	Register("badger", createBadgerBundleStore)
}

func createBadgerBundleStore(args interface{}) (BundleStore, error) {
	cfg := &badgerConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	return NewBadgerBundleStore(cfg.Dir, cfg.InMemory)
}

func NewBadgerBundleStore(dir string, inMemory bool) (BundleStore, error) {
	if !inMemory && dir == "" {
		return nil, fmt.Errorf("badger cache store dir is required")
	}
	opts := badger.DefaultOptions(dir)
	if inMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts = opts.WithLogger(badgerLogger{l: logutil.GetLogger(context.Background()).Sugar()})
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &badgerBundleStore{db: db, now: time.Now}, nil
}

func (s *badgerBundleStore) Type() string {
	return "badger"
}

func (s *badgerBundleStore) Load(ctx context.Context, modelKey string) (*model.CachedModelBundle, bool) {
	logger := logutil.GetLogger(ctx).With(zap.String("model", modelKey))
	var raw []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(badgerKeyPrefix + modelKey))
		if err != nil {
			return err
		}
		raw, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if !errors.Is(err, badger.ErrKeyNotFound) {
			logger.Warn("read embedding bundle failed", zap.Error(err))
		}
		return nil, false
	}
	bundle := &model.CachedModelBundle{}
	if err := msgpack.Unmarshal(raw, bundle); err != nil {
		logger.Warn("decode embedding bundle failed", zap.Error(err))
		return nil, false
	}
	if bundle.TextEmbeddings == nil {
		bundle.TextEmbeddings = map[string][]float32{}
	}
	if bundle.AudioEmbeddings == nil {
		bundle.AudioEmbeddings = []model.AudioEmbedding{}
	}
	return bundle, true
}

func (s *badgerBundleStore) Save(ctx context.Context, modelKey string, audio []model.AudioEmbedding, text map[string][]float32) error {
	bundle := newBundle(modelKey, audio, text, s.now().UnixMilli())
	raw, err := msgpack.Marshal(bundle)
	if err != nil {
		return fmt.Errorf("encode embedding bundle: %w", err)
	}
	if err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(badgerKeyPrefix+modelKey), raw)
	}); err != nil {
		return fmt.Errorf("save embedding bundle: %w", err)
	}
	logutil.GetLogger(ctx).Info("embedding bundle saved",
		zap.String("model", modelKey),
		zap.Int("audio_count", len(bundle.AudioEmbeddings)),
		zap.Int("text_count", len(bundle.TextEmbeddings)),
	)
	return nil
}

func (s *badgerBundleStore) Close() error {
	return s.db.Close()
}

type badgerLogger struct {
	l *zap.SugaredLogger
}

func (b badgerLogger) Errorf(format string, args ...interface{}) {
	b.l.Errorf(format, args...)
}

func (b badgerLogger) Warningf(format string, args ...interface{}) {
	b.l.Warnf(format, args...)
}

func (b badgerLogger) Infof(format string, args ...interface{}) {
	b.l.Debugf(format, args...)
}

func (b badgerLogger) Debugf(format string, args ...interface{}) {
	b.l.Debugf(format, args...)
}
