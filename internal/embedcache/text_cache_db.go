package embedcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/samplesearch/internal/encoder"
	"github.com/xxxsen/samplesearch/internal/model"
)

// QueryEmbeddingRepo is the persistence used by the database decorator.
type QueryEmbeddingRepo interface {
	Get(ctx context.Context, modelName, queryHash string) ([]float32, bool, error)
	Save(ctx context.Context, item *model.QueryEmbeddingCache) error
}

func WrapDBCacheToEncoder(e encoder.IModelEncoder, cacheRepo QueryEmbeddingRepo) encoder.IModelEncoder {
	if e == nil || cacheRepo == nil {
		return e
	}
	return &dbEncoder{next: e, repo: cacheRepo, now: time.Now}
}

type dbEncoder struct {
	next encoder.IModelEncoder
	repo QueryEmbeddingRepo
	now  func() time.Time
}

func (d *dbEncoder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	_, queryHash, modelName := buildCacheKey(d.next.ModelName(), text)
	values, ok, err := d.repo.Get(ctx, modelName, queryHash)
	if err != nil {
		logutil.GetLogger(ctx).Warn("query embedding cache read failed", zap.Error(err))
	} else if ok {
		logutil.GetLogger(ctx).Debug("query embedding cache hit (db)", zap.String("model", modelName))
		return values, nil
	}
	res, err := d.next.EmbedText(ctx, text)
	if err != nil {
		return nil, err
	}
	if err := d.repo.Save(ctx, &model.QueryEmbeddingCache{
		ModelName: modelName,
		QueryHash: queryHash,
		Query:     text,
		Embedding: res,
		Ctime:     d.now().Unix(),
	}); err != nil {
		logutil.GetLogger(ctx).Warn("failed to cache query embedding", zap.Error(err))
	}
	return res, nil
}

func (d *dbEncoder) EmbedAudio(ctx context.Context, samples []float32, sampleRate int) ([]float32, error) {
	return d.next.EmbedAudio(ctx, samples, sampleRate)
}

func (d *dbEncoder) ModelName() string {
	return d.next.ModelName()
}

func buildCacheKey(modelName, text string) (string, string, string) {
	modelName = strings.TrimSpace(modelName)
	if modelName == "" {
		modelName = "unknown"
	}
	hash := sha256.Sum256([]byte(text))
	queryHash := hex.EncodeToString(hash[:])
	return "query:" + modelName + ":" + queryHash, queryHash, modelName
}
