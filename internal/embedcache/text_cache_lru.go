package embedcache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/samplesearch/internal/encoder"
)

// WrapLruCacheToEncoder memoises query embeddings in process. Audio
// embeddings pass straight through.
func WrapLruCacheToEncoder(e encoder.IModelEncoder, size int, ttl time.Duration) encoder.IModelEncoder {
	if e == nil || size <= 0 || ttl <= 0 {
		return e
	}
	return &lruEncoder{
		next:  e,
		cache: expirable.NewLRU[string, []float32](size, nil, ttl),
	}
}

type lruEncoder struct {
	next  encoder.IModelEncoder
	cache *expirable.LRU[string, []float32]
}

func (l *lruEncoder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	cacheKey, _, _ := buildCacheKey(l.next.ModelName(), text)
	if cached, ok := l.cache.Get(cacheKey); ok {
		logutil.GetLogger(ctx).Debug("query embedding cache hit (lru)", zap.String("model", l.next.ModelName()))
		return cloneEmbedding(cached), nil
	}
	res, err := l.next.EmbedText(ctx, text)
	if err != nil {
		return nil, err
	}
	l.cache.Add(cacheKey, cloneEmbedding(res))
	return res, nil
}

func (l *lruEncoder) EmbedAudio(ctx context.Context, samples []float32, sampleRate int) ([]float32, error) {
	return l.next.EmbedAudio(ctx, samples, sampleRate)
}

func (l *lruEncoder) ModelName() string {
	return l.next.ModelName()
}

func cloneEmbedding(values []float32) []float32 {
	if len(values) == 0 {
		return nil
	}
	clone := make([]float32, len(values))
	copy(clone, values)
	return clone
}
