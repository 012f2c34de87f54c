package embedcache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/samplesearch/internal/model"
)

type countingEncoder struct {
	textCalls  int
	audioCalls int
}

func (c *countingEncoder) ModelName() string { return "Xenova/clap-htsat-unfused" }

func (c *countingEncoder) EmbedAudio(ctx context.Context, samples []float32, sampleRate int) ([]float32, error) {
	c.audioCalls++
	return []float32{float32(len(samples))}, nil
}

func (c *countingEncoder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	c.textCalls++
	return []float32{float32(len(text)), 1}, nil
}

type memoryQueryRepo struct {
	items   map[string]*model.QueryEmbeddingCache
	getErr  error
	saveErr error
}

func (m *memoryQueryRepo) Get(ctx context.Context, modelName, queryHash string) ([]float32, bool, error) {
	if m.getErr != nil {
		return nil, false, m.getErr
	}
	item, ok := m.items[modelName+"|"+queryHash]
	if !ok {
		return nil, false, nil
	}
	return item.Embedding, true, nil
}

func (m *memoryQueryRepo) Save(ctx context.Context, item *model.QueryEmbeddingCache) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.items[item.ModelName+"|"+item.QueryHash] = item
	return nil
}

func TestLruEncoderCachesText(t *testing.T) {
	ctx := context.Background()
	inner := &countingEncoder{}
	enc := WrapLruCacheToEncoder(inner, 8, time.Minute)

	first, err := enc.EmbedText(ctx, "drums")
	require.NoError(t, err)
	first[0] = 99
	second, err := enc.EmbedText(ctx, "drums")
	require.NoError(t, err)
	require.Equal(t, []float32{5, 1}, second)
	require.Equal(t, 1, inner.textCalls)

	_, err = enc.EmbedAudio(ctx, []float32{1, 2}, 48000)
	require.NoError(t, err)
	_, err = enc.EmbedAudio(ctx, []float32{1, 2}, 48000)
	require.NoError(t, err)
	require.Equal(t, 2, inner.audioCalls)
	require.Equal(t, inner.ModelName(), enc.ModelName())
}

func TestLruEncoderDisabled(t *testing.T) {
	inner := &countingEncoder{}
	require.Same(t, inner, WrapLruCacheToEncoder(inner, 0, time.Minute).(*countingEncoder))
}

func TestDBEncoder(t *testing.T) {
	ctx := context.Background()
	inner := &countingEncoder{}
	repo := &memoryQueryRepo{items: map[string]*model.QueryEmbeddingCache{}}
	enc := WrapDBCacheToEncoder(inner, repo)

	_, err := enc.EmbedText(ctx, "guitar")
	require.NoError(t, err)
	_, err = enc.EmbedText(ctx, "guitar")
	require.NoError(t, err)
	require.Equal(t, 1, inner.textCalls)
	require.Len(t, repo.items, 1)
	for _, item := range repo.items {
		require.Equal(t, "guitar", item.Query)
		require.Len(t, item.QueryHash, 64)
	}
}

func TestDBEncoderFailuresFallThrough(t *testing.T) {
	ctx := context.Background()
	inner := &countingEncoder{}
	repo := &memoryQueryRepo{
		items:   map[string]*model.QueryEmbeddingCache{},
		getErr:  errors.New("connection refused"),
		saveErr: errors.New("connection refused"),
	}
	enc := WrapDBCacheToEncoder(inner, repo)
	vec, err := enc.EmbedText(ctx, "keys")
	require.NoError(t, err)
	require.Equal(t, []float32{4, 1}, vec)
}
