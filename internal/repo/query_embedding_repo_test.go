package repo

import (
	"context"
	"database/sql"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/samplesearch/internal/config"
	"github.com/xxxsen/samplesearch/internal/db"
	"github.com/xxxsen/samplesearch/internal/model"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	host := os.Getenv("TEST_DB_HOST")
	if host == "" {
		t.Skip("TEST_DB_HOST not set")
	}
	port, _ := strconv.Atoi(os.Getenv("TEST_DB_PORT"))
	conn, err := db.Open(config.DatabaseConfig{
		Host:     host,
		Port:     port,
		User:     os.Getenv("TEST_DB_USER"),
		Password: os.Getenv("TEST_DB_PASSWORD"),
		DBName:   os.Getenv("TEST_DB_NAME"),
	})
	require.NoError(t, err)
	require.NoError(t, db.ApplyMigrations(conn))
	t.Cleanup(func() {
		_, _ = conn.Exec("DELETE FROM query_embedding_cache WHERE model_name = 'repo-test'")
		conn.Close()
	})
	return conn
}

func TestQueryEmbeddingRepo(t *testing.T) {
	conn := openTestDB(t)
	ctx := context.Background()
	r := NewQueryEmbeddingRepo(conn)

	_, ok, err := r.Get(ctx, "repo-test", "missing")
	require.NoError(t, err)
	require.False(t, ok)

	old := time.Now().Add(-48 * time.Hour).Unix()
	require.NoError(t, r.Save(ctx, &model.QueryEmbeddingCache{
		ModelName: "repo-test", QueryHash: "h1", Query: "drums", Embedding: []float32{1, 0, 0.5}, Ctime: old,
	}))
	require.NoError(t, r.Save(ctx, &model.QueryEmbeddingCache{
		ModelName: "repo-test", QueryHash: "h2", Query: "keys", Embedding: []float32{0, 1, 0}, Ctime: time.Now().Unix(),
	}))

	vec, ok, err := r.Get(ctx, "repo-test", "h1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []float32{1, 0, 0.5}, vec)

	n, err := r.DeleteBefore(ctx, time.Now().Add(-24*time.Hour).Unix())
	require.NoError(t, err)
	require.GreaterOrEqual(t, n, int64(1))

	_, ok, err = r.Get(ctx, "repo-test", "h1")
	require.NoError(t, err)
	require.False(t, ok)
	_, ok, err = r.Get(ctx, "repo-test", "h2")
	require.NoError(t, err)
	require.True(t, ok)
}
