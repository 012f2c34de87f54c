package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/pgvector/pgvector-go"

	"github.com/xxxsen/samplesearch/internal/model"
	"github.com/xxxsen/samplesearch/internal/pkg/dbutil"
)

const queryEmbeddingTable = "query_embedding_cache"

type QueryEmbeddingRepo struct {
	db *sql.DB
}

func NewQueryEmbeddingRepo(db *sql.DB) *QueryEmbeddingRepo {
	return &QueryEmbeddingRepo{db: db}
}

func (r *QueryEmbeddingRepo) Get(ctx context.Context, modelName, queryHash string) ([]float32, bool, error) {
	where := map[string]interface{}{
		"model_name": modelName,
		"query_hash": queryHash,
		"_limit":     []uint{0, 1},
	}
	sqlStr, args, err := dbutil.BuildSelect(queryEmbeddingTable, where, []string{"embedding"})
	if err != nil {
		return nil, false, err
	}
	var embedding pgvector.Vector
	if err := r.db.QueryRowContext(ctx, sqlStr, args...).Scan(&embedding); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return embedding.Slice(), true, nil
}

func (r *QueryEmbeddingRepo) Save(ctx context.Context, item *model.QueryEmbeddingCache) error {
	const query = `
		INSERT INTO query_embedding_cache (model_name, query_hash, query, embedding, ctime)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (model_name, query_hash) DO UPDATE SET
			query = EXCLUDED.query,
			embedding = EXCLUDED.embedding,
			ctime = EXCLUDED.ctime
	`
	_, err := r.db.ExecContext(ctx, query,
		item.ModelName,
		item.QueryHash,
		item.Query,
		pgvector.NewVector(item.Embedding),
		item.Ctime,
	)
	return err
}

func (r *QueryEmbeddingRepo) DeleteBefore(ctx context.Context, cutoff int64) (int64, error) {
	where := map[string]interface{}{"ctime <": cutoff}
	sqlStr, args, err := dbutil.BuildDelete(queryEmbeddingTable, where)
	if err != nil {
		return 0, err
	}
	res, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
