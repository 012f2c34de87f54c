package job

import (
	"context"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

type QueryCacheCleaner interface {
	DeleteBefore(ctx context.Context, cutoff int64) (int64, error)
}

// QueryCacheCleanupJob drops persisted query embeddings older than maxAgeDays.
type QueryCacheCleanupJob struct {
	repo       QueryCacheCleaner
	maxAgeDays int
	now        func() time.Time
}

func NewQueryCacheCleanupJob(repo QueryCacheCleaner, maxAgeDays int) *QueryCacheCleanupJob {
	return &QueryCacheCleanupJob{repo: repo, maxAgeDays: maxAgeDays, now: time.Now}
}

func (j *QueryCacheCleanupJob) Name() string {
	return "query_cache_cleanup"
}

func (j *QueryCacheCleanupJob) Run(ctx context.Context) error {
	if j.repo == nil {
		return nil
	}
	maxAgeDays := j.maxAgeDays
	if maxAgeDays <= 0 {
		maxAgeDays = 30
	}
	cutoff := j.now().Add(-time.Duration(maxAgeDays) * 24 * time.Hour).Unix()
	removed, err := j.repo.DeleteBefore(ctx, cutoff)
	if err != nil {
		return err
	}
	logutil.GetLogger(ctx).Info("query embedding cache pruned", zap.Int64("removed", removed), zap.Int64("cutoff", cutoff))
	return nil
}
