package job

import (
	"context"
	"errors"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/samplesearch/internal/model"
	"github.com/xxxsen/samplesearch/internal/service"
)

type EmbeddingRunner interface {
	Run(ctx context.Context, req service.RunRequest) (*model.EmbeddingReport, error)
}

// BundleRefreshJob regenerates the embedding bundle of each configured model
// from the current sample catalogue.
type BundleRefreshJob struct {
	runner EmbeddingRunner
	models []string
}

func NewBundleRefreshJob(runner EmbeddingRunner, models []string) *BundleRefreshJob {
	return &BundleRefreshJob{runner: runner, models: models}
}

func (j *BundleRefreshJob) Name() string {
	return "bundle_refresh"
}

// Run refreshes every model even when one fails and returns the joined
// errors.
func (j *BundleRefreshJob) Run(ctx context.Context) error {
	if j.runner == nil {
		return nil
	}
	var errs []error
	for _, m := range j.models {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		logger := logutil.GetLogger(ctx).With(zap.String("model", m))
		rep, err := j.runner.Run(ctx, service.RunRequest{Model: m, UseCache: false})
		if err != nil {
			logger.Error("refresh embedding bundle failed", zap.Error(err))
			errs = append(errs, err)
			continue
		}
		logger.Info("embedding bundle refreshed",
			zap.Int("points", len(rep.EmbeddingPoints)),
			zap.Int("skipped", len(rep.Skipped)),
		)
	}
	return errors.Join(errs...)
}
