package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/samplesearch/internal/audioprep"
	"github.com/xxxsen/samplesearch/internal/embedcache"
	"github.com/xxxsen/samplesearch/internal/encoder"
	"github.com/xxxsen/samplesearch/internal/evaluation"
	"github.com/xxxsen/samplesearch/internal/labeler"
	"github.com/xxxsen/samplesearch/internal/model"
	appErr "github.com/xxxsen/samplesearch/internal/pkg/errors"
	"github.com/xxxsen/samplesearch/internal/projection"
	"github.com/xxxsen/samplesearch/internal/report"
	"github.com/xxxsen/samplesearch/internal/search"
)

type SampleSource interface {
	List(ctx context.Context) ([]model.AudioFile, error)
	Read(ctx context.Context, name string) ([]byte, error)
}

type RunRequest struct {
	Model    string
	Files    []model.AudioFile
	UseCache bool
}

type EmbeddingService struct {
	samples     SampleSource
	bundles     embedcache.BundleStore
	models      encoder.ModelMap
	encoders    *encoderPool
	conditioner *audioprep.Conditioner
	queries     []string
	renderer    *report.Renderer
	now         func() time.Time

	mu      sync.RWMutex
	reports map[string]*model.EmbeddingReport
}

func NewEmbeddingService(
	samples SampleSource,
	bundles embedcache.BundleStore,
	models encoder.ModelMap,
	encoders EncoderFactory,
	conditioner *audioprep.Conditioner,
	queries []string,
) *EmbeddingService {
	return &EmbeddingService{
		samples:     samples,
		bundles:     bundles,
		models:      models,
		encoders:    newEncoderPool(encoders),
		conditioner: conditioner,
		queries:     queries,
		renderer:    report.NewRenderer(),
		now:         time.Now,
		reports:     make(map[string]*model.EmbeddingReport),
	}
}

// Run embeds the requested files with the given model and evaluates the
// zero-shot predictions against filename labels. With UseCache set, a stored
// bundle must cover every file and query or the run fails with
// ErrCacheIncomplete.
func (s *EmbeddingService) Run(ctx context.Context, req RunRequest) (*model.EmbeddingReport, error) {
	logger := logutil.GetLogger(ctx).With(zap.String("model", req.Model), zap.Bool("use_cache", req.UseCache))
	target, err := s.models.Resolve(req.Model)
	if err != nil {
		return nil, err
	}
	files := req.Files
	if len(files) == 0 {
		files, err = s.samples.List(ctx)
		if err != nil {
			return nil, err
		}
	}
	if len(files) == 0 {
		return nil, appErr.ErrEmptyBatch
	}

	var (
		audio     []model.AudioEmbedding
		text      map[string][]float32
		skipped   []model.SkippedFile
		fromCache bool
	)
	if req.UseCache {
		if bundle, ok := s.bundles.Load(ctx, req.Model); ok {
			audio, text, err = embedcache.Lookup(bundle, fileNames(files), s.queries)
			if err != nil {
				logger.Warn("cached bundle does not cover request", zap.Error(err))
				return nil, err
			}
			fromCache = true
			logger.Info("using cached embeddings", zap.Int("audio_count", len(audio)))
		}
	}
	if !fromCache {
		audio, text, skipped, err = s.generate(ctx, target, files)
		if err != nil {
			return nil, err
		}
		s.persist(ctx, req.Model, audio, text, skipped)
	}

	rep, err := s.buildReport(req.Model, files, audio, text)
	if err != nil {
		return nil, err
	}
	rep.Skipped = skipped
	rep.FromCache = fromCache
	s.mu.Lock()
	s.reports[req.Model] = rep
	s.mu.Unlock()
	logger.Info("embedding run finished",
		zap.Int("embedded", len(audio)),
		zap.Int("skipped", len(skipped)),
		zap.Int("excluded", len(rep.Excluded)),
	)
	return rep, nil
}

func (s *EmbeddingService) generate(ctx context.Context, target string, files []model.AudioFile) ([]model.AudioEmbedding, map[string][]float32, []model.SkippedFile, error) {
	logger := logutil.GetLogger(ctx).With(zap.String("target_model", target))
	enc := s.encoders.get(target)
	audio := make([]model.AudioEmbedding, 0, len(files))
	skipped := make([]model.SkippedFile, 0)
	for _, file := range files {
		vec, err := s.embedFile(ctx, enc, file.Name)
		if err != nil {
			if ctx.Err() != nil {
				return nil, nil, nil, ctx.Err()
			}
			logger.Warn("skip audio file", zap.String("file", file.Name), zap.Error(err))
			skipped = append(skipped, model.SkippedFile{Name: file.Name, Reason: err.Error()})
			continue
		}
		audio = append(audio, model.AudioEmbedding{
			FileName:         file.Name,
			Embedding:        vec,
			GroundTruthLabel: labeler.Classify(file.Name),
		})
	}
	if len(audio) == 0 {
		return nil, nil, nil, fmt.Errorf("no file could be embedded: %w", appErr.ErrEmptyBatch)
	}
	text := make(map[string][]float32, len(s.queries))
	for _, q := range s.queries {
		vec, err := enc.EmbedText(ctx, q)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("embed query %q: %w", q, err)
		}
		text[q] = vec
	}
	return audio, text, skipped, nil
}

func (s *EmbeddingService) embedFile(ctx context.Context, enc encoder.IModelEncoder, name string) ([]float32, error) {
	raw, err := s.samples.Read(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("read sample: %w", err)
	}
	buf, err := s.conditioner.Condition(raw)
	if err != nil {
		return nil, err
	}
	return enc.EmbedAudio(ctx, buf.Samples, buf.SampleRate)
}

// persist saves the bundle only for complete batches. Storage failures are
// logged and do not fail the run.
func (s *EmbeddingService) persist(ctx context.Context, modelKey string, audio []model.AudioEmbedding, text map[string][]float32, skipped []model.SkippedFile) {
	logger := logutil.GetLogger(ctx).With(zap.String("model", modelKey))
	if len(skipped) > 0 {
		logger.Warn("batch incomplete, embedding bundle not saved", zap.Int("skipped", len(skipped)))
		return
	}
	if err := s.bundles.Save(ctx, modelKey, audio, text); err != nil {
		logger.Warn("failed to save embedding bundle", zap.Error(err))
	}
}

func (s *EmbeddingService) buildReport(modelKey string, files []model.AudioFile, audio []model.AudioEmbedding, text map[string][]float32) (*model.EmbeddingReport, error) {
	byName := make(map[string]model.AudioFile, len(files))
	for _, f := range files {
		byName[f.Name] = f
	}
	vectors := make([][]float32, len(audio))
	for i, a := range audio {
		vectors[i] = a.Embedding
	}
	points, err := projection.Project(vectors)
	if err != nil {
		return nil, err
	}

	queryVectors := make([][]float32, len(s.queries))
	for i, q := range s.queries {
		queryVectors[i] = text[q]
	}
	predictions := make([]string, len(audio))
	truth := make([]string, len(audio))
	embeddingPoints := make([]model.EmbeddingPoint, len(audio))
	distribution := map[string]int{}
	for i, a := range audio {
		pred, err := search.Predict(a.Embedding, s.queries, queryVectors)
		if err != nil {
			return nil, fmt.Errorf("predict %s: %w", a.FileName, err)
		}
		predictions[i] = pred
		truth[i] = a.GroundTruthLabel
		distribution[a.GroundTruthLabel]++

		point := model.EmbeddingPoint{ID: a.FileName, X: points[i].X, Y: points[i].Y, Label: a.GroundTruthLabel}
		if f, ok := byName[a.FileName]; ok {
			point.ID = f.ID
			point.AudioSample = f.Location
		}
		embeddingPoints[i] = point
	}

	preds, gt, dropped := evaluation.FilterUnknown(predictions, truth)
	res, err := evaluation.Evaluate(preds, gt)
	if err != nil {
		return nil, err
	}
	excluded := make([]string, 0, len(dropped))
	for _, idx := range dropped {
		excluded = append(excluded, audio[idx].FileName)
	}
	return &model.EmbeddingReport{
		Model:               modelKey,
		EmbeddingPoints:     embeddingPoints,
		ConfusionMatrixData: res.Rows,
		EvalMetrics:         res.Metrics,
		Skipped:             []model.SkippedFile{},
		Excluded:            excluded,
		LabelDistribution:   labelDistribution(distribution),
		Ctime:               s.now().UnixMilli(),
	}, nil
}

func labelDistribution(counts map[string]int) []model.LabelCount {
	out := make([]model.LabelCount, 0, len(counts))
	for label, n := range counts {
		out = append(out, model.LabelCount{Label: label, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Label < out[j].Label
	})
	return out
}

func fileNames(files []model.AudioFile) []string {
	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.Name
	}
	return names
}

// LastReport returns the report of the most recent run for modelKey.
func (s *EmbeddingService) LastReport(modelKey string) (*model.EmbeddingReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rep, ok := s.reports[modelKey]
	if !ok {
		return nil, fmt.Errorf("no run for model %s: %w", modelKey, appErr.ErrNotFound)
	}
	return rep, nil
}

func (s *EmbeddingService) ReportHTML(modelKey string) (string, error) {
	rep, err := s.LastReport(modelKey)
	if err != nil {
		return "", err
	}
	return s.renderer.Render(rep)
}
