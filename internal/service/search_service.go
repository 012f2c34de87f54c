package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/samplesearch/internal/embedcache"
	"github.com/xxxsen/samplesearch/internal/encoder"
	"github.com/xxxsen/samplesearch/internal/model"
	appErr "github.com/xxxsen/samplesearch/internal/pkg/errors"
	"github.com/xxxsen/samplesearch/internal/search"
)

type SearchRequest struct {
	Prompt          string
	Model           string
	TopK            int
	Files           []model.AudioFile
	IncludeMetadata bool
}

type SearchOptions struct {
	DefaultModel           string
	DefaultTopK            int
	// LowConfidenceThreshold of 0 disables the no-match gate.
	LowConfidenceThreshold float64
}

type SearchService struct {
	samples  SampleSource
	bundles  embedcache.BundleStore
	models   encoder.ModelMap
	encoders *encoderPool
	opts     SearchOptions
}

func NewSearchService(
	samples SampleSource,
	bundles embedcache.BundleStore,
	models encoder.ModelMap,
	encoders EncoderFactory,
	opts SearchOptions,
) *SearchService {
	return &SearchService{
		samples:  samples,
		bundles:  bundles,
		models:   models,
		encoders: newEncoderPool(encoders),
		opts:     opts,
	}
}

// Search ranks the cached audio embeddings of a model against prompt. A top
// score under the low-confidence threshold empties the result and sets
// NoMatch.
func (s *SearchService) Search(ctx context.Context, req SearchRequest) (*model.SearchResponse, error) {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return nil, fmt.Errorf("prompt is required: %w", appErr.ErrInvalid)
	}
	modelKey := req.Model
	if modelKey == "" {
		modelKey = s.opts.DefaultModel
	}
	topK := req.TopK
	if topK == 0 {
		topK = s.opts.DefaultTopK
	}
	logger := logutil.GetLogger(ctx).With(zap.String("model", modelKey), zap.String("query", prompt), zap.Int("top_k", topK))
	target, err := s.models.Resolve(modelKey)
	if err != nil {
		return nil, err
	}
	bundle, ok := s.bundles.Load(ctx, modelKey)
	if !ok || len(bundle.AudioEmbeddings) == 0 {
		return nil, fmt.Errorf("no embeddings for model %s: %w", modelKey, appErr.ErrCacheNotReady)
	}

	queryVec, ok := bundle.TextEmbeddings[prompt]
	if !ok {
		queryVec, err = s.encoders.get(target).EmbedText(ctx, prompt)
		if err != nil {
			logger.Error("failed to embed search query", zap.Error(err))
			return nil, err
		}
	}
	candidates := make([]search.Candidate, 0, len(bundle.AudioEmbeddings))
	for _, item := range bundle.AudioEmbeddings {
		candidates = append(candidates, search.Candidate{ID: item.FileName, Label: item.GroundTruthLabel, Embedding: item.Embedding})
	}
	results, err := search.Search(queryVec, candidates, topK)
	if err != nil {
		return nil, err
	}

	resp := &model.SearchResponse{
		Success: true,
		Results: []model.SearchMatch{},
		Query:   prompt,
		Model:   modelKey,
	}
	if s.opts.LowConfidenceThreshold > 0 && len(results) > 0 && results[0].Similarity < s.opts.LowConfidenceThreshold {
		logger.Info("top result below confidence threshold", zap.Float64("similarity", results[0].Similarity))
		resp.NoMatch = true
		return resp, nil
	}
	matches, err := s.resolve(ctx, req, results)
	if err != nil {
		return nil, err
	}
	resp.Results = matches
	resp.TotalResults = len(matches)
	for _, m := range matches {
		logger.Debug("search match", zap.String("file", m.AudioFile.Name), zap.Float64("similarity", m.Similarity))
	}
	return resp, nil
}

// resolve maps result file names back to AudioFile records. Names that the
// supplied list does not know are dropped.
func (s *SearchService) resolve(ctx context.Context, req SearchRequest, results []search.Result) ([]model.SearchMatch, error) {
	files := req.Files
	if len(files) == 0 && req.IncludeMetadata && s.samples != nil {
		listed, err := s.samples.List(ctx)
		if err != nil {
			return nil, err
		}
		files = listed
	}
	matches := make([]model.SearchMatch, 0, len(results))
	if len(files) == 0 {
		for _, r := range results {
			matches = append(matches, model.SearchMatch{
				AudioFile:  model.AudioFile{ID: r.ID, Name: r.ID},
				Similarity: r.Similarity,
				Label:      r.Label,
			})
		}
		return matches, nil
	}
	byName := make(map[string]model.AudioFile, len(files))
	for _, f := range files {
		byName[f.Name] = f
	}
	for _, r := range results {
		f, ok := byName[r.ID]
		if !ok {
			logutil.GetLogger(ctx).Warn("search result has no matching audio file", zap.String("file", r.ID))
			continue
		}
		matches = append(matches, model.SearchMatch{AudioFile: f, Similarity: r.Similarity, Label: r.Label})
	}
	return matches, nil
}
