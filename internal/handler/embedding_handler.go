package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/samplesearch/internal/model"
	"github.com/xxxsen/samplesearch/internal/pkg/response"
	"github.com/xxxsen/samplesearch/internal/service"
)

type EmbeddingRunner interface {
	Run(ctx context.Context, req service.RunRequest) (*model.EmbeddingReport, error)
	ReportHTML(modelKey string) (string, error)
}

type EmbeddingHandler struct {
	runner       EmbeddingRunner
	defaultModel string
}

func NewEmbeddingHandler(runner EmbeddingRunner, defaultModel string) *EmbeddingHandler {
	return &EmbeddingHandler{runner: runner, defaultModel: defaultModel}
}

type runRequest struct {
	CurrentModel string            `json:"currentModel"`
	AudioFiles   []model.AudioFile `json:"audioFiles"`
	UseCache     *bool             `json:"useCache"`
}

func (h *EmbeddingHandler) Run(c *gin.Context) {
	var req runRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	modelKey := req.CurrentModel
	if modelKey == "" {
		modelKey = h.defaultModel
	}
	useCache := true
	if req.UseCache != nil {
		useCache = *req.UseCache
	}
	rep, err := h.runner.Run(c.Request.Context(), service.RunRequest{
		Model:    modelKey,
		Files:    req.AudioFiles,
		UseCache: useCache,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, rep)
}

func (h *EmbeddingHandler) Report(c *gin.Context) {
	modelKey := c.Query("model")
	if modelKey == "" {
		modelKey = h.defaultModel
	}
	page, err := h.runner.ReportHTML(modelKey)
	if err != nil {
		handleError(c, err)
		return
	}
	response.HTML(c, page)
}
