package handler

import (
	"context"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/samplesearch/internal/model"
	"github.com/xxxsen/samplesearch/internal/pkg/response"
	"github.com/xxxsen/samplesearch/internal/service"
)

type Searcher interface {
	Search(ctx context.Context, req service.SearchRequest) (*model.SearchResponse, error)
}

type SearchHandler struct {
	searcher Searcher
}

func NewSearchHandler(searcher Searcher) *SearchHandler {
	return &SearchHandler{searcher: searcher}
}

type searchRequest struct {
	Prompt          string            `json:"prompt"`
	Model           string            `json:"model"`
	TopK            int               `json:"topK"`
	AudioFiles      []model.AudioFile `json:"audioFiles"`
	IncludeMetadata bool              `json:"includeMetadata"`
}

func (h *SearchHandler) Search(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	h.search(c, req)
}

func (h *SearchHandler) SearchQuery(c *gin.Context) {
	req := searchRequest{
		Prompt:          c.Query("prompt"),
		Model:           c.Query("model"),
		IncludeMetadata: c.Query("includeMetadata") == "true",
	}
	if value := c.Query("topK"); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil || parsed < 1 {
			badRequest(c, "topK must be a positive integer")
			return
		}
		req.TopK = parsed
	}
	h.search(c, req)
}

func (h *SearchHandler) search(c *gin.Context, req searchRequest) {
	if strings.TrimSpace(req.Prompt) == "" {
		badRequest(c, "prompt is required")
		return
	}
	resp, err := h.searcher.Search(c.Request.Context(), service.SearchRequest{
		Prompt:          req.Prompt,
		Model:           req.Model,
		TopK:            req.TopK,
		Files:           req.AudioFiles,
		IncludeMetadata: req.IncludeMetadata,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, resp)
}
