package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/samplesearch/internal/model"
	"github.com/xxxsen/samplesearch/internal/pkg/response"
)

type SampleLister interface {
	List(ctx context.Context) ([]model.AudioFile, error)
}

type SampleHandler struct {
	samples SampleLister
}

func NewSampleHandler(samples SampleLister) *SampleHandler {
	return &SampleHandler{samples: samples}
}

func (h *SampleHandler) List(c *gin.Context) {
	files, err := h.samples.List(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, files)
}
