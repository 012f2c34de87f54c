package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/samplesearch/internal/pkg/errcode"
	appErr "github.com/xxxsen/samplesearch/internal/pkg/errors"
	"github.com/xxxsen/samplesearch/internal/pkg/response"
)

type errMapping struct {
	target  error
	status  int
	code    int
	message string
}

// errMappings is checked in order, the first matching sentinel wins.
var errMappings = []errMapping{
	{appErr.ErrUnauthorized, http.StatusUnauthorized, errcode.ErrUnauthorized, "unauthorized"},
	{appErr.ErrNotFound, http.StatusNotFound, errcode.ErrNotFound, "not found"},
	{appErr.ErrUnsupportedModel, http.StatusBadRequest, errcode.ErrUnsupportedModel, ""},
	{appErr.ErrInvalid, http.StatusBadRequest, errcode.ErrInvalid, ""},
	{appErr.ErrCacheIncomplete, http.StatusConflict, errcode.ErrCacheIncomplete, ""},
	{appErr.ErrCacheNotReady, http.StatusConflict, errcode.ErrCacheNotReady, ""},
	{appErr.ErrEmptyEvaluationSet, http.StatusUnprocessableEntity, errcode.ErrEmptyEvaluationSet, ""},
	{appErr.ErrEmptyBatch, http.StatusUnprocessableEntity, errcode.ErrEmptyEvaluationSet, ""},
	{appErr.ErrUnsupportedFormat, http.StatusUnprocessableEntity, errcode.ErrInvalidFile, ""},
	{appErr.ErrEmptyAudio, http.StatusUnprocessableEntity, errcode.ErrInvalidFile, ""},
	{appErr.ErrEncoderUnavailable, http.StatusServiceUnavailable, errcode.ErrEncoderUnavailable, "encoder unavailable"},
	{appErr.ErrTooMany, http.StatusTooManyRequests, errcode.ErrTooMany, "too many requests"},
}

// handleError logs err and replies with the mapped status and code. An empty
// mapping message exposes the wrapped error text.
func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	requestID, _ := c.Get("request_id")
	logutil.GetLogger(c.Request.Context()).Error("request failed",
		zap.Any("request_id", requestID),
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Error(err),
	)
	for _, m := range errMappings {
		if !errors.Is(err, m.target) {
			continue
		}
		msg := m.message
		if msg == "" {
			msg = err.Error()
		}
		response.ErrorStatus(c, m.status, m.code, msg)
		return
	}
	response.ErrorStatus(c, http.StatusInternalServerError, errcode.ErrInternal, "internal error")
}

func badRequest(c *gin.Context, msg string) {
	response.ErrorStatus(c, http.StatusBadRequest, errcode.ErrInvalid, msg)
}
