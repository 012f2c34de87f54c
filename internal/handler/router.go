package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/samplesearch/internal/middleware"
)

type RouterDeps struct {
	Samples    *SampleHandler
	Embeddings *EmbeddingHandler
	Search     *SearchHandler
	JWTSecret  []byte
	RunLimit   time.Duration
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	api.Use(middleware.RequestID())

	authGroup := api.Group("")
	authGroup.Use(middleware.JWTAuth(deps.JWTSecret))
	authGroup.GET("/samples", deps.Samples.List)
	authGroup.POST("/embeddings/run", middleware.RateLimit(deps.RunLimit), deps.Embeddings.Run)
	authGroup.POST("/search", deps.Search.Search)
	authGroup.GET("/search", deps.Search.SearchQuery)
	authGroup.GET("/report", deps.Embeddings.Report)
}
