package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/TFMV/OrganMatchPro/pkg/utils"
)

// SetupRoutes registers every endpoint on router.
func SetupRoutes(router *gin.Engine, h *Handler, logger utils.Logger) {
	router.Use(RequestLogger(logger), ErrorHandler())

	router.GET("/health", HealthCheckHandler())
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	v1.GET("/model/status", h.ModelStatusHandler())

	post := v1.Group("", RequireJSON())
	post.POST("/matches", h.FindMatchesHandler())
	post.POST("/predict", h.PredictHandler())
	post.POST("/predict/batch", h.BatchPredictHandler())
}
