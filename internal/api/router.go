// Package api exposes the optional HTTP surface of a finished run: the
// rendered heatmap artifact, run status, catalog history, and metrics.
// It is a static artifact server, not an interactive map UI.
package api

import (
	"bytes"
	"image/png"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tracklab/trackheat/internal/catalog"
	"github.com/tracklab/trackheat/internal/metrics"
	"github.com/tracklab/trackheat/internal/middleware"
	"github.com/tracklab/trackheat/internal/pipeline"
	"github.com/tracklab/trackheat/pkg/response"
)

// SetupRouter builds the gin engine. cat and collector may be nil; the
// corresponding endpoints then report 404.
func SetupRouter(engine *pipeline.Engine, cat *catalog.Catalog, collector *metrics.Collector) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(middleware.Logger(), gin.Recovery())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "trackheat render server is running",
		})
	})

	r.GET("/heatmap.png", func(c *gin.Context) {
		img := engine.FinalImage()
		if img == nil {
			response.NotFound(c, "no static heatmap was rendered in this run")
			return
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			response.InternalError(c, err.Error())
			return
		}
		c.Data(http.StatusOK, "image/png", buf.Bytes())
	})

	r.GET("/metrics", gin.WrapH(collector.Handler()))

	api := r.Group("/api/v1")
	api.Use(middleware.RateLimit(60, time.Minute))
	{
		api.GET("/status", func(c *gin.Context) {
			response.OK(c, engine.Stats())
		})

		api.GET("/runs", func(c *gin.Context) {
			if cat == nil {
				response.NotFound(c, "run catalog not enabled")
				return
			}
			limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
			runs, err := cat.ListRuns(limit)
			if err != nil {
				response.InternalError(c, err.Error())
				return
			}
			response.OK(c, runs)
		})

		api.GET("/runs/:id/files", func(c *gin.Context) {
			if cat == nil {
				response.NotFound(c, "run catalog not enabled")
				return
			}
			id, err := strconv.ParseInt(c.Param("id"), 10, 64)
			if err != nil {
				response.BadRequest(c, "invalid run id")
				return
			}
			files, err := cat.ListFiles(id)
			if err != nil {
				response.InternalError(c, err.Error())
				return
			}
			response.OK(c, files)
		})
	}

	return r
}
