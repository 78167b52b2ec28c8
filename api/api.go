package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"emas-scraper/feed"
	"emas-scraper/models"
	"emas-scraper/scraper"
	"emas-scraper/services"
	"emas-scraper/utils"
)

// PriceService is the pipeline surface the handlers consume.
type PriceService interface {
	Run(ctx context.Context, selector string, opts services.RunOptions) (*models.ScrapeResult, []*models.PriceWithDelta, error)
}

// Handler binds the scrape pipeline to HTTP routes.
type Handler struct {
	prices  PriceService
	summary *services.SummaryService
	logger  *utils.Logger
}

// SetupRoutes registers all routes on the given engine.
func SetupRoutes(r *gin.Engine, prices PriceService, logger *utils.Logger) *Handler {
	h := &Handler{
		prices:  prices,
		summary: services.NewSummaryService(logger),
		logger:  logger,
	}

	v1 := r.Group("/api/v1")
	{
		v1.GET("/sources", h.ListSources)
		v1.GET("/prices/:source", h.GetPrices)
		v1.GET("/prices/:source/summary", h.GetSummary)
	}

	r.GET("/rss/:source", h.GetRSS)
	r.GET("/health", h.Health)

	return h
}

// GetPrices serves the JSON envelope for one source. Query params:
// type (exact category filter), diff=1 (annotate with deltas).
func (h *Handler) GetPrices(c *gin.Context) {
	source := c.Param("source")
	opts := services.RunOptions{
		Category:   c.Query("type"),
		WithDeltas: c.Query("diff") == "1",
	}

	res, deltas, err := h.prices.Run(c.Request.Context(), source, opts)
	if err != nil {
		h.renderError(c, source, err)
		return
	}

	if opts.WithDeltas {
		c.JSON(http.StatusOK, feed.NewDeltaEnvelope(res, deltas))
		return
	}
	c.JSON(http.StatusOK, feed.NewEnvelope(res))
}

// GetSummary serves aggregate statistics for one source's current prices.
func (h *Handler) GetSummary(c *gin.Context) {
	source := c.Param("source")
	opts := services.RunOptions{
		Category:   c.Query("type"),
		WithDeltas: true,
	}

	res, deltas, err := h.prices.Run(c.Request.Context(), source, opts)
	if err != nil {
		h.renderError(c, source, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"summary": h.summary.Build(deltas),
		"meta":    feed.NewEnvelope(res).Meta,
	})
}

// GetRSS serves the RSS 2.0 feed for one source. Transport failures still
// produce a well-formed, error-annotated feed; only an unknown source is
// rejected outright.
func (h *Handler) GetRSS(c *gin.Context) {
	source := c.Param("source")

	res, deltas, err := h.prices.Run(c.Request.Context(), source, services.RunOptions{WithDeltas: true})
	if err != nil {
		if errors.Is(err, scraper.ErrUnsupportedSource) {
			h.renderError(c, source, err)
			return
		}
		h.logger.Warn("[api] RSS run for %s failed: %v", source, err)
		body, renderErr := feed.RenderErrorRSS(source, err)
		if renderErr != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": renderErr.Error()})
			return
		}
		c.Data(http.StatusOK, "application/rss+xml; charset=utf-8", body)
		return
	}

	body, err := feed.RenderRSS(res, deltas)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "application/rss+xml; charset=utf-8", body)
}

// ListSources reports the supported source selectors.
func (h *Handler) ListSources(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"sources": scraper.Known()})
}

// Health is a liveness probe.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) renderError(c *gin.Context, source string, err error) {
	if errors.Is(err, scraper.ErrUnsupportedSource) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   err.Error(),
			"sources": scraper.Known(),
		})
		return
	}
	h.logger.Error("[api] Run for %s failed: %v", source, err)
	c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
}
