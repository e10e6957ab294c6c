package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mr1hm/go-covid-forecast/internal/config"
	"github.com/mr1hm/go-covid-forecast/internal/dashboard"
	"github.com/mr1hm/go-covid-forecast/internal/events"
	"github.com/mr1hm/go-covid-forecast/internal/forecast"
	"github.com/mr1hm/go-covid-forecast/internal/models"
	"github.com/mr1hm/go-covid-forecast/internal/repository"
)

const (
	dateLayout       = "2006-01-02"
	defaultLoadLimit = 20
	maxLoadLimit     = 500
)

// DatasetSource hands out the currently published dataset, nil until the
// first load completes.
type DatasetSource interface {
	Current() *models.Dataset
}

type Handler struct {
	data        DatasetSource
	runs        repository.LoadRunRepository
	broadcaster *events.Broadcaster
	dashboard   *dashboard.Renderer
	horizon     int
	workers     int
}

// NewHandler wires the routes. runs and broadcaster may be nil.
func NewHandler(data DatasetSource, runs repository.LoadRunRepository, broadcaster *events.Broadcaster, cfg config.ForecastConfig) *Handler {
	horizon := cfg.Horizon
	if horizon <= 0 {
		horizon = forecast.DefaultHorizon
	}
	return &Handler{
		data:        data,
		runs:        runs,
		broadcaster: broadcaster,
		dashboard:   dashboard.New(horizon),
		horizon:     horizon,
		workers:     cfg.Workers,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.health)
	r.GET("/ready", h.ready)
	r.GET("/dashboard", h.getDashboard)

	api := r.Group("/api")
	api.GET("/countries", h.getCountries)
	api.GET("/countries/:country/series", h.getSeries)
	api.GET("/countries/:country/forecast", h.getForecast)
	api.GET("/forecasts", h.getForecasts)
	api.GET("/latest", h.getLatest)
	api.GET("/loads", h.getLoads)
	api.GET("/events", h.streamEvents)
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) ready(c *gin.Context) {
	ds := h.data.Current()
	if ds == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "loading"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":    "ready",
		"records":   ds.Len(),
		"countries": len(ds.Countries()),
	})
}

// dataset writes 503 and reports false when nothing has been loaded yet.
func (h *Handler) dataset(c *gin.Context) (*models.Dataset, bool) {
	ds := h.data.Current()
	if ds == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "dataset not loaded"})
		return nil, false
	}
	return ds, true
}

// country resolves the :country param, writing 404 for unknown names.
func (h *Handler) country(c *gin.Context, ds *models.Dataset) (string, bool) {
	name := c.Param("country")
	if !ds.HasCountry(name) {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown country: " + name})
		return "", false
	}
	return name, true
}

func (h *Handler) parseHorizon(c *gin.Context) (int, bool) {
	raw := c.Query("horizon")
	if raw == "" {
		return h.horizon, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > config.MaxHorizon {
		c.JSON(http.StatusBadRequest, gin.H{"error": "horizon must be an integer between 1 and " + strconv.Itoa(config.MaxHorizon)})
		return 0, false
	}
	return n, true
}

func (h *Handler) getCountries(c *gin.Context) {
	ds, ok := h.dataset(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"countries": ds.Countries()})
}

func (h *Handler) getSeries(c *gin.Context) {
	ds, ok := h.dataset(c)
	if !ok {
		return
	}
	name, ok := h.country(c, ds)
	if !ok {
		return
	}

	series := ds.Series(name)
	if s := c.Query("since"); s != "" {
		since, err := time.Parse(dateLayout, s)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "since must be YYYY-MM-DD"})
			return
		}
		series = sinceDate(series, since)
	}

	c.JSON(http.StatusOK, gin.H{
		"country": name,
		"records": series,
	})
}

// sinceDate trims a date-ordered series to records on or after since.
func sinceDate(series []models.NormalizedRecord, since time.Time) []models.NormalizedRecord {
	for i, r := range series {
		if !r.Date.Before(since) {
			return series[i:]
		}
	}
	return []models.NormalizedRecord{}
}

func (h *Handler) getForecast(c *gin.Context) {
	ds, ok := h.dataset(c)
	if !ok {
		return
	}
	name, ok := h.country(c, ds)
	if !ok {
		return
	}
	horizon, ok := h.parseHorizon(c)
	if !ok {
		return
	}

	res, err := forecast.ForecastDataset(ds, name, horizon)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute forecast"})
		return
	}
	if res.InsufficientData {
		c.JSON(http.StatusUnprocessableEntity, res)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) getForecasts(c *gin.Context) {
	ds, ok := h.dataset(c)
	if !ok {
		return
	}
	horizon, ok := h.parseHorizon(c)
	if !ok {
		return
	}

	summaries, err := forecast.Summarize(c.Request.Context(), ds, horizon, h.workers)
	if err != nil {
		if errors.Is(err, c.Request.Context().Err()) {
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute forecasts"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"horizon":   horizon,
		"forecasts": summaries,
	})
}

func (h *Handler) getLatest(c *gin.Context) {
	ds, ok := h.dataset(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, toLatest(ds))
}

func (h *Handler) getLoads(c *gin.Context) {
	if h.runs == nil {
		c.JSON(http.StatusOK, gin.H{"loads": []models.LoadRun{}})
		return
	}

	limit := defaultLoadLimit
	if l := c.Query("limit"); l != "" {
		if lim, err := strconv.Atoi(l); err == nil && lim > 0 && lim <= maxLoadLimit {
			limit = lim
		}
	}

	runs, err := h.runs.ListLoadRuns(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch load history"})
		return
	}
	if runs == nil {
		runs = []models.LoadRun{}
	}
	c.JSON(http.StatusOK, gin.H{"loads": runs})
}

// streamEvents pushes a server-sent "dataset" event after every reload until
// the client disconnects or the broadcaster closes.
func (h *Handler) streamEvents(c *gin.Context) {
	if h.broadcaster == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "event stream disabled"})
		return
	}

	id, ch := h.broadcaster.Subscribe()
	defer h.broadcaster.Unsubscribe(id)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)
	c.Writer.WriteHeaderNow()
	c.Writer.Flush()

	c.Stream(func(w io.Writer) bool {
		select {
		case ev, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent("dataset", ev)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

func (h *Handler) getDashboard(c *gin.Context) {
	ds, ok := h.dataset(c)
	if !ok {
		return
	}

	name := dashboard.PickCountry(ds, c.Query("country"))
	if !ds.HasCountry(name) {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown country: " + name})
		return
	}

	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	if err := h.dashboard.Render(c.Writer, ds, name); err != nil {
		_ = c.Error(err)
	}
}
