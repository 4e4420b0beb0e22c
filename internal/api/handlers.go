package api

import (
	"autodash/internal/engine"
	"autodash/internal/export"
	"autodash/internal/logger"
	"autodash/internal/models"
	"autodash/internal/viewstate"
	"errors"
	"net/http"
	"strconv"
	"sync/atomic"

	"github.com/labstack/echo/v4"
)

const DashboardTitle = "Automobile Sales Statistics Dashboard"

// Backend is everything the handlers need once the dataset is resident.
type Backend struct {
	Reports  *engine.ReportCache
	Sessions *viewstate.Registry
	Years    []int
}

type Handler struct {
	backend atomic.Pointer[Backend]
}

// NewHandler accepts a nil backend; routes answer 503 until SetData is called.
func NewHandler(b *Backend) *Handler {
	h := &Handler{}
	if b != nil {
		h.backend.Store(b)
	}
	return h
}

func (h *Handler) SetData(b *Backend) {
	h.backend.Store(b)
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/api/health", h.GetHealth)

	api := e.Group("/api", h.requireData)
	api.GET("/options", h.GetOptions)
	api.GET("/report", h.GetReport)
	api.POST("/sessions", h.CreateSession)
	api.GET("/sessions/:id", h.GetSession)
	api.PUT("/sessions/:id/mode", h.SetMode)
	api.PUT("/sessions/:id/year", h.SetYear)
	api.DELETE("/sessions/:id", h.DeleteSession)
	api.GET("/sessions/:id/export.xlsx", h.ExportSession)
}

// LogPublisher is the per-session publisher used by the HTTP shell.
func LogPublisher(id string) viewstate.Publisher {
	return viewstate.PublisherFunc(func(p models.Publication) {
		logger.Debug("Session %s v%d: %s/%d enabled=%v charts=%d status=%s",
			id, p.Version, p.State.Mode, p.State.SelectedYear, p.State.YearControlEnabled, len(p.Charts), p.Status)
	})
}

// --- MIDDLEWARE ---

func (h *Handler) requireData(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if h.backend.Load() == nil {
			return echo.NewHTTPError(http.StatusServiceUnavailable, "dataset is loading")
		}
		return next(c)
	}
}

func toHTTPError(err error) error {
	switch {
	case errors.Is(err, engine.ErrInvalidSelection):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error()).SetInternal(err)
	case errors.Is(err, viewstate.ErrSessionNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error()).SetInternal(err)
	}
	return err
}

// --- HANDLERS ---

func (h *Handler) GetHealth(c echo.Context) error {
	b := h.backend.Load()
	if b == nil {
		return c.JSON(http.StatusOK, map[string]interface{}{"status": "loading"})
	}
	hits, misses := b.Reports.Stats()
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":       "ok",
		"rows":         b.Reports.Data().Len(),
		"sessions":     b.Sessions.Len(),
		"cache_hits":   hits,
		"cache_misses": misses,
	})
}

func (h *Handler) GetOptions(c echo.Context) error {
	b := h.backend.Load()
	return c.JSON(http.StatusOK, map[string]interface{}{
		"title": DashboardTitle,
		"modes": models.ModeOptions(),
		"years": b.Years,
	})
}

// stateless report: /api/report?mode=yearly&year=2005
func (h *Handler) GetReport(c echo.Context) error {
	b := h.backend.Load()
	mode, err := models.ParseReportMode(c.QueryParam("mode"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	year := 0
	if raw := c.QueryParam("year"); raw != "" {
		if year, err = strconv.Atoi(raw); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "year must be an integer")
		}
	}

	charts, err := b.Reports.Report(mode, year)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"mode":   mode,
		"year":   year,
		"charts": charts,
	})
}

type sessionResponse struct {
	ID string `json:"id"`
	models.Publication
}

func (h *Handler) CreateSession(c echo.Context) error {
	b := h.backend.Load()
	id, ctrl, err := b.Sessions.Create()
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, sessionResponse{ID: id, Publication: ctrl.Current()})
}

func (h *Handler) GetSession(c echo.Context) error {
	b := h.backend.Load()
	id := c.Param("id")
	ctrl, err := b.Sessions.Get(id)
	if err != nil {
		return toHTTPError(err)
	}

	p := ctrl.Current()
	etag := `"` + p.ETag + `"`
	c.Response().Header().Set("ETag", etag)
	if c.Request().Header.Get("If-None-Match") == etag {
		return c.NoContent(http.StatusNotModified)
	}
	return c.JSON(http.StatusOK, sessionResponse{ID: id, Publication: p})
}

type modeRequest struct {
	Mode string `json:"mode"`
}

func (h *Handler) SetMode(c echo.Context) error {
	b := h.backend.Load()
	id := c.Param("id")
	ctrl, err := b.Sessions.Get(id)
	if err != nil {
		return toHTTPError(err)
	}

	var req modeRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	mode, err := models.ParseReportMode(req.Mode)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	p, err := ctrl.SetMode(mode)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, sessionResponse{ID: id, Publication: p})
}

type yearRequest struct {
	Year *int `json:"year"`
}

func (h *Handler) SetYear(c echo.Context) error {
	b := h.backend.Load()
	id := c.Param("id")
	ctrl, err := b.Sessions.Get(id)
	if err != nil {
		return toHTTPError(err)
	}

	var req yearRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if req.Year == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "year is required")
	}

	p, err := ctrl.SetYear(*req.Year)
	if err != nil {
		logger.Debug("Session %s ignored year %d: %v", id, *req.Year, err)
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, sessionResponse{ID: id, Publication: p})
}

func (h *Handler) DeleteSession(c echo.Context) error {
	b := h.backend.Load()
	if err := b.Sessions.Delete(c.Param("id")); err != nil {
		return toHTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ExportSession(c echo.Context) error {
	b := h.backend.Load()
	ctrl, err := b.Sessions.Get(c.Param("id"))
	if err != nil {
		return toHTTPError(err)
	}

	f, err := export.Workbook(ctrl.Current().Charts)
	if err != nil {
		return err
	}
	defer f.Close()

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	res.Header().Set(echo.HeaderContentDisposition, `attachment; filename="automobile-sales-report.xlsx"`)
	res.WriteHeader(http.StatusOK)
	return f.Write(res)
}
