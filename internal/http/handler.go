package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"enforcement-analytics/internal/analytics"
	"enforcement-analytics/internal/config"
	"enforcement-analytics/internal/service"
)

type Handler struct {
	analytics *service.AnalyticsService
	config    *config.Config
	log       zerolog.Logger
}

func NewHandler(
	analyticsService *service.AnalyticsService,
	cfg *config.Config,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		analytics: analyticsService,
		config:    cfg,
		log:       log,
	}
}

func (h *Handler) Register(r *gin.Engine, authMiddleware gin.HandlerFunc) {
	// Public read-only analytics endpoints
	public := r.Group("/api/v1")
	{
		public.GET("/recommendations/top", h.topRecommendations)
		public.GET("/recommendations/export.csv", h.exportRecommendationsCSV)
		public.GET("/hotspots/accidents", h.accidentHotspots)
		public.GET("/hotspots/accidents/export.kml", h.exportAccidentHotspotsKML)
		public.GET("/hotspots/violations", h.violationHotspots)
		public.GET("/hotspots/overlap", h.overlapAnalysis)
		public.GET("/analysis/cross", h.crossAnalysis)
		public.GET("/analysis/shifts", h.shiftDistribution)
		public.GET("/stats/overview", h.statsOverview)
		public.GET("/stats/monthly", h.monthlyStats)
		public.GET("/reports/summary", h.monthlySummary)
	}

	// Protected data-management endpoints
	protected := r.Group("/api/v1/admin")
	protected.Use(authMiddleware)
	{
		protected.POST("/import", h.importWorkbook)
		protected.GET("/import/batches", h.listImportBatches)
	}
}

func (h *Handler) topRecommendations(c *gin.Context) {
	q, err := rankQuery(c)
	if err != nil {
		h.handleError(c, err)
		return
	}

	resp, err := h.analytics.TopRecommendations(c.Request.Context(), q)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) accidentHotspots(c *gin.Context) {
	q, err := rankQuery(c)
	if err != nil {
		h.handleError(c, err)
		return
	}

	resp, err := h.analytics.AccidentHotspots(c.Request.Context(), q)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) violationHotspots(c *gin.Context) {
	q, err := rankQuery(c)
	if err != nil {
		h.handleError(c, err)
		return
	}

	resp, err := h.analytics.ViolationHotspots(c.Request.Context(), q)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) overlapAnalysis(c *gin.Context) {
	q, err := rankQuery(c)
	if err != nil {
		h.handleError(c, err)
		return
	}

	resp, err := h.analytics.OverlapAnalysis(c.Request.Context(), q)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) crossAnalysis(c *gin.Context) {
	q, err := rankQuery(c)
	if err != nil {
		h.handleError(c, err)
		return
	}

	resp, err := h.analytics.CrossAnalysis(c.Request.Context(), q)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) shiftDistribution(c *gin.Context) {
	q, err := rankQuery(c)
	if err != nil {
		h.handleError(c, err)
		return
	}

	resp, err := h.analytics.ShiftDistribution(c.Request.Context(), q)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) statsOverview(c *gin.Context) {
	year, month, err := yearMonthQuery(c)
	if err != nil {
		h.handleError(c, err)
		return
	}

	resp, err := h.analytics.StatsOverview(c.Request.Context(), year, month)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) monthlyStats(c *gin.Context) {
	year, month, err := yearMonthQuery(c)
	if err != nil {
		h.handleError(c, err)
		return
	}

	resp, err := h.analytics.MonthlyStats(c.Request.Context(), year, month)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) monthlySummary(c *gin.Context) {
	year, month, err := yearMonthQuery(c)
	if err != nil {
		h.handleError(c, err)
		return
	}
	topN, err := queryInt(c, "top_n", 0)
	if err != nil {
		h.handleError(c, err)
		return
	}

	resp, err := h.analytics.MonthlySummary(c.Request.Context(), year, month, topN)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) exportRecommendationsCSV(c *gin.Context) {
	q, err := rankQuery(c)
	if err != nil {
		h.handleError(c, err)
		return
	}

	result, err := h.analytics.ExportRecommendationsCSV(c.Request.Context(), q)
	if err != nil {
		h.handleError(c, err)
		return
	}
	writeExport(c, result)
}

func (h *Handler) exportAccidentHotspotsKML(c *gin.Context) {
	q, err := rankQuery(c)
	if err != nil {
		h.handleError(c, err)
		return
	}

	result, err := h.analytics.ExportAccidentHotspotsKML(c.Request.Context(), q)
	if err != nil {
		h.handleError(c, err)
		return
	}
	writeExport(c, result)
}

// importWorkbook ingests one de-identified xlsx workbook. The kind field
// selects the crash or the ticket pipeline.
func (h *Handler) importWorkbook(c *gin.Context) {
	kind := strings.TrimSpace(c.PostForm("kind"))
	if kind == "" {
		kind = strings.TrimSpace(c.Query("kind"))
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("file field is required"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("cannot read uploaded file"))
		return
	}
	defer file.Close()

	result, err := h.analytics.ImportWorkbook(c.Request.Context(), kind, fileHeader.Filename, file)
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			h.log.Warn().
				Err(err).
				Str("kind", kind).
				Str("filename", fileHeader.Filename).
				Msg("rejected workbook import")
			c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
			return
		}
		h.log.Error().
			Err(err).
			Str("kind", kind).
			Str("filename", fileHeader.Filename).
			Msg("failed to import workbook")
		c.JSON(http.StatusInternalServerError, errorResponse("internal error"))
		return
	}

	c.JSON(http.StatusCreated, result)
}

func (h *Handler) listImportBatches(c *gin.Context) {
	limit := 0
	if l := c.Query("limit"); l != "" {
		if parsed, err := parseInt(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	batches, err := h.analytics.ListImportBatches(c.Request.Context(), limit)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse(batches))
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, analytics.ErrInvalidPeriod):
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, errorResponse(err.Error()))
	default:
		h.log.Error().Err(err).Msg("handler error")
		c.JSON(http.StatusInternalServerError, errorResponse("internal error"))
	}
}

func writeExport(c *gin.Context, result *service.ExportResult) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	if result.ArchiveURL != "" {
		c.Header("X-Archive-URL", result.ArchiveURL)
	}
	c.Data(http.StatusOK, result.ContentType, result.Data)
}

func rankQuery(c *gin.Context) (service.RankQuery, error) {
	q := service.RankQuery{
		Topic:    c.Query("topic"),
		District: c.Query("district"),
		ShiftID:  c.Query("shift_id"),
		Severity: c.Query("severity"),
	}

	var err error
	if q.Days, err = queryInt(c, "days", 0); err != nil {
		return q, err
	}
	if q.Year, err = queryInt(c, "year", 0); err != nil {
		return q, err
	}
	if q.Month, err = queryInt(c, "month", 0); err != nil {
		return q, err
	}
	if q.TopN, err = queryInt(c, "top_n", 0); err != nil {
		return q, err
	}

	compare, err := strconv.ParseBool(c.DefaultQuery("compare_baseline", "true"))
	if err != nil {
		return q, fmt.Errorf("%w: compare_baseline must be a boolean", service.ErrInvalidInput)
	}
	q.CompareBaseline = compare
	return q, nil
}

func yearMonthQuery(c *gin.Context) (int, int, error) {
	year, err := queryInt(c, "year", 0)
	if err != nil {
		return 0, 0, err
	}
	month, err := queryInt(c, "month", 0)
	if err != nil {
		return 0, 0, err
	}
	return year, month, nil
}

// queryInt reads an optional integer query parameter. A present but
// non-numeric value is a client error rather than a silent default.
func queryInt(c *gin.Context, name string, def int) (int, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return def, nil
	}
	v, err := parseInt(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", service.ErrInvalidInput, name)
	}
	return v, nil
}

func parseInt(s string) (int, error) {
	return strconv.Atoi(s)
}

func successResponse(data interface{}) gin.H {
	return gin.H{
		"data": data,
	}
}

func errorResponse(message string) gin.H {
	return gin.H{
		"error": message,
	}
}
