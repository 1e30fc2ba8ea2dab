package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/music-lessons-api/internal/models"
	"github.com/noah-isme/music-lessons-api/internal/service"
	appErrors "github.com/noah-isme/music-lessons-api/pkg/errors"
	"github.com/noah-isme/music-lessons-api/pkg/response"
)

type analyticsService interface {
	RevenueByQuarter(ctx context.Context, year *int) (*models.RevenueByQuarterReport, bool, error)
	InstrumentPopularity(ctx context.Context) ([]models.InstrumentPopularity, bool, error)
	OutreachBreakdown(ctx context.Context) ([]models.OutreachBreakdown, bool, error)
	UserCounts(ctx context.Context) ([]models.RoleCount, bool, error)
	SecondLessonRate(ctx context.Context) (*models.SecondLessonReport, bool, error)
	SystemMetrics() models.AnalyticsSystemMetrics
}

type exportService interface {
	Export(ctx context.Context, report, format string, year *int) (*service.ExportFile, error)
}

// AnalyticsHandler exposes the admin reports.
type AnalyticsHandler struct {
	analytics analyticsService
	exports   exportService
}

// NewAnalyticsHandler constructs the analytics handler.
func NewAnalyticsHandler(analytics analyticsService, exports exportService) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics, exports: exports}
}

func parseYear(c *gin.Context) (*int, error) {
	raw := strings.TrimSpace(c.Query("year"))
	if raw == "" {
		return nil, nil
	}
	year, err := strconv.Atoi(raw)
	if err != nil || year < 1900 || year > 9999 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "year must be a four digit number")
	}
	return &year, nil
}

func (h *AnalyticsHandler) respond(c *gin.Context, data interface{}, hit bool, err error) {
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, data, withCacheMeta(c, hit))
}

// RevenueByQuarter godoc
// @Summary Booked lesson revenue per quarter
// @Tags Analytics
// @Produce json
// @Security BearerAuth
// @Param year query int false "Calendar year, all years when omitted"
// @Success 200 {object} response.Envelope
// @Router /admin/analytics/revenue-by-quarter [get]
func (h *AnalyticsHandler) RevenueByQuarter(c *gin.Context) {
	year, err := parseYear(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	report, hit, err := h.analytics.RevenueByQuarter(c.Request.Context(), year)
	h.respond(c, report, hit, err)
}

// InstrumentPopularity godoc
// @Summary Booked lessons and revenue per instrument
// @Tags Analytics
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /admin/analytics/instrument-popularity [get]
func (h *AnalyticsHandler) InstrumentPopularity(c *gin.Context) {
	rows, hit, err := h.analytics.InstrumentPopularity(c.Request.Context())
	h.respond(c, rows, hit, err)
}

// Outreach godoc
// @Summary Accounts per outreach source and role
// @Tags Analytics
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /admin/analytics/outreach [get]
func (h *AnalyticsHandler) Outreach(c *gin.Context) {
	rows, hit, err := h.analytics.OutreachBreakdown(c.Request.Context())
	h.respond(c, rows, hit, err)
}

// UserCounts godoc
// @Summary Accounts per role
// @Tags Analytics
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /admin/analytics/user-counts [get]
func (h *AnalyticsHandler) UserCounts(c *gin.Context) {
	rows, hit, err := h.analytics.UserCounts(c.Request.Context())
	h.respond(c, rows, hit, err)
}

// SecondLesson godoc
// @Summary Share of students who booked a second lesson
// @Tags Analytics
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /admin/analytics/second-lesson [get]
func (h *AnalyticsHandler) SecondLesson(c *gin.Context) {
	report, hit, err := h.analytics.SecondLessonRate(c.Request.Context())
	h.respond(c, report, hit, err)
}

// System godoc
// @Summary Instrumentation snapshot
// @Tags Analytics
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /admin/analytics/system [get]
func (h *AnalyticsHandler) System(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.analytics.SystemMetrics())
}

// Export godoc
// @Summary Download a report as CSV or PDF
// @Tags Analytics
// @Produce text/csv,application/pdf
// @Security BearerAuth
// @Param report path string true "revenue-by-quarter, instrument-popularity, outreach, user-counts or second-lesson"
// @Param format query string false "csv (default) or pdf"
// @Param year query int false "Year for the revenue report"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/analytics/{report}/export [get]
func (h *AnalyticsHandler) Export(c *gin.Context) {
	year, err := parseYear(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	file, err := h.exports.Export(c.Request.Context(), c.Param("report"), c.Query("format"), year)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+file.Filename+`"`)
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, file.ContentType, file.Body)
}
