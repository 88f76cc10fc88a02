package handler

import (
	"time"

	"merchant-collections/internal/core/ports"
	"merchant-collections/pkg/apperror"
	"merchant-collections/pkg/response"

	"github.com/gin-gonic/gin"
)

// DashboardHandler handles dashboard stats and CSV report endpoints.
type DashboardHandler struct {
	reportingSvc ports.ReportingService
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(reportingSvc ports.ReportingService) *DashboardHandler {
	return &DashboardHandler{reportingSvc: reportingSvc}
}

// GetStats handles GET /api/v1/dashboard/stats.
func (h *DashboardHandler) GetStats(c *gin.Context) {
	stats, err := h.reportingSvc.DashboardStats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, stats)
}

// CollectionsReport handles GET /api/v1/reports/collections.
func (h *DashboardHandler) CollectionsReport(c *gin.Context) {
	from, to, err := parseDateRange(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	data, err := h.reportingSvc.CollectionsCSV(c.Request.Context(), from, to)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.CSV(c, "collections_"+to.Format("2006-01-02")+".csv", data)
}

// CensusReport handles GET /api/v1/reports/census.
func (h *DashboardHandler) CensusReport(c *gin.Context) {
	data, err := h.reportingSvc.CensusCSV(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.CSV(c, "census_"+time.Now().Format("2006-01-02")+".csv", data)
}

// CollectorsReport handles GET /api/v1/reports/collectors.
func (h *DashboardHandler) CollectorsReport(c *gin.Context) {
	from, to, err := parseDateRange(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	data, err := h.reportingSvc.CollectorsCSV(c.Request.Context(), from, to)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.CSV(c, "collectors_"+to.Format("2006-01-02")+".csv", data)
}

// parseDateRange reads the from/to query params (YYYY-MM-DD). Defaults to
// the last 30 days ending now; "to" covers its whole day.
func parseDateRange(c *gin.Context) (time.Time, time.Time, error) {
	to := time.Now()
	from := to.AddDate(0, 0, -30)

	if f := c.Query("from"); f != "" {
		t, err := time.Parse("2006-01-02", f)
		if err != nil {
			return time.Time{}, time.Time{}, apperror.Validation("invalid from date, expected YYYY-MM-DD")
		}
		from = t
	}
	if s := c.Query("to"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			return time.Time{}, time.Time{}, apperror.Validation("invalid to date, expected YYYY-MM-DD")
		}
		to = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, apperror.Validation("to precedes from")
	}
	return from, to, nil
}
