package api

import (
	"alcyxob/gym-membership/internal/domain"
	"alcyxob/gym-membership/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ReportHandler serves access log exports.
type ReportHandler struct {
	reportService service.ReportService
}

func NewReportHandler(reportService service.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// ExportAccessLogsRequest selects the entries to export. Filters use the same
// formats as the access log query.
type ExportAccessLogsRequest struct {
	Title      string `json:"title" binding:"required"`
	Notes      string `json:"notes"`
	UserID     string `json:"userId"`
	FacilityID string `json:"facilityId"`
	Status     string `json:"status"`
	From       string `json:"from"`
	To         string `json:"to"`
}

type DownloadURLResponse struct {
	URL    string         `json:"url"`
	Report *domain.Report `json:"report"`
}

// ExportAccessLogs godoc
// @Summary Export access logs as CSV to object storage
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ExportAccessLogsRequest true "Export filter"
// @Success 201 {object} domain.Report
// @Router /admin/reports/access-logs [post]
func (h *ReportHandler) ExportAccessLogs(c *gin.Context) {
	adminID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req ExportAccessLogsRequest
	if !bindJSON(c, &req) {
		return
	}
	filter, err := accessLogFilter(req.UserID, req.FacilityID, req.Status, req.From, req.To)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	report, err := h.reportService.ExportAccessLogs(c.Request.Context(), adminID, service.ExportRequest{
		Title:  req.Title,
		Notes:  req.Notes,
		Filter: filter,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, report)
}

func (h *ReportHandler) ListReports(c *gin.Context) {
	reports, err := h.reportService.ListReports(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if reports == nil {
		reports = []domain.Report{}
	}
	c.JSON(http.StatusOK, reports)
}

// GetDownloadURL godoc
// @Summary Get a temporary download URL for a report
// @Tags Admin
// @Security BearerAuth
// @Param id path string true "Report ID"
// @Success 200 {object} DownloadURLResponse
// @Router /admin/reports/{id}/download [get]
func (h *ReportHandler) GetDownloadURL(c *gin.Context) {
	reportID, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	url, report, err := h.reportService.GetDownloadURL(c.Request.Context(), reportID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, DownloadURLResponse{URL: url, Report: report})
}

func (h *ReportHandler) DeleteReport(c *gin.Context) {
	reportID, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.reportService.DeleteReport(c.Request.Context(), reportID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
