package handler

import (
	"bytes"
	"net/http"

	"vehicle_parking/internal/api/middleware"
	"vehicle_parking/internal/service"

	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ReportHandler struct {
	reportService *service.ReportService
}

func NewReportHandler(rs *service.ReportService) *ReportHandler {
	return &ReportHandler{reportService: rs}
}

// GET /api/v1/admin/summary
func (h *ReportHandler) AdminSummary(c *gin.Context) {
	summary, err := h.reportService.AdminSummary(c.Request.Context(), middleware.CurrentActor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// GET /api/v1/admin/summary.xlsx
func (h *ReportHandler) AdminSummaryXLSX(c *gin.Context) {
	var buf bytes.Buffer
	if err := h.reportService.ExportAdminSummary(c.Request.Context(), middleware.CurrentActor(c), &buf); err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="parking_summary.xlsx"`)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// GET /api/v1/user/summary
func (h *ReportHandler) UserSummary(c *gin.Context) {
	summary, err := h.reportService.UserSummary(c.Request.Context(), middleware.CurrentActor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// GET /api/v1/user/summary.xlsx
func (h *ReportHandler) UserSummaryXLSX(c *gin.Context) {
	var buf bytes.Buffer
	if err := h.reportService.ExportUserSummary(c.Request.Context(), middleware.CurrentActor(c), &buf); err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="my_parking_usage.xlsx"`)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
