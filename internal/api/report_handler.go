package api

import (
	"bytes"
	"fmt"
	"net/http"

	"TickerSync/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ReportHandler 日报接口
type ReportHandler struct {
	reports *service.ReportService
	logger  *logrus.Logger
}

// NewReportHandler 创建 ReportHandler
func NewReportHandler(reports *service.ReportService, logger *logrus.Logger) *ReportHandler {
	return &ReportHandler{reports: reports, logger: logger}
}

// Daily 近 30 天信号分前 10 的交易
// GET /api/report/daily
func (h *ReportHandler) Daily(c *gin.Context) {
	report, err := h.reports.Daily(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("DailyReport failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, report)
}

// DailyXLSX 日报导出为 xlsx
// GET /api/report/daily.xlsx
func (h *ReportHandler) DailyXLSX(c *gin.Context) {
	report, err := h.reports.Daily(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("DailyReport failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	var buf bytes.Buffer
	if err := service.ExportXLSX(&buf, report); err != nil {
		h.logger.WithError(err).Error("ExportXLSX failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="signals-%s.xlsx"`, report.AsOf))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
