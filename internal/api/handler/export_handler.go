package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/Lucius010/OptiTrack/internal/model"
	"github.com/Lucius010/OptiTrack/internal/service"
	"github.com/Lucius010/OptiTrack/pkg/response"
)

const (
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypeICS  = "text/calendar; charset=utf-8"
)

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportOvertime 导出加班结算表（管理端）
// GET /api/v1/overtime/export?period_start=&period_end=
func (h *ExportHandler) ExportOvertime(c *gin.Context) {
	start, end, ok := parsePeriod(c, c.Query("period_start"), c.Query("period_end"))
	if !ok {
		return
	}

	buf, filename, err := h.exportSvc.ExportOvertime(c.Request.Context(), start, end)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	writeAttachment(c, filename, contentTypeXLSX, buf.Bytes())
}

// ExportSessionsICS 导出本人考勤会话为 iCalendar
// GET /api/v1/attendance/sessions/export.ics?from=&to=
func (h *ExportHandler) ExportSessionsICS(c *gin.Context) {
	employeeID, ok := MustGetEmployeeID(c)
	if !ok {
		return
	}

	from, err := model.ParseDate(c.Query("from"))
	if err != nil {
		response.BadRequest(c, 10001, "from 格式应为 YYYY-MM-DD")
		return
	}
	to, err := model.ParseDate(c.Query("to"))
	if err != nil {
		response.BadRequest(c, 10001, "to 格式应为 YYYY-MM-DD")
		return
	}

	data, filename, err := h.exportSvc.ExportSessionsICS(c.Request.Context(), employeeID, from, to)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	writeAttachment(c, filename, contentTypeICS, data)
}

// writeAttachment 写入下载响应
func writeAttachment(c *gin.Context, filename, contentType string, data []byte) {
	encodedFilename := url.QueryEscape(filename)
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+encodedFilename)
	c.Data(http.StatusOK, contentType, data)
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrExportNoEntries):
		response.NotFound(c, 20301, "该周期暂无加班条目")
	case errors.Is(err, service.ErrInvalidPeriod):
		response.BadRequest(c, 20201, "结算周期开始日期不能晚于结束日期")
	case errors.Is(err, service.ErrInvalidDateRange):
		response.BadRequest(c, 20110, "日期区间无效")
	case errors.Is(err, service.ErrExportGenerateFail):
		response.InternalError(c)
	default:
		response.InternalError(c)
	}
}
