package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/Lucius010/OptiTrack/internal/dto"
	"github.com/Lucius010/OptiTrack/internal/service"
	"github.com/Lucius010/OptiTrack/pkg/response"
)

// AttendanceHandler 考勤模块 HTTP 处理器
type AttendanceHandler struct {
	attendanceSvc service.AttendanceService
}

// NewAttendanceHandler 创建 AttendanceHandler
func NewAttendanceHandler(attendanceSvc service.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{attendanceSvc: attendanceSvc}
}

// ClockIn 签到
// POST /api/v1/attendance/clock-in
func (h *AttendanceHandler) ClockIn(c *gin.Context) {
	employeeID, ok := MustGetEmployeeID(c)
	if !ok {
		return
	}

	var req dto.ClockRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	session, err := h.attendanceSvc.ClockIn(c.Request.Context(), employeeID, req.Source, req.Timestamp)
	if err != nil {
		handleAttendanceError(c, err)
		return
	}

	response.Created(c, session)
}

// ClockOut 签退
// POST /api/v1/attendance/clock-out
func (h *AttendanceHandler) ClockOut(c *gin.Context) {
	employeeID, ok := MustGetEmployeeID(c)
	if !ok {
		return
	}

	var req dto.ClockRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	session, err := h.attendanceSvc.ClockOut(c.Request.Context(), employeeID, req.Source, req.Timestamp)
	if err != nil {
		handleAttendanceError(c, err)
		return
	}

	response.OK(c, session)
}

// GetOpenSession 当前未结束的会话
// GET /api/v1/attendance/sessions/open
func (h *AttendanceHandler) GetOpenSession(c *gin.Context) {
	employeeID, ok := MustGetEmployeeID(c)
	if !ok {
		return
	}

	session, err := h.attendanceSvc.GetOpenSession(c.Request.Context(), employeeID)
	if err != nil {
		if errors.Is(err, service.ErrNoOpenSession) {
			response.NotFound(c, 20102, "当前没有未结束的考勤")
			return
		}
		handleAttendanceError(c, err)
		return
	}

	response.OK(c, session)
}

// ListSessions 分页查询本人考勤会话
// GET /api/v1/attendance/sessions?from=&to=&page=&page_size=
func (h *AttendanceHandler) ListSessions(c *gin.Context) {
	employeeID, ok := MustGetEmployeeID(c)
	if !ok {
		return
	}

	var req dto.ListSessionsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	list, total, err := h.attendanceSvc.ListSessions(c.Request.Context(), employeeID, &req)
	if err != nil {
		handleAttendanceError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// ManualEdit 手工修正已结束会话（管理端）
// PUT /api/v1/attendance/sessions/:id
func (h *AttendanceHandler) ManualEdit(c *gin.Context) {
	editorID, ok := MustGetEmployeeID(c)
	if !ok {
		return
	}

	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "会话ID不能为空")
		return
	}

	var req dto.ManualEditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	session, err := h.attendanceSvc.ManualEdit(c.Request.Context(), id, &req, editorID)
	if err != nil {
		handleAttendanceError(c, err)
		return
	}

	response.OK(c, session)
}

// Approve 审批会话（管理端）
// POST /api/v1/attendance/sessions/:id/approve
func (h *AttendanceHandler) Approve(c *gin.Context) {
	approverID, ok := MustGetEmployeeID(c)
	if !ok {
		return
	}

	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "会话ID不能为空")
		return
	}

	session, err := h.attendanceSvc.Approve(c.Request.Context(), id, approverID)
	if err != nil {
		handleAttendanceError(c, err)
		return
	}

	response.OK(c, session)
}

// ListDaySummaries 本人日考勤汇总
// GET /api/v1/attendance/summaries?from=&to=
func (h *AttendanceHandler) ListDaySummaries(c *gin.Context) {
	employeeID, ok := MustGetEmployeeID(c)
	if !ok {
		return
	}

	var req dto.DateRangeRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	list, err := h.attendanceSvc.ListDaySummaries(c.Request.Context(), employeeID, &req)
	if err != nil {
		handleAttendanceError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// GetDaySummary 本人某日考勤汇总
// GET /api/v1/attendance/summaries/:date
func (h *AttendanceHandler) GetDaySummary(c *gin.Context) {
	employeeID, ok := MustGetEmployeeID(c)
	if !ok {
		return
	}

	summary, err := h.attendanceSvc.GetDaySummary(c.Request.Context(), employeeID, c.Param("date"))
	if err != nil {
		handleAttendanceError(c, err)
		return
	}

	response.OK(c, summary)
}

// bindOptionalJSON 请求体可以为空；非空时必须是合法 JSON
func bindOptionalJSON(c *gin.Context, obj any) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(obj); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return false
	}
	return true
}

// handleAttendanceError 统一处理考勤模块业务错误
func handleAttendanceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrAlreadyOpenSession):
		response.Conflict(c, 20101, "已有未结束的考勤，请先签退")
	case errors.Is(err, service.ErrNoOpenSession):
		response.Conflict(c, 20102, "当前没有未结束的考勤")
	case errors.Is(err, service.ErrEmployeeNotFound):
		response.NotFound(c, 20103, "员工不存在")
	case errors.Is(err, service.ErrEmployeeInactive):
		response.Forbidden(c, 20104, "员工已停用")
	case errors.Is(err, service.ErrInvalidSource):
		response.BadRequest(c, 20105, "无效的打卡来源")
	case errors.Is(err, service.ErrSessionNotFound):
		response.NotFound(c, 20106, "考勤记录不存在")
	case errors.Is(err, service.ErrSessionStillOpen):
		response.Conflict(c, 20107, "考勤尚未结束，不能修正")
	case errors.Is(err, service.ErrManualEditReasonRequired):
		response.BadRequest(c, 20108, "手工修正必须填写原因")
	case errors.Is(err, service.ErrInvalidSessionTimes):
		response.BadRequest(c, 20109, "签退时间必须晚于签到时间")
	case errors.Is(err, service.ErrInvalidDateRange):
		response.BadRequest(c, 20110, "日期区间无效")
	case errors.Is(err, service.ErrSummaryNotFound):
		response.NotFound(c, 20111, "当日暂无考勤汇总")
	default:
		response.InternalError(c)
	}
}
