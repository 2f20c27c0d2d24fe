package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/Lucius010/OptiTrack/internal/service"
	"github.com/Lucius010/OptiTrack/pkg/response"
)

// TrackerHandler 实时看板 HTTP 处理器
type TrackerHandler struct {
	trackerSvc service.TrackerService
}

// NewTrackerHandler 创建 TrackerHandler
func NewTrackerHandler(trackerSvc service.TrackerService) *TrackerHandler {
	return &TrackerHandler{trackerSvc: trackerSvc}
}

// Live 当前在岗员工
// GET /api/v1/tracker/live
func (h *TrackerHandler) Live(c *gin.Context) {
	list, err := h.trackerSvc.LiveEmployees(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// Departments 按部门统计在岗人数
// GET /api/v1/tracker/departments
func (h *TrackerHandler) Departments(c *gin.Context) {
	list, err := h.trackerSvc.DepartmentOccupancy(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// MyToday 本人当日统计
// GET /api/v1/tracker/me/today?date=
func (h *TrackerHandler) MyToday(c *gin.Context) {
	employeeID, ok := MustGetEmployeeID(c)
	if !ok {
		return
	}

	stats, err := h.trackerSvc.DailyStats(c.Request.Context(), employeeID, c.Query("date"))
	if err != nil {
		handleAttendanceError(c, err)
		return
	}

	response.OK(c, stats)
}
