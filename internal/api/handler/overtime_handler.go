package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Lucius010/OptiTrack/internal/dto"
	"github.com/Lucius010/OptiTrack/internal/model"
	"github.com/Lucius010/OptiTrack/internal/repository"
	"github.com/Lucius010/OptiTrack/internal/service"
	pkgerrors "github.com/Lucius010/OptiTrack/pkg/errors"
	"github.com/Lucius010/OptiTrack/pkg/response"
)

// OvertimeHandler 加班模块 HTTP 处理器
type OvertimeHandler struct {
	overtimeSvc service.OvertimeService
}

// NewOvertimeHandler 创建 OvertimeHandler
func NewOvertimeHandler(overtimeSvc service.OvertimeService) *OvertimeHandler {
	return &OvertimeHandler{overtimeSvc: overtimeSvc}
}

// ────────────────────── 规则 ──────────────────────

// ListRules 获取加班规则列表
// GET /api/v1/overtime/rules
func (h *OvertimeHandler) ListRules(c *gin.Context) {
	rules, err := h.overtimeSvc.ListRules(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": rules})
}

// GetRule 获取加班规则详情
// GET /api/v1/overtime/rules/:id
func (h *OvertimeHandler) GetRule(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "规则ID不能为空")
		return
	}

	rule, err := h.overtimeSvc.GetRule(c.Request.Context(), id)
	if err != nil {
		handleOvertimeError(c, err)
		return
	}

	response.OK(c, rule)
}

// CreateRule 创建加班规则（管理端）
// POST /api/v1/overtime/rules
func (h *OvertimeHandler) CreateRule(c *gin.Context) {
	var req dto.CreateOvertimeRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, 10001, "参数校验失败", err.Error())
		return
	}

	rule, err := h.overtimeSvc.CreateRule(c.Request.Context(), &req)
	if err != nil {
		handleOvertimeError(c, err)
		return
	}

	response.Created(c, rule)
}

// UpdateRule 更新加班规则（管理端，乐观锁）
// PUT /api/v1/overtime/rules/:id
func (h *OvertimeHandler) UpdateRule(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "规则ID不能为空")
		return
	}

	var req dto.UpdateOvertimeRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, 10001, "参数校验失败", err.Error())
		return
	}

	rule, err := h.overtimeSvc.UpdateRule(c.Request.Context(), id, &req)
	if err != nil {
		handleOvertimeError(c, err)
		return
	}

	response.OK(c, rule)
}

// ────────────────────── 重算 ──────────────────────

// Recalculate 重算结算周期内的加班条目（管理端）
// POST /api/v1/overtime/recalculate
func (h *OvertimeHandler) Recalculate(c *gin.Context) {
	var req dto.PeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	start, end, ok := parsePeriod(c, req.PeriodStart, req.PeriodEnd)
	if !ok {
		return
	}

	result, err := h.overtimeSvc.RecalculatePeriod(c.Request.Context(), start, end)
	if err != nil {
		handleOvertimeError(c, err)
		return
	}

	response.OK(c, dto.RecalculateResponse{
		PeriodStart:        model.FormatDate(result.PeriodStart),
		PeriodEnd:          model.FormatDate(result.PeriodEnd),
		EmployeesProcessed: result.EmployeesProcessed,
		EntriesWritten:     result.EntriesWritten,
		LockedSkipped:      result.LockedSkipped,
		SkippedRules:       result.SkippedRules,
		DurationMS:         result.Duration.Milliseconds(),
	})
}

// ────────────────────── 条目 ──────────────────────

// ListEntries 查询加班条目
// GET /api/v1/overtime/entries?employee_id=&rule_id=&period_start=&period_end=
// 非管理端只能查询本人
func (h *OvertimeHandler) ListEntries(c *gin.Context) {
	employeeID, ok := MustGetEmployeeID(c)
	if !ok {
		return
	}

	var req dto.ListOvertimeEntriesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	filter := repository.OvertimeEntryFilter{EmployeeID: req.EmployeeID, RuleID: req.RuleID}
	if !IsStaff(c) {
		filter.EmployeeID = employeeID
	}
	if req.PeriodStart != "" {
		d, err := model.ParseDate(req.PeriodStart)
		if err != nil {
			response.BadRequest(c, 10001, "period_start 格式应为 YYYY-MM-DD")
			return
		}
		filter.PeriodStart = &d
	}
	if req.PeriodEnd != "" {
		d, err := model.ParseDate(req.PeriodEnd)
		if err != nil {
			response.BadRequest(c, 10001, "period_end 格式应为 YYYY-MM-DD")
			return
		}
		filter.PeriodEnd = &d
	}

	list, err := h.overtimeSvc.ListEntries(c.Request.Context(), filter)
	if err != nil {
		handleOvertimeError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// LockEntry 锁定加班条目（管理端），锁定后重算不再覆盖
// POST /api/v1/overtime/entries/:id/lock
func (h *OvertimeHandler) LockEntry(c *gin.Context) {
	entry, err := h.overtimeSvc.LockEntry(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleOvertimeError(c, err)
		return
	}

	response.OK(c, entry)
}

// UnlockEntry 解锁加班条目（管理端）
// POST /api/v1/overtime/entries/:id/unlock
func (h *OvertimeHandler) UnlockEntry(c *gin.Context) {
	entry, err := h.overtimeSvc.UnlockEntry(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleOvertimeError(c, err)
		return
	}

	response.OK(c, entry)
}

// parsePeriod 解析 YYYY-MM-DD 结算周期，开始晚于结束时返回 400
func parsePeriod(c *gin.Context, startStr, endStr string) (time.Time, time.Time, bool) {
	start, err := model.ParseDate(startStr)
	if err != nil {
		response.BadRequest(c, 10001, "period_start 格式应为 YYYY-MM-DD")
		return time.Time{}, time.Time{}, false
	}
	end, err := model.ParseDate(endStr)
	if err != nil {
		response.BadRequest(c, 10001, "period_end 格式应为 YYYY-MM-DD")
		return time.Time{}, time.Time{}, false
	}
	if start.After(end) {
		response.BadRequest(c, 20201, "结算周期开始日期不能晚于结束日期")
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}

// handleOvertimeError 统一处理加班模块业务错误
func handleOvertimeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidPeriod):
		response.BadRequest(c, 20201, "结算周期开始日期不能晚于结束日期")
	case errors.Is(err, service.ErrRecalculationInProgress):
		response.Conflict(c, 20202, "该周期的加班重算正在进行中，请稍后重试")
	case errors.Is(err, service.ErrOvertimeRuleNotFound):
		response.NotFound(c, 20203, "加班规则不存在")
	case errors.Is(err, service.ErrOvertimeEntryNotFound):
		response.NotFound(c, 20204, "加班条目不存在")
	case errors.Is(err, service.ErrInvalidScope):
		response.BadRequest(c, 20205, "加班规则口径必须为 DAILY 或 WEEKLY")
	case errors.Is(err, service.ErrInvalidThreshold):
		response.BadRequest(c, 20206, "加班阈值必须大于 0 且不超过 168 小时")
	case errors.Is(err, service.ErrInvalidMultiplier):
		response.BadRequest(c, 20207, "加班倍率必须不小于 1")
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, 20208, "规则已被其他操作修改，请刷新后重试")
	default:
		response.InternalError(c)
	}
}
