package dto

import "time"

// ── 考勤模块 DTO ──

// ClockRequest 签到 / 签退请求
// Timestamp 为空时使用服务端当前时间
type ClockRequest struct {
	Source    string     `json:"source"`
	Timestamp *time.Time `json:"timestamp"`
}

// ListSessionsRequest 考勤会话分页查询
type ListSessionsRequest struct {
	PaginationRequest
	DateRangeRequest
}

// ManualEditRequest 手工修正已结束会话的打卡时间
type ManualEditRequest struct {
	ClockInAt  time.Time `json:"clock_in_at"  binding:"required"`
	ClockOutAt time.Time `json:"clock_out_at" binding:"required"`
	Reason     string    `json:"reason"`
}

// WorkSessionResponse 考勤会话响应
type WorkSessionResponse struct {
	ID               string  `json:"id"`
	EmployeeID       string  `json:"employee_id"`
	ClockInAt        string  `json:"clock_in_at"`
	ClockOutAt       *string `json:"clock_out_at,omitempty"`
	ClockInSource    string  `json:"clock_in_source"`
	ClockOutSource   string  `json:"clock_out_source,omitempty"`
	TotalWorkSeconds int64   `json:"total_work_seconds"`
	TotalHours       string  `json:"total_hours"`
	WorkDate         string  `json:"work_date"`
	IsOpen           bool    `json:"is_open"`
	IsManualEdit     bool    `json:"is_manual_edit"`
	ManualEditReason string  `json:"manual_edit_reason,omitempty"`
	ApprovedBy       *string `json:"approved_by,omitempty"`
	ApprovedAt       *string `json:"approved_at,omitempty"`
}

// DaySummaryResponse 日考勤汇总响应
type DaySummaryResponse struct {
	EmployeeID           string `json:"employee_id"`
	WorkDate             string `json:"work_date"`
	TotalWorkSeconds     int64  `json:"total_work_seconds"`
	TotalOvertimeSeconds int64  `json:"total_overtime_seconds"`
	ExpectedWorkSeconds  int64  `json:"expected_work_seconds"`
	TotalEarnings        string `json:"total_earnings"`
	Status               string `json:"status"`
}
