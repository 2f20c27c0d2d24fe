package dto

import "github.com/shopspring/decimal"

// ── 加班规则 ──

// CreateOvertimeRuleRequest 创建加班规则请求
type CreateOvertimeRuleRequest struct {
	Name           string           `json:"name"            binding:"required,max=100"`
	Scope          string           `json:"scope"           binding:"required"`
	ThresholdHours decimal.Decimal  `json:"threshold_hours" binding:"required"`
	Multiplier     *decimal.Decimal `json:"multiplier"`
	IsActive       *bool            `json:"is_active"`
	DepartmentID   *string          `json:"department_id"   binding:"omitempty,uuid"`
	RoleID         *string          `json:"role_id"         binding:"omitempty,uuid"`
}

// UpdateOvertimeRuleRequest 更新加班规则请求（乐观锁）
type UpdateOvertimeRuleRequest struct {
	Name           *string          `json:"name"            binding:"omitempty,max=100"`
	Scope          *string          `json:"scope"`
	ThresholdHours *decimal.Decimal `json:"threshold_hours"`
	Multiplier     *decimal.Decimal `json:"multiplier"`
	IsActive       *bool            `json:"is_active"`
	DepartmentID   *string          `json:"department_id"   binding:"omitempty,uuid"`
	RoleID         *string          `json:"role_id"         binding:"omitempty,uuid"`
	Version        int              `json:"version"         binding:"required,min=1"`
}

// OvertimeRuleResponse 加班规则响应
type OvertimeRuleResponse struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Scope          string  `json:"scope"`
	ThresholdHours string  `json:"threshold_hours"`
	Multiplier     string  `json:"multiplier"`
	IsActive       bool    `json:"is_active"`
	DepartmentID   *string `json:"department_id,omitempty"`
	RoleID         *string `json:"role_id,omitempty"`
	Version        int     `json:"version"`
	CreatedAt      string  `json:"created_at"`
	UpdatedAt      string  `json:"updated_at"`
}

// ── 加班重算 ──

// PeriodRequest 结算周期（YYYY-MM-DD，闭区间）
type PeriodRequest struct {
	PeriodStart string `json:"period_start" form:"period_start" binding:"required"`
	PeriodEnd   string `json:"period_end"   form:"period_end"   binding:"required"`
}

// RecalculateResponse 重算结果
type RecalculateResponse struct {
	PeriodStart        string `json:"period_start"`
	PeriodEnd          string `json:"period_end"`
	EmployeesProcessed int    `json:"employees_processed"`
	EntriesWritten     int    `json:"entries_written"`
	LockedSkipped      int    `json:"locked_skipped"`
	SkippedRules       int    `json:"skipped_rules"`
	DurationMS         int64  `json:"duration_ms"`
}

// ── 加班条目 ──

// ListOvertimeEntriesRequest 加班条目查询
type ListOvertimeEntriesRequest struct {
	EmployeeID  string `form:"employee_id"`
	RuleID      string `form:"rule_id"`
	PeriodStart string `form:"period_start"`
	PeriodEnd   string `form:"period_end"`
}

// OvertimeEntryResponse 加班条目响应
type OvertimeEntryResponse struct {
	ID                 string `json:"id"`
	EmployeeID         string `json:"employee_id"`
	EmployeeName       string `json:"employee_name,omitempty"`
	RuleID             string `json:"rule_id"`
	RuleName           string `json:"rule_name,omitempty"`
	PeriodStart        string `json:"period_start"`
	PeriodEnd          string `json:"period_end"`
	HoursRegular       string `json:"hours_regular"`
	HoursOvertime      string `json:"hours_overtime"`
	BaseRate           string `json:"base_rate"`
	OvertimeMultiplier string `json:"overtime_multiplier"`
	OvertimeAmount     string `json:"overtime_amount"`
	IsLocked           bool   `json:"is_locked"`
	FinalizedAt        string `json:"finalized_at"`
}
