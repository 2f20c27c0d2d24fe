package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 加班规则口径
const (
	ScopeDaily  = "DAILY"
	ScopeWeekly = "WEEKLY"
)

// OvertimeRule 加班规则表 — 对应 overtime_rules
// DepartmentID / RoleID 为空表示对所有员工生效
type OvertimeRule struct {
	RuleID         string          `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"rule_id"`
	Name           string          `gorm:"type:varchar(100);not null"                     json:"name"`
	Scope          string          `gorm:"type:varchar(10);not null;default:'WEEKLY'"     json:"scope"`
	ThresholdHours decimal.Decimal `gorm:"type:numeric(5,2);not null"                     json:"threshold_hours"`
	Multiplier     decimal.Decimal `gorm:"type:numeric(4,2);not null;default:1.50"        json:"multiplier"`
	IsActive       bool            `gorm:"not null;default:true"                          json:"is_active"`
	DepartmentID   *string         `gorm:"type:uuid"                                      json:"department_id,omitempty"`
	RoleID         *string         `gorm:"type:uuid"                                      json:"role_id,omitempty"`
	VersionedModel
}

// TableName 指定表名
func (OvertimeRule) TableName() string { return "overtime_rules" }

// AppliesTo 规则是否适用于该员工（部门 / 角色限定）
func (r *OvertimeRule) AppliesTo(e *Employee) bool {
	if r.DepartmentID != nil && (e.DepartmentID == nil || *e.DepartmentID != *r.DepartmentID) {
		return false
	}
	if r.RoleID != nil && (e.RoleID == nil || *e.RoleID != *r.RoleID) {
		return false
	}
	return true
}

// OvertimeEntry 加班结算条目 — 对应 overtime_entries
// 唯一键 (employee_id, rule_id, period_start, period_end)；IsLocked 为 true 后重算不再修改
type OvertimeEntry struct {
	OvertimeEntryID    string          `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"overtime_entry_id"`
	EmployeeID         string          `gorm:"type:uuid;not null"                             json:"employee_id"`
	RuleID             string          `gorm:"type:uuid;not null"                             json:"rule_id"`
	PeriodStart        time.Time       `gorm:"type:date;not null"                             json:"period_start"`
	PeriodEnd          time.Time       `gorm:"type:date;not null"                             json:"period_end"`
	HoursRegular       decimal.Decimal `gorm:"type:numeric(6,2);not null;default:0"           json:"hours_regular"`
	HoursOvertime      decimal.Decimal `gorm:"type:numeric(6,2);not null;default:0"           json:"hours_overtime"`
	BaseRate           decimal.Decimal `gorm:"type:numeric(8,2);not null"                     json:"base_rate"`
	OvertimeMultiplier decimal.Decimal `gorm:"type:numeric(4,2);not null"                     json:"overtime_multiplier"`
	OvertimeAmount     decimal.Decimal `gorm:"type:numeric(10,2);not null"                    json:"overtime_amount"`
	IsLocked           bool            `gorm:"not null;default:false"                         json:"is_locked"`
	FinalizedAt        time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"finalized_at"`

	// 关联
	Employee *Employee     `gorm:"foreignKey:EmployeeID;references:EmployeeID" json:"employee,omitempty"`
	Rule     *OvertimeRule `gorm:"foreignKey:RuleID;references:RuleID"         json:"rule,omitempty"`
}

// TableName 指定表名
func (OvertimeEntry) TableName() string { return "overtime_entries" }
