package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 计薪方式
const (
	PayTypeHourly  = "HOURLY"
	PayTypeDaily   = "DAILY"
	PayTypeMonthly = "MONTHLY"
)

// Employee 员工表 — 对应 employees（目录服务维护，本服务只读）
type Employee struct {
	EmployeeID   string          `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"employee_id"`
	EmployeeCode string          `gorm:"type:varchar(50);not null"                      json:"employee_code"`
	Name         string          `gorm:"type:varchar(100);not null"                     json:"name"`
	IsActive     bool            `gorm:"not null;default:true"                          json:"is_active"`
	PayType      string          `gorm:"type:varchar(10);not null;default:'MONTHLY'"    json:"pay_type"`
	PayRate      decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"          json:"pay_rate"`
	DepartmentID *string         `gorm:"type:uuid"                                      json:"department_id,omitempty"`
	RoleID       *string         `gorm:"type:uuid"                                      json:"role_id,omitempty"`
	Timezone     string          `gorm:"type:varchar(64);not null;default:'UTC'"        json:"timezone"`
	BaseModel

	// 关联
	Department *Department `gorm:"foreignKey:DepartmentID;references:DepartmentID" json:"department,omitempty"`
	Role       *Role       `gorm:"foreignKey:RoleID;references:RoleID"             json:"role,omitempty"`
}

// TableName 指定表名
func (Employee) TableName() string { return "employees" }

// Location 员工所在时区，无效或为空时回落到 fallback
func (e *Employee) Location(fallback *time.Location) *time.Location {
	if fallback == nil {
		fallback = time.UTC
	}
	if e.Timezone == "" {
		return fallback
	}
	loc, err := time.LoadLocation(e.Timezone)
	if err != nil {
		return fallback
	}
	return loc
}
