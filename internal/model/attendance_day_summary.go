package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 日考勤状态
// 目前只推导 PRESENT / ABSENT；其余状态需要排班与假期数据
const (
	DayStatusPresent = "PRESENT"
	DayStatusAbsent  = "ABSENT"
	DayStatusLate    = "LATE"
	DayStatusOnLeave = "ON_LEAVE"
	DayStatusHoliday = "HOLIDAY"
)

// AttendanceDaySummary 员工日考勤汇总 — 对应 attendance_day_summaries
// 派生数据：可由当日已结束的 WorkSession 完全重建，唯一键 (employee_id, work_date)
type AttendanceDaySummary struct {
	AttendanceDaySummaryID string          `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"attendance_day_summary_id"`
	EmployeeID             string          `gorm:"type:uuid;not null"                             json:"employee_id"`
	WorkDate               time.Time       `gorm:"type:date;not null"                             json:"work_date"`
	TotalWorkSeconds       int64           `gorm:"not null;default:0"                             json:"total_work_seconds"`
	TotalOvertimeSeconds   int64           `gorm:"not null;default:0"                             json:"total_overtime_seconds"`
	ExpectedWorkSeconds    int64           `gorm:"not null;default:0"                             json:"expected_work_seconds"`
	TotalEarnings          decimal.Decimal `gorm:"type:numeric(10,2);not null;default:0"          json:"total_earnings"`
	Status                 string          `gorm:"type:varchar(20);not null;default:'PRESENT'"    json:"status"`
	BaseModel
}

// TableName 指定表名
func (AttendanceDaySummary) TableName() string { return "attendance_day_summaries" }
