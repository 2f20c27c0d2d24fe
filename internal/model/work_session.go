package model

import "time"

// 签到来源
const (
	SourceWeb    = "WEB"
	SourceMobile = "MOBILE"
	SourceKiosk  = "KIOSK"
	SourceAPI    = "API"
)

// 签退来源
const (
	EndSourceWeb          = "WEB"
	EndSourceMobile       = "MOBILE"
	EndSourceAutoTimeout  = "AUTO_TIMEOUT"
	EndSourceManualAdjust = "MANUAL_ADJUST"
)

// WorkSession 考勤会话表 — 对应 work_sessions
// ClockOutAt 为空表示会话未结束；每名员工最多一条未结束会话（部分唯一索引）
type WorkSession struct {
	WorkSessionID    string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"work_session_id"`
	EmployeeID       string     `gorm:"type:uuid;not null"                             json:"employee_id"`
	ClockInAt        time.Time  `gorm:"not null"                                       json:"clock_in_at"`
	ClockOutAt       *time.Time `json:"clock_out_at,omitempty"`
	ClockInSource    string     `gorm:"type:varchar(20);not null;default:'WEB'"        json:"clock_in_source"`
	ClockOutSource   *string    `gorm:"type:varchar(20)"                               json:"clock_out_source,omitempty"`
	TotalWorkSeconds int64      `gorm:"not null;default:0"                             json:"total_work_seconds"`
	WorkDate         time.Time  `gorm:"type:date;not null"                             json:"work_date"`
	IsManualEdit     bool       `gorm:"not null;default:false"                         json:"is_manual_edit"`
	ManualEditReason string     `gorm:"type:text;not null;default:''"                  json:"manual_edit_reason,omitempty"`
	ApprovedBy       *string    `gorm:"type:uuid"                                      json:"approved_by,omitempty"`
	ApprovedAt       *time.Time `json:"approved_at,omitempty"`
	BaseModel

	// 关联
	Employee *Employee `gorm:"foreignKey:EmployeeID;references:EmployeeID" json:"employee,omitempty"`
}

// TableName 指定表名
func (WorkSession) TableName() string { return "work_sessions" }

// IsOpen 会话是否未结束
func (s *WorkSession) IsOpen() bool { return s.ClockOutAt == nil }

// Duration 已记录的工作时长
func (s *WorkSession) Duration() time.Duration {
	return time.Duration(s.TotalWorkSeconds) * time.Second
}
