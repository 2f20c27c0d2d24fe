package dto

// ── 实时看板 ──

// LiveEmployeeResponse 当前在岗员工
type LiveEmployeeResponse struct {
	EmployeeID     string `json:"employee_id"`
	EmployeeCode   string `json:"employee_code"`
	Name           string `json:"name"`
	Department     string `json:"department"`
	SessionID      string `json:"session_id"`
	ClockInAt      string `json:"clock_in_at"`
	ElapsedSeconds int64  `json:"elapsed_seconds"`
}

// DepartmentOccupancyResponse 部门在岗人数
type DepartmentOccupancyResponse struct {
	Department string `json:"department"`
	Count      int    `json:"count"`
}

// DailyStatsResponse 员工单日统计
type DailyStatsResponse struct {
	EmployeeID   string `json:"employee_id"`
	Date         string `json:"date"`
	TotalSeconds int64  `json:"total_seconds"`
	TotalHours   string `json:"total_hours"`
	SessionCount int    `json:"session_count"`
}
