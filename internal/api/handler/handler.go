package handler

import (
	"go.uber.org/zap"

	"github.com/Lucius010/OptiTrack/internal/service"
)

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth       *AuthHandler
	Attendance *AttendanceHandler
	Overtime   *OvertimeHandler
	Tracker    *TrackerHandler
	Export     *ExportHandler
}

// NewHandler 创建 Handler 聚合
// revoker 传入 nil 接口值表示 Redis 不可用
func NewHandler(svc *service.Service, revoker TokenRevoker, logger *zap.Logger) *Handler {
	return &Handler{
		Auth:       NewAuthHandler(revoker, logger),
		Attendance: NewAttendanceHandler(svc.Attendance),
		Overtime:   NewOvertimeHandler(svc.Overtime),
		Tracker:    NewTrackerHandler(svc.Tracker),
		Export:     NewExportHandler(svc.Export),
	}
}
