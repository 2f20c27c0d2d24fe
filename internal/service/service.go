package service

import (
	"time"

	"go.uber.org/zap"

	"github.com/Lucius010/OptiTrack/config"
	"github.com/Lucius010/OptiTrack/internal/repository"
	"github.com/Lucius010/OptiTrack/pkg/metrics"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Attendance AttendanceService
	Overtime   OvertimeService
	Tracker    TrackerService
	Export     ExportService
}

// NewService 创建 Service 聚合
// locker 为空（Redis 不可用）时加班重算不做跨实例互斥
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	locker PeriodLocker,
	collector metrics.Collector,
	logger *zap.Logger,
) *Service {
	loc, err := time.LoadLocation(cfg.Attendance.DefaultTimezone)
	if err != nil {
		logger.Warn("默认时区无效，使用 UTC", zap.String("timezone", cfg.Attendance.DefaultTimezone), zap.Error(err))
		loc = time.UTC
	}

	reconciler := NewSummaryReconciler(cfg.Attendance.ExpectedDaily(), collector, logger)

	return &Service{
		Attendance: NewAttendanceService(repo, reconciler, loc, collector, logger),
		Overtime:   NewOvertimeService(repo, locker, cfg.Overtime.RecalcLockTTL, cfg.Overtime.Workers, collector, logger),
		Tracker:    NewTrackerService(repo, loc, logger),
		Export:     NewExportService(repo, logger),
	}
}
