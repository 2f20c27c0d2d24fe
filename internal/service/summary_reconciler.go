package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Lucius010/OptiTrack/internal/model"
	"github.com/Lucius010/OptiTrack/internal/repository"
	"github.com/Lucius010/OptiTrack/pkg/metrics"
)

// SummaryReconciler 日考勤汇总重建器
// 每次都按当日全部已结束会话重新汇总，不做增量累加
type SummaryReconciler struct {
	expected time.Duration
	metrics  metrics.Collector
	logger   *zap.Logger
}

// NewSummaryReconciler 创建 SummaryReconciler，expected 为每日应出勤时长
func NewSummaryReconciler(expected time.Duration, collector metrics.Collector, logger *zap.Logger) *SummaryReconciler {
	if collector == nil {
		collector = metrics.NewNop()
	}
	return &SummaryReconciler{expected: expected, metrics: collector, logger: logger}
}

// Recompute 重建 (employee, workDate) 的日汇总
// repo 由调用方传入，打卡流程中为事务内的 Repository，保证汇总与会话在同一事务提交
func (r *SummaryReconciler) Recompute(ctx context.Context, repo *repository.Repository, emp *model.Employee, workDate time.Time) (*model.AttendanceDaySummary, error) {
	begin := time.Now()

	sessions, err := repo.WorkSession.ListClosedByEmployeeAndDate(ctx, emp.EmployeeID, workDate)
	if err != nil {
		return nil, fmt.Errorf("查询当日考勤失败: %w", err)
	}

	var totalSeconds int64
	for i := range sessions {
		totalSeconds += sessions[i].TotalWorkSeconds
	}
	total := time.Duration(totalSeconds) * time.Second

	overtime := total - r.expected
	if overtime < 0 {
		overtime = 0
	}

	status := model.DayStatusPresent
	if totalSeconds == 0 {
		status = model.DayStatusAbsent
	}

	summary := &model.AttendanceDaySummary{
		EmployeeID:           emp.EmployeeID,
		WorkDate:             workDate,
		TotalWorkSeconds:     totalSeconds,
		TotalOvertimeSeconds: int64(overtime / time.Second),
		ExpectedWorkSeconds:  int64(r.expected / time.Second),
		TotalEarnings:        ComputeEarnings(total, emp.PayType, emp.PayRate),
		Status:               status,
	}

	if err := repo.DaySummary.Upsert(ctx, summary); err != nil {
		return nil, fmt.Errorf("写入日考勤汇总失败: %w", err)
	}

	r.metrics.RecordSummaryRecompute(time.Since(begin))
	r.logger.Debug("日考勤汇总已重建",
		zap.String("employee_id", emp.EmployeeID),
		zap.String("work_date", model.FormatDate(workDate)),
		zap.Int64("total_work_seconds", totalSeconds),
		zap.Int("sessions", len(sessions)),
	)

	return summary, nil
}
