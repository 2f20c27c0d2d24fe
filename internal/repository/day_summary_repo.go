package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Lucius010/OptiTrack/internal/model"
)

// DaySummaryRepository 日考勤汇总数据访问接口
type DaySummaryRepository interface {
	// Upsert 按 (employee_id, work_date) 插入或覆盖全部派生字段
	Upsert(ctx context.Context, summary *model.AttendanceDaySummary) error
	Get(ctx context.Context, employeeID string, workDate time.Time) (*model.AttendanceDaySummary, error)
	ListByEmployee(ctx context.Context, employeeID string, from, to time.Time) ([]model.AttendanceDaySummary, error)
}

type daySummaryRepo struct {
	db *gorm.DB
}

// NewDaySummaryRepo 创建 DaySummaryRepository 实例
func NewDaySummaryRepo(db *gorm.DB) DaySummaryRepository {
	return &daySummaryRepo{db: db}
}

func (r *daySummaryRepo) Upsert(ctx context.Context, summary *model.AttendanceDaySummary) error {
	summary.UpdatedAt = time.Now().UTC()
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "employee_id"}, {Name: "work_date"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"total_work_seconds",
				"total_overtime_seconds",
				"expected_work_seconds",
				"total_earnings",
				"status",
				"updated_at",
			}),
		}).
		Create(summary).Error
}

func (r *daySummaryRepo) Get(ctx context.Context, employeeID string, workDate time.Time) (*model.AttendanceDaySummary, error) {
	var summary model.AttendanceDaySummary
	err := r.db.WithContext(ctx).
		Where("employee_id = ? AND work_date = ?", employeeID, workDate).
		First(&summary).Error
	if err != nil {
		return nil, err
	}
	return &summary, nil
}

func (r *daySummaryRepo) ListByEmployee(ctx context.Context, employeeID string, from, to time.Time) ([]model.AttendanceDaySummary, error) {
	var summaries []model.AttendanceDaySummary
	err := r.db.WithContext(ctx).
		Where("employee_id = ? AND work_date BETWEEN ? AND ?", employeeID, from, to).
		Order("work_date ASC").
		Find(&summaries).Error
	return summaries, err
}
