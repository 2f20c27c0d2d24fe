package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/Lucius010/OptiTrack/internal/model"
)

// WorkSessionRepository 考勤会话数据访问接口
type WorkSessionRepository interface {
	// Create 插入未结束的会话；员工已有未结束会话时返回 gorm.ErrDuplicatedKey
	Create(ctx context.Context, session *model.WorkSession) error
	GetByID(ctx context.Context, id string) (*model.WorkSession, error)
	GetOpenByEmployee(ctx context.Context, employeeID string) (*model.WorkSession, error)
	// Update 写回打卡时间、时长与审批相关字段
	Update(ctx context.Context, session *model.WorkSession) error
	// Approve 只写审批字段；会话不存在或未结束时返回 gorm.ErrRecordNotFound
	Approve(ctx context.Context, id, approverID string, at time.Time) error
	ListClosedByEmployeeAndDate(ctx context.Context, employeeID string, workDate time.Time) ([]model.WorkSession, error)
	// ListByEmployeeInRange 按 work_date 闭区间查询全部会话（含未结束）
	ListByEmployeeInRange(ctx context.Context, employeeID string, from, to time.Time) ([]model.WorkSession, error)
	ListPaged(ctx context.Context, employeeID string, from, to time.Time, offset, limit int) ([]model.WorkSession, int64, error)
	// ListOpen 查询所有未结束会话，预加载员工与部门
	ListOpen(ctx context.Context) ([]model.WorkSession, error)
}

type workSessionRepo struct {
	db *gorm.DB
}

// NewWorkSessionRepo 创建 WorkSessionRepository 实例
func NewWorkSessionRepo(db *gorm.DB) WorkSessionRepository {
	return &workSessionRepo{db: db}
}

func (r *workSessionRepo) Create(ctx context.Context, session *model.WorkSession) error {
	return r.db.WithContext(ctx).Create(session).Error
}

func (r *workSessionRepo) GetByID(ctx context.Context, id string) (*model.WorkSession, error) {
	var session model.WorkSession
	err := r.db.WithContext(ctx).
		Where("work_session_id = ?", id).
		First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *workSessionRepo) GetOpenByEmployee(ctx context.Context, employeeID string) (*model.WorkSession, error) {
	var session model.WorkSession
	err := r.db.WithContext(ctx).
		Where("employee_id = ? AND clock_out_at IS NULL", employeeID).
		First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *workSessionRepo) Update(ctx context.Context, session *model.WorkSession) error {
	result := r.db.WithContext(ctx).
		Model(&model.WorkSession{}).
		Where("work_session_id = ?", session.WorkSessionID).
		Updates(map[string]interface{}{
			"clock_in_at":        session.ClockInAt,
			"clock_out_at":       session.ClockOutAt,
			"clock_out_source":   session.ClockOutSource,
			"total_work_seconds": session.TotalWorkSeconds,
			"work_date":          session.WorkDate,
			"is_manual_edit":     session.IsManualEdit,
			"manual_edit_reason": session.ManualEditReason,
			"approved_by":        session.ApprovedBy,
			"approved_at":        session.ApprovedAt,
			"updated_at":         time.Now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *workSessionRepo) Approve(ctx context.Context, id, approverID string, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&model.WorkSession{}).
		Where("work_session_id = ? AND clock_out_at IS NOT NULL", id).
		Updates(map[string]interface{}{
			"approved_by": approverID,
			"approved_at": at,
			"updated_at":  time.Now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *workSessionRepo) ListClosedByEmployeeAndDate(ctx context.Context, employeeID string, workDate time.Time) ([]model.WorkSession, error) {
	var sessions []model.WorkSession
	err := r.db.WithContext(ctx).
		Where("employee_id = ? AND work_date = ? AND clock_out_at IS NOT NULL", employeeID, workDate).
		Order("clock_in_at ASC").
		Find(&sessions).Error
	return sessions, err
}

func (r *workSessionRepo) ListByEmployeeInRange(ctx context.Context, employeeID string, from, to time.Time) ([]model.WorkSession, error) {
	var sessions []model.WorkSession
	err := r.db.WithContext(ctx).
		Where("employee_id = ? AND work_date BETWEEN ? AND ?", employeeID, from, to).
		Order("clock_in_at ASC").
		Find(&sessions).Error
	return sessions, err
}

func (r *workSessionRepo) ListPaged(ctx context.Context, employeeID string, from, to time.Time, offset, limit int) ([]model.WorkSession, int64, error) {
	var sessions []model.WorkSession
	var total int64

	db := r.db.WithContext(ctx).
		Model(&model.WorkSession{}).
		Where("employee_id = ? AND work_date BETWEEN ? AND ?", employeeID, from, to)

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Order("clock_in_at DESC").
		Offset(offset).Limit(limit).
		Find(&sessions).Error; err != nil {
		return nil, 0, err
	}

	return sessions, total, nil
}

func (r *workSessionRepo) ListOpen(ctx context.Context) ([]model.WorkSession, error) {
	var sessions []model.WorkSession
	err := r.db.WithContext(ctx).
		Preload("Employee").
		Preload("Employee.Department").
		Where("clock_out_at IS NULL").
		Order("clock_in_at ASC").
		Find(&sessions).Error
	return sessions, err
}
