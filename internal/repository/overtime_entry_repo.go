package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Lucius010/OptiTrack/internal/model"
)

// OvertimeEntryFilter 加班条目查询条件，空字段不参与过滤
type OvertimeEntryFilter struct {
	EmployeeID  string
	RuleID      string
	PeriodStart *time.Time
	PeriodEnd   *time.Time
}

// OvertimeEntryRepository 加班条目数据访问接口
type OvertimeEntryRepository interface {
	// UpsertUnlocked 按 (employee_id, rule_id, period_start, period_end) 插入或更新
	// 已锁定的条目不会被修改，此时 written 返回 false
	UpsertUnlocked(ctx context.Context, entry *model.OvertimeEntry) (written bool, err error)
	GetByID(ctx context.Context, id string) (*model.OvertimeEntry, error)
	GetByKey(ctx context.Context, employeeID, ruleID string, start, end time.Time) (*model.OvertimeEntry, error)
	SetLocked(ctx context.Context, id string, locked bool) error
	List(ctx context.Context, filter OvertimeEntryFilter) ([]model.OvertimeEntry, error)
}

type overtimeEntryRepo struct {
	db *gorm.DB
}

// NewOvertimeEntryRepo 创建 OvertimeEntryRepository 实例
func NewOvertimeEntryRepo(db *gorm.DB) OvertimeEntryRepository {
	return &overtimeEntryRepo{db: db}
}

// UpsertUnlocked 单条 INSERT ... ON CONFLICT DO UPDATE ... WHERE is_locked = false
// 锁定判断与写入在同一语句内完成，不会与并发的锁定操作交错
func (r *overtimeEntryRepo) UpsertUnlocked(ctx context.Context, entry *model.OvertimeEntry) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "employee_id"},
				{Name: "rule_id"},
				{Name: "period_start"},
				{Name: "period_end"},
			},
			DoUpdates: clause.AssignmentColumns([]string{
				"hours_regular",
				"hours_overtime",
				"base_rate",
				"overtime_multiplier",
				"overtime_amount",
				"finalized_at",
			}),
			Where: clause.Where{Exprs: []clause.Expression{
				clause.Eq{Column: clause.Column{Table: "overtime_entries", Name: "is_locked"}, Value: false},
			}},
		}).
		Omit("is_locked").
		Create(entry)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *overtimeEntryRepo) GetByID(ctx context.Context, id string) (*model.OvertimeEntry, error) {
	var entry model.OvertimeEntry
	err := r.db.WithContext(ctx).
		Where("overtime_entry_id = ?", id).
		First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *overtimeEntryRepo) GetByKey(ctx context.Context, employeeID, ruleID string, start, end time.Time) (*model.OvertimeEntry, error) {
	var entry model.OvertimeEntry
	err := r.db.WithContext(ctx).
		Where("employee_id = ? AND rule_id = ? AND period_start = ? AND period_end = ?",
			employeeID, ruleID, start, end).
		First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *overtimeEntryRepo) SetLocked(ctx context.Context, id string, locked bool) error {
	result := r.db.WithContext(ctx).
		Model(&model.OvertimeEntry{}).
		Where("overtime_entry_id = ?", id).
		Update("is_locked", locked)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *overtimeEntryRepo) List(ctx context.Context, filter OvertimeEntryFilter) ([]model.OvertimeEntry, error) {
	var entries []model.OvertimeEntry

	db := r.db.WithContext(ctx).
		Preload("Employee").
		Preload("Rule")

	if filter.EmployeeID != "" {
		db = db.Where("employee_id = ?", filter.EmployeeID)
	}
	if filter.RuleID != "" {
		db = db.Where("rule_id = ?", filter.RuleID)
	}
	if filter.PeriodStart != nil {
		db = db.Where("period_start >= ?", *filter.PeriodStart)
	}
	if filter.PeriodEnd != nil {
		db = db.Where("period_end <= ?", *filter.PeriodEnd)
	}

	err := db.Order("period_start DESC, employee_id ASC").Find(&entries).Error
	return entries, err
}
