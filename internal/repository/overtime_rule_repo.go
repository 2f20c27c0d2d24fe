package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/Lucius010/OptiTrack/internal/model"
	pkgerrors "github.com/Lucius010/OptiTrack/pkg/errors"
)

// OvertimeRuleRepository 加班规则数据访问接口
type OvertimeRuleRepository interface {
	GetByID(ctx context.Context, id string) (*model.OvertimeRule, error)
	List(ctx context.Context) ([]model.OvertimeRule, error)
	ListActive(ctx context.Context) ([]model.OvertimeRule, error)
	Create(ctx context.Context, rule *model.OvertimeRule) error
	// Update 乐观锁更新，版本不一致时返回 pkgerrors.ErrOptimisticLock
	Update(ctx context.Context, rule *model.OvertimeRule) error
}

type overtimeRuleRepo struct {
	db *gorm.DB
}

// NewOvertimeRuleRepo 创建 OvertimeRuleRepository 实例
func NewOvertimeRuleRepo(db *gorm.DB) OvertimeRuleRepository {
	return &overtimeRuleRepo{db: db}
}

func (r *overtimeRuleRepo) GetByID(ctx context.Context, id string) (*model.OvertimeRule, error) {
	var rule model.OvertimeRule
	err := r.db.WithContext(ctx).
		Where("rule_id = ?", id).
		First(&rule).Error
	if err != nil {
		return nil, err
	}
	return &rule, nil
}

func (r *overtimeRuleRepo) List(ctx context.Context) ([]model.OvertimeRule, error) {
	var rules []model.OvertimeRule
	err := r.db.WithContext(ctx).
		Order("created_at ASC").
		Find(&rules).Error
	return rules, err
}

func (r *overtimeRuleRepo) ListActive(ctx context.Context) ([]model.OvertimeRule, error) {
	var rules []model.OvertimeRule
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("created_at ASC").
		Find(&rules).Error
	return rules, err
}

func (r *overtimeRuleRepo) Create(ctx context.Context, rule *model.OvertimeRule) error {
	return r.db.WithContext(ctx).Create(rule).Error
}

func (r *overtimeRuleRepo) Update(ctx context.Context, rule *model.OvertimeRule) error {
	oldVersion := rule.Version
	result := r.db.WithContext(ctx).
		Model(&model.OvertimeRule{}).
		Where("rule_id = ? AND version = ?", rule.RuleID, oldVersion).
		Updates(map[string]interface{}{
			"name":            rule.Name,
			"scope":           rule.Scope,
			"threshold_hours": rule.ThresholdHours,
			"multiplier":      rule.Multiplier,
			"is_active":       rule.IsActive,
			"department_id":   rule.DepartmentID,
			"role_id":         rule.RoleID,
			"version":         oldVersion + 1,
			"updated_at":      time.Now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	rule.Version = oldVersion + 1
	return nil
}
