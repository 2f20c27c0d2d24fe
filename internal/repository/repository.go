package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repository 所有 Repository 的聚合入口
type Repository struct {
	db *gorm.DB

	Employee     EmployeeRepository
	WorkSession  WorkSessionRepository
	DaySummary   DaySummaryRepository
	OvertimeRule OvertimeRuleRepository
	Overtime     OvertimeEntryRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:           db,
		Employee:     NewEmployeeRepo(db),
		WorkSession:  NewWorkSessionRepo(db),
		DaySummary:   NewDaySummaryRepo(db),
		OvertimeRule: NewOvertimeRuleRepo(db),
		Overtime:     NewOvertimeEntryRepo(db),
	}
}

// WithTx 返回绑定到事务连接的 Repository 聚合
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return NewRepository(tx)
}

// Transaction 在单个数据库事务中执行 fn，fn 返回错误时回滚
// 未持有数据库连接时（单元测试注入 mock）直接在当前聚合上执行
func (r *Repository) Transaction(ctx context.Context, fn func(txRepo *Repository) error) error {
	if r.db == nil {
		return fn(r)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(r.WithTx(tx))
	})
}
