package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/Lucius010/OptiTrack/internal/dto"
	"github.com/Lucius010/OptiTrack/internal/model"
	"github.com/Lucius010/OptiTrack/internal/repository"
	"github.com/Lucius010/OptiTrack/pkg/metrics"
)

// ── 加班模块业务错误 ──

var (
	ErrInvalidPeriod           = errors.New("结算周期无效：开始日期不能晚于结束日期")
	ErrRecalculationInProgress = errors.New("该周期的加班重算正在进行中，请稍后重试")
	ErrOvertimeRuleNotFound    = errors.New("加班规则不存在")
	ErrOvertimeEntryNotFound   = errors.New("加班条目不存在")
	ErrInvalidScope            = errors.New("加班规则口径必须为 DAILY 或 WEEKLY")
	ErrInvalidThreshold        = errors.New("加班阈值必须大于 0 且不超过 168 小时")
	ErrInvalidMultiplier       = errors.New("加班倍率必须不小于 1")
)

var (
	maxThresholdHours = decimal.NewFromInt(168)
	defaultMultiplier = decimal.RequireFromString("1.50")
)

// PeriodLocker 同一结算周期的跨实例互斥锁，由 pkg/redis.Client 实现
type PeriodLocker interface {
	AcquireLock(ctx context.Context, key string, ttl time.Duration) (token string, ok bool, err error)
	ReleaseLock(ctx context.Context, key, token string) error
}

// RecalculateResult 一次批量重算的统计
type RecalculateResult struct {
	PeriodStart        time.Time
	PeriodEnd          time.Time
	EmployeesProcessed int
	EntriesWritten     int
	LockedSkipped      int
	SkippedRules       int
	Duration           time.Duration
}

// OvertimeService 加班规则与结算业务接口
type OvertimeService interface {
	// RecalculatePeriod 按 [periodStart, periodEnd] 重算全部在职员工的加班条目
	RecalculatePeriod(ctx context.Context, periodStart, periodEnd time.Time) (*RecalculateResult, error)
	LockEntry(ctx context.Context, id string) (*dto.OvertimeEntryResponse, error)
	UnlockEntry(ctx context.Context, id string) (*dto.OvertimeEntryResponse, error)
	ListEntries(ctx context.Context, filter repository.OvertimeEntryFilter) ([]dto.OvertimeEntryResponse, error)

	ListRules(ctx context.Context) ([]dto.OvertimeRuleResponse, error)
	GetRule(ctx context.Context, id string) (*dto.OvertimeRuleResponse, error)
	CreateRule(ctx context.Context, req *dto.CreateOvertimeRuleRequest) (*dto.OvertimeRuleResponse, error)
	UpdateRule(ctx context.Context, id string, req *dto.UpdateOvertimeRuleRequest) (*dto.OvertimeRuleResponse, error)
}

type overtimeService struct {
	repo    *repository.Repository
	locker  PeriodLocker
	lockTTL time.Duration
	workers int
	metrics metrics.Collector
	logger  *zap.Logger
	now     func() time.Time
}

// NewOvertimeService 创建 OvertimeService 实例
// locker 为空时不做跨实例互斥
func NewOvertimeService(
	repo *repository.Repository,
	locker PeriodLocker,
	lockTTL time.Duration,
	workers int,
	collector metrics.Collector,
	logger *zap.Logger,
) OvertimeService {
	if workers <= 0 {
		workers = 1
	}
	if lockTTL <= 0 {
		lockTTL = 10 * time.Minute
	}
	if collector == nil {
		collector = metrics.NewNop()
	}
	return &overtimeService{
		repo:    repo,
		locker:  locker,
		lockTTL: lockTTL,
		workers: workers,
		metrics: collector,
		logger:  logger,
		now:     time.Now,
	}
}

// ═══════════════════════════════════════════════════════════
// RecalculatePeriod — 加班批量重算
// ═══════════════════════════════════════════════════════════
//
// 流程：
//   - 规则只加载一次；没有启用的规则直接返回
//   - 按员工并行（errgroup，上限 overtime.workers），每名员工只读取自己的会话
//   - 每个 (员工, 规则) 至多一条单语句 upsert，已锁定条目由数据库条件跳过
//   - 加班时长 <= 0 时不写入，已有条目保持原样
//
// 任一员工的基础设施错误会取消整批并返回错误；已写入的条目保留，重跑是安全的。

func (s *overtimeService) RecalculatePeriod(ctx context.Context, periodStart, periodEnd time.Time) (*RecalculateResult, error) {
	start := model.DateOf(periodStart, time.UTC)
	end := model.DateOf(periodEnd, time.UTC)
	if start.After(end) {
		return nil, ErrInvalidPeriod
	}

	begin := time.Now()
	result, err := s.recalculate(ctx, start, end)
	elapsed := time.Since(begin)
	if !errors.Is(err, ErrRecalculationInProgress) {
		s.metrics.RecordRecalculation(elapsed, err)
	}
	if err != nil {
		return nil, err
	}
	result.Duration = elapsed

	s.logger.Info("加班重算完成",
		zap.String("period_start", model.FormatDate(start)),
		zap.String("period_end", model.FormatDate(end)),
		zap.Int("employees_processed", result.EmployeesProcessed),
		zap.Int("entries_written", result.EntriesWritten),
		zap.Int("locked_skipped", result.LockedSkipped),
		zap.Int("skipped_rules", result.SkippedRules),
		zap.Duration("elapsed", elapsed),
	)
	return result, nil
}

func (s *overtimeService) recalculate(ctx context.Context, start, end time.Time) (*RecalculateResult, error) {
	release, err := s.acquirePeriodLock(ctx, start, end)
	if err != nil {
		return nil, err
	}
	defer release()

	result := &RecalculateResult{PeriodStart: start, PeriodEnd: end}

	rules, err := s.repo.OvertimeRule.ListActive(ctx)
	if err != nil {
		s.logger.Error("查询加班规则失败", zap.Error(err))
		return nil, err
	}
	if len(rules) == 0 {
		return result, nil
	}

	usable := make([]model.OvertimeRule, 0, len(rules))
	for _, rule := range rules {
		if rule.Scope != model.ScopeDaily && rule.Scope != model.ScopeWeekly {
			s.logger.Warn("跳过未知口径的加班规则",
				zap.String("rule_id", rule.RuleID),
				zap.String("scope", rule.Scope),
			)
			result.SkippedRules++
			continue
		}
		usable = append(usable, rule)
	}
	if len(usable) == 0 {
		return result, nil
	}

	employees, err := s.repo.Employee.ListActive(ctx)
	if err != nil {
		s.logger.Error("查询在职员工失败", zap.Error(err))
		return nil, err
	}

	var processed, written, locked atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i := range employees {
		emp := &employees[i]
		g.Go(func() error {
			w, l, err := s.recalculateEmployee(gctx, emp, usable, start, end)
			if err != nil {
				return fmt.Errorf("员工 %s 加班重算失败: %w", emp.EmployeeID, err)
			}
			processed.Add(1)
			written.Add(int64(w))
			locked.Add(int64(l))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.logger.Error("加班重算中止", zap.Error(err))
		return nil, err
	}

	result.EmployeesProcessed = int(processed.Load())
	result.EntriesWritten = int(written.Load())
	result.LockedSkipped = int(locked.Load())
	return result, nil
}

// recalculateEmployee 计算单名员工在周期内的加班，返回写入数与因锁定跳过数
func (s *overtimeService) recalculateEmployee(ctx context.Context, emp *model.Employee, rules []model.OvertimeRule, start, end time.Time) (int, int, error) {
	sessions, err := s.repo.WorkSession.ListByEmployeeInRange(ctx, emp.EmployeeID, start, end)
	if err != nil {
		return 0, 0, err
	}

	daily := bucketDailyHours(sessions)
	if len(daily) == 0 {
		return 0, 0, nil
	}

	written, locked := 0, 0
	for i := range rules {
		rule := &rules[i]
		if !rule.AppliesTo(emp) {
			continue
		}

		regular, overtime := applyRule(rule, daily)
		if !overtime.IsPositive() {
			continue
		}

		entry := &model.OvertimeEntry{
			EmployeeID:         emp.EmployeeID,
			RuleID:             rule.RuleID,
			PeriodStart:        start,
			PeriodEnd:          end,
			HoursRegular:       regular,
			HoursOvertime:      overtime,
			BaseRate:           emp.PayRate,
			OvertimeMultiplier: rule.Multiplier,
			OvertimeAmount:     overtime.Mul(emp.PayRate).Mul(rule.Multiplier).Round(2),
			FinalizedAt:        s.now().UTC(),
		}

		ok, err := s.repo.Overtime.UpsertUnlocked(ctx, entry)
		if err != nil {
			return written, locked, err
		}
		if ok {
			written++
			s.metrics.RecordOvertimeUpsert("written")
		} else {
			locked++
			s.metrics.RecordOvertimeUpsert("locked_skipped")
		}
	}
	return written, locked, nil
}

// bucketDailyHours 按 work_date 汇总已结束会话的小时数
func bucketDailyHours(sessions []model.WorkSession) map[string]decimal.Decimal {
	daily := make(map[string]decimal.Decimal)
	for i := range sessions {
		s := &sessions[i]
		if s.ClockOutAt == nil || s.ClockInAt.IsZero() {
			continue
		}
		key := model.FormatDate(s.WorkDate)
		daily[key] = daily[key].Add(hoursOf(s.ClockOutAt.Sub(s.ClockInAt)))
	}
	return daily
}

// applyRule 按规则口径拆分正常与加班小时，结果保留两位小数
func applyRule(rule *model.OvertimeRule, daily map[string]decimal.Decimal) (regular, overtime decimal.Decimal) {
	threshold := rule.ThresholdHours
	switch rule.Scope {
	case model.ScopeDaily:
		for _, h := range daily {
			regular = regular.Add(decimal.Min(h, threshold))
			overtime = overtime.Add(decimal.Max(h.Sub(threshold), decimal.Zero))
		}
	case model.ScopeWeekly:
		var total decimal.Decimal
		for _, h := range daily {
			total = total.Add(h)
		}
		regular = decimal.Min(total, threshold)
		overtime = decimal.Max(total.Sub(threshold), decimal.Zero)
	}
	return regular.Round(2), overtime.Round(2)
}

// acquirePeriodLock 获取周期锁，Redis 不可用时降级为不加锁
func (s *overtimeService) acquirePeriodLock(ctx context.Context, start, end time.Time) (func(), error) {
	noop := func() {}
	if s.locker == nil {
		return noop, nil
	}

	key := fmt.Sprintf("overtime:recalc:%s:%s", model.FormatDate(start), model.FormatDate(end))
	token, ok, err := s.locker.AcquireLock(ctx, key, s.lockTTL)
	if err != nil {
		s.logger.Warn("获取加班重算锁失败，降级为无锁执行", zap.String("key", key), zap.Error(err))
		return noop, nil
	}
	if !ok {
		return nil, ErrRecalculationInProgress
	}

	return func() {
		// 使用独立 context，请求取消后仍需释放锁
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.locker.ReleaseLock(releaseCtx, key, token); err != nil {
			s.logger.Warn("释放加班重算锁失败", zap.String("key", key), zap.Error(err))
		}
	}, nil
}

// ────────────────────── Lock / Unlock ──────────────────────

func (s *overtimeService) LockEntry(ctx context.Context, id string) (*dto.OvertimeEntryResponse, error) {
	return s.setLocked(ctx, id, true)
}

func (s *overtimeService) UnlockEntry(ctx context.Context, id string) (*dto.OvertimeEntryResponse, error) {
	return s.setLocked(ctx, id, false)
}

func (s *overtimeService) setLocked(ctx context.Context, id string, locked bool) (*dto.OvertimeEntryResponse, error) {
	if err := s.repo.Overtime.SetLocked(ctx, id, locked); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOvertimeEntryNotFound
		}
		s.logger.Error("更新加班条目锁定状态失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	entry, err := s.repo.Overtime.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOvertimeEntryNotFound
		}
		s.logger.Error("查询加班条目失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	s.logger.Info("加班条目锁定状态变更", zap.String("id", id), zap.Bool("locked", locked))
	return toOvertimeEntryResponse(entry), nil
}

// ────────────────────── ListEntries ──────────────────────

func (s *overtimeService) ListEntries(ctx context.Context, filter repository.OvertimeEntryFilter) ([]dto.OvertimeEntryResponse, error) {
	entries, err := s.repo.Overtime.List(ctx, filter)
	if err != nil {
		s.logger.Error("查询加班条目失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.OvertimeEntryResponse, 0, len(entries))
	for i := range entries {
		result = append(result, *toOvertimeEntryResponse(&entries[i]))
	}
	return result, nil
}

// ────────────────────── 规则管理 ──────────────────────

func (s *overtimeService) ListRules(ctx context.Context) ([]dto.OvertimeRuleResponse, error) {
	rules, err := s.repo.OvertimeRule.List(ctx)
	if err != nil {
		s.logger.Error("列出加班规则失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.OvertimeRuleResponse, 0, len(rules))
	for i := range rules {
		result = append(result, *toOvertimeRuleResponse(&rules[i]))
	}
	return result, nil
}

func (s *overtimeService) GetRule(ctx context.Context, id string) (*dto.OvertimeRuleResponse, error) {
	rule, err := s.getRule(ctx, id)
	if err != nil {
		return nil, err
	}
	return toOvertimeRuleResponse(rule), nil
}

func (s *overtimeService) CreateRule(ctx context.Context, req *dto.CreateOvertimeRuleRequest) (*dto.OvertimeRuleResponse, error) {
	rule := &model.OvertimeRule{
		Name:           strings.TrimSpace(req.Name),
		Scope:          strings.ToUpper(strings.TrimSpace(req.Scope)),
		ThresholdHours: req.ThresholdHours,
		Multiplier:     defaultMultiplier,
		IsActive:       true,
		DepartmentID:   req.DepartmentID,
		RoleID:         req.RoleID,
	}
	rule.Version = 1
	if req.Multiplier != nil {
		rule.Multiplier = *req.Multiplier
	}
	if req.IsActive != nil {
		rule.IsActive = *req.IsActive
	}

	if err := validateRule(rule); err != nil {
		return nil, err
	}

	if err := s.repo.OvertimeRule.Create(ctx, rule); err != nil {
		s.logger.Error("创建加班规则失败", zap.String("name", rule.Name), zap.Error(err))
		return nil, err
	}

	s.logger.Info("加班规则已创建", zap.String("rule_id", rule.RuleID), zap.String("scope", rule.Scope))
	return toOvertimeRuleResponse(rule), nil
}

func (s *overtimeService) UpdateRule(ctx context.Context, id string, req *dto.UpdateOvertimeRuleRequest) (*dto.OvertimeRuleResponse, error) {
	rule, err := s.getRule(ctx, id)
	if err != nil {
		return nil, err
	}

	// 以客户端持有的版本号做乐观锁
	rule.Version = req.Version
	if req.Name != nil {
		rule.Name = strings.TrimSpace(*req.Name)
	}
	if req.Scope != nil {
		rule.Scope = strings.ToUpper(strings.TrimSpace(*req.Scope))
	}
	if req.ThresholdHours != nil {
		rule.ThresholdHours = *req.ThresholdHours
	}
	if req.Multiplier != nil {
		rule.Multiplier = *req.Multiplier
	}
	if req.IsActive != nil {
		rule.IsActive = *req.IsActive
	}
	if req.DepartmentID != nil {
		rule.DepartmentID = emptyToNil(*req.DepartmentID)
	}
	if req.RoleID != nil {
		rule.RoleID = emptyToNil(*req.RoleID)
	}

	if err := validateRule(rule); err != nil {
		return nil, err
	}

	if err := s.repo.OvertimeRule.Update(ctx, rule); err != nil {
		s.logger.Error("更新加班规则失败", zap.String("rule_id", id), zap.Error(err))
		return nil, err
	}
	return toOvertimeRuleResponse(rule), nil
}

// ── 内部辅助方法 ──

func (s *overtimeService) getRule(ctx context.Context, id string) (*model.OvertimeRule, error) {
	rule, err := s.repo.OvertimeRule.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOvertimeRuleNotFound
		}
		s.logger.Error("查询加班规则失败", zap.String("rule_id", id), zap.Error(err))
		return nil, err
	}
	return rule, nil
}

func validateRule(rule *model.OvertimeRule) error {
	if rule.Scope != model.ScopeDaily && rule.Scope != model.ScopeWeekly {
		return ErrInvalidScope
	}
	if !rule.ThresholdHours.IsPositive() || rule.ThresholdHours.GreaterThan(maxThresholdHours) {
		return ErrInvalidThreshold
	}
	if rule.Multiplier.LessThan(decimal.NewFromInt(1)) {
		return ErrInvalidMultiplier
	}
	return nil
}

func emptyToNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func toOvertimeRuleResponse(rule *model.OvertimeRule) *dto.OvertimeRuleResponse {
	return &dto.OvertimeRuleResponse{
		ID:             rule.RuleID,
		Name:           rule.Name,
		Scope:          rule.Scope,
		ThresholdHours: rule.ThresholdHours.StringFixed(2),
		Multiplier:     rule.Multiplier.StringFixed(2),
		IsActive:       rule.IsActive,
		DepartmentID:   rule.DepartmentID,
		RoleID:         rule.RoleID,
		Version:        rule.Version,
		CreatedAt:      rule.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:      rule.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func toOvertimeEntryResponse(e *model.OvertimeEntry) *dto.OvertimeEntryResponse {
	resp := &dto.OvertimeEntryResponse{
		ID:                 e.OvertimeEntryID,
		EmployeeID:         e.EmployeeID,
		RuleID:             e.RuleID,
		PeriodStart:        model.FormatDate(e.PeriodStart),
		PeriodEnd:          model.FormatDate(e.PeriodEnd),
		HoursRegular:       e.HoursRegular.StringFixed(2),
		HoursOvertime:      e.HoursOvertime.StringFixed(2),
		BaseRate:           e.BaseRate.StringFixed(2),
		OvertimeMultiplier: e.OvertimeMultiplier.StringFixed(2),
		OvertimeAmount:     e.OvertimeAmount.StringFixed(2),
		IsLocked:           e.IsLocked,
		FinalizedAt:        e.FinalizedAt.UTC().Format(time.RFC3339),
	}
	if e.Employee != nil {
		resp.EmployeeName = e.Employee.Name
	}
	if e.Rule != nil {
		resp.RuleName = e.Rule.Name
	}
	return resp
}
