package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Lucius010/OptiTrack/internal/dto"
	"github.com/Lucius010/OptiTrack/internal/model"
	"github.com/Lucius010/OptiTrack/internal/repository"
	"github.com/Lucius010/OptiTrack/pkg/keylock"
	"github.com/Lucius010/OptiTrack/pkg/metrics"
)

// ── 考勤模块业务错误 ──

var (
	ErrEmployeeNotFound         = errors.New("员工不存在")
	ErrEmployeeInactive         = errors.New("员工已停用")
	ErrAlreadyOpenSession       = errors.New("已有未结束的考勤，请先签退")
	ErrNoOpenSession            = errors.New("当前没有未结束的考勤")
	ErrInvalidSource            = errors.New("无效的打卡来源")
	ErrSessionNotFound          = errors.New("考勤记录不存在")
	ErrSessionStillOpen         = errors.New("考勤尚未结束")
	ErrManualEditReasonRequired = errors.New("手工修正必须填写原因")
	ErrInvalidSessionTimes      = errors.New("签退时间必须晚于签到时间")
	ErrInvalidDateRange         = errors.New("日期区间无效")
	ErrSummaryNotFound          = errors.New("当日暂无考勤汇总")
)

// 默认查询最近 30 天
const defaultRangeDays = 30

var (
	clockInSources = map[string]bool{
		model.SourceWeb:    true,
		model.SourceMobile: true,
		model.SourceKiosk:  true,
		model.SourceAPI:    true,
	}
	clockOutSources = map[string]bool{
		model.EndSourceWeb:         true,
		model.EndSourceMobile:      true,
		model.EndSourceAutoTimeout: true,
	}
)

// AttendanceService 考勤业务接口
//
// 同一员工的签到 / 签退按以下三层串行化：
//   - 进程内按员工 ID 加锁
//   - 事务内 SELECT ... FOR UPDATE 锁定员工行（跨实例）
//   - 部分唯一索引 uniq_open_session_per_employee 兜底
type AttendanceService interface {
	ClockIn(ctx context.Context, employeeID, source string, at *time.Time) (*dto.WorkSessionResponse, error)
	ClockOut(ctx context.Context, employeeID, source string, at *time.Time) (*dto.WorkSessionResponse, error)
	ManualEdit(ctx context.Context, sessionID string, req *dto.ManualEditRequest, editorID string) (*dto.WorkSessionResponse, error)
	Approve(ctx context.Context, sessionID, approverID string) (*dto.WorkSessionResponse, error)
	GetOpenSession(ctx context.Context, employeeID string) (*dto.WorkSessionResponse, error)
	ListSessions(ctx context.Context, employeeID string, req *dto.ListSessionsRequest) ([]dto.WorkSessionResponse, int64, error)
	GetDaySummary(ctx context.Context, employeeID, date string) (*dto.DaySummaryResponse, error)
	ListDaySummaries(ctx context.Context, employeeID string, req *dto.DateRangeRequest) ([]dto.DaySummaryResponse, error)
}

type attendanceService struct {
	repo       *repository.Repository
	reconciler *SummaryReconciler
	locks      *keylock.Locker
	defaultLoc *time.Location
	metrics    metrics.Collector
	logger     *zap.Logger
	now        func() time.Time
}

// NewAttendanceService 创建 AttendanceService 实例
func NewAttendanceService(
	repo *repository.Repository,
	reconciler *SummaryReconciler,
	defaultLoc *time.Location,
	collector metrics.Collector,
	logger *zap.Logger,
) AttendanceService {
	if defaultLoc == nil {
		defaultLoc = time.UTC
	}
	if collector == nil {
		collector = metrics.NewNop()
	}
	return &attendanceService{
		repo:       repo,
		reconciler: reconciler,
		locks:      keylock.New(),
		defaultLoc: defaultLoc,
		metrics:    collector,
		logger:     logger,
		now:        time.Now,
	}
}

// ────────────────────── ClockIn ──────────────────────

func (s *attendanceService) ClockIn(ctx context.Context, employeeID, source string, at *time.Time) (*dto.WorkSessionResponse, error) {
	source, err := normalizeSource(source, clockInSources)
	if err != nil {
		s.metrics.RecordClockEvent("in", "rejected")
		return nil, err
	}
	ts := s.resolveTime(at)

	unlock := s.locks.Lock(employeeID)
	defer unlock()

	var session *model.WorkSession
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		emp, err := s.lockEmployee(ctx, tx, employeeID)
		if err != nil {
			return err
		}
		if !emp.IsActive {
			return ErrEmployeeInactive
		}

		if _, err := tx.WorkSession.GetOpenByEmployee(ctx, employeeID); err == nil {
			return ErrAlreadyOpenSession
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("查询未结束考勤失败: %w", err)
		}

		session = &model.WorkSession{
			EmployeeID:    employeeID,
			ClockInAt:     ts,
			ClockInSource: source,
			WorkDate:      model.DateOf(ts, emp.Location(s.defaultLoc)),
		}
		if err := tx.WorkSession.Create(ctx, session); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrAlreadyOpenSession
			}
			return fmt.Errorf("创建考勤记录失败: %w", err)
		}
		return nil
	})

	s.metrics.RecordClockEvent("in", clockOutcome(err))
	if err != nil {
		s.logFailure("签到失败", employeeID, err)
		return nil, err
	}

	s.logger.Info("员工签到",
		zap.String("employee_id", employeeID),
		zap.String("session_id", session.WorkSessionID),
		zap.String("source", source),
		zap.Time("clock_in_at", ts),
	)
	return toWorkSessionResponse(session), nil
}

// ────────────────────── ClockOut ──────────────────────

func (s *attendanceService) ClockOut(ctx context.Context, employeeID, source string, at *time.Time) (*dto.WorkSessionResponse, error) {
	source, err := normalizeSource(source, clockOutSources)
	if err != nil {
		s.metrics.RecordClockEvent("out", "rejected")
		return nil, err
	}
	ts := s.resolveTime(at)

	unlock := s.locks.Lock(employeeID)
	defer unlock()

	var session *model.WorkSession
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		emp, err := s.lockEmployee(ctx, tx, employeeID)
		if err != nil {
			return err
		}

		open, err := tx.WorkSession.GetOpenByEmployee(ctx, employeeID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNoOpenSession
			}
			return fmt.Errorf("查询未结束考勤失败: %w", err)
		}

		// 签退时间不晚于签到时间时，按签到后 1 秒结束
		out := ts
		if !out.After(open.ClockInAt) {
			out = open.ClockInAt.Add(time.Second)
		}
		open.ClockOutAt = &out
		open.ClockOutSource = &source
		open.TotalWorkSeconds = int64(out.Sub(open.ClockInAt) / time.Second)
		open.WorkDate = model.DateOf(open.ClockInAt, emp.Location(s.defaultLoc))

		if err := tx.WorkSession.Update(ctx, open); err != nil {
			return fmt.Errorf("更新考勤记录失败: %w", err)
		}
		if _, err := s.reconciler.Recompute(ctx, tx, emp, open.WorkDate); err != nil {
			return err
		}

		session = open
		return nil
	})

	s.metrics.RecordClockEvent("out", clockOutcome(err))
	if err != nil {
		s.logFailure("签退失败", employeeID, err)
		return nil, err
	}

	s.logger.Info("员工签退",
		zap.String("employee_id", employeeID),
		zap.String("session_id", session.WorkSessionID),
		zap.String("source", source),
		zap.Int64("total_work_seconds", session.TotalWorkSeconds),
	)
	return toWorkSessionResponse(session), nil
}

// ────────────────────── ManualEdit ──────────────────────

func (s *attendanceService) ManualEdit(ctx context.Context, sessionID string, req *dto.ManualEditRequest, editorID string) (*dto.WorkSessionResponse, error) {
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return nil, ErrManualEditReasonRequired
	}
	in := req.ClockInAt.UTC().Truncate(time.Second)
	out := req.ClockOutAt.UTC().Truncate(time.Second)
	if !out.After(in) {
		return nil, ErrInvalidSessionTimes
	}

	current, err := s.repo.WorkSession.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		s.logger.Error("查询考勤记录失败", zap.String("session_id", sessionID), zap.Error(err))
		return nil, err
	}

	unlock := s.locks.Lock(current.EmployeeID)
	defer unlock()

	var session *model.WorkSession
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		emp, err := s.lockEmployee(ctx, tx, current.EmployeeID)
		if err != nil {
			return err
		}

		// 加锁后重新读取，避免覆盖并发签退的结果
		target, err := tx.WorkSession.GetByID(ctx, sessionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSessionNotFound
			}
			return fmt.Errorf("查询考勤记录失败: %w", err)
		}
		if target.IsOpen() {
			return ErrSessionStillOpen
		}

		oldDate := target.WorkDate
		src := model.EndSourceManualAdjust
		target.ClockInAt = in
		target.ClockOutAt = &out
		target.ClockOutSource = &src
		target.TotalWorkSeconds = int64(out.Sub(in) / time.Second)
		target.WorkDate = model.DateOf(in, emp.Location(s.defaultLoc))
		target.IsManualEdit = true
		target.ManualEditReason = reason

		if err := tx.WorkSession.Update(ctx, target); err != nil {
			return fmt.Errorf("更新考勤记录失败: %w", err)
		}

		if _, err := s.reconciler.Recompute(ctx, tx, emp, target.WorkDate); err != nil {
			return err
		}
		if !oldDate.Equal(target.WorkDate) {
			if _, err := s.reconciler.Recompute(ctx, tx, emp, oldDate); err != nil {
				return err
			}
		}

		session = target
		return nil
	})
	if err != nil {
		s.logFailure("手工修正考勤失败", current.EmployeeID, err)
		return nil, err
	}

	s.logger.Info("考勤已手工修正",
		zap.String("session_id", sessionID),
		zap.String("employee_id", session.EmployeeID),
		zap.String("editor_id", editorID),
		zap.String("reason", reason),
	)
	return toWorkSessionResponse(session), nil
}

// ────────────────────── Approve ──────────────────────

func (s *attendanceService) Approve(ctx context.Context, sessionID, approverID string) (*dto.WorkSessionResponse, error) {
	session, err := s.repo.WorkSession.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		s.logger.Error("查询考勤记录失败", zap.String("session_id", sessionID), zap.Error(err))
		return nil, err
	}
	if session.IsOpen() {
		return nil, ErrSessionStillOpen
	}

	// 只更新审批列，不回写读取时的打卡字段
	now := s.now().UTC().Truncate(time.Second)
	if err := s.repo.WorkSession.Approve(ctx, sessionID, approverID, now); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		s.logger.Error("审批考勤失败", zap.String("session_id", sessionID), zap.Error(err))
		return nil, err
	}

	session, err = s.repo.WorkSession.GetByID(ctx, sessionID)
	if err != nil {
		s.logger.Error("查询考勤记录失败", zap.String("session_id", sessionID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("考勤已审批",
		zap.String("session_id", sessionID),
		zap.String("approver_id", approverID),
	)
	return toWorkSessionResponse(session), nil
}

// ────────────────────── 查询 ──────────────────────

func (s *attendanceService) GetOpenSession(ctx context.Context, employeeID string) (*dto.WorkSessionResponse, error) {
	session, err := s.repo.WorkSession.GetOpenByEmployee(ctx, employeeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoOpenSession
		}
		s.logger.Error("查询未结束考勤失败", zap.String("employee_id", employeeID), zap.Error(err))
		return nil, err
	}
	return toWorkSessionResponse(session), nil
}

func (s *attendanceService) ListSessions(ctx context.Context, employeeID string, req *dto.ListSessionsRequest) ([]dto.WorkSessionResponse, int64, error) {
	from, to, err := s.resolveRange(req.From, req.To)
	if err != nil {
		return nil, 0, err
	}

	sessions, total, err := s.repo.WorkSession.ListPaged(ctx, employeeID, from, to, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("查询考勤列表失败", zap.String("employee_id", employeeID), zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.WorkSessionResponse, 0, len(sessions))
	for i := range sessions {
		result = append(result, *toWorkSessionResponse(&sessions[i]))
	}
	return result, total, nil
}

func (s *attendanceService) GetDaySummary(ctx context.Context, employeeID, date string) (*dto.DaySummaryResponse, error) {
	day, err := model.ParseDate(date)
	if err != nil {
		return nil, ErrInvalidDateRange
	}

	summary, err := s.repo.DaySummary.Get(ctx, employeeID, day)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSummaryNotFound
		}
		s.logger.Error("查询日考勤汇总失败", zap.String("employee_id", employeeID), zap.Error(err))
		return nil, err
	}
	return toDaySummaryResponse(summary), nil
}

func (s *attendanceService) ListDaySummaries(ctx context.Context, employeeID string, req *dto.DateRangeRequest) ([]dto.DaySummaryResponse, error) {
	from, to, err := s.resolveRange(req.From, req.To)
	if err != nil {
		return nil, err
	}

	summaries, err := s.repo.DaySummary.ListByEmployee(ctx, employeeID, from, to)
	if err != nil {
		s.logger.Error("查询日考勤汇总列表失败", zap.String("employee_id", employeeID), zap.Error(err))
		return nil, err
	}

	result := make([]dto.DaySummaryResponse, 0, len(summaries))
	for i := range summaries {
		result = append(result, *toDaySummaryResponse(&summaries[i]))
	}
	return result, nil
}

// ── 内部辅助方法 ──

// lockEmployee 在事务内锁定员工行
// 停用员工仍可签退和被修正，在职校验只在签到时做
func (s *attendanceService) lockEmployee(ctx context.Context, tx *repository.Repository, employeeID string) (*model.Employee, error) {
	emp, err := tx.Employee.GetForUpdate(ctx, employeeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEmployeeNotFound
		}
		return nil, fmt.Errorf("锁定员工失败: %w", err)
	}
	return emp, nil
}

// resolveTime 未指定时间时取当前时间，统一为 UTC 并截断到秒
func (s *attendanceService) resolveTime(at *time.Time) time.Time {
	t := s.now()
	if at != nil {
		t = *at
	}
	return t.UTC().Truncate(time.Second)
}

// resolveRange 解析日期区间，缺省为截至今天的最近 30 天
func (s *attendanceService) resolveRange(fromStr, toStr string) (time.Time, time.Time, error) {
	to := model.DateOf(s.now(), s.defaultLoc)
	if toStr != "" {
		t, err := model.ParseDate(toStr)
		if err != nil {
			return time.Time{}, time.Time{}, ErrInvalidDateRange
		}
		to = t
	}

	from := to.AddDate(0, 0, -defaultRangeDays)
	if fromStr != "" {
		f, err := model.ParseDate(fromStr)
		if err != nil {
			return time.Time{}, time.Time{}, ErrInvalidDateRange
		}
		from = f
	}

	if from.After(to) {
		return time.Time{}, time.Time{}, ErrInvalidDateRange
	}
	return from, to, nil
}

// logFailure 业务拒绝记 Info，其余记 Error
func (s *attendanceService) logFailure(msg, employeeID string, err error) {
	if isAttendanceRejection(err) {
		s.logger.Info(msg, zap.String("employee_id", employeeID), zap.Error(err))
		return
	}
	s.logger.Error(msg, zap.String("employee_id", employeeID), zap.Error(err))
}

func normalizeSource(source string, allowed map[string]bool) (string, error) {
	source = strings.ToUpper(strings.TrimSpace(source))
	if source == "" {
		return model.SourceWeb, nil
	}
	if !allowed[source] {
		return "", ErrInvalidSource
	}
	return source, nil
}

func isAttendanceRejection(err error) bool {
	for _, target := range []error{
		ErrEmployeeNotFound,
		ErrEmployeeInactive,
		ErrAlreadyOpenSession,
		ErrNoOpenSession,
		ErrInvalidSource,
		ErrSessionNotFound,
		ErrSessionStillOpen,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func clockOutcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case isAttendanceRejection(err):
		return "rejected"
	default:
		return "error"
	}
}

func toWorkSessionResponse(s *model.WorkSession) *dto.WorkSessionResponse {
	resp := &dto.WorkSessionResponse{
		ID:               s.WorkSessionID,
		EmployeeID:       s.EmployeeID,
		ClockInAt:        s.ClockInAt.UTC().Format(time.RFC3339),
		ClockInSource:    s.ClockInSource,
		TotalWorkSeconds: s.TotalWorkSeconds,
		TotalHours:       hoursOf(s.Duration()).StringFixed(2),
		WorkDate:         model.FormatDate(s.WorkDate),
		IsOpen:           s.IsOpen(),
		IsManualEdit:     s.IsManualEdit,
		ManualEditReason: s.ManualEditReason,
		ApprovedBy:       s.ApprovedBy,
	}
	if s.ClockOutAt != nil {
		out := s.ClockOutAt.UTC().Format(time.RFC3339)
		resp.ClockOutAt = &out
	}
	if s.ClockOutSource != nil {
		resp.ClockOutSource = *s.ClockOutSource
	}
	if s.ApprovedAt != nil {
		at := s.ApprovedAt.UTC().Format(time.RFC3339)
		resp.ApprovedAt = &at
	}
	return resp
}

func toDaySummaryResponse(s *model.AttendanceDaySummary) *dto.DaySummaryResponse {
	return &dto.DaySummaryResponse{
		EmployeeID:           s.EmployeeID,
		WorkDate:             model.FormatDate(s.WorkDate),
		TotalWorkSeconds:     s.TotalWorkSeconds,
		TotalOvertimeSeconds: s.TotalOvertimeSeconds,
		ExpectedWorkSeconds:  s.ExpectedWorkSeconds,
		TotalEarnings:        s.TotalEarnings.StringFixed(2),
		Status:               s.Status,
	}
}
