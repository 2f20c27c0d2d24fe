package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/Lucius010/OptiTrack/internal/model"
	"github.com/Lucius010/OptiTrack/internal/repository"
	pkgerrors "github.com/Lucius010/OptiTrack/pkg/errors"
)

// ── Mock EmployeeRepository ──

type mockEmployeeRepo struct {
	mu          sync.RWMutex
	employees   map[string]*model.Employee
	departments map[string]*model.Department
}

func newMockEmployeeRepo() *mockEmployeeRepo {
	return &mockEmployeeRepo{
		employees:   make(map[string]*model.Employee),
		departments: make(map[string]*model.Department),
	}
}

func (m *mockEmployeeRepo) add(emp *model.Employee) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.employees[emp.EmployeeID] = emp
}

func (m *mockEmployeeRepo) addDepartment(dept *model.Department) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.departments[dept.DepartmentID] = dept
}

func (m *mockEmployeeRepo) get(id string) *model.Employee {
	m.mu.RLock()
	defer m.mu.RUnlock()
	emp, ok := m.employees[id]
	if !ok {
		return nil
	}
	c := *emp
	if c.DepartmentID != nil {
		c.Department = m.departments[*c.DepartmentID]
	}
	return &c
}

func (m *mockEmployeeRepo) GetByID(_ context.Context, id string) (*model.Employee, error) {
	if emp := m.get(id); emp != nil {
		return emp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockEmployeeRepo) GetForUpdate(ctx context.Context, id string) (*model.Employee, error) {
	return m.GetByID(ctx, id)
}

func (m *mockEmployeeRepo) ListActive(_ context.Context) ([]model.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []model.Employee
	for _, emp := range m.employees {
		if emp.IsActive {
			result = append(result, *emp)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].EmployeeCode < result[j].EmployeeCode })
	return result, nil
}

// ── Mock WorkSessionRepository ──
// Create 模拟部分唯一索引：同一员工已有未结束会话时返回 gorm.ErrDuplicatedKey

type mockWorkSessionRepo struct {
	mu        sync.RWMutex
	sessions  map[string]*model.WorkSession
	seq       int
	employees *mockEmployeeRepo
	rangeErr  error
	// afterGet 在 GetByID 释放锁后调用，用于插入并发写
	afterGet func(id string)
}

func newMockWorkSessionRepo(employees *mockEmployeeRepo) *mockWorkSessionRepo {
	return &mockWorkSessionRepo{sessions: make(map[string]*model.WorkSession), employees: employees}
}

func (m *mockWorkSessionRepo) Create(_ context.Context, session *model.WorkSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if session.ClockOutAt == nil {
		for _, s := range m.sessions {
			if s.EmployeeID == session.EmployeeID && s.ClockOutAt == nil {
				return gorm.ErrDuplicatedKey
			}
		}
	}
	m.seq++
	if session.WorkSessionID == "" {
		session.WorkSessionID = fmt.Sprintf("ws-%d", m.seq)
	}
	c := *session
	m.sessions[session.WorkSessionID] = &c
	return nil
}

// seedClosed 直接写入一条已结束会话
func (m *mockWorkSessionRepo) seedClosed(employeeID string, in time.Time, d time.Duration) *model.WorkSession {
	out := in.Add(d)
	src := model.EndSourceWeb
	s := &model.WorkSession{
		EmployeeID:       employeeID,
		ClockInAt:        in,
		ClockOutAt:       &out,
		ClockInSource:    model.SourceWeb,
		ClockOutSource:   &src,
		TotalWorkSeconds: int64(d / time.Second),
		WorkDate:         model.DateOf(in, time.UTC),
	}
	_ = m.Create(context.Background(), s)
	return s
}

func (m *mockWorkSessionRepo) GetByID(_ context.Context, id string) (*model.WorkSession, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	var c model.WorkSession
	if ok {
		c = *s
	}
	hook := m.afterGet
	m.mu.RUnlock()

	if hook != nil {
		hook(id)
	}
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &c, nil
}

func (m *mockWorkSessionRepo) GetOpenByEmployee(_ context.Context, employeeID string) (*model.WorkSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.sessions {
		if s.EmployeeID == employeeID && s.ClockOutAt == nil {
			c := *s
			return &c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockWorkSessionRepo) Update(_ context.Context, session *model.WorkSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[session.WorkSessionID]; !ok {
		return gorm.ErrRecordNotFound
	}
	c := *session
	m.sessions[session.WorkSessionID] = &c
	return nil
}

func (m *mockWorkSessionRepo) Approve(_ context.Context, id, approverID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok || s.ClockOutAt == nil {
		return gorm.ErrRecordNotFound
	}
	approver := approverID
	s.ApprovedBy = &approver
	s.ApprovedAt = &at
	return nil
}

func (m *mockWorkSessionRepo) filter(keep func(s *model.WorkSession) bool) []model.WorkSession {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []model.WorkSession
	for _, s := range m.sessions {
		if keep(s) {
			result = append(result, *s)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ClockInAt.Before(result[j].ClockInAt) })
	return result
}

func (m *mockWorkSessionRepo) ListClosedByEmployeeAndDate(_ context.Context, employeeID string, workDate time.Time) ([]model.WorkSession, error) {
	return m.filter(func(s *model.WorkSession) bool {
		return s.EmployeeID == employeeID && s.WorkDate.Equal(workDate) && s.ClockOutAt != nil
	}), nil
}

func (m *mockWorkSessionRepo) ListByEmployeeInRange(_ context.Context, employeeID string, from, to time.Time) ([]model.WorkSession, error) {
	if m.rangeErr != nil {
		return nil, m.rangeErr
	}
	return m.filter(func(s *model.WorkSession) bool {
		return s.EmployeeID == employeeID && !s.WorkDate.Before(from) && !s.WorkDate.After(to)
	}), nil
}

func (m *mockWorkSessionRepo) ListPaged(ctx context.Context, employeeID string, from, to time.Time, offset, limit int) ([]model.WorkSession, int64, error) {
	all, _ := m.ListByEmployeeInRange(ctx, employeeID, from, to)
	total := int64(len(all))
	if offset >= len(all) {
		return []model.WorkSession{}, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (m *mockWorkSessionRepo) ListOpen(_ context.Context) ([]model.WorkSession, error) {
	result := m.filter(func(s *model.WorkSession) bool { return s.ClockOutAt == nil })
	for i := range result {
		result[i].Employee = m.employees.get(result[i].EmployeeID)
	}
	return result, nil
}

// ── Mock DaySummaryRepository ──

type mockDaySummaryRepo struct {
	mu        sync.RWMutex
	summaries map[string]*model.AttendanceDaySummary
	upserts   int
}

func newMockDaySummaryRepo() *mockDaySummaryRepo {
	return &mockDaySummaryRepo{summaries: make(map[string]*model.AttendanceDaySummary)}
}

func summaryKey(employeeID string, day time.Time) string {
	return employeeID + "|" + model.FormatDate(day)
}

func (m *mockDaySummaryRepo) Upsert(_ context.Context, summary *model.AttendanceDaySummary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upserts++
	c := *summary
	m.summaries[summaryKey(summary.EmployeeID, summary.WorkDate)] = &c
	return nil
}

func (m *mockDaySummaryRepo) Get(_ context.Context, employeeID string, workDate time.Time) (*model.AttendanceDaySummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.summaries[summaryKey(employeeID, workDate)]; ok {
		c := *s
		return &c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockDaySummaryRepo) ListByEmployee(_ context.Context, employeeID string, from, to time.Time) ([]model.AttendanceDaySummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []model.AttendanceDaySummary
	for _, s := range m.summaries {
		if s.EmployeeID == employeeID && !s.WorkDate.Before(from) && !s.WorkDate.After(to) {
			result = append(result, *s)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].WorkDate.Before(result[j].WorkDate) })
	return result, nil
}

// ── Mock OvertimeRuleRepository ──

type mockOvertimeRuleRepo struct {
	mu    sync.RWMutex
	rules map[string]*model.OvertimeRule
	seq   int
}

func newMockOvertimeRuleRepo() *mockOvertimeRuleRepo {
	return &mockOvertimeRuleRepo{rules: make(map[string]*model.OvertimeRule)}
}

func (m *mockOvertimeRuleRepo) GetByID(_ context.Context, id string) (*model.OvertimeRule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if r, ok := m.rules[id]; ok {
		c := *r
		return &c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockOvertimeRuleRepo) list(activeOnly bool) []model.OvertimeRule {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []model.OvertimeRule
	for _, r := range m.rules {
		if !activeOnly || r.IsActive {
			result = append(result, *r)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].RuleID < result[j].RuleID })
	return result
}

func (m *mockOvertimeRuleRepo) List(_ context.Context) ([]model.OvertimeRule, error) {
	return m.list(false), nil
}

func (m *mockOvertimeRuleRepo) ListActive(_ context.Context) ([]model.OvertimeRule, error) {
	return m.list(true), nil
}

func (m *mockOvertimeRuleRepo) Create(_ context.Context, rule *model.OvertimeRule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	if rule.RuleID == "" {
		rule.RuleID = fmt.Sprintf("rule-%d", m.seq)
	}
	if rule.Version == 0 {
		rule.Version = 1
	}
	c := *rule
	m.rules[rule.RuleID] = &c
	return nil
}

func (m *mockOvertimeRuleRepo) Update(_ context.Context, rule *model.OvertimeRule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.rules[rule.RuleID]
	if !ok || existing.Version != rule.Version {
		return pkgerrors.ErrOptimisticLock
	}
	rule.Version++
	c := *rule
	m.rules[rule.RuleID] = &c
	return nil
}

// ── Mock OvertimeEntryRepository ──
// UpsertUnlocked 与数据库语义一致：已锁定的条目不修改，返回 written=false

type mockOvertimeEntryRepo struct {
	mu        sync.RWMutex
	entries   map[string]*model.OvertimeEntry
	seq       int
	employees *mockEmployeeRepo
	rules     *mockOvertimeRuleRepo
}

func newMockOvertimeEntryRepo(employees *mockEmployeeRepo, rules *mockOvertimeRuleRepo) *mockOvertimeEntryRepo {
	return &mockOvertimeEntryRepo{entries: make(map[string]*model.OvertimeEntry), employees: employees, rules: rules}
}

func (m *mockOvertimeEntryRepo) findKey(employeeID, ruleID string, start, end time.Time) *model.OvertimeEntry {
	for _, e := range m.entries {
		if e.EmployeeID == employeeID && e.RuleID == ruleID && e.PeriodStart.Equal(start) && e.PeriodEnd.Equal(end) {
			return e
		}
	}
	return nil
}

func (m *mockOvertimeEntryRepo) UpsertUnlocked(_ context.Context, entry *model.OvertimeEntry) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing := m.findKey(entry.EmployeeID, entry.RuleID, entry.PeriodStart, entry.PeriodEnd); existing != nil {
		if existing.IsLocked {
			return false, nil
		}
		existing.HoursRegular = entry.HoursRegular
		existing.HoursOvertime = entry.HoursOvertime
		existing.BaseRate = entry.BaseRate
		existing.OvertimeMultiplier = entry.OvertimeMultiplier
		existing.OvertimeAmount = entry.OvertimeAmount
		existing.FinalizedAt = entry.FinalizedAt
		return true, nil
	}
	m.seq++
	c := *entry
	c.OvertimeEntryID = fmt.Sprintf("ot-%d", m.seq)
	c.IsLocked = false
	m.entries[c.OvertimeEntryID] = &c
	return true, nil
}

func (m *mockOvertimeEntryRepo) GetByID(_ context.Context, id string) (*model.OvertimeEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if e, ok := m.entries[id]; ok {
		c := *e
		return &c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockOvertimeEntryRepo) GetByKey(_ context.Context, employeeID, ruleID string, start, end time.Time) (*model.OvertimeEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if e := m.findKey(employeeID, ruleID, start, end); e != nil {
		c := *e
		return &c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockOvertimeEntryRepo) SetLocked(_ context.Context, id string, locked bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	e.IsLocked = locked
	return nil
}

func (m *mockOvertimeEntryRepo) List(ctx context.Context, filter repository.OvertimeEntryFilter) ([]model.OvertimeEntry, error) {
	m.mu.RLock()
	var result []model.OvertimeEntry
	for _, e := range m.entries {
		if filter.EmployeeID != "" && e.EmployeeID != filter.EmployeeID {
			continue
		}
		if filter.RuleID != "" && e.RuleID != filter.RuleID {
			continue
		}
		if filter.PeriodStart != nil && e.PeriodStart.Before(*filter.PeriodStart) {
			continue
		}
		if filter.PeriodEnd != nil && e.PeriodEnd.After(*filter.PeriodEnd) {
			continue
		}
		result = append(result, *e)
	}
	m.mu.RUnlock()

	for i := range result {
		result[i].Employee = m.employees.get(result[i].EmployeeID)
		if rule, err := m.rules.GetByID(ctx, result[i].RuleID); err == nil {
			result[i].Rule = rule
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].OvertimeEntryID < result[j].OvertimeEntryID })
	return result, nil
}

func (m *mockOvertimeEntryRepo) count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// ── Mock PeriodLocker ──

type mockPeriodLocker struct {
	mu       sync.Mutex
	held     map[string]string
	acquired int
	released int
	err      error
}

func newMockPeriodLocker() *mockPeriodLocker {
	return &mockPeriodLocker{held: make(map[string]string)}
}

func (m *mockPeriodLocker) AcquireLock(_ context.Context, key string, _ time.Duration) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", false, m.err
	}
	if _, ok := m.held[key]; ok {
		return "", false, nil
	}
	m.acquired++
	token := fmt.Sprintf("token-%d", m.acquired)
	m.held[key] = token
	return token, true, nil
}

func (m *mockPeriodLocker) ReleaseLock(_ context.Context, key, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.held[key] != token {
		return errors.New("lock token mismatch")
	}
	delete(m.held, key)
	m.released++
	return nil
}

// ── 测试环境 ──

type testEnv struct {
	repo      *repository.Repository
	employees *mockEmployeeRepo
	sessions  *mockWorkSessionRepo
	summaries *mockDaySummaryRepo
	rules     *mockOvertimeRuleRepo
	entries   *mockOvertimeEntryRepo
}

func newTestEnv() *testEnv {
	employees := newMockEmployeeRepo()
	sessions := newMockWorkSessionRepo(employees)
	summaries := newMockDaySummaryRepo()
	rules := newMockOvertimeRuleRepo()
	entries := newMockOvertimeEntryRepo(employees, rules)
	return &testEnv{
		repo: &repository.Repository{
			Employee:     employees,
			WorkSession:  sessions,
			DaySummary:   summaries,
			OvertimeRule: rules,
			Overtime:     entries,
		},
		employees: employees,
		sessions:  sessions,
		summaries: summaries,
		rules:     rules,
		entries:   entries,
	}
}
