package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Lucius010/OptiTrack/internal/dto"
	"github.com/Lucius010/OptiTrack/internal/model"
	"github.com/Lucius010/OptiTrack/pkg/metrics"
)

// ── 测试辅助 ──

// 2025-03-10 为周一
var testDay = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

func at(hour, minute int) *time.Time {
	t := testDay.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
	return &t
}

func newEmployee(id, payType, rate string) *model.Employee {
	return &model.Employee{
		EmployeeID:   id,
		EmployeeCode: "E-" + id,
		Name:         "员工" + id,
		IsActive:     true,
		PayType:      payType,
		PayRate:      decimal.RequireFromString(rate),
		Timezone:     "UTC",
	}
}

func setupTestAttendanceService() (*attendanceService, *testEnv) {
	env := newTestEnv()
	logger := zap.NewNop()
	reconciler := NewSummaryReconciler(8*time.Hour, metrics.NewNop(), logger)
	svc := NewAttendanceService(env.repo, reconciler, time.UTC, metrics.NewNop(), logger).(*attendanceService)
	svc.now = func() time.Time { return testDay.Add(18 * time.Hour) }
	return svc, env
}

// ── ClockIn 测试 ──

func TestAttendanceService_ClockIn_Success(t *testing.T) {
	svc, env := setupTestAttendanceService()
	env.employees.add(newEmployee("emp-1", model.PayTypeHourly, "20.00"))

	resp, err := svc.ClockIn(context.Background(), "emp-1", "", at(9, 0))
	if err != nil {
		t.Fatalf("ClockIn 应成功: %v", err)
	}
	if !resp.IsOpen {
		t.Error("签到后会话应为未结束")
	}
	if resp.ClockInSource != model.SourceWeb {
		t.Errorf("来源为空时应默认 WEB，实际=%s", resp.ClockInSource)
	}
	if resp.WorkDate != "2025-03-10" {
		t.Errorf("期望 work_date=2025-03-10，实际=%s", resp.WorkDate)
	}
	if resp.ClockInAt != "2025-03-10T09:00:00Z" {
		t.Errorf("签到时间不符: %s", resp.ClockInAt)
	}
}

func TestAttendanceService_ClockIn_DefaultsToNow(t *testing.T) {
	svc, env := setupTestAttendanceService()
	env.employees.add(newEmployee("emp-1", model.PayTypeHourly, "20.00"))
	svc.now = func() time.Time { return testDay.Add(9*time.Hour + 1500*time.Millisecond) }

	resp, err := svc.ClockIn(context.Background(), "emp-1", "kiosk", nil)
	if err != nil {
		t.Fatalf("ClockIn 应成功: %v", err)
	}
	if resp.ClockInAt != "2025-03-10T09:00:01Z" {
		t.Errorf("应使用当前时间并截断到秒，实际=%s", resp.ClockInAt)
	}
	if resp.ClockInSource != model.SourceKiosk {
		t.Errorf("来源应规范为大写 KIOSK，实际=%s", resp.ClockInSource)
	}
}

func TestAttendanceService_ClockIn_AlreadyOpen(t *testing.T) {
	svc, env := setupTestAttendanceService()
	env.employees.add(newEmployee("emp-1", model.PayTypeHourly, "20.00"))

	if _, err := svc.ClockIn(context.Background(), "emp-1", "WEB", at(9, 0)); err != nil {
		t.Fatalf("首次签到应成功: %v", err)
	}
	_, err := svc.ClockIn(context.Background(), "emp-1", "WEB", at(9, 5))
	if !errors.Is(err, ErrAlreadyOpenSession) {
		t.Errorf("期望 ErrAlreadyOpenSession，实际: %v", err)
	}
}

func TestAttendanceService_ClockIn_ConcurrentOnlyOneSucceeds(t *testing.T) {
	svc, env := setupTestAttendanceService()
	env.employees.add(newEmployee("emp-1", model.PayTypeHourly, "20.00"))

	const n = 20
	var wg sync.WaitGroup
	var mu sync.Mutex
	success, rejected := 0, 0

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.ClockIn(context.Background(), "emp-1", "WEB", at(9, 0))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				success++
			case errors.Is(err, ErrAlreadyOpenSession):
				rejected++
			default:
				t.Errorf("意外错误: %v", err)
			}
		}()
	}
	wg.Wait()

	if success != 1 || rejected != n-1 {
		t.Fatalf("期望 1 次成功 %d 次拒绝，实际成功=%d 拒绝=%d", n-1, success, rejected)
	}
	if svc.locks.Len() != 0 {
		t.Errorf("全部完成后不应残留员工锁，实际=%d", svc.locks.Len())
	}
}

func TestAttendanceService_ClockIn_DifferentEmployeesIndependent(t *testing.T) {
	svc, env := setupTestAttendanceService()
	env.employees.add(newEmployee("emp-1", model.PayTypeHourly, "20.00"))
	env.employees.add(newEmployee("emp-2", model.PayTypeHourly, "20.00"))

	if _, err := svc.ClockIn(context.Background(), "emp-1", "WEB", at(9, 0)); err != nil {
		t.Fatalf("emp-1 签到应成功: %v", err)
	}
	if _, err := svc.ClockIn(context.Background(), "emp-2", "WEB", at(9, 0)); err != nil {
		t.Fatalf("emp-2 签到应成功: %v", err)
	}
}

func TestAttendanceService_ClockIn_EmployeeChecks(t *testing.T) {
	svc, env := setupTestAttendanceService()
	inactive := newEmployee("emp-off", model.PayTypeHourly, "20.00")
	inactive.IsActive = false
	env.employees.add(inactive)

	_, err := svc.ClockIn(context.Background(), "nobody", "WEB", at(9, 0))
	if !errors.Is(err, ErrEmployeeNotFound) {
		t.Errorf("期望 ErrEmployeeNotFound，实际: %v", err)
	}

	_, err = svc.ClockIn(context.Background(), "emp-off", "WEB", at(9, 0))
	if !errors.Is(err, ErrEmployeeInactive) {
		t.Errorf("期望 ErrEmployeeInactive，实际: %v", err)
	}
}

func TestAttendanceService_ClockIn_InvalidSource(t *testing.T) {
	svc, env := setupTestAttendanceService()
	env.employees.add(newEmployee("emp-1", model.PayTypeHourly, "20.00"))

	_, err := svc.ClockIn(context.Background(), "emp-1", "FAX", at(9, 0))
	if !errors.Is(err, ErrInvalidSource) {
		t.Errorf("期望 ErrInvalidSource，实际: %v", err)
	}
	_, err = svc.ClockIn(context.Background(), "emp-1", "MANUAL_ADJUST", at(9, 0))
	if !errors.Is(err, ErrInvalidSource) {
		t.Errorf("MANUAL_ADJUST 不是签到来源，实际: %v", err)
	}
}

func TestAttendanceService_ClockIn_WorkDateUsesEmployeeTimezone(t *testing.T) {
	if _, err := time.LoadLocation("Asia/Tokyo"); err != nil {
		t.Skipf("时区数据不可用: %v", err)
	}
	svc, env := setupTestAttendanceService()
	emp := newEmployee("emp-jp", model.PayTypeHourly, "20.00")
	emp.Timezone = "Asia/Tokyo"
	env.employees.add(emp)

	// UTC 15:30 在东京已是 3 月 11 日
	resp, err := svc.ClockIn(context.Background(), "emp-jp", "WEB", at(15, 30))
	if err != nil {
		t.Fatalf("ClockIn 应成功: %v", err)
	}
	if resp.WorkDate != "2025-03-11" {
		t.Errorf("期望 work_date=2025-03-11，实际=%s", resp.WorkDate)
	}
}

// ── ClockOut 测试 ──

func TestAttendanceService_ClockOut_NoOpenSession(t *testing.T) {
	svc, env := setupTestAttendanceService()
	env.employees.add(newEmployee("emp-1", model.PayTypeHourly, "20.00"))

	_, err := svc.ClockOut(context.Background(), "emp-1", "WEB", at(17, 0))
	if !errors.Is(err, ErrNoOpenSession) {
		t.Errorf("期望 ErrNoOpenSession，实际: %v", err)
	}
}

func TestAttendanceService_ClockOut_ComputesDurationAndSummary(t *testing.T) {
	svc, env := setupTestAttendanceService()
	env.employees.add(newEmployee("emp-1", model.PayTypeHourly, "20.00"))
	ctx := context.Background()

	if _, err := svc.ClockIn(ctx, "emp-1", "WEB", at(8, 0)); err != nil {
		t.Fatalf("签到失败: %v", err)
	}
	resp, err := svc.ClockOut(ctx, "emp-1", "MOBILE", at(18, 0))
	if err != nil {
		t.Fatalf("签退应成功: %v", err)
	}
	if resp.IsOpen {
		t.Error("签退后会话应已结束")
	}
	if resp.TotalWorkSeconds != 10*3600 {
		t.Errorf("期望时长 36000 秒，实际=%d", resp.TotalWorkSeconds)
	}
	if resp.TotalHours != "10.00" {
		t.Errorf("期望 total_hours=10.00，实际=%s", resp.TotalHours)
	}
	if resp.ClockOutSource != model.EndSourceMobile {
		t.Errorf("期望签退来源 MOBILE，实际=%s", resp.ClockOutSource)
	}

	summary, err := env.summaries.Get(ctx, "emp-1", testDay)
	if err != nil {
		t.Fatalf("签退后应生成日汇总: %v", err)
	}
	if summary.TotalWorkSeconds != 36000 || summary.TotalOvertimeSeconds != 7200 || summary.ExpectedWorkSeconds != 28800 {
		t.Errorf("日汇总时长不符: %+v", summary)
	}
	if summary.Status != model.DayStatusPresent {
		t.Errorf("期望 PRESENT，实际=%s", summary.Status)
	}
	if summary.TotalEarnings.StringFixed(2) != "200.00" {
		t.Errorf("期望收入 200.00，实际=%s", summary.TotalEarnings.StringFixed(2))
	}
}

func TestAttendanceService_ClockOut_ClampsBackwardsTime(t *testing.T) {
	svc, env := setupTestAttendanceService()
	env.employees.add(newEmployee("emp-1", model.PayTypeHourly, "20.00"))
	ctx := context.Background()

	if _, err := svc.ClockIn(ctx, "emp-1", "WEB", at(9, 0)); err != nil {
		t.Fatalf("签到失败: %v", err)
	}
	resp, err := svc.ClockOut(ctx, "emp-1", "WEB", at(8, 0))
	if err != nil {
		t.Fatalf("签退应成功: %v", err)
	}
	if resp.TotalWorkSeconds != 1 {
		t.Errorf("签退早于签到时应记 1 秒，实际=%d", resp.TotalWorkSeconds)
	}
	if resp.ClockOutAt == nil || *resp.ClockOutAt != "2025-03-10T09:00:01Z" {
		t.Errorf("签退时间应为签到后 1 秒，实际=%v", resp.ClockOutAt)
	}
}

func TestAttendanceService_ClockOut_SameInstantCountsOneSecond(t *testing.T) {
	svc, env := setupTestAttendanceService()
	env.employees.add(newEmployee("emp-1", model.PayTypeHourly, "20.00"))
	ctx := context.Background()

	if _, err := svc.ClockIn(ctx, "emp-1", "WEB", at(9, 0)); err != nil {
		t.Fatalf("签到失败: %v", err)
	}
	resp, err := svc.ClockOut(ctx, "emp-1", "WEB", at(9, 0))
	if err != nil {
		t.Fatalf("签退应成功: %v", err)
	}
	if resp.TotalWorkSeconds != 1 {
		t.Errorf("同一时刻签退应记 1 秒，实际=%d", resp.TotalWorkSeconds)
	}
	if resp.ClockOutAt == nil || *resp.ClockOutAt != "2025-03-10T09:00:01Z" {
		t.Errorf("签退时间应为签到后 1 秒，实际=%v", resp.ClockOutAt)
	}
}

func TestAttendanceService_ClockOut_SumsSessionsOfSameDay(t *testing.T) {
	svc, env := setupTestAttendanceService()
	env.employees.add(newEmployee("emp-1", model.PayTypeHourly, "20.00"))
	ctx := context.Background()

	steps := []struct {
		in, out *time.Time
	}{
		{at(8, 0), at(11, 0)},
		{at(13, 0), at(15, 30)},
	}
	for _, st := range steps {
		if _, err := svc.ClockIn(ctx, "emp-1", "WEB", st.in); err != nil {
			t.Fatalf("签到失败: %v", err)
		}
		if _, err := svc.ClockOut(ctx, "emp-1", "WEB", st.out); err != nil {
			t.Fatalf("签退失败: %v", err)
		}
	}

	summary, _ := env.summaries.Get(ctx, "emp-1", testDay)
	if summary == nil {
		t.Fatal("应存在日汇总")
	}
	if summary.TotalWorkSeconds != int64(5*3600+1800) {
		t.Errorf("期望 5.5 小时，实际=%d 秒", summary.TotalWorkSeconds)
	}
	if summary.TotalOvertimeSeconds != 0 {
		t.Errorf("未超 8 小时不应有加班，实际=%d", summary.TotalOvertimeSeconds)
	}
	if summary.TotalEarnings.StringFixed(2) != "110.00" {
		t.Errorf("期望收入 110.00，实际=%s", summary.TotalEarnings.StringFixed(2))
	}
}

func TestAttendanceService_ClockOut_InactiveEmployeeCanStillClose(t *testing.T) {
	svc, env := setupTestAttendanceService()
	emp := newEmployee("emp-1", model.PayTypeHourly, "20.00")
	env.employees.add(emp)
	ctx := context.Background()

	if _, err := svc.ClockIn(ctx, "emp-1", "WEB", at(9, 0)); err != nil {
		t.Fatalf("签到失败: %v", err)
	}
	off := *emp
	off.IsActive = false
	env.employees.add(&off)

	if _, err := svc.ClockOut(ctx, "emp-1", "WEB", at(12, 0)); err != nil {
		t.Fatalf("停用员工仍应可签退: %v", err)
	}
}

// ── ManualEdit 测试 ──

func TestAttendanceService_ManualEdit_Validation(t *testing.T) {
	svc, env := setupTestAttendanceService()
	env.employees.add(newEmployee("emp-1", model.PayTypeHourly, "20.00"))
	s := env.sessions.seedClosed("emp-1", *at(9, 0), 2*time.Hour)

	_, err := svc.ManualEdit(context.Background(), s.WorkSessionID, &dto.ManualEditRequest{
		ClockInAt: *at(9, 0), ClockOutAt: *at(10, 0), Reason: "   ",
	}, "hr-1")
	if !errors.Is(err, ErrManualEditReasonRequired) {
		t.Errorf("期望 ErrManualEditReasonRequired，实际: %v", err)
	}

	_, err = svc.ManualEdit(context.Background(), s.WorkSessionID, &dto.ManualEditRequest{
		ClockInAt: *at(10, 0), ClockOutAt: *at(10, 0), Reason: "补录",
	}, "hr-1")
	if !errors.Is(err, ErrInvalidSessionTimes) {
		t.Errorf("期望 ErrInvalidSessionTimes，实际: %v", err)
	}

	_, err = svc.ManualEdit(context.Background(), "missing", &dto.ManualEditRequest{
		ClockInAt: *at(9, 0), ClockOutAt: *at(10, 0), Reason: "补录",
	}, "hr-1")
	if !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("期望 ErrSessionNotFound，实际: %v", err)
	}
}

func TestAttendanceService_ManualEdit_OpenSessionRejected(t *testing.T) {
	svc, env := setupTestAttendanceService()
	env.employees.add(newEmployee("emp-1", model.PayTypeHourly, "20.00"))
	open, err := svc.ClockIn(context.Background(), "emp-1", "WEB", at(9, 0))
	if err != nil {
		t.Fatalf("签到失败: %v", err)
	}

	_, err = svc.ManualEdit(context.Background(), open.ID, &dto.ManualEditRequest{
		ClockInAt: *at(9, 0), ClockOutAt: *at(10, 0), Reason: "补录",
	}, "hr-1")
	if !errors.Is(err, ErrSessionStillOpen) {
		t.Errorf("期望 ErrSessionStillOpen，实际: %v", err)
	}
}

func TestAttendanceService_ManualEdit_RecomputesBothDays(t *testing.T) {
	svc, env := setupTestAttendanceService()
	env.employees.add(newEmployee("emp-1", model.PayTypeHourly, "20.00"))
	ctx := context.Background()

	if _, err := svc.ClockIn(ctx, "emp-1", "WEB", at(9, 0)); err != nil {
		t.Fatalf("签到失败: %v", err)
	}
	closed, err := svc.ClockOut(ctx, "emp-1", "WEB", at(12, 0))
	if err != nil {
		t.Fatalf("签退失败: %v", err)
	}

	// 改到次日 9:00-11:00
	nextIn := testDay.AddDate(0, 0, 1).Add(9 * time.Hour)
	resp, err := svc.ManualEdit(ctx, closed.ID, &dto.ManualEditRequest{
		ClockInAt:  nextIn,
		ClockOutAt: nextIn.Add(2 * time.Hour),
		Reason:     "打卡日期录错",
	}, "hr-1")
	if err != nil {
		t.Fatalf("ManualEdit 应成功: %v", err)
	}
	if !resp.IsManualEdit || resp.ManualEditReason != "打卡日期录错" {
		t.Errorf("应标记手工修正: %+v", resp)
	}
	if resp.ClockOutSource != model.EndSourceManualAdjust {
		t.Errorf("期望签退来源 MANUAL_ADJUST，实际=%s", resp.ClockOutSource)
	}
	if resp.WorkDate != "2025-03-11" || resp.TotalWorkSeconds != 7200 {
		t.Errorf("修正后日期或时长不符: %+v", resp)
	}

	oldDay, _ := env.summaries.Get(ctx, "emp-1", testDay)
	if oldDay == nil || oldDay.TotalWorkSeconds != 0 || oldDay.Status != model.DayStatusAbsent {
		t.Errorf("原日期汇总应清零为 ABSENT: %+v", oldDay)
	}
	newDay, _ := env.summaries.Get(ctx, "emp-1", testDay.AddDate(0, 0, 1))
	if newDay == nil || newDay.TotalWorkSeconds != 7200 {
		t.Errorf("新日期汇总应为 2 小时: %+v", newDay)
	}
}

// ── Approve 测试 ──

func TestAttendanceService_Approve(t *testing.T) {
	svc, env := setupTestAttendanceService()
	env.employees.add(newEmployee("emp-1", model.PayTypeHourly, "20.00"))
	s := env.sessions.seedClosed("emp-1", *at(9, 0), time.Hour)

	resp, err := svc.Approve(context.Background(), s.WorkSessionID, "mgr-1")
	if err != nil {
		t.Fatalf("Approve 应成功: %v", err)
	}
	if resp.ApprovedBy == nil || *resp.ApprovedBy != "mgr-1" {
		t.Errorf("审批人不符: %v", resp.ApprovedBy)
	}
	if resp.ApprovedAt == nil || *resp.ApprovedAt != "2025-03-10T18:00:00Z" {
		t.Errorf("审批时间不符: %v", resp.ApprovedAt)
	}

	_, err = svc.Approve(context.Background(), "missing", "mgr-1")
	if !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("期望 ErrSessionNotFound，实际: %v", err)
	}
}

func TestAttendanceService_Approve_KeepsConcurrentManualEdit(t *testing.T) {
	svc, env := setupTestAttendanceService()
	env.employees.add(newEmployee("emp-1", model.PayTypeHourly, "20.00"))
	ctx := context.Background()

	if _, err := svc.ClockIn(ctx, "emp-1", "WEB", at(9, 0)); err != nil {
		t.Fatalf("签到失败: %v", err)
	}
	closed, err := svc.ClockOut(ctx, "emp-1", "WEB", at(12, 0))
	if err != nil {
		t.Fatalf("签退失败: %v", err)
	}

	// Approve 读取会话后、写回前提交一次手工修正
	var once sync.Once
	env.sessions.afterGet = func(id string) {
		once.Do(func() {
			if _, err := svc.ManualEdit(ctx, id, &dto.ManualEditRequest{
				ClockInAt: *at(9, 0), ClockOutAt: *at(10, 0), Reason: "fix",
			}, "hr-1"); err != nil {
				t.Errorf("ManualEdit 应成功: %v", err)
			}
		})
	}

	resp, err := svc.Approve(ctx, closed.ID, "mgr-1")
	if err != nil {
		t.Fatalf("Approve 应成功: %v", err)
	}
	env.sessions.afterGet = nil

	stored, err := env.sessions.GetByID(ctx, closed.ID)
	if err != nil {
		t.Fatalf("查询会话失败: %v", err)
	}
	if stored.TotalWorkSeconds != 3600 || !stored.IsManualEdit || stored.ManualEditReason != "fix" {
		t.Errorf("手工修正被审批覆盖: secs=%d manual=%v reason=%q",
			stored.TotalWorkSeconds, stored.IsManualEdit, stored.ManualEditReason)
	}
	if stored.ApprovedBy == nil || *stored.ApprovedBy != "mgr-1" {
		t.Errorf("审批人未写入: %v", stored.ApprovedBy)
	}
	if resp.TotalWorkSeconds != 3600 {
		t.Errorf("返回值应反映修正后时长，实际=%d", resp.TotalWorkSeconds)
	}

	summary, _ := env.summaries.Get(ctx, "emp-1", testDay)
	if summary == nil || summary.TotalWorkSeconds != stored.TotalWorkSeconds {
		t.Errorf("汇总应与会话一致: %+v", summary)
	}
}

func TestAttendanceService_Approve_OpenSessionRejected(t *testing.T) {
	svc, env := setupTestAttendanceService()
	env.employees.add(newEmployee("emp-1", model.PayTypeHourly, "20.00"))
	open, err := svc.ClockIn(context.Background(), "emp-1", "WEB", at(9, 0))
	if err != nil {
		t.Fatalf("签到失败: %v", err)
	}

	_, err = svc.Approve(context.Background(), open.ID, "mgr-1")
	if !errors.Is(err, ErrSessionStillOpen) {
		t.Errorf("期望 ErrSessionStillOpen，实际: %v", err)
	}
}

// ── 查询测试 ──

func TestAttendanceService_GetOpenSession(t *testing.T) {
	svc, env := setupTestAttendanceService()
	env.employees.add(newEmployee("emp-1", model.PayTypeHourly, "20.00"))

	_, err := svc.GetOpenSession(context.Background(), "emp-1")
	if !errors.Is(err, ErrNoOpenSession) {
		t.Errorf("期望 ErrNoOpenSession，实际: %v", err)
	}

	if _, err := svc.ClockIn(context.Background(), "emp-1", "WEB", at(9, 0)); err != nil {
		t.Fatalf("签到失败: %v", err)
	}
	resp, err := svc.GetOpenSession(context.Background(), "emp-1")
	if err != nil || !resp.IsOpen {
		t.Errorf("应返回未结束会话: resp=%+v err=%v", resp, err)
	}
}

func TestAttendanceService_ListSessions(t *testing.T) {
	svc, env := setupTestAttendanceService()
	env.employees.add(newEmployee("emp-1", model.PayTypeHourly, "20.00"))
	for d := 0; d < 3; d++ {
		env.sessions.seedClosed("emp-1", testDay.AddDate(0, 0, -d).Add(9*time.Hour), time.Hour)
	}

	req := &dto.ListSessionsRequest{
		PaginationRequest: dto.PaginationRequest{Page: 1, PageSize: 2},
		DateRangeRequest:  dto.DateRangeRequest{From: "2025-03-08", To: "2025-03-10"},
	}
	list, total, err := svc.ListSessions(context.Background(), "emp-1", req)
	if err != nil {
		t.Fatalf("ListSessions 应成功: %v", err)
	}
	if total != 3 || len(list) != 2 {
		t.Errorf("期望 total=3 本页 2 条，实际 total=%d len=%d", total, len(list))
	}

	req.From, req.To = "2025-03-10", "2025-03-01"
	if _, _, err := svc.ListSessions(context.Background(), "emp-1", req); !errors.Is(err, ErrInvalidDateRange) {
		t.Errorf("from 晚于 to 时期望 ErrInvalidDateRange，实际: %v", err)
	}
}

func TestAttendanceService_DaySummaries(t *testing.T) {
	svc, env := setupTestAttendanceService()
	env.employees.add(newEmployee("emp-1", model.PayTypeHourly, "20.00"))
	ctx := context.Background()

	if _, err := svc.GetDaySummary(ctx, "emp-1", "2025-03-10"); !errors.Is(err, ErrSummaryNotFound) {
		t.Errorf("期望 ErrSummaryNotFound，实际: %v", err)
	}
	if _, err := svc.GetDaySummary(ctx, "emp-1", "10/03/2025"); !errors.Is(err, ErrInvalidDateRange) {
		t.Errorf("日期格式错误时期望 ErrInvalidDateRange，实际: %v", err)
	}

	if _, err := svc.ClockIn(ctx, "emp-1", "WEB", at(9, 0)); err != nil {
		t.Fatalf("签到失败: %v", err)
	}
	if _, err := svc.ClockOut(ctx, "emp-1", "WEB", at(11, 30)); err != nil {
		t.Fatalf("签退失败: %v", err)
	}

	summary, err := svc.GetDaySummary(ctx, "emp-1", "2025-03-10")
	if err != nil {
		t.Fatalf("GetDaySummary 应成功: %v", err)
	}
	if summary.TotalEarnings != "50.00" {
		t.Errorf("期望 2.5h × 20.00 = 50.00，实际=%s", summary.TotalEarnings)
	}

	list, err := svc.ListDaySummaries(ctx, "emp-1", &dto.DateRangeRequest{})
	if err != nil {
		t.Fatalf("ListDaySummaries 应成功: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("默认区间应包含今天的汇总，实际=%d", len(list))
	}
}
