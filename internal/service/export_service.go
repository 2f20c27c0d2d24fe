package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/Lucius010/OptiTrack/internal/model"
	"github.com/Lucius010/OptiTrack/internal/repository"
)

// ── 导出模块业务错误 ──

var (
	ErrExportNoEntries    = errors.New("该周期暂无加班条目")
	ErrExportGenerateFail = errors.New("生成导出文件失败")
)

const icsProductID = "-//OptiTrack//Work Sessions//ZH"

// ExportService 导出业务接口
//
// 导出内容以字节返回，由 Handler 层设置 HTTP 响应头后写入 Response
type ExportService interface {
	// ExportOvertime 导出周期内的加班条目为 Excel
	ExportOvertime(ctx context.Context, periodStart, periodEnd time.Time) (*bytes.Buffer, string, error)
	// ExportSessionsICS 导出员工已结束的考勤会话为 iCalendar，每条会话一个 VEVENT
	ExportSessionsICS(ctx context.Context, employeeID string, from, to time.Time) ([]byte, string, error)
}

type exportService struct {
	repo   *repository.Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, logger: logger, now: time.Now}
}

// ═══════════════════════════════════════════════════════════
// ExportOvertime — 加班条目导出为 Excel
// ═══════════════════════════════════════════════════════════
//
// 输出格式：单个 Sheet "加班结算"，第 1 行标题，第 2 行表头，之后每个条目一行

func (s *exportService) ExportOvertime(ctx context.Context, periodStart, periodEnd time.Time) (*bytes.Buffer, string, error) {
	start := model.DateOf(periodStart, time.UTC)
	end := model.DateOf(periodEnd, time.UTC)
	if start.After(end) {
		return nil, "", ErrInvalidPeriod
	}

	entries, err := s.repo.Overtime.List(ctx, repository.OvertimeEntryFilter{
		PeriodStart: &start,
		PeriodEnd:   &end,
	})
	if err != nil {
		s.logger.Error("查询加班条目失败", zap.Error(err))
		return nil, "", err
	}
	if len(entries) == 0 {
		return nil, "", ErrExportNoEntries
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "加班结算"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	headers := []string{"员工编号", "姓名", "规则", "周期开始", "周期结束", "正常工时", "加班工时", "基础费率", "倍率", "加班金额", "已锁定"}

	f.SetColWidth(sheetName, "A", "C", 16)
	f.SetColWidth(sheetName, "D", "E", 12)
	f.SetColWidth(sheetName, "F", colName(len(headers)-1), 11)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	// 标题行
	f.SetCellValue(sheetName, "A1", fmt.Sprintf("加班结算 %s ~ %s", model.FormatDate(start), model.FormatDate(end)))
	f.MergeCell(sheetName, "A1", cell(colName(len(headers)-1), 1))
	f.SetCellStyle(sheetName, "A1", "A1", headerStyle)

	// 表头
	for i, h := range headers {
		f.SetCellValue(sheetName, cell(colName(i), 2), h)
	}
	f.SetCellStyle(sheetName, "A2", cell(colName(len(headers)-1), 2), headerStyle)

	// 数据行
	row := 3
	for i := range entries {
		e := &entries[i]
		code, name, ruleName := e.EmployeeID, "", e.RuleID
		if e.Employee != nil {
			code, name = e.Employee.EmployeeCode, e.Employee.Name
		}
		if e.Rule != nil {
			ruleName = e.Rule.Name
		}
		locked := "否"
		if e.IsLocked {
			locked = "是"
		}

		f.SetCellValue(sheetName, cell("A", row), code)
		f.SetCellValue(sheetName, cell("B", row), name)
		f.SetCellValue(sheetName, cell("C", row), ruleName)
		f.SetCellValue(sheetName, cell("D", row), model.FormatDate(e.PeriodStart))
		f.SetCellValue(sheetName, cell("E", row), model.FormatDate(e.PeriodEnd))
		f.SetCellFloat(sheetName, cell("F", row), e.HoursRegular.InexactFloat64(), 2, 64)
		f.SetCellFloat(sheetName, cell("G", row), e.HoursOvertime.InexactFloat64(), 2, 64)
		f.SetCellFloat(sheetName, cell("H", row), e.BaseRate.InexactFloat64(), 2, 64)
		f.SetCellFloat(sheetName, cell("I", row), e.OvertimeMultiplier.InexactFloat64(), 2, 64)
		f.SetCellFloat(sheetName, cell("J", row), e.OvertimeAmount.InexactFloat64(), 2, 64)
		f.SetCellValue(sheetName, cell("K", row), locked)
		row++
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("加班结算_%s_%s.xlsx", model.FormatDate(start), model.FormatDate(end))
	return buf, filename, nil
}

// ═══════════════════════════════════════════════════════════
// ExportSessionsICS — 考勤会话导出为 iCalendar
// ═══════════════════════════════════════════════════════════

func (s *exportService) ExportSessionsICS(ctx context.Context, employeeID string, from, to time.Time) ([]byte, string, error) {
	if from.After(to) {
		return nil, "", ErrInvalidDateRange
	}

	sessions, err := s.repo.WorkSession.ListByEmployeeInRange(ctx, employeeID, from, to)
	if err != nil {
		s.logger.Error("查询考勤会话失败", zap.String("employee_id", employeeID), zap.Error(err))
		return nil, "", err
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(icsProductID)

	stamp := s.now().UTC()
	for i := range sessions {
		session := &sessions[i]
		if session.IsOpen() {
			continue
		}

		evt := cal.AddEvent(session.WorkSessionID + "@optitrack")
		evt.SetDtStampTime(stamp)
		evt.SetStartAt(session.ClockInAt.UTC())
		evt.SetEndAt(session.ClockOutAt.UTC())
		evt.SetSummary(fmt.Sprintf("工作 %s 小时", hoursOf(session.Duration()).StringFixed(2)))

		desc := fmt.Sprintf("签到来源: %s", session.ClockInSource)
		if session.ClockOutSource != nil {
			desc += fmt.Sprintf("; 签退来源: %s", *session.ClockOutSource)
		}
		if session.IsManualEdit {
			desc += fmt.Sprintf("; 手工修正: %s", session.ManualEditReason)
		}
		evt.SetDescription(desc)
	}

	filename := fmt.Sprintf("sessions_%s_%s.ics", model.FormatDate(from), model.FormatDate(to))
	return []byte(cal.Serialize()), filename, nil
}

// ── 辅助函数 ──

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
