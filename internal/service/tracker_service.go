package service

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/Lucius010/OptiTrack/internal/dto"
	"github.com/Lucius010/OptiTrack/internal/model"
	"github.com/Lucius010/OptiTrack/internal/repository"
)

// 未分配部门的员工在看板中的归类名
const unassignedDepartment = "Unassigned"

// TrackerService 实时看板业务接口
type TrackerService interface {
	// LiveEmployees 当前有未结束会话的员工
	LiveEmployees(ctx context.Context) ([]dto.LiveEmployeeResponse, error)
	// DepartmentOccupancy 按部门统计在岗人数
	DepartmentOccupancy(ctx context.Context) ([]dto.DepartmentOccupancyResponse, error)
	// DailyStats 员工某日已结束会话的统计，date 为空时取今天
	DailyStats(ctx context.Context, employeeID, date string) (*dto.DailyStatsResponse, error)
}

type trackerService struct {
	repo       *repository.Repository
	defaultLoc *time.Location
	logger     *zap.Logger
	now        func() time.Time
}

// NewTrackerService 创建 TrackerService 实例
func NewTrackerService(repo *repository.Repository, defaultLoc *time.Location, logger *zap.Logger) TrackerService {
	if defaultLoc == nil {
		defaultLoc = time.UTC
	}
	return &trackerService{repo: repo, defaultLoc: defaultLoc, logger: logger, now: time.Now}
}

func (s *trackerService) LiveEmployees(ctx context.Context) ([]dto.LiveEmployeeResponse, error) {
	sessions, err := s.repo.WorkSession.ListOpen(ctx)
	if err != nil {
		s.logger.Error("查询在岗员工失败", zap.Error(err))
		return nil, err
	}

	now := s.now()
	result := make([]dto.LiveEmployeeResponse, 0, len(sessions))
	for i := range sessions {
		session := &sessions[i]
		item := dto.LiveEmployeeResponse{
			EmployeeID:     session.EmployeeID,
			Department:     unassignedDepartment,
			SessionID:      session.WorkSessionID,
			ClockInAt:      session.ClockInAt.UTC().Format(time.RFC3339),
			ElapsedSeconds: int64(now.Sub(session.ClockInAt) / time.Second),
		}
		if emp := session.Employee; emp != nil {
			item.EmployeeCode = emp.EmployeeCode
			item.Name = emp.Name
			item.Department = departmentName(emp)
		}
		result = append(result, item)
	}
	return result, nil
}

func (s *trackerService) DepartmentOccupancy(ctx context.Context) ([]dto.DepartmentOccupancyResponse, error) {
	sessions, err := s.repo.WorkSession.ListOpen(ctx)
	if err != nil {
		s.logger.Error("查询部门在岗人数失败", zap.Error(err))
		return nil, err
	}

	counts := make(map[string]int)
	for i := range sessions {
		name := unassignedDepartment
		if sessions[i].Employee != nil {
			name = departmentName(sessions[i].Employee)
		}
		counts[name]++
	}

	result := make([]dto.DepartmentOccupancyResponse, 0, len(counts))
	for name, n := range counts {
		result = append(result, dto.DepartmentOccupancyResponse{Department: name, Count: n})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Department < result[j].Department
	})
	return result, nil
}

func (s *trackerService) DailyStats(ctx context.Context, employeeID, date string) (*dto.DailyStatsResponse, error) {
	day := model.DateOf(s.now(), s.defaultLoc)
	if date != "" {
		d, err := model.ParseDate(date)
		if err != nil {
			return nil, ErrInvalidDateRange
		}
		day = d
	}

	sessions, err := s.repo.WorkSession.ListClosedByEmployeeAndDate(ctx, employeeID, day)
	if err != nil {
		s.logger.Error("查询员工日统计失败", zap.String("employee_id", employeeID), zap.Error(err))
		return nil, err
	}

	var total int64
	for i := range sessions {
		total += sessions[i].TotalWorkSeconds
	}

	return &dto.DailyStatsResponse{
		EmployeeID:   employeeID,
		Date:         model.FormatDate(day),
		TotalSeconds: total,
		TotalHours:   hoursOf(time.Duration(total) * time.Second).StringFixed(2),
		SessionCount: len(sessions),
	}, nil
}

func departmentName(emp *model.Employee) string {
	if emp.Department == nil || emp.Department.Name == "" {
		return unassignedDepartment
	}
	return emp.Department.Name
}
