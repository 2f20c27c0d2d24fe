package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Lucius010/OptiTrack/config"
	"github.com/Lucius010/OptiTrack/internal/api/handler"
	"github.com/Lucius010/OptiTrack/internal/api/middleware"
	"github.com/Lucius010/OptiTrack/pkg/jwt"
	"github.com/Lucius010/OptiTrack/pkg/metrics"
	"github.com/Lucius010/OptiTrack/pkg/redis"
)

// Deps 路由依赖
// Gatherer 为空时不暴露 /metrics；Redis 为空时黑名单与限流降级放行
type Deps struct {
	Handler  *handler.Handler
	JWT      *jwt.Manager
	Redis    *redis.Client
	Metrics  metrics.Collector
	Gatherer prometheus.Gatherer
	HealthDB func() error
	Logger   *zap.Logger
}

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, d Deps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	h := d.Handler
	collector := d.Metrics
	if collector == nil {
		collector = metrics.NewNop()
	}

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(d.Logger))
	r.Use(middleware.Metrics(collector))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(cfg.Server.BodyLimit))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		if d.HealthDB != nil {
			if err := d.HealthDB(); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "db": "unreachable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if d.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	clockLimit := middleware.RateLimit(d.Redis, cfg.Server.RateLimit, time.Minute)
	staff := middleware.StaffOnly()

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	v1.Use(middleware.JWTAuth(d.JWT, d.Redis))
	{
		v1.POST("/auth/logout", h.Auth.Logout)

		// 考勤模块
		attendance := v1.Group("/attendance")
		{
			attendance.POST("/clock-in", clockLimit, h.Attendance.ClockIn)
			attendance.POST("/clock-out", clockLimit, h.Attendance.ClockOut)
			attendance.GET("/sessions/open", h.Attendance.GetOpenSession)
			attendance.GET("/sessions", h.Attendance.ListSessions)
			attendance.GET("/sessions/export.ics", h.Export.ExportSessionsICS)
			attendance.PUT("/sessions/:id", staff, h.Attendance.ManualEdit)
			attendance.POST("/sessions/:id/approve", staff, h.Attendance.Approve)
			attendance.GET("/summaries", h.Attendance.ListDaySummaries)
			attendance.GET("/summaries/:date", h.Attendance.GetDaySummary)
		}

		// 加班模块
		overtime := v1.Group("/overtime")
		{
			overtime.GET("/rules", h.Overtime.ListRules)
			overtime.GET("/rules/:id", h.Overtime.GetRule)
			overtime.POST("/rules", staff, h.Overtime.CreateRule)
			overtime.PUT("/rules/:id", staff, h.Overtime.UpdateRule)
			overtime.GET("/entries", h.Overtime.ListEntries) // 非管理端只看本人（Handler 层过滤）
			overtime.POST("/entries/:id/lock", staff, h.Overtime.LockEntry)
			overtime.POST("/entries/:id/unlock", staff, h.Overtime.UnlockEntry)
			overtime.POST("/recalculate", staff, h.Overtime.Recalculate)
			overtime.GET("/export", staff, h.Export.ExportOvertime)
		}

		// 实时看板
		tracker := v1.Group("/tracker")
		{
			tracker.GET("/live", h.Tracker.Live)
			tracker.GET("/departments", h.Tracker.Departments)
			tracker.GET("/me/today", h.Tracker.MyToday)
		}
	}

	return r
}
