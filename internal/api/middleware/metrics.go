package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Lucius010/OptiTrack/pkg/metrics"
)

// Metrics 请求指标中间件
// 路由标签使用注册时的模板路径（c.FullPath），避免按 ID 产生高基数标签
func Metrics(collector metrics.Collector) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		collector.RecordHTTPRequest(c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start))
	}
}
