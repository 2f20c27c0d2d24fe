package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/Lucius010/OptiTrack/internal/api/middleware"
	"github.com/Lucius010/OptiTrack/pkg/response"
)

// MustGetEmployeeID 从 Gin 上下文中安全提取 employee_id。
// 如果 JWT 中间件未正确注入 employee_id，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetEmployeeID(c *gin.Context) (string, bool) {
	v, exists := c.Get(middleware.ContextEmployeeID)
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	return s, true
}

// IsStaff 当前令牌是否具备管理端权限
func IsStaff(c *gin.Context) bool {
	v, exists := c.Get(middleware.ContextIsStaff)
	if !exists {
		return false
	}
	staff, ok := v.(bool)
	return ok && staff
}
