package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Lucius010/OptiTrack/pkg/jwt"
	"github.com/Lucius010/OptiTrack/pkg/redis"
	"github.com/Lucius010/OptiTrack/pkg/response"
)

// 注入 gin.Context 的认证信息键
const (
	ContextEmployeeID   = "employee_id"
	ContextRole         = "role"
	ContextDepartmentID = "department_id"
	ContextIsStaff      = "is_staff"
	ContextTokenID      = "token_id"
	ContextTokenExp     = "token_exp"
)

// JWTAuth JWT 认证中间件
// 从 Authorization: Bearer <token> 中提取并验证 Access Token
// rdb 为 nil 时跳过黑名单检查
func JWTAuth(jwtMgr *jwt.Manager, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, 10002, "缺少认证头")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(c, 10002, "认证头格式无效")
			c.Abort()
			return
		}

		claims, err := jwtMgr.ParseToken(parts[1])
		if err != nil {
			response.Unauthorized(c, 10002, "Token 无效或已过期")
			c.Abort()
			return
		}

		if claims.TokenType != "access" {
			response.Unauthorized(c, 10002, "Token 类型无效")
			c.Abort()
			return
		}

		if rdb != nil && claims.ID != "" {
			// Redis 出错时降级放行
			if revoked, err := rdb.IsBlacklisted(c.Request.Context(), claims.ID); err == nil && revoked {
				response.Unauthorized(c, 10002, "Token 已注销")
				c.Abort()
				return
			}
		}

		c.Set(ContextEmployeeID, claims.EmployeeID)
		c.Set(ContextRole, claims.Role)
		c.Set(ContextDepartmentID, claims.DepartmentID)
		c.Set(ContextIsStaff, claims.IsStaff)
		c.Set(ContextTokenID, claims.ID)
		if claims.ExpiresAt != nil {
			c.Set(ContextTokenExp, claims.ExpiresAt.Time)
		}

		c.Next()
	}
}

// StaffOnly 管理端权限中间件
// 规则配置、加班重算、条目锁定与手工修正仅限 is_staff 令牌
func StaffOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		v, exists := c.Get(ContextIsStaff)
		if !exists {
			response.Unauthorized(c, 10002, "未认证")
			c.Abort()
			return
		}

		if staff, ok := v.(bool); !ok || !staff {
			response.Forbidden(c, 10003, "无权限访问")
			c.Abort()
			return
		}

		c.Next()
	}
}
