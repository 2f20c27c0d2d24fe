package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Lucius010/OptiTrack/internal/api/middleware"
	"github.com/Lucius010/OptiTrack/pkg/response"
)

// TokenRevoker 令牌注销，由 pkg/redis.Client 实现
type TokenRevoker interface {
	BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error
}

// AuthHandler 令牌注销 HTTP 处理器
// 令牌由员工目录服务签发，本服务只负责在共享 Redis 中拉黑
type AuthHandler struct {
	revoker TokenRevoker
	logger  *zap.Logger
}

// NewAuthHandler 创建 AuthHandler，revoker 为空时注销接口返回 503
func NewAuthHandler(revoker TokenRevoker, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{revoker: revoker, logger: logger}
}

// Logout 注销当前 Access Token（如共享考勤机上签退后）
// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	if h.revoker == nil {
		response.Error(c, http.StatusServiceUnavailable, 10006, "令牌注销暂不可用")
		return
	}

	jti := c.GetString(middleware.ContextTokenID)
	if jti == "" {
		response.Unauthorized(c, 10002, "未认证")
		return
	}

	var ttl time.Duration
	if v, ok := c.Get(middleware.ContextTokenExp); ok {
		if exp, ok := v.(time.Time); ok {
			ttl = time.Until(exp)
		}
	}

	if err := h.revoker.BlacklistToken(c.Request.Context(), jti, ttl); err != nil {
		h.logger.Error("注销令牌失败", zap.String("jti", jti), zap.Error(err))
		response.InternalError(c)
		return
	}

	response.OK(c, nil)
}
