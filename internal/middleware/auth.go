package middleware

import (
	"context"
	"strings"

	"equipment-go/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const (
	ctxUserID   = "user_id"
	ctxUsername = "username"
)

// UserChecker 判断Token对应的用户是否仍然有效
type UserChecker interface {
	ActiveUser(ctx context.Context, userID uint) (bool, error)
}

// AuthMiddleware JWT认证中间件，接受 "Bearer <token>" 和 "Token <token>"
func AuthMiddleware(jwtManager *utils.JWTManager, users UserChecker, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 获取Token
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.Unauthorized(c, "Authentication credentials were not provided")
			c.Abort()
			return
		}

		tokenString, ok := bearer(authHeader)
		if !ok {
			utils.Unauthorized(c, "Invalid authorization header")
			c.Abort()
			return
		}

		// 验证Token
		claims, err := jwtManager.ValidateToken(tokenString)
		if err != nil {
			utils.Unauthorized(c, "Invalid token")
			c.Abort()
			return
		}

		// 用户已删除或停用时Token失效
		active, err := users.ActiveUser(c.Request.Context(), claims.UserID)
		if err != nil {
			logger.WithError(err).WithField("user_id", claims.UserID).Error("查询用户失败")
			utils.InternalError(c, "Internal server error")
			c.Abort()
			return
		}
		if !active {
			utils.Unauthorized(c, "Invalid token")
			c.Abort()
			return
		}

		// 将用户信息存入上下文
		c.Set(ctxUserID, claims.UserID)
		c.Set(ctxUsername, claims.Username)

		c.Next()
	}
}

func bearer(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 {
		return "", false
	}
	if parts[0] != "Bearer" && parts[0] != "Token" {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

// GetUserID 从上下文获取用户ID
func GetUserID(c *gin.Context) (uint, bool) {
	userID, exists := c.Get(ctxUserID)
	if !exists {
		return 0, false
	}
	id, ok := userID.(uint)
	return id, ok
}

// GetUsername 从上下文获取用户名
func GetUsername(c *gin.Context) (string, bool) {
	username, exists := c.Get(ctxUsername)
	if !exists {
		return "", false
	}
	name, ok := username.(string)
	return name, ok
}
