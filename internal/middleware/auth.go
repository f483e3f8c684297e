package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/wiz-rd/Rummikub/internal/jwt"
	"github.com/wiz-rd/Rummikub/pkg/response"
)

const playerIDKey = "player_id"

// JWTAuth JWT 认证中间件，把玩家ID写入上下文
func JWTAuth(jwtService *jwt.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c.GetHeader("Authorization"))
		if token == "" {
			response.Unauthorized(c, response.CodeTokenInvalid)
			c.Abort()
			return
		}

		claims, err := jwtService.ValidateToken(token)
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				response.Unauthorized(c, response.CodeTokenExpired)
			} else {
				response.Unauthorized(c, response.CodeTokenInvalid)
			}
			c.Abort()
			return
		}

		c.Set(playerIDKey, claims.PlayerID)
		c.Next()
	}
}

// extractToken 从 Authorization header 提取 token
func extractToken(authHeader string) string {
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// GetPlayerID 从 context 获取 player_id
func GetPlayerID(c *gin.Context) string {
	return c.GetString(playerIDKey)
}

// SetPlayerID 写入 player_id，供测试和内部调用使用
func SetPlayerID(c *gin.Context, playerID string) {
	c.Set(playerIDKey, playerID)
}
