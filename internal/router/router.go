package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wiz-rd/Rummikub/internal/handler"
	"github.com/wiz-rd/Rummikub/internal/jwt"
	"github.com/wiz-rd/Rummikub/internal/middleware"
)

// SetupRouter 设置路由
// health 为 nil 时不注册健康检查
func SetupRouter(mode string, jwtService *jwt.Service, gameHandler *handler.GameHandler, health http.Handler) *gin.Engine {
	gin.SetMode(mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())

	if health != nil {
		r.GET("/health", gin.WrapH(health))
	}

	v1 := r.Group("/api/v1")
	{
		// 纯函数校验，无需登录
		v1.POST("/melds/validate", gameHandler.ValidateMeld)

		authenticated := v1.Group("")
		authenticated.Use(middleware.JWTAuth(jwtService))
		{
			games := authenticated.Group("/games")
			{
				games.POST("", gameHandler.CreateGame)
				games.GET("", gameHandler.ListGames)
				games.GET("/:id", gameHandler.GetGame)
				games.DELETE("/:id", gameHandler.DeleteGame)
				games.POST("/:id/start", gameHandler.StartGame)
				games.POST("/:id/draw", gameHandler.DrawTile)
				games.POST("/:id/move", gameHandler.ApplyMove)
				games.GET("/:id/hand", gameHandler.GetHand)
				games.POST("/:id/end", gameHandler.EndGame)
			}
		}
	}

	return r
}
