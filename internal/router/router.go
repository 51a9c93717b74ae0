package router

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/nutrilog/internal/handler"
)

const sessionName = "nutrilog_session"

// SetupRouter 配置 Gin 引擎和路由
func SetupRouter(api *handler.API, sessionSecret string) *gin.Engine {
	r := gin.Default()

	// 配置会话中间件
	store := cookie.NewStore([]byte(sessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   7 * 24 * 60 * 60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(sessionName, store))
	r.Use(api.LocaleMiddleware())

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})

	apiGroup := r.Group("/api")
	{
		authGroup := apiGroup.Group("/auth")
		authGroup.POST("/register", api.Register)
		authGroup.POST("/login", api.Login)
		authGroup.POST("/logout", api.Logout)

		// 需要认证的接口
		protected := apiGroup.Group("")
		protected.Use(api.AuthRequired())
		{
			protected.GET("/me", api.CurrentUser)

			protected.GET("/days/:date", api.GetDay)
			protected.POST("/entries", api.CreateEntry)
			protected.DELETE("/entries/:id", api.DeleteEntry)
			protected.GET("/history", api.GetHistory)
			protected.GET("/foods/recent", api.RecentFoods)

			protected.GET("/goals", api.GetGoals)
			protected.PUT("/goals", api.UpdateGoals)
		}
	}

	return r
}
