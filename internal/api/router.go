package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jengzang/records-hexbin/internal/handler"
	"github.com/jengzang/records-hexbin/internal/middleware"
	"github.com/jengzang/records-hexbin/internal/service"
)

// SetupRouter 设置路由. tracks may be nil when no track database is configured
// and limiter may be nil to disable rate limiting.
func SetupRouter(sessions *service.SessionService, tracks *service.TrackService, limiter *middleware.RateLimiter) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.Logger())

	// CORS 中间件
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Hexbin API is running",
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	sessionHandler := handler.NewSessionHandler(sessions)
	trackHandler := handler.NewTrackHandler(sessions, tracks)

	// API 路由组
	api := r.Group("/api/v1")
	if limiter != nil {
		api.Use(middleware.RateLimit(limiter))
	}
	{
		api.POST("/sessions", sessionHandler.CreateSession)
		api.GET("/sessions", sessionHandler.ListSessions)

		s := api.Group("/sessions/:id")
		{
			s.GET("", sessionHandler.GetSession)
			s.DELETE("", sessionHandler.DeleteSession)
			s.PUT("/viewport", sessionHandler.SetViewport)

			// 数据
			s.POST("/points", sessionHandler.AddPoints)
			s.DELETE("/points", sessionHandler.RemovePoints)
			s.POST("/geojson", sessionHandler.AddGeoJSON)
			s.POST("/import/tracks", trackHandler.ImportTracks)

			// 分组与样式
			s.GET("/groups", sessionHandler.GetGroups)
			s.PUT("/groups/order", sessionHandler.SetGroupOrder)
			s.PUT("/groups/:group", sessionHandler.UpdateGroup)
			s.PUT("/clustering", sessionHandler.SetClustering)

			// 过滤
			s.GET("/filters", sessionHandler.GetFilters)
			s.POST("/filters", sessionHandler.AddFilter)
			s.PUT("/filters", sessionHandler.SetFilters)
			s.DELETE("/filters", sessionHandler.ClearFilters)
			s.POST("/filters/toggle", sessionHandler.ToggleFilters)

			// 绘制与选择
			s.GET("/frame", sessionHandler.GetFrame)
			s.GET("/pick.png", sessionHandler.GetPickBuffer)
			s.GET("/thumbs/:thumb", sessionHandler.GetThumb)
			s.GET("/hexagon", sessionHandler.GetHexagon)
			s.GET("/selection", sessionHandler.GetSelection)
			s.POST("/selection", sessionHandler.Select)
			s.DELETE("/selection", sessionHandler.ClearSelection)
		}
	}

	return r
}
