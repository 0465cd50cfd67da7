package router

import (
	"github.com/civicsite/internal/handler"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

// SetupRouter 配置 Gin 引擎和路由
func SetupRouter(api *handler.API, sessionSecret string) *gin.Engine {
	r := gin.Default()

	// 配置会话中间件
	store := cookie.NewStore([]byte(sessionSecret))
	r.Use(sessions.Sessions("civicsite_session", store))

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	// 公开接口：聊天、联系表单、博客读取代理
	public := r.Group("/api")
	{
		public.POST("/chat", api.Chat)
		public.POST("/contact", api.Contact)
		public.GET("/posts", api.ListPublishedPosts)
		public.GET("/posts/:slug", api.GetPublishedPost)
	}

	// 后台管理路由
	admin := r.Group("/admin")
	{
		admin.POST("/login", api.Login)
		admin.POST("/logout", api.Logout)

		// 需要认证的后台路由
		auth := admin.Group("/api")
		auth.Use(handler.AuthRequired())
		{
			auth.GET("/pending", api.ListPending)
			auth.POST("/pending", api.CreatePending)
			auth.GET("/pending/:id", api.GetPending)
			auth.GET("/pending/:id/preview", api.PreviewPending)
			auth.POST("/pending/:id/approve", api.ApprovePending)
			auth.POST("/pending/:id/reject", api.RejectPending)

			auth.POST("/blog/generate", api.GenerateBlogDraft)
			auth.POST("/social/generate", api.GenerateSocialBatch)

			auth.GET("/batches", api.ListBatches)
			auth.POST("/batches", api.SaveBatch)
			auth.GET("/batches/:id", api.GetBatch)
			auth.POST("/batches/:id/posts/:index/claim", api.ClaimPost)
		}
	}

	return r
}
