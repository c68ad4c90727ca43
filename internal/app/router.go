package app

import (
	"studyflow_backend/docs"
	"studyflow_backend/internal/middleware"
	"studyflow_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, s *services) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 公共路由(无需登录)
	public := router.Group("/api")
	{
		public.GET("/health", c.health.Check)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)
	}

	// 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(s.auth))
	{
		authGroup.POST("/logout", c.auth.Logout)

		authGroup.GET("/dashboard", c.user.Dashboard)
		authGroup.GET("/profile", c.user.GetProfile)
		authGroup.POST("/profile", c.user.UpdateProfile)

		authGroup.POST("/courses", c.course.Create)
		authGroup.GET("/courses", c.course.List)
		authGroup.GET("/courses/:id", c.course.Get)
		authGroup.PATCH("/courses/:id", c.course.Update)
		authGroup.DELETE("/courses/:id", c.course.Delete)
		authGroup.GET("/courses/:id/files", c.file.List)
		authGroup.POST("/courses/:id/upload", c.file.Upload)

		authGroup.GET("/files/:id", c.file.Detail)
		authGroup.POST("/files/delete", c.file.Delete)

		authGroup.POST("/chat", c.chat.Send)
		authGroup.GET("/chat-history/:courseId", c.chat.History)

		authGroup.POST("/quiz/generate", c.quiz.Generate)
		authGroup.POST("/quiz/submit", c.quiz.Submit)
		authGroup.GET("/quiz/history/:courseId", c.quiz.History)

		authGroup.GET("/progress/:courseId", c.progress.CourseDetail)
		authGroup.POST("/progress/update", c.progress.Update)
	}
}
