package app

import (
	"learning_dropout_backend/internal/config"
	"learning_dropout_backend/internal/middleware"
	"learning_dropout_backend/internal/model"
	"learning_dropout_backend/pkg/monitoring"

	_ "learning_dropout_backend/docs"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/metrics", monitoring.PrometheusHandler())

	api := router.Group("/api")
	{
		api.GET("/health", c.health.HealthCheck)

		api.POST("/auth/register", c.auth.Register)
		api.POST("/auth/login", c.auth.Login)

		// 分析查询接口对已登录用户开放
		analysis := api.Group("/analysis")
		analysis.Use(middleware.AuthMiddleware(cfg))
		{
			analysis.GET("/courses", c.analysis.GetCourses)
			analysis.GET("/course/:courseID/segments", c.analysis.GetSegments)
			analysis.GET("/course/:courseID/danger-zones", c.analysis.GetDangerZones)
			analysis.GET("/course/:courseID/reasons", c.analysis.GetReasons)
			analysis.GET("/course/:courseID/summary", c.analysis.GetSummary)
			analysis.GET("/course/:courseID/chart-data", c.analysis.GetChartData)
		}

		// 触发重算与数据管理仅限管理员
		admin := api.Group("/admin")
		admin.Use(middleware.AuthMiddleware(cfg), middleware.RoleMiddleware(model.Admin))
		{
			admin.POST("/analysis/course/:courseID/run", c.analysis.RunAnalysis)
			admin.POST("/seed", c.admin.SeedDemoData)
			admin.POST("/reports/course/:courseID/export", c.admin.ExportReport)
		}
	}
}
