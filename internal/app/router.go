package app

import (
	"time"

	"lmp_backend/internal/config"
	"lmp_backend/internal/middleware"
	"lmp_backend/internal/model"
	"lmp_backend/pkg/monitoring"
	"lmp_backend/pkg/security"

	"github.com/gin-gonic/gin"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
	}

	// 2. 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg.JWT.Secret))
	{
		// 学生答题接口
		a.registerStudentRoutes(authGroup, c, cfg)

		// 教师成绩接口
		a.registerTeacherRoutes(authGroup, c)
	}
}

func (a *App) registerStudentRoutes(rg *gin.RouterGroup, c *controllers, cfg *config.Config) {
	submit := []gin.HandlerFunc{c.passing.SubmitAnswer}
	if cfg.RateLimit.SubmitPerMinute > 0 {
		submit = append([]gin.HandlerFunc{
			security.RateLimiterBy(cfg.RateLimit.SubmitPerMinute, time.Minute, middleware.UserRateKey),
		}, submit...)
	}

	tests := rg.Group("/tests/:id")
	{
		tests.GET("/access", c.passing.CanAccess)
		tests.GET("/slots", c.passing.GetActiveSlots)
		tests.GET("/question", c.passing.GetNextQuestion)
		tests.POST("/answers", submit...)
		tests.POST("/restart", c.passing.RestartTest)

		tests.GET("/passing-time", c.results.GetMyPassingTime)
		tests.GET("/ended-answers", c.results.GetMyEndedAnswers)
	}

	subjects := rg.Group("/subjects/:id")
	{
		subjects.GET("/results", c.results.GetMyResults)
		subjects.GET("/available-tests", c.results.GetAvailableTests)
		subjects.GET("/availability", c.results.CheckSubjectAvailable)
	}

	rg.GET("/questions/:id/points", c.results.GetQuestionPoints)
}

func (a *App) registerTeacherRoutes(rg *gin.RouterGroup, c *controllers) {
	teacher := rg.Group("/teacher")
	teacher.Use(middleware.RoleMiddleware(model.Teacher))
	{
		// 实时看板
		teacher.GET("/subjects/:id/realtime", c.results.GetRealTimePassingResults)

		// 小组成绩
		teacher.GET("/groups/:groupId/subjects/:subjectId/average-marks", c.results.GetAverageMarks)
		teacher.GET("/groups/:groupId/subjects/:subjectId/results", c.results.GetGroupResults)

		// 单个学生
		teacher.GET("/tests/:id/students/:studentId/passing-time", c.results.GetStudentPassingTime)
		teacher.GET("/tests/:id/students/:studentId/ended-answers", c.results.GetStudentEndedAnswers)
	}
}
