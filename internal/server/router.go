package server

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/dojo-admin-api/api/swagger"
	"github.com/noah-isme/dojo-admin-api/internal/handler"
	"github.com/noah-isme/dojo-admin-api/internal/middleware"
	"github.com/noah-isme/dojo-admin-api/internal/models"
	"github.com/noah-isme/dojo-admin-api/pkg/config"
	"github.com/noah-isme/dojo-admin-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/dojo-admin-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/dojo-admin-api/pkg/middleware/requestid"
)

// NewRouter builds the gin engine serving the local JSON API.
func NewRouter(cfg *config.Config, logr *zap.Logger, svcs *Services) *gin.Engine {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(svcs.Metrics))

	metricsHandler := handler.NewMetricsHandler(svcs.Metrics)
	r.GET("/health", metricsHandler.Health)
	if cfg.Metrics.Enabled {
		r.GET("/metrics", metricsHandler.Prometheus)
	}
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	authHandler := handler.NewAuthHandler(svcs.Auth)
	employeeHandler := handler.NewEmployeeHandler(svcs.Employees)
	clientHandler := handler.NewClientHandler(svcs.Clients)
	subscriptionHandler := handler.NewSubscriptionHandler(svcs.Subscriptions, cfg.Billing.ExpiringSoonDays)
	groupHandler := handler.NewGroupHandler(svcs.Groups)
	lessonHandler := handler.NewLessonHandler(svcs.Lessons)
	attendanceHandler := handler.NewAttendanceHandler(svcs.Attendance)
	reportHandler := handler.NewReportHandler(svcs.Reports, cfg.Billing.ExpiringSoonDays)

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)

	secured := api.Group("")
	secured.Use(middleware.JWT(svcs.Auth))
	adminOnly := middleware.RequireRoles(models.EmployeeRoleAdmin)

	secured.GET("/auth/me", authHandler.Me)
	secured.POST("/auth/change-password", authHandler.ChangePassword)
	secured.GET("/system/metrics", metricsHandler.Summary)

	employees := secured.Group("/employees")
	employees.GET("", employeeHandler.List)
	employees.GET("/:id", middleware.RBAC(string(models.EmployeeRoleAdmin), middleware.SelfAccess), employeeHandler.Get)
	employees.POST("", adminOnly, employeeHandler.Create)
	employees.PUT("/:id", adminOnly, employeeHandler.Update)
	employees.DELETE("/:id", adminOnly, employeeHandler.Delete)

	clients := secured.Group("/clients")
	clients.GET("", clientHandler.List)
	clients.POST("", clientHandler.Create)
	clients.GET("/:id", clientHandler.Get)
	clients.PUT("/:id", clientHandler.Update)
	clients.DELETE("/:id", adminOnly, clientHandler.Delete)
	clients.GET("/:id/subscriptions", subscriptionHandler.ListForClient)
	clients.GET("/:id/subscriptions/active", subscriptionHandler.Active)
	clients.GET("/:id/subscriptions/current", subscriptionHandler.Current)
	clients.GET("/:id/attendance", attendanceHandler.History)
	clients.GET("/:id/attendance/summary", attendanceHandler.Summary)

	plans := secured.Group("/plans")
	plans.GET("", subscriptionHandler.ListPlans)
	plans.GET("/:id", subscriptionHandler.GetPlan)
	plans.POST("", adminOnly, subscriptionHandler.CreatePlan)
	plans.PUT("/:id", adminOnly, subscriptionHandler.UpdatePlan)
	plans.DELETE("/:id", adminOnly, subscriptionHandler.DeletePlan)

	subscriptions := secured.Group("/subscriptions")
	subscriptions.POST("", subscriptionHandler.Assign)
	subscriptions.POST("/:id/pay", subscriptionHandler.MarkPaid)
	subscriptions.POST("/:id/visits", subscriptionHandler.IncrementVisit)

	billing := secured.Group("/billing")
	billing.GET("/debtors", subscriptionHandler.Debtors)
	billing.GET("/unpaid", subscriptionHandler.Unpaid)
	billing.GET("/expiring", subscriptionHandler.ExpiringSoon)

	groups := secured.Group("/groups")
	groups.GET("", groupHandler.List)
	groups.POST("", groupHandler.Create)
	groups.GET("/:id", groupHandler.Get)
	groups.PUT("/:id", groupHandler.Update)
	groups.DELETE("/:id", adminOnly, groupHandler.Delete)
	groups.GET("/:id/schedule", groupHandler.Schedule)
	groups.PUT("/:id/schedule", groupHandler.SetSchedule)
	groups.GET("/:id/members", groupHandler.Members)
	groups.POST("/:id/members", groupHandler.AddMember)
	groups.DELETE("/:id/members/:clientId", groupHandler.RemoveMember)

	lessons := secured.Group("/lessons")
	lessons.GET("", lessonHandler.List)
	lessons.POST("", lessonHandler.Create)
	lessons.POST("/generate", lessonHandler.Generate)
	lessons.GET("/:id", lessonHandler.Get)
	lessons.DELETE("/:id", lessonHandler.Delete)
	lessons.GET("/:id/attendance", attendanceHandler.ForLesson)
	lessons.PUT("/:id/attendance", attendanceHandler.SetStatus)

	if cfg.Reports.Enabled {
		reports := secured.Group("/reports")
		reports.GET("/debtors", reportHandler.Debtors)
		reports.GET("/expiring", reportHandler.Expiring)
		reports.GET("/lessons/:id", reportHandler.LessonSheet)
	}

	return r
}
