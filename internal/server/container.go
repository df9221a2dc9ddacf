package server

import (
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/dojo-admin-api/internal/repository"
	"github.com/noah-isme/dojo-admin-api/internal/service"
	"github.com/noah-isme/dojo-admin-api/pkg/clock"
	"github.com/noah-isme/dojo-admin-api/pkg/config"
)

// Services holds every engine and CRUD service over one database.
type Services struct {
	Auth          *service.AuthService
	Employees     *service.EmployeeService
	Clients       *service.ClientService
	Subscriptions *service.SubscriptionService
	Groups        *service.GroupService
	Lessons       *service.LessonService
	Attendance    *service.AttendanceService
	Reports       *service.ReportService
	Metrics       *service.MetricsService
}

// NewServices wires repositories and services. A nil clock uses the system
// clock in the configured timezone.
func NewServices(db *sqlx.DB, cfg *config.Config, clk clock.Clock, logger *zap.Logger) *Services {
	if clk == nil {
		clk = clock.NewSystem(cfg.Location())
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	validate := service.NewValidator()

	var metrics *service.MetricsService
	if cfg.Metrics.Enabled {
		metrics = service.NewMetricsService()
	}

	employeeRepo := repository.NewEmployeeRepository(db)
	clientRepo := repository.NewClientRepository(db)
	planRepo := repository.NewPlanRepository(db)
	assignmentRepo := repository.NewClientSubscriptionRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	lessonRepo := repository.NewLessonRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)

	svcs := &Services{Metrics: metrics}
	svcs.Auth = service.NewAuthService(employeeRepo, clk, validate, logger.Named("auth"), service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
	})
	svcs.Employees = service.NewEmployeeService(employeeRepo, clk, validate, logger.Named("employees"))
	svcs.Clients = service.NewClientService(clientRepo, db, clk, validate, logger.Named("clients"))
	svcs.Subscriptions = service.NewSubscriptionService(planRepo, assignmentRepo, clientRepo, db, clk, validate,
		logger.Named("subscriptions"), metrics)
	svcs.Groups = service.NewGroupService(groupRepo, attendanceRepo, clientRepo, employeeRepo, db, clk, validate, logger.Named("groups"))
	svcs.Lessons = service.NewLessonService(lessonRepo, groupRepo, attendanceRepo, db, clk, validate, logger.Named("lessons"), metrics)
	svcs.Attendance = service.NewAttendanceService(attendanceRepo, lessonRepo, assignmentRepo, clientRepo, db, clk, validate,
		logger.Named("attendance"), metrics)
	svcs.Reports = service.NewReportService(svcs.Subscriptions, svcs.Lessons, svcs.Attendance, clk, logger.Named("reports"))
	return svcs
}
