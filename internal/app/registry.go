package app

import (
	"go-hrms/internal/audit"
	"go-hrms/internal/config"
	"go-hrms/internal/employee"
	"go-hrms/internal/leave"
	"go-hrms/internal/messaging/kafka"
	"go-hrms/internal/middleware"
	"go-hrms/internal/organization"
	"go-hrms/internal/rbac"
	"go-hrms/internal/rbac/infra"
	"go-hrms/internal/shared/counter"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func registerModules(router *gin.Engine, cfg *config.Config, in *Infra, logger *zap.Logger) (audit.Recorder, error) {
	// Repositories
	rbacRepo := rbac.NewRepository(in.GormDB)
	organizationRepo := organization.NewRepository(in.GormDB)
	employeeRepo := employee.NewRepository(in.GormDB)
	counterRepo := counter.NewRepository(in.GormDB)
	outboxRepo := kafka.NewOutboxRepository(in.DB)
	recorder := audit.NewRecorder(in.DB, logger)

	// Services
	enforcer, err := infra.NewEnforcer(cfg.RBAC.ModelPath)
	if err != nil {
		return nil, err
	}
	rbacService := rbac.NewService(rbacRepo, enforcer, logger)

	organizationService := organization.NewService(in.DB, organizationRepo, in.Redis, recorder, logger)

	employeeService := employee.NewService(in.DB, employeeRepo, employee.Dependencies{
		Units:    organizationRepo,
		Counter:  counterRepo,
		Outbox:   outboxRepo,
		Redis:    in.Redis,
		Recorder: recorder,
	}, logger)

	leaveService := newLeaveService(cfg, in, leaveDeps{
		rbac:      rbacService,
		employees: employeeRepo,
		outbox:    outboxRepo,
		recorder:  recorder,
	}, logger)

	// Handlers
	rbacHandler := rbac.NewHandler(rbacService, logger)
	organizationHandler := organization.NewHandler(organizationService, logger)
	employeeHandler := employee.NewHandler(employeeService, logger)
	leaveHandler := leave.NewHandlerWithRedis(leaveService, in.Redis, logger)

	auth := middleware.AuthMiddleware(cfg.JWT.Secret)

	api := router.Group("/api/v1")
	api.Use(middleware.RateLimitByIP(rate.Limit(cfg.HTTP.RateLimit), cfg.HTTP.RateBurst))
	{
		rbac.RegisterRoutes(api, rbacHandler, auth)
		organization.RegisterRoutes(api, organizationHandler, auth, rbacService)
		employee.RegisterRoutes(api, employeeHandler, auth, rbacService)
		leave.RegisterRoutes(api, leaveHandler, auth, rbacService, in.Redis)
	}

	return recorder, nil
}

type leaveDeps struct {
	rbac      rbac.Service
	employees employee.Repository
	outbox    kafka.OutboxRepository
	recorder  audit.Recorder
}

func newLeaveService(cfg *config.Config, in *Infra, deps leaveDeps, logger *zap.Logger) leave.Service {
	return leave.NewService(in.DB, leave.NewRepository(in.GormDB), leave.Dependencies{
		Authorizer: deps.rbac,
		Employees:  deps.employees,
		Outbox:     deps.outbox,
		Recorder:   deps.recorder,
		Location:   cfg.Location(),
	}, logger)
}

// LeaveService builds the leave service outside the HTTP stack, with the
// same authorization and audit wiring the API uses.
func LeaveService(cfg *config.Config, in *Infra, logger *zap.Logger) (leave.Service, error) {
	enforcer, err := infra.NewEnforcer(cfg.RBAC.ModelPath)
	if err != nil {
		return nil, err
	}
	return newLeaveService(cfg, in, leaveDeps{
		rbac:      rbac.NewService(rbac.NewRepository(in.GormDB), enforcer, logger),
		employees: employee.NewRepository(in.GormDB),
		outbox:    kafka.NewOutboxRepository(in.DB),
		recorder:  audit.NewRecorder(in.DB, logger),
	}, logger), nil
}
