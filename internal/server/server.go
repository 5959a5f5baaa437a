package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/club-portal/api/swagger"
	"github.com/noah-isme/club-portal/internal/client"
	"github.com/noah-isme/club-portal/internal/handler"
	"github.com/noah-isme/club-portal/internal/middleware"
	"github.com/noah-isme/club-portal/internal/service"
	"github.com/noah-isme/club-portal/pkg/config"
	"github.com/noah-isme/club-portal/pkg/format"
	"github.com/noah-isme/club-portal/pkg/logger"
)

const corsMaxAge = 12 * time.Hour

// Deps are the long lived collaborators shared by every screen.
type Deps struct {
	Logger    *zap.Logger
	Metrics   *service.MetricsService
	Client    *client.ClubClient
	Tokens    *service.TokenValidator
	Roles     *service.RoleSource
	Receipts  *service.ReceiptService
	Audit     *service.AuditService
	Formatter *format.Formatter
	Checks    []handler.ReadinessCheck
}

// Server owns the router and the per-kind screen registries.
type Server struct {
	Config *config.Config
	Router *gin.Engine

	deps        Deps
	passwords   *service.ScreenRegistry[*service.PasswordScreen]
	enrollments *service.ScreenRegistry[*service.EnrollmentWizard]
	users       *service.ScreenRegistry[*service.UserScreen]
	roles       *service.ScreenRegistry[*service.RoleScreen]
}

// New builds the router with every portal route mounted.
func New(cfg *config.Config, deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Formatter == nil {
		deps.Formatter = format.New(cfg.Account.Locale, cfg.Account.Currency)
	}
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	idle := cfg.Screens.IdleTTL
	s := &Server{
		Config:      cfg,
		Router:      gin.New(),
		deps:        deps,
		passwords:   service.NewScreenRegistry[*service.PasswordScreen]("password", idle, deps.Metrics, deps.Logger),
		enrollments: service.NewScreenRegistry[*service.EnrollmentWizard]("enrollment", idle, deps.Metrics, deps.Logger),
		users:       service.NewScreenRegistry[*service.UserScreen]("users", idle, deps.Metrics, deps.Logger),
		roles:       service.NewScreenRegistry[*service.RoleScreen]("roles", idle, deps.Metrics, deps.Logger),
	}

	s.mountMiddlewares()
	s.mountHandlers()
	return s
}

// Run sweeps idle screens until ctx is cancelled.
func (s *Server) Run(ctx context.Context) {
	interval := s.Config.Screens.SweepInterval
	go s.passwords.Run(ctx, interval)
	go s.enrollments.Run(ctx, interval)
	go s.users.Run(ctx, interval)
	go s.roles.Run(ctx, interval)
}

func (s *Server) mountMiddlewares() {
	s.Router.Use(gin.Recovery())
	s.Router.Use(requestid.New())
	s.Router.Use(logger.GinMiddleware(s.deps.Logger))
	s.Router.Use(cors.New(corsConfig(s.Config.CORS.AllowedOrigins)))
	if s.deps.Metrics != nil {
		s.Router.Use(middleware.Metrics(s.deps.Metrics))
	}
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:  []string{"Authorization", "Content-Type", "X-Requested-With", "X-Request-ID"},
		ExposeHeaders: []string{"X-Request-ID", "Content-Disposition"},
		MaxAge:        corsMaxAge,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}

func (s *Server) mountHandlers() {
	d := s.deps
	metrics := handler.NewMetricsHandler(d.Metrics, d.Checks...)
	s.Router.GET("/health", metrics.Health)
	s.Router.GET("/ready", metrics.Ready)
	s.Router.GET("/metrics", metrics.Prometheus)
	s.Router.GET("/metrics/summary", metrics.Summary)

	api := s.Router.Group(s.Config.APIPrefix)
	if d.Receipts != nil {
		api.GET("/receipts/:token", handler.NewReceiptHandler(d.Receipts).Download)
	}

	screens := api.Group("/screens", middleware.JWT(d.Tokens))

	password := handler.NewPasswordHandler(s.passwords, func() *service.PasswordScreen {
		return service.NewPasswordScreen(d.Client, d.Audit, d.Logger)
	})
	screens.POST("/password", password.Mount)
	screens.GET("/password/:id", password.Get)
	screens.POST("/password/:id/submit", password.Submit)
	screens.DELETE("/password/:id", password.Unmount)

	enrollment := handler.NewEnrollmentHandler(s.enrollments, func(owner string) *service.EnrollmentWizard {
		if d.Receipts == nil {
			return service.NewEnrollmentWizard(d.Client, nil, d.Audit, d.Formatter, owner, d.Logger)
		}
		return service.NewEnrollmentWizard(d.Client, d.Receipts, d.Audit, d.Formatter, owner, d.Logger)
	})
	screens.POST("/enrollment", enrollment.Mount)
	screens.GET("/enrollment/:id", enrollment.Get)
	screens.POST("/enrollment/:id/participant", enrollment.SelectParticipant)
	screens.POST("/enrollment/:id/course", enrollment.SelectCourse)
	screens.POST("/enrollment/:id/group", enrollment.SelectGroup)
	screens.POST("/enrollment/:id/continue", enrollment.Continue)
	screens.POST("/enrollment/:id/back", enrollment.Back)
	screens.PUT("/enrollment/:id/payment", enrollment.SetPayment)
	screens.POST("/enrollment/:id/submit", enrollment.Submit)
	screens.DELETE("/enrollment/:id", enrollment.Unmount)

	admin := screens.Group("", middleware.RequireAdmin())

	users := handler.NewUserScreenHandler(s.users, func() *service.UserScreen {
		return service.NewUserScreen(d.Client, d.Roles, d.Audit, d.Formatter, s.Config.Screens.DefaultPerPage, d.Logger)
	})
	admin.POST("/users", users.Mount)
	admin.GET("/users/:id", users.Get)
	admin.POST("/users/:id/page", users.Page)
	admin.POST("/users/:id/per-page", users.PerPage)
	admin.POST("/users/:id/search", users.Search)
	admin.POST("/users/:id/sort", users.Sort)
	admin.POST("/users/:id/filters", users.Filters)
	admin.POST("/users/:id/refresh", users.Refresh)
	admin.POST("/users/:id/form", users.OpenCreate)
	admin.POST("/users/:id/edit/:userId", users.OpenEdit)
	admin.DELETE("/users/:id/form", users.CloseForm)
	admin.POST("/users/:id/form/submit", users.SubmitForm)
	admin.POST("/users/:id/detail/:userId", users.ViewDetail)
	admin.DELETE("/users/:id/detail", users.CloseDetail)
	admin.POST("/users/:id/status", users.ChangeStatus)
	admin.POST("/users/:id/delete/:userId", users.AskDelete)
	admin.DELETE("/users/:id/delete", users.CancelDelete)
	admin.POST("/users/:id/confirm-delete", users.ConfirmDelete)
	admin.GET("/users/:id/export.csv", users.ExportCSV)
	admin.DELETE("/users/:id", users.Unmount)

	roles := handler.NewRoleScreenHandler(s.roles, func() *service.RoleScreen {
		return service.NewRoleScreen(d.Client, d.Roles, d.Audit, d.Logger)
	})
	admin.POST("/roles", roles.Mount)
	admin.GET("/roles/:id", roles.Get)
	admin.POST("/roles/:id/refresh", roles.Refresh)
	admin.POST("/roles/:id/form", roles.OpenCreate)
	admin.POST("/roles/:id/edit/:roleId", roles.OpenEdit)
	admin.DELETE("/roles/:id/form", roles.CloseForm)
	admin.POST("/roles/:id/form/submit", roles.SubmitForm)
	admin.POST("/roles/:id/delete/:roleId", roles.AskDelete)
	admin.DELETE("/roles/:id/delete", roles.CancelDelete)
	admin.POST("/roles/:id/confirm-delete", roles.ConfirmDelete)
	admin.DELETE("/roles/:id", roles.Unmount)

	if s.Config.Env != config.EnvProduction {
		swagger.BasePath = s.Config.APIPrefix
		s.Router.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}
}
