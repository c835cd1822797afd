package api

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/jackc/pgx/v5/pgxpool"

	swagger "github.com/go-swagno/swagno-fiber/swagger"
	"github.com/veriface-labs/poseguard/internal/api/docs"
	"github.com/veriface-labs/poseguard/internal/api/handler"
	"github.com/veriface-labs/poseguard/internal/api/middleware"
	"github.com/veriface-labs/poseguard/internal/audit"
	"github.com/veriface-labs/poseguard/internal/capture"
	"github.com/veriface-labs/poseguard/internal/config"
	"github.com/veriface-labs/poseguard/internal/liveness"
	"github.com/veriface-labs/poseguard/internal/match"
	"github.com/veriface-labs/poseguard/internal/provider"
	"github.com/veriface-labs/poseguard/internal/repository"
	"github.com/veriface-labs/poseguard/internal/sequence"
	"github.com/veriface-labs/poseguard/internal/service"
)

type Dependencies struct {
	Config       *config.Config
	FaceProvider provider.FaceProvider
	DB           *pgxpool.Pool
}

type Router struct {
	app         *fiber.App
	logger      *slog.Logger
	deps        *Dependencies
	cancelSweep context.CancelFunc
}

func NewRouter(logger *slog.Logger, deps *Dependencies) *Router {
	app := fiber.New(fiber.Config{
		ErrorHandler: middleware.ErrorHandler(logger),
		AppName:      "PoseGuard API",
	})

	return &Router{
		app:    app,
		logger: logger,
		deps:   deps,
	}
}

func (r *Router) Setup() {
	// Global middlewares
	r.app.Use(requestid.New())
	r.app.Use(middleware.Recover(r.logger))
	r.app.Use(middleware.Logger(r.logger))
	r.app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	// Swagger documentation (no auth required)
	sw := docs.NewSwagger()
	swagger.SwaggerHandler(r.app, sw.MustToJson())

	// Health check endpoints (no auth required)
	var healthHandler *handler.HealthHandler
	if r.deps != nil && r.deps.DB != nil {
		healthHandler = handler.NewHealthHandler(r.deps.DB)
	} else {
		healthHandler = handler.NewHealthHandler(nil)
	}
	r.app.Get("/health", healthHandler.Health)
	r.app.Get("/ready", healthHandler.Ready)

	// API v1 group with authentication
	v1 := r.app.Group("/v1")

	// Only configure authenticated routes if dependencies were provided
	if r.deps != nil {
		cfg := r.deps.Config

		v1.Use(middleware.Auth(cfg.APIKey))

		// Capture pipeline
		validatorCfg := capture.DefaultConfig()
		validatorCfg.MinFaceRatio = cfg.FaceRatioMin
		validatorCfg.MaxFaceRatio = cfg.FaceRatioMax
		validator := capture.NewValidator(validatorCfg)

		estimator := liveness.NewEstimator(liveness.Config{
			TextureVarianceMin: cfg.LivenessTextureMin,
			EdgeDensityMin:     cfg.LivenessEdgeMin,
		})

		engine := match.NewEngine(cfg.MatchTolerance)

		controller := sequence.NewController(
			r.deps.FaceProvider,
			validator,
			estimator,
			sequence.Config{
				CenterMaxAbsYaw:     cfg.PoseCenterMaxAbsYaw,
				TurnTargetYaw:       cfg.PoseTurnTargetYaw,
				TurnBand:            cfg.PoseTurnBand,
				SamePersonThreshold: cfg.SamePersonThreshold,
				ProviderTimeout:     cfg.ProviderTimeout,
			},
			r.logger,
		)

		// Repositories and audit trail
		templateRepo := repository.NewTemplateRepository(r.deps.DB)
		attemptRepo := repository.NewLoginAttemptRepository(r.deps.DB)
		auditLogger := audit.NewSlogLogger(r.logger)

		// Enrollment service with expired-session sweeper
		enrollmentService := service.NewEnrollmentService(
			controller,
			templateRepo,
			auditLogger,
			r.logger,
			cfg.EnrollmentSessionTTL,
		)
		sweepCtx, sweepCancel := context.WithCancel(context.Background())
		r.cancelSweep = sweepCancel
		go enrollmentService.Run(sweepCtx)

		loginService := service.NewLoginService(
			r.deps.FaceProvider,
			validator,
			estimator,
			engine,
			templateRepo,
			attemptRepo,
			auditLogger,
			r.logger,
			cfg.ProviderTimeout,
		)

		// Handlers
		enrollmentHandler := handler.NewEnrollmentHandler(enrollmentService, r.logger)
		loginHandler := handler.NewLoginHandler(loginService, r.logger)

		// Enrollment routes
		v1.Post("/enrollments", enrollmentHandler.Start)
		v1.Post("/enrollments/:id/captures", enrollmentHandler.Capture)
		v1.Delete("/enrollments/:id", enrollmentHandler.Abandon)

		// Login routes
		v1.Post("/login", loginHandler.Login)
		v1.Delete("/templates/:subject_id", loginHandler.DeleteTemplate)
	}
}

func (r *Router) App() *fiber.App {
	return r.app
}

func (r *Router) Listen(addr string) error {
	return r.app.Listen(addr)
}

func (r *Router) Shutdown() error {
	// Stop the session sweeper
	if r.cancelSweep != nil {
		r.cancelSweep()
	}

	return r.app.Shutdown()
}
