// Package main provides the Troupe API server implementation.
package main

import (
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"

	"github.com/troupe-dev/troupe/pkg/eventbus"
	"github.com/troupe-dev/troupe/pkg/persistence"
	"github.com/troupe-dev/troupe/pkg/pool"
	"github.com/troupe-dev/troupe/pkg/registry"
	"github.com/troupe-dev/troupe/pkg/services"
	"github.com/troupe-dev/troupe/pkg/web"
	"github.com/troupe-dev/troupe/pkg/workflow"
)

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	registry    *registry.Registry
	eventBus    eventbus.EventBus
	validate    *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	persistence persistence.Persistence,
	reg *registry.Registry,
	eventBus eventbus.EventBus,
) *API {
	return &API{
		persistence: persistence,
		logger:      logger,
		registry:    reg,
		eventBus:    eventBus,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	agentPool := pool.NewPool(a.registry, a.logger)
	executor := workflow.NewStepExecutor(agentPool, a.eventBus, a.logger)
	scheduler := workflow.NewScheduler(executor, a.eventBus, a.logger)
	repo := workflow.NewRepository(a.persistence)
	workflowService := services.NewWorkflow(repo, a.registry, scheduler, a.eventBus, a.logger)

	handlers := web.NewAPIHandlers(workflowService, a.validate, a.registry, agentPool)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Troupe API")
	})

	w := app.Group("/workflows")
	w.Get("/", handlers.GetWorkflows)
	w.Post("/", handlers.CreateWorkflow)
	w.Get("/:id", handlers.GetWorkflow)
	w.Delete("/:id", handlers.DeleteWorkflow)
	w.Post("/:id/steps", handlers.AddStep)
	w.Post("/:id/run", handlers.RunWorkflow)
	w.Post("/:id/dispatch", handlers.DispatchWorkflow)
	w.Get("/:id/status", handlers.GetWorkflowStatus)

	app.Get("/agents", handlers.GetAgents)
	app.Get("/health", handlers.HealthCheck)

	return app
}

func (a *API) Start(port int) error {
	app := a.App()

	return app.Listen(":" + strconv.Itoa(port))
}
