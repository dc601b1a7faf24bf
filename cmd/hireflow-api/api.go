// Package main provides the HireFlow API server implementation.
package main

import (
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"

	"github.com/hireflow/hireflow/pkg/eventbus"
	"github.com/hireflow/hireflow/pkg/persistence"
	"github.com/hireflow/hireflow/pkg/registry"
	"github.com/hireflow/hireflow/pkg/services"
	"github.com/hireflow/hireflow/pkg/web"
	"github.com/hireflow/hireflow/pkg/workflow"
)

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	kinds       *registry.Registry
	eventBus    eventbus.EventBus
	validate    *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	persistence persistence.Persistence,
	kinds *registry.Registry,
	eventBus eventbus.EventBus,
) *API {
	return &API{
		persistence: persistence,
		logger:      logger,
		kinds:       kinds,
		eventBus:    eventBus,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	workflowService := services.NewWorkflow(a.persistence)
	lifecycleService := services.NewLifecycle(a.persistence, a.kinds, a.eventBus, a.logger)
	viewerService := services.NewViewers(a.persistence)
	orchestrator := workflow.NewOrchestrator(a.persistence, a.eventBus, a.logger)

	handlers := web.NewAPIHandlers(workflowService, lifecycleService, viewerService, orchestrator, a.validate, a.kinds)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("HireFlow API")
	})

	w := app.Group("/workflows")
	w.Get("/", handlers.GetWorkflows)
	w.Post("/", handlers.CreateWorkflow)
	w.Get("/:id", handlers.GetWorkflow)
	w.Delete("/:id", handlers.DeleteWorkflow)

	// Structural edits (draft and inactive workflows only):
	w.Post("/:id/nodes", handlers.CreateWorkflowNode)
	w.Delete("/:id/nodes/:nodeId", handlers.DeleteWorkflowNode)
	w.Post("/:id/connections", handlers.CreateWorkflowConnection)
	w.Delete("/:id/connections/:connId", handlers.DeleteWorkflowConnection)

	// Lifecycle:
	w.Post("/:id/activate", handlers.ActivateWorkflow)
	w.Post("/:id/deactivate", handlers.DeactivateWorkflow)
	w.Post("/:id/archive", handlers.ArchiveWorkflow)
	w.Post("/:id/versions", handlers.CreateWorkflowVersion)

	// Viewer grants:
	w.Get("/:id/viewers", handlers.ListViewers)
	w.Post("/:id/viewers", handlers.GrantViewer)
	w.Delete("/:id/viewers/:userId", handlers.RevokeViewer)

	// Candidate traversal:
	w.Post("/:id/candidates", handlers.StartCandidate)

	cw := app.Group("/candidate-workflows")
	cw.Get("/:id", handlers.GetCandidateWorkflow)
	cw.Post("/:id/withdraw", handlers.WithdrawCandidate)

	app.Post("/executions/:id/result", handlers.ReportResult)

	app.Get("/health", handlers.HealthCheck)

	return app
}

func (a *API) Start(port int) error {
	app := a.App()

	return app.Listen(":" + strconv.Itoa(port))
}
