// Package web provides HTTP handlers and REST API endpoints for workflow management.
package web

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/troupe-dev/troupe/pkg/pool"
	"github.com/troupe-dev/troupe/pkg/registry"
	"github.com/troupe-dev/troupe/pkg/services"
)

type APIHandlers struct {
	workflowService *services.Workflow
	validator       *validator.Validate
	registry        *registry.Registry
	agentPool       *pool.Pool
}

func NewAPIHandlers(
	workflowService *services.Workflow,
	validate *validator.Validate,
	reg *registry.Registry,
	agentPool *pool.Pool,
) *APIHandlers {
	return &APIHandlers{
		workflowService: workflowService,
		validator:       validate,
		registry:        reg,
		agentPool:       agentPool,
	}
}

func (h *APIHandlers) GetWorkflows(c fiber.Ctx) error {
	workflows, err := h.workflowService.ListWorkflows(c.Context())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"workflows":   workflows,
		"total_count": len(workflows),
	})
}

func (h *APIHandlers) GetWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	workflow, err := h.workflowService.GetWorkflow(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(workflow)
}

func (h *APIHandlers) CreateWorkflow(c fiber.Ctx) error {
	var req CreateWorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	created, err := h.workflowService.CreateWorkflow(c.Context(), req.Name, req.Description)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) DeleteWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	if err := h.workflowService.DeleteWorkflow(c.Context(), id); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) AddStep(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	var req AddStepRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	step, err := h.workflowService.AddStep(c.Context(), id, services.AddStepRequest{
		ID:        req.ID,
		AgentType: req.AgentType,
		TaskType:  req.TaskType,
		Input:     req.Input,
		DependsOn: req.DependsOn,
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(step)
}

// RunWorkflow executes the workflow synchronously and returns the terminal
// result. Step failures come back encoded in the result status, not as an
// HTTP error.
func (h *APIHandlers) RunWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	result, err := h.workflowService.RunWorkflow(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(result)
}

// DispatchWorkflow requests an asynchronous run via the event bus.
func (h *APIHandlers) DispatchWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	var req DispatchWorkflowRequest
	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&req); err != nil {
			return badRequest(c, "Invalid JSON format")
		}
	}

	if req.RequestedBy == "" {
		req.RequestedBy = "api"
	}

	if err := h.workflowService.DispatchWorkflow(c.Context(), id, req.RequestedBy); err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"workflow_id":  id,
		"requested_by": req.RequestedBy,
		"dispatched":   true,
	})
}

func (h *APIHandlers) GetWorkflowStatus(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	status, err := h.workflowService.GetStatus(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(status)
}

// GetAgents returns the registered capabilities and the current pool snapshot.
func (h *APIHandlers) GetAgents(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"agent_types": h.registry.AgentTypes(),
		"agents":      h.agentPool.Agents(),
		"pool_size":   h.agentPool.Size(),
	})
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	registryCheck, regOk := h.registry.HealthCheck()
	repositoryCheck, repOk := h.workflowService.HealthCheck(c.Context())

	status := "unhealthy"
	message := "Troupe API is unhealthy"
	httpStatus := http.StatusInternalServerError

	if regOk && repOk {
		status = "healthy"
		message = "Troupe API is healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"registry":   registryCheck,
			"repository": repositoryCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}
