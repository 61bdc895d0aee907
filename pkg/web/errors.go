package web

import (
	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"

	"github.com/troupe-dev/troupe/pkg/persistence"
	"github.com/troupe-dev/troupe/pkg/services"
)

func problemResponse(c fiber.Ctx, status int, problemType, detail string) error {
	problem := problems.NewStatusProblem(status).
		WithInstance(c.Path()).
		WithType(problemType).
		WithDetail(detail)

	return c.Status(status).JSON(problem)
}

func badRequest(c fiber.Ctx, detail string) error {
	return problemResponse(c, fiber.StatusBadRequest, "validation_error", detail)
}

func notFound(c fiber.Ctx, detail string) error {
	return problemResponse(c, fiber.StatusNotFound, "not_found", detail)
}

func internalError(c fiber.Ctx, err error) error {
	problem := problems.NewStatusProblem(fiber.StatusInternalServerError).
		WithInstance(c.Path()).
		WithType("internal_error").
		WithError(err)

	return c.Status(fiber.StatusInternalServerError).JSON(problem)
}

// handleServiceError maps service layer errors onto problem responses:
// validation failures become 400, lifecycle conflicts 409, missing
// workflows 404 and everything else 500.
func handleServiceError(c fiber.Ctx, err error) error {
	switch {
	case services.IsValidationError(err):
		return problemResponse(c, fiber.StatusBadRequest, "validation_error", err.Error())

	case services.IsConflictError(err):
		return problemResponse(c, fiber.StatusConflict, "conflict", err.Error())

	case persistence.IsWorkflowNotFound(err):
		return problemResponse(c, fiber.StatusNotFound, "workflow_not_found", "workflow not found")

	default:
		return internalError(c, err)
	}
}
