package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"alfredoptarigan/job-application-agent/internal/repositories"
)

func errorJSON(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": msg,
	})
}

// lookupError maps a repository error to 404 or 500.
func lookupError(c *fiber.Ctx, err error, what string) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return errorJSON(c, fiber.StatusNotFound, what+" not found")
	}
	return errorJSON(c, fiber.StatusInternalServerError, "failed to load "+what)
}

func parseIDParam(c *fiber.Ctx, what string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, errorJSON(c, fiber.StatusBadRequest, "Invalid "+what+" ID format")
	}
	return id, nil
}
