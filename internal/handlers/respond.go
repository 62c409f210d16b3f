package handlers

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"warehouse-service/internal/apperr"
)

// statusForKind maps an error kind to the HTTP status of the response.
func statusForKind(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation, apperr.KindInvalidFormat:
		return fiber.StatusUnprocessableEntity
	case apperr.KindNotFound:
		return fiber.StatusNotFound
	case apperr.KindAuthorization:
		return fiber.StatusForbidden
	default:
		return fiber.StatusInternalServerError
	}
}

// respondError writes the JSON error envelope for err. The message is the
// user-facing one carried by the error kind; causes stay in the logs.
func respondError(c *fiber.Ctx, err error) error {
	kind := apperr.KindOf(err)
	log.Printf("Request failed: %s %s: %v", c.Method(), c.Path(), err)
	return c.Status(statusForKind(kind)).JSON(fiber.Map{
		"error":   kind.Code(),
		"message": apperr.MessageOf(err),
	})
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error":   apperr.KindValidation.Code(),
		"message": message,
	})
}
