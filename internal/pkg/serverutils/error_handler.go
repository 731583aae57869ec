package serverutils

import (
	"errors"

	"kt-assistant-be/pkg/kterrors"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware converts errors bubbling out of handlers into the
// standard response envelope. Extraction format problems are the caller's
// input, transient upstream failures map to 502.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return ctx.Status(fiberErr.Code).JSON(ErrorResponse(fiberErr.Message))
		}

		var formatErr *kterrors.ExtractionFormatError
		if errors.As(err, &formatErr) {
			return ctx.Status(fiber.StatusUnprocessableEntity).JSON(ErrorResponse(formatErr.Error()))
		}

		var transientErr *kterrors.TransientExternalError
		if errors.As(err, &transientErr) {
			return ctx.Status(fiber.StatusBadGateway).JSON(ErrorResponse(transientErr.Error()))
		}

		return ctx.Status(fiber.StatusInternalServerError).JSON(ErrorResponse(err.Error()))
	}
}
