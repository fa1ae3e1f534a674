package serverutils

import (
	"errors"
	"log"

	"ai-dataviz-be/internal/pkg/apperror"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware turns any error returned by downstream handlers into an ErrorResponse.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}
		return WriteError(ctx, err)
	}
}

func WriteError(ctx *fiber.Ctx, err error) error {
	var fiberErr *fiber.Error
	if _, ok := apperror.As(err); !ok && errors.As(err, &fiberErr) {
		return ctx.Status(fiberErr.Code).JSON(ErrorResponse{
			Success: false,
			Error:   fiberErr.Message,
			Code:    string(codeForStatus(fiberErr.Code)),
			Status:  fiberErr.Code,
		})
	}

	appErr, ok := apperror.As(err)
	if !ok {
		appErr = apperror.Internal(err)
	}
	if appErr.Status >= fiber.StatusInternalServerError {
		log.Printf("[ERROR] %s %s: %v", ctx.Method(), ctx.Path(), err)
	}
	return ctx.Status(appErr.Status).JSON(ErrorResponse{
		Success: false,
		Error:   appErr.Message,
		Code:    string(appErr.Code),
		Status:  appErr.Status,
		Data:    appErr.Data,
	})
}

func codeForStatus(status int) apperror.Code {
	switch {
	case status == fiber.StatusUnauthorized:
		return apperror.CodeUnauthorized
	case status == fiber.StatusNotFound:
		return apperror.CodeNotFound
	case status >= fiber.StatusInternalServerError:
		return apperror.CodeInternal
	default:
		return apperror.CodeValidation
	}
}
