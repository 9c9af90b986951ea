package serverutils

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// Error codes returned in the "error" field.
const (
	CodeAnalysisFailed  = "ANALYSIS_FAILED"
	CodeChatError       = "CHAT_ERROR"
	CodeSessionNotFound = "SESSION_NOT_FOUND"
	CodeNotFound        = "NOT_FOUND"
	CodeBadRequest      = "BAD_REQUEST"
	CodeValidation      = "VALIDATION_ERROR"
	CodeInternal        = "INTERNAL_ERROR"
)

// AppError carries the HTTP status and code an error is rendered with.
type AppError struct {
	Status  int
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewAppError(status int, code, message string, err error) *AppError {
	return &AppError{Status: status, Code: code, Message: message, Err: err}
}

func BadRequest(message string) *AppError {
	return NewAppError(fiber.StatusBadRequest, CodeBadRequest, message, nil)
}

func NotFound(code, message string) *AppError {
	return NewAppError(fiber.StatusNotFound, code, message, nil)
}

// ErrorHandlerMiddleware renders errors returned by the handlers below it.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}
		return WriteError(ctx, err)
	}
}

// WriteError maps an error onto the status and body it is reported with.
func WriteError(ctx *fiber.Ctx, err error) error {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return ctx.Status(appErr.Status).JSON(ErrorResponse(appErr.Code, appErr.Message))
	}

	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return ctx.Status(fiber.StatusBadRequest).JSON(ErrorResponse(CodeValidation, validationErr.Error()))
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return ctx.Status(fiberErr.Code).JSON(ErrorResponse(CodeBadRequest, fiberErr.Message))
	}

	return ctx.Status(fiber.StatusInternalServerError).JSON(ErrorResponse(CodeInternal, err.Error()))
}
