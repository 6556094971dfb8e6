package handlers

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"go.uber.org/zap"

	"aralis/internal/services"
	"aralis/pkg/errorbank"
)

// NewValidator returns a validator that reports JSON field names and knows the strongpassword tag.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("strongpassword", func(fl validator.FieldLevel) bool {
		return services.IsStrongPassword(fl.Field().String())
	})
	return v
}

// bind parses the JSON body into dst and validates it.
func bind(c *fiber.Ctx, v *validator.Validate, dst interface{}) error {
	if err := c.BodyParser(dst); err != nil {
		return errorbank.BadRequest("Invalid request body", errorbank.WithCause(err))
	}
	if err := v.Struct(dst); err != nil {
		var validationErrors validator.ValidationErrors
		if !errors.As(err, &validationErrors) {
			return errorbank.BadRequest("Validation failed", errorbank.WithCause(err))
		}
		errorMessages := make(map[string]any, len(validationErrors))
		for _, e := range validationErrors {
			errorMessages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
		}
		return errorbank.BadRequest("Validation failed", errorbank.WithDetails(errorMessages))
	}
	return nil
}

// ErrorHandler renders every error returned by a handler as {"message", "error", "details"}.
// Causes of internal errors are logged, never returned.
func ErrorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return c.Status(fiberErr.Code).JSON(fiber.Map{
				"message": fiberErr.Message,
				"error":   strings.ToLower(strings.ReplaceAll(utils.StatusMessage(fiberErr.Code), " ", "_")),
			})
		}

		appErr := errorbank.From(err)
		status := appErr.StatusCode()
		if status >= fiber.StatusInternalServerError {
			logger.Error("request failed",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.Error(err))
		}

		body := fiber.Map{
			"message": appErr.Message(),
			"error":   string(appErr.Kind()),
		}
		if details := appErr.Details(); len(details) > 0 {
			body["details"] = details
		}
		return c.Status(status).JSON(body)
	}
}
