package middleware

import (
	"coursehub/apperror"
	"coursehub/config"
	"coursehub/logger"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

func JsonResponse(c *fiber.Ctx, statusCode int, status bool, message string, data interface{}) error {
	return c.Status(statusCode).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"data":    data,
	})
}

func ValidationErrorResponse(c *fiber.Ctx, fieldErrors map[string]string) error {
	return JsonResponse(c, fiber.StatusBadRequest, false, "Validation failed!", fieldErrors)
}

var statusByKind = map[apperror.Kind]int{
	apperror.KindValidation:        fiber.StatusBadRequest,
	apperror.KindConflict:          fiber.StatusConflict,
	apperror.KindDuplicatePurchase: fiber.StatusBadRequest,
	apperror.KindAuthentication:    fiber.StatusUnauthorized,
	apperror.KindForbidden:         fiber.StatusForbidden,
	apperror.KindNotFound:          fiber.StatusNotFound,
	apperror.KindUpload:            fiber.StatusBadGateway,
	apperror.KindPayment:           fiber.StatusBadGateway,
	apperror.KindInternal:          fiber.StatusInternalServerError,
}

// ErrorResponse writes err using the envelope of JsonResponse. Internal failures are
// logged in full and reported generically in production.
func ErrorResponse(c *fiber.Ctx, err error) error {
	var appErr *apperror.Error
	if !errors.As(err, &appErr) {
		appErr = apperror.Internal("Something went wrong!", err)
	}

	status := statusByKind[appErr.Kind]
	if status == 0 {
		status = fiber.StatusInternalServerError
	}

	entry := logger.Log.WithFields(logrus.Fields{
		"method": c.Method(),
		"path":   c.Path(),
		"kind":   appErr.Kind,
	})
	if status >= fiber.StatusInternalServerError {
		entry.WithError(err).Error("request failed")
	} else {
		entry.Debug(appErr.Message)
	}

	message := appErr.Message
	if appErr.Kind == apperror.KindInternal {
		message = "Something went wrong!"
		if exposeInternalErrors() && appErr.Err != nil {
			message = appErr.Err.Error()
		}
	}

	var data interface{}
	if len(appErr.Details) > 0 {
		data = appErr.Details
	}
	return JsonResponse(c, status, false, message, data)
}

// ErrorHandler is the fiber.Config ErrorHandler: unmatched routes, body limit breaches
// and recovered panics all leave through the same envelope.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		message := fiberErr.Message
		if fiberErr.Code == fiber.StatusNotFound {
			message = "Route not found"
		}
		return JsonResponse(c, fiberErr.Code, false, message, nil)
	}
	return ErrorResponse(c, err)
}

func exposeInternalErrors() bool {
	return config.AppConfig != nil && !config.AppConfig.IsProduction()
}
