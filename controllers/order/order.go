package orderController

import (
	"coursehub/apperror"
	"coursehub/logger"
	"coursehub/middleware"
	"coursehub/services"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type OrderController struct {
	purchases *services.PurchaseService
}

func NewOrderController(purchases *services.PurchaseService) *OrderController {
	return &OrderController{purchases: purchases}
}

// Confirm records the purchase for the learner's settled order.
func (h *OrderController) Confirm(c *fiber.Ctx) error {
	userID, _ := middleware.CurrentUserID(c)

	purchase, err := h.purchases.Confirm(c.UserContext(), userID, c.Locals("orderID").(string))
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Purchase completed", purchase)
}

// Notification handles processor callbacks. Outcomes the processor cannot fix by retrying
// are acknowledged with 200 so it stops redelivering.
func (h *OrderController) Notification(c *fiber.Ctx) error {
	orderID := c.Locals("orderID").(string)

	purchase, err := h.purchases.HandleNotification(c.UserContext(), orderID)
	if err != nil {
		switch {
		case errors.Is(err, apperror.ErrNotFound),
			errors.Is(err, apperror.ErrDuplicatePurchase),
			errors.Is(err, apperror.ErrConflict),
			errors.Is(err, services.ErrPaymentPending):
			logger.Log.WithFields(logrus.Fields{"orderId": orderID, "kind": apperror.KindOf(err)}).WithError(err).Info("notification acknowledged without purchase")
			return middleware.JsonResponse(c, fiber.StatusOK, true, "Notification received", nil)
		}
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Notification processed", purchase)
}

// Purchases lists the learner's purchased courses.
func (h *OrderController) Purchases(c *fiber.Ctx) error {
	userID, _ := middleware.CurrentUserID(c)

	courses, err := h.purchases.Purchases(c.UserContext(), userID)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Purchases fetched successfully", courses)
}
