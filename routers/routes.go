// Package routers mounts every API area under /api/v1.
package routers

import (
	authControllers "coursehub/controllers/auth"
	courseControllers "coursehub/controllers/course"
	orderControllers "coursehub/controllers/order"
	"coursehub/middleware"
	"coursehub/routers/adminRoutes"
	"coursehub/routers/courseRoutes"
	"coursehub/routers/orderRoutes"
	"coursehub/routers/userRoutes"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	AdminAuth *authControllers.AuthController
	UserAuth  *authControllers.AuthController
	Courses   *courseControllers.CourseController
	Orders    *orderControllers.OrderController

	AdminGuard  *middleware.Guard
	UserGuard   *middleware.Guard
	AuthLimiter fiber.Handler
}

func Setup(app *fiber.App, h Handlers) {
	api := app.Group("/api/v1")

	adminRoutes.SetupAdminRoutes(api, h.AdminAuth, h.Courses, h.AdminGuard, h.AuthLimiter)
	userRoutes.SetupUserRoutes(api, h.UserAuth, h.Orders, h.UserGuard, h.AuthLimiter)
	courseRoutes.SetupCourseRoutes(api, h.Courses, h.AdminGuard, h.UserGuard)
	orderRoutes.SetupOrderRoutes(api, h.Orders, h.UserGuard)
}
