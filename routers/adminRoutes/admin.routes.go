package adminRoutes

import (
	authControllers "coursehub/controllers/auth"
	controllers "coursehub/controllers/course"
	"coursehub/middleware"
	"coursehub/routers/authRoutes"
	validators "coursehub/validators/course"

	"github.com/gofiber/fiber/v2"
)

// SetupAdminRoutes sets up admin authentication and the admin dashboard routes
func SetupAdminRoutes(api fiber.Router, auth *authControllers.AuthController, courses *controllers.CourseController, admin *middleware.Guard, limiter fiber.Handler) {
	adminGroup := api.Group("/admin")
	authRoutes.SetupAuthRoutes(adminGroup, auth, limiter)

	adminGroup.Get("/courses", admin.With(courses.AdminCourses)...)
	adminGroup.Get("/course/:id/content", admin.With(validators.CourseID(), courses.AdminContent)...)
}
