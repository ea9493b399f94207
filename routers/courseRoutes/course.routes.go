package courseRoutes

import (
	controllers "coursehub/controllers/course"
	"coursehub/middleware"
	validators "coursehub/validators/course"

	"github.com/gofiber/fiber/v2"
)

// SetupCourseRoutes sets up catalog browsing, admin course management and buying
func SetupCourseRoutes(api fiber.Router, h *controllers.CourseController, admin, user *middleware.Guard) {
	courseGroup := api.Group("/course")

	// Admin course management
	courseGroup.Post("/create", admin.With(validators.CreateCourse(), h.Create)...)
	courseGroup.Put("/update/:id", admin.With(validators.UpdateCourse(), h.Update)...)
	courseGroup.Delete("/delete/:id", admin.With(validators.CourseID(), h.Delete)...)

	// Catalog
	courseGroup.Get("/courses", h.List)
	courseGroup.Get("/:id", validators.CourseID(), h.Details)

	// Learner
	courseGroup.Post("/buy/:id", user.With(validators.CourseID(), h.Buy)...)
	courseGroup.Get("/:id/content", user.With(validators.CourseID(), h.Content)...)
}
