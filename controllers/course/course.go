package controllers

import (
	"coursehub/middleware"
	"coursehub/models"
	"coursehub/services"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type CourseController struct {
	courses   *services.CourseService
	purchases *services.PurchaseService
}

func NewCourseController(courses *services.CourseService, purchases *services.PurchaseService) *CourseController {
	return &CourseController{courses: courses, purchases: purchases}
}

func (h *CourseController) Create(c *fiber.Ctx) error {
	adminID, _ := middleware.CurrentUserID(c)
	input, ok := c.Locals("courseInput").(*services.CourseInput)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	course, err := h.courses.Create(c.UserContext(), adminID, *input)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Course created successfully", course)
}

func (h *CourseController) Update(c *fiber.Ctx) error {
	adminID, _ := middleware.CurrentUserID(c)
	courseID := c.Locals("courseID").(uuid.UUID)
	input, ok := c.Locals("courseInput").(*services.CourseInput)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	course, err := h.courses.Update(c.UserContext(), adminID, courseID, *input)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course updated successfully", course)
}

func (h *CourseController) Delete(c *fiber.Ctx) error {
	adminID, _ := middleware.CurrentUserID(c)
	courseID := c.Locals("courseID").(uuid.UUID)

	if err := h.courses.Delete(c.UserContext(), adminID, courseID); err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course deleted successfully", nil)
}

func (h *CourseController) List(c *fiber.Ctx) error {
	courses, err := h.courses.List(c.UserContext())
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Courses fetched successfully", courses)
}

func (h *CourseController) Details(c *fiber.Ctx) error {
	course, err := h.courses.Get(c.UserContext(), c.Locals("courseID").(uuid.UUID))
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course fetched successfully", course)
}

// Content serves the manifest with file URLs to a learner who bought the course.
func (h *CourseController) Content(c *fiber.Ctx) error {
	return h.content(c, models.RoleUser)
}

// AdminContent lets the owner preview the manifest with file URLs.
func (h *CourseController) AdminContent(c *fiber.Ctx) error {
	return h.content(c, models.RoleAdmin)
}

func (h *CourseController) content(c *fiber.Ctx, role string) error {
	principalID, _ := middleware.CurrentUserID(c)
	course, err := h.courses.Content(c.UserContext(), principalID, role, c.Locals("courseID").(uuid.UUID))
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course content fetched successfully", course)
}

// AdminCourses lists the calling admin's own courses.
func (h *CourseController) AdminCourses(c *fiber.Ctx) error {
	adminID, _ := middleware.CurrentUserID(c)
	courses, err := h.courses.ListOwn(c.UserContext(), adminID)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Courses fetched successfully", courses)
}

// Buy opens a payment intent and returns the secret the client completes payment with.
func (h *CourseController) Buy(c *fiber.Ctx) error {
	userID, _ := middleware.CurrentUserID(c)

	intent, err := h.purchases.Buy(c.UserContext(), userID, c.Locals("courseID").(uuid.UUID))
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Course purchase initiated", fiber.Map{
		"course":       intent.Course,
		"orderId":      intent.Order.ID,
		"clientSecret": intent.ClientSecret,
		"redirectUrl":  intent.RedirectURL,
	})
}
