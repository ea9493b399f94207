package courseValidator

import (
	"coursehub/middleware"
	"coursehub/services"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const MetadataField = "contentMetadata"

// CourseID parses the :id route parameter into Locals("courseID").
func CourseID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid course ID!", nil)
		}
		c.Locals("courseID", id)
		return c.Next()
	}
}

// CreateCourse parses the multipart course form. Presence rules are enforced by the course service
// so they hold for every caller; this only rejects values that cannot be parsed.
func CreateCourse() fiber.Handler {
	return parseCourseForm
}

// UpdateCourse parses the same form as CreateCourse; every field is optional.
func UpdateCourse() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid course ID!", nil)
		}
		c.Locals("courseID", id)
		return parseCourseForm(c)
	}
}

func parseCourseForm(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Request must be multipart/form-data!", nil)
	}

	input := services.CourseInput{
		Title:       optional(form.Value, "title"),
		Description: optional(form.Value, "description"),
		Content:     form.File["content"],
		Metadata:    form.Value[MetadataField],
	}
	if images := form.File["image"]; len(images) > 0 {
		input.Image = images[0]
	}

	errors := make(map[string]string)
	if raw := optional(form.Value, "price"); raw != nil && strings.TrimSpace(*raw) != "" {
		price, err := strconv.ParseInt(strings.TrimSpace(*raw), 10, 64)
		if err != nil {
			errors["price"] = "Price must be a whole number in the smallest currency unit!"
		} else {
			input.Price = &price
		}
	}
	if len(form.File["image"]) > 1 {
		errors["image"] = "Only one cover image is allowed!"
	}

	if len(errors) > 0 {
		return middleware.ValidationErrorResponse(c, errors)
	}

	c.Locals("courseInput", &input)
	return c.Next()
}

func optional(values map[string][]string, key string) *string {
	v, ok := values[key]
	if !ok || len(v) == 0 {
		return nil
	}
	return &v[0]
}
