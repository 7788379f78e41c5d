package handler

import (
	"net/http"

	"coursecms/internal/middleware"
	"coursecms/internal/service"

	"github.com/gin-gonic/gin"
)

type CourseHandler struct {
	catalog *service.CatalogService
}

func NewCourseHandler(catalog *service.CatalogService) *CourseHandler {
	return &CourseHandler{catalog: catalog}
}

func principalFrom(c *gin.Context) *service.Principal {
	id := middleware.GetUserID(c)
	if id == 0 {
		return nil
	}
	return &service.Principal{UserID: id, Role: middleware.GetRole(c)}
}

// List handles GET /courses.
func (h *CourseHandler) List(c *gin.Context) {
	list, err := h.catalog.ListCourses(c.Query("category"))
	if err != nil {
		respondError(c, err, "failed to list courses")
		return
	}
	c.JSON(http.StatusOK, gin.H{"courses": list})
}

// Get handles GET /courses/:id. Lessons are included only for enrolled
// students and admins.
func (h *CourseHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	detail, err := h.catalog.GetCourse(principalFrom(c), id)
	if err != nil {
		respondError(c, err, "failed to load course")
		return
	}
	c.JSON(http.StatusOK, detail)
}
