package handler

import (
	"net/http"
	"strconv"

	"coursecms/internal/repository"
	"coursecms/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

const maxImageSize = 5 << 20

type AdminHandler struct {
	adminRepo  *repository.AdminRepository
	authSvc    *service.AuthService
	catalog    *service.CatalogService
	reconciler *service.Reconciler
}

func NewAdminHandler(
	adminRepo *repository.AdminRepository,
	authSvc *service.AuthService,
	catalog *service.CatalogService,
	reconciler *service.Reconciler,
) *AdminHandler {
	return &AdminHandler{
		adminRepo:  adminRepo,
		authSvc:    authSvc,
		catalog:    catalog,
		reconciler: reconciler,
	}
}

type CourseRequest struct {
	Title       string          `json:"title" binding:"required,max=255"`
	Description string          `json:"description" binding:"required"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category" binding:"max=100"`
	ImageURL    string          `json:"image_url" binding:"omitempty,url"`
}

type LessonRequest struct {
	Title       string `json:"title" binding:"required,max=255"`
	VideoURL    string `json:"video_url" binding:"required,url"`
	Notes       string `json:"notes"`
	OrderNumber int    `json:"order_number" binding:"required,min=1"`
}

type StudentRequest struct {
	Name     string `json:"name" binding:"required,max=120"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

// Dashboard handles GET /admin/dashboard: overview stats.
func (h *AdminHandler) Dashboard(c *gin.Context) {
	stats, err := h.adminRepo.GetDashboardStats()
	if err != nil {
		respondError(c, err, "failed to load stats")
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Payments handles GET /admin/payments.
func (h *AdminHandler) Payments(c *gin.Context) {
	page, limit := parsePagination(c)
	list, total, err := h.adminRepo.ListPayments(c.Query("status"), page, limit)
	if err != nil {
		respondError(c, err, "failed to list payments")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list, "total": total, "page": page, "limit": limit})
}

// Revenue handles GET /admin/revenue?days=30.
func (h *AdminHandler) Revenue(c *gin.Context) {
	days, _ := strconv.Atoi(c.DefaultQuery("days", "30"))
	if days < 1 || days > 365 {
		days = 30
	}
	points, err := h.adminRepo.RevenueByDay(days)
	if err != nil {
		respondError(c, err, "failed to load revenue")
		return
	}
	c.JSON(http.StatusOK, gin.H{"days": days, "points": points})
}

// Reconcile handles POST /admin/reconcile: one repair pass on demand.
func (h *AdminHandler) Reconcile(c *gin.Context) {
	report, err := h.reconciler.RunOnce(c.Request.Context())
	if err != nil {
		respondError(c, err, "reconcile failed")
		return
	}
	c.JSON(http.StatusOK, report)
}

// ListStudents handles GET /admin/students.
func (h *AdminHandler) ListStudents(c *gin.Context) {
	page, limit := parsePagination(c)
	users, total, err := h.authSvc.ListStudents(c.Query("search"), page, limit)
	if err != nil {
		respondError(c, err, "failed to list students")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": users, "total": total, "page": page, "limit": limit})
}

// CreateStudent handles POST /admin/students.
func (h *AdminHandler) CreateStudent(c *gin.Context) {
	var req StudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	u, err := h.authSvc.CreateStudent(req.Name, req.Email, req.Password)
	if err != nil {
		respondError(c, err, "failed to create student")
		return
	}
	c.JSON(http.StatusCreated, u)
}

// UpdateStudent handles PUT /admin/students/:id.
func (h *AdminHandler) UpdateStudent(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	u, err := h.authSvc.UpdateStudent(id, req.Name, req.Email)
	if err != nil {
		respondError(c, err, "failed to update student")
		return
	}
	c.JSON(http.StatusOK, u)
}

// ListCourses handles GET /admin/courses.
func (h *AdminHandler) ListCourses(c *gin.Context) {
	list, err := h.catalog.ListCourses(c.Query("category"))
	if err != nil {
		respondError(c, err, "failed to list courses")
		return
	}
	c.JSON(http.StatusOK, gin.H{"courses": list})
}

func (r CourseRequest) input() service.CourseInput {
	return service.CourseInput{
		Title:       r.Title,
		Description: r.Description,
		Price:       r.Price,
		Category:    r.Category,
		ImageURL:    r.ImageURL,
	}
}

// CreateCourse handles POST /admin/courses.
func (h *AdminHandler) CreateCourse(c *gin.Context) {
	var req CourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	course, err := h.catalog.CreateCourse(req.input())
	if err != nil {
		respondError(c, err, "failed to create course")
		return
	}
	c.JSON(http.StatusCreated, course)
}

// UpdateCourse handles PUT /admin/courses/:id.
func (h *AdminHandler) UpdateCourse(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req CourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	course, err := h.catalog.UpdateCourse(id, req.input())
	if err != nil {
		respondError(c, err, "failed to update course")
		return
	}
	c.JSON(http.StatusOK, course)
}

// DeleteCourse handles DELETE /admin/courses/:id.
func (h *AdminHandler) DeleteCourse(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.catalog.DeleteCourse(id); err != nil {
		respondError(c, err, "failed to delete course")
		return
	}
	c.Status(http.StatusNoContent)
}

// UploadCourseImage handles POST /admin/courses/:id/image (multipart "file").
func (h *AdminHandler) UploadCourseImage(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file required"})
		return
	}
	if file.Size > maxImageSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image larger than 5MB"})
		return
	}
	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read file"})
		return
	}
	defer f.Close()
	course, err := h.catalog.SetCourseImage(c.Request.Context(), id, f)
	if err != nil {
		respondError(c, err, "upload failed")
		return
	}
	c.JSON(http.StatusOK, course)
}

// ListLessons handles GET /admin/courses/:id/lessons.
func (h *AdminHandler) ListLessons(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	lessons, err := h.catalog.ListLessons(id)
	if err != nil {
		respondError(c, err, "failed to list lessons")
		return
	}
	c.JSON(http.StatusOK, gin.H{"lessons": lessons})
}

func (r LessonRequest) input() service.LessonInput {
	return service.LessonInput{
		Title:       r.Title,
		VideoURL:    r.VideoURL,
		Notes:       r.Notes,
		OrderNumber: r.OrderNumber,
	}
}

// CreateLesson handles POST /admin/courses/:id/lessons.
func (h *AdminHandler) CreateLesson(c *gin.Context) {
	courseID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req LessonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	lesson, err := h.catalog.CreateLesson(courseID, req.input())
	if err != nil {
		respondError(c, err, "failed to create lesson")
		return
	}
	c.JSON(http.StatusCreated, lesson)
}

// UpdateLesson handles PUT /admin/lessons/:id.
func (h *AdminHandler) UpdateLesson(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req LessonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	lesson, err := h.catalog.UpdateLesson(id, req.input())
	if err != nil {
		respondError(c, err, "failed to update lesson")
		return
	}
	c.JSON(http.StatusOK, lesson)
}

// DeleteLesson handles DELETE /admin/lessons/:id.
func (h *AdminHandler) DeleteLesson(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.catalog.DeleteLesson(id); err != nil {
		respondError(c, err, "failed to delete lesson")
		return
	}
	c.Status(http.StatusNoContent)
}
