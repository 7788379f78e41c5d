package handler

import (
	"net/http"
	"time"

	"coursecms/internal/middleware"
	"coursecms/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type OrderHandler struct {
	enrollments *service.EnrollmentService
	progress    *service.ProgressService
}

func NewOrderHandler(enrollments *service.EnrollmentService, progress *service.ProgressService) *OrderHandler {
	return &OrderHandler{enrollments: enrollments, progress: progress}
}

type PayRequest struct {
	CourseID uint            `json:"course_id" binding:"required"`
	Amount   decimal.Decimal `json:"amount" binding:"required,money"`
}

type ProgressRequest struct {
	LessonID uint `json:"lesson_id" binding:"required"`
	CourseID uint `json:"course_id" binding:"required"`
}

type OrderView struct {
	ID             uint            `json:"id"`
	GatewayOrderID string          `json:"gateway_order_id"`
	CourseID       uint            `json:"course_id"`
	CourseTitle    string          `json:"course_title"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
	Status         string          `json:"status"`
	CreatedAt      time.Time       `json:"created_at"`
	FinalizedAt    *time.Time      `json:"finalized_at"`
}

// Pay handles POST /orders/pay.
func (h *OrderHandler) Pay(c *gin.Context) {
	var req PayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	checkout, err := h.enrollments.Initiate(c.Request.Context(), middleware.GetUserID(c), req.CourseID, req.Amount)
	if err != nil {
		respondError(c, err, "could not start payment")
		return
	}
	c.JSON(http.StatusCreated, checkout)
}

// List handles GET /orders.
func (h *OrderHandler) List(c *gin.Context) {
	orders, err := h.enrollments.ListOrders(middleware.GetUserID(c))
	if err != nil {
		respondError(c, err, "failed to list orders")
		return
	}
	out := make([]OrderView, 0, len(orders))
	for _, o := range orders {
		out = append(out, OrderView{
			ID:             o.ID,
			GatewayOrderID: o.GatewayOrderID,
			CourseID:       o.CourseID,
			CourseTitle:    o.Course.Title,
			Amount:         o.Amount,
			Currency:       o.Currency,
			Status:         o.Status,
			CreatedAt:      o.CreatedAt,
			FinalizedAt:    o.FinalizedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"orders": out})
}

// Progress handles POST /orders/progress. The first completion answers 201,
// a repeat answers 200 with already_completed set.
func (h *OrderHandler) Progress(c *gin.Context) {
	var req ProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	res, err := h.progress.MarkCompleted(c.Request.Context(), middleware.GetUserID(c), req.LessonID, req.CourseID)
	if err != nil {
		respondError(c, err, "could not record progress")
		return
	}
	status := http.StatusCreated
	if res.AlreadyCompleted {
		status = http.StatusOK
	}
	c.JSON(status, res)
}

// Enrollments handles GET /me/enrollments.
func (h *OrderHandler) Enrollments(c *gin.Context) {
	list, err := h.progress.ListEnrollments(middleware.GetUserID(c))
	if err != nil {
		respondError(c, err, "failed to list enrollments")
		return
	}
	c.JSON(http.StatusOK, gin.H{"enrollments": list})
}
