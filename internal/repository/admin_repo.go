package repository

import (
	"time"

	"coursecms/internal/domain"
	"coursecms/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type DashboardStats struct {
	TotalStudents    int64            `json:"total_students"`
	TotalCourses     int64            `json:"total_courses"`
	TotalLessons     int64            `json:"total_lessons"`
	TotalEnrollments int64            `json:"total_enrollments"`
	TotalRevenue     decimal.Decimal  `json:"total_revenue"`
	OrdersByStatus   map[string]int64 `json:"orders_by_status"`
}

type RevenuePoint struct {
	Date   string          `json:"date"`
	Amount decimal.Decimal `json:"amount"`
}

// PaymentRow is one order as shown in the admin payments report.
type PaymentRow struct {
	ID             uint            `json:"id"`
	GatewayOrderID string          `json:"gateway_order_id"`
	GatewayTxnID   *string         `json:"gateway_txn_id"`
	Status         string          `json:"status"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
	UserID         uint            `json:"user_id"`
	UserName       string          `json:"user_name"`
	UserEmail      string          `json:"user_email"`
	CourseID       uint            `json:"course_id"`
	CourseTitle    string          `json:"course_title"`
	CreatedAt      time.Time       `json:"created_at"`
	FinalizedAt    *time.Time      `json:"finalized_at"`
}

type AdminRepository struct {
	db *gorm.DB
}

func NewAdminRepository(db *gorm.DB) *AdminRepository {
	return &AdminRepository{db: db}
}

func (r *AdminRepository) GetDashboardStats() (*DashboardStats, error) {
	s := DashboardStats{OrdersByStatus: map[string]int64{
		domain.OrderPending: 0,
		domain.OrderSuccess: 0,
		domain.OrderFailed:  0,
	}}
	if err := r.db.Model(&models.User{}).Where("role = ?", domain.RoleStudent).Count(&s.TotalStudents).Error; err != nil {
		return nil, err
	}
	if err := r.db.Model(&models.Course{}).Count(&s.TotalCourses).Error; err != nil {
		return nil, err
	}
	if err := r.db.Model(&models.Lesson{}).Count(&s.TotalLessons).Error; err != nil {
		return nil, err
	}
	if err := r.db.Model(&models.Enrollment{}).Count(&s.TotalEnrollments).Error; err != nil {
		return nil, err
	}

	var rev struct{ Total decimal.Decimal }
	err := r.db.Model(&models.Order{}).
		Select("COALESCE(SUM(amount), 0) as total").
		Where("status = ?", domain.OrderSuccess).
		Scan(&rev).Error
	if err != nil {
		return nil, err
	}
	s.TotalRevenue = rev.Total

	var counts []struct {
		Status string
		Count  int64
	}
	err = r.db.Model(&models.Order{}).Select("status, COUNT(*) as count").Group("status").Scan(&counts).Error
	if err != nil {
		return nil, err
	}
	for _, c := range counts {
		s.OrdersByStatus[c.Status] = c.Count
	}
	return &s, nil
}

// ListPayments returns orders with buyer and course, optionally filtered by status.
func (r *AdminRepository) ListPayments(status string, page, limit int) ([]PaymentRow, int64, error) {
	q := r.db.Model(&models.Order{})
	if status != "" {
		q = q.Where("orders.status = ?", status)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []PaymentRow
	err := q.Select("orders.id, orders.gateway_order_id, orders.gateway_txn_id, orders.status, orders.amount, orders.currency, " +
		"orders.user_id, users.name as user_name, users.email as user_email, " +
		"orders.course_id, courses.title as course_title, orders.created_at, orders.finalized_at").
		Joins("JOIN users ON users.id = orders.user_id").
		Joins("JOIN courses ON courses.id = orders.course_id").
		Order("orders.created_at DESC").Order("orders.id DESC").
		Limit(limit).Offset((page - 1) * limit).
		Scan(&rows).Error
	return rows, total, err
}

// RevenueByDay returns daily settled revenue for the last N days.
func (r *AdminRepository) RevenueByDay(days int) ([]RevenuePoint, error) {
	since := time.Now().AddDate(0, 0, -days)
	var points []RevenuePoint
	err := r.db.Model(&models.Order{}).
		Select("DATE(finalized_at) as date, COALESCE(SUM(amount), 0) as amount").
		Where("status = ? AND finalized_at >= ?", domain.OrderSuccess, since).
		Group("DATE(finalized_at)").
		Order("date ASC").
		Scan(&points).Error
	return points, err
}
