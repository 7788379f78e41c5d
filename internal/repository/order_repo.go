package repository

import (
	"time"

	"coursecms/internal/domain"
	"coursecms/internal/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) Create(o *models.Order) error {
	return r.db.Create(o).Error
}

func (r *OrderRepository) GetByID(id uint) (*models.Order, error) {
	var o models.Order
	err := r.db.First(&o, id).Error
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *OrderRepository) GetByGatewayOrderID(gatewayOrderID string) (*models.Order, error) {
	var o models.Order
	err := r.db.Where("gateway_order_id = ?", gatewayOrderID).First(&o).Error
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *OrderRepository) UpdateDetails(id uint, details datatypes.JSON) error {
	return r.db.Model(&models.Order{}).Where("id = ?", id).Update("settlement_details", details).Error
}

// Finalize moves a PENDING order to status. It returns the number of rows
// changed, which is zero when another delivery already finalized the order.
func (r *OrderRepository) Finalize(id uint, status string, txnID *string, details datatypes.JSON, at time.Time) (int64, error) {
	res := r.db.Model(&models.Order{}).
		Where("id = ? AND status = ?", id, domain.OrderPending).
		Updates(map[string]interface{}{
			"status":             status,
			"gateway_txn_id":     txnID,
			"settlement_details": details,
			"finalized_at":       at,
		})
	return res.RowsAffected, res.Error
}

// ListByUser returns the user's orders newest first with the course loaded.
func (r *OrderRepository) ListByUser(userID uint) ([]models.Order, error) {
	var list []models.Order
	err := r.db.Preload("Course").Where("user_id = ?", userID).Order("created_at DESC").Order("id DESC").Find(&list).Error
	return list, err
}

// ListSuccessWithoutEnrollment finds settled orders whose enrollment row is missing.
func (r *OrderRepository) ListSuccessWithoutEnrollment(limit int) ([]models.Order, error) {
	var list []models.Order
	err := r.db.Model(&models.Order{}).
		Where("orders.status = ?", domain.OrderSuccess).
		Where("NOT EXISTS (SELECT 1 FROM enrollments e WHERE e.order_id = orders.id)").
		Order("orders.id ASC").
		Limit(limit).
		Find(&list).Error
	return list, err
}

func (r *OrderRepository) CountByCourse(courseID uint) (int64, error) {
	var n int64
	err := r.db.Model(&models.Order{}).Where("course_id = ?", courseID).Count(&n).Error
	return n, err
}
