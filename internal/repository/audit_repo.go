package repository

import (
	"time"

	"coursecms/internal/models"

	"gorm.io/gorm"
)

type AuditLogRepository struct {
	db *gorm.DB
}

func NewAuditLogRepository(db *gorm.DB) *AuditLogRepository {
	return &AuditLogRepository{db: db}
}

func (r *AuditLogRepository) Create(log *models.AuditLog) error {
	return r.db.Create(log).Error
}

func (r *AuditLogRepository) ListByAction(action string, limit int) ([]models.AuditLog, error) {
	var list []models.AuditLog
	err := r.db.Where("action = ?", action).Order("id DESC").Limit(limit).Find(&list).Error
	return list, err
}

type GatewayEventRepository struct {
	db *gorm.DB
}

func NewGatewayEventRepository(db *gorm.DB) *GatewayEventRepository {
	return &GatewayEventRepository{db: db}
}

func (r *GatewayEventRepository) Create(e *models.GatewayEvent) error {
	return r.db.Create(e).Error
}

// MarkHandled records the outcome of processing a journaled callback.
func (r *GatewayEventRepository) MarkHandled(id uint, status string, orderID *uint, errText string) error {
	return r.db.Model(&models.GatewayEvent{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":       status,
		"order_id":     orderID,
		"error":        errText,
		"processed_at": time.Now(),
	}).Error
}

func (r *GatewayEventRepository) ListByGatewayOrderID(gatewayOrderID string) ([]models.GatewayEvent, error) {
	var list []models.GatewayEvent
	err := r.db.Where("gateway_order_id = ?", gatewayOrderID).Order("id ASC").Find(&list).Error
	return list, err
}
