package models

import (
	"time"

	"gorm.io/datatypes"
)

type AuditLog struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     *uint     `gorm:"index" json:"user_id"`
	Action     string    `gorm:"size:100;not null;index" json:"action"`
	Resource   string    `gorm:"size:100;index" json:"resource"`
	ResourceID string    `gorm:"size:100;index" json:"resource_id"`
	IP         string    `gorm:"size:45" json:"ip"`
	UserAgent  string    `gorm:"size:512" json:"user_agent"`
	Metadata   string    `gorm:"type:text" json:"metadata"`
	CreatedAt  time.Time `json:"created_at"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}

// GatewayEvent journals one inbound settlement callback, valid or not.
type GatewayEvent struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	Provider       string         `gorm:"size:50;not null" json:"provider"`
	GatewayOrderID string         `gorm:"size:100;index" json:"gateway_order_id"`
	GatewayTxnID   string         `gorm:"size:100" json:"gateway_txn_id"`
	OrderID        *uint          `gorm:"index" json:"order_id"`
	Payload        datatypes.JSON `json:"payload"`
	Checksum       string         `gorm:"size:255" json:"checksum"`
	Status         string         `gorm:"size:20;not null;index" json:"status"`
	Error          string         `gorm:"type:text" json:"error,omitempty"`
	IP             string         `gorm:"size:45" json:"ip"`
	ReceivedAt     time.Time      `gorm:"not null" json:"received_at"`
	ProcessedAt    *time.Time     `json:"processed_at"`
}

func (GatewayEvent) TableName() string {
	return "payment_gateway_events"
}
