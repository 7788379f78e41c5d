package models

import (
	"time"

	"coursecms/internal/domain"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Order is one purchase attempt. GatewayOrderID joins the outbound checkout
// request with the inbound settlement callback.
type Order struct {
	ID                uint            `gorm:"primaryKey" json:"id"`
	UserID            uint            `gorm:"not null;index" json:"user_id"`
	CourseID          uint            `gorm:"not null;index" json:"course_id"`
	Amount            decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"amount"`
	Currency          string          `gorm:"size:3;not null;default:'INR'" json:"currency"`
	GatewayOrderID    string          `gorm:"size:100;not null;uniqueIndex" json:"gateway_order_id"`
	GatewayTxnID      *string         `gorm:"size:100" json:"gateway_txn_id"`
	Status            string          `gorm:"size:20;not null;index" json:"status"`
	SettlementDetails datatypes.JSON  `json:"settlement_details,omitempty"`
	FinalizedAt       *time.Time      `json:"finalized_at"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`

	User   User   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Course Course `gorm:"foreignKey:CourseID;constraint:OnDelete:RESTRICT" json:"-"`
}

func (Order) TableName() string {
	return "orders"
}

func (o *Order) IsFinal() bool {
	return o.Status == domain.OrderSuccess || o.Status == domain.OrderFailed
}
