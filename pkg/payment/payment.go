package payment

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// ErrGatewayRejected is returned when the provider answers but refuses the order.
var ErrGatewayRejected = errors.New("payment gateway rejected the order")

type OrderRequest struct {
	Receipt  string // our gateway order id
	Amount   decimal.Decimal
	Currency string
	Notes    map[string]string
}

type OrderResponse struct {
	ProviderOrderID string
	Status          string
	AmountMinor     int64 // amount in the currency's minor unit as echoed by the provider
}

// Gateway registers orders with a payment provider before checkout.
type Gateway interface {
	Name() string
	CreateOrder(ctx context.Context, req OrderRequest) (*OrderResponse, error)
}

// ToMinorUnits converts a two-decimal amount to paise or cents.
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}
