package payment

import (
	"context"

	"github.com/google/uuid"
)

// StubGateway accepts every order without any network call. Err, when set,
// is returned from CreateOrder instead.
type StubGateway struct {
	Err error
}

func (s *StubGateway) Name() string { return "stub" }

func (s *StubGateway) CreateOrder(ctx context.Context, req OrderRequest) (*OrderResponse, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &OrderResponse{
		ProviderOrderID: "stub_order_" + uuid.NewString()[:8],
		Status:          "created",
		AmountMinor:     ToMinorUnits(req.Amount),
	}, nil
}
