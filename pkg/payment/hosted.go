package payment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// HostedGateway talks to a hosted order API (POST /v1/orders, basic auth).
type HostedGateway struct {
	client *resty.Client
}

func NewHostedGateway(baseURL, keyID, keySecret string, timeout time.Duration) *HostedGateway {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetBasicAuth(keyID, keySecret).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	return &HostedGateway{client: client}
}

func (g *HostedGateway) Name() string { return "hosted" }

type hostedOrderReq struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes,omitempty"`
}

type hostedOrderResp struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

type hostedErrorResp struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

func (g *HostedGateway) CreateOrder(ctx context.Context, req OrderRequest) (*OrderResponse, error) {
	body := hostedOrderReq{
		Amount:   ToMinorUnits(req.Amount),
		Currency: req.Currency,
		Receipt:  req.Receipt,
		Notes:    req.Notes,
	}
	var out hostedOrderResp
	var apiErr hostedErrorResp
	resp, err := g.client.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&out).
		SetError(&apiErr).
		Post("/v1/orders")
	if err != nil {
		return nil, fmt.Errorf("hosted order request: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: status %d %s %s", ErrGatewayRejected, resp.StatusCode(), apiErr.Error.Code, apiErr.Error.Description)
	}
	if out.ID == "" {
		return nil, fmt.Errorf("%w: response carried no order id", ErrGatewayRejected)
	}
	if out.Receipt != "" && out.Receipt != req.Receipt {
		return nil, fmt.Errorf("%w: receipt mismatch %q", ErrGatewayRejected, out.Receipt)
	}
	return &OrderResponse{
		ProviderOrderID: out.ID,
		Status:          out.Status,
		AmountMinor:     out.Amount,
	}, nil
}
