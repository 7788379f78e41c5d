package payment

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHostedGatewayCreateOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/orders", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "key_id", user)
		assert.Equal(t, "key_secret", pass)

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.EqualValues(t, 4999, body["amount"])
		assert.Equal(t, "INR", body["currency"])
		assert.Equal(t, "CMS_ORDER_1_42_x", body["receipt"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"order_abc","amount":4999,"currency":"INR","receipt":"CMS_ORDER_1_42_x","status":"created"}`))
	}))
	defer srv.Close()

	g := NewHostedGateway(srv.URL, "key_id", "key_secret", 5*time.Second)
	resp, err := g.CreateOrder(context.Background(), OrderRequest{
		Receipt:  "CMS_ORDER_1_42_x",
		Amount:   decimal.RequireFromString("49.99"),
		Currency: "INR",
	})
	require.NoError(t, err)
	assert.Equal(t, "order_abc", resp.ProviderOrderID)
	assert.Equal(t, int64(4999), resp.AmountMinor)
	assert.Equal(t, "hosted", g.Name())
}

func TestHostedGatewayRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":"BAD_REQUEST_ERROR","description":"amount too small"}}`))
	}))
	defer srv.Close()

	g := NewHostedGateway(srv.URL, "k", "s", time.Second)
	_, err := g.CreateOrder(context.Background(), OrderRequest{Receipt: "r", Amount: decimal.NewFromInt(1), Currency: "INR"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrGatewayRejected))
	assert.Contains(t, err.Error(), "amount too small")
}

func TestStubGateway(t *testing.T) {
	g := &StubGateway{}
	resp, err := g.CreateOrder(context.Background(), OrderRequest{Receipt: "r", Amount: decimal.NewFromInt(10)})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.ProviderOrderID)
	assert.Equal(t, int64(1000), resp.AmountMinor)

	boom := errors.New("down")
	_, err = (&StubGateway{Err: boom}).CreateOrder(context.Background(), OrderRequest{})
	assert.ErrorIs(t, err, boom)
}
