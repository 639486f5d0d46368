package gateway_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/vidaplan/paycode/internal/domain"
	"github.com/vidaplan/paycode/internal/gateway"
)

func TestRegisterPayment(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/payments", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{
			"status":             "pending",
			"external_reference": got["external_reference"],
			"amount":             got["transaction_amount"],
		})
	}))
	defer srv.Close()

	client := gateway.NewClient(srv.URL, "test-key")
	resp, err := client.RegisterPayment(context.Background(), gateway.RegisterRequest{
		TransactionAmount: decimal.RequireFromString("150.00"),
		Description:       "Mensalidade",
		PaymentMethodID:   "pix",
		ExternalReference: "pay-1",
		Payer:             gateway.Payer{Email: "maria@example.com", FirstName: "Maria"},
	})
	require.NoError(t, err)
	require.Equal(t, "pending", resp.Status)
	require.Equal(t, "pay-1", resp.ExternalReference)
	require.Equal(t, "pay-1", got["external_reference"])
	require.Equal(t, "pix", got["payment_method_id"])
}

func TestRegisterPaymentServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	}))
	defer srv.Close()

	client := gateway.NewClient(srv.URL, "test-key")
	_, err := client.RegisterPayment(context.Background(), gateway.RegisterRequest{})

	var httpErr *gateway.HTTPError
	require.ErrorAs(t, err, &httpErr)
	require.Equal(t, http.StatusBadGateway, httpErr.StatusCode)
	require.True(t, httpErr.Transient())
}

func TestPaymentStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/payments/pay-9", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]string{"status": "approved"})
	}))
	defer srv.Close()

	client := gateway.NewClient(srv.URL, "test-key")
	status, err := client.PaymentStatus(context.Background(), "pay-9")
	require.NoError(t, err)
	require.Equal(t, domain.StatusCompleted, status)
}

func TestMapVendorStatus(t *testing.T) {
	tests := []struct {
		vendor string
		want   domain.PaymentStatus
	}{
		{"approved", domain.StatusCompleted},
		{"pending", domain.StatusPending},
		{"rejected", domain.StatusFailed},
		{"cancelled", domain.StatusFailed},
		{"refunded", domain.StatusRefunded},
		{"in_mediation", domain.StatusPending},
		{"", domain.StatusPending},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, gateway.MapVendorStatus(tt.vendor), "vendor status %q", tt.vendor)
	}
}

func TestHTTPErrorTransience(t *testing.T) {
	require.True(t, (&gateway.HTTPError{StatusCode: 500}).Transient())
	require.True(t, (&gateway.HTTPError{StatusCode: 503}).Transient())
	require.True(t, (&gateway.HTTPError{StatusCode: 429}).Transient())
	require.False(t, (&gateway.HTTPError{StatusCode: 400}).Transient())
	require.False(t, (&gateway.HTTPError{StatusCode: 404}).Transient())
}
