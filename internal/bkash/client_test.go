package bkash

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestServer stands in for the provider. It counts token grants so
// the caching behaviour can be asserted.
func newTestServer(t *testing.T, grants *int32, createStatus, executeStatus string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token/grant", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(grants, 1)
		assert.Equal(t, "user", r.Header.Get("username"))
		assert.Equal(t, "pass", r.Header.Get("password"))
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "app-key", body["app_key"])
		assert.Equal(t, "app-secret", body["app_secret"])
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id_token":   "tok-1",
			"token_type": "Bearer",
			"expires_in": 3600,
			"statusCode": StatusSuccess,
		})
	})
	mux.HandleFunc("/create", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "tok-1", r.Header.Get("Authorization"))
		assert.Equal(t, "app-key", r.Header.Get("X-APP-Key"))
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "sale", body["intent"])
		assert.Equal(t, "BDT", body["currency"])
		assert.Equal(t, "10.00", body["amount"])
		assert.Equal(t, "pay-uuid", body["merchantInvoiceNumber"])
		assert.Equal(t, "42", body["payerReference"])
		_ = json.NewEncoder(w).Encode(map[string]any{
			"paymentID":  "TR0011abc",
			"bkashURL":   "https://pay.example/TR0011abc",
			"statusCode": createStatus,
		})
	})
	mux.HandleFunc("/execute", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "TR0011abc", body["paymentID"])
		_ = json.NewEncoder(w).Encode(map[string]any{
			"paymentID":             "TR0011abc",
			"trxID":                 "TRX999",
			"transactionStatus":     "Completed",
			"amount":                "10.00",
			"currency":              "BDT",
			"merchantInvoiceNumber": "pay-uuid",
			"payerReference":        "42",
			"statusCode":            executeStatus,
		})
	})
	return httptest.NewServer(mux)
}

func testClient(url string) *Client {
	return NewClient(Config{
		BaseURL:   url,
		Username:  "user",
		Password:  "pass",
		AppKey:    "app-key",
		AppSecret: "app-secret",
		Timeout:   2 * time.Second,
	})
}

func TestCreateSession(t *testing.T) {
	var grants int32
	srv := newTestServer(t, &grants, StatusSuccess, StatusSuccess)
	defer srv.Close()

	c := testClient(srv.URL)
	out, err := c.CreateSession(context.Background(), CreateSessionRequest{
		Amount:                1000,
		CallbackURL:           "https://api.example/v1/payments/bkash/callback?ref=pay-uuid&turf=green-arena",
		MerchantInvoiceNumber: "pay-uuid",
		PayerReference:        "42",
	})
	require.NoError(t, err)
	assert.True(t, out.Success())
	assert.Equal(t, "TR0011abc", out.PaymentID)
	assert.Equal(t, "https://pay.example/TR0011abc", out.BkashURL)
	assert.NotEmpty(t, out.Raw)
}

func TestCreateSessionProviderRejection(t *testing.T) {
	var grants int32
	srv := newTestServer(t, &grants, "2023", StatusSuccess)
	defer srv.Close()

	out, err := testClient(srv.URL).CreateSession(context.Background(), CreateSessionRequest{
		Amount:                1000,
		MerchantInvoiceNumber: "pay-uuid",
		PayerReference:        "42",
	})
	require.NoError(t, err) // rejection is data, not a transport error
	assert.False(t, out.Success())
	assert.Equal(t, "2023", out.StatusCode)
}

func TestExecuteSession(t *testing.T) {
	var grants int32
	srv := newTestServer(t, &grants, StatusSuccess, StatusSuccess)
	defer srv.Close()

	out, err := testClient(srv.URL).ExecuteSession(context.Background(), "TR0011abc")
	require.NoError(t, err)
	assert.True(t, out.Success())
	assert.Equal(t, "TRX999", out.TrxID)
	assert.Equal(t, "pay-uuid", out.MerchantInvoiceNumber)
	assert.Equal(t, "42", out.PayerReference)

	settled, ok := out.SettledAmount()
	assert.True(t, ok)
	assert.Equal(t, int64(1000), settled)
}

func TestGrantTokenCached(t *testing.T) {
	var grants int32
	srv := newTestServer(t, &grants, StatusSuccess, StatusSuccess)
	defer srv.Close()

	c := testClient(srv.URL)
	ctx := context.Background()
	_, err := c.CreateSession(ctx, CreateSessionRequest{Amount: 1000, MerchantInvoiceNumber: "pay-uuid", PayerReference: "42"})
	require.NoError(t, err)
	_, err = c.ExecuteSession(ctx, "TR0011abc")
	require.NoError(t, err)

	// Two provider calls, one grant: the token was reused.
	assert.Equal(t, int32(1), atomic.LoadInt32(&grants))
}

func TestGrantTokenRefreshWhenStale(t *testing.T) {
	var grants int32
	srv := newTestServer(t, &grants, StatusSuccess, StatusSuccess)
	defer srv.Close()

	c := testClient(srv.URL)
	ctx := context.Background()
	_, err := c.ExecuteSession(ctx, "TR0011abc")
	require.NoError(t, err)

	// Force staleness; the next call must grant again.
	c.mu.Lock()
	c.tokenExp = time.Now().Add(-time.Second)
	c.mu.Unlock()

	_, err = c.ExecuteSession(ctx, "TR0011abc")
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&grants))
}

func TestGrantTokenHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).ExecuteSession(context.Background(), "TR0011abc")
	require.Error(t, err)
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "10.00", FormatAmount(1000))
	assert.Equal(t, "0.05", FormatAmount(5))
	assert.Equal(t, "1500.50", FormatAmount(150050))
	assert.Equal(t, "-1.25", FormatAmount(-125))
}
