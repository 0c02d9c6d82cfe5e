// Package bkash implements the tokenized-checkout flow of the bKash
// mobile-money provider: grant token, create payment session, execute
// payment. The rest of the application treats this package as an
// opaque gateway behind the two-operation contract CreateSession /
// ExecuteSession; everything provider-specific (status sentinels,
// field names, the grant-token dance) stays here.
package bkash

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// StatusSuccess is the provider's success sentinel. Any other status
// code from create or execute is a hard failure; in particular a
// successful create only yields a redirect URL and must never be
// treated as settlement.
const StatusSuccess = "0000"

// Config carries the merchant credentials and endpoint of the
// provider's sandbox or production environment.
type Config struct {
	BaseURL   string        // e.g. https://tokenized.sandbox.bka.sh/v1.2.0-beta/tokenized/checkout
	Username  string        // checkout URL username header
	Password  string        // checkout URL password header
	AppKey    string        // merchant app key
	AppSecret string        // merchant app secret
	Timeout   time.Duration // per-request timeout (default 15s)
}

// Client talks to the provider over HTTP. The grant token is a
// time-boxed cached credential: it is refreshed under a mutex only
// when stale, so concurrent callers never stampede the grant endpoint
// and never use an expired token.
type Client struct {
	cfg  Config
	http *http.Client

	mu       sync.Mutex
	token    string
	tokenExp time.Time
}

// NewClient constructs a Client from the given config.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{cfg: cfg, http: &http.Client{Timeout: timeout}}
}

// tokenGrantResponse mirrors the provider's token grant payload.
type tokenGrantResponse struct {
	IDToken       string `json:"id_token"`
	TokenType     string `json:"token_type"`
	ExpiresIn     int64  `json:"expires_in"`
	StatusCode    string `json:"statusCode"`
	StatusMessage string `json:"statusMessage"`
}

// grantToken returns a valid cached token or fetches a fresh one.
// A one minute safety margin is subtracted from the advertised expiry
// so a token is never used at the edge of its lifetime.
func (c *Client) grantToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" && time.Now().Before(c.tokenExp) {
		return c.token, nil
	}

	body, err := json.Marshal(map[string]string{
		"app_key":    c.cfg.AppKey,
		"app_secret": c.cfg.AppSecret,
	})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/token/grant", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("username", c.cfg.Username)
	req.Header.Set("password", c.cfg.Password)

	var grant tokenGrantResponse
	if _, err := c.do(req, &grant); err != nil {
		return "", fmt.Errorf("bkash token grant: %w", err)
	}
	if grant.IDToken == "" {
		return "", fmt.Errorf("bkash token grant: empty token (status %s %s)", grant.StatusCode, grant.StatusMessage)
	}

	ttl := time.Duration(grant.ExpiresIn) * time.Second
	if ttl <= time.Minute {
		ttl = time.Hour // provider default lifetime
	}
	c.token = grant.IDToken
	c.tokenExp = time.Now().Add(ttl - time.Minute)
	return c.token, nil
}

// CreateSessionRequest is the input to payment session creation. The
// merchant invoice number is the internal payment correlation token;
// the payer reference carries the booking ID, which the provider
// echoes back verbatim on execute.
type CreateSessionRequest struct {
	Amount                int64  // amount due in minor units
	CallbackURL           string // where the provider redirects the payer's browser
	MerchantInvoiceNumber string // payments.public_id
	PayerReference        string // booking ID as a string
}

// CreateSessionResponse mirrors the provider's create payload.
type CreateSessionResponse struct {
	PaymentID     string `json:"paymentID"`
	BkashURL      string `json:"bkashURL"`
	StatusCode    string `json:"statusCode"`
	StatusMessage string `json:"statusMessage"`
	Raw           []byte `json:"-"`
}

// Success reports whether the provider accepted the session.
func (r *CreateSessionResponse) Success() bool { return r.StatusCode == StatusSuccess }

// CreateSession obtains a grant token and creates a payment session.
// On success the response carries the redirect URL to hand to the
// payer's browser. A non-success status code is returned to the caller
// inside the response, not as an error, so handlers can distinguish
// transport failure from provider rejection.
func (c *Client) CreateSession(ctx context.Context, in CreateSessionRequest) (*CreateSessionResponse, error) {
	token, err := c.grantToken(ctx)
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(map[string]string{
		"mode":                  "0011", // tokenized checkout
		"payerReference":        in.PayerReference,
		"callbackURL":           in.CallbackURL,
		"amount":                FormatAmount(in.Amount),
		"currency":              "BDT",
		"intent":                "sale",
		"merchantInvoiceNumber": in.MerchantInvoiceNumber,
	})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/create", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	c.authHeaders(req, token)

	var out CreateSessionResponse
	raw, err := c.do(req, &out)
	if err != nil {
		return nil, fmt.Errorf("bkash create: %w", err)
	}
	out.Raw = raw
	return &out, nil
}

// ExecuteSessionResponse mirrors the provider's execute payload. The
// merchant invoice number and payer reference are the correlation
// values set at session creation, echoed back by the provider.
type ExecuteSessionResponse struct {
	PaymentID             string `json:"paymentID"`
	TrxID                 string `json:"trxID"`
	TransactionStatus     string `json:"transactionStatus"`
	Amount                string `json:"amount"`
	Currency              string `json:"currency"`
	PaymentExecuteTime    string `json:"paymentExecuteTime"`
	MerchantInvoiceNumber string `json:"merchantInvoiceNumber"`
	PayerReference        string `json:"payerReference"`
	StatusCode            string `json:"statusCode"`
	StatusMessage         string `json:"statusMessage"`
	Raw                   []byte `json:"-"`
}

// Success reports whether the provider settled the payment.
func (r *ExecuteSessionResponse) Success() bool { return r.StatusCode == StatusSuccess }

// SettledAmount parses the provider's decimal amount string into minor
// units. A zero value with false is returned when the field is absent
// or unparseable; settlement does not fail on it since the authoritative
// amount lives on the payment row.
func (r *ExecuteSessionResponse) SettledAmount() (int64, bool) {
	if r.Amount == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(r.Amount, 64)
	if err != nil {
		return 0, false
	}
	return int64(math.Round(f * 100)), true
}

// ExecuteSession finalizes a payment session. It is called only from
// the provider's asynchronous callback, never proactively.
func (c *Client) ExecuteSession(ctx context.Context, providerPaymentID string) (*ExecuteSessionResponse, error) {
	token, err := c.grantToken(ctx)
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(map[string]string{"paymentID": providerPaymentID})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/execute", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	c.authHeaders(req, token)

	var out ExecuteSessionResponse
	raw, err := c.do(req, &out)
	if err != nil {
		return nil, fmt.Errorf("bkash execute: %w", err)
	}
	out.Raw = raw
	return &out, nil
}

func (c *Client) authHeaders(req *http.Request, token string) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", token)
	req.Header.Set("X-APP-Key", c.cfg.AppKey)
}

// do executes the request and decodes the JSON body into out,
// returning the raw bytes for audit storage. Non-2xx responses are
// errors; the provider signals business failures inside a 200 body
// via statusCode instead.
func (c *Client) do(req *http.Request, out any) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return raw, fmt.Errorf("http %d: %s", resp.StatusCode, bytes.TrimSpace(raw))
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return raw, fmt.Errorf("decode response: %w", err)
	}
	return raw, nil
}

// FormatAmount renders minor units as the provider's decimal string,
// e.g. 150000 -> "1500.00".
func FormatAmount(minor int64) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	return fmt.Sprintf("%s%d.%02d", sign, minor/100, minor%100)
}
