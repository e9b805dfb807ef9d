package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
)

// Client talks to the hosted payment gateway over HTTPS.
type Client struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewClient creates a gateway client.
func NewClient(baseURL, secretKey string, timeout time.Duration, logger zerolog.Logger) *Client {
	return &Client{
		baseURL:   baseURL,
		secretKey: secretKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger.With().Str("component", "gateway-client").Logger(),
	}
}

// apiResponse is the gateway's uniform response envelope.
type apiResponse struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Initiate creates a hosted payment page and returns its link.
func (c *Client) Initiate(ctx context.Context, req InitiateRequest) (*PaymentLink, error) {
	c.logger.Info().
		Str("tx_ref", req.TxRef).
		Float64("amount", req.Amount).
		Str("currency", req.Currency).
		Msg("initiating payment")

	var link PaymentLink
	if err := c.post(ctx, "/payments", req, &link); err != nil {
		return nil, err
	}

	c.logger.Debug().Str("tx_ref", req.TxRef).Msg("payment link created")
	return &link, nil
}

// verifyPayload mirrors the gateway's transaction object. The numeric id is
// converted to the string TransactionID callers use.
type verifyPayload struct {
	ID       int64   `json:"id"`
	TxRef    string  `json:"tx_ref"`
	Status   string  `json:"status"`
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

// Verify queries the gateway for the authoritative transaction status.
func (c *Client) Verify(ctx context.Context, txRef string) (*VerifiedPayment, error) {
	path := "/transactions/verify_by_reference?tx_ref=" + url.QueryEscape(txRef)

	var payload verifyPayload
	if err := c.get(ctx, path, &payload); err != nil {
		return nil, err
	}

	return &VerifiedPayment{
		TransactionID: fmt.Sprintf("%d", payload.ID),
		TxRef:         payload.TxRef,
		Status:        payload.Status,
		Amount:        payload.Amount,
		Currency:      payload.Currency,
	}, nil
}

// Transfer sends funds to an external bank account.
func (c *Client) Transfer(ctx context.Context, req TransferRequest) error {
	c.logger.Info().
		Str("reference", req.Reference).
		Str("bank_code", req.BankCode).
		Float64("amount", req.Amount).
		Msg("initiating bank transfer")

	return c.post(ctx, "/transfers", req, nil)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode gateway request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("failed to build gateway request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, out)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to build gateway request: %w", err)
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	req.Header.Set("Authorization", "Bearer "+c.secretKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Str("path", req.URL.Path).Msg("gateway request failed")
		return &Error{Message: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return &Error{Message: fmt.Sprintf("failed to read gateway response: %v", err)}
	}

	var envelope apiResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return &Error{StatusCode: resp.StatusCode, Message: "malformed gateway response"}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || envelope.Status != "success" {
		c.logger.Warn().
			Int("status_code", resp.StatusCode).
			Str("message", envelope.Message).
			Str("path", req.URL.Path).
			Msg("gateway rejected request")
		return &Error{StatusCode: resp.StatusCode, Message: envelope.Message}
	}

	if out != nil {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return &Error{StatusCode: resp.StatusCode, Message: "malformed gateway response data"}
		}
	}
	return nil
}
