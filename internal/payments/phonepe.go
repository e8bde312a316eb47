package payments

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/viraldeals/viraldeals-backend/pkg/config"
)

const (
	payPath    = "/pg/v1/pay"
	statusPath = "/pg/v1/status"
)

// GatewayState is the normalized payment state reported by the gateway.
type GatewayState string

const (
	GatewayStatePending GatewayState = "pending"
	GatewayStateSuccess GatewayState = "success"
	GatewayStateFailed  GatewayState = "failed"
	GatewayStateExpired GatewayState = "expired"
)

// PhonePeClient signs and issues requests against the PhonePe payments API.
type PhonePeClient struct {
	cfg  config.PhonePeConfig
	http *http.Client
}

// NewPhonePeClient builds a gateway client from configuration.
func NewPhonePeClient(cfg config.PhonePeConfig) (*PhonePeClient, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("phonepe base url is required")
	}
	if cfg.MerchantID == "" {
		return nil, fmt.Errorf("phonepe merchant id is required")
	}
	if cfg.SaltKey == "" {
		return nil, fmt.Errorf("phonepe salt key is required")
	}
	return &PhonePeClient{
		cfg:  cfg,
		http: &http.Client{Timeout: 15 * time.Second},
	}, nil
}

// InitiateRequest describes one payment to start.
type InitiateRequest struct {
	MerchantTransactionID string
	UserID                string
	// AmountPaise is the amount in paise, as the gateway expects.
	AmountPaise int64
	MobileHint  string
}

// InitiateResponse carries the redirect the shopper must follow.
type InitiateResponse struct {
	MerchantTransactionID string
	RedirectURL           string
}

type payPayload struct {
	MerchantID            string        `json:"merchantId"`
	MerchantTransactionID string        `json:"merchantTransactionId"`
	MerchantUserID        string        `json:"merchantUserId"`
	Amount                int64         `json:"amount"`
	RedirectURL           string        `json:"redirectUrl"`
	RedirectMode          string        `json:"redirectMode"`
	CallbackURL           string        `json:"callbackUrl"`
	MobileNumber          string        `json:"mobileNumber,omitempty"`
	PaymentInstrument     payInstrument `json:"paymentInstrument"`
}

type payInstrument struct {
	Type string `json:"type"`
}

type gatewayEnvelope struct {
	Success bool            `json:"success"`
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type payData struct {
	InstrumentResponse struct {
		RedirectInfo struct {
			URL string `json:"url"`
		} `json:"redirectInfo"`
	} `json:"instrumentResponse"`
}

type statusData struct {
	State string `json:"state"`
}

// Initiate registers the payment with the gateway and returns the hosted
// checkout redirect.
func (c *PhonePeClient) Initiate(ctx context.Context, req InitiateRequest) (*InitiateResponse, error) {
	payload := payPayload{
		MerchantID:            c.cfg.MerchantID,
		MerchantTransactionID: req.MerchantTransactionID,
		MerchantUserID:        req.UserID,
		Amount:                req.AmountPaise,
		RedirectURL:           c.cfg.RedirectURL,
		RedirectMode:          "REDIRECT",
		CallbackURL:           c.cfg.CallbackURL,
		MobileNumber:          req.MobileHint,
		PaymentInstrument:     payInstrument{Type: "PAY_PAGE"},
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal pay payload: %w", err)
	}
	encoded := base64.StdEncoding.EncodeToString(raw)

	body, err := json.Marshal(map[string]string{"request": encoded})
	if err != nil {
		return nil, fmt.Errorf("marshal pay body: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+payPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build pay request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-VERIFY", c.checksum(encoded+payPath))

	envelope, err := c.do(httpReq)
	if err != nil {
		return nil, err
	}
	if !envelope.Success {
		return nil, fmt.Errorf("phonepe pay rejected: %s (%s)", envelope.Message, envelope.Code)
	}

	var data payData
	if err := json.Unmarshal(envelope.Data, &data); err != nil {
		return nil, fmt.Errorf("decode pay response: %w", err)
	}
	return &InitiateResponse{
		MerchantTransactionID: req.MerchantTransactionID,
		RedirectURL:           data.InstrumentResponse.RedirectInfo.URL,
	}, nil
}

// CheckStatus queries the gateway for the payment's current state.
func (c *PhonePeClient) CheckStatus(ctx context.Context, merchantTransactionID string) (GatewayState, error) {
	path := fmt.Sprintf("%s/%s/%s", statusPath, c.cfg.MerchantID, merchantTransactionID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+path, nil)
	if err != nil {
		return GatewayStatePending, fmt.Errorf("build status request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-MERCHANT-ID", c.cfg.MerchantID)
	httpReq.Header.Set("X-VERIFY", c.checksum(path))

	envelope, err := c.do(httpReq)
	if err != nil {
		return GatewayStatePending, err
	}

	var data statusData
	if len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, &data); err != nil {
			return GatewayStatePending, fmt.Errorf("decode status response: %w", err)
		}
	}
	return normalizeGatewayCode(envelope.Code, data.State), nil
}

func (c *PhonePeClient) do(req *http.Request) (*gatewayEnvelope, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("phonepe request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read phonepe response: %w", err)
	}

	var envelope gatewayEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("decode phonepe response (http %d): %w", resp.StatusCode, err)
	}
	return &envelope, nil
}

// checksum implements the X-VERIFY scheme: sha256 of the signed content plus
// the salt key, suffixed with the salt index.
func (c *PhonePeClient) checksum(content string) string {
	sum := sha256.Sum256([]byte(content + c.cfg.SaltKey))
	return fmt.Sprintf("%s###%d", hex.EncodeToString(sum[:]), c.cfg.SaltIndex)
}

func normalizeGatewayCode(code, state string) GatewayState {
	switch code {
	case "PAYMENT_SUCCESS":
		return GatewayStateSuccess
	case "PAYMENT_ERROR", "PAYMENT_DECLINED":
		return GatewayStateFailed
	case "TIMED_OUT":
		return GatewayStateExpired
	}
	switch state {
	case "COMPLETED":
		return GatewayStateSuccess
	case "FAILED":
		return GatewayStateFailed
	}
	return GatewayStatePending
}
