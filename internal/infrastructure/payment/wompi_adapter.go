package payment

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"github.com/armonia/backend/internal/domain/payment"
)

const (
	wompiProductionAPIURL = "https://production.wompi.co/v1"
	wompiCheckoutBaseURL  = "https://checkout.wompi.co/p/"
)

// WompiConfig holds the credentials for the Wompi gateway
type WompiConfig struct {
	// PublicKey identifies the merchant on checkout pages
	PublicKey string
	// PrivateKey authenticates API calls
	PrivateKey string
	// EventsSecret verifies webhook checksums
	EventsSecret string
	// IntegritySecret signs checkout sessions
	IntegritySecret string
	// APIURL overrides the production API endpoint
	APIURL string
	// RedirectURL is where the payer lands after checkout
	RedirectURL string
}

// Validate validates the Wompi configuration
func (c *WompiConfig) Validate() error {
	if c.PublicKey == "" || c.PrivateKey == "" {
		return payment.ErrGatewayNotConfigured
	}
	if c.EventsSecret == "" {
		return payment.ErrGatewayNotConfigured
	}
	if c.IntegritySecret == "" {
		return payment.ErrGatewayNotConfigured
	}
	return nil
}

// WompiAdapter implements the payment Gateway interface for Wompi
type WompiAdapter struct {
	config     *WompiConfig
	httpClient *http.Client
}

// NewWompiAdapter creates a new Wompi adapter
func NewWompiAdapter(config *WompiConfig) (*WompiAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &WompiAdapter{
		config: config,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

// GatewayType returns the gateway type
func (a *WompiAdapter) GatewayType() payment.GatewayType {
	return payment.GatewayTypeWompi
}

// CreateCheckout builds a hosted Web Checkout session. Wompi checkout is a
// signed URL rather than an API-created resource, so no network call is made.
func (a *WompiAdapter) CreateCheckout(ctx context.Context, req *payment.CheckoutRequest) (*payment.CheckoutResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	currency := req.Currency
	if currency == "" {
		currency = "COP"
	}

	// Wompi expects amounts in cents
	amountInCents := req.Amount.Mul(decimal.NewFromInt(100)).IntPart()

	// integrity = SHA256(reference + amount_in_cents + currency [+ expiration] + secret)
	signaturePayload := fmt.Sprintf("%s%d%s", req.Reference, amountInCents, currency)
	if !req.ExpiresAt.IsZero() {
		signaturePayload += req.ExpiresAt.UTC().Format(time.RFC3339)
	}
	signaturePayload += a.config.IntegritySecret
	integrity := sha256.Sum256([]byte(signaturePayload))

	params := url.Values{}
	params.Set("public-key", a.config.PublicKey)
	params.Set("currency", currency)
	params.Set("amount-in-cents", fmt.Sprintf("%d", amountInCents))
	params.Set("reference", req.Reference)
	params.Set("signature:integrity", hex.EncodeToString(integrity[:]))
	if !req.ExpiresAt.IsZero() {
		params.Set("expiration-time", req.ExpiresAt.UTC().Format(time.RFC3339))
	}
	redirectURL := req.ReturnURL
	if redirectURL == "" {
		redirectURL = a.config.RedirectURL
	}
	if redirectURL != "" {
		params.Set("redirect-url", redirectURL)
	}
	if req.PayerEmail != "" {
		params.Set("customer-data:email", req.PayerEmail)
	}

	return &payment.CheckoutResponse{
		GatewayReference: req.Reference,
		GatewayType:      payment.GatewayTypeWompi,
		Status:           payment.GatewayStatusPending,
		CheckoutURL:      wompiCheckoutBaseURL + "?" + params.Encode(),
		ExpiresAt:        req.ExpiresAt,
	}, nil
}

// QueryStatus queries the state of a transaction from the Wompi API
func (a *WompiAdapter) QueryStatus(ctx context.Context, req *payment.StatusRequest) (*payment.StatusResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var path string
	if req.GatewayReference != "" {
		path = "/transactions/" + url.PathEscape(req.GatewayReference)
	} else {
		path = "/transactions?reference=" + url.QueryEscape(req.Reference)
	}

	respBody, err := a.doRequest(ctx, http.MethodGet, path)
	if err != nil {
		return nil, err
	}

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return nil, fmt.Errorf("wompi: failed to parse response: %w", err)
	}

	// Lookups by reference return a list; take the most recent attempt
	var tx wompiTransaction
	if len(envelope.Data) > 0 && envelope.Data[0] == '[' {
		var list []wompiTransaction
		if err := json.Unmarshal(envelope.Data, &list); err != nil {
			return nil, fmt.Errorf("wompi: failed to parse transaction list: %w", err)
		}
		if len(list) == 0 {
			return nil, payment.ErrGatewayInvalidReference
		}
		tx = list[0]
	} else {
		if err := json.Unmarshal(envelope.Data, &tx); err != nil {
			return nil, fmt.Errorf("wompi: failed to parse transaction: %w", err)
		}
	}

	return a.toStatusResponse(&tx, string(respBody)), nil
}

// VerifyNotification verifies the event checksum and parses the transaction.
// Wompi signs events with SHA256 over the signed properties, the timestamp
// and the events secret.
func (a *WompiAdapter) VerifyNotification(ctx context.Context, payload []byte, signature string) (*payment.Notification, error) {
	var event wompiEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("wompi: failed to parse event: %w", err)
	}

	checksum := event.Signature.Checksum
	if checksum == "" {
		checksum = signature
	}
	if checksum == "" {
		return nil, payment.ErrGatewayInvalidCallback
	}

	expected, err := a.computeEventChecksum(&event, payload)
	if err != nil {
		return nil, err
	}
	if subtle.ConstantTimeCompare([]byte(expected), []byte(checksum)) != 1 {
		return nil, payment.ErrGatewayInvalidCallback
	}

	tx := event.Data.Transaction
	notification := &payment.Notification{
		GatewayType:      payment.GatewayTypeWompi,
		GatewayReference: tx.ID,
		Reference:        tx.Reference,
		Status:           mapWompiStatus(tx.Status),
		Amount:           decimal.NewFromInt(tx.AmountInCents).Div(decimal.NewFromInt(100)),
		Currency:         tx.Currency,
		PayerAccount:     tx.CustomerEmail,
		FailureReason:    tx.StatusMessage,
		RawPayload:       string(payload),
	}

	if tx.FinalizedAt != "" {
		if t, err := time.Parse(time.RFC3339, tx.FinalizedAt); err == nil {
			notification.ProcessedAt = &t
		}
	}

	return notification, nil
}

// AcknowledgeResponse builds the body Wompi expects after a notification.
// Wompi only checks the HTTP status, an empty JSON object is enough.
func (a *WompiAdapter) AcknowledgeResponse(success bool) []byte {
	return []byte("{}")
}

// computeEventChecksum rebuilds the checksum from the event's signed properties
func (a *WompiAdapter) computeEventChecksum(event *wompiEvent, payload []byte) (string, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return "", fmt.Errorf("wompi: failed to parse event payload: %w", err)
	}

	concatenated := ""
	for _, property := range event.Signature.Properties {
		value, err := lookupEventProperty(raw, property)
		if err != nil {
			return "", err
		}
		concatenated += value
	}
	concatenated += fmt.Sprintf("%d", event.Timestamp)
	concatenated += a.config.EventsSecret

	sum := sha256.Sum256([]byte(concatenated))
	return hex.EncodeToString(sum[:]), nil
}

// lookupEventProperty resolves a dotted property path like
// "transaction.amount_in_cents" inside the event's data object
func lookupEventProperty(raw map[string]interface{}, property string) (string, error) {
	data, ok := raw["data"].(map[string]interface{})
	if !ok {
		return "", payment.ErrGatewayInvalidCallback
	}

	current := interface{}(data)
	start := 0
	for i := 0; i <= len(property); i++ {
		if i == len(property) || property[i] == '.' {
			key := property[start:i]
			node, ok := current.(map[string]interface{})
			if !ok {
				return "", payment.ErrGatewayInvalidCallback
			}
			current, ok = node[key]
			if !ok {
				return "", payment.ErrGatewayInvalidCallback
			}
			start = i + 1
		}
	}

	switch v := current.(type) {
	case string:
		return v, nil
	case float64:
		return decimal.NewFromFloat(v).String(), nil
	case bool:
		return fmt.Sprintf("%t", v), nil
	default:
		return "", payment.ErrGatewayInvalidCallback
	}
}

// doRequest performs an authenticated request against the Wompi API
func (a *WompiAdapter) doRequest(ctx context.Context, method, path string) ([]byte, error) {
	baseURL := a.config.APIURL
	if baseURL == "" {
		baseURL = wompiProductionAPIURL
	}

	req, err := http.NewRequestWithContext(ctx, method, baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("wompi: failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.config.PrivateKey)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", payment.ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("wompi: failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("%w: HTTP %d", payment.ErrGatewayRequestFailed, resp.StatusCode)
	}

	return respBody, nil
}

// toStatusResponse maps a Wompi transaction to the domain status response
func (a *WompiAdapter) toStatusResponse(tx *wompiTransaction, raw string) *payment.StatusResponse {
	response := &payment.StatusResponse{
		GatewayReference: tx.ID,
		GatewayType:      payment.GatewayTypeWompi,
		Reference:        tx.Reference,
		Status:           mapWompiStatus(tx.Status),
		Amount:           decimal.NewFromInt(tx.AmountInCents).Div(decimal.NewFromInt(100)),
		Currency:         tx.Currency,
		PayerAccount:     tx.CustomerEmail,
		RawResponse:      raw,
	}
	if tx.FinalizedAt != "" {
		if t, err := time.Parse(time.RFC3339, tx.FinalizedAt); err == nil {
			response.ProcessedAt = &t
		}
	}
	return response
}

// wompiTransaction is the transaction shape returned by the Wompi API
type wompiTransaction struct {
	ID            string `json:"id"`
	Reference     string `json:"reference"`
	Status        string `json:"status"`
	StatusMessage string `json:"status_message"`
	AmountInCents int64  `json:"amount_in_cents"`
	Currency      string `json:"currency"`
	CustomerEmail string `json:"customer_email"`
	FinalizedAt   string `json:"finalized_at"`
}

// wompiEvent is the webhook envelope Wompi pushes to the callback URL
type wompiEvent struct {
	Event string `json:"event"`
	Data  struct {
		Transaction wompiTransaction `json:"transaction"`
	} `json:"data"`
	Signature struct {
		Checksum   string   `json:"checksum"`
		Properties []string `json:"properties"`
	} `json:"signature"`
	Timestamp int64 `json:"timestamp"`
}

// mapWompiStatus maps a Wompi transaction status to the domain status
func mapWompiStatus(status string) payment.GatewayStatus {
	switch status {
	case "APPROVED":
		return payment.GatewayStatusApproved
	case "DECLINED":
		return payment.GatewayStatusDeclined
	case "VOIDED":
		return payment.GatewayStatusExpired
	case "ERROR":
		return payment.GatewayStatusError
	case "PENDING":
		return payment.GatewayStatusPending
	default:
		return payment.GatewayStatusPending
	}
}

// Ensure WompiAdapter implements the Gateway interface
var _ payment.Gateway = (*WompiAdapter)(nil)
