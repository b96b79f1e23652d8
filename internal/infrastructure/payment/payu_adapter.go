package payment

import (
	"bytes"
	"context"
	"crypto/md5"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/armonia/backend/internal/domain/payment"
)

const (
	payuCheckoutURL     = "https://checkout.payulatam.com/ppp-web-gateway-payu/"
	payuTestCheckoutURL = "https://sandbox.checkout.payulatam.com/ppp-web-gateway-payu/"
	payuReportsAPIURL   = "https://api.payulatam.com/reports-api/4.0/service.cgi"
	payuTestReportsURL  = "https://sandbox.api.payulatam.com/reports-api/4.0/service.cgi"

	// state_pol values reported in confirmation callbacks
	payuStateApproved = "4"
	payuStateExpired  = "5"
	payuStateDeclined = "6"
	payuStatePending  = "7"
)

// PayUConfig holds the credentials for the PayU Latam gateway
type PayUConfig struct {
	// MerchantID identifies the merchant account
	MerchantID string
	// AccountID identifies the country-level account
	AccountID string
	// APIKey signs checkout requests and verifies confirmations
	APIKey string
	// APILogin authenticates reports API queries
	APILogin string
	// APIURL overrides the reports API endpoint
	APIURL string
	// ResponseURL is where the payer lands after checkout
	ResponseURL string
	// TestMode routes traffic to the PayU sandbox
	TestMode bool
}

// Validate validates the PayU configuration
func (c *PayUConfig) Validate() error {
	if c.MerchantID == "" || c.AccountID == "" {
		return payment.ErrGatewayNotConfigured
	}
	if c.APIKey == "" {
		return payment.ErrGatewayNotConfigured
	}
	return nil
}

// PayUAdapter implements the payment Gateway interface for PayU Latam
type PayUAdapter struct {
	config     *PayUConfig
	httpClient *http.Client
}

// NewPayUAdapter creates a new PayU adapter
func NewPayUAdapter(config *PayUConfig) (*PayUAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &PayUAdapter{
		config: config,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

// GatewayType returns the gateway type
func (a *PayUAdapter) GatewayType() payment.GatewayType {
	return payment.GatewayTypePayU
}

// CreateCheckout builds a hosted WebCheckout session. PayU checkout is a
// signed redirect rather than an API-created resource, so no network call
// is made.
func (a *PayUAdapter) CreateCheckout(ctx context.Context, req *payment.CheckoutRequest) (*payment.CheckoutResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	currency := req.Currency
	if currency == "" {
		currency = "COP"
	}
	amount := req.Amount.StringFixed(2)

	// signature = MD5(apiKey~merchantId~referenceCode~amount~currency)
	signature := a.md5Signature(a.config.APIKey, a.config.MerchantID, req.Reference, amount, currency)

	params := url.Values{}
	params.Set("merchantId", a.config.MerchantID)
	params.Set("accountId", a.config.AccountID)
	params.Set("description", req.Description)
	params.Set("referenceCode", req.Reference)
	params.Set("amount", amount)
	params.Set("tax", "0")
	params.Set("taxReturnBase", "0")
	params.Set("currency", currency)
	params.Set("signature", signature)
	params.Set("confirmationUrl", req.NotifyURL)
	if req.PayerEmail != "" {
		params.Set("buyerEmail", req.PayerEmail)
	}
	responseURL := req.ReturnURL
	if responseURL == "" {
		responseURL = a.config.ResponseURL
	}
	if responseURL != "" {
		params.Set("responseUrl", responseURL)
	}
	if a.config.TestMode {
		params.Set("test", "1")
	} else {
		params.Set("test", "0")
	}

	checkoutBase := payuCheckoutURL
	if a.config.TestMode {
		checkoutBase = payuTestCheckoutURL
	}

	return &payment.CheckoutResponse{
		GatewayReference: req.Reference,
		GatewayType:      payment.GatewayTypePayU,
		Status:           payment.GatewayStatusPending,
		CheckoutURL:      checkoutBase + "?" + params.Encode(),
		ExpiresAt:        req.ExpiresAt,
	}, nil
}

// QueryStatus queries the reports API for an order by reference code
func (a *PayUAdapter) QueryStatus(ctx context.Context, req *payment.StatusRequest) (*payment.StatusResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	reference := req.Reference
	if reference == "" {
		reference = req.GatewayReference
	}

	body := map[string]interface{}{
		"test":     a.config.TestMode,
		"language": "es",
		"command":  "ORDER_DETAIL_BY_REFERENCE_CODE",
		"merchant": map[string]string{
			"apiLogin": a.config.APILogin,
			"apiKey":   a.config.APIKey,
		},
		"details": map[string]string{
			"referenceCode": reference,
		},
	}
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("payu: failed to marshal request: %w", err)
	}

	respBody, err := a.doRequest(ctx, bodyBytes)
	if err != nil {
		return nil, err
	}

	var respData payuOrderDetailResponse
	if err := json.Unmarshal(respBody, &respData); err != nil {
		return nil, fmt.Errorf("payu: failed to parse response: %w", err)
	}
	if !strings.EqualFold(respData.Code, "SUCCESS") {
		return nil, fmt.Errorf("%w: %s", payment.ErrGatewayRequestFailed, respData.Error)
	}
	if len(respData.Result.Payload) == 0 {
		return nil, payment.ErrGatewayInvalidReference
	}

	order := respData.Result.Payload[0]
	response := &payment.StatusResponse{
		GatewayType: payment.GatewayTypePayU,
		Reference:   order.ReferenceCode,
		Status:      mapPayUOrderStatus(order.Status),
		RawResponse: string(respBody),
	}
	if len(order.Transactions) > 0 {
		tx := order.Transactions[len(order.Transactions)-1]
		response.GatewayReference = tx.ID
		if tx.AdditionalValues.TxValue != nil {
			response.Amount = tx.AdditionalValues.TxValue.Value
			response.Currency = tx.AdditionalValues.TxValue.Currency
		}
	}

	return response, nil
}

// VerifyNotification verifies the signature of a confirmation callback.
// PayU posts form-encoded confirmations signed with
// MD5(apiKey~merchant_id~reference_sale~new_value~currency~state_pol).
func (a *PayUAdapter) VerifyNotification(ctx context.Context, payload []byte, signature string) (*payment.Notification, error) {
	values, err := url.ParseQuery(string(payload))
	if err != nil {
		return nil, fmt.Errorf("payu: failed to parse confirmation: %w", err)
	}

	sign := values.Get("sign")
	if sign == "" {
		sign = signature
	}
	if sign == "" {
		return nil, payment.ErrGatewayInvalidCallback
	}

	reference := values.Get("reference_sale")
	statePol := values.Get("state_pol")
	currency := values.Get("currency")
	value := values.Get("value")

	expected := a.md5Signature(a.config.APIKey, values.Get("merchant_id"), reference, payuSignatureValue(value), currency, statePol)
	if subtle.ConstantTimeCompare([]byte(strings.ToLower(expected)), []byte(strings.ToLower(sign))) != 1 {
		return nil, payment.ErrGatewayInvalidCallback
	}

	amount, err := decimal.NewFromString(value)
	if err != nil {
		amount = decimal.Zero
	}

	notification := &payment.Notification{
		GatewayType:      payment.GatewayTypePayU,
		GatewayReference: values.Get("transaction_id"),
		Reference:        reference,
		Status:           mapPayUStatePol(statePol),
		Amount:           amount,
		Currency:         currency,
		PayerAccount:     values.Get("email_buyer"),
		FailureReason:    values.Get("response_message_pol"),
		RawPayload:       string(payload),
	}

	if operationDate := values.Get("operation_date"); operationDate != "" {
		if t, err := time.Parse("2006-01-02 15:04:05", operationDate); err == nil {
			notification.ProcessedAt = &t
		}
	}

	return notification, nil
}

// AcknowledgeResponse builds the body PayU expects after a confirmation.
// PayU only checks the HTTP status code.
func (a *PayUAdapter) AcknowledgeResponse(success bool) []byte {
	if success {
		return []byte("OK")
	}
	return []byte("FAIL")
}

// md5Signature joins the parts with '~' and hashes them
func (a *PayUAdapter) md5Signature(parts ...string) string {
	sum := md5.Sum([]byte(strings.Join(parts, "~")))
	return hex.EncodeToString(sum[:])
}

// payuSignatureValue normalizes the confirmation value the way PayU signs it:
// when the second decimal is zero, only one decimal participates
func payuSignatureValue(value string) string {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return value
	}
	twoDecimals := d.StringFixed(2)
	if strings.HasSuffix(twoDecimals, "0") {
		return d.StringFixed(1)
	}
	return twoDecimals
}

// doRequest performs a reports API call
func (a *PayUAdapter) doRequest(ctx context.Context, body []byte) ([]byte, error) {
	apiURL := a.config.APIURL
	if apiURL == "" {
		if a.config.TestMode {
			apiURL = payuTestReportsURL
		} else {
			apiURL = payuReportsAPIURL
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("payu: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", payment.ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("payu: failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("%w: HTTP %d", payment.ErrGatewayRequestFailed, resp.StatusCode)
	}

	return respBody, nil
}

// payuOrderDetailResponse is the reports API envelope
type payuOrderDetailResponse struct {
	Code   string `json:"code"`
	Error  string `json:"error"`
	Result struct {
		Payload []payuOrder `json:"payload"`
	} `json:"result"`
}

// payuOrder is an order as reported by the reports API
type payuOrder struct {
	ID            int64  `json:"id"`
	ReferenceCode string `json:"referenceCode"`
	Status        string `json:"status"`
	Transactions  []struct {
		ID               string `json:"id"`
		AdditionalValues struct {
			TxValue *struct {
				Value    decimal.Decimal `json:"value"`
				Currency string          `json:"currency"`
			} `json:"TX_VALUE"`
		} `json:"additionalValues"`
	} `json:"transactions"`
}

// mapPayUOrderStatus maps a reports API order status to the domain status
func mapPayUOrderStatus(status string) payment.GatewayStatus {
	switch status {
	case "CAPTURED":
		return payment.GatewayStatusApproved
	case "DECLINED":
		return payment.GatewayStatusDeclined
	case "EXPIRED":
		return payment.GatewayStatusExpired
	case "ERROR":
		return payment.GatewayStatusError
	case "NEW", "IN_PROGRESS", "AUTHORIZED":
		return payment.GatewayStatusPending
	default:
		return payment.GatewayStatusPending
	}
}

// mapPayUStatePol maps a confirmation state_pol to the domain status
func mapPayUStatePol(statePol string) payment.GatewayStatus {
	switch statePol {
	case payuStateApproved:
		return payment.GatewayStatusApproved
	case payuStateDeclined:
		return payment.GatewayStatusDeclined
	case payuStateExpired:
		return payment.GatewayStatusExpired
	case payuStatePending:
		return payment.GatewayStatusPending
	default:
		return payment.GatewayStatusError
	}
}

// Ensure PayUAdapter implements the Gateway interface
var _ payment.Gateway = (*PayUAdapter)(nil)
