package handler

import (
	"errors"
	"io"
	"net/http"
	"strings"

	apppayment "github.com/armonia/backend/internal/application/payment"
	"github.com/armonia/backend/internal/domain/payment"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// PaymentCallbackHandler handles payment gateway callback endpoints.
// These endpoints are called by external payment gateways (PayU, Wompi)
// and do not require authentication; each notification is verified
// against the gateway's signature instead.
type PaymentCallbackHandler struct {
	BaseHandler
	callbackService *apppayment.CallbackService
}

// NewPaymentCallbackHandler creates a new PaymentCallbackHandler
func NewPaymentCallbackHandler(callbackService *apppayment.CallbackService) *PaymentCallbackHandler {
	return &PaymentCallbackHandler{
		callbackService: callbackService,
	}
}

// PaymentCallbackResponse represents the response for payment callback status
//
//	@Description	Payment callback status response
type PaymentCallbackResponse struct {
	Success          bool   `json:"success" example:"true"`
	AlreadyProcessed bool   `json:"already_processed,omitempty" example:"false"`
	Message          string `json:"message,omitempty"`
}

// HandleCallback godoc
//
//	@ID				handlePaymentGatewayCallback
//	@Summary		Handle a payment gateway notification
//	@Description	Receive and process a payment notification from PayU or Wompi. The tenant is identified by the tenant query parameter configured in the gateway's notification URL.
//	@Tags			payment-callbacks
//	@Accept			json
//	@Produce		json
//	@Param			gateway				path		string	true	"Gateway identifier"	Enums(payu, wompi)
//	@Param			tenant				query		string	true	"Tenant ID"	format(uuid)
//	@Param			X-Event-Checksum	header		string	false	"Wompi event checksum"
//	@Success		200					{object}	PaymentCallbackResponse
//	@Failure		400					{object}	PaymentCallbackResponse
//	@Failure		401					{object}	PaymentCallbackResponse
//	@Router			/payments/callback/{gateway} [post]
func (h *PaymentCallbackHandler) HandleCallback(c *gin.Context) {
	gatewayType := payment.GatewayType(strings.ToUpper(c.Param("gateway")))
	if !gatewayType.IsValid() {
		c.JSON(http.StatusBadRequest, PaymentCallbackResponse{Message: "Unknown gateway"})
		return
	}

	tenantID, err := uuid.Parse(c.Query("tenant"))
	if err != nil {
		c.JSON(http.StatusBadRequest, PaymentCallbackResponse{Message: "Missing or invalid tenant parameter"})
		return
	}

	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, PaymentCallbackResponse{Message: "Failed to read request body"})
		return
	}

	signature := h.extractSignature(c, gatewayType)

	result, err := h.callbackService.ProcessCallback(c.Request.Context(), tenantID, gatewayType, payload, signature)
	if err != nil {
		// A rejected signature must not be retried with the same payload;
		// anything else is answered 400 so the gateway will retry.
		status := http.StatusBadRequest
		if errors.Is(err, payment.ErrGatewayInvalidCallback) {
			status = http.StatusUnauthorized
		}
		c.JSON(status, PaymentCallbackResponse{Message: err.Error()})
		return
	}

	if result.GatewayResponse != nil {
		c.Data(http.StatusOK, h.responseContentType(gatewayType), result.GatewayResponse)
		return
	}

	c.JSON(http.StatusOK, PaymentCallbackResponse{
		Success:          result.Success,
		AlreadyProcessed: result.AlreadyProcessed,
	})
}

// extractSignature pulls the gateway's signature from where that gateway
// puts it. PayU signs inside the form payload, so the header is only a
// fallback there.
func (h *PaymentCallbackHandler) extractSignature(c *gin.Context, gatewayType payment.GatewayType) string {
	switch gatewayType {
	case payment.GatewayTypeWompi:
		return c.GetHeader("X-Event-Checksum")
	case payment.GatewayTypePayU:
		return c.GetHeader("X-Signature")
	default:
		return ""
	}
}

func (h *PaymentCallbackHandler) responseContentType(gatewayType payment.GatewayType) string {
	if gatewayType == payment.GatewayTypePayU {
		return "text/plain; charset=utf-8"
	}
	return "application/json; charset=utf-8"
}
