package handler

import (
	"time"

	apppayment "github.com/armonia/backend/internal/application/payment"
	"github.com/armonia/backend/internal/domain/identity"
	"github.com/armonia/backend/internal/domain/payment"
	"github.com/armonia/backend/internal/interfaces/http/dto"
	"github.com/armonia/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// PaymentHandler handles payment transaction endpoints
type PaymentHandler struct {
	BaseHandler
	paymentService  *apppayment.PaymentService
	checkoutService *apppayment.CheckoutService
	receiptService  *apppayment.ReceiptService
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(
	paymentService *apppayment.PaymentService,
	checkoutService *apppayment.CheckoutService,
	receiptService *apppayment.ReceiptService,
) *PaymentHandler {
	return &PaymentHandler{
		paymentService:  paymentService,
		checkoutService: checkoutService,
		receiptService:  receiptService,
	}
}

// Process godoc
//
//	@ID				processPayment
//	@Summary		Register a payment
//	@Description	Register a payment against an invoice and apply it. A repeated gateway reference returns the original transaction.
//	@Tags			payments
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		ProcessPaymentRequest	true	"Payment details"
//	@Success		201		{object}	dto.Response{data=ProcessPaymentResponse}
//	@Failure		400		{object}	dto.Response{error=dto.ErrorInfo}
//	@Failure		404		{object}	dto.Response{error=dto.ErrorInfo}
//	@Failure		422		{object}	dto.Response{error=dto.ErrorInfo}
//	@Router			/payments [post]
func (h *PaymentHandler) Process(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant context required")
		return
	}
	actorID, _ := getUserID(c)

	var req ProcessPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request format: "+err.Error())
		return
	}

	invoiceID, err := uuid.Parse(req.InvoiceID)
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID format")
		return
	}

	result, err := h.paymentService.ProcessPayment(c.Request.Context(), tenantID, actorID, apppayment.ProcessPaymentCommand{
		InvoiceID:        invoiceID,
		Amount:           req.Amount,
		Currency:         req.Currency,
		Method:           req.Method,
		GatewayReference: req.GatewayReference,
		Notes:            req.Notes,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	resp := ProcessPaymentResponse{
		Payment:          toPaymentResponse(result.Transaction),
		InvoiceStatus:    result.InvoiceStatus.String(),
		InvoiceSettled:   result.InvoiceSettled,
		AlreadyProcessed: result.AlreadyProcessed,
	}
	if result.AlreadyProcessed {
		h.Success(c, resp)
		return
	}
	h.Created(c, resp)
}

// GetByID godoc
//
//	@ID				getPaymentById
//	@Summary		Get payment by ID
//	@Description	Retrieve one payment transaction
//	@Tags			payments
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id	path		string	true	"Payment ID"	format(uuid)
//	@Success		200	{object}	dto.Response{data=PaymentResponse}
//	@Failure		404	{object}	dto.Response{error=dto.ErrorInfo}
//	@Router			/payments/{id} [get]
func (h *PaymentHandler) GetByID(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant context required")
		return
	}

	paymentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid payment ID format")
		return
	}

	tx, err := h.paymentService.GetPaymentForActor(c.Request.Context(), tenantID, currentActor(c), paymentID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toPaymentResponse(tx))
}

// List godoc
//
//	@ID				listPayments
//	@Summary		List payments
//	@Description	List payment transactions with filtering and pagination
//	@Tags			payments
//	@Produce		json
//	@Security		BearerAuth
//	@Param			invoice_id	query		string	false	"Filter by invoice"	format(uuid)
//	@Param			property_id	query		string	false	"Filter by property"	format(uuid)
//	@Param			status		query		string	false	"Filter by status"	Enums(PENDING, PROCESSING, COMPLETED, FAILED, CANCELLED, REFUNDED)
//	@Param			method		query		string	false	"Filter by method"	Enums(CASH, TRANSFER, CARD, PSE, GATEWAY)
//	@Param			from		query		string	false	"Processed from date (YYYY-MM-DD)"
//	@Param			to			query		string	false	"Processed to date (YYYY-MM-DD)"
//	@Param			page		query		int		false	"Page number"	default(1)
//	@Param			page_size	query		int		false	"Page size"		default(20)
//	@Success		200			{object}	dto.Response{data=PaymentListResponse}
//	@Failure		400			{object}	dto.Response{error=dto.ErrorInfo}
//	@Router			/payments [get]
func (h *PaymentHandler) List(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant context required")
		return
	}

	var query PaymentListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}
	if query.Page < 1 {
		query.Page = 1
	}
	if query.PageSize < 1 {
		query.PageSize = 20
	}

	filter := payment.TransactionFilter{
		Page:     query.Page,
		PageSize: query.PageSize,
	}
	// Residents only see payments on their own properties
	if actor := currentActor(c); actor.OwnerOnly {
		filter.OwnerID = &actor.ID
	}
	if query.InvoiceID != "" {
		id, _ := uuid.Parse(query.InvoiceID)
		filter.InvoiceID = &id
	}
	if query.PropertyID != "" {
		id, _ := uuid.Parse(query.PropertyID)
		filter.PropertyID = &id
	}
	if query.Status != "" {
		status := payment.TransactionStatus(query.Status)
		filter.Status = &status
	}
	if query.Method != "" {
		method := payment.PaymentMethod(query.Method)
		filter.Method = &method
	}
	if query.From != "" {
		if from, err := time.Parse("2006-01-02", query.From); err == nil {
			filter.From = &from
		}
	}
	if query.To != "" {
		if to, err := time.Parse("2006-01-02", query.To); err == nil {
			end := to.AddDate(0, 0, 1)
			filter.To = &end
		}
	}

	payments, total, err := h.paymentService.ListPayments(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	items := make([]PaymentResponse, len(payments))
	for i, tx := range payments {
		items[i] = toPaymentResponse(tx)
	}

	h.Success(c, PaymentListResponse{
		Payments: items,
		Total:    total,
		Page:     query.Page,
		PageSize: query.PageSize,
	})
}

// Update godoc
//
//	@ID				updatePayment
//	@Summary		Update a payment
//	@Description	Drive the transaction state machine (status) or edit method and notes of a payment that has not settled
//	@Tags			payments
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id		path		string					true	"Payment ID"	format(uuid)
//	@Param			request	body		UpdatePaymentRequest	true	"Updated details"
//	@Success		200		{object}	dto.Response{data=PaymentResponse}
//	@Failure		400		{object}	dto.Response{error=dto.ErrorInfo}
//	@Failure		404		{object}	dto.Response{error=dto.ErrorInfo}
//	@Failure		422		{object}	dto.Response{error=dto.ErrorInfo}
//	@Router			/payments/{id} [put]
func (h *PaymentHandler) Update(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant context required")
		return
	}

	paymentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid payment ID format")
		return
	}

	var req UpdatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request format: "+err.Error())
		return
	}
	if req.Status == "" && req.Method == "" {
		h.BadRequest(c, "Either status or method must be provided")
		return
	}

	var tx *payment.Transaction
	if req.Status != "" {
		actorID, _ := getUserID(c)
		tx, err = h.paymentService.UpdatePaymentStatus(c.Request.Context(), tenantID, actorID, paymentID, apppayment.UpdatePaymentStatusCommand{
			Status:           req.Status,
			GatewayReference: req.GatewayReference,
			ErrorMessage:     req.ErrorMessage,
		})
	} else {
		tx, err = h.paymentService.UpdatePayment(c.Request.Context(), tenantID, paymentID, apppayment.UpdatePaymentCommand{
			Method: req.Method,
			Notes:  req.Notes,
		})
	}
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toPaymentResponse(tx))
}

// Cancel godoc
//
//	@ID				cancelPayment
//	@Summary		Cancel a payment
//	@Description	Cancel a transaction that has not completed. Residents may only cancel payments on their own properties.
//	@Tags			payments
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id	path		string	true	"Payment ID"	format(uuid)
//	@Success		200	{object}	dto.Response{data=dto.MessageResponse}
//	@Failure		404	{object}	dto.Response{error=dto.ErrorInfo}
//	@Failure		422	{object}	dto.Response{error=dto.ErrorInfo}
//	@Router			/payments/{id} [delete]
func (h *PaymentHandler) Cancel(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant context required")
		return
	}
	paymentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid payment ID format")
		return
	}

	if err := h.paymentService.CancelPayment(c.Request.Context(), tenantID, currentActor(c), paymentID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, dto.MessageResponse{Message: "Payment cancelled successfully"})
}

// currentActor builds the payment-scope actor from the JWT claims.
// Residents are restricted to transactions on properties they own.
func currentActor(c *gin.Context) apppayment.Actor {
	actorID, _ := getUserID(c)
	role := identity.UserRole(middleware.GetJWTRole(c))
	return apppayment.Actor{
		ID:        actorID,
		OwnerOnly: role == identity.UserRoleResident,
	}
}

// Refund godoc
//
//	@ID				refundPayment
//	@Summary		Refund a payment
//	@Description	Reverse a completed payment with a compensating transaction
//	@Tags			payments
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id	path		string	true	"Payment ID"	format(uuid)
//	@Success		201	{object}	dto.Response{data=PaymentResponse}
//	@Failure		404	{object}	dto.Response{error=dto.ErrorInfo}
//	@Failure		422	{object}	dto.Response{error=dto.ErrorInfo}
//	@Router			/payments/{id}/refund [post]
func (h *PaymentHandler) Refund(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant context required")
		return
	}
	actorID, _ := getUserID(c)

	paymentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid payment ID format")
		return
	}

	refund, err := h.paymentService.RefundPayment(c.Request.Context(), tenantID, actorID, paymentID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, toPaymentResponse(refund))
}

// StartCheckout godoc
//
//	@ID				startPaymentCheckout
//	@Summary		Start a gateway checkout
//	@Description	Create a pending transaction for an invoice's remaining amount and get the gateway redirect URL
//	@Tags			payments
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		StartCheckoutRequest	true	"Checkout details"
//	@Success		201		{object}	dto.Response{data=CheckoutResponse}
//	@Failure		400		{object}	dto.Response{error=dto.ErrorInfo}
//	@Failure		404		{object}	dto.Response{error=dto.ErrorInfo}
//	@Failure		422		{object}	dto.Response{error=dto.ErrorInfo}
//	@Router			/payments/checkout [post]
func (h *PaymentHandler) StartCheckout(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant context required")
		return
	}

	var req StartCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request format: "+err.Error())
		return
	}

	invoiceID, err := uuid.Parse(req.InvoiceID)
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID format")
		return
	}

	result, err := h.checkoutService.StartCheckout(c.Request.Context(), tenantID, apppayment.CheckoutCommand{
		InvoiceID:   invoiceID,
		GatewayType: req.GatewayType,
		PayerEmail:  req.PayerEmail,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, CheckoutResponse{
		TransactionID: result.TransactionID.String(),
		CheckoutURL:   result.CheckoutURL,
		ExpiresAt:     result.ExpiresAt,
	})
}

// InitiateReceiptUpload godoc
//
//	@ID				initiatePaymentReceiptUpload
//	@Summary		Request a receipt upload URL
//	@Description	Get a presigned URL for uploading a payment proof document
//	@Tags			payments
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id		path		string							true	"Payment ID"	format(uuid)
//	@Param			request	body		InitiateReceiptUploadRequest	true	"Upload details"
//	@Success		200		{object}	dto.Response{data=ReceiptUploadResponse}
//	@Failure		400		{object}	dto.Response{error=dto.ErrorInfo}
//	@Failure		404		{object}	dto.Response{error=dto.ErrorInfo}
//	@Failure		422		{object}	dto.Response{error=dto.ErrorInfo}
//	@Router			/payments/{id}/receipt [post]
func (h *PaymentHandler) InitiateReceiptUpload(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant context required")
		return
	}

	paymentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid payment ID format")
		return
	}

	var req InitiateReceiptUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request format: "+err.Error())
		return
	}

	result, err := h.receiptService.InitiateReceiptUpload(c.Request.Context(), tenantID, paymentID, req.FileName, req.ContentType)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, ReceiptUploadResponse{
		StorageKey: result.StorageKey,
		UploadURL:  result.UploadURL,
		ExpiresAt:  result.ExpiresAt,
	})
}

// ConfirmReceipt godoc
//
//	@ID				confirmPaymentReceipt
//	@Summary		Confirm an uploaded receipt
//	@Description	Link an uploaded payment proof object to the transaction
//	@Tags			payments
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id		path		string					true	"Payment ID"	format(uuid)
//	@Param			request	body		ConfirmReceiptRequest	true	"Storage key of the uploaded object"
//	@Success		200		{object}	dto.Response{data=PaymentResponse}
//	@Failure		400		{object}	dto.Response{error=dto.ErrorInfo}
//	@Failure		404		{object}	dto.Response{error=dto.ErrorInfo}
//	@Failure		422		{object}	dto.Response{error=dto.ErrorInfo}
//	@Router			/payments/{id}/receipt [put]
func (h *PaymentHandler) ConfirmReceipt(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant context required")
		return
	}

	paymentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid payment ID format")
		return
	}

	var req ConfirmReceiptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request format: "+err.Error())
		return
	}

	tx, err := h.receiptService.ConfirmReceipt(c.Request.Context(), tenantID, paymentID, req.StorageKey)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toPaymentResponse(tx))
}

// GetReceiptURL godoc
//
//	@ID				getPaymentReceiptUrl
//	@Summary		Get a receipt download URL
//	@Description	Get a presigned download URL for the payment's receipt
//	@Tags			payments
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id	path		string	true	"Payment ID"	format(uuid)
//	@Success		200	{object}	dto.Response{data=ReceiptURLResponse}
//	@Failure		404	{object}	dto.Response{error=dto.ErrorInfo}
//	@Router			/payments/{id}/receipt [get]
func (h *PaymentHandler) GetReceiptURL(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant context required")
		return
	}

	paymentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid payment ID format")
		return
	}

	url, expiresAt, err := h.receiptService.GetReceiptURL(c.Request.Context(), tenantID, paymentID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, ReceiptURLResponse{
		DownloadURL: url,
		ExpiresAt:   expiresAt,
	})
}
