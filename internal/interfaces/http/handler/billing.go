package handler

import (
	"time"

	appbilling "github.com/armonia/backend/internal/application/billing"
	"github.com/armonia/backend/internal/domain/billing"
	"github.com/armonia/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// BillingHandler handles billing run and invoice HTTP requests
type BillingHandler struct {
	BaseHandler
	billingService *appbilling.BillingService
}

// NewBillingHandler creates a new billing handler
func NewBillingHandler(billingService *appbilling.BillingService) *BillingHandler {
	return &BillingHandler{
		billingService: billingService,
	}
}

// GenerateBills godoc
// @Summary      Run billing for a period
// @Description  Generate one invoice per active unit for the given period. Already billed units are skipped, so the run can be retried safely.
// @Tags         billing
// @Accept       json
// @Produce      json
// @Param        request body GenerateBillsRequest true "Billing period (YYYY-MM)"
// @Success      200 {object} dto.Response{data=appbilling.GenerateBillsResult}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /billing/runs [post]
func (h *BillingHandler) GenerateBills(c *gin.Context) {
	var req GenerateBillsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	actorID, _ := getUserID(c)

	result, err := h.billingService.GenerateBills(c.Request.Context(), tenantID, actorID, req.Period)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// GetInvoice godoc
// @Summary      Get an invoice
// @Description  Retrieve an invoice with its line items. Residents only see invoices for their own properties.
// @Tags         billing
// @Produce      json
// @Param        id path string true "Invoice ID" format(uuid)
// @Success      200 {object} dto.Response{data=InvoiceResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /billing/invoices/{id} [get]
func (h *BillingHandler) GetInvoice(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID")
		return
	}

	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	actor := currentActor(c)
	invoice, err := h.billingService.GetInvoiceForActor(c.Request.Context(), tenantID,
		appbilling.Actor{ID: actor.ID, OwnerOnly: actor.OwnerOnly}, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toInvoiceResponse(invoice))
}

// ListInvoices godoc
// @Summary      List invoices
// @Description  Get a paginated list of invoices. Residents only see invoices for their own properties.
// @Tags         billing
// @Produce      json
// @Param        property_id query string false "Property ID" format(uuid)
// @Param        period query string false "Billing period (YYYY-MM)"
// @Param        status query string false "Invoice status" Enums(PENDING, PARTIAL, PAID, OVERDUE, CANCELLED)
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Items per page" default(20) maximum(100)
// @Success      200 {object} dto.Response{data=InvoiceListResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /billing/invoices [get]
func (h *BillingHandler) ListInvoices(c *gin.Context) {
	var query InvoiceListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, "Invalid query parameters")
		return
	}

	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	filter := billing.InvoiceFilter{
		Period:   query.Period,
		Status:   billing.InvoiceStatus(query.Status),
		Page:     query.Page,
		PageSize: query.PageSize,
	}
	// Residents only see invoices for their own properties
	if actor := currentActor(c); actor.OwnerOnly {
		filter.OwnerID = &actor.ID
	}
	if query.PropertyID != "" {
		propertyID, err := uuid.Parse(query.PropertyID)
		if err != nil {
			h.BadRequest(c, "Invalid property ID")
			return
		}
		filter.PropertyID = &propertyID
	}

	invoices, total, err := h.billingService.ListInvoices(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	responses := make([]InvoiceResponse, len(invoices))
	for i := range invoices {
		responses[i] = *toInvoiceResponse(&invoices[i])
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = 20
	}

	h.Success(c, InvoiceListResponse{
		Invoices: responses,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	})
}

// CancelInvoice godoc
// @Summary      Cancel an invoice
// @Description  Void an invoice before collection
// @Tags         billing
// @Produce      json
// @Param        id path string true "Invoice ID" format(uuid)
// @Success      200 {object} dto.Response
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /billing/invoices/{id}/cancel [post]
func (h *BillingHandler) CancelInvoice(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID")
		return
	}

	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	actorID, _ := getUserID(c)

	if err := h.billingService.CancelInvoice(c.Request.Context(), tenantID, actorID, id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, dto.MessageResponse{Message: "Invoice cancelled"})
}

// PreviewLateFee godoc
// @Summary      Preview late fee
// @Description  Compute the late fee an invoice would accrue as of now without persisting anything
// @Tags         billing
// @Produce      json
// @Param        id path string true "Invoice ID" format(uuid)
// @Success      200 {object} dto.Response{data=appbilling.LateFeePreview}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /billing/invoices/{id}/late-fee [get]
func (h *BillingHandler) PreviewLateFee(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID")
		return
	}

	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	preview, err := h.billingService.PreviewLateFee(c.Request.Context(), tenantID, id, time.Now())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, preview)
}

// ApplyLateFees godoc
// @Summary      Apply late fees
// @Description  Mark every invoice past its due date as overdue and accrue its late fee
// @Tags         billing
// @Accept       json
// @Produce      json
// @Param        request body ApplyLateFeesRequest false "Optional cutoff date"
// @Success      200 {object} dto.Response{data=object{updated=int}}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /billing/late-fees/apply [post]
func (h *BillingHandler) ApplyLateFees(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req ApplyLateFeesRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		h.BadRequest(c, "Invalid request body")
		return
	}

	asOf := time.Now()
	if req.AsOf != nil {
		asOf = *req.AsOf
	}

	updated, err := h.billingService.ApplyLateFees(c.Request.Context(), tenantID, asOf)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, gin.H{"updated": updated})
}
