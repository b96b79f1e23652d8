package handler

import (
	"time"

	appfinance "github.com/armonia/backend/internal/application/finance"
	"github.com/armonia/backend/internal/domain/finance"
	"github.com/armonia/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ExpenseHandler handles expense tracking endpoints
type ExpenseHandler struct {
	BaseHandler
	expenseService *appfinance.ExpenseService
}

// NewExpenseHandler creates a new ExpenseHandler
func NewExpenseHandler(expenseService *appfinance.ExpenseService) *ExpenseHandler {
	return &ExpenseHandler{
		expenseService: expenseService,
	}
}

// Record godoc
//
//	@ID				recordExpense
//	@Summary		Record an expense
//	@Description	Register an outgoing payment made by the administration
//	@Tags			expenses
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		RecordExpenseRequest	true	"Expense details"
//	@Success		201		{object}	dto.Response{data=ExpenseResponse}
//	@Failure		400		{object}	dto.Response{error=dto.ErrorInfo}
//	@Failure		422		{object}	dto.Response{error=dto.ErrorInfo}
//	@Router			/expenses [post]
func (h *ExpenseHandler) Record(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant context required")
		return
	}
	actorID, _ := getUserID(c)

	var req RecordExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request format: "+err.Error())
		return
	}

	cmd := appfinance.RecordExpenseCommand{
		Category:    req.Category,
		Amount:      req.Amount,
		Currency:    req.Currency,
		Description: req.Description,
		Vendor:      req.Vendor,
	}
	if req.IncurredAt != nil {
		cmd.IncurredAt = *req.IncurredAt
	}

	expense, err := h.expenseService.RecordExpense(c.Request.Context(), tenantID, actorID, cmd)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, toExpenseResponse(expense))
}

// GetByID godoc
//
//	@ID				getExpenseById
//	@Summary		Get expense by ID
//	@Description	Retrieve one expense record
//	@Tags			expenses
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id	path		string	true	"Expense ID"	format(uuid)
//	@Success		200	{object}	dto.Response{data=ExpenseResponse}
//	@Failure		404	{object}	dto.Response{error=dto.ErrorInfo}
//	@Router			/expenses/{id} [get]
func (h *ExpenseHandler) GetByID(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant context required")
		return
	}

	expenseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid expense ID format")
		return
	}

	expense, err := h.expenseService.GetExpense(c.Request.Context(), tenantID, expenseID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toExpenseResponse(expense))
}

// List godoc
//
//	@ID				listExpenses
//	@Summary		List expenses
//	@Description	List expense records with filtering and pagination
//	@Tags			expenses
//	@Produce		json
//	@Security		BearerAuth
//	@Param			category	query		string	false	"Filter by category"	Enums(MAINTENANCE, UTILITIES, SECURITY, CLEANING, INSURANCE, ADMINISTRATION, OTHER)
//	@Param			from		query		string	false	"Incurred from date (YYYY-MM-DD)"
//	@Param			to			query		string	false	"Incurred to date (YYYY-MM-DD)"
//	@Param			page		query		int		false	"Page number"	default(1)
//	@Param			page_size	query		int		false	"Page size"		default(20)
//	@Success		200			{object}	dto.Response{data=ExpenseListResponse}
//	@Failure		400			{object}	dto.Response{error=dto.ErrorInfo}
//	@Router			/expenses [get]
func (h *ExpenseHandler) List(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant context required")
		return
	}

	var query ExpenseListQuery
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

	filter := finance.ExpenseFilter{
		Page:     query.Page,
		PageSize: query.PageSize,
	}
	if query.Category != "" {
		category := finance.ExpenseCategory(query.Category)
		filter.Category = &category
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

	expenses, total, err := h.expenseService.ListExpenses(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	items := make([]ExpenseResponse, len(expenses))
	for i, e := range expenses {
		items[i] = toExpenseResponse(e)
	}

	h.Success(c, ExpenseListResponse{
		Expenses: items,
		Total:    total,
		Page:     query.Page,
		PageSize: query.PageSize,
	})
}

// Update godoc
//
//	@ID				updateExpense
//	@Summary		Update an expense
//	@Description	Edit an expense's descriptive fields
//	@Tags			expenses
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id		path		string					true	"Expense ID"	format(uuid)
//	@Param			request	body		UpdateExpenseRequest	true	"Updated details"
//	@Success		200		{object}	dto.Response{data=ExpenseResponse}
//	@Failure		400		{object}	dto.Response{error=dto.ErrorInfo}
//	@Failure		404		{object}	dto.Response{error=dto.ErrorInfo}
//	@Router			/expenses/{id} [put]
func (h *ExpenseHandler) Update(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant context required")
		return
	}
	actorID, _ := getUserID(c)

	expenseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid expense ID format")
		return
	}

	var req UpdateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request format: "+err.Error())
		return
	}

	expense, err := h.expenseService.UpdateExpense(c.Request.Context(), tenantID, actorID, appfinance.UpdateExpenseCommand{
		ExpenseID:   expenseID,
		Category:    req.Category,
		Amount:      req.Amount,
		Currency:    req.Currency,
		Description: req.Description,
		Vendor:      req.Vendor,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toExpenseResponse(expense))
}

// Delete godoc
//
//	@ID				deleteExpense
//	@Summary		Delete an expense
//	@Description	Remove an expense record and its stored receipt
//	@Tags			expenses
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id	path		string	true	"Expense ID"	format(uuid)
//	@Success		200	{object}	dto.Response{data=dto.MessageResponse}
//	@Failure		404	{object}	dto.Response{error=dto.ErrorInfo}
//	@Router			/expenses/{id} [delete]
func (h *ExpenseHandler) Delete(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant context required")
		return
	}
	actorID, _ := getUserID(c)

	expenseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid expense ID format")
		return
	}

	if err := h.expenseService.DeleteExpense(c.Request.Context(), tenantID, actorID, expenseID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, dto.MessageResponse{Message: "Expense deleted successfully"})
}

// InitiateReceiptUpload godoc
//
//	@ID				initiateExpenseReceiptUpload
//	@Summary		Request a receipt upload URL
//	@Description	Get a presigned URL for uploading the expense's receipt document
//	@Tags			expenses
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id		path		string							true	"Expense ID"	format(uuid)
//	@Param			request	body		InitiateReceiptUploadRequest	true	"Upload details"
//	@Success		200		{object}	dto.Response{data=ReceiptUploadResponse}
//	@Failure		400		{object}	dto.Response{error=dto.ErrorInfo}
//	@Failure		404		{object}	dto.Response{error=dto.ErrorInfo}
//	@Failure		422		{object}	dto.Response{error=dto.ErrorInfo}
//	@Router			/expenses/{id}/receipt [post]
func (h *ExpenseHandler) InitiateReceiptUpload(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant context required")
		return
	}

	expenseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid expense ID format")
		return
	}

	var req InitiateReceiptUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request format: "+err.Error())
		return
	}

	result, err := h.expenseService.InitiateReceiptUpload(c.Request.Context(), tenantID, expenseID, req.FileName, req.ContentType)
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
//	@ID				confirmExpenseReceipt
//	@Summary		Confirm an uploaded receipt
//	@Description	Link an uploaded receipt object to the expense
//	@Tags			expenses
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id		path		string					true	"Expense ID"	format(uuid)
//	@Param			request	body		ConfirmReceiptRequest	true	"Storage key of the uploaded object"
//	@Success		200		{object}	dto.Response{data=ExpenseResponse}
//	@Failure		400		{object}	dto.Response{error=dto.ErrorInfo}
//	@Failure		404		{object}	dto.Response{error=dto.ErrorInfo}
//	@Failure		422		{object}	dto.Response{error=dto.ErrorInfo}
//	@Router			/expenses/{id}/receipt [put]
func (h *ExpenseHandler) ConfirmReceipt(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant context required")
		return
	}
	actorID, _ := getUserID(c)

	expenseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid expense ID format")
		return
	}

	var req ConfirmReceiptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request format: "+err.Error())
		return
	}

	expense, err := h.expenseService.ConfirmReceipt(c.Request.Context(), tenantID, actorID, expenseID, req.StorageKey)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toExpenseResponse(expense))
}

// GetReceiptURL godoc
//
//	@ID				getExpenseReceiptUrl
//	@Summary		Get a receipt download URL
//	@Description	Get a presigned download URL for the expense's receipt
//	@Tags			expenses
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id	path		string	true	"Expense ID"	format(uuid)
//	@Success		200	{object}	dto.Response{data=ReceiptURLResponse}
//	@Failure		404	{object}	dto.Response{error=dto.ErrorInfo}
//	@Router			/expenses/{id}/receipt [get]
func (h *ExpenseHandler) GetReceiptURL(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant context required")
		return
	}

	expenseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid expense ID format")
		return
	}

	url, expiresAt, err := h.expenseService.GetReceiptURL(c.Request.Context(), tenantID, expenseID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, ReceiptURLResponse{
		DownloadURL: url,
		ExpiresAt:   expiresAt,
	})
}
