package handler

import (
	"time"

	appreport "github.com/armonia/backend/internal/application/report"
	"github.com/gin-gonic/gin"
)

// ReportHandler handles financial report endpoints
type ReportHandler struct {
	BaseHandler
	summaryService *appreport.SummaryService
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(summaryService *appreport.SummaryService) *ReportHandler {
	return &ReportHandler{
		summaryService: summaryService,
	}
}

// FinanceSummaryQuery represents query parameters for the finance summary
type FinanceSummaryQuery struct {
	Period string `form:"period" binding:"required,len=7"`
}

// InvoiceAgingQuery represents query parameters for the aging report
type InvoiceAgingQuery struct {
	AsOf string `form:"as_of" binding:"omitempty"`
}

// GetFinanceSummary godoc
//
//	@ID				getFinanceSummary
//	@Summary		Get the monthly finance summary
//	@Description	Billed, collected, outstanding and expense totals for one billing period
//	@Tags			reports
//	@Produce		json
//	@Security		BearerAuth
//	@Param			period	query		string	true	"Billing period (YYYY-MM)"	example(2025-03)
//	@Success		200		{object}	dto.Response{data=report.FinanceSummary}
//	@Failure		400		{object}	dto.Response{error=dto.ErrorInfo}
//	@Failure		422		{object}	dto.Response{error=dto.ErrorInfo}
//	@Router			/reports/finance/summary [get]
func (h *ReportHandler) GetFinanceSummary(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant context required")
		return
	}

	var query FinanceSummaryQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}

	summary, err := h.summaryService.GenerateSummary(c.Request.Context(), tenantID, query.Period)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, summary)
}

// GetInvoiceAging godoc
//
//	@ID				getInvoiceAging
//	@Summary		Get the invoice aging report
//	@Description	Outstanding invoice amounts bucketed by how overdue they are
//	@Tags			reports
//	@Produce		json
//	@Security		BearerAuth
//	@Param			as_of	query		string	false	"Reference date (YYYY-MM-DD), defaults to today"
//	@Success		200		{object}	dto.Response{data=report.InvoiceAging}
//	@Failure		400		{object}	dto.Response{error=dto.ErrorInfo}
//	@Failure		422		{object}	dto.Response{error=dto.ErrorInfo}
//	@Router			/reports/finance/aging [get]
func (h *ReportHandler) GetInvoiceAging(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant context required")
		return
	}

	var query InvoiceAgingQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}

	asOf := time.Now()
	if query.AsOf != "" {
		parsed, err := time.Parse("2006-01-02", query.AsOf)
		if err != nil {
			h.BadRequest(c, "Invalid as_of date, expected YYYY-MM-DD")
			return
		}
		asOf = parsed
	}

	aging, err := h.summaryService.GetInvoiceAging(c.Request.Context(), tenantID, asOf)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, aging)
}
