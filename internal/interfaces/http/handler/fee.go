package handler

import (
	appbilling "github.com/armonia/backend/internal/application/billing"
	"github.com/armonia/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// FeeHandler handles fee definition HTTP requests
type FeeHandler struct {
	BaseHandler
	feeService *appbilling.FeeService
}

// NewFeeHandler creates a new fee handler
func NewFeeHandler(feeService *appbilling.FeeService) *FeeHandler {
	return &FeeHandler{
		feeService: feeService,
	}
}

// Create godoc
// @Summary      Create a fee definition
// @Description  Register a recurring charge applied during billing runs
// @Tags         fees
// @Accept       json
// @Produce      json
// @Param        request body CreateFeeRequest true "Fee creation request"
// @Success      201 {object} dto.Response{data=FeeResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /billing/fees [post]
func (h *FeeHandler) Create(c *gin.Context) {
	var req CreateFeeRequest
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

	fee, err := h.feeService.CreateFee(c.Request.Context(), tenantID, actorID, appbilling.CreateFeeCommand{
		Name:       req.Name,
		FeeType:    req.FeeType,
		BaseAmount: req.BaseAmount,
		Currency:   req.Currency,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, toFeeResponse(fee))
}

// GetByID godoc
// @Summary      Get a fee definition
// @Description  Retrieve a fee definition by its ID
// @Tags         fees
// @Produce      json
// @Param        id path string true "Fee ID" format(uuid)
// @Success      200 {object} dto.Response{data=FeeResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /billing/fees/{id} [get]
func (h *FeeHandler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid fee ID")
		return
	}

	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	fee, err := h.feeService.GetFee(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toFeeResponse(fee))
}

// List godoc
// @Summary      List fee definitions
// @Description  Get a paginated list of the complex's fee definitions
// @Tags         fees
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Items per page" default(20) maximum(100)
// @Success      200 {object} dto.Response{data=FeeListResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /billing/fees [get]
func (h *FeeHandler) List(c *gin.Context) {
	var query FeeListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, "Invalid query parameters")
		return
	}

	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	page := query.Page
	if page < 1 {
		page = 1
	}
	pageSize := query.PageSize
	if pageSize < 1 {
		pageSize = 20
	}

	fees, total, err := h.feeService.ListFees(c.Request.Context(), tenantID, page, pageSize)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	responses := make([]FeeResponse, len(fees))
	for i := range fees {
		responses[i] = *toFeeResponse(&fees[i])
	}

	h.Success(c, FeeListResponse{
		Fees:     responses,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	})
}

// Update godoc
// @Summary      Update a fee definition
// @Description  Change the name or base amount of a fee definition
// @Tags         fees
// @Accept       json
// @Produce      json
// @Param        id path string true "Fee ID" format(uuid)
// @Param        request body UpdateFeeRequest true "Fee update request"
// @Success      200 {object} dto.Response{data=FeeResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /billing/fees/{id} [put]
func (h *FeeHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid fee ID")
		return
	}

	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	actorID, _ := getUserID(c)

	var req UpdateFeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	fee, err := h.feeService.UpdateFee(c.Request.Context(), tenantID, actorID, id, appbilling.UpdateFeeCommand{
		Name:       req.Name,
		BaseAmount: req.BaseAmount,
		Currency:   req.Currency,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toFeeResponse(fee))
}

// Activate godoc
// @Summary      Activate a fee definition
// @Description  Include the fee in future billing runs
// @Tags         fees
// @Produce      json
// @Param        id path string true "Fee ID" format(uuid)
// @Success      200 {object} dto.Response
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /billing/fees/{id}/activate [post]
func (h *FeeHandler) Activate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid fee ID")
		return
	}

	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	if err := h.feeService.ActivateFee(c.Request.Context(), tenantID, id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, dto.MessageResponse{Message: "Fee activated"})
}

// Deactivate godoc
// @Summary      Deactivate a fee definition
// @Description  Exclude the fee from future billing runs
// @Tags         fees
// @Produce      json
// @Param        id path string true "Fee ID" format(uuid)
// @Success      200 {object} dto.Response
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /billing/fees/{id}/deactivate [post]
func (h *FeeHandler) Deactivate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid fee ID")
		return
	}

	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	if err := h.feeService.DeactivateFee(c.Request.Context(), tenantID, id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, dto.MessageResponse{Message: "Fee deactivated"})
}
