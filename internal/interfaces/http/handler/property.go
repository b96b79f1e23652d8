package handler

import (
	appproperty "github.com/armonia/backend/internal/application/property"
	"github.com/armonia/backend/internal/domain/property"
	"github.com/armonia/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// PropertyHandler handles property (unit) HTTP requests
type PropertyHandler struct {
	BaseHandler
	propertyService *appproperty.PropertyService
}

// NewPropertyHandler creates a new property handler
func NewPropertyHandler(propertyService *appproperty.PropertyService) *PropertyHandler {
	return &PropertyHandler{
		propertyService: propertyService,
	}
}

// Register godoc
// @Summary      Register a property
// @Description  Register a new unit in the complex
// @Tags         properties
// @Accept       json
// @Produce      json
// @Param        request body RegisterPropertyRequest true "Property registration request"
// @Success      201 {object} dto.Response{data=PropertyResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /properties [post]
func (h *PropertyHandler) Register(c *gin.Context) {
	var req RegisterPropertyRequest
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

	cmd := appproperty.RegisterPropertyCommand{
		UnitNumber:   req.UnitNumber,
		PropertyType: req.PropertyType,
		Area:         req.Area,
		OwnerName:    req.OwnerName,
		OwnerEmail:   req.OwnerEmail,
		Coefficient:  req.Coefficient,
	}

	prop, err := h.propertyService.RegisterProperty(c.Request.Context(), tenantID, actorID, cmd)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, toPropertyResponse(prop))
}

// GetByID godoc
// @Summary      Get a property
// @Description  Retrieve a unit by its ID
// @Tags         properties
// @Produce      json
// @Param        id path string true "Property ID" format(uuid)
// @Success      200 {object} dto.Response{data=PropertyResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /properties/{id} [get]
func (h *PropertyHandler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid property ID")
		return
	}

	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	prop, err := h.propertyService.GetProperty(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toPropertyResponse(prop))
}

// GetByUnitNumber godoc
// @Summary      Get a property by unit number
// @Description  Retrieve a unit by its unit number
// @Tags         properties
// @Produce      json
// @Param        unitNumber path string true "Unit number"
// @Success      200 {object} dto.Response{data=PropertyResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /properties/unit/{unitNumber} [get]
func (h *PropertyHandler) GetByUnitNumber(c *gin.Context) {
	unitNumber := c.Param("unitNumber")
	if unitNumber == "" {
		h.BadRequest(c, "Unit number is required")
		return
	}

	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	prop, err := h.propertyService.GetByUnitNumber(c.Request.Context(), tenantID, unitNumber)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toPropertyResponse(prop))
}

// List godoc
// @Summary      List properties
// @Description  Get a paginated list of units in the complex
// @Tags         properties
// @Produce      json
// @Param        status query string false "Property status" Enums(ACTIVE, INACTIVE)
// @Param        type query string false "Property type" Enums(APARTMENT, HOUSE, PARKING, COMMERCIAL, STORAGE)
// @Param        owner_user_id query string false "Owner user ID" format(uuid)
// @Param        search query string false "Search by unit number or owner name"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Items per page" default(20) maximum(100)
// @Success      200 {object} dto.Response{data=PropertyListResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /properties [get]
func (h *PropertyHandler) List(c *gin.Context) {
	var query PropertyListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, "Invalid query parameters")
		return
	}

	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	filter := property.PropertyFilter{
		Search:   query.Search,
		Page:     query.Page,
		PageSize: query.PageSize,
	}
	if query.Status != "" {
		status := property.PropertyStatus(query.Status)
		filter.Status = &status
	}
	if query.Type != "" {
		propType := property.PropertyType(query.Type)
		filter.Type = &propType
	}
	if query.OwnerUserID != "" {
		ownerID, err := uuid.Parse(query.OwnerUserID)
		if err != nil {
			h.BadRequest(c, "Invalid owner user ID")
			return
		}
		filter.OwnerUserID = &ownerID
	}

	properties, total, err := h.propertyService.ListProperties(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	responses := make([]PropertyResponse, len(properties))
	for i, p := range properties {
		responses[i] = *toPropertyResponse(p)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = 20
	}

	h.Success(c, PropertyListResponse{
		Properties: responses,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
	})
}

// Update godoc
// @Summary      Update a property
// @Description  Update a unit's owner and area data
// @Tags         properties
// @Accept       json
// @Produce      json
// @Param        id path string true "Property ID" format(uuid)
// @Param        request body UpdatePropertyRequest true "Property update request"
// @Success      200 {object} dto.Response{data=PropertyResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /properties/{id} [put]
func (h *PropertyHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid property ID")
		return
	}

	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req UpdatePropertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	cmd := appproperty.UpdatePropertyCommand{
		PropertyID:  id,
		OwnerName:   req.OwnerName,
		OwnerEmail:  req.OwnerEmail,
		Area:        req.Area,
		Coefficient: req.Coefficient,
	}
	if req.OwnerUserID != nil {
		ownerID, err := uuid.Parse(*req.OwnerUserID)
		if err != nil {
			h.BadRequest(c, "Invalid owner user ID")
			return
		}
		cmd.OwnerUserID = &ownerID
	}

	prop, err := h.propertyService.UpdateProperty(c.Request.Context(), tenantID, cmd)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toPropertyResponse(prop))
}

// Activate godoc
// @Summary      Activate a property
// @Description  Include the unit in billing runs
// @Tags         properties
// @Produce      json
// @Param        id path string true "Property ID" format(uuid)
// @Success      200 {object} dto.Response
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /properties/{id}/activate [post]
func (h *PropertyHandler) Activate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid property ID")
		return
	}

	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	if err := h.propertyService.ActivateProperty(c.Request.Context(), tenantID, id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, dto.MessageResponse{Message: "Property activated"})
}

// Deactivate godoc
// @Summary      Deactivate a property
// @Description  Exclude the unit from future billing runs
// @Tags         properties
// @Produce      json
// @Param        id path string true "Property ID" format(uuid)
// @Success      200 {object} dto.Response
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /properties/{id}/deactivate [post]
func (h *PropertyHandler) Deactivate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid property ID")
		return
	}

	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	if err := h.propertyService.DeactivateProperty(c.Request.Context(), tenantID, id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, dto.MessageResponse{Message: "Property deactivated"})
}

// Count godoc
// @Summary      Get property count
// @Description  Get the total number of units in the complex
// @Tags         properties
// @Produce      json
// @Success      200 {object} dto.Response{data=object{count=int64}}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /properties/stats/count [get]
func (h *PropertyHandler) Count(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	count, err := h.propertyService.Count(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, gin.H{"count": count})
}
