package handler

import (
	"time"

	appactivity "github.com/armonia/backend/internal/application/activity"
	"github.com/armonia/backend/internal/domain/activity"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ActivityHandler handles activity log endpoints
type ActivityHandler struct {
	BaseHandler
	activityService *appactivity.ActivityService
}

// NewActivityHandler creates a new ActivityHandler
func NewActivityHandler(activityService *appactivity.ActivityService) *ActivityHandler {
	return &ActivityHandler{
		activityService: activityService,
	}
}

// ActivityListQuery represents query parameters for listing activity entries
type ActivityListQuery struct {
	ActorID    string `form:"actor_id" binding:"omitempty,uuid"`
	Action     string `form:"action" binding:"omitempty,max=50"`
	EntityType string `form:"entity_type" binding:"omitempty,max=50"`
	From       string `form:"from" binding:"omitempty"`
	To         string `form:"to" binding:"omitempty"`
	Page       int    `form:"page" binding:"omitempty,min=1"`
	PageSize   int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// ActivityEntryResponse represents one activity log entry
//
//	@Description	Activity log entry
type ActivityEntryResponse struct {
	ID         string            `json:"id"`
	ActorID    string            `json:"actor_id"`
	Action     string            `json:"action" example:"PAYMENT_REGISTERED"`
	EntityType string            `json:"entity_type" example:"Transaction"`
	EntityID   string            `json:"entity_id"`
	Detail     string            `json:"detail"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
}

// ActivityListResponse represents a paginated list of activity entries
type ActivityListResponse struct {
	Entries  []ActivityEntryResponse `json:"entries"`
	Total    int64                   `json:"total"`
	Page     int                     `json:"page"`
	PageSize int                     `json:"page_size"`
}

// List godoc
//
//	@ID				listActivityEntries
//	@Summary		List activity log entries
//	@Description	List audit entries for the tenant, newest first
//	@Tags			activity
//	@Produce		json
//	@Security		BearerAuth
//	@Param			actor_id	query		string	false	"Filter by actor"	format(uuid)
//	@Param			action		query		string	false	"Filter by action"
//	@Param			entity_type	query		string	false	"Filter by entity type"
//	@Param			from		query		string	false	"From date (YYYY-MM-DD)"
//	@Param			to			query		string	false	"To date (YYYY-MM-DD)"
//	@Param			page		query		int		false	"Page number"	default(1)
//	@Param			page_size	query		int		false	"Page size"		default(20)
//	@Success		200			{object}	dto.Response{data=ActivityListResponse}
//	@Failure		400			{object}	dto.Response{error=dto.ErrorInfo}
//	@Failure		422			{object}	dto.Response{error=dto.ErrorInfo}
//	@Router			/activity [get]
func (h *ActivityHandler) List(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant context required")
		return
	}

	var query ActivityListQuery
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

	filter := activity.Filter{
		EntityType: query.EntityType,
		Page:       query.Page,
		PageSize:   query.PageSize,
	}
	if query.ActorID != "" {
		id, _ := uuid.Parse(query.ActorID)
		filter.ActorID = &id
	}
	if query.Action != "" {
		action := activity.Action(query.Action)
		filter.Action = &action
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

	entries, total, err := h.activityService.ListEntries(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	items := make([]ActivityEntryResponse, len(entries))
	for i, entry := range entries {
		items[i] = ActivityEntryResponse{
			ID:         entry.ID.String(),
			ActorID:    entry.ActorID.String(),
			Action:     string(entry.Action),
			EntityType: entry.EntityType,
			EntityID:   entry.EntityID.String(),
			Detail:     entry.Detail,
			Metadata:   entry.Metadata,
			OccurredAt: entry.OccurredAt,
		}
	}

	h.Success(c, ActivityListResponse{
		Entries:  items,
		Total:    total,
		Page:     query.Page,
		PageSize: query.PageSize,
	})
}
