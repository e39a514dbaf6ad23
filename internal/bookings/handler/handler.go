// Package handler exposes the bookings module over HTTP.
package handler

import (
	"net/http"
	"strconv"

	"cleanops_backend/internal/bookings/domain"
	"cleanops_backend/internal/bookings/feed"
	"cleanops_backend/internal/bookings/repository"
	"cleanops_backend/internal/bookings/service"
	"cleanops_backend/internal/bookings/transport"
	"cleanops_backend/platform/httpkit"
	"cleanops_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"

	defaultSource = "staff_portal"
)

// Handler serves the bookings HTTP API.
type Handler struct {
	svc  *service.Service
	feed *feed.Service
	val  *validator.Validator
}

// New creates a bookings handler.
func New(svc *service.Service, feedSvc *feed.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, feed: feedSvc, val: val}
}

// RegisterRoutes mounts authenticated booking routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Create)
	rg.GET("/feed", h.Feed)
	rg.GET("/:id", h.Get)
	rg.GET("/:id/timeline", h.Timeline)
	rg.POST("/:id/transition", h.Transition)
	rg.POST("/:id/confirm-card", h.ConfirmCard)
	rg.POST("/:id/cancel", h.Cancel)
	rg.POST("/:id/reschedule", h.Reschedule)
	rg.POST("/:id/recompute-schedule", h.RecomputeSchedule)
	rg.GET("/:id/assignments", h.ListAssignments)
	rg.POST("/:id/assignments", h.CreateAssignment)
}

// RegisterAssignmentRoutes mounts assignment sub-state routes.
func (h *Handler) RegisterAssignmentRoutes(rg *gin.RouterGroup) {
	rg.POST("/:id/accept", h.AcceptAssignment)
	rg.POST("/:id/decline", h.DeclineAssignment)
	rg.POST("/:id/confirm", h.ConfirmAssignment)
	rg.POST("/:id/cancel", h.CancelAssignment)
	rg.POST("/:id/clock-in", h.ClockIn)
	rg.POST("/:id/clock-out", h.ClockOut)
	rg.GET("/:id/checklist", h.ListChecklist)
	rg.POST("/:id/checklist", h.AddChecklistItem)
}

// RegisterChecklistRoutes mounts checklist item routes.
func (h *Handler) RegisterChecklistRoutes(rg *gin.RouterGroup) {
	rg.PATCH("/:id", h.SetChecklistItem)
}

// RegisterAdminRoutes mounts the override and backfill endpoints.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.POST("/bookings/:id/override-transition", h.OverrideTransition)
	rg.POST("/bookings/backfill-legacy-failed", h.BackfillLegacyFailed)
}

func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	booking, err := h.svc.CreateBooking(c.Request.Context(), service.CreateBookingParams{
		CustomerID:         req.CustomerID,
		ServiceDate:        req.ServiceDate,
		ServiceWindowStart: req.ServiceWindowStart,
		ServiceWindowEnd:   req.ServiceWindowEnd,
		AmountCents:        req.AmountCents,
		Source:             sourceOrDefault(req.Source),
		ActorUserID:        actorID(c),
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, transport.ToBookingResponse(booking))
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	booking, err := h.svc.GetBooking(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToBookingResponse(booking))
}

func (h *Handler) Transition(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req transport.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	booking, err := h.svc.Transition(c.Request.Context(), id, service.TransitionParams{
		ToStatus:    domain.Status(req.Status),
		Source:      sourceOrDefault(req.Source),
		Reason:      req.Reason,
		ActorUserID: actorID(c),
		Metadata:    req.Metadata,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToBookingResponse(booking))
}

func (h *Handler) OverrideTransition(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req transport.OverrideTransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	booking, err := h.svc.Transition(c.Request.Context(), id, service.TransitionParams{
		ToStatus:    domain.Status(req.Status),
		Source:      req.Source,
		Reason:      &req.Reason,
		ActorUserID: actorID(c),
		Metadata:    req.Metadata,
		Override:    true,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToBookingResponse(booking))
}

func (h *Handler) ConfirmCard(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	booking, err := h.svc.ConfirmCard(c.Request.Context(), id, defaultSource, actorID(c))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToBookingResponse(booking))
}

func (h *Handler) Cancel(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req transport.CancelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	booking, err := h.svc.Cancel(c.Request.Context(), id, defaultSource, req.Reason, actorID(c))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToBookingResponse(booking))
}

func (h *Handler) Reschedule(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req transport.RescheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	booking, err := h.svc.Reschedule(c.Request.Context(), id, service.RescheduleParams{
		ServiceDate:        req.ServiceDate,
		ServiceWindowStart: req.ServiceWindowStart,
		ServiceWindowEnd:   req.ServiceWindowEnd,
		Reason:             req.Reason,
		Source:             defaultSource,
		ActorUserID:        actorID(c),
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToBookingResponse(booking))
}

func (h *Handler) RecomputeSchedule(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	booking, err := h.svc.RecomputeScheduledState(c.Request.Context(), id, defaultSource, actorID(c))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToBookingResponse(booking))
}

func (h *Handler) Timeline(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	params := repository.ListEventsParams{BookingID: id, Limit: queryLimit(c)}
	cursor, err := feed.DecodeCursor(c.Query("cursor"))
	if httpkit.HandleError(c, err) {
		return
	}
	if cursor != nil {
		params.BeforeCreatedAt = &cursor.CreatedAt
		params.BeforeID = &cursor.ID
	}

	// One extra row decides whether a next page exists.
	params.Limit++
	events, err := h.svc.ListTimeline(c.Request.Context(), params)
	if httpkit.HandleError(c, err) {
		return
	}

	resp := transport.TimelineResponse{Items: make([]transport.TimelineEventResponse, 0, len(events))}
	if len(events) == params.Limit {
		events = events[:params.Limit-1]
		last := events[len(events)-1]
		resp.NextCursor = feed.EncodeCursor(feed.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	for _, e := range events {
		resp.Items = append(resp.Items, transport.ToTimelineEventResponse(e))
	}
	httpkit.OK(c, resp)
}

func (h *Handler) Feed(c *gin.Context) {
	page, err := h.feed.List(c.Request.Context(), feed.Query{
		Limit:  queryLimit(c),
		Cursor: c.Query("cursor"),
		Kind:   c.Query("kind"),
		Stage:  c.Query("stage"),
		Search: c.Query("search"),
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, page)
}

func (h *Handler) BackfillLegacyFailed(c *gin.Context) {
	var req transport.BackfillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	report, err := h.svc.BackfillLegacyFailed(c.Request.Context(), req.DryRun)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, report)
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return uuid.Nil, false
	}
	return id, true
}

func actorID(c *gin.Context) *uuid.UUID {
	identity := httpkit.GetIdentity(c)
	if !identity.IsAuthenticated() {
		return nil
	}
	id := identity.UserID()
	return &id
}

func sourceOrDefault(source string) string {
	if source == "" {
		return defaultSource
	}
	return source
}

func queryLimit(c *gin.Context) int {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit <= 0 {
		return 20
	}
	if limit > 100 {
		return 100
	}
	return limit
}
