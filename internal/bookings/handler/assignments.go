package handler

import (
	"net/http"

	"cleanops_backend/internal/bookings/service"
	"cleanops_backend/internal/bookings/transport"
	"cleanops_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

const crewSource = "crew_app"

func (h *Handler) CreateAssignment(c *gin.Context) {
	bookingID, ok := parseID(c)
	if !ok {
		return
	}
	var req transport.CreateAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	assignment, err := h.svc.CreateAssignment(c.Request.Context(), service.CreateAssignmentParams{
		BookingID:   bookingID,
		CleanerID:   req.CleanerID,
		CrewID:      req.CrewID,
		Role:        req.Role,
		Source:      defaultSource,
		ActorUserID: actorID(c),
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, transport.ToAssignmentResponse(assignment))
}

func (h *Handler) ListAssignments(c *gin.Context) {
	bookingID, ok := parseID(c)
	if !ok {
		return
	}
	assignments, err := h.svc.ListAssignments(c.Request.Context(), bookingID)
	if httpkit.HandleError(c, err) {
		return
	}
	out := make([]transport.AssignmentResponse, 0, len(assignments))
	for _, a := range assignments {
		out = append(out, transport.ToAssignmentResponse(a))
	}
	httpkit.OK(c, out)
}

func (h *Handler) AcceptAssignment(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	assignment, err := h.svc.AcceptAssignment(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToAssignmentResponse(assignment))
}

func (h *Handler) DeclineAssignment(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	assignment, err := h.svc.DeclineAssignment(c.Request.Context(), id, crewSource)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToAssignmentResponse(assignment))
}

func (h *Handler) ConfirmAssignment(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	assignment, err := h.svc.ConfirmAssignment(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToAssignmentResponse(assignment))
}

func (h *Handler) CancelAssignment(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	assignment, err := h.svc.CancelAssignment(c.Request.Context(), id, defaultSource)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToAssignmentResponse(assignment))
}

func (h *Handler) ClockIn(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	assignment, err := h.svc.ClockIn(c.Request.Context(), id, crewSource)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToAssignmentResponse(assignment))
}

func (h *Handler) ClockOut(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	assignment, err := h.svc.ClockOut(c.Request.Context(), id, crewSource)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToAssignmentResponse(assignment))
}

func (h *Handler) ListChecklist(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	items, err := h.svc.ListChecklistItems(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	out := make([]transport.ChecklistItemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, transport.ToChecklistItemResponse(item))
	}
	httpkit.OK(c, out)
}

func (h *Handler) AddChecklistItem(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req transport.CreateChecklistItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	item, err := h.svc.AddChecklistItem(c.Request.Context(), id, req.Label)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, transport.ToChecklistItemResponse(item))
}

func (h *Handler) SetChecklistItem(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req transport.SetChecklistItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	item, err := h.svc.SetChecklistItemCompleted(c.Request.Context(), id, *req.IsCompleted)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToChecklistItemResponse(item))
}
