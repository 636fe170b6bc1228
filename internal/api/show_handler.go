package api

import (
	"net/http"

	"github.com/fame-api/internal/models"
	"github.com/fame-api/internal/service"
	"github.com/fame-api/internal/status"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// ShowHandler handles the running order, live board and emergencies
type ShowHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewShowHandler creates a new ShowHandler
func NewShowHandler(services *service.Services, log zerolog.Logger) *ShowHandler {
	return &ShowHandler{
		services: services,
		log:      log.With().Str("handler", "show").Logger(),
	}
}

// GetShowOrder handles GET /api/events/:eventId/show-order?date=
func (h *ShowHandler) GetShowOrder(c *gin.Context) {
	order, err := h.services.ShowOrder.Get(c.Request.Context(), c.Param("eventId"), c.Query("date"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondOK(c, http.StatusOK, order)
}

type reorderRequest struct {
	Date  string               `json:"date"`
	Items []models.ShowItemRef `json:"items"`
}

// ReorderShow handles PUT /api/events/:eventId/show-order
func (h *ShowHandler) ReorderShow(c *gin.Context) {
	var req reorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondMessage(c, http.StatusBadRequest, "body must contain date and items")
		return
	}

	order, err := h.services.ShowOrder.Reorder(c.Request.Context(), c.Param("eventId"), req.Date, req.Items)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	h.log.Info().
		Str("event_id", order.EventID).
		Str("date", order.Date).
		Int("items", len(req.Items)).
		Msg("Show order updated")
	respondOK(c, http.StatusOK, order)
}

type statusRequest struct {
	PerformanceStatus string `json:"performance_status"`
}

// UpdateArtistStatus handles PATCH /api/events/:eventId/artists/:artistId/status
func (h *ShowHandler) UpdateArtistStatus(c *gin.Context) {
	h.updateStatus(c, models.ShowItemArtist, c.Param("artistId"))
}

// UpdateCueStatus handles PATCH /api/events/:eventId/cues/:cueId/status
func (h *ShowHandler) UpdateCueStatus(c *gin.Context) {
	h.updateStatus(c, models.ShowItemCue, c.Param("cueId"))
}

func (h *ShowHandler) updateStatus(c *gin.Context, itemType models.ShowItemType, id string) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondMessage(c, http.StatusBadRequest, "performance_status is required")
		return
	}
	// Labels such as "Next On Deck" are accepted; anything else is left for
	// the service to reject.
	s, ok := status.Parse(req.PerformanceStatus)
	if !ok {
		s = models.ArtistStatus(req.PerformanceStatus)
	}

	item, err := h.services.ShowOrder.UpdateStatus(c.Request.Context(), c.Param("eventId"), itemType, id, s)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondOK(c, http.StatusOK, item)
}

// LiveBoard handles GET /api/events/:eventId/live-board?date=
func (h *ShowHandler) LiveBoard(c *gin.Context) {
	board, err := h.services.ShowOrder.LiveBoard(c.Request.Context(), c.Param("eventId"), c.Query("date"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondOK(c, http.StatusOK, board)
}

// GetEmergency handles GET /api/events/:eventId/emergency. data is null when
// no broadcast is active.
func (h *ShowHandler) GetEmergency(c *gin.Context) {
	b, err := h.services.Emergency.Active(c.Request.Context(), c.Param("eventId"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondOK(c, http.StatusOK, b)
}

type emergencyRequest struct {
	Message       string               `json:"message"`
	EmergencyCode models.EmergencyCode `json:"emergency_code"`
}

// BroadcastEmergency handles POST /api/events/:eventId/emergency
func (h *ShowHandler) BroadcastEmergency(c *gin.Context) {
	var req emergencyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondMessage(c, http.StatusBadRequest, "message and emergency_code are required")
		return
	}

	b, err := h.services.Emergency.Broadcast(c.Request.Context(), c.Param("eventId"), req.Message, req.EmergencyCode, currentSession(c).UserID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	h.log.Warn().
		Str("event_id", b.EventID).
		Str("code", string(b.EmergencyCode)).
		Msg("Emergency broadcast sent")
	respondOK(c, http.StatusCreated, b)
}

// ClearEmergency handles DELETE /api/events/:eventId/emergency
func (h *ShowHandler) ClearEmergency(c *gin.Context) {
	b, err := h.services.Emergency.Clear(c.Request.Context(), c.Param("eventId"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondOK(c, http.StatusOK, b)
}
