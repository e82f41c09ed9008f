package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"realtime-service/internal/models"
	"realtime-service/internal/relay"
	"realtime-service/internal/telemetry"
)

// RelayHandler exposes the inward API the REST layer calls after persisting
// its own rows: announcement broadcast and competition notification.
type RelayHandler struct {
	relay *relay.Relay
	audit *telemetry.AuditEmitter
}

// NewRelayHandler builds a RelayHandler.
func NewRelayHandler(eventRelay *relay.Relay, audit *telemetry.AuditEmitter) *RelayHandler {
	return &RelayHandler{relay: eventRelay, audit: audit}
}

// BroadcastAnnouncement routes a serialized announcement to the global group
// or, when school-bound, to that school's scoped group only.
func (h *RelayHandler) BroadcastAnnouncement(c *gin.Context) {
	var req struct {
		ID        string    `json:"id"`
		Title     string    `json:"title"`
		Content   string    `json:"content" binding:"required"`
		SchoolID  *string   `json:"schoolId"`
		AuthorID  *string   `json:"authorId"`
		CreatedAt time.Time `json:"createdAt"`
		Urgent    bool      `json:"urgent"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	announcement := models.Announcement{
		ID:        req.ID,
		Title:     req.Title,
		Content:   req.Content,
		SchoolID:  req.SchoolID,
		AuthorID:  req.AuthorID,
		CreatedAt: req.CreatedAt,
		Urgent:    req.Urgent,
	}

	fanout, err := h.relay.BroadcastAnnouncement(c.Request.Context(), announcement)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to broadcast announcement"})
		return
	}

	h.audit.Emit(c.Request.Context(), "INFO",
		fmt.Sprintf("announcement %s broadcast", announcement.ID),
		requestIDFromContext(c), userIDFromContext(c))
	c.JSON(http.StatusOK, gin.H{"delivered": fanout.Delivered, "dropped": fanout.Dropped})
}

// NotifyCompetition pushes a competition update to both participants'
// personal groups.
func (h *RelayHandler) NotifyCompetition(c *gin.Context) {
	var req struct {
		SenderID    string          `json:"senderId" binding:"required"`
		ReceiverID  string          `json:"receiverId" binding:"required"`
		Competition json.RawMessage `json:"competition" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	fanout, err := h.relay.NotifyUsers(c.Request.Context(), []string{req.SenderID, req.ReceiverID}, req.Competition)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to notify users"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"delivered": fanout.Delivered, "dropped": fanout.Dropped})
}
