package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"

	"realtime-service/internal/auth"
	"realtime-service/internal/relay"
	"realtime-service/internal/telemetry"
)

// ChatSocketHandler serves the per-pair chat channel. The pair group key is
// derived from the authenticated principal and the counterpart id in the
// route, so both participants land in the same group.
type ChatSocketHandler struct {
	core  socketCore
	relay *relay.Relay
}

// NewChatSocketHandler constructs a ChatSocketHandler.
func NewChatSocketHandler(hub *Hub, authenticator *auth.Authenticator, audit *telemetry.AuditEmitter, eventRelay *relay.Relay, sendBuffer int) *ChatSocketHandler {
	return &ChatSocketHandler{
		core:  socketCore{hub: hub, authenticator: authenticator, audit: audit, sendBuffer: sendBuffer},
		relay: eventRelay,
	}
}

// Handle authenticates, upgrades, and joins the pair's group.
func (h *ChatSocketHandler) Handle(c *gin.Context) {
	counterpartID := c.Param("counterpart_id")
	if counterpartID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid counterpart id"})
		return
	}

	ctx, span := otel.Tracer(tracerName).Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	principal, ok := h.core.authenticate(c)
	if !ok {
		return
	}

	groupKey := relay.ChatPairKey(principal.UserID, counterpartID)
	h.core.open(c, "chat", principal, []string{groupKey}, func(client *Client, data []byte) {
		h.inbound(client, groupKey, data)
	})
}

type chatInbound struct {
	Message        string `json:"message"`
	RecipientID    string `json:"recipientId"`
	RecipientIDAlt string `json:"recipient_id"`
}

// inbound records and relays one client frame. Malformed frames are dropped
// silently; a persistence failure skips the broadcast but keeps the
// connection open for later attempts.
func (h *ChatSocketHandler) inbound(client *Client, groupKey string, data []byte) {
	var in chatInbound
	if err := json.Unmarshal(data, &in); err != nil {
		return
	}
	recipientID := in.RecipientID
	if recipientID == "" {
		recipientID = in.RecipientIDAlt
	}
	if in.Message == "" || recipientID == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := h.relay.RecordAndRelayChat(ctx, groupKey, client.principal.UserID, recipientID, in.Message); err != nil {
		slog.Warn("chat message not relayed",
			"group", groupKey, "sender_id", client.principal.UserID, "error", err)
	}
}
