package ws

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"

	"realtime-service/internal/auth"
	"realtime-service/internal/relay"
	"realtime-service/internal/telemetry"
)

// UserSocketHandler serves the personal notification channel: one group per
// user, targeted by server-side pushes such as competition updates.
type UserSocketHandler struct {
	core socketCore
}

// NewUserSocketHandler constructs a UserSocketHandler.
func NewUserSocketHandler(hub *Hub, authenticator *auth.Authenticator, audit *telemetry.AuditEmitter, sendBuffer int) *UserSocketHandler {
	return &UserSocketHandler{
		core: socketCore{hub: hub, authenticator: authenticator, audit: audit, sendBuffer: sendBuffer},
	}
}

// Handle authenticates, upgrades, and joins the principal's personal group.
// No inbound handling; frames are drained.
func (h *UserSocketHandler) Handle(c *gin.Context) {
	ctx, span := otel.Tracer(tracerName).Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	principal, ok := h.core.authenticate(c)
	if !ok {
		return
	}

	h.core.open(c, "user", principal, []string{relay.UserKey(principal.UserID)}, nil)
}
