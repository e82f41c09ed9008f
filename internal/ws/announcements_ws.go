package ws

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"

	"realtime-service/internal/auth"
	"realtime-service/internal/relay"
	"realtime-service/internal/telemetry"
)

// AnnouncementSocketHandler serves the broadcast channel. Every connection
// joins the global announcements group; principals with a school affiliation
// also join their school's scoped group.
type AnnouncementSocketHandler struct {
	core socketCore
}

// NewAnnouncementSocketHandler constructs an AnnouncementSocketHandler.
func NewAnnouncementSocketHandler(hub *Hub, authenticator *auth.Authenticator, audit *telemetry.AuditEmitter, sendBuffer int) *AnnouncementSocketHandler {
	return &AnnouncementSocketHandler{
		core: socketCore{hub: hub, authenticator: authenticator, audit: audit, sendBuffer: sendBuffer},
	}
}

// Handle authenticates, upgrades, and joins the announcement groups. Inbound
// frames are accepted and drained; announcements are created through the REST
// layer, which broadcasts via the relay.
func (h *AnnouncementSocketHandler) Handle(c *gin.Context) {
	ctx, span := otel.Tracer(tracerName).Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	principal, ok := h.core.authenticate(c)
	if !ok {
		return
	}

	groups := []string{relay.AnnouncementsKey}
	if principal.SchoolID != nil && *principal.SchoolID != "" {
		groups = append(groups, relay.SchoolAnnouncementsKey(*principal.SchoolID))
	}
	h.core.open(c, "announcements", principal, groups, nil)
}
