package ws

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/trace"

	"realtime-service/internal/auth"
	"realtime-service/internal/models"
	"realtime-service/internal/observability"
	"realtime-service/internal/telemetry"
)

const tracerName = "realtime-service/ws"

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// socketCore carries the handshake and lifecycle plumbing shared by the three
// channel handlers.
type socketCore struct {
	hub           *Hub
	authenticator *auth.Authenticator
	audit         *telemetry.AuditEmitter
	sendBuffer    int
}

// authenticate resolves the connection credential. On failure it replies with
// a generic 401: the failure reason is logged but never leaks to the client.
func (s *socketCore) authenticate(c *gin.Context) (models.Principal, bool) {
	principal, err := s.authenticator.Authenticate(c.Request.Context(), rawToken(c))
	if err != nil {
		reason := "error"
		var authErr *auth.Error
		if errors.As(err, &authErr) {
			reason = string(authErr.Reason)
		}
		slog.Warn("websocket authentication failed",
			"reason", reason, "ip", observability.IPFromRequest(c.Request))
		s.audit.Emit(c.Request.Context(), "WARN",
			"websocket authentication failed: "+reason,
			observability.RequestIDFromRequest(c.Request), nil)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return models.Principal{}, false
	}
	return principal, true
}

// open upgrades the connection, joins the given groups, and runs the pumps.
// onMessage handles inbound frames; nil drains them.
func (s *socketCore) open(c *gin.Context, kind string, principal models.Principal, groups []string, onMessage func(*Client, []byte)) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	traceID := ""
	if sc := trace.SpanFromContext(c.Request.Context()).SpanContext(); sc.HasTraceID() {
		traceID = sc.TraceID().String()
	}
	info := ConnInfo{
		ConnID:      newConnID(),
		UserID:      principal.UserID,
		DeviceID:    observability.DeviceIDFromRequest(c.Request),
		IP:          observability.IPFromRequest(c.Request),
		RequestID:   observability.RequestIDFromRequest(c.Request),
		TraceID:     traceID,
		ConnectedAt: time.Now(),
	}

	client := newClient(conn, principal, info, s.sendBuffer)
	for _, groupKey := range groups {
		s.hub.Join(groupKey, client)
	}

	observability.IncWSActive(kind)
	observability.IncWSEvent(kind, "ws_connect")
	s.publishLifecycle(c.Request.Context(), kind, "ws_connect", info, "")
	slog.Info("websocket connected",
		"kind", kind, "conn_id", info.ConnID, "user_id", principal.UserID, "groups", groups)

	go client.writePump()
	go func() {
		readErr := client.readPump(s.hub, func(data []byte) {
			if onMessage != nil {
				onMessage(client, data)
			}
		})

		reason := ""
		if readErr != nil {
			reason = readErr.Error()
			observability.IncWSEvent(kind, "ws_error")
			s.publishLifecycle(context.Background(), kind, "ws_error", info, reason)
		}
		observability.DecWSActive(kind)
		observability.IncWSEvent(kind, "ws_disconnect")
		s.publishLifecycle(context.Background(), kind, "ws_disconnect", info, reason)
		slog.Info("websocket disconnected",
			"kind", kind, "conn_id", info.ConnID, "user_id", principal.UserID, "reason", reason)
	}()
}

func (s *socketCore) publishLifecycle(ctx context.Context, kind, event string, info ConnInfo, reason string) {
	payload := map[string]interface{}{
		"ws": map[string]interface{}{
			"kind":        kind,
			"event":       event,
			"conn_id":     info.ConnID,
			"duration_ms": time.Since(info.ConnectedAt).Milliseconds(),
			"reason":      reason,
		},
		"identity": map[string]interface{}{
			"user_id":   info.UserID,
			"device_id": info.DeviceID,
			"ip":        info.IP,
		},
	}

	headers := observability.BuildHeaders(info.RequestID, info.TraceID)
	_ = observability.PublishEvent(ctx, "ws_events."+kind, observability.EventEnvelope{
		EventType: "ws_events",
		EventName: event,
		Payload:   payload,
	}, headers)
}
