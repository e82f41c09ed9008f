package relay

import (
	"context"
	"encoding/json"
	"log/slog"

	"realtime-service/internal/models"
	"realtime-service/internal/observability"
	"realtime-service/internal/repositories"
)

// Registry is the fan-out surface the relay pushes serialized events to.
// *ws.Hub satisfies it.
type Registry interface {
	Send(groupKey string, payload []byte) (delivered, dropped int)
}

// Fanout aggregates per-recipient delivery outcomes. Dropped recipients have
// already been evicted from the registry; a drop is never an operation error.
type Fanout struct {
	Delivered int
	Dropped   int
}

// Relay routes domain events to their groups, persisting chat state first.
type Relay struct {
	registry      Registry
	conversations repositories.ConversationRepository
}

// New constructs a Relay.
func New(registry Registry, conversations repositories.ConversationRepository) *Relay {
	return &Relay{registry: registry, conversations: conversations}
}

// RecordAndRelayChat persists a direct message and fans it out to the pair's
// group, which includes the sender's own connection. A persistence failure
// aborts the broadcast entirely.
func (r *Relay) RecordAndRelayChat(ctx context.Context, groupKey, senderID, receiverID, content string) (models.Message, error) {
	msg, err := r.conversations.RecordMessage(ctx, senderID, receiverID, content)
	if err != nil {
		return models.Message{}, err
	}

	payload, err := Encode(ChatMessage{Message: msg})
	if err != nil {
		return models.Message{}, err
	}

	delivered, dropped := r.registry.Send(groupKey, payload)
	observability.AddRelayDeliveries("chat_message", delivered, dropped)
	slog.Debug("chat message relayed",
		"group", groupKey, "message_id", msg.ID, "delivered", delivered, "dropped", dropped)
	return msg, nil
}

// BroadcastAnnouncement routes an announcement to the global group, or to its
// school's scoped group only when the announcement is school-bound.
func (r *Relay) BroadcastAnnouncement(ctx context.Context, announcement models.Announcement) (Fanout, error) {
	payload, err := Encode(AnnouncementMessage{Announcement: announcement})
	if err != nil {
		return Fanout{}, err
	}

	groupKey := AnnouncementsKey
	if announcement.SchoolID != nil && *announcement.SchoolID != "" {
		groupKey = SchoolAnnouncementsKey(*announcement.SchoolID)
	}

	delivered, dropped := r.registry.Send(groupKey, payload)
	observability.AddRelayDeliveries("announcement_message", delivered, dropped)
	slog.Info("announcement relayed",
		"group", groupKey, "announcement_id", announcement.ID, "delivered", delivered, "dropped", dropped)
	return Fanout{Delivered: delivered, Dropped: dropped}, nil
}

// NotifyUsers pushes a competition update to each user's personal group, so
// both sides of a competition see the change even though only one of them
// made the REST call.
func (r *Relay) NotifyUsers(ctx context.Context, userIDs []string, competition json.RawMessage) (Fanout, error) {
	payload, err := Encode(CompetitionUpdate{Competition: competition})
	if err != nil {
		return Fanout{}, err
	}

	var fanout Fanout
	for _, userID := range userIDs {
		delivered, dropped := r.registry.Send(UserKey(userID), payload)
		fanout.Delivered += delivered
		fanout.Dropped += dropped
	}
	observability.AddRelayDeliveries("competition_update", fanout.Delivered, fanout.Dropped)
	slog.Info("competition update relayed",
		"users", len(userIDs), "delivered", fanout.Delivered, "dropped", fanout.Dropped)
	return fanout, nil
}
