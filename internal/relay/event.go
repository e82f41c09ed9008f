package relay

import (
	"encoding/json"
	"fmt"
	"time"

	"realtime-service/internal/models"
)

// Event is the closed set of payloads this service pushes to connections.
// The unexported method keeps the union closed so Encode can match it
// exhaustively.
type Event interface {
	eventType() string
}

// ChatMessage carries a persisted direct message.
type ChatMessage struct {
	Message models.Message
}

func (ChatMessage) eventType() string { return "chat_message" }

// AnnouncementMessage carries a serialized announcement.
type AnnouncementMessage struct {
	Announcement models.Announcement
}

func (AnnouncementMessage) eventType() string { return "announcement_message" }

// CompetitionUpdate carries a competition in the serialized form the REST
// layer handed over; this service does not own or inspect it.
type CompetitionUpdate struct {
	Competition json.RawMessage
}

func (CompetitionUpdate) eventType() string { return "competition_update" }

// Encode serializes an event into its wire form.
func Encode(event Event) ([]byte, error) {
	switch e := event.(type) {
	case ChatMessage:
		return json.Marshal(struct {
			Type       string  `json:"type"`
			Message    string  `json:"message"`
			SenderID   *string `json:"senderId"`
			ReceiverID *string `json:"receiverId"`
			Timestamp  string  `json:"timestamp"`
			ID         string  `json:"id"`
		}{
			Type:       e.eventType(),
			Message:    e.Message.Content,
			SenderID:   e.Message.SenderID,
			ReceiverID: e.Message.ReceiverID,
			Timestamp:  e.Message.Timestamp.Format(time.RFC3339Nano),
			ID:         e.Message.ID,
		})
	case AnnouncementMessage:
		return json.Marshal(struct {
			Type         string              `json:"type"`
			Announcement models.Announcement `json:"announcement"`
		}{Type: e.eventType(), Announcement: e.Announcement})
	case CompetitionUpdate:
		return json.Marshal(struct {
			Type        string          `json:"type"`
			Competition json.RawMessage `json:"competition"`
		}{Type: e.eventType(), Competition: e.Competition})
	default:
		return nil, fmt.Errorf("unhandled event type %T", event)
	}
}
