package relay

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"realtime-service/internal/models"
)

func decode(t *testing.T, payload []byte) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(payload, &out))
	return out
}

func TestEncodeChatMessage(t *testing.T) {
	sender := "alice"
	receiver := "bob"
	msg := models.Message{
		ID:         "m1",
		SenderID:   &sender,
		ReceiverID: &receiver,
		Content:    "hi",
		Timestamp:  time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	payload, err := Encode(ChatMessage{Message: msg})
	require.NoError(t, err)

	out := decode(t, payload)
	assert.Equal(t, "chat_message", out["type"])
	assert.Equal(t, "hi", out["message"])
	assert.Equal(t, "alice", out["senderId"])
	assert.Equal(t, "bob", out["receiverId"])
	assert.Equal(t, "m1", out["id"])
	assert.Equal(t, "2025-03-01T12:00:00Z", out["timestamp"])
}

func TestEncodeChatMessageWithUnresolvedSender(t *testing.T) {
	receiver := "bob"
	msg := models.Message{ID: "m2", ReceiverID: &receiver, Content: "hi", Timestamp: time.Now()}

	payload, err := Encode(ChatMessage{Message: msg})
	require.NoError(t, err)

	out := decode(t, payload)
	assert.Nil(t, out["senderId"])
	assert.Equal(t, "bob", out["receiverId"])
}

func TestEncodeAnnouncementMessage(t *testing.T) {
	schoolID := "s1"
	payload, err := Encode(AnnouncementMessage{Announcement: models.Announcement{
		ID:      "a1",
		Title:   "Exam week",
		Content: "Starts Monday",
		SchoolID: &schoolID,
		Urgent:  true,
	}})
	require.NoError(t, err)

	out := decode(t, payload)
	assert.Equal(t, "announcement_message", out["type"])
	announcement := out["announcement"].(map[string]any)
	assert.Equal(t, "a1", announcement["id"])
	assert.Equal(t, "s1", announcement["schoolId"])
	assert.Equal(t, true, announcement["urgent"])
}

func TestEncodeCompetitionUpdatePreservesPayload(t *testing.T) {
	raw := json.RawMessage(`{"id":"c1","status":"pending"}`)

	payload, err := Encode(CompetitionUpdate{Competition: raw})
	require.NoError(t, err)

	out := decode(t, payload)
	assert.Equal(t, "competition_update", out["type"])
	competition := out["competition"].(map[string]any)
	assert.Equal(t, "c1", competition["id"])
	assert.Equal(t, "pending", competition["status"])
}
