package models

import "time"

// Message is a persisted direct message. Sender and receiver references are
// nullable: a message sent to or from an identity the user directory no
// longer knows is still recorded with a NULL reference.
type Message struct {
	ID             string    `db:"id" json:"id"`
	SenderID       *string   `db:"sender_id" json:"senderId"`
	ReceiverID     *string   `db:"receiver_id" json:"receiverId"`
	Content        string    `db:"content" json:"content"`
	Timestamp      time.Time `db:"timestamp" json:"timestamp"`
	Read           bool      `db:"read" json:"read"`
	ConversationID *string   `db:"conversation_id" json:"conversationId,omitempty"`
}

// Conversation groups the messages between one unordered pair of users.
// UserLow/UserHigh hold the pair in deterministic order so the database can
// enforce at most one conversation per pair.
type Conversation struct {
	ID            string    `db:"id" json:"id"`
	UserLow       string    `db:"user_low" json:"-"`
	UserHigh      string    `db:"user_high" json:"-"`
	LastMessageID *string   `db:"last_message_id" json:"lastMessageId,omitempty"`
	UnreadCount   int       `db:"unread_count" json:"unreadCount"`
	CreatedAt     time.Time `db:"created_at" json:"createdAt"`
}
