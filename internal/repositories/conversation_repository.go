package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"realtime-service/internal/models"
)

var ErrUnknownParticipant = errors.New("unknown participant")

// ConversationRepository is the persistence layer for direct messages and
// their grouping into per-pair conversations.
type ConversationRepository interface {
	// RecordMessage persists a message between sender and receiver, attaching
	// it to the single conversation for that unordered pair (created on first
	// contact). The conversation's unread counter is increment-only; resetting
	// it on read is owned by the REST layer.
	RecordMessage(ctx context.Context, senderID, receiverID, content string) (models.Message, error)
}

// ConversationRepo is a sqlx implementation of ConversationRepository.
type ConversationRepo struct {
	db    *sqlx.DB
	users UserRepository

	// strict rejects messages whose sender or receiver is missing from the
	// user directory. The default mirrors the historical behavior: record
	// the message anyway with a NULL participant reference.
	strict bool
}

// NewConversationRepo constructs a ConversationRepo.
func NewConversationRepo(db *sqlx.DB, users UserRepository, strict bool) *ConversationRepo {
	return &ConversationRepo{db: db, users: users, strict: strict}
}

// RecordMessage stores a message and maintains the pair's conversation
// summary inside a single transaction.
func (r *ConversationRepo) RecordMessage(ctx context.Context, senderID, receiverID, content string) (models.Message, error) {
	senderRef, err := r.resolveParticipant(ctx, senderID)
	if err != nil {
		return models.Message{}, err
	}
	receiverRef, err := r.resolveParticipant(ctx, receiverID)
	if err != nil {
		return models.Message{}, err
	}

	msg := models.Message{
		ID:         uuid.NewString(),
		SenderID:   senderRef,
		ReceiverID: receiverRef,
		Content:    content,
		Timestamp:  time.Now().UTC(),
	}

	userLow, userHigh := orderPair(senderID, receiverID)

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Message{}, fmt.Errorf("record message: %w", err)
	}
	defer tx.Rollback()

	// Upsert so two concurrent first messages between the same pair converge
	// on one conversation row; the no-op DO UPDATE makes RETURNING yield the
	// surviving id either way.
	var conversationID string
	err = tx.QueryRowxContext(ctx,
		`INSERT INTO conversations (id, user_low, user_high) VALUES ($1, $2, $3)
         ON CONFLICT (user_low, user_high) DO UPDATE SET user_low = EXCLUDED.user_low
         RETURNING id`,
		uuid.NewString(), userLow, userHigh).Scan(&conversationID)
	if err != nil {
		return models.Message{}, fmt.Errorf("record message: upsert conversation: %w", err)
	}
	msg.ConversationID = &conversationID

	_, err = tx.ExecContext(ctx,
		`INSERT INTO messages (id, sender_id, receiver_id, content, timestamp, "read", conversation_id)
         VALUES ($1, $2, $3, $4, $5, FALSE, $6)`,
		msg.ID, msg.SenderID, msg.ReceiverID, msg.Content, msg.Timestamp, conversationID)
	if err != nil {
		return models.Message{}, fmt.Errorf("record message: insert: %w", err)
	}

	increment := 0
	if senderID != receiverID {
		increment = 1
	}
	_, err = tx.ExecContext(ctx,
		`UPDATE conversations SET last_message_id=$1, unread_count = unread_count + $2 WHERE id=$3`,
		msg.ID, increment, conversationID)
	if err != nil {
		return models.Message{}, fmt.Errorf("record message: update summary: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return models.Message{}, fmt.Errorf("record message: %w", err)
	}
	return msg, nil
}

func (r *ConversationRepo) resolveParticipant(ctx context.Context, userID string) (*string, error) {
	user, err := r.users.GetUser(ctx, userID)
	if errors.Is(err, ErrUserNotFound) {
		if r.strict {
			return nil, fmt.Errorf("%w: %s", ErrUnknownParticipant, userID)
		}
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolve participant: %w", err)
	}
	id := user.ID
	return &id, nil
}

func orderPair(a, b string) (low, high string) {
	if a <= b {
		return a, b
	}
	return b, a
}
