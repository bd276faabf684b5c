package repositories

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/impactlink/impactlink/internal/app/models"
	"github.com/impactlink/impactlink/internal/pkg/apperrors"
	"github.com/impactlink/impactlink/internal/pkg/dberrors"
	"github.com/impactlink/impactlink/internal/pkg/logger"
)

var messageColumns = []string{"id", "sender_id", "receiver_id", "content", "read", "created_at"}

func errMessageNotFound() error {
	return apperrors.NewResourceNotFoundError("message not found")
}

// MessageRepository handles direct message database operations
type MessageRepository struct {
	db DBTX
	sb squirrel.StatementBuilderType
}

// NewMessageRepository creates a new MessageRepository
func NewMessageRepository(db DBTX) *MessageRepository {
	return &MessageRepository{db: db, sb: newBuilder()}
}

// Create stores a message
func (r *MessageRepository) Create(ctx context.Context, m *models.Message) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	sql, args, err := r.sb.Insert("messages").
		Columns("id", "sender_id", "receiver_id", "content", "read").
		Values(m.ID, m.SenderID, m.ReceiverID, m.Content, m.Read).
		Suffix("RETURNING created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create message query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&m.CreatedAt); err != nil {
		logger.Error().Err(err).Str("senderID", m.SenderID.String()).Msg("Error creating message")
		return dberrors.Classify(err, errMessageNotFound())
	}
	return nil
}

// GetByID retrieves a message by ID
func (r *MessageRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Message, error) {
	sql, args, err := r.sb.Select(messageColumns...).From("messages").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get message query: %w", err)
	}

	m := &models.Message{}
	err = r.db.QueryRow(ctx, sql, args...).Scan(&m.ID, &m.SenderID, &m.ReceiverID, &m.Content, &m.Read, &m.CreatedAt)
	if err != nil {
		return nil, dberrors.Classify(err, errMessageNotFound())
	}
	return m, nil
}

// Query lists messages matching the filter
func (r *MessageRepository) Query(ctx context.Context, filter MessageFilter) ([]*models.Message, error) {
	q := r.sb.Select(messageColumns...).From("messages").OrderBy(orderBy(filter.Order), "id")
	if filter.Participants != nil {
		a, b := filter.Participants[0], filter.Participants[1]
		q = q.Where(squirrel.Or{
			squirrel.Eq{"sender_id": a, "receiver_id": b},
			squirrel.Eq{"sender_id": b, "receiver_id": a},
		})
	}
	if filter.Involving != nil {
		q = q.Where(squirrel.Or{
			squirrel.Eq{"sender_id": *filter.Involving},
			squirrel.Eq{"receiver_id": *filter.Involving},
		})
	}
	if filter.SenderID != nil {
		q = q.Where(squirrel.Eq{"sender_id": *filter.SenderID})
	}
	if filter.ReceiverID != nil {
		q = q.Where(squirrel.Eq{"receiver_id": *filter.ReceiverID})
	}
	if filter.UnreadOnly {
		q = q.Where(squirrel.Eq{"read": false})
	}
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query messages query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error querying messages")
		return nil, dberrors.Classify(err, errMessageNotFound())
	}
	defer rows.Close()

	messages := []*models.Message{}
	for rows.Next() {
		m := &models.Message{}
		if err := rows.Scan(&m.ID, &m.SenderID, &m.ReceiverID, &m.Content, &m.Read, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, dberrors.Classify(err, errMessageNotFound())
	}
	return messages, nil
}

// MarkRead flags unread messages addressed to receiverID as read, optionally
// narrowed to one sender or one message. It returns the number of rows changed.
func (r *MessageRepository) MarkRead(ctx context.Context, receiverID uuid.UUID, senderID *uuid.UUID, messageID *uuid.UUID) (int64, error) {
	q := r.sb.Update("messages").
		Set("read", true).
		Where(squirrel.Eq{"receiver_id": receiverID, "read": false})
	if senderID != nil {
		q = q.Where(squirrel.Eq{"sender_id": *senderID})
	}
	if messageID != nil {
		q = q.Where(squirrel.Eq{"id": *messageID})
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build mark read query: %w", err)
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Str("receiverID", receiverID.String()).Msg("Error marking messages read")
		return 0, dberrors.Classify(err, errMessageNotFound())
	}
	return tag.RowsAffected(), nil
}
