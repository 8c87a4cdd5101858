package repository

import (
	"context"

	"microwallet/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ChatRepository stores the chat transcript per user
type ChatRepository struct {
	db *pgxpool.Pool
}

func NewChatRepository(db *pgxpool.Pool) *ChatRepository {
	return &ChatRepository{db: db}
}

func (r *ChatRepository) AppendMessage(ctx context.Context, m *domain.ChatMessage) error {
	return r.db.QueryRow(ctx, `
		INSERT INTO chat_messages (user_id, role, content)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, m.UserID, m.Role, m.Content).Scan(&m.ID, &m.CreatedAt)
}

// RecentMessages returns the last limit messages in chronological order
func (r *ChatRepository) RecentMessages(ctx context.Context, userID int64, limit int) ([]domain.ChatMessage, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, role, content, created_at FROM (
			SELECT id, user_id, role, content, created_at
			FROM chat_messages
			WHERE user_id = $1
			ORDER BY created_at DESC, id DESC
			LIMIT $2
		) recent
		ORDER BY created_at ASC, id ASC
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := []domain.ChatMessage{}
	for rows.Next() {
		var m domain.ChatMessage
		if err := rows.Scan(&m.ID, &m.UserID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

func (r *ChatRepository) ClearMessages(ctx context.Context, userID int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM chat_messages WHERE user_id = $1`, userID)
	return err
}
