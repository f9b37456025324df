package store

import (
	"context"
	"fmt"
)

// ChatMessage is one entry of the local assistant conversation log.
type ChatMessage struct {
	ID        int64
	Role      string
	Content   string
	Timestamp string
}

// AddChatMessage appends a message and returns its assigned id.
func (s *Store) AddChatMessage(ctx context.Context, role, content string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO chat_history (role, content) VALUES (?, ?)`, role, content)
	if err != nil {
		return 0, storageErr("add chat message", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, storageErr("add chat message: last insert id", err)
	}
	return id, nil
}

// ListChatHistory returns the last limit messages in chronological order.
func (s *Store) ListChatHistory(ctx context.Context, limit int) ([]ChatMessage, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, role, content, timestamp FROM chat_history
		ORDER BY timestamp DESC, id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, storageErr("query chat history", err)
	}
	defer rows.Close()

	var messages []ChatMessage
	for rows.Next() {
		var m ChatMessage
		if err := rows.Scan(&m.ID, &m.Role, &m.Content, &m.Timestamp); err != nil {
			return nil, fmt.Errorf("scan chat message: %w", err)
		}
		messages = append(messages, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chat history: %w", err)
	}

	// Query returns newest first; flip to chronological for display.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	if messages == nil {
		messages = []ChatMessage{}
	}

	return messages, nil
}

// ClearChatHistory removes every stored message.
func (s *Store) ClearChatHistory(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM chat_history`)
	if err != nil {
		return storageErr("clear chat history", err)
	}
	return nil
}
