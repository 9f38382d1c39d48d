package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/SG-STD/ofox-backend/internal/models"
)

var ErrChatNotFound = errors.New("chat not found")

type ChatRepository struct {
	db DB
}

func NewChatRepository(db DB) *ChatRepository {
	return &ChatRepository{db: db}
}

// CreateIfAbsent stores chat unless a chat with the same id exists and
// reports whether a row was written.
func (r *ChatRepository) CreateIfAbsent(ctx context.Context, chat models.Chat) (bool, error) {
	const query = `
		INSERT INTO chats (id, participants, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO NOTHING
	`
	cmd, err := r.db.Exec(ctx, query, chat.ID, chat.Participants, chat.CreatedAt)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() == 1, nil
}

func (r *ChatRepository) Get(ctx context.Context, id string) (models.Chat, error) {
	var chat models.Chat
	err := r.db.QueryRow(ctx, `SELECT id, participants, created_at FROM chats WHERE id = $1`, id).
		Scan(&chat.ID, &chat.Participants, &chat.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Chat{}, ErrChatNotFound
		}
		return models.Chat{}, err
	}
	return chat, nil
}

// AddMessage appends msg and points the chat's last message at it.
func (r *ChatRepository) AddMessage(ctx context.Context, msg models.Message) error {
	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		const insert = `
			INSERT INTO chat_messages (chat_id, id, sender, text, timestamp, status)
			VALUES ($1, $2, $3, $4, $5, $6)
		`
		if _, err := tx.Exec(ctx, insert, msg.ChatID, msg.ID, msg.Sender, msg.Text, msg.Timestamp, msg.Status); err != nil {
			return err
		}
		cmd, err := tx.Exec(ctx, `UPDATE chats SET last_message = $2 WHERE id = $1`, msg.ChatID, msg.ID)
		if err != nil {
			return err
		}
		if cmd.RowsAffected() == 0 {
			return ErrChatNotFound
		}
		return nil
	})
}

// Recent lists chats that include userID and have at least one message,
// newest last message first.
func (r *ChatRepository) Recent(ctx context.Context, userID string, limit int) ([]models.Chat, error) {
	const query = `
		SELECT c.id, c.participants, c.created_at,
		       m.id, m.sender, m.text, m.timestamp, m.status
		FROM chats c
		JOIN chat_messages m ON m.chat_id = c.id AND m.id = c.last_message
		WHERE $1 = ANY (c.participants)
		ORDER BY m.timestamp DESC
		LIMIT $2
	`
	rows, err := r.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chats []models.Chat
	for rows.Next() {
		var (
			chat models.Chat
			msg  models.Message
		)
		if err := rows.Scan(
			&chat.ID,
			&chat.Participants,
			&chat.CreatedAt,
			&msg.ID,
			&msg.Sender,
			&msg.Text,
			&msg.Timestamp,
			&msg.Status,
		); err != nil {
			return nil, err
		}
		msg.ChatID = chat.ID
		chat.LastMessage = &msg
		chats = append(chats, chat)
	}
	return chats, rows.Err()
}

// Messages returns up to limit of the newest messages in chronological order.
func (r *ChatRepository) Messages(ctx context.Context, chatID string, limit int) ([]models.Message, error) {
	const query = `
		SELECT id, sender, text, timestamp, status FROM (
			SELECT id, sender, text, timestamp, status
			FROM chat_messages
			WHERE chat_id = $1
			ORDER BY timestamp DESC
			LIMIT $2
		) newest
		ORDER BY timestamp ASC
	`
	rows, err := r.db.Query(ctx, query, chatID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		msg := models.Message{ChatID: chatID}
		if err := rows.Scan(&msg.ID, &msg.Sender, &msg.Text, &msg.Timestamp, &msg.Status); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}
