package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/SG-STD/ofox-backend/internal/apperr"
	"github.com/SG-STD/ofox-backend/internal/ids"
	"github.com/SG-STD/ofox-backend/internal/models"
	"github.com/SG-STD/ofox-backend/internal/repository"
)

const maxMessageLen = 4096

// ChatID joins two user ids in lexical order with '-'. Handles can change
// and be reused, ids cannot.
func ChatID(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + "-" + b
}

type ChatService struct {
	users UserStore
	chats ChatStore
	now   func() time.Time
}

func NewChatService(users UserStore, chats ChatStore) *ChatService {
	return &ChatService{users: users, chats: chats, now: time.Now}
}

// Open returns the one-to-one chat between me and peer, creating it on
// first use.
func (s *ChatService) Open(ctx context.Context, me models.User, peerHandle string) (models.Chat, error) {
	const op = "chat.open"

	peerHandle = strings.TrimSpace(peerHandle)
	if peerHandle == "" || peerHandle == me.Handle {
		return models.Chat{}, apperr.New(apperr.InvalidInput, op, "pick another user to chat with")
	}
	peer, err := s.users.FindByHandle(ctx, peerHandle)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return models.Chat{}, apperr.New(apperr.UserNotFound, op, "user not found")
		}
		return models.Chat{}, apperr.Wrap(apperr.RemoteStoreError, op, err)
	}
	if peer.ID == me.ID {
		return models.Chat{}, apperr.New(apperr.InvalidInput, op, "pick another user to chat with")
	}

	chat := models.Chat{
		ID:           ChatID(me.ID, peer.ID),
		Participants: []string{me.ID, peer.ID},
		CreatedAt:    s.now(),
	}
	if _, err := s.chats.CreateIfAbsent(ctx, chat); err != nil {
		return models.Chat{}, apperr.Wrap(apperr.RemoteStoreError, op, err)
	}
	stored, err := s.chats.Get(ctx, chat.ID)
	if err != nil {
		return models.Chat{}, apperr.Wrap(apperr.RemoteStoreError, op, err)
	}
	return stored, nil
}

func (s *ChatService) member(ctx context.Context, op string, me models.User, chatID string) (models.Chat, error) {
	chat, err := s.chats.Get(ctx, chatID)
	if err != nil {
		if errors.Is(err, repository.ErrChatNotFound) {
			return models.Chat{}, apperr.New(apperr.NotFound, op, "chat not found")
		}
		return models.Chat{}, apperr.Wrap(apperr.RemoteStoreError, op, err)
	}
	for _, p := range chat.Participants {
		if p == me.ID {
			return chat, nil
		}
	}
	return models.Chat{}, apperr.New(apperr.NotFound, op, "chat not found")
}

func (s *ChatService) Send(ctx context.Context, me models.User, chatID, text string) (models.Message, error) {
	const op = "chat.send"

	text = strings.TrimSpace(text)
	if text == "" || len([]rune(text)) > maxMessageLen {
		return models.Message{}, apperr.Newf(apperr.InvalidInput, op, "message must be 1-%d characters", maxMessageLen)
	}
	if _, err := s.member(ctx, op, me, chatID); err != nil {
		return models.Message{}, err
	}

	msg := models.Message{
		ID:        ids.New(),
		ChatID:    chatID,
		Sender:    me.ID,
		Text:      text,
		Timestamp: s.now(),
		Status:    models.MessageStatusSent,
	}
	if err := s.chats.AddMessage(ctx, msg); err != nil {
		return models.Message{}, apperr.Wrap(apperr.RemoteStoreError, op, err)
	}
	return msg, nil
}

// Recent lists the caller's chats that have messages, newest first.
func (s *ChatService) Recent(ctx context.Context, me models.User, limit int) ([]models.Chat, error) {
	chats, err := s.chats.Recent(ctx, me.ID, limit)
	if err != nil {
		return nil, apperr.Wrap(apperr.RemoteStoreError, "chat.recent", err)
	}
	return chats, nil
}

func (s *ChatService) Messages(ctx context.Context, me models.User, chatID string, limit int) ([]models.Message, error) {
	const op = "chat.messages"
	if _, err := s.member(ctx, op, me, chatID); err != nil {
		return nil, err
	}
	msgs, err := s.chats.Messages(ctx, chatID, limit)
	if err != nil {
		return nil, apperr.Wrap(apperr.RemoteStoreError, op, err)
	}
	return msgs, nil
}
