package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/SG-STD/ofox-backend/internal/cache"
	mailer "github.com/SG-STD/ofox-backend/internal/mail"
	"github.com/SG-STD/ofox-backend/internal/models"
	"github.com/SG-STD/ofox-backend/internal/repository"
)

type memUsers struct {
	mu      sync.Mutex
	byID    map[string]models.User
	pending *memPending
	err     error
}

func newMemUsers(pending *memPending) *memUsers {
	return &memUsers{byID: map[string]models.User{}, pending: pending}
}

func (m *memUsers) put(u models.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[u.ID] = u
}

func (m *memUsers) find(match func(models.User) bool) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return models.User{}, m.err
	}
	for _, u := range m.byID {
		if match(u) {
			return u, nil
		}
	}
	return models.User{}, repository.ErrUserNotFound
}

func (m *memUsers) FindByEmail(_ context.Context, email string) (models.User, error) {
	return m.find(func(u models.User) bool { return u.Email == email })
}

func (m *memUsers) FindByHandle(_ context.Context, handle string) (models.User, error) {
	return m.find(func(u models.User) bool { return u.Handle == handle })
}

func (m *memUsers) GetByID(_ context.Context, id string) (models.User, error) {
	return m.find(func(u models.User) bool { return u.ID == id })
}

func (m *memUsers) EmailExists(ctx context.Context, email string) (bool, error) {
	_, err := m.FindByEmail(ctx, email)
	return exists(err)
}

func (m *memUsers) HandleExists(ctx context.Context, handle string) (bool, error) {
	_, err := m.FindByHandle(ctx, handle)
	return exists(err)
}

func exists(err error) (bool, error) {
	if err == nil {
		return true, nil
	}
	if errors.Is(err, repository.ErrUserNotFound) {
		return false, nil
	}
	return false, err
}

func (m *memUsers) CreateFromPending(ctx context.Context, user models.User, emailKey string) error {
	m.mu.Lock()
	for _, u := range m.byID {
		if u.Email == user.Email || u.Handle == user.Handle {
			m.mu.Unlock()
			return repository.ErrDuplicate
		}
	}
	m.byID[user.ID] = user
	m.mu.Unlock()
	if m.pending != nil {
		return m.pending.Delete(ctx, emailKey)
	}
	return nil
}

func (m *memUsers) update(id string, fn func(*models.User)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	fn(&u)
	m.byID[id] = u
	return nil
}

func (m *memUsers) UpdateLastLogin(_ context.Context, id string, at time.Time) error {
	return m.update(id, func(u *models.User) { u.LastLoginAt = &at; u.LastSeenAt = &at })
}

func (m *memUsers) TouchLastSeen(_ context.Context, id string, at time.Time) error {
	return m.update(id, func(u *models.User) { u.LastSeenAt = &at })
}

func (m *memUsers) UpdateProfile(_ context.Context, id string, handle, status *string) error {
	return m.update(id, func(u *models.User) {
		if handle != nil {
			u.Handle = *handle
		}
		if status != nil {
			u.Status = *status
		}
	})
}

func (m *memUsers) SetProfilePicture(_ context.Context, id, url string) error {
	return m.update(id, func(u *models.User) { u.ProfilePicture = url })
}

func (m *memUsers) SetFCMToken(_ context.Context, id, token string) error {
	return m.update(id, func(u *models.User) { u.FCMToken = &token })
}

func (m *memUsers) Search(_ context.Context, query, excludeID string, limit, offset int) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.User
	for _, u := range m.byID {
		if u.ID == excludeID || !strings.Contains(strings.ToLower(u.Handle), strings.ToLower(query)) {
			continue
		}
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Handle < out[j].Handle })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

type memSessions struct {
	mu    sync.Mutex
	items []models.Session
}

func (m *memSessions) Create(_ context.Context, s models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.CreatedAt = time.Now()
	s.LastActiveAt = s.CreatedAt
	m.items = append(m.items, s)
	return nil
}

func (m *memSessions) CountByHandle(_ context.Context, handle string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, s := range m.items {
		if s.Handle == handle {
			n++
		}
	}
	return n, nil
}

func (m *memSessions) DeleteOldestSessions(_ context.Context, handle string, keep int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var mine, rest []models.Session
	for _, s := range m.items {
		if s.Handle == handle {
			mine = append(mine, s)
		} else {
			rest = append(rest, s)
		}
	}
	if len(mine) > keep {
		mine = mine[len(mine)-keep:]
	}
	m.items = append(rest, mine...)
	return nil
}

func (m *memSessions) GetByID(_ context.Context, id string) (models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.items {
		if s.ID == id {
			return s, nil
		}
	}
	return models.Session{}, repository.ErrSessionNotFound
}

func (m *memSessions) DeleteByID(_ context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, s := range m.items {
		if s.ID == id && s.UserID == userID {
			m.items = append(m.items[:i], m.items[i+1:]...)
			return nil
		}
	}
	return repository.ErrSessionNotFound
}

func (m *memSessions) ListByHandle(_ context.Context, handle string) ([]models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Session
	for _, s := range m.items {
		if s.Handle == handle {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memSessions) Touch(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.items {
		if m.items[i].ID == id {
			m.items[i].LastActiveAt = time.Now()
		}
	}
	return nil
}

func (m *memSessions) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

type memPending struct {
	mu    sync.Mutex
	items map[string]models.PendingRegistration
}

func newMemPending() *memPending {
	return &memPending{items: map[string]models.PendingRegistration{}}
}

func (m *memPending) Save(_ context.Context, p models.PendingRegistration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[p.EmailKey] = p
	return nil
}

func (m *memPending) Get(_ context.Context, key string) (models.PendingRegistration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.items[key]
	if !ok {
		return models.PendingRegistration{}, repository.ErrPendingNotFound
	}
	return p, nil
}

func (m *memPending) UpdateCode(_ context.Context, key, code string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.items[key]
	if !ok {
		return repository.ErrPendingNotFound
	}
	p.Code = code
	p.ExpiresAt = expiresAt
	m.items[key] = p
	return nil
}

func (m *memPending) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, key)
	return nil
}

func (m *memPending) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.items[key]
	return ok
}

type memConfig map[string]string

func (m memConfig) Get(_ context.Context, path string) (string, error) {
	v, ok := m[path]
	if !ok {
		return "", repository.ErrConfigNotFound
	}
	return v, nil
}

type memAudit struct {
	mu      sync.Mutex
	auth    []models.AuthLog
	actions []models.UserActionLog
}

func (m *memAudit) InsertAuth(_ context.Context, e models.AuthLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.auth = append(m.auth, e)
	return nil
}

func (m *memAudit) InsertUserAction(_ context.Context, e models.UserActionLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.actions = append(m.actions, e)
	return nil
}

type memChats struct {
	mu       sync.Mutex
	chats    map[string]models.Chat
	messages map[string][]models.Message
}

func newMemChats() *memChats {
	return &memChats{chats: map[string]models.Chat{}, messages: map[string][]models.Message{}}
}

func (m *memChats) CreateIfAbsent(_ context.Context, chat models.Chat) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.chats[chat.ID]; ok {
		return false, nil
	}
	m.chats[chat.ID] = chat
	return true, nil
}

func (m *memChats) Get(_ context.Context, id string) (models.Chat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.chats[id]
	if !ok {
		return models.Chat{}, repository.ErrChatNotFound
	}
	return c, nil
}

func (m *memChats) AddMessage(_ context.Context, msg models.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.chats[msg.ChatID]
	if !ok {
		return repository.ErrChatNotFound
	}
	m.messages[msg.ChatID] = append(m.messages[msg.ChatID], msg)
	last := msg
	c.LastMessage = &last
	m.chats[msg.ChatID] = c
	return nil
}

func (m *memChats) Recent(_ context.Context, userID string, limit int) ([]models.Chat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Chat
	for _, c := range m.chats {
		if c.LastMessage == nil {
			continue
		}
		for _, p := range c.Participants {
			if p == userID {
				out = append(out, c)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].LastMessage.Timestamp.After(out[j].LastMessage.Timestamp)
	})
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (m *memChats) Messages(_ context.Context, chatID string, limit int) ([]models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	msgs := m.messages[chatID]
	if limit < len(msgs) {
		msgs = msgs[len(msgs)-limit:]
	}
	return append([]models.Message(nil), msgs...), nil
}

type fakeImages struct {
	mu   sync.Mutex
	keys []string
	err  error
}

func (f *fakeImages) PutProfileImage(_ context.Context, userID, imageID string, _ []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	key := "profile_images/" + userID + "/" + imageID + ".jpg"
	f.keys = append(f.keys, key)
	return "https://cdn.test/" + key, nil
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []mailer.Verification
	err  error
}

func (f *fakeMailer) SendVerification(_ context.Context, v mailer.Verification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, v)
	return nil
}

func (f *fakeMailer) last() mailer.Verification {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sent[len(f.sent)-1]
}

type memProfiles struct {
	mu    sync.Mutex
	items map[string]cache.Profile
}

func newMemProfiles() *memProfiles {
	return &memProfiles{items: map[string]cache.Profile{}}
}

func (m *memProfiles) Get(_ context.Context, id string) (cache.Profile, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.items[id]
	return p, ok, nil
}

func (m *memProfiles) Set(_ context.Context, p cache.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[p.UserID] = p
	return nil
}

func (m *memProfiles) Invalidate(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, id)
	return nil
}

// jpegBytes is the smallest payload the sniffer accepts as JPEG.
var jpegBytes = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}

type harness struct {
	users    *memUsers
	sessions *memSessions
	pending  *memPending
	config   memConfig
	audit    *memAudit
	chats    *memChats
	images   *fakeImages
	mail     *fakeMailer
	profiles *memProfiles
	bg       *Background
	boot     *Bootstrap
	auditor  *Auditor
}

func newHarness() *harness {
	log := zerolog.Nop()
	h := &harness{
		pending:  newMemPending(),
		sessions: &memSessions{},
		config:   memConfig{repository.PathEncryptionKey: "test-secret"},
		audit:    &memAudit{},
		chats:    newMemChats(),
		images:   &fakeImages{},
		mail:     &fakeMailer{},
		profiles: newMemProfiles(),
		bg:       NewBackground(time.Second, log),
	}
	h.users = newMemUsers(h.pending)
	h.boot = NewBootstrap(h.config, log)
	h.auditor = NewAuditor(h.audit, h.boot, h.bg)
	return h
}
