package service

import (
	"context"
	"strconv"
	"time"

	"github.com/SG-STD/ofox-backend/internal/models"
)

// Auditor writes logs/auth and logs/user_actions entries in the
// background with identifying fields obscured.
type Auditor struct {
	store AuditStore
	boot  *Bootstrap
	bg    *Background
	now   func() time.Time
}

func NewAuditor(store AuditStore, boot *Bootstrap, bg *Background) *Auditor {
	return &Auditor{store: store, boot: boot, bg: bg, now: time.Now}
}

func (a *Auditor) timestamp() string {
	return strconv.FormatInt(a.now().UnixMilli(), 10)
}

func (a *Auditor) AuthAttempt(ctx context.Context, identifier, action string) {
	o := a.boot.Obscurer()
	entry := models.AuthLog{
		Identifier: o.Obscure(identifier),
		Action:     action,
		Timestamp:  o.Obscure(a.timestamp()),
	}
	a.bg.Go(ctx, "audit.auth", func(ctx context.Context) error {
		return a.store.InsertAuth(ctx, entry)
	})
}

func (a *Auditor) UserAction(ctx context.Context, userID, action string) {
	o := a.boot.Obscurer()
	entry := models.UserActionLog{
		UserID:    userID,
		Action:    o.Obscure(action),
		Timestamp: o.Obscure(a.timestamp()),
	}
	a.bg.Go(ctx, "audit.user_action", func(ctx context.Context) error {
		return a.store.InsertUserAction(ctx, entry)
	})
}
