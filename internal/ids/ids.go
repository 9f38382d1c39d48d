package ids

import (
	"github.com/google/uuid"
	"github.com/segmentio/ksuid"
)

// New returns a time-sortable identifier for user records.
func New() string {
	return ksuid.New().String()
}

// Session returns a random identifier for session records.
func Session() string {
	return uuid.NewString()
}
