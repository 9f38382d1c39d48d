package models

// AuthLog mirrors logs/auth. Identifier and Timestamp hold obscured text.
type AuthLog struct {
	Identifier string
	Action     string
	Timestamp  string
}

// UserActionLog mirrors logs/user_actions. Action and Timestamp hold
// obscured text.
type UserActionLog struct {
	UserID    string
	Action    string
	Timestamp string
}
