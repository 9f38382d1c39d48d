package models

import "time"

const MessageStatusSent = "sent"

type Chat struct {
	ID           string
	Participants []string
	CreatedAt    time.Time
	LastMessage  *Message
}

type Message struct {
	ID        string
	ChatID    string
	Sender    string
	Text      string
	Timestamp time.Time
	Status    string
}
