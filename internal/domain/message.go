package domain

import (
	"time"
)

// Message is a contact-form note from any signed-in user to the admins.
type Message struct {
	ID         string    `json:"id"`
	SenderID   string    `json:"senderId"`
	SenderName string    `json:"senderName"`
	Subject    string    `json:"subject"`
	Content    string    `json:"content"`
	SentAt     time.Time `json:"sentAt"`
}

func (m Message) Identity() string {
	return m.ID
}

func (m Message) Owner() string {
	return m.SenderID
}

func (m Message) Label() string {
	return m.Subject
}

type NewMessage struct {
	SenderID   string `json:"senderId" validate:"required"`
	SenderName string `json:"senderName" validate:"required,notblank"`
	Subject    string `json:"subject" validate:"required,notblank,max=255"`
	Content    string `json:"content" validate:"required,notblank,max=10000"`
}
