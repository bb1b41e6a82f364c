package model

import "time"

// Notification is the record of a fired reminder. At most one exists per
// agenda; it is never updated or deleted by request handlers.
type Notification struct {
	ID           string    `json:"id"`
	AgendaID     string    `json:"agenda_id"`
	UserID       int64     `json:"user_id"`
	Message      string    `json:"message"`
	WhenToNotify time.Time `json:"when_to_notify"`
	Sent         bool      `json:"sent"`
	SentAt       time.Time `json:"sent_at"`
}
