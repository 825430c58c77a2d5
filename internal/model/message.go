package model

import "time"

// Message belongs to exactly one contact request. SeenAt is set at most once,
// by the first retrieval of a non-sender participant, and never regresses.
type Message struct {
	ID               string     `json:"id"`
	ContactRequestID string     `json:"contact_request_id"`
	SenderID         string     `json:"sender_id"`
	SenderName       string     `json:"sender_name,omitempty"`
	Text             string     `json:"text"`
	SeenAt           *time.Time `json:"seen_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

// TypingState is a volatile liveness record, one row per (thread, user) pair.
// Every signal overwrites the same row; recency at read time is the signal.
type TypingState struct {
	ContactRequestID string    `json:"contact_request_id"`
	UserID           string    `json:"user_id"`
	UpdatedAt        time.Time `json:"updated_at"`
}
