package domain

import "time"

// Message is a relayed message as persisted by the store. Immutable once
// persisted; the store assigns ID, unique and monotonic within the store.
type Message struct {
	ID          int64     `json:"id"`
	SenderID    string    `json:"sender_id"`
	SenderName  string    `json:"sender_name"`
	RecipientID string    `json:"recipient_id"`
	Content     string    `json:"content"`
	SenderRole  Role      `json:"sender_role"`
	Timestamp   time.Time `json:"timestamp"`
}

// UserRecord is a directory entry.
type UserRecord struct {
	ID       string
	Username string
	Role     Role
}

// CustomerSummary is a derived view combining a directory record with a
// live presence lookup. Never persisted.
type CustomerSummary struct {
	ID       string
	Username string
	Role     Role
	IsOnline bool
}
