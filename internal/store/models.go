package store

import "time"

type User struct {
	ID           string
	Email        string
	DisplayName  string
	PasswordHash string
	Provider     string
	CreatedAt    time.Time
}

// Entry is one journal entry. Entries are append-only: there is no update or
// delete path anywhere in the store. UserID is the partition key and every
// entry query requires it.
type Entry struct {
	ID         string
	UserID     string
	Mood       string
	Text       string
	Sentiment  string
	AIResponse string
	CreatedAt  time.Time
}
