package domain

import "time"

// JournalEntry is a single daily journal record owned by a user. Entries are
// always read and mutated scoped by their owner's id.
type JournalEntry struct {
	ID        string
	UserID    string
	Work      string
	Struggle  string
	Intention string
	CreatedAt time.Time
	UpdatedAt time.Time
}
