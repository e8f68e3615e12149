package store

import (
	"context"
	"time"
)

// EntryKind classifies a transcript line.
type EntryKind string

const (
	EntryMessage EntryKind = "message"
	EntryAction  EntryKind = "action"
	EntryNotice  EntryKind = "notice"
	EntryJoin    EntryKind = "join"
	EntryPart    EntryKind = "part"
	EntryKick    EntryKind = "kick"
	EntryQuit    EntryKind = "quit"
	EntryNick    EntryKind = "nick"
	EntryTopic   EntryKind = "topic"
)

// Entry is one persisted line of channel or private traffic.
type Entry struct {
	ID        int64
	Kind      EntryKind
	Target    string // channel or query partner, display form
	TargetKey string // folded form used for lookups
	Nick      string
	Text      string
	CreatedAt time.Time
}

// EntryStore handles transcript persistence.
type EntryStore interface {
	// SaveEntry persists an entry and sets its ID.
	SaveEntry(ctx context.Context, entry *Entry) error

	// ListEntries retrieves entries for a folded target with pagination.
	// If beforeID is provided, returns entries older than that ID.
	// Results are in chronological order.
	ListEntries(ctx context.Context, targetKey string, limit int, beforeID *int64) ([]*Entry, error)

	// ListTargets lists the display names of all targets with entries.
	ListTargets(ctx context.Context) ([]string, error)
}

// Store aggregates all storage interfaces.
type Store interface {
	EntryStore

	// Close closes the underlying database connection.
	Close() error
}
