// Package export defines the outbound audit-journal port: an
// append-only log of ledger events kept outside the system of record.
// The ledger never reads anything back from the export.
package export

import (
	"context"
	"time"
)

// JournalEntry is one exported row: what happened, to which entity, in
// which group, and for how much. Amount is the canonical decimal string
// and may be empty for events whose entity no longer exists.
type JournalEntry struct {
	OccurredAt  time.Time
	Kind        string
	GroupID     int64
	EntityID    int64
	Description string
	Amount      string
}

// JournalWriter appends entries to the audit journal and returns an
// adapter-specific row reference.
type JournalWriter interface {
	Append(ctx context.Context, entry JournalEntry) (string, error)
}
