// Package worker consumes ledger events and appends them to the audit
// journal. Events carry only identifiers; the worker reads the current
// record from storage so the journal reflects what was actually
// committed.
package worker

import (
	"context"
	"errors"
	"fmt"

	"github.com/404Simon/splitify/internal/amqp"
	"github.com/404Simon/splitify/internal/core"
	"github.com/404Simon/splitify/internal/export"
	"github.com/404Simon/splitify/internal/log"
)

type ExportWorker struct {
	storage Repository
	journal export.JournalWriter
	logger  *log.Logger
}

// Repository is the slice of storage the worker needs to resolve event
// entities.
type Repository interface {
	GetSharedDebt(ctx context.Context, id int64) (core.SharedDebt, error)
	GetTransaction(ctx context.Context, id int64) (core.Transaction, error)
}

func NewExportWorker(storage Repository, journal export.JournalWriter, logger *log.Logger) *ExportWorker {
	return &ExportWorker{
		storage: storage,
		journal: journal,
		logger:  logger.WithComponent(log.ComponentExport),
	}
}

// HandleLedgerEvent resolves the event's entity and appends a journal
// row. Entities that disappeared between publish and consume are
// journaled from the event alone rather than dropped.
func (w *ExportWorker) HandleLedgerEvent(ctx context.Context, msg *amqp.LedgerEventMessage) error {
	entry := export.JournalEntry{
		OccurredAt: msg.Timestamp,
		Kind:       msg.Kind,
		GroupID:    msg.GroupID,
		EntityID:   msg.EntityID,
	}

	switch msg.Kind {
	case amqp.EventDebtCreated, amqp.EventDebtUpdated, amqp.EventRecurringGenerated:
		debt, err := w.storage.GetSharedDebt(ctx, msg.EntityID)
		if err != nil {
			if errors.Is(err, core.ErrNotFound) {
				w.logger.WarnContext(ctx, "debt gone before export, journaling event only",
					"kind", msg.Kind, log.FieldDebtID, msg.EntityID)
				break
			}
			return fmt.Errorf("get shared debt: %w", err)
		}
		entry.Description = debt.Name
		entry.Amount = debt.Amount.String()
	case amqp.EventTransactionCreated:
		tx, err := w.storage.GetTransaction(ctx, msg.EntityID)
		if err != nil {
			if errors.Is(err, core.ErrNotFound) {
				w.logger.WarnContext(ctx, "transaction gone before export, journaling event only",
					"kind", msg.Kind, "transaction_id", msg.EntityID)
				break
			}
			return fmt.Errorf("get transaction: %w", err)
		}
		entry.Description = tx.Description
		entry.Amount = tx.Amount.String()
	case amqp.EventDebtDeleted, amqp.EventTransactionDeleted:
		// Deletions journal the event itself; the record is gone.
	default:
		w.logger.WarnContext(ctx, "unknown ledger event kind, journaling as-is", "kind", msg.Kind)
	}

	ref, err := w.journal.Append(ctx, entry)
	if err != nil {
		return fmt.Errorf("append journal entry: %w", err)
	}

	w.logger.InfoContext(ctx, "journaled ledger event",
		"kind", msg.Kind,
		log.FieldGroupID, msg.GroupID,
		"entity_id", msg.EntityID,
		"journal_ref", ref)

	return nil
}
