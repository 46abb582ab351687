package worker

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/404Simon/splitify/internal/amqp"
	"github.com/404Simon/splitify/internal/core"
	"github.com/404Simon/splitify/internal/export"
	"github.com/404Simon/splitify/internal/export/memory"
	"github.com/404Simon/splitify/internal/log"
	"github.com/404Simon/splitify/internal/storage"
)

func newTestRepo(t *testing.T) *storage.SQLiteRepository {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func newTestWorker(t *testing.T) (*ExportWorker, *storage.SQLiteRepository, *memory.Store) {
	t.Helper()
	repo := newTestRepo(t)
	journal := memory.New()
	logger := log.New(log.DefaultConfig())
	return NewExportWorker(repo, journal, logger), repo, journal
}

func seedDebt(t *testing.T, repo *storage.SQLiteRepository) core.SharedDebt {
	t.Helper()
	ctx := context.Background()
	alice, err := repo.CreateUser(ctx, "alice")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	group, err := repo.CreateGroup(ctx, "trip", alice.ID)
	if err != nil {
		t.Fatalf("CreateGroup: %v", err)
	}
	amount, err := core.ParseAmount("42.50")
	if err != nil {
		t.Fatalf("ParseAmount: %v", err)
	}
	debt, err := repo.CreateSharedDebt(ctx, core.SharedDebt{
		GroupID:   group.ID,
		CreatedBy: alice.ID,
		Name:      "groceries",
		Amount:    amount,
	}, []core.DebtParticipant{{UserID: alice.ID, Share: amount}})
	if err != nil {
		t.Fatalf("CreateSharedDebt: %v", err)
	}
	return debt
}

func TestHandleLedgerEvent_DebtCreated(t *testing.T) {
	w, repo, journal := newTestWorker(t)
	debt := seedDebt(t, repo)

	msg := amqp.NewLedgerEventMessage(amqp.EventDebtCreated, debt.GroupID, debt.ID)
	if err := w.HandleLedgerEvent(context.Background(), msg); err != nil {
		t.Fatalf("HandleLedgerEvent: %v", err)
	}

	entries := journal.Entries()
	if len(entries) != 1 {
		t.Fatalf("expected 1 journal entry, got %d", len(entries))
	}
	entry := entries[0]
	if entry.Kind != amqp.EventDebtCreated {
		t.Errorf("kind = %q, want %q", entry.Kind, amqp.EventDebtCreated)
	}
	if entry.Description != "groceries" {
		t.Errorf("description = %q, want groceries", entry.Description)
	}
	if entry.Amount != "42.50" {
		t.Errorf("amount = %q, want 42.50", entry.Amount)
	}
	if entry.GroupID != debt.GroupID || entry.EntityID != debt.ID {
		t.Errorf("entry ids = (%d, %d), want (%d, %d)", entry.GroupID, entry.EntityID, debt.GroupID, debt.ID)
	}
}

func TestHandleLedgerEvent_TransactionCreated(t *testing.T) {
	w, repo, journal := newTestWorker(t)
	ctx := context.Background()

	alice, err := repo.CreateUser(ctx, "alice")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	bob, err := repo.CreateUser(ctx, "bob")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	group, err := repo.CreateGroup(ctx, "trip", alice.ID)
	if err != nil {
		t.Fatalf("CreateGroup: %v", err)
	}
	if err := repo.AddGroupMember(ctx, group.ID, bob.ID); err != nil {
		t.Fatalf("AddGroupMember: %v", err)
	}
	amount, err := core.ParseAmount("10.00")
	if err != nil {
		t.Fatalf("ParseAmount: %v", err)
	}
	tx, err := repo.CreateTransaction(ctx, core.Transaction{
		GroupID:     group.ID,
		PayerID:     bob.ID,
		RecipientID: alice.ID,
		Amount:      amount,
		Description: "settle up",
	})
	if err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}

	msg := amqp.NewLedgerEventMessage(amqp.EventTransactionCreated, group.ID, tx.ID)
	if err := w.HandleLedgerEvent(ctx, msg); err != nil {
		t.Fatalf("HandleLedgerEvent: %v", err)
	}

	entries := journal.Entries()
	if len(entries) != 1 {
		t.Fatalf("expected 1 journal entry, got %d", len(entries))
	}
	if entries[0].Description != "settle up" {
		t.Errorf("description = %q, want settle up", entries[0].Description)
	}
	if entries[0].Amount != "10.00" {
		t.Errorf("amount = %q, want 10.00", entries[0].Amount)
	}
}

func TestHandleLedgerEvent_DeletedEntityJournalsEventOnly(t *testing.T) {
	w, _, journal := newTestWorker(t)

	msg := amqp.NewLedgerEventMessage(amqp.EventDebtDeleted, 7, 99)
	if err := w.HandleLedgerEvent(context.Background(), msg); err != nil {
		t.Fatalf("HandleLedgerEvent: %v", err)
	}

	entries := journal.Entries()
	if len(entries) != 1 {
		t.Fatalf("expected 1 journal entry, got %d", len(entries))
	}
	entry := entries[0]
	if entry.Description != "" || entry.Amount != "" {
		t.Errorf("deleted event should journal ids only, got %+v", entry)
	}
	if entry.GroupID != 7 || entry.EntityID != 99 {
		t.Errorf("entry ids = (%d, %d), want (7, 99)", entry.GroupID, entry.EntityID)
	}
}

func TestHandleLedgerEvent_MissingDebtFallsBack(t *testing.T) {
	w, _, journal := newTestWorker(t)

	msg := amqp.NewLedgerEventMessage(amqp.EventDebtCreated, 3, 12345)
	if err := w.HandleLedgerEvent(context.Background(), msg); err != nil {
		t.Fatalf("HandleLedgerEvent: %v", err)
	}

	entries := journal.Entries()
	if len(entries) != 1 {
		t.Fatalf("expected 1 journal entry, got %d", len(entries))
	}
	if entries[0].Amount != "" {
		t.Errorf("missing debt should leave amount empty, got %q", entries[0].Amount)
	}
}

func TestMemoryStore_References(t *testing.T) {
	store := memory.New()
	var last string
	for i := 1; i <= 3; i++ {
		ref, err := store.Append(context.Background(), export.JournalEntry{
			OccurredAt: time.Now(),
			Kind:       amqp.EventDebtCreated,
		})
		if err != nil {
			t.Fatalf("Append: %v", err)
		}
		last = ref
	}
	if last != "mem:3" {
		t.Errorf("ref = %q, want mem:3", last)
	}
	if got := len(store.Entries()); got != 3 {
		t.Fatalf("expected 3 entries, got %d", got)
	}
}
