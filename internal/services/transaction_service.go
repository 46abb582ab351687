package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/404Simon/splitify/internal/amqp"
	"github.com/404Simon/splitify/internal/core"
	"github.com/404Simon/splitify/internal/storage"
)

// TransactionService handles direct settle-up payments between group
// members. Transactions are immutable: an edit is a delete plus a
// recreate, so the ledger stays exact.
type TransactionService struct {
	storage    *storage.SQLiteRepository
	amqpClient *amqp.Client
	balances   *BalanceService
}

func NewTransactionService(storage *storage.SQLiteRepository, amqpClient *amqp.Client, balances *BalanceService) *TransactionService {
	return &TransactionService{
		storage:    storage,
		amqpClient: amqpClient,
		balances:   balances,
	}
}

func (s *TransactionService) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}

	ok, err := s.storage.AreGroupMembers(ctx, t.GroupID, []int64{t.PayerID, t.RecipientID})
	if err != nil {
		return core.Transaction{}, fmt.Errorf("check group membership: %w", err)
	}
	if !ok {
		return core.Transaction{}, core.ErrCrossGroupParticipant
	}

	created, err := s.storage.CreateTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}

	s.invalidateAndPublish(ctx, amqp.EventTransactionCreated, created.GroupID, created.ID)
	return created, nil
}

func (s *TransactionService) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	return s.storage.GetTransaction(ctx, id)
}

func (s *TransactionService) ListTransactions(ctx context.Context, groupID int64) ([]core.Transaction, error) {
	return s.storage.ListTransactions(ctx, groupID)
}

func (s *TransactionService) DeleteTransaction(ctx context.Context, id int64) error {
	t, err := s.storage.GetTransaction(ctx, id)
	if err != nil {
		return err
	}

	if err := s.storage.DeleteTransaction(ctx, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}

	s.invalidateAndPublish(ctx, amqp.EventTransactionDeleted, t.GroupID, id)
	return nil
}

func (s *TransactionService) invalidateAndPublish(ctx context.Context, kind string, groupID, entityID int64) {
	if s.balances != nil {
		s.balances.Invalidate(groupID)
	}
	if s.amqpClient == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping ledger event", "kind", kind)
		return
	}
	if err := s.amqpClient.PublishLedgerEvent(ctx, kind, groupID, entityID); err != nil {
		slog.ErrorContext(ctx, "Failed to publish ledger event",
			"kind", kind,
			"group_id", groupID,
			"entity_id", entityID,
			"error", err)
	}
}
