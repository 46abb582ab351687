package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/404Simon/splitify/internal/amqp"
	"github.com/404Simon/splitify/internal/core"
	"github.com/404Simon/splitify/internal/ledger"
	"github.com/404Simon/splitify/internal/storage"
)

// DebtService orchestrates shared debt operations: validation, group
// membership checks, share computation, persistence and event publishing.
type DebtService struct {
	storage    *storage.SQLiteRepository
	amqpClient *amqp.Client
	balances   *BalanceService
}

func NewDebtService(storage *storage.SQLiteRepository, amqpClient *amqp.Client, balances *BalanceService) *DebtService {
	return &DebtService{
		storage:    storage,
		amqpClient: amqpClient,
		balances:   balances,
	}
}

// CreateDebt validates, computes the participant shares and persists the
// debt with its shares as one unit. The creator need not be a
// participant, but everyone involved must belong to the group.
func (s *DebtService) CreateDebt(ctx context.Context, debt core.SharedDebt, participantIDs []int64) (core.SharedDebt, []core.DebtParticipant, error) {
	if err := debt.Validate(); err != nil {
		return core.SharedDebt{}, nil, err
	}

	shares, err := s.computeShares(ctx, debt.GroupID, debt.CreatedBy, debt.Amount, participantIDs)
	if err != nil {
		return core.SharedDebt{}, nil, err
	}

	created, err := s.storage.CreateSharedDebt(ctx, debt, shares)
	if err != nil {
		return core.SharedDebt{}, nil, fmt.Errorf("save shared debt: %w", err)
	}

	s.invalidateAndPublish(ctx, amqp.EventDebtCreated, created.GroupID, created.ID)

	stored, err := s.storage.ListDebtShares(ctx, created.ID)
	if err != nil {
		return core.SharedDebt{}, nil, fmt.Errorf("load debt shares: %w", err)
	}
	return created, stored, nil
}

// GetDebt returns a debt together with its persisted shares.
func (s *DebtService) GetDebt(ctx context.Context, id int64) (core.SharedDebt, []core.DebtParticipant, error) {
	debt, err := s.storage.GetSharedDebt(ctx, id)
	if err != nil {
		return core.SharedDebt{}, nil, err
	}
	shares, err := s.storage.ListDebtShares(ctx, id)
	if err != nil {
		return core.SharedDebt{}, nil, fmt.Errorf("load debt shares: %w", err)
	}
	return debt, shares, nil
}

func (s *DebtService) ListDebts(ctx context.Context, groupID int64) ([]core.SharedDebt, error) {
	return s.storage.ListSharedDebts(ctx, groupID)
}

// ListGeneratedDebts returns the shared debts materialized from a
// recurring template.
func (s *DebtService) ListGeneratedDebts(ctx context.Context, recurringDebtID int64) ([]core.SharedDebt, error) {
	return s.storage.ListDebtsGeneratedBy(ctx, recurringDebtID)
}

// UpdateParticipants recomputes the debt's shares over a new participant
// set and replaces them atomically.
func (s *DebtService) UpdateParticipants(ctx context.Context, debtID int64, participantIDs []int64) ([]core.DebtParticipant, error) {
	debt, err := s.storage.GetSharedDebt(ctx, debtID)
	if err != nil {
		return nil, err
	}

	shares, err := s.computeShares(ctx, debt.GroupID, debt.CreatedBy, debt.Amount, participantIDs)
	if err != nil {
		return nil, err
	}

	if err := s.storage.ReplaceDebtShares(ctx, debtID, shares); err != nil {
		return nil, fmt.Errorf("replace debt shares: %w", err)
	}

	s.invalidateAndPublish(ctx, amqp.EventDebtUpdated, debt.GroupID, debtID)

	return s.storage.ListDebtShares(ctx, debtID)
}

func (s *DebtService) DeleteDebt(ctx context.Context, id int64) error {
	debt, err := s.storage.GetSharedDebt(ctx, id)
	if err != nil {
		return err
	}

	if err := s.storage.DeleteSharedDebt(ctx, id); err != nil {
		return fmt.Errorf("delete shared debt: %w", err)
	}

	s.invalidateAndPublish(ctx, amqp.EventDebtDeleted, debt.GroupID, id)
	return nil
}

// computeShares checks group membership and runs the split policy.
// Participants are ordered ascending by id with the creator moved last,
// so rounding remainders land on the other members first.
func (s *DebtService) computeShares(ctx context.Context, groupID, createdBy int64, amount core.Money, participantIDs []int64) ([]core.DebtParticipant, error) {
	if len(participantIDs) == 0 {
		return nil, core.ErrEmptyParticipantSet
	}

	members := append([]int64{createdBy}, participantIDs...)
	ok, err := s.storage.AreGroupMembers(ctx, groupID, members)
	if err != nil {
		return nil, fmt.Errorf("check group membership: %w", err)
	}
	if !ok {
		return nil, core.ErrCrossGroupParticipant
	}

	ordered := ledger.ShareOrder(participantIDs, createdBy)
	userShares, err := ledger.ComputeShares(amount, ordered)
	if err != nil {
		return nil, err
	}

	shares := make([]core.DebtParticipant, len(userShares))
	for i, us := range userShares {
		shares[i] = core.DebtParticipant{UserID: us.UserID, Share: us.Share}
	}
	return shares, nil
}

// invalidateAndPublish drops the group's cached balances and emits a
// ledger event. Publishing is best effort: the write already succeeded.
func (s *DebtService) invalidateAndPublish(ctx context.Context, kind string, groupID, entityID int64) {
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
