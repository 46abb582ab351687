package services

import (
	"context"
	"fmt"
	"time"

	"github.com/404Simon/splitify/internal/core"
	"github.com/404Simon/splitify/internal/ledger"
	"github.com/404Simon/splitify/internal/storage"
)

// RecurringService manages recurring debt templates. Templates do not
// touch balances themselves; only the debts generated from them do.
type RecurringService struct {
	storage *storage.SQLiteRepository
	now     func() time.Time
}

func NewRecurringService(storage *storage.SQLiteRepository) *RecurringService {
	return &RecurringService{
		storage: storage,
		now:     time.Now,
	}
}

// CreateRecurring validates and stores a template. The first generation
// date is always the start date, whatever the caller sent.
func (s *RecurringService) CreateRecurring(ctx context.Context, rec core.RecurringDebt, participantIDs []int64) (core.RecurringDebt, []int64, error) {
	rec.NextGenerationDate = rec.StartDate
	rec.IsActive = true

	if err := rec.Validate(); err != nil {
		return core.RecurringDebt{}, nil, err
	}
	if err := s.checkParticipants(ctx, rec.GroupID, rec.CreatedBy, rec.Amount, participantIDs); err != nil {
		return core.RecurringDebt{}, nil, err
	}

	created, err := s.storage.CreateRecurringDebt(ctx, rec, participantIDs)
	if err != nil {
		return core.RecurringDebt{}, nil, fmt.Errorf("save recurring debt: %w", err)
	}

	stored, err := s.storage.ListRecurringParticipants(ctx, created.ID)
	if err != nil {
		return core.RecurringDebt{}, nil, fmt.Errorf("load recurring participants: %w", err)
	}
	return created, stored, nil
}

func (s *RecurringService) GetRecurring(ctx context.Context, id int64) (core.RecurringDebt, []int64, error) {
	rec, err := s.storage.GetRecurringDebt(ctx, id)
	if err != nil {
		return core.RecurringDebt{}, nil, err
	}
	participants, err := s.storage.ListRecurringParticipants(ctx, id)
	if err != nil {
		return core.RecurringDebt{}, nil, fmt.Errorf("load recurring participants: %w", err)
	}
	return rec, participants, nil
}

func (s *RecurringService) ListRecurring(ctx context.Context, groupID int64) ([]core.RecurringDebt, error) {
	return s.storage.ListRecurringDebts(ctx, groupID)
}

// UpdateParticipants replaces the template's participant set. Already
// generated debts keep their persisted shares.
func (s *RecurringService) UpdateParticipants(ctx context.Context, id int64, participantIDs []int64) ([]int64, error) {
	rec, err := s.storage.GetRecurringDebt(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkParticipants(ctx, rec.GroupID, rec.CreatedBy, rec.Amount, participantIDs); err != nil {
		return nil, err
	}

	if err := s.storage.ReplaceRecurringParticipants(ctx, id, participantIDs); err != nil {
		return nil, fmt.Errorf("replace recurring participants: %w", err)
	}
	return s.storage.ListRecurringParticipants(ctx, id)
}

// SetActive toggles a template. Reactivating a long-paused template
// walks next_generation_date forward to the first period not in the
// past, so the next sweep does not flood the group with back-dated
// debts. Reactivation past the end date is ErrScheduleExhausted.
func (s *RecurringService) SetActive(ctx context.Context, id int64, active bool) (core.RecurringDebt, error) {
	rec, err := s.storage.GetRecurringDebt(ctx, id)
	if err != nil {
		return core.RecurringDebt{}, err
	}

	next := rec.NextGenerationDate
	if active {
		today := core.DateOf(s.now().UTC())
		for next.BeforeDate(today) {
			next, err = NextOccurrence(next, rec.Frequency)
			if err != nil {
				return core.RecurringDebt{}, err
			}
		}
		if rec.EndDate != nil && next.AfterDate(*rec.EndDate) {
			return core.RecurringDebt{}, core.ErrScheduleExhausted
		}
	}

	if err := s.storage.SetRecurringActive(ctx, id, active, next); err != nil {
		return core.RecurringDebt{}, err
	}
	return s.storage.GetRecurringDebt(ctx, id)
}

// DeleteRecurring removes a template; generated debts survive with
// their back-reference nulled.
func (s *RecurringService) DeleteRecurring(ctx context.Context, id int64) error {
	return s.storage.DeleteRecurringDebt(ctx, id)
}

func (s *RecurringService) checkParticipants(ctx context.Context, groupID, createdBy int64, amount core.Money, participantIDs []int64) error {
	// Run the split policy once up front so an impossible participant
	// set is rejected at write time, not at generation time.
	if _, err := ledger.ComputeShares(amount, ledger.ShareOrder(participantIDs, createdBy)); err != nil {
		return err
	}

	members := append([]int64{createdBy}, participantIDs...)
	ok, err := s.storage.AreGroupMembers(ctx, groupID, members)
	if err != nil {
		return fmt.Errorf("check group membership: %w", err)
	}
	if !ok {
		return core.ErrCrossGroupParticipant
	}
	return nil
}
