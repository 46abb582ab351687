package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/404Simon/splitify/internal/amqp"
	"github.com/404Simon/splitify/internal/core"
	"github.com/404Simon/splitify/internal/ledger"
	"github.com/404Simon/splitify/internal/storage"
)

// RecurringProcessor materializes shared debts from recurring templates.
type RecurringProcessor struct {
	storage    *storage.SQLiteRepository
	amqpClient *amqp.Client
	balances   *BalanceService
}

func NewRecurringProcessor(storage *storage.SQLiteRepository, amqpClient *amqp.Client, balances *BalanceService) *RecurringProcessor {
	return &RecurringProcessor{
		storage:    storage,
		amqpClient: amqpClient,
		balances:   balances,
	}
}

// ProcessDue sweeps all templates whose next generation date has been
// reached and creates one shared debt per elapsed period. A template
// failing never stops the sweep; it is logged and retried next time.
func (p *RecurringProcessor) ProcessDue(ctx context.Context, now time.Time) (int, error) {
	if p.storage == nil {
		return 0, fmt.Errorf("processor not properly initialized")
	}
	start := time.Now()
	defer func() { sweepDuration.Observe(time.Since(start).Seconds()) }()

	today := core.DateOf(now.UTC())
	due, err := p.storage.ListDueRecurringDebts(ctx, today)
	if err != nil {
		return 0, fmt.Errorf("list due recurring debts: %w", err)
	}

	slog.InfoContext(ctx, "Processing recurring debts",
		"due", len(due),
		"processing_date", today.String())

	generated := 0
	for _, rec := range due {
		n, err := p.ProcessTemplate(ctx, rec, today)
		generated += n
		if err != nil {
			recurringFailures.Inc()
			slog.ErrorContext(ctx, "Failed to process recurring debt",
				"recurring_debt_id", rec.ID,
				"group_id", rec.GroupID,
				"error", err)
			continue
		}
	}

	slog.InfoContext(ctx, "Recurring debt processing complete",
		"generated", generated,
		"templates_checked", len(due))

	return generated, nil
}

// ProcessTemplate generates every elapsed period of one template: one
// debt per period, never a single debt covering several. Each period is
// one storage transaction; losing the compare-and-swap to a concurrent
// sweep stops quietly and leaves the rest to the winner.
func (p *RecurringProcessor) ProcessTemplate(ctx context.Context, rec core.RecurringDebt, today core.Date) (int, error) {
	if !rec.IsActive {
		return 0, core.ErrScheduleExhausted
	}

	participantIDs, err := p.storage.ListRecurringParticipants(ctx, rec.ID)
	if err != nil {
		return 0, fmt.Errorf("load recurring participants: %w", err)
	}
	userShares, err := ledger.ComputeShares(rec.Amount, ledger.ShareOrder(participantIDs, rec.CreatedBy))
	if err != nil {
		return 0, fmt.Errorf("compute shares: %w", err)
	}
	shares := make([]core.DebtParticipant, len(userShares))
	for i, us := range userShares {
		shares[i] = core.DebtParticipant{UserID: us.UserID, Share: us.Share}
	}

	count := 0
	for rec.IsActive && !rec.NextGenerationDate.AfterDate(today) {
		if rec.EndDate != nil && rec.NextGenerationDate.AfterDate(*rec.EndDate) {
			// Stale row: the date should never pass the end date, but a
			// template edited by hand gets retired rather than looping.
			if err := p.storage.DeactivateRecurring(ctx, rec.ID, rec.NextGenerationDate); err != nil {
				return count, err
			}
			break
		}

		next, err := NextOccurrence(rec.NextGenerationDate, rec.Frequency)
		if err != nil {
			return count, err
		}
		lastPeriod := rec.EndDate != nil && next.AfterDate(*rec.EndDate)

		debt, err := p.storage.GenerateFromRecurring(ctx, rec, shares, next, lastPeriod)
		if errors.Is(err, core.ErrStorageConflict) {
			recurringConflicts.Inc()
			slog.WarnContext(ctx, "Concurrent sweep already generated this period",
				"recurring_debt_id", rec.ID,
				"period", rec.NextGenerationDate.String())
			return count, nil
		}
		if err != nil {
			return count, err
		}

		count++
		recurringGenerated.Inc()
		p.publishGenerated(ctx, debt)

		if lastPeriod {
			rec.IsActive = false
		} else {
			rec.NextGenerationDate = next
		}
	}

	return count, nil
}

func (p *RecurringProcessor) publishGenerated(ctx context.Context, debt core.SharedDebt) {
	if p.balances != nil {
		p.balances.Invalidate(debt.GroupID)
	}
	if p.amqpClient == nil {
		return
	}
	if err := p.amqpClient.PublishLedgerEvent(ctx, amqp.EventRecurringGenerated, debt.GroupID, debt.ID); err != nil {
		slog.ErrorContext(ctx, "Failed to publish ledger event",
			"kind", amqp.EventRecurringGenerated,
			"group_id", debt.GroupID,
			"entity_id", debt.ID,
			"error", err)
	}
}
