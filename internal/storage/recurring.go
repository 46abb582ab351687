package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/404Simon/splitify/internal/core"
)

// CreateRecurringDebt persists a template with its participant set as
// one transaction.
func (r *SQLiteRepository) CreateRecurringDebt(ctx context.Context, rec core.RecurringDebt, participantIDs []int64) (core.RecurringDebt, error) {
	now := nowUTC()
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO recurring_debts
				(group_id, created_by, name, amount, frequency, start_date, end_date, next_generation_date, is_active, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			rec.GroupID, rec.CreatedBy, rec.Name, rec.Amount.String(), string(rec.Frequency),
			rec.StartDate.String(), nullableDate(rec.EndDate), rec.NextGenerationDate.String(),
			boolToInt(rec.IsActive), now, now)
		if err != nil {
			return fmt.Errorf("insert recurring debt: %w", err)
		}
		rec.ID, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("recurring debt id: %w", err)
		}
		return insertRecurringParticipantsTx(ctx, tx, rec.ID, participantIDs)
	})
	if err != nil {
		return core.RecurringDebt{}, err
	}
	rec.CreatedAt = parseTime(now)
	rec.UpdatedAt = parseTime(now)

	slog.InfoContext(ctx, "Recurring debt saved",
		"recurring_debt_id", rec.ID,
		"group_id", rec.GroupID,
		"frequency", string(rec.Frequency),
		"next_generation_date", rec.NextGenerationDate.String())
	return rec, nil
}

func insertRecurringParticipantsTx(ctx context.Context, tx *sql.Tx, recurringID int64, participantIDs []int64) error {
	for _, userID := range participantIDs {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO recurring_debt_user (recurring_debt_id, user_id) VALUES (?, ?)",
			recurringID, userID); err != nil {
			return fmt.Errorf("insert recurring participant %d: %w", userID, err)
		}
	}
	return nil
}

func (r *SQLiteRepository) GetRecurringDebt(ctx context.Context, id int64) (core.RecurringDebt, error) {
	row := r.db.QueryRowContext(ctx, selectRecurring+" WHERE id = ?", id)
	rec, err := scanRecurringDebt(row)
	if isNoRows(err) {
		return core.RecurringDebt{}, core.ErrNotFound
	}
	if err != nil {
		return core.RecurringDebt{}, fmt.Errorf("get recurring debt: %w", err)
	}
	return rec, nil
}

func (r *SQLiteRepository) ListRecurringDebts(ctx context.Context, groupID int64) ([]core.RecurringDebt, error) {
	rows, err := r.db.QueryContext(ctx, selectRecurring+" WHERE group_id = ? ORDER BY id", groupID)
	if err != nil {
		return nil, fmt.Errorf("list recurring debts: %w", err)
	}
	defer rows.Close()
	return collectRecurring(rows)
}

// ListDueRecurringDebts returns active templates whose next generation
// date is on or before the given day.
func (r *SQLiteRepository) ListDueRecurringDebts(ctx context.Context, today core.Date) ([]core.RecurringDebt, error) {
	rows, err := r.db.QueryContext(ctx,
		selectRecurring+" WHERE is_active = 1 AND next_generation_date <= ? ORDER BY id",
		today.String())
	if err != nil {
		return nil, fmt.Errorf("list due recurring debts: %w", err)
	}
	defer rows.Close()
	return collectRecurring(rows)
}

const selectRecurring = `
	SELECT id, group_id, created_by, name, amount, frequency, start_date, end_date,
	       next_generation_date, is_active, created_at, updated_at
	FROM recurring_debts`

func collectRecurring(rows *sql.Rows) ([]core.RecurringDebt, error) {
	var recs []core.RecurringDebt
	for rows.Next() {
		rec, err := scanRecurringDebt(rows)
		if err != nil {
			return nil, fmt.Errorf("scan recurring debt: %w", err)
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

func scanRecurringDebt(row rowScanner) (core.RecurringDebt, error) {
	var (
		rec                  core.RecurringDebt
		amount, frequency    string
		startDate, nextDate  string
		endDate              sql.NullString
		isActive             int
		createdAt, updatedAt string
	)
	if err := row.Scan(&rec.ID, &rec.GroupID, &rec.CreatedBy, &rec.Name, &amount, &frequency,
		&startDate, &endDate, &nextDate, &isActive, &createdAt, &updatedAt); err != nil {
		return core.RecurringDebt{}, err
	}

	m, err := core.ParseSigned(amount)
	if err != nil {
		return core.RecurringDebt{}, fmt.Errorf("stored amount %q: %w", amount, err)
	}
	rec.Amount = m
	rec.Frequency, err = core.ParseFrequency(frequency)
	if err != nil {
		return core.RecurringDebt{}, fmt.Errorf("stored frequency %q: %w", frequency, err)
	}
	rec.StartDate, err = core.ParseDate(startDate)
	if err != nil {
		return core.RecurringDebt{}, fmt.Errorf("stored start date %q: %w", startDate, err)
	}
	rec.NextGenerationDate, err = core.ParseDate(nextDate)
	if err != nil {
		return core.RecurringDebt{}, fmt.Errorf("stored next generation date %q: %w", nextDate, err)
	}
	if endDate.Valid {
		d, err := core.ParseDate(endDate.String)
		if err != nil {
			return core.RecurringDebt{}, fmt.Errorf("stored end date %q: %w", endDate.String, err)
		}
		rec.EndDate = &d
	}
	rec.IsActive = isActive != 0
	rec.CreatedAt = parseTime(createdAt)
	rec.UpdatedAt = parseTime(updatedAt)
	return rec, nil
}

func (r *SQLiteRepository) ListRecurringParticipants(ctx context.Context, recurringID int64) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT user_id FROM recurring_debt_user WHERE recurring_debt_id = ? ORDER BY user_id",
		recurringID)
	if err != nil {
		return nil, fmt.Errorf("list recurring participants: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan recurring participant: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *SQLiteRepository) ReplaceRecurringParticipants(ctx context.Context, recurringID int64, participantIDs []int64) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM recurring_debt_user WHERE recurring_debt_id = ?", recurringID); err != nil {
			return fmt.Errorf("clear recurring participants: %w", err)
		}
		if err := insertRecurringParticipantsTx(ctx, tx, recurringID, participantIDs); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			"UPDATE recurring_debts SET updated_at = ? WHERE id = ?", nowUTC(), recurringID); err != nil {
			return fmt.Errorf("touch recurring debt: %w", err)
		}
		return nil
	})
}

// SetRecurringActive flips the active flag. On reactivation the caller
// supplies the clamped next generation date so a long-paused template
// does not flood the group with back-dated debts.
func (r *SQLiteRepository) SetRecurringActive(ctx context.Context, id int64, active bool, nextGen core.Date) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE recurring_debts SET is_active = ?, next_generation_date = ?, updated_at = ? WHERE id = ?",
		boolToInt(active), nextGen.String(), nowUTC(), id)
	if err != nil {
		return fmt.Errorf("set recurring active: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// DeleteRecurringDebt removes a template. Already-generated shared debts
// survive: their back-reference is nulled by the schema, never cascaded.
func (r *SQLiteRepository) DeleteRecurringDebt(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM recurring_debts WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete recurring debt: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// GenerateFromRecurring materializes one period of a template: it
// advances next_generation_date with a compare-and-swap on the expected
// current value, then inserts the shared debt and its shares, all in one
// transaction. When this is the last period of the schedule the caller
// passes deactivate=true and the template is retired instead, with
// next_generation_date left at the period just generated. Losing the
// swap means another sweep already generated this period; the caller
// gets ErrStorageConflict and nothing is written. A failure after the
// swap rolls the whole unit back, so the date never advances past a
// period that produced no debt.
func (r *SQLiteRepository) GenerateFromRecurring(ctx context.Context, rec core.RecurringDebt, shares []core.DebtParticipant, newNext core.Date, deactivate bool) (core.SharedDebt, error) {
	now := nowUTC()
	debt := core.SharedDebt{
		GroupID:         rec.GroupID,
		CreatedBy:       rec.CreatedBy,
		Name:            rec.Name,
		Amount:          rec.Amount,
		RecurringDebtID: &rec.ID,
	}

	err := r.withTx(ctx, func(tx *sql.Tx) error {
		var (
			res sql.Result
			err error
		)
		if deactivate {
			res, err = tx.ExecContext(ctx, `
				UPDATE recurring_debts
				SET is_active = 0, updated_at = ?
				WHERE id = ? AND next_generation_date = ? AND is_active = 1`,
				now, rec.ID, rec.NextGenerationDate.String())
		} else {
			res, err = tx.ExecContext(ctx, `
				UPDATE recurring_debts
				SET next_generation_date = ?, updated_at = ?
				WHERE id = ? AND next_generation_date = ? AND is_active = 1`,
				newNext.String(), now, rec.ID, rec.NextGenerationDate.String())
		}
		if err != nil {
			return fmt.Errorf("advance next generation date: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if n == 0 {
			return core.ErrStorageConflict
		}

		debt.ID, err = insertSharedDebtTx(ctx, tx, debt, now)
		if err != nil {
			return err
		}
		return insertDebtSharesTx(ctx, tx, debt.ID, shares)
	})
	if err != nil {
		return core.SharedDebt{}, err
	}
	debt.CreatedAt = parseTime(now)
	debt.UpdatedAt = parseTime(now)

	slog.InfoContext(ctx, "Generated shared debt from recurring debt",
		"shared_debt_id", debt.ID,
		"recurring_debt_id", rec.ID,
		"period", rec.NextGenerationDate.String(),
		"next_generation_date", newNext.String(),
		"deactivated", deactivate)
	return debt, nil
}

// DeactivateRecurring retires a template whose schedule is exhausted,
// guarded by the same compare-and-swap as generation. The stored
// next_generation_date stays at its last generated value, so it never
// points past the end date.
func (r *SQLiteRepository) DeactivateRecurring(ctx context.Context, id int64, expectedNext core.Date) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE recurring_debts
		SET is_active = 0, updated_at = ?
		WHERE id = ? AND next_generation_date = ? AND is_active = 1`,
		nowUTC(), id, expectedNext.String())
	if err != nil {
		return fmt.Errorf("deactivate recurring debt: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return core.ErrStorageConflict
	}
	return nil
}

func nullableDate(d *core.Date) any {
	if d == nil {
		return nil
	}
	return d.String()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
