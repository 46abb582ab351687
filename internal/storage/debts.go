package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/404Simon/splitify/internal/core"
)

// CreateSharedDebt persists a debt and its participant shares as one
// transaction; a failure anywhere leaves no partial debt behind.
func (r *SQLiteRepository) CreateSharedDebt(ctx context.Context, debt core.SharedDebt, shares []core.DebtParticipant) (core.SharedDebt, error) {
	now := nowUTC()
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		var err error
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

	slog.InfoContext(ctx, "Shared debt saved",
		"debt_id", debt.ID,
		"group_id", debt.GroupID,
		"amount", debt.Amount.String(),
		"participants", len(shares))
	return debt, nil
}

func insertSharedDebtTx(ctx context.Context, tx *sql.Tx, debt core.SharedDebt, now string) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		INSERT INTO shared_debts (group_id, created_by, name, amount, recurring_debt_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		debt.GroupID, debt.CreatedBy, debt.Name, debt.Amount.String(), debt.RecurringDebtID, now, now)
	if err != nil {
		return 0, fmt.Errorf("insert shared debt: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("shared debt id: %w", err)
	}
	return id, nil
}

func insertDebtSharesTx(ctx context.Context, tx *sql.Tx, debtID int64, shares []core.DebtParticipant) error {
	for _, s := range shares {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO shared_debt_user (shared_debt_id, user_id, share) VALUES (?, ?, ?)",
			debtID, s.UserID, s.Share.String()); err != nil {
			return fmt.Errorf("insert debt share for user %d: %w", s.UserID, err)
		}
	}
	return nil
}

func (r *SQLiteRepository) GetSharedDebt(ctx context.Context, id int64) (core.SharedDebt, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, group_id, created_by, name, amount, recurring_debt_id, created_at, updated_at
		FROM shared_debts WHERE id = ?`, id)
	debt, err := scanSharedDebt(row)
	if isNoRows(err) {
		return core.SharedDebt{}, core.ErrNotFound
	}
	if err != nil {
		return core.SharedDebt{}, fmt.Errorf("get shared debt: %w", err)
	}
	return debt, nil
}

func (r *SQLiteRepository) ListSharedDebts(ctx context.Context, groupID int64) ([]core.SharedDebt, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, group_id, created_by, name, amount, recurring_debt_id, created_at, updated_at
		FROM shared_debts WHERE group_id = ? ORDER BY id`, groupID)
	if err != nil {
		return nil, fmt.Errorf("list shared debts: %w", err)
	}
	defer rows.Close()

	var debts []core.SharedDebt
	for rows.Next() {
		debt, err := scanSharedDebt(rows)
		if err != nil {
			return nil, fmt.Errorf("scan shared debt: %w", err)
		}
		debts = append(debts, debt)
	}
	return debts, rows.Err()
}

// ListDebtsGeneratedBy returns the shared debts materialized from a
// recurring template (the weak back-reference walked the other way).
func (r *SQLiteRepository) ListDebtsGeneratedBy(ctx context.Context, recurringDebtID int64) ([]core.SharedDebt, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, group_id, created_by, name, amount, recurring_debt_id, created_at, updated_at
		FROM shared_debts WHERE recurring_debt_id = ? ORDER BY id`, recurringDebtID)
	if err != nil {
		return nil, fmt.Errorf("list generated debts: %w", err)
	}
	defer rows.Close()

	var debts []core.SharedDebt
	for rows.Next() {
		debt, err := scanSharedDebt(rows)
		if err != nil {
			return nil, fmt.Errorf("scan generated debt: %w", err)
		}
		debts = append(debts, debt)
	}
	return debts, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSharedDebt(row rowScanner) (core.SharedDebt, error) {
	var (
		debt                 core.SharedDebt
		amount               string
		recurringID          sql.NullInt64
		createdAt, updatedAt string
	)
	if err := row.Scan(&debt.ID, &debt.GroupID, &debt.CreatedBy, &debt.Name,
		&amount, &recurringID, &createdAt, &updatedAt); err != nil {
		return core.SharedDebt{}, err
	}
	m, err := core.ParseSigned(amount)
	if err != nil {
		return core.SharedDebt{}, fmt.Errorf("stored amount %q: %w", amount, err)
	}
	debt.Amount = m
	if recurringID.Valid {
		debt.RecurringDebtID = &recurringID.Int64
	}
	debt.CreatedAt = parseTime(createdAt)
	debt.UpdatedAt = parseTime(updatedAt)
	return debt, nil
}

// ListDebtShares returns the persisted participant shares for one debt.
func (r *SQLiteRepository) ListDebtShares(ctx context.Context, debtID int64) ([]core.DebtParticipant, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, shared_debt_id, user_id, share
		FROM shared_debt_user WHERE shared_debt_id = ? ORDER BY user_id`, debtID)
	if err != nil {
		return nil, fmt.Errorf("list debt shares: %w", err)
	}
	defer rows.Close()
	return collectShares(rows)
}

// ListGroupDebtShares returns every participant share in the group in a
// single query, for the balance computation.
func (r *SQLiteRepository) ListGroupDebtShares(ctx context.Context, groupID int64) ([]core.DebtParticipant, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT sdu.id, sdu.shared_debt_id, sdu.user_id, sdu.share
		FROM shared_debt_user sdu
		JOIN shared_debts sd ON sd.id = sdu.shared_debt_id
		WHERE sd.group_id = ?
		ORDER BY sdu.shared_debt_id, sdu.user_id`, groupID)
	if err != nil {
		return nil, fmt.Errorf("list group debt shares: %w", err)
	}
	defer rows.Close()
	return collectShares(rows)
}

func collectShares(rows *sql.Rows) ([]core.DebtParticipant, error) {
	var shares []core.DebtParticipant
	for rows.Next() {
		var (
			p     core.DebtParticipant
			share string
		)
		if err := rows.Scan(&p.ID, &p.SharedDebtID, &p.UserID, &share); err != nil {
			return nil, fmt.Errorf("scan share: %w", err)
		}
		m, err := core.ParseSigned(share)
		if err != nil {
			return nil, fmt.Errorf("stored share %q: %w", share, err)
		}
		p.Share = m
		shares = append(shares, p)
	}
	return shares, rows.Err()
}

// ReplaceDebtShares swaps the participant set of a debt for a freshly
// computed one, bumping updated_at, all in one transaction.
func (r *SQLiteRepository) ReplaceDebtShares(ctx context.Context, debtID int64, shares []core.DebtParticipant) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM shared_debt_user WHERE shared_debt_id = ?", debtID); err != nil {
			return fmt.Errorf("clear debt shares: %w", err)
		}
		if err := insertDebtSharesTx(ctx, tx, debtID, shares); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx,
			"UPDATE shared_debts SET updated_at = ? WHERE id = ?", nowUTC(), debtID)
		if err != nil {
			return fmt.Errorf("touch shared debt: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if n == 0 {
			return core.ErrNotFound
		}
		return nil
	})
}

// DeleteSharedDebt removes a debt; participant rows cascade with it.
func (r *SQLiteRepository) DeleteSharedDebt(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM shared_debts WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete shared debt: %w", err)
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
