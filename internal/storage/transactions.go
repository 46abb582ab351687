package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/404Simon/splitify/internal/core"
)

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	now := nowUTC()
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions (group_id, payer_id, recipient_id, amount, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.GroupID, t.PayerID, t.RecipientID, t.Amount.String(), t.Description, now, now)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}
	t.ID, err = res.LastInsertId()
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction id: %w", err)
	}
	t.CreatedAt = parseTime(now)
	t.UpdatedAt = parseTime(now)

	slog.InfoContext(ctx, "Transaction saved",
		"transaction_id", t.ID,
		"group_id", t.GroupID,
		"payer_id", t.PayerID,
		"recipient_id", t.RecipientID,
		"amount", t.Amount.String())
	return t, nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	var (
		t                    core.Transaction
		amount               string
		createdAt, updatedAt string
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, group_id, payer_id, recipient_id, amount, description, created_at, updated_at
		FROM transactions WHERE id = ?`, id).
		Scan(&t.ID, &t.GroupID, &t.PayerID, &t.RecipientID, &amount, &t.Description, &createdAt, &updatedAt)
	if isNoRows(err) {
		return core.Transaction{}, core.ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	m, err := core.ParseSigned(amount)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("stored amount %q: %w", amount, err)
	}
	t.Amount = m
	t.CreatedAt = parseTime(createdAt)
	t.UpdatedAt = parseTime(updatedAt)
	return t, nil
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context, groupID int64) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, group_id, payer_id, recipient_id, amount, description, created_at, updated_at
		FROM transactions WHERE group_id = ? ORDER BY id`, groupID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var txs []core.Transaction
	for rows.Next() {
		var (
			t                    core.Transaction
			amount               string
			createdAt, updatedAt string
		)
		if err := rows.Scan(&t.ID, &t.GroupID, &t.PayerID, &t.RecipientID,
			&amount, &t.Description, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		m, err := core.ParseSigned(amount)
		if err != nil {
			return nil, fmt.Errorf("stored amount %q: %w", amount, err)
		}
		t.Amount = m
		t.CreatedAt = parseTime(createdAt)
		t.UpdatedAt = parseTime(updatedAt)
		txs = append(txs, t)
	}
	return txs, rows.Err()
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM transactions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
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
