package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"kakeibo/internal/core"
)

const (
	txInvolvedTable  = "transaction_involved_users"
	txInvolvedColumn = "transaction_id"
)

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) error {
	return r.write(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO transactions (id, date, amount, category_id, kind, memo, user_id, creator_id)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			t.ID, t.Date.String(), t.Amount.Minor, t.CategoryID, string(t.Kind), t.Memo, t.UserID, t.CreatorID)
		if err != nil {
			return fmt.Errorf("insert transaction: %w", mapConstraint(err))
		}
		return addInvolved(ctx, tx, txInvolvedTable, txInvolvedColumn, t.ID, t.InvolvedUserIDs...)
	})
}

// UpdateTransaction overwrites every field but the owner and creator.
// Involved users only accumulate.
func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, t core.Transaction) error {
	return r.write(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE transactions
			SET date = ?, amount = ?, category_id = ?, kind = ?, memo = ?, updated_at = CURRENT_TIMESTAMP
			WHERE id = ?`,
			t.Date.String(), t.Amount.Minor, t.CategoryID, string(t.Kind), t.Memo, t.ID)
		if err != nil {
			return fmt.Errorf("update transaction: %w", err)
		}
		if err := mustAffect(res, "transaction", t.ID); err != nil {
			return err
		}
		return addInvolved(ctx, tx, txInvolvedTable, txInvolvedColumn, t.ID, t.InvolvedUserIDs...)
	})
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id string) error {
	return r.write(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM transaction_involved_users WHERE transaction_id = ?`, id); err != nil {
			return fmt.Errorf("delete involved users: %w", err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete transaction: %w", err)
		}
		return mustAffect(res, "transaction", id)
	})
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, date, amount, category_id, kind, memo, user_id, creator_id
		FROM transactions WHERE id = ?`, id)
	t, err := scanTransaction(row)
	if err != nil {
		return core.Transaction{}, noRows(err, "transaction", id)
	}

	rows, err := r.db.QueryContext(ctx, `SELECT user_id FROM transaction_involved_users WHERE transaction_id = ? ORDER BY rowid`, id)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("list involved users: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return core.Transaction{}, fmt.Errorf("scan involved user: %w", err)
		}
		t.InvolvedUserIDs = append(t.InvolvedUserIDs, u)
	}
	return t, rows.Err()
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context, f TransactionFilter) ([]core.Transaction, error) {
	return listTransactions(ctx, r.db, f)
}

func listTransactions(ctx context.Context, db queryer, f TransactionFilter) ([]core.Transaction, error) {
	var where []string
	var args []any
	if !f.From.IsZero() {
		where = append(where, "date >= ?")
		args = append(args, f.From.String())
	}
	if !f.To.IsZero() {
		where = append(where, "date <= ?")
		args = append(args, f.To.String())
	}
	if f.UserID != "" {
		where = append(where, "user_id = ?")
		args = append(args, f.UserID)
	}

	cond := ""
	if len(where) > 0 {
		cond = " WHERE " + strings.Join(where, " AND ")
	}
	q := `SELECT id, date, amount, category_id, kind, memo, user_id, creator_id FROM transactions` + cond + ` ORDER BY date, id`

	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	if len(out) == 0 {
		return out, nil
	}

	involved, err := loadInvolved(ctx, db, txInvolvedTable, txInvolvedColumn, `SELECT id FROM transactions`+cond, args)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].InvolvedUserIDs = involved[out[i].ID]
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(s scanner) (core.Transaction, error) {
	var (
		t          core.Transaction
		date, kind string
	)
	if err := s.Scan(&t.ID, &date, &t.Amount.Minor, &t.CategoryID, &kind, &t.Memo, &t.UserID, &t.CreatorID); err != nil {
		return core.Transaction{}, err
	}
	t.Date = storedDate(date)
	t.Kind = core.Kind(kind)
	return t, nil
}
