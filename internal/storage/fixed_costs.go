package storage

import (
	"context"
	"database/sql"
	"fmt"

	"kakeibo/internal/core"
)

const (
	fcInvolvedTable  = "fixed_cost_involved_users"
	fcInvolvedColumn = "fixed_cost_id"
)

func (r *SQLiteRepository) CreateFixedCost(ctx context.Context, fc core.FixedCost) error {
	return r.write(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO fixed_costs (id, kind, category_id, amount, date, frequency, user_id, creator_id)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			fc.ID, string(fc.Kind), fc.CategoryID, fc.Amount.Minor, fc.Date.String(), string(fc.Frequency), fc.UserID, fc.CreatorID)
		if err != nil {
			return fmt.Errorf("insert fixed cost: %w", mapConstraint(err))
		}
		for i, rev := range fc.Revisions {
			if err := insertRevision(ctx, tx, fc.ID, i+1, rev); err != nil {
				return err
			}
		}
		return addInvolved(ctx, tx, fcInvolvedTable, fcInvolvedColumn, fc.ID, fc.InvolvedUserIDs...)
	})
}

func (r *SQLiteRepository) ReviseFixedCost(ctx context.Context, e FixedCostEdit) error {
	return r.write(ctx, func(tx *sql.Tx) error {
		var oldCategory string
		err := tx.QueryRowContext(ctx, `SELECT category_id FROM fixed_costs WHERE id = ?`, e.ID).Scan(&oldCategory)
		if err != nil {
			return noRows(err, "fixed cost", e.ID)
		}

		if e.ReflectDate.IsZero() {
			_, err = tx.ExecContext(ctx, `
				UPDATE fixed_costs
				SET category_id = ?, amount = ?, date = ?, frequency = ?, updated_at = CURRENT_TIMESTAMP
				WHERE id = ?`,
				e.CategoryID, e.Amount.Minor, e.Date.String(), string(e.Frequency), e.ID)
			if err != nil {
				return fmt.Errorf("update fixed cost: %w", err)
			}
			return addInvolved(ctx, tx, fcInvolvedTable, fcInvolvedColumn, e.ID, e.EditorID)
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE fixed_costs SET category_id = ?, frequency = ?, updated_at = CURRENT_TIMESTAMP
			WHERE id = ?`,
			e.CategoryID, string(e.Frequency), e.ID)
		if err != nil {
			return fmt.Errorf("update fixed cost: %w", err)
		}

		var seq int
		if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) FROM fixed_cost_revisions WHERE fixed_cost_id = ?`, e.ID).Scan(&seq); err != nil {
			return fmt.Errorf("next revision: %w", err)
		}
		if err := insertRevision(ctx, tx, e.ID, seq+1, core.Revision{ReflectDate: e.ReflectDate, Amount: e.Amount}); err != nil {
			return err
		}
		if err := addInvolved(ctx, tx, fcInvolvedTable, fcInvolvedColumn, e.ID, e.EditorID); err != nil {
			return err
		}

		if e.CategoryID == oldCategory || e.EditorID == "" {
			return nil
		}
		return reassignTransactions(ctx, tx, e.EditorID, oldCategory, e.CategoryID, e.ReflectDate)
	})
}

// reassignTransactions moves the user's transactions of category from on or
// after since into category to, marking the user as involved.
func reassignTransactions(ctx context.Context, tx *sql.Tx, userID, from, to string, since core.Date) error {
	rows, err := tx.QueryContext(ctx, `
		SELECT id FROM transactions WHERE user_id = ? AND category_id = ? AND date >= ?`,
		userID, from, since.String())
	if err != nil {
		return fmt.Errorf("find transactions to reassign: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return fmt.Errorf("scan transaction id: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("find transactions to reassign: %w", err)
	}

	for _, id := range ids {
		if _, err := tx.ExecContext(ctx, `
			UPDATE transactions SET category_id = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, to, id); err != nil {
			return fmt.Errorf("reassign transaction %s: %w", id, err)
		}
		if err := addInvolved(ctx, tx, txInvolvedTable, txInvolvedColumn, id, userID); err != nil {
			return err
		}
	}
	return nil
}

func insertRevision(ctx context.Context, tx *sql.Tx, id string, seq int, rev core.Revision) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO fixed_cost_revisions (fixed_cost_id, seq, reflect_date, amount) VALUES (?, ?, ?, ?)`,
		id, seq, rev.ReflectDate.String(), rev.Amount.Minor)
	if err != nil {
		return fmt.Errorf("insert revision: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteFixedCost(ctx context.Context, id string) error {
	return r.write(ctx, func(tx *sql.Tx) error {
		for _, q := range []string{
			`DELETE FROM fixed_cost_revisions WHERE fixed_cost_id = ?`,
			`DELETE FROM fixed_cost_involved_users WHERE fixed_cost_id = ?`,
		} {
			if _, err := tx.ExecContext(ctx, q, id); err != nil {
				return fmt.Errorf("delete fixed cost children: %w", err)
			}
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM fixed_costs WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete fixed cost: %w", err)
		}
		return mustAffect(res, "fixed cost", id)
	})
}

func (r *SQLiteRepository) GetFixedCost(ctx context.Context, id string) (core.FixedCost, error) {
	list, err := listFixedCosts(ctx, r.db, `WHERE id = ?`, []any{id})
	if err != nil {
		return core.FixedCost{}, err
	}
	if len(list) == 0 {
		return core.FixedCost{}, fmt.Errorf("fixed cost %s: %w", id, ErrNotFound)
	}
	return list[0], nil
}

func (r *SQLiteRepository) ListFixedCosts(ctx context.Context) ([]core.FixedCost, error) {
	return listFixedCosts(ctx, r.db, "", nil)
}

func listFixedCosts(ctx context.Context, db queryer, where string, args []any) ([]core.FixedCost, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, kind, category_id, amount, date, frequency, user_id, creator_id
		FROM fixed_costs `+where+` ORDER BY date, id`, args...)
	if err != nil {
		return nil, fmt.Errorf("list fixed costs: %w", err)
	}
	var out []core.FixedCost
	for rows.Next() {
		var (
			fc                    core.FixedCost
			kind, date, frequency string
		)
		if err := rows.Scan(&fc.ID, &kind, &fc.CategoryID, &fc.Amount.Minor, &date, &frequency, &fc.UserID, &fc.CreatorID); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan fixed cost: %w", err)
		}
		fc.Kind = core.Kind(kind)
		fc.Date = storedDate(date)
		fc.Frequency = core.Frequency(frequency)
		out = append(out, fc)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list fixed costs: %w", err)
	}
	if len(out) == 0 {
		return out, nil
	}

	owners := `SELECT id FROM fixed_costs ` + where
	revisions, err := loadRevisions(ctx, db, owners, args)
	if err != nil {
		return nil, err
	}
	involved, err := loadInvolved(ctx, db, fcInvolvedTable, fcInvolvedColumn, owners, args)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Revisions = revisions[out[i].ID]
		out[i].InvolvedUserIDs = involved[out[i].ID]
	}
	return out, nil
}

// loadRevisions returns the revisions of the fixed costs selected by owners,
// keyed by fixed cost, in append order.
func loadRevisions(ctx context.Context, db queryer, owners string, args []any) (map[string][]core.Revision, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT fixed_cost_id, reflect_date, amount FROM fixed_cost_revisions
		WHERE fixed_cost_id IN (`+owners+`) ORDER BY fixed_cost_id, seq`, args...)
	if err != nil {
		return nil, fmt.Errorf("list revisions: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]core.Revision)
	for rows.Next() {
		var (
			id, date string
			rev      core.Revision
		)
		if err := rows.Scan(&id, &date, &rev.Amount.Minor); err != nil {
			return nil, fmt.Errorf("scan revision: %w", err)
		}
		rev.ReflectDate = storedDate(date)
		out[id] = append(out[id], rev)
	}
	return out, rows.Err()
}
