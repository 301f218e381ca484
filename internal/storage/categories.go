package storage

import (
	"context"
	"database/sql"
	"fmt"

	"kakeibo/internal/core"
)

// CreateCategory appends c at the end of its kind's order when Position is zero.
func (r *SQLiteRepository) CreateCategory(ctx context.Context, c core.Category) error {
	return r.write(ctx, func(tx *sql.Tx) error {
		pos := c.Position
		if pos == 0 {
			if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(position) + 1, 0) FROM categories WHERE kind = ?`, string(c.Kind)).Scan(&pos); err != nil {
				return fmt.Errorf("next position: %w", err)
			}
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO categories (id, name, kind, ratio, user_id, position) VALUES (?, ?, ?, ?, ?, ?)`,
			c.ID, c.Name, string(c.Kind), ratioOrNone(c.Ratio), c.UserID, pos)
		if err != nil {
			return fmt.Errorf("insert category: %w", mapConstraint(err))
		}
		return nil
	})
}

// UpdateCategory renames c and changes its ratio and owner. Items reference
// categories by id so a rename touches one row.
func (r *SQLiteRepository) UpdateCategory(ctx context.Context, c core.Category) error {
	return r.write(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE categories SET name = ?, ratio = ?, user_id = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
			c.Name, ratioOrNone(c.Ratio), c.UserID, c.ID)
		if err != nil {
			return fmt.Errorf("update category: %w", mapConstraint(err))
		}
		return mustAffect(res, "category", c.ID)
	})
}

func (r *SQLiteRepository) DeleteCategory(ctx context.Context, id string) error {
	return r.write(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete category: %w", err)
		}
		return mustAffect(res, "category", id)
	})
}

func (r *SQLiteRepository) GetCategory(ctx context.Context, id string) (core.Category, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, kind, ratio, user_id, position FROM categories WHERE id = ?`, id)
	c, err := scanCategory(row)
	if err != nil {
		return core.Category{}, noRows(err, "category", id)
	}
	return c, nil
}

// ListCategories returns categories by kind, then position.
func (r *SQLiteRepository) ListCategories(ctx context.Context) ([]core.Category, error) {
	return listCategories(ctx, r.db)
}

func listCategories(ctx context.Context, db queryer) ([]core.Category, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, name, kind, ratio, user_id, position FROM categories ORDER BY kind, position, name`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) ReorderCategories(ctx context.Context, ids []string) error {
	return r.write(ctx, func(tx *sql.Tx) error {
		for i, id := range ids {
			res, err := tx.ExecContext(ctx, `UPDATE categories SET position = ? WHERE id = ?`, i, id)
			if err != nil {
				return fmt.Errorf("reorder category: %w", err)
			}
			if err := mustAffect(res, "category", id); err != nil {
				return err
			}
		}
		return nil
	})
}

func scanCategory(s scanner) (core.Category, error) {
	var (
		c    core.Category
		kind string
	)
	if err := s.Scan(&c.ID, &c.Name, &kind, &c.Ratio, &c.UserID, &c.Position); err != nil {
		return core.Category{}, err
	}
	c.Kind = core.Kind(kind)
	return c, nil
}

func ratioOrNone(s string) string {
	if s == "" {
		return core.RatioNone
	}
	return s
}
