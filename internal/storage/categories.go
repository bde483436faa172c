package storage

import (
	"context"
	"fmt"

	"github.com/marcim390/financeapp/internal/core"
)

func scanCategory(row rowScanner) (core.Category, error) {
	var c core.Category
	err := row.Scan(&c.ID, &c.UserID, &c.Name, &c.Color, &c.Icon)
	return c, err
}

func (s *Store) CreateCategory(ctx context.Context, c core.Category) error {
	_, err := s.exec(ctx, `INSERT INTO categories (id, user_id, name, color, icon) VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.UserID, c.Name, c.Color, c.Icon)
	if err != nil {
		return fmt.Errorf("create category: %w", mapError(err))
	}
	return nil
}

func (s *Store) GetCategory(ctx context.Context, id string) (core.Category, error) {
	c, err := scanCategory(s.queryRow(ctx, `SELECT id, user_id, name, color, icon FROM categories WHERE id = ?`, id))
	if err != nil {
		return core.Category{}, fmt.Errorf("get category %s: %w", id, mapError(err))
	}
	return c, nil
}

func (s *Store) UpdateCategory(ctx context.Context, c core.Category) error {
	return s.execOne(ctx, "update category "+c.ID,
		`UPDATE categories SET name = ?, color = ?, icon = ? WHERE id = ?`,
		c.Name, c.Color, c.Icon, c.ID)
}

func (s *Store) DeleteCategory(ctx context.Context, id string) error {
	return s.execOne(ctx, "delete category "+id, `DELETE FROM categories WHERE id = ?`, id)
}

func (s *Store) ListCategories(ctx context.Context, userID string) ([]core.Category, error) {
	rows, err := s.query(ctx, `SELECT id, user_id, name, color, icon FROM categories
		WHERE user_id = ? ORDER BY name`, userID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", mapError(err))
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", mapError(err))
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list categories: %w", mapError(err))
	}
	return out, nil
}
