package storage

import (
	"context"
	"fmt"

	"github.com/marcim390/financeapp/internal/core"
)

func scanNotification(row rowScanner) (core.Notification, error) {
	var (
		n       core.Notification
		target  string
		created timeScanner
	)
	if err := row.Scan(&n.ID, &n.Title, &n.Message, &target, &n.IsActive, &n.CreatedBy, &created); err != nil {
		return core.Notification{}, err
	}
	n.TargetUsers = core.Audience(target)
	n.CreatedAt = created.t
	return n, nil
}

func (s *Store) CreateNotification(ctx context.Context, n core.Notification) error {
	_, err := s.exec(ctx, `INSERT INTO notifications (id, title, message, target_users, is_active, created_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		n.ID, n.Title, n.Message, string(n.TargetUsers), n.IsActive, n.CreatedBy, s.ts(n.CreatedAt))
	if err != nil {
		return fmt.Errorf("create notification: %w", mapError(err))
	}
	return nil
}

func (s *Store) GetNotification(ctx context.Context, id string) (core.Notification, error) {
	n, err := scanNotification(s.queryRow(ctx, `SELECT id, title, message, target_users, is_active, created_by, created_at
		FROM notifications WHERE id = ?`, id))
	if err != nil {
		return core.Notification{}, fmt.Errorf("get notification %s: %w", id, mapError(err))
	}
	return n, nil
}

func (s *Store) UpdateNotification(ctx context.Context, n core.Notification) error {
	return s.execOne(ctx, "update notification "+n.ID,
		`UPDATE notifications SET title = ?, message = ?, target_users = ?, is_active = ? WHERE id = ?`,
		n.Title, n.Message, string(n.TargetUsers), n.IsActive, n.ID)
}

func (s *Store) DeleteNotification(ctx context.Context, id string) error {
	return s.execOne(ctx, "delete notification "+id, `DELETE FROM notifications WHERE id = ?`, id)
}

func (s *Store) ListNotifications(ctx context.Context) ([]core.Notification, error) {
	rows, err := s.query(ctx, `SELECT id, title, message, target_users, is_active, created_by, created_at
		FROM notifications ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", mapError(err))
	}
	defer rows.Close()

	var out []core.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("scan notification: %w", mapError(err))
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list notifications: %w", mapError(err))
	}
	return out, nil
}
