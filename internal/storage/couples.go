package storage

import (
	"context"
	"fmt"

	"github.com/marcim390/financeapp/internal/core"
)

func scanCouple(row rowScanner) (core.Couple, error) {
	var (
		c       core.Couple
		created timeScanner
	)
	if err := row.Scan(&c.ID, &c.User1ID, &c.User2ID, &created); err != nil {
		return core.Couple{}, err
	}
	c.CreatedAt = created.t
	return c, nil
}

// CreateCouple inserts the couple and its two membership rows. The
// couple_members primary key rejects a profile that is already coupled, so a
// concurrent accept loses with ErrAlreadyCoupled. Call inside WithinTx.
func (s *Store) CreateCouple(ctx context.Context, c core.Couple) error {
	return s.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.exec(ctx, `INSERT INTO couples (id, user1_id, user2_id, created_at) VALUES (?, ?, ?, ?)`,
			c.ID, c.User1ID, c.User2ID, s.ts(c.CreatedAt)); err != nil {
			return fmt.Errorf("create couple: %w", mapError(err))
		}
		for _, member := range []string{c.User1ID, c.User2ID} {
			if _, err := s.exec(ctx, `INSERT INTO couple_members (profile_id, couple_id) VALUES (?, ?)`,
				member, c.ID); err != nil {
				return fmt.Errorf("add couple member %s: %w", member, mapError(err))
			}
		}
		return nil
	})
}

func (s *Store) GetCouple(ctx context.Context, id string) (core.Couple, error) {
	c, err := scanCouple(s.queryRow(ctx, `SELECT id, user1_id, user2_id, created_at FROM couples WHERE id = ?`, id))
	if err != nil {
		return core.Couple{}, fmt.Errorf("get couple %s: %w", id, mapError(err))
	}
	return c, nil
}

func (s *Store) FindCoupleByMember(ctx context.Context, profileID string) (core.Couple, error) {
	c, err := scanCouple(s.queryRow(ctx, `SELECT c.id, c.user1_id, c.user2_id, c.created_at
		FROM couples c JOIN couple_members m ON m.couple_id = c.id
		WHERE m.profile_id = ?`, profileID))
	if err != nil {
		return core.Couple{}, fmt.Errorf("find couple of %s: %w", profileID, mapError(err))
	}
	return c, nil
}

func (s *Store) DeleteCouple(ctx context.Context, id string) error {
	return s.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.exec(ctx, `DELETE FROM couple_members WHERE couple_id = ?`, id); err != nil {
			return fmt.Errorf("delete couple members: %w", mapError(err))
		}
		return s.execOne(ctx, "delete couple "+id, `DELETE FROM couples WHERE id = ?`, id)
	})
}
