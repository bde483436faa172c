// Package services holds the application's use cases: couple linking,
// account activation and limits, expenses, recurring bills, notifications
// and the reminder processor. Persistence goes through the Gateway ports.
package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/marcim390/financeapp/internal/core"
)

// clock and id generator shared by the services; tests replace them.
type runtime struct {
	now   func() time.Time
	newID func() string
}

func defaultRuntime() runtime {
	return runtime{now: time.Now, newID: uuid.NewString}
}

func requireAdmin(ctx context.Context, profiles ProfileStore, id string) (core.Profile, error) {
	p, err := profiles.GetProfile(ctx, id)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.Profile{}, core.ErrForbidden
		}
		return core.Profile{}, err
	}
	if !p.IsAdmin {
		return core.Profile{}, core.ErrForbidden
	}
	return p, nil
}

// partnerOf returns the partner's id, or "" when profileID is not in a couple.
func partnerOf(ctx context.Context, couples CoupleStore, profileID string) (string, error) {
	c, err := couples.FindCoupleByMember(ctx, profileID)
	if errors.Is(err, core.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return c.PartnerOf(profileID), nil
}
