package circles

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Achess01/ComparteRide-platzi/internal/model"
	"github.com/Achess01/ComparteRide-platzi/internal/store"
)

// Ledger tracks memberships: admin status, invitation quotas, activity
// and ride statistics. It never decrements a quota; only invitation
// redemption does, through the store's guarded update.
type Ledger struct {
	store store.Store
	log   *zap.Logger
}

// NewLedger creates a Ledger over the given store.
func NewLedger(st store.Store, log *zap.Logger) *Ledger {
	return &Ledger{store: st, log: log}
}

// Get returns the membership for the (user, circle) pair.
func (l *Ledger) Get(ctx context.Context, userID, circleID uint) (model.Membership, error) {
	membership, err := l.store.Memberships().Get(ctx, userID, circleID)
	if errors.Is(err, store.ErrNotFound) {
		return model.Membership{}, ErrMembershipNotFound
	}
	return membership, err
}

// IsActiveMember reports whether an active membership exists for the
// pair. A missing membership is not an error.
func (l *Ledger) IsActiveMember(ctx context.Context, userID, circleID uint) (bool, error) {
	membership, err := l.store.Memberships().Get(ctx, userID, circleID)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return membership.Active, nil
}

// Deactivate marks a membership inactive. Inactive members cannot
// interact in the circle until reactivated.
func (l *Ledger) Deactivate(ctx context.Context, userID, circleID uint) (model.Membership, error) {
	return l.setActive(ctx, userID, circleID, false)
}

// Reactivate marks a membership active again.
func (l *Ledger) Reactivate(ctx context.Context, userID, circleID uint) (model.Membership, error) {
	return l.setActive(ctx, userID, circleID, true)
}

func (l *Ledger) setActive(ctx context.Context, userID, circleID uint, active bool) (model.Membership, error) {
	membership, err := l.Get(ctx, userID, circleID)
	if err != nil {
		return model.Membership{}, err
	}
	if membership.Active == active {
		return membership, nil
	}
	membership.Active = active
	if err := l.store.Memberships().Save(ctx, &membership); err != nil {
		return model.Membership{}, fmt.Errorf("update membership status: %w", err)
	}
	l.log.Info("membership status changed",
		zap.Uint("user_id", userID),
		zap.Uint("circle_id", circleID),
		zap.Bool("active", active))
	return membership, nil
}

// PromoteToAdmin grants circle admin rights to a member.
func (l *Ledger) PromoteToAdmin(ctx context.Context, userID, circleID uint) (model.Membership, error) {
	membership, err := l.Get(ctx, userID, circleID)
	if err != nil {
		return model.Membership{}, err
	}
	if membership.IsAdmin {
		return membership, nil
	}
	membership.IsAdmin = true
	if err := l.store.Memberships().Save(ctx, &membership); err != nil {
		return model.Membership{}, fmt.Errorf("promote membership: %w", err)
	}
	l.log.Info("member promoted to admin",
		zap.Uint("user_id", userID),
		zap.Uint("circle_id", circleID))
	return membership, nil
}

// RecordRideOffered bumps the offered-ride counters on the membership
// and its circle. Counters only move upward. Callers pass the store of
// the surrounding transaction so the counters commit together with the
// ride writes they describe.
func (l *Ledger) RecordRideOffered(ctx context.Context, tx store.Store, userID, circleID uint) error {
	if err := tx.Memberships().IncrementRidesOffered(ctx, userID, circleID); err != nil {
		return fmt.Errorf("bump membership rides offered: %w", err)
	}
	if err := tx.Circles().IncrementRidesOffered(ctx, circleID); err != nil {
		return fmt.Errorf("bump circle rides offered: %w", err)
	}
	return nil
}

// RecordRideTaken bumps the taken-ride counters on the membership and
// its circle within the caller's transaction.
func (l *Ledger) RecordRideTaken(ctx context.Context, tx store.Store, userID, circleID uint) error {
	if err := tx.Memberships().IncrementRidesTaken(ctx, userID, circleID); err != nil {
		return fmt.Errorf("bump membership rides taken: %w", err)
	}
	if err := tx.Circles().IncrementRidesTaken(ctx, circleID); err != nil {
		return fmt.Errorf("bump circle rides taken: %w", err)
	}
	return nil
}

// DetachInviter nulls the invited_by reference on memberships pointing
// at the given user. Run as a maintenance step when an account is
// deleted; the references are weak and never cascade.
func (l *Ledger) DetachInviter(ctx context.Context, inviterID uint) (int64, error) {
	n, err := l.store.Memberships().DetachInviter(ctx, inviterID)
	if err != nil {
		return 0, fmt.Errorf("detach inviter: %w", err)
	}
	if n > 0 {
		l.log.Info("detached inviter from memberships",
			zap.Uint("inviter_id", inviterID),
			zap.Int64("memberships", n))
	}
	return n, nil
}
