// Package invitations turns membership quotas into concrete invitation
// codes and applies their redemption.
package invitations

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Achess01/ComparteRide-platzi/internal/apperrors"
	"github.com/Achess01/ComparteRide-platzi/internal/circles"
	"github.com/Achess01/ComparteRide-platzi/internal/invitecode"
	"github.com/Achess01/ComparteRide-platzi/internal/model"
	"github.com/Achess01/ComparteRide-platzi/internal/store"
)

var (
	// ErrInvitationNotFound indicates no invitation carries the code.
	ErrInvitationNotFound = apperrors.New(apperrors.CodeInvitationNotFound, "invitation not found")
	// ErrInvitationAlreadyUsed indicates the code was redeemed before.
	ErrInvitationAlreadyUsed = apperrors.New(apperrors.CodeInvitationAlreadyUsed, "invitation already used")
	// ErrQuotaExhausted indicates the issuer has no remaining invitations.
	ErrQuotaExhausted = apperrors.New(apperrors.CodeQuotaExhausted, "no remaining invitations")
	// ErrCodeEmpty indicates a missing invitation code.
	ErrCodeEmpty = apperrors.New(apperrors.CodeInvalidInput, "invitation code is required")
	// ErrDuplicateCode indicates batch insertion kept colliding after
	// the retry budget; the store's unique index is authoritative.
	ErrDuplicateCode = apperrors.New(apperrors.CodeDuplicateCode, "invitation code collision persisted after retries")
	// ErrMembershipInactive indicates an inactive member asked for codes.
	ErrMembershipInactive = apperrors.New(apperrors.CodeMembershipInactive, "membership is not active")
)

// batchRetries bounds re-generation of a whole batch when the unique
// index rejects it despite the generator's pre-check.
const batchRetries = 3

// Manager orchestrates invitation issuance and redemption. It is the
// only component that moves quota counters.
type Manager struct {
	store  store.Store
	gen    invitecode.Generator
	policy circles.QuotaPolicy
	log    *zap.Logger
}

// NewManager creates a Manager over the given store.
func NewManager(st store.Store, gen invitecode.Generator, policy circles.QuotaPolicy, log *zap.Logger) *Manager {
	return &Manager{store: st, gen: gen, policy: policy, log: log}
}

// IssuePending returns the member's unused invitations, creating them
// first when none exist, and reports how many were newly created.
// Calling it twice without a redemption in between returns the same
// codes: outstanding unused invitations never exceed the member's
// remaining quota. The membership row is re-read under a row lock
// inside the transaction, so two concurrent calls cannot both observe
// an empty list and double the outstanding codes.
func (m *Manager) IssuePending(ctx context.Context, membership model.Membership) ([]model.Invitation, int, error) {
	if !membership.Active {
		return nil, 0, ErrMembershipInactive
	}

	var out []model.Invitation
	var created int
	for attempt := 0; ; attempt++ {
		err := m.store.InTransaction(ctx, func(tx store.Store) error {
			locked, err := tx.Memberships().GetForUpdate(ctx, membership.UserID, membership.CircleID)
			if errors.Is(err, store.ErrNotFound) {
				return circles.ErrMembershipNotFound
			}
			if err != nil {
				return fmt.Errorf("lock membership: %w", err)
			}
			if !locked.Active {
				return ErrMembershipInactive
			}

			existing, err := tx.Invitations().ListUnused(ctx, locked.UserID, locked.CircleID)
			if err != nil {
				return fmt.Errorf("list unused invitations: %w", err)
			}
			if len(existing) > 0 {
				out, created = existing, 0
				return nil
			}
			k := int(locked.RemainingInvitations)
			if k == 0 {
				out, created = nil, 0
				return nil
			}
			batch, err := m.buildBatch(ctx, tx, locked, k)
			if err != nil {
				return err
			}
			if err := tx.Invitations().CreateBatch(ctx, batch); err != nil {
				return err
			}
			out = make([]model.Invitation, len(batch))
			for i, inv := range batch {
				out[i] = *inv
			}
			created = len(out)
			return nil
		})
		if err == nil {
			break
		}
		if errors.Is(err, store.ErrDuplicate) && attempt < batchRetries-1 {
			continue
		}
		if errors.Is(err, store.ErrDuplicate) {
			return nil, 0, ErrDuplicateCode
		}
		return nil, 0, err
	}

	if created > 0 {
		m.log.Info("invitations issued",
			zap.Uint("user_id", membership.UserID),
			zap.Uint("circle_id", membership.CircleID),
			zap.Int("count", created))
	}
	return out, created, nil
}

func (m *Manager) buildBatch(ctx context.Context, tx store.Store, membership model.Membership, k int) ([]*model.Invitation, error) {
	batch := make([]*model.Invitation, 0, k)
	taken := make(map[string]bool, k)
	exists := func(ctx context.Context, code string) (bool, error) {
		if taken[code] {
			return true, nil
		}
		return tx.Invitations().CodeExists(ctx, code)
	}
	for i := 0; i < k; i++ {
		code, err := m.gen.Generate(ctx, exists)
		if err != nil {
			return nil, err
		}
		taken[code] = true
		batch = append(batch, &model.Invitation{
			Code:     code,
			IssuedBy: membership.UserID,
			CircleID: membership.CircleID,
		})
	}
	return batch, nil
}

// Redeem consumes an invitation code for the redeeming user: the code
// flips to used exactly once, the issuer's quota moves from remaining
// to used, and a membership is created for the redeemer, all in one
// transaction.
func (m *Manager) Redeem(ctx context.Context, code string, redeemer model.User) (model.Membership, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return model.Membership{}, ErrCodeEmpty
	}

	var created model.Membership
	var issuerID uint
	err := m.store.InTransaction(ctx, func(tx store.Store) error {
		invitation, err := tx.Invitations().GetByCode(ctx, code)
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvitationNotFound
		}
		if err != nil {
			return fmt.Errorf("load invitation: %w", err)
		}
		if invitation.Used {
			return ErrInvitationAlreadyUsed
		}

		_, err = tx.Memberships().Get(ctx, redeemer.ID, invitation.CircleID)
		if err == nil {
			return circles.ErrAlreadyMember
		}
		if !errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("check existing membership: %w", err)
		}

		// Guarded update: under two concurrent redemptions of the same
		// code exactly one reaches this point with rows affected.
		if err := tx.Invitations().MarkUsed(ctx, code, redeemer.ID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrInvitationAlreadyUsed
			}
			return fmt.Errorf("mark invitation used: %w", err)
		}

		if err := tx.Memberships().ConsumeQuota(ctx, invitation.IssuedBy, invitation.CircleID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrQuotaExhausted
			}
			return fmt.Errorf("consume quota: %w", err)
		}

		issuerID = invitation.IssuedBy
		created = model.Membership{
			UserID:               redeemer.ID,
			CircleID:             invitation.CircleID,
			RemainingInvitations: m.policy.MemberInvitations,
			InvitedBy:            &issuerID,
			Active:               true,
		}
		if err := tx.Memberships().Create(ctx, &created); err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				return circles.ErrAlreadyMember
			}
			return fmt.Errorf("create membership: %w", err)
		}
		if err := tx.Circles().IncrementMembers(ctx, invitation.CircleID); err != nil {
			return fmt.Errorf("bump circle members: %w", err)
		}
		return nil
	})
	if err != nil {
		return model.Membership{}, err
	}

	m.log.Info("invitation redeemed",
		zap.Uint("circle_id", created.CircleID),
		zap.Uint("issuer_id", issuerID),
		zap.Uint("redeemer_id", redeemer.ID))
	return created, nil
}
