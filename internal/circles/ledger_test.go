package circles

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/Achess01/ComparteRide-platzi/internal/model"
	"github.com/Achess01/ComparteRide-platzi/internal/store"
	"github.com/Achess01/ComparteRide-platzi/internal/store/storetest"
)

// seedMember creates a user, a circle keyed by slug and an active
// membership binding the two.
func seedMember(t *testing.T, st store.Store, username, slug string) (model.User, model.Circle, model.Membership) {
	t.Helper()
	ctx := context.Background()
	user := seedUser(t, st, username)
	circle, err := st.Circles().GetBySlug(ctx, slug)
	if errors.Is(err, store.ErrNotFound) {
		circle = model.Circle{Name: slug, Slug: slug, Active: true}
		if err := st.Circles().Create(ctx, &circle); err != nil {
			t.Fatalf("seed circle %s: %v", slug, err)
		}
	} else if err != nil {
		t.Fatalf("load circle %s: %v", slug, err)
	}
	membership := model.Membership{UserID: user.ID, CircleID: circle.ID, Active: true}
	if err := st.Memberships().Create(ctx, &membership); err != nil {
		t.Fatalf("seed membership: %v", err)
	}
	return user, circle, membership
}

func TestLedgerGet(t *testing.T) {
	st := storetest.NewMemory()
	ledger := NewLedger(st, zap.NewNop())
	user, circle, membership := seedMember(t, st, "pablo", "fciencias")

	got, err := ledger.Get(context.Background(), user.ID, circle.ID)
	if err != nil {
		t.Fatalf("get membership: %v", err)
	}
	if got.ID != membership.ID {
		t.Errorf("got membership id %d, want %d", got.ID, membership.ID)
	}

	_, err = ledger.Get(context.Background(), user.ID, circle.ID+99)
	if !errors.Is(err, ErrMembershipNotFound) {
		t.Fatalf("expected ErrMembershipNotFound, got %v", err)
	}
}

func TestLedgerIsActiveMember(t *testing.T) {
	ctx := context.Background()
	st := storetest.NewMemory()
	ledger := NewLedger(st, zap.NewNop())
	user, circle, _ := seedMember(t, st, "pablo", "fciencias")

	active, err := ledger.IsActiveMember(ctx, user.ID, circle.ID)
	if err != nil || !active {
		t.Fatalf("expected active member, got %v, %v", active, err)
	}

	if _, err := ledger.Deactivate(ctx, user.ID, circle.ID); err != nil {
		t.Fatalf("deactivate membership: %v", err)
	}
	active, err = ledger.IsActiveMember(ctx, user.ID, circle.ID)
	if err != nil || active {
		t.Fatalf("expected inactive member, got %v, %v", active, err)
	}

	// A missing membership is simply not a member.
	active, err = ledger.IsActiveMember(ctx, user.ID+99, circle.ID)
	if err != nil || active {
		t.Fatalf("expected non-member, got %v, %v", active, err)
	}
}

func TestLedgerDeactivateReactivate(t *testing.T) {
	ctx := context.Background()
	st := storetest.NewMemory()
	ledger := NewLedger(st, zap.NewNop())
	user, circle, _ := seedMember(t, st, "pablo", "fciencias")

	membership, err := ledger.Deactivate(ctx, user.ID, circle.ID)
	if err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if membership.Active {
		t.Error("membership should be inactive")
	}

	membership, err = ledger.Reactivate(ctx, user.ID, circle.ID)
	if err != nil {
		t.Fatalf("reactivate: %v", err)
	}
	if !membership.Active {
		t.Error("membership should be active again")
	}

	_, err = ledger.Deactivate(ctx, user.ID+99, circle.ID)
	if !errors.Is(err, ErrMembershipNotFound) {
		t.Fatalf("expected ErrMembershipNotFound, got %v", err)
	}
}

func TestLedgerPromoteToAdmin(t *testing.T) {
	ctx := context.Background()
	st := storetest.NewMemory()
	ledger := NewLedger(st, zap.NewNop())
	user, circle, _ := seedMember(t, st, "maria", "fciencias")

	membership, err := ledger.PromoteToAdmin(ctx, user.ID, circle.ID)
	if err != nil {
		t.Fatalf("promote: %v", err)
	}
	if !membership.IsAdmin {
		t.Error("membership should be admin")
	}

	// Promoting an admin is a no-op.
	membership, err = ledger.PromoteToAdmin(ctx, user.ID, circle.ID)
	if err != nil {
		t.Fatalf("promote again: %v", err)
	}
	if !membership.IsAdmin {
		t.Error("membership should stay admin")
	}
}

func TestLedgerRecordRideCounters(t *testing.T) {
	ctx := context.Background()
	st := storetest.NewMemory()
	ledger := NewLedger(st, zap.NewNop())
	user, circle, _ := seedMember(t, st, "pablo", "fciencias")

	if err := ledger.RecordRideOffered(ctx, st, user.ID, circle.ID); err != nil {
		t.Fatalf("record ride offered: %v", err)
	}
	if err := ledger.RecordRideTaken(ctx, st, user.ID, circle.ID); err != nil {
		t.Fatalf("record ride taken: %v", err)
	}
	if err := ledger.RecordRideTaken(ctx, st, user.ID, circle.ID); err != nil {
		t.Fatalf("record ride taken: %v", err)
	}

	membership, err := st.Memberships().Get(ctx, user.ID, circle.ID)
	if err != nil {
		t.Fatalf("load membership: %v", err)
	}
	if membership.RidesOffered != 1 || membership.RidesTaken != 2 {
		t.Errorf("membership counters offered=%d taken=%d, want 1 and 2",
			membership.RidesOffered, membership.RidesTaken)
	}

	got, err := st.Circles().GetByID(ctx, circle.ID)
	if err != nil {
		t.Fatalf("load circle: %v", err)
	}
	if got.RidesOffered != 1 || got.RidesTaken != 2 {
		t.Errorf("circle counters offered=%d taken=%d, want 1 and 2",
			got.RidesOffered, got.RidesTaken)
	}
}

func TestLedgerRecordRideOfferedMissingMembershipRollsBack(t *testing.T) {
	ctx := context.Background()
	st := storetest.NewMemory()
	ledger := NewLedger(st, zap.NewNop())
	user, circle, _ := seedMember(t, st, "pablo", "fciencias")

	err := st.InTransaction(ctx, func(tx store.Store) error {
		if err := tx.Circles().IncrementMembers(ctx, circle.ID); err != nil {
			return err
		}
		return ledger.RecordRideOffered(ctx, tx, 999, circle.ID)
	})
	if err == nil {
		t.Fatal("expected error for missing membership")
	}

	// The whole transaction rolled back, sibling writes included.
	got, err := st.Circles().GetByID(ctx, circle.ID)
	if err != nil {
		t.Fatalf("load circle: %v", err)
	}
	if got.RidesOffered != 0 || got.MembersCount != 0 {
		t.Errorf("circle counters offered=%d members=%d despite rollback",
			got.RidesOffered, got.MembersCount)
	}

	membership, err := st.Memberships().Get(ctx, user.ID, circle.ID)
	if err != nil {
		t.Fatalf("load membership: %v", err)
	}
	if membership.RidesOffered != 0 {
		t.Errorf("membership counter moved to %d despite rollback", membership.RidesOffered)
	}
}

func TestLedgerDetachInviter(t *testing.T) {
	ctx := context.Background()
	st := storetest.NewMemory()
	ledger := NewLedger(st, zap.NewNop())
	inviter, circle, _ := seedMember(t, st, "pablo", "fciencias")
	invited := seedUser(t, st, "maria")

	inviterID := inviter.ID
	membership := model.Membership{
		UserID:    invited.ID,
		CircleID:  circle.ID,
		InvitedBy: &inviterID,
		Active:    true,
	}
	if err := st.Memberships().Create(ctx, &membership); err != nil {
		t.Fatalf("seed invited membership: %v", err)
	}

	n, err := ledger.DetachInviter(ctx, inviter.ID)
	if err != nil {
		t.Fatalf("detach inviter: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 detached membership, got %d", n)
	}

	got, err := st.Memberships().Get(ctx, invited.ID, circle.ID)
	if err != nil {
		t.Fatalf("load membership: %v", err)
	}
	if got.InvitedBy != nil {
		t.Error("invited_by should be cleared")
	}
	if !got.Active {
		t.Error("membership itself must survive the detach")
	}
}
