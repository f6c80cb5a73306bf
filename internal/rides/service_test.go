package rides

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/Achess01/ComparteRide-platzi/internal/circles"
	"github.com/Achess01/ComparteRide-platzi/internal/model"
	"github.com/Achess01/ComparteRide-platzi/internal/store/storetest"
)

type fixture struct {
	store   *storetest.Memory
	service *Service
	circle  model.Circle
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := storetest.NewMemory()
	circle := model.Circle{Name: "Facultad de Ciencias", Slug: "fciencias", Active: true}
	if err := st.Circles().Create(context.Background(), &circle); err != nil {
		t.Fatalf("seed circle: %v", err)
	}
	ledger := circles.NewLedger(st, zap.NewNop())
	return &fixture{store: st, service: NewService(st, ledger, zap.NewNop()), circle: circle}
}

func (f *fixture) seedMember(t *testing.T, username string) model.Membership {
	t.Helper()
	ctx := context.Background()
	user := model.User{Username: username, Email: username + "@example.com"}
	if err := f.store.Users().Create(ctx, &user); err != nil {
		t.Fatalf("seed user %s: %v", username, err)
	}
	membership := model.Membership{UserID: user.ID, CircleID: f.circle.ID, Active: true}
	if err := f.store.Memberships().Create(ctx, &membership); err != nil {
		t.Fatalf("seed membership: %v", err)
	}
	return membership
}

func validOffer() OfferRideInput {
	departure := time.Now().Add(2 * time.Hour)
	return OfferRideInput{
		DepartureLocation: "Metro Universidad",
		ArrivalLocation:   "Facultad de Ciencias",
		DepartureDate:     departure,
		ArrivalDate:       departure.Add(30 * time.Minute),
		AvailableSeats:    2,
	}
}

func TestOfferRide(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	driver := f.seedMember(t, "pablo")

	ride, err := f.service.OfferRide(ctx, validOffer(), driver)
	if err != nil {
		t.Fatalf("offer ride: %v", err)
	}
	if ride.ID == 0 {
		t.Fatal("expected a persisted ride id")
	}
	if ride.OfferedBy != driver.UserID || ride.CircleID != f.circle.ID {
		t.Errorf("ride bound to (%d,%d), want (%d,%d)",
			ride.OfferedBy, ride.CircleID, driver.UserID, f.circle.ID)
	}
	if !ride.Active {
		t.Error("new ride should be active")
	}

	membership, err := f.store.Memberships().Get(ctx, driver.UserID, f.circle.ID)
	if err != nil {
		t.Fatalf("load membership: %v", err)
	}
	if membership.RidesOffered != 1 {
		t.Errorf("membership rides offered %d, want 1", membership.RidesOffered)
	}
	circle, err := f.store.Circles().GetByID(ctx, f.circle.ID)
	if err != nil {
		t.Fatalf("load circle: %v", err)
	}
	if circle.RidesOffered != 1 {
		t.Errorf("circle rides offered %d, want 1", circle.RidesOffered)
	}
}

func TestOfferRideValidation(t *testing.T) {
	f := newFixture(t)
	driver := f.seedMember(t, "pablo")

	tests := []struct {
		name   string
		mutate func(*OfferRideInput)
	}{
		{name: "empty departure", mutate: func(in *OfferRideInput) { in.DepartureLocation = " " }},
		{name: "empty arrival", mutate: func(in *OfferRideInput) { in.ArrivalLocation = "" }},
		{name: "zero seats", mutate: func(in *OfferRideInput) { in.AvailableSeats = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validOffer()
			tt.mutate(&input)
			_, err := f.service.OfferRide(context.Background(), input, driver)
			if !errors.Is(err, ErrInvalidRide) {
				t.Fatalf("expected ErrInvalidRide, got %v", err)
			}
		})
	}
}

func TestOfferRideInactiveMembership(t *testing.T) {
	f := newFixture(t)
	driver := f.seedMember(t, "pablo")
	driver.Active = false

	_, err := f.service.OfferRide(context.Background(), validOffer(), driver)
	if !errors.Is(err, circles.ErrMembershipNotFound) {
		t.Fatalf("expected ErrMembershipNotFound, got %v", err)
	}
}

func TestJoinRide(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	driver := f.seedMember(t, "pablo")
	rider := f.seedMember(t, "maria")

	ride, err := f.service.OfferRide(ctx, validOffer(), driver)
	if err != nil {
		t.Fatalf("offer ride: %v", err)
	}

	joined, err := f.service.JoinRide(ctx, ride.ID, rider)
	if err != nil {
		t.Fatalf("join ride: %v", err)
	}
	if joined.AvailableSeats != 1 {
		t.Errorf("available seats %d, want 1", joined.AvailableSeats)
	}

	membership, err := f.store.Memberships().Get(ctx, rider.UserID, f.circle.ID)
	if err != nil {
		t.Fatalf("load membership: %v", err)
	}
	if membership.RidesTaken != 1 {
		t.Errorf("membership rides taken %d, want 1", membership.RidesTaken)
	}
	circle, err := f.store.Circles().GetByID(ctx, f.circle.ID)
	if err != nil {
		t.Fatalf("load circle: %v", err)
	}
	if circle.RidesTaken != 1 {
		t.Errorf("circle rides taken %d, want 1", circle.RidesTaken)
	}
}

func TestJoinRideTwice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	driver := f.seedMember(t, "pablo")
	rider := f.seedMember(t, "maria")

	ride, err := f.service.OfferRide(ctx, validOffer(), driver)
	if err != nil {
		t.Fatalf("offer ride: %v", err)
	}
	if _, err := f.service.JoinRide(ctx, ride.ID, rider); err != nil {
		t.Fatalf("first join: %v", err)
	}

	_, err = f.service.JoinRide(ctx, ride.ID, rider)
	if !errors.Is(err, ErrAlreadyPassenger) {
		t.Fatalf("expected ErrAlreadyPassenger, got %v", err)
	}

	// The rejected join must not burn a seat.
	reloaded, err := f.store.Rides().GetByID(ctx, ride.ID)
	if err != nil {
		t.Fatalf("reload ride: %v", err)
	}
	if reloaded.AvailableSeats != 1 {
		t.Errorf("available seats %d, want 1", reloaded.AvailableSeats)
	}
}

func TestJoinRideNoSeats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	driver := f.seedMember(t, "pablo")

	input := validOffer()
	input.AvailableSeats = 1
	ride, err := f.service.OfferRide(ctx, input, driver)
	if err != nil {
		t.Fatalf("offer ride: %v", err)
	}

	first := f.seedMember(t, "maria")
	if _, err := f.service.JoinRide(ctx, ride.ID, first); err != nil {
		t.Fatalf("join ride: %v", err)
	}

	second := f.seedMember(t, "diana")
	_, err = f.service.JoinRide(ctx, ride.ID, second)
	if !errors.Is(err, ErrNoSeatsAvailable) {
		t.Fatalf("expected ErrNoSeatsAvailable, got %v", err)
	}
}

func TestJoinOwnRide(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	driver := f.seedMember(t, "pablo")

	ride, err := f.service.OfferRide(ctx, validOffer(), driver)
	if err != nil {
		t.Fatalf("offer ride: %v", err)
	}

	_, err = f.service.JoinRide(ctx, ride.ID, driver)
	if !errors.Is(err, ErrOwnRide) {
		t.Fatalf("expected ErrOwnRide, got %v", err)
	}
}

func TestJoinRideFromAnotherCircle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	driver := f.seedMember(t, "pablo")

	ride, err := f.service.OfferRide(ctx, validOffer(), driver)
	if err != nil {
		t.Fatalf("offer ride: %v", err)
	}

	other := model.Circle{Name: "Oficina", Slug: "oficina", Active: true}
	if err := f.store.Circles().Create(ctx, &other); err != nil {
		t.Fatalf("seed circle: %v", err)
	}
	outsider := model.User{Username: "diana", Email: "diana@example.com"}
	if err := f.store.Users().Create(ctx, &outsider); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	membership := model.Membership{UserID: outsider.ID, CircleID: other.ID, Active: true}
	if err := f.store.Memberships().Create(ctx, &membership); err != nil {
		t.Fatalf("seed membership: %v", err)
	}

	_, err = f.service.JoinRide(ctx, ride.ID, membership)
	if !errors.Is(err, ErrRideNotFound) {
		t.Fatalf("expected ErrRideNotFound, got %v", err)
	}
}

func TestJoinRideCounterFailureRestoresSeat(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	driver := f.seedMember(t, "pablo")

	ride, err := f.service.OfferRide(ctx, validOffer(), driver)
	if err != nil {
		t.Fatalf("offer ride: %v", err)
	}

	// A membership value with no backing row makes the counter bump
	// fail after the seat was consumed; everything must roll back.
	ghost := model.Membership{UserID: 999, CircleID: f.circle.ID, Active: true}
	if _, err := f.service.JoinRide(ctx, ride.ID, ghost); err == nil {
		t.Fatal("expected error for missing membership")
	}

	reloaded, err := f.store.Rides().GetByID(ctx, ride.ID)
	if err != nil {
		t.Fatalf("reload ride: %v", err)
	}
	if reloaded.AvailableSeats != 2 {
		t.Errorf("available seats %d after rollback, want 2", reloaded.AvailableSeats)
	}

	// The seat is still takable by a real member.
	rider := f.seedMember(t, "maria")
	if _, err := f.service.JoinRide(ctx, ride.ID, rider); err != nil {
		t.Fatalf("join after rollback: %v", err)
	}
	circle, err := f.store.Circles().GetByID(ctx, f.circle.ID)
	if err != nil {
		t.Fatalf("load circle: %v", err)
	}
	if circle.RidesTaken != 1 {
		t.Errorf("circle rides taken %d, want 1", circle.RidesTaken)
	}
}

func TestOfferRideCounterFailureDiscardsRide(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ghost := model.Membership{UserID: 999, CircleID: f.circle.ID, Active: true}
	if _, err := f.service.OfferRide(ctx, validOffer(), ghost); err == nil {
		t.Fatal("expected error for missing membership")
	}

	// The rolled-back ride leaves no trace; a real member's offer is
	// the first ride in the store.
	driver := f.seedMember(t, "pablo")
	ride, err := f.service.OfferRide(ctx, validOffer(), driver)
	if err != nil {
		t.Fatalf("offer ride: %v", err)
	}
	got, err := f.store.Rides().GetByID(ctx, ride.ID)
	if err != nil {
		t.Fatalf("load ride: %v", err)
	}
	if got.OfferedBy != driver.UserID {
		t.Errorf("ride offered by %d, want %d", got.OfferedBy, driver.UserID)
	}
	circle, err := f.store.Circles().GetByID(ctx, f.circle.ID)
	if err != nil {
		t.Fatalf("load circle: %v", err)
	}
	if circle.RidesOffered != 1 {
		t.Errorf("circle rides offered %d, want 1", circle.RidesOffered)
	}
}

func TestJoinMissingRide(t *testing.T) {
	f := newFixture(t)
	rider := f.seedMember(t, "maria")

	_, err := f.service.JoinRide(context.Background(), 999, rider)
	if !errors.Is(err, ErrRideNotFound) {
		t.Fatalf("expected ErrRideNotFound, got %v", err)
	}
}
