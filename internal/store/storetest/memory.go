// Package storetest provides an in-memory store.Store used by service
// and handler tests. It mirrors the uniqueness constraints and guarded
// updates of the gorm implementation.
package storetest

import (
	"context"
	"sync"
	"time"

	"github.com/Achess01/ComparteRide-platzi/internal/model"
	"github.com/Achess01/ComparteRide-platzi/internal/store"
)

// Memory is an in-memory store.Store. A transaction holds the store
// lock for its whole body and restores a snapshot when the body fails,
// so multi-step operations are atomic the way they are under postgres.
type Memory struct {
	mu sync.Mutex
	st state
}

type state struct {
	seq         uint
	users       map[uint]model.User
	circles     map[uint]model.Circle
	memberships map[uint]model.Membership
	invitations map[uint]model.Invitation
	rides       map[uint]model.Ride
	passengers  map[uint]model.RidePassenger
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{st: state{
		users:       map[uint]model.User{},
		circles:     map[uint]model.Circle{},
		memberships: map[uint]model.Membership{},
		invitations: map[uint]model.Invitation{},
		rides:       map[uint]model.Ride{},
		passengers:  map[uint]model.RidePassenger{},
	}}
}

func (s state) clone() state {
	cp := state{
		seq:         s.seq,
		users:       make(map[uint]model.User, len(s.users)),
		circles:     make(map[uint]model.Circle, len(s.circles)),
		memberships: make(map[uint]model.Membership, len(s.memberships)),
		invitations: make(map[uint]model.Invitation, len(s.invitations)),
		rides:       make(map[uint]model.Ride, len(s.rides)),
		passengers:  make(map[uint]model.RidePassenger, len(s.passengers)),
	}
	for k, v := range s.users {
		cp.users[k] = v
	}
	for k, v := range s.circles {
		cp.circles[k] = v
	}
	for k, v := range s.memberships {
		cp.memberships[k] = v
	}
	for k, v := range s.invitations {
		cp.invitations[k] = v
	}
	for k, v := range s.rides {
		cp.rides[k] = v
	}
	for k, v := range s.passengers {
		cp.passengers[k] = v
	}
	return cp
}

func (m *Memory) Users() store.UserStore             { return &userStore{m: m, lock: true} }
func (m *Memory) Circles() store.CircleStore         { return &circleStore{m: m, lock: true} }
func (m *Memory) Memberships() store.MembershipStore { return &membershipStore{m: m, lock: true} }
func (m *Memory) Invitations() store.InvitationStore { return &invitationStore{m: m, lock: true} }
func (m *Memory) Rides() store.RideStore             { return &rideStore{m: m, lock: true} }

// InTransaction holds the store lock for fn and rolls back to a
// snapshot when fn returns an error.
func (m *Memory) InTransaction(_ context.Context, fn func(store.Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := m.st.clone()
	if err := fn(&txView{m: m}); err != nil {
		m.st = snap
		return err
	}
	return nil
}

// txView exposes substores that assume the lock is already held.
type txView struct {
	m *Memory
}

func (t *txView) Users() store.UserStore             { return &userStore{m: t.m} }
func (t *txView) Circles() store.CircleStore         { return &circleStore{m: t.m} }
func (t *txView) Memberships() store.MembershipStore { return &membershipStore{m: t.m} }
func (t *txView) Invitations() store.InvitationStore { return &invitationStore{m: t.m} }
func (t *txView) Rides() store.RideStore             { return &rideStore{m: t.m} }

// Nested transactions are not needed by the services; run fn directly.
func (t *txView) InTransaction(_ context.Context, fn func(store.Store) error) error {
	return fn(t)
}

func (m *Memory) acquire(lock bool) func() {
	if !lock {
		return func() {}
	}
	m.mu.Lock()
	return m.mu.Unlock
}

func (m *Memory) nextID() uint {
	m.st.seq++
	return m.st.seq
}

type userStore struct {
	m    *Memory
	lock bool
}

func (s *userStore) Create(_ context.Context, user *model.User) error {
	defer s.m.acquire(s.lock)()
	for _, u := range s.m.st.users {
		if u.Username == user.Username || u.Email == user.Email {
			return store.ErrDuplicate
		}
	}
	user.ID = s.m.nextID()
	user.CreatedAt = time.Now()
	s.m.st.users[user.ID] = *user
	return nil
}

func (s *userStore) GetByID(_ context.Context, id uint) (model.User, error) {
	defer s.m.acquire(s.lock)()
	u, ok := s.m.st.users[id]
	if !ok {
		return model.User{}, store.ErrNotFound
	}
	return u, nil
}

func (s *userStore) GetByUsername(_ context.Context, username string) (model.User, error) {
	defer s.m.acquire(s.lock)()
	for _, u := range s.m.st.users {
		if u.Username == username {
			return u, nil
		}
	}
	return model.User{}, store.ErrNotFound
}

func (s *userStore) GetByEmail(_ context.Context, email string) (model.User, error) {
	defer s.m.acquire(s.lock)()
	for _, u := range s.m.st.users {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, store.ErrNotFound
}

type circleStore struct {
	m    *Memory
	lock bool
}

func (s *circleStore) Create(_ context.Context, circle *model.Circle) error {
	defer s.m.acquire(s.lock)()
	for _, c := range s.m.st.circles {
		if c.Slug == circle.Slug {
			return store.ErrDuplicate
		}
	}
	circle.ID = s.m.nextID()
	circle.CreatedAt = time.Now()
	s.m.st.circles[circle.ID] = *circle
	return nil
}

func (s *circleStore) GetByID(_ context.Context, id uint) (model.Circle, error) {
	defer s.m.acquire(s.lock)()
	c, ok := s.m.st.circles[id]
	if !ok {
		return model.Circle{}, store.ErrNotFound
	}
	return c, nil
}

func (s *circleStore) GetBySlug(_ context.Context, slug string) (model.Circle, error) {
	defer s.m.acquire(s.lock)()
	for _, c := range s.m.st.circles {
		if c.Slug == slug {
			return c, nil
		}
	}
	return model.Circle{}, store.ErrNotFound
}

func (s *circleStore) Save(_ context.Context, circle *model.Circle) error {
	defer s.m.acquire(s.lock)()
	if _, ok := s.m.st.circles[circle.ID]; !ok {
		return store.ErrNotFound
	}
	s.m.st.circles[circle.ID] = *circle
	return nil
}

func (s *circleStore) ListPublic(_ context.Context, limit, offset int) ([]model.Circle, error) {
	defer s.m.acquire(s.lock)()
	var all []model.Circle
	for id := uint(1); id <= s.m.st.seq; id++ {
		if c, ok := s.m.st.circles[id]; ok && c.IsPublic && c.Active {
			all = append(all, c)
		}
	}
	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (s *circleStore) IncrementMembers(_ context.Context, circleID uint) error {
	return s.bump(circleID, func(c *model.Circle) { c.MembersCount++ })
}

func (s *circleStore) IncrementRidesOffered(_ context.Context, circleID uint) error {
	return s.bump(circleID, func(c *model.Circle) { c.RidesOffered++ })
}

func (s *circleStore) IncrementRidesTaken(_ context.Context, circleID uint) error {
	return s.bump(circleID, func(c *model.Circle) { c.RidesTaken++ })
}

func (s *circleStore) bump(circleID uint, apply func(*model.Circle)) error {
	defer s.m.acquire(s.lock)()
	c, ok := s.m.st.circles[circleID]
	if !ok {
		return store.ErrNotFound
	}
	apply(&c)
	s.m.st.circles[circleID] = c
	return nil
}

type membershipStore struct {
	m    *Memory
	lock bool
}

func (s *membershipStore) Create(_ context.Context, membership *model.Membership) error {
	defer s.m.acquire(s.lock)()
	for _, ms := range s.m.st.memberships {
		if ms.UserID == membership.UserID && ms.CircleID == membership.CircleID {
			return store.ErrDuplicate
		}
	}
	membership.ID = s.m.nextID()
	membership.CreatedAt = time.Now()
	s.m.st.memberships[membership.ID] = *membership
	return nil
}

func (s *membershipStore) Get(_ context.Context, userID, circleID uint) (model.Membership, error) {
	defer s.m.acquire(s.lock)()
	ms, ok := s.find(userID, circleID)
	if !ok {
		return model.Membership{}, store.ErrNotFound
	}
	return ms, nil
}

// GetForUpdate behaves like Get; the store mutex already serializes
// transactions, matching the row lock of the SQL implementation.
func (s *membershipStore) GetForUpdate(ctx context.Context, userID, circleID uint) (model.Membership, error) {
	return s.Get(ctx, userID, circleID)
}

func (s *membershipStore) find(userID, circleID uint) (model.Membership, bool) {
	for _, ms := range s.m.st.memberships {
		if ms.UserID == userID && ms.CircleID == circleID {
			return ms, true
		}
	}
	return model.Membership{}, false
}

func (s *membershipStore) Save(_ context.Context, membership *model.Membership) error {
	defer s.m.acquire(s.lock)()
	if _, ok := s.m.st.memberships[membership.ID]; !ok {
		return store.ErrNotFound
	}
	s.m.st.memberships[membership.ID] = *membership
	return nil
}

func (s *membershipStore) ConsumeQuota(_ context.Context, userID, circleID uint) error {
	defer s.m.acquire(s.lock)()
	ms, ok := s.find(userID, circleID)
	if !ok || ms.RemainingInvitations == 0 {
		return store.ErrNotFound
	}
	ms.RemainingInvitations--
	ms.UsedInvitations++
	s.m.st.memberships[ms.ID] = ms
	return nil
}

func (s *membershipStore) IncrementRidesOffered(_ context.Context, userID, circleID uint) error {
	return s.bump(userID, circleID, func(ms *model.Membership) { ms.RidesOffered++ })
}

func (s *membershipStore) IncrementRidesTaken(_ context.Context, userID, circleID uint) error {
	return s.bump(userID, circleID, func(ms *model.Membership) { ms.RidesTaken++ })
}

func (s *membershipStore) bump(userID, circleID uint, apply func(*model.Membership)) error {
	defer s.m.acquire(s.lock)()
	ms, ok := s.find(userID, circleID)
	if !ok {
		return store.ErrNotFound
	}
	apply(&ms)
	s.m.st.memberships[ms.ID] = ms
	return nil
}

func (s *membershipStore) DetachInviter(_ context.Context, inviterID uint) (int64, error) {
	defer s.m.acquire(s.lock)()
	var n int64
	for id, ms := range s.m.st.memberships {
		if ms.InvitedBy != nil && *ms.InvitedBy == inviterID {
			ms.InvitedBy = nil
			s.m.st.memberships[id] = ms
			n++
		}
	}
	return n, nil
}

type invitationStore struct {
	m    *Memory
	lock bool
}

func (s *invitationStore) CreateBatch(_ context.Context, invitations []*model.Invitation) error {
	defer s.m.acquire(s.lock)()
	seen := map[string]bool{}
	for _, inv := range s.m.st.invitations {
		seen[inv.Code] = true
	}
	for _, inv := range invitations {
		if seen[inv.Code] {
			return store.ErrDuplicate
		}
		seen[inv.Code] = true
	}
	for _, inv := range invitations {
		inv.ID = s.m.nextID()
		inv.CreatedAt = time.Now()
		s.m.st.invitations[inv.ID] = *inv
	}
	return nil
}

func (s *invitationStore) GetByCode(_ context.Context, code string) (model.Invitation, error) {
	defer s.m.acquire(s.lock)()
	for _, inv := range s.m.st.invitations {
		if inv.Code == code {
			return inv, nil
		}
	}
	return model.Invitation{}, store.ErrNotFound
}

func (s *invitationStore) ListUnused(_ context.Context, issuerID, circleID uint) ([]model.Invitation, error) {
	defer s.m.acquire(s.lock)()
	var out []model.Invitation
	for id := uint(1); id <= s.m.st.seq; id++ {
		inv, ok := s.m.st.invitations[id]
		if ok && inv.IssuedBy == issuerID && inv.CircleID == circleID && !inv.Used {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (s *invitationStore) CodeExists(_ context.Context, code string) (bool, error) {
	defer s.m.acquire(s.lock)()
	for _, inv := range s.m.st.invitations {
		if inv.Code == code {
			return true, nil
		}
	}
	return false, nil
}

func (s *invitationStore) MarkUsed(_ context.Context, code string, usedBy uint) error {
	defer s.m.acquire(s.lock)()
	for id, inv := range s.m.st.invitations {
		if inv.Code == code && !inv.Used {
			inv.Used = true
			inv.UsedBy = &usedBy
			s.m.st.invitations[id] = inv
			return nil
		}
	}
	return store.ErrNotFound
}

type rideStore struct {
	m    *Memory
	lock bool
}

func (s *rideStore) Create(_ context.Context, ride *model.Ride) error {
	defer s.m.acquire(s.lock)()
	ride.ID = s.m.nextID()
	ride.CreatedAt = time.Now()
	s.m.st.rides[ride.ID] = *ride
	return nil
}

func (s *rideStore) GetByID(_ context.Context, id uint) (model.Ride, error) {
	defer s.m.acquire(s.lock)()
	r, ok := s.m.st.rides[id]
	if !ok {
		return model.Ride{}, store.ErrNotFound
	}
	return r, nil
}

func (s *rideStore) ConsumeSeat(_ context.Context, rideID uint) error {
	defer s.m.acquire(s.lock)()
	r, ok := s.m.st.rides[rideID]
	if !ok || !r.Active || r.AvailableSeats == 0 {
		return store.ErrNotFound
	}
	r.AvailableSeats--
	s.m.st.rides[rideID] = r
	return nil
}

func (s *rideStore) AddPassenger(_ context.Context, passenger *model.RidePassenger) error {
	defer s.m.acquire(s.lock)()
	for _, p := range s.m.st.passengers {
		if p.RideID == passenger.RideID && p.UserID == passenger.UserID {
			return store.ErrDuplicate
		}
	}
	passenger.ID = s.m.nextID()
	passenger.CreatedAt = time.Now()
	s.m.st.passengers[passenger.ID] = *passenger
	return nil
}
