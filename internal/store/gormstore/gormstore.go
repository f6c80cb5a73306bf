// Package gormstore implements the store interfaces on top of gorm and
// PostgreSQL. Unique indexes are the source of truth for collisions;
// guarded updates back the compare-and-swap operations.
package gormstore

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/Achess01/ComparteRide-platzi/internal/store"
)

// Store is the gorm-backed implementation of store.Store.
type Store struct {
	db *gorm.DB
}

// New wraps a gorm connection. The connection must be opened with
// TranslateError enabled so duplicate-key violations surface as
// gorm.ErrDuplicatedKey.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Users() store.UserStore               { return &userStore{db: s.db} }
func (s *Store) Circles() store.CircleStore           { return &circleStore{db: s.db} }
func (s *Store) Memberships() store.MembershipStore   { return &membershipStore{db: s.db} }
func (s *Store) Invitations() store.InvitationStore   { return &invitationStore{db: s.db} }
func (s *Store) Rides() store.RideStore               { return &rideStore{db: s.db} }

// InTransaction runs fn against a Store bound to one transaction.
func (s *Store) InTransaction(ctx context.Context, fn func(store.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(New(tx))
	})
}

// translate maps gorm errors to the store sentinels.
func translate(err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return store.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return store.ErrDuplicate
	}
	return err
}
