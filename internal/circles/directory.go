package circles

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Achess01/ComparteRide-platzi/internal/model"
	"github.com/Achess01/ComparteRide-platzi/internal/store"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Directory owns circle creation, lookup and admin-level mutations.
// Creating a circle also creates the founder's admin membership; the
// two writes share one transaction so a circle can never exist without
// an admin.
type Directory struct {
	store  store.Store
	policy QuotaPolicy
	log    *zap.Logger
}

// NewDirectory creates a Directory over the given store.
func NewDirectory(st store.Store, policy QuotaPolicy, log *zap.Logger) *Directory {
	return &Directory{store: st, policy: policy, log: log}
}

// CreateCircleInput describes a new circle.
type CreateCircleInput struct {
	Name         string
	Slug         string
	About        string
	IsPublic     bool
	IsLimited    bool
	MembersLimit uint
}

// CreateCircle persists the circle and its founding membership
// atomically. Fails with ErrDuplicateSlug when the slug is taken.
func (d *Directory) CreateCircle(ctx context.Context, input CreateCircleInput, founder model.User) (model.Circle, model.Membership, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return model.Circle{}, model.Membership{}, ErrNameEmpty
	}
	input.Slug = strings.TrimSpace(input.Slug)
	if input.Slug == "" {
		return model.Circle{}, model.Membership{}, ErrSlugEmpty
	}

	circle := model.Circle{
		Name:         input.Name,
		Slug:         input.Slug,
		About:        input.About,
		IsPublic:     input.IsPublic,
		Active:       true,
		MembersCount: 1,
		IsLimited:    input.IsLimited,
		MembersLimit: input.MembersLimit,
	}
	var membership model.Membership

	err := d.store.InTransaction(ctx, func(tx store.Store) error {
		if err := tx.Circles().Create(ctx, &circle); err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				return ErrDuplicateSlug
			}
			return fmt.Errorf("create circle: %w", err)
		}
		membership = FoundingMembership(founder.ID, circle.ID, d.policy)
		if err := tx.Memberships().Create(ctx, &membership); err != nil {
			return fmt.Errorf("create founding membership: %w", err)
		}
		return nil
	})
	if err != nil {
		return model.Circle{}, model.Membership{}, err
	}

	d.log.Info("circle created",
		zap.String("slug", circle.Slug),
		zap.Uint("circle_id", circle.ID),
		zap.Uint("founder_id", founder.ID))
	return circle, membership, nil
}

// GetBySlug returns the circle with the given slug.
func (d *Directory) GetBySlug(ctx context.Context, slug string) (model.Circle, error) {
	circle, err := d.store.Circles().GetBySlug(ctx, slug)
	if errors.Is(err, store.ErrNotFound) {
		return model.Circle{}, ErrCircleNotFound
	}
	return circle, err
}

// ListPublic returns a page of public, active circles.
func (d *Directory) ListPublic(ctx context.Context, limit, offset int) ([]model.Circle, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return d.store.Circles().ListPublic(ctx, limit, offset)
}

// UpdateCircleInput carries the admin-editable circle fields; nil
// pointers leave a field unchanged.
type UpdateCircleInput struct {
	Name         *string
	About        *string
	IsPublic     *bool
	IsLimited    *bool
	MembersLimit *uint
}

// Update applies admin edits to a circle. The slug is immutable.
func (d *Directory) Update(ctx context.Context, slug string, input UpdateCircleInput) (model.Circle, error) {
	circle, err := d.GetBySlug(ctx, slug)
	if err != nil {
		return model.Circle{}, err
	}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return model.Circle{}, ErrNameEmpty
		}
		circle.Name = name
	}
	if input.About != nil {
		circle.About = *input.About
	}
	if input.IsPublic != nil {
		circle.IsPublic = *input.IsPublic
	}
	if input.IsLimited != nil {
		circle.IsLimited = *input.IsLimited
	}
	if input.MembersLimit != nil {
		circle.MembersLimit = *input.MembersLimit
	}
	if err := d.store.Circles().Save(ctx, &circle); err != nil {
		return model.Circle{}, fmt.Errorf("update circle: %w", err)
	}
	return circle, nil
}

// Deactivate soft-deactivates a circle. Circles are never deleted.
func (d *Directory) Deactivate(ctx context.Context, slug string) (model.Circle, error) {
	circle, err := d.GetBySlug(ctx, slug)
	if err != nil {
		return model.Circle{}, err
	}
	if !circle.Active {
		return circle, nil
	}
	circle.Active = false
	if err := d.store.Circles().Save(ctx, &circle); err != nil {
		return model.Circle{}, fmt.Errorf("deactivate circle: %w", err)
	}
	d.log.Info("circle deactivated", zap.String("slug", circle.Slug))
	return circle, nil
}
