package profiles

import (
	"context"

	"whatssound/internal/app"
	"whatssound/internal/store"
	"whatssound/internal/validate"
)

// Store describes the persistence operations required by the profile service.
type Store interface {
	ProfileByUserID(ctx context.Context, userID string) (store.Profile, error)
	UpsertProfile(ctx context.Context, profile store.Profile) (store.Profile, error)
}

// Service exposes profile workflows.
type Service interface {
	Get(ctx context.Context, userID string) (store.Profile, error)
	Update(ctx context.Context, userID string, form validate.ProfileForm) (store.Profile, error)
}

type service struct {
	store Store
}

// New wires a Service backed by the provided Store.
func New(store Store) Service {
	return &service{store: store}
}

func (s *service) Get(ctx context.Context, userID string) (store.Profile, error) {
	if err := ctx.Err(); err != nil {
		return store.Profile{}, err
	}
	return s.store.ProfileByUserID(ctx, userID)
}

func (s *service) Update(ctx context.Context, userID string, form validate.ProfileForm) (store.Profile, error) {
	if err := ctx.Err(); err != nil {
		return store.Profile{}, err
	}

	if result := validate.Profile(form); !result.Valid {
		return store.Profile{}, app.Invalid(app.ErrInvalidInput, result.Error)
	}
	form = form.Normalize()

	return s.store.UpsertProfile(ctx, store.Profile{
		UserID:      userID,
		DisplayName: form.DisplayName,
		Genres:      form.Genres,
	})
}
