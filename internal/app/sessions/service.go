package sessions

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"whatssound/internal/app"
	"whatssound/internal/joincode"
	"whatssound/internal/metrics"
	"whatssound/internal/store"
	"whatssound/internal/validate"
)

const maxCodeAttempts = 5

// Store captures the persistence needs for session workflows.
type Store interface {
	CreateSession(ctx context.Context, session store.Session) (store.Session, error)
	SessionByID(ctx context.Context, id string) (store.Session, error)
	SessionByCode(ctx context.Context, code string) (store.Session, error)
	EndSession(ctx context.Context, id string) (store.Session, error)
}

// CodeGenerator mints join codes.
type CodeGenerator func() (string, error)

// Service coordinates the session lifecycle.
type Service interface {
	Create(ctx context.Context, djID string, form validate.SessionForm) (store.Session, error)
	Get(ctx context.Context, id string) (store.Session, error)
	GetByCode(ctx context.Context, code string) (store.Session, error)
	End(ctx context.Context, djID, id string) (store.Session, error)
}

type service struct {
	store Store
	codes CodeGenerator
}

// New constructs a Service backed by the provided Store. A nil generator
// uses joincode.Generate.
func New(store Store, codes CodeGenerator) Service {
	if codes == nil {
		codes = joincode.Generate
	}
	return &service{store: store, codes: codes}
}

func (s *service) Create(ctx context.Context, djID string, form validate.SessionForm) (store.Session, error) {
	if err := ctx.Err(); err != nil {
		return store.Session{}, err
	}

	if result := validate.Session(form); !result.Valid {
		return store.Session{}, app.Invalid(app.ErrInvalidInput, result.Error)
	}
	form = form.Normalize()

	for attempt := 1; attempt <= maxCodeAttempts; attempt++ {
		code, err := s.codes()
		if err != nil {
			return store.Session{}, fmt.Errorf("generate join code: %w", err)
		}

		session, err := s.store.CreateSession(ctx, store.Session{
			DJID:     djID,
			Name:     form.Name,
			Genres:   form.Genres,
			JoinCode: code,
		})
		if errors.Is(err, store.ErrJoinCodeTaken) {
			metrics.JoinCodeCollisionsTotal.Inc()
			log.Debug().Str("join_code", code).Int("attempt", attempt).Msg("join code collision")
			continue
		}
		if err != nil {
			return store.Session{}, err
		}

		metrics.SessionsStartedTotal.Inc()
		return session, nil
	}

	return store.Session{}, fmt.Errorf("allocate join code after %d attempts: %w", maxCodeAttempts, store.ErrJoinCodeTaken)
}

func (s *service) Get(ctx context.Context, id string) (store.Session, error) {
	if err := ctx.Err(); err != nil {
		return store.Session{}, err
	}
	return s.store.SessionByID(ctx, id)
}

func (s *service) GetByCode(ctx context.Context, code string) (store.Session, error) {
	if err := ctx.Err(); err != nil {
		return store.Session{}, err
	}

	normalized, ok := joincode.Normalize(code)
	if !ok {
		return store.Session{}, store.ErrSessionNotFound
	}
	return s.store.SessionByCode(ctx, normalized)
}

func (s *service) End(ctx context.Context, djID, id string) (store.Session, error) {
	if err := ctx.Err(); err != nil {
		return store.Session{}, err
	}

	session, err := s.store.SessionByID(ctx, id)
	if err != nil {
		return store.Session{}, err
	}
	if session.DJID != djID {
		return store.Session{}, app.ErrForbidden
	}
	return s.store.EndSession(ctx, id)
}
