package users

import (
	"context"

	"whatssound/internal/app"
	"whatssound/internal/auth"
	"whatssound/internal/validate"
)

// OTPProvider sends and checks one-time login codes.
type OTPProvider interface {
	SendCode(ctx context.Context, phone string) error
	VerifyCode(ctx context.Context, phone, code string) (auth.Session, error)
}

// Service exposes phone login workflows. Codes are checked for shape locally
// before the provider is contacted.
type Service interface {
	RequestCode(ctx context.Context, phone string) error
	VerifyCode(ctx context.Context, phone, code string) (auth.Session, error)
}

type service struct {
	provider OTPProvider
}

// New wires a Service backed by provider. A nil provider makes every call
// fail with app.ErrUnavailable.
func New(provider OTPProvider) Service {
	return &service{provider: provider}
}

func (s *service) RequestCode(ctx context.Context, phone string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	checked := validate.Phone(phone)
	if !checked.Valid {
		return app.Invalid(app.ErrInvalidInput, checked.Error)
	}
	if s.provider == nil {
		return app.ErrUnavailable
	}
	return s.provider.SendCode(ctx, checked.Cleaned)
}

func (s *service) VerifyCode(ctx context.Context, phone, code string) (auth.Session, error) {
	if err := ctx.Err(); err != nil {
		return auth.Session{}, err
	}

	checkedPhone := validate.Phone(phone)
	if !checkedPhone.Valid {
		return auth.Session{}, app.Invalid(app.ErrInvalidInput, checkedPhone.Error)
	}
	checkedCode := validate.OTP(code)
	if !checkedCode.Valid {
		return auth.Session{}, app.Invalid(app.ErrInvalidInput, checkedCode.Error)
	}
	if s.provider == nil {
		return auth.Session{}, app.ErrUnavailable
	}
	return s.provider.VerifyCode(ctx, checkedPhone.Cleaned, checkedCode.Cleaned)
}
