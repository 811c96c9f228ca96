package validate

import (
	"errors"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	structValidator *validator.Validate
	validatorOnce   sync.Once
)

func getValidator() *validator.Validate {
	validatorOnce.Do(func() {
		structValidator = validator.New(validator.WithRequiredStructEnabled())
	})
	return structValidator
}

// ProfileForm is the editable part of a user profile.
type ProfileForm struct {
	DisplayName string   `json:"display_name" validate:"min=2,max=30"`
	Genres      []string `json:"genres" validate:"min=1"`
}

// SessionForm describes a session a DJ wants to start.
type SessionForm struct {
	Name   string   `json:"name" validate:"min=3,max=50"`
	Genres []string `json:"genres" validate:"min=1,max=5"`
}

// Normalize trims the display name and drops blank genre tags.
func (f ProfileForm) Normalize() ProfileForm {
	return ProfileForm{
		DisplayName: strings.TrimSpace(f.DisplayName),
		Genres:      cleanGenres(f.Genres),
	}
}

// Normalize trims the session name and drops blank genre tags.
func (f SessionForm) Normalize() SessionForm {
	return SessionForm{
		Name:   strings.TrimSpace(f.Name),
		Genres: cleanGenres(f.Genres),
	}
}

// Profile validates a normalized copy of form. The first failing field
// decides the reason.
func Profile(form ProfileForm) Result {
	f := form.Normalize()
	if reason := checkStruct(f); reason != "" {
		return invalid(reason)
	}
	return Result{Valid: true, Cleaned: f.DisplayName}
}

// Session validates a normalized copy of form.
func Session(form SessionForm) Result {
	f := form.Normalize()
	if reason := checkStruct(f); reason != "" {
		return invalid(reason)
	}
	return Result{Valid: true, Cleaned: f.Name}
}

func checkStruct(s any) string {
	err := getValidator().Struct(s)
	if err == nil {
		return ""
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err.Error()
	}
	return reasonFor(fieldErrs[0])
}

// reasonFor maps a validator field error onto the reason strings clients
// already understand.
func reasonFor(fe validator.FieldError) string {
	switch fe.Field() {
	case "DisplayName", "Name":
		if fe.Tag() == "max" {
			return ReasonNameTooLong
		}
		return ReasonNameTooShort
	case "Genres":
		if fe.Tag() == "max" {
			return ReasonTooManyGenres
		}
		return ReasonNoGenres
	default:
		return fe.Error()
	}
}

func cleanGenres(genres []string) []string {
	out := make([]string, 0, len(genres))
	for _, g := range genres {
		if g = strings.TrimSpace(g); g != "" {
			out = append(out, g)
		}
	}
	return out
}
