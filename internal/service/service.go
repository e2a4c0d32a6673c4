package service

import (
	"errors"
	"fmt"
	"math"

	"github.com/noah-isme/campus-ledger-api/internal/models"
	"github.com/noah-isme/campus-ledger-api/internal/repository"
	appErrors "github.com/noah-isme/campus-ledger-api/pkg/errors"
)

// directoryStore is the part of the Directory every service depends on.
type directoryStore interface {
	View(fn func(r repository.Reader))
	Atomically(fn func(tx *repository.Tx) error) error
}

func invariant(format string, args ...interface{}) *appErrors.Error {
	return appErrors.Clone(appErrors.ErrInvariant, fmt.Sprintf(format, args...))
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, appErrors.ErrValidation), errors.Is(err, appErrors.ErrNotFound), errors.Is(err, appErrors.ErrForbidden):
		return OutcomeRejected
	default:
		return OutcomeError
	}
}

func money(v float64) float64 {
	return math.Round(v*100) / 100
}

func paginate[T any](items []T, page, size int) ([]T, *models.Pagination) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	total := len(items)
	start := (page - 1) * size
	if start > total {
		start = total
	}
	end := start + size
	if end > total {
		end = total
	}
	return items[start:end], &models.Pagination{Page: page, PageSize: size, TotalCount: total}
}

// studentRecord loads a person and checks it is a student.
func studentRecord(r repository.Reader, id string) (models.Person, error) {
	person, ok := r.FindPerson(id)
	if !ok {
		return models.Person{}, appErrors.NotFound("student")
	}
	if !person.IsStudent() {
		return models.Person{}, appErrors.Validation("%s is not a student", id)
	}
	return person, nil
}

// Actor identifies the caller of an operation that checks ownership.
type Actor struct {
	ID   string
	Role models.UserRole
}

// Staff reports whether the actor is an administrator or registrar.
func (a Actor) Staff() bool {
	return a.Role == models.RoleAdmin || a.Role == models.RoleRegistrar
}
