package service

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Caller-facing error kinds. Every error returned by this package matches at
// most one of them with errors.Is.
var (
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrValidation      = errors.New("validation failed")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrMigrationFailed = errors.New("migration failed")
)

// ValidationError carries per-field messages.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

const (
	maxCategoryName = 100
	maxTitle        = 200
	// A leap year.
	maxDurationHours = 24 * 366
)

var colorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

type validator struct {
	fields map[string]string
}

func (v *validator) check(ok bool, field, msg string) {
	if ok {
		return
	}
	if v.fields == nil {
		v.fields = make(map[string]string)
	}
	if _, seen := v.fields[field]; !seen {
		v.fields[field] = msg
	}
}

func (v *validator) text(value, field string, max int) {
	v.check(strings.TrimSpace(value) != "", field, "is required")
	v.check(utf8.RuneCountInString(value) <= max, field, fmt.Sprintf("must be at most %d characters", max))
}

func (v *validator) duration(hours float64) {
	v.check(hours > 0, "duration", "must be positive")
	v.check(hours <= maxDurationHours, "duration", fmt.Sprintf("must be at most %d hours", maxDurationHours))
}

func (v *validator) err() error {
	if len(v.fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: v.fields}
}

func requireAccount(accountID uuid.UUID) error {
	if accountID == uuid.Nil {
		return ErrUnauthorized
	}
	return nil
}

// notFound turns a missing row into ErrNotFound and passes other errors through.
func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return err
}

// duplicate turns a unique-constraint violation into ErrConflict.
func duplicate(err error, msg string) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%s: %w", msg, ErrConflict)
	}
	return err
}
