package repo

import (
	"database/sql"
	"errors"
	"strings"

	"gorm.io/gorm"
)

// Failure kinds. A *PersistenceError matches exactly one of these via
// errors.Is, so callers can branch on the kind without parsing messages.
var (
	ErrConnectionFailed    = errors.New("connection failed")
	ErrConstraintViolation = errors.New("constraint violation")
	ErrQueryFailed         = errors.New("query failed")
)

// PersistenceError is returned by every gateway operation on failure. The
// transaction for the operation has already been rolled back.
type PersistenceError struct {
	Op   string // gateway operation, e.g. "save_triggers"
	Kind error  // one of ErrConnectionFailed, ErrConstraintViolation, ErrQueryFailed
	Err  error  // underlying driver/GORM error
}

func (e *PersistenceError) Error() string {
	return "repo: " + e.Op + ": " + e.Kind.Error() + ": " + e.Err.Error()
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Is matches the failure kind in addition to the wrapped chain.
func (e *PersistenceError) Is(target error) bool { return target == e.Kind }

// wrap classifies err and tags it with op. nil stays nil and errors that are
// already classified pass through untouched.
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var pe *PersistenceError
	if errors.As(err, &pe) {
		return err
	}
	return &PersistenceError{Op: op, Kind: classify(err), Err: err}
}

func classify(err error) error {
	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey),
		errors.Is(err, gorm.ErrForeignKeyViolated):
		return ErrConstraintViolation
	case errors.Is(err, sql.ErrConnDone),
		errors.Is(err, gorm.ErrInvalidDB):
		return ErrConnectionFailed
	}

	// glebarez/sqlite often returns plain-text errors.
	low := strings.ToLower(err.Error())
	switch {
	case strings.Contains(low, "constraint"):
		return ErrConstraintViolation
	case strings.Contains(low, "database is closed"),
		strings.Contains(low, "unable to open database"),
		strings.Contains(low, "no such file or directory"),
		strings.Contains(low, "out of memory"):
		return ErrConnectionFailed
	}
	return ErrQueryFailed
}
