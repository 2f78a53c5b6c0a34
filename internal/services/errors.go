// Package services holds the environment cache: the in-memory source of
// truth for triggers, users, and orders. This file centralizes the service
// level error values so callers can branch on them with errors.Is.
//
// Translation into user-facing text happens in the dispatch layer, and into
// HTTP status codes in the handlers.
package services

import (
	"errors"
	"fmt"
)

var (
	// ErrUserNotFound indicates that no user with the given id is cached.
	ErrUserNotFound = errors.New("user not found")

	// ErrUserExists is returned by AddUser when the id is already taken.
	// The cached user is left untouched.
	ErrUserExists = errors.New("user already exists")

	// ErrOrderNotFound indicates that the user owns no order with the given id.
	ErrOrderNotFound = errors.New("order not found")

	// ErrTriggerNotFound indicates that the chat has no live trigger with
	// the given name.
	ErrTriggerNotFound = errors.New("trigger not found")

	// ErrInvalidStatus is returned for status names outside read/trade/admin.
	ErrInvalidStatus = errors.New("invalid status")

	// ErrEmptyTriggerName is returned when a trigger name is blank.
	ErrEmptyTriggerName = errors.New("trigger name is empty")

	// ErrUnsupportedContent is returned when a trigger payload is not text,
	// photo, or sticker.
	ErrUnsupportedContent = errors.New("unsupported content kind")

	// ErrPersistence wraps any failure reported by the store. The original
	// repo error stays in the chain, so its failure kind is still matchable.
	ErrPersistence = errors.New("persistence failure")
)

// persistenceErr tags err as ErrPersistence while keeping it unwrappable.
func persistenceErr(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrPersistence, err)
}
