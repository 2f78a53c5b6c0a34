// Package services – Flusher
//
// This file implements the Flusher, which owns every controlled path that
// writes the environment back to the store: a periodic tick and the final
// flush on shutdown. Each flush is retried with backoff before the failure is
// reported. A crash between flushes still loses the mutations made since the
// last successful one.
package services

import (
	"context"
	"errors"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
	"github.com/rs/zerolog/log"
)

// Dumper is the part of Environment the Flusher drives.
type Dumper interface {
	Dump(ctx context.Context) error
}

// Flusher periodically flushes an Environment and performs the final flush
// on shutdown.
type Flusher struct {
	// Env is flushed on every tick and on Close.
	Env Dumper
	// Interval between periodic flushes; <= 0 disables the ticker.
	Interval time.Duration
	// Retries after the first failed attempt of a single flush.
	Retries int
	// MinBackoff and MaxBackoff bound the delay between attempts.
	MinBackoff time.Duration
	MaxBackoff time.Duration
}

// NewFlusher constructs a Flusher with sane retry defaults.
func NewFlusher(env Dumper, interval time.Duration, retries int) *Flusher {
	if retries < 0 {
		retries = 0
	}
	return &Flusher{
		Env:        env,
		Interval:   interval,
		Retries:    retries,
		MinBackoff: 200 * time.Millisecond,
		MaxBackoff: 5 * time.Second,
	}
}

// Flush runs one Dump, retrying failed attempts with exponential backoff.
// Context cancellation stops retrying. The last failure is returned.
func (f *Flusher) Flush(ctx context.Context) error {
	policy := retrypolicy.NewBuilder[any]().
		HandleIf(func(_ any, err error) bool {
			return err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
		}).
		WithBackoff(f.MinBackoff, f.MaxBackoff).
		WithMaxRetries(f.Retries).
		ReturnLastFailure().
		Build()

	attempt := 0
	err := failsafe.With[any](policy).WithContext(ctx).Run(func() error {
		attempt++
		err := f.Env.Dump(ctx)
		if err != nil {
			log.Warn().Err(err).Int("attempt", attempt).Msg("flush attempt failed")
		}
		return err
	})
	if err != nil {
		log.Error().Err(err).Int("attempts", attempt).Msg("flush gave up")
	}
	return err
}

// Run flushes every Interval until ctx is done. Failures are logged and
// counted, never fatal. With a non-positive Interval it just waits for ctx.
func (f *Flusher) Run(ctx context.Context) {
	if f.Interval <= 0 {
		<-ctx.Done()
		return
	}

	t := time.NewTicker(f.Interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			_ = f.Flush(ctx)
		}
	}
}

// Close performs the final flush on a controlled shutdown. ctx should be a
// fresh context with its own deadline, not the one that triggered shutdown.
func (f *Flusher) Close(ctx context.Context) error {
	log.Info().Msg("final flush")
	return f.Flush(ctx)
}
