package main

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// drainer stops accepting work and waits for in-flight requests.
type drainer interface {
	Shutdown(ctx context.Context) error
}

// finalFlusher persists the cache one last time.
type finalFlusher interface {
	Close(ctx context.Context) error
}

// shutdown drains the ops API and waits for the poller, each bounded by
// timeout, then runs the final flush on a fresh context with its own
// timeout. A slow drain can never leave the flush with an expired deadline.
func shutdown(timeout time.Duration, api drainer, botDone <-chan struct{}, fl finalFlusher) error {
	drainCtx, cancelDrain := context.WithTimeout(context.Background(), timeout)
	defer cancelDrain()

	if api != nil {
		if err := api.Shutdown(drainCtx); err != nil {
			log.Error().Err(err).Msg("ops api shutdown")
		}
	}
	select {
	case <-botDone:
	case <-drainCtx.Done():
		log.Warn().Msg("telegram polling did not stop in time")
	}

	flushCtx, cancelFlush := context.WithTimeout(context.Background(), timeout)
	defer cancelFlush()
	return fl.Close(flushCtx)
}
