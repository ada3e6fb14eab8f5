// Package timeouts holds the deadlines handlers put on database work.
//
// Pick by the shape of the operation:
//   - Ping: health checks
//   - Short: one document by id or unique key
//   - Medium: lists, single section upserts, report hydration
//   - Long: cascade deletes and the admin faculty summary
package timeouts

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultPing   = 2 * time.Second
	DefaultShort  = 5 * time.Second
	DefaultMedium = 10 * time.Second
	DefaultLong   = 30 * time.Second
)

// Config is a full set of timeouts. Zero fields mean "keep what is set".
type Config struct {
	Ping   time.Duration
	Short  time.Duration
	Medium time.Duration
	Long   time.Duration
}

// Defaults is the configuration used until Configure is called.
func Defaults() Config {
	return Config{Ping: DefaultPing, Short: DefaultShort, Medium: DefaultMedium, Long: DefaultLong}
}

var (
	mu      sync.RWMutex
	current = Defaults()
)

func get(pick func(Config) time.Duration) time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return pick(current)
}

func Ping() time.Duration   { return get(func(c Config) time.Duration { return c.Ping }) }
func Short() time.Duration  { return get(func(c Config) time.Duration { return c.Short }) }
func Medium() time.Duration { return get(func(c Config) time.Duration { return c.Medium }) }
func Long() time.Duration   { return get(func(c Config) time.Duration { return c.Long }) }

// Configure overrides the positive fields of cfg and reports how many were
// applied. Call it during startup before handlers are built.
func Configure(cfg Config) int {
	mu.Lock()
	defer mu.Unlock()
	n := 0
	for _, f := range []struct {
		src time.Duration
		dst *time.Duration
	}{
		{cfg.Ping, &current.Ping},
		{cfg.Short, &current.Short},
		{cfg.Medium, &current.Medium},
		{cfg.Long, &current.Long},
	} {
		if f.src > 0 {
			*f.dst = f.src
			n++
		}
	}
	return n
}

// Reset restores the defaults. Tests use it.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	current = Defaults()
}

// Current returns the active timeouts, for startup logging.
func Current() Config {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// WithTimeout wraps context.WithTimeout; the returned cancel logs a warning
// when the deadline was what ended the operation.
//
//	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "report cascade delete")
//	defer cancel()
func WithTimeout(parent context.Context, timeout time.Duration, log *zap.Logger, operation string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(parent, timeout)
	return ctx, func() {
		if ctx.Err() == context.DeadlineExceeded && log != nil {
			log.Warn("operation timed out",
				zap.String("operation", operation),
				zap.Duration("timeout", timeout),
			)
		}
		cancel()
	}
}
