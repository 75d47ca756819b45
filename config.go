package iocore

import (
	"time"

	"github.com/rs/zerolog"
)

// Default selector timeout. The legacy gpgme core used a short,
// single-digit-second timeout regardless of whether the caller was
// hanging; a reimplementation preserves this as a deliberate pacing
// contract (see the Open Question in SPEC_FULL.md/spec.md §9): callers
// that spin with hang=false still want the selector's timeout to pace
// them, even when there is nothing to select on yet.
const defaultSelectTimeout = 2 * time.Second

// defaultFdTableCapacity is the initial slot count the fd table
// allocates before it needs to grow. It is a tuning knob only; the
// table grows on demand past this.
const defaultFdTableCapacity = 64

// Config holds the tunables for a Manager. The zero value is not
// valid; build one with NewConfig.
type Config struct {
	selectTimeout   time.Duration
	fdTableCapacity int
	pacingSelect    bool
	logger          zerolog.Logger
	loggerSet       bool
}

// Option configures a Config constructed by NewConfig.
type Option func(*Config)

// NewConfig builds a Config from the supplied options, applying
// defaults for anything left unset.
func NewConfig(opts ...Option) Config {
	c := Config{
		selectTimeout:   defaultSelectTimeout,
		fdTableCapacity: defaultFdTableCapacity,
		pacingSelect:    true,
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// WithSelectTimeout overrides the selector's per-pass timeout.
func WithSelectTimeout(d time.Duration) Option {
	return func(c *Config) {
		if d > 0 {
			c.selectTimeout = d
		}
	}
}

// WithFdTableCapacity overrides the fd table's initial slot capacity.
func WithFdTableCapacity(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.fdTableCapacity = n
		}
	}
}

// WithPacingSelect controls whether the wait loops still invoke the
// selector (to use its timeout) when there is nothing active to wait
// on. Disabling it trades away the hang=false pacing contract for a
// tighter busy-poll; see spec.md §9.
func WithPacingSelect(enabled bool) Option {
	return func(c *Config) {
		c.pacingSelect = enabled
	}
}

// WithLogger overrides the logger used by a single Manager, instead of
// the package-wide default installed via SetLogger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Config) {
		c.logger = l
		c.loggerSet = true
	}
}
