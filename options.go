package tevd

import (
	"math/rand"
	"time"

	"github.com/go-logr/logr"
	"github.com/tevd/tevd/internal/telemetry"
)

// config holds the options shared by Archive construction and Skimmer
// opening: a logger and a source of randomness for handle generation.
// Favoring a small functional-options struct over a config file matches
// spec §6 ("no environment variable, no persisted state beyond the
// archive file itself").
type config struct {
	logger *telemetry.Logger
	rng    *rand.Rand
}

func defaultConfig() *config {
	return &config{
		logger: telemetry.Discard(),
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Option configures an Archive or a Skimmer.
type Option func(*config)

// WithLogger directs lifecycle and error logging to sink. The zero
// value logr.Logger discards everything, matching the library's silent
// default.
func WithLogger(sink logr.Logger) Option {
	return func(c *config) {
		c.logger = telemetry.New(sink)
	}
}

// WithRandSource makes handle generation deterministic, for tests that
// need reproducible handle assignment.
func WithRandSource(src rand.Source) Option {
	return func(c *config) {
		c.rng = rand.New(src)
	}
}

func applyOptions(opts []Option) *config {
	c := defaultConfig()
	for _, opt := range opts {
		opt(c)
	}
	return c
}
