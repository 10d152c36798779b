package transport

import (
	"time"

	"github.com/b00lduck/elementary/pkg/units"
)

// defaultMaxDirectiveBytes bounds one decoded directive envelope, guarding
// against a client streaming an unbounded JSON body before schema
// validation ever runs.
const defaultMaxDirectiveBytes = 16 * units.MiB

// defaultMaxGraphNodes bounds the total node count across one directive's
// graph roots, counted after decode but before reconciliation.
const defaultMaxGraphNodes = 100_000

// Config holds the transport listener's tunables. MaxDirectiveBytes,
// MaxGraphNodes, and EventPollInterval values below or equal to zero fall
// back to the package defaults at server construction time; the other
// fields are used as given.
type Config struct {
	Addr              string
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	EventPollInterval time.Duration
	MaxDirectiveBytes int64
	MaxGraphNodes     int
}

func (c Config) withDefaults() Config {
	if c.MaxDirectiveBytes <= 0 {
		c.MaxDirectiveBytes = defaultMaxDirectiveBytes
	}

	if c.MaxGraphNodes <= 0 {
		c.MaxGraphNodes = defaultMaxGraphNodes
	}

	if c.EventPollInterval <= 0 {
		c.EventPollInterval = time.Second / 30
	}

	return c
}
