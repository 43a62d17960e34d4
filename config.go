// Config resolves constructor defaults as a plain struct: zero-value
// fields are filled in by the constructor, with no env/flag parsing
// in the core.
package otlpmmap

import "go.uber.org/zap"

// Config configures a new Exporter. All fields are optional; the
// zero value resolves to sensible defaults.
type Config struct {
	// Capacities sizes the four regions of a freshly created file.
	// Ignored when the file already exists. Defaults to
	// DefaultCapacities().
	Capacities Capacities

	// CollectorInterval is the async collector's tick period. Defaults
	// to 30s.
	CollectorInterval int64 // nanoseconds; avoids importing time into the wire path

	// HashAlgorithm selects the dictionary's digest function. Defaults
	// to HashXXH3.
	HashAlgorithm HashAlgorithm

	// Logger receives structured logs for recoverable conditions: lane
	// drops and callback failures. Never called on the
	// record-publish hot path. Defaults to a no-op logger.
	Logger *zap.SugaredLogger
}

// DefaultCollectorIntervalNs is used when Config.CollectorInterval is
// left zero.
const DefaultCollectorIntervalNs = int64(30_000_000_000)

func (c Config) resolve() Config {
	if c.Capacities == (Capacities{}) {
		c.Capacities = DefaultCapacities()
	}
	if c.CollectorInterval == 0 {
		c.CollectorInterval = DefaultCollectorIntervalNs
	}
	if c.HashAlgorithm == 0 {
		c.HashAlgorithm = HashXXH3
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop().Sugar()
	}
	return c
}
