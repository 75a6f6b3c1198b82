package reminder

import "time"

const (
	defaultBatchSize    = 50
	defaultPollInterval = time.Hour
)

// Config controls the reminder worker loop. Zero values fall back to the
// defaults above, so an empty Config is usable.
type Config struct {
	BatchSize    int
	PollInterval time.Duration
}

func (c Config) withDefaults() Config {
	if c.BatchSize <= 0 {
		c.BatchSize = defaultBatchSize
	}
	if c.PollInterval <= 0 {
		c.PollInterval = defaultPollInterval
	}
	return c
}
