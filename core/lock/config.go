package lock

import "time"

// Config holds configuration for the Redis-backed run lock.
type Config struct {
	// Enabled turns on cross-process locking of sync runs.
	Enabled bool `mapstructure:"enabled" default:"false"`
	// Addr is the Redis host:port.
	Addr string `mapstructure:"addr" default:"localhost:6379"`
	// Password is the Redis password.
	Password string `mapstructure:"password" default:""`
	// DB is the Redis database index.
	DB int `mapstructure:"db" default:"0"`
	// TTLSeconds is how long a run lock is held before it expires on its own.
	TTLSeconds int `mapstructure:"ttl_seconds" default:"900"`
}

// TTL returns the lock lifetime, falling back to 15 minutes.
func (c Config) TTL() time.Duration {
	if c.TTLSeconds <= 0 {
		return 15 * time.Minute
	}
	return time.Duration(c.TTLSeconds) * time.Second
}
