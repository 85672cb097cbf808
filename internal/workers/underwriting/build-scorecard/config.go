// internal/workers/underwriting/build-scorecard/config.go
package buildscorecard

import (
	"time"

	"mortgage-underwriting/internal/common/config"
)

type Config struct {
	Timeout time.Duration
}

func LoadConfig(cfg *config.Config) *Config {
	c := &Config{
		Timeout: 15 * time.Second,
	}
	if w, ok := cfg.Workers[TaskType]; ok && w.Timeout > 0 {
		c.Timeout = config.GetDuration(w.Timeout)
	}
	return c
}
