// internal/workers/underwriting/notify-document-request/config.go
package notifydocumentrequest

import (
	"time"

	"mortgage-underwriting/internal/common/config"
)

type Config struct {
	EmailEnabled bool
	SMSEnabled   bool
	Timeout      time.Duration
}

// LoadConfig reads the worker's entry under workers.notify-document-request and the
// notification channel toggles.
func LoadConfig(cfg *config.Config) *Config {
	c := &Config{
		EmailEnabled: cfg.Notifications.Email.Enabled,
		SMSEnabled:   cfg.Notifications.SMS.Enabled,
		Timeout:      30 * time.Second,
	}
	if w, ok := cfg.Workers[TaskType]; ok && w.Timeout > 0 {
		c.Timeout = config.GetDuration(w.Timeout)
	}
	return c
}
