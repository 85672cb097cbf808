// internal/workers/underwriting/generate-conditions/config_test.go
package generateconditions

import (
	"testing"
	"time"

	"mortgage-underwriting/internal/common/config"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfig(t *testing.T) {
	cfg := &config.Config{}
	assert.Equal(t, 15*time.Second, LoadConfig(cfg).Timeout)

	cfg.Workers = map[string]config.WorkerConfig{
		TaskType: {Enabled: true, Timeout: 45000},
	}
	c := LoadConfig(cfg)
	assert.Equal(t, 45*time.Second, c.Timeout)
}
