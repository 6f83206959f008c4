package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func baseConfig() *Config {
	config := &Config{}
	config.Server.HTTPAddr = ":8080"
	config.Server.LogLevel = "info"
	config.Server.LogFormat = "pretty"
	config.Engine.CutoffHour = 16
	config.Kafka.BrokerAddr = "localhost:9092"
	config.Kafka.Topic = "matchd-trades"
	config.Otel.Endpoint = "localhost:4317"
	return config
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults pass", func(*Config) {}, false},
		{"empty addr", func(c *Config) { c.Server.HTTPAddr = "" }, true},
		{"cutoff too low", func(c *Config) { c.Engine.CutoffHour = -1 }, true},
		{"cutoff too high", func(c *Config) { c.Engine.CutoffHour = 24 }, true},
		{"midnight cutoff ok", func(c *Config) { c.Engine.CutoffHour = 0 }, false},
		{"kafka enabled without broker", func(c *Config) {
			c.Kafka.Enabled = true
			c.Kafka.BrokerAddr = ""
		}, true},
		{"kafka disabled without broker ok", func(c *Config) {
			c.Kafka.BrokerAddr = ""
		}, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			config := baseConfig()
			tc.mutate(config)
			err := validate(config)
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestYAMLOverrides(t *testing.T) {
	raw := `
server:
  http_addr: ":9000"
  log_level: debug
engine:
  cutoff_hour: 17
kafka:
  enabled: true
  broker_addr: kafka:9092
  topic: fills
`
	config := baseConfig()
	require.NoError(t, yaml.Unmarshal([]byte(raw), config))

	assert.Equal(t, ":9000", config.Server.HTTPAddr)
	assert.Equal(t, "debug", config.Server.LogLevel)
	assert.Equal(t, 17, config.Engine.CutoffHour)
	assert.True(t, config.Kafka.Enabled)
	assert.Equal(t, "kafka:9092", config.Kafka.BrokerAddr)
	assert.Equal(t, "fills", config.Kafka.Topic)
	// Untouched sections keep their earlier values.
	assert.Equal(t, "pretty", config.Server.LogFormat)
	assert.Equal(t, "localhost:4317", config.Otel.Endpoint)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("MATCHD_HTTP_ADDR", ":7777")
	t.Setenv("MATCHD_CUTOFF_HOUR", "18")
	t.Setenv("MATCHD_KAFKA_ENABLED", "true")

	config := baseConfig()
	applyEnvOverrides(config)

	assert.Equal(t, ":7777", config.Server.HTTPAddr)
	assert.Equal(t, 18, config.Engine.CutoffHour)
	assert.True(t, config.Kafka.Enabled)
	assert.Equal(t, "localhost:9092", config.Kafka.BrokerAddr)
}
