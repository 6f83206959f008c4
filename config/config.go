package config

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/openvenue/matchd/pkg/core"
)

// Config represents the application configuration
type Config struct {
	Server struct {
		HTTPAddr  string `yaml:"http_addr"`
		LogLevel  string `yaml:"log_level"`
		LogFormat string `yaml:"log_format"`
	} `yaml:"server"`

	Engine struct {
		CutoffHour int `yaml:"cutoff_hour"`
	} `yaml:"engine"`

	Kafka struct {
		Enabled    bool   `yaml:"enabled"`
		BrokerAddr string `yaml:"broker_addr"`
		Topic      string `yaml:"topic"`
	} `yaml:"kafka"`

	Otel struct {
		Enabled  bool   `yaml:"enabled"`
		Endpoint string `yaml:"endpoint"`
	} `yaml:"otel"`
}

var (
	configFile = flag.String("config", "", "Path to config file (YAML)")
	httpPort   = flag.Int("http_port", 8080, "The HTTP server port")
	logLevel   = flag.String("log_level", "info", "Log level: debug, info, warn, error")
	logFormat  = flag.String("log_format", "pretty", "Log format: json, pretty")
)

// LoadConfig loads the configuration from command line flags, an
// optional YAML file, and MATCHD_* environment variables, in that order
// of increasing precedence for file over flags and env over file.
func LoadConfig() (*Config, error) {
	flag.Parse()

	config := &Config{}
	config.Server.HTTPAddr = fmt.Sprintf(":%d", *httpPort)
	config.Server.LogLevel = *logLevel
	config.Server.LogFormat = *logFormat
	config.Engine.CutoffHour = core.DefaultCutoffHour
	config.Kafka.BrokerAddr = "localhost:9092"
	config.Kafka.Topic = "matchd-trades"
	config.Otel.Endpoint = "localhost:4317"

	if *configFile != "" {
		yamlFile, err := os.ReadFile(*configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := yaml.Unmarshal(yamlFile, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnvOverrides(config)

	if err := validate(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// applyEnvOverrides lets MATCHD_* environment variables win over flags
// and file values, e.g. MATCHD_KAFKA_BROKER_ADDR.
func applyEnvOverrides(config *Config) {
	v := viper.New()
	v.SetEnvPrefix("MATCHD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if v.IsSet("HTTP_ADDR") {
		config.Server.HTTPAddr = v.GetString("HTTP_ADDR")
	}
	if v.IsSet("LOG_LEVEL") {
		config.Server.LogLevel = v.GetString("LOG_LEVEL")
	}
	if v.IsSet("LOG_FORMAT") {
		config.Server.LogFormat = v.GetString("LOG_FORMAT")
	}
	if v.IsSet("CUTOFF_HOUR") {
		config.Engine.CutoffHour = v.GetInt("CUTOFF_HOUR")
	}
	if v.IsSet("KAFKA_ENABLED") {
		config.Kafka.Enabled = v.GetBool("KAFKA_ENABLED")
	}
	if v.IsSet("KAFKA_BROKER_ADDR") {
		config.Kafka.BrokerAddr = v.GetString("KAFKA_BROKER_ADDR")
	}
	if v.IsSet("KAFKA_TOPIC") {
		config.Kafka.Topic = v.GetString("KAFKA_TOPIC")
	}
	if v.IsSet("OTEL_ENABLED") {
		config.Otel.Enabled = v.GetBool("OTEL_ENABLED")
	}
	if v.IsSet("OTEL_ENDPOINT") {
		config.Otel.Endpoint = v.GetString("OTEL_ENDPOINT")
	}
}

func validate(config *Config) error {
	if config.Server.HTTPAddr == "" {
		return fmt.Errorf("server http_addr must not be empty")
	}
	if config.Engine.CutoffHour < 0 || config.Engine.CutoffHour > 23 {
		return fmt.Errorf("engine cutoff_hour must be within 0..23, got %d", config.Engine.CutoffHour)
	}
	if config.Kafka.Enabled && config.Kafka.BrokerAddr == "" {
		return fmt.Errorf("kafka broker_addr must not be empty when kafka is enabled")
	}
	return nil
}
