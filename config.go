package invdb

import (
	"io"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"

	"github.com/invdb/invdb/internal/invderr"
)

// Config is the CLI's decoded configuration file shape. Page size is
// fixed by the format, so unlike a network-service config there is
// nothing to configure there; only the database path and log verbosity
// are caller-tunable.
type Config struct {
	Path     string `yaml:"path"`
	LogLevel string `yaml:"log_level"`
}

// DecodeConfig parses a YAML configuration file into Config.
func DecodeConfig(r io.Reader) (Config, error) {
	var cfg Config
	if err := yaml.NewDecoder(r).Decode(&cfg); err != nil {
		return Config{}, invderr.InvalidArg("config", "%s", err.Error())
	}
	return cfg, nil
}

// Logger builds a logrus.Logger at the configured level, defaulting to
// Info when LogLevel is empty or unrecognized.
func (c Config) Logger() *logrus.Logger {
	logger := logrus.New()
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	return logger
}
