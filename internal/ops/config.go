package ops

import (
	"os"
	"time"

	"github.com/yanun0323/errors"
	"gopkg.in/yaml.v3"

	"orefeed/pkg/conn"
)

// Config mirrors the YAML config layout. String values may reference
// environment variables as ${NAME}.
type Config struct {
	Peer          string        `yaml:"peer"`
	Input         string        `yaml:"input"`
	Output        string        `yaml:"output"`
	Symbology     string        `yaml:"symbology"`
	InstrumentID  int32         `yaml:"instrument_id"`
	PollInterval  time.Duration `yaml:"poll_interval"`
	StatsInterval time.Duration `yaml:"stats_interval"`

	Log       LogConfig       `yaml:"log"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Profiling ProfilingConfig `yaml:"profiling"`
	Sink      SinkConfig      `yaml:"sink"`
}

// LogConfig tunes the append-only log files.
type LogConfig struct {
	SyncInterval time.Duration `yaml:"sync_interval"`
}

// MetricsConfig enables the Prometheus endpoint when Addr is set.
type MetricsConfig struct {
	Addr      string `yaml:"addr"`
	Namespace string `yaml:"namespace"`
}

// ProfilingConfig controls continuous profiling.
type ProfilingConfig struct {
	Enabled         bool   `yaml:"enabled"`
	ServerAddress   string `yaml:"server_address"`
	ApplicationName string `yaml:"application_name"`
}

// SinkConfig describes the PostgreSQL trade sink.
type SinkConfig struct {
	DSN       string            `yaml:"dsn"`
	Host      string            `yaml:"host"`
	Port      int               `yaml:"port"`
	User      string            `yaml:"user"`
	Password  string            `yaml:"password"`
	Database  string            `yaml:"database"`
	SSLMode   string            `yaml:"ssl_mode"`
	Params    map[string]string `yaml:"params"`
	BatchSize int               `yaml:"batch_size"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Peer:          "feedparser",
		InstrumentID:  100,
		PollInterval:  time.Millisecond,
		StatsInterval: 5 * time.Second,
		Metrics:       MetricsConfig{Namespace: "orefeed"},
		Profiling:     ProfilingConfig{ApplicationName: "orefeed"},
		Sink:          SinkConfig{BatchSize: 500},
	}
}

// Load reads a YAML config file on top of Default.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrap(err, "read config").With("path", path)
	}
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
		return Config{}, errors.Wrap(err, "parse config").With("path", path)
	}
	return cfg, nil
}

// Validate checks the fields every command needs.
func (c Config) Validate() error {
	if c.Peer == "" {
		return errors.New("invalid config: peer is empty")
	}
	if c.Input == "" {
		return errors.New("invalid config: input is empty")
	}
	if c.Output == "" {
		return errors.New("invalid config: output is empty")
	}
	if c.InstrumentID < 0 {
		return errors.Errorf("invalid config: instrument_id must be >= 0, got %d", c.InstrumentID)
	}
	if c.PollInterval < 0 || c.StatsInterval < 0 || c.Log.SyncInterval < 0 {
		return errors.New("invalid config: intervals must be >= 0")
	}
	if c.Profiling.Enabled && c.Profiling.ServerAddress == "" {
		return errors.New("invalid config: profiling.server_address is empty")
	}
	return nil
}

// Validate checks the sink section.
func (c SinkConfig) Validate() error {
	if c.DSN == "" && c.Database == "" {
		return errors.New("invalid sink config: dsn or database is required")
	}
	if c.Port < 0 || c.Port > 65535 {
		return errors.Errorf("invalid sink config: port %d", c.Port)
	}
	if c.BatchSize <= 0 {
		return errors.New("invalid sink config: batch_size must be > 0")
	}
	return nil
}

// Postgres converts the sink section into connection options.
func (c SinkConfig) Postgres() conn.Option {
	return conn.Option{
		Host:       c.Host,
		Port:       c.Port,
		User:       c.User,
		Password:   c.Password,
		Database:   c.Database,
		SSLMode:    c.SSLMode,
		Params:     c.Params,
		ConnString: c.DSN,
	}
}
