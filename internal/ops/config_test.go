package ops

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Setenv("OREFEED_TEST_PASSWORD", "secret")
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
peer: parser-1
input: /data/raw.log
output: /data/ore.log
poll_interval: 2ms
log:
  sync_interval: 1s
metrics:
  addr: ":9100"
sink:
  database: market
  password: ${OREFEED_TEST_PASSWORD}
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "parser-1", cfg.Peer)
	assert.Equal(t, "/data/raw.log", cfg.Input)
	assert.Equal(t, 2*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, time.Second, cfg.Log.SyncInterval)
	assert.Equal(t, ":9100", cfg.Metrics.Addr)
	assert.Equal(t, "secret", cfg.Sink.Password)

	// defaults survive when a key is absent
	assert.Equal(t, int32(100), cfg.InstrumentID)
	assert.Equal(t, 5*time.Second, cfg.StatsInterval)
	assert.Equal(t, 500, cfg.Sink.BatchSize)

	require.NoError(t, cfg.Validate())
	require.NoError(t, cfg.Sink.Validate())

	opt := cfg.Sink.Postgres()
	assert.Equal(t, "market", opt.Database)
	assert.Equal(t, "secret", opt.Password)
}

func TestLoadEmptyPath(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := Default()
	valid.Input = "in.log"
	valid.Output = "out.log"
	require.NoError(t, valid.Validate())

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no peer", func(c *Config) { c.Peer = "" }},
		{"no input", func(c *Config) { c.Input = "" }},
		{"no output", func(c *Config) { c.Output = "" }},
		{"negative instrument", func(c *Config) { c.InstrumentID = -1 }},
		{"negative interval", func(c *Config) { c.StatsInterval = -time.Second }},
		{"profiling without server", func(c *Config) { c.Profiling.Enabled = true }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid
			tc.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	assert.Error(t, SinkConfig{BatchSize: 1}.Validate())
	assert.Error(t, SinkConfig{DSN: "postgres://x", BatchSize: 0}.Validate())
	assert.NoError(t, SinkConfig{DSN: "postgres://x", BatchSize: 1}.Validate())
}
