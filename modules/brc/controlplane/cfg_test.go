package brc

import (
	"testing"

	"github.com/c2h5oh/datasize"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/yanet-platform/brc/modules/brc/tables"
)

func TestConfig_YAML(t *testing.T) {
	data := `
server_port: 6380
workers: 4
max_packet_length: 9000
cache:
  entries: 1024
  max_key_length: 1KB
  max_value_size: 512
  update_policy: overwrite
  deny_keys:
    - "session:*"
queue:
  size: 64
`

	cfg := DefaultConfig()
	require.NoError(t, yaml.Unmarshal([]byte(data), cfg))
	require.NoError(t, cfg.Validate())

	expected := &Config{
		ServerPort:      6380,
		Workers:         4,
		MaxPacketLength: 9000,
		Cache: CacheConfig{
			Entries:      1024,
			MaxKeyLength: datasize.KB,
			MaxValueSize: 512 * datasize.B,
			UpdatePolicy: tables.UpdatePolicyOverwrite,
			DenyKeys:     []string{"session:*"},
		},
		Queue: QueueConfig{
			Size: 64,
		},
	}
	require.Empty(t, cmp.Diff(expected, cfg))

	out, err := yaml.Marshal(cfg)
	require.NoError(t, err)

	roundTrip := &Config{}
	require.NoError(t, yaml.Unmarshal(out, roundTrip))
	require.Empty(t, cmp.Diff(expected, roundTrip))
}

func TestConfig_PartialOverlay(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, yaml.Unmarshal([]byte("cache:\n  entries: 16\n"), cfg))

	assert.EqualValues(t, 16, cfg.Cache.Entries)
	assert.EqualValues(t, 6379, cfg.ServerPort)
	assert.Equal(t, 250*datasize.B, cfg.Cache.MaxKeyLength)
	assert.Equal(t, tables.UpdatePolicyFillOnce, cfg.Cache.UpdatePolicy)
}

func TestConfig_Validate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	cases := []struct {
		name   string
		mutate func(cfg *Config)
	}{
		{"no port", func(cfg *Config) { cfg.ServerPort = 0 }},
		{"no workers", func(cfg *Config) { cfg.Workers = 0 }},
		{"too many workers", func(cfg *Config) { cfg.Workers = 33 }},
		{"no packet length", func(cfg *Config) { cfg.MaxPacketLength = 0 }},
		{"packet length above the IP limit", func(cfg *Config) { cfg.MaxPacketLength = 65536 }},
		{"no entries", func(cfg *Config) { cfg.Cache.Entries = 0 }},
		{"no key length", func(cfg *Config) { cfg.Cache.MaxKeyLength = 0 }},
		{"key longer than a packet", func(cfg *Config) { cfg.Cache.MaxKeyLength = 2 * datasize.KB }},
		{"no value size", func(cfg *Config) { cfg.Cache.MaxValueSize = 0 }},
		{"value size above the limit", func(cfg *Config) { cfg.Cache.MaxValueSize = 65 * datasize.KB }},
		{"no queue", func(cfg *Config) { cfg.Queue.Size = 0 }},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			cfg := DefaultConfig()
			c.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestConfig_UnknownUpdatePolicy(t *testing.T) {
	cfg := DefaultConfig()
	err := yaml.Unmarshal([]byte("cache:\n  update_policy: lru\n"), cfg)
	assert.Error(t, err)
}
