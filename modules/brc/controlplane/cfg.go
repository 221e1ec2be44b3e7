package brc

import (
	"fmt"

	"github.com/c2h5oh/datasize"

	"github.com/yanet-platform/brc/common/go/dataplane"
	"github.com/yanet-platform/brc/modules/brc/pipeline"
	"github.com/yanet-platform/brc/modules/brc/tables"
)

const (
	maxPacketLength = 65535
	maxValueSize    = 64 * datasize.KB
)

type Config struct {
	// ServerPort is the port the cached server listens on.
	ServerPort uint16 `yaml:"server_port"`
	// Workers is the number of execution cores.
	Workers uint32 `yaml:"workers"`
	// MaxPacketLength bounds every payload offset the packet programs use.
	MaxPacketLength uint32      `yaml:"max_packet_length"`
	Cache           CacheConfig `yaml:"cache"`
	Queue           QueueConfig `yaml:"queue"`
}

type CacheConfig struct {
	// Entries is the number of cache slots.
	Entries uint32 `yaml:"entries"`
	// MaxKeyLength is the longest key that can be cached.
	MaxKeyLength datasize.ByteSize `yaml:"max_key_length"`
	// MaxValueSize is the longest value that can be cached.
	MaxValueSize datasize.ByteSize `yaml:"max_value_size"`
	// UpdatePolicy tells whether a reply refreshes a valid entry.
	UpdatePolicy tables.UpdatePolicy `yaml:"update_policy"`
	// DenyKeys are glob patterns of keys that are never cached.
	DenyKeys []string `yaml:"deny_keys"`
}

type QueueConfig struct {
	// Size is the number of missed keys that can wait for their reply.
	Size uint32 `yaml:"size"`
}

func DefaultConfig() *Config {
	return &Config{
		ServerPort:      6379,
		Workers:         1,
		MaxPacketLength: 1500,
		Cache: CacheConfig{
			Entries:      65536,
			MaxKeyLength: 250 * datasize.B,
			MaxValueSize: 1000 * datasize.B,
			UpdatePolicy: tables.UpdatePolicyFillOnce,
			DenyKeys:     []string{},
		},
		Queue: QueueConfig{
			Size: 1024,
		},
	}
}

// Validate checks that the configuration describes tables the packet
// programs can address.
func (m *Config) Validate() error {
	if m.ServerPort == 0 {
		return fmt.Errorf("server port must be set")
	}
	if m.Workers == 0 || m.Workers > dataplane.MaxCores {
		return fmt.Errorf("workers must be in [1, %d], got %d", dataplane.MaxCores, m.Workers)
	}
	if m.MaxPacketLength == 0 || m.MaxPacketLength > maxPacketLength {
		return fmt.Errorf("max packet length must be in [1, %d], got %d", maxPacketLength, m.MaxPacketLength)
	}
	if m.Cache.Entries == 0 {
		return fmt.Errorf("cache must have at least one entry")
	}
	if m.Cache.MaxKeyLength == 0 || m.Cache.MaxKeyLength.Bytes() > uint64(m.MaxPacketLength) {
		return fmt.Errorf("max key length must be in [1B, %dB], got %s", m.MaxPacketLength, m.Cache.MaxKeyLength)
	}
	if m.Cache.MaxValueSize == 0 || m.Cache.MaxValueSize > maxValueSize {
		return fmt.Errorf("max value size must be in [1B, %s], got %s", maxValueSize, m.Cache.MaxValueSize)
	}
	if m.Queue.Size == 0 {
		return fmt.Errorf("queue must have a positive size")
	}

	return nil
}

func (m *Config) tablesConfig() tables.Config {
	return tables.Config{
		Cores:        m.Workers,
		CacheEntries: m.Cache.Entries,
		MaxKeyLength: uint32(m.Cache.MaxKeyLength.Bytes()),
		MaxValueSize: uint32(m.Cache.MaxValueSize.Bytes()),
		QueueSize:    m.Queue.Size,
		UpdatePolicy: m.Cache.UpdatePolicy,
	}
}

func (m *Config) pipelineConfig() pipeline.Config {
	return pipeline.Config{
		ServerPort:      m.ServerPort,
		MaxPacketLength: m.MaxPacketLength,
		DenyKeys:        m.Cache.DenyKeys,
	}
}
