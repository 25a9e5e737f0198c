// Package config holds the engine configuration. Every value has a default;
// a YAML file only needs to name what it changes.
package config

import (
	"os"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"

	"github.com/s1dharth-s/qlever/pkg/blanknode"
	"github.com/s1dharth-s/qlever/pkg/logging"
	"github.com/s1dharth-s/qlever/pkg/memory"
)

// Config is the top-level engine configuration.
type Config struct {
	Logging    logging.Config   `yaml:"logging"`
	Memory     MemoryConfig     `yaml:"memory"`
	Join       JoinConfig       `yaml:"join"`
	BlankNodes BlankNodesConfig `yaml:"blank_nodes"`
}

// MemoryConfig bounds the memory used for values created during queries.
type MemoryConfig struct {
	// Limit is a human readable size such as "100 MB" or "2GiB".
	Limit string `yaml:"limit"`
}

// JoinConfig tunes the join algorithms.
type JoinConfig struct {
	// GallopThreshold is the size ratio between the larger and the smaller
	// sorted input above which the merge join switches to galloping.
	GallopThreshold int `yaml:"gallop_threshold"`

	// CancellationCheckInterval is the number of rows processed between two
	// checks of the query's cancellation state.
	CancellationCheckInterval int `yaml:"cancellation_check_interval"`

	// ScanBlockSize is the number of rows an index scan yields per block.
	ScanBlockSize int `yaml:"scan_block_size"`
}

// BlankNodesConfig configures the global blank node manager.
type BlankNodesConfig struct {
	MinIndex  uint64 `yaml:"min_index"`
	BlockSize uint64 `yaml:"block_size"`
}

const (
	DefaultGallopThreshold           = 1000
	DefaultCancellationCheckInterval = 4096
	DefaultScanBlockSize             = 1024
)

// Default returns the configuration used when nothing is configured.
func Default() Config {
	return Config{
		Logging: logging.Config{Level: logging.LevelInfo, Format: "text"},
		Memory:  MemoryConfig{Limit: memory.DefaultLimit.String()},
		Join: JoinConfig{
			GallopThreshold:           DefaultGallopThreshold,
			CancellationCheckInterval: DefaultCancellationCheckInterval,
			ScanBlockSize:             DefaultScanBlockSize,
		},
		BlankNodes: BlankNodesConfig{BlockSize: blanknode.DefaultBlockSize},
	}
}

// Load reads path and overlays it on the defaults. An empty path returns the
// defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "reading config %s", path)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Wrapf(err, "parsing config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, errors.Wrapf(err, "config %s", path)
	}
	return cfg, nil
}

// Validate rejects configurations the engine cannot run with.
func (c Config) Validate() error {
	if _, err := c.MemoryLimit(); err != nil {
		return err
	}
	if c.Join.GallopThreshold < 1 {
		return errors.Newf("join.gallop_threshold must be at least 1, got %d", c.Join.GallopThreshold)
	}
	if c.Join.CancellationCheckInterval < 1 {
		return errors.Newf("join.cancellation_check_interval must be at least 1, got %d",
			c.Join.CancellationCheckInterval)
	}
	if c.Join.ScanBlockSize < 1 {
		return errors.Newf("join.scan_block_size must be at least 1, got %d", c.Join.ScanBlockSize)
	}
	if c.BlankNodes.BlockSize == 0 {
		return errors.New("blank_nodes.block_size must not be 0")
	}
	switch c.Logging.Format {
	case "", "text", "json":
	default:
		return errors.Newf("logging.format must be text or json, got %q", c.Logging.Format)
	}
	return nil
}

// MemoryLimit parses Memory.Limit.
func (c Config) MemoryLimit() (memory.Size, error) {
	size, err := memory.ParseSize(c.Memory.Limit)
	if err != nil {
		return 0, errors.Wrap(err, "memory.limit")
	}
	if size <= 0 {
		return 0, errors.Newf("memory.limit must be positive, got %q", c.Memory.Limit)
	}
	return size, nil
}
