package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Policy selects how a victim is chosen when a set is full.
type Policy uint8

const (
	// LRU evicts the block that was touched least recently.
	LRU Policy = iota
	// FIFO evicts the block that arrived first, regardless of later hits.
	FIFO
)

// String returns the lower-case policy name.
func (p Policy) String() string {
	switch p {
	case LRU:
		return "lru"
	case FIFO:
		return "fifo"
	default:
		return fmt.Sprintf("policy(%d)", uint8(p))
	}
}

// ParsePolicy converts a policy name into a Policy. It accepts "lru" and
// "fifo" in any case, and the numeric codes 0 (LRU) and 1 (FIFO) used by
// older command lines.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "lru", "0":
		return LRU, nil
	case "fifo", "1":
		return FIFO, nil
	}

	return 0, &ConfigurationError{
		Field:  "policy",
		Value:  s,
		Reason: "must be lru (0) or fifo (1)",
	}
}

// MarshalText implements encoding.TextMarshaler.
func (p Policy) MarshalText() ([]byte, error) {
	if p != LRU && p != FIFO {
		return nil, fmt.Errorf("unknown replacement policy %d", uint8(p))
	}

	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Policy) UnmarshalText(text []byte) error {
	parsed, err := ParsePolicy(string(text))
	if err != nil {
		return err
	}

	*p = parsed

	return nil
}

// UnmarshalJSON accepts both the string form ("lru") and the numeric code.
func (p *Policy) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		return p.UnmarshalText([]byte(name))
	}

	var code int
	if err := json.Unmarshal(data, &code); err != nil {
		return fmt.Errorf("policy must be a string or an integer code: %w", err)
	}

	return p.UnmarshalText([]byte(fmt.Sprint(code)))
}

// Config holds the cache geometry and replacement policy.
type Config struct {
	// SizeKiB is the total data capacity in KiB.
	SizeKiB int `json:"cache_size_kib"`

	// BlockSize is the cache line size in bytes.
	BlockSize int `json:"block_size_bytes"`

	// Associativity is the number of ways per set.
	Associativity int `json:"associativity"`

	// Policy is the replacement policy.
	Policy Policy `json:"policy"`
}

// Capacity limits. The block arena is allocated up front, so a valid
// configuration must fit in memory.
const (
	MaxSizeKiB = 1 << 30
	MaxBlocks  = 1 << 26
)

// DefaultConfig returns a 32 KiB, 4-way LRU cache with 64 B lines.
func DefaultConfig() Config {
	return Config{
		SizeKiB:       32,
		BlockSize:     64,
		Associativity: 4,
		Policy:        LRU,
	}
}

// SizeBytes returns the total capacity in bytes.
func (c Config) SizeBytes() int {
	return c.SizeKiB * 1024
}

// NumBlocks returns the total number of blocks in the cache.
func (c Config) NumBlocks() int {
	if c.BlockSize <= 0 {
		return 0
	}

	return c.SizeBytes() / c.BlockSize
}

// NumSets returns the number of sets. The result is only meaningful for a
// configuration that passes Validate.
func (c Config) NumSets() int {
	if c.BlockSize <= 0 || c.Associativity <= 0 {
		return 0
	}

	return c.SizeBytes() / (c.BlockSize * c.Associativity)
}

// Validate checks the power-of-two and capacity constraints.
func (c Config) Validate() error {
	if c.SizeKiB < 1 || c.SizeKiB > MaxSizeKiB || !isPowerOfTwo(c.SizeBytes()) {
		return &ConfigurationError{
			Field:  "cache_size_kib",
			Value:  c.SizeKiB,
			Reason: fmt.Sprintf("must be a power of two between 1 and %d", MaxSizeKiB),
		}
	}

	if !isPowerOfTwo(c.BlockSize) {
		return &ConfigurationError{
			Field:  "block_size_bytes",
			Value:  c.BlockSize,
			Reason: "must be a power of two >= 1",
		}
	}

	if !isPowerOfTwo(c.Associativity) {
		return &ConfigurationError{
			Field:  "associativity",
			Value:  c.Associativity,
			Reason: "must be a power of two >= 1",
		}
	}

	if c.BlockSize > c.SizeBytes() {
		return &ConfigurationError{
			Field:  "block_size_bytes",
			Value:  c.BlockSize,
			Reason: fmt.Sprintf("exceeds cache size of %d bytes", c.SizeBytes()),
		}
	}

	if c.NumBlocks() > MaxBlocks {
		return &ConfigurationError{
			Field: "cache_size_kib",
			Value: c.SizeKiB,
			Reason: fmt.Sprintf("holds %d blocks of %d bytes, more than %d",
				c.NumBlocks(), c.BlockSize, MaxBlocks),
		}
	}

	if c.Associativity > c.NumBlocks() {
		return &ConfigurationError{
			Field: "associativity",
			Value: c.Associativity,
			Reason: fmt.Sprintf("exceeds the %d blocks the cache can hold",
				c.NumBlocks()),
		}
	}

	if c.Policy != LRU && c.Policy != FIFO {
		return &ConfigurationError{
			Field:  "policy",
			Value:  uint8(c.Policy),
			Reason: "must be lru (0) or fifo (1)",
		}
	}

	return nil
}

// String summarizes the configuration, e.g. "32KiB/64B/4-way/lru".
func (c Config) String() string {
	return fmt.Sprintf("%dKiB/%dB/%d-way/%s",
		c.SizeKiB, c.BlockSize, c.Associativity, c.Policy)
}

// LoadConfig loads a Config from a JSON file. Fields missing from the file
// keep their DefaultConfig values. The result is not validated.
func LoadConfig(path string) (Config, error) {
	return LoadConfigOver(path, DefaultConfig())
}

// LoadConfigOver is LoadConfig with the fields missing from the file taken
// from base instead of the defaults.
func LoadConfigOver(path string, base Config) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read cache config file: %w", err)
	}

	config := base
	if err := json.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("failed to parse cache config: %w", err)
	}

	return config, nil
}

// SaveConfig writes the Config to a JSON file.
func (c Config) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize cache config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write cache config file: %w", err)
	}

	return nil
}

func isPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}
