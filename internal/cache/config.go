package cache

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rv32sim/rv32sim/internal/bitutil"
)

// Replacement selects the victim-selection policy on a set miss.
type Replacement uint8

const (
	FIFO Replacement = iota
	LRU
	RANDOM
)

func (r Replacement) String() string {
	switch r {
	case FIFO:
		return "FIFO"
	case LRU:
		return "LRU"
	case RANDOM:
		return "RANDOM"
	default:
		return "?"
	}
}

func parseReplacement(s string) (Replacement, error) {
	switch strings.ToUpper(s) {
	case "FIFO":
		return FIFO, nil
	case "LRU":
		return LRU, nil
	case "RANDOM":
		return RANDOM, nil
	default:
		return 0, fmt.Errorf("invalid replacement policy %q", s)
	}
}

// WritePolicy selects write-hit/write-miss handling.
type WritePolicy uint8

const (
	WriteBack WritePolicy = iota
	WriteThrough
)

func (w WritePolicy) String() string {
	if w == WriteBack {
		return "WB"
	}
	return "WT"
}

func parseWritePolicy(s string) (WritePolicy, error) {
	switch strings.ToUpper(s) {
	case "WB":
		return WriteBack, nil
	case "WT":
		return WriteThrough, nil
	default:
		return 0, fmt.Errorf("invalid write policy %q", s)
	}
}

// Config is the five-token cache configuration of spec.md §6: cache size,
// block size, associativity, replacement policy, write policy.
type Config struct {
	CacheSize     uint64
	BlockSize     uint64
	Associativity uint64
	Replacement   Replacement
	Write         WritePolicy

	// Warnings accumulates non-fatal configuration notices (e.g. a
	// cache size rounded down to a power of two).
	Warnings []string
}

// ParseConfig reads the whitespace-separated five-token configuration line.
func ParseConfig(line string) (*Config, error) {
	fields := strings.Fields(line)
	if len(fields) != 5 {
		return nil, fmt.Errorf("cache config: expected 5 fields, got %d", len(fields))
	}
	cacheSize, err := strconv.ParseUint(fields[0], 0, 64)
	if err != nil {
		return nil, fmt.Errorf("cache config: invalid cache size %q: %w", fields[0], err)
	}
	blockSize, err := strconv.ParseUint(fields[1], 0, 64)
	if err != nil {
		return nil, fmt.Errorf("cache config: invalid block size %q: %w", fields[1], err)
	}
	assoc, err := strconv.ParseUint(fields[2], 0, 64)
	if err != nil {
		return nil, fmt.Errorf("cache config: invalid associativity %q: %w", fields[2], err)
	}
	repl, err := parseReplacement(fields[3])
	if err != nil {
		return nil, fmt.Errorf("cache config: %w", err)
	}
	write, err := parseWritePolicy(fields[4])
	if err != nil {
		return nil, fmt.Errorf("cache config: %w", err)
	}
	return NewConfig(cacheSize, blockSize, assoc, repl, write)
}

// NewConfig validates and normalizes a configuration built programmatically.
func NewConfig(cacheSize, blockSize, associativity uint64, repl Replacement, write WritePolicy) (*Config, error) {
	if blockSize == 0 {
		return nil, fmt.Errorf("cache config: block size must be nonzero")
	}
	if !bitutil.IsPowerOfTwo(blockSize) {
		return nil, fmt.Errorf("cache config: block size %d is not a power of two", blockSize)
	}
	c := &Config{BlockSize: blockSize, Associativity: associativity, Replacement: repl, Write: write}

	if !bitutil.IsPowerOfTwo(cacheSize) {
		rounded := bitutil.FloorPow2(cacheSize)
		c.Warnings = append(c.Warnings, fmt.Sprintf("cache size %d is not a power of two, rounding down to %d", cacheSize, rounded))
		cacheSize = rounded
	}
	c.CacheSize = cacheSize

	if cacheSize < blockSize {
		return nil, fmt.Errorf("cache config: cache size %d smaller than block size %d", cacheSize, blockSize)
	}
	numBlocks := cacheSize / blockSize

	switch associativity {
	case 0, 1:
		// fully associative / direct-mapped: always valid
	default:
		if !bitutil.IsPowerOfTwo(associativity) || associativity > 16 {
			return nil, fmt.Errorf("cache config: associativity %d must be 0, 1, or a power of two <= 16", associativity)
		}
		if numBlocks%associativity != 0 {
			return nil, fmt.Errorf("cache config: associativity %d does not divide block count %d", associativity, numBlocks)
		}
	}
	return c, nil
}

// NumBlocks, NumSets, Ways derive the cache's shape per spec.md §4.7.
func (c *Config) NumBlocks() uint64 { return c.CacheSize / c.BlockSize }

func (c *Config) NumSets() uint64 {
	switch c.Associativity {
	case 0:
		return 1
	case 1:
		return c.NumBlocks()
	default:
		return c.NumBlocks() / c.Associativity
	}
}

func (c *Config) Ways() uint64 {
	switch c.Associativity {
	case 0:
		return c.NumBlocks()
	case 1:
		return 1
	default:
		return c.Associativity
	}
}
