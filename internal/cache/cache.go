// Package cache implements the configurable set-associative data cache that
// sits transparently between the interpreter's load/store stream and
// memory.
package cache

import (
	"fmt"
	"io"
	"math/rand"
)

// Backing is the non-owning memory the cache reads through to and writes
// back to. Its lifetime is guaranteed externally by whoever wires the cache
// together (see spec.md §5/§9).
type Backing interface {
	Read(addr uint64, size int, unsigned bool) (int64, error)
	Write(addr uint64, size int, value int64) error
}

// Stats accumulates the three counters spec.md §4.7/§8 requires to always
// satisfy accesses == hits + misses.
type Stats struct {
	Accesses uint64
	Hits     uint64
	Misses   uint64
}

// HitRate returns hits/accesses as a percentage, or 0 if there have been no
// accesses yet.
func (s Stats) HitRate() float64 {
	if s.Accesses == 0 {
		return 0
	}
	return float64(s.Hits) / float64(s.Accesses) * 100
}

// Cache is a set-associative cache with a pluggable replacement and write
// policy, wired to a non-owning Backing and an injected trace log sink.
type Cache struct {
	cfg     *Config
	decoder *AddressDecoder
	sets    [][]*Block
	mem     Backing
	log     io.Writer
	rng     *rand.Rand

	Stats Stats
}

// New builds a Cache from cfg, wired to mem for write-through/write-back and
// logSink for the per-access trace (may be io.Discard). All blocks start
// invalid.
func New(cfg *Config, mem Backing, logSink io.Writer) (*Cache, error) {
	decoder, err := NewAddressDecoder(cfg)
	if err != nil {
		return nil, err
	}
	if logSink == nil {
		logSink = io.Discard
	}
	c := &Cache{
		cfg:     cfg,
		decoder: decoder,
		mem:     mem,
		log:     logSink,
		rng:     rand.New(rand.NewSource(1)),
	}
	numSets := cfg.NumSets()
	ways := cfg.Ways()
	c.sets = make([][]*Block, numSets)
	for s := range c.sets {
		set := make([]*Block, ways)
		for w := range set {
			set[w] = newBlock(cfg.BlockSize, uint32(s))
		}
		c.sets[s] = set
	}
	return c, nil
}

// SetSeed fixes the PRNG used for RANDOM replacement, for reproducible
// tests.
func (c *Cache) SetSeed(seed int64) {
	c.rng = rand.New(rand.NewSource(seed))
}

// Invalidate preserves the configuration but zeros every block and resets
// statistics.
func (c *Cache) Invalidate() {
	for _, set := range c.sets {
		for _, b := range set {
			b.Invalidate()
			b.Tag = 0
			b.LastUsed = 0
			b.InsertionTime = 0
		}
	}
	c.Stats = Stats{}
}

// Read performs a cached load.
func (c *Cache) Read(addr uint32, size int, unsigned bool) (int64, error) {
	v, err := c.access(addr, size, unsigned, false, 0)
	return v, err
}

// Write performs a cached store.
func (c *Cache) Write(addr uint32, size int, value int64) error {
	_, err := c.access(addr, size, false, true, value)
	return err
}

func (c *Cache) access(addr uint32, size int, unsigned bool, isWrite bool, value int64) (int64, error) {
	index := c.decoder.Index(addr)
	tag := c.decoder.Tag(addr)
	set := c.sets[index]

	c.Stats.Accesses++

	block := findInSet(set, tag)
	if block != nil {
		c.Stats.Hits++
		block.LastUsed = c.Stats.Accesses
		if isWrite {
			return c.handleWriteHit(block, addr, index, size, value)
		}
		c.logAccess('R', addr, index, tag, block.Dirty, "Hit")
		return int64(signExtendIfNeeded(block.ReadAt(c.decoder.Offset(addr), size), size, unsigned)), nil
	}

	c.Stats.Misses++
	return c.handleMiss(set, index, addr, tag, size, unsigned, isWrite, value)
}

func findInSet(set []*Block, tag uint32) *Block {
	for _, b := range set {
		if b.Valid && b.Tag == tag {
			return b
		}
	}
	return nil
}

func (c *Cache) handleWriteHit(block *Block, addr uint32, index uint32, size int, value int64) (int64, error) {
	block.WriteAt(c.decoder.Offset(addr), size, uint64(value))
	if c.cfg.Write == WriteBack {
		block.Dirty = true
	} else {
		if err := c.mem.Write(uint64(addr), size, value); err != nil {
			return 0, err
		}
		block.Dirty = false
	}
	c.logAccess('W', addr, index, block.Tag, block.Dirty, fmt.Sprintf("Hit, %s", c.cfg.Write))
	return int64(addr), nil
}

func (c *Cache) handleMiss(set []*Block, index uint32, addr uint32, tag uint32, size int, unsigned bool, isWrite bool, value int64) (int64, error) {
	if isWrite && c.cfg.Write == WriteThrough {
		if err := c.mem.Write(uint64(addr), size, value); err != nil {
			return 0, err
		}
		c.logAccess('W', addr, index, tag, false, "Miss, WT Write-through (No Allocation)")
		return int64(addr), nil
	}

	block, err := c.replaceBlock(set, index, tag, addr, isWrite)
	if err != nil {
		return 0, err
	}

	if isWrite {
		block.WriteAt(c.decoder.Offset(addr), size, uint64(value))
		block.Dirty = true
		c.logAccess('W', addr, index, tag, block.Dirty, "Miss, WB Write-back with Allocation")
		return int64(addr), nil
	}
	c.logAccess('R', addr, index, tag, block.Dirty, "Miss, Read Allocated Block (WB or WT)")
	return int64(signExtendIfNeeded(block.ReadAt(c.decoder.Offset(addr), size), size, unsigned)), nil
}

func (c *Cache) replaceBlock(set []*Block, index uint32, tag uint32, addr uint32, isWrite bool) (*Block, error) {
	var victim *Block
	policy := ""
	for _, b := range set {
		if !b.Valid {
			victim = b
			break
		}
	}

	if victim == nil {
		victim, policy = c.selectVictim(set)
		if victim.Dirty && c.cfg.Write == WriteBack {
			if err := c.writeBack(victim); err != nil {
				return nil, err
			}
			c.logAccess('W', addr, index, victim.Tag, true, "Evicting dirty block (WB)")
		} else if victim.Valid {
			c.logAccess('W', addr, index, victim.Tag, false, "Evicting clean block")
		}
	}

	victim.Valid = true
	victim.Tag = tag
	victim.SetIndex = index
	victim.Dirty = isWrite && c.cfg.Write == WriteBack
	victim.LastUsed = c.Stats.Accesses
	victim.InsertionTime = c.Stats.Accesses

	blockBase := c.decoder.BlockBase(addr)
	for i := range victim.Data {
		v, err := c.mem.Read(uint64(blockBase)+uint64(i), 1, true)
		if err != nil {
			return nil, err
		}
		victim.Data[i] = byte(v)
	}

	outcome := "Miss, Replacing block in set using " + policy
	c.logAccess(writeOrRead(isWrite), addr, index, tag, victim.Dirty, outcome)
	return victim, nil
}

func (c *Cache) selectVictim(set []*Block) (*Block, string) {
	switch c.cfg.Replacement {
	case LRU:
		victim := set[0]
		for _, b := range set {
			if b.LastUsed < victim.LastUsed {
				victim = b
			}
		}
		return victim, "LRU"
	case FIFO:
		victim := set[0]
		for _, b := range set {
			if b.InsertionTime < victim.InsertionTime {
				victim = b
			}
		}
		return victim, "FIFO"
	case RANDOM:
		return set[c.rng.Intn(len(set))], "RANDOM"
	default:
		return set[0], "DEFAULT"
	}
}

func (c *Cache) writeBack(b *Block) error {
	base := (b.Tag<<indexBitsOf(c.decoder) | b.SetIndex) << offsetBitsOf(c.decoder)
	for i, v := range b.Data {
		if err := c.mem.Write(uint64(base)+uint64(i), 1, int64(v)); err != nil {
			return err
		}
	}
	return nil
}

// indexBitsOf/offsetBitsOf expose the decoder's private bit widths for
// victim-address reconstruction during eviction.
func indexBitsOf(d *AddressDecoder) uint  { return d.indexBits }
func offsetBitsOf(d *AddressDecoder) uint { return d.offsetBits }

func writeOrRead(isWrite bool) byte {
	if isWrite {
		return 'W'
	}
	return 'R'
}

func signExtendIfNeeded(v uint64, size int, unsigned bool) int64 {
	if unsigned || size == 8 {
		return int64(v)
	}
	signBit := uint(size*8 - 1)
	if v&(1<<signBit) != 0 {
		v |= ^uint64(0) << (signBit + 1)
	}
	return int64(v)
}

func (c *Cache) logAccess(op byte, addr uint32, setIndex uint32, tag uint32, dirty bool, outcome string) {
	dirtyStr := "Clean"
	if dirty {
		dirtyStr = "Dirty"
	}
	fmt.Fprintf(c.log, "%c: Address: 0x%x, Set: 0x%x, Tag: 0x%x, %s, %s\n", op, addr, setIndex, tag, dirtyStr, outcome)
}

// Dump writes the "Set[<dec>]:" header plus one line per valid block
// (index, tag, clean/dirty, byte-by-byte hex dump of its data) for every
// set holding at least one valid block.
func (c *Cache) Dump(w io.Writer) {
	for i, set := range c.sets {
		hasValid := false
		for _, b := range set {
			if b.Valid {
				hasValid = true
				break
			}
		}
		if !hasValid {
			continue
		}
		fmt.Fprintf(w, "Set[%d]:\n", i)
		for _, b := range set {
			if !b.Valid {
				continue
			}
			dirtyStr := "Clean"
			if b.Dirty {
				dirtyStr = "Dirty"
			}
			fmt.Fprintf(w, "  Index: 0x%02x | Tag: 0x%08x | %s | Data: [", b.SetIndex, b.Tag, dirtyStr)
			for j, v := range b.Data {
				if j > 0 {
					fmt.Fprint(w, " ")
				}
				fmt.Fprintf(w, "%02x", v)
			}
			fmt.Fprint(w, "]\n")
		}
	}
}

// Config returns the cache's configuration (read-only view).
func (c *Cache) Config() Config { return *c.cfg }
