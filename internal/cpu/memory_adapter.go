package cpu

import "github.com/rv32sim/rv32sim/internal/cache"

// cacheMemory adapts a *cache.Cache -- which addresses its 32-bit word/byte
// space the way the original cache model did -- to the uint64-addressed
// Memory interface the interpreter's load/store dispatch uses uniformly
// regardless of whether the cache sits in front of main memory.
type cacheMemory struct {
	c *cache.Cache
}

// WrapCache lets an Interpreter read/write through c instead of going
// straight to main memory.
func WrapCache(c *cache.Cache) Memory {
	return cacheMemory{c: c}
}

func (m cacheMemory) Read(addr uint64, size int, unsigned bool) (int64, error) {
	return m.c.Read(uint32(addr), size, unsigned)
}

func (m cacheMemory) Write(addr uint64, size int, value int64) error {
	return m.c.Write(uint32(addr), size, value)
}
