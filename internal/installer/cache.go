package installer

// Cache memoizes expensive, repeatable facts about the machine for the
// lifetime of one orchestration run — "is the package manager usable",
// and similar checks that can trigger installer prompts or slow probes.
// A fact is computed at most once per key no matter how many dependencies
// consult it; a fresh run gets a fresh cache.
//
// Execution is single-threaded (see the orchestrator), so check-then-set
// without a lock is safe here.
type Cache struct {
	values map[string]bool
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{values: make(map[string]bool)}
}

// GetOrCompute returns the cached value for key, invoking compute exactly
// once on the first call for that key. Once set — true or false — the value
// is never recomputed within the run.
func (c *Cache) GetOrCompute(key string, compute func() bool) bool {
	if v, ok := c.values[key]; ok {
		return v
	}
	v := compute()
	c.values[key] = v
	return v
}
