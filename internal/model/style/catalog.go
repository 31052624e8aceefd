package style

// Catalog exposes style retrieval for prompt assembly and HTTP handlers.
type Catalog interface {
	List() []Profile
	Find(id Style) (Profile, bool)
}

// MemoryCatalog implements Catalog over a fixed table keyed by Style.
type MemoryCatalog struct {
	order    []Style
	profiles map[Style]Profile
}

// NewMemoryCatalog returns a MemoryCatalog preloaded with the supplied profiles.
// Later entries with a duplicate ID replace earlier ones.
func NewMemoryCatalog(items []Profile) *MemoryCatalog {
	c := &MemoryCatalog{profiles: make(map[Style]Profile, len(items))}
	for _, item := range items {
		if _, exists := c.profiles[item.ID]; !exists {
			c.order = append(c.order, item.ID)
		}
		c.profiles[item.ID] = item
	}
	return c
}

// List returns the profiles in insertion order.
func (c *MemoryCatalog) List() []Profile {
	out := make([]Profile, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.profiles[id])
	}
	return out
}

// Find looks up a profile by style.
func (c *MemoryCatalog) Find(id Style) (Profile, bool) {
	p, ok := c.profiles[id]
	return p, ok
}
