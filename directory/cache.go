package directory

import (
	"context"
	"log"

	"donorflow/normalize"
	"donorflow/types"
)

// Cache is a read-only, indexed snapshot of the customer directory. It is
// built once per run and never refreshed during it: matching against a
// single consistent snapshot beats chasing data that changes mid-run.
// Nothing mutates after Build, so concurrent lookups need no locking.
type Cache struct {
	entries  []types.DirectoryEntry
	all      []*types.DirectoryEntry
	byName   map[string][]*types.DirectoryEntry
	byDomain map[string][]*types.DirectoryEntry
	byPhone  map[string][]*types.DirectoryEntry
}

// Build performs the single bulk fetch and indexes the snapshot. A fetch
// failure is fatal to the run; matching cannot proceed without it.
func Build(ctx context.Context, client Client) (*Cache, error) {
	entries, err := client.FetchAll(ctx)
	if err != nil {
		return nil, &types.DirectoryUnavailableError{Err: err}
	}
	cache := NewCache(entries)
	log.Printf("Directory cache built: %d entries", cache.Size())
	return cache, nil
}

// NewCache indexes an already-fetched entry set.
func NewCache(entries []types.DirectoryEntry) *Cache {
	c := &Cache{
		entries:  entries,
		all:      make([]*types.DirectoryEntry, 0, len(entries)),
		byName:   make(map[string][]*types.DirectoryEntry),
		byDomain: make(map[string][]*types.DirectoryEntry),
		byPhone:  make(map[string][]*types.DirectoryEntry),
	}

	for i := range c.entries {
		e := &c.entries[i]
		c.all = append(c.all, e)

		if key := normalize.Name(e.DisplayName); key != "" {
			c.byName[key] = append(c.byName[key], e)
		}
		for _, email := range e.Emails {
			if domain := normalize.EmailDomain(email); domain != "" {
				c.byDomain[domain] = append(c.byDomain[domain], e)
			}
		}
		for _, phone := range e.Phones {
			if digits := normalize.PhoneDigits(phone); digits != "" {
				c.byPhone[digits] = append(c.byPhone[digits], e)
			}
		}
	}

	return c
}

// ByName returns entries whose normalized display name equals the given
// normalized name.
func (c *Cache) ByName(normalized string) []*types.DirectoryEntry {
	return c.byName[normalized]
}

// ByEmailDomain returns entries with an email address in the domain.
func (c *Cache) ByEmailDomain(domain string) []*types.DirectoryEntry {
	return c.byDomain[domain]
}

// ByPhoneDigits returns entries with a phone number matching the digits.
func (c *Cache) ByPhoneDigits(digits string) []*types.DirectoryEntry {
	return c.byPhone[digits]
}

// All returns every entry, for strategies that must scan.
func (c *Cache) All() []*types.DirectoryEntry {
	return c.all
}

// Size returns the number of cached entries.
func (c *Cache) Size() int {
	return len(c.entries)
}
