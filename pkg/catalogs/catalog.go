// Package catalogs provides the deduplicated item catalog produced by
// reconciliation, together with the ID and source-name types shared by
// every other package.
//
// A Catalog keeps exactly one payload per ItemID. The first Add for an ID
// wins; later duplicates are reported back to the caller so provenance can
// still be recorded for them.
//
// Example usage:
//
//	cat := catalogs.New()
//	cat.Add(catalogs.Item{ID: "1042", Payload: record})
//	item, err := cat.Find("1042")
package catalogs

import (
	"github.com/agentstation/curator/pkg/errors"
)

// Catalog is an insertion-ordered, first-occurrence-wins item set.
// It is not safe for concurrent mutation; treat it as read-only once built.
type Catalog struct {
	order []ItemID
	items map[ItemID]Item
}

// New creates an empty catalog.
func New() *Catalog {
	return &Catalog{items: make(map[ItemID]Item)}
}

// Add inserts item unless its ID is already present.
// It reports whether the item was inserted.
func (c *Catalog) Add(item Item) bool {
	if _, exists := c.items[item.ID]; exists {
		return false
	}
	c.items[item.ID] = item
	c.order = append(c.order, item.ID)
	return true
}

// Get returns the item for id.
func (c *Catalog) Get(id ItemID) (Item, bool) {
	item, ok := c.items[id]
	return item, ok
}

// Find returns the item for id or a NotFoundError.
func (c *Catalog) Find(id ItemID) (Item, error) {
	item, ok := c.items[id]
	if !ok {
		return Item{}, errors.NewNotFoundError("item", string(id))
	}
	return item, nil
}

// Has reports whether id is present.
func (c *Catalog) Has(id ItemID) bool {
	_, ok := c.items[id]
	return ok
}

// Len returns the number of distinct items.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.order)
}

// IDs returns item IDs in insertion order.
func (c *Catalog) IDs() []ItemID {
	return append([]ItemID(nil), c.order...)
}

// Items returns items in insertion order.
func (c *Catalog) Items() []Item {
	items := make([]Item, 0, len(c.order))
	for _, id := range c.order {
		items = append(items, c.items[id])
	}
	return items
}

// Records returns the item payloads in insertion order.
func (c *Catalog) Records() []Record {
	records := make([]Record, 0, len(c.order))
	for _, id := range c.order {
		records = append(records, c.items[id].Payload)
	}
	return records
}
