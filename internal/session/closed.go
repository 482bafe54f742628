package session

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// ClosedList remembers the records of recently closed windows so they can
// be reopened. It is bounded: once full, the oldest closure is evicted.
type ClosedList struct {
	cache *lru.Cache[string, Record]
}

const defaultClosedCapacity = 20

func NewClosedList(capacity int) *ClosedList {
	if capacity <= 0 {
		capacity = defaultClosedCapacity
	}
	// NewLRU only fails on a non-positive size, which is guarded above.
	cache, _ := lru.New[string, Record](capacity)
	return &ClosedList{cache: cache}
}

// Push records a closed window. Re-closing the same id refreshes its slot.
func (c *ClosedList) Push(rec Record) {
	if rec.ID == "" {
		return
	}
	c.cache.Add(rec.ID, rec)
}

// PopLast removes and returns the most recently closed record.
func (c *ClosedList) PopLast() (Record, bool) {
	keys := c.cache.Keys()
	if len(keys) == 0 {
		return Record{}, false
	}
	id := keys[len(keys)-1]
	rec, ok := c.cache.Peek(id)
	if !ok {
		return Record{}, false
	}
	c.cache.Remove(id)
	return rec, true
}

func (c *ClosedList) Len() int {
	return c.cache.Len()
}
