package ais

import (
	"strconv"
	"time"

	"github.com/patrickmn/go-cache"
)

// Assembler joins the two halves of Class B static data (type 24), which
// arrive as separate messages in either order.
type Assembler struct {
	parts *cache.Cache
}

// NewAssembler keeps an unmatched half for ttl.
func NewAssembler(ttl time.Duration) *Assembler {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Assembler{parts: cache.New(ttl, 2*ttl)}
}

// Add records a type 24 message. Once both parts for the MMSI have been seen
// it returns the combined report and true.
func (a *Assembler) Add(m *Message) (*StaticData, bool) {
	if m == nil || m.StaticData == nil {
		return nil, false
	}
	key := strconv.FormatUint(uint64(m.MMSI), 10)
	cur := *m.StaticData
	prev, found := a.parts.Get(key)
	if !found {
		a.parts.Set(key, &cur, cache.DefaultExpiration)
		return &cur, false
	}
	other := prev.(*StaticData)
	if other.Part == cur.Part {
		a.parts.Set(key, &cur, cache.DefaultExpiration)
		return &cur, false
	}
	a.parts.Delete(key)

	a1, b1 := other, &cur
	if cur.Part == PartA {
		a1, b1 = &cur, other
	}
	joined := *b1
	joined.Shipname = a1.Shipname
	return &joined, true
}

// Pending is the number of unmatched halves.
func (a *Assembler) Pending() int { return a.parts.ItemCount() }
