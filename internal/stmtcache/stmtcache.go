// Package stmtcache caches prepared-statement descriptors across
// executions of a single connection, evicting least-recently-used entries
// and deferring the server-side Close of an evicted prepared statement
// until it can be piggy-backed onto the next Execute flow.
package stmtcache

import "fmt"

// Key identifies a logical statement: the SQL text alone when it has no
// parameters, or the SQL text paired with the big-endian OID fingerprint of
// the bound parameter types. Two invocations share a cache entry exactly
// when their Key is equal.
type Key struct {
	SQL       string
	OIDBytes  string // big-endian uint32 parameter OIDs, concatenated
}

// FieldDescriptor is a decoder-neutral snapshot of one result column, kept
// on a Descriptor once the server has described its statement.
type FieldDescriptor struct {
	Name        string
	TableOID    uint32
	TypeOID     uint32
	TypeSize    int16
	TypeModifier int32
	Format      int16
}

// Descriptor is one entry in the cache: a statement's server name,
// execution counter, and — once described — its result shape.
type Descriptor struct {
	Key Key

	// Index is this descriptor's slot (1..cap) for as long as it holds one;
	// 0 means it has never been assigned a server name (below threshold).
	Index int

	// ServerName is "" until Index > 0, and "_pagio_%03d" formatted from
	// Index afterward.
	ServerName string

	ExecutionCount int
	Prepared       bool

	// MarkedForClose is set once this descriptor has been detached from the
	// cache (evicted, or failed while prepared) and is waiting for its
	// Close to be sent.
	MarkedForClose bool

	Fields   []FieldDescriptor
	Decoders []interface{} // opaque to the cache; (text, binary) decoder pair per field, set by the caller
}

func serverName(index int) string {
	if index <= 0 {
		return ""
	}
	return fmt.Sprintf("_pagio_%03d", index)
}

// LookupResult classifies the outcome of Lookup.
type LookupResult int

const (
	// Miss means no entry exists for the key; the caller must run an
	// unprepared (unnamed) Parse/Bind/Execute and Put the result.
	Miss LookupResult = iota
	// HitUnprepared means an entry exists but has not yet reached the
	// prepare threshold.
	HitUnprepared
	// HitPromote means this hit has just reached the prepare threshold:
	// the caller must issue a named Parse this turn.
	HitPromote
	// HitPrepared means the entry is ready for prepared execution; its
	// ServerName is already known to the server.
	HitPrepared
)

// Cache is an insertion-ordered, capacity-bounded map from Key to
// Descriptor, evicting least-recently-used entries on insertion when full
// and tracking at most one statement pending server-side Close at a time.
type Cache struct {
	cap       int
	threshold int

	entries map[Key]*node
	head    *node // most-recently-used sentinel-adjacent
	tail    *node // least-recently-used sentinel-adjacent

	freeIndices []int
	nextIndex   int

	pendingClose *Descriptor
}

type node struct {
	d          *Descriptor
	prev, next *node
}

// New creates a Cache holding at most capacity entries; threshold is the
// execution count an entry must reach before it is promoted to a named,
// prepared statement. threshold == 0 disables promotion (every execution
// stays unprepared) and, per convention, capacity == 0 disables caching
// altogether (Lookup always misses, Put is a no-op).
func New(capacity, threshold int) *Cache {
	head := &node{}
	tail := &node{}
	head.next = tail
	tail.prev = head
	return &Cache{
		cap:       capacity,
		threshold: threshold,
		entries:   make(map[Key]*node, capacity),
		head:      head,
		tail:      tail,
	}
}

// Cap returns the configured maximum number of entries.
func (c *Cache) Cap() int { return c.cap }

// Len returns the number of entries currently cached.
func (c *Cache) Len() int { return len(c.entries) }

// PendingClose returns the descriptor awaiting a deferred server-side
// Close, or nil if none is pending.
func (c *Cache) PendingClose() *Descriptor { return c.pendingClose }

// ClearPendingClose discards the pending close without sending it; used
// when the cache is wiped by DISCARD ALL / DEALLOCATE ALL before the close
// was ever flushed.
func (c *Cache) ClearPendingClose() { c.pendingClose = nil }

// TakePendingClose returns and clears the descriptor awaiting a deferred
// Close, for the caller to piggy-back onto the next Execute flow.
func (c *Cache) TakePendingClose() *Descriptor {
	d := c.pendingClose
	c.pendingClose = nil
	return d
}

// Lookup reports the cached state for key, moving a hit to the
// most-recently-used position.
func (c *Cache) Lookup(key Key) (*Descriptor, LookupResult) {
	if c.cap == 0 {
		return nil, Miss
	}
	n, ok := c.entries[key]
	if !ok {
		return nil, Miss
	}
	c.moveToFront(n)

	d := n.d
	switch {
	case d.Prepared:
		return d, HitPrepared
	case d.ExecutionCount+1 >= c.threshold && c.threshold > 0:
		return d, HitPromote
	default:
		return d, HitUnprepared
	}
}

// Put inserts a fresh descriptor for key after a cache miss, evicting the
// least-recently-used entry first if the cache is full. It panics if key is
// already present; callers must Lookup first.
func (c *Cache) Put(key Key) *Descriptor {
	if c.cap == 0 {
		return &Descriptor{Key: key}
	}
	if _, present := c.entries[key]; present {
		panic("stmtcache: Put called for key already in cache")
	}

	if len(c.entries) >= c.cap {
		c.evictOldest()
	}

	d := &Descriptor{Key: key}
	n := &node{d: d}
	c.insertAfter(c.head, n)
	c.entries[key] = n
	return d
}

// Promote assigns d a numeric index and server name, reusing a free index
// from an evicted slot when one is available. Called when a HitPromote or
// fresh entry is about to be sent a named Parse.
func (c *Cache) Promote(d *Descriptor) {
	d.Index = c.allocIndex()
	d.ServerName = serverName(d.Index)
}

// CommitSuccess records a successful execution of d: moves it to the
// most-recently-used position (already done by Lookup for hits), bumps its
// execution count, and — if this turn's Parse was acknowledged — marks it
// prepared.
func (c *Cache) CommitSuccess(d *Descriptor, justPrepared bool) {
	if justPrepared {
		d.Prepared = true
	}
	if !d.Prepared {
		d.ExecutionCount++
	}
}

// CommitFailure records a failed execution of d. If d was prepared,
// its server-side resources are now suspect: it is detached from the
// cache and scheduled for close, freeing its index for reuse. An
// unprepared entry that never attempted a named Parse this turn (Index
// still 0) is left in place so a retry can still reach the threshold. An
// unprepared entry that did attempt one (a HitPromote's named Parse
// failed before ParseComplete) never got to occupy its index on the
// server, so it is detached and its index freed too, mirroring
// evictOldest's handling of that same unprepared-but-indexed state.
func (c *Cache) CommitFailure(key Key, d *Descriptor) {
	if !d.Prepared {
		if d.Index > 0 {
			if n, ok := c.entries[key]; ok {
				c.unlink(n)
				delete(c.entries, key)
			}
			c.freeIndices = append(c.freeIndices, d.Index)
			d.Index = 0
			d.ServerName = ""
		}
		return
	}
	if n, ok := c.entries[key]; ok {
		c.unlink(n)
		delete(c.entries, key)
	}
	c.scheduleClose(d)
	c.freeIndices = append(c.freeIndices, d.Index)
}

// InvalidateName drops the single cached entry whose server name matches
// name, as issued by a user-level DEALLOCATE "<name>". Does nothing if no
// entry matches.
func (c *Cache) InvalidateName(name string) {
	for key, n := range c.entries {
		if n.d.ServerName == name {
			c.unlink(n)
			delete(c.entries, key)
			c.freeIndices = append(c.freeIndices, n.d.Index)
			return
		}
	}
}

// InvalidateAll wipes the cache, as driven by a DISCARD ALL or
// DEALLOCATE ALL command completion: every server-side prepared statement
// and portal is gone, so there is nothing left to Close, and any close
// already pending is now moot.
func (c *Cache) InvalidateAll() {
	clear(c.entries)
	c.head.next = c.tail
	c.tail.prev = c.head
	c.freeIndices = nil
	c.nextIndex = 0
	c.pendingClose = nil
}

func (c *Cache) evictOldest() {
	n := c.tail.prev
	if n == c.head {
		return
	}
	c.unlink(n)
	delete(c.entries, n.d.Key)
	if n.d.Prepared {
		c.scheduleClose(n.d)
	}
	if n.d.Index > 0 {
		c.freeIndices = append(c.freeIndices, n.d.Index)
	}
}

// scheduleClose hands d to the pending-close slot. Per invariant, at most
// one statement is pending close at a time; since a new close can only be
// scheduled once the previous one has been taken by the caller and sent,
// a second close arriving first indicates the caller did not flush the
// first one before driving another cycle.
func (c *Cache) scheduleClose(d *Descriptor) {
	if c.pendingClose != nil {
		panic("stmtcache: a statement is already pending close")
	}
	d.MarkedForClose = true
	c.pendingClose = d
}

func (c *Cache) allocIndex() int {
	if n := len(c.freeIndices); n > 0 {
		idx := c.freeIndices[n-1]
		c.freeIndices = c.freeIndices[:n-1]
		return idx
	}
	c.nextIndex++
	return c.nextIndex
}

func (c *Cache) insertAfter(at, n *node) {
	n.prev = at
	n.next = at.next
	at.next.prev = n
	at.next = n
}

func (c *Cache) unlink(n *node) {
	n.prev.next = n.next
	n.next.prev = n.prev
}

func (c *Cache) moveToFront(n *node) {
	if n.prev == c.head {
		return
	}
	c.unlink(n)
	c.insertAfter(c.head, n)
}
