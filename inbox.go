package systest

import "sync"

// EnqueueStatus reports the outcome of an Inbox.Enqueue call.
type EnqueueStatus int

const (
	// EnqueueSuccess: the event was queued or satisfied a pending receive.
	EnqueueSuccess EnqueueStatus = iota
	// EnqueueEventHandlerNotRunning: the target's handler loop was idle and
	// must be started by the runtime.
	EnqueueEventHandlerNotRunning
	// EnqueueEventHandlerRunning: the target's handler loop is already active.
	EnqueueEventHandlerRunning
	// EnqueueDropped: the inbox was closed; the event was discarded.
	EnqueueDropped
)

// DequeueStatus reports the outcome of an Inbox.Dequeue call.
type DequeueStatus int

const (
	// DequeueRaised: the single-slot raised event was returned.
	DequeueRaised DequeueStatus = iota
	// DequeueSuccess: the first non-deferred, non-ignored queued event.
	DequeueSuccess
	// DequeueDefault: a synthetic default event, nothing else was available.
	DequeueDefault
	// DequeueUnavailable: nothing to dequeue; the handler loop should exit.
	DequeueUnavailable
)

// Metadata carries per-enqueue bookkeeping, notably whether the event is
// MustHandle (dropping it after halt is a fatal DroppedMustHandle error).
type Metadata struct {
	MustHandle bool
}

// inboxEntry is one queued (Event, EventGroup, Metadata) tuple, carried in
// a chunked FIFO rather than a bare func() slot.
type inboxEntry struct {
	event Event
	group EventGroup
	meta Metadata
}

// inboxChunk is a fixed-size node in the FIFO's chunked linked list: appends
// are O(1) amortized, chunks are recycled through a sync.Pool once fully
// drained, and the structure is NOT internally synchronized — callers
// (here, the owning actor's single-threaded handler loop) must serialize
// access.
const inboxChunkSize = 32

type inboxChunk struct {
	items [inboxChunkSize]inboxEntry
	head int
	tail int
	next *inboxChunk
}

var inboxChunkPool = sync.Pool{New: func() any { return new(inboxChunk) }}

func getInboxChunk() *inboxChunk {
	c := inboxChunkPool.Get().(*inboxChunk)
	c.head, c.tail, c.next = 0, 0, nil
	return c
}

func putInboxChunk(c *inboxChunk) {
	c.items = [inboxChunkSize]inboxEntry{}
	inboxChunkPool.Put(c)
}

// receiveDescriptor is a pending ReceiveEventAsync: a set of acceptable
// event types and an optional predicate, stored on the inbox so a matching
// Enqueue can satisfy it directly instead of just queuing the event.
type receiveDescriptor struct {
	types map[EventType]struct{}
	predicate func(Event) bool
	resume func(Event, EventGroup, Metadata)
}

func (d *receiveDescriptor) matches(e Event) bool {
	if _, ok := d.types[e.Type]; !ok {
		return false
	}
	return d.predicate == nil || d.predicate(e)
}

// Inbox is an actor's per-target FIFO event queue with defer/ignore/raise/
// receive semantics. Not safe for concurrent use: the owning actor's
// handler loop is the sole mutator.
type Inbox struct {
	head, tail *inboxChunk
	count int

	raised *inboxEntry
	deferred map[EventType]struct{}
	ignored map[EventType]struct{}
	receive *receiveDescriptor
	defaultSet bool
	closed bool

	onDropped func(Event, EventGroup, Metadata)
	onDeferred func(Event)
	onIgnored func(Event)
}

// NewInbox constructs an empty Inbox. onDropped, if non-nil, is invoked for
// every event discarded after Close.
func NewInbox(onDropped func(Event, EventGroup, Metadata)) *Inbox {
	c := getInboxChunk()
	return &Inbox{
		head: c, tail: c,
		deferred: make(map[EventType]struct{}),
		ignored: make(map[EventType]struct{}),
		onDropped: onDropped,
	}
}

// SetOnDeferred installs fn to be called, once per entry, every time the
// normal queued dequeue path (Dequeue) finds a deferred entry standing in
// the way of dispatch and leaves it queued in place.
func (ib *Inbox) SetOnDeferred(fn func(Event)) { ib.onDeferred = fn }

// SetOnIgnored installs fn to be called, once per entry, every time the
// normal queued dequeue path (Dequeue) permanently removes an ignored
// entry it passed over while scanning for something dispatchable.
func (ib *Inbox) SetOnIgnored(fn func(Event)) { ib.onIgnored = fn }

func (ib *Inbox) fireDeferred(e Event) {
	if ib.onDeferred != nil {
		ib.onDeferred(e)
	}
}

func (ib *Inbox) fireIgnored(e Event) {
	if ib.onIgnored != nil {
		ib.onIgnored(e)
	}
}

func (ib *Inbox) push(e inboxEntry) {
	if ib.tail.tail == inboxChunkSize {
		nc := getInboxChunk()
		ib.tail.next = nc
		ib.tail = nc
	}
	ib.tail.items[ib.tail.tail] = e
	ib.tail.tail++
	ib.count++
}

// entryLoc pinpoints one entry's storage location for direct removal,
// avoiding any removal scheme based on comparing inboxEntry values: an
// Event's Payload is an any, and two enqueues of an equal Event are
// deliberately distinct occurrences, not deduplicated by value.
type entryLoc struct {
	chunk *inboxChunk
	index int
}

// dispatchPeek reports the oldest dispatchable entry, if any, without any
// observable side effect: it does not remove ignored entries, does not
// recycle drained chunks, and fires neither onIgnored nor onDeferred. It
// exists solely to answer "is this actor enabled right now" (dispatchable,
// called every scheduling point for every actor) without that question
// itself consuming or reporting anything — the normal queued dispatch
// path's defer/ignore bookkeeping belongs to Dequeue (via peekFront), not
// to a preview of what Dequeue would do.
func (ib *Inbox) dispatchPeek() (inboxEntry, bool) {
	for c := ib.head; c != nil; c = c.next {
		start := 0
		if c == ib.head {
			start = c.head
		}
		for i := start; i < c.tail; i++ {
			entry := c.items[i]
			if _, isIgnored := ib.ignored[entry.event.Type]; isIgnored {
				continue
			}
			if _, isDeferred := ib.deferred[entry.event.Type]; isDeferred {
				continue
			}
			return entry, true
		}
	}
	return inboxEntry{}, false
}

// peekFront returns the oldest dispatchable entry and its location, without
// removing that entry itself — the caller (Dequeue) does that once it has
// decided to accept it. Scanning has two permanent, observable effects that
// belong to the normal queued dispatch path (spec §4.1): every ignored
// entry found along the way is removed for good and reported via
// onIgnored, and every deferred entry found blocking dispatch is reported
// via onDeferred and left queued in place.
func (ib *Inbox) peekFront() (inboxEntry, entryLoc, bool) {
	for {
		c := ib.head
		if c.head == c.tail {
			if c.next == nil {
				return inboxEntry{}, entryLoc{}, false
			}
			ib.head = c.next
			putInboxChunk(c)
			continue
		}
		entry := c.items[c.head]
		if _, isIgnored := ib.ignored[entry.event.Type]; isIgnored {
			c.head++
			ib.count--
			ib.fireIgnored(entry.event)
			continue
		}
		if _, isDeferred := ib.deferred[entry.event.Type]; isDeferred {
			// Deferred: the entry stays queued. Hand off to
			// nextAfterDeferred, which reports it (and anything else it
			// passes over) exactly once as part of its own scan, rather
			// than reporting it here too and double-firing for the same
			// instance.
			return ib.nextAfterDeferred()
		}
		return entry, entryLoc{chunk: c, index: c.head}, true
	}
}

// nextAfterDeferred scans past deferred (and ignored) entries looking for
// the first dispatchable one, once the chunk-head entry itself was
// deferred. Every ignored entry it passes is removed and reported, the
// same as peekFront's own fast path; every additional deferred entry it
// passes is reported and left in place.
func (ib *Inbox) nextAfterDeferred() (inboxEntry, entryLoc, bool) {
	for c := ib.head; c != nil; c = c.next {
		i := 0
		if c == ib.head {
			i = c.head
		}
		for i < c.tail {
			entry := c.items[i]
			if _, isIgnored := ib.ignored[entry.event.Type]; isIgnored {
				ib.removeAt(entryLoc{chunk: c, index: i})
				ib.fireIgnored(entry.event)
				continue
			}
			if _, isDeferred := ib.deferred[entry.event.Type]; isDeferred {
				ib.fireDeferred(entry.event)
				i++
				continue
			}
			return entry, entryLoc{chunk: c, index: i}, true
		}
	}
	return inboxEntry{}, entryLoc{}, false
}

// removeAt deletes the entry at loc, shifting later entries in the same
// chunk down by one.
func (ib *Inbox) removeAt(loc entryLoc) {
	c := loc.chunk
	copy(c.items[loc.index:c.tail-1], c.items[loc.index+1:c.tail])
	c.tail--
	ib.count--
}

// Enqueue appends (e, group, meta) to the tail, or routes it to a pending
// Receive if it matches.
func (ib *Inbox) Enqueue(e Event, group EventGroup, meta Metadata, handlerIdle bool) EnqueueStatus {
	if ib.closed {
		if ib.onDropped != nil {
			ib.onDropped(e, group, meta)
		}
		return EnqueueDropped
	}
	if ib.receive != nil && ib.receive.matches(e) {
		r := ib.receive
		ib.receive = nil
		r.resume(e, group, meta)
		return EnqueueSuccess
	}
	ib.push(inboxEntry{event: e, group: group, meta: meta})
	if handlerIdle {
		return EnqueueEventHandlerNotRunning
	}
	return EnqueueEventHandlerRunning
}

// Raise sets the single-slot raised event. It panics if a raise is already
// pending: a second raise before handling is a programming error.
func (ib *Inbox) Raise(e Event, group EventGroup, meta Metadata) {
	if ib.raised != nil {
		panic("systest: Raise called while a raised event is already pending")
	}
	ib.raised = &inboxEntry{event: e, group: group, meta: meta}
}

// SetDefaultHandler records whether the current state installs a default
// handler, controlling whether Dequeue may synthesize EventDefault.
func (ib *Inbox) SetDefaultHandler(present bool) { ib.defaultSet = present }

// Defer adds t to the set of currently-deferred event types.
func (ib *Inbox) Defer(t EventType) { ib.deferred[t] = struct{}{} }

// Undefer removes t from the deferred set (e.g. on a state transition).
func (ib *Inbox) Undefer(t EventType) { delete(ib.deferred, t) }

// ClearDefers empties the deferred set, called on every state transition.
func (ib *Inbox) ClearDefers() { ib.deferred = make(map[EventType]struct{}) }

// Ignore adds t to the set of currently-ignored event types.
func (ib *Inbox) Ignore(t EventType) { ib.ignored[t] = struct{}{} }

// ClearIgnores empties the ignored set, called on every state transition.
func (ib *Inbox) ClearIgnores() { ib.ignored = make(map[EventType]struct{}) }

// Dequeue returns the next entry to dispatch, in priority order: raised,
// then first dispatchable queued entry, then a synthetic default.
func (ib *Inbox) Dequeue() (DequeueStatus, Event, EventGroup, Metadata) {
	if ib.raised != nil {
		r := *ib.raised
		ib.raised = nil
		return DequeueRaised, r.event, r.group, r.meta
	}
	if entry, loc, ok := ib.peekFront(); ok {
		ib.removeAt(loc)
		return DequeueSuccess, entry.event, entry.group, entry.meta
	}
	if ib.defaultSet {
		return DequeueDefault, Event{Type: EventDefault}, EventGroup{}, Metadata{}
	}
	return DequeueUnavailable, Event{}, EventGroup{}, Metadata{}
}

// ReceiveAsync returns a matching queued event immediately if one exists;
// otherwise it installs a receive descriptor and returns ok=false, and the
// caller is responsible for parking the owning Operation and supplying
// resume via SetReceive.
func (ib *Inbox) ReceiveAsync(types []EventType, predicate func(Event) bool) (Event, EventGroup, Metadata, bool) {
	set := make(map[EventType]struct{}, len(types))
	for _, t := range types {
		set[t] = struct{}{}
	}
	d := &receiveDescriptor{types: set, predicate: predicate}
	for c := ib.head; c != nil; c = c.next {
		start := 0
		if c == ib.head {
			start = c.head
		}
		for i := start; i < c.tail; i++ {
			entry := c.items[i]
			if d.matches(entry.event) {
				ib.removeAt(entryLoc{chunk: c, index: i})
				return entry.event, entry.group, entry.meta, true
			}
		}
	}
	ib.receive = d
	return Event{}, EventGroup{}, Metadata{}, false
}

// SetReceive installs resume as the completion callback for the pending
// receive descriptor created by ReceiveAsync's false path.
func (ib *Inbox) SetReceive(resume func(Event, EventGroup, Metadata)) {
	if ib.receive != nil {
		ib.receive.resume = resume
	}
}

// HasPendingReceive reports whether a Receive descriptor is currently active.
func (ib *Inbox) HasPendingReceive() bool { return ib.receive != nil }

// Close marks the inbox closed; subsequent Enqueue calls return Dropped.
func (ib *Inbox) Close() { ib.closed = true }

// IsClosed reports whether Close has been called.
func (ib *Inbox) IsClosed() bool { return ib.closed }

// Len reports the number of queued (non-raised) entries.
func (ib *Inbox) Len() int { return ib.count }
