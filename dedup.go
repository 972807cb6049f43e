package main

import (
	"hash/fnv"
	"sync"
	"time"
)

const (
	dedupWindow       = 4 * time.Second
	dedupCleanupLimit = 200
)

// MessageDeduplicator suppresses chat lines repeated within a short window,
// e.g. the same report pasted into several intel channels at once. The map
// is self-cleaning rather than strictly bounded: once it grows past
// dedupCleanupLimit entries, expired ones are swept before the next check.
type MessageDeduplicator struct {
	mu    sync.Mutex
	seen  map[uint64]time.Time
	clock func() time.Time
}

func NewMessageDeduplicator() *MessageDeduplicator {
	return &MessageDeduplicator{
		seen:  make(map[uint64]time.Time),
		clock: time.Now,
	}
}

// IsDuplicate reports whether the same author+text was seen within the
// dedup window. The stored timestamp is refreshed on every call.
func (d *MessageDeduplicator) IsDuplicate(msg ChatMessage) bool {
	key := messageHash(msg.Author, msg.Text)

	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.clock()
	if len(d.seen) > dedupCleanupLimit {
		for k, t := range d.seen {
			if now.Sub(t) > dedupWindow {
				delete(d.seen, k)
			}
		}
	}

	last, ok := d.seen[key]
	d.seen[key] = now
	return ok && now.Sub(last) < dedupWindow
}

func messageHash(author, text string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(author))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return h.Sum64()
}
