package cache

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/newmo-oss/ctxtime"

	"github.com/jonwraymond/courseops/observe"
)

// EventType says what happened to an entry.
type EventType int

const (
	// EventUpdated follows Set, SetError and every applied fetch transition.
	EventUpdated EventType = iota
	// EventInvalidated means the entry was marked stale; observers refetch.
	EventInvalidated
	// EventRemoved means the entry was deleted by Remove or Clear.
	EventRemoved
	// EventEvicted means the entry was dropped by idle collection.
	EventEvicted
)

func (t EventType) String() string {
	switch t {
	case EventUpdated:
		return "updated"
	case EventInvalidated:
		return "invalidated"
	case EventRemoved:
		return "removed"
	case EventEvicted:
		return "evicted"
	default:
		return "unknown"
	}
}

// Event is delivered to listeners after the store lock is released.
type Event struct {
	Type EventType
	Key  Key
	// Entry is the snapshot after the change; zero for removals.
	Entry Entry
}

// Listener receives events. Listeners run on the goroutine that made the
// change and must not block.
type Listener func(Event)

type entry struct {
	Entry
	id            string
	segs          []string
	lastWrite     uint64
	invalidatedAt uint64
	idleSince     time.Time
}

type tombstone struct {
	seq uint64
	at  time.Time
}

// Store holds cache entries.
//
// Contract:
// - Concurrency: safe for concurrent use; listeners run outside the lock.
// - Get never has side effects.
// - Errors: only invalid keys produce errors.
type Store struct {
	mu         sync.Mutex
	policy     Policy
	logger     observe.Logger
	entries    map[string]*entry
	tombstones map[string]tombstone
	seq        uint64
	clearedAt  uint64

	nextListener uint64
	subs         map[string]map[uint64]Listener
	watchers     map[uint64]Listener
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithLogger sets the store logger.
func WithLogger(l observe.Logger) StoreOption {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewStore creates an empty store.
func NewStore(policy Policy, opts ...StoreOption) *Store {
	s := &Store{
		policy:     policy,
		logger:     observe.NopLogger(),
		entries:    make(map[string]*entry),
		tombstones: make(map[string]tombstone),
		subs:       make(map[string]map[uint64]Listener),
		watchers:   make(map[uint64]Listener),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Policy returns the store policy.
func (s *Store) Policy() Policy {
	return s.policy
}

type notification struct {
	event     Event
	listeners []Listener
}

func (s *Store) notify(ns []notification) {
	for _, n := range ns {
		for _, l := range n.listeners {
			l(n.event)
		}
	}
}

// listenersLocked returns store watchers followed by key subscribers.
func (s *Store) listenersLocked(id string) []Listener {
	keySubs := s.subs[id]
	out := make([]Listener, 0, len(keySubs)+len(s.watchers))
	for _, wid := range sortedIDs(s.watchers) {
		out = append(out, s.watchers[wid])
	}
	for _, lid := range sortedIDs(keySubs) {
		out = append(out, keySubs[lid])
	}
	return out
}

func sortedIDs(m map[uint64]Listener) []uint64 {
	ids := make([]uint64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (s *Store) snapshotLocked(e *entry) Entry {
	snap := e.Entry
	snap.Key = append(Key(nil), e.Key...)
	snap.Subscribers = len(s.subs[e.id])
	return snap
}

func (s *Store) eventLocked(typ EventType, e *entry) notification {
	ev := Event{Type: typ, Key: append(Key(nil), e.Key...)}
	if typ == EventUpdated || typ == EventInvalidated {
		ev.Entry = s.snapshotLocked(e)
	}
	return notification{event: ev, listeners: s.listenersLocked(e.id)}
}

func resolve(key Key) (string, []string, error) {
	if err := key.Validate(); err != nil {
		return "", nil, err
	}
	segs, err := key.segments()
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	return key.String(), segs, nil
}

func (s *Store) entryLocked(ctx context.Context, key Key, id string, segs []string) *entry {
	e, ok := s.entries[id]
	if !ok {
		e = &entry{
			Entry:     Entry{Key: append(Key(nil), key...), Status: StatusIdle},
			id:        id,
			segs:      segs,
			idleSince: ctxtime.Now(ctx),
		}
		s.entries[id] = e
	}
	return e
}

// Get returns a snapshot of the entry for key.
func (s *Store) Get(_ context.Context, key Key) (Entry, bool) {
	id, err := key.Canonical()
	if err != nil || len(key) == 0 {
		return Entry{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return Entry{}, false
	}
	return s.snapshotLocked(e), true
}

// Set stores value as a successful result fetched now.
func (s *Store) Set(ctx context.Context, key Key, value any) error {
	id, segs, err := resolve(key)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.seq++
	e := s.entryLocked(ctx, key, id, segs)
	s.applySuccessLocked(ctx, e, s.seq, value)
	delete(s.tombstones, id)
	n := s.eventLocked(EventUpdated, e)
	s.mu.Unlock()

	s.notify([]notification{n})
	return nil
}

// SetError records err on the entry for key. The value is left unchanged.
func (s *Store) SetError(ctx context.Context, key Key, err error) error {
	id, segs, kerr := resolve(key)
	if kerr != nil {
		return kerr
	}

	s.mu.Lock()
	s.seq++
	e := s.entryLocked(ctx, key, id, segs)
	s.applyErrorLocked(ctx, e, s.seq, err)
	n := s.eventLocked(EventUpdated, e)
	s.mu.Unlock()

	s.notify([]notification{n})
	return nil
}

func (s *Store) applySuccessLocked(ctx context.Context, e *entry, seq uint64, value any) {
	now := ctxtime.Now(ctx)
	e.Value = value
	e.HasValue = true
	e.Status = StatusSuccess
	e.Err = nil
	e.LastFetchedAt = now
	e.lastWrite = seq
	e.idleSince = now
	if seq > e.invalidatedAt {
		e.Stale = false
	}
}

func (s *Store) applyErrorLocked(ctx context.Context, e *entry, seq uint64, err error) {
	e.Status = StatusError
	e.Err = err
	e.lastWrite = seq
	e.idleSince = ctxtime.Now(ctx)
}

// BeginFetch marks the entry pending and returns the sequence number the
// fetch must present on completion. The previous value stays readable.
func (s *Store) BeginFetch(ctx context.Context, key Key) (uint64, error) {
	id, segs, err := resolve(key)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	s.seq++
	seq := s.seq
	e := s.entryLocked(ctx, key, id, segs)
	e.Status = StatusPending
	n := s.eventLocked(EventUpdated, e)
	s.mu.Unlock()

	s.notify([]notification{n})
	return seq, nil
}

// acceptLocked reports whether a completion for seq may be applied.
func (s *Store) acceptLocked(id string, seq uint64) (*entry, bool) {
	if seq <= s.clearedAt {
		return nil, false
	}
	if ts, ok := s.tombstones[id]; ok && seq <= ts.seq {
		return nil, false
	}
	e, ok := s.entries[id]
	if ok && seq < e.lastWrite {
		return nil, false
	}
	return e, true
}

// CompleteFetch applies a successful fetch. It returns false, leaving the
// store untouched, when a newer write, a removal or a Clear happened after
// the fetch began.
func (s *Store) CompleteFetch(ctx context.Context, key Key, seq uint64, value any) bool {
	id, segs, err := resolve(key)
	if err != nil {
		return false
	}

	s.mu.Lock()
	e, ok := s.acceptLocked(id, seq)
	if !ok {
		s.mu.Unlock()
		s.logger.Debug(ctx, "discarded superseded fetch result",
			observe.Field{Key: "key", Value: id},
			observe.Field{Key: "seq", Value: seq},
		)
		return false
	}
	if e == nil {
		e = s.entryLocked(ctx, key, id, segs)
	}
	s.applySuccessLocked(ctx, e, seq, value)
	delete(s.tombstones, id)
	n := s.eventLocked(EventUpdated, e)
	s.mu.Unlock()

	s.notify([]notification{n})
	return true
}

// FailFetch records a failed fetch under the same rules as CompleteFetch.
func (s *Store) FailFetch(ctx context.Context, key Key, seq uint64, ferr error) bool {
	id, segs, err := resolve(key)
	if err != nil {
		return false
	}

	s.mu.Lock()
	e, ok := s.acceptLocked(id, seq)
	if !ok {
		s.mu.Unlock()
		return false
	}
	if e == nil {
		e = s.entryLocked(ctx, key, id, segs)
	}
	s.applyErrorLocked(ctx, e, seq, ferr)
	n := s.eventLocked(EventUpdated, e)
	s.mu.Unlock()

	s.notify([]notification{n})
	return true
}

func (s *Store) matchLocked(prefix Key) ([]*entry, error) {
	psegs, err := prefix.segments()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	var out []*entry
	for _, e := range s.entries {
		if hasPrefix(e.segs, psegs) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out, nil
}

// Invalidate marks every entry under prefix stale and notifies their
// subscribers. Values are kept. It returns the number of entries matched.
func (s *Store) Invalidate(ctx context.Context, prefix Key) int {
	s.mu.Lock()
	matched, err := s.matchLocked(prefix)
	if err != nil {
		s.mu.Unlock()
		s.logger.Warn(ctx, "invalidate skipped", observe.Field{Key: "error", Value: err})
		return 0
	}
	ns := make([]notification, 0, len(matched))
	for _, e := range matched {
		s.seq++
		e.Stale = true
		e.invalidatedAt = s.seq
		ns = append(ns, s.eventLocked(EventInvalidated, e))
	}
	s.mu.Unlock()

	if len(matched) > 0 {
		s.logger.Debug(ctx, "invalidated entries",
			observe.Field{Key: "prefix", Value: prefix.String()},
			observe.Field{Key: "count", Value: len(matched)},
		)
	}
	s.notify(ns)
	return len(matched)
}

// Remove deletes every entry under prefix and notifies their subscribers.
// Fetches that began before the removal are discarded on completion.
func (s *Store) Remove(ctx context.Context, prefix Key) int {
	now := ctxtime.Now(ctx)
	s.mu.Lock()
	matched, err := s.matchLocked(prefix)
	if err != nil {
		s.mu.Unlock()
		s.logger.Warn(ctx, "remove skipped", observe.Field{Key: "error", Value: err})
		return 0
	}
	s.seq++
	ns := make([]notification, 0, len(matched))
	for _, e := range matched {
		delete(s.entries, e.id)
		s.tombstones[e.id] = tombstone{seq: s.seq, at: now}
		ns = append(ns, s.eventLocked(EventRemoved, e))
	}
	s.mu.Unlock()

	s.notify(ns)
	return len(matched)
}

// Clear drops every entry and discards all fetches in flight.
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	s.seq++
	s.clearedAt = s.seq
	ns := make([]notification, 0, len(s.entries))
	ids := make([]string, 0, len(s.entries))
	for id := range s.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		ns = append(ns, s.eventLocked(EventRemoved, s.entries[id]))
	}
	s.entries = make(map[string]*entry)
	s.tombstones = make(map[string]tombstone)
	s.mu.Unlock()

	s.logger.Info(ctx, "cache cleared", observe.Field{Key: "count", Value: len(ids)})
	s.notify(ns)
}

// Subscribe registers l for events on key. The entry is kept from idle
// eviction while it has subscribers; its idle window starts at the clock of
// ctx when the last subscriber leaves.
func (s *Store) Subscribe(ctx context.Context, key Key, l Listener) (unsubscribe func()) {
	id := key.String()

	s.mu.Lock()
	s.nextListener++
	lid := s.nextListener
	if s.subs[id] == nil {
		s.subs[id] = make(map[uint64]Listener)
	}
	s.subs[id][lid] = l
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subs[id], lid)
			if len(s.subs[id]) == 0 {
				delete(s.subs, id)
				if e, ok := s.entries[id]; ok {
					e.idleSince = ctxtime.Now(ctx)
				}
			}
		})
	}
}

// Watch registers l for events on every key. Watchers see each event
// before the key's subscribers do.
func (s *Store) Watch(l Listener) (unwatch func()) {
	s.mu.Lock()
	s.nextListener++
	lid := s.nextListener
	s.watchers[lid] = l
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.watchers, lid)
		s.mu.Unlock()
	}
}

// Collect evicts entries that have had no subscribers for at least
// Policy.GCTime and are not pending. It returns the number evicted.
func (s *Store) Collect(ctx context.Context) int {
	if !s.policy.ShouldCollect() {
		return 0
	}
	now := ctxtime.Now(ctx)

	s.mu.Lock()
	var ns []notification
	s.seq++
	for id, e := range s.entries {
		if len(s.subs[id]) > 0 || e.Status == StatusPending {
			continue
		}
		if now.Sub(e.idleSince) < s.policy.GCTime {
			continue
		}
		delete(s.entries, id)
		s.tombstones[id] = tombstone{seq: s.seq, at: now}
		ns = append(ns, s.eventLocked(EventEvicted, e))
	}
	for id, ts := range s.tombstones {
		if now.Sub(ts.at) >= s.policy.GCTime {
			delete(s.tombstones, id)
		}
	}
	s.mu.Unlock()

	if len(ns) > 0 {
		s.logger.Debug(ctx, "evicted idle entries", observe.Field{Key: "count", Value: len(ns)})
	}
	s.notify(ns)
	return len(ns)
}

// RunJanitor calls Collect every interval until ctx is done.
func (s *Store) RunJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 || !s.policy.ShouldCollect() {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Collect(ctx)
		}
	}
}

// Len returns the number of entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Keys returns all keys in canonical order.
func (s *Store) Keys() []Key {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.entries))
	for id := range s.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]Key, len(ids))
	for i, id := range ids {
		out[i] = append(Key(nil), s.entries[id].Key...)
	}
	return out
}
