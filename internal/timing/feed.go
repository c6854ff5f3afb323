package timing

import "sync"

// Feed is the in-process Source implementation backed by a beacon connection.
// The ingest layer calls Deliver/SetNavigation/SetResources as messages
// arrive; the session's monitor subscribes through the Source interface.
//
// Supported kinds are fixed at construction from the beacon's hello message:
// a kind the page never declared is permanently unsupported for the session.
//
// Feed is safe for concurrent use, though in practice one connection
// goroutine delivers and one monitor subscribes.
type Feed struct {
	mu        sync.Mutex
	supported map[Kind]bool
	nextID    int

	entrySubs map[Kind]map[int]func([]Entry)
	navSubs   map[int]func(NavigationRecord)
	resSubs   map[int]func([]ResourceEntry)

	nav    *NavigationRecord
	closed bool
}

// NewFeed creates a Feed that supports exactly the given entry kinds.
func NewFeed(supported []Kind) *Feed {
	m := make(map[Kind]bool, len(supported))
	for _, k := range supported {
		m[k] = true
	}
	return &Feed{
		supported: m,
		entrySubs: make(map[Kind]map[int]func([]Entry)),
		navSubs:   make(map[int]func(NavigationRecord)),
		resSubs:   make(map[int]func([]ResourceEntry)),
	}
}

// Supports reports whether the feed can deliver entries of the given kind.
func (f *Feed) Supports(kind Kind) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.supported[kind]
}

// Observe implements Source.
func (f *Feed) Observe(kind Kind, fn func([]Entry)) (Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.supported[kind] {
		return nil, ErrUnsupported
	}
	if f.entrySubs[kind] == nil {
		f.entrySubs[kind] = make(map[int]func([]Entry))
	}
	id := f.nextID
	f.nextID++
	f.entrySubs[kind][id] = fn

	return &feedSub{release: func() {
		f.mu.Lock()
		delete(f.entrySubs[kind], id)
		f.mu.Unlock()
	}}, nil
}

// OnNavigation implements Source. If navigation timing already arrived the
// callback runs immediately with the stored record.
func (f *Feed) OnNavigation(fn func(NavigationRecord)) Subscription {
	f.mu.Lock()
	if f.nav != nil {
		rec := *f.nav
		f.mu.Unlock()
		fn(rec)
		return noopSub{}
	}
	id := f.nextID
	f.nextID++
	f.navSubs[id] = fn
	f.mu.Unlock()

	return &feedSub{release: func() {
		f.mu.Lock()
		delete(f.navSubs, id)
		f.mu.Unlock()
	}}
}

// OnResources implements Source.
func (f *Feed) OnResources(fn func([]ResourceEntry)) Subscription {
	f.mu.Lock()
	id := f.nextID
	f.nextID++
	f.resSubs[id] = fn
	f.mu.Unlock()

	return &feedSub{release: func() {
		f.mu.Lock()
		delete(f.resSubs, id)
		f.mu.Unlock()
	}}
}

// Deliver fans out a batch of entries to every observer of kind.
// Batches for unsupported or unobserved kinds are dropped silently.
func (f *Feed) Deliver(kind Kind, entries []Entry) {
	if len(entries) == 0 {
		return
	}
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	fns := make([]func([]Entry), 0, len(f.entrySubs[kind]))
	for _, fn := range f.entrySubs[kind] {
		fns = append(fns, fn)
	}
	f.mu.Unlock()

	for _, fn := range fns {
		fn(entries)
	}
}

// SetNavigation stores the navigation record and fires pending one-shot
// callbacks. Later registrations receive the stored record immediately.
func (f *Feed) SetNavigation(rec NavigationRecord) {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.nav = &rec
	fns := make([]func(NavigationRecord), 0, len(f.navSubs))
	for id, fn := range f.navSubs {
		fns = append(fns, fn)
		delete(f.navSubs, id)
	}
	f.mu.Unlock()

	for _, fn := range fns {
		fn(rec)
	}
}

// SetResources fans a resource timing collection out to subscribers.
func (f *Feed) SetResources(entries []ResourceEntry) {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	fns := make([]func([]ResourceEntry), 0, len(f.resSubs))
	for _, fn := range f.resSubs {
		fns = append(fns, fn)
	}
	f.mu.Unlock()

	for _, fn := range fns {
		fn(entries)
	}
}

// Close drops all subscriptions and stops all future delivery.
func (f *Feed) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	f.entrySubs = make(map[Kind]map[int]func([]Entry))
	f.navSubs = make(map[int]func(NavigationRecord))
	f.resSubs = make(map[int]func([]ResourceEntry))
}

type feedSub struct {
	once    sync.Once
	release func()
}

func (s *feedSub) Unsubscribe() { s.once.Do(s.release) }

type noopSub struct{}

func (noopSub) Unsubscribe() {}
