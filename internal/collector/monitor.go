package collector

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/pagepulse/pagepulse/internal/metrics"
	"github.com/pagepulse/pagepulse/internal/score"
	"github.com/pagepulse/pagepulse/internal/timing"
	"github.com/pagepulse/pagepulse/internal/vitals"
)

// Options configures one monitoring session.
type Options struct {
	// ConsoleLogging mirrors every snapshot merge to the diagnostic log.
	ConsoleLogging bool

	// ResourceTiming enables the large-resource collection path.
	ResourceTiming bool
}

// Monitor binds a timing source to the vitals observers and an aggregator
// for the lifetime of one session. Start registers every observer the source
// supports; Close releases every registration exactly once. A metric whose
// entry kind the source cannot deliver stays permanently unset — never fatal.
type Monitor struct {
	src  timing.Source
	agg  *Aggregator
	opts Options

	subs      []timing.Subscription
	closeOnce sync.Once
}

// NewMonitor creates a Monitor reading from src.
func NewMonitor(src timing.Source, opts Options) *Monitor {
	return &Monitor{
		src:  src,
		agg:  NewAggregator(opts.ConsoleLogging),
		opts: opts,
	}
}

// Start registers the observers and the navigation/resource callbacks.
func (m *Monitor) Start() {
	for _, obs := range vitals.All() {
		obs := obs
		sub, err := m.src.Observe(obs.Kind(), func(entries []timing.Entry) {
			for _, p := range obs.Observe(entries) {
				m.agg.Update(p)
			}
		})
		if err != nil {
			if errors.Is(err, timing.ErrUnsupported) {
				slog.Warn("collector: entry kind unsupported, metric stays unset",
					"kind", obs.Kind())
				continue
			}
			slog.Warn("collector: observer registration failed",
				"kind", obs.Kind(), "err", err)
			continue
		}
		m.subs = append(m.subs, sub)
	}

	m.subs = append(m.subs, m.src.OnNavigation(func(rec timing.NavigationRecord) {
		m.agg.Update(metrics.Partial{Navigation: &rec})
	}))

	if m.opts.ResourceTiming {
		m.subs = append(m.subs, m.src.OnResources(func(entries []timing.ResourceEntry) {
			m.agg.Update(metrics.Partial{LargeResources: metrics.LargeResources(entries)})
		}))
	}
}

// Snapshot returns a copy of the current snapshot.
func (m *Monitor) Snapshot() metrics.Snapshot { return m.agg.Current() }

// Score computes the health score of the current snapshot on demand.
func (m *Monitor) Score() int { return score.Score(m.agg.Current()) }

// Subscribe registers fn for every snapshot update; see Aggregator.Subscribe.
func (m *Monitor) Subscribe(fn func(metrics.Snapshot)) func() {
	return m.agg.Subscribe(fn)
}

// Close releases every observer registration. Safe to call more than once;
// the release itself happens exactly once.
func (m *Monitor) Close() {
	m.closeOnce.Do(func() {
		for _, sub := range m.subs {
			sub.Unsubscribe()
		}
		m.subs = nil
	})
}
