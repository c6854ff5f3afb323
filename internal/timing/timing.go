package timing

import "errors"

// ErrUnsupported is returned by Source.Observe when the session's page did not
// declare support for the requested entry kind. Callers check it with
// errors.Is and continue without that metric — a missing observer is never
// fatal to the rest of the session.
var ErrUnsupported = errors.New("timing: entry kind not supported")

// Kind identifies one class of performance timing entries, mirroring the
// entry types the in-page beacon observes.
type Kind string

const (
	KindPaint                  Kind = "paint"
	KindLargestContentfulPaint Kind = "largest-contentful-paint"
	KindFirstInput             Kind = "first-input"
	KindLayoutShift            Kind = "layout-shift"
)

// Kinds lists every entry kind a page may report, in registration order.
var Kinds = []Kind{
	KindPaint,
	KindLargestContentfulPaint,
	KindFirstInput,
	KindLayoutShift,
}

// ParseKind maps a beacon-reported kind string to a known Kind.
// Returns ("", false) for kinds this collector does not understand.
func ParseKind(s string) (Kind, bool) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, true
		}
	}
	return "", false
}

// Entry is one raw performance timing entry as reported by the page.
// Which fields are meaningful depends on Kind:
//
//	paint                     Name ("first-contentful-paint"), StartTime
//	largest-contentful-paint  StartTime
//	first-input               StartTime, ProcessingStart
//	layout-shift              Value, HadRecentInput
type Entry struct {
	Kind Kind   `json:"kind,omitempty"`
	Name string `json:"name,omitempty"`

	// StartTime is milliseconds since navigation start.
	StartTime float64 `json:"start_time"`

	// ProcessingStart is when the input handler began running, in the same
	// time base as StartTime. nil when the page did not report it — such
	// entries are skipped by the first-input observer.
	ProcessingStart *float64 `json:"processing_start,omitempty"`

	// Value is the layout shift fraction for layout-shift entries.
	Value float64 `json:"value,omitempty"`

	// HadRecentInput marks layout shifts caused by user interaction.
	// These are excluded from the cumulative layout shift accumulator.
	HadRecentInput bool `json:"had_recent_input,omitempty"`
}

// NavigationRecord is the page's navigation timing, queried once by the
// beacon after the document finishes loading.
type NavigationRecord struct {
	TimeToFirstByteMs  float64 `json:"time_to_first_byte_ms"`
	DomInteractiveMs   float64 `json:"dom_interactive_ms"`
	DomContentLoadedMs float64 `json:"dom_content_loaded_ms"`
	LoadEventMs        float64 `json:"load_event_ms"`
	TransferSizeBytes  int64   `json:"transfer_size_bytes"`
	RedirectCount      int     `json:"redirect_count"`
}

// ResourceEntry is one raw resource timing entry from the page.
type ResourceEntry struct {
	Name         string  `json:"name"`
	Initiator    string  `json:"initiator,omitempty"`
	TransferSize int64   `json:"transfer_size"`
	DurationMs   float64 `json:"duration_ms"`
	StartTimeMs  float64 `json:"start_time_ms,omitempty"`
}

// Subscription is the handle returned by every registration call on a Source.
// Unsubscribe releases the registration; it is safe to call more than once
// but owners release each subscription exactly once on teardown.
type Subscription interface {
	Unsubscribe()
}

// Source is the timing capability a monitoring session reads from.
// All callbacks are invoked synchronously on the delivering goroutine;
// a Source never calls back after the subscription is released.
type Source interface {
	// Observe registers fn for batches of entries of the given kind.
	// Returns ErrUnsupported when the page cannot deliver that kind.
	Observe(kind Kind, fn func([]Entry)) (Subscription, error)

	// OnNavigation registers fn for the one-shot navigation timing record.
	// If the record already arrived, fn is invoked immediately.
	OnNavigation(fn func(NavigationRecord)) Subscription

	// OnResources registers fn for resource timing collections. The page may
	// collect more than once; fn runs for each collection.
	OnResources(fn func([]ResourceEntry)) Subscription
}
