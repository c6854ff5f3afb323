package export

import (
	"log/slog"
	"math"
	"net/http"
	"sort"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"

	"github.com/pagepulse/pagepulse/internal/session"
)

// Handler serves the current web-vitals aggregates in Prometheus text
// exposition format. Per-metric gauges report the p75 across live sessions —
// the percentile the vitals thresholds are defined against — and are omitted
// while no session has observed the metric yet.
type Handler struct {
	registry *session.Registry
}

// New creates a Handler reading from reg.
func New(reg *session.Registry) *Handler {
	return &Handler{registry: reg}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sessions := h.registry.List()

	families := []*dto.MetricFamily{
		gauge("pagepulse_sessions", "Number of live monitoring sessions.",
			float64(len(sessions))),
	}

	var scores, fcp, lcp, fid, cls []float64
	for _, s := range sessions {
		snap := s.Snapshot()
		scores = append(scores, float64(s.Score()))
		appendIfSet(&fcp, snap.FirstContentfulPaintMs)
		appendIfSet(&lcp, snap.LargestContentfulPaintMs)
		appendIfSet(&fid, snap.FirstInputDelayMs)
		appendIfSet(&cls, snap.CumulativeLayoutShift)
	}

	families = appendP75(families, "pagepulse_score_p75",
		"75th percentile health score across live sessions.", scores)
	families = appendP75(families, "pagepulse_first_contentful_paint_ms_p75",
		"75th percentile first contentful paint in milliseconds.", fcp)
	families = appendP75(families, "pagepulse_largest_contentful_paint_ms_p75",
		"75th percentile largest contentful paint in milliseconds.", lcp)
	families = appendP75(families, "pagepulse_first_input_delay_ms_p75",
		"75th percentile first input delay in milliseconds.", fid)
	families = appendP75(families, "pagepulse_cumulative_layout_shift_p75",
		"75th percentile cumulative layout shift score.", cls)

	format := expfmt.NewFormat(expfmt.TypeTextPlain)
	w.Header().Set("Content-Type", string(format))
	enc := expfmt.NewEncoder(w, format)
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			slog.Error("export: encode metric family", "name", mf.GetName(), "err", err)
			return
		}
	}
}

func appendIfSet(dst *[]float64, v *float64) {
	if v != nil {
		*dst = append(*dst, *v)
	}
}

func appendP75(families []*dto.MetricFamily, name, help string, values []float64) []*dto.MetricFamily {
	if len(values) == 0 {
		return families
	}
	return append(families, gauge(name, help, percentile(values, 0.75)))
}

// percentile computes the nearest-rank percentile of values. values may
// arrive in any order.
func percentile(values []float64, p float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	rank := int(math.Ceil(p*float64(len(sorted)))) - 1
	if rank < 0 {
		rank = 0
	}
	return sorted[rank]
}

func gauge(name, help string, value float64) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name: strPtr(name),
		Help: strPtr(help),
		Type: dto.MetricType_GAUGE.Enum(),
		Metric: []*dto.Metric{
			{Gauge: &dto.Gauge{Value: &value}},
		},
	}
}

func strPtr(s string) *string { return &s }
