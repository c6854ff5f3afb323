package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/pagepulse/pagepulse/internal/budget"
	"github.com/pagepulse/pagepulse/internal/score"
	"github.com/pagepulse/pagepulse/internal/session"
)

// Handler is the HTTP handler for all /api/v1/* endpoints.
// It reads session state from the registry and returns JSON responses.
type Handler struct {
	registry *session.Registry
	budgets  *budget.Engine
	mux      *http.ServeMux
}

// New creates a Handler wired to the given registry and budget engine and
// registers all routes.
func New(reg *session.Registry, budgets *budget.Engine) http.Handler {
	h := &Handler{registry: reg, budgets: budgets, mux: http.NewServeMux()}

	h.mux.HandleFunc("/api/v1/overview", h.overview)
	h.mux.HandleFunc("/api/v1/sessions", h.listSessions)
	h.mux.HandleFunc("/api/v1/sessions/", h.getSession) // subtree — extracts {id}
	h.mux.HandleFunc("/api/v1/violations", h.violations)

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// BuildOverview assembles the overview payload from the registry and budget
// engine. Shared with the dashboard stream hub.
func BuildOverview(reg *session.Registry, budgets *budget.Engine) OverviewResponse {
	sessions := reg.List()
	resp := OverviewResponse{
		SessionCount: len(sessions),
		Sessions:     make([]SessionSummary, 0, len(sessions)),
		GeneratedAt:  time.Now().UTC().Format(time.RFC3339),
	}
	if budgets != nil {
		resp.ViolationCount = len(budgets.Active())
	}

	var total int
	for _, s := range sessions {
		sum := toSummary(s)
		total += sum.Score
		switch sum.Rating {
		case score.RatingGood:
			resp.GoodCount++
		case score.RatingNeedsImprovement:
			resp.NeedsWorkCount++
		default:
			resp.PoorCount++
		}
		resp.Sessions = append(resp.Sessions, sum)
	}
	if len(sessions) > 0 {
		resp.AvgScore = float64(total) / float64(len(sessions))
	}
	return resp
}

// --- route handlers ---------------------------------------------------------

// overview returns GET /api/v1/overview — score distribution and session list.
func (h *Handler) overview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	jsonResp(w, http.StatusOK, BuildOverview(h.registry, h.budgets))
}

// listSessions returns GET /api/v1/sessions — all live sessions.
func (h *Handler) listSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	sessions := h.registry.List()
	out := make([]SessionSummary, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, toSummary(s))
	}
	jsonResp(w, http.StatusOK, out)
}

// getSession returns GET /api/v1/sessions/{id} — one session with its full
// snapshot.
func (h *Handler) getSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/v1/sessions/")
	if id == "" {
		h.listSessions(w, r)
		return
	}

	s, ok := h.registry.Get(id)
	if !ok {
		jsonErr(w, http.StatusNotFound, "session not found")
		return
	}

	jsonResp(w, http.StatusOK, SessionDetail{
		SessionSummary: toSummary(s),
		Snapshot:       s.Snapshot(),
	})
}

// violations returns GET /api/v1/violations — firing and recently resolved
// budget violations.
func (h *Handler) violations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	jsonResp(w, http.StatusOK, h.budgets.Active())
}

// --- helpers ----------------------------------------------------------------

func toSummary(s *session.Session) SessionSummary {
	snap := s.Snapshot()
	sc := score.Score(snap)
	return SessionSummary{
		SessionID:                s.ID,
		Page:                     s.Page,
		UserAgent:                s.UserAgent,
		Score:                    sc,
		Rating:                   score.Rating(sc),
		FirstContentfulPaintMs:   snap.FirstContentfulPaintMs,
		LargestContentfulPaintMs: snap.LargestContentfulPaintMs,
		FirstInputDelayMs:        snap.FirstInputDelayMs,
		CumulativeLayoutShift:    snap.CumulativeLayoutShift,
		LargeResourceCount:       len(snap.LargeResources),
		StartedAt:                s.StartedAt.UTC().Format(time.RFC3339),
		LastSeen:                 s.LastSeen().UTC().Format(time.RFC3339),
	}
}

func jsonResp(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("api: encode response", "err", err)
	}
}

func jsonErr(w http.ResponseWriter, status int, msg string) {
	jsonResp(w, status, errorResponse{Error: msg})
}
