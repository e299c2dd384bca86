package conflict

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/callsift/callsift/internal/events"
	"github.com/callsift/callsift/pkg/logging"
)

// Handler exposes the conflict engine over HTTP.
type Handler struct {
	detector *Detector
	store    events.Store
	matcher  *Matcher
	logger   *logging.Logger
}

// NewHandler creates a conflict HTTP handler. The matcher serves the local
// duplicate-check endpoint; when nil a default-tolerance matcher is used.
func NewHandler(detector *Detector, store events.Store, matcher *Matcher, logger *logging.Logger) *Handler {
	if matcher == nil {
		matcher = NewMatcher(DefaultTolerances(), DefaultPolicyThresholds().Merge)
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		detector: detector,
		store:    store,
		matcher:  matcher,
		logger:   logger,
	}
}

// DetectResponse is the body for a detection pass.
type DetectResponse struct {
	Conflicts []ConflictEvent `json:"conflicts"`
	Summary   BatchSummary    `json:"summary"`
}

// DetectConflicts handles POST /users/{userID}/conflicts/detect.
func (h *Handler) DetectConflicts(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		http.Error(w, "missing user id", http.StatusBadRequest)
		return
	}

	conflicts, summary := h.detector.DetectBatch(r.Context(), userID)
	if conflicts == nil {
		conflicts = []ConflictEvent{}
	}

	writeJSON(w, http.StatusOK, DetectResponse{Conflicts: conflicts, Summary: summary})
}

// ResolveResponse is the body for a detect-and-resolve pass.
type ResolveResponse struct {
	Resolved []ResolvedConflict `json:"resolved"`
	Summary  BatchSummary       `json:"summary"`
}

// ResolveConflicts handles POST /users/{userID}/conflicts/resolve: a full
// detection pass followed by conservative automatic resolution.
func (h *Handler) ResolveConflicts(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		http.Error(w, "missing user id", http.StatusBadRequest)
		return
	}

	conflicts, summary := h.detector.DetectBatch(r.Context(), userID)
	resolved := h.detector.ResolveAutomatically(r.Context(), conflicts)
	if resolved == nil {
		resolved = []ResolvedConflict{}
	}
	summary.AutoResolved = len(resolved)

	h.logger.Info("resolve pass complete", "user_id", userID, "auto_resolved", len(resolved))
	writeJSON(w, http.StatusOK, ResolveResponse{Resolved: resolved, Summary: summary})
}

// CheckDuplicate handles POST /users/{userID}/events/check: the local path.
// The body is a candidate event; it is compared in memory against the user's
// stored events near its timestamp and nothing is persisted.
func (h *Handler) CheckDuplicate(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		http.Error(w, "missing user id", http.StatusBadRequest)
		return
	}

	var candidate events.Event
	if err := json.NewDecoder(r.Body).Decode(&candidate); err != nil {
		http.Error(w, "invalid event body", http.StatusBadRequest)
		return
	}
	if candidate.LineID == "" || candidate.Number == "" || candidate.Timestamp.IsZero() {
		http.Error(w, "candidate requires line_id, number and timestamp", http.StatusBadRequest)
		return
	}
	candidate.UserID = userID

	existing, err := h.store.FindRecentEvents(r.Context(), userID, candidate.LineID, candidate.Timestamp, h.matcher.Window())
	if err != nil {
		h.logger.Error("failed to load comparison events", "user_id", userID, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, h.matcher.DetectDuplicate(&candidate, existing))
}

// GetMetrics handles GET /users/{userID}/conflicts/metrics.
func (h *Handler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		http.Error(w, "missing user id", http.StatusBadRequest)
		return
	}

	m, err := h.store.GetAggregateMetrics(r.Context(), userID)
	if err != nil {
		if errors.Is(err, events.ErrMetricsNotFound) {
			http.Error(w, "no conflict metrics for user", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to load conflict metrics", "user_id", userID, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, m)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
