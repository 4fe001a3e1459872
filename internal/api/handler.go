// Package api exposes the engine over JSON HTTP endpoints and streams
// recomputed queues to WebSocket subscribers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"tamio-engine/internal/dangerzone"
	"tamio-engine/internal/domain"
	"tamio-engine/internal/fixes"
	"tamio-engine/internal/insight"
	"tamio-engine/internal/queue"
	"tamio-engine/internal/scenario"
)

// Engine is the service surface the handlers call.
type Engine interface {
	Queue(ctx context.Context, userID string) (queue.Queue, error)
	DangerZone(ctx context.Context, userID string, weeks int, policy string) (*dangerzone.DangerZone, error)
	Insights(ctx context.Context, userID string, weeks int) ([]insight.Insight, error)
	Fixes(ctx context.Context, riskID string, maxFixes int) ([]fixes.Recommendation, error)
	CompareScenario(ctx context.Context, sc domain.Scenario) (scenario.Comparison, error)
	AddLayer(ctx context.Context, scenarioID string, layer domain.ScenarioLayer) (domain.Scenario, scenario.Comparison, error)
	ApproveControl(ctx context.Context, controlID string) (queue.Queue, error)
	DismissRisk(ctx context.Context, riskID string) (queue.Queue, error)
}

// Handler serves the engine endpoints.
type Handler struct {
	engine Engine
	log    *logrus.Logger
	newID  func() string
}

// NewHandler creates a handler. Scenarios posted without an id get a
// random UUID.
func NewHandler(engine Engine, log *logrus.Logger) *Handler {
	return &Handler{
		engine: engine,
		log:    log,
		newID:  func() string { return uuid.NewString() },
	}
}

// queryInt reads an optional non-negative integer query parameter.
// Missing values read as 0, which the engine treats as its default.
func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, domain.Invalid(name, "must be a non-negative integer, got %q", raw)
	}
	return n, nil
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return domain.Invalid("body", "%v", err)
	}
	return nil
}

// Queue handles GET /v1/users/{user}/queue.
func (h *Handler) Queue(w http.ResponseWriter, r *http.Request) {
	q, err := h.engine.Queue(r.Context(), mux.Vars(r)["user"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

// dangerZoneResponse wraps the analysis so "no danger zone" is an explicit
// null rather than an empty body.
type dangerZoneResponse struct {
	DangerZone *dangerzone.DangerZone `json:"danger_zone"`
}

// DangerZone handles GET /v1/users/{user}/danger-zone.
func (h *Handler) DangerZone(w http.ResponseWriter, r *http.Request) {
	weeks, err := queryInt(r, "weeks")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	dz, err := h.engine.DangerZone(r.Context(), mux.Vars(r)["user"], weeks, r.URL.Query().Get("policy"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dangerZoneResponse{DangerZone: dz})
}

// Insights handles GET /v1/users/{user}/insights.
func (h *Handler) Insights(w http.ResponseWriter, r *http.Request) {
	weeks, err := queryInt(r, "weeks")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	insights, err := h.engine.Insights(r.Context(), mux.Vars(r)["user"], weeks)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if insights == nil {
		insights = []insight.Insight{}
	}
	writeJSON(w, http.StatusOK, insights)
}

// Fixes handles GET /v1/risks/{risk}/fixes.
func (h *Handler) Fixes(w http.ResponseWriter, r *http.Request) {
	maxFixes, err := queryInt(r, "max")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	recs, err := h.engine.Fixes(r.Context(), mux.Vars(r)["risk"], maxFixes)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if recs == nil {
		recs = []fixes.Recommendation{}
	}
	writeJSON(w, http.StatusOK, recs)
}

// CompareScenario handles POST /v1/users/{user}/scenarios/compare.
// The path user overrides any user_id in the body.
func (h *Handler) CompareScenario(w http.ResponseWriter, r *http.Request) {
	var sc domain.Scenario
	if err := decodeBody(r, &sc); err != nil {
		h.writeError(w, r, err)
		return
	}
	sc.UserID = mux.Vars(r)["user"]
	if sc.ID == "" {
		sc.ID = h.newID()
	}

	cmp, err := h.engine.CompareScenario(r.Context(), sc)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cmp)
}

// layerResponse carries the extended scenario with its comparison.
type layerResponse struct {
	Scenario   domain.Scenario     `json:"scenario"`
	Comparison scenario.Comparison `json:"comparison"`
}

// AddLayer handles POST /v1/scenarios/{scenario}/layers.
func (h *Handler) AddLayer(w http.ResponseWriter, r *http.Request) {
	var layer domain.ScenarioLayer
	if err := decodeBody(r, &layer); err != nil {
		h.writeError(w, r, err)
		return
	}

	sc, cmp, err := h.engine.AddLayer(r.Context(), mux.Vars(r)["scenario"], layer)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, layerResponse{Scenario: sc, Comparison: cmp})
}

// ApproveControl handles POST /v1/controls/{control}/approve.
func (h *Handler) ApproveControl(w http.ResponseWriter, r *http.Request) {
	q, err := h.engine.ApproveControl(r.Context(), mux.Vars(r)["control"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

// DismissRisk handles POST /v1/risks/{risk}/dismiss.
func (h *Handler) DismissRisk(w http.ResponseWriter, r *http.Request) {
	q, err := h.engine.DismissRisk(r.Context(), mux.Vars(r)["risk"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}
