package api

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"tamio-engine/internal/observability"
)

// NewRouter wires every endpoint, the queue stream, /health and /metrics.
func NewRouter(h *Handler, hub *Hub, metrics *observability.Metrics) *mux.Router {
	r := mux.NewRouter()
	r.Use(h.logRequests, metricsMiddleware(metrics))

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	v1 := r.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/users/{user}/queue", h.Queue).Methods(http.MethodGet)
	v1.HandleFunc("/users/{user}/queue/ws", h.QueueStream(hub)).Methods(http.MethodGet)
	v1.HandleFunc("/users/{user}/danger-zone", h.DangerZone).Methods(http.MethodGet)
	v1.HandleFunc("/users/{user}/insights", h.Insights).Methods(http.MethodGet)
	v1.HandleFunc("/users/{user}/scenarios/compare", h.CompareScenario).Methods(http.MethodPost)
	v1.HandleFunc("/scenarios/{scenario}/layers", h.AddLayer).Methods(http.MethodPost)
	v1.HandleFunc("/risks/{risk}/fixes", h.Fixes).Methods(http.MethodGet)
	v1.HandleFunc("/risks/{risk}/dismiss", h.DismissRisk).Methods(http.MethodPost)
	v1.HandleFunc("/controls/{control}/approve", h.ApproveControl).Methods(http.MethodPost)

	return r
}

// QueueStream handles GET /v1/users/{user}/queue/ws. The current queue is
// sent first; later rebuilds arrive through the hub.
func (h *Handler) QueueStream(hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := mux.Vars(r)["user"]
		sub := hub.Subscribe(userID)
		q, err := h.engine.Queue(r.Context(), userID)
		if err != nil {
			hub.Cancel(sub)
			h.writeError(w, r, err)
			return
		}
		hub.Serve(w, r, sub, q)
	}
}

// statusRecorder captures the response code. It forwards Hijack so the
// WebSocket upgrade still works behind the middleware.
type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.code = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Unwrap() http.ResponseWriter {
	return s.ResponseWriter
}

func (s *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := s.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	s.code = http.StatusSwitchingProtocols
	return hj.Hijack()
}

func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unmatched"
}

func metricsMiddleware(metrics *observability.Metrics) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
			next.ServeHTTP(rec, r)
			metrics.RecordRequest(routeTemplate(r), rec.code)
		})
	}
}

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		h.log.WithFields(logrus.Fields{
			"method":   r.Method,
			"route":    routeTemplate(r),
			"status":   strconv.Itoa(rec.code),
			"duration": time.Since(start).String(),
		}).Debug("Request served")
	})
}
