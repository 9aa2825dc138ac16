package http

import (
	"encoding/json"
	"net/http"

	"github.com/Wyydra/huddle/internal/adapter/driven/gateway/ws"
	"github.com/Wyydra/huddle/internal/core/service"
	"github.com/Wyydra/huddle/internal/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
)

type Options struct {
	StaticDir  string
	ICEServers []webrtc.ICEServer
	WS         WSOptions
}

type Handler struct {
	switchboard *service.Switchboard
	hub         *ws.Hub
	metrics     *metrics.Metrics
	staticDir   string
	iceServers  []webrtc.ICEServer
	ws          WSOptions
}

func NewHandler(switchboard *service.Switchboard, hub *ws.Hub, m *metrics.Metrics, opts Options) *Handler {
	return &Handler{
		switchboard: switchboard,
		hub:         hub,
		metrics:     m,
		staticDir:   opts.StaticDir,
		iceServers:  opts.ICEServers,
		ws:          opts.WS,
	}
}

func (h *Handler) NewRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", h.health)
	r.Get("/ws", h.ServeWS)
	r.Route("/api", func(r chi.Router) {
		r.Get("/ice-servers", h.listICEServers)
		r.Get("/rooms", h.listRooms)
	})
	r.Method(http.MethodGet, "/metrics", metrics.PrometheusHandler(h.metrics))

	if h.staticDir != "" {
		fs := http.FileServer(http.Dir(h.staticDir))
		r.Handle("/*", fs)
	}

	return r
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) listICEServers(w http.ResponseWriter, r *http.Request) {
	servers := h.iceServers
	if servers == nil {
		servers = []webrtc.ICEServer{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"iceServers": servers})
}

func (h *Handler) listRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.switchboard.Rooms(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list rooms")
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "switchboard unavailable"})
		return
	}
	if rooms == nil {
		rooms = []service.RoomSummary{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"rooms": rooms})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to write response")
	}
}
