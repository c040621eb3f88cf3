// Package api pkg/api/server.go
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/sysline/sysline/pkg/broadcast"
	"github.com/sysline/sysline/pkg/models"
)

// Server exposes the current slot values over a local HTTP endpoint and
// streams rendered lines over a websocket. It only ever reads slots; the
// change signal belongs to the renderer.
type Server struct {
	slots      *broadcast.SlotSet
	hub        *Hub
	router     *mux.Router
	httpServer *http.Server
}

func NewServer(listenAddr string, slots *broadcast.SlotSet) *Server {
	s := &Server{
		slots:  slots,
		hub:    newHub(),
		router: mux.NewRouter(),
	}

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:              listenAddr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/api/status", s.getStatus).Methods("GET")
	s.router.HandleFunc("/api/metrics/{kind}", s.getMetric).Methods("GET")
	s.router.HandleFunc("/ws", s.hub.serveWS)
}

func (s *Server) Start(context.Context) error {
	go s.hub.run()

	log.Printf("Status API listening on %s", s.httpServer.Addr)

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	s.hub.close()
	return s.httpServer.Shutdown(ctx)
}

// Publish implements the renderer sink contract by forwarding each rendered
// line to the websocket hub.
func (s *Server) Publish(_ context.Context, line string, _ models.Snapshot) {
	s.hub.broadcastLine(line)
}

func (s *Server) getStatus(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(s.slots.Snapshot()); err != nil {
		log.Printf("Error encoding status response: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

type metricResponse struct {
	Kind    models.MetricKind `json:"kind"`
	Value   any               `json:"value"`
	Version uint64            `json:"version"`
}

func (s *Server) getMetric(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	kind := models.MetricKind(vars["kind"])

	value, version, ok := s.readMetric(kind)
	if !ok {
		http.Error(w, "Unknown metric kind", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	resp := metricResponse{Kind: kind, Value: value, Version: version}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Printf("Error encoding metric response: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (s *Server) readMetric(kind models.MetricKind) (value any, version uint64, ok bool) {
	switch kind {
	case models.KindCPULoad:
		return s.slots.CPULoad.Read(), s.slots.CPULoad.Version(), true
	case models.KindCPUTemp:
		return s.slots.CPUTemp.Read(), s.slots.CPUTemp.Version(), true
	case models.KindMemory:
		return s.slots.Memory.Read(), s.slots.Memory.Version(), true
	case models.KindNetRate:
		return s.slots.NetRate.Read(), s.slots.NetRate.Version(), true
	case models.KindBattery:
		return s.slots.Battery.Read(), s.slots.Battery.Version(), true
	case models.KindClock:
		return s.slots.Clock.Read(), s.slots.Clock.Version(), true
	case models.KindIP:
		return s.slots.IP.Read(), s.slots.IP.Version(), true
	default:
		return nil, 0, false
	}
}
