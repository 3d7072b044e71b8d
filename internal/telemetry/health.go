// Package telemetry exposes the queue's Stats() snapshot over HTTP and
// MQTT.
package telemetry

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/visiona/dqueue/internal/core"
)

// StatsSource is anything that can report the queue's current Stats,
// satisfied directly by *core.Queue.
type StatsSource interface {
	Stats() core.Stats
}

// HealthStatus mirrors the queue's point-in-time snapshot in a shape
// suited to a liveness/readiness probe.
type HealthStatus struct {
	Status                 string    `json:"status"` // "healthy", "degraded", "unhealthy"
	UptimeSeconds          int64     `json:"uptime_seconds"`
	Name                   string    `json:"name"`
	QueuedWork             int       `json:"queued_work"`
	QueuedFrames           int       `json:"queued_frames"`
	FramesLockedForDisplay int       `json:"frames_locked_for_display"`
	FramePoolUsed          int       `json:"frame_pool_used"`
	FramePoolPeak          int       `json:"frame_pool_peak"`
	ConsumedWork           uint64    `json:"consumed_work"`
	LastQueuedFrame        string    `json:"last_queued_frame"`
	LastIssuedFrame        string    `json:"last_issued_frame"`
	LastDroppedFrame       string    `json:"last_dropped_frame"`
	ConsumerBlocked        bool      `json:"consumer_blocked"`
}

// HealthServer serves /health (liveness) and /readiness (detailed
// status derived from queue stats) over HTTP.
type HealthServer struct {
	log     *slog.Logger
	source  StatsSource
	started time.Time
	server  *http.Server
}

// NewHealthServer creates a server bound to addr (e.g. ":8090"). It does
// not start listening until Start is called.
func NewHealthServer(log *slog.Logger, source StatsSource, addr string) *HealthServer {
	if log == nil {
		log = slog.Default()
	}
	h := &HealthServer{log: log, source: source, started: time.Now()}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", h.livenessHandler)
	mux.HandleFunc("/readiness", h.readinessHandler)

	h.server = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return h
}

// Start runs the HTTP server in a background goroutine.
func (h *HealthServer) Start() {
	h.log.Info("starting health server", "addr", h.server.Addr)
	go func() {
		if err := h.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			h.log.Error("health server failed", "error", err)
		}
	}()
}

// Stop gracefully shuts the server down.
func (h *HealthServer) Stop() error {
	return h.server.Close()
}

func (h *HealthServer) livenessHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status": "alive",
		"uptime": int64(time.Since(h.started).Seconds()),
	})
}

func (h *HealthServer) readinessHandler(w http.ResponseWriter, r *http.Request) {
	status := h.buildStatus()

	w.Header().Set("Content-Type", "application/json")
	statusCode := http.StatusOK
	if status.Status == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(status)
}

func (h *HealthServer) buildStatus() HealthStatus {
	s := h.source.Stats()

	status := HealthStatus{
		Status:                 "healthy",
		UptimeSeconds:          int64(time.Since(h.started).Seconds()),
		Name:                   s.Name,
		QueuedWork:             s.QueuedWork,
		QueuedFrames:           s.QueuedFrames,
		FramesLockedForDisplay: s.FramesLockedForDisplay,
		FramePoolUsed:          s.FramePoolUsed,
		FramePoolPeak:          s.FramePoolPeak,
		ConsumedWork:           s.ConsumedWork,
		LastQueuedFrame:        s.LastQueuedFrame.String(),
		LastIssuedFrame:        s.LastIssuedFrame.String(),
		LastDroppedFrame:       s.LastDroppedFrame.String(),
		ConsumerBlocked:        s.ConsumerBlocked,
	}

	if s.ConsumerBlocked {
		status.Status = "degraded"
	}

	return status
}
