package api

import (
	"net/http"
	"runtime"
	"time"

	"github.com/nerrad567/mqtt-topics-translator/internal/connection"
	"github.com/nerrad567/mqtt-topics-translator/internal/router"
)

// StatusResponse is the body of GET /api/v1/status.
type StatusResponse struct {
	Timestamp     string            `json:"timestamp"`
	Version       string            `json:"version"`
	UptimeSeconds int64             `json:"uptime_seconds"`
	Connection    connection.Status `json:"connection"`
	Routing       router.Stats      `json:"routing"`
	Mappings      MappingSummary    `json:"mappings"`
	WebSocket     WSMetrics         `json:"websocket"`
	Runtime       RuntimeMetrics    `json:"runtime"`
}

// MappingSummary counts the loaded rules.
type MappingSummary struct {
	Rules        int `json:"rules"`
	Destinations int `json:"destinations"`
}

// WSMetrics contains WebSocket hub statistics.
type WSMetrics struct {
	ConnectedClients int `json:"connected_clients"`
}

// RuntimeMetrics contains Go runtime statistics.
type RuntimeMetrics struct {
	Goroutines    int     `json:"goroutines"`
	MemoryAllocMB float64 `json:"memory_alloc_mb"`
	NumGC         uint32  `json:"num_gc"`
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	writeJSON(w, http.StatusOK, StatusResponse{
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		Version:       s.version,
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		Connection:    s.conn.Status(),
		Routing:       s.stats.Stats(),
		Mappings: MappingSummary{
			Rules:        s.table.Len(),
			Destinations: s.table.DestinationCount(),
		},
		WebSocket: WSMetrics{
			ConnectedClients: s.hub.ClientCount(),
		},
		Runtime: RuntimeMetrics{
			Goroutines:    runtime.NumGoroutine(),
			MemoryAllocMB: float64(memStats.Alloc) / 1024 / 1024,
			NumGC:         memStats.NumGC,
		},
	})
}
