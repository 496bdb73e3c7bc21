package dashboard

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/skiffdb/skiff/internal/daemon"
	"github.com/skiffdb/skiff/internal/store"
)

// Handler receives daemon events and formats them as dashboard
// messages. It bridges between the daemon and the WebSocket server.
type Handler struct {
	server *Server
	logger *log.Logger

	// Statistics tracking. Daemon callbacks arrive from multiple
	// goroutines.
	mu    sync.Mutex
	stats StatsData
}

var _ daemon.Events = (*Handler)(nil)

// NewHandler creates a new event handler connected to a dashboard server
func NewHandler(server *Server, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.Default()
	}

	return &Handler{
		server: server,
		logger: logger,
	}
}

// SyncCompleted handles the outcome of one sync pass
func (h *Handler) SyncCompleted(stats store.SyncStats, err error) {
	data := SyncResultData{
		OK:           err == nil,
		FrameNo:      stats.FrameNo,
		FramesSynced: stats.FramesSynced,
		Duration:     stats.Duration,
	}
	if err != nil {
		data.Error = err.Error()
	}

	h.mu.Lock()
	h.stats.SyncAttempts++
	if err != nil {
		h.stats.SyncFailures++
		h.stats.LastError = err.Error()
	} else {
		h.stats.LastSync = time.Now()
		h.stats.LastError = ""
	}
	h.mu.Unlock()

	dataJSON, err := json.Marshal(data)
	if err != nil {
		h.logger.Printf("Failed to marshal sync result: %v", err)
		return
	}

	msg := Message{
		Type:      MessageTypeSyncResult,
		Timestamp: time.Now(),
		Data:      dataJSON,
	}
	h.server.Broadcast(msg)

	// Also broadcast updated stats
	h.broadcastStats()
}

// SnapshotChanged handles fresh item partitions
func (h *Handler) SnapshotChanged(snap store.Snapshot) {
	data := SnapshotData{
		Pending:   snap.Pending,
		Completed: snap.Completed,
		Total:     snap.Total(),
	}

	h.mu.Lock()
	h.stats.Pending = len(snap.Pending)
	h.stats.Completed = len(snap.Completed)
	h.stats.Total = snap.Total()
	h.mu.Unlock()

	dataJSON, err := json.Marshal(data)
	if err != nil {
		h.logger.Printf("Failed to marshal snapshot: %v", err)
		return
	}

	msg := Message{
		Type:      MessageTypeSnapshot,
		Timestamp: time.Now(),
		Data:      dataJSON,
	}
	h.server.Broadcast(msg)

	// Also broadcast updated stats
	h.broadcastStats()
}

// broadcastStats sends current statistics to all clients
func (h *Handler) broadcastStats() {
	stats := h.GetStats()

	dataJSON, err := json.Marshal(stats)
	if err != nil {
		h.logger.Printf("Failed to marshal stats: %v", err)
		return
	}

	msg := Message{
		Type:      MessageTypeStats,
		Timestamp: time.Now(),
		Data:      dataJSON,
	}
	h.server.Broadcast(msg)
}

// GetStats returns a copy of the current statistics
func (h *Handler) GetStats() StatsData {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stats
}
