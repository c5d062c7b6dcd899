package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"neon-snake/internal/game"
)

func (h *routerHandlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{"status": "ok"}
	if h.feed != nil {
		status["connected"] = h.feed.IsConnected()
	}
	if h.streamer != nil {
		status["streaming"] = h.streamer.IsStreaming()
	}
	writeJSON(w, status)
}

// handleSnapshot returns the current snapshot, and the previous one with ?prev=1
func (h *routerHandlers) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if h.snapshots == nil {
		writeError(w, "snapshot store unavailable", http.StatusServiceUnavailable)
		return
	}

	prev, cur := h.snapshots.Pair()
	if cur == nil {
		writeError(w, "no snapshot received yet", http.StatusNotFound)
		return
	}

	withPrev, _ := strconv.ParseBool(r.URL.Query().Get("prev"))
	if !withPrev {
		writeJSON(w, cur)
		return
	}
	writeJSON(w, struct {
		Previous *game.Snapshot `json:"previous"`
		Current  *game.Snapshot `json:"current"`
	}{prev, cur})
}

func (h *routerHandlers) handleHUD(w http.ResponseWriter, r *http.Request) {
	if h.hud == nil {
		writeError(w, "hud unavailable", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, h.hud.Labels())
}

func (h *routerHandlers) handleFrame(w http.ResponseWriter, r *http.Request) {
	if h.frames == nil {
		writeError(w, "frame capture unavailable", http.StatusServiceUnavailable)
		return
	}

	data, ok := h.frames.PNG()
	if !ok {
		writeError(w, "no frame rendered yet", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(data)
}

func (h *routerHandlers) handleStreamStart(w http.ResponseWriter, r *http.Request) {
	if h.streamer == nil {
		writeError(w, "streaming disabled", http.StatusServiceUnavailable)
		return
	}
	log.Println("📡 Stream start requested via API")
	if err := h.streamer.Start(); err != nil {
		log.Printf("❌ Stream start failed: %v", err)
		writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]bool{"success": true})
}

func (h *routerHandlers) handleStreamStop(w http.ResponseWriter, r *http.Request) {
	if h.streamer == nil {
		writeError(w, "streaming disabled", http.StatusServiceUnavailable)
		return
	}
	log.Println("📡 Stream stop requested via API")
	h.streamer.Stop()
	writeJSON(w, map[string]bool{"success": true})
}

func (h *routerHandlers) handleStreamStatus(w http.ResponseWriter, r *http.Request) {
	if h.streamer == nil {
		writeJSON(w, map[string]interface{}{"isStreaming": false})
		return
	}
	writeJSON(w, h.streamer.GetStats())
}

// Helper functions (package-level for reuse)

func writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
