package webserver

import (
	"encoding/json"
	"net/http"

	"github.com/shaharia-lab/cypherchat/internal/api"
	"github.com/shaharia-lab/cypherchat/internal/logger"
	"github.com/shaharia-lab/cypherchat/internal/preferences"
)

func (ws *WebServer) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		ws.log.Warn("failed to write response", map[string]interface{}{logger.ErrorKey: err})
	}
}

func (ws *WebServer) writeError(w http.ResponseWriter, status int, msg string) {
	ws.writeJSON(w, status, map[string]string{"error": msg})
}

func (ws *WebServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	ws.writeJSON(w, http.StatusOK, api.Health{Status: ws.backend.healthStatus()})
}

func (ws *WebServer) handleChat(w http.ResponseWriter, r *http.Request) {
	// defaults match what the bridge assumes for omitted fields
	req := api.ChatRequest{MaxTokens: 512, Temperature: 0.7, TopP: 0.9}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ws.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if req.Prompt == "" {
		ws.writeError(w, http.StatusBadRequest, "Prompt is required")
		return
	}

	settings := preferences.Settings{MaxTokens: req.MaxTokens, Temperature: req.Temperature, TopP: req.TopP}
	if err := settings.Validate(); err != nil {
		ws.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	entry, err := ws.backend.chat(r.Context(), req)
	if err != nil {
		ws.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	ws.writeJSON(w, http.StatusOK, entry)
}

func (ws *WebServer) handleHistory(w http.ResponseWriter, r *http.Request) {
	ws.writeJSON(w, http.StatusOK, ws.backend.History())
}

func (ws *WebServer) handleClear(w http.ResponseWriter, r *http.Request) {
	ws.backend.clear()
	ws.writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

func (ws *WebServer) handleExamples(w http.ResponseWriter, r *http.Request) {
	ws.writeJSON(w, http.StatusOK, ws.backend.exampleList())
}

func (ws *WebServer) handleMetrics(w http.ResponseWriter, r *http.Request) {
	ws.writeJSON(w, http.StatusOK, ws.backend.Metrics())
}
