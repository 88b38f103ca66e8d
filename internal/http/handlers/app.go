package handlers

import (
	"encoding/json"
	"net/http"

	"videoforge/internal/infra"
	"videoforge/internal/pipeline"
)

// App bundles the dependencies the HTTP handlers need.
type App struct {
	Orchestrator *pipeline.Orchestrator
	Logger       infra.Logger
}

func NewApp(orchestrator *pipeline.Orchestrator, logger infra.Logger) *App {
	return &App{Orchestrator: orchestrator, Logger: logger}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, kind, message string) {
	a.json(w, code, map[string]string{"error": kind, "message": message})
}
