package handlers

import (
	"net/http"
)

// Health reports liveness plus which storage backend is in effect, so a
// degraded (in-memory) deployment is visible to operators.
func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"storage": string(a.Orchestrator.StorageMode()),
	})
}
