// Package vehicles exposes the fleet snapshot over HTTP.
package vehicles

import (
	"encoding/json"
	"net/http"

	vehiclestatus "github.com/kfranzke/leitstelle/core/vehiclestatus"
)

// NewStatusHandler returns an HTTP handler exposing vehicle status data via
// GET /api/vehicles/status. Supported query filters: type, status.
func NewStatusHandler(store vehiclestatus.Store) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		f := vehiclestatus.Filter{
			Type:   r.URL.Query().Get("type"),
			Status: r.URL.Query().Get("status"),
		}
		entries := store.List(f)
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(entries); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})
}
