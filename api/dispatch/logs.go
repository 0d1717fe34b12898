// Package dispatch exposes the dispatch log over HTTP.
package dispatch

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/kfranzke/leitstelle/core/dispatch/logging"
	"github.com/kfranzke/leitstelle/core/events"
)

// NewLogHandler returns an HTTP handler exposing dispatch logs via GET
// /api/dispatch/logs. Requests must include an Authorization header with
// "Bearer <token>" when token is non-empty. Supported query filters:
// start, end (RFC3339) and type.
func NewLogHandler(store logging.LogStore, token string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token != "" {
			auth := r.Header.Get("Authorization")
			if auth != "Bearer "+token {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		q := logging.LogQuery{}
		if s := r.URL.Query().Get("start"); s != "" {
			if t, err := time.Parse(time.RFC3339, s); err == nil {
				q.Start = t
			}
		}
		if s := r.URL.Query().Get("end"); s != "" {
			if t, err := time.Parse(time.RFC3339, s); err == nil {
				q.End = t
			}
		}
		q.Type = events.LogType(r.URL.Query().Get("type"))
		records := store.Query(q)
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(records); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})
}
