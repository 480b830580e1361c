package handler

import (
	"encoding/json"
	"net/http"
)

// ServeHTTP answers /healthz with 200 {"status":"ok"} or 503 {"status":"unavailable"}.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	code, state := http.StatusOK, "ok"
	if err := s.ping(r.Context()); err != nil {
		code, state = http.StatusServiceUnavailable, "unavailable"
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": state})
}
