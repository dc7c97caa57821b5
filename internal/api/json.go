// ABOUTME: JSON response helpers for the HTTP transport
// ABOUTME: Small wrappers shared by the RPC and REST handlers
package api

import (
	"encoding/json"
	"net/http"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	// Encode errors at this point mean the connection is gone; the
	// handler already did its work.
	_ = json.NewEncoder(w).Encode(v)
}
