package db

import (
	"encoding/json"
	"log"
	"net/http"
)

// AttachAdminRoutes mounts debug endpoints for database inspection.
func (db *DB) AttachAdminRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/debug/db-stats", db.handleStats)
}

func (db *DB) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := db.Stats()
	if err != nil {
		log.Printf("failed to collect db stats: %v", err)
		http.Error(w, "failed to collect db stats", http.StatusInternalServerError)
		return
	}

	version, dirty, err := db.MigrateVersion()
	if err != nil {
		log.Printf("failed to read migration version: %v", err)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"tables":         stats,
		"schema_version": version,
		"schema_dirty":   dirty,
	})
}
