package rest

import (
	"encoding/json"
	"net/http"
)

type Endpoint struct {
	Path           string `json:"path"`
	Method         string `json:"method"`
	Description    string `json:"description"`
	Authentication bool   `json:"authentication"`
}

var apiEndpoints = []Endpoint{
	{"/api/files", http.MethodGet, "List files visible to the caller", true},
	{"/api/files", http.MethodPost, "Upload a file", true},
	{"/api/files/{id}", http.MethodGet, "File details", true},
	{"/api/files/{id}/download", http.MethodGet, "Download a file", true},
	{"/api/files/{id}", http.MethodDelete, "Delete a file", true},
	{"/api/public/files", http.MethodGet, "List public files", false},
}

// Docs handles GET /api/docs
func Docs(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"description": "filehub REST API",
		"version":     "v1.0",
		"openapi":     "/openapi.yml",
		"endpoints":   apiEndpoints,
	})
}
