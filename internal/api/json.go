package api

import (
	"encoding/json"
	"net/http"

	"daynav/internal/model"
)

// Problem represents an RFC7807 problem details response body.
type Problem struct {
	Type        string             `json:"type"`
	Title       string             `json:"title"`
	Status      int                `json:"status"`
	Detail      string             `json:"detail,omitempty"`
	Instance    string             `json:"instance,omitempty"`
	Suggestions []model.Suggestion `json:"suggestions,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeProblem(w http.ResponseWriter, status int, title, detail, instance string) {
	writeJSON(w, status, Problem{
		Type:     "about:blank",
		Title:    title,
		Status:   status,
		Detail:   detail,
		Instance: instance,
	})
}
