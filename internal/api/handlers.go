package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/tvaillant/mailarch/internal/search"
)

// StatsResponse represents the archive statistics.
type StatsResponse struct {
	TotalEmails      int64 `json:"total_emails"`
	TotalAddresses   int64 `json:"total_addresses"`
	TotalAliases     int64 `json:"total_aliases"`
	TotalContacts    int64 `json:"total_contacts"`
	TotalAttachments int64 `json:"total_attachments"`
	TotalTimestamps  int64 `json:"total_timestamps"`
	DatabaseSize     int64 `json:"database_size_bytes"`
}

// SearchResponse lists the email identifiers a search matched.
type SearchResponse struct {
	IDs   []string `json:"email_ids"`
	Total int      `json:"total"`
}

// ErrorResponse represents an API error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, err string, message string) {
	writeJSON(w, status, ErrorResponse{Error: err, Message: message})
}

// handleStats returns archive statistics.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.GetStats()
	if err != nil {
		s.logger.Error("failed to get stats", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to retrieve statistics")
		return
	}

	resp := StatsResponse{
		TotalEmails:      stats.EmailCount,
		TotalAddresses:   stats.AddressCount,
		TotalAliases:     stats.AliasCount,
		TotalContacts:    stats.ContactCount,
		TotalAttachments: stats.AttachmentCount,
		TotalTimestamps:  stats.TimestampCount,
		DatabaseSize:     stats.DatabaseSize,
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleSearch builds and executes one search request. An invalid request
// is the caller's mistake, reported as 400 before anything touches the
// database.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req search.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Malformed search request body")
		return
	}

	q, err := search.Build(req)
	if err != nil {
		if errors.Is(err, search.ErrBadOperator) || errors.Is(err, search.ErrBadLocalization) {
			writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}
		s.logger.Error("failed to build search", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to build search")
		return
	}

	ids, err := s.store.SelectEmailIDs(r.Context(), q.SQL, q.Args)
	if err != nil {
		s.logger.Error("failed to execute search", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to execute search")
		return
	}

	writeJSON(w, http.StatusOK, SearchResponse{IDs: ids, Total: len(ids)})
}
