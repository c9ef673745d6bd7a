package api

import (
	"crypto/subtle"
	"net/http"

	"github.com/sponsorcheck/sponsorcheck-server/internal/http/response"
)

// handleSync triggers a register sync. The contract is plain text: 401
// "Unauthorized" on a bad or missing token, 200 with the sync's result
// text, or 500 with the error text.
func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get("X-Function-Token")
	if token == "" {
		token = r.Header.Get("X-Sync-Token")
	}
	if token == "" {
		token = r.URL.Query().Get("token")
	}

	if !s.tokenMatches(token) {
		response.PlainText(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	msg, err := s.syncService.Run(r.Context())
	if err != nil {
		s.logger.Error("sync trigger failed", "error", err)
		response.PlainText(w, http.StatusInternalServerError, err.Error())
		return
	}

	response.PlainText(w, http.StatusOK, msg)
}

// tokenMatches compares a presented token against the configured sync
// secret. An unconfigured secret matches nothing.
func (s *Server) tokenMatches(token string) bool {
	if s.syncToken == "" || token == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(s.syncToken)) == 1
}
