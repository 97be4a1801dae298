package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"foliorag/internal/logging"
)

// handleContact handles POST /contact. It forwards the visitor's message to
// the site owner's inbox via the configured mailer.
func (s *Server) handleContact(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	if s.cfg.Mailer == nil || s.cfg.ContactTo == "" {
		writeError(w, http.StatusServiceUnavailable, "Contact form is not configured")
		return
	}

	var req contactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Message = strings.TrimSpace(req.Message)
	if req.Name == "" || req.Email == "" || req.Message == "" {
		writeError(w, http.StatusBadRequest, "'name', 'email' and 'message' are required")
		return
	}

	subject := fmt.Sprintf("Portfolio contact from %s", req.Name)
	body := fmt.Sprintf("From: %s <%s>\n\n%s", req.Name, req.Email, req.Message)

	if err := s.cfg.Mailer.Send(r.Context(), s.cfg.ContactTo, subject, body); err != nil {
		log.Error("contact: send failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "Failed to send the message")
		return
	}

	log.Info("contact: message forwarded", slog.String("from", req.Email))
	writeJSON(w, http.StatusOK, map[string]string{"message": "Message sent successfully"})
}
