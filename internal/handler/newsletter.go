package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/pawprintclub/pawfeed/internal/service"
	"github.com/pawprintclub/pawfeed/internal/validation"
)

type newsletterHandler struct {
	emailService *service.EmailService
}

func NewNewsletterHandler(emailService *service.EmailService) *newsletterHandler {
	return &newsletterHandler{
		emailService: emailService,
	}
}

// Subscribe handles POST /api/newsletter/subscribe with either a form
// field or a JSON body.
func (h *newsletterHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	email := r.FormValue("email")
	if email == "" && strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		var body struct {
			Email string `json:"email"`
		}
		err := json.NewDecoder(r.Body).Decode(&body)
		if err == nil {
			email = body.Email
		}
	}
	email = strings.TrimSpace(strings.ToLower(email))

	err := validation.ValidateEmail(email)
	if err != nil {
		respondError(w, http.StatusBadRequest, "please provide a valid email address")
		return
	}

	err = h.emailService.SubscribeNewsletter(email)
	if err != nil {
		// Still report success to prevent email enumeration
		slog.Warn("newsletter subscription error", "error", err, "email", email)
	}

	respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
