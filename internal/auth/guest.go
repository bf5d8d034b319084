package auth

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	authmw "github.com/mind-engage/mindengage-qti/internal/auth/middleware"
	"github.com/mind-engage/mindengage-qti/internal/config"
	"github.com/mind-engage/mindengage-qti/internal/rbac"
)

const (
	guestCookie = "qti_guest_id"
	guestPrefix = "guest|"
)

// GuestLoginHandler issues a candidate token. The guest identity is kept in
// a cookie so a browser resumes its own sessions.
func GuestLoginHandler(a *authmw.AuthService, cfg config.Config) http.HandlerFunc {
	type out struct {
		AccessToken string `json:"access_token"`
		Username    string `json:"username"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if !cfg.EnableGuestAuth {
			http.Error(w, "guest auth disabled", http.StatusForbidden)
			return
		}

		// Reuse the guest from the cookie, or mint a new one
		var guestID string
		if c, err := r.Cookie(guestCookie); err == nil && strings.HasPrefix(c.Value, guestPrefix) {
			guestID = c.Value
		} else {
			guestID = guestPrefix + uuid.NewString()
		}

		tok, err := a.IssueJWT(guestID, rbac.RoleCandidate)
		if err != nil {
			http.Error(w, "issue token", http.StatusInternalServerError)
			return
		}
		http.SetCookie(w, &http.Cookie{
			Name:     guestCookie,
			Value:    guestID,
			Path:     "/",
			HttpOnly: true,
			Secure:   cfg.Mode == config.ModeOnline,
			SameSite: http.SameSiteLaxMode,
			Expires:  time.Now().Add(30 * 24 * time.Hour),
		})
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(out{AccessToken: tok, Username: "guest-" + guestID[len(guestID)-6:]})
	}
}
