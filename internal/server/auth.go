package server

import (
	"net/http"
	"strings"
)

type adminSession struct {
	AdminID string
	Email   string
}

const adminCookieName = "admin_session"

// playerFromRequest resolves the Bearer token to a registered player.
func playerFromRequest(r *http.Request, store Store) (Player, error) {
	auth := r.Header.Get("Authorization")
	token, found := strings.CutPrefix(auth, "Bearer ")
	if !found || token == "" {
		return Player{}, errNoSession
	}
	return store.PlayerFromToken(r.Context(), token)
}

// adminFromRequest reads the admin_session cookie and looks up the session.
func adminFromRequest(r *http.Request, store Store) (adminSession, error) {
	cookie, err := r.Cookie(adminCookieName)
	if err != nil || cookie.Value == "" {
		return adminSession{}, errNoAdminSession
	}
	return store.AdminFromSession(r.Context(), cookie.Value)
}
