package api

import (
	"net/http"
	"strings"
)

// handleAuthSubmit exchanges the access token for a sealed cookie and sends
// the client back to the page that asked for it.
func (s *Server) handleAuthSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		jsonError(w, "invalid form: "+err.Error(), http.StatusBadRequest)
		return
	}
	if !s.sealer.Verify(r.PostFormValue("token")) {
		s.log.Warn("login rejected", "remote", r.RemoteAddr)
		jsonError(w, "invalid token", http.StatusUnauthorized)
		return
	}

	sealed, err := s.sealer.Seal()
	if err != nil {
		s.log.Error("seal token failed", "error", err)
		jsonError(w, "failed to issue session", http.StatusInternalServerError)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     tokenCookie,
		Value:    sealed,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	target := "/"
	if c, err := r.Cookie(redirectCookie); err == nil && localPath(c.Value) {
		target = c.Value
	}
	http.SetCookie(w, &http.Cookie{Name: redirectCookie, Path: "/", MaxAge: -1})

	http.Redirect(w, r, target, http.StatusSeeOther)
}

// localPath rejects absolute and protocol-relative URLs so the redirect
// cannot leave this host.
func localPath(p string) bool {
	return strings.HasPrefix(p, "/") && !strings.HasPrefix(p, "//") && !strings.HasPrefix(p, "/\\")
}
