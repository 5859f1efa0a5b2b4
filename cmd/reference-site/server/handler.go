package server

import (
	"crypto/subtle"
	"html/template"
	"net/http"
	"strings"

	"github.com/gorilla/securecookie"
	"go.uber.org/zap"

	"github.com/thesyncim/logincheck/pkg/login"
)

const sessionCookie = "client_session"

type handler struct {
	accounts map[string]string
	cookies  *securecookie.SecureCookie
	log      *zap.Logger
}

// home serves the landing page with the Client Login link.
func (h *handler) home(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	h.render(w, homeTemplate, pageData{Title: "Home", User: h.user(r)})
}

// login renders the credential form on GET and authenticates on POST.
// A rejected attempt re-renders the form at the same path with the inline
// error; an accepted one redirects to the portal.
func (h *handler) login(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.render(w, loginTemplate, pageData{Title: "Client Login"})
		return
	case http.MethodPost:
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}
	username := r.PostForm.Get("username")
	password := r.PostForm.Get("password")

	if !h.authenticate(username, password) {
		h.log.Info("login rejected", zap.String("username", username))
		h.render(w, loginTemplate, pageData{Title: "Client Login", Error: login.ErrorMarker})
		return
	}

	encoded, err := h.cookies.Encode(sessionCookie, username)
	if err != nil {
		h.log.Error("failed to encode session", zap.Error(err))
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    encoded,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	h.log.Info("login accepted", zap.String("username", username))
	http.Redirect(w, r, login.PortalPath, http.StatusSeeOther)
}

// portal serves the signed-in landing page, or sends anonymous visitors to
// the login form.
func (h *handler) portal(w http.ResponseWriter, r *http.Request) {
	user := h.user(r)
	if user == "" {
		http.Redirect(w, r, login.LoginPagePath, http.StatusSeeOther)
		return
	}
	h.render(w, portalTemplate, pageData{Title: "Client Portal", User: user, DisplayName: displayName(user)})
}

func (h *handler) logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: "", Path: "/", MaxAge: -1})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *handler) authenticate(username, password string) bool {
	want, ok := h.accounts[username]
	if !ok || username == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(want), []byte(password)) == 1
}

// user returns the signed-in username, or "" without a valid session.
func (h *handler) user(r *http.Request) string {
	c, err := r.Cookie(sessionCookie)
	if err != nil {
		return ""
	}
	var username string
	if err := h.cookies.Decode(sessionCookie, c.Value, &username); err != nil {
		h.log.Debug("ignoring invalid session cookie", zap.Error(err))
		return ""
	}
	return username
}

func (h *handler) render(w http.ResponseWriter, t *template.Template, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := t.Execute(w, data); err != nil {
		h.log.Error("failed to render page", zap.String("title", data.Title), zap.Error(err))
	}
}

// displayName turns "kent.avasarala" into "Kent".
func displayName(username string) string {
	first, _, _ := strings.Cut(username, ".")
	if first == "" {
		return username
	}
	return strings.ToUpper(first[:1]) + first[1:]
}
