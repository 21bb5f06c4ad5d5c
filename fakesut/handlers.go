package fakesut

import (
	"context"
	"encoding/json"
	"html/template"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type contextKey string

const sessionKey contextKey = "session"

type loginView struct {
	Title   string
	Cfg     Config
	Locked  bool
	Message string
}

type action struct {
	Name  string
	Label string
}

type pageView struct {
	Title   string
	Cfg     Config
	Email   string
	Actions []action
}

type statusView struct {
	Title   string
	Heading string
	Message string
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, tmpl *template.Template, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := tmpl.ExecuteTemplate(w, "layout", data); err != nil {
		s.logger.Error(r.Context(), "failed to render page", map[string]interface{}{
			"error": err.Error(),
			"path":  r.URL.Path,
		})
	}
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) static(heading, message string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.render(w, r, http.StatusOK, statusTmpl, statusView{Title: heading, Heading: heading, Message: message})
	}
}

func (s *Server) loginPage(w http.ResponseWriter, r *http.Request) {
	client := s.clientID(w, r)
	s.render(w, r, http.StatusOK, loginTmpl, loginView{
		Title:  s.cfg.LoginTitle,
		Cfg:    s.cfg,
		Locked: s.lockouts.locked(client, s.now()),
	})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	client := s.clientID(w, r)
	now := s.now()
	view := loginView{Title: s.cfg.LoginTitle, Cfg: s.cfg}

	if s.lockouts.locked(client, now) {
		view.Locked = true
		s.render(w, r, http.StatusForbidden, loginTmpl, view)
		return
	}

	if err := r.ParseForm(); err != nil {
		view.Message = s.cfg.InvalidMessage
		s.render(w, r, http.StatusBadRequest, loginTmpl, view)
		return
	}
	email := normalizeEmail(r.PostForm.Get("email"))
	u, ok := s.users[email]
	if !ok || !u.CheckPassword(r.PostForm.Get("password")) {
		locked := s.lockouts.fail(client, now)
		s.logger.Warn(r.Context(), "invalid login attempt", map[string]interface{}{
			"email":  email,
			"locked": locked,
		})
		view.Locked = locked
		view.Message = s.cfg.InvalidMessage
		s.render(w, r, http.StatusUnauthorized, loginTmpl, view)
		return
	}

	s.lockouts.reset(client)
	sess := s.sessions.Create(u.Email)
	if err := s.setCookie(w, s.cfg.CookieName, sess.ID.String(), sess.ExpiresAt); err != nil {
		s.logger.Error(r.Context(), "failed to encode session cookie", map[string]interface{}{
			"error": err.Error(),
		})
		http.Error(w, "failed to create session", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	if id, ok := s.sessionID(r); ok {
		s.sessions.Delete(id)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     s.cfg.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (s *Server) home(w http.ResponseWriter, r *http.Request) {
	sess := r.Context().Value(sessionKey).(*Session)
	s.render(w, r, http.StatusOK, mainTmpl, pageView{
		Title: s.cfg.MainTitle,
		Cfg:   s.cfg,
		Email: sess.Email,
	})
}

func (s *Server) page(w http.ResponseWriter, r *http.Request) {
	sess := r.Context().Value(sessionKey).(*Session)

	if sess.warmUp(s.cfg.WarmupRequests) {
		w.Header().Set("Retry-After", "1")
		s.render(w, r, http.StatusTooManyRequests, statusTmpl, statusView{
			Title:   "Warming up",
			Heading: "Warming up",
			Message: "The page is not available yet.",
		})
		return
	}
	if !sess.admit(s.now(), s.cfg.Cooldown) {
		s.rateLimited(r, sess)
		s.render(w, r, http.StatusForbidden, statusTmpl, statusView{
			Title:   "Rate limited",
			Heading: "Rate limited",
			Message: "Too many requests. Try again later.",
		})
		return
	}

	s.render(w, r, http.StatusOK, pageTmpl, pageView{
		Title: s.cfg.PageTitle,
		Cfg:   s.cfg,
		Email: sess.Email,
		Actions: []action{
			{Name: "test01", Label: s.cfg.Test01Button},
			{Name: "test02", Label: s.cfg.Test02Button},
		},
	})
}

func (s *Server) action(w http.ResponseWriter, r *http.Request) {
	sess := r.Context().Value(sessionKey).(*Session)
	name := mux.Vars(r)["name"]
	if name != "test01" && name != "test02" {
		respondJSON(w, http.StatusNotFound, map[string]string{"error": "unknown action"})
		return
	}
	if !sess.admit(s.now(), s.cfg.Cooldown) {
		s.rateLimited(r, sess)
		respondJSON(w, http.StatusForbidden, map[string]string{"error": "rate limited"})
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"action": name, "status": "ok"})
}

func (s *Server) rateLimited(r *http.Request, sess *Session) {
	s.logger.Info(r.Context(), "request rate limited", map[string]interface{}{
		"session_id": sess.ID.String(),
		"path":       r.URL.Path,
	})
}

// requireSession resolves the session cookie. Without a session, pages
// redirect to the login form and API calls get 401.
func (s *Server) requireSession(next http.HandlerFunc, redirect bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := s.sessionID(r)
		var sess *Session
		if ok {
			var err error
			sess, err = s.sessions.Get(id)
			ok = err == nil
		}
		if !ok {
			if redirect {
				http.Redirect(w, r, "/login", http.StatusFound)
				return
			}
			respondJSON(w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), sessionKey, sess)))
	}
}

func (s *Server) sessionID(r *http.Request) (uuid.UUID, bool) {
	raw, ok := s.readCookie(r, s.cfg.CookieName)
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// clientID identifies the browser for lockout accounting, issuing a new
// signed cookie when none is present.
func (s *Server) clientID(w http.ResponseWriter, r *http.Request) string {
	if id, ok := s.readCookie(r, s.cfg.ClientCookieName); ok {
		return id
	}
	id := uuid.NewString()
	if err := s.setCookie(w, s.cfg.ClientCookieName, id, time.Time{}); err != nil {
		s.logger.Warn(r.Context(), "failed to encode client cookie", map[string]interface{}{
			"error": err.Error(),
		})
	}
	return id
}

func (s *Server) readCookie(r *http.Request, name string) (string, bool) {
	c, err := r.Cookie(name)
	if err != nil {
		return "", false
	}
	var value string
	if err := s.cookies.Decode(name, c.Value, &value); err != nil {
		return "", false
	}
	return value, true
}

func (s *Server) setCookie(w http.ResponseWriter, name, value string, expires time.Time) error {
	encoded, err := s.cookies.Encode(name, value)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    encoded,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug(r.Context(), "request served", map[string]interface{}{
			"method":   r.Method,
			"path":     r.URL.Path,
			"duration": time.Since(start).String(),
		})
	})
}
