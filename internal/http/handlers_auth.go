package http

import (
	"net/http"

	"spendwise/internal/auth"
	"spendwise/internal/core"
	"spendwise/internal/log"
)

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	p, err := ParseBody(w, r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	name := p.Get("displayName")
	if name == "" {
		name = p.Get("name")
	}
	u, sess, err := s.deps.Auth.SignUp(r.Context(), p.Get("email"), p.GetExact("password"), name)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	log.FromContext(r.Context()).InfoContext(r.Context(), "User signed up",
		log.FieldOperation, log.OpSignUp,
		log.FieldUserID, u.ID)

	s.setSessionCookie(w, sess)
	writeJSON(w, r, http.StatusCreated, newSessionView(u, sess))
}

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	p, err := ParseBody(w, r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	u, sess, err := s.deps.Auth.SignIn(r.Context(), p.Get("email"), p.GetExact("password"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	s.setSessionCookie(w, sess)
	writeJSON(w, r, http.StatusOK, newSessionView(u, sess))
}

// handleSignOut always clears the cookie, even for an unknown token.
func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	token, _ := sessionToken(r)
	s.clearSessionCookie(w)
	if token != "" {
		if err := s.deps.Auth.SignOut(r.Context(), token); err != nil {
			writeServiceError(w, r, err)
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request, u core.User) {
	writeJSON(w, r, http.StatusOK, toUserView(u))
}

func (s *Server) handleUpdateAccount(w http.ResponseWriter, r *http.Request, u core.User) {
	p, err := ParseBody(w, r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	updated, err := s.deps.Auth.UpdateProfile(r.Context(), u.ID, auth.ProfileUpdate{DisplayName: p.Get("displayName")})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toUserView(updated))
}

// handleDeleteAccount removes the user and all of their data.
func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request, u core.User) {
	if err := s.deps.Auth.DeleteAccount(r.Context(), u.ID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.clearSessionCookie(w)
	NewResponse().Status(http.StatusNoContent).TriggerExpensesChanged(s.deps.Expenses.Version(u.ID)).Write(w, r)
}

func newSessionView(u core.User, sess core.Session) sessionView {
	return sessionView{User: toUserView(u), Token: sess.Token, ExpiresAt: sess.ExpiresAt}
}
