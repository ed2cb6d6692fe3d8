package api

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/spailhq/spail/internal/mailbox"
	"github.com/spailhq/spail/internal/store"
)

// Profile is a user in API responses. Passwords never leave the store
// through this surface.
type Profile struct {
	Username string `json:"username"`
	Name     string `json:"name"`
	Bio      string `json:"bio"`
	Avatar   string `json:"avatar,omitempty"`
	Address  string `json:"address"`
}

// ErrorResponse is the API error shape.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, err string, message string) {
	writeJSON(w, status, ErrorResponse{Error: err, Message: message})
}

func (s *Server) profile(u mailbox.User) Profile {
	return Profile{
		Username: u.Username,
		Name:     u.Name,
		Bio:      u.Bio,
		Avatar:   u.Avatar,
		Address:  s.svc.Address(u.Username),
	}
}

// sessionUser resolves the shared session key to a user record. A session
// naming a user that no longer exists counts as logged out, never as a
// fabricated user.
func (s *Server) sessionUser() (mailbox.User, bool) {
	username, ok, err := s.sessions.Current()
	if err != nil || !ok {
		return mailbox.User{}, false
	}
	u, err := s.svc.User(username)
	if err != nil {
		return mailbox.User{}, false
	}
	return u, true
}

func (s *Server) requireSession(w http.ResponseWriter) (mailbox.User, bool) {
	u, ok := s.sessionUser()
	if !ok {
		writeError(w, http.StatusUnauthorized, "no_session", "Not logged in")
	}
	return u, ok
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// --- auth ---

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
		Name     string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid JSON body")
		return
	}
	u, err := s.svc.Register(req.Username, req.Password, req.Name)
	if errors.Is(err, mailbox.ErrDuplicateUsername) {
		writeError(w, http.StatusConflict, "duplicate_username", "Username already taken")
		return
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	if err := s.sessions.Set(u.Username); err != nil {
		s.logger.Error("set session", "error", err)
	}
	writeJSON(w, http.StatusCreated, s.profile(u))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid JSON body")
		return
	}
	u, err := s.svc.Login(req.Username, req.Password)
	if errors.Is(err, mailbox.ErrInvalidCredentials) {
		writeError(w, http.StatusUnauthorized, "invalid_credentials", "Invalid username or password")
		return
	}
	if err != nil {
		s.logger.Error("login", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "Login failed")
		return
	}
	if err := s.sessions.Set(u.Username); err != nil {
		s.logger.Error("set session", "error", err)
	}
	writeJSON(w, http.StatusOK, s.profile(u))
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Clear(); err != nil {
		s.logger.Error("clear session", "error", err)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	u, ok := s.requireSession(w)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.profile(u))
}

// --- mail ---

func (s *Server) handleListMail(w http.ResponseWriter, r *http.Request) {
	u, ok := s.requireSession(w)
	if !ok {
		return
	}

	view := mailbox.ViewInbox
	if f := r.URL.Query().Get("folder"); f != "" {
		if f == string(mailbox.ViewStarred) {
			view = mailbox.ViewStarred
		} else {
			folder, err := mailbox.ParseFolder(f)
			if err != nil {
				writeError(w, http.StatusBadRequest, "bad_folder", err.Error())
				return
			}
			view = mailbox.View(folder)
		}
	}

	emails, err := s.svc.Emails(u.Username, view, r.URL.Query().Get("q"))
	if err != nil {
		s.logger.Error("list mail", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to list mail")
		return
	}
	if emails == nil {
		emails = []mailbox.Email{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"folder": view,
		"emails": emails,
	})
}

func (s *Server) handleSendMail(w http.ResponseWriter, r *http.Request) {
	u, ok := s.requireSession(w)
	if !ok {
		return
	}
	var req struct {
		To      string `json:"to"`
		Subject string `json:"subject"`
		Body    string `json:"body"`
		DraftID int64  `json:"draft_id,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid JSON body")
		return
	}

	c := mailbox.Compose{DraftID: req.DraftID, To: req.To, Subject: req.Subject, Body: req.Body}
	e, err := s.svc.Submit(u.Username, c)
	if err != nil {
		s.logger.Error("send mail", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to send")
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

func (s *Server) handleGetMail(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireSession(w); !ok {
		return
	}
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	// Fetching a message marks it read; the original couples the read
	// mutation to opening the message.
	if err := s.svc.MarkRead(id); err != nil {
		if errors.Is(err, mailbox.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "No such message")
			return
		}
		s.logger.Error("mark read", "error", err)
	}
	e, err := s.svc.Email(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "not_found", "No such message")
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) handleStarMail(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireSession(w); !ok {
		return
	}
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	starred, err := s.svc.ToggleStar(id)
	if err != nil {
		mailError(w, err, s)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"starred": starred})
}

func (s *Server) handleTrashMail(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireSession(w); !ok {
		return
	}
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	if err := s.svc.MoveToTrash(id); err != nil {
		mailError(w, err, s)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRestoreMail(w http.ResponseWriter, r *http.Request) {
	u, ok := s.requireSession(w)
	if !ok {
		return
	}
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	if err := s.svc.Restore(id, s.svc.Address(u.Username)); err != nil {
		mailError(w, err, s)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePurgeMail(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireSession(w); !ok {
		return
	}
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	if err := s.svc.Purge(id); err != nil {
		mailError(w, err, s)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- drafts ---

func (s *Server) handleSaveDraft(w http.ResponseWriter, r *http.Request) {
	u, ok := s.requireSession(w)
	if !ok {
		return
	}
	var req struct {
		DraftID int64  `json:"draft_id,omitempty"`
		To      string `json:"to"`
		Subject string `json:"subject"`
		Body    string `json:"body"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid JSON body")
		return
	}

	c := mailbox.Compose{DraftID: req.DraftID, To: req.To, Subject: req.Subject, Body: req.Body}
	saved, err := s.svc.Cancel(u.Username, c)
	if err != nil {
		s.logger.Error("save draft", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to save draft")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"saved": saved})
}

func (s *Server) handleDeleteDraft(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireSession(w); !ok {
		return
	}
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	if err := s.svc.DeleteDraft(id); err != nil {
		mailError(w, err, s)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- users ---

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireSession(w); !ok {
		return
	}
	u, err := s.svc.User(chi.URLParam(r, "username"))
	if err != nil {
		writeError(w, http.StatusNotFound, "not_found", "No such user")
		return
	}
	writeJSON(w, http.StatusOK, s.profile(u))
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	me, ok := s.requireSession(w)
	if !ok {
		return
	}
	username := chi.URLParam(r, "username")
	if me.Username != username {
		writeError(w, http.StatusForbidden, "forbidden", "Cannot edit another user's profile")
		return
	}

	var req struct {
		Name   string `json:"name"`
		Bio    string `json:"bio"`
		Avatar string `json:"avatar"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid JSON body")
		return
	}
	// Surface bad avatar uploads instead of silently storing garbage.
	if req.Avatar != "" && !validAvatar(req.Avatar) {
		writeError(w, http.StatusBadRequest, "invalid_avatar", "Avatar must be a base64 image data URL")
		return
	}

	u, err := s.svc.UpdateProfile(username, req.Name, req.Bio, req.Avatar)
	if err != nil {
		mailError(w, err, s)
		return
	}
	writeJSON(w, http.StatusOK, s.profile(u))
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	me, ok := s.requireSession(w)
	if !ok {
		return
	}
	username := chi.URLParam(r, "username")

	// Users may delete themselves; only the seed administrator may delete
	// others.
	if me.Username != username && me.Username != store.AdminUsername {
		writeError(w, http.StatusForbidden, "forbidden", "Administrator access required")
		return
	}

	if err := s.svc.DeleteUser(username); err != nil {
		mailError(w, err, s)
		return
	}
	if me.Username == username {
		_ = s.sessions.Clear()
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- stats, retention, search ---

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.svc.GetStats()
	if err != nil {
		s.logger.Error("stats", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to retrieve statistics")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"users":      st.Users,
		"emails":     st.Emails,
		"per_folder": st.PerFolder,
	})
}

func (s *Server) handleRetentionStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.sweeper.Status())
}

func (s *Server) handleRetentionSweep(w http.ResponseWriter, r *http.Request) {
	if err := s.sweeper.TriggerSweep(); err != nil {
		writeError(w, http.StatusConflict, "sweep_running", err.Error())
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	typ := r.URL.Query().Get("type")
	if typ == "" {
		typ = "search"
	}
	// Fail-soft contract: Query never errors, it degrades to empty results.
	resp := s.searcher.Query(r.Context(), q, typ)
	writeJSON(w, http.StatusOK, resp)
}

// --- helpers ---

func parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_id", "Message id must be numeric")
		return 0, false
	}
	return id, true
}

func mailError(w http.ResponseWriter, err error, s *Server) {
	switch {
	case errors.Is(err, mailbox.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "No such record")
	case errors.Is(err, mailbox.ErrNotInTrash):
		writeError(w, http.StatusConflict, "not_in_trash", "Only trashed messages can be purged")
	default:
		s.logger.Error("mailbox operation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "Operation failed")
	}
}

// validAvatar accepts data: URLs whose payload is decodable base64.
func validAvatar(avatar string) bool {
	if !strings.HasPrefix(avatar, "data:image/") {
		return false
	}
	idx := strings.Index(avatar, ";base64,")
	if idx < 0 {
		return false
	}
	_, err := base64.StdEncoding.DecodeString(avatar[idx+len(";base64,"):])
	return err == nil
}
