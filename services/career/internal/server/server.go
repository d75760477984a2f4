package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"careerplan/internal/ratelimit"
	"careerplan/internal/util"
	"careerplan/pkg/domain"
	"careerplan/pkg/editor"
	"careerplan/pkg/identity"
	"careerplan/services/career/internal/app"
)

const maxBodyBytes = 1 << 20

// Config wires required dependencies for the HTTP server.
type Config struct {
	App                     *app.App
	RedisAddr               string
	RedisPassword           string
	WriteRateLimitPerMinute int
	TrustedProxyCIDRs       []string
}

// Server exposes the career screen over HTTP.
type Server struct {
	app        *app.App
	mux        *http.ServeMux
	trusted    *util.TrustedProxies
	writeLimit *ratelimit.FixedWindowLimiter
}

// New constructs the server with routes configured. Writes are only rate
// limited when a Redis address is given.
func New(cfg Config) (*Server, error) {
	if cfg.App == nil {
		return nil, errors.New("app is required")
	}
	trusted, err := util.NewTrustedProxies(cfg.TrustedProxyCIDRs)
	if err != nil {
		return nil, err
	}
	s := &Server{
		app:     cfg.App,
		mux:     http.NewServeMux(),
		trusted: trusted,
	}
	if cfg.RedisAddr != "" {
		limit := cfg.WriteRateLimitPerMinute
		if limit <= 0 {
			limit = 30
		}
		s.writeLimit, err = ratelimit.NewRedisFixedWindowLimiter(cfg.RedisAddr, cfg.RedisPassword, "careerplan:ratelimit:write", limit, time.Minute)
		if err != nil {
			return nil, fmt.Errorf("init write limiter: %w", err)
		}
	}
	s.routes()
	return s, nil
}

// Router returns the configured handler.
func (s *Server) Router() http.Handler {
	return util.WithRequestID(util.WithRequestLog("career", util.WithSecurityHeaders(util.WithCORS(s.mux))))
}

// Close releases the rate limiter connection.
func (s *Server) Close() error {
	if s.writeLimit == nil {
		return nil
	}
	return s.writeLimit.Close()
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)
	s.mux.HandleFunc("/api/career", s.handleCareer)
	s.mux.HandleFunc("/api/career/goal", s.handleGoal)
	s.mux.HandleFunc("/api/career/roadmap", s.handleRoadmap)
	s.mux.HandleFunc("/api/session", s.handleSession)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCareer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, s.app.NewScreen().Load(r.Context()))
}

func (s *Server) handleGoal(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if !s.allowWrite(w, r) {
		return
	}
	var form editor.GoalForm
	if !decodeJSON(w, r, &form) {
		return
	}
	ctx := r.Context()
	scr := s.app.NewScreen()
	scr.Load(ctx)
	ed := scr.OpenGoalEditor()
	if err := applyGoalForm(ed, form); err != nil {
		s.audit(r, "career.goal.save", "fail", "err", err)
		writeEditorError(w, err)
		return
	}
	if err := ed.Save(ctx); err != nil {
		s.audit(r, "career.goal.save", "fail", "err", err)
		writeEditorError(w, err)
		return
	}
	s.audit(r, "career.goal.save", "success", "mode", string(ed.Mode()))
	writeJSON(w, http.StatusOK, scr.View())
}

// applyGoalForm copies the posted form into the open editor, keeping the
// seeded year when none was posted.
func applyGoalForm(ed *editor.GoalEditor, form editor.GoalForm) error {
	return ed.Update(func(f *editor.GoalForm) {
		year := f.Year
		*f = form
		if f.Year == 0 {
			f.Year = year
		}
		if f.TechStack == nil {
			f.TechStack = []string{}
		}
	})
}

type roadmapItemRequest struct {
	ID string `json:"id"`
	editor.RoadmapForm
}

type roadmapRequest struct {
	Items []roadmapItemRequest `json:"items"`
}

// handleRoadmap replaces the caller's roadmap with the posted list, in posted
// order. Entries whose id matches a stored item keep that item's id and
// createdAt; entries without a match are added; stored items absent from the
// list are deleted.
func (s *Server) handleRoadmap(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if !s.allowWrite(w, r) {
		return
	}
	var req roadmapRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	wanted := make(map[string]struct{}, len(req.Items))
	for _, item := range req.Items {
		if item.ID == "" {
			continue
		}
		if _, dup := wanted[item.ID]; dup {
			s.audit(r, "career.roadmap.save", "fail", "reason", "duplicate_id", "id", item.ID)
			writeError(w, http.StatusBadRequest, "duplicate roadmap item id: "+item.ID)
			return
		}
		wanted[item.ID] = struct{}{}
	}

	ctx := r.Context()
	scr := s.app.NewScreen()
	scr.Load(ctx)
	ed := scr.OpenRoadmapEditor()

	existing := ed.Items()
	for i := len(existing) - 1; i >= 0; i-- {
		if _, ok := wanted[existing[i].ID]; ok {
			continue
		}
		if err := ed.RequestDelete(i); err != nil {
			writeEditorError(w, err)
			return
		}
		if err := ed.ConfirmDelete(); err != nil {
			writeEditorError(w, err)
			return
		}
	}
	index := make(map[string]int)
	for i, item := range ed.Items() {
		index[item.ID] = i
	}

	order := make([]string, len(req.Items))
	for n, item := range req.Items {
		i, editing := index[item.ID]
		if item.ID == "" {
			editing = false
		}
		var err error
		if editing {
			err = ed.EditItem(i)
		} else {
			err = ed.AddItem()
		}
		if err == nil {
			err = ed.Update(func(f *editor.RoadmapForm) {
				form := item.RoadmapForm
				if form.Skills == nil {
					form.Skills = []string{}
				}
				*f = form
			})
		}
		if err == nil {
			err = ed.SaveItem()
		}
		if err != nil {
			s.audit(r, "career.roadmap.save", "fail", "item", n, "err", err)
			writeEditorError(w, fmt.Errorf("item %d: %w", n, err))
			return
		}
		items := ed.Items()
		if editing {
			order[n] = items[i].ID
		} else {
			order[n] = items[len(items)-1].ID
		}
	}
	for pos, id := range order {
		for i, item := range ed.Items() {
			if item.ID != id {
				continue
			}
			if err := ed.MoveItem(i, pos); err != nil {
				writeEditorError(w, err)
				return
			}
			break
		}
	}

	saved := len(ed.Items())
	if err := ed.Save(ctx); err != nil {
		s.audit(r, "career.roadmap.save", "fail", "err", err)
		writeEditorError(w, err)
		return
	}
	s.audit(r, "career.roadmap.save", "success", "items", saved)
	writeJSON(w, http.StatusOK, scr.View())
}

type sessionResponse struct {
	SignedIn bool            `json:"signedIn"`
	User     *domain.Session `json:"user,omitempty"`
	Initials string          `json:"initials,omitempty"`
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessions := s.app.Sessions()
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, currentSession(r, sessions))
	case http.MethodPost:
		if !s.allowWrite(w, r) {
			return
		}
		var req domain.Session
		if !decodeJSON(w, r, &req) {
			return
		}
		if err := sessions.SignIn(ctx, req); err != nil {
			s.audit(r, "career.session.sign_in", "fail", "err", err)
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.audit(r, "career.session.sign_in", "success", "user_id", req.UserID)
		writeJSON(w, http.StatusOK, currentSession(r, sessions))
	case http.MethodDelete:
		if !s.allowWrite(w, r) {
			return
		}
		if err := sessions.SignOut(ctx); err != nil {
			s.audit(r, "career.session.sign_out", "fail", "err", err)
			writeError(w, http.StatusInternalServerError, "sign out failed")
			return
		}
		s.audit(r, "career.session.sign_out", "success")
		w.WriteHeader(http.StatusNoContent)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func currentSession(r *http.Request, sessions *identity.Sessions) sessionResponse {
	sess, ok := sessions.Current(r.Context())
	if !ok {
		return sessionResponse{}
	}
	return sessionResponse{SignedIn: true, User: &sess, Initials: identity.Initials(sess.Name)}
}

func writeEditorError(w http.ResponseWriter, err error) {
	var verr *editor.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": verr.Message, "fields": verr.Fields})
	case errors.Is(err, editor.ErrNoIdentity):
		writeError(w, http.StatusUnauthorized, "user not found")
	case errors.Is(err, editor.ErrInvalidState), errors.Is(err, editor.ErrNotOpen):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "save failed")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) audit(r *http.Request, event, outcome string, attrs ...any) {
	logAttrs := []any{
		"event", event,
		"outcome", outcome,
		"path", r.URL.Path,
		"method", r.Method,
		"ip", util.ClientIP(r, s.trusted),
	}
	logAttrs = append(logAttrs, attrs...)
	logger := util.LoggerFromContext(r.Context())
	if outcome == "success" {
		logger.Info("career_event", logAttrs...)
		return
	}
	logger.Warn("career_event", logAttrs...)
}

func (s *Server) allowWrite(w http.ResponseWriter, r *http.Request) bool {
	if s.writeLimit == nil {
		return true
	}
	key := r.URL.Path + "|" + util.ClientIP(r, s.trusted)
	if s.writeLimit.Allow(r.Context(), key) {
		return true
	}
	s.audit(r, "career.write", "rate_limited")
	w.Header().Set("Retry-After", "60")
	writeError(w, http.StatusTooManyRequests, "too many requests")
	return false
}
