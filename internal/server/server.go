// Package server exposes the HTTP API: upload and progress polling,
// translation with quota enforcement, share links, history and downloads.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/local/pdftranslate/internal/apperr"
	"github.com/local/pdftranslate/internal/config"
	"github.com/local/pdftranslate/internal/download"
	"github.com/local/pdftranslate/internal/metrics"
	"github.com/local/pdftranslate/internal/pipeline"
	"github.com/local/pdftranslate/internal/session"
	"github.com/local/pdftranslate/internal/translate"
	"github.com/local/pdftranslate/internal/upload"
	"github.com/local/pdftranslate/internal/usage"
)

const (
	userCookie    = "uid"
	sessionCookie = "sid"
	userCookieAge = 365 * 24 * time.Hour
)

// Server wires the HTTP surface to the domain services.
type Server struct {
	cfg        config.Config
	sessions   *session.Manager
	history    *session.History
	tracker    *usage.Tracker
	translator *translate.Service
	pipe       *pipeline.Pipeline
	acceptor   *upload.Acceptor
}

type Dependencies struct {
	Config     config.Config
	Sessions   *session.Manager
	History    *session.History
	Tracker    *usage.Tracker
	Translator *translate.Service
	Pipeline   *pipeline.Pipeline
	Acceptor   *upload.Acceptor
}

func New(deps Dependencies) *Server {
	return &Server{
		cfg:        deps.Config,
		sessions:   deps.Sessions,
		history:    deps.History,
		tracker:    deps.Tracker,
		translator: deps.Translator,
		pipe:       deps.Pipeline,
		acceptor:   deps.Acceptor,
	}
}

func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/api/upload", s.handleUpload)
	mux.HandleFunc("/api/progress/", s.handleProgress)
	mux.HandleFunc("/api/cancel/", s.handleCancel)
	mux.HandleFunc("/api/reset", s.handleReset)
	mux.HandleFunc("/api/translate", s.handleTranslate)
	mux.HandleFunc("/api/usage", s.handleUsage)
	mux.HandleFunc("/api/share/click", s.handleShareClick)
	mux.HandleFunc("/api/history", s.handleHistory)
	mux.HandleFunc("/api/history/", s.handleHistoryItem)
	mux.HandleFunc("/api/download/", s.handleDownload)
	mux.HandleFunc("/api/languages", s.handleLanguages)
	mux.HandleFunc("/api/providers", s.handleProviders)
}

// userID reads or mints the long-lived user identifier cookie.
func (s *Server) userID(w http.ResponseWriter, r *http.Request) string {
	existing := ""
	if c, err := r.Cookie(userCookie); err == nil {
		existing = c.Value
	}
	id, created := s.tracker.UserID(existing)
	if created {
		http.SetCookie(w, &http.Cookie{
			Name:     userCookie,
			Value:    id,
			Path:     "/",
			MaxAge:   int(userCookieAge.Seconds()),
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return id
}

// sessionFor resolves the processing session from cookie or explicit id.
func (s *Server) sessionFor(w http.ResponseWriter, r *http.Request, explicit string) *session.Session {
	id := explicit
	if id == "" {
		if c, err := r.Cookie(sessionCookie); err == nil {
			id = c.Value
		}
	}
	sess := s.sessions.Get(id)
	if sess.ID != id {
		http.SetCookie(w, &http.Cookie{
			Name:     sessionCookie,
			Value:    sess.ID,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return sess
}

func (s *Server) shareLink(userID string) string {
	return fmt.Sprintf("%s/?ref=%s", strings.TrimRight(s.cfg.Quota.ShareBase, "/"), userID)
}

// --- upload / progress ---

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, &apperr.ValidationError{Message: "invalid multipart form"})
		return
	}
	file, hdr, err := r.FormFile("file")
	if err != nil {
		writeError(w, &apperr.ValidationError{Message: "missing file field"})
		return
	}
	defer file.Close()

	sess := s.sessionFor(w, r, r.FormValue("session_id"))
	sess.SetPreferences(r.FormValue("provider"), r.FormValue("language"), r.FormValue("strategy"))

	accepted, err := s.acceptor.Accept(file, hdr.Filename)
	if err != nil {
		writeError(w, err)
		return
	}
	sess.SetFile(accepted)

	if err := s.pipe.Start(sess); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{
		"session_id": sess.ID,
		"file":       accepted,
		"progress":   sess.Progress(),
	})
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/api/progress/")
	if id == "" {
		writeError(w, &apperr.ValidationError{Message: "missing session id"})
		return
	}
	sess := s.sessions.Get(id)
	p := sess.Progress()
	resp := map[string]any{
		"session_id": sess.ID,
		"status":     p.Status,
		"message":    p.Message,
		"percent":    p.Percent,
	}
	if doc := sess.Document(); doc != nil && p.Status == session.StatusCompleted {
		resp["document"] = doc
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/api/cancel/")
	if id == "" {
		writeError(w, &apperr.ValidationError{Message: "missing session id"})
		return
	}
	sess := s.sessions.Get(id)
	cancelled := s.pipe.Cancel(sess)
	writeJSON(w, http.StatusOK, map[string]any{"cancelled": cancelled})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	sess := s.sessionFor(w, r, r.URL.Query().Get("session_id"))
	s.pipe.Cancel(sess)
	sess.Reset()
	provider, language, strategy := sess.Preferences()
	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": sess.ID,
		"provider":   provider,
		"language":   language,
		"strategy":   strategy,
	})
}

// --- translate ---

type translateRequest struct {
	SessionID string             `json:"session_id,omitempty"`
	Text      string             `json:"text,omitempty"`
	Provider  string             `json:"provider,omitempty"`
	Language  string             `json:"language,omitempty"`
	FileName  string             `json:"file_name,omitempty"`
	Keys      translate.UserKeys `json:"keys"`
}

func (s *Server) handleTranslate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	defer r.Body.Close()
	var req translateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, &apperr.ValidationError{Message: "invalid json body"})
		return
	}

	userID := s.userID(w, r)

	// Quota gate runs before anything else touches the request.
	quota := s.tracker.Check(r.Context(), userID)
	if !quota.Allowed {
		metrics.IncQuotaRejection()
		writeError(w, &apperr.QuotaExceededError{
			Remaining: quota.Remaining,
			ShareLink: s.shareLink(userID),
		})
		return
	}

	sess := s.sessionFor(w, r, req.SessionID)
	provider, language, _ := sess.Preferences()
	if req.Provider != "" {
		provider = req.Provider
	}
	if req.Language != "" {
		language = req.Language
	}
	if !translate.IsSupportedLanguage(language) {
		writeError(w, &apperr.ValidationError{Message: fmt.Sprintf("unsupported target language: %s", language)})
		return
	}

	text := req.Text
	fileName := req.FileName
	fromDocument := false
	if text == "" {
		doc := sess.Document()
		if doc == nil || doc.Text == "" {
			writeError(w, &apperr.ValidationError{Message: "nothing to translate: no text given and no extracted document"})
			return
		}
		text = doc.Text
		fromDocument = true
		if f := sess.File(); f != nil && fileName == "" {
			fileName = f.Name
		}
	}

	// Translating an extracted document moves the session's visible state.
	run := sess.CurrentRun()
	if fromDocument {
		sess.SetProgress(run, session.Progress{
			Status:  session.StatusTranslating,
			Message: fmt.Sprintf("translating with %s", provider),
			Percent: 100,
		})
	}

	result, err := s.translator.Translate(r.Context(), text, provider, language, req.Keys)
	if err != nil {
		var mc *apperr.MissingCredentialError
		if errors.As(err, &mc) {
			// A missing key still consumes the attempt and lands in history
			// as an error entry, matching the displayed result.
			result = translate.Result{
				ID:             uuid.NewString(),
				OriginalText:   text,
				TranslatedText: fmt.Sprintf("[error] missing API key for %s. Add your key in settings or pick another provider.", mc.Provider),
				Provider:       provider,
				TargetLanguage: language,
				Timestamp:      time.Now().UnixMilli(),
			}
		} else {
			if fromDocument {
				sess.SetProgress(run, session.Progress{Status: session.StatusError, Message: "translation failed", Percent: 100})
			}
			writeError(w, err)
			return
		}
	}
	if fromDocument {
		sess.SetProgress(run, session.Progress{Status: session.StatusCompleted, Message: "translation completed", Percent: 100})
	}

	if err := s.tracker.Record(r.Context(), userID); err != nil {
		log.Warn().Err(err).Str("user", userID).Msg("usage record failed after translation")
	}
	result.FileName = fileName
	sess.SetResult(&result)
	if err := s.history.Add(r.Context(), userID, result); err != nil {
		log.Warn().Err(err).Str("user", userID).Msg("history append failed")
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"result": result,
		"quota":  s.tracker.Check(r.Context(), userID),
	})
}

// --- usage / share ---

func (s *Server) handleUsage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	userID := s.userID(w, r)
	quota := s.tracker.Check(r.Context(), userID)
	writeJSON(w, http.StatusOK, map[string]any{
		"user_id":      userID,
		"quota":        quota,
		"share_link":   s.shareLink(userID),
		"share_clicks": s.tracker.ShareClicks(r.Context(), userID),
	})
}

type shareClickRequest struct {
	Ref string `json:"ref"`
}

func (s *Server) handleShareClick(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	defer r.Body.Close()
	var req shareClickRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, &apperr.ValidationError{Message: "invalid json body"})
		return
	}
	visitorID := s.userID(w, r)
	if err := s.tracker.RecordShareClick(r.Context(), req.Ref, visitorID); err != nil {
		writeError(w, &apperr.ValidationError{Message: err.Error()})
		return
	}
	metrics.IncShareClick()
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// --- history / download ---

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	userID := s.userID(w, r)
	switch r.Method {
	case http.MethodGet:
		items, err := s.history.List(r.Context(), userID)
		if err != nil {
			writeError(w, err)
			return
		}
		if items == nil {
			items = []translate.Result{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items})
	case http.MethodDelete:
		if err := s.history.Clear(r.Context(), userID); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleHistoryItem(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/api/history/")
	userID := s.userID(w, r)
	found, err := s.history.Delete(r.Context(), userID, id)
	if err != nil {
		writeError(w, err)
		return
	}
	if !found {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	resultID := strings.TrimPrefix(r.URL.Path, "/api/download/")
	format := r.URL.Query().Get("format")
	if format == "" {
		format = download.FormatText
	}
	userID := s.userID(w, r)

	result, err := s.history.Find(r.Context(), userID, resultID)
	if err != nil {
		writeError(w, err)
		return
	}
	if result == nil {
		// Fall back to the session's current result, which may not have
		// reached history yet.
		sess := s.sessionFor(w, r, r.URL.Query().Get("session_id"))
		if cur := sess.Result(); cur != nil && cur.ID == resultID {
			result = cur
		}
	}
	if result == nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	switch format {
	case download.FormatText:
		data := download.TextBundle(result)
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", download.FileName(result, "txt")))
		_, _ = w.Write(data)
	case download.FormatPDF:
		data, err := download.PDF(result)
		if err != nil {
			writeError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", download.FileName(result, "pdf")))
		_, _ = w.Write(data)
	default:
		writeError(w, &apperr.ValidationError{Message: fmt.Sprintf("unsupported format: %s", format)})
	}
}

// --- capability listings ---

func (s *Server) handleLanguages(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"languages": translate.TargetLanguages})
}

func (s *Server) handleProviders(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"providers": translate.Providers()})
}

// --- responses ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors onto HTTP statuses with a JSON body.
func writeError(w http.ResponseWriter, err error) {
	type errBody struct {
		Error     string `json:"error"`
		Kind      string `json:"kind"`
		ShareLink string `json:"share_link,omitempty"`
		Remaining *int   `json:"remaining,omitempty"`
	}

	var ve *apperr.ValidationError
	if errors.As(err, &ve) {
		writeJSON(w, http.StatusBadRequest, errBody{Error: ve.Message, Kind: "validation"})
		return
	}
	var qe *apperr.QuotaExceededError
	if errors.As(err, &qe) {
		writeJSON(w, http.StatusForbidden, errBody{
			Error:     "daily translation limit reached",
			Kind:      "quota_exceeded",
			ShareLink: qe.ShareLink,
			Remaining: &qe.Remaining,
		})
		return
	}
	var mc *apperr.MissingCredentialError
	if errors.As(err, &mc) {
		writeJSON(w, http.StatusUnauthorized, errBody{Error: mc.Error(), Kind: "missing_credential"})
		return
	}
	var tu *apperr.ToolUnavailableError
	if errors.As(err, &tu) {
		writeJSON(w, http.StatusServiceUnavailable, errBody{Error: tu.Error(), Kind: "tool_unavailable"})
		return
	}
	var ue *apperr.UpstreamError
	if errors.As(err, &ue) {
		writeJSON(w, http.StatusBadGateway, errBody{Error: ue.Error(), Kind: "upstream"})
		return
	}
	log.Error().Err(err).Msg("internal error")
	writeJSON(w, http.StatusInternalServerError, errBody{Error: "internal error", Kind: "internal"})
}

// Run serves the API until ctx is cancelled, then drains connections.
func Run(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
