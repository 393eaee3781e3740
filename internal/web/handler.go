package web

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"

	"github.com/cexll/reddit-tracker/internal/input"
	"github.com/cexll/reddit-tracker/internal/jobs"
	"github.com/cexll/reddit-tracker/internal/output"
	"github.com/cexll/reddit-tracker/internal/processor"
)

const sessionCookie = "tracker_session"

// BatchRunner runs the tracking pipeline for one comment reference.
type BatchRunner interface {
	ProcessOne(ctx context.Context, url string) (processor.Result, error)
}

// Handler serves the tracking HTTP API. Each browser session is identified
// by a signed cookie and owns at most one running job.
type Handler struct {
	registry *jobs.Registry
	runner   BatchRunner
	secret   []byte

	loadInput func(ctx context.Context, source string) ([]string, error)
}

// NewHandler creates a web handler.
func NewHandler(registry *jobs.Registry, runner BatchRunner, sessionSecret string) *Handler {
	return &Handler{
		registry:  registry,
		runner:    runner,
		secret:    []byte(sessionSecret),
		loadInput: input.Load,
	}
}

// RegisterRoutes registers the API routes.
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/health", h.handleHealth).Methods("GET")
	r.HandleFunc("/api/track", h.handleTrack).Methods("POST")
	r.HandleFunc("/api/status", h.handleStatus).Methods("GET")
	r.HandleFunc("/api/results", h.handleResults).Methods("GET")
	r.HandleFunc("/api/export", h.handleExport).Methods("GET")
}

// sessionID returns the session id from the signed cookie, minting and
// setting a fresh one when the cookie is absent or invalid.
func (h *Handler) sessionID(w http.ResponseWriter, r *http.Request) string {
	if cookie, err := r.Cookie(sessionCookie); err == nil {
		if sid := h.parseSession(cookie.Value); sid != "" {
			return sid
		}
	}

	buf := make([]byte, 16)
	_, _ = rand.Read(buf)
	sid := hex.EncodeToString(buf)

	claims := jwt.RegisteredClaims{
		Subject:  sid,
		IssuedAt: jwt.NewNumericDate(time.Now()),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(h.secret)
	if err != nil {
		log.Printf("Failed to sign session cookie: %v", err)
		return sid
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    signed,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return sid
}

func (h *Handler) parseSession(value string) string {
	token, err := jwt.ParseWithClaims(value, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return h.secret, nil
	})
	if err != nil || !token.Valid {
		return ""
	}
	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok {
		return ""
	}
	return claims.Subject
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

type trackRequest struct {
	SpreadsheetURL string   `json:"spreadsheet_url"`
	URLs           []string `json:"urls"`
}

func (h *Handler) handleTrack(w http.ResponseWriter, r *http.Request) {
	sid := h.sessionID(w, r)

	var req trackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var urls []string
	switch {
	case len(req.URLs) > 0:
		urls = req.URLs
	case req.SpreadsheetURL != "":
		var err error
		urls, err = h.loadInput(r.Context(), req.SpreadsheetURL)
		if err != nil {
			log.Printf("Failed to load input for session %s: %v", sid, err)
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	default:
		writeError(w, http.StatusBadRequest, "no spreadsheet URL or comment URLs provided")
		return
	}

	if err := h.registry.Start(sid, len(urls)); err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}

	log.Printf("Started tracking job for session %s: %d URLs", sid, len(urls))
	go h.runJob(sid, urls)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "started processing",
		"total":   len(urls),
	})
}

// runJob processes the batch in the background, streaming progress into
// the registry. The request context is gone by now, so the job runs under
// its own.
func (h *Handler) runJob(sid string, urls []string) {
	ctx := context.Background()
	for i, url := range urls {
		h.registry.SetProgress(sid, i, url)
		res, err := h.runner.ProcessOne(ctx, url)
		if err != nil {
			log.Printf("Job for session %s aborted at %s: %v", sid, url, err)
			h.registry.Complete(sid, err.Error())
			return
		}
		h.registry.Append(sid, res)
	}
	h.registry.Complete(sid, "")
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	sid := h.sessionID(w, r)

	st, ok := h.registry.Snapshot(sid)
	if !ok {
		st = jobs.Status{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"is_running":    st.Running,
		"progress":      st.Progress,
		"total":         st.Total,
		"current_url":   st.CurrentURL,
		"results_count": st.ResultsCount,
		"error":         st.Err,
	})
}

func (h *Handler) handleResults(w http.ResponseWriter, r *http.Request) {
	sid := h.sessionID(w, r)
	results := h.registry.Results(sid)
	if results == nil {
		results = []processor.Result{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"results": results})
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	sid := h.sessionID(w, r)
	results := h.registry.Results(sid)
	if len(results) == 0 {
		writeError(w, http.StatusBadRequest, "no results to export")
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+output.Filename()+`"`)
	if err := output.WriteCSV(w, results); err != nil {
		log.Printf("Export for session %s failed: %v", sid, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
