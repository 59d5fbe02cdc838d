package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/stackplan/pkg/errors"
	"github.com/matzehuels/stackplan/pkg/pipeline"
	"github.com/matzehuels/stackplan/pkg/timeline"
)

// =============================================================================
// Timeline
// =============================================================================

// timelineOptions reads the layout query parameters:
// zoom, start, end, now, column_width, style, interactive, hide_connectors,
// detailed and refresh.
func (s *Server) timelineOptions(r *http.Request, format string) (pipeline.Options, error) {
	q := r.URL.Query()
	opts := pipeline.Options{
		Zoom:           q.Get("zoom"),
		Start:          q.Get("start"),
		End:            q.Get("end"),
		Style:          q.Get("style"),
		Formats:        []string{format},
		Timeline:       s.defaults,
		Interactive:    flag(q.Get("interactive")),
		HideConnectors: flag(q.Get("hide_connectors")),
		Detailed:       flag(q.Get("detailed")),
		Refresh:        flag(q.Get("refresh")),
		Logger:         s.logger,
	}

	if v := q.Get("column_width"); v != "" {
		w, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return opts, errors.New(errors.ErrCodeInvalidInput, "invalid column_width %q", v)
		}
		opts.ColumnWidth = w
	}

	opts.Now = s.now()
	if v := q.Get("now"); v != "" {
		now, err := parseNow(v)
		if err != nil {
			return opts, err
		}
		opts.Now = now
	}
	return opts, nil
}

// parseNow accepts an RFC 3339 timestamp or a bare date.
func parseNow(v string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	t, err := timeline.ParseDate(v)
	if err != nil {
		return time.Time{}, errors.Wrap(errors.ErrCodeInvalidDate, err, "invalid now %q", v)
	}
	return t, nil
}

func flag(v string) bool {
	b, _ := strconv.ParseBool(v)
	return b
}

func (s *Server) artifact(w http.ResponseWriter, r *http.Request, format, contentType string) {
	opts, err := s.timelineOptions(r, format)
	if err != nil {
		s.writeError(w, err)
		return
	}
	res, err := s.svc.Timeline(r.Context(), chi.URLParam(r, "projectID"), opts)
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", contentType)
	if res.CacheInfo.LayoutHit && res.CacheInfo.RenderHit {
		w.Header().Set("X-Cache", "hit")
	} else {
		w.Header().Set("X-Cache", "miss")
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(res.Artifacts[format])
}

// timelineJSON handles GET /projects/{projectID}/timeline.
func (s *Server) timelineJSON(w http.ResponseWriter, r *http.Request) {
	s.artifact(w, r, pipeline.FormatJSON, "application/json; charset=utf-8")
}

// timelineSVG handles GET /projects/{projectID}/timeline.svg.
func (s *Server) timelineSVG(w http.ResponseWriter, r *http.Request) {
	s.artifact(w, r, pipeline.FormatSVG, "image/svg+xml")
}

// graphDOT handles GET /projects/{projectID}/graph.dot.
func (s *Server) graphDOT(w http.ResponseWriter, r *http.Request) {
	s.artifact(w, r, pipeline.FormatDOT, "text/vnd.graphviz; charset=utf-8")
}

// =============================================================================
// Dependencies
// =============================================================================

type dependencyRequest struct {
	BlockedByID string `json:"blocked_by_id"`
}

type checkResponse struct {
	OK   bool     `json:"ok"`
	Path []string `json:"path,omitempty"`
}

func decodeDependency(w http.ResponseWriter, r *http.Request) (string, error) {
	var req dependencyRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid request body")
	}
	id := strings.TrimSpace(req.BlockedByID)
	if id == "" {
		return "", errors.New(errors.ErrCodeInvalidInput, "blocked_by_id is required")
	}
	return id, nil
}

// listDependencies handles GET /projects/{projectID}/tasks/{taskID}/dependencies.
func (s *Server) listDependencies(w http.ResponseWriter, r *http.Request) {
	b, err := s.svc.Badges(r.Context(), chi.URLParam(r, "projectID"), chi.URLParam(r, "taskID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// addDependency handles POST /projects/{projectID}/tasks/{taskID}/dependencies.
// It responds 201 with the task's badges when a new edge was stored and 200
// when the edge already existed.
func (s *Server) addDependency(w http.ResponseWriter, r *http.Request) {
	blocker, err := decodeDependency(w, r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	projectID, taskID := chi.URLParam(r, "projectID"), chi.URLParam(r, "taskID")

	added, err := s.svc.AddDependency(r.Context(), projectID, taskID, blocker)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeBadges(w, r, projectID, taskID, added)
}

func (s *Server) writeBadges(w http.ResponseWriter, r *http.Request, projectID, taskID string, created bool) {
	b, err := s.svc.Badges(r.Context(), projectID, taskID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, b)
}

// checkDependency handles POST /projects/{projectID}/tasks/{taskID}/dependencies/check.
// A would-be cycle is a normal answer here, not an error.
func (s *Server) checkDependency(w http.ResponseWriter, r *http.Request) {
	blocker, err := decodeDependency(w, r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	path, err := s.svc.CheckDependency(r.Context(), chi.URLParam(r, "projectID"), chi.URLParam(r, "taskID"), blocker)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, checkResponse{OK: path == nil, Path: path})
}

// removeDependency handles DELETE /projects/{projectID}/tasks/{taskID}/dependencies/{blockerID}.
func (s *Server) removeDependency(w http.ResponseWriter, r *http.Request) {
	err := s.svc.RemoveDependency(r.Context(),
		chi.URLParam(r, "projectID"), chi.URLParam(r, "taskID"), chi.URLParam(r, "blockerID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
