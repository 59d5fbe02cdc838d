package api

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/stackplan/pkg/depgraph"
	"github.com/matzehuels/stackplan/pkg/errors"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("json encode failed", "err", err)
	}
}

// errorResponse is the body of every failed request.
type errorResponse struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
	// Path is the cycle a refused dependency would have closed.
	Path []string `json:"path,omitempty"`
}

// writeError maps err to a status and JSON body. Errors without a code
// are reported as internal without leaking their text.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	resp := errorResponse{Code: code, Message: errors.UserMessage(err)}
	if code == "" {
		resp.Code = errors.ErrCodeInternal
		resp.Message = "internal error"
	}
	var cycle *depgraph.CycleError
	if stderrors.As(err, &cycle) {
		resp.Path = cycle.Path
	}

	status := errors.HTTPStatus(resp.Code)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "code", resp.Code, "err", err)
	}
	writeJSON(w, status, resp)
}
