package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/qadash/pkg/buildinfo"
	"github.com/matzehuels/qadash/pkg/errors"
	"github.com/matzehuels/qadash/pkg/pipeline"
	"github.com/matzehuels/qadash/pkg/report"
)

type errorBody struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

// statusFor maps an error code to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.IsValidation(err):
		return http.StatusBadRequest
	case errors.Is(err, errors.ErrCodeNotFound), errors.Is(err, errors.ErrCodeFileNotFound):
		return http.StatusNotFound
	case errors.Is(err, errors.ErrCodeUnsupported):
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	code := string(errors.GetCode(err))
	if code == "" {
		code = string(errors.ErrCodeInternal)
	}
	msg := errors.UserMessage(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "err", err, "request_id", RequestID(r.Context()))
		msg = "internal error"
	}
	writeJSON(w, status, errorBody{Code: code, Error: msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, struct {
		Status string         `json:"status"`
		Build  buildinfo.Info `json:"build"`
	}{"ok", buildinfo.Current()})
}

// chartOptions reads render options from the query string.
func chartOptions(r *http.Request) (pipeline.Options, error) {
	q := r.URL.Query()
	opts := pipeline.Options{
		Chart:   chi.URLParam(r, "chart"),
		Formats: []string{chi.URLParam(r, "format")},
		Hover:   q.Get("hover"),
		Title:   q.Get("title"),
	}
	for name, dst := range map[string]*bool{"interactive": &opts.Interactive, "detailed": &opts.Detailed} {
		if v := q.Get(name); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return opts, errors.New(errors.ErrCodeInvalidInput, "%s: %q is not a boolean", name, v)
			}
			*dst = b
		}
	}
	if v := q.Get("scale"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return opts, errors.New(errors.ErrCodeInvalidInput, "scale: %q is not a number", v)
		}
		opts.Scale = f
	}
	return opts, nil
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	opts, err := chartOptions(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.runner.Execute(r.Context(), s.dataset, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	format := opts.Formats[0]
	w.Header().Set("Content-Type", pipeline.ContentType(format))
	if res.CacheInfo.RenderHit() {
		w.Header().Set("X-Cache", "hit")
	} else {
		w.Header().Set("X-Cache", "miss")
	}
	_, _ = w.Write(res.Artifacts[format])
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	data, err := s.runner.Summary(r.Context(), s.dataset)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}

func (s *Server) handleMarkets(w http.ResponseWriter, r *http.Request) {
	rows := report.Rows(s.dataset)
	status := r.URL.Query().Get("status")
	if status == "" {
		writeJSON(w, http.StatusOK, rows)
		return
	}
	want, ok := report.ParseStatus(status)
	if !ok {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput,
			"invalid status %q (must be one of: excellent, on-track, at-risk, critical)", status))
		return
	}
	filtered := make([]report.MarketRow, 0, len(rows))
	for _, row := range rows {
		if row.Status == want {
			filtered = append(filtered, row)
		}
	}
	writeJSON(w, http.StatusOK, filtered)
}

func (s *Server) handleMarket(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if d, ok := report.MarketDetail(s.dataset, name); ok {
		writeJSON(w, http.StatusOK, d)
		return
	}
	s.writeError(w, r, errors.New(errors.ErrCodeNotFound, "market %q not found", name))
}

func (s *Server) handleIssues(w http.ResponseWriter, r *http.Request) {
	limit := report.CriticalIssueLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "invalid limit %q", v))
			return
		}
		limit = n
	}
	writeJSON(w, http.StatusOK, report.CriticalIssues(s.dataset, limit))
}
