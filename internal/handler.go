package internal

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var _searchCacheTTL = 24 * time.Hour

// Handler is our HTTP handler. It handles muxing, response headers, etc. and
// offloads work to the controller.
type Handler struct {
	ctrl *Controller
}

// NewHandler creates a new handler.
func NewHandler(ctrl *Controller) *Handler {
	return &Handler{ctrl: ctrl}
}

// NewMux registers a handler's routes on a new mux.
func NewMux(h *Handler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/search", h.getSearch)
	mux.HandleFunc("POST /api/v1/search", h.postSearch)
	mux.HandleFunc("GET /api/v1/health", h.health)
	mux.Handle("GET /metrics", promhttp.Handler())

	// Default handler returns 404.
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return mux
}

// searchRequest is the POST body.
type searchRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
	Lang string `json:"lang,omitempty"`
}

// errorResource is the body returned with error statuses.
type errorResource struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// postSearch redirects to the GET form with query params so the result can be
// cached.
func (h *Handler) postSearch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.error(w, errors.Join(err, errBadRequest))
		return
	}
	if req.From == "" || req.To == "" {
		h.error(w, errMissingTerms)
		return
	}

	query := url.Values{}
	query.Set("from", req.From)
	query.Set("to", req.To)
	if req.Lang != "" {
		query.Set("lang", req.Lang)
	}
	u := url.URL{Path: r.URL.Path, RawQuery: query.Encode()}

	Log(ctx).Debug("redirecting", "url", u.String())
	http.Redirect(w, r, u.String(), http.StatusSeeOther)
}

// getSearch handles /api/v1/search?from=&to=&lang=.
func (h *Handler) getSearch(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()

	from, to := params.Get("from"), params.Get("to")
	if from == "" || to == "" {
		h.error(w, errMissingTerms)
		return
	}
	lang := params.Get("lang")
	if lang == "" {
		lang = "en"
	}

	out, err := h.ctrl.Search(r.Context(), from, to, lang)
	if err != nil {
		h.error(w, err)
		return
	}

	cacheFor(w, _searchCacheTTL)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out)
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok","service":"wikihop"}`))
}

// cacheFor sets cache response headers. s-maxage controls CDN cache time; we
// default to an hour expiry for clients.
func cacheFor(w http.ResponseWriter, d time.Duration) {
	w.Header().Add("Cache-Control", fmt.Sprintf("public, s-maxage=%d, max-age=3600", int(d.Seconds())))
	w.Header().Add("Vary", "Content-Type,Accept-Encoding")
	w.Header().Add("Content-Type", "application/json")
}

// error writes an error response. The status code defaults to 500 unless the
// error wraps a statusErr.
func (*Handler) error(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	var s statusErr
	if errors.As(err, &s) {
		status = s.Status()
	}

	code := "INTERNAL"
	switch status {
	case http.StatusNotFound:
		code = "PATH_NOT_FOUND"
	case http.StatusBadRequest:
		code = "INVALID_REQUEST"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorResource{Error: err.Error(), Code: code})
}
