// Package edge serves storefront clients through the offline cache router,
// forwarding to the storefront origin.
package edge

import (
	"crypto/subtle"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"

	go_json "github.com/goccy/go-json"

	"github.com/garrettladley/storefront/internal/offline"
	"github.com/garrettladley/storefront/internal/xerrors"
	"github.com/garrettladley/storefront/internal/xhttp"
	"github.com/garrettladley/storefront/internal/xslog"
)

const (
	ControlPath = "/__edge/messages"
	HealthPath  = "/__edge/health"
	MetricsPath = "/__edge/metrics"

	maxMessageBytes = 4 << 10
)

type Handler struct {
	router       *offline.Router
	origin       *url.URL
	controlToken string
}

func NewHandler(router *offline.Router, origin *url.URL, controlToken string) *Handler {
	return &Handler{router: router, origin: origin, controlToken: controlToken}
}

// Routes registers the control endpoints and the catch-all proxy on mux.
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("POST "+ControlPath, h.HandleMessage)
	mux.HandleFunc("GET "+HealthPath, h.HandleHealth)
	mux.HandleFunc("/", h.HandleProxy)
}

// HandleProxy forwards the request to the origin through the router.
func (h *Handler) HandleProxy(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	out, err := h.outboundRequest(r)
	if err != nil {
		xerrors.WriteError(ctx, w, xerrors.BadRequest(xerrors.WithMessage("invalid request"), xerrors.WithCause(err)))
		return
	}

	resp, err := h.router.Fetch(out)
	if err != nil {
		xerrors.WriteError(ctx, w, xerrors.BadGateway(xerrors.WithMessage("origin unavailable"), xerrors.WithCause(err)))
		return
	}
	defer func() { _ = resp.Body.Close() }()

	xhttp.CopyEndToEndHeaders(w.Header(), resp.Header)
	w.WriteHeader(resp.StatusCode)
	if r.Method == http.MethodHead {
		return
	}
	if _, err := io.Copy(w, resp.Body); err != nil {
		xslog.FromContext(ctx).WarnContext(ctx, "failed to copy response body", xslog.Error(err))
	}
}

func (h *Handler) outboundRequest(r *http.Request) (*http.Request, error) {
	target := h.origin.ResolveReference(&url.URL{Path: r.URL.Path, RawPath: r.URL.RawPath, RawQuery: r.URL.RawQuery})

	var body io.Reader
	if r.Body != nil && r.Body != http.NoBody {
		body = r.Body
	}
	out, err := http.NewRequestWithContext(r.Context(), r.Method, target.String(), body)
	if err != nil {
		return nil, err
	}
	out.ContentLength = r.ContentLength

	xhttp.CopyEndToEndHeaders(out.Header, r.Header)
	out.Header.Del(xhttp.XCache)
	if xff := xhttp.ForwardedFor(r); xff != "" {
		out.Header.Set(xhttp.XForwardedFor, xff)
	}
	return out, nil
}

// HandleMessage answers a control message such as {"type":"GET_VERSION"}.
func (h *Handler) HandleMessage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if !h.authorized(r) {
		xerrors.WriteError(ctx, w, xerrors.Unauthorized())
		return
	}

	var msg offline.Message
	if err := go_json.NewDecoder(http.MaxBytesReader(w, r.Body, maxMessageBytes)).Decode(&msg); err != nil {
		xerrors.WriteError(ctx, w, xerrors.BadRequest(xerrors.WithMessage("invalid message"), xerrors.WithCause(err)))
		return
	}

	reply, err := h.router.HandleMessage(ctx, msg)
	switch {
	case err == nil:
		xhttp.WriteOK(w, reply)
	case errors.Is(err, offline.ErrUnknownMessage):
		xerrors.WriteError(ctx, w, xerrors.BadRequest(xerrors.WithMessage("unknown message type"), xerrors.WithCause(err)))
	case errors.Is(err, offline.ErrInvalidState):
		xerrors.WriteError(ctx, w, xerrors.Conflict(xerrors.WithMessage(err.Error())))
	default:
		xerrors.WriteError(ctx, w, xerrors.Internal(xerrors.WithCause(err)))
	}
}

func (h *Handler) authorized(r *http.Request) bool {
	if h.controlToken == "" {
		return false
	}
	token, ok := strings.CutPrefix(r.Header.Get(xhttp.Authorization), "Bearer ")
	return ok && subtle.ConstantTimeCompare([]byte(token), []byte(h.controlToken)) == 1
}

type healthResponse struct {
	Status string `json:"status"`
	State  string `json:"state"`
}

func (h *Handler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	state := h.router.State()
	status := http.StatusOK
	if state != offline.StateActive {
		status = http.StatusServiceUnavailable
	}
	xhttp.WriteJSON(w, status, healthResponse{Status: http.StatusText(status), State: state.String()})
}
