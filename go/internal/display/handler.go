package display

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// TimeKeeper is what the page handlers need from the drift compensator
type TimeKeeper interface {
	MaybeSync(ctx context.Context) bool
	CorrectedTime() time.Time
}

// Handler serves the clock pages
type Handler struct {
	keeper   TimeKeeper
	renderer *Renderer
}

// NewHandler creates a new page handler
func NewHandler(keeper TimeKeeper, renderer *Renderer) *Handler {
	return &Handler{
		keeper:   keeper,
		renderer: renderer,
	}
}

// HandleClock handles GET / with the self-reloading page. Each request
// refreshes a stale offset first; a failed sync still renders.
func (h *Handler) HandleClock(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	h.serve(w, r, h.renderer.Render)
}

// HandleLive handles GET /live with the websocket-driven page
func (h *Handler) HandleLive(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, h.renderer.RenderLive)
}

func (h *Handler) serve(w http.ResponseWriter, r *http.Request, render func(w io.Writer, frame Frame) error) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	h.keeper.MaybeSync(r.Context())
	frame := BuildFrame(h.keeper.CorrectedTime())

	var buf bytes.Buffer
	if err := render(&buf, frame); err != nil {
		log.Error().Err(err).Msg("failed to render clock page")
		http.Error(w, "Failed to render clock", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if _, err := w.Write(buf.Bytes()); err != nil {
		log.Debug().Err(err).Msg("failed to write clock page")
	}
}

// RegisterRoutes registers the page routes with an HTTP mux
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/", h.HandleClock)
	mux.HandleFunc("/live", h.HandleLive)
}
