// Package dashboard serves the brainstorm page and the JSON API behind it.
// Every mutating request goes through the app dispatcher, so the page sees the
// same reconciled view as the CLI and the MCP tools.
package dashboard

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jaakkos/brainstorm/internal/app"
	"github.com/jaakkos/brainstorm/internal/domain"
	"github.com/jaakkos/brainstorm/internal/prompt"
)

// maxBodyBytes caps request bodies; names and selections are small.
const maxBodyBytes = 64 << 10

// StateSnapshot is the JSON response from /api/state.
type StateSnapshot struct {
	Timestamp         string               `json:"timestamp"`
	Revision          uint64               `json:"revision"`
	Collections       []app.CollectionView `json:"collections"`
	GenerationEnabled bool                 `json:"generation_enabled"`
	Priorities        []string             `json:"priorities"`
	Kinds             []string             `json:"kinds"`
}

// ActionResponse is returned by every mutating endpoint. Item is also set on an
// error when the add reached the store but the re-read failed.
type ActionResponse struct {
	Item   *domain.ReferenceItem `json:"item,omitempty"`
	Prompt string                `json:"prompt,omitempty"`
	Output string                `json:"output,omitempty"`
	Error  string                `json:"error,omitempty"`
	View   app.View              `json:"view"`
}

type nameBody struct {
	Name string `json:"name"`
}

// viewCache keeps the newest rendered view. Renders can arrive out of order from
// concurrent requests; a lower revision never replaces a higher one.
type viewCache struct {
	mu   sync.RWMutex
	view app.View
}

func (c *viewCache) Render(v app.View) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if v.Revision >= c.view.Revision {
		c.view = v
	}
}

func (c *viewCache) Latest() app.View {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.view
}

// Handler holds dependencies for dashboard HTTP handlers.
type Handler struct {
	disp   *app.Dispatcher
	logger *zap.SugaredLogger
	views  *viewCache
	now    func() time.Time
}

// NewHandler creates a dashboard handler and subscribes it to view updates.
func NewHandler(disp *app.Dispatcher, logger *zap.SugaredLogger) *Handler {
	h := &Handler{disp: disp, logger: logger, views: &viewCache{}, now: time.Now}
	disp.Service().Subscribe(h.views)
	return h
}

// RegisterRoutes adds the page and API routes to the given mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", h.handlePage)
	mux.HandleFunc("GET /app", h.handlePage)
	mux.HandleFunc("GET /api/state", h.handleAPIState)
	mux.HandleFunc("GET /api/collections/{collection}", h.handleAPIList)
	mux.HandleFunc("POST /api/collections/{collection}/items", h.handleAPIAdd)
	mux.HandleFunc("PATCH /api/collections/{collection}/items/{id}", h.handleAPIRename)
	mux.HandleFunc("DELETE /api/collections/{collection}/items/{id}", h.handleAPIRemove)
	mux.HandleFunc("POST /api/prompt", h.handleAPIPrompt)
	mux.HandleFunc("POST /api/generate", h.handleAPIGenerate)
	mux.HandleFunc("POST /api/actions", h.handleAPIAction)
	mux.HandleFunc("OPTIONS /api/", handlePreflight)
}

func handlePreflight(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleAPIState(w http.ResponseWriter, r *http.Request) {
	v := h.views.Latest()
	writeJSON(w, http.StatusOK, StateSnapshot{
		Timestamp:         h.now().UTC().Format(time.RFC3339),
		Revision:          v.Revision,
		Collections:       v.Collections,
		GenerationEnabled: h.disp.GenerationEnabled(),
		Priorities:        domain.Priorities,
		Kinds:             domain.ItemKinds,
	})
}

// handleAPIList re-reads the collection from the store and returns its view.
func (h *Handler) handleAPIList(w http.ResponseWriter, r *http.Request) {
	c, ok := h.collection(w, r)
	if !ok {
		return
	}
	res, err := h.disp.Dispatch(r.Context(), app.Action{Kind: app.ActionRefresh, Collection: c})
	if err != nil {
		h.writeActionError(w, err, res)
		return
	}
	cv, _ := res.View.Collection(c)
	writeJSON(w, http.StatusOK, cv)
}

func (h *Handler) handleAPIAdd(w http.ResponseWriter, r *http.Request) {
	c, ok := h.collection(w, r)
	if !ok {
		return
	}
	var body nameBody
	if !h.decode(w, r, &body) {
		return
	}
	h.dispatch(w, r, http.StatusCreated, app.Action{Kind: app.ActionAddItem, Collection: c, Name: body.Name})
}

func (h *Handler) handleAPIRename(w http.ResponseWriter, r *http.Request) {
	c, ok := h.collection(w, r)
	if !ok {
		return
	}
	var body nameBody
	if !h.decode(w, r, &body) {
		return
	}
	h.dispatch(w, r, http.StatusOK, app.Action{Kind: app.ActionRenameItem, Collection: c, ID: r.PathValue("id"), Name: body.Name})
}

func (h *Handler) handleAPIRemove(w http.ResponseWriter, r *http.Request) {
	c, ok := h.collection(w, r)
	if !ok {
		return
	}
	h.dispatch(w, r, http.StatusOK, app.Action{Kind: app.ActionRemoveItem, Collection: c, ID: r.PathValue("id")})
}

func (h *Handler) handleAPIPrompt(w http.ResponseWriter, r *http.Request) {
	var sel prompt.Selection
	if !h.decode(w, r, &sel) {
		return
	}
	h.dispatch(w, r, http.StatusOK, app.Action{Kind: app.ActionBuildPrompt, Selection: sel})
}

func (h *Handler) handleAPIGenerate(w http.ResponseWriter, r *http.Request) {
	var sel prompt.Selection
	if !h.decode(w, r, &sel) {
		return
	}
	h.dispatch(w, r, http.StatusOK, app.Action{Kind: app.ActionGenerate, Selection: sel})
}

// handleAPIAction accepts any dispatcher action as a JSON body.
func (h *Handler) handleAPIAction(w http.ResponseWriter, r *http.Request) {
	var a app.Action
	if !h.decode(w, r, &a) {
		return
	}
	h.dispatch(w, r, http.StatusOK, a)
}

func (h *Handler) dispatch(w http.ResponseWriter, r *http.Request, okStatus int, a app.Action) {
	res, err := h.disp.Dispatch(r.Context(), a)
	if err != nil {
		h.writeActionError(w, err, res)
		return
	}
	writeJSON(w, okStatus, ActionResponse{Item: res.Item, Prompt: res.Prompt, Output: res.Output, View: res.View})
}

func (h *Handler) collection(w http.ResponseWriter, r *http.Request) (domain.Collection, bool) {
	c, err := domain.ParseCollection(r.PathValue("collection"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, ActionResponse{Error: err.Error(), View: h.views.Latest()})
		return "", false
	}
	return c, true
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, ActionResponse{Error: "invalid JSON body: " + err.Error(), View: h.views.Latest()})
		return false
	}
	return true
}

func (h *Handler) writeActionError(w http.ResponseWriter, err error, res app.Result) {
	status := StatusFor(err)
	if status >= 500 {
		h.logger.Warnf("API %d: %v", status, err)
	}
	writeJSON(w, status, ActionResponse{Item: res.Item, Prompt: res.Prompt, Error: err.Error(), View: res.View})
}

// StatusFor maps dispatcher errors to HTTP status codes.
func StatusFor(err error) int {
	var genErr *app.GenerationError
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, domain.ErrUnknownCollection), errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrEmptyName),
		errors.Is(err, app.ErrMissingID),
		errors.Is(err, app.ErrUnknownAction),
		errors.Is(err, prompt.ErrIncompleteSelection):
		return http.StatusBadRequest
	case errors.Is(err, app.ErrGenerationDisabled):
		return http.StatusPreconditionFailed
	case errors.As(err, &genErr):
		return http.StatusBadGateway
	case errors.Is(err, app.ErrStore):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
