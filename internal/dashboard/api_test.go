package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jaakkos/brainstorm/internal/app"
	"github.com/jaakkos/brainstorm/internal/domain"
	"github.com/jaakkos/brainstorm/internal/prompt"
	"github.com/jaakkos/brainstorm/internal/repository/memory"
)

type brokenStore struct{ *memory.Store }

func (brokenStore) List(context.Context, domain.Collection) ([]domain.ReferenceItem, error) {
	return nil, errors.New("dial tcp: connection refused")
}

type fakeGenerator struct {
	out string
	err error
}

func (g fakeGenerator) Generate(context.Context, string) (string, error) { return g.out, g.err }

func newTestMux(t *testing.T, store app.CollectionStore, gen app.Generator) *http.ServeMux {
	t.Helper()
	logger := zap.NewNop().Sugar()
	svc := app.NewCatalogService(store, logger)
	h := NewHandler(app.NewDispatcher(svc, gen, logger), logger)
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)
	return mux
}

func do(t *testing.T, mux http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func decodeAction(t *testing.T, w *httptest.ResponseRecorder) ActionResponse {
	t.Helper()
	var resp ActionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

func rowNames(v app.View, c domain.Collection) []string {
	cv, _ := v.Collection(c)
	out := []string{}
	for _, r := range cv.Rows {
		out = append(out, r.Name)
	}
	return out
}

func TestPage_Served(t *testing.T) {
	mux := newTestMux(t, memory.New(), nil)
	for _, path := range []string{"/", "/app"} {
		w := do(t, mux, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
		assert.Contains(t, w.Body.String(), "Backlog Brainstorm")
	}
	assert.Equal(t, http.StatusNotFound, do(t, mux, http.MethodGet, "/nope", nil).Code)
}

func TestAPIState_Initial(t *testing.T) {
	mux := newTestMux(t, memory.New(), nil)
	w := do(t, mux, http.MethodGet, "/api/state", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var snap StateSnapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.NotEmpty(t, snap.Timestamp)
	assert.False(t, snap.GenerationEnabled)
	assert.Equal(t, domain.Priorities, snap.Priorities)
	assert.Equal(t, domain.ItemKinds, snap.Kinds)
	require.Len(t, snap.Collections, 2)
	for _, cv := range snap.Collections {
		assert.Equal(t, domain.MirrorEmpty, cv.Status)
	}
}

func TestAPI_CRUDRoundTrip(t *testing.T) {
	mux := newTestMux(t, memory.New(), nil)

	w := do(t, mux, http.MethodPost, "/api/collections/technologies/items", map[string]string{"name": "Windows Server"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	resp := decodeAction(t, w)
	require.NotNil(t, resp.Item)
	id := resp.Item.ID
	assert.Equal(t, []string{"Windows Server"}, rowNames(resp.View, domain.CollectionTechnologies))

	w = do(t, mux, http.MethodPatch, "/api/collections/technologies/items/"+id, map[string]string{"name": "Windows Server 2022"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, []string{"Windows Server 2022"}, rowNames(decodeAction(t, w).View, domain.CollectionTechnologies))

	w = do(t, mux, http.MethodGet, "/api/collections/technologies", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var cv app.CollectionView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cv))
	assert.Equal(t, domain.MirrorPopulated, cv.Status)
	assert.Equal(t, []app.Option{{Value: "Windows Server 2022", Label: "Windows Server 2022"}}, cv.Options)

	w = do(t, mux, http.MethodDelete, "/api/collections/technologies/items/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Empty(t, rowNames(decodeAction(t, w).View, domain.CollectionTechnologies))

	var snap StateSnapshot
	require.NoError(t, json.Unmarshal(do(t, mux, http.MethodGet, "/api/state", nil).Body.Bytes(), &snap))
	assert.Greater(t, snap.Revision, uint64(0))
}

func TestAPI_ValidationErrors(t *testing.T) {
	mux := newTestMux(t, memory.New(), nil)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"empty name", http.MethodPost, "/api/collections/technologies/items", map[string]string{"name": "  "}, http.StatusBadRequest},
		{"missing body", http.MethodPost, "/api/collections/team-functions/items", nil, http.StatusBadRequest},
		{"unknown field", http.MethodPost, "/api/collections/technologies/items", map[string]string{"title": "x"}, http.StatusBadRequest},
		{"unknown collection", http.MethodPost, "/api/collections/projects/items", map[string]string{"name": "x"}, http.StatusNotFound},
		{"unknown collection list", http.MethodGet, "/api/collections/projects", nil, http.StatusNotFound},
		{"rename unknown id", http.MethodPatch, "/api/collections/technologies/items/missing", map[string]string{"name": "x"}, http.StatusNotFound},
		{"incomplete selection", http.MethodPost, "/api/prompt", prompt.Selection{Technology: "Linux"}, http.StatusBadRequest},
		{"unknown action", http.MethodPost, "/api/actions", map[string]string{"action": "explode"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, mux, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
			assert.NotEmpty(t, decodeAction(t, w).Error)
		})
	}
}

func TestAPI_RemoveUnknownIDIsOK(t *testing.T) {
	mux := newTestMux(t, memory.New(), nil)
	w := do(t, mux, http.MethodDelete, "/api/collections/technologies/items/missing", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAPI_StoreFailureIs503AndShowsErrorState(t *testing.T) {
	mux := newTestMux(t, brokenStore{memory.New()}, nil)

	w := do(t, mux, http.MethodGet, "/api/collections/team-functions", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	resp := decodeAction(t, w)
	assert.Contains(t, resp.Error, "connection refused")
	cv, ok := resp.View.Collection(domain.CollectionTeamFunctions)
	require.True(t, ok)
	assert.Equal(t, domain.MirrorError, cv.Status)
}

// relistFailStore accepts writes but cannot be read back.
type relistFailStore struct{ *memory.Store }

func (relistFailStore) List(context.Context, domain.Collection) ([]domain.ReferenceItem, error) {
	return nil, errors.New("read timeout")
}

func TestAPI_AddWithFailedRelistReportsStoredItem(t *testing.T) {
	mux := newTestMux(t, relistFailStore{memory.New()}, nil)
	w := do(t, mux, http.MethodPost, "/api/collections/technologies/items", map[string]string{"name": "Linux"})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	resp := decodeAction(t, w)
	require.NotNil(t, resp.Item)
	assert.Equal(t, "Linux", resp.Item.Name)
	assert.Contains(t, resp.Error, "was stored")
}

func TestAPI_IDFromOtherCollection(t *testing.T) {
	mux := newTestMux(t, memory.New(), nil)
	w := do(t, mux, http.MethodPost, "/api/collections/team-functions/items", map[string]string{"name": "Networking"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id := decodeAction(t, w).Item.ID

	w = do(t, mux, http.MethodPatch, "/api/collections/technologies/items/"+id, map[string]string{"name": "Renamed"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, mux, http.MethodDelete, "/api/collections/technologies/items/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"Networking"}, rowNames(decodeAction(t, w).View, domain.CollectionTeamFunctions))
}

func TestAPI_PromptAndGenerate(t *testing.T) {
	mux := newTestMux(t, memory.New(), fakeGenerator{out: "1. Harden RDP"})
	sel := prompt.Selection{Technology: "Windows Server", TeamFunction: "Security", Priority: "high"}

	w := do(t, mux, http.MethodPost, "/api/prompt", sel)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, decodeAction(t, w).Prompt, "high-priority")

	w = do(t, mux, http.MethodPost, "/api/generate", sel)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decodeAction(t, w)
	assert.Equal(t, "1. Harden RDP", resp.Output)
	assert.NotEmpty(t, resp.Prompt)

	var snap StateSnapshot
	require.NoError(t, json.Unmarshal(do(t, mux, http.MethodGet, "/api/state", nil).Body.Bytes(), &snap))
	assert.True(t, snap.GenerationEnabled)
}

func TestAPI_GenerateErrorMessageVerbatim(t *testing.T) {
	msg := "Error 403, Message: API key not valid, Status: PERMISSION_DENIED"
	mux := newTestMux(t, memory.New(), fakeGenerator{err: errors.New(msg)})

	w := do(t, mux, http.MethodPost, "/api/generate", prompt.Selection{Technology: "Linux", TeamFunction: "Ops"})
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, msg, decodeAction(t, w).Error)
}

func TestAPI_GenerateDisabled(t *testing.T) {
	mux := newTestMux(t, memory.New(), nil)
	w := do(t, mux, http.MethodPost, "/api/generate", prompt.Selection{Technology: "Linux", TeamFunction: "Ops"})
	assert.Equal(t, http.StatusPreconditionFailed, w.Code)
	assert.NotEmpty(t, decodeAction(t, w).Prompt)
}

func TestAPI_ActionEndpointRefresh(t *testing.T) {
	mux := newTestMux(t, memory.New(), nil)
	w := do(t, mux, http.MethodPost, "/api/actions", map[string]string{"action": "refresh"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	for _, cv := range decodeAction(t, w).View.Collections {
		assert.Equal(t, domain.MirrorPopulated, cv.Status)
	}
}

func TestAPI_Preflight(t *testing.T) {
	mux := newTestMux(t, memory.New(), nil)
	w := do(t, mux, http.MethodOptions, "/api/collections/technologies/items", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.True(t, strings.Contains(w.Header().Get("Access-Control-Allow-Methods"), "PATCH"))
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, http.StatusOK},
		{domain.ErrEmptyName, http.StatusBadRequest},
		{fmt.Errorf("%w: x", app.ErrStore), http.StatusServiceUnavailable},
		{fmt.Errorf("%w: rename: %w", app.ErrStore, domain.ErrNotFound), http.StatusNotFound},
		{&app.GenerationError{Err: errors.New("quota")}, http.StatusBadGateway},
		{app.ErrGenerationDisabled, http.StatusPreconditionFailed},
		{errors.New("other"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusFor(tt.err), "%v", tt.err)
	}
}

func TestViewCache_KeepsNewest(t *testing.T) {
	c := &viewCache{}
	c.Render(app.View{Revision: 5})
	c.Render(app.View{Revision: 3})
	assert.Equal(t, uint64(5), c.Latest().Revision)
	c.Render(app.View{Revision: 6})
	assert.Equal(t, uint64(6), c.Latest().Revision)
}
