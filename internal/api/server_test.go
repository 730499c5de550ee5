package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"creditscope/internal/dataset"
	"creditscope/internal/explain"
	"creditscope/internal/storage"
)

// sumScorer predicts the row sum, which makes responses exactly checkable.
var sumScorer = explain.ScorerFunc(func(_ context.Context, ds *dataset.Dataset) ([]float64, error) {
	out := make([]float64, ds.Rows())
	for j := range ds.Features() {
		for i, v := range ds.Column(j) {
			out[i] += v
		}
	}
	return out, nil
})

func newTestServer(t *testing.T) (*Server, *storage.Store) {
	t.Helper()
	store, err := storage.New(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	srv := NewServer(Config{
		Engine:   explain.NewEngine(2, nil),
		Scorer:   sumScorer,
		Store:    store,
		ModelTag: "test-model",
		Port:     0,
	})
	return srv, store
}

func postJSON(t *testing.T, h http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func testDatasetPayload() map[string]any {
	return map[string]any{
		"features": []map[string]any{
			{"name": "x", "kind": "numeric"},
			{"name": "y", "kind": "numeric"},
		},
		"rows":   [][]float64{{1, 2}, {3, 4}, {5, 6}, {7, 8}},
		"labels": []float64{0, 0, 1, 1},
	}
}

func TestServer_Importance(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t)

	rec := postJSON(t, srv.Handler(), "/explain/importance", map[string]any{
		"dataset": testDatasetPayload(),
		"metric":  "roc_auc",
		"repeats": 5,
		"seed":    42,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result explain.ImportanceResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.Len(t, result.Features, 2)
	assert.Equal(t, 5, result.Repeats)
	assert.Equal(t, int64(42), result.Seed)
	assert.Len(t, result.Features[0].Scores, 5)
}

func TestServer_ImportanceBadRequests(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t)
	h := srv.Handler()

	payload := testDatasetPayload()
	payload["labels"] = []float64{0, 1} // 2 labels for 4 rows

	rec := postJSON(t, h, "/explain/importance", map[string]any{
		"dataset": payload,
		"repeats": 3,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postJSON(t, h, "/explain/importance", map[string]any{
		"dataset": testDatasetPayload(),
		"metric":  "magic",
		"repeats": 3,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/explain/importance", nil)
	getRec := httptest.NewRecorder()
	h.ServeHTTP(getRec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, getRec.Code)
}

func TestServer_PDP(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t)

	rec := postJSON(t, srv.Handler(), "/explain/pdp", map[string]any{
		"dataset":         testDatasetPayload(),
		"feature":         "x",
		"grid_resolution": 4,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result struct {
		Feature string `json:"feature"`
		Points  []struct {
			Value float64  `json:"value"`
			Mean  *float64 `json:"mean"`
			Rows  int      `json:"rows"`
		} `json:"points"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "x", result.Feature)
	require.Len(t, result.Points, 4)
	assert.Equal(t, 1.0, result.Points[0].Value)
	assert.Equal(t, 7.0, result.Points[3].Value)

	// Additive scorer: mean = v + mean(y) = v + 5.
	require.NotNil(t, result.Points[0].Mean)
	assert.InDelta(t, 6.0, *result.Points[0].Mean, 1e-12)
}

func TestServer_PDPUnknownFeature(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t)
	rec := postJSON(t, srv.Handler(), "/explain/pdp", map[string]any{
		"dataset":         testDatasetPayload(),
		"feature":         "ghost",
		"grid_resolution": 4,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_ICE(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t)

	rec := postJSON(t, srv.Handler(), "/explain/ice", map[string]any{
		"dataset":         testDatasetPayload(),
		"feature":         "x",
		"grid_resolution": 3,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result struct {
		Grid   []float64    `json:"grid"`
		Curves [][]*float64 `json:"curves"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.Len(t, result.Curves, 4, "one curve per row")
	require.Len(t, result.Grid, 3)
}

func TestServer_ScorerFailureMapsToBadGateway(t *testing.T) {
	t.Parallel()

	failing := explain.ScorerFunc(func(_ context.Context, ds *dataset.Dataset) ([]float64, error) {
		return nil, assert.AnError
	})
	srv := NewServer(Config{
		Engine: explain.NewEngine(1, nil),
		Scorer: failing,
		Port:   0,
	})

	rec := postJSON(t, srv.Handler(), "/explain/pdp", map[string]any{
		"dataset":         testDatasetPayload(),
		"feature":         "x",
		"grid_resolution": 3,
	})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestServer_ReportsLifecycle(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t)
	h := srv.Handler()

	rec := postJSON(t, h, "/explain/pdp", map[string]any{
		"dataset":         testDatasetPayload(),
		"feature":         "y",
		"grid_resolution": 3,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/reports?kind=pdp", nil)
	listRec := httptest.NewRecorder()
	h.ServeHTTP(listRec, req)
	require.Equal(t, http.StatusOK, listRec.Code)

	var listing struct {
		Reports []storage.Report `json:"reports"`
	}
	require.NoError(t, json.Unmarshal(listRec.Body.Bytes(), &listing))
	require.Len(t, listing.Reports, 1)
	assert.Equal(t, storage.KindPDP, listing.Reports[0].Kind)
	assert.Equal(t, "y", listing.Reports[0].Feature)
	assert.Equal(t, "test-model", listing.Reports[0].ModelTag)

	req = httptest.NewRequest(http.MethodGet, "/reports?kind=sorcery", nil)
	badRec := httptest.NewRecorder()
	h.ServeHTTP(badRec, req)
	assert.Equal(t, http.StatusBadRequest, badRec.Code)
}

func TestServer_Health(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "test-model", body["model_tag"])
}
