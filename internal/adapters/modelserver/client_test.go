package modelserver_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adelgado/quantbt/internal/adapters/modelserver"
	"github.com/adelgado/quantbt/internal/domain"
)

func testWindow() domain.NormalizedWindow {
	var w domain.NormalizedWindow
	for i := range w.Values {
		w.Values[i] = float64(i) / float64(domain.WindowWidth-1)
	}
	w.Target = 1.0
	return w
}

func TestClient_Predict(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/predict", r.URL.Path)

		var req struct {
			Window []float64 `json:"window"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Window, domain.WindowWidth)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]float64{"prediction": 0.73})
	}))
	defer srv.Close()

	client := modelserver.NewClient(srv.URL, 100)

	pred, err := client.Predict(context.Background(), testWindow())
	require.NoError(t, err)
	assert.InDelta(t, 0.73, pred, 1e-9)
}

func TestClient_PredictServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := modelserver.NewClient(srv.URL, 100)

	_, err := client.Predict(context.Background(), testWindow())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestClient_PredictCancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]float64{"prediction": 0.5})
	}))
	defer srv.Close()

	client := modelserver.NewClient(srv.URL, 100)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Predict(ctx, testWindow())
	assert.Error(t, err)
}
