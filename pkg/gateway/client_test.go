package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ai-dataviz-be/internal/pkg/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "secret", 2*time.Second)
}

func TestVisualize_Success(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/visualize", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var req visualizeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Q1", req.Goal.Question)
		assert.Equal(t, "make bars red", req.Instruction)
		assert.JSONEq(t, `{"rows":10}`, string(req.Summary))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"code":"plt.bar()","raster":"iVBOR","modification_history":[]}`))
	})

	art, err := c.Visualize(context.Background(), json.RawMessage(`{"rows":10}`), Goal{Question: "Q1"}, "make bars red")
	require.NoError(t, err)
	assert.Equal(t, "plt.bar()", art.Code)
	assert.Equal(t, "iVBOR", art.Raster)
}

func TestVisualize_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   *apperror.AppError
	}{
		{"no visualizations", http.StatusBadRequest, `{"error":"No visualizations were generated"}`, apperror.ErrNoArtifact},
		{"generation error", http.StatusUnprocessableEntity, `{"error":"bad goal"}`, apperror.ErrGenerationFailed},
		{"server error", http.StatusBadGateway, `oops`, apperror.ErrUpstreamUnavailable},
		{"empty artifact", http.StatusOK, `{"code":"","raster":""}`, apperror.ErrGenerationFailed},
		{"malformed body", http.StatusOK, `not json`, apperror.ErrGenerationFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			art, err := c.Visualize(context.Background(), json.RawMessage(`{}`), Goal{Question: "Q"}, "")
			assert.Nil(t, art)
			assert.ErrorIs(t, err, tt.want)
			assert.True(t, apperror.IsGenerationError(err))
		})
	}
}

func TestVisualize_NoArtifactMessage(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"No visualizations were generated"}`))
	})

	_, err := c.Visualize(context.Background(), nil, Goal{Question: "Q"}, "")
	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, apperror.ErrNoArtifact.Message, appErr.Message)
}

func TestVisualize_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := NewClient(url, "", time.Second)
	_, err := c.Visualize(context.Background(), nil, Goal{Question: "Q"}, "")
	assert.ErrorIs(t, err, apperror.ErrUpstreamUnavailable)
}

func TestSummarizeAndGoals(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/summarize":
			var req summarizeRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "https://storage/ds.csv", req.DatasetUrl)
			_, _ = w.Write([]byte(`{"name":"ds","fields":[]}`))
		case "/api/goals":
			var req goalsRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, 3, req.N)
			_, _ = w.Write([]byte(`[{"question":"Q1","rationale":"R1","visualization":"bar"}]`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	summary, err := c.Summarize(context.Background(), "https://storage/ds.csv")
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"ds","fields":[]}`, string(summary))

	goals, err := c.Goals(context.Background(), summary, 3)
	require.NoError(t, err)
	require.Len(t, goals, 1)
	assert.Equal(t, Goal{Question: "Q1", Rationale: "R1", Visualization: "bar"}, goals[0])
}
