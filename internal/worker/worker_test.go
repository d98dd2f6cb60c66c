package worker

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"log/slog"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lifecode-app/lifecode-server/internal/adapters/secondary/llm"
)

func newTestWorker(serverURL string) *Worker {
	cfg := &Config{
		ServerURL:           serverURL,
		Secret:              "worker-secret",
		PollIntervalSeconds: 1,
		LLM:                 &llm.Config{ApiKey: "test"},
	}
	return New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestClaimNextEmptyQueue(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/report/next-job", r.URL.Path)
		assert.Equal(t, "Bearer worker-secret", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	w := newTestWorker(srv.URL)

	job, err := w.claimNext(context.Background())
	require.NoError(t, err)
	assert.Nil(t, job)
}

func TestClaimNextParsesJob(t *testing.T) {
	jobID := uuid.New()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"job": map[string]interface{}{
				"id":          jobID.String(),
				"archive_id":  uuid.New().String(),
				"report_type": "main",
			},
			"system_prompt": "system",
			"user_message":  "user",
		})
	}))
	defer srv.Close()

	w := newTestWorker(srv.URL)

	job, err := w.claimNext(context.Background())
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, jobID, job.Job.ID)
	assert.Equal(t, "system", job.SystemPrompt)
	assert.Equal(t, "user", job.UserMessage)
}

func TestClaimNextUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	w := newTestWorker(srv.URL)

	_, err := w.claimNext(context.Background())
	assert.Error(t, err)
}

func TestSubmitSendsResult(t *testing.T) {
	jobID := uuid.New()
	var received jobResult
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/api/report/job/"+jobID.String(), r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"job":{}}`))
	}))
	defer srv.Close()

	w := newTestWorker(srv.URL)

	err := w.submit(context.Background(), jobID, jobResult{Status: "completed", RawOutput: `{"a":1}`, Model: "qwen-max"})
	require.NoError(t, err)
	assert.Equal(t, "completed", received.Status)
	assert.Equal(t, `{"a":1}`, received.RawOutput)
	assert.Equal(t, "qwen-max", received.Model)
}

func TestSubmitServerRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusConflict)
	}))
	defer srv.Close()

	w := newTestWorker(srv.URL)

	err := w.submit(context.Background(), uuid.New(), jobResult{Status: "failed"})
	assert.Error(t, err)
}
