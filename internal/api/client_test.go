package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"wipeout_enterprise/internal/config"
)

func testConfig(baseURL string) *config.Config {
	cfg := config.Default()
	cfg.API.BaseURL = baseURL
	cfg.API.RetryAttempts = 3
	cfg.API.RetryDelaySec = 0
	return cfg
}

func TestSubmitWipeResult(t *testing.T) {
	var gotPath, gotMethod, gotAgent string
	var gotBody map[string]interface{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotMethod = r.Method
		gotAgent = r.Header.Get("User-Agent")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"success": true,
			"data": {
				"submissionId": "sub-123",
				"certificate": {"id": "cert-456", "downloadUrl": "https://certs.example.com/cert-456.pdf"}
			}
		}`))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), nil)
	require.True(t, client.Enabled())

	resp, err := client.SubmitWipeResult(context.Background(), map[string]string{"operation_id": "op-1"})
	require.NoError(t, err)

	require.Equal(t, "/api/wipe/submit", gotPath)
	require.Equal(t, http.MethodPost, gotMethod)
	require.Equal(t, "WipeOut/1.0.0", gotAgent)
	require.Equal(t, "op-1", gotBody["operation_id"])

	require.True(t, resp.Success)
	require.Equal(t, "sub-123", resp.Data.SubmissionID)
	require.Equal(t, "cert-456", resp.Data.Certificate.ID)
	require.Equal(t, "https://certs.example.com/cert-456.pdf", resp.Data.Certificate.DownloadURL)
}

func TestGetWipeStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/wipe/status/sub-123", r.URL.Path)
		w.Write([]byte(`{"success": true, "status": "certified"}`))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), nil)
	resp, err := client.GetWipeStatus(context.Background(), "sub-123")
	require.NoError(t, err)
	require.True(t, resp.Success)
	require.Equal(t, "certified", resp.Status)
}

func TestVerifyCertificate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/certificate/verify/cert-456", r.URL.Path)
		w.Write([]byte(`{"success": true, "status": "valid"}`))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), nil)
	resp, err := client.VerifyCertificate(context.Background(), "cert-456")
	require.NoError(t, err)
	require.True(t, resp.Success)
	require.Equal(t, "valid", resp.Status)
}

func TestRetryOnServerError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"success": true}`))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), nil)
	resp, err := client.SubmitWipeResult(context.Background(), map[string]string{})
	require.NoError(t, err)
	require.True(t, resp.Success)
	require.Equal(t, int32(3), calls.Load())
}

func TestRetriesExhausted(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), nil)
	_, err := client.SubmitWipeResult(context.Background(), map[string]string{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "after 3 attempts")
	require.Equal(t, int32(3), calls.Load())
}

func TestClientErrorSurfaced(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"success": false, "error": "malformed payload"}`))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), nil)
	_, err := client.SubmitWipeResult(context.Background(), map[string]string{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "request rejected")
}

func TestRetryHonoursCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.API.RetryDelaySec = 5

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewClient(cfg, nil)
	_, err := client.SubmitWipeResult(ctx, map[string]string{})
	require.Error(t, err)
}

func TestClientDisabled(t *testing.T) {
	cfg := config.Default()
	cfg.API.Enabled = false
	client := NewClient(cfg, nil)
	require.False(t, client.Enabled())
}
