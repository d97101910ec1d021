package transport_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/assetsync/internal/transport"
	"github.com/agentstation/assetsync/pkg/errors"
)

type item struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

func TestClientHeadersAndDecode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Equal(t, "/api/v1/manufacturers", r.URL.Path)
		assert.Equal(t, "500", r.URL.Query().Get("limit"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"total": 1,
			"rows":  []item{{ID: 3, Name: "Dell"}},
		})
	}))
	defer server.Close()

	client := transport.New(server.URL+"/api/v1/", "secret", transport.WithRequestDelay(0))
	assert.Equal(t, server.URL+"/api/v1", client.BaseURL())

	var page struct {
		Total int    `json:"total"`
		Rows  []item `json:"rows"`
	}
	err := client.Get(context.Background(), "/manufacturers", url.Values{"limit": {"500"}}, &page)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)
	assert.Equal(t, "Dell", page.Rows[0].Name)
}

func TestClientPostSetsContentType(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Lenovo", body["name"])
		_, _ = w.Write([]byte(`{"status":"success","messages":"created","payload":{"id":9,"name":"Lenovo"}}`))
	}))
	defer server.Close()

	client := transport.New(server.URL, "secret", transport.WithRequestDelay(0))
	var resp struct {
		Payload item `json:"payload"`
	}
	require.NoError(t, client.Post(context.Background(), "/manufacturers", map[string]string{"name": "Lenovo"}, &resp))
	assert.Equal(t, 9, resp.Payload.ID)
}

func TestClientErrorEnvelope(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		conflict bool
		message  string
	}{
		{
			name:     "200 with status error and field messages",
			status:   http.StatusOK,
			body:     `{"status":"error","messages":{"name":["The name has already been taken."]},"payload":null}`,
			conflict: true,
		},
		{
			name:    "200 with status error and string message",
			status:  http.StatusOK,
			body:    `{"status":"error","messages":"Asset does not exist.","payload":null}`,
			message: "Asset does not exist.",
		},
		{
			name:    "422 plain text",
			status:  http.StatusUnprocessableEntity,
			body:    "unprocessable",
			message: "unprocessable",
		},
		{
			name:     "field message as single string",
			status:   http.StatusOK,
			body:     `{"status":"error","messages":{"username":"That username already exists"}}`,
			conflict: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := transport.New(server.URL, "secret", transport.WithRequestDelay(0))
			err := client.Post(context.Background(), "/things", map[string]string{}, nil)
			require.Error(t, err)

			apiErr, ok := errors.AsAPIError(err)
			require.True(t, ok)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, "/things", apiErr.Endpoint)
			assert.Equal(t, tt.conflict, errors.IsAlreadyExists(err))
			if tt.message != "" {
				assert.Equal(t, tt.message, apiErr.Message)
			}
		})
	}
}

func TestClientTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := server.URL
	server.Close()

	client := transport.New(addr, "secret", transport.WithRequestDelay(0))
	err := client.Get(context.Background(), "/hardware", nil, nil)
	require.Error(t, err)
	assert.True(t, errors.IsTransport(err))
}

func TestClientPacing(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	delay := 50 * time.Millisecond
	client := transport.New(server.URL, "secret", transport.WithRequestDelay(delay))

	start := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, client.Get(context.Background(), "/statuslabels", nil, nil))
	}
	elapsed := time.Since(start)

	assert.Equal(t, int32(3), calls.Load())
	// first call is immediate; the next two wait one interval each
	assert.GreaterOrEqual(t, elapsed, 2*delay-5*time.Millisecond)
}

func TestClientCancelledWhilePacing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := transport.New(server.URL, "secret", transport.WithRequestDelay(time.Hour))
	require.NoError(t, client.Get(context.Background(), "/a", nil, nil))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := client.Get(ctx, "/b", nil, nil)
	require.Error(t, err)
	assert.False(t, errors.IsTransport(err))
}
