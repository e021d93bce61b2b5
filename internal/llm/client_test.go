package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// chatURL helper
// ---------------------------------------------------------------------------

func TestChatURL(t *testing.T) {
	cases := []struct {
		base string
		want string
	}{
		{"https://openrouter.ai/api/v1", "https://openrouter.ai/api/v1/chat/completions"},
		{"https://openrouter.ai/api/v1/", "https://openrouter.ai/api/v1/chat/completions"},
		{"http://localhost:8080", "http://localhost:8080/v1/chat/completions"},
		{"", "https://openrouter.ai/api/v1/chat/completions"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, chatURL(tc.base), "base=%q", tc.base)
	}
}

// ---------------------------------------------------------------------------
// NewClient
// ---------------------------------------------------------------------------

func TestNewClient_EmptyKey(t *testing.T) {
	_, err := NewClient(" ")
	require.Error(t, err)
	require.Contains(t, err.Error(), "api key")
}

func TestNewClient_Defaults(t *testing.T) {
	c, err := NewClient("sk-test")
	require.NoError(t, err)
	require.Equal(t, DefaultBaseURL, c.baseURL)
	require.Equal(t, "gpt-4", c.Model())
	require.Equal(t, 0.2, c.temperature)
	require.Equal(t, 30*time.Second, c.timeout)
	require.Equal(t, 3, c.maxRetries)
}

func TestNewClient_EmptyModel(t *testing.T) {
	_, err := NewClient("sk-test", WithModel(" "))
	require.Error(t, err)
	require.Contains(t, err.Error(), "model")
}

// ---------------------------------------------------------------------------
// Client.Chat
// ---------------------------------------------------------------------------

func newTestClient(t *testing.T, srv *httptest.Server, opts ...Option) *Client {
	t.Helper()
	base := []Option{
		WithBaseURL(srv.URL),
		WithBackoff(time.Millisecond),
		WithTimeout(2 * time.Second),
	}
	c, err := NewClient("sk-test", append(base, opts...)...)
	require.NoError(t, err)
	return c
}

func TestClient_Chat_HappyPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.Equal(t, "Zeon Hybrid Agent", r.Header.Get("X-Title"))

		reqBody, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var got chatRequest
		require.NoError(t, json.Unmarshal(reqBody, &got))
		require.Equal(t, "gpt-4", got.Model)
		require.Equal(t, 0.2, *got.Temperature)
		require.Len(t, got.Tools, 1)
		require.Equal(t, "function", got.Tools[0].Type)
		require.Equal(t, "check_wallet_balance", got.Tools[0].Function.Name)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-123",
			"choices": [{
				"index": 0,
				"message": {"role": "assistant", "content": "Hello from mock"},
				"finish_reason": "stop"
			}]
		}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv, WithHeader("X-Title", "Zeon Hybrid Agent"))
	msg, err := c.Chat(context.Background(),
		[]Message{{Role: RoleUser, Content: "hi"}},
		[]ToolSpec{{Name: "check_wallet_balance", Parameters: json.RawMessage(`{"type":"object"}`)}},
	)
	require.NoError(t, err)
	require.Equal(t, RoleAssistant, msg.Role)
	require.Equal(t, "Hello from mock", msg.Content)
}

func TestClient_Chat_ToolCalls(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":null,"tool_calls":[
			{"id":"call_1","type":"function","function":{"name":"check_fundraiser_status","arguments":"{\"contractAddress\":\"0xabc\"}"}}
		]}}]}`))
	}))
	defer srv.Close()

	msg, err := newTestClient(t, srv).Chat(context.Background(), nil, nil)
	require.NoError(t, err)
	require.Empty(t, msg.Content)
	require.Len(t, msg.ToolCalls, 1)
	require.Equal(t, "call_1", msg.ToolCalls[0].ID)
	require.Equal(t, "check_fundraiser_status", msg.ToolCalls[0].Function.Name)
	require.JSONEq(t, `{"contractAddress":"0xabc"}`, msg.ToolCalls[0].Function.Arguments)
}

func TestClient_Chat_RetriesTransientStatus(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch calls.Add(1) {
		case 1:
			w.WriteHeader(http.StatusTooManyRequests)
		case 2:
			w.WriteHeader(http.StatusBadGateway)
		default:
			_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"third time"}}]}`))
		}
	}))
	defer srv.Close()

	msg, err := newTestClient(t, srv).Chat(context.Background(), nil, nil)
	require.NoError(t, err)
	require.Equal(t, "third time", msg.Content)
	require.EqualValues(t, 3, calls.Load())
}

func TestClient_Chat_GivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv, WithMaxRetries(2)).Chat(context.Background(), nil, nil)
	require.Error(t, err)
	var statusErr *HTTPStatusError
	require.True(t, errors.As(err, &statusErr))
	require.Equal(t, http.StatusServiceUnavailable, statusErr.HTTPStatusCode())
	require.EqualValues(t, 3, calls.Load())
}

func TestClient_Chat_NoRetryOnClientError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"bad key"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv).Chat(context.Background(), nil, nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unexpected status 401")
	require.EqualValues(t, 1, calls.Load())
}

func TestClient_Chat_Timeout(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		select {
		case <-r.Context().Done():
		case <-time.After(500 * time.Millisecond):
		}
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv, WithTimeout(30*time.Millisecond), WithMaxRetries(1)).
		Chat(context.Background(), nil, nil)
	require.Error(t, err)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.EqualValues(t, 2, calls.Load())
}

func TestClient_Chat_InvalidJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not-a-json`))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv).Chat(context.Background(), nil, nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "decode response")
}

func TestClient_Chat_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv).Chat(context.Background(), nil, nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "no choices")
}
