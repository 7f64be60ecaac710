package giselle

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"articlegen/internal/domain"
)

type captureTransport struct {
	lastRequest *http.Request
	lastBody    []byte
	responses   map[string]responseStub
}

type responseStub struct {
	status int
	body   []byte
}

func (c *captureTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	c.lastRequest = req
	c.lastBody = nil
	if req.Body != nil {
		body, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, err
		}
		req.Body.Close()
		c.lastBody = body
	}
	stub, ok := c.responses[req.Method+" "+req.URL.Path]
	if !ok {
		return nil, errors.New("unexpected request " + req.Method + " " + req.URL.Path)
	}
	return &http.Response{
		StatusCode: stub.status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(bytes.NewReader(stub.body)),
	}, nil
}

func (c *captureTransport) set(method, path string, status int, body string) {
	c.responses[method+" "+path] = responseStub{status: status, body: []byte(body)}
}

func newTestClient(t *testing.T, key string) (*Client, *captureTransport) {
	t.Helper()
	transport := &captureTransport{responses: map[string]responseStub{}}
	client, err := NewClient(Options{
		APIKey:     key,
		BaseURL:    "https://giselle.example.com/api/",
		HTTPClient: &http.Client{Transport: transport},
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client, transport
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	if _, err := NewClient(Options{}); err == nil {
		t.Fatalf("expected error for missing base url")
	}
	if _, err := NewClient(Options{BaseURL: "not a url"}); err == nil {
		t.Fatalf("expected error for invalid base url")
	}
}

func TestDispatchPayload(t *testing.T) {
	client, transport := newTestClient(t, " secret ")
	transport.set(http.MethodPost, "/api/tasks", http.StatusAccepted, `{"taskId":"tsk_123"}`)

	taskID, err := client.Dispatch(context.Background(), json.RawMessage(`{"prompt":{"description":"soap"}}`))
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if taskID != "tsk_123" {
		t.Fatalf("taskID = %q, want tsk_123", taskID)
	}
	if got := transport.lastRequest.Header.Get("Authorization"); got != "Bearer secret" {
		t.Fatalf("Authorization = %q", got)
	}
	var sent struct {
		Input map[string]any `json:"input"`
	}
	if err := json.Unmarshal(transport.lastBody, &sent); err != nil {
		t.Fatalf("decode sent body: %v", err)
	}
	if _, ok := sent.Input["prompt"]; !ok {
		t.Fatalf("input not forwarded: %s", transport.lastBody)
	}
}

func TestDispatchWithoutKeyOmitsAuthorization(t *testing.T) {
	client, transport := newTestClient(t, "")
	transport.set(http.MethodPost, "/api/tasks", http.StatusOK, `{"taskId":"t"}`)

	if _, err := client.Dispatch(context.Background(), json.RawMessage(`{}`)); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if client.HasCredentials() {
		t.Fatalf("expected no credentials")
	}
	if got := transport.lastRequest.Header.Get("Authorization"); got != "" {
		t.Fatalf("Authorization = %q, want empty", got)
	}
}

func TestDispatchErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{name: "structured error", status: http.StatusTooManyRequests, body: `{"error":{"code":"rate_limited","message":"slow down"}}`, wantErr: "slow down (rate_limited)"},
		{name: "plain error", status: http.StatusBadGateway, body: `upstream broke`, wantErr: "status 502: upstream broke"},
		{name: "empty task id", status: http.StatusOK, body: `{"taskId":"  "}`, wantErr: "empty task id"},
		{name: "bad json", status: http.StatusOK, body: `{`, wantErr: "decode response"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			client, transport := newTestClient(t, "k")
			transport.set(http.MethodPost, "/api/tasks", tc.status, tc.body)

			_, err := client.Dispatch(context.Background(), json.RawMessage(`{}`))
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("Dispatch error = %v, want %q", err, tc.wantErr)
			}
		})
	}
}

func TestFetchResultMapsStatuses(t *testing.T) {
	tests := []struct {
		name string
		body string
		want domain.GenerationOutcome
	}{
		{name: "queued", body: `{"status":"queued"}`, want: domain.GenerationOutcome{State: domain.OutcomePending}},
		{name: "running", body: `{"status":"running"}`, want: domain.GenerationOutcome{State: domain.OutcomePending}},
		{
			name: "completed",
			body: `{"status":"completed","output":{"title":"T","bodyMarkdown":"# B","coverImageUrl":"https://cdn/c.png"}}`,
			want: domain.GenerationOutcome{State: domain.OutcomeCompleted, Title: "T", BodyMarkdown: "# B", CoverImageURL: "https://cdn/c.png"},
		},
		{name: "completed without output", body: `{"status":"completed"}`, want: domain.GenerationOutcome{State: domain.OutcomeCompleted}},
		{name: "failed", body: `{"status":"failed","error":{"message":"policy"}}`, want: domain.GenerationOutcome{State: domain.OutcomeFailed, Reason: "policy"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			client, transport := newTestClient(t, "k")
			transport.set(http.MethodGet, "/api/tasks/tsk_1", http.StatusOK, tc.body)

			got, err := client.FetchResult(context.Background(), "tsk_1")
			if err != nil {
				t.Fatalf("FetchResult: %v", err)
			}
			if got != tc.want {
				t.Fatalf("FetchResult = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestFetchResultNotFound(t *testing.T) {
	client, transport := newTestClient(t, "k")
	transport.set(http.MethodGet, "/api/tasks/missing", http.StatusNotFound, `{}`)

	_, err := client.FetchResult(context.Background(), "missing")
	if !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("FetchResult error = %v, want ErrTaskNotFound", err)
	}
}

func TestFetchResultUnknownStatus(t *testing.T) {
	client, transport := newTestClient(t, "k")
	transport.set(http.MethodGet, "/api/tasks/t", http.StatusOK, `{"status":"exploded"}`)

	if _, err := client.FetchResult(context.Background(), "t"); err == nil {
		t.Fatalf("expected error for unknown status")
	}
}
