// Package giselle talks to the external article generation service. A task
// is submitted once and then polled by id until it reaches a final state.
package giselle

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"articlegen/internal/domain"
	"articlegen/internal/infra"
)

// ErrTaskNotFound indicates that the provider does not know the task id.
var ErrTaskNotFound = errors.New("giselle: task not found")

// Options configures the generation client.
type Options struct {
	APIKey         string
	BaseURL        string
	HTTPClient     *http.Client
	Logger         *infra.Logger
	RequestTimeout time.Duration
}

// Client performs HTTP calls to the generation service.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *infra.Logger
}

type dispatchRequest struct {
	Input json.RawMessage `json:"input"`
}

type dispatchResponse struct {
	TaskID string `json:"taskId"`
}

type taskResponse struct {
	Status string `json:"status"`
	Output *struct {
		Title         string `json:"title"`
		BodyMarkdown  string `json:"bodyMarkdown"`
		CoverImageURL string `json:"coverImageUrl"`
	} `json:"output"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// NewClient constructs a client with defaults for anything left unset.
func NewClient(opts Options) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("giselle: base url is required")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("giselle: invalid base url: %w", err)
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	logger := opts.Logger
	if logger == nil {
		l := infra.Logger(zerolog.Nop())
		logger = &l
	}
	return &Client{
		apiKey:     strings.TrimSpace(opts.APIKey),
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// HasCredentials reports whether requests carry an API key.
func (c *Client) HasCredentials() bool {
	return c.apiKey != ""
}

// Dispatch submits input as a new task and returns its id.
func (c *Client) Dispatch(ctx context.Context, input json.RawMessage) (string, error) {
	if len(input) == 0 {
		return "", errors.New("giselle: input is required")
	}
	body, err := json.Marshal(dispatchRequest{Input: input})
	if err != nil {
		return "", fmt.Errorf("giselle: encode request: %w", err)
	}
	raw, status, err := c.do(ctx, http.MethodPost, c.baseURL+"/tasks", body)
	if err != nil {
		return "", err
	}
	if status >= 300 {
		return "", statusError(status, raw)
	}
	var decoded dispatchResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", fmt.Errorf("giselle: decode response: %w", err)
	}
	taskID := strings.TrimSpace(decoded.TaskID)
	if taskID == "" {
		return "", errors.New("giselle: empty task id")
	}
	c.logger.Debug().Str("task_id", taskID).Msg("giselle: task submitted")
	return taskID, nil
}

// FetchResult reads the task and maps it onto a generation outcome.
func (c *Client) FetchResult(ctx context.Context, taskID string) (domain.GenerationOutcome, error) {
	taskID = strings.TrimSpace(taskID)
	if taskID == "" {
		return domain.GenerationOutcome{}, errors.New("giselle: task id is required")
	}
	raw, status, err := c.do(ctx, http.MethodGet, c.baseURL+"/tasks/"+url.PathEscape(taskID), nil)
	if err != nil {
		return domain.GenerationOutcome{}, err
	}
	if status == http.StatusNotFound {
		return domain.GenerationOutcome{}, fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
	}
	if status >= 300 {
		return domain.GenerationOutcome{}, statusError(status, raw)
	}
	var decoded taskResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return domain.GenerationOutcome{}, fmt.Errorf("giselle: decode response: %w", err)
	}
	outcome, err := decoded.outcome()
	if err != nil {
		return domain.GenerationOutcome{}, err
	}
	c.logger.Debug().Str("task_id", taskID).Str("status", decoded.Status).Msg("giselle: task polled")
	return outcome, nil
}

func (t taskResponse) outcome() (domain.GenerationOutcome, error) {
	switch strings.ToLower(strings.TrimSpace(t.Status)) {
	case "queued", "running", "in_progress":
		return domain.GenerationOutcome{State: domain.OutcomePending}, nil
	case "completed":
		out := domain.GenerationOutcome{State: domain.OutcomeCompleted}
		if t.Output != nil {
			out.Title = t.Output.Title
			out.BodyMarkdown = t.Output.BodyMarkdown
			out.CoverImageURL = t.Output.CoverImageURL
		}
		return out, nil
	case "failed", "cancelled":
		out := domain.GenerationOutcome{State: domain.OutcomeFailed}
		if t.Error != nil {
			out.Reason = t.Error.Message
		}
		return out, nil
	default:
		return domain.GenerationOutcome{}, fmt.Errorf("giselle: unknown task status %q", t.Status)
	}
}

func (c *Client) do(ctx context.Context, method, endpoint string, body []byte) ([]byte, int, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, 0, fmt.Errorf("giselle: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("giselle: http request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, 0, fmt.Errorf("giselle: read response: %w", err)
	}
	return raw, resp.StatusCode, nil
}

func statusError(status int, raw []byte) error {
	var detail errorResponse
	if err := json.Unmarshal(raw, &detail); err == nil && detail.Error.Message != "" {
		return fmt.Errorf("giselle: %s (%s)", detail.Error.Message, detail.Error.Code)
	}
	return fmt.Errorf("giselle: status %d: %s", status, strings.TrimSpace(string(raw)))
}

var _ domain.Generator = (*Client)(nil)
