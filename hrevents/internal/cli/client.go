package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// APIClient calls the hrevents trigger API.
type APIClient struct {
	baseURL string
	token   string
	client  *http.Client
}

// JobAck is the acknowledgment returned when a job is enqueued.
type JobAck struct {
	ID      string `json:"id" yaml:"id"`
	Name    string `json:"name" yaml:"name"`
	Queue   string `json:"queue" yaml:"queue"`
	Title   string `json:"title,omitempty" yaml:"title,omitempty"`
	Message string `json:"message,omitempty" yaml:"message,omitempty"`
}

type jobResponse struct {
	Data struct {
		ID         string `json:"id"`
		Attributes struct {
			Name  string `json:"name"`
			Queue string `json:"queue"`
		} `json:"attributes"`
	} `json:"data"`
	Meta struct {
		Title   string `json:"title"`
		Message string `json:"message"`
	} `json:"meta"`
}

type errorResponse struct {
	Errors []struct {
		Title  string `json:"title"`
		Detail string `json:"detail"`
	} `json:"errors"`
}

func NewAPIClient(baseURL, token string) *APIClient {
	return &APIClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// TriggerSync enqueues a directory sync.
func (c *APIClient) TriggerSync(ctx context.Context) (*JobAck, error) {
	return c.trigger(ctx, "/api/v1/sync")
}

// TriggerReminders enqueues a reminder run.
func (c *APIClient) TriggerReminders(ctx context.Context) (*JobAck, error) {
	return c.trigger(ctx, "/api/v1/reminders")
}

func (c *APIClient) trigger(ctx context.Context, path string) (*JobAck, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.api+json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusAccepted {
		return nil, apiError(resp.StatusCode, body)
	}

	var jr jobResponse
	if err := json.Unmarshal(body, &jr); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &JobAck{
		ID:      jr.Data.ID,
		Name:    jr.Data.Attributes.Name,
		Queue:   jr.Data.Attributes.Queue,
		Title:   jr.Meta.Title,
		Message: jr.Meta.Message,
	}, nil
}

func apiError(status int, body []byte) error {
	var er errorResponse
	if err := json.Unmarshal(body, &er); err == nil && len(er.Errors) > 0 {
		e := er.Errors[0]
		if e.Detail != "" {
			return fmt.Errorf("%s (%d): %s", e.Title, status, e.Detail)
		}
		return fmt.Errorf("%s (%d)", e.Title, status)
	}
	return fmt.Errorf("unexpected status %d: %s", status, strings.TrimSpace(string(body)))
}
