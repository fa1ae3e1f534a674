package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"ai-dataviz-be/internal/pkg/apperror"
)

// noVisualizationsMessage is the service's marker for an empty chart set.
const noVisualizationsMessage = "No visualizations were generated"

type Client struct {
	BaseURL string
	ApiKey  string
	Client  *http.Client
}

var _ Generator = &Client{}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		ApiKey:  apiKey,
		Client: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *Client) Summarize(ctx context.Context, datasetUrl string) (json.RawMessage, error) {
	var summary json.RawMessage
	if err := c.post(ctx, "summarize", summarizeRequest{DatasetUrl: datasetUrl}, &summary); err != nil {
		return nil, err
	}
	trimmed := strings.TrimSpace(string(summary))
	if trimmed == "" || trimmed == "null" {
		return nil, c.fail("summarize", apperror.GenerationFailed("Generation service returned an empty summary", nil))
	}
	return summary, nil
}

func (c *Client) Goals(ctx context.Context, summary json.RawMessage, n int) ([]Goal, error) {
	var goals []Goal
	if err := c.post(ctx, "goals", goalsRequest{Summary: summary, N: n}, &goals); err != nil {
		return nil, err
	}
	return goals, nil
}

func (c *Client) Visualize(ctx context.Context, summary json.RawMessage, goal Goal, instruction string) (*Artifact, error) {
	var artifact Artifact
	req := visualizeRequest{Summary: summary, Goal: goal, Instruction: instruction}
	if err := c.post(ctx, "visualize", req, &artifact); err != nil {
		return nil, err
	}
	if artifact.Code == "" || artifact.Raster == "" {
		return nil, c.fail("visualize", apperror.GenerationFailed("Generation service returned an empty artifact", nil))
	}
	return &artifact, nil
}

// post sends one JSON request to /api/{operation}. No retries.
func (c *Client) post(ctx context.Context, operation string, payload any, out any) error {
	start := time.Now()
	defer func() {
		requestDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}()

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", operation, err)
	}

	url := c.BaseURL + "/api/" + operation
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("create %s request: %w", operation, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.ApiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.ApiKey)
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return c.fail(operation, apperror.UpstreamUnavailable(fmt.Errorf("%s request failed: %w", operation, err)))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return c.fail(operation, apperror.UpstreamUnavailable(fmt.Errorf("read %s response: %w", operation, err)))
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		return c.fail(operation, apperror.UpstreamUnavailable(fmt.Errorf("%s error: status %d, body: %s", operation, resp.StatusCode, string(respBody))))
	}
	if resp.StatusCode != http.StatusOK {
		return c.fail(operation, classify(resp.StatusCode, respBody))
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return c.fail(operation, apperror.GenerationFailed("", fmt.Errorf("unmarshal %s response: %w", operation, err)))
	}

	requestsTotal.WithLabelValues(operation, resultOK).Inc()
	return nil
}

// classify maps a non-2xx, non-5xx reply to a generation failure.
func classify(status int, body []byte) error {
	var errResp errorResponse
	_ = json.Unmarshal(body, &errResp)

	cause := fmt.Errorf("status %d, body: %s", status, string(body))
	if errResp.Error == noVisualizationsMessage {
		appErr := apperror.NoArtifact()
		appErr.Err = cause
		return appErr
	}
	return apperror.GenerationFailed(errResp.Error, cause)
}

func (c *Client) fail(operation string, err error) error {
	result := resultFailed
	if errors.Is(err, apperror.ErrUpstreamUnavailable) {
		result = resultUnavailable
	}
	requestsTotal.WithLabelValues(operation, result).Inc()
	return err
}
