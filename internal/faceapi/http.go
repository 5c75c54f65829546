package faceapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kozaktomas/face-quiz/internal/metrics"
)

// request describes one API call.
type request struct {
	operation   string // metrics and log label
	endpoint    string // path after the base URL, e.g. "/quiz/start"
	auth        bool   // send the bearer token
	body        io.Reader
	contentType string
}

// jsonRequest builds a request with a JSON body; a nil body sends none.
func jsonRequest(operation, endpoint string, auth bool, requestBody any) (request, error) {
	req := request{operation: operation, endpoint: endpoint, auth: auth}
	if requestBody == nil {
		return req, nil
	}
	jsonBody, err := json.Marshal(requestBody)
	if err != nil {
		return req, fmt.Errorf("could not marshal request body: %w", err)
	}
	req.body = bytes.NewReader(jsonBody)
	req.contentType = "application/json"
	return req, nil
}

// do sends a POST and returns the response body of a 2xx response.
// Non-2xx responses become *APIError, failures before a response *TransportError.
func (c *Client) do(ctx context.Context, r request) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			c.metrics.APIRequest(r.operation, metrics.OutcomeTransport)
			return nil, &TransportError{Endpoint: r.endpoint, Err: err}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.resolveURL(r.endpoint), r.body)
	if err != nil {
		return nil, fmt.Errorf("could not create request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)
	req.Header.Set("Accept", "application/json")
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	if r.auth {
		req.Header.Set("Authorization", "Bearer "+c.tokens.Token())
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req) //nolint:gosec // URL constructed from validated baseURL via resolveURL
	if err != nil {
		c.logger.Debug("request failed", "operation", r.operation, "request_id", requestID, "error", err)
		c.metrics.APIRequest(r.operation, metrics.OutcomeTransport)
		return nil, &TransportError{Endpoint: r.endpoint, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.metrics.APIRequest(r.operation, metrics.OutcomeTransport)
		return nil, &TransportError{Endpoint: r.endpoint, Err: fmt.Errorf("could not read response body: %w", err)}
	}

	c.logger.Debug("request done", "operation", r.operation, "request_id", requestID,
		"status", resp.StatusCode, "duration", time.Since(start))
	c.captureResponse(r.endpoint, body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.metrics.APIRequest(r.operation, metrics.OutcomeAPIError)
		return nil, newAPIError(resp.StatusCode, body)
	}

	c.metrics.APIRequest(r.operation, metrics.OutcomeOK)
	return body, nil
}

// doJSON sends the request and unmarshals a 2xx JSON response into T.
func doJSON[T any](ctx context.Context, c *Client, r request) (*T, error) {
	body, err := c.do(ctx, r)
	if err != nil {
		return nil, err
	}

	var result T
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("could not unmarshal %s response: %w", r.operation, err)
	}
	return &result, nil
}

// captureResponse saves the API response body to a file if capturing is enabled.
// The filename is generated from the endpoint name and a timestamp.
func (c *Client) captureResponse(endpoint string, body []byte) {
	if c.captureDir == "" {
		return
	}

	// Sanitize endpoint for filename
	filename := strings.ReplaceAll(endpoint, "/", "_")
	filename = strings.TrimPrefix(filename, "_")
	timestamp := time.Now().Format("20060102_150405.000000")
	filename = fmt.Sprintf("%s_%s.json", filename, timestamp)

	path := filepath.Join(c.captureDir, filename)

	// Pretty-print JSON if possible
	var prettyJSON bytes.Buffer
	if err := json.Indent(&prettyJSON, body, "", "  "); err == nil {
		body = prettyJSON.Bytes()
	}

	// WriteFile error is non-critical for capturing - log and continue
	if err := os.WriteFile(path, body, 0600); err != nil {
		c.logger.Warn("failed to capture response", "path", path, "error", err)
	}
}
