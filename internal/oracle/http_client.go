package oracle

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// OracleError represents a non-2xx response from the oracle service.
type OracleError struct {
	StatusCode int
	Body       string
}

func (e *OracleError) Error() string {
	return fmt.Sprintf("oracle request failed: HTTP %d: %s", e.StatusCode, e.Body)
}

// HTTPClient calls a hosted vision/text model behind a JSON API.
type HTTPClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewHTTPClient(baseURL, apiKey string, logger *slog.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
		logger: logger,
	}
}

type generateRequest struct {
	Prompt      string `json:"prompt"`
	ImageBase64 string `json:"image_base64,omitempty"`
}

type generateResponse struct {
	Text string `json:"text"`
}

func (c *HTTPClient) CaptionImage(ctx context.Context, image []byte, prompt string) (string, error) {
	return c.generate(ctx, generateRequest{
		Prompt:      prompt,
		ImageBase64: base64.StdEncoding.EncodeToString(image),
	})
}

func (c *HTTPClient) Complete(ctx context.Context, prompt string) (string, error) {
	return c.generate(ctx, generateRequest{Prompt: prompt})
}

func (c *HTTPClient) generate(ctx context.Context, payload generateRequest) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal oracle payload: %w", err)
	}

	url := fmt.Sprintf("%s/v1/generate", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &OracleError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var result generateResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("decode oracle response: %w", err)
	}

	c.logger.Debug("oracle call completed", "response_len", len(result.Text))
	return result.Text, nil
}
