package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"time"
)

// StoreError represents a non-2xx response from the blob store.
type StoreError struct {
	StatusCode int
	Body       string
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("blob store request failed: HTTP %d: %s", e.StatusCode, e.Body)
}

// HTTPStore talks to a remote blob service exposing GET/PUT/HEAD under
// /blobs/{path} and listing under /blobs?prefix=.
type HTTPStore struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewHTTPStore(baseURL, token string, logger *slog.Logger) *HTTPStore {
	return &HTTPStore{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 10 * time.Minute, // media blobs are large
		},
		logger: logger,
	}
}

func (s *HTTPStore) Exists(ctx context.Context, path string) (bool, error) {
	req, err := s.newRequest(ctx, http.MethodHead, path, nil)
	if err != nil {
		return false, err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return true, nil
	case resp.StatusCode == http.StatusNotFound:
		return false, nil
	default:
		return false, &StoreError{StatusCode: resp.StatusCode}
	}
}

func (s *HTTPStore) Download(ctx context.Context, path, localPath string) error {
	req, err := s.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &StoreError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	if err := writeFileFrom(resp.Body, localPath); err != nil {
		return fmt.Errorf("write staged blob: %w", err)
	}

	s.logger.Debug("blob downloaded", "path", path)
	return nil
}

func (s *HTTPStore) Upload(ctx context.Context, localPath, path string) error {
	file, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("open upload source: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return err
	}

	req, err := s.newRequest(ctx, http.MethodPut, path, file)
	if err != nil {
		return err
	}
	req.ContentLength = info.Size()
	req.Header.Set("Content-Type", "application/octet-stream")

	s.logger.Info("uploading blob", "path", path, "bytes", info.Size())

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &StoreError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return nil
}

func (s *HTTPStore) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	u := fmt.Sprintf("%s/blobs?prefix=%s", s.baseURL, url.QueryEscape(prefix))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.token)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &StoreError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var result struct {
		Objects []ObjectInfo `json:"objects"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode list response: %w", err)
	}
	return result.Objects, nil
}

func (s *HTTPStore) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	u := fmt.Sprintf("%s/blobs/%s", s.baseURL, path)
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	return req, nil
}
