// Raw HTTP access shared by the bangumi site scraper and the v0 API client
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/net/html/charset"
)

// APIService performs raw requests against one base URL with a fixed User-Agent.
type APIService struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
}

// NewAPIService creates a new APIService for baseURL.
//
// A nil client falls back to [http.DefaultClient].
func NewAPIService(baseURL, userAgent string, client *http.Client) *APIService {
	if client == nil {
		client = http.DefaultClient
	}

	return &APIService{
		baseURL:    baseURL,
		userAgent:  userAgent,
		httpClient: client,
	}
}

// APIResponse represents a raw API response with status and body.
//
// Body is always UTF-8: a charset declared in Content-Type is transcoded, anything else is taken as UTF-8.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// OK reports a 2xx status.
func (r *APIResponse) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Get performs a GET request to the specified path and returns the raw response.
func (a *APIService) Get(ctx context.Context, path string) (*APIResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	return a.do(req)
}

// Post performs a POST request with the given JSON data and returns the raw response.
func (a *APIService) Post(ctx context.Context, path string, data []byte) (*APIResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	return a.do(req)
}

// PostJSON marshals payload and posts it to path.
func (a *APIService) PostJSON(ctx context.Context, path string, payload any) (*APIResponse, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	return a.Post(ctx, path, data)
}

func (a *APIService) do(req *http.Request) (*APIResponse, error) {
	if a.userAgent != "" {
		req.Header.Set("User-Agent", a.userAgent)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := readUTF8(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	return &APIResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       body,
	}, nil
}

// readUTF8 reads the body and transcodes it only when the server declared a non-UTF-8 charset.
//
// Bodies without a declared charset or byte order mark are returned as UTF-8 unchanged.
func readUTF8(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	enc, name, certain := charset.DetermineEncoding(body, resp.Header.Get("Content-Type"))
	if !certain || name == "utf-8" {
		return body, nil
	}

	decoded, err := enc.NewDecoder().Bytes(body)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s body: %w", name, err)
	}
	return decoded, nil
}
