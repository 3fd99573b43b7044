// Package gateway is the HTTP client of the remote judging backend.
// It is pure transport: one call per method, no retries and no caching.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"codepractice/internal/judge/language"
	"codepractice/internal/judge/model"
	appErr "codepractice/pkg/errors"
)

const (
	defaultBaseURL = "http://localhost:2358"
	defaultAPIHost = "judge0-ce.p.rapidapi.com"
	defaultTimeout = 10 * time.Second
	maxBodyBytes   = 4 << 20

	apiKeyHeader  = "X-RapidAPI-Key"
	apiHostHeader = "X-RapidAPI-Host"
)

// Config holds remote judge settings.
type Config struct {
	BaseURL string        `yaml:"baseURL"`
	APIKey  string        `yaml:"apiKey"`
	APIHost string        `yaml:"apiHost"`
	Timeout time.Duration `yaml:"timeout"`
}

// Client talks to the remote judge.
type Client struct {
	baseURL string
	apiKey  string
	apiHost string
	http    *http.Client
}

// NewClient creates a client. httpClient may be nil.
func NewClient(cfg Config, httpClient *http.Client) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.APIHost == "" {
		cfg.APIHost = defaultAPIHost
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		apiHost: cfg.APIHost,
		http:    httpClient,
	}
}

type submitRequest struct {
	SourceCode string `json:"source_code"`
	LanguageID int    `json:"language_id"`
	Stdin      string `json:"stdin"`
	Wait       bool   `json:"wait"`
}

type submitResponse struct {
	Token string `json:"token"`
}

// Submit creates a new remote run and returns its token.
func (c *Client) Submit(ctx context.Context, code string, lang language.Language, stdin string) (string, error) {
	langID := lang.RemoteID()
	if langID == 0 {
		return "", appErr.Newf(appErr.LanguageNotSupported, "language %q is not supported", lang)
	}
	body, err := json.Marshal(submitRequest{
		SourceCode: code,
		LanguageID: langID,
		Stdin:      stdin,
		Wait:       false,
	})
	if err != nil {
		return "", appErr.Wrapf(err, appErr.JudgeGatewayError, "encode submission failed")
	}

	query := url.Values{}
	query.Set("base64_encoded", "false")
	query.Set("wait", "false")

	var resp submitResponse
	if err := c.do(ctx, http.MethodPost, "/submissions?"+query.Encode(), body, &resp); err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", appErr.New(appErr.JudgeGatewayError).WithMessage("judge returned an empty token")
	}
	return resp.Token, nil
}

// Fetch returns the current state of a run.
func (c *Client) Fetch(ctx context.Context, token string) (model.ExecutionResult, error) {
	if token == "" {
		return model.ExecutionResult{}, appErr.New(appErr.JudgeGatewayError).WithMessage("token is required")
	}
	query := url.Values{}
	query.Set("base64_encoded", "false")
	query.Set("fields", "*")

	var result model.ExecutionResult
	path := "/submissions/" + url.PathEscape(token) + "?" + query.Encode()
	if err := c.do(ctx, http.MethodGet, path, nil, &result); err != nil {
		return model.ExecutionResult{}, err
	}
	return result, nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out interface{}) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return appErr.Wrapf(err, appErr.JudgeGatewayError, "build judge request failed")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set(apiKeyHeader, c.apiKey)
		req.Header.Set(apiHostHeader, c.apiHost)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return appErr.Wrapf(err, appErr.JudgeGatewayError, "judge request failed: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return appErr.Wrapf(err, appErr.JudgeGatewayError, "read judge response failed")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return appErr.Newf(appErr.JudgeGatewayError, "judge responded %d: %s", resp.StatusCode, snippet(data)).
			WithDetail("status", resp.StatusCode)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return appErr.Wrapf(err, appErr.JudgeGatewayError, "decode judge response failed: %v", err)
	}
	return nil
}

func snippet(data []byte) string {
	const limit = 200
	s := strings.TrimSpace(string(data))
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}
