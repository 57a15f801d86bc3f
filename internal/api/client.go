// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/Kimyongari/Finsight/internal/model"
)

// Configuration constants for the CorpAdvisor backend.
const (
	// DefaultTimeout is the default timeout for API requests. Query
	// endpoints run a full retrieval pipeline server-side, so this is
	// generous.
	DefaultTimeout = 120 * time.Second

	// MaxResponseSize is the maximum allowed JSON response body size.
	// SECURITY: Response size limit prevents memory exhaustion.
	MaxResponseSize = 10 * 1024 * 1024 // 10MB

	// MaxPDFSize is the maximum allowed size for a downloaded PDF.
	MaxPDFSize = 100 * 1024 * 1024 // 100MB

	// defaultRateLimit is the client-side request rate toward the backend.
	defaultRateLimit = rate.Limit(5) // requests per second
	defaultRateBurst = 10
)

// PERFORMANCE: Connection pooling reduces TCP handshake overhead.
// One shared HTTP client for all backend requests.
var sharedHTTPClient = &http.Client{
	Transport: &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	},
	Timeout: DefaultTimeout,
}

// Error variables for common backend errors.
var (
	// ErrNotConfigured indicates the backend base URL is not set.
	ErrNotConfigured = errors.New("backend URL not configured")

	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = errors.New("not found")

	// ErrRateLimited indicates too many requests were made.
	ErrRateLimited = errors.New("rate limited")

	// ErrServerError indicates the backend failed to process the request.
	ErrServerError = errors.New("server error")
)

// APIError represents an error response from the backend.
type APIError struct {
	Message string
	Status  int
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("backend error (HTTP %d): %s", e.Status, e.Message)
}

// Client is a client for the CorpAdvisor backend.
//
// The dispatcher never retries: a transport error, non-2xx status, or
// malformed body surfaces directly so the placeholder can fail fast.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a client for the backend at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: sharedHTTPClient,
		limiter:    rate.NewLimiter(defaultRateLimit, defaultRateBurst),
	}
}

// WithTimeout sets the request timeout. This detaches the client from the
// shared pool transport settings only in so far as the timeout differs.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	client := *c.httpClient
	client.Timeout = timeout
	c.httpClient = &client
	return c
}

// WithHTTPClient replaces the underlying HTTP client. Used by tests.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// WithRateLimit overrides the client-side request rate.
func (c *Client) WithRateLimit(limit rate.Limit, burst int) *Client {
	c.limiter = rate.NewLimiter(limit, burst)
	return c
}

// BaseURL returns the configured backend base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// IsConfigured returns true if a backend URL is set.
func (c *Client) IsConfigured() bool {
	return c.baseURL != ""
}

// =============================================================================
// REQUEST PLUMBING
// =============================================================================

// logRequest logs an API request without the body (queries may contain
// sensitive financial detail).
func (c *Client) logRequest(method, path string) {
	log.Printf("api: %s %s", method, path)
}

// logResponse logs status and duration only, never the response body.
func (c *Client) logResponse(path string, status int, duration time.Duration) {
	log.Printf("api: %s -> %d (%v)", path, status, duration)
}

// do performs one request against the backend with rate limiting and a
// size-capped body read. No retries.
func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, maxSize int64) ([]byte, error) {
	if !c.IsConfigured() {
		return nil, ErrNotConfigured
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	c.logRequest(method, path)
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	c.logResponse(path, resp.StatusCode, time.Since(start))

	respBody, err := readLimited(resp.Body, maxSize)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, c.handleErrorResponse(resp.StatusCode, respBody)
	}
	return respBody, nil
}

// postJSON marshals reqBody, posts it, and decodes the JSON response into out.
func (c *Client) postJSON(ctx context.Context, path string, reqBody, out any) error {
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	respBody, err := c.do(ctx, http.MethodPost, path, bytes.NewReader(bodyBytes), "application/json", MaxResponseSize)
	if err != nil {
		return err
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// readLimited reads a response body with a size cap.
// SECURITY: prevents memory exhaustion on a misbehaving backend.
func readLimited(r io.Reader, maxSize int64) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r, maxSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(body)) == maxSize {
		return nil, fmt.Errorf("response exceeded maximum size of %d bytes", maxSize)
	}
	return body, nil
}

// handleErrorResponse converts HTTP error responses to typed Go errors.
func (c *Client) handleErrorResponse(statusCode int, body []byte) error {
	message := strings.TrimSpace(string(body))
	var apiErr apiErrorResponse
	if err := json.Unmarshal(body, &apiErr); err == nil {
		if apiErr.Detail != "" {
			message = apiErr.Detail
		} else if apiErr.Message != "" {
			message = apiErr.Message
		}
	}

	switch {
	case statusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, message)
	case statusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", ErrRateLimited, message)
	case statusCode >= 500:
		return fmt.Errorf("%w: %s", ErrServerError, message)
	default:
		return &APIError{Message: message, Status: statusCode}
	}
}

// =============================================================================
// QUERY ENDPOINTS
// =============================================================================

// AnalyzeIntention runs the intent pre-analysis for a query and returns the
// backend's routing verdict (IntentChat for small talk, anything else means
// the query should go to the selected retrieval pipeline).
func (c *Client) AnalyzeIntention(ctx context.Context, query string) (string, error) {
	var resp intentionResponse
	if err := c.postJSON(ctx, "/rag/analyze_intention", queryRequest{Query: query}, &resp); err != nil {
		return "", fmt.Errorf("analyze intention: %w", err)
	}
	return resp.Next, nil
}

// Guide answers a small-talk query without retrieval. Guide answers never
// carry citations.
func (c *Client) Guide(ctx context.Context, query string) (*QueryResult, error) {
	var resp queryResponse
	if err := c.postJSON(ctx, "/rag/guide", queryRequest{Query: query}, &resp); err != nil {
		return nil, fmt.Errorf("guide: %w", err)
	}
	return &QueryResult{Answer: resp.Answer, Citations: []model.Citation{}}, nil
}

// modeEndpoints maps each query mode to its backend route.
var modeEndpoints = map[model.QueryMode]string{
	model.ModeRAG:         "/rag/query",
	model.ModeAdvancedRAG: "/rag/advanced_query",
	model.ModeWebSearch:   "/web-agent/agent/web-search",
}

// Query runs the retrieval pipeline selected by mode and returns the answer
// with normalized citations.
func (c *Client) Query(ctx context.Context, query string, mode model.QueryMode) (*QueryResult, error) {
	endpoint, ok := modeEndpoints[mode]
	if !ok {
		return nil, fmt.Errorf("unknown query mode %q", mode)
	}

	var resp queryResponse
	if err := c.postJSON(ctx, endpoint, queryRequest{Query: query}, &resp); err != nil {
		return nil, fmt.Errorf("query %s: %w", mode, err)
	}
	return &QueryResult{
		Answer:    resp.Answer,
		Citations: normalizeDocuments(resp.RetrievedDocuments),
	}, nil
}

// =============================================================================
// COLLECTION ENDPOINTS
// =============================================================================

// ShowFilesInCollection lists the file names currently in the vector
// collection.
func (c *Client) ShowFilesInCollection(ctx context.Context) ([]string, error) {
	respBody, err := c.do(ctx, http.MethodGet, "/rag/show_files_in_collection", nil, "", MaxResponseSize)
	if err != nil {
		return nil, fmt.Errorf("show files: %w", err)
	}

	var resp collectionResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse collection response: %w", err)
	}

	names := make([]string, 0, len(resp.UniqueFileNameAndChunk))
	for _, e := range resp.UniqueFileNameAndChunk {
		names = append(names, e.FileName)
	}
	return names, nil
}

// DeleteFile removes every chunk of the named file from the collection.
func (c *Client) DeleteFile(ctx context.Context, fileName string) error {
	if err := c.postJSON(ctx, "/rag/delete_objects_from_file_name", fileNameRequest{FileName: fileName}, nil); err != nil {
		return fmt.Errorf("delete file: %w", err)
	}
	return nil
}

// Register chunks the named uploaded files into the vector collection.
func (c *Client) Register(ctx context.Context, fileNames []string) error {
	if err := c.postJSON(ctx, "/rag/register", registerRequest{FileName: fileNames}, nil); err != nil {
		return fmt.Errorf("register: %w", err)
	}
	return nil
}

// =============================================================================
// FILE ENDPOINTS
// =============================================================================

// UploadPDF uploads one PDF as multipart form data (field "files").
func (c *Client) UploadPDF(ctx context.Context, fileName string, content io.Reader) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("files", fileName)
	if err != nil {
		return fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return fmt.Errorf("failed to buffer upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("failed to finalize form: %w", err)
	}

	if _, err := c.do(ctx, http.MethodPost, "/files/upload-pdf", &buf, mw.FormDataContentType(), MaxResponseSize); err != nil {
		return fmt.Errorf("upload pdf: %w", err)
	}
	return nil
}

// DownloadPDF fetches the named PDF from the backend and returns its bytes.
func (c *Client) DownloadPDF(ctx context.Context, fileName string) ([]byte, error) {
	bodyBytes, err := json.Marshal(fileNameRequest{FileName: fileName})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	data, err := c.do(ctx, http.MethodPost, "/files/download-pdf", bytes.NewReader(bodyBytes), "application/json", MaxPDFSize)
	if err != nil {
		return nil, fmt.Errorf("download pdf: %w", err)
	}
	return data, nil
}

// =============================================================================
// FINANCIAL ENDPOINTS
// =============================================================================

// CorpList searches registered companies by keyword.
func (c *Client) CorpList(ctx context.Context, keyword string) ([]CorpInfo, error) {
	var resp corpListResponse
	if err := c.postJSON(ctx, "/financial/corp_list", corpListRequest{Keyword: keyword}, &resp); err != nil {
		return nil, fmt.Errorf("corp list: %w", err)
	}
	return resp.Data, nil
}

// Report fetches the generated advisory report for a company code.
func (c *Client) Report(ctx context.Context, corpCode string) (string, error) {
	path := "/report/" + url.PathEscape(corpCode)
	respBody, err := c.do(ctx, http.MethodGet, path, nil, "", MaxResponseSize)
	if err != nil {
		return "", fmt.Errorf("report: %w", err)
	}
	return string(respBody), nil
}
