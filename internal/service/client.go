package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultBaseURL    = "http://127.0.0.1:8000"
	DefaultUploadPath = "/upload"
	DefaultQueryPath  = "/query"

	// CSVMediaType is the only media type the upload endpoint is fed.
	CSVMediaType = "text/csv"

	maxResponseBytes = 4 << 20
)

// Client talks to the remote analysis service. It issues each request exactly
// once: no retries, no backoff.
type Client struct {
	httpClient *http.Client
	baseURL    string
	uploadPath string
	queryPath  string
}

// NewClient returns a client for baseURL using the default endpoint paths.
// A zero httpTimeout leaves the transport defaults in charge.
func NewClient(baseURL string, httpTimeout time.Duration) *Client {
	return NewClientWithPaths(baseURL, DefaultUploadPath, DefaultQueryPath, httpTimeout)
}

// NewClientWithPaths allows overriding the endpoint paths.
func NewClientWithPaths(baseURL, uploadPath, queryPath string, httpTimeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if uploadPath == "" {
		uploadPath = DefaultUploadPath
	}
	if queryPath == "" {
		queryPath = DefaultQueryPath
	}
	if httpTimeout < 0 {
		httpTimeout = 0
	}
	return &Client{
		httpClient: &http.Client{Timeout: httpTimeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		uploadPath: "/" + strings.TrimLeft(uploadPath, "/"),
		queryPath:  "/" + strings.TrimLeft(queryPath, "/"),
	}
}

// BaseURL returns the service origin this client targets.
func (c *Client) BaseURL() string { return c.baseURL }

// Upload posts the file content as the single multipart field "file".
func (c *Client) Upload(ctx context.Context, filename string, content io.Reader) (*UploadResponse, error) {
	if content == nil {
		return nil, errors.New("upload content cannot be nil")
	}
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	h.Set("Content-Type", CSVMediaType)
	part, err := mw.CreatePart(h)
	if err != nil {
		return nil, fmt.Errorf("build multipart: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return nil, fmt.Errorf("read upload content: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("build multipart: %w", err)
	}

	resp, requestID, err := c.post(ctx, c.uploadPath, mw.FormDataContentType(), &body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	out := &UploadResponse{RequestID: requestID}
	b, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	// the message is optional, and so is a JSON body at all
	if len(bytes.TrimSpace(b)) > 0 {
		var payload map[string]any
		if err := json.Unmarshal(b, &payload); err == nil {
			if msg, ok := payload["message"].(string); ok {
				out.Message = msg
			}
		}
	}
	return out, nil
}

// Query posts {"query": question} and decodes the structured answer.
// A payload without analysis_result is rejected with a *SchemaError.
func (c *Client) Query(ctx context.Context, question string) (*QueryResponse, error) {
	payload, err := json.Marshal(QueryRequest{Query: question})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	resp, requestID, err := c.post(ctx, c.queryPath, "application/json", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	var wire queryPayload
	if err := json.Unmarshal(b, &wire); err != nil {
		return nil, &SchemaError{Endpoint: "query", Err: err}
	}
	if wire.AnalysisResult == nil {
		return nil, &SchemaError{Endpoint: "query", Field: "analysis_result"}
	}
	return &QueryResponse{
		AnalysisResult: *wire.AnalysisResult,
		Insights:       wire.Insights,
		RequestID:      requestID,
	}, nil
}

// post sends one request and returns the response only when it is 2xx.
func (c *Client) post(ctx context.Context, path, contentType string, body io.Reader) (*http.Response, string, error) {
	endpoint := c.baseURL + path
	requestID := uuid.NewString()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return nil, "", fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-Id", requestID)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, "", ctx.Err()
		}
		return nil, "", &UnreachableError{Host: c.baseURL, Err: err}
	}
	requestID = extractRequestID(resp, requestID)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		return nil, requestID, readAPIError(resp, requestID)
	}
	return resp, requestID, nil
}
