// Package rag is a thin client for the external document-query service. The
// service's internals are out of scope here: it is reached only over HTTP and
// its success bodies are passed through as-is.
package rag

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

// APIError is returned when the collaborator responds with a non-2xx status.
// It is distinct from transport errors (no response at all), which are
// returned as wrapped errors from the underlying HTTP client.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("rag service error (status %d): %s", e.StatusCode, e.Message)
}

// Client represents an HTTP client for the RAG document-query API
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a new RAG API client
func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// SetHTTPClient sets a custom HTTP client
func (c *Client) SetHTTPClient(httpClient *http.Client) {
	c.httpClient = httpClient
}

// QueryRequest represents the query request body
type QueryRequest struct {
	Question string `json:"question"`
	Context  any    `json:"context,omitempty"`
}

// ContextRequest represents the context-fetch request body
type ContextRequest struct {
	Query string `json:"query"`
}

// UploadDocument uploads a binary document for indexing. The success body is
// service-defined JSON and is returned undecoded.
func (c *Client) UploadDocument(ctx context.Context, filename string, file io.Reader) (json.RawMessage, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/rag/upload", &body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	return c.do(req, "Failed to upload document")
}

// Query submits a natural-language question with optional context
func (c *Client) Query(ctx context.Context, question string, queryContext any) (json.RawMessage, error) {
	return c.postJSON(ctx, "/rag/query", QueryRequest{
		Question: question,
		Context:  queryContext,
	}, "Failed to get response")
}

// GetDocumentContext fetches contextual snippets for a query
func (c *Client) GetDocumentContext(ctx context.Context, query string) (json.RawMessage, error) {
	return c.postJSON(ctx, "/rag/context", ContextRequest{Query: query}, "Failed to get context")
}

func (c *Client) postJSON(ctx context.Context, path string, reqBody any, fallbackMsg string) (json.RawMessage, error) {
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, fallbackMsg)
}

// do sends the request and returns the raw success body. Non-2xx responses
// become an *APIError carrying the body's `message` field when present;
// request failures propagate as wrapped transport errors.
func (c *Client) do(req *http.Request, fallbackMsg string) (json.RawMessage, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    errorMessage(body, fallbackMsg),
		}
	}

	return json.RawMessage(body), nil
}

// errorMessage extracts a human-readable message from an error body
func errorMessage(body []byte, fallback string) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Message != "" {
		return payload.Message
	}
	return fallback
}
