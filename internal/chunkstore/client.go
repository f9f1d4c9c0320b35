package chunkstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/dgallion1/quizprep/internal/document"
)

// Client communicates with the chunk indexing collaborator's HTTP API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// chunkRecord is the wire shape for a persisted chunk.
type chunkRecord struct {
	ID          string   `json:"id"`
	DocumentID  string   `json:"document_id"`
	Text        string   `json:"text"`
	TokenCount  int      `json:"token_count"`
	HeadingPath []string `json:"heading_path,omitempty"`
	PageStart   int      `json:"page_start"`
	PageEnd     int      `json:"page_end"`
	Index       int      `json:"index"`
	Overlap     bool     `json:"has_leading_overlap"`
}

// PutChunk persists one chunk under its document and returns the record id
// assigned here.
func (c *Client) PutChunk(ctx context.Context, docID string, chunk document.Chunk) (string, error) {
	rec := chunkRecord{
		ID:          uuid.NewString(),
		DocumentID:  docID,
		Text:        chunk.Text,
		TokenCount:  chunk.TokenCount,
		HeadingPath: chunk.HeadingPath,
		PageStart:   chunk.PageStart,
		PageEnd:     chunk.PageEnd,
		Index:       chunk.Index,
		Overlap:     chunk.HasLeadingOverlap,
	}
	body, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("marshal chunk: %w", err)
	}
	url := fmt.Sprintf("%s/documents/%s/chunks/%s", c.baseURL, docID, rec.ID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("put chunk: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("put chunk %s: status %d: %s", rec.ID, resp.StatusCode, string(respBody))
	}
	return rec.ID, nil
}

// ListChunks returns a document's persisted chunks in index order.
func (c *Client) ListChunks(ctx context.Context, docID string) ([]document.Chunk, error) {
	url := fmt.Sprintf("%s/documents/%s/chunks", c.baseURL, docID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("list chunks: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("list chunks %s: status %d: %s", docID, resp.StatusCode, string(respBody))
	}

	var result struct {
		Chunks []chunkRecord `json:"chunks"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode chunks: %w", err)
	}

	chunks := make([]document.Chunk, 0, len(result.Chunks))
	for _, rec := range result.Chunks {
		chunks = append(chunks, document.Chunk{
			ID:                rec.ID,
			DocumentID:        rec.DocumentID,
			Text:              rec.Text,
			TokenCount:        rec.TokenCount,
			HeadingPath:       rec.HeadingPath,
			PageStart:         rec.PageStart,
			PageEnd:           rec.PageEnd,
			Index:             rec.Index,
			HasLeadingOverlap: rec.Overlap,
		})
	}
	return chunks, nil
}

// DeleteDocument removes a document's chunks.
func (c *Client) DeleteDocument(ctx context.Context, docID string) error {
	url := fmt.Sprintf("%s/documents/%s", c.baseURL, docID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("delete document %s: status %d: %s", docID, resp.StatusCode, string(respBody))
	}
	return nil
}

// Close releases any resources (currently a no-op).
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}
