package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/resume-rag/internal/core/domain"
	"github.com/kirillkom/resume-rag/internal/infrastructure/resilience"
)

const upsertBatchSize = 128

// Client is a VectorIndex backed by the Qdrant REST API. Each chunk is one
// point whose payload carries the chunk fields.
type Client struct {
	baseURL    string
	collection string
	httpClient *http.Client
	executor   *resilience.Executor
}

type Option func(*Client)

func WithExecutor(executor *resilience.Executor) Option {
	return func(c *Client) {
		c.executor = executor
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

func New(baseURL, collection string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		collection: collection,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Reset drops the collection and recreates it for vectors of vectorSize.
func (c *Client) Reset(ctx context.Context, vectorSize int) error {
	if vectorSize <= 0 {
		return domain.WrapError(domain.ErrInvalidInput, "reset collection", fmt.Errorf("vector size %d", vectorSize))
	}

	path := "/collections/" + c.collection
	status, err := c.do(ctx, "delete_collection", http.MethodDelete, path, nil, nil)
	if err != nil && status != http.StatusNotFound {
		return err
	}

	reqBody := map[string]any{
		"vectors": map[string]any{
			"size":     vectorSize,
			"distance": "Cosine",
		},
	}
	if _, err := c.do(ctx, "create_collection", http.MethodPut, path, reqBody, nil); err != nil {
		return err
	}
	return nil
}

func (c *Client) IndexChunks(ctx context.Context, chunks []domain.Chunk, vectors [][]float32) error {
	if len(chunks) == 0 {
		return nil
	}
	if len(chunks) != len(vectors) {
		return domain.WrapError(domain.ErrInvalidInput, "index chunks", fmt.Errorf("chunks/vectors mismatch: %d/%d", len(chunks), len(vectors)))
	}

	type point struct {
		ID      string         `json:"id"`
		Vector  []float32      `json:"vector"`
		Payload map[string]any `json:"payload"`
	}

	path := fmt.Sprintf("/collections/%s/points?wait=true", c.collection)
	for start := 0; start < len(chunks); start += upsertBatchSize {
		end := min(start+upsertBatchSize, len(chunks))
		points := make([]point, 0, end-start)
		for i := start; i < end; i++ {
			ch := chunks[i]
			points = append(points, point{
				ID:     ch.ID,
				Vector: vectors[i],
				Payload: map[string]any{
					"source_id":    ch.SourceID,
					"section":      string(ch.Section),
					"identity_key": ch.IdentityKey,
					"text":         ch.Text,
				},
			})
		}
		if _, err := c.do(ctx, "upsert", http.MethodPut, path, map[string]any{"points": points}, nil); err != nil {
			return err
		}
	}
	return nil
}

// Search returns hits ordered by cosine similarity, highest first.
func (c *Client) Search(
	ctx context.Context,
	queryVector []float32,
	limit int,
	sections []domain.Section,
) ([]domain.RetrievedChunk, error) {
	reqBody := map[string]any{
		"vector":       queryVector,
		"limit":        limit,
		"with_payload": true,
	}
	if filter := sectionFilter(sections); filter != nil {
		reqBody["filter"] = filter
	}

	var searchResp struct {
		Result []struct {
			ID      any            `json:"id"`
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	path := fmt.Sprintf("/collections/%s/points/search", c.collection)
	status, err := c.do(ctx, "search", http.MethodPost, path, reqBody, &searchResp)
	if err != nil {
		if status == http.StatusNotFound {
			return nil, domain.WrapError(domain.ErrIndexMissing, "qdrant search", err)
		}
		return nil, err
	}

	out := make([]domain.RetrievedChunk, 0, len(searchResp.Result))
	for _, r := range searchResp.Result {
		out = append(out, domain.RetrievedChunk{
			Chunk: domain.Chunk{
				ID:          fmt.Sprint(r.ID),
				SourceID:    getStringPayload(r.Payload, "source_id"),
				Section:     domain.Section(getStringPayload(r.Payload, "section")),
				IdentityKey: getStringPayload(r.Payload, "identity_key"),
				Text:        getStringPayload(r.Payload, "text"),
			},
			Score:  r.Score,
			Method: domain.MethodSemantic,
		})
	}
	return out, nil
}

// sectionFilter builds no filter for no sections, an exact match for one and
// an OR of exact matches for several.
func sectionFilter(sections []domain.Section) map[string]any {
	if len(sections) == 0 {
		return nil
	}
	conditions := make([]map[string]any, 0, len(sections))
	for _, s := range sections {
		conditions = append(conditions, map[string]any{
			"key":   "section",
			"match": map[string]any{"value": string(s)},
		})
	}
	if len(conditions) == 1 {
		return map[string]any{"must": conditions}
	}
	return map[string]any{"should": conditions}
}

// do sends one request through the executor and returns the last HTTP status seen.
func (c *Client) do(ctx context.Context, operation, method, path string, payload any, out any) (int, error) {
	var status int
	call := func(callCtx context.Context) error {
		var body *bytes.Reader
		if payload != nil {
			raw, err := json.Marshal(payload)
			if err != nil {
				return fmt.Errorf("marshal %s body: %w", operation, err)
			}
			body = bytes.NewReader(raw)
		} else {
			body = bytes.NewReader(nil)
		}

		req, err := http.NewRequestWithContext(callCtx, method, c.baseURL+path, body)
		if err != nil {
			return fmt.Errorf("create %s request: %w", operation, err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("qdrant %s request: %w", operation, err)
		}
		defer resp.Body.Close()

		status = resp.StatusCode
		if resp.StatusCode >= 300 {
			return resilience.NewHTTPStatusError("qdrant", operation, resp)
		}
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode %s response: %w", operation, err)
		}
		return nil
	}

	if c.executor == nil {
		return status, call(ctx)
	}
	err := c.executor.Execute(ctx, "qdrant."+operation, call, resilience.ClassifyHTTPError)
	return status, resilience.WrapTemporaryIfNeeded("qdrant "+operation, err)
}

func getStringPayload(payload map[string]any, key string) string {
	v, ok := payload[key]
	if !ok || v == nil {
		return ""
	}
	s, ok := v.(string)
	if ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
