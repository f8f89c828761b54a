// Package docstore is the HTTP client for the metadata document API. The
// API is a thin JSON front over the document database: each operation is a
// POST of a filter or a document to /v1/<database>/<collection>/<op>.
package docstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/openacq/metamigrate/internal/config"
	merrors "github.com/openacq/metamigrate/internal/errors"
)

// Filter is a document query, passed to the API as-is.
type Filter map[string]any

// Client talks to one collection of the document API.
type Client struct {
	baseURL    string
	database   string
	collection string
	apiKey     string
	http       *http.Client
}

// New builds a client for the given collection using the store settings.
func New(cfg config.StoreConfig, collection string) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("%w: document store URL is not configured", merrors.ErrConnectivity)
	}
	if collection == "" {
		return nil, fmt.Errorf("%w: collection name is empty", merrors.ErrConnectivity)
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = time.Duration(config.DefaultTimeoutSeconds) * time.Second
	}
	return &Client{
		baseURL:    cfg.URL,
		database:   cfg.Database,
		collection: collection,
		apiKey:     cfg.APIKey,
		http:       &http.Client{Timeout: timeout},
	}, nil
}

// Collection returns the collection this client is bound to.
func (c *Client) Collection() string {
	return c.collection
}

// findRequest is the body of find and count calls.
type findRequest struct {
	Filter Filter `json:"filter"`
	Limit  int    `json:"limit,omitempty"`
	Skip   int    `json:"skip,omitempty"`
}

// Retrieve returns up to limit documents matching the filter. A zero limit
// means no limit; skip supports paging.
func (c *Client) Retrieve(ctx context.Context, filter Filter, limit, skip int) ([]map[string]any, error) {
	var docs []map[string]any
	err := c.post(ctx, "find", findRequest{Filter: filter, Limit: limit, Skip: skip}, &docs)
	if err != nil {
		return nil, err
	}
	return docs, nil
}

// RetrieveOne fetches a single record by exact name, falling back to a
// regex match when the exact name finds nothing.
func (c *Client) RetrieveOne(ctx context.Context, name string) (map[string]any, error) {
	docs, err := c.Retrieve(ctx, Filter{"name": name}, 1, 0)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		docs, err = c.Retrieve(ctx, Filter{"name": Filter{"$regex": name}}, 1, 0)
		if err != nil {
			return nil, err
		}
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w: no record named %q in %s", merrors.ErrNotFound, name, c.collection)
	}
	return docs[0], nil
}

// Count returns the number of documents matching the filter.
func (c *Client) Count(ctx context.Context, filter Filter) (int, error) {
	var out struct {
		Count int `json:"count"`
	}
	if err := c.post(ctx, "count", findRequest{Filter: filter}, &out); err != nil {
		return 0, err
	}
	return out.Count, nil
}

// Insert writes a new document, stamping a fresh UUID _id when the document
// has none. The stamped id is returned.
func (c *Client) Insert(ctx context.Context, doc map[string]any) (string, error) {
	id, _ := doc["_id"].(string)
	if id == "" {
		id = uuid.NewString()
		doc["_id"] = id
	}
	if err := c.post(ctx, "insert_one", doc, nil); err != nil {
		return "", err
	}
	return id, nil
}

// upsertRequest replaces the document matching the filter, inserting when
// nothing matches.
type upsertRequest struct {
	Filter   Filter         `json:"filter"`
	Document map[string]any `json:"document"`
}

// Upsert writes a document keyed by its location: when an existing record
// shares the location, its _id is reused so the write replaces it. Records
// with no location upsert by _id. The resolved id is returned.
func (c *Client) Upsert(ctx context.Context, doc map[string]any) (string, error) {
	location, _ := doc["location"].(string)
	if location != "" {
		existing, err := c.Retrieve(ctx, Filter{"location": location}, 1, 0)
		if err != nil {
			return "", err
		}
		if len(existing) == 1 {
			if id, ok := existing[0]["_id"].(string); ok && id != "" {
				doc["_id"] = id
			}
		}
	}

	id, _ := doc["_id"].(string)
	if id == "" {
		id = uuid.NewString()
		doc["_id"] = id
	}

	req := upsertRequest{Filter: Filter{"_id": id}, Document: doc}
	if err := c.post(ctx, "upsert_one", req, nil); err != nil {
		return "", err
	}
	return id, nil
}

// post sends one API call and decodes the response into out when non-nil.
func (c *Client) post(ctx context.Context, op string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding %s request: %w", op, err)
	}

	url := fmt.Sprintf("%s/v1/%s/%s/%s", c.baseURL, c.database, c.collection, op)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("building %s request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", merrors.ErrConnectivity, op, c.collection, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		switch resp.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%w: %s %s: %s", merrors.ErrPermission, op, c.collection, detail)
		case http.StatusNotFound:
			return fmt.Errorf("%w: %s %s", merrors.ErrNotFound, op, c.collection)
		}
		return fmt.Errorf("%w: %s %s: status %d: %s", merrors.ErrConnectivity, op, c.collection, resp.StatusCode, detail)
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decoding %s response: %v", merrors.ErrConnectivity, op, err)
	}
	return nil
}
