// Package verify implements the Core's batched authority verification
// (spec §4.5): batch lookup, fallback search, rate limiting, circuit
// breaking, and the match acceptance filter.
package verify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/citationengine/engine/internal/errors"
)

// AuthorityEntry is the batch-lookup response entry for one citation: a
// status and its candidate clusters. The candidates accept both camelCase
// and snake_case keys (see AuthorityCluster.UnmarshalJSON); the error
// message is read from the snake_case "error_message" key only.
type AuthorityEntry struct {
	Status       int                 `json:"status"`
	Clusters     []AuthorityCluster  `json:"clusters"`
	ErrorMessage string              `json:"error_message"`
}

// AuthorityCluster is one candidate case the authority returned for a
// citation. It marshals with snake_case keys.
type AuthorityCluster struct {
	CaseName     string `json:"case_name"`
	DateFiled    string `json:"date_filed"`
	URL          string `json:"absolute_url"`
	Jurisdiction string `json:"jurisdiction"`
}

// UnmarshalJSON accepts both camelCase and snake_case keys for every field.
func (c *AuthorityCluster) UnmarshalJSON(data []byte) error {
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	c.CaseName = firstString(raw, "caseName", "case_name")
	c.DateFiled = firstString(raw, "dateFiled", "date_filed")
	c.URL = firstString(raw, "absoluteUrl", "absolute_url", "url")
	c.Jurisdiction = firstString(raw, "jurisdiction", "court")
	return nil
}

func firstString(raw map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		if v, ok := raw[k]; ok {
			if s, ok := v.(string); ok {
				return s
			}
		}
	}
	return ""
}

// BatchRequest is the payload sent to the authority's batch-lookup
// endpoint: up to BatchSize citation strings.
type BatchRequest struct {
	Citations []string `json:"citations"`
}

// BatchSize is the maximum number of citation strings per batch-lookup
// call (spec §4.5: "132 citations go from 132 calls to 3 calls").
const BatchSize = 50

// Client is the authority HTTP client. It owns no policy (rate limiting,
// circuit breaking, retries) itself; Verifier composes those around it.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient builds an authority client with the per-request timeout spec
// §4.5 mandates (20s).
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 20 * time.Second,
		},
	}
}

// BatchLookup submits one batch of citation strings and returns the
// authority's per-citation entries in input order.
func (c *Client) BatchLookup(ctx context.Context, citations []string) ([]AuthorityEntry, error) {
	body, err := json.Marshal(BatchRequest{Citations: citations})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeInternal, "encoding batch request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v4/citation-lookup/", bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeInternal, "building batch request")
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.NewTransportError("batch_lookup", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || isRateLimitMarker(resp) {
		return nil, errors.NewRateLimitedError(resp.Header.Get("Retry-After"))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.NewTransportError("batch_lookup_read", err)
	}

	var entries []AuthorityEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeInternal, "decoding batch response")
	}
	return entries, nil
}

// Search queries the authority's full-text search endpoint with a free
// text query (case name plus citation), returning ranked candidates.
func (c *Client) Search(ctx context.Context, query string) ([]AuthorityCluster, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/api/v4/search/?q=%s", c.baseURL, queryEscape(query)), nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeInternal, "building search request")
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.NewTransportError("search", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || isRateLimitMarker(resp) {
		return nil, errors.NewRateLimitedError(resp.Header.Get("Retry-After"))
	}

	var results struct {
		Results []AuthorityCluster `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeInternal, "decoding search response")
	}
	return results.Results, nil
}

func (c *Client) authorize(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Token "+c.apiKey)
	}
	req.Header.Set("Content-Type", "application/json")
}

// isRateLimitMarker reports a rate-limit signal carried in the response
// headers (X-RateLimit-Remaining: 0), checked in addition to the 429 status
// code. The response body is not inspected.
func isRateLimitMarker(resp *http.Response) bool {
	return resp.Header.Get("X-RateLimit-Remaining") == "0"
}

func queryEscape(s string) string {
	return url.QueryEscape(s)
}
