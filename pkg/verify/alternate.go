package verify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/citationengine/engine/internal/errors"
)

// HTTPAlternateSource is a fixed, configured fallback public legal source
// (spec §4.5 fallback path 2, resolved in SPEC_FULL.md §5): a small
// free-text search endpoint tried at most once per citation, after the
// authority's own search fallback has already missed.
type HTTPAlternateSource struct {
	name       string
	baseURL    string
	httpClient *http.Client
}

// NewHTTPAlternateSource builds an alternate source pointed at baseURL,
// queried via a single GET with the citation text and extracted case name.
func NewHTTPAlternateSource(name, baseURL string) *HTTPAlternateSource {
	return &HTTPAlternateSource{
		name:       name,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 20 * time.Second},
	}
}

// Name identifies this source for the "alternate_source_<name>"
// verification-source tag.
func (s *HTTPAlternateSource) Name() string {
	return s.name
}

// Lookup queries the alternate source and returns its best candidate, or
// nil if the source returned no results or none relevant at all.
func (s *HTTPAlternateSource) Lookup(ctx context.Context, query string) (*AuthorityCluster, error) {
	reqURL := fmt.Sprintf("%s/search?q=%s", s.baseURL, url.QueryEscape(query))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeInternal, "building alternate-source request")
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, errors.NewTransportError("alternate_source_"+s.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Newf(errors.ErrorTypeTransport, "alternate source %s returned status %d", s.name, resp.StatusCode)
	}

	var payload struct {
		Results []AuthorityCluster `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeInternal, "decoding alternate-source response")
	}
	if len(payload.Results) == 0 {
		return nil, nil
	}
	return &payload.Results[0], nil
}
