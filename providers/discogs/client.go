// Package discogs adapts the Discogs database API to the provider gateway.
package discogs

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
	"vinylcat/providers"

	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://api.discogs.com"

// Client talks to the Discogs API. All requests carry the configured client
// identity (Discogs rejects anonymous user agents) and go through a shared
// rate limiter - the public API allows roughly one request per second.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	token      string
	limiter    *rate.Limiter
}

// NewClient creates a Discogs client. userAgent must be a descriptive
// identity string including a contact address; token is optional.
func NewClient(userAgent, token string, requestsPerSecond float64) *Client {
	if userAgent == "" {
		panic("discogs: client identity (user agent) must be configured")
	}
	if requestsPerSecond <= 0 {
		requestsPerSecond = 1.0
	}
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    defaultBaseURL,
		userAgent:  userAgent,
		token:      token,
		limiter:    rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
	}
}

// SearchReleases implements providers.Gateway. The Discogs pagination block
// is passed through unmodified.
func (c *Client) SearchReleases(ctx context.Context, by providers.SearchBy, query string, page, perPage int) ([]providers.RawRelease, providers.SearchPage, error) {
	params := url.Values{}
	params.Set("type", "release")
	switch by {
	case providers.SearchByBarcode:
		params.Set("barcode", query)
	case providers.SearchByTitle:
		params.Set("release_title", query)
	case providers.SearchByArtist:
		params.Set("artist", query)
	case providers.SearchByGenre:
		params.Set("genre", query)
	default:
		params.Set("q", query)
	}
	if page > 0 {
		params.Set("page", strconv.Itoa(page))
	}
	if perPage > 0 {
		params.Set("per_page", strconv.Itoa(perPage))
	}

	var response searchResponse
	if err := c.get(ctx, "/database/search?"+params.Encode(), &response); err != nil {
		return nil, providers.SearchPage{}, err
	}

	results := make([]providers.RawRelease, 0, len(response.Results))
	for i := range response.Results {
		results = append(results, &response.Results[i])
	}
	return results, providers.SearchPage{
		Page:    response.Pagination.Page,
		PerPage: response.Pagination.PerPage,
		Pages:   response.Pagination.Pages,
		Items:   response.Pagination.Items,
	}, nil
}

// FetchRelease implements providers.Gateway.
func (c *Client) FetchRelease(ctx context.Context, externalID string) (providers.RawRelease, error) {
	var release Release
	if err := c.get(ctx, "/releases/"+url.PathEscape(externalID), &release); err != nil {
		return nil, err
	}
	return &release, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %v", providers.ErrUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", providers.ErrUnavailable, err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Discogs token="+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", providers.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return providers.ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: discogs answered %d", providers.ErrUnavailable, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: bad payload: %v", providers.ErrUnavailable, err)
	}
	return nil
}
