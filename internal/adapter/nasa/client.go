// Package nasa implements the NeoWs REST client used by the ingest pipeline.
package nasa

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/astronuts/neo-data-etl/internal/domain"
	"github.com/astronuts/neo-data-etl/internal/observability"
)

// maxFeedDays is the NeoWs feed contract: at most 7 days inclusive per request.
const maxFeedDays = 7

const dateLayout = "2006-01-02"

// Client talks to the NASA NeoWs API.
type Client struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates a NeoWs client. baseURL is overridable for tests; pass
// an empty string for the production endpoint.
func NewClient(apiKey, baseURL string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	if baseURL == "" {
		baseURL = "https://api.nasa.gov/neo/rest/v1"
	}
	return &Client{
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
		logger:  logger,
		metrics: metrics,
	}
}

// FetchFeed retrieves all objects with a close approach inside [start, end].
// The window is validated against the NeoWs contract before any request is
// made: end must not precede start and the range is at most 7 days inclusive.
func (c *Client) FetchFeed(ctx context.Context, start, end time.Time) (domain.FeedResponse, error) {
	if end.Before(start) {
		return domain.FeedResponse{}, fmt.Errorf("%w: end_date before start_date", domain.ErrInvalidWindow)
	}
	if days := int(end.Sub(start).Hours()/24) + 1; days > maxFeedDays {
		return domain.FeedResponse{}, fmt.Errorf("%w: %d days requested, at most %d allowed", domain.ErrInvalidWindow, days, maxFeedDays)
	}

	params := url.Values{
		"start_date": {start.Format(dateLayout)},
		"end_date":   {end.Format(dateLayout)},
		"api_key":    {c.apiKey},
	}

	var feed domain.FeedResponse
	if err := c.doRequest(ctx, c.baseURL+"/feed?"+params.Encode(), "feed", &feed); err != nil {
		return domain.FeedResponse{}, err
	}
	return feed, nil
}

// FetchNeo retrieves a single object by its SPK-ID.
func (c *Client) FetchNeo(ctx context.Context, id string) (domain.RawNeo, error) {
	params := url.Values{"api_key": {c.apiKey}}

	var raw domain.RawNeo
	u := fmt.Sprintf("%s/neo/%s?%s", c.baseURL, url.PathEscape(id), params.Encode())
	if err := c.doRequest(ctx, u, "neo", &raw); err != nil {
		return domain.RawNeo{}, err
	}
	return raw, nil
}

// FetchBrowsePage retrieves one page of the full catalog, for backfill.
func (c *Client) FetchBrowsePage(ctx context.Context, page, size int) (domain.BrowsePage, error) {
	params := url.Values{
		"page":    {strconv.Itoa(page)},
		"size":    {strconv.Itoa(size)},
		"api_key": {c.apiKey},
	}

	var browse domain.BrowsePage
	if err := c.doRequest(ctx, c.baseURL+"/neo/browse?"+params.Encode(), "browse", &browse); err != nil {
		return domain.BrowsePage{}, err
	}
	return browse, nil
}

func (c *Client) doRequest(ctx context.Context, fullURL, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "neo-data-etl/1.0")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.NasaAPIDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.NasaRequests.WithLabelValues(endpoint, "error").Inc()
		return fmt.Errorf("%w: %s request: %w", domain.ErrUpstream, endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.metrics.NasaRequests.WithLabelValues(endpoint, "error").Inc()
		return fmt.Errorf("%w: status %d: %s", domain.ErrUpstream, resp.StatusCode, apiErrorMessage(resp.Body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		c.metrics.NasaRequests.WithLabelValues(endpoint, "error").Inc()
		return fmt.Errorf("%w: decode %s response: %w", domain.ErrUpstream, endpoint, err)
	}

	c.metrics.NasaRequests.WithLabelValues(endpoint, "success").Inc()
	return nil
}

// apiErrorMessage extracts NASA's own error body so callers can tell an
// invalid key apart from a rate limit. Falls back to the raw body, truncated.
func apiErrorMessage(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil || len(data) == 0 {
		return "no response body"
	}

	var payload struct {
		ErrorMessage string `json:"error_message"`
		Message      string `json:"message"`
		Error        struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(data, &payload); err == nil {
		switch {
		case payload.ErrorMessage != "":
			return payload.ErrorMessage
		case payload.Message != "":
			return payload.Message
		case payload.Error.Message != "":
			return payload.Error.Message
		}
	}

	const maxLen = 500
	if len(data) > maxLen {
		data = data[:maxLen]
	}
	return string(data)
}
