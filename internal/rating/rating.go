// Package rating looks up the rating an external book site reports for an
// ISBN. Lookups never fail: every problem degrades to domain.Unavailable.
package rating

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/utafrali/readrate/internal/domain"
	"github.com/utafrali/readrate/pkg/httpclient"
)

// Lookup returns the external rating for an ISBN.
type Lookup interface {
	Lookup(ctx context.Context, isbn string) domain.ExternalRating
}

// Disabled is a Lookup that never answers.
type Disabled struct{}

func (Disabled) Lookup(context.Context, string) domain.ExternalRating { return domain.Unavailable }

// Doer is the request surface of *httpclient.CircuitBreakerClient.
type Doer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// Client queries a review_counts style endpoint:
//
//	GET {base}/book/review_counts.json?isbns={isbn}&key={key}
//	{"books":[{"isbn":"...","average_rating":"3.92","work_ratings_count":1234}]}
type Client struct {
	http    Doer
	baseURL string
	apiKey  string
	logger  *slog.Logger
}

// NewClient creates a client for the service at baseURL.
func NewClient(doer Doer, baseURL, apiKey string, logger *slog.Logger) *Client {
	return &Client{http: doer, baseURL: baseURL, apiKey: apiKey, logger: logger}
}

type reviewCountsResponse struct {
	Books []struct {
		ISBN             string          `json:"isbn"`
		AverageRating    json.RawMessage `json:"average_rating"`
		WorkRatingsCount int             `json:"work_ratings_count"`
	} `json:"books"`
}

// Lookup fetches the rating for isbn.
func (c *Client) Lookup(ctx context.Context, isbn string) domain.ExternalRating {
	r, err := c.fetch(ctx, isbn)
	if err != nil {
		level := slog.LevelWarn
		if httpclient.IsNotFound(err) {
			level = slog.LevelDebug
		}
		c.logger.Log(ctx, level, "external rating unavailable",
			slog.String("isbn", isbn),
			slog.String("error", err.Error()),
		)
		return domain.Unavailable
	}
	return r
}

func (c *Client) fetch(ctx context.Context, isbn string) (domain.ExternalRating, error) {
	q := url.Values{}
	q.Set("isbns", isbn)
	if c.apiKey != "" {
		q.Set("key", c.apiKey)
	}
	endpoint := c.baseURL + "/book/review_counts.json?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return domain.Unavailable, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return domain.Unavailable, fmt.Errorf("request rating: %w", err)
	}
	defer resp.Body.Close()

	if err := httpclient.CheckStatus(resp, "rating"); err != nil {
		return domain.Unavailable, err
	}

	var body reviewCountsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return domain.Unavailable, fmt.Errorf("decode rating: %w", err)
	}
	if len(body.Books) == 0 {
		return domain.Unavailable, fmt.Errorf("no rating for isbn %s", isbn)
	}

	b := body.Books[0]
	avg, err := parseRating(b.AverageRating)
	if err != nil {
		return domain.Unavailable, err
	}
	return domain.ExternalRating{
		Available:     true,
		AverageRating: avg,
		RatingsCount:  b.WorkRatingsCount,
	}, nil
}

// parseRating accepts the average either as a JSON number or as a quoted
// decimal string.
func parseRating(raw json.RawMessage) (float64, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		s = string(raw)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse average rating %q: %w", s, err)
	}
	return v, nil
}
