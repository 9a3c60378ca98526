// Package movieclient talks to the movie API over HTTP.
package movieclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"moviedb/movie"
	"moviedb/person"
)

const defaultTimeout = 10 * time.Second

// APIError is a failed response decoded from the API's error body.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("movieclient: %d %s", e.StatusCode, e.Message)
}

type Client struct {
	baseURL string
	http    *http.Client
	token   string
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithBearerToken authenticates requests to protected routes.
func WithBearerToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, fn := range opts {
		fn(c)
	}
	return c
}

func (c *Client) Search(ctx context.Context, p movie.SearchParams) (movie.SearchResult, error) {
	q := url.Values{}
	if p.Title != "" {
		q.Set("title", p.Title)
	}
	if p.Year != "" {
		q.Set("year", p.Year)
	}
	if p.Page != "" {
		q.Set("page", p.Page)
	}

	var out movie.SearchResult
	err := c.get(ctx, "/movies/search", q, &out)
	return out, err
}

func (c *Client) Details(ctx context.Context, imdbID string) (movie.Detail, error) {
	var out movie.Detail
	err := c.get(ctx, "/movies/data/"+url.PathEscape(imdbID), nil, &out)
	return out, err
}

func (c *Client) Person(ctx context.Context, id string) (person.Person, error) {
	var out person.Person
	err := c.get(ctx, "/people/"+url.PathEscape(id), nil, &out)
	return out, err
}

func (c *Client) get(ctx context.Context, path string, q url.Values, dest interface{}) error {
	target := c.baseURL + path
	if len(q) > 0 {
		target += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("movieclient: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("movieclient: get %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var body struct {
			Message string `json:"message"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&body)
		if body.Message == "" {
			body.Message = http.StatusText(resp.StatusCode)
		}
		return &APIError{StatusCode: resp.StatusCode, Message: body.Message}
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("movieclient: decode %s: %w", path, err)
	}
	return nil
}
