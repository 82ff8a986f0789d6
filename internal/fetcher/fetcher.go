// Package fetcher downloads web pages and API responses for the producers and reads
// or writes the spreadsheets used for seeds and exports.
package fetcher

import (
	"context"
	"net/http"
)

// Response is a fully read HTTP response.
type Response struct {
	URL         string
	StatusCode  int
	ContentType string
	Body        []byte
}

// Fetcher retrieves a page by URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*Response, error)
}

// RequestFunc builds a fresh request for each attempt.
type RequestFunc func(ctx context.Context) (*http.Request, error)

// Doer sends requests built by the caller, for APIs that need their own
// headers.
type Doer interface {
	Do(ctx context.Context, build RequestFunc) (*Response, error)
}
