package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultPath = "/api/playlist"
	// IndexHeader carries the first index the caller wants, as a decimal integer.
	IndexHeader = "X-Playlist-Index"
)

var (
	ErrTransport = errors.New("feed request failed")
	ErrStatus    = errors.New("feed returned non-success status")
	ErrDecode    = errors.New("feed payload malformed")
)

// Fetcher retrieves feed entries with index >= start.
type Fetcher interface {
	Fetch(ctx context.Context, start int64) ([]*Entry, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, start int64) ([]*Entry, error)

func (f FetcherFunc) Fetch(ctx context.Context, start int64) ([]*Entry, error) {
	return f(ctx, start)
}

// Client pulls the playlist feed over HTTP.
type Client struct {
	URL  string
	http *http.Client
}

func NewClient(base string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		URL:  strings.TrimRight(base, "/") + DefaultPath,
		http: httpClient,
	}
}

func (c *Client) Fetch(ctx context.Context, start int64) ([]*Entry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	req.Header.Set(IndexHeader, strconv.FormatInt(start, 10))

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", ErrTransport, err)
	}
	return DecodeBatch(body)
}
