package vote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const DefaultPath = "/api/vote"

var (
	ErrTransport = errors.New("vote request failed")
	ErrStatus    = errors.New("vote rejected")
)

// Sender delivers one vote intent to the rating backend.
type Sender interface {
	Send(ctx context.Context, i Intent) error
}

// Client posts votes as url-encoded forms.
type Client struct {
	URL  string
	http *http.Client
}

// NewClient builds a client for the vote endpoint under base.
func NewClient(base string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		URL:  strings.TrimRight(base, "/") + DefaultPath,
		http: httpClient,
	}
}

func (c *Client) Send(ctx context.Context, i Intent) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, strings.NewReader(i.Form().Encode()))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()
	// body is unused, drain it so the connection can be reused
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrStatus, resp.StatusCode)
	}
	return nil
}
