package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html/charset"
)

// maxBodyBytes caps how much of a page is read. Puzzle pages are a few KiB.
const maxBodyBytes = 2 << 20

// errTitleMissing marks a page that loaded but did not contain the
// expected heading markers.
var errTitleMissing = errors.New("title markers not found")

// errNoDayLinks marks a year index page without any day links.
var errNoDayLinks = errors.New("no day links found")

// statusError is a non-200 response from the event host.
type statusError struct {
	Code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.Code)
}

// userAgentRoundTripper stamps every outgoing request with a fixed User-Agent.
type userAgentRoundTripper struct {
	base      http.RoundTripper
	userAgent string
}

func (t *userAgentRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.userAgent != "" {
		req = req.Clone(req.Context())
		req.Header.Set("User-Agent", t.userAgent)
	}
	return t.base.RoundTrip(req)
}

// buildHTTPClient constructs the client used for every page fetch.
func buildHTTPClient(userAgent string, timeout time.Duration) *http.Client {
	return &http.Client{
		Transport: &userAgentRoundTripper{
			base:      http.DefaultTransport,
			userAgent: userAgent,
		},
		Timeout: timeout,
	}
}

// fetchPage performs an HTTP GET to url and returns the body as text.
func fetchPage(ctx context.Context, client *http.Client, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "text/html")

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("http get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return "", &statusError{Code: resp.StatusCode}
	}

	// Decode to UTF-8 using the declared or sniffed charset.
	body, err := charset.NewReader(io.LimitReader(resp.Body, maxBodyBytes), resp.Header.Get("Content-Type"))
	if err != nil {
		return "", fmt.Errorf("decode body: %w", err)
	}
	var sb strings.Builder
	if _, err := io.Copy(&sb, body); err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	return sb.String(), nil
}

// classify maps a fetch error to the Reason reported in Result. An error
// seen after ctx is done counts as a cancellation whatever its cause.
func classify(ctx context.Context, err error) Reason {
	var se *statusError
	switch {
	case err == nil:
		return ReasonNone
	case ctx.Err() != nil:
		return ReasonCanceled
	case errors.As(err, &se):
		return ReasonStatus
	case errors.Is(err, errTitleMissing), errors.Is(err, errNoDayLinks):
		return ReasonParse
	default:
		return ReasonTransport
	}
}
