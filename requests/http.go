package requests

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/brettbedarf/memfs/internal/util"
)

// HTTPContent fetches file contents from the URL in the content value
const HTTPContent = "http"

// DefaultHTTPTimeout bounds a single fetch
const DefaultHTTPTimeout = 30 * time.Second

// DefaultHTTPMaxSize caps the body of a single fetch at 64 MiB
const DefaultHTTPMaxSize int64 = 64 << 20

// ErrContentTooLarge is returned when a response body exceeds the size cap
var ErrContentTooLarge = errors.New("remote content exceeds size limit")

// HTTPClient is the subset of *http.Client used to fetch content
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// HTTPDecoder implements [ContentDecoder] by issuing a GET for the URL held in
// the content value and using the response body as the file contents
type HTTPDecoder struct {
	Client  HTTPClient
	Headers map[string]string
	Timeout time.Duration // Default DefaultHTTPTimeout
	MaxSize int64         // Default DefaultHTTPMaxSize
}

// NewHTTPDecoder uses http.DefaultClient when client is nil
func NewHTTPDecoder(client HTTPClient) *HTTPDecoder {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPDecoder{Client: client, Timeout: DefaultHTTPTimeout, MaxSize: DefaultHTTPMaxSize}
}

// ParseSourceURL accepts absolute http and https URLs without user info
func ParseSourceURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("empty url")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported url scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("url %q has no host", raw)
	}
	if u.User != nil {
		return nil, fmt.Errorf("url %q must not carry user info", raw)
	}
	return u, nil
}

func (h *HTTPDecoder) Decode(value string) ([]byte, error) {
	timeout := h.Timeout
	if timeout <= 0 {
		timeout = DefaultHTTPTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return h.Fetch(ctx, value)
}

// Fetch downloads the body at rawURL. Non-2xx responses are errors.
func (h *HTTPDecoder) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	logger := util.GetLogger("HTTPDecoder")

	u, err := ParseSourceURL(rawURL)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	for k, v := range h.Headers {
		req.Header.Set(k, v)
	}

	resp, err := h.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("GET %s: %s", u, resp.Status)
	}
	limit := h.MaxSize
	if limit <= 0 {
		limit = DefaultHTTPMaxSize
	}
	if resp.ContentLength > limit {
		return nil, fmt.Errorf("GET %s: %w (%d > %d bytes)", u, ErrContentTooLarge, resp.ContentLength, limit)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("GET %s: %w (more than %d bytes)", u, ErrContentTooLarge, limit)
	}
	logger.Debug().Str("url", u.String()).Int("bytes", len(data)).Msg("Fetched content")
	return data, nil
}
