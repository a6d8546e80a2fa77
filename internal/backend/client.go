package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var (
	// ErrUnreachable wraps transport failures talking to the analytics backend.
	ErrUnreachable = errors.New("cannot connect to server")
	// ErrNotFound is returned for 404 responses.
	ErrNotFound = errors.New("not found")
)

// DefaultBaseURL is where the storefront's Flask backend listens by default.
const DefaultBaseURL = "http://localhost:5001/api"

// Options configures a Client. Auth fields are optional; see newHTTPClient.
type Options struct {
	BaseURL      string
	Timeout      time.Duration
	Token        string
	ClientID     string
	ClientSecret string
	TokenURL     string
	Scopes       []string
}

// Client talks to the storefront backend: product lookups and the eight
// analytics endpoints.
type Client struct {
	httpClient *http.Client
	baseAPI    string
	port       string
}

func NewClient(opts Options) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	u, err := url.Parse(base)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid backend url %q", opts.BaseURL)
	}
	return &Client{
		httpClient: newHTTPClient(opts),
		baseAPI:    base,
		port:       portOf(u),
	}, nil
}

// Port is the backend port, used in user-facing connection errors.
func (c *Client) Port() string { return c.port }

func portOf(u *url.URL) string {
	if p := u.Port(); p != "" {
		return p
	}
	if u.Scheme == "https" {
		return "443"
	}
	return "80"
}

// ---- Helpers ----

func (c *Client) do(ctx context.Context, method, path string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseAPI+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.Printf("[backend] %s %s: %v", method, path, err)
		return nil, fmt.Errorf("%w: make sure the backend is running on port %s", ErrUnreachable, c.port)
	}
	return resp, nil
}

// getJSON decodes a 2xx body into out. op names the call in error messages.
func (c *Client) getJSON(ctx context.Context, op, path string, out any) error {
	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return responseError(op, resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

// responseError prefers the backend's {"error": "..."} body over the status line.
func responseError(op string, resp *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var body struct {
		Error string `json:"error"`
	}
	msg := ""
	if json.Unmarshal(b, &body) == nil {
		msg = strings.TrimSpace(body.Error)
	}
	if msg == "" {
		msg = fmt.Sprintf("%s failed: %d %s", op, resp.StatusCode, http.StatusText(resp.StatusCode))
	}
	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", ErrNotFound, msg)
	}
	return errors.New(msg)
}
