// Package panel talks to the visitor admin panel: it logs in, reads the
// current visitor table and submits updated counts.
package panel

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/Veraticus/visitor-sync/internal/common"
	"github.com/Veraticus/visitor-sync/internal/model"
	"golang.org/x/net/publicsuffix"
)

// Endpoint is the script every panel form is posted to.
const Endpoint = "/index.php"

// Form actions understood by the panel.
const (
	ActionLogin  = "login"
	ActionUpdate = "update"
)

// maxErrorBody bounds how much of a failed response ends up in an error.
const maxErrorBody = 512

// Client creates authenticated panel sessions.
type Client struct {
	baseURL string
	timeout time.Duration
}

// NewClient creates a new panel client for the given base URL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
	}
}

// BaseURL returns the panel base URL without trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// NewSession returns a session with its own empty cookie jar.
func (c *Client) NewSession() (*Session, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	return &Session{
		endpoint: c.baseURL + Endpoint,
		httpClient: &http.Client{
			Jar:     jar,
			Timeout: c.timeout,
		},
	}, nil
}

// Session is a cookie-carrying conversation with the panel. Redirects are
// followed and any cookies they set are kept for later requests.
type Session struct {
	httpClient *http.Client
	endpoint   string
}

// Login submits the login form and returns the resulting page. The page is
// not inspected, so rejected credentials only show up in its content.
func (s *Session) Login(ctx context.Context, creds model.Credentials) (string, error) {
	form := url.Values{}
	form.Set("user", creds.Username)
	form.Set("password", creds.Password)
	form.Set("action", ActionLogin)

	body, err := s.post(ctx, form)
	if err != nil {
		return "", fmt.Errorf("login as %s: %w", creds.Username, err)
	}
	return body, nil
}

// Update submits the location counts in a single update form.
func (s *Session) Update(ctx context.Context, update model.Update) error {
	form := url.Values{}
	for key, count := range update {
		form.Set(key, count)
	}
	form.Set("action", ActionUpdate)

	if _, err := s.post(ctx, form); err != nil {
		return fmt.Errorf("update %d locations: %w", len(update), err)
	}
	return nil
}

func (s *Session) post(ctx context.Context, form url.Values) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("%w: failed to create request: %v", common.ErrPanelRequest, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	slog.DebugContext(ctx, "Posting panel form", "url", s.endpoint, "action", form.Get("action"))

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrPanelRequest, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: failed to read response: %v", common.ErrPanelRequest, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet := string(body)
		if len(snippet) > maxErrorBody {
			snippet = snippet[:maxErrorBody]
		}
		return "", fmt.Errorf("%w: %d - %s", common.ErrPanelRequest, resp.StatusCode, strings.TrimSpace(snippet))
	}

	return string(body), nil
}
