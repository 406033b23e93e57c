// Package reddit is the client for Reddit's OAuth token endpoint and public
// API. Every outbound call carries an explicit timeout; transient failures
// get a single bounded retry, and a definitive answer from the token
// endpoint is never replayed.
package reddit

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultAuthBaseURL = "https://www.reddit.com"
	defaultAPIBaseURL  = "https://oauth.reddit.com"
)

// Client talks to Reddit. Safe for concurrent use.
type Client struct {
	config      Config
	authBaseURL string
	apiBaseURL  string
	timeout     time.Duration
	// exchange uses a transport-only retry policy, api the default one
	exchange *retryClient
	api      *retryClient
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.exchange = newRetryClient(httpClient, defaultMaxRetries, TransportOnlyChecker)
		c.api = newRetryClient(httpClient, defaultMaxRetries, nil)
	}
}

// WithAuthBaseURL overrides the www.reddit.com base, used in tests.
func WithAuthBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.authBaseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithAPIBaseURL overrides the oauth.reddit.com base, used in tests.
func WithAPIBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.apiBaseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithTimeout sets the per-call timeout applied when the caller's context
// has no deadline.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// NewClient creates a Reddit client with the given credentials.
func NewClient(config Config, opts ...ClientOption) *Client {
	c := &Client{
		config:      config,
		authBaseURL: defaultAuthBaseURL,
		apiBaseURL:  defaultAPIBaseURL,
		timeout:     defaultRequestTimeout,
		exchange:    newRetryClient(nil, defaultMaxRetries, TransportOnlyChecker),
		api:         newRetryClient(nil, defaultMaxRetries, nil),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BuildAuthURL builds the authorization URL the browser is redirected to.
// The state parameter is caller-supplied and verified on callback.
func (c *Client) BuildAuthURL(state string) (string, error) {
	if err := c.config.Validate(); err != nil {
		return "", err
	}
	if state == "" {
		return "", fmt.Errorf("state parameter is required")
	}

	authURL, err := url.Parse(c.authBaseURL + "/api/v1/authorize")
	if err != nil {
		return "", fmt.Errorf("invalid auth URL: %w", err)
	}

	params := url.Values{}
	params.Set("client_id", c.config.ClientID)
	params.Set("response_type", "code")
	params.Set("state", state)
	params.Set("redirect_uri", c.config.RedirectURI)
	params.Set("duration", authDuration)
	params.Set("scope", authScope)
	authURL.RawQuery = params.Encode()

	return authURL.String(), nil
}

// ExchangeCode converts an authorization code into tokens. Failures are
// classified: ConfigError for missing credentials, ProtocolError for
// non-JSON answers, ParseError for broken JSON, ExchangeError for upstream
// rejections and InvalidResponseError for a 2xx without an access token.
// Nothing is retried once the endpoint has answered.
func (c *Client) ExchangeCode(ctx context.Context, code string) (*TokenResponse, error) {
	if err := c.config.Validate(); err != nil {
		return nil, err
	}
	if code == "" {
		return nil, fmt.Errorf("authorization code is required")
	}

	ctx, cancel := contextWithTimeout(ctx, c.timeout)
	defer cancel()

	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", c.config.RedirectURI)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.authBaseURL+"/api/v1/access_token", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}

	basicAuth := base64.StdEncoding.EncodeToString([]byte(c.config.ClientID + ":" + c.config.ClientSecret))
	req.Header.Set("Authorization", "Basic "+basicAuth)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.config.userAgent())

	resp, err := c.exchange.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach token endpoint: %w", err)
	}
	defer resp.Body.Close()

	contentType := resp.Header.Get("Content-Type")
	if !strings.Contains(contentType, "application/json") {
		return nil, ProtocolError{StatusCode: resp.StatusCode, ContentType: contentType}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read token response: %w", err)
	}

	var tokenErr tokenErrorResponse
	if err := json.Unmarshal(body, &tokenErr); err != nil {
		return nil, ParseError{Err: err}
	}
	if resp.StatusCode != http.StatusOK || tokenErr.Error != "" {
		code := tokenErr.Error
		if code == "" {
			code = http.StatusText(resp.StatusCode)
		}
		return nil, ExchangeError{
			StatusCode:  resp.StatusCode,
			Code:        code,
			Description: tokenErr.ErrorDescription,
		}
	}

	var tokenResponse TokenResponse
	if err := json.Unmarshal(body, &tokenResponse); err != nil {
		return nil, ParseError{Err: err}
	}
	if tokenResponse.AccessToken == "" {
		return nil, InvalidResponseError{Field: "access_token"}
	}

	slog.Info("Token exchange successful", "token_type", tokenResponse.TokenType, "scope", tokenResponse.Scope)
	return &tokenResponse, nil
}

// Identity fetches the authenticated user's profile and karma.
func (c *Client) Identity(ctx context.Context, accessToken string) (*Identity, error) {
	var identity Identity
	if err := c.getJSON(ctx, c.apiBaseURL+"/api/v1/me", accessToken, &identity); err != nil {
		return nil, fmt.Errorf("failed to fetch identity: %w", err)
	}
	if identity.Name == "" {
		return nil, InvalidResponseError{Field: "name"}
	}
	return &identity, nil
}

// SearchSubreddits queries the public subreddit search endpoint.
func (c *Client) SearchSubreddits(ctx context.Context, query string) ([]Subreddit, error) {
	if query == "" {
		return nil, fmt.Errorf("search query is required")
	}

	endpoint := c.authBaseURL + "/subreddits/search.json?q=" + url.QueryEscape(query)
	var listing listingEnvelope
	if err := c.getJSON(ctx, endpoint, "", &listing); err != nil {
		return nil, fmt.Errorf("failed to search subreddits: %w", err)
	}

	subreddits := make([]Subreddit, len(listing.Data.Children))
	for i, child := range listing.Data.Children {
		subreddits[i] = child.Data
	}
	return subreddits, nil
}

// AboutSubreddit fetches the public about endpoint for one subreddit.
func (c *Client) AboutSubreddit(ctx context.Context, name string) (*Subreddit, error) {
	if name == "" {
		return nil, fmt.Errorf("subreddit name is required")
	}

	endpoint := c.authBaseURL + "/r/" + url.PathEscape(name) + "/about.json"
	var about aboutEnvelope
	if err := c.getJSON(ctx, endpoint, "", &about); err != nil {
		return nil, fmt.Errorf("failed to fetch subreddit info: %w", err)
	}
	return &about.Data, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint, accessToken string, out interface{}) error {
	ctx, cancel := contextWithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.config.userAgent())
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	resp, err := c.api.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return UpstreamError{StatusCode: resp.StatusCode}
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.Contains(contentType, "application/json") {
		return ProtocolError{StatusCode: resp.StatusCode, ContentType: contentType}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return ParseError{Err: err}
	}
	return nil
}
