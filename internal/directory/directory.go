// Package directory resolves notification recipients against the external
// user directory. The directory is eventually consistent: organizations and
// roles are provisioned asynchronously by a companion system, so a 404 is
// treated as "not there yet" and retried with backoff.
package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"notification-service/internal/retry"
)

// ErrNotProvisioned indicates the directory answered 404 for an organization
// or role that a companion system has not created yet.
var ErrNotProvisioned = errors.New("organization or role not provisioned yet")

// User is a recipient identity as returned by the directory.
type User struct {
	UserID    string `json:"userId"`
	Username  string `json:"username"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

// DisplayName returns the user's full name for the notification record.
func (u User) DisplayName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// envelope is the directory's response wrapper.
type envelope struct {
	Data      []User          `json:"data"`
	Success   bool            `json:"success"`
	Message   string          `json:"message"`
	Errors    json.RawMessage `json:"errors"`
	Timestamp string          `json:"timestamp"`
}

// tokenResponse is the subset of the token endpoint's response we need.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
}

// Config holds the directory and token endpoint settings.
type Config struct {
	TokenURL     string
	BaseURL      string
	ClientID     string
	ClientSecret string
}

// Client calls the user directory with a service-credential token.
// The HTTP client is injected so tests can substitute transports.
type Client struct {
	httpClient *http.Client
	cfg        Config
	retryCfg   retry.Config
}

// NewClient creates a directory client. A nil httpClient falls back to a
// default with a 30s timeout.
func NewClient(cfg Config, httpClient *http.Client, retryCfg retry.Config) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		httpClient: httpClient,
		cfg:        cfg,
		retryCfg:   retryCfg,
	}
}

// NormalizeOrganization trims and uppercases an organization identifier.
// Every external call uses the normalized form.
func NormalizeOrganization(org string) string {
	return strings.ToUpper(strings.TrimSpace(org))
}

// UsersByOrganization returns all users of an organization. Failures degrade
// to an empty list: a token failure skips the directory entirely, a lookup
// failure (after the 404 retry policy) yields no recipients. Errors are
// logged, never propagated.
func (c *Client) UsersByOrganization(ctx context.Context, organization string) []User {
	org := NormalizeOrganization(organization)

	token, err := c.token(ctx)
	if err != nil {
		slog.Error("Unable to acquire service token, skipping directory lookup", "error", err)
		return nil
	}

	endpoint := c.cfg.BaseURL + "/api/users/pilots/" + url.PathEscape(org)
	return c.lookupWithRetry(ctx, endpoint, token, "users_by_organization:"+org)
}

// UsersByRolesAndOrganization returns the users holding any of the given
// roles in an organization. Roles are queried sequentially and the results
// concatenated without deduplication: a user matching several roles appears
// once per matching role. A failure on one role does not abort the rest.
func (c *Client) UsersByRolesAndOrganization(ctx context.Context, roles []string, organization string) []User {
	org := NormalizeOrganization(organization)

	token, err := c.token(ctx)
	if err != nil {
		slog.Error("Unable to acquire service token, skipping directory lookup", "error", err)
		return nil
	}

	var all []User
	for _, role := range roles {
		endpoint := c.cfg.BaseURL + "/api/users/pilots/" + url.PathEscape(org) + "/roles/" + url.PathEscape(role)
		users := c.lookupWithRetry(ctx, endpoint, token, "users_by_role:"+role)
		all = append(all, users...)
	}
	return all
}

// lookupWithRetry performs one directory GET under the 404 retry policy.
// Exhausted retries and transport errors both degrade to an empty list.
func (c *Client) lookupWithRetry(ctx context.Context, endpoint, token, operation string) []User {
	var users []User
	err := retry.Do(ctx, c.retryCfg, operation,
		func(err error) bool { return errors.Is(err, ErrNotProvisioned) },
		func() error {
			var err error
			users, err = c.fetchUsers(ctx, endpoint, token)
			return err
		},
	)
	if err != nil {
		slog.Error("Directory lookup failed, no recipients from this call",
			"operation", operation,
			"error", err,
		)
		return nil
	}
	return users
}

// fetchUsers performs a single authenticated GET against the directory.
func (c *Client) fetchUsers(ctx context.Context, endpoint, token string) ([]User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create directory request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("directory request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotProvisioned
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("directory returned status %d", resp.StatusCode)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("failed to decode directory response: %w", err)
	}

	return env.Data, nil
}

// token acquires a service-to-service access token via the client
// credentials grant.
func (c *Client) token(ctx context.Context) (string, error) {
	form := url.Values{}
	form.Set("client_id", c.cfg.ClientID)
	form.Set("client_secret", c.cfg.ClientSecret)
	form.Set("grant_type", "client_credentials")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("token endpoint returned status %d", resp.StatusCode)
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}
	if tr.AccessToken == "" {
		return "", fmt.Errorf("token response contained no access_token")
	}

	return tr.AccessToken, nil
}
