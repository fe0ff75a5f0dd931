package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ifconcept/gvail/internal/model"
)

// API is the provider surface consumed by the session manager and the
// inbox synchronizer. Client implements it; tests substitute fakes.
type API interface {
	// Domains lists the provider-offered mailbox suffixes. Unauthenticated.
	Domains(ctx context.Context) ([]model.Domain, error)

	// CreateAccount creates a provider-side account. Success is the sole
	// proof that the address was available. Unauthenticated.
	CreateAccount(ctx context.Context, address, password string) (*Account, error)

	// Token mints a bearer token for the given credentials. Unauthenticated.
	Token(ctx context.Context, address, password string) (string, error)

	// Messages lists message summaries for the account behind token,
	// in provider arrival order.
	Messages(ctx context.Context, token string, page int) ([]model.Message, error)

	// Message fetches the full detail for a single message.
	Message(ctx context.Context, token, id string) (*model.Message, error)

	// DeleteAccount deletes the provider-side account. Best-effort at
	// every call site; failures are logged, never surfaced.
	DeleteAccount(ctx context.Context, token, id string) error
}

// Client is a thin HTTP client for the mailbox provider's JSON API.
// It handles Bearer token authentication, the hydra collection envelope,
// and automatic retry with backoff on HTTP 429.
type Client struct {
	baseURL    string
	httpClient *http.Client
	maxRetries int
}

var _ API = (*Client)(nil)

// NewClient creates a provider client for the given API root URL
// (e.g. https://api.mail.tm).
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		maxRetries: 3,
	}
}

// Domains lists the available mailbox domains.
func (c *Client) Domains(ctx context.Context) ([]model.Domain, error) {
	var coll domainCollection
	if err := c.do(ctx, http.MethodGet, "/domains", "", nil, &coll); err != nil {
		return nil, err
	}
	return coll.Members, nil
}

// CreateAccount creates a provider-side account with the given credentials.
func (c *Client) CreateAccount(
	ctx context.Context,
	address, password string,
) (*Account, error) {
	var acct Account
	err := c.do(ctx, http.MethodPost, "/accounts", "",
		credentials{Address: address, Password: password}, &acct)
	if err != nil {
		var conflict *ConflictError
		if errors.As(err, &conflict) {
			conflict.Address = address
		}
		return nil, err
	}
	return &acct, nil
}

// Token mints a bearer token for the given credentials.
func (c *Client) Token(
	ctx context.Context,
	address, password string,
) (string, error) {
	var tok tokenResponse
	err := c.do(ctx, http.MethodPost, "/token", "",
		credentials{Address: address, Password: password}, &tok)
	if err != nil {
		return "", err
	}
	return tok.Token, nil
}

// Messages lists message summaries for the given page.
func (c *Client) Messages(
	ctx context.Context,
	token string,
	page int,
) ([]model.Message, error) {
	if page <= 0 {
		page = 1
	}
	var coll messageCollection
	path := fmt.Sprintf("/messages?page=%d", page)
	if err := c.do(ctx, http.MethodGet, path, token, nil, &coll); err != nil {
		return nil, err
	}
	return coll.Members, nil
}

// Message fetches the full detail for a single message by id.
func (c *Client) Message(
	ctx context.Context,
	token, id string,
) (*model.Message, error) {
	var msg model.Message
	if err := c.do(ctx, http.MethodGet, "/messages/"+id, token, nil, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// DeleteAccount deletes the provider-side account by id.
func (c *Client) DeleteAccount(ctx context.Context, token, id string) error {
	return c.do(ctx, http.MethodDelete, "/accounts/"+id, token, nil, nil)
}

// do is the core HTTP method that builds the request, handles auth,
// rate limiting with backoff, the error taxonomy, and JSON
// (de)serialization.
func (c *Client) do(
	ctx context.Context,
	method string,
	path string,
	token string,
	body interface{},
	result interface{},
) error {
	url := c.baseURL + path
	operation := method + " " + strings.SplitN(path, "?", 2)[0]

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		// Rebuild the body reader on retries since it was consumed.
		if attempt > 0 && body != nil {
			data, _ := json.Marshal(body)
			bodyReader = bytes.NewReader(data)
		}

		req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}

		req.Header.Set("Accept", "application/json")
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("executing request %s: %w", operation, err)
		}

		respBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return fmt.Errorf("reading response body: %w", readErr)
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			waitDuration := retryAfterDuration(resp, attempt)
			lastErr = fmt.Errorf("rate limited (429) on %s", operation)

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(waitDuration):
				continue
			}
		}

		switch {
		case resp.StatusCode == http.StatusUnauthorized:
			return &AuthError{Operation: operation}

		case resp.StatusCode == http.StatusUnprocessableEntity:
			var eb errorBody
			_ = json.Unmarshal(respBody, &eb)
			return &ConflictError{Detail: eb.text()}

		case resp.StatusCode == http.StatusNotFound:
			return &NotFoundError{Operation: operation}

		case resp.StatusCode < 200 || resp.StatusCode >= 300:
			var eb errorBody
			_ = json.Unmarshal(respBody, &eb)
			return &APIError{
				StatusCode: resp.StatusCode,
				Operation:  operation,
				Message:    eb.text(),
			}
		}

		// No content to parse (e.g. 204 on account deletion).
		if result == nil || resp.StatusCode == http.StatusNoContent {
			return nil
		}

		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("unmarshaling response from %s: %w", operation, err)
		}

		return nil
	}

	return fmt.Errorf("max retries (%d) exceeded: %w", c.maxRetries, lastErr)
}

// retryAfterDuration reads the Retry-After header and computes a wait
// duration. Falls back to exponential backoff if the header is missing.
func retryAfterDuration(resp *http.Response, attempt int) time.Duration {
	if header := resp.Header.Get("Retry-After"); header != "" {
		if seconds, err := strconv.Atoi(header); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}

	backoff := time.Duration(1<<uint(attempt)) * time.Second
	if backoff > 30*time.Second {
		backoff = 30 * time.Second
	}
	return backoff
}
