package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophsession/internal/common"
	"github.com/dmitrijs2005/gophsession/internal/logging"
)

// SessionStorage persists the serialized session between runs.
// GetItem reports ok=false for a missing key.
type SessionStorage interface {
	GetItem(ctx context.Context, key string) (string, bool, error)
	SetItem(ctx context.Context, key, value string) error
	RemoveItem(ctx context.Context, key string) error
}

// Listener receives session changes. session is nil after sign-out.
type Listener func(event Event, session *Session)

// DefaultRefreshMargin is how long before expiry a session is refreshed.
const DefaultRefreshMargin = 60 * time.Second

const maxErrorBody = 64 << 10

type Client struct {
	baseURL    *url.URL
	anonKey    string
	httpClient *http.Client
	storage    SessionStorage
	storageKey string
	log        logging.Logger
	margin     time.Duration
	now        func() time.Time

	mu          sync.Mutex
	session     *Session
	initialized bool
	// gen counts commits of the current session.
	gen uint64

	refreshMu sync.Mutex
	// commitMu orders storage writes and session swaps.
	commitMu sync.Mutex

	lmu       sync.Mutex
	listeners []listenerEntry
	nextID    uint64

	// emitMu serializes listener deliveries.
	emitMu sync.Mutex
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithStorage enables session persistence. Without it sessions live only in memory.
func WithStorage(s SessionStorage) Option {
	return func(c *Client) { c.storage = s }
}

func WithLogger(l logging.Logger) Option {
	return func(c *Client) { c.log = l }
}

func WithRefreshMargin(d time.Duration) Option {
	return func(c *Client) { c.margin = d }
}

func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// NewClient returns a client for the backend at rawURL, authenticating
// anonymous requests with anonKey.
func NewClient(rawURL, anonKey string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(rawURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing backend url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("parsing backend url: %q is not absolute", rawURL)
	}

	c := &Client{
		baseURL:    u,
		anonKey:    anonKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		log:        logging.Nop(),
		margin:     DefaultRefreshMargin,
		now:        time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	c.storageKey = StorageKey(u)
	return c, nil
}

// StorageKey is the persistence key for a backend: sb-<ref>-auth-token,
// where ref is the first label of the host name. Characters a keychain key
// cannot hold, such as the colons of an IPv6 address, become '-'.
func StorageKey(u *url.URL) string {
	ref, _, _ := strings.Cut(u.Hostname(), ".")
	ref = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			return r
		}
		return '-'
	}, ref)
	return common.SessionKeyPrefix + ref + common.SessionKeySuffix
}

// StorageKey returns the key the current session is persisted under.
func (c *Client) StorageKey() string { return c.storageKey }

func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.baseURL
	u.Path = c.baseURL.Path + path
	u.RawQuery = query.Encode()
	return u.String()
}

// do sends a JSON request. token overrides the anon key in the
// Authorization header. out may be nil.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, token string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, query), reader)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	if token == "" {
		token = c.anonKey
	}
	req.Header.Set(common.APIKeyHeaderName, c.anonKey)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		return c.mapError(resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func (c *Client) mapError(resp *http.Response) error {
	var body errorBody
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	_ = json.Unmarshal(data, &body)

	apiErr := &APIError{
		Status:  resp.StatusCode,
		Code:    body.code(),
		Message: body.message(),
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		apiErr.kind = ErrUnauthorized
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		apiErr.kind = ErrUnavailable
	}
	return apiErr
}
