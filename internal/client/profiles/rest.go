package profiles

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophsession/internal/common"
)

const usersPath = "/rest/v1/users"

// RESTDirectory queries the users table through PostgREST.
type RESTDirectory struct {
	baseURL    string
	anonKey    string
	httpClient *http.Client
}

var _ Directory = (*RESTDirectory)(nil)

// NewRESTDirectory returns a directory for the backend at rawURL. A nil
// httpClient selects a client with a 30s timeout.
func NewRESTDirectory(rawURL, anonKey string, httpClient *http.Client) (*RESTDirectory, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid backend url %q", rawURL)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &RESTDirectory{
		baseURL:    strings.TrimRight(rawURL, "/"),
		anonKey:    anonKey,
		httpClient: httpClient,
	}, nil
}

func (d *RESTDirectory) UsernameTaken(ctx context.Context, username string) (bool, error) {
	q := url.Values{
		"select":   {"username"},
		"username": {"eq." + username},
		"limit":    {"1"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.baseURL+usersPath+"?"+q.Encode(), nil)
	if err != nil {
		return false, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set(common.APIKeyHeaderName, d.anonKey)
	req.Header.Set("Authorization", "Bearer "+d.anonKey)
	req.Header.Set("Accept", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrLookupFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("%w: status %s", ErrLookupFailed, resp.Status)
	}

	var rows []struct {
		Username string `json:"username"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return false, fmt.Errorf("%w: decoding rows: %w", ErrLookupFailed, err)
	}
	return len(rows) > 0, nil
}
