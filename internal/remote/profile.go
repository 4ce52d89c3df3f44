// Package remote holds thin HTTP clients for the excluded
// collaborator services.  They exist at the boundary only: no retry
// policy or caching lives here, callers decide how to compensate.
package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/iliyamo/train-ticket-inventory/internal/model"
)

// ProfileClient fetches passenger records from the profile service.
// It implements service.ProfileClient.
type ProfileClient struct {
	baseURL string
	client  *http.Client
}

// NewProfileClient builds a client for the given base URL.
func NewProfileClient(baseURL string) *ProfileClient {
	return &ProfileClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 5 * time.Second},
	}
}

// ProfilesByIDs fetches the passengers with the given ids.  Any
// non-200 response or transport failure is an error; the caller
// wraps it as a remote-dependency failure.
func (c *ProfileClient) ProfilesByIDs(ctx context.Context, ids []string) ([]model.Passenger, error) {
	q := url.Values{"ids": {strings.Join(ids, ",")}}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/passengers?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("profile service: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("profile service: unexpected status %d", resp.StatusCode)
	}
	var out []model.Passenger
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("profile service: decode response: %w", err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("profile service: no passengers returned for %d ids", len(ids))
	}
	return out, nil
}
