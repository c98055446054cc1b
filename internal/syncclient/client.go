package syncclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	apperrors "github.com/domain80/centabit-core/internal/errors"
)

// HTTPClient communicates with the remote sync authority over HTTP.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPClient creates a sync client for the given base URL. A nil
// httpClient falls back to a client with a 30s timeout.
func NewHTTPClient(baseURL string, httpClient *http.Client) *HTTPClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// Push submits local changes to the remote authority.
func (c *HTTPClient) Push(ctx context.Context, pushReq PushRequest) (*PushResponse, error) {
	jsonBody, err := json.Marshal(pushReq)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrSyncRemote, fmt.Errorf("marshaling push request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/sync/push", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrSyncRemote, fmt.Errorf("creating push request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// A transport error means the remote never answered.
		return nil, apperrors.Wrap(apperrors.ErrSyncConnectivity, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.Wrap(apperrors.ErrSyncRemote, fmt.Errorf("push: unexpected status %d", resp.StatusCode))
	}

	var result PushResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrSyncRemote, fmt.Errorf("decoding push response: %w", err))
	}
	return &result, nil
}

// Pull requests all remote rows changed since the given watermark for
// the owner. A nil since requests everything.
func (c *HTTPClient) Pull(ctx context.Context, ownerID string, since *time.Time) (*PullResponse, error) {
	query := url.Values{}
	query.Set("owner_id", ownerID)
	if since != nil {
		query.Set("since", since.UTC().Format(time.RFC3339Nano))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/sync/pull?"+query.Encode(), nil)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrSyncRemote, fmt.Errorf("creating pull request: %w", err))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrSyncConnectivity, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.Wrap(apperrors.ErrSyncRemote, fmt.Errorf("pull: unexpected status %d", resp.StatusCode))
	}

	var result PullResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrSyncRemote, fmt.Errorf("decoding pull response: %w", err))
	}
	return &result, nil
}

// IsConnectivity reports whether err classifies as a connectivity
// failure, which maps to the worker's Offline state.
func IsConnectivity(err error) bool {
	return errors.Is(err, apperrors.ErrSyncConnectivity)
}
