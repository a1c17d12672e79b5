// Package connection talks to the partner's connection API, which knows
// which remote account each local user has linked.
package connection

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/framegate/internal/common"
	"github.com/dmitrijs2005/framegate/internal/server/auth"
)

// RemoteUser is the connected account as reported by the partner.
type RemoteUser struct {
	ID          int64  `json:"ID"`
	Login       string `json:"login"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

// Client fetches connected user data.
type Client struct {
	baseURL    *url.URL
	installID  string
	secret     []byte
	httpClient *http.Client
}

const serviceTokenValidity = time.Minute

// NewClient builds a Client for the API rooted at baseURL. Requests are
// signed with secret and time out after timeout.
func NewClient(baseURL string, installID string, secret []byte, timeout time.Duration) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("bad connection base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("bad connection base url %q", baseURL)
	}
	return &Client{
		baseURL:    u,
		installID:  installID,
		secret:     secret,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// ConnectedUser returns the remote account linked to the local userID.
// It returns common.ErrNotConnected when the partner has no link.
func (c *Client) ConnectedUser(ctx context.Context, userID int64) (*RemoteUser, error) {
	token, err := auth.GenerateServiceToken(c.installID, userID, c.secret, serviceTokenValidity)
	if err != nil {
		return nil, err
	}

	endpoint := c.baseURL.JoinPath("users", strconv.FormatInt(userID, 10), "connection")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("connection api request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, common.ErrNotConnected
	default:
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("connection api failed: %s; body: %s", resp.Status, string(b))
	}

	user := &RemoteUser{}
	if err := json.NewDecoder(resp.Body).Decode(user); err != nil {
		return nil, fmt.Errorf("decode connected user: %w", err)
	}
	if user.ID == 0 {
		return nil, common.ErrNotConnected
	}
	return user, nil
}
