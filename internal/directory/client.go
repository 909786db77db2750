// Package directory talks to the external league service that owns teams and
// their managers. This core only asks one question of it.
package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// ManagerDirectory answers "is this user a manager of this team".
type ManagerDirectory interface {
	IsTeamManager(ctx context.Context, leagueID, teamID, userID string) (bool, error)
}

type Client struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client
}

type managerResponse struct {
	Manager bool `json:"manager"`
}

func (c *Client) IsTeamManager(ctx context.Context, leagueID, teamID, userID string) (bool, error) {
	base := strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	endpoint := fmt.Sprintf("%s/leagues/%s/teams/%s/managers/%s",
		base,
		url.PathEscape(leagueID),
		url.PathEscape(teamID),
		url.PathEscape(userID),
	)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, err
	}
	if key := strings.TrimSpace(c.APIKey); key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return false, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return false, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return false, fmt.Errorf("directory http %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	var mr managerResponse
	if err := json.Unmarshal(b, &mr); err != nil {
		return false, err
	}
	return mr.Manager, nil
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return http.DefaultClient
}
