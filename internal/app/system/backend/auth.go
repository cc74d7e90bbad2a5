package backend

import (
	"context"
	"net/http"
	"strings"

	"github.com/dalemusser/seoadmin/internal/domain/models"
)

// Login exchanges credentials for an access token.
func (c *Client) Login(ctx context.Context, email, password string) (*models.LoginResult, error) {
	body, err := c.call(ctx, Credentials{}, http.MethodPost, "/auth/login", nil, map[string]string{
		"email":    strings.TrimSpace(email),
		"password": password,
	})
	if err != nil {
		return nil, err
	}
	var res models.LoginResult
	if err := decode(payload(body), &res, "login"); err != nil {
		return nil, err
	}
	if res.AccessToken == "" {
		return nil, &APIError{StatusCode: http.StatusUnauthorized, Message: res.Message}
	}
	return &res, nil
}

// Dashboard fetches the summary metrics.
func (c *Client) Dashboard(ctx context.Context, creds Credentials) (*models.Dashboard, error) {
	body, err := c.call(ctx, creds, http.MethodGet, "/dashboard-data", nil, nil)
	if err != nil {
		return nil, err
	}
	var d models.Dashboard
	if err := decode(payload(body), &d, "dashboard"); err != nil {
		return nil, err
	}
	if d.RecentSEOPages == nil {
		d.RecentSEOPages = []models.RecentPageInfo{}
	}
	return &d, nil
}
