package backend

import (
	"context"
	"net/http"
	"strconv"

	"github.com/dalemusser/seoadmin/internal/domain/models"
)

func userPath(id int64) string { return "/users/" + strconv.FormatInt(id, 10) }

// Users lists all users. The backend answers with either a bare array or an
// envelope around one.
func (c *Client) Users(ctx context.Context, creds Credentials) ([]models.User, error) {
	body, err := c.call(ctx, creds, http.MethodGet, "/users", nil, nil)
	if err != nil {
		return nil, err
	}
	raw := nested(payload(body), "users")
	users := []models.User{}
	if err := decode(raw, &users, "users"); err != nil {
		return nil, err
	}
	return users, nil
}

// User fetches one user.
func (c *Client) User(ctx context.Context, creds Credentials, id int64) (*models.User, error) {
	body, err := c.call(ctx, creds, http.MethodGet, userPath(id), nil, nil)
	if err != nil {
		return nil, err
	}
	return decodeUser(body)
}

// CreateUser creates a user and returns it as stored.
func (c *Client) CreateUser(ctx context.Context, creds Credentials, in models.UserInput) (*models.User, error) {
	body, err := c.call(ctx, creds, http.MethodPost, "/users", nil, in)
	if err != nil {
		return nil, err
	}
	return decodeUser(body)
}

// UpdateUser replaces a user's profile fields.
func (c *Client) UpdateUser(ctx context.Context, creds Credentials, id int64, in models.UserInput) (*models.User, error) {
	body, err := c.call(ctx, creds, http.MethodPut, userPath(id), nil, in)
	if err != nil {
		return nil, err
	}
	return decodeUser(body)
}

// ChangePassword sets a new password through the dedicated endpoint.
func (c *Client) ChangePassword(ctx context.Context, creds Credentials, id int64, in models.PasswordChange) error {
	_, err := c.call(ctx, creds, http.MethodPut, userPath(id)+"/password", nil, in)
	return err
}

// DeleteUser removes a user.
func (c *Client) DeleteUser(ctx context.Context, creds Credentials, id int64) error {
	_, err := c.call(ctx, creds, http.MethodDelete, userPath(id), nil, nil)
	return err
}

// decodeUser reads {data: {user: {...}}}, {data: {...}} or a bare object.
func decodeUser(body []byte) (*models.User, error) {
	var u models.User
	if err := decode(nested(payload(body), "user"), &u, "user"); err != nil {
		return nil, err
	}
	return &u, nil
}
