package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

func (c *Client) ListUsers(ctx context.Context, page int, search string) ([]User, error) {
	query := url.Values{}
	if page > 0 {
		query.Set("page", strconv.Itoa(page))
	}
	if search != "" {
		query.Set("search", search)
	}

	var envelope struct {
		Data []User `json:"data"`
	}
	endpoint := UsersEndpoint
	if encoded := query.Encode(); encoded != "" {
		endpoint += "?" + encoded
	}
	if err := c.get(ctx, endpoint, &envelope); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return envelope.Data, nil
}

func (c *Client) UpdateUser(ctx context.Context, id, name, email string) error {
	form := url.Values{}
	form.Set("name", name)
	form.Set("email", email)

	endpoint := fmt.Sprintf("%s/%s?_method=PATCH", UsersEndpoint, url.PathEscape(id))
	if err := c.postForm(ctx, endpoint, form, nil); err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}

func (c *Client) DeleteUser(ctx context.Context, id string) error {
	endpoint := fmt.Sprintf("%s/%s", UsersEndpoint, url.PathEscape(id))
	if err := c.delete(ctx, endpoint, nil); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

// ExportUsers downloads the user list as CSV. The filename comes from the
// Content-Disposition header when the server names the attachment.
func (c *Client) ExportUsers(ctx context.Context) (filename string, data []byte, err error) {
	resp, err := c.do(ctx, http.MethodGet, UsersExportEndpoint, nil, map[string]string{
		"Accept": "application/json, text/csv",
	})
	if err != nil {
		return "", nil, fmt.Errorf("export users: %w", err)
	}
	if !resp.ok() {
		return "", nil, fmt.Errorf("export users: %w", statusError(resp))
	}
	filename = resp.filename
	if filename == "" {
		filename = "users.csv"
	}
	return filename, resp.body, nil
}
