package api

import (
	"context"
	"fmt"
	"net/url"
)

// User is the authenticated account as returned by the check-user endpoint.
type User struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"isAdmin"`
}

type LoginResult struct {
	Token   string `json:"token"`
	IsAdmin bool   `json:"isAdmin"`
	Message string `json:"message"`
}

func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	form := url.Values{}
	form.Set("email", email)
	form.Set("password", password)

	var result LoginResult
	if err := c.postForm(ctx, LoginEndpoint, form, &result); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	c.SetToken(result.Token)
	return &result, nil
}

func (c *Client) Register(ctx context.Context, name, email, password, passwordConfirmation string) error {
	form := url.Values{}
	form.Set("name", name)
	form.Set("email", email)
	form.Set("password", password)
	form.Set("password_confirmation", passwordConfirmation)

	if err := c.postForm(ctx, RegisterEndpoint, form, nil); err != nil {
		return fmt.Errorf("register: %w", err)
	}
	return nil
}

func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	form := url.Values{}
	form.Set("email", email)

	if err := c.postForm(ctx, ForgotPasswordEndpoint, form, nil); err != nil {
		return fmt.Errorf("forgot password: %w", err)
	}
	return nil
}

// CheckUser fetches the account behind the current token. Used at startup
// and after joining a room to know the local member identity.
func (c *Client) CheckUser(ctx context.Context) (*User, error) {
	var envelope struct {
		Data User `json:"data"`
	}
	if err := c.get(ctx, CheckUserEndpoint, &envelope); err != nil {
		return nil, fmt.Errorf("check user: %w", err)
	}
	return &envelope.Data, nil
}

func (c *Client) Logout(ctx context.Context) error {
	if err := c.delete(ctx, LogoutEndpoint, nil); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	c.SetToken("")
	return nil
}
