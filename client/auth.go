package client

import (
	"context"
	"fmt"
	"net/http"

	"vehicle-marketplace/models"
)

type authResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Login authenticates and stores the returned session.
func (c *Client) Login(ctx context.Context, email, password string) (*models.User, error) {
	var resp authResponse
	payload := map[string]string{"email": email, "password": password}
	if err := c.doJSON(ctx, http.MethodPost, "/auth/login", false, payload, &resp, "Login failed. Please try again."); err != nil {
		return nil, err
	}
	if err := c.storeSession(resp); err != nil {
		return nil, err
	}
	return resp.User, nil
}

// Registration is the sign-up form.
type Registration struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates an account and signs it in.
func (c *Client) Register(ctx context.Context, r Registration) (*models.User, error) {
	var resp authResponse
	if err := c.doJSON(ctx, http.MethodPost, "/auth/register", false, r, &resp, "Signup failed. Please try again."); err != nil {
		return nil, err
	}
	if err := c.storeSession(resp); err != nil {
		return nil, err
	}
	return resp.User, nil
}

// Logout clears the stored session.
func (c *Client) Logout() error {
	return c.sessions.Logout()
}

// ForgotPassword asks the API to email a one-time code.
func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	return c.doJSON(ctx, http.MethodPost, "/auth/forgot-password", false,
		map[string]string{"email": email}, nil, "Failed to send OTP.")
}

// VerifyOTP checks the one-time code sent by ForgotPassword.
func (c *Client) VerifyOTP(ctx context.Context, email, otp string) error {
	return c.doJSON(ctx, http.MethodPost, "/auth/verify-otp", false,
		map[string]string{"email": email, "otp": otp}, nil, "Invalid OTP.")
}

// ResetPassword sets a new password after a verified OTP.
func (c *Client) ResetPassword(ctx context.Context, email, newPassword string) error {
	return c.doJSON(ctx, http.MethodPost, "/auth/reset-password", false,
		map[string]string{"email": email, "newPassword": newPassword}, nil, "Failed to reset password.")
}

func (c *Client) storeSession(resp authResponse) error {
	if resp.Token == "" {
		return fmt.Errorf("auth response carried no token")
	}
	return c.sessions.Login(resp.Token, resp.User)
}
