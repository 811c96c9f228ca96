package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

var (
	// ErrOTPRejected indicates the provider refused the code or phone number.
	ErrOTPRejected = errors.New("verification rejected")
	// ErrOTPRateLimited indicates the provider is throttling this phone or client.
	ErrOTPRateLimited = errors.New("verification rate limited")
)

// Session is what a successful phone verification returns to the client.
type Session struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
	UserID       string `json:"user_id"`
}

// OTPClient talks to the hosted auth provider's phone login endpoints.
type OTPClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewOTPClient creates a client for the provider at baseURL.
func NewOTPClient(baseURL, apiKey string) *OTPClient {
	return &OTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type otpRequest struct {
	Phone string `json:"phone"`
}

type verifyRequest struct {
	Phone string `json:"phone"`
	Token string `json:"token"`
	Type  string `json:"type"`
}

type verifyResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
	User         struct {
		ID string `json:"id"`
	} `json:"user"`
}

// SendCode asks the provider to text a one-time code to phone. phone must be
// digits only; the provider expects E.164 so a leading + is added.
func (c *OTPClient) SendCode(ctx context.Context, phone string) error {
	return c.post(ctx, "/auth/v1/otp", otpRequest{Phone: "+" + phone}, nil)
}

// VerifyCode exchanges phone and code for an access token.
func (c *OTPClient) VerifyCode(ctx context.Context, phone, code string) (Session, error) {
	var resp verifyResponse
	if err := c.post(ctx, "/auth/v1/verify", verifyRequest{Phone: "+" + phone, Token: code, Type: "sms"}, &resp); err != nil {
		return Session{}, err
	}
	if resp.AccessToken == "" {
		return Session{}, fmt.Errorf("%w: no access token in response", ErrOTPRejected)
	}
	return Session{
		AccessToken:  resp.AccessToken,
		TokenType:    resp.TokenType,
		ExpiresIn:    resp.ExpiresIn,
		RefreshToken: resp.RefreshToken,
		UserID:       resp.User.ID,
	}, nil
}

func (c *OTPClient) post(ctx context.Context, path string, payload, result interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("%w: %s - %s", ErrOTPRateLimited, resp.Status, strings.TrimSpace(string(msg)))
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("%w: %s - %s", ErrOTPRejected, resp.Status, strings.TrimSpace(string(msg)))
	case resp.StatusCode >= 300:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("auth provider error: %s - %s", resp.Status, strings.TrimSpace(string(msg)))
	}

	if result == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
