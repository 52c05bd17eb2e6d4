package directory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	tokenAuth "github.com/MrEthical07/tokenAuth"
)

const (
	signInPath = "/auth/signIn"
	signUpPath = "/auth/signUp"

	socialSignUpPath = "/auth/social/signUp"

	defaultTimeout = 5 * time.Second
	maxErrorBody   = 512
)

// Config configures a [Client].
type Config struct {
	// BaseURL is the directory root, e.g. http://user-service:8080.
	BaseURL string
	// Timeout bounds each request when HTTPClient is nil. Defaults to 5s.
	Timeout time.Duration
	// HTTPClient overrides the transport. Optional.
	HTTPClient *http.Client
}

// Client calls the user directory over HTTP. It is safe for concurrent use.
type Client struct {
	base *url.URL
	http *http.Client
}

var (
	_ tokenAuth.UserDirectory       = (*Client)(nil)
	_ tokenAuth.SocialUserDirectory = (*Client)(nil)
)

type signInRequest struct {
	Email    string `json:"userEmail"`
	Password string `json:"userPassword"`
}

type signUpRequest struct {
	Name     string `json:"userName"`
	Email    string `json:"userEmail"`
	Password string `json:"userPassword"`
}

type socialSignUpRequest struct {
	Name  string `json:"userName"`
	Email string `json:"userEmail"`
}

// New validates cfg and returns a Client.
func New(cfg Config) (*Client, error) {
	raw := strings.TrimSpace(cfg.BaseURL)
	if raw == "" {
		return nil, fmt.Errorf("%w: directory base URL is required", tokenAuth.ErrConfiguration)
	}
	base, err := url.Parse(strings.TrimRight(raw, "/"))
	if err != nil {
		return nil, fmt.Errorf("%w: directory base URL: %v", tokenAuth.ErrConfiguration, err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("%w: directory base URL must be http or https", tokenAuth.ErrConfiguration)
	}

	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}

	return &Client{base: base, http: client}, nil
}

// VerifyCredentials asks the directory to check identifier and password.
// The identifier is returned as the subject on success.
func (c *Client) VerifyCredentials(ctx context.Context, identifier, password string) (string, error) {
	status, err := c.post(ctx, signInPath, signInRequest{Email: identifier, Password: password})
	if err != nil {
		return "", err
	}

	switch status {
	case http.StatusOK, http.StatusNoContent:
		return identifier, nil
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
		return "", fmt.Errorf("%w: directory returned %d", tokenAuth.ErrInvalidCredentials, status)
	default:
		return "", fmt.Errorf("%w: sign-in returned %d", tokenAuth.ErrDirectoryUnavailable, status)
	}
}

// CreateUser registers a new user and returns its email as the subject.
func (c *Client) CreateUser(ctx context.Context, req tokenAuth.RegisterRequest) (string, error) {
	status, err := c.post(ctx, signUpPath, signUpRequest{Name: req.Name, Email: req.Email, Password: req.Password})
	if err != nil {
		return "", err
	}
	if err := createStatus("sign-up", status); err != nil {
		return "", err
	}
	return req.Email, nil
}

// CreateSocialUser registers a password-less user whose email an identity
// provider has confirmed. It posts to /auth/social/signUp.
func (c *Client) CreateSocialUser(ctx context.Context, req tokenAuth.SocialRegisterRequest) (string, error) {
	status, err := c.post(ctx, socialSignUpPath, socialSignUpRequest{Name: req.Name, Email: req.Email})
	if err != nil {
		return "", err
	}
	if err := createStatus("social sign-up", status); err != nil {
		return "", err
	}
	return req.Email, nil
}

func createStatus(op string, status int) error {
	switch status {
	case http.StatusCreated, http.StatusOK:
		return nil
	case http.StatusConflict:
		return fmt.Errorf("%w: directory returned %d", tokenAuth.ErrAccountExists, status)
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return fmt.Errorf("%w: directory returned %d", tokenAuth.ErrInvalidRegistration, status)
	default:
		return fmt.Errorf("%w: %s returned %d", tokenAuth.ErrDirectoryUnavailable, op, status)
	}
}

func (c *Client) post(ctx context.Context, path string, payload any) (int, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("encode directory request: %w", err)
	}

	endpoint := c.base.JoinPath(path)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", tokenAuth.ErrDirectoryUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", tokenAuth.ErrDirectoryUnavailable, err)
	}
	defer resp.Body.Close()

	// Drain a bounded amount so the connection can be reused.
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
	return resp.StatusCode, nil
}
