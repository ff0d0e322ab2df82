// Package portalclient talks to the portal API on behalf of a desktop or
// kiosk agent. Client satisfies session.Authenticator.
package portalclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/bimworks/portal-backend/internal/domain/attendance"
	"github.com/bimworks/portal-backend/internal/domain/auth"
	"github.com/bimworks/portal-backend/internal/domain/gateway"
	"github.com/bimworks/portal-backend/internal/pkg/session"
	"github.com/bimworks/portal-backend/internal/pkg/validator"
)

// APIError is a non-2xx reply. It unwraps to the matching gateway error.
type APIError struct {
	Status  int
	Code    string
	Message string
	Details map[string]string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("portal api %d %s: %s", e.Status, e.Code, e.Message)
}

func (e *APIError) Unwrap() error {
	switch {
	case e.Code == "NETWORK_NOT_AUTHORIZED":
		return attendance.ErrNetworkNotAuthorized
	case e.Status == http.StatusUnprocessableEntity:
		var verrs validator.ValidationErrors
		for field, msg := range e.Details {
			verrs.Add(field, msg)
		}
		return verrs
	case e.Status == http.StatusUnauthorized:
		return gateway.ErrUnauthenticated
	case e.Status == http.StatusForbidden:
		return gateway.ErrForbidden
	case e.Status == http.StatusNotFound:
		return gateway.ErrNotFound
	case e.Status == http.StatusConflict:
		return gateway.ErrConflict
	case e.Status == http.StatusTooManyRequests, e.Status >= 500:
		return gateway.ErrTransientNetwork
	}
	return nil
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details"`
	} `json:"error"`
}

type Client struct {
	baseURL string
	http    *http.Client
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/") + "/api/v1",
		http:    &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) do(ctx context.Context, method, path, bearer string, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return wrapNetErr(err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil && !errors.Is(err, io.EOF) {
		if resp.StatusCode >= 500 {
			return &APIError{Status: resp.StatusCode, Code: "BAD_GATEWAY", Message: resp.Status}
		}
		return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
	}
	if resp.StatusCode >= 300 || !env.Success {
		apiErr := &APIError{Status: resp.StatusCode, Message: resp.Status}
		if env.Error != nil {
			apiErr.Code = env.Error.Code
			apiErr.Message = env.Error.Message
			apiErr.Details = env.Error.Details
		}
		return apiErr
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("failed to decode %s %s data: %w", method, path, err)
		}
	}
	return nil
}

func wrapNetErr(err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: %w", gateway.ErrTransientNetwork, err)
	}
	return err
}

func toSession(t auth.TokenResponse) session.Session {
	return session.Session{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		ExpiresAt:    time.Unix(t.AccessTokenExpiresAt, 0),
		User:         toUser(t.User),
	}
}

func toUser(u auth.SessionUser) session.User {
	return session.User{UserID: u.UserID, EmployeeID: u.EmployeeID, Email: u.Email, Role: u.Role}
}

func (c *Client) SignIn(ctx context.Context, identifier, password string) (session.Session, error) {
	var tokens auth.TokenResponse
	err := c.do(ctx, http.MethodPost, "/auth/login", "", auth.LoginRequest{Identifier: identifier, Password: password}, &tokens)
	if err != nil {
		return session.Session{}, err
	}
	return toSession(tokens), nil
}

func (c *Client) SignOut(ctx context.Context, refreshToken string) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", "", auth.RefreshTokenRequest{RefreshToken: refreshToken}, nil)
}

func (c *Client) GetSession(ctx context.Context, accessToken string) (session.User, time.Time, error) {
	var resp auth.SessionResponse
	if err := c.do(ctx, http.MethodGet, "/auth/session", accessToken, nil, &resp); err != nil {
		return session.User{}, time.Time{}, err
	}
	return toUser(resp.User), time.Unix(resp.ExpiresAt, 0), nil
}

func (c *Client) RefreshSession(ctx context.Context, refreshToken string) (session.Session, error) {
	var tokens auth.TokenResponse
	err := c.do(ctx, http.MethodPost, "/auth/refresh", "", auth.RefreshTokenRequest{RefreshToken: refreshToken}, &tokens)
	if err != nil {
		return session.Session{}, err
	}
	return toSession(tokens), nil
}

func (c *Client) CheckIn(ctx context.Context, accessToken string) (attendance.AttendanceResponse, error) {
	var rec attendance.AttendanceResponse
	err := c.do(ctx, http.MethodPost, "/attendance/check-in", accessToken, struct{}{}, &rec)
	return rec, err
}

func (c *Client) CheckOut(ctx context.Context, accessToken, recordID string) (attendance.AttendanceResponse, error) {
	var rec attendance.AttendanceResponse
	err := c.do(ctx, http.MethodPost, "/attendance/"+recordID+"/check-out", accessToken, struct{}{}, &rec)
	return rec, err
}

// Today returns today's record, or nil before check-in.
func (c *Client) Today(ctx context.Context, accessToken string) (*attendance.AttendanceResponse, error) {
	var rec *attendance.AttendanceResponse
	err := c.do(ctx, http.MethodGet, "/attendance/today", accessToken, nil, &rec)
	return rec, err
}
