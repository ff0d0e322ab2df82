// Package recaptcha verifies tokens against Google's siteverify endpoint.
package recaptcha

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bimworks/portal-backend/internal/domain/gateway"
)

var (
	ErrNotConfigured = errors.New("recaptcha secret key is not configured")
	ErrMissingToken  = errors.New("recaptcha token is required")
)

// Result mirrors the siteverify response. Passed reflects MinScore as well
// as Success.
type Result struct {
	Success     bool     `json:"success"`
	Score       float64  `json:"score,omitempty"`
	Action      string   `json:"action,omitempty"`
	Hostname    string   `json:"hostname,omitempty"`
	ChallengeTS string   `json:"challenge_ts,omitempty"`
	ErrorCodes  []string `json:"error-codes,omitempty"`
	Passed      bool     `json:"passed"`
}

type Verifier interface {
	Verify(ctx context.Context, token, remoteIP string) (Result, error)
}

type Client struct {
	secret    string
	verifyURL string
	minScore  float64
	http      *http.Client
}

func NewClient(secret, verifyURL string, minScore float64) *Client {
	return &Client{
		secret:    secret,
		verifyURL: verifyURL,
		minScore:  minScore,
		http:      &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) Verify(ctx context.Context, token, remoteIP string) (Result, error) {
	if c.secret == "" {
		return Result{}, ErrNotConfigured
	}
	if strings.TrimSpace(token) == "" {
		return Result{}, ErrMissingToken
	}

	form := url.Values{"secret": {c.secret}, "response": {token}}
	if remoteIP != "" {
		form.Set("remoteip", remoteIP)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.verifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("siteverify request failed: %w: %w", gateway.ErrTransientNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return Result{}, fmt.Errorf("siteverify returned %d: %w", resp.StatusCode, gateway.ErrTransientNetwork)
	}
	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("siteverify returned %d", resp.StatusCode)
	}

	var res Result
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return Result{}, fmt.Errorf("failed to decode siteverify response: %w", err)
	}
	// v2 responses carry no score.
	res.Passed = res.Success && (res.Score == 0 || res.Score >= c.minScore)
	return res, nil
}
