package portalclient

import (
	"bufio"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Event is one message from the server event stream.
type Event struct {
	Name string
	Data string
}

// TokenSource yields the current access token.
type TokenSource interface {
	AccessToken() (string, error)
}

// StreamEvents reads the event stream until it ends or ctx is done.
func (c *Client) StreamEvents(ctx context.Context, accessToken string, fn func(Event)) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/events", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Authorization", "Bearer "+accessToken)

	// Streams outlive the client's request timeout.
	hc := *c.http
	hc.Timeout = 0
	resp, err := hc.Do(req)
	if err != nil {
		return wrapNetErr(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return &APIError{Status: resp.StatusCode, Message: resp.Status}
	}

	var ev Event
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			if ev.Name != "" {
				fn(ev)
			}
			ev = Event{}
		case strings.HasPrefix(line, ":"):
		case strings.HasPrefix(line, "event:"):
			ev.Name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			ev.Data += strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		}
	}
	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		return wrapNetErr(err)
	}
	return ctx.Err()
}

// Subscribe keeps an event stream open, reconnecting with backoff, until ctx
// is done. Without a valid token it waits and tries again.
func (c *Client) Subscribe(ctx context.Context, tokens TokenSource, fn func(Event)) {
	backoff := time.Second
	for ctx.Err() == nil {
		token, err := tokens.AccessToken()
		if err == nil {
			err = c.StreamEvents(ctx, token, fn)
			if err == nil || errors.Is(err, context.Canceled) {
				backoff = time.Second
			}
		}
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			slog.Debug("Event stream closed", "error", err, "retry_in", backoff)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		if backoff < 30*time.Second {
			backoff *= 2
		}
	}
}
