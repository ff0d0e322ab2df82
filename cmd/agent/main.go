// Command agent is the kiosk check-in client. It signs in, validates the
// session once, performs the requested attendance action and, with -watch,
// stays running to keep the session fresh until the server signs it out.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bimworks/portal-backend/internal/pkg/portalclient"
	"github.com/bimworks/portal-backend/internal/pkg/session"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

type logNavigator struct {
	cancel context.CancelFunc
}

// RedirectToLogin has no login view to show, so the agent stops.
func (n logNavigator) RedirectToLogin(reason string) {
	slog.Warn("Sign in required", "reason", reason)
	if n.cancel != nil {
		n.cancel()
	}
}

type logNotifier struct{}

func (logNotifier) Notify(message string) {
	fmt.Fprintln(os.Stderr, message)
}

func main() {
	action := flag.String("action", "status", "one of: check-in, check-out, status")
	watch := flag.Bool("watch", false, "keep the session alive until interrupted or signed out")
	timeout := flag.Duration("timeout", 15*time.Second, "per-request timeout")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Error("failed to load .env file", "error", err)
		os.Exit(1)
	}

	if err := run(*action, *watch, *timeout); err != nil {
		slog.Error("Agent failed", "error", err)
		os.Exit(1)
	}
}

func run(action string, watch bool, timeout time.Duration) error {
	baseURL := os.Getenv("PORTAL_URL")
	identifier := os.Getenv("PORTAL_IDENTIFIER")
	password := os.Getenv("PORTAL_PASSWORD")
	if baseURL == "" || identifier == "" || password == "" {
		return errors.New("PORTAL_URL, PORTAL_IDENTIFIER and PORTAL_PASSWORD are required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	client := portalclient.New(baseURL, portalclient.WithHTTPClient(&http.Client{Timeout: timeout}))
	manager := session.NewManager(client, logNavigator{cancel: cancel}, logNotifier{}, session.DefaultConfig())

	if err := manager.SignIn(ctx, identifier, password); err != nil {
		return fmt.Errorf("sign in: %w", err)
	}
	defer func() {
		signOutCtx, done := context.WithTimeout(context.Background(), timeout)
		defer done()
		if err := manager.SignOut(signOutCtx); err != nil {
			slog.Warn("sign out failed", "error", err)
		}
	}()

	if decision, err := session.NewGuard(manager).Check(ctx); decision != session.Allow {
		return fmt.Errorf("session rejected: %w", err)
	}

	if err := perform(ctx, client, manager, action); err != nil {
		return err
	}
	if !watch {
		return nil
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		manager.Run(ctx)
		return nil
	})
	g.Go(func() error {
		client.Subscribe(ctx, manager, func(ev portalclient.Event) {
			manager.HandleAuthEvent(session.AuthEvent(ev.Name))
		})
		return nil
	})
	slog.Info("Watching session", "user_id", userID(manager))
	return g.Wait()
}

func perform(ctx context.Context, client *portalclient.Client, manager *session.Manager, action string) error {
	token, err := manager.AccessToken()
	if err != nil {
		return err
	}

	switch action {
	case "check-in":
		record, err := client.CheckIn(ctx, token)
		if err != nil {
			return fmt.Errorf("check in: %w", err)
		}
		slog.Info("Checked in", "attendance_id", record.ID, "at", deref(record.CheckInTime))
	case "check-out":
		today, err := client.Today(ctx, token)
		if err != nil {
			return fmt.Errorf("load today's attendance: %w", err)
		}
		if today == nil {
			return errors.New("no check-in recorded today")
		}
		record, err := client.CheckOut(ctx, token, today.ID)
		if err != nil {
			return fmt.Errorf("check out: %w", err)
		}
		slog.Info("Checked out", "attendance_id", record.ID, "at", deref(record.CheckOutTime), "hours", record.TotalHours)
	case "status":
		today, err := client.Today(ctx, token)
		if err != nil {
			return fmt.Errorf("load today's attendance: %w", err)
		}
		if today == nil {
			slog.Info("Not checked in today")
			return nil
		}
		slog.Info("Today's attendance", "attendance_id", today.ID, "status", today.Status,
			"check_in", deref(today.CheckInTime), "check_out", deref(today.CheckOutTime))
	default:
		return fmt.Errorf("unknown action %q", action)
	}
	return nil
}

func userID(m *session.Manager) string {
	if s, ok := m.Session(); ok {
		return s.User.UserID
	}
	return ""
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
