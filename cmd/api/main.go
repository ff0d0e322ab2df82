package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bimworks/portal-backend/internal/config"
	appHTTP "github.com/bimworks/portal-backend/internal/handler/http"
	"github.com/bimworks/portal-backend/internal/handler/http/middleware"
	"github.com/bimworks/portal-backend/internal/pkg/cron"
	"github.com/bimworks/portal-backend/internal/pkg/database"
	"github.com/bimworks/portal-backend/internal/pkg/email"
	"github.com/bimworks/portal-backend/internal/pkg/jwt"
	"github.com/bimworks/portal-backend/internal/pkg/messaging"
	"github.com/bimworks/portal-backend/internal/pkg/oauth"
	"github.com/bimworks/portal-backend/internal/pkg/recaptcha"
	"github.com/bimworks/portal-backend/internal/pkg/sse"
	"github.com/bimworks/portal-backend/internal/pkg/storage"
	"github.com/bimworks/portal-backend/internal/repository/postgresql"
	assignmentService "github.com/bimworks/portal-backend/internal/service/assignment"
	attendanceService "github.com/bimworks/portal-backend/internal/service/attendance"
	serviceAuth "github.com/bimworks/portal-backend/internal/service/auth"
	employeeService "github.com/bimworks/portal-backend/internal/service/employee"
	"github.com/bimworks/portal-backend/internal/service/file"
	leaveService "github.com/bimworks/portal-backend/internal/service/leave"
	payrollService "github.com/bimworks/portal-backend/internal/service/payroll"
	projectService "github.com/bimworks/portal-backend/internal/service/project"
	whitelistService "github.com/bimworks/portal-backend/internal/service/whitelist"
	"github.com/go-chi/httplog/v3"
	"github.com/redis/go-redis/v9"
)

const refreshTokenRetention = 7 * 24 * time.Hour

func main() {
	if err := run(); err != nil {
		slog.Error("Server stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logFormat := httplog.SchemaECS.Concise(cfg.App.Env != "production")
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       cfg.LogLevel(),
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "bim-portal"),
		slog.String("env", cfg.App.Env),
	)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL())
	if err != nil {
		return err
	}
	defer db.Close()

	loc := cfg.Location()
	txManager := postgresql.NewTxManager(db)

	userRepo := postgresql.NewUserRepository(db)
	refreshTokenRepo := postgresql.NewRefreshTokenRepository(db)
	employeeRepo := postgresql.NewEmployeeRepository(db)
	projectRepo := postgresql.NewProjectRepository(db)
	attendanceRepo := postgresql.NewAttendanceRepository(db)
	whitelistRepo := postgresql.NewWhitelistRepository(db)
	leaveRequestRepo := postgresql.NewLeaveRequestRepository(db)
	rejectionRepo := postgresql.NewRejectionRepository(db)
	leaveBalanceRepo := postgresql.NewLeaveBalanceRepository(db)
	assignmentRepo := postgresql.NewAssignmentRepository(db)
	payrollRepo := postgresql.NewPayrollRepository(db)
	salarySlipRepo := postgresql.NewSalarySlipRepository(db)

	secureCookies := cfg.App.Env == "production"
	jwtService, err := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration, cfg.JWT.RefreshExpiration, secureCookies)
	if err != nil {
		return fmt.Errorf("failed to initialize jwt service: %w", err)
	}

	var googleService oauth.GoogleService
	if cfg.OAuth2Google.Enabled() {
		googleService = oauth.NewGoogleService(cfg.OAuth2Google.ClientID, cfg.OAuth2Google.ClientSecret, cfg.OAuth2Google.RedirectURL, cfg.OAuth2Google.Scopes)
	} else {
		slog.Info("Google sign-in disabled")
	}

	fileStorage, err := storage.NewLocalStorage(cfg.Storage.BasePath, cfg.Storage.BaseURL)
	if err != nil {
		return fmt.Errorf("failed to initialize local storage: %w", err)
	}
	fileService := file.NewFileService(fileStorage)

	var mailer email.EmailService = email.LogOnlyEmailService{}
	if cfg.SMTP.Enabled() {
		mailer, err = email.NewEmailService(cfg.SMTP)
		if err != nil {
			return fmt.Errorf("failed to initialize email service: %w", err)
		}
	}

	var publisher messaging.Publisher = messaging.NoopPublisher{}
	if len(cfg.Kafka.Brokers) > 0 {
		publisher = messaging.NewKafkaPublisher(cfg.Kafka.Brokers)
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			slog.Warn("failed to close event publisher", "error", err)
		}
	}()

	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			// The idempotency guard fails open, so a cold Redis is not fatal.
			slog.Warn("redis unreachable at startup", "addr", cfg.Redis.Addr, "error", err)
		}
	}

	hub := sse.NewHub()

	authSvc := serviceAuth.NewAuthService(userRepo, employeeRepo, refreshTokenRepo, jwtService, hub)
	employeeSvc := employeeService.NewEmployeeService(txManager, userRepo, employeeRepo, leaveBalanceRepo, fileService, cfg.Leave, loc)
	projectSvc := projectService.NewProjectService(projectRepo, fileService)
	attendanceSvc := attendanceService.NewAttendanceService(attendanceRepo, whitelistRepo, employeeRepo, loc)
	leaveSvc := leaveService.NewLeaveService(txManager, leaveRequestRepo, rejectionRepo, leaveBalanceRepo, employeeRepo, fileService, mailer, publisher, cfg.App.FrontendURL, loc)
	defer leaveSvc.Wait()
	assignmentSvc := assignmentService.NewAssignmentService(assignmentRepo, employeeRepo, loc)
	whitelistSvc := whitelistService.NewWhitelistService(whitelistRepo)
	payrollSvc := payrollService.NewPayrollService(txManager, payrollRepo, salarySlipRepo, employeeRepo, publisher, loc)

	loginLimiter := middleware.NewIPRateLimiter(cfg.RateLimit.LoginPerMinute, cfg.RateLimit.LoginBurst)

	scheduler := cron.NewScheduler()
	cron.NewTokenJobs(refreshTokenRepo, refreshTokenRetention).RegisterJobs(scheduler)
	scheduler.AddJob("sweep_login_limiter", 10*time.Minute, func(context.Context) error {
		if n := loginLimiter.Sweep(); n > 0 {
			slog.Debug("Cron: swept idle rate limiters", "count", n)
		}
		return nil
	})
	scheduler.Start(ctx)
	defer scheduler.Stop()

	routerCfg := appHTTP.RouterConfig{
		Logger:         logger,
		LogLevel:       cfg.LogLevel(),
		AllowedOrigins: cfg.App.AllowedOrigins,
		TrustProxy:     cfg.App.TrustProxy,
		IdempotencyTTL: cfg.Redis.IdempotencyTTL,
		LoginLimiter:   loginLimiter,
		Storage:        http.FileServer(http.Dir(fileStorage.Root())),
	}
	if rdb != nil {
		routerCfg.Redis = rdb
	}

	router := appHTTP.NewRouter(routerCfg, jwtService, appHTTP.Handlers{
		Auth:       appHTTP.NewAuthHandler(jwtService, authSvc, googleService, cfg.App.FrontendURL, secureCookies),
		Employee:   appHTTP.NewEmployeeHandler(employeeSvc),
		Project:    appHTTP.NewProjectHandler(projectSvc),
		Attendance: appHTTP.NewAttendanceHandler(attendanceSvc),
		Leave:      appHTTP.NewLeaveHandler(leaveSvc),
		Assignment: appHTTP.NewAssignmentHandler(assignmentSvc),
		Whitelist:  appHTTP.NewWhitelistHandler(whitelistSvc),
		Payroll:    appHTTP.NewPayrollHandler(payrollSvc),
		Recaptcha:  appHTTP.NewRecaptchaHandler(recaptcha.NewClient(cfg.Recaptcha.SecretKey, cfg.Recaptcha.VerifyURL, cfg.Recaptcha.MinScore)),
		Events:     appHTTP.NewEventsHandler(hub),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server running", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
