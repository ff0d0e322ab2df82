package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/bimworks/portal-backend/internal/domain/user"
	"github.com/bimworks/portal-backend/internal/handler/http/middleware"
	"github.com/bimworks/portal-backend/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
	"github.com/redis/go-redis/v9"
)

type RouterConfig struct {
	Logger         *slog.Logger
	LogLevel       slog.Level
	AllowedOrigins []string
	TrustProxy     bool
	// Redis backs the idempotency guard on payroll approval; nil disables it.
	Redis          redis.Cmdable
	IdempotencyTTL time.Duration
	LoginLimiter   *middleware.IPRateLimiter
	// Storage serves uploaded files under /storage/.
	Storage http.Handler
}

type Handlers struct {
	Auth       AuthHandler
	Employee   EmployeeHandler
	Project    ProjectHandler
	Attendance AttendanceHandler
	Leave      LeaveHandler
	Assignment AssignmentHandler
	Whitelist  WhitelistHandler
	Payroll    PayrollHandler
	Recaptcha  RecaptchaHandler
	Events     EventsHandler
}

func NewRouter(cfg RouterConfig, jwtService jwt.Service, h Handlers) *chi.Mux {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token", middleware.IdempotencyHeader},
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		MaxAge:           300,
	}))

	if cfg.TrustProxy {
		r.Use(chiMiddleware.RealIP)
	}

	if cfg.Logger != nil {
		r.Use(httplog.RequestLogger(cfg.Logger, &httplog.Options{
			Level:  cfg.LogLevel,
			Schema: httplog.SchemaECS,
		}))
	}

	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/healthz"))

	if cfg.Storage != nil {
		r.Handle("/storage/*", http.StripPrefix("/storage/", cfg.Storage))
	}

	limit := func(next http.Handler) http.Handler { return next }
	if cfg.LoginLimiter != nil {
		limit = cfg.LoginLimiter.Handler
	}
	idempotent := func(next http.Handler) http.Handler { return next }
	if cfg.Redis != nil {
		idempotent = middleware.Idempotency(cfg.Redis, cfg.IdempotencyTTL)
	}

	verifier := jwtauth.Verifier(jwtService.JWTAuth())

	r.Route("/api/v1", func(r chi.Router) {

		r.Route("/auth", func(r chi.Router) {
			r.With(limit).Post("/login", h.Auth.Login)
			r.Get("/login/oauth/google", h.Auth.LoginWithGoogle)
			r.Get("/oauth/callback/google", h.Auth.OAuthCallbackGoogle)
			r.Post("/refresh", h.Auth.RefreshToken)
			r.Post("/logout", h.Auth.Logout)
			r.Get("/session", h.Auth.Session)
		})

		r.With(limit).Post("/recaptcha/verify", h.Recaptcha.Verify)

		r.Route("/projects", func(r chi.Router) {
			// Public portfolio; managers also see drafts.
			r.Group(func(r chi.Router) {
				r.Use(verifier, middleware.OptionalAuth)
				r.Get("/", h.Project.List)
				r.Get("/{idOrSlug}", h.Project.Get)
			})

			r.Group(func(r chi.Router) {
				r.Use(verifier, middleware.AuthRequired)
				r.Use(middleware.RequirePermission(user.PermissionProjectManage))
				r.Post("/", h.Project.Create)
				r.Put("/{id}", h.Project.Update)
				r.Delete("/{id}", h.Project.Delete)
				r.Post("/{id}/cover", h.Project.UploadCover)
			})
		})

		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(verifier)
			r.Use(middleware.AuthRequired)

			r.Get("/events", h.Events.Stream)

			r.Route("/employees", func(r chi.Router) {
				r.Get("/me", h.Employee.GetMe)
				r.Get("/{id}", h.Employee.Get)
				r.Post("/{id}/cv", h.Employee.UploadCV)

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequirePermission(user.PermissionEmployeeManage))
					r.Get("/", h.Employee.List)
					r.Post("/", h.Employee.Create)
					r.Put("/{id}", h.Employee.Update)
					r.Delete("/{id}", h.Employee.Delete)
				})
			})

			r.Route("/attendance", func(r chi.Router) {
				r.Post("/check-in", h.Attendance.CheckIn)
				r.Post("/{id}/check-out", h.Attendance.CheckOut)
				r.Get("/today", h.Attendance.Today)
				r.Get("/me", h.Attendance.Mine)
				r.Get("/", h.Attendance.List)
				r.With(middleware.RequirePermission(user.PermissionAttendanceManual)).Post("/manual", h.Attendance.ManualEntry)
				r.With(middleware.RequirePermission(user.PermissionAttendanceExport)).Get("/export", h.Attendance.Export)
			})

			r.Route("/leave", func(r chi.Router) {
				r.Post("/", h.Leave.Submit)
				r.Get("/mine", h.Leave.ListMine)
				r.Get("/pending/supervisor", h.Leave.ListPendingSupervisor)
				r.With(middleware.RequirePermission(user.PermissionLeaveAdminApprove)).Get("/pending/admin", h.Leave.ListPendingAdmin)
				r.Get("/rejections", h.Leave.ListRejections)
				r.Get("/balance", h.Leave.GetBalance)
				r.Get("/{id}", h.Leave.Get)
				r.Post("/{id}/approve/supervisor", h.Leave.SupervisorApprove)
				r.With(middleware.RequirePermission(user.PermissionLeaveAdminApprove)).Post("/{id}/approve/admin", h.Leave.AdminApprove)
				r.Post("/{id}/reject", h.Leave.Reject)
			})

			r.Route("/assignments", func(r chi.Router) {
				r.Post("/", h.Assignment.Create)
				r.Get("/mine", h.Assignment.ListMine)
				r.Get("/supervised", h.Assignment.ListSupervised)
				r.Get("/{id}", h.Assignment.Get)
				r.Post("/{id}/members", h.Assignment.AddMember)
				r.Delete("/{id}/members/{employeeID}", h.Assignment.RemoveMember)
				r.Put("/{id}/note", h.Assignment.UpdateMyNote)
				r.Post("/{id}/complete", h.Assignment.Complete)
				r.Post("/{id}/approve", h.Assignment.Approve)
			})

			r.Route("/ip-whitelist", func(r chi.Router) {
				r.Use(middleware.RequirePermission(user.PermissionWhitelistManage))
				r.Get("/", h.Whitelist.List)
				r.Post("/", h.Whitelist.Create)
				r.Patch("/{id}", h.Whitelist.SetActive)
				r.Delete("/{id}", h.Whitelist.Delete)
			})

			r.Route("/payroll", func(r chi.Router) {
				r.Get("/", h.Payroll.List)
				r.Get("/slips/mine", h.Payroll.ListMySlips)
				r.Get("/slips/{id}/pdf", h.Payroll.DownloadSlip)
				r.With(middleware.RequirePermission(user.PermissionPayrollManage)).Post("/", h.Payroll.Create)
				r.With(middleware.RequirePermission(user.PermissionPayrollApprove), idempotent).Post("/approve", h.Payroll.Approve)
			})
		})
	})
	return r
}
