package http

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/attendance-backend-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/attendance-backend-go/internal/handler/http/response"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

type RouterConfig struct {
	AppName        string
	Version        string
	Env            string
	AllowedOrigins []string
	// Checks run by GET /health, keyed by dependency name.
	HealthChecks map[string]func(ctx context.Context) error
}

type Handlers struct {
	Attendance AttendanceHandler
	Schedule   ScheduleHandler
	Report     ReportHandler
	Company    CompanyHandler
	Stream     StreamHandler
}

func NewRouter(cfg RouterConfig, JWTService jwt.Service, h Handlers) *chi.Mux {
	r := chi.NewRouter()
	logFormat := httplog.SchemaECS.Concise(cfg.Env != "production")
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", cfg.AppName),
		slog.String("version", cfg.Version),
		slog.String("env", cfg.Env),
	)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token", "X-Request-Id"},
		ExposedHeaders:   []string{"Link"},
		MaxAge:           300,
	}))

	r.Use(chiMiddleware.RequestID)
	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelDebug,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Get("/health", healthHandler(cfg.HealthChecks))

	// Every route except the event stream requires an access token.
	authenticated := func(r chi.Router) {
		r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
		r.Use(middleware.AuthRequired)
		r.Use(middleware.RequireCompany)
		r.Use(chiMiddleware.AllowContentType("application/json"))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/attendance", func(r chi.Router) {
			// SSE authenticates with a query token, not the Authorization header.
			r.Get("/stream", h.Stream.Stream)

			r.Group(func(r chi.Router) {
				authenticated(r)
				r.Post("/stream/token", h.Stream.GetSSEToken)

				r.Route("/punches", func(r chi.Router) {
					r.With(middleware.RequirePermission(user.PermissionAttendancePunch)).Post("/", h.Attendance.RecordPunch)

					r.Group(func(r chi.Router) {
						r.Use(middleware.RequirePermission(user.PermissionAttendanceAdjust))
						r.Post("/manual", h.Attendance.CreateManualPunch)
						r.Delete("/{id}", h.Attendance.DeletePunch)
					})
				})

				r.Route("/me", func(r chi.Router) {
					r.Use(middleware.RequirePermission(user.PermissionAttendanceViewOwn))
					r.Get("/status", h.Attendance.GetMyStatus)
					r.Get("/shifts", h.Attendance.GetMyShifts)
				})

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequirePermission(user.PermissionAttendanceViewAll))
					r.Get("/employees/{id}/status", h.Attendance.GetEmployeeStatus)
					r.Get("/board", h.Attendance.GetTeamBoard)
					r.Get("/shifts", h.Attendance.GetShiftReport)
				})

				r.With(middleware.RequirePermission(user.PermissionAttendanceMarkAbsent)).Post("/absences", h.Attendance.MarkAbsent)
			})
		})

		r.Group(func(r chi.Router) {
			authenticated(r)

			r.Route("/schedules", func(r chi.Router) {
				r.Use(middleware.RequirePermission(user.PermissionScheduleView))
				r.Get("/", h.Schedule.ListShiftSchedules)
				r.Get("/{departmentID}", h.Schedule.GetShiftSchedule)
				r.With(middleware.RequirePermission(user.PermissionScheduleManage)).Put("/{departmentID}", h.Schedule.UpsertShiftSchedule)
			})

			r.Route("/reports", func(r chi.Router) {
				r.Use(middleware.RequirePermission(user.PermissionReportsView))
				r.Get("/attendance/monthly", h.Report.GetMonthlyAttendanceReport)
			})

			r.Route("/companies/my", func(r chi.Router) {
				r.With(middleware.RequirePermission(user.PermissionCompanyView)).Get("/", h.Company.GetMyCompany)
				r.With(middleware.RequirePermission(user.PermissionCompanyManage)).Put("/timezone", h.Company.UpdateTimezone)
			})
		})
	})

	return r
}

type healthStatus struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func healthHandler(checks map[string]func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := healthStatus{Status: "ok", Checks: make(map[string]string, len(checks))}
		for name, check := range checks {
			if err := check(ctx); err != nil {
				slog.Warn("Health check failed", "dependency", name, "error", err)
				status.Status = "degraded"
				status.Checks[name] = err.Error()
				continue
			}
			status.Checks[name] = "ok"
		}

		if status.Status != "ok" {
			response.ServiceUnavailable(w, status)
			return
		}
		response.Success(w, status)
	}
}
