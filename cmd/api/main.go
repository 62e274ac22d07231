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
	_ "time/tzdata"

	"github.com/cmlabs-hris/attendance-backend-go/internal/config"
	appHTTP "github.com/cmlabs-hris/attendance-backend-go/internal/handler/http"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/cron"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/messaging"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/sse"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/tzcache"
	"github.com/cmlabs-hris/attendance-backend-go/internal/repository/postgresql"
	attendanceService "github.com/cmlabs-hris/attendance-backend-go/internal/service/attendance"
	serviceCompany "github.com/cmlabs-hris/attendance-backend-go/internal/service/company"
	reportService "github.com/cmlabs-hris/attendance-backend-go/internal/service/report"
	scheduleService "github.com/cmlabs-hris/attendance-backend-go/internal/service/schedule"
	"github.com/cmlabs-hris/attendance-backend-go/internal/service/timeclock"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Error loading config", "error", err)
		os.Exit(1)
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel(),
	})).With("app", cfg.App.Name))

	if err := run(cfg); err != nil {
		slog.Error("Server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL(), database.PoolConfig{
		MaxConns:        cfg.Database.MaxConns,
		MinConns:        cfg.Database.MinConns,
		MaxConnLifetime: cfg.Database.MaxConnLifetime,
	})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	companyRepo := postgresql.NewCompanyRepository(db)
	employeeRepo := postgresql.NewEmployeeRepository(db)
	punchRepo := postgresql.NewPunchRepository(db)
	absenceRepo := postgresql.NewAbsenceRepository(db)
	shiftScheduleRepo := postgresql.NewShiftScheduleRepository(db)

	engine, err := timeclock.NewEngine(cfg.Policy())
	if err != nil {
		return err
	}
	zones := tzcache.New(companyRepo.GetTimezone, cfg.Attendance.TimezoneCacheTTL,
		tzcache.WithFallback(cfg.Attendance.DefaultTimezone))
	hub := sse.NewHub()

	var publisher messaging.Publisher = messaging.NoopPublisher{}
	var rabbit *messaging.RabbitMQ
	if cfg.RabbitMQ.URL != "" {
		rabbit, err = messaging.Dial(cfg.RabbitMQ.URL)
		if err != nil {
			return err
		}
		defer rabbit.Close()

		publisher, err = messaging.NewPublisher(rabbit, cfg.RabbitMQ.Exchange, cfg.App.Name)
		if err != nil {
			return err
		}
	} else {
		slog.Warn("RABBITMQ_URL not set, attendance events will not be published")
	}

	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration, cfg.JWT.SSEExpiration)

	attendanceSvc := attendanceService.NewAttendanceService(
		punchRepo,
		absenceRepo,
		employeeRepo,
		shiftScheduleRepo,
		engine,
		zones,
		hub,
		publisher,
		attendanceService.WithTxRunner(postgresql.NewTxRunner(db)),
	)
	scheduleSvc := scheduleService.NewScheduleService(shiftScheduleRepo, employeeRepo, hub)
	reportSvc := reportService.NewReportService(punchRepo, absenceRepo, employeeRepo, shiftScheduleRepo, engine, zones)
	companySvc := serviceCompany.NewCompanyService(companyRepo, zones)

	scheduler := cron.NewScheduler()
	cron.NewAttendanceJobs(attendanceSvc, employeeRepo, hub, publisher, cfg.Attendance.LateArrivalInterval).
		RegisterJobs(scheduler)
	scheduler.Start(ctx)
	defer scheduler.Stop()

	healthChecks := map[string]func(ctx context.Context) error{
		"database": db.Ping,
	}
	if rabbit != nil {
		healthChecks["rabbitmq"] = func(ctx context.Context) error {
			if !rabbit.IsHealthy() {
				return errors.New("connection closed")
			}
			return nil
		}
	}

	router := appHTTP.NewRouter(
		appHTTP.RouterConfig{
			AppName:        cfg.App.Name,
			Version:        cfg.App.Version,
			Env:            cfg.App.Env,
			AllowedOrigins: cfg.App.AllowedOrigins,
			HealthChecks:   healthChecks,
		},
		JWTService,
		appHTTP.Handlers{
			Attendance: appHTTP.NewAttendanceHandler(attendanceSvc),
			Schedule:   appHTTP.NewScheduleHandler(scheduleSvc),
			Report:     appHTTP.NewReportHandler(reportSvc),
			Company:    appHTTP.NewCompanyHandler(companySvc),
			Stream:     appHTTP.NewStreamHandler(hub, JWTService),
		},
	)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		// Open event streams end when the process is asked to stop.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server running", "addr", server.Addr, "env", cfg.App.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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
	return server.Shutdown(shutdownCtx)
}
