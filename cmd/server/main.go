package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/talentbridge/interview-scheduler/internal/app"
	"github.com/talentbridge/interview-scheduler/internal/calendar"
	"github.com/talentbridge/interview-scheduler/internal/clock"
	"github.com/talentbridge/interview-scheduler/internal/config"
	httpctrl "github.com/talentbridge/interview-scheduler/internal/controller/http"
	"github.com/talentbridge/interview-scheduler/internal/events"
	"github.com/talentbridge/interview-scheduler/internal/repository"
	"github.com/talentbridge/interview-scheduler/internal/roster"
	"github.com/talentbridge/interview-scheduler/internal/service"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DBDSN)
	if err != nil {
		logger.Fatal("Failed to create database pool", zap.Error(err))
	}
	defer pool.Close()

	migrator, err := app.NewMigrator(pool, cfg.MigrationsPath, logger)
	if err != nil {
		logger.Fatal("Failed to create migrator", zap.Error(err))
	}
	if err := migrator.Run(ctx); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}
	_ = migrator.Close()

	slotRepo := repository.NewSlotRepository(pool)
	meetingRepo := repository.NewMeetingRepository(pool)
	ruleRepo := repository.NewRuleRepository(pool)

	cal := calendar.NewHTTPProvider(cfg.Calendar.BaseURL, cfg.Calendar.Timeout, logger)
	rosterSvc := roster.NewHTTPService(cfg.Roster.BaseURL, cfg.Roster.Timeout)

	clk := clock.NewSystem()
	bus := events.NewBus()

	cache := service.NewAvailabilityCache(cfg.Booking.AvailabilityTTL)
	cache.Watch(bus)

	scheduleSvc := service.NewScheduleService(slotRepo, ruleRepo, clk, bus, logger)
	bookingSvc := service.NewBookingService(
		slotRepo, meetingRepo, ruleRepo, cal, rosterSvc, clk, bus, cache, logger,
		service.WithReserveTimeout(cfg.Booking.ReserveTimeout),
	)
	meetingSvc := service.NewMeetingService(meetingRepo, clk, bus, logger)
	assignmentSvc := service.NewAssignmentService(slotRepo, bookingSvc, rosterSvc, logger)

	scheduler := app.NewScheduler(scheduleSvc, meetingRepo, cal,
		cfg.Booking.SlotWeeksAhead, cfg.Booking.BackfillInterval, logger)
	scheduler.Start(ctx)
	defer scheduler.Stop()

	handler := httpctrl.NewHandler(scheduleSvc, bookingSvc, meetingSvc, assignmentSvc, bus, logger)

	server := &http.Server{
		Addr:              net.JoinHostPort(cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:           handler.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Starting HTTP server",
			zap.String("addr", server.Addr),
			zap.String("environment", cfg.Environment),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("Server stopped")
}
