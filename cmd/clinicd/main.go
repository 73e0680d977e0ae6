package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/example/clinic-scheduler/internal/application"
	"github.com/example/clinic-scheduler/internal/config"
	httptransport "github.com/example/clinic-scheduler/internal/http"
	"github.com/example/clinic-scheduler/internal/logging"
	"github.com/example/clinic-scheduler/internal/persistence/sqlite"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(os.Stdout, cfg.LogLevel)

	pool, err := sqlite.NewConnectionPool(cfg.SQLiteDSN)
	if err != nil {
		logger.Error().Err(err).Msg("failed to open storage")
		os.Exit(1)
	}
	defer func() {
		if cerr := pool.Close(); cerr != nil {
			logger.Error().Err(cerr).Msg("failed to close storage")
		}
	}()

	if err := sqlite.Migrate(ctx, pool); err != nil {
		logger.Error().Err(err).Msg("failed to apply schema")
		os.Exit(1)
	}

	idGenerator := uuid.NewString
	now := time.Now

	bookingStore := newBookingStoreAdapter(sqlite.NewAppointmentRepository(pool))
	roomRepo := newRoomRepositoryAdapter(sqlite.NewRoomRepository(pool))

	schedulingService := application.NewSchedulingServiceWithLogger(bookingStore, idGenerator, now, &logger).
		WithMaxOccurrences(cfg.MaxOccurrences)
	roomService := application.NewRoomServiceWithLogger(roomRepo, idGenerator, now, &logger)

	router := httptransport.NewRouter(httptransport.RouterDeps{
		Scheduling:     schedulingService,
		Rooms:          roomService,
		Patients:       noopPatientDirectory{},
		Logger:         logger,
		DragSnap:       cfg.DragSnap,
		MaxOccurrences: cfg.MaxOccurrences,
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("failed to shutdown server")
		}
	}()

	logger.Info().
		Str("addr", server.Addr).
		Dur("drag_snap", cfg.DragSnap).
		Int("max_occurrences", cfg.MaxOccurrences).
		Msg("clinic scheduler API listening")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("server encountered error")
		os.Exit(1)
	}
}

// noopPatientDirectory stands in until the clinic's patient record system is
// wired up; every lookup renders as the unknown patient placeholder.
type noopPatientDirectory struct{}

func (noopPatientDirectory) PatientName(ctx context.Context, patientID string) (string, bool) {
	return "", false
}
