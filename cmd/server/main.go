package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fieldops/mileage-voucher/internal/api"
	"github.com/fieldops/mileage-voucher/internal/approval"
	"github.com/fieldops/mileage-voucher/internal/assignment"
	"github.com/fieldops/mileage-voucher/internal/config"
	"github.com/fieldops/mileage-voucher/internal/directory"
	"github.com/fieldops/mileage-voucher/internal/repository"
	"github.com/fieldops/mileage-voucher/internal/trips"
	"github.com/fieldops/mileage-voucher/pkg/database"
	"github.com/fieldops/mileage-voucher/pkg/utils"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting mileage voucher service",
		zap.Int("port", cfg.Server.Port))

	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	migrator := database.NewMigrator(db, logger)
	if err := migrator.Run(context.Background(), cfg.Database.MigrationsDir); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	// Repositories
	userRepo := repository.NewUserRepository(db, logger)
	profileRepo := repository.NewProfileRepository(db, logger)
	requestRepo := repository.NewAssignmentRequestRepository(db, logger)
	voucherRepo := repository.NewVoucherRepository(db, logger)
	tripRepo := repository.NewTripRepository(db, logger)
	historyRepo := repository.NewHistoryRepository(db, logger)

	// Core services
	dir := directory.New(profileRepo, userRepo, logger)
	assignmentWorkflow := assignment.NewWorkflow(requestRepo, userRepo, dir, db, logger)
	approvalWorkflow := approval.NewWorkflow(
		voucherRepo, tripRepo, historyRepo, userRepo, dir, db,
		approval.Config{MileageRate: cfg.Voucher.MileageRate},
		logger,
	)
	tripService := trips.NewService(tripRepo, voucherRepo, logger)

	if cfg.Logger.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := api.NewRouter(api.Handlers{
		Vouchers:    api.NewVoucherHandler(approvalWorkflow, cfg.Voucher.QueuePageSize),
		Trips:       api.NewTripHandler(tripService),
		Assignments: api.NewAssignmentHandler(assignmentWorkflow),
		Directory:   api.NewDirectoryHandler(dir),
	}, userRepo, logger)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
