package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/deptfin/programme-claims/internal/application/service"
	"github.com/deptfin/programme-claims/internal/config"
	httpserver "github.com/deptfin/programme-claims/internal/interfaces/http"
	"github.com/deptfin/programme-claims/internal/infrastructure/persistence/repository"
	"github.com/deptfin/programme-claims/internal/reconcile"
	"github.com/deptfin/programme-claims/internal/statement"
	"github.com/deptfin/programme-claims/pkg/database"
	"github.com/deptfin/programme-claims/pkg/utils"
)

// sugaredLogger adapts *zap.SugaredLogger to the narrow Logger interfaces
// the application and HTTP layers depend on
type sugaredLogger struct {
	s *zap.SugaredLogger
}

func (l sugaredLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Infow(msg, keysAndValues...)
}

func (l sugaredLogger) Error(msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, keysAndValues...)
}

func main() {
	_ = gotenv.Load()

	configPath := os.Getenv("CLAIMS_CONFIG")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
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

	logger.Info("Starting programme claims service",
		zap.Int("port", cfg.Server.Port),
		zap.String("database", cfg.Database.Path))

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

	if err := database.NewMigrator(db, logger).Run(); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	claimRepo := repository.NewClaimRepository(db, logger)
	ledgerRepo := repository.NewLedgerRepository(db, logger)
	receiptSeq := repository.NewReceiptSequenceRepository(db, logger)

	engine := reconcile.NewEngine(receiptSeq, logger)
	receiptWriter := statement.NewReceiptWriter(cfg.Receipts.OutputDir, cfg.Receipts.DepartmentName, logger)
	exporter := statement.NewExporter(cfg.Receipts.DepartmentName, logger)

	locks := service.NewLocks()
	serviceLogger := sugaredLogger{s: logger.Sugar()}
	claimService := service.NewClaimService(claimRepo, ledgerRepo, db, engine, locks, serviceLogger)
	reviewService := service.NewReviewService(claimRepo, ledgerRepo, db, engine, receiptWriter, locks, serviceLogger)

	server := httpserver.NewServer(httpserver.ServerConfig{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		StatementDir: cfg.Receipts.OutputDir,
	}, claimService, reviewService, exporter, serviceLogger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Start(ctx); err != nil {
		logger.Fatal("HTTP server failed", zap.Error(err))
	}

	logger.Info("Shutdown complete")
}
