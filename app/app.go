package app

import (
	"errors"
	"os"
	"os/signal"
	"syscall"
	"tender-aggregator-api/internal/config"
	"tender-aggregator-api/internal/controller"
	"tender-aggregator-api/internal/guru"
	"tender-aggregator-api/internal/repo"
	"tender-aggregator-api/internal/service"
	"tender-aggregator-api/pkg/http_server"
	"tender-aggregator-api/pkg/logger"
	"tender-aggregator-api/pkg/postgres"

	"github.com/golang-migrate/migrate/v4"
	pgmigrate "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/labstack/echo"
)

func runMigrations(postgresDB *postgres.Postgres) error {
	driver, err := pgmigrate.WithInstance(postgresDB.Database, &pgmigrate.Config{})
	if err != nil {
		return err
	}

	migrations, err := migrate.NewWithDatabaseInstance("file://migrations", "postgres", driver)
	if err != nil {
		return err
	}

	if err := migrations.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}

	return nil
}

func Run() {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogPretty)

	log.Info().Msg("Connecting database...")
	postgresDB, err := postgres.NewDB(cfg.PostgresConn)
	if err != nil {
		log.Fatal().Err(err).Msg("Error occurred while connecting to db")
	}
	defer postgresDB.Close()

	log.Info().Msg("Running migrations...")
	if err := runMigrations(postgresDB); err != nil {
		log.Fatal().Err(err).Msg("Error occurred while migrating")
	}

	repositories := repo.NewRepositories(postgresDB)
	source := guru.NewClient(cfg.SourceBaseURL, cfg.SourceTimeout)
	services := service.NewServices(repositories, source, service.DownloaderConfig{
		TotalPagesWanted: cfg.TotalPagesWanted,
		PageSize:         cfg.PageSize,
	})

	log.Info().Msg("Starting tender downloader...")
	services.Downloader.Start()

	log.Info().Msg("Setup routes...")
	handler := echo.New()
	controller.SetupRoutesHandlers(handler, services)

	httpServer := http_server.New(handler, cfg.ServerAddress)
	log.Info().Str("address", cfg.ServerAddress).Msg("Ready to process requests")

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	select {
	case s := <-interrupt:
		log.Info().Str("signal", s.String()).Msg("Got signal")
	case err = <-httpServer.Notify():
		log.Error().Err(err).Msg("Server stopped unexpectedly")
	}

	log.Info().Msg("Shutting down...")
	services.Downloader.Stop()
	log.Info().Str("downloader_state", services.Downloader.State().String()).Msg("Downloader stopped")

	if err := httpServer.Shutdown(); err != nil {
		log.Error().Err(err).Msg("Shutdown error")
	} else {
		log.Info().Msg("Successful shutdown")
	}
}
