// Package main is the entry point for the orrery layout service.
package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/astroviz/orrery/internal/appstate"
	"github.com/astroviz/orrery/internal/bridge"
	"github.com/astroviz/orrery/internal/catalog"
	"github.com/astroviz/orrery/internal/config"
	"github.com/astroviz/orrery/internal/coordinators"
	"github.com/astroviz/orrery/internal/mechanics"
	"github.com/astroviz/orrery/internal/models"
	"github.com/astroviz/orrery/internal/pipeline"
	"github.com/astroviz/orrery/internal/viewmode"
	"github.com/astroviz/orrery/pkg/api"
	"github.com/astroviz/orrery/pkg/events"
	"github.com/astroviz/orrery/pkg/healthcheck"
	"github.com/astroviz/orrery/pkg/layoutserver"
	"github.com/astroviz/orrery/pkg/mqtt"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (default: search ./orrery.yaml)")
	logLevel := flag.String("log-level", "", "Log level override (debug, info, warn, error)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}

	logger, err := buildLogger(cfg.Logging)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer logger.Sync()

	logger.Info("Starting orrery layout service",
		zap.String("listen_address", cfg.Server.ListenAddress),
		zap.String("catalog_backend", cfg.Catalog.Backend),
		zap.Bool("mqtt_enabled", cfg.MQTT.Enabled))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// View-mode registry with any configured scaling overrides.
	registry := viewmode.NewRegistry(logger)
	for name, scaling := range cfg.ViewModes {
		mode, known := viewmode.Parse(name)
		if !known {
			logger.Warn("Ignoring scaling override for unknown view mode", zap.String("mode", name))
			continue
		}
		if err := registry.Override(mode, scaling); err != nil {
			logger.Fatal("Invalid scaling override", zap.String("mode", name), zap.Error(err))
		}
	}

	bus := events.NewBus(logger, events.DefaultThresholds())
	state := appstate.New()
	service := mechanics.NewService(registry, logger)
	orchestrator := pipeline.NewOrchestrator(service, bus, logger, cfg.Pipeline.Timeout)
	orchestrator.Attach()
	defer orchestrator.Detach()

	loader, closeCatalog, err := buildCatalog(ctx, cfg.Catalog, logger)
	if err != nil {
		logger.Fatal("Failed to initialize catalog", zap.Error(err))
	}
	defer closeCatalog()

	health := healthcheck.NewEngine(logger, 30*time.Second)
	health.Register(bus)
	health.Register(orchestrator)
	if checker, ok := loader.(healthcheck.Checker); ok {
		health.Register(checker)
	}
	go health.Run(ctx)

	poses := poseResolver(orchestrator)
	coords := []api.Coordinator{
		coordinators.NewViewModeCoordinator(bus, loader, orchestrator, state, logger),
		coordinators.NewFocusCoordinator(bus, poses, state, logger),
		coordinators.NewTimeControlCoordinator(bus, state, logger),
		coordinators.NewPerformanceCoordinator(bus, cfg.Performance.CalculationThreshold, logger),
		coordinators.NewRecoveryCoordinator(bus, logger),
	}
	for _, c := range coords {
		if err := c.Start(ctx); err != nil {
			logger.Fatal("Failed to start coordinator", zap.String("coordinator", c.Name()), zap.Error(err))
		}
		health.Register(healthcheck.CheckFunc(c.Name(), c.HealthCheck))
	}

	var diag *bridge.Bridge
	if cfg.MQTT.Enabled {
		client, err := mqtt.NewClient(&mqtt.Config{
			BrokerURL:     cfg.MQTT.Broker,
			ClientID:      cfg.MQTT.ClientID,
			Username:      cfg.MQTT.Username,
			Password:      cfg.MQTT.Password,
			AutoReconnect: true,
		}, logger)
		if err != nil {
			logger.Fatal("Failed to create MQTT client", zap.Error(err))
		}
		diag = bridge.New(bus, client, logger)
		if err := diag.Start(ctx); err != nil {
			logger.Fatal("Failed to start MQTT bridge", zap.Error(err))
		}
	}

	server, err := layoutserver.NewServer(&layoutserver.Config{
		ListenAddress:   cfg.Server.ListenAddress,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		CORS:            layoutserver.CORSConfig{AllowedOrigins: cfg.Server.AllowedOrigins},
		Auth: layoutserver.AuthConfig{
			Enabled:    cfg.Server.AuthEnabled,
			JWTSecret:  cfg.Server.JWTSecret,
			APIKeyHash: cfg.Server.APIKeyHash,
		},
	}, layoutserver.Dependencies{
		Loader:       loader,
		Orchestrator: orchestrator,
		Bus:          bus,
		State:        state,
		Health:       health,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to create layout server", zap.Error(err))
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("Orrery layout service running, press Ctrl+C to stop")

	select {
	case <-sigChan:
		logger.Info("Shutdown signal received")
	case err := <-errCh:
		logger.Error("Server stopped unexpectedly", zap.Error(err))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Stop(shutdownCtx); err != nil {
		logger.Error("Error during server shutdown", zap.Error(err))
	}
	for _, c := range coords {
		if err := c.Stop(shutdownCtx); err != nil {
			logger.Error("Error stopping coordinator", zap.String("coordinator", c.Name()), zap.Error(err))
		}
	}
	if diag != nil {
		diag.Stop(shutdownCtx)
	}
	cancel()

	logger.Info("Orrery layout service stopped")
}

// buildLogger constructs the zap logger per the logging configuration.
func buildLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var zapCfg zap.Config
	if cfg.Development {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}
	level, err := zap.ParseAtomicLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}
	zapCfg.Level = level
	return zapCfg.Build()
}

// buildCatalog constructs the configured catalog backend and a close func.
func buildCatalog(ctx context.Context, cfg config.CatalogConfig, logger *zap.Logger) (api.SystemLoader, func(), error) {
	switch cfg.Backend {
	case "postgres":
		store, err := catalog.NewPGStore(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	default:
		return catalog.NewFileStore(cfg.DataDir, logger), func() {}, nil
	}
}

// poseResolver derives camera poses from the most recent layouts: the target
// sits at the object's radial placement and the camera pulls back in
// proportion to its visual size.
func poseResolver(orch *pipeline.Orchestrator) coordinators.PoseResolver {
	return coordinators.PoseResolverFunc(func(objectID string) (coordinators.CameraPose, coordinators.CameraPose, error) {
		layout, ok := orch.FindObject(objectID)
		if !ok {
			return coordinators.CameraPose{}, coordinators.CameraPose{}, fmt.Errorf("no layout retained for object %s", objectID)
		}

		target := models.Vector3{X: layout.Placement()}
		distance := math.Max(layout.VisualRadius*6, 2.0)
		from := coordinators.CameraPose{
			Position: models.Vector3{Y: 40, Z: 40},
		}
		to := coordinators.CameraPose{
			Position: models.Vector3{X: target.X + distance*0.7, Y: distance * 0.5, Z: distance * 0.7},
			Target:   target,
		}
		return from, to, nil
	})
}
