package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/smartdevs17/balance-history/internal/config"
	"github.com/smartdevs17/balance-history/internal/metrics"
	"github.com/smartdevs17/balance-history/internal/models"
	"github.com/smartdevs17/balance-history/internal/server"
	"github.com/smartdevs17/balance-history/internal/snapshot"
	"github.com/smartdevs17/balance-history/internal/storage"
	"github.com/smartdevs17/balance-history/pkg/utils"
)

// AppVersion contains the application version
const AppVersion = "1.0.0"

// Application represents the main application
type Application struct {
	config         *config.Config
	store          storage.Store
	assembler      *snapshot.Assembler
	metricsManager *metrics.Manager
	server         *server.HTTPServer
	ctx            context.Context
	cancel         context.CancelFunc
}

// NewApplication creates a new application instance
func NewApplication(cfg *config.Config) (*Application, error) {
	ctx, cancel := context.WithCancel(context.Background())

	app := &Application{
		config: cfg,
		ctx:    ctx,
		cancel: cancel,
	}

	logCfg := cfg.Logging
	if err := utils.InitLogger(logCfg.Level, logCfg.Format, logCfg.Output, logCfg.File); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	if err := app.initializeComponents(); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to initialize components: %w", err)
	}

	return app, nil
}

// initializeComponents initializes all application components
func (app *Application) initializeComponents() error {
	logger := utils.GetLogger()

	// Storage
	if err := storage.ValidateStorageConfig(&app.config.Storage); err != nil {
		return err
	}

	store, err := storage.NewStore(&app.config.Storage)
	if err != nil {
		return fmt.Errorf("failed to create store: %w", err)
	}
	if err := store.Connect(); err != nil {
		return fmt.Errorf("failed to connect to store: %w", err)
	}
	if err := store.Migrate(); err != nil {
		return fmt.Errorf("failed to run store migrations: %w", err)
	}
	app.store = store

	// Snapshot assembler
	app.assembler = snapshot.NewAssembler(app.config.Resolver.Workers)

	// Metrics
	if app.config.Server.EnableMetrics {
		app.metricsManager = metrics.NewManager()
	}

	// HTTP server
	serverCfg := &server.ServerConfig{
		Port:          app.config.Server.Port,
		Host:          app.config.Server.Host,
		ReadTimeout:   app.config.Server.ReadTimeout,
		WriteTimeout:  app.config.Server.WriteTimeout,
		EnableMetrics: app.config.Server.EnableMetrics,
		EnableHealth:  app.config.Server.EnableHealth,
	}

	app.server, err = server.NewHTTPServer(serverCfg, app.store, app.assembler, app.metricsManager)
	if err != nil {
		return fmt.Errorf("failed to create HTTP server: %w", err)
	}

	logger.Info("All components initialized successfully")
	return nil
}

// Start starts the application
func (app *Application) Start() error {
	logger := utils.GetLogger()
	logger.WithField("version", AppVersion).Info("Starting balance history service")

	if err := app.server.Start(); err != nil {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	logger.WithField("address",
		fmt.Sprintf("%s:%d", app.config.Server.Host, app.config.Server.Port),
	).Info("Balance history service started")

	return nil
}

// Stop stops the application gracefully
func (app *Application) Stop() error {
	logger := utils.GetLogger()
	logger.Info("Stopping balance history service")

	app.cancel()

	if app.server != nil {
		if err := app.server.Stop(); err != nil {
			logger.WithError(err).Error("Failed to stop HTTP server")
		}
	}

	if app.assembler != nil {
		app.assembler.Stop()
	}

	if app.store != nil {
		if err := app.store.Close(); err != nil {
			logger.WithError(err).Error("Failed to close store")
		}
	}

	logger.Info("Balance history service stopped")
	return nil
}

// CLI Commands

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:     "balance-history",
	Short:   "Balance history and audit export service",
	Long:    `Serves point-in-time balance snapshot series and CSV audit exports from an append-only ledger of balance-change events.`,
	Version: AppVersion,
	RunE:    runServer,
}

// runServer is the main command to run the service
func runServer(cmd *cobra.Command, args []string) error {
	configPath := viper.GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	app, err := NewApplication(cfg)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt, syscall.SIGTERM)

	if err := app.Start(); err != nil {
		return fmt.Errorf("failed to start application: %w", err)
	}

	<-signalChan
	fmt.Println("\nReceived shutdown signal, stopping application...")

	return app.Stop()
}

// importCmd loads ledger records from a JSON file into the store
var importCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Import ledger records from a JSON file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := viper.GetString("config")
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		if err := utils.InitLogger(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output, cfg.Logging.File); err != nil {
			return err
		}

		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read records file: %w", err)
		}

		var records []*models.BalanceChangeRecord
		if err := json.Unmarshal(data, &records); err != nil {
			return fmt.Errorf("failed to parse records file: %w", err)
		}

		store, err := storage.NewStore(&cfg.Storage)
		if err != nil {
			return fmt.Errorf("failed to create store: %w", err)
		}
		if err := store.Connect(); err != nil {
			return fmt.Errorf("failed to connect to store: %w", err)
		}
		defer store.Close()

		if err := store.Migrate(); err != nil {
			return fmt.Errorf("failed to run store migrations: %w", err)
		}

		if err := store.SaveRecords(cmd.Context(), records); err != nil {
			return fmt.Errorf("failed to import records: %w", err)
		}

		fmt.Printf("Imported %d records\n", len(records))
		return nil
	},
}

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management commands",
}

// validateConfigCmd validates the configuration
var validateConfigCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := viper.GetString("config")
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("configuration validation failed: %w", err)
		}

		if err := storage.ValidateStorageConfig(&cfg.Storage); err != nil {
			return fmt.Errorf("configuration validation failed: %w", err)
		}

		fmt.Printf("Configuration is valid!\n")
		fmt.Printf("Environment: %s\n", cfg.App.Environment)
		fmt.Printf("Database: %s\n", cfg.Storage.Type)
		fmt.Printf("Resolver workers: %d\n", cfg.Resolver.Workers)

		return nil
	},
}

// init initializes the CLI commands
func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file path")
	rootCmd.PersistentFlags().StringP("log-level", "l", "info", "log level (debug, info, warn, error)")

	viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))

	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(validateConfigCmd)
}

// main is the entry point
func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
