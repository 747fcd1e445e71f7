package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"player-directory/core/clock"
	"player-directory/core/config"
	"player-directory/core/database"
	"player-directory/core/loader"
	"player-directory/core/logger"
	"player-directory/core/middleware/auth"
	"player-directory/core/middleware/rayid"
	"player-directory/core/storage"

	"player-directory/feature/backup"
	"player-directory/feature/directory"
	"player-directory/feature/directory/repo"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// @title Player Directory API
// @version 1.0
// @description API for the player directory cache.
// @host localhost:8080
// @BasePath /

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the player directory server",
	Long:  `Starts the HTTP server, loads the directory from storage and runs the expiry sweeper.`,
	Run: func(cmd *cobra.Command, args []string) {
		// 1. Load Configuration
		cfg, err := config.LoadConfig(".")
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}

		// 2. Initialize Logger
		logg, err := logger.New(&cfg.Log)
		if err != nil {
			log.Fatalf("Failed to initialize logger: %v", err)
		}
		defer logg.Sync()
		zap.ReplaceGlobals(logg)

		// 3. Connect to Database
		db, err := database.Connect(cfg.Database)
		if err != nil {
			logg.Fatal("Failed to connect to database", zap.Error(err))
		}

		// 4. Build the directory service
		players := repo.NewPlayerRepository(db)
		relations := repo.NewRelationRepository(db)
		catalog := repo.NewCatalogRepository(db)

		dir := directory.NewService(
			cfg.Directory,
			players,
			relations,
			catalog,
			catalog,
			directory.NewSessionTracker(),
			directory.NewLogAlerter(logg),
			clock.System(),
			logg,
		)
		if err := dir.Reload(context.Background()); err != nil {
			logg.Fatal("Failed to load directory from storage", zap.Error(err))
		}
		dir.Sweeper().Start()
		defer dir.Sweeper().Stop()

		// 5. Initialize Storage (Optional)
		// Snapshots are a side feature; the directory works without them.
		var store storage.Client
		if client, err := storage.NewClient(cfg.Storage); err != nil {
			logg.Warn("Optional snapshot storage unavailable", zap.Error(err))
		} else {
			store = client
		}

		// 6. Initialize Fiber App
		app := fiber.New(fiber.Config{
			DisableStartupMessage: true, // We will log our own startup message
		})

		// 7. Initialize Feature Loader
		mgr := loader.NewManager()
		mgr.Register(directory.NewFeature(dir))
		if store != nil {
			bak := backup.NewFeature(store, cfg.Storage.Bucket, logg, dir)
			if err := bak.Service().EnsureBucket(context.Background()); err != nil {
				logg.Warn("Snapshot bucket unavailable", zap.Error(err))
			} else {
				mgr.Register(bak)
			}
		}

		// Middleware Registration
		// RayID first so everything after it is traceable.
		app.Use(rayid.New())

		app.Use(func(c *fiber.Ctx) error {
			l := logger.WithRayID(logg, c)
			l.Info("Request started",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.String("ip", c.IP()),
			)
			err := c.Next()
			if err != nil {
				l.Error("Request error", zap.Error(err))
			}
			return err
		})

		// Auth protects the whole API surface.
		app.Use(auth.New(auth.Config{ApiKey: cfg.Server.ApiKey}))

		// 8. Load Features
		if err := mgr.LoadAll(app); err != nil {
			logg.Fatal("Failed to load features", zap.Error(err))
		}

		// 9. Start Server
		go func() {
			logg.Info("Starting server", zap.String("port", cfg.Server.Port))
			if err := app.Listen(":" + cfg.Server.Port); err != nil {
				logg.Fatal("Server failed to start", zap.Error(err))
			}
		}()

		// 10. Graceful Shutdown
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		<-c
		logg.Info("Shutting down server...")
		_ = app.Shutdown()
	},
}

func init() {
	RootCmd.AddCommand(startCmd)
}
