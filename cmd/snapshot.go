package cmd

import (
	"fmt"

	"player-directory/core/clock"
	"player-directory/core/config"
	"player-directory/core/database"
	"player-directory/core/logger"
	"player-directory/core/storage"
	"player-directory/feature/backup"
	"player-directory/feature/directory"
	"player-directory/feature/directory/repo"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var pruneKeep int

// snapshotCmd represents the snapshot command
var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Export a directory snapshot to object storage",
	Long:  `Loads the directory from the database, serializes it and uploads it as a new snapshot object.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg, err := config.LoadConfig(".")
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		logg, err := logger.New(&cfg.Log)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		defer logg.Sync()

		db, err := database.Connect(cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		store, err := storage.NewClient(cfg.Storage)
		if err != nil {
			return fmt.Errorf("failed to create storage client: %w", err)
		}

		catalog := repo.NewCatalogRepository(db)
		dir := directory.NewService(
			cfg.Directory,
			repo.NewPlayerRepository(db),
			repo.NewRelationRepository(db),
			catalog,
			catalog,
			directory.NewSessionTracker(),
			directory.NewLogAlerter(logg),
			clock.System(),
			logg,
		)
		if err := dir.Reload(ctx); err != nil {
			return fmt.Errorf("failed to load directory: %w", err)
		}

		svc := backup.NewService(store, cfg.Storage.Bucket, logg, dir)
		if err := svc.EnsureBucket(ctx); err != nil {
			return err
		}
		object, err := svc.Export(ctx)
		if err != nil {
			return err
		}
		logg.Info("Snapshot exported", zap.String("object", object))

		if pruneKeep > 0 {
			if _, err := svc.Prune(ctx, pruneKeep); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	snapshotCmd.Flags().IntVar(&pruneKeep, "keep", 0, "after exporting, prune snapshots beyond this count (0 keeps everything)")
	RootCmd.AddCommand(snapshotCmd)
}
