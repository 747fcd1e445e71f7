package cmd

import (
	"fmt"

	"player-directory/core/clock"
	"player-directory/core/config"
	"player-directory/core/database"
	"player-directory/core/logger"
	"player-directory/feature/directory"
	"player-directory/feature/directory/repo"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var configsOnly bool

// retentionCmd represents the retention command
var retentionCmd = &cobra.Command{
	Use:   "retention",
	Short: "Run the bulk deletion pass",
	Long: `Deletes players (or only their saved settings with --configs-only) that no
enabled keep-rule excludes, then rebuilds the directory.`,
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

		if configsOnly {
			deleted, err := dir.DeletePlayerConfigs(ctx, cfg.Directory.SettingsRetention)
			if err != nil {
				return err
			}
			logg.Info("Retention pass complete", zap.Int("configs_deleted", deleted))
			return nil
		}

		deleted, err := dir.DeletePlayers(ctx, cfg.Directory.Retention)
		if err != nil {
			return err
		}
		logg.Info("Retention pass complete", zap.Int("players_deleted", deleted))
		return nil
	},
}

func init() {
	retentionCmd.Flags().BoolVar(&configsOnly, "configs-only", false, "delete only saved player settings, keep the players")
	RootCmd.AddCommand(retentionCmd)
}
