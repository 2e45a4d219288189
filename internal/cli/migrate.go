package cli

import (
	"github.com/spf13/cobra"
)

// NewMigrateCommand 执行数据库迁移后退出
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig(rootOpts)
			if err != nil {
				return err
			}
			db, err := initDatabase(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			closeDB(db)
			logger.Info().Str("driver", cfg.Database.Driver).Msg("数据库迁移完成")
			return nil
		},
	}
}
