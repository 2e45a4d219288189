// Package cli countdown 命令行入口
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// RootOptions 全局参数
type RootOptions struct {
	EnvFiles []string
	LogLevel string
}

// NewRootCommand 创建根命令
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "countdown",
		Short:         "Shopify countdown timer service",
		Long:          "Countdown timer app for Shopify: admin API, storefront API, install flow and maintenance commands.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringSliceVar(&opts.EnvFiles, "env-file", nil, "dotenv files to load (default .env)")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "override LOG_LEVEL (debug|info|warn|error)")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewSeedCommand(opts))
	cmd.AddCommand(NewAuditCommand(opts))

	return cmd
}

// Execute 运行根命令，失败时以非零状态码退出
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
