package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"countdown_timer_v1/internal/task"
)

// NewAuditCommand 立即执行一次约束巡检，发现异常时返回错误
func NewAuditCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "audit",
		Short: "Check stored timers against the position and capacity rules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, err := bootstrap(cmd.Context(), rootOpts)
			if err != nil {
				return err
			}
			defer deps.Close()

			audit := task.NewInvariantAudit(deps.Repos.Timer, deps.Services.Shop, deps.Metrics,
				deps.Config.MaxTimersPerShop, deps.Config.AuditSchedule, deps.Logger)
			report, err := audit.Execute(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "installed shops: %d\n", report.InstalledShops)
			for _, row := range report.PositionConflicts {
				fmt.Fprintf(out, "position conflict: shop=%d position=%s active=%d\n", row.ShopID, row.Position, row.ActiveCount)
			}
			for _, row := range report.OverCapacity {
				fmt.Fprintf(out, "over capacity: shop=%d timers=%d max=%d\n", row.ShopID, row.Total, deps.Config.MaxTimersPerShop)
			}
			if !report.Clean() {
				return fmt.Errorf("audit found %d position conflicts and %d shops over capacity",
					len(report.PositionConflicts), len(report.OverCapacity))
			}
			fmt.Fprintln(out, "ok")
			return nil
		},
	}
}
