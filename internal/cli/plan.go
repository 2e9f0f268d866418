package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vvka-141/csvload/internal/files/scanner"
	"github.com/vvka-141/csvload/internal/tui"
)

var planCmd = &cobra.Command{
	Use:   "plan [base_path]",
	Short: "Show what load would do, without touching the database",
	Long: `Plan resolves the folder to schema mapping under base_path and lists, per
folder, the CSV files and the tables they load into.

Missing and empty folders are flagged, as are files whose table name is
already taken by an earlier file of the same folder (Crm.User.csv and
crm_user.csv both map to crm_user). --on-collision decides what load does
with them.

Examples:
  csvload plan ./exports
  csvload plan ./exports --folder crm=crm_raw --on-collision skip`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPlan,
}

var planFlags runFlags

func init() {
	rootCmd.AddCommand(planCmd)
	addRunFlags(planCmd, &planFlags)
}

func runPlan(cmd *cobra.Command, args []string) error {
	basePath := basePathArg(args)
	verbose := getVerboseFlag(cmd)

	projectCfg, err := loadProjectConfig(planFlags.configFile, cmd.Flags().Changed("config"))
	if err != nil {
		return err
	}

	runCfg, err := buildRunConfig(cmd, basePath, projectCfg, planFlags, verbose)
	if err != nil {
		return err
	}

	plan := scanner.NewScanner().PlanAll(runCfg.BasePath, runCfg.Folders)
	fmt.Fprint(cmd.OutOrStdout(), tui.RenderPlan(plan, runCfg.OnCollision, tui.IsInteractive()))
	return nil
}
