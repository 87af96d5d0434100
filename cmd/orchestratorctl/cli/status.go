package cli

import (
	"github.com/spf13/cobra"
)

var statusTaskID string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show a task's current phase and recent audit events",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&statusTaskID, "task", "", "task id")
	statusCmd.MarkFlagRequired("task")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	var result map[string]any
	if err := call(serverAddr, bearerToken, "get_task_status", map[string]any{
		"task_id": statusTaskID,
	}, &result); err != nil {
		return err
	}
	return printJSON(result)
}
