package cli

import (
	"github.com/spf13/cobra"
)

var cancelTaskID string

var cancelCmd = &cobra.Command{
	Use:   "cancel",
	Short: "Cancel a running task",
	Args:  cobra.NoArgs,
	RunE:  runCancel,
}

func init() {
	cancelCmd.Flags().StringVar(&cancelTaskID, "task", "", "task id")
	cancelCmd.MarkFlagRequired("task")
	rootCmd.AddCommand(cancelCmd)
}

func runCancel(cmd *cobra.Command, args []string) error {
	var result map[string]any
	if err := call(serverAddr, bearerToken, "cancel_task", map[string]any{
		"task_id": cancelTaskID,
	}, &result); err != nil {
		return err
	}
	return printJSON(result)
}
