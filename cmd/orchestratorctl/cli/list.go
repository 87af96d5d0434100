package cli

import (
	"github.com/spf13/cobra"
)

var (
	listStatusFilter string
	listLimit        int
	listOffset       int
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks, optionally filtered by status",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	listCmd.Flags().StringVar(&listStatusFilter, "status", "", "filter by phase (e.g. completed, failed)")
	listCmd.Flags().IntVar(&listLimit, "limit", 50, "maximum number of results")
	listCmd.Flags().IntVar(&listOffset, "offset", 0, "pagination offset")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	var result map[string]any
	if err := call(serverAddr, bearerToken, "list_tasks", map[string]any{
		"status_filter": listStatusFilter,
		"limit":         listLimit,
		"offset":        listOffset,
	}, &result); err != nil {
		return err
	}
	return printJSON(result)
}
