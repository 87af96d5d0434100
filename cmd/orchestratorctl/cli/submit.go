package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var submitDescription string

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Submit a task description for planning and execution",
	Args:  cobra.NoArgs,
	RunE:  runSubmit,
}

func init() {
	submitCmd.Flags().StringVar(&submitDescription, "description", "", "task description")
	submitCmd.MarkFlagRequired("description")
	rootCmd.AddCommand(submitCmd)
}

func runSubmit(cmd *cobra.Command, args []string) error {
	var result map[string]any
	if err := call(serverAddr, bearerToken, "submit_task", map[string]any{
		"description": submitDescription,
	}, &result); err != nil {
		return err
	}
	return printJSON(result)
}

func printJSON(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(b))
	return nil
}
