package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

var (
	clarifySessionID string
	clarifyAnswers   []string
)

var clarifyCmd = &cobra.Command{
	Use:   "clarify",
	Short: "Answer clarification questions for a pending task",
	Args:  cobra.NoArgs,
	RunE:  runClarify,
}

func init() {
	clarifyCmd.Flags().StringVar(&clarifySessionID, "session", "", "clarification session id")
	clarifyCmd.Flags().StringArrayVar(&clarifyAnswers, "answer", nil, "question_id=text, repeatable")
	clarifyCmd.MarkFlagRequired("session")
	rootCmd.AddCommand(clarifyCmd)
}

type clarifyResponse struct {
	QuestionID string `json:"question_id"`
	Text       string `json:"text"`
}

func runClarify(cmd *cobra.Command, args []string) error {
	responses := make([]clarifyResponse, 0, len(clarifyAnswers))
	for _, a := range clarifyAnswers {
		id, text, ok := strings.Cut(a, "=")
		if !ok {
			continue
		}
		responses = append(responses, clarifyResponse{QuestionID: id, Text: text})
	}

	var result map[string]any
	if err := call(serverAddr, bearerToken, "clarify_task", map[string]any{
		"session_id": clarifySessionID,
		"responses":  responses,
	}, &result); err != nil {
		return err
	}
	return printJSON(result)
}
