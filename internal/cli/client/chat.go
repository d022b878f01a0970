package client

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// ChatResponse represents the chat API response.
type ChatResponse struct {
	Answer         string   `json:"answer"`
	Blocked        bool     `json:"blocked"`
	Crisis         bool     `json:"crisis"`
	VerdictSummary string   `json:"verdict_summary,omitempty"`
	ContextIDs     []string `json:"context_ids,omitempty"`
}

// ChatCmd creates the chat command.
func ChatCmd() *cobra.Command {
	var campaignID string
	var sessionID string

	cmd := &cobra.Command{
		Use:   "chat <question>",
		Short: "Ask a question about a campaign's insights",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runChat(cmd, campaignID, sessionID, args[0], outputJSON)
		},
	}

	cmd.Flags().StringVarP(&campaignID, "campaign", "c", "", "Campaign ID (required)")
	cmd.Flags().StringVarP(&sessionID, "session", "s", "", "Session ID to continue a conversation")
	_ = cmd.MarkFlagRequired("campaign")

	return cmd
}

func runChat(cmd *cobra.Command, campaignID, sessionID, query string, outputJSON bool) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	resp, err := api.Post("/chat", map[string]string{
		"campaign_id": campaignID,
		"session_id":  sessionID,
		"query":       query,
	})
	if err != nil {
		return fmt.Errorf("chat failed: %w", err)
	}

	var chat ChatResponse
	if err := json.Unmarshal(resp.Data, &chat); err != nil {
		return fmt.Errorf("failed to parse chat response: %w", err)
	}

	if outputJSON {
		data, _ := json.MarshalIndent(chat, "", "  ")
		fmt.Println(string(data))
		return nil
	}

	fmt.Println(chat.Answer)
	if chat.Blocked {
		fmt.Printf("\n(request blocked: %s)\n", chat.VerdictSummary)
	}

	return nil
}
