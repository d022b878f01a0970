package client

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// RunResponse represents a pipeline run as returned by the API.
type RunResponse struct {
	ID          string            `json:"id"`
	CampaignID  string            `json:"campaign_id"`
	State       string            `json:"state"`
	FailReason  string            `json:"fail_reason,omitempty"`
	StartedAt   time.Time         `json:"started_at"`
	CompletedAt *time.Time        `json:"completed_at,omitempty"`
	Attempts    []AttemptResponse `json:"attempts,omitempty"`
}

// AttemptResponse represents one stage attempt in a run.
type AttemptResponse struct {
	Stage      string     `json:"stage"`
	Attempt    int        `json:"attempt"`
	Status     string     `json:"status"`
	Error      string     `json:"error,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// RunCmd creates the run command group.
func RunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Manage pipeline runs",
	}

	cmd.AddCommand(runTriggerCmd())
	cmd.AddCommand(runStatusCmd())
	cmd.AddCommand(runListCmd())

	return cmd
}

func runTriggerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trigger <campaign-id>",
		Short: "Start a pipeline run for a campaign",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runTrigger(cmd, args[0], outputJSON)
		},
	}

	return cmd
}

func runTrigger(cmd *cobra.Command, campaignID string, outputJSON bool) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	resp, err := api.Post("/pipeline/run", map[string]string{"campaign_id": campaignID})
	if err != nil {
		return fmt.Errorf("failed to trigger run: %w", err)
	}

	var run RunResponse
	if err := json.Unmarshal(resp.Data, &run); err != nil {
		return fmt.Errorf("failed to parse run response: %w", err)
	}

	if outputJSON {
		data, _ := json.MarshalIndent(run, "", "  ")
		fmt.Println(string(data))
	} else {
		fmt.Printf("Run started: %s (state: %s)\n", run.ID, run.State)
	}

	return nil
}

func runStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status <run-id>",
		Short: "Show a run and its stage attempts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runStatus(cmd, args[0], outputJSON)
		},
	}

	return cmd
}

func runStatus(cmd *cobra.Command, runID string, outputJSON bool) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	resp, err := api.Get("/pipeline/runs/" + runID)
	if err != nil {
		return fmt.Errorf("failed to get run: %w", err)
	}

	var run RunResponse
	if err := json.Unmarshal(resp.Data, &run); err != nil {
		return fmt.Errorf("failed to parse run: %w", err)
	}

	if outputJSON {
		data, _ := json.MarshalIndent(run, "", "  ")
		fmt.Println(string(data))
		return nil
	}

	fmt.Printf("Run:      %s\n", run.ID)
	fmt.Printf("Campaign: %s\n", run.CampaignID)
	fmt.Printf("State:    %s\n", run.State)
	if run.FailReason != "" {
		fmt.Printf("Failure:  %s\n", run.FailReason)
	}
	if len(run.Attempts) > 0 {
		fmt.Println("Attempts:")
		for _, a := range run.Attempts {
			line := fmt.Sprintf("  %-8s #%d %s", a.Stage, a.Attempt, a.Status)
			if a.Error != "" {
				line += " (" + a.Error + ")"
			}
			fmt.Println(line)
		}
	}

	return nil
}

func runListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list <campaign-id>",
		Short: "List runs for a campaign",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runList(cmd, args[0], outputJSON)
		},
	}

	return cmd
}

func runList(cmd *cobra.Command, campaignID string, outputJSON bool) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	resp, err := api.Get("/pipeline/runs?campaign_id=" + campaignID)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	var runs []RunResponse
	if err := json.Unmarshal(resp.Data, &runs); err != nil {
		return fmt.Errorf("failed to parse runs: %w", err)
	}

	if outputJSON {
		data, _ := json.MarshalIndent(runs, "", "  ")
		fmt.Println(string(data))
		return nil
	}

	if len(runs) == 0 {
		fmt.Println("No runs found.")
		return nil
	}

	for _, run := range runs {
		fmt.Printf("%s  %-9s  started %s\n", run.ID, run.State, run.StartedAt.Format(time.RFC3339))
	}

	return nil
}
