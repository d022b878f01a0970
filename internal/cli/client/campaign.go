package client

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

// CampaignResponse represents a campaign as returned by the API.
type CampaignResponse struct {
	ID        string    `json:"ID"`
	Brand     string    `json:"Brand"`
	Keywords  []string  `json:"Keywords"`
	Platforms []string  `json:"Platforms"`
	CreatedAt time.Time `json:"CreatedAt"`
	UpdatedAt time.Time `json:"UpdatedAt"`
}

// CampaignCmd creates the campaign command group.
func CampaignCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "campaign",
		Short: "Manage brand monitoring campaigns",
	}

	cmd.AddCommand(campaignCreateCmd())
	cmd.AddCommand(campaignListCmd())
	cmd.AddCommand(campaignGetCmd())

	return cmd
}

func campaignCreateCmd() *cobra.Command {
	var keywords []string
	var platforms []string

	cmd := &cobra.Command{
		Use:   "create <brand>",
		Short: "Create a campaign",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runCampaignCreate(cmd, args[0], keywords, platforms, outputJSON)
		},
	}

	cmd.Flags().StringSliceVarP(&keywords, "keyword", "k", nil, "Keyword to track (repeatable)")
	cmd.Flags().StringSliceVarP(&platforms, "platform", "p", nil, "Platform to monitor (repeatable)")

	return cmd
}

func runCampaignCreate(cmd *cobra.Command, brand string, keywords, platforms []string, outputJSON bool) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	resp, err := api.Post("/campaigns", map[string]interface{}{
		"brand":     brand,
		"keywords":  keywords,
		"platforms": platforms,
	})
	if err != nil {
		return fmt.Errorf("failed to create campaign: %w", err)
	}

	var campaign CampaignResponse
	if err := json.Unmarshal(resp.Data, &campaign); err != nil {
		return fmt.Errorf("failed to parse campaign response: %w", err)
	}

	if outputJSON {
		data, _ := json.MarshalIndent(campaign, "", "  ")
		fmt.Println(string(data))
	} else {
		fmt.Printf("Created campaign '%s'\n", campaign.Brand)
		fmt.Printf("Campaign ID: %s\n", campaign.ID)
	}

	return nil
}

func campaignListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List campaigns",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runCampaignList(cmd, outputJSON)
		},
	}

	return cmd
}

func runCampaignList(cmd *cobra.Command, outputJSON bool) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	resp, err := api.Get("/campaigns")
	if err != nil {
		return fmt.Errorf("failed to list campaigns: %w", err)
	}

	var campaigns []CampaignResponse
	if err := json.Unmarshal(resp.Data, &campaigns); err != nil {
		return fmt.Errorf("failed to parse campaigns: %w", err)
	}

	if outputJSON {
		data, _ := json.MarshalIndent(campaigns, "", "  ")
		fmt.Println(string(data))
		return nil
	}

	if len(campaigns) == 0 {
		fmt.Println("No campaigns found.")
		return nil
	}

	for _, c := range campaigns {
		fmt.Printf("%s  %s\n", c.ID, c.Brand)
		fmt.Printf("    keywords:  %s\n", strings.Join(c.Keywords, ", "))
		fmt.Printf("    platforms: %s\n", strings.Join(c.Platforms, ", "))
	}

	return nil
}

func campaignGetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Show a campaign",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runCampaignGet(cmd, args[0], outputJSON)
		},
	}

	return cmd
}

func runCampaignGet(cmd *cobra.Command, id string, outputJSON bool) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	resp, err := api.Get("/campaigns/" + id)
	if err != nil {
		return fmt.Errorf("failed to get campaign: %w", err)
	}

	var campaign CampaignResponse
	if err := json.Unmarshal(resp.Data, &campaign); err != nil {
		return fmt.Errorf("failed to parse campaign: %w", err)
	}

	if outputJSON {
		data, _ := json.MarshalIndent(campaign, "", "  ")
		fmt.Println(string(data))
		return nil
	}

	fmt.Printf("Campaign:  %s\n", campaign.ID)
	fmt.Printf("Brand:     %s\n", campaign.Brand)
	fmt.Printf("Keywords:  %s\n", strings.Join(campaign.Keywords, ", "))
	fmt.Printf("Platforms: %s\n", strings.Join(campaign.Platforms, ", "))
	fmt.Printf("Created:   %s\n", campaign.CreatedAt.Format(time.RFC3339))

	return nil
}
