package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/stake-plus/raiinmaker-verify/src/actions/verify"
	"github.com/stake-plus/raiinmaker-verify/src/raiinmaker"
)

var (
	skipPreCheck bool
	checklist    []string
	campaignID   string

	statusText string

	listPage  int
	listLimit int

	campaignName        string
	campaignDescription string
	campaignStatus      string
	campaignStart       string
	campaignEnd         string
	campaignImage       string
)

var verifyCmd = &cobra.Command{
	Use:   "verify [content]",
	Short: "Submit content for verification",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRuntime(cmd, func(ctx context.Context, o *verify.Orchestrator) (*verify.Result, error) {
			return o.Verify(ctx, verify.Request{
				Content:      strings.Join(args, " "),
				RoomID:       room,
				AgentID:      "cli",
				Checklist:    checklist,
				SkipPreCheck: skipPreCheck,
				CampaignID:   campaignID,
			}, nil)
		})
	},
}

var statusCmd = &cobra.Command{
	Use:   "status [task-id]",
	Short: "Check a verification task, defaulting to the room's latest submission",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := verify.StatusRequest{Text: statusText, RoomID: room}
		if len(args) == 1 {
			req.TaskID = args[0]
		}
		return withRuntime(cmd, func(ctx context.Context, o *verify.Orchestrator) (*verify.Result, error) {
			return o.CheckStatus(ctx, req, nil)
		})
	},
}

var tasksCmd = &cobra.Command{
	Use:   "tasks [filter]",
	Short: `List verification tasks, e.g. "pending BOOL tasks this week"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		req := verify.QuestRequest{Text: strings.Join(args, " ")}
		if cmd.Flags().Changed("page") || cmd.Flags().Changed("limit") {
			req.Filter = &raiinmaker.TaskFilter{Page: listPage, Limit: listLimit}
		}
		return withRuntime(cmd, func(ctx context.Context, o *verify.Orchestrator) (*verify.Result, error) {
			return o.ListQuests(ctx, req, nil)
		})
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate [statement]",
	Short: "Classify the factual accuracy of a statement",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRuntime(cmd, func(ctx context.Context, o *verify.Orchestrator) (*verify.Result, error) {
			return o.VerifyData(ctx, verify.DataRequest{Content: strings.Join(args, " "), RoomID: room, AgentID: "cli"}, nil)
		})
	},
}

var campaignCmd = &cobra.Command{
	Use:   "campaign",
	Short: "Manage verification campaigns",
}

var campaignCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a campaign",
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := campaignInput()
		if err != nil {
			return err
		}
		return withRuntime(cmd, func(ctx context.Context, o *verify.Orchestrator) (*verify.Result, error) {
			return o.CreateCampaign(ctx, in, nil)
		})
	},
}

var campaignUpdateCmd = &cobra.Command{
	Use:   "update [id]",
	Short: "Update a campaign",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := campaignInput()
		if err != nil {
			return err
		}
		return withRuntime(cmd, func(ctx context.Context, o *verify.Orchestrator) (*verify.Result, error) {
			return o.UpdateCampaign(ctx, args[0], in, nil)
		})
	},
}

var campaignGetCmd = &cobra.Command{
	Use:   "get [id]",
	Short: "Show a campaign",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRuntime(cmd, func(ctx context.Context, o *verify.Orchestrator) (*verify.Result, error) {
			return o.GetCampaign(ctx, args[0], nil)
		})
	},
}

func campaignInput() (raiinmaker.CampaignInput, error) {
	in := raiinmaker.CampaignInput{
		Name:        campaignName,
		Description: campaignDescription,
		Status:      campaignStatus,
		StartDate:   campaignStart,
		EndDate:     campaignEnd,
	}
	if campaignImage != "" {
		img, err := os.ReadFile(campaignImage)
		if err != nil {
			return in, fmt.Errorf("read image: %w", err)
		}
		in.Image = img
		in.ImageFilename = filepath.Base(campaignImage)
	}
	return in, nil
}

func init() {
	verifyCmd.Flags().BoolVar(&skipPreCheck, "skip-precheck", false, "send straight to human verification")
	verifyCmd.Flags().StringArrayVar(&checklist, "check", nil, "checklist statement for the pre-check (repeatable)")
	verifyCmd.Flags().StringVar(&campaignID, "campaign", "", "campaign to file the task under")

	statusCmd.Flags().StringVar(&statusText, "text", "", "free text to find a task id in")

	tasksCmd.Flags().IntVar(&listPage, "page", 0, "page number")
	tasksCmd.Flags().IntVar(&listLimit, "limit", 10, "page size (minimum 10)")

	for _, c := range []*cobra.Command{campaignCreateCmd, campaignUpdateCmd} {
		c.Flags().StringVar(&campaignName, "name", "", "campaign name")
		c.Flags().StringVar(&campaignDescription, "description", "", "campaign description")
		c.Flags().StringVar(&campaignStatus, "status", "", "campaign status")
		c.Flags().StringVar(&campaignStart, "start", "", "start date")
		c.Flags().StringVar(&campaignEnd, "end", "", "end date")
		c.Flags().StringVar(&campaignImage, "image", "", "path to a campaign image")
	}
	campaignCmd.AddCommand(campaignCreateCmd, campaignUpdateCmd, campaignGetCmd)
}
