package verify

import (
	"context"
	"fmt"

	"github.com/stake-plus/raiinmaker-verify/src/raiinmaker"
)

// CreateCampaign creates a campaign to group verification tasks.
func (o *Orchestrator) CreateCampaign(ctx context.Context, in raiinmaker.CampaignInput, cb Callback) (*Result, error) {
	return o.campaign(ctx, cb, "create campaign", func(c TaskAPI) (*raiinmaker.Campaign, error) {
		return c.CreateCampaign(ctx, in)
	})
}

// UpdateCampaign changes campaign metadata.
func (o *Orchestrator) UpdateCampaign(ctx context.Context, id string, in raiinmaker.CampaignInput, cb Callback) (*Result, error) {
	return o.campaign(ctx, cb, "update campaign", func(c TaskAPI) (*raiinmaker.Campaign, error) {
		return c.UpdateCampaign(ctx, id, in)
	})
}

// GetCampaign fetches a campaign.
func (o *Orchestrator) GetCampaign(ctx context.Context, id string, cb Callback) (*Result, error) {
	return o.campaign(ctx, cb, "get campaign", func(c TaskAPI) (*raiinmaker.Campaign, error) {
		return c.GetCampaign(ctx, id)
	})
}

func (o *Orchestrator) campaign(ctx context.Context, cb Callback, action string, call func(TaskAPI) (*raiinmaker.Campaign, error)) (*Result, error) {
	client, err := o.client(o.deps.Config())
	if err != nil {
		return o.fail(ctx, cb, action, err)
	}
	c, err := call(client)
	if err != nil {
		return o.fail(ctx, cb, action, err)
	}
	text := fmt.Sprintf("Campaign %s (%s)", c.Name, c.ID)
	if c.Status != "" {
		text += ": " + c.Status
	}
	r := &Result{Text: text, Success: true, Status: c.Status, Campaign: c}
	o.deliver(ctx, cb, r)
	return r, nil
}
