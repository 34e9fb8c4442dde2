package verify

import (
	"context"
	"fmt"
	"strings"

	"github.com/stake-plus/raiinmaker-verify/src/extract"
	"go.uber.org/zap"
)

// ListQuests lists verification tasks matching phrases such as "pending
// tasks this week".
func (o *Orchestrator) ListQuests(ctx context.Context, req QuestRequest, cb Callback) (*Result, error) {
	const action = "list tasks"

	filter := extract.ParseQuestFilter(req.Text, o.deps.Now())
	if req.Filter != nil {
		filter = *req.Filter
	}
	client, err := o.client(o.deps.Config())
	if err != nil {
		return o.fail(ctx, cb, action, err)
	}
	page, err := client.GetAllTasks(ctx, filter)
	if err != nil {
		return o.fail(ctx, cb, action, err)
	}

	var b strings.Builder
	if len(page.Items) == 0 {
		b.WriteString("No verification tasks found.")
	} else {
		fmt.Fprintf(&b, "Found %d verification tasks (showing %d):", page.Total, len(page.Items))
		for _, t := range page.Items {
			b.WriteString("\n")
			b.WriteString(questLine(t))
		}
	}

	r := &Result{
		Text:    b.String(),
		Success: true,
		Tasks:   page.Items,
		Total:   page.Total,
	}
	o.logger.Debug("tasks listed", zap.Int("items", len(page.Items)), zap.Int("total", page.Total))
	o.deliver(ctx, cb, r)
	return r, nil
}
