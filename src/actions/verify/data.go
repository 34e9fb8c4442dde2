package verify

import (
	"context"
	"fmt"
	"strings"

	"github.com/stake-plus/raiinmaker-verify/src/extract"
	"github.com/stake-plus/raiinmaker-verify/src/memory"
)

// VerifyData asks the service to classify the factual accuracy of content.
func (o *Orchestrator) VerifyData(ctx context.Context, req DataRequest, cb Callback) (*Result, error) {
	const action = "verify data"

	content := strings.TrimSpace(req.Content)
	if content == "" {
		content = extract.Content(req.Text)
	}
	if content == "" {
		return o.fail(ctx, cb, action, ErrEmptyContent)
	}
	client, err := o.client(o.deps.Config())
	if err != nil {
		return o.fail(ctx, cb, action, err)
	}
	dv, err := client.GetDataVerification(ctx, content)
	if err != nil {
		return o.fail(ctx, cb, action, err)
	}

	o.remember(ctx, memory.NewEntry(req.RoomID, req.AgentID, memory.KindDataVerification, "", content, o.deps.Now()))

	text := fmt.Sprintf("Data verification: %s", dv.Classification)
	if dv.Message != "" {
		text += "\n" + dv.Message
	}
	text += fmt.Sprintf("\nChecked on %s at %s", dv.Date, dv.Time)

	r := &Result{Text: text, Success: true, Status: dv.Classification, Data: dv}
	o.deliver(ctx, cb, r)
	return r, nil
}
