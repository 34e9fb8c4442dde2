package verify

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/stake-plus/raiinmaker-verify/src/extract"
	"github.com/stake-plus/raiinmaker-verify/src/logging"
	"github.com/stake-plus/raiinmaker-verify/src/memory"
	"github.com/stake-plus/raiinmaker-verify/src/precheck"
	"github.com/stake-plus/raiinmaker-verify/src/raiinmaker"
	"go.uber.org/zap"
)

// AutoApprovedPrefix marks task ids minted locally for content the
// pre-check approved.
const AutoApprovedPrefix = "auto-"

var autoNamespace = uuid.MustParse("6f1d4b8e-2c3a-4e5f-9a7b-0d1c2e3f4a5b")

// AutoApprovedID derives a stable id from content.
func AutoApprovedID(content string) string {
	return AutoApprovedPrefix + uuid.NewSHA1(autoNamespace, []byte(content)).String()
}

// IsAutoApprovedID reports whether id was minted by AutoApprovedID.
func IsAutoApprovedID(id string) bool {
	return strings.HasPrefix(id, AutoApprovedPrefix)
}

// Verify submits content. Content the pre-check approves is recorded
// locally; everything else becomes a human verification task.
func (o *Orchestrator) Verify(ctx context.Context, req Request, cb Callback) (*Result, error) {
	const action = "verify"
	cfg := o.deps.Config()

	content := strings.TrimSpace(req.Content)
	if content == "" {
		content = extract.Content(req.Text)
	}
	if content == "" {
		return o.fail(ctx, cb, action, ErrEmptyContent)
	}
	client, err := o.client(cfg)
	if err != nil {
		return o.fail(ctx, cb, action, err)
	}

	guarded := cfg.DedupeEnabled && o.deps.Guard != nil
	if guarded {
		ok, err := o.deps.Guard.Acquire(ctx, content)
		switch {
		case err != nil:
			o.logger.Warn("in-flight guard unavailable", zap.Error(err))
			guarded = false
		case !ok:
			return o.fail(ctx, cb, action, ErrDuplicateInFlight)
		}
	}
	release := func() {
		if guarded {
			if err := o.deps.Guard.Release(ctx, content); err != nil {
				o.logger.Warn("in-flight release failed", zap.Error(err))
			}
		}
	}

	var checks precheck.Outcome
	ran := false
	if !req.SkipPreCheck {
		checker, err := o.checker(cfg)
		if err != nil {
			o.logger.Warn("pre-check unavailable", zap.Error(err))
			checks = precheck.Outcome{Result: precheck.Result{Passes: cfg.PreCheckPolicy != precheck.FailClosed}, Err: err}
			ran = true
		} else if checker != nil {
			checks = precheck.Run(ctx, checker, cfg.PreCheckPolicy, content, req.Checklist)
			ran = true
		}
		if checks.Faulted() {
			o.logger.Warn("pre-check faulted",
				zap.String("policy", string(cfg.PreCheckPolicy)),
				zap.Bool("rate_limited", logging.IsRateLimit(checks.Err)),
				zap.Bool("passes", checks.Passes),
				zap.Error(checks.Err))
		}
	}

	if ran && checks.Passes {
		r := o.autoApprove(ctx, req, content)
		o.deliver(ctx, cb, r)
		return r, nil
	}

	task, err := client.CreateVerificationTask(ctx, content, raiinmaker.TaskOptions{
		Name:           req.Name,
		Question:       req.Question,
		CampaignID:     req.CampaignID,
		ConsensusVotes: cfg.ConsensusVotes,
		Reputation:     cfg.Reputation,
	})
	if err != nil {
		release()
		return o.fail(ctx, cb, action, err)
	}

	entry := memory.NewEntry(req.RoomID, req.AgentID, memory.KindContentVerification, task.ID, content, o.deps.Now())
	o.remember(ctx, entry)
	o.publish(ctx, entry)

	votes := task.ConsensusVotes
	if votes <= 0 {
		votes = cfg.ConsensusVotes
	}
	r := &Result{
		Text:          submittedText(task.ID, votes, checks),
		Success:       true,
		Status:        string(raiinmaker.TaskStatusPending),
		Answer:        raiinmaker.AnswerUnresolved,
		TaskID:        task.ID,
		VotesRequired: votes,
		FailedChecks:  checks.FailedChecks,
		SuggestedFix:  checks.SuggestedFix,
	}
	o.logger.Info("verification task created",
		zap.String("task_id", task.ID),
		zap.String("room_id", req.RoomID),
		zap.Bool("prechecked", ran))
	o.deliver(ctx, cb, r)
	return r, nil
}

func (o *Orchestrator) autoApprove(ctx context.Context, req Request, content string) *Result {
	id := AutoApprovedID(content)
	entry := memory.NewEntry(req.RoomID, req.AgentID, memory.KindContentAutoApproved, id, content, o.deps.Now())
	o.remember(ctx, entry)
	o.publish(ctx, entry)

	o.logger.Info("content auto-approved", zap.String("task_id", id), zap.String("room_id", req.RoomID))
	return &Result{
		Text:    autoApprovedText(id),
		Success: true,
		Status:  statusApproved,
		Answer:  raiinmaker.AnswerApproved,
		TaskID:  id,
	}
}
