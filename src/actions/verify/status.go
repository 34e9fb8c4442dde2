package verify

import (
	"context"
	"strings"

	"github.com/stake-plus/raiinmaker-verify/src/extract"
	"github.com/stake-plus/raiinmaker-verify/src/memory"
	"github.com/stake-plus/raiinmaker-verify/src/raiinmaker"
	"github.com/stake-plus/raiinmaker-verify/src/verification"
	"go.uber.org/zap"
)

const recentScan = 20

// CheckStatus reports the current state of a task. Auto-approved ids are
// answered without contacting the service, but only when the room's memory
// holds the approval that minted them.
func (o *Orchestrator) CheckStatus(ctx context.Context, req StatusRequest, cb Callback) (*Result, error) {
	const action = "check status"

	taskID := o.resolveTaskID(ctx, req)
	if taskID == "" {
		return o.fail(ctx, cb, action, ErrNoTaskID)
	}

	var task *raiinmaker.Task
	if IsAutoApprovedID(taskID) {
		entry, ok := o.autoApproval(ctx, req.RoomID, taskID)
		if !ok {
			o.logger.Warn("unknown auto-approved id", zap.String("task_id", taskID), zap.String("room_id", req.RoomID))
			return o.fail(ctx, cb, action, ErrNoTaskID)
		}
		approved := "true"
		task = &raiinmaker.Task{
			ID:      taskID,
			Status:  raiinmaker.TaskStatusCompleted,
			Subject: entry.Content,
			Answer:  &approved,
		}
	} else {
		client, err := o.client(o.deps.Config())
		if err != nil {
			return o.fail(ctx, cb, action, err)
		}
		task, err = client.GetTaskByID(ctx, taskID)
		if err != nil {
			return o.fail(ctx, cb, action, err)
		}
	}

	view := verification.Reduce(task)
	r := &Result{
		Text:          verification.Details(view),
		Success:       view.Status != verification.StatusError,
		Status:        view.Status,
		Answer:        view.Answer,
		TaskID:        taskID,
		VotesRequired: view.VotesRequired,
		VotesReceived: view.VotesReceived,
		View:          &view,
	}
	o.logger.Debug("status checked",
		zap.String("task_id", taskID),
		zap.String("status", view.Status),
		zap.Stringer("answer", view.Answer))
	o.deliver(ctx, cb, r)
	return r, nil
}

func (o *Orchestrator) resolveTaskID(ctx context.Context, req StatusRequest) string {
	if id := strings.TrimSpace(req.TaskID); id != "" {
		return id
	}
	if id, ok := extract.TaskID(req.Text); ok {
		return id
	}
	if id, ok := memory.LatestTaskID(o.recent(ctx, req.RoomID)); ok {
		return id
	}
	return ""
}

// autoApproval finds the memory entry that minted id. The entry must be an
// auto-approval whose content still hashes to id.
func (o *Orchestrator) autoApproval(ctx context.Context, roomID, id string) (memory.Entry, bool) {
	for _, e := range o.recent(ctx, roomID) {
		if e.Kind == memory.KindContentAutoApproved && e.TaskID == id && AutoApprovedID(e.Content) == id {
			return e, true
		}
	}
	return memory.Entry{}, false
}

func (o *Orchestrator) recent(ctx context.Context, roomID string) []memory.Entry {
	if o.deps.Memory == nil || roomID == "" {
		return nil
	}
	entries, err := o.deps.Memory.Recent(ctx, roomID, recentScan)
	if err != nil {
		o.logger.Warn("memory read failed", zap.String("room_id", roomID), zap.Error(err))
		return nil
	}
	return entries
}
