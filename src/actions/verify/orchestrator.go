// Package verify drives the verification actions: submitting content,
// checking task status, listing tasks, data-accuracy checks and campaign
// maintenance.
package verify

import (
	"context"
	"errors"
	"time"

	"github.com/stake-plus/raiinmaker-verify/src/config"
	"github.com/stake-plus/raiinmaker-verify/src/memory"
	"github.com/stake-plus/raiinmaker-verify/src/precheck"
	"github.com/stake-plus/raiinmaker-verify/src/raiinmaker"
	"github.com/stake-plus/raiinmaker-verify/src/verification"
	"go.uber.org/zap"
)

var (
	// ErrNoTaskID is returned when no task id could be resolved for a
	// status check.
	ErrNoTaskID = errors.New("verify: no task id found")
	// ErrDuplicateInFlight is returned when identical content is already
	// being verified.
	ErrDuplicateInFlight = errors.New("verify: identical content already in flight")
	// ErrEmptyContent is returned when there is nothing to verify.
	ErrEmptyContent = errors.New("verify: content is empty")
)

// TaskAPI is the remote verification service.
type TaskAPI interface {
	CreateVerificationTask(ctx context.Context, content string, opts raiinmaker.TaskOptions) (*raiinmaker.Task, error)
	GetTaskByID(ctx context.Context, taskID string) (*raiinmaker.Task, error)
	GetAllTasks(ctx context.Context, filter raiinmaker.TaskFilter) (*raiinmaker.TaskPage, error)
	GetDataVerification(ctx context.Context, content string) (*raiinmaker.DataVerification, error)
	CreateCampaign(ctx context.Context, in raiinmaker.CampaignInput) (*raiinmaker.Campaign, error)
	UpdateCampaign(ctx context.Context, id string, in raiinmaker.CampaignInput) (*raiinmaker.Campaign, error)
	GetCampaign(ctx context.Context, id string) (*raiinmaker.Campaign, error)
}

// InFlightGuard refuses concurrent submissions of the same content.
type InFlightGuard interface {
	Acquire(ctx context.Context, content string) (bool, error)
	Release(ctx context.Context, content string) error
}

// Publisher receives one event per recorded submission.
type Publisher interface {
	Publish(ctx context.Context, payload map[string]interface{}) error
}

// Callback receives the outcome of an action. It is invoked at most once
// per action.
type Callback func(ctx context.Context, r Result) error

// Deps wires the orchestrator. Only Config is required.
type Deps struct {
	// Config resolves the settings for one request.
	Config func() config.Verify

	// Client overrides the remote client built from the resolved settings.
	Client TaskAPI
	// PreCheck overrides the AI checker built from the resolved settings.
	PreCheck precheck.Checker

	Memory memory.Store
	Guard  InFlightGuard
	Events Publisher
	Logger *zap.Logger
	Now    func() time.Time
}

// Orchestrator implements the verification actions.
type Orchestrator struct {
	deps   Deps
	logger *zap.Logger
}

// New returns an orchestrator. A nil Config resolves to an empty Verify,
// which fails every remote action with a validation error.
func New(deps Deps) *Orchestrator {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Config == nil {
		deps.Config = func() config.Verify { return config.Verify{} }
	}
	return &Orchestrator{deps: deps, logger: logger.Named("verify")}
}

func (o *Orchestrator) client(cfg config.Verify) (TaskAPI, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if o.deps.Client != nil {
		return o.deps.Client, nil
	}
	client, err := raiinmaker.NewClient(raiinmaker.Config{
		BaseURL:   cfg.BaseURL,
		AppID:     cfg.AppID,
		AppSecret: cfg.AppSecret,
		Logger:    o.logger,
		Now:       o.deps.Now,
	})
	if err != nil {
		return nil, err
	}
	return client, nil
}

// checker returns the pre-check to run, or nil when it is off or has no
// backend.
func (o *Orchestrator) checker(cfg config.Verify) (precheck.Checker, error) {
	if !cfg.PreCheckEnabled {
		return nil, nil
	}
	if o.deps.PreCheck != nil {
		return o.deps.PreCheck, nil
	}
	if !cfg.PreCheckConfigured() {
		return nil, nil
	}
	checker, err := precheck.NewAIChecker(cfg.AI.FactoryConfig(), o.logger)
	if errors.Is(err, precheck.ErrNotConfigured) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return checker, nil
}

func (o *Orchestrator) remember(ctx context.Context, e *memory.Entry) {
	if o.deps.Memory == nil {
		return
	}
	if err := o.deps.Memory.Create(ctx, e); err != nil {
		o.logger.Warn("memory write failed",
			zap.String("kind", string(e.Kind)),
			zap.String("task_id", e.TaskID),
			zap.Error(err))
	}
}

func (o *Orchestrator) publish(ctx context.Context, e *memory.Entry) {
	if o.deps.Events == nil {
		return
	}
	payload := map[string]interface{}{
		"kind":    string(e.Kind),
		"taskId":  e.TaskID,
		"roomId":  e.RoomID,
		"agentId": e.AgentID,
		"at":      e.CreatedAt.UTC().Format(time.RFC3339),
	}
	if err := o.deps.Events.Publish(ctx, payload); err != nil {
		o.logger.Warn("event publish failed", zap.String("task_id", e.TaskID), zap.Error(err))
	}
}

func (o *Orchestrator) deliver(ctx context.Context, cb Callback, r *Result) {
	if cb == nil {
		return
	}
	if err := cb(ctx, *r); err != nil {
		o.logger.Warn("callback failed", zap.Error(err))
	}
}

// fail reports err through cb and returns it alongside the failure result.
func (o *Orchestrator) fail(ctx context.Context, cb Callback, action string, err error) (*Result, error) {
	o.logger.Info("action failed", zap.String("action", action), zap.Error(err))
	r := &Result{
		Text:   failureText(action, err),
		Status: verification.StatusError,
		Error:  err.Error(),
	}
	o.deliver(ctx, cb, r)
	return r, err
}
