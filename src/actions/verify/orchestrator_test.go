package verify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	aicore "github.com/stake-plus/raiinmaker-verify/src/ai/core"
	"github.com/stake-plus/raiinmaker-verify/src/config"
	"github.com/stake-plus/raiinmaker-verify/src/memory"
	"github.com/stake-plus/raiinmaker-verify/src/precheck"
	"github.com/stake-plus/raiinmaker-verify/src/raiinmaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	mu    sync.Mutex
	calls map[string]int

	createErr error
	task      *raiinmaker.Task
	taskErr   error
	page      *raiinmaker.TaskPage
	filter    raiinmaker.TaskFilter
	opts      raiinmaker.TaskOptions
	data      *raiinmaker.DataVerification
	campaign  *raiinmaker.Campaign
}

func (f *fakeAPI) hit(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = map[string]int{}
	}
	f.calls[name]++
}

func (f *fakeAPI) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeAPI) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func (f *fakeAPI) CreateVerificationTask(_ context.Context, content string, opts raiinmaker.TaskOptions) (*raiinmaker.Task, error) {
	f.hit("create")
	f.opts = opts
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &raiinmaker.Task{ID: "task-0123456789", Status: raiinmaker.TaskStatusPending, Subject: content, ConsensusVotes: opts.ConsensusVotes}, nil
}

func (f *fakeAPI) GetTaskByID(_ context.Context, id string) (*raiinmaker.Task, error) {
	f.hit("get")
	if f.taskErr != nil {
		return nil, f.taskErr
	}
	t := *f.task
	t.ID = id
	return &t, nil
}

func (f *fakeAPI) GetAllTasks(_ context.Context, filter raiinmaker.TaskFilter) (*raiinmaker.TaskPage, error) {
	f.hit("list")
	f.filter = filter
	return f.page, nil
}

func (f *fakeAPI) GetDataVerification(context.Context, string) (*raiinmaker.DataVerification, error) {
	f.hit("validate")
	return f.data, nil
}

func (f *fakeAPI) CreateCampaign(_ context.Context, in raiinmaker.CampaignInput) (*raiinmaker.Campaign, error) {
	f.hit("createCampaign")
	return &raiinmaker.Campaign{ID: "c1", Name: in.Name, Status: "active"}, nil
}

func (f *fakeAPI) UpdateCampaign(_ context.Context, id string, in raiinmaker.CampaignInput) (*raiinmaker.Campaign, error) {
	f.hit("updateCampaign")
	return &raiinmaker.Campaign{ID: id, Name: in.Name}, nil
}

func (f *fakeAPI) GetCampaign(_ context.Context, id string) (*raiinmaker.Campaign, error) {
	f.hit("getCampaign")
	return f.campaign, nil
}

type fakeGuard struct {
	held     map[string]bool
	err      error
	released int
}

func (g *fakeGuard) Acquire(_ context.Context, content string) (bool, error) {
	if g.err != nil {
		return false, g.err
	}
	if g.held == nil {
		g.held = map[string]bool{}
	}
	if g.held[content] {
		return false, nil
	}
	g.held[content] = true
	return true, nil
}

func (g *fakeGuard) Release(_ context.Context, content string) error {
	g.released++
	delete(g.held, content)
	return nil
}

type fakePublisher struct{ events []map[string]interface{} }

func (p *fakePublisher) Publish(_ context.Context, payload map[string]interface{}) error {
	p.events = append(p.events, payload)
	return nil
}

var fixedNow = time.Date(2026, 10, 16, 14, 5, 9, 0, time.UTC)

func baseConfig() config.Verify {
	return config.Verify{
		AppID:          "app",
		AppSecret:      "secret",
		BaseURL:        raiinmaker.DefaultBaseURL,
		PreCheckPolicy: precheck.FailOpen,
		ConsensusVotes: 3,
		Reputation:     "ANY",
	}
}

type harness struct {
	api    *fakeAPI
	mem    *memory.MemoryStore
	orch   *Orchestrator
	calls  int
	result Result
}

func newHarness(t *testing.T, cfg config.Verify, checker precheck.Checker, opts ...func(*Deps)) *harness {
	t.Helper()
	h := &harness{api: &fakeAPI{}, mem: memory.NewMemoryStore()}
	deps := Deps{
		Config:   func() config.Verify { return cfg },
		Client:   h.api,
		PreCheck: checker,
		Memory:   h.mem,
		Now:      func() time.Time { return fixedNow },
	}
	for _, opt := range opts {
		opt(&deps)
	}
	h.orch = New(deps)
	return h
}

func (h *harness) cb(_ context.Context, r Result) error {
	h.calls++
	h.result = r
	return nil
}

func TestVerifyWithoutPreCheckCreatesTask(t *testing.T) {
	h := newHarness(t, baseConfig(), nil)

	r, err := h.orch.Verify(context.Background(), Request{Content: "Hello world", RoomID: "room"}, h.cb)
	require.NoError(t, err)

	assert.Equal(t, 1, h.api.count("create"))
	assert.Equal(t, 1, h.mem.Count("room", memory.KindContentVerification))
	assert.Equal(t, "pending", r.Status)
	assert.NotEmpty(t, r.TaskID)
	assert.True(t, r.Success)
	assert.Equal(t, 3, r.VotesRequired)
	assert.Equal(t, 1, h.calls)
	assert.Equal(t, *r, h.result)
	assert.Equal(t, "ANY", h.api.opts.Reputation)
}

func TestVerifyPreCheckPassAutoApproves(t *testing.T) {
	cfg := baseConfig()
	cfg.PreCheckEnabled = true
	h := newHarness(t, cfg, precheck.Static{Result: precheck.Result{Passes: true}})

	r, err := h.orch.Verify(context.Background(), Request{Content: "Hello world", RoomID: "room"}, h.cb)
	require.NoError(t, err)

	assert.Equal(t, 0, h.api.count("create"))
	assert.Equal(t, 1, h.mem.Count("room", memory.KindContentAutoApproved))
	assert.Equal(t, 0, h.mem.Count("room", memory.KindContentVerification))
	assert.Equal(t, "approved", r.Status)
	assert.Equal(t, raiinmaker.AnswerApproved, r.Answer)
	assert.Equal(t, 0, r.VotesRequired)
	assert.Equal(t, 0, r.VotesReceived)
	assert.Equal(t, AutoApprovedID("Hello world"), r.TaskID)
	assert.True(t, IsAutoApprovedID(r.TaskID))
	assert.Equal(t, 1, h.calls)
}

func TestAutoApprovedIDIsDeterministic(t *testing.T) {
	assert.Equal(t, AutoApprovedID("same"), AutoApprovedID("same"))
	assert.NotEqual(t, AutoApprovedID("same"), AutoApprovedID("other"))
}

func TestVerifyPreCheckFailureFallsThrough(t *testing.T) {
	cfg := baseConfig()
	cfg.PreCheckEnabled = true
	h := newHarness(t, cfg, precheck.Static{Result: precheck.Result{
		Passes:       false,
		FailedChecks: []string{"no spam"},
		SuggestedFix: "drop the link",
	}})

	r, err := h.orch.Verify(context.Background(), Request{Content: "buy now!!!", RoomID: "room"}, h.cb)
	require.NoError(t, err)
	assert.Equal(t, 1, h.api.count("create"))
	assert.Equal(t, "pending", r.Status)
	assert.Equal(t, []string{"no spam"}, r.FailedChecks)
	assert.Equal(t, "drop the link", r.SuggestedFix)
	assert.Contains(t, r.Text, "no spam")
}

func TestVerifyPreCheckFaultPolicy(t *testing.T) {
	boom := errors.New("upstream down")

	cfg := baseConfig()
	cfg.PreCheckEnabled = true
	open := newHarness(t, cfg, precheck.Static{Err: boom})
	r, err := open.orch.Verify(context.Background(), Request{Content: "x", RoomID: "room"}, open.cb)
	require.NoError(t, err)
	assert.Equal(t, "approved", r.Status)
	assert.Equal(t, 0, open.api.count("create"))

	cfg.PreCheckPolicy = precheck.FailClosed
	closed := newHarness(t, cfg, precheck.Static{Err: boom})
	r, err = closed.orch.Verify(context.Background(), Request{Content: "x", RoomID: "room"}, closed.cb)
	require.NoError(t, err)
	assert.Equal(t, "pending", r.Status)
	assert.Equal(t, 1, closed.api.count("create"))
}

func TestVerifySkipPreCheck(t *testing.T) {
	cfg := baseConfig()
	cfg.PreCheckEnabled = true
	h := newHarness(t, cfg, precheck.Static{Result: precheck.Result{Passes: true}})

	r, err := h.orch.Verify(context.Background(), Request{Content: "x", RoomID: "room", SkipPreCheck: true}, h.cb)
	require.NoError(t, err)
	assert.Equal(t, "pending", r.Status)
	assert.Equal(t, 1, h.api.count("create"))
}

func TestVerifyPreCheckUnconfiguredCreatesTask(t *testing.T) {
	cfg := baseConfig()
	cfg.PreCheckEnabled = true
	h := newHarness(t, cfg, nil)

	r, err := h.orch.Verify(context.Background(), Request{Content: "x", RoomID: "room"}, h.cb)
	require.NoError(t, err)
	assert.Equal(t, "pending", r.Status)
}

func TestVerifyPreCheckDisabledIgnoresChecker(t *testing.T) {
	h := newHarness(t, baseConfig(), precheck.Static{Result: precheck.Result{Passes: true}})

	r, err := h.orch.Verify(context.Background(), Request{Content: "x", RoomID: "room"}, h.cb)
	require.NoError(t, err)
	assert.Equal(t, "pending", r.Status)
	assert.Equal(t, 1, h.api.count("create"))
}

type scriptedAI struct{ reply string }

func (s scriptedAI) Respond(context.Context, string, aicore.Options) (string, error) {
	return s.reply, nil
}

func TestVerifyBuildsCheckerFromAISettings(t *testing.T) {
	aicore.RegisterProvider("verify-scripted", func(aicore.FactoryConfig) (aicore.Client, error) {
		return scriptedAI{reply: `{"passes": true, "failedChecks": []}`}, nil
	})

	cfg := baseConfig()
	cfg.PreCheckEnabled = true
	cfg.AI = config.AI{Provider: "verify-scripted", OpenAIKey: "sk-test"}
	h := newHarness(t, cfg, nil)

	r, err := h.orch.Verify(context.Background(), Request{Content: "gm", RoomID: "room"}, h.cb)
	require.NoError(t, err)
	assert.Equal(t, "approved", r.Status)
	assert.Equal(t, 0, h.api.count("create"))

	// Same provider without a key is not configured, so a task is created.
	cfg.AI.OpenAIKey = ""
	h = newHarness(t, cfg, nil)
	r, err = h.orch.Verify(context.Background(), Request{Content: "gm", RoomID: "room"}, h.cb)
	require.NoError(t, err)
	assert.Equal(t, "pending", r.Status)
	assert.Equal(t, 1, h.api.count("create"))
}

func TestVerifyRejectsLocally(t *testing.T) {
	t.Run("empty content", func(t *testing.T) {
		h := newHarness(t, baseConfig(), nil)
		r, err := h.orch.Verify(context.Background(), Request{Content: "   ", Text: " "}, h.cb)
		assert.ErrorIs(t, err, ErrEmptyContent)
		assert.False(t, r.Success)
		assert.Equal(t, 0, h.api.total())
		assert.Equal(t, 1, h.calls)
	})
	t.Run("missing credentials", func(t *testing.T) {
		cfg := baseConfig()
		cfg.AppSecret = ""
		h := newHarness(t, cfg, nil)
		r, err := h.orch.Verify(context.Background(), Request{Content: "hi"}, h.cb)
		assert.True(t, raiinmaker.IsValidationError(err))
		assert.False(t, r.Success)
		assert.Equal(t, 0, h.api.total())
		assert.Contains(t, r.Text, "api key is not configured")
	})
}

func TestVerifyCreateFailure(t *testing.T) {
	h := newHarness(t, baseConfig(), nil)
	h.api.createErr = &raiinmaker.APIError{Status: 500, Endpoint: "createVerificationTask"}

	r, err := h.orch.Verify(context.Background(), Request{Content: "hi", RoomID: "room"}, h.cb)
	assert.True(t, raiinmaker.IsAPIError(err))
	assert.False(t, r.Success)
	assert.Equal(t, 1, h.api.count("create"))
	assert.Equal(t, 0, h.mem.Count("room", memory.KindContentVerification))
	assert.Equal(t, 1, h.calls)
}

func TestVerifyExtractsContentFromText(t *testing.T) {
	h := newHarness(t, baseConfig(), nil)
	r, err := h.orch.Verify(context.Background(), Request{Text: `please verify "gm everyone"`, RoomID: "room"}, h.cb)
	require.NoError(t, err)
	assert.True(t, r.Success)

	entries, err := h.mem.Recent(context.Background(), "room", 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "gm everyone", entries[0].Content)
}

func TestVerifyInFlightGuard(t *testing.T) {
	cfg := baseConfig()
	cfg.DedupeEnabled = true
	guard := &fakeGuard{}
	pub := &fakePublisher{}
	h := newHarness(t, cfg, nil, func(d *Deps) {
		d.Guard = guard
		d.Events = pub
	})

	_, err := h.orch.Verify(context.Background(), Request{Content: "dup", RoomID: "room"}, h.cb)
	require.NoError(t, err)

	r, err := h.orch.Verify(context.Background(), Request{Content: "dup", RoomID: "room"}, h.cb)
	assert.ErrorIs(t, err, ErrDuplicateInFlight)
	assert.False(t, r.Success)
	assert.Equal(t, 1, h.api.count("create"))
	require.Len(t, pub.events, 1)
	assert.Equal(t, "contentVerification", pub.events[0]["kind"])

	h.api.createErr = errors.New("boom")
	_, err = h.orch.Verify(context.Background(), Request{Content: "other", RoomID: "room"}, h.cb)
	assert.Error(t, err)
	assert.Equal(t, 1, guard.released)
}

func TestVerifyGuardDisabledOrUnavailable(t *testing.T) {
	guard := &fakeGuard{}
	h := newHarness(t, baseConfig(), nil, func(d *Deps) { d.Guard = guard })
	for i := 0; i < 2; i++ {
		_, err := h.orch.Verify(context.Background(), Request{Content: "dup"}, h.cb)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, h.api.count("create"))

	cfg := baseConfig()
	cfg.DedupeEnabled = true
	broken := newHarness(t, cfg, nil, func(d *Deps) { d.Guard = &fakeGuard{err: errors.New("redis down")} })
	_, err := broken.orch.Verify(context.Background(), Request{Content: "dup"}, broken.cb)
	require.NoError(t, err)
}

func TestCheckStatusPending(t *testing.T) {
	h := newHarness(t, baseConfig(), nil)
	h.api.task = &raiinmaker.Task{
		Status:         raiinmaker.TaskStatusPending,
		ConsensusVotes: 3,
		Votes:          []raiinmaker.Vote{{ID: "1", Answer: "true"}, {ID: "2", Answer: "false"}},
	}

	r, err := h.orch.CheckStatus(context.Background(), StatusRequest{TaskID: "task-1"}, h.cb)
	require.NoError(t, err)
	assert.Contains(t, r.Text, "2 of 3")
	assert.Equal(t, "pending", r.Status)
	assert.Equal(t, 2, r.VotesReceived)
	assert.Equal(t, 1, h.api.count("get"))
	require.NotNil(t, r.View)
	assert.Equal(t, 1, r.View.VotesYes)
}

func TestCheckStatusWithoutTaskID(t *testing.T) {
	h := newHarness(t, baseConfig(), nil)
	r, err := h.orch.CheckStatus(context.Background(), StatusRequest{Text: "what's the status?", RoomID: "room"}, h.cb)
	assert.ErrorIs(t, err, ErrNoTaskID)
	assert.False(t, r.Success)
	assert.Equal(t, 0, h.api.total())
	assert.Equal(t, 1, h.calls)
}

func TestCheckStatusFromMemory(t *testing.T) {
	h := newHarness(t, baseConfig(), nil)
	h.api.task = &raiinmaker.Task{Status: raiinmaker.TaskStatusCompleted, Answer: strPtr("false")}

	_, err := h.orch.Verify(context.Background(), Request{Content: "post", RoomID: "room"}, nil)
	require.NoError(t, err)

	r, err := h.orch.CheckStatus(context.Background(), StatusRequest{Text: "how did it go?", RoomID: "room"}, h.cb)
	require.NoError(t, err)
	assert.Equal(t, "task-0123456789", r.TaskID)
	assert.Equal(t, raiinmaker.AnswerRejected, r.Answer)
}

func TestCheckStatusFromText(t *testing.T) {
	h := newHarness(t, baseConfig(), nil)
	h.api.task = &raiinmaker.Task{Status: raiinmaker.TaskStatusPending}
	r, err := h.orch.CheckStatus(context.Background(), StatusRequest{Text: "status of task id: abc12345"}, h.cb)
	require.NoError(t, err)
	assert.Equal(t, "abc12345", r.TaskID)
}

func TestCheckStatusAutoApprovedIsLocal(t *testing.T) {
	cfg := baseConfig()
	cfg.PreCheckEnabled = true
	h := newHarness(t, cfg, precheck.Static{Result: precheck.Result{Passes: true}})
	approved, err := h.orch.Verify(context.Background(), Request{Content: "gm", RoomID: "room"}, nil)
	require.NoError(t, err)

	r, err := h.orch.CheckStatus(context.Background(), StatusRequest{RoomID: "room"}, h.cb)
	require.NoError(t, err)
	assert.Equal(t, approved.TaskID, r.TaskID)
	assert.Equal(t, raiinmaker.AnswerApproved, r.Answer)
	assert.Contains(t, r.Text, "approved")
	assert.Contains(t, r.Text, "Content: gm")
	assert.Equal(t, 0, h.api.total())
}

func TestCheckStatusRejectsUnmintedAutoID(t *testing.T) {
	h := newHarness(t, baseConfig(), nil)

	r, err := h.orch.CheckStatus(context.Background(), StatusRequest{TaskID: "auto-never-minted", RoomID: "room"}, h.cb)
	assert.ErrorIs(t, err, ErrNoTaskID)
	assert.False(t, r.Success)
	assert.NotEqual(t, raiinmaker.AnswerApproved, r.Answer)
	assert.Equal(t, 0, h.api.total())
	assert.Equal(t, 1, h.calls)
}

func TestCheckStatusAutoIDNeedsMatchingEntry(t *testing.T) {
	h := newHarness(t, baseConfig(), nil)
	ctx := context.Background()
	forged := AutoApprovedID("never screened")

	// Same id recorded under the wrong kind, and an auto entry whose content
	// does not hash to the id.
	require.NoError(t, h.mem.Create(ctx, memory.NewEntry("room", "agent", memory.KindContentVerification, forged, "never screened", fixedNow)))
	require.NoError(t, h.mem.Create(ctx, memory.NewEntry("room", "agent", memory.KindContentAutoApproved, forged, "something else", fixedNow)))

	_, err := h.orch.CheckStatus(ctx, StatusRequest{TaskID: forged, RoomID: "room"}, h.cb)
	assert.ErrorIs(t, err, ErrNoTaskID)

	// A real approval in another room does not count either.
	cfg := baseConfig()
	cfg.PreCheckEnabled = true
	other := newHarness(t, cfg, precheck.Static{Result: precheck.Result{Passes: true}})
	approved, err := other.orch.Verify(ctx, Request{Content: "gm", RoomID: "room-a"}, nil)
	require.NoError(t, err)
	_, err = other.orch.CheckStatus(ctx, StatusRequest{TaskID: approved.TaskID, RoomID: "room-b"}, other.cb)
	assert.ErrorIs(t, err, ErrNoTaskID)
	assert.Equal(t, 0, other.api.total())
}

func TestCheckStatusRemoteError(t *testing.T) {
	h := newHarness(t, baseConfig(), nil)
	h.api.taskErr = &raiinmaker.APIError{Status: 404, Endpoint: "getTaskById", Details: "not found"}
	r, err := h.orch.CheckStatus(context.Background(), StatusRequest{TaskID: "nope-123"}, h.cb)
	assert.True(t, raiinmaker.IsAPIError(err))
	assert.Contains(t, r.Text, "not found")
}

func TestListQuests(t *testing.T) {
	h := newHarness(t, baseConfig(), nil)
	h.api.page = &raiinmaker.TaskPage{Total: 12, Items: []raiinmaker.Task{
		{ID: "0123456789", Status: "pending", Subject: "first post"},
		{ID: "abc", Name: "Named task"},
	}}

	r, err := h.orch.ListQuests(context.Background(), QuestRequest{Text: "pending quests today"}, h.cb)
	require.NoError(t, err)
	assert.Equal(t, raiinmaker.TaskStatusPending, h.api.filter.Status)
	assert.Equal(t, "2026-10-16", h.api.filter.StartDate)
	assert.Contains(t, r.Text, "Found 12 verification tasks (showing 2):")
	assert.Contains(t, r.Text, "• 01234567... [pending] first post")
	assert.Contains(t, r.Text, "• abc... [unknown] Named task")
	assert.Len(t, r.Tasks, 2)

	h.api.page = &raiinmaker.TaskPage{}
	r, err = h.orch.ListQuests(context.Background(), QuestRequest{Filter: &raiinmaker.TaskFilter{Limit: 50}}, h.cb)
	require.NoError(t, err)
	assert.Equal(t, 50, h.api.filter.Limit)
	assert.Equal(t, "No verification tasks found.", r.Text)
}

func TestVerifyData(t *testing.T) {
	h := newHarness(t, baseConfig(), nil)
	h.api.data = &raiinmaker.DataVerification{Classification: "accurate", Message: "looks right", Date: "October 16, 2026", Time: "2:05:09 PM"}

	r, err := h.orch.VerifyData(context.Background(), DataRequest{Content: "The sky is blue", RoomID: "room"}, h.cb)
	require.NoError(t, err)
	assert.Equal(t, "Data verification: accurate\nlooks right\nChecked on October 16, 2026 at 2:05:09 PM", r.Text)
	assert.Equal(t, 1, h.mem.Count("room", memory.KindDataVerification))

	_, err = h.orch.VerifyData(context.Background(), DataRequest{}, h.cb)
	assert.ErrorIs(t, err, ErrEmptyContent)
}

func TestCampaignActions(t *testing.T) {
	h := newHarness(t, baseConfig(), nil)
	r, err := h.orch.CreateCampaign(context.Background(), raiinmaker.CampaignInput{Name: "Launch"}, h.cb)
	require.NoError(t, err)
	assert.Equal(t, "Campaign Launch (c1): active", r.Text)

	r, err = h.orch.UpdateCampaign(context.Background(), "c1", raiinmaker.CampaignInput{Name: "Renamed"}, h.cb)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", r.Campaign.Name)

	h.api.campaign = &raiinmaker.Campaign{ID: "c1", Name: "Launch"}
	r, err = h.orch.GetCampaign(context.Background(), "c1", h.cb)
	require.NoError(t, err)
	assert.Equal(t, "Campaign Launch (c1)", r.Text)
	assert.Equal(t, 1, h.api.count("getCampaign"))
}

func strPtr(s string) *string { return &s }
