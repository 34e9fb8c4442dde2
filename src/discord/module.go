// Package discord exposes the verification actions as slash commands. The
// channel an interaction comes from is the room its submissions are
// remembered under.
package discord

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stake-plus/raiinmaker-verify/src/actions/core"
	"github.com/stake-plus/raiinmaker-verify/src/actions/verify"
	"github.com/stake-plus/raiinmaker-verify/src/verification"
	"go.uber.org/zap"
)

const actionTimeout = 90 * time.Second

// Actions is the subset of the orchestrator used by the bot.
type Actions interface {
	Verify(ctx context.Context, req verify.Request, cb verify.Callback) (*verify.Result, error)
	CheckStatus(ctx context.Context, req verify.StatusRequest, cb verify.Callback) (*verify.Result, error)
	ListQuests(ctx context.Context, req verify.QuestRequest, cb verify.Callback) (*verify.Result, error)
	VerifyData(ctx context.Context, req verify.DataRequest, cb verify.Callback) (*verify.Result, error)
}

// Config holds the bot credentials.
type Config struct {
	Token   string
	GuildID string
	// RoleID restricts the commands to members holding it.
	RoleID string
}

var _ core.Module = (*Module)(nil)

// Module owns the Discord session.
type Module struct {
	cfg     Config
	session *discordgo.Session
	actions Actions
	logger  *zap.Logger
	cancel  context.CancelFunc
}

// NewModule prepares a session; nothing connects until Start.
func NewModule(cfg Config, actions Actions, logger *zap.Logger) (*Module, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("discord: token is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("discord: session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds
	return &Module{cfg: cfg, session: session, actions: actions, logger: logger.Named("discord")}, nil
}

func (m *Module) Name() string { return "discord" }

// Start connects the session. Interactions run under a context derived from
// ctx, so they end when either ctx is cancelled or Stop is called.
func (m *Module) Start(ctx context.Context) error {
	runCtx := m.runContext(ctx)

	m.session.AddHandler(func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		m.handleInteraction(runCtx, s, i)
	})
	if err := m.session.Open(); err != nil {
		m.cancel()
		return fmt.Errorf("discord: open: %w", err)
	}
	if err := RegisterSlashCommands(m.session, m.cfg.GuildID, m.logger); err != nil {
		m.logger.Warn("slash command registration incomplete", zap.Error(err))
	}
	m.logger.Info("connected", zap.String("guild_id", m.cfg.GuildID))
	return nil
}

func (m *Module) runContext(parent context.Context) context.Context {
	runCtx, cancel := context.WithCancel(parent)
	m.cancel = cancel
	return runCtx
}

func (m *Module) Stop(ctx context.Context) {
	if m.cancel != nil {
		m.cancel()
	}
	if err := m.session.Close(); err != nil {
		m.logger.Warn("close", zap.Error(err))
	}
}

func (m *Module) handleInteraction(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	data := i.ApplicationCommandData()
	if _, known := commandDefinitions[data.Name]; !known {
		return
	}
	if !memberHasRole(i.Member, m.cfg.RoleID) {
		m.respondNow(s, i, "You don't have permission to use this command.")
		return
	}

	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	}); err != nil {
		m.logger.Warn("defer failed", zap.String("command", data.Name), zap.Error(err))
		return
	}

	go func() {
		actionCtx, cancel := context.WithTimeout(ctx, actionTimeout)
		defer cancel()
		text := m.dispatch(actionCtx, command{
			name:    data.Name,
			options: optionMap(data.Options),
			room:    i.ChannelID,
			user:    interactionUser(i),
		})
		m.reply(s, i.Interaction, text)
	}()
}

type command struct {
	name    string
	options map[string]*discordgo.ApplicationCommandInteractionDataOption
	room    string
	user    string
}

func (c command) str(name string) string {
	if opt, ok := c.options[name]; ok {
		return opt.StringValue()
	}
	return ""
}

func (c command) flag(name string) bool {
	if opt, ok := c.options[name]; ok {
		return opt.BoolValue()
	}
	return false
}

// dispatch runs the action behind a command and returns the reply text.
func (m *Module) dispatch(ctx context.Context, c command) string {
	var (
		res *verify.Result
		err error
	)
	switch c.name {
	case CommandVerify:
		res, err = m.actions.Verify(ctx, verify.Request{
			Content:      c.str("content"),
			RoomID:       c.room,
			AgentID:      c.user,
			SkipPreCheck: c.flag("skip-precheck"),
		}, nil)
	case CommandVerifyStatus:
		res, err = m.actions.CheckStatus(ctx, verify.StatusRequest{TaskID: c.str("task"), RoomID: c.room}, nil)
	case CommandQuests:
		res, err = m.actions.ListQuests(ctx, verify.QuestRequest{Text: c.str("filter")}, nil)
	case CommandVerifyData:
		res, err = m.actions.VerifyData(ctx, verify.DataRequest{Content: c.str("content"), RoomID: c.room, AgentID: c.user}, nil)
	default:
		return "Unknown command."
	}
	if err != nil {
		m.logger.Info("command failed", zap.String("command", c.name), zap.Error(err))
	}
	if res == nil {
		return "Something went wrong."
	}
	if res.View != nil && res.Success {
		return verification.Details(*res.View)
	}
	return res.Text
}

func (m *Module) reply(s *discordgo.Session, interaction *discordgo.Interaction, text string) {
	chunks := SplitMessage(text, messageLimit)
	if len(chunks) == 0 {
		chunks = []string{"Done."}
	}
	if _, err := s.InteractionResponseEdit(interaction, &discordgo.WebhookEdit{Content: &chunks[0]}); err != nil {
		m.logger.Warn("reply failed", zap.Error(err))
		return
	}
	for _, chunk := range chunks[1:] {
		if _, err := s.FollowupMessageCreate(interaction, true, &discordgo.WebhookParams{Content: chunk}); err != nil {
			m.logger.Warn("followup failed", zap.Error(err))
			return
		}
	}
}

func (m *Module) respondNow(s *discordgo.Session, i *discordgo.InteractionCreate, text string) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Content: text, Flags: discordgo.MessageFlagsEphemeral},
	})
	if err != nil {
		m.logger.Warn("respond failed", zap.Error(err))
	}
}

func optionMap(opts []*discordgo.ApplicationCommandInteractionDataOption) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	out := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(opts))
	for _, opt := range opts {
		out[opt.Name] = opt
	}
	return out
}

func interactionUser(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}
