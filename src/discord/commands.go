package discord

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

const (
	CommandVerify       = "verify"
	CommandVerifyStatus = "verify-status"
	CommandQuests       = "quests"
	CommandVerifyData   = "verify-data"
)

var commandDefinitions = map[string]*discordgo.ApplicationCommand{
	CommandVerify: {
		Name:        CommandVerify,
		Description: "Submit content for verification before posting it",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "content",
				Description: "The content to verify",
				Required:    true,
			},
			{
				Type:        discordgo.ApplicationCommandOptionBoolean,
				Name:        "skip-precheck",
				Description: "Send straight to human reviewers",
			},
		},
	},
	CommandVerifyStatus: {
		Name:        CommandVerifyStatus,
		Description: "Check a verification task (defaults to the latest in this channel)",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "task",
				Description: "Task ID",
			},
		},
	},
	CommandQuests: {
		Name:        CommandQuests,
		Description: "List verification tasks, e.g. \"pending this week\"",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "filter",
				Description: "today/week/month, a status and a type",
			},
		},
	},
	CommandVerifyData: {
		Name:        CommandVerifyData,
		Description: "Check the factual accuracy of a statement",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "content",
				Description: "The statement to check",
				Required:    true,
			},
		},
	},
}

var defaultCommandOrder = []string{
	CommandVerify,
	CommandVerifyStatus,
	CommandQuests,
	CommandVerifyData,
}

// RegisterSlashCommands registers the requested slash commands for a guild.
// When no command names are provided, all known commands are registered.
func RegisterSlashCommands(s *discordgo.Session, guildID string, logger *zap.Logger, names ...string) error {
	if guildID == "" {
		return fmt.Errorf("discord: guildID is required to register slash commands")
	}
	if len(names) == 0 {
		names = defaultCommandOrder
	}

	var failures []string
	for _, name := range names {
		definition, ok := commandDefinitions[name]
		if !ok {
			logger.Warn("unknown slash command", zap.String("command", name))
			continue
		}

		_, err := s.ApplicationCommandCreate(s.State.User.ID, guildID, definition)
		if err != nil {
			if isDuplicateCommandError(err) {
				logger.Debug("slash command already registered", zap.String("command", name))
				continue
			}
			failures = append(failures, fmt.Sprintf("%s: %v", name, err))
		}
	}

	if len(failures) > 0 {
		return fmt.Errorf("discord: slash command registration errors: %s", strings.Join(failures, "; "))
	}
	return nil
}

func isDuplicateCommandError(err error) bool {
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) {
		if restErr.Message != nil {
			msg := strings.ToLower(restErr.Message.Message)
			if strings.Contains(msg, "already exists") {
				return true
			}
		}
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "50035") && strings.Contains(msg, "already exists")
}
