package discord

import "github.com/bwmarrin/discordgo"

// memberHasRole checks the roles carried on an interaction member. Empty
// roleID always returns true.
func memberHasRole(member *discordgo.Member, roleID string) bool {
	if roleID == "" {
		return true
	}
	if member == nil {
		return false
	}
	for _, role := range member.Roles {
		if role == roleID {
			return true
		}
	}
	return false
}
