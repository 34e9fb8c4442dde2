package discord

import "strings"

// messageLimit is Discord's per-message character cap.
const messageLimit = 2000

// SplitMessage breaks text into chunks that fit a Discord message,
// preferring line boundaries.
func SplitMessage(text string, limit int) []string {
	if limit <= 0 {
		limit = messageLimit
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var (
		out     []string
		current strings.Builder
	)
	flush := func() {
		if current.Len() > 0 {
			out = append(out, strings.TrimRight(current.String(), "\n"))
			current.Reset()
		}
	}
	for _, line := range strings.Split(text, "\n") {
		for runeLen(line) > limit {
			flush()
			r := []rune(line)
			out = append(out, string(r[:limit]))
			line = string(r[limit:])
		}
		if runeLen(current.String())+runeLen(line)+1 > limit {
			flush()
		}
		current.WriteString(line)
		current.WriteString("\n")
	}
	flush()
	return out
}

func runeLen(s string) int { return len([]rune(s)) }
