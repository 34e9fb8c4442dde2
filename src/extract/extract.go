// Package extract pulls content, task ids and listing filters out of chat
// messages. The heuristics are deliberately shallow.
package extract

import (
	"html"
	"regexp"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/stake-plus/raiinmaker-verify/src/raiinmaker"
)

var (
	strict = bluemonday.StrictPolicy()

	quotedRe = regexp.MustCompile(`"([^"]+)"|“([^”]+)”|` + "`([^`]+)`")
	prefixRe = regexp.MustCompile(`(?is)^.*?\b(?:verify(?: this)?|check(?: this)?|moderate(?: this)?|review(?: this)?)\s*:\s*(.+)$`)

	taskWordRe = regexp.MustCompile(`(?i)\b(?:task|id)(?:\s+id)?\s*[:#=]?\s*((?:auto-)?[A-Za-z0-9][A-Za-z0-9_-]{5,})`)
	uuidRe     = regexp.MustCompile(`(?i)\b(?:auto-)?[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}\b`)
	objectIDRe = regexp.MustCompile(`(?i)\b[0-9a-f]{24}\b`)
)

// Sanitize strips markup and decodes entities.
func Sanitize(text string) string {
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(text)))
}

// Content returns the text to verify: quoted text when present, else the
// text after a "verify:" style prefix, else the whole message.
func Content(text string) string {
	clean := Sanitize(text)
	if m := quotedRe.FindStringSubmatch(clean); m != nil {
		for _, g := range m[1:] {
			if g = strings.TrimSpace(g); g != "" {
				return g
			}
		}
	}
	if m := prefixRe.FindStringSubmatch(clean); m != nil {
		return strings.TrimSpace(m[1])
	}
	return clean
}

// TaskID finds a task id in text. UUIDs and 24-digit hex ids are matched
// anywhere; other ids need a "task" or "id" label and at least one digit.
func TaskID(text string) (string, bool) {
	if m := uuidRe.FindString(text); m != "" {
		return m, true
	}
	if m := objectIDRe.FindString(text); m != "" {
		return m, true
	}
	for _, m := range taskWordRe.FindAllStringSubmatch(text, -1) {
		if strings.ContainsAny(m[1], "0123456789") {
			return m[1], true
		}
	}
	return "", false
}

const dateLayout = "2006-01-02"

// ParseQuestFilter maps coarse phrases to a task listing filter. Ranges
// end at the current day.
func ParseQuestFilter(text string, now time.Time) raiinmaker.TaskFilter {
	lower := strings.ToLower(text)
	var f raiinmaker.TaskFilter

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	switch {
	case containsWord(lower, "today"):
		f.StartDate = today.Format(dateLayout)
	case containsWord(lower, "week"):
		f.StartDate = today.AddDate(0, 0, -7).Format(dateLayout)
	case containsWord(lower, "month"):
		f.StartDate = today.AddDate(0, -1, 0).Format(dateLayout)
	}
	if f.StartDate != "" {
		f.EndDate = today.Format(dateLayout)
	}

	for _, s := range []raiinmaker.TaskStatus{
		raiinmaker.TaskStatusPending,
		raiinmaker.TaskStatusCompleted,
		raiinmaker.TaskStatusFailed,
		raiinmaker.TaskStatusAutomatic,
	} {
		if containsWord(lower, string(s)) {
			f.Status = s
			break
		}
	}
	for _, t := range []raiinmaker.TaskType{
		raiinmaker.TaskTypeBool,
		raiinmaker.TaskTypeScale,
		raiinmaker.TaskTypeTag,
		raiinmaker.TaskTypeCategory,
	} {
		if containsWord(lower, strings.ToLower(string(t))) {
			f.Type = t
			break
		}
	}
	return f
}

func containsWord(text, word string) bool {
	for _, field := range strings.FieldsFunc(text, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	}) {
		if field == word {
			return true
		}
	}
	return false
}
