// Package verification reduces remote task snapshots into stable status views.
package verification

import (
	"fmt"
	"strings"

	"github.com/stake-plus/raiinmaker-verify/src/raiinmaker"
)

// StatusError is reported when a task could not be reduced.
const StatusError = "error"

const (
	glyphPending  = "⏳"
	glyphApproved = "✅"
	glyphRejected = "❌"
	glyphUnknown  = "❓"

	shortIDLength = 8
)

// StatusResponse is the reduced view of a task. It is recomputed on every
// query and has no lifecycle of its own.
type StatusResponse struct {
	TaskID        string            `json:"taskId"`
	Status        string            `json:"status"`
	Answer        raiinmaker.Answer `json:"answer"`
	Question      string            `json:"question"`
	Subject       string            `json:"subject"`
	VotesReceived int               `json:"votesReceived"`
	VotesRequired int               `json:"votesRequired"`
	VotesYes      int               `json:"votesYes"`
	VotesNo       int               `json:"votesNo"`
	FormattedText string            `json:"formattedText"`
}

// Reduce turns a task snapshot into a StatusResponse. It never panics; a nil
// task or any fault while reducing yields a degraded response with status
// "error".
func Reduce(task *raiinmaker.Task) (resp StatusResponse) {
	defer func() {
		if r := recover(); r != nil {
			resp = degraded()
		}
	}()
	if task == nil {
		return degraded()
	}

	status := strings.TrimSpace(string(task.Status))
	resp = StatusResponse{
		TaskID:        task.ID,
		Status:        status,
		Question:      task.Question,
		Subject:       task.Subject,
		VotesReceived: len(task.Votes),
		VotesRequired: task.ConsensusVotes,
	}
	if raiinmaker.TaskStatus(status) == raiinmaker.TaskStatusCompleted {
		resp.Answer = raiinmaker.ParseAnswer(task.Answer)
	}
	for _, vote := range task.Votes {
		switch raiinmaker.ParseVoteAnswer(vote.Answer) {
		case raiinmaker.AnswerApproved:
			resp.VotesYes++
		case raiinmaker.AnswerRejected:
			resp.VotesNo++
		}
	}
	resp.FormattedText = formatSummary(resp)
	return resp
}

func degraded() StatusResponse {
	return StatusResponse{Status: StatusError, Answer: raiinmaker.AnswerUnresolved}
}

func formatSummary(r StatusResponse) string {
	return fmt.Sprintf("%s Task %s: %s", glyph(r), ShortID(r.TaskID), sentence(r))
}

func glyph(r StatusResponse) string {
	switch raiinmaker.TaskStatus(r.Status) {
	case raiinmaker.TaskStatusPending:
		return glyphPending
	case raiinmaker.TaskStatusCompleted:
		switch r.Answer {
		case raiinmaker.AnswerApproved:
			return glyphApproved
		case raiinmaker.AnswerRejected:
			return glyphRejected
		}
	}
	return glyphUnknown
}

func sentence(r StatusResponse) string {
	switch raiinmaker.TaskStatus(r.Status) {
	case raiinmaker.TaskStatusCompleted:
		if r.Answer.Resolved() {
			return r.Answer.String()
		}
		return "completed, answer unresolved"
	case raiinmaker.TaskStatusPending:
		return fmt.Sprintf("%d of %d required votes collected", r.VotesReceived, r.VotesRequired)
	default:
		if r.Status == "" {
			return "unknown"
		}
		return r.Status
	}
}

// ShortID keeps the first eight characters of an id followed by an ellipsis.
// Shorter ids are kept whole, still followed by the ellipsis.
func ShortID(id string) string {
	runes := []rune(id)
	if len(runes) > shortIDLength {
		runes = runes[:shortIDLength]
	}
	return string(runes) + "..."
}

// Details renders a multi-line block for chat surfaces.
func Details(r StatusResponse) string {
	var b strings.Builder
	b.WriteString(r.FormattedText)
	if r.Question != "" {
		fmt.Fprintf(&b, "\nQuestion: %s", r.Question)
	}
	if r.Subject != "" {
		fmt.Fprintf(&b, "\nContent: %s", Excerpt(r.Subject, 100))
	}
	if r.Status != StatusError {
		fmt.Fprintf(&b, "\nVotes: %d yes / %d no (%d of %d received)", r.VotesYes, r.VotesNo, r.VotesReceived, r.VotesRequired)
	}
	return b.String()
}

// Excerpt truncates s to n runes, appending an ellipsis when cut.
func Excerpt(s string, n int) string {
	runes := []rune(s)
	if n <= 0 || len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
