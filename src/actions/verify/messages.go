package verify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/stake-plus/raiinmaker-verify/src/precheck"
	"github.com/stake-plus/raiinmaker-verify/src/raiinmaker"
	"github.com/stake-plus/raiinmaker-verify/src/verification"
)

const statusApproved = "approved"

func autoApprovedText(id string) string {
	return fmt.Sprintf("✅ Content passed the automated checks and was approved. Reference: %s", id)
}

func submittedText(taskID string, votes int, checks precheck.Outcome) string {
	var b strings.Builder
	fmt.Fprintf(&b, "⏳ Content submitted for human verification. Task ID: %s (%d votes required).", taskID, votes)
	if failures := precheck.FormatFailures(checks.Result); failures != "" {
		b.WriteString("\nAutomated checks flagged:\n")
		b.WriteString(failures)
	}
	return b.String()
}

func questLine(t raiinmaker.Task) string {
	label := t.Subject
	if label == "" {
		label = t.Name
	}
	status := string(t.Status)
	if status == "" {
		status = "unknown"
	}
	return fmt.Sprintf("• %s [%s] %s", verification.ShortID(t.ID), status, verification.Excerpt(label, 60))
}

func failureText(action string, err error) string {
	var validation *raiinmaker.ValidationError
	var api *raiinmaker.APIError
	switch {
	case errors.Is(err, ErrEmptyContent):
		return "I couldn't find any content to verify."
	case errors.Is(err, ErrNoTaskID):
		return "I couldn't find a task ID. Include one or submit content for verification first."
	case errors.Is(err, ErrDuplicateInFlight):
		return "This content is already being verified. Check its status instead of submitting it again."
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return fmt.Sprintf("The %s request was cancelled before it finished.", action)
	case errors.As(err, &validation):
		return fmt.Sprintf("Cannot %s: %s.", action, validation.Message)
	case errors.As(err, &api):
		return fmt.Sprintf("The verification service rejected the %s request: %s", action, api.Error())
	default:
		return fmt.Sprintf("The %s request failed: %v", action, err)
	}
}
