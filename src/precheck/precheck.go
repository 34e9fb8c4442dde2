// Package precheck screens content against a policy checklist before it is
// sent for human verification.
package precheck

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNotConfigured is returned when the checker has no usable backend.
var ErrNotConfigured = errors.New("precheck: not configured")

// DefaultChecklist is used when the caller supplies none.
var DefaultChecklist = []string{
	"The content does not contain hate speech, harassment, or discriminatory language.",
	"The content does not contain sexually explicit or graphically violent material.",
	"The content does not promote or give instructions for illegal activities.",
	"The content does not disclose personal or sensitive information about private individuals.",
	"The content does not present false or misleading claims as fact.",
	"The content does not contain spam, scams, or malicious links.",
}

// Result is the outcome of a checklist evaluation.
type Result struct {
	Passes       bool     `json:"passes"`
	FailedChecks []string `json:"failedChecks"`
	SuggestedFix string   `json:"suggestedFix,omitempty"`
}

// Checker evaluates content against a checklist.
type Checker interface {
	Check(ctx context.Context, content string, checklist []string) (Result, error)
}

// Policy decides what a checker fault means.
type Policy string

const (
	// FailOpen treats a faulted check as passing.
	FailOpen Policy = "fail-open"
	// FailClosed treats a faulted check as failing, which routes content to
	// human verification.
	FailClosed Policy = "fail-closed"
)

// ParsePolicy maps a setting value to a Policy, defaulting to FailOpen.
func ParsePolicy(v string) Policy {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "fail-closed", "closed", "failclosed":
		return FailClosed
	default:
		return FailOpen
	}
}

// Outcome is a Result after the fault policy was applied.
type Outcome struct {
	Result
	// Err holds the swallowed checker fault, if any.
	Err error
}

// Faulted reports whether the checker failed and the policy decided.
func (o Outcome) Faulted() bool { return o.Err != nil }

// Run invokes c and applies p to any fault. It never returns an error.
func Run(ctx context.Context, c Checker, p Policy, content string, checklist []string) Outcome {
	if len(checklist) == 0 {
		checklist = DefaultChecklist
	}
	if c == nil {
		return faulted(p, ErrNotConfigured)
	}
	res, err := c.Check(ctx, content, checklist)
	if err != nil {
		return faulted(p, err)
	}
	return Outcome{Result: res}
}

func faulted(p Policy, err error) Outcome {
	return Outcome{Result: Result{Passes: p != FailClosed}, Err: err}
}

// Static always returns the same result.
type Static struct {
	Result Result
	Err    error
}

func (s Static) Check(context.Context, string, []string) (Result, error) {
	return s.Result, s.Err
}

// FormatFailures renders failed checks as a bullet list.
func FormatFailures(r Result) string {
	if len(r.FailedChecks) == 0 {
		return ""
	}
	var b strings.Builder
	for _, check := range r.FailedChecks {
		fmt.Fprintf(&b, "• %s\n", check)
	}
	if r.SuggestedFix != "" {
		fmt.Fprintf(&b, "Suggested fix: %s\n", r.SuggestedFix)
	}
	return strings.TrimRight(b.String(), "\n")
}
