package verify

import (
	"github.com/stake-plus/raiinmaker-verify/src/raiinmaker"
	"github.com/stake-plus/raiinmaker-verify/src/verification"
)

// Result is what every action reports to its caller.
type Result struct {
	Text          string            `json:"text"`
	Success       bool              `json:"success"`
	Status        string            `json:"status"`
	Answer        raiinmaker.Answer `json:"answer"`
	TaskID        string            `json:"taskId,omitempty"`
	VotesRequired int               `json:"votesRequired"`
	VotesReceived int               `json:"votesReceived"`
	FailedChecks  []string          `json:"failedChecks,omitempty"`
	SuggestedFix  string            `json:"suggestedFix,omitempty"`
	Error         string            `json:"error,omitempty"`

	View     *verification.StatusResponse `json:"view,omitempty"`
	Tasks    []raiinmaker.Task            `json:"tasks,omitempty"`
	Total    int                          `json:"total,omitempty"`
	Data     *raiinmaker.DataVerification `json:"data,omitempty"`
	Campaign *raiinmaker.Campaign         `json:"campaign,omitempty"`
}

// Request asks for content to be verified.
type Request struct {
	// Content is verified as is. When empty it is extracted from Text.
	Content string
	Text    string

	RoomID  string
	AgentID string

	Checklist    []string
	SkipPreCheck bool

	Name       string
	Question   string
	CampaignID string
}

// StatusRequest asks for the state of a task. TaskID wins over Text, which
// wins over the room's recent submissions.
type StatusRequest struct {
	TaskID string
	Text   string
	RoomID string
}

// QuestRequest lists tasks. Filter wins over phrases in Text.
type QuestRequest struct {
	Text   string
	Filter *raiinmaker.TaskFilter
}

// DataRequest asks for a data-accuracy classification.
type DataRequest struct {
	Content string
	Text    string
	RoomID  string
	AgentID string
}
