package raiinmaker

import (
	"encoding/json"
	"strings"
)

// TaskType classifies the kind of answer reviewers give.
type TaskType string

const (
	TaskTypeBool     TaskType = "BOOL"
	TaskTypeScale    TaskType = "SCALE"
	TaskTypeTag      TaskType = "TAG"
	TaskTypeCategory TaskType = "CATEGORY"
)

// IsValid reports whether t is a type the service recognises.
func (t TaskType) IsValid() bool {
	switch t {
	case TaskTypeBool, TaskTypeScale, TaskTypeTag, TaskTypeCategory:
		return true
	default:
		return false
	}
}

// TaskStatus is the lifecycle state reported by the service.
type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusCompleted TaskStatus = "completed"
	TaskStatusFailed    TaskStatus = "failed"
	TaskStatusAutomatic TaskStatus = "automatic"
)

// IsValid reports whether s is a status the service recognises.
func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskStatusPending, TaskStatusCompleted, TaskStatusFailed, TaskStatusAutomatic:
		return true
	default:
		return false
	}
}

// Task is a unit of verification work owned by the remote service.
type Task struct {
	ID             string     `json:"id"`
	Name           string     `json:"name,omitempty"`
	Type           TaskType   `json:"type,omitempty"`
	Status         TaskStatus `json:"status,omitempty"`
	Subject        string     `json:"subject,omitempty"`
	Question       string     `json:"question,omitempty"`
	ConsensusVotes int        `json:"consensusVotes,omitempty"`
	Reputation     string     `json:"reputation,omitempty"`
	HumanRequired  bool       `json:"humanRequired,omitempty"`
	CampaignID     string     `json:"campaignId,omitempty"`
	Answer         *string    `json:"answer"`
	CreatedAt      string     `json:"createdAt,omitempty"`
	UpdatedAt      string     `json:"updatedAt,omitempty"`
	Votes          []Vote     `json:"votes"`
}

// Vote is a single reviewer answer embedded in a task lookup.
type Vote struct {
	ID         string           `json:"id"`
	Answer     string           `json:"answer"`
	Reputation *VoterReputation `json:"reputation,omitempty"`
}

// VoterReputation is informational only.
type VoterReputation struct {
	Score      float64 `json:"score"`
	Rating     string  `json:"rating"`
	Percentile float64 `json:"percentile"`
}

// TaskPage is one page of a task listing.
type TaskPage struct {
	Items []Task `json:"items"`
	Total int    `json:"total"`
}

// Answer is the three-valued outcome of a verification.
type Answer int

const (
	AnswerUnresolved Answer = iota
	AnswerApproved
	AnswerRejected
)

// ParseAnswer decodes the task-level answer. Only the exact strings
// "true"/"yes" and "false"/"no" resolve; anything else stays unresolved.
func ParseAnswer(raw *string) Answer {
	if raw == nil {
		return AnswerUnresolved
	}
	switch *raw {
	case "true", "yes":
		return AnswerApproved
	case "false", "no":
		return AnswerRejected
	default:
		return AnswerUnresolved
	}
}

// ParseVoteAnswer decodes a per-vote answer, which only uses "true"/"false".
func ParseVoteAnswer(raw string) Answer {
	switch raw {
	case "true":
		return AnswerApproved
	case "false":
		return AnswerRejected
	default:
		return AnswerUnresolved
	}
}

// AnswerOf returns the answer for a boolean outcome.
func AnswerOf(approved bool) Answer {
	if approved {
		return AnswerApproved
	}
	return AnswerRejected
}

// Resolved reports whether the answer is approved or rejected.
func (a Answer) Resolved() bool { return a != AnswerUnresolved }

// Bool returns the answer as a nullable boolean.
func (a Answer) Bool() *bool {
	switch a {
	case AnswerApproved:
		v := true
		return &v
	case AnswerRejected:
		v := false
		return &v
	default:
		return nil
	}
}

func (a Answer) String() string {
	switch a {
	case AnswerApproved:
		return "approved"
	case AnswerRejected:
		return "rejected"
	default:
		return "unresolved"
	}
}

// MarshalJSON renders true, false or null.
func (a Answer) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.Bool())
}

// UnmarshalJSON accepts true, false or null.
func (a *Answer) UnmarshalJSON(b []byte) error {
	var v *bool
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch {
	case v == nil:
		*a = AnswerUnresolved
	case *v:
		*a = AnswerApproved
	default:
		*a = AnswerRejected
	}
	return nil
}

// TaskOptions tune a verification task at creation.
type TaskOptions struct {
	Name           string
	ConsensusVotes int
	Question       string
	Reputation     string
	CampaignID     string
}

const (
	DefaultTaskName       = "Content Verification Task"
	DefaultConsensusVotes = 3
	DefaultQuestion       = "Is this content appropriate for an AI agent to post?"
	DefaultReputation     = "ANY"
)

func (o TaskOptions) withDefaults() TaskOptions {
	if strings.TrimSpace(o.Name) == "" {
		o.Name = DefaultTaskName
	}
	if o.ConsensusVotes <= 0 {
		o.ConsensusVotes = DefaultConsensusVotes
	}
	if strings.TrimSpace(o.Question) == "" {
		o.Question = DefaultQuestion
	}
	if strings.TrimSpace(o.Reputation) == "" {
		o.Reputation = DefaultReputation
	}
	return o
}

// TaskFilter narrows a task listing.
type TaskFilter struct {
	Page       int
	Limit      int
	CampaignID string
	StartDate  string
	EndDate    string
	Status     TaskStatus
	Type       TaskType
}

const (
	defaultPageLimit = 10
)

// DataVerification is the result of the data-accuracy classifier.
type DataVerification struct {
	Classification string `json:"classification"`
	Message        string `json:"message"`
	Date           string `json:"date"`
	Time           string `json:"time"`
}

// Campaign groups verification tasks on the service.
type Campaign struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status,omitempty"`
	StartDate   string `json:"startDate,omitempty"`
	EndDate     string `json:"endDate,omitempty"`
	ImageURL    string `json:"imageUrl,omitempty"`
}

// CampaignInput carries the fields of a create or update call. Image is
// optional; creation substitutes a placeholder when it is empty.
type CampaignInput struct {
	Name          string
	Description   string
	Status        string
	StartDate     string
	EndDate       string
	Image         []byte
	ImageFilename string
}
