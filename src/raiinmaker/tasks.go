package raiinmaker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

const (
	endpointCreateTask = "createVerificationTask"
	endpointGetTask    = "getTaskById"
	endpointListTasks  = "getAllTasks"
)

type createTaskRequest struct {
	Name           string   `json:"name"`
	Type           TaskType `json:"type"`
	HumanRequired  bool     `json:"humanRequired"`
	ConsensusVotes int      `json:"consensusVotes"`
	Reputation     string   `json:"reputation"`
	Question       string   `json:"question"`
	Subject        string   `json:"subject"`
	CampaignID     string   `json:"campaignId,omitempty"`
}

// CreateVerificationTask submits content as a yes/no human review task. The
// call is single-shot; callers re-invoke on transient failures.
func (c *Client) CreateVerificationTask(ctx context.Context, content string, opts TaskOptions) (*Task, error) {
	if strings.TrimSpace(content) == "" {
		return nil, &ValidationError{Field: "content", Message: "content is required"}
	}
	opts = opts.withDefaults()

	req, err := jsonRequest(http.MethodPost, "/task", createTaskRequest{
		Name:           opts.Name,
		Type:           TaskTypeBool,
		HumanRequired:  true,
		ConsensusVotes: opts.ConsensusVotes,
		Reputation:     opts.Reputation,
		Question:       opts.Question,
		Subject:        content,
		CampaignID:     strings.TrimSpace(opts.CampaignID),
	})
	if err != nil {
		return nil, &APIError{Endpoint: endpointCreateTask, Details: err}
	}

	status, body, err := c.send(ctx, endpointCreateTask, req)
	if err != nil {
		return nil, err
	}
	env, err := decodeEnvelope(endpointCreateTask, status, body)
	if err != nil {
		return nil, err
	}
	if env.Success == nil || !*env.Success {
		return nil, &APIError{Status: status, Endpoint: endpointCreateTask, Details: envelopeDetail(env, "response not successful")}
	}

	task, err := decodeTask(endpointCreateTask, status, env.Data)
	if err != nil {
		return nil, err
	}
	c.logger.Info("verification task created", zap.String("task_id", task.ID))
	return task, nil
}

// GetTaskByID fetches a task with its votes. Votes is never nil on success.
func (c *Client) GetTaskByID(ctx context.Context, taskID string) (*Task, error) {
	taskID = strings.TrimSpace(taskID)
	if taskID == "" {
		return nil, &ValidationError{Field: "taskId", Message: "task id is required"}
	}

	status, body, err := c.send(ctx, endpointGetTask, request{
		method: http.MethodGet,
		path:   "/task/" + url.PathEscape(taskID),
	})
	if err != nil {
		return nil, err
	}
	env, err := decodeEnvelope(endpointGetTask, status, body)
	if err != nil {
		return nil, err
	}
	if env.Success == nil {
		return nil, &APIError{Status: status, Endpoint: endpointGetTask, Details: "response missing success flag"}
	}
	if !*env.Success {
		return nil, &APIError{Status: status, Endpoint: endpointGetTask, Details: envelopeDetail(env, "response not successful")}
	}
	return decodeTask(endpointGetTask, status, env.Data)
}

// GetAllTasks lists tasks. Limits below the service minimum are replaced by
// the default page size.
func (c *Client) GetAllTasks(ctx context.Context, filter TaskFilter) (*TaskPage, error) {
	status, body, err := c.send(ctx, endpointListTasks, request{
		method: http.MethodGet,
		path:   "/task",
		query:  filter.query(),
	})
	if err != nil {
		return nil, err
	}
	env, err := decodeEnvelope(endpointListTasks, status, body)
	if err != nil {
		return nil, err
	}
	if env.Success == nil {
		return nil, &APIError{Status: status, Endpoint: endpointListTasks, Details: "response missing success flag"}
	}
	if !dataObject(env.Data) {
		return nil, &APIError{Status: status, Endpoint: endpointListTasks, Details: "response missing data object"}
	}

	var data struct {
		Items json.RawMessage `json:"items"`
		Total int             `json:"total"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, &APIError{Status: status, Endpoint: endpointListTasks, Details: fmt.Errorf("decode data: %w", err)}
	}
	items, err := decodeTaskList(data.Items)
	if err != nil {
		return nil, &APIError{Status: status, Endpoint: endpointListTasks, Details: err}
	}
	return &TaskPage{Items: items, Total: data.Total}, nil
}

func (f TaskFilter) query() url.Values {
	q := url.Values{}
	page := f.Page
	if page < 0 {
		page = 0
	}
	limit := f.Limit
	if limit < defaultPageLimit {
		limit = defaultPageLimit
	}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))
	if v := strings.TrimSpace(f.CampaignID); v != "" {
		q.Set("campaignId", v)
	}
	if v := strings.TrimSpace(f.StartDate); v != "" {
		q.Set("startDate", v)
	}
	if v := strings.TrimSpace(f.EndDate); v != "" {
		q.Set("endDate", v)
	}
	if f.Status != "" {
		q.Set("status", string(f.Status))
	}
	if f.Type != "" {
		q.Set("type", string(f.Type))
	}
	return q
}

func decodeTask(endpoint string, status int, raw json.RawMessage) (*Task, error) {
	if !dataObject(raw) {
		return nil, &APIError{Status: status, Endpoint: endpoint, Details: "response missing data object"}
	}
	var task Task
	if err := json.Unmarshal(raw, &task); err != nil {
		return nil, &APIError{Status: status, Endpoint: endpoint, Details: fmt.Errorf("decode task: %w", err)}
	}
	if strings.TrimSpace(task.ID) == "" {
		return nil, &APIError{Status: status, Endpoint: endpoint, Details: "response missing task id"}
	}
	if task.Votes == nil {
		task.Votes = []Vote{}
	}
	return &task, nil
}

var errItemsNotList = errors.New("response data.items is not a list")

func decodeTaskList(raw json.RawMessage) ([]Task, error) {
	trimmed := strings.TrimSpace(string(raw))
	if !strings.HasPrefix(trimmed, "[") {
		return nil, errItemsNotList
	}
	var items []Task
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode items: %w", err)
	}
	for i := range items {
		if items[i].Votes == nil {
			items[i].Votes = []Vote{}
		}
	}
	return items, nil
}

func envelopeDetail(env *envelope, fallback string) string {
	if env != nil && strings.TrimSpace(env.Message) != "" {
		return env.Message
	}
	return fallback
}
