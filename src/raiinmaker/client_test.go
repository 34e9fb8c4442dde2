package raiinmaker

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	client, err := NewClient(Config{
		BaseURL:   srv.URL,
		AppID:     "app-1",
		AppSecret: "secret-1",
		Sleep:     func(context.Context, time.Duration) error { return nil },
	})
	require.NoError(t, err)
	return client, &calls
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestNewClientRequiresCredentials(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"missing app id", Config{AppSecret: "s"}},
		{"missing secret", Config{AppID: "a"}},
		{"blank values", Config{AppID: "  ", AppSecret: " "}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(tt.cfg)
			assert.Nil(t, client)
			assert.True(t, IsValidationError(err))
			assert.False(t, IsAPIError(err))
		})
	}
}

func TestNewClientDefaultsBaseURL(t *testing.T) {
	client, err := NewClient(Config{AppID: "a", AppSecret: "s"})
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseURL, client.BaseURL())
}

func TestCreateVerificationTask(t *testing.T) {
	var got createTaskRequest
	client, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/task", r.URL.Path)
		assert.Equal(t, "app-1", r.Header.Get("appId"))
		assert.Equal(t, "secret-1", r.Header.Get("appSecret"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"data":    map[string]any{"id": "task-123", "status": "pending", "consensusVotes": 3},
		})
	})

	task, err := client.CreateVerificationTask(context.Background(), "Hello world", TaskOptions{CampaignID: "camp-9"})
	require.NoError(t, err)
	assert.Equal(t, "task-123", task.ID)
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))

	assert.Equal(t, DefaultTaskName, got.Name)
	assert.Equal(t, TaskTypeBool, got.Type)
	assert.True(t, got.HumanRequired)
	assert.Equal(t, 3, got.ConsensusVotes)
	assert.Equal(t, DefaultQuestion, got.Question)
	assert.Equal(t, DefaultReputation, got.Reputation)
	assert.Equal(t, "Hello world", got.Subject)
	assert.Equal(t, "camp-9", got.CampaignID)
}

func TestCreateVerificationTaskEmptyContentMakesNoCall(t *testing.T) {
	client, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": map[string]any{"id": "x"}})
	})

	_, err := client.CreateVerificationTask(context.Background(), "   ", TaskOptions{})
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
	assert.Equal(t, int32(0), atomic.LoadInt32(calls))
}

func TestCreateVerificationTaskFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   int
	}{
		{"server error", http.StatusInternalServerError, `{"message":"boom"}`, http.StatusInternalServerError},
		{"success false", http.StatusOK, `{"success":false,"message":"quota"}`, http.StatusOK},
		{"missing id", http.StatusOK, `{"success":true,"data":{}}`, http.StatusOK},
		{"undecodable", http.StatusOK, `not json`, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})
			_, err := client.CreateVerificationTask(context.Background(), "content", TaskOptions{})
			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.want, apiErr.Status)
			assert.Equal(t, endpointCreateTask, apiErr.Endpoint)
			assert.Equal(t, int32(1), atomic.LoadInt32(calls), "creation must not retry")
		})
	}
}

func TestAPIErrorKeepsParsedDetails(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]any{"message": "bad subject"})
	})
	_, err := client.CreateVerificationTask(context.Background(), "content", TaskOptions{})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	details, ok := apiErr.Details.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "bad subject", details["message"])
	assert.Contains(t, apiErr.Error(), "bad subject")
	assert.Contains(t, apiErr.Error(), "HTTP 400")
}

func TestGetTaskByIDNormalizesVotes(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/task/abc-1", r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"data":    map[string]any{"id": "abc-1", "status": "pending", "consensusVotes": 3},
		})
	})

	task, err := client.GetTaskByID(context.Background(), "abc-1")
	require.NoError(t, err)
	require.NotNil(t, task.Votes)
	assert.Empty(t, task.Votes)
	assert.Nil(t, task.Answer)
}

func TestGetTaskByIDDecodesVotes(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"data": map[string]any{
				"id":     "abc-2",
				"status": "completed",
				"answer": "yes",
				"votes": []map[string]any{
					{"id": "v1", "answer": "true", "reputation": map[string]any{"score": 0.9, "rating": "A", "percentile": 97}},
					{"id": "v2", "answer": "false"},
				},
			},
		})
	})

	task, err := client.GetTaskByID(context.Background(), "abc-2")
	require.NoError(t, err)
	require.Len(t, task.Votes, 2)
	assert.Equal(t, "A", task.Votes[0].Reputation.Rating)
	assert.Equal(t, AnswerApproved, ParseAnswer(task.Answer))
}

func TestGetTaskByIDValidation(t *testing.T) {
	client, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
	_, err := client.GetTaskByID(context.Background(), "")
	assert.True(t, IsValidationError(err))
	assert.Equal(t, int32(0), atomic.LoadInt32(calls))
}

func TestGetTaskByIDEnvelopeErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing success", `{"data":{"id":"x"}}`},
		{"success not boolean", `{"success":"yes","data":{"id":"x"}}`},
		{"missing data", `{"success":true}`},
		{"data not object", `{"success":true,"data":[1]}`},
		{"missing id", `{"success":true,"data":{"status":"pending"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, tt.body)
			})
			_, err := client.GetTaskByID(context.Background(), "x")
			assert.True(t, IsAPIError(err), "got %v", err)
		})
	}
}

func TestGetAllTasksClampsLimit(t *testing.T) {
	tests := []struct {
		limit int
		want  string
	}{
		{3, "10"},
		{0, "10"},
		{10, "10"},
		{25, "25"},
	}
	for _, tt := range tests {
		var gotLimit, gotPage string
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			gotLimit = r.URL.Query().Get("limit")
			gotPage = r.URL.Query().Get("page")
			writeJSON(w, http.StatusOK, map[string]any{
				"success": true,
				"data":    map[string]any{"items": []any{}, "total": 0},
			})
		})
		_, err := client.GetAllTasks(context.Background(), TaskFilter{Limit: tt.limit})
		require.NoError(t, err)
		assert.Equal(t, tt.want, gotLimit, "limit %d", tt.limit)
		assert.Equal(t, "0", gotPage)
	}
}

func TestGetAllTasksFilters(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "camp", q.Get("campaignId"))
		assert.Equal(t, "2026-10-01", q.Get("startDate"))
		assert.Equal(t, "2026-10-16", q.Get("endDate"))
		assert.Equal(t, "completed", q.Get("status"))
		assert.Equal(t, "BOOL", q.Get("type"))
		assert.Equal(t, "2", q.Get("page"))
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"data": map[string]any{
				"items": []map[string]any{{"id": "t1", "status": "completed"}, {"id": "t2", "status": "pending"}},
				"total": 12,
			},
		})
	})

	page, err := client.GetAllTasks(context.Background(), TaskFilter{
		Page:       2,
		CampaignID: "camp",
		StartDate:  "2026-10-01",
		EndDate:    "2026-10-16",
		Status:     TaskStatusCompleted,
		Type:       TaskTypeBool,
	})
	require.NoError(t, err)
	assert.Equal(t, 12, page.Total)
	require.Len(t, page.Items, 2)
	assert.NotNil(t, page.Items[1].Votes)
}

func TestGetAllTasksRejectsMalformedPayload(t *testing.T) {
	tests := []string{
		`{"success":"true","data":{"items":[]}}`,
		`{"data":{"items":[]}}`,
		`{"success":true,"data":{"items":{}}}`,
		`{"success":true,"data":{}}`,
	}
	for _, body := range tests {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, body)
		})
		_, err := client.GetAllTasks(context.Background(), TaskFilter{})
		assert.True(t, IsAPIError(err), "body %s", body)
	}
}

func TestGetDataVerificationRetries(t *testing.T) {
	var attempts int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&attempts, 1)
		if n <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		var body validateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "text", body.Type)
		assert.Equal(t, "the sky is blue", body.Content)
		writeJSON(w, http.StatusOK, map[string]any{"classification": "accurate", "message": "looks right"})
	}))
	defer srv.Close()

	var delays []time.Duration
	fixed := time.Date(2026, time.October, 16, 14, 5, 9, 0, time.UTC)
	client, err := NewClient(Config{
		BaseURL:   srv.URL,
		AppID:     "a",
		AppSecret: "s",
		Sleep: func(_ context.Context, d time.Duration) error {
			delays = append(delays, d)
			return nil
		},
		Now: func() time.Time { return fixed },
	})
	require.NoError(t, err)

	result, err := client.GetDataVerification(context.Background(), "the sky is blue")
	require.NoError(t, err)
	assert.Equal(t, "accurate", result.Classification)
	assert.Equal(t, "looks right", result.Message)
	assert.Equal(t, "October 16, 2026", result.Date)
	assert.Equal(t, "2:05:09 PM", result.Time)

	require.Len(t, delays, 2)
	var total time.Duration
	for _, d := range delays {
		total += d
	}
	assert.GreaterOrEqual(t, total, 3*time.Second)
	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
}

func TestGetDataVerificationGivesUpAfterFiveAttempts(t *testing.T) {
	client, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadGateway, map[string]any{"message": "upstream"})
	})
	_, err := client.GetDataVerification(context.Background(), "content")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Equal(t, int32(5), atomic.LoadInt32(calls))
}

func TestCreateCampaignAttachesPlaceholder(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/campaigns", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "Launch", r.FormValue("name"))
		file, header, err := r.FormFile("image")
		require.NoError(t, err)
		defer file.Close()
		data, _ := io.ReadAll(file)
		assert.Equal(t, PlaceholderImage(), data)
		assert.Equal(t, placeholderFilename, header.Filename)
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": map[string]any{"id": "c1", "name": "Launch"}})
	})

	campaign, err := client.CreateCampaign(context.Background(), CampaignInput{Name: "Launch"})
	require.NoError(t, err)
	assert.Equal(t, "c1", campaign.ID)
}

func TestUpdateCampaignWithoutImage(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/campaigns/c1", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		_, _, err := r.FormFile("image")
		assert.ErrorIs(t, err, http.ErrMissingFile)
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": map[string]any{"id": "c1", "description": "new"}})
	})

	campaign, err := client.UpdateCampaign(context.Background(), "c1", CampaignInput{Description: "new"})
	require.NoError(t, err)
	assert.Equal(t, "new", campaign.Description)
}

func TestGetCampaignValidation(t *testing.T) {
	client, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
	_, err := client.GetCampaign(context.Background(), " ")
	assert.True(t, IsValidationError(err))
	assert.Equal(t, int32(0), atomic.LoadInt32(calls))
}
