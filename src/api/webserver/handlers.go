package webserver

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/stake-plus/raiinmaker-verify/src/actions/verify"
	"github.com/stake-plus/raiinmaker-verify/src/raiinmaker"
)

const maxImageBytes = 5 << 20

// Actions is the subset of the orchestrator served over HTTP.
type Actions interface {
	Verify(ctx context.Context, req verify.Request, cb verify.Callback) (*verify.Result, error)
	CheckStatus(ctx context.Context, req verify.StatusRequest, cb verify.Callback) (*verify.Result, error)
	ListQuests(ctx context.Context, req verify.QuestRequest, cb verify.Callback) (*verify.Result, error)
	VerifyData(ctx context.Context, req verify.DataRequest, cb verify.Callback) (*verify.Result, error)
	CreateCampaign(ctx context.Context, in raiinmaker.CampaignInput, cb verify.Callback) (*verify.Result, error)
	UpdateCampaign(ctx context.Context, id string, in raiinmaker.CampaignInput, cb verify.Callback) (*verify.Result, error)
	GetCampaign(ctx context.Context, id string, cb verify.Callback) (*verify.Result, error)
}

type handlers struct {
	actions Actions
}

func (h handlers) Verify(c *gin.Context) {
	var req struct {
		Content      string   `json:"content"`
		Text         string   `json:"text"`
		AgentID      string   `json:"agentId"`
		Checklist    []string `json:"checklist"`
		SkipPreCheck bool     `json:"skipPreCheck"`
		Name         string   `json:"name"`
		Question     string   `json:"question"`
		CampaignID   string   `json:"campaignId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}
	res, err := h.actions.Verify(c.Request.Context(), verify.Request{
		Content:      req.Content,
		Text:         req.Text,
		RoomID:       c.GetString(roomKey),
		AgentID:      req.AgentID,
		Checklist:    req.Checklist,
		SkipPreCheck: req.SkipPreCheck,
		Name:         req.Name,
		Question:     req.Question,
		CampaignID:   req.CampaignID,
	}, nil)
	respond(c, res, err)
}

func (h handlers) Status(c *gin.Context) {
	taskID := c.Param("taskId")
	if taskID == "" {
		taskID = c.Query("taskId")
	}
	res, err := h.actions.CheckStatus(c.Request.Context(), verify.StatusRequest{
		TaskID: taskID,
		Text:   c.Query("text"),
		RoomID: c.GetString(roomKey),
	}, nil)
	respond(c, res, err)
}

func (h handlers) Tasks(c *gin.Context) {
	req := verify.QuestRequest{Text: c.Query("text")}
	if filter, ok, err := filterFromQuery(c); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	} else if ok {
		req.Filter = &filter
	}
	res, err := h.actions.ListQuests(c.Request.Context(), req, nil)
	respond(c, res, err)
}

func filterFromQuery(c *gin.Context) (raiinmaker.TaskFilter, bool, error) {
	var f raiinmaker.TaskFilter
	set := false
	for _, kv := range []struct {
		key string
		dst *int
	}{{"page", &f.Page}, {"limit", &f.Limit}} {
		if v := c.Query(kv.key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return f, false, errors.New(kv.key + " must be an integer")
			}
			*kv.dst = n
			set = true
		}
	}
	for _, kv := range []struct {
		key string
		dst *string
	}{{"campaignId", &f.CampaignID}, {"startDate", &f.StartDate}, {"endDate", &f.EndDate}} {
		if v := c.Query(kv.key); v != "" {
			*kv.dst = v
			set = true
		}
	}
	if v := c.Query("status"); v != "" {
		f.Status = raiinmaker.TaskStatus(v)
		if !f.Status.IsValid() {
			return f, false, errors.New("unknown status " + v)
		}
		set = true
	}
	if v := c.Query("type"); v != "" {
		f.Type = raiinmaker.TaskType(v)
		if !f.Type.IsValid() {
			return f, false, errors.New("unknown type " + v)
		}
		set = true
	}
	return f, set, nil
}

func (h handlers) Validate(c *gin.Context) {
	var req struct {
		Content string `json:"content"`
		Text    string `json:"text"`
		AgentID string `json:"agentId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}
	res, err := h.actions.VerifyData(c.Request.Context(), verify.DataRequest{
		Content: req.Content,
		Text:    req.Text,
		RoomID:  c.GetString(roomKey),
		AgentID: req.AgentID,
	}, nil)
	respond(c, res, err)
}

func (h handlers) CreateCampaign(c *gin.Context) {
	in, err := campaignInput(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}
	res, err := h.actions.CreateCampaign(c.Request.Context(), in, nil)
	respond(c, res, err)
}

func (h handlers) UpdateCampaign(c *gin.Context) {
	in, err := campaignInput(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}
	res, err := h.actions.UpdateCampaign(c.Request.Context(), c.Param("id"), in, nil)
	respond(c, res, err)
}

func (h handlers) GetCampaign(c *gin.Context) {
	res, err := h.actions.GetCampaign(c.Request.Context(), c.Param("id"), nil)
	respond(c, res, err)
}

// campaignInput reads form fields and an optional "image" file.
func campaignInput(c *gin.Context) (raiinmaker.CampaignInput, error) {
	in := raiinmaker.CampaignInput{
		Name:        c.PostForm("name"),
		Description: c.PostForm("description"),
		Status:      c.PostForm("status"),
		StartDate:   c.PostForm("startDate"),
		EndDate:     c.PostForm("endDate"),
	}
	fh, err := c.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return in, nil
	}
	if err != nil {
		return in, err
	}
	if fh.Size > maxImageBytes {
		return in, errors.New("image is too large")
	}
	img, err := readFile(fh)
	if err != nil {
		return in, err
	}
	in.Image = img
	in.ImageFilename = fh.Filename
	return in, nil
}

func readFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(io.LimitReader(f, maxImageBytes))
}

func respond(c *gin.Context, res *verify.Result, err error) {
	if err == nil {
		c.JSON(http.StatusOK, res)
		return
	}
	c.JSON(statusFor(err), res)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, verify.ErrNoTaskID):
		return http.StatusNotFound
	case errors.Is(err, verify.ErrDuplicateInFlight):
		return http.StatusConflict
	case errors.Is(err, verify.ErrEmptyContent), raiinmaker.IsValidationError(err):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case raiinmaker.IsAPIError(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
