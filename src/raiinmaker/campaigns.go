package raiinmaker

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
)

const (
	endpointCreateCampaign = "createCampaign"
	endpointUpdateCampaign = "updateCampaign"
	endpointGetCampaign    = "getCampaign"

	placeholderFilename = "placeholder.png"
)

// placeholderImage is a 1x1 transparent PNG. The service rejects campaigns
// created without an image.
var placeholderImage, _ = base64.StdEncoding.DecodeString(
	"iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAQAAAC1HAwCAAAAC0lEQVR42mNkYAAAAAYAAjCB0C8AAAAASUVORK5CYII=")

// PlaceholderImage returns a copy of the image attached when a campaign is
// created without one.
func PlaceholderImage() []byte {
	out := make([]byte, len(placeholderImage))
	copy(out, placeholderImage)
	return out
}

// CreateCampaign creates a campaign. An image is always attached.
func (c *Client) CreateCampaign(ctx context.Context, in CampaignInput) (*Campaign, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, &ValidationError{Field: "name", Message: "campaign name is required"}
	}
	if len(in.Image) == 0 {
		in.Image = PlaceholderImage()
		in.ImageFilename = placeholderFilename
	}
	req, err := campaignRequest(http.MethodPost, "/campaigns", in)
	if err != nil {
		return nil, &APIError{Endpoint: endpointCreateCampaign, Details: err}
	}
	return c.campaignCall(ctx, endpointCreateCampaign, req)
}

// UpdateCampaign replaces the supplied fields of a campaign. The image is
// only sent when one is given.
func (c *Client) UpdateCampaign(ctx context.Context, id string, in CampaignInput) (*Campaign, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, &ValidationError{Field: "campaignId", Message: "campaign id is required"}
	}
	req, err := campaignRequest(http.MethodPut, "/campaigns/"+url.PathEscape(id), in)
	if err != nil {
		return nil, &APIError{Endpoint: endpointUpdateCampaign, Details: err}
	}
	return c.campaignCall(ctx, endpointUpdateCampaign, req)
}

// GetCampaign fetches campaign metadata.
func (c *Client) GetCampaign(ctx context.Context, id string) (*Campaign, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, &ValidationError{Field: "campaignId", Message: "campaign id is required"}
	}
	return c.campaignCall(ctx, endpointGetCampaign, request{
		method: http.MethodGet,
		path:   "/campaigns/" + url.PathEscape(id),
	})
}

func (c *Client) campaignCall(ctx context.Context, endpoint string, req request) (*Campaign, error) {
	status, body, err := c.send(ctx, endpoint, req)
	if err != nil {
		return nil, err
	}
	env, err := decodeEnvelope(endpoint, status, body)
	if err != nil {
		return nil, err
	}
	if env.Success == nil || !*env.Success {
		return nil, &APIError{Status: status, Endpoint: endpoint, Details: envelopeDetail(env, "response not successful")}
	}
	if !dataObject(env.Data) {
		return nil, &APIError{Status: status, Endpoint: endpoint, Details: "response missing data object"}
	}
	var campaign Campaign
	if err := json.Unmarshal(env.Data, &campaign); err != nil {
		return nil, &APIError{Status: status, Endpoint: endpoint, Details: fmt.Errorf("decode campaign: %w", err)}
	}
	return &campaign, nil
}

func campaignRequest(method, path string, in CampaignInput) (request, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := []struct{ key, value string }{
		{"name", in.Name},
		{"description", in.Description},
		{"status", in.Status},
		{"startDate", in.StartDate},
		{"endDate", in.EndDate},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			continue
		}
		if err := w.WriteField(f.key, f.value); err != nil {
			return request{}, fmt.Errorf("write field %s: %w", f.key, err)
		}
	}

	if len(in.Image) > 0 {
		name := in.ImageFilename
		if strings.TrimSpace(name) == "" {
			name = "image.png"
		}
		part, err := w.CreateFormFile("image", name)
		if err != nil {
			return request{}, fmt.Errorf("create image part: %w", err)
		}
		if _, err := part.Write(in.Image); err != nil {
			return request{}, fmt.Errorf("write image: %w", err)
		}
	}

	if err := w.Close(); err != nil {
		return request{}, fmt.Errorf("close multipart: %w", err)
	}
	return request{method: method, path: path, body: &buf, contentType: w.FormDataContentType()}, nil
}
