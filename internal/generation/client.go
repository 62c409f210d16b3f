package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"

	"warehouse-service/internal/apperr"
)

// Job statuses reported by the upstream generation API.
const (
	StatusDone       = "Done"
	StatusFailed     = "Failed"
	StatusGenerating = "Generating"
)

// Tiers accepted by the upstream generation API.
const (
	TierSketch  = "Sketch"
	TierRegular = "Regular"
)

// Client talks to the external 3D-generation API and the background
// removal endpoint. All calls are synchronous; the job itself runs
// upstream and is observed through later Status calls.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	bgURL      string
}

// NewClient creates a generation API client. A nil httpClient gets a
// default with a 60s timeout (generation submissions carry image payloads).
func NewClient(httpClient *http.Client, baseURL, apiKey, bgURL string) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		bgURL:      bgURL,
	}
}

// ImagePart is one input image for a generation job.
type ImagePart struct {
	Name string
	Data []byte
}

// SubmitResult identifies a submitted job for later polling.
type SubmitResult struct {
	TaskID          string `json:"task_id"`
	SubscriptionKey string `json:"subscription_key"`
}

// Download is one artifact listed by the download endpoint.
type Download struct {
	URL  string `json:"url"`
	Name string `json:"name"`
}

// Submit posts a multipart generation job with the fixed concat condition
// mode and GLB output format. Missing identifiers in the response body are
// an upstream error, not a silent degradation.
func (c *Client) Submit(ctx context.Context, images []ImagePart, tier string) (*SubmitResult, error) {
	if len(images) == 0 {
		return nil, apperr.New(apperr.KindValidation, "at least one image is required")
	}

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for _, img := range images {
		part, err := w.CreateFormFile("images", img.Name)
		if err != nil {
			return nil, apperr.Wrap(errors.Wrap(err, "build multipart"), apperr.KindUnknown, "failed to build generation request")
		}
		if _, err := part.Write(img.Data); err != nil {
			return nil, apperr.Wrap(errors.Wrap(err, "write image part"), apperr.KindUnknown, "failed to build generation request")
		}
	}
	_ = w.WriteField("condition_mode", "concat")
	_ = w.WriteField("geometry_file_format", "glb")
	_ = w.WriteField("tier", tier)
	if err := w.Close(); err != nil {
		return nil, apperr.Wrap(errors.Wrap(err, "close multipart"), apperr.KindUnknown, "failed to build generation request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/rodin", &body)
	if err != nil {
		return nil, apperr.Wrap(errors.Wrap(err, "create request"), apperr.KindUnknown, "failed to build generation request")
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperr.Wrap(errors.Wrap(err, "submit generation job"), apperr.KindUpstream, "generation API unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, upstreamStatusError(resp)
	}

	var parsed struct {
		UUID string `json:"uuid"`
		Jobs struct {
			SubscriptionKey string `json:"subscription_key"`
		} `json:"jobs"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, apperr.Wrap(errors.Wrap(err, "decode submit response"), apperr.KindUpstream, "generation API returned malformed response")
	}
	if parsed.UUID == "" || parsed.Jobs.SubscriptionKey == "" {
		return nil, apperr.New(apperr.KindUpstream, "generation API response missing task identifiers")
	}

	return &SubmitResult{TaskID: parsed.UUID, SubscriptionKey: parsed.Jobs.SubscriptionKey}, nil
}

// Status queries the job list for a subscription key and reduces it to one
// overall status: Done only when every job is Done, Failed when any is.
func (c *Client) Status(ctx context.Context, subscriptionKey string) (string, error) {
	payload, _ := json.Marshal(map[string]string{"subscription_key": subscriptionKey})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/status", bytes.NewReader(payload))
	if err != nil {
		return "", apperr.Wrap(errors.Wrap(err, "create request"), apperr.KindUnknown, "failed to build status request")
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", apperr.Wrap(errors.Wrap(err, "poll status"), apperr.KindUpstream, "generation API unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return "", upstreamStatusError(resp)
	}

	var parsed struct {
		Jobs []struct {
			UUID   string `json:"uuid"`
			Status string `json:"status"`
		} `json:"jobs"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", apperr.Wrap(errors.Wrap(err, "decode status response"), apperr.KindUpstream, "generation API returned malformed response")
	}
	if len(parsed.Jobs) == 0 {
		return "", apperr.New(apperr.KindUpstream, "generation API reported no jobs")
	}

	allDone := true
	for _, job := range parsed.Jobs {
		switch job.Status {
		case StatusFailed:
			return StatusFailed, nil
		case StatusDone:
		default:
			allDone = false
		}
	}
	if allDone {
		return StatusDone, nil
	}
	return StatusGenerating, nil
}

// Downloads lists the artifacts produced by a completed task.
func (c *Client) Downloads(ctx context.Context, taskID string) ([]Download, error) {
	payload, _ := json.Marshal(map[string]string{"task_uuid": taskID})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/download", bytes.NewReader(payload))
	if err != nil {
		return nil, apperr.Wrap(errors.Wrap(err, "create request"), apperr.KindUnknown, "failed to build download request")
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperr.Wrap(errors.Wrap(err, "list downloads"), apperr.KindUpstream, "generation API unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, upstreamStatusError(resp)
	}

	var parsed struct {
		List []Download `json:"list"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, apperr.Wrap(errors.Wrap(err, "decode download response"), apperr.KindUpstream, "generation API returned malformed response")
	}
	return parsed.List, nil
}

// RemoveBackground posts an image to the segmentation endpoint and returns
// the processed PNG bytes.
func (c *Client) RemoveBackground(ctx context.Context, image ImagePart) ([]byte, error) {
	if c.bgURL == "" {
		return nil, apperr.New(apperr.KindUpstream, "background removal is not configured")
	}

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("image", image.Name)
	if err != nil {
		return nil, apperr.Wrap(errors.Wrap(err, "build multipart"), apperr.KindUnknown, "failed to build background removal request")
	}
	if _, err := part.Write(image.Data); err != nil {
		return nil, apperr.Wrap(errors.Wrap(err, "write image part"), apperr.KindUnknown, "failed to build background removal request")
	}
	if err := w.Close(); err != nil {
		return nil, apperr.Wrap(errors.Wrap(err, "close multipart"), apperr.KindUnknown, "failed to build background removal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.bgURL, &body)
	if err != nil {
		return nil, apperr.Wrap(errors.Wrap(err, "create request"), apperr.KindUnknown, "failed to build background removal request")
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperr.Wrap(errors.Wrap(err, "remove background"), apperr.KindUpstream, "background removal API unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, upstreamStatusError(resp)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperr.Wrap(errors.Wrap(err, "read processed image"), apperr.KindUpstream, "background removal API returned malformed response")
	}
	return data, nil
}

func upstreamStatusError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	msg := strings.TrimSpace(string(data))
	if msg == "" {
		msg = resp.Status
	}
	return apperr.New(apperr.KindUpstream, fmt.Sprintf("generation API error (status %d): %s", resp.StatusCode, msg))
}
