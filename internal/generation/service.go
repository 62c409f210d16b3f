package generation

import (
	"context"
	"encoding/base64"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"

	"warehouse-service/internal/apperr"
	"warehouse-service/internal/metrics"
	"warehouse-service/internal/storage"
)

const glbContentType = "model/gltf-binary"

// PollResult is what a status poll reports back to the caller. Status is
// Done only once at least one model artifact has been staged; an upstream
// "Done" with no file yet is reported as Processing so the client keeps
// polling.
type PollResult struct {
	Status       string   `json:"status"`
	Message      string   `json:"message"`
	DownloadURLs []string `json:"download_urls,omitempty"`
	Filenames    []string `json:"filenames,omitempty"`
}

// Service drives the generation pipeline: submit with optional background
// removal, poll upstream, and stage completed artifacts into object
// storage under the generated_models prefix.
type Service struct {
	Client     *Client
	Store      storage.ObjectStore
	Metrics    *metrics.Metrics
	httpClient *http.Client
}

// NewService creates a generation Service. The httpClient fetches artifact
// binaries from the URLs the upstream listing returns.
func NewService(client *Client, store storage.ObjectStore, m *metrics.Metrics, httpClient *http.Client) *Service {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 120 * time.Second}
	}
	return &Service{Client: client, Store: store, Metrics: m, httpClient: httpClient}
}

// SubmitJob submits a generation job. With removeBackground set, every
// input image first goes through the segmentation endpoint and the
// processed PNGs replace the originals.
func (s *Service) SubmitJob(ctx context.Context, images []ImagePart, tier string, removeBackground bool) (*SubmitResult, error) {
	if len(images) == 0 || len(images) > 5 {
		return nil, apperr.New(apperr.KindValidation, "between 1 and 5 images are required")
	}
	if tier != TierSketch && tier != TierRegular {
		return nil, apperr.New(apperr.KindValidation, "tier must be Sketch or Regular")
	}

	if removeBackground {
		processed := make([]ImagePart, 0, len(images))
		for _, img := range images {
			data, err := s.Client.RemoveBackground(ctx, img)
			if err != nil {
				return nil, err
			}
			name := strings.TrimSuffix(img.Name, filepath.Ext(img.Name)) + ".png"
			processed = append(processed, ImagePart{Name: name, Data: data})
		}
		images = processed
	}

	result, err := s.Client.Submit(ctx, images, tier)
	if err != nil {
		return nil, err
	}
	s.Metrics.JobSubmitted()
	log.Printf("Submitted generation job: task=%s, tier=%s, images=%d", result.TaskID, tier, len(images))
	return result, nil
}

// RemoveBackgroundBatch processes up to five images and returns the
// resulting PNGs as base64 data URLs, ready for client-side preview.
func (s *Service) RemoveBackgroundBatch(ctx context.Context, images []ImagePart) ([]string, error) {
	if len(images) == 0 || len(images) > 5 {
		return nil, apperr.New(apperr.KindValidation, "between 1 and 5 images are required")
	}
	results := make([]string, 0, len(images))
	for _, img := range images {
		data, err := s.Client.RemoveBackground(ctx, img)
		if err != nil {
			return nil, err
		}
		results = append(results, "data:image/png;base64,"+base64.StdEncoding.EncodeToString(data))
	}
	return results, nil
}

// RemoveBackgroundToTemp processes one image and writes the returned PNG
// to a temporary file. The caller owns removal of the returned path.
func (s *Service) RemoveBackgroundToTemp(ctx context.Context, img ImagePart) (string, error) {
	data, err := s.Client.RemoveBackground(ctx, img)
	if err != nil {
		return "", err
	}
	tmp, err := os.CreateTemp("", "nobg-*.png")
	if err != nil {
		return "", apperr.Wrap(errors.Wrap(err, "create temp file"), apperr.KindStorage, "failed to store processed image")
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", apperr.Wrap(errors.Wrap(err, "write temp file"), apperr.KindStorage, "failed to store processed image")
	}
	tmp.Close()
	return tmp.Name(), nil
}

// PollStatus reports the job state. When upstream says Done, the download
// listing is fetched and every model artifact is staged; the poll only
// reports Done once at least one artifact made it into storage. Staging
// hiccups degrade to Processing so the caller simply polls again.
func (s *Service) PollStatus(ctx context.Context, subscriptionKey, taskID string) (*PollResult, error) {
	status, err := s.Client.Status(ctx, subscriptionKey)
	if err != nil {
		return nil, err
	}

	switch status {
	case StatusFailed:
		return &PollResult{Status: StatusFailed, Message: "generation failed"}, nil
	case StatusDone:
		// fall through to artifact staging
	default:
		return &PollResult{Status: status, Message: "generation in progress"}, nil
	}

	downloads, err := s.Client.Downloads(ctx, taskID)
	if err != nil {
		log.Printf("Download listing failed for task %s: %v", taskID, err)
		return &PollResult{Status: "Processing", Message: "model file not ready yet"}, nil
	}

	var urls, names []string
	for _, dl := range downloads {
		staged, err := s.stageArtifact(ctx, taskID, dl)
		if err != nil {
			log.Printf("Failed to stage artifact %s for task %s: %v", dl.Name, taskID, err)
			continue
		}
		for _, f := range staged {
			urls = append(urls, s.Store.URL(storage.StagedModelPath(f)))
			names = append(names, f)
			s.Metrics.ArtifactStaged()
		}
	}

	if len(names) == 0 {
		return &PollResult{Status: "Processing", Message: "model file not ready yet"}, nil
	}

	log.Printf("Staged %d artifacts for task %s", len(names), taskID)
	return &PollResult{
		Status:       StatusDone,
		Message:      "model ready",
		DownloadURLs: urls,
		Filenames:    names,
	}, nil
}

// stageArtifact fetches one listed artifact and stages its model payloads.
// Zip artifacts are unpacked to find contained .glb members; anything that
// is neither a .glb nor a zip is skipped.
func (s *Service) stageArtifact(ctx context.Context, taskID string, dl Download) ([]string, error) {
	ext := strings.ToLower(filepath.Ext(dl.Name))
	if ext != ".glb" && ext != ".zip" {
		return nil, nil
	}

	data, err := s.fetch(ctx, dl.URL)
	if err != nil {
		return nil, err
	}

	var payloads []NamedFile
	if ext == ".zip" {
		payloads, err = ExtractGLBs(ctx, data, dl.Name)
		if err != nil {
			return nil, errors.Wrap(err, "unpack artifact archive")
		}
	} else {
		payloads = []NamedFile{{Name: dl.Name, Data: data}}
	}

	var staged []string
	for _, p := range payloads {
		name := storage.StagedModelName(taskID, p.Name)
		if _, err := storage.PutBytes(ctx, s.Store, storage.StagedModelPath(name), p.Data, glbContentType); err != nil {
			return staged, err
		}
		staged = append(staged, name)
	}
	return staged, nil
}

func (s *Service) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "create artifact request")
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "fetch artifact")
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, errors.Errorf("artifact fetch returned status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
