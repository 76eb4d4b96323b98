package server

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/sweetpotato0/luma-mcp/config"
	"github.com/sweetpotato0/luma-mcp/luma"
)

// fakeAPI simulates the Luma service in-process: every submission gets its
// own identifier, and a job reports processing a configurable number of
// times before completing with asset URLs derived from its prompt.
type fakeAPI struct {
	mu              sync.Mutex
	submits         int
	polls           map[string]int
	prompts         map[string]string
	videoRequests   []luma.VideoRequest
	processingPolls int
	submitErr       error
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		polls:   make(map[string]int),
		prompts: make(map[string]string),
	}
}

func (f *fakeAPI) register(prompt string) (*luma.Generation, error) {
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submits++
	id := fmt.Sprintf("gen-%d", f.submits)
	f.prompts[id] = prompt
	return &luma.Generation{ID: id, Status: luma.StatusPending}, nil
}

func (f *fakeAPI) SubmitImage(ctx context.Context, req luma.ImageRequest) (*luma.Generation, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return f.register(req.Prompt)
}

func (f *fakeAPI) SubmitVideo(ctx context.Context, req luma.VideoRequest) (*luma.Generation, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.videoRequests = append(f.videoRequests, req)
	f.mu.Unlock()
	return f.register(req.Prompt)
}

func (f *fakeAPI) GetGeneration(ctx context.Context, id string) (*luma.Generation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.polls[id]++
	if f.polls[id] <= f.processingPolls {
		return &luma.Generation{ID: id, Status: luma.StatusProcessing}, nil
	}
	prompt := strings.ReplaceAll(f.prompts[id], " ", "-")
	return &luma.Generation{
		ID:     id,
		Status: luma.StatusCompleted,
		Assets: luma.Assets{
			Image: fmt.Sprintf("https://cdn.example.com/%s.png", prompt),
			Video: fmt.Sprintf("https://cdn.example.com/%s.mp4", prompt),
		},
	}, nil
}

func (f *fakeAPI) Download(ctx context.Context, url string) ([]byte, string, error) {
	return []byte("png-bytes"), "image/png", nil
}

func (f *fakeAPI) pollCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.polls {
		total += n
	}
	return total
}

func newTestHandler(api API) *handler {
	return &handler{
		api:          api,
		poller:       luma.NewPoller(api, time.Millisecond, luma.WithPollerLogger(discardLogger())),
		logger:       discardLogger(),
		imageCeiling: time.Second,
		videoCeiling: time.Second,
		embedAssets:  true,
		sem:          make(chan struct{}, 4),
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func textOf(content []mcp.Content) string {
	var parts []string
	for _, c := range content {
		if tc, ok := c.(*mcp.TextContent); ok {
			parts = append(parts, tc.Text)
		}
	}
	return strings.Join(parts, "\n")
}

func TestNewRegistersTools(t *testing.T) {
	cfg := &config.Config{
		APIKey:         "test-key",
		BaseURL:        config.DefaultBaseURL,
		PollInterval:   time.Millisecond,
		ImageTimeout:   time.Second,
		VideoTimeout:   time.Second,
		RequestTimeout: time.Second,
		MaxConcurrency: 2,
	}
	if srv := New(cfg, newFakeAPI(), WithLogger(discardLogger())); srv == nil {
		t.Fatal("New() returned nil server")
	}
}

func TestCreateImageSuccess(t *testing.T) {
	api := newFakeAPI()
	api.processingPolls = 2
	h := newTestHandler(api)

	result, structured, err := h.createImage(context.Background(), nil, createImageArgs{
		Prompt: "a lighthouse at dusk",
	})
	if err != nil {
		t.Fatalf("createImage() failed: %v", err)
	}
	if result.IsError {
		t.Fatalf("createImage() returned tool error: %s", textOf(result.Content))
	}

	res, ok := structured.(ImageResult)
	if !ok {
		t.Fatalf("structured result is %T, want ImageResult", structured)
	}
	if res.GenerationID == "" || !strings.Contains(res.ImageURL, "a-lighthouse-at-dusk") {
		t.Errorf("unexpected result %+v", res)
	}

	if _, ok := result.Content[0].(*mcp.ImageContent); !ok {
		t.Errorf("first content is %T, want embedded image", result.Content[0])
	}
	text := textOf(result.Content)
	if !strings.Contains(text, "image_url: ") || !strings.Contains(text, "generation_id: ") {
		t.Errorf("text content missing url or id lines:\n%s", text)
	}
}

func TestCreateImageConcurrentCallsAreIndependent(t *testing.T) {
	api := newFakeAPI()
	api.processingPolls = 3
	h := newTestHandler(api)

	prompts := []string{"red fox in snow", "blue whale surfacing"}
	results := make([]ImageResult, len(prompts))

	var wg sync.WaitGroup
	for i, prompt := range prompts {
		wg.Add(1)
		go func(i int, prompt string) {
			defer wg.Done()
			_, structured, err := h.createImage(context.Background(), nil, createImageArgs{Prompt: prompt})
			if err != nil {
				t.Errorf("createImage(%q) failed: %v", prompt, err)
				return
			}
			results[i] = structured.(ImageResult)
		}(i, prompt)
	}
	wg.Wait()

	if results[0].GenerationID == results[1].GenerationID {
		t.Errorf("concurrent calls shared a generation id: %q", results[0].GenerationID)
	}
	if !strings.Contains(results[0].ImageURL, "red-fox-in-snow") {
		t.Errorf("first call got wrong asset: %+v", results[0])
	}
	if !strings.Contains(results[1].ImageURL, "blue-whale-surfacing") {
		t.Errorf("second call got wrong asset: %+v", results[1])
	}
}

func TestCreateImageValidationErrorSkipsNetwork(t *testing.T) {
	api := newFakeAPI()
	h := newTestHandler(api)

	result, _, err := h.createImage(context.Background(), nil, createImageArgs{
		Prompt:      "a lighthouse at dusk",
		AspectRatio: "16:10",
	})
	if err != nil {
		t.Fatalf("createImage() returned protocol error: %v", err)
	}
	if !result.IsError {
		t.Fatal("createImage() accepted an invalid aspect ratio")
	}
	if text := textOf(result.Content); !strings.HasPrefix(text, "validation_error: ") {
		t.Errorf("error payload = %q, want validation_error kind", text)
	}
	if api.pollCount() != 0 {
		t.Errorf("status queries = %d, want 0 after validation failure", api.pollCount())
	}
}

func TestCreateImageRemoteErrorSkipsPolling(t *testing.T) {
	api := newFakeAPI()
	api.submitErr = &luma.RemoteError{StatusCode: 400, Message: "prompt rejected"}
	h := newTestHandler(api)

	result, _, err := h.createImage(context.Background(), nil, createImageArgs{
		Prompt: "a lighthouse at dusk",
	})
	if err != nil {
		t.Fatalf("createImage() returned protocol error: %v", err)
	}
	if !result.IsError {
		t.Fatal("createImage() swallowed the remote error")
	}
	if text := textOf(result.Content); !strings.HasPrefix(text, "remote_error: ") {
		t.Errorf("error payload = %q, want remote_error kind", text)
	}
	if api.pollCount() != 0 {
		t.Errorf("status queries = %d, want 0 when submission fails", api.pollCount())
	}
}

func TestCreateImageTimeout(t *testing.T) {
	api := newFakeAPI()
	api.processingPolls = 1 << 20 // never completes within the ceiling
	h := newTestHandler(api)
	h.imageCeiling = 5 * time.Millisecond

	result, _, err := h.createImage(context.Background(), nil, createImageArgs{
		Prompt: "a lighthouse at dusk",
	})
	if err != nil {
		t.Fatalf("createImage() returned protocol error: %v", err)
	}
	if !result.IsError {
		t.Fatal("createImage() did not time out")
	}
	if text := textOf(result.Content); !strings.HasPrefix(text, "timeout_error: ") {
		t.Errorf("error payload = %q, want timeout_error kind", text)
	}
}

func TestCreateImageCancelled(t *testing.T) {
	api := newFakeAPI()
	api.processingPolls = 1 << 20
	h := newTestHandler(api)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(5 * time.Millisecond)
		cancel()
	}()

	_, _, err := h.createImage(ctx, nil, createImageArgs{Prompt: "a lighthouse at dusk"})
	if err == nil {
		t.Fatal("createImage() ignored cancellation")
	}
}

func TestCreateVideoDefaults(t *testing.T) {
	api := newFakeAPI()
	h := newTestHandler(api)

	result, structured, err := h.createVideo(context.Background(), nil, createVideoArgs{
		Prompt: "waves rolling onto a beach",
	})
	if err != nil {
		t.Fatalf("createVideo() failed: %v", err)
	}
	if result.IsError {
		t.Fatalf("createVideo() returned tool error: %s", textOf(result.Content))
	}

	if len(api.videoRequests) != 1 {
		t.Fatalf("submitted requests = %d, want 1", len(api.videoRequests))
	}
	req := api.videoRequests[0]
	if req.AspectRatio != luma.DefaultAspectRatio {
		t.Errorf("AspectRatio = %q, want default", req.AspectRatio)
	}
	if req.Model != luma.DefaultVideoModel {
		t.Errorf("Model = %q, want default", req.Model)
	}
	if req.Resolution != luma.DefaultResolution {
		t.Errorf("Resolution = %q, want default", req.Resolution)
	}
	if req.Duration != luma.DefaultVideoDuration {
		t.Errorf("Duration = %q, want default", req.Duration)
	}
	if req.Loop {
		t.Error("Loop = true, want false by default")
	}

	res := structured.(VideoResult)
	if res.VideoURL == "" || res.ThumbnailURL == "" || res.GenerationID == "" {
		t.Errorf("incomplete video result %+v", res)
	}
	if text := textOf(result.Content); !strings.Contains(text, "video_url: ") {
		t.Errorf("text content missing video_url line:\n%s", text)
	}
}

func TestCreateVideoKeyframeValidation(t *testing.T) {
	api := newFakeAPI()
	h := newTestHandler(api)

	result, _, err := h.createVideo(context.Background(), nil, createVideoArgs{
		Prompt:   "waves rolling onto a beach",
		Frame0ID: "not-a-uuid",
	})
	if err != nil {
		t.Fatalf("createVideo() returned protocol error: %v", err)
	}
	if !result.IsError {
		t.Fatal("createVideo() accepted a malformed keyframe id")
	}
	if text := textOf(result.Content); !strings.HasPrefix(text, "validation_error: ") {
		t.Errorf("error payload = %q, want validation_error kind", text)
	}
}
