package server

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/sweetpotato0/luma-mcp/luma"
)

type createVideoArgs struct {
	Prompt      string `json:"prompt" jsonschema:"Text description of the video to generate"`
	AspectRatio string `json:"aspect_ratio,omitempty" jsonschema:"Video dimensions: 1:1, 16:9, 9:16, 4:3, 3:4, 21:9 or 9:21 (default 16:9)"`
	Model       string `json:"model,omitempty" jsonschema:"ray-2 (standard), ray-flash-2 (faster) or ray-1-6 (legacy), default ray-2"`
	Loop        bool   `json:"loop,omitempty" jsonschema:"Whether the video should loop seamlessly"`
	Resolution  string `json:"resolution,omitempty" jsonschema:"Video quality: 4k, 1080p, 720p or 540p (default 720p)"`
	Duration    string `json:"duration,omitempty" jsonschema:"Video length: 5s or 9s (default 5s)"`
	Frame0Image string `json:"frame0_image,omitempty" jsonschema:"URL of an image to use as the first frame"`
	Frame1Image string `json:"frame1_image,omitempty" jsonschema:"URL of an image to use as the last frame"`
	Frame0ID    string `json:"frame0_id,omitempty" jsonschema:"Generation id (UUID) to use as the first frame"`
	Frame1ID    string `json:"frame1_id,omitempty" jsonschema:"Generation id (UUID) to use as the last frame"`
}

// VideoResult is the structured payload returned to the caller on success.
type VideoResult struct {
	GenerationID string `json:"generation_id"`
	VideoURL     string `json:"video_url"`
	ThumbnailURL string `json:"thumbnail_url"`
}

func (a createVideoArgs) toRequest() luma.VideoRequest {
	req := luma.VideoRequest{
		Prompt:             a.Prompt,
		AspectRatio:        luma.DefaultAspectRatio,
		Model:              luma.DefaultVideoModel,
		Loop:               a.Loop,
		Resolution:         luma.DefaultResolution,
		Duration:           luma.DefaultVideoDuration,
		Frame0ImageURL:     a.Frame0Image,
		Frame1ImageURL:     a.Frame1Image,
		Frame0GenerationID: a.Frame0ID,
		Frame1GenerationID: a.Frame1ID,
	}
	if a.AspectRatio != "" {
		req.AspectRatio = luma.AspectRatio(a.AspectRatio)
	}
	if a.Model != "" {
		req.Model = luma.VideoModel(a.Model)
	}
	if a.Resolution != "" {
		req.Resolution = luma.Resolution(a.Resolution)
	}
	if a.Duration != "" {
		req.Duration = luma.VideoDuration(a.Duration)
	}
	return req
}

func (h *handler) addCreateVideo(srv *mcp.Server) {
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "create_video",
		Description: "Generate an AI video with the Luma API and return its URL, thumbnail and generation id",
	}, h.createVideo)
}

func (h *handler) createVideo(ctx context.Context, req *mcp.CallToolRequest, args createVideoArgs) (*mcp.CallToolResult, any, error) {
	if err := h.acquire(ctx); err != nil {
		return nil, nil, err
	}
	defer h.release()

	gen, err := h.api.SubmitVideo(ctx, args.toRequest())
	if err != nil {
		return h.toolError(ctx, "create_video", err)
	}

	done, err := h.poller.Wait(ctx, gen.ID, luma.KindVideo, h.videoCeiling)
	if err != nil {
		return h.toolError(ctx, "create_video", err)
	}

	content := h.assetContent(ctx, done.Assets.Image)
	if len(content) > 0 {
		content = append(content, &mcp.TextContent{Text: "above image is the thumbnail of the video"})
	}
	content = append(content,
		&mcp.TextContent{Text: "video_url: " + done.Assets.Video},
		&mcp.TextContent{Text: "image_url: " + done.Assets.Image},
		&mcp.TextContent{Text: "generation_id: " + done.ID},
	)

	h.logger.Info("video generation finished", "generation_id", done.ID)
	return &mcp.CallToolResult{Content: content}, VideoResult{
		GenerationID: done.ID,
		VideoURL:     done.Assets.Video,
		ThumbnailURL: done.Assets.Image,
	}, nil
}
