package server

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/sweetpotato0/luma-mcp/luma"
)

type imageRefArg struct {
	URL    string  `json:"url" jsonschema:"URL of the reference image"`
	Weight float64 `json:"weight,omitempty" jsonschema:"Influence weight, defaults to 1.0"`
}

type createImageArgs struct {
	Prompt         string        `json:"prompt" jsonschema:"Text description of the image to generate"`
	AspectRatio    string        `json:"aspect_ratio,omitempty" jsonschema:"Image dimensions: 1:1, 16:9, 9:16, 4:3, 3:4, 21:9 or 9:21 (default 16:9)"`
	Model          string        `json:"model,omitempty" jsonschema:"photon-1 (higher quality) or photon-flash-1 (faster), default photon-1"`
	ImageRef       []imageRefArg `json:"image_ref,omitempty" jsonschema:"Up to 8 weighted reference images to influence generation"`
	StyleRef       *imageRefArg  `json:"style_ref,omitempty" jsonschema:"A single weighted reference image to influence style"`
	CharacterRef   []string      `json:"character_ref,omitempty" jsonschema:"Up to 4 character reference image URLs"`
	ModifyImageRef *imageRefArg  `json:"modify_image_ref,omitempty" jsonschema:"A single image to modify or enhance"`
}

// ImageResult is the structured payload returned to the caller on success.
type ImageResult struct {
	GenerationID string `json:"generation_id"`
	ImageURL     string `json:"image_url"`
}

func (a createImageArgs) toRequest() luma.ImageRequest {
	req := luma.ImageRequest{
		Prompt:        a.Prompt,
		AspectRatio:   luma.DefaultAspectRatio,
		Model:         luma.DefaultImageModel,
		CharacterRefs: a.CharacterRef,
	}
	if a.AspectRatio != "" {
		req.AspectRatio = luma.AspectRatio(a.AspectRatio)
	}
	if a.Model != "" {
		req.Model = luma.ImageModel(a.Model)
	}
	for _, ref := range a.ImageRef {
		req.ImageRefs = append(req.ImageRefs, luma.ImageRef{URL: ref.URL, Weight: ref.Weight})
	}
	if a.StyleRef != nil {
		req.StyleRefs = []luma.ImageRef{{URL: a.StyleRef.URL, Weight: a.StyleRef.Weight}}
	}
	if a.ModifyImageRef != nil {
		req.ModifyImageRef = &luma.ImageRef{URL: a.ModifyImageRef.URL, Weight: a.ModifyImageRef.Weight}
	}
	return req
}

func (h *handler) addCreateImage(srv *mcp.Server) {
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "create_image",
		Description: "Generate an AI image with the Luma API and return its URL and generation id",
	}, h.createImage)
}

func (h *handler) createImage(ctx context.Context, req *mcp.CallToolRequest, args createImageArgs) (*mcp.CallToolResult, any, error) {
	if err := h.acquire(ctx); err != nil {
		return nil, nil, err
	}
	defer h.release()

	gen, err := h.api.SubmitImage(ctx, args.toRequest())
	if err != nil {
		return h.toolError(ctx, "create_image", err)
	}

	done, err := h.poller.Wait(ctx, gen.ID, luma.KindImage, h.imageCeiling)
	if err != nil {
		return h.toolError(ctx, "create_image", err)
	}

	content := h.assetContent(ctx, done.Assets.Image)
	content = append(content,
		&mcp.TextContent{Text: "image_url: " + done.Assets.Image},
		&mcp.TextContent{Text: "generation_id: " + done.ID},
	)

	h.logger.Info("image generation finished", "generation_id", done.ID)
	return &mcp.CallToolResult{Content: content}, ImageResult{
		GenerationID: done.ID,
		ImageURL:     done.Assets.Image,
	}, nil
}
