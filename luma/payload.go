package luma

import "strings"

// Wire shapes owned by the Dream Machine API. Reference weights default to
// DefaultRefWeight when unset, style references travel as a one-element
// list, and character references are grouped under a single identity.

type imageRefPayload struct {
	URL    string  `json:"url"`
	Weight float64 `json:"weight"`
}

type identityPayload struct {
	Images []string `json:"images"`
}

type characterRefPayload struct {
	Identity0 identityPayload `json:"identity0"`
}

type imageGenerationPayload struct {
	Prompt         string               `json:"prompt"`
	AspectRatio    AspectRatio          `json:"aspect_ratio"`
	Model          ImageModel           `json:"model"`
	ImageRef       []imageRefPayload    `json:"image_ref,omitempty"`
	StyleRef       []imageRefPayload    `json:"style_ref,omitempty"`
	CharacterRef   *characterRefPayload `json:"character_ref,omitempty"`
	ModifyImageRef *imageRefPayload     `json:"modify_image_ref,omitempty"`
}

type keyframePayload struct {
	Type string `json:"type"`
	URL  string `json:"url,omitempty"`
	ID   string `json:"id,omitempty"`
}

type videoGenerationPayload struct {
	Prompt      string                     `json:"prompt"`
	AspectRatio AspectRatio                `json:"aspect_ratio"`
	Model       VideoModel                 `json:"model"`
	Loop        bool                       `json:"loop"`
	Resolution  Resolution                 `json:"resolution"`
	Duration    VideoDuration              `json:"duration"`
	Keyframes   map[string]keyframePayload `json:"keyframes,omitempty"`
}

func refPayload(ref ImageRef) imageRefPayload {
	weight := ref.Weight
	if weight == 0 {
		weight = DefaultRefWeight
	}
	return imageRefPayload{URL: ref.URL, Weight: weight}
}

func imagePayload(req ImageRequest) imageGenerationPayload {
	payload := imageGenerationPayload{
		Prompt:      req.Prompt,
		AspectRatio: req.AspectRatio,
		Model:       req.Model,
	}
	for _, ref := range req.ImageRefs {
		payload.ImageRef = append(payload.ImageRef, refPayload(ref))
	}
	for _, ref := range req.StyleRefs {
		payload.StyleRef = append(payload.StyleRef, refPayload(ref))
	}
	if len(req.CharacterRefs) > 0 {
		payload.CharacterRef = &characterRefPayload{
			Identity0: identityPayload{Images: req.CharacterRefs},
		}
	}
	if req.ModifyImageRef != nil {
		ref := refPayload(*req.ModifyImageRef)
		payload.ModifyImageRef = &ref
	}
	return payload
}

func videoPayload(req VideoRequest) videoGenerationPayload {
	payload := videoGenerationPayload{
		Prompt:      req.Prompt,
		AspectRatio: req.AspectRatio,
		Model:       req.Model,
		Loop:        req.Loop,
		Resolution:  req.Resolution,
		Duration:    req.Duration,
	}

	keyframes := make(map[string]keyframePayload)
	if req.Frame0ImageURL != "" {
		keyframes["frame0"] = keyframePayload{Type: "image", URL: req.Frame0ImageURL}
	}
	if req.Frame1ImageURL != "" {
		keyframes["frame1"] = keyframePayload{Type: "image", URL: req.Frame1ImageURL}
	}
	// A generation identifier takes precedence over an image URL for the
	// same frame. Identifiers travel lowercased.
	if req.Frame0GenerationID != "" {
		keyframes["frame0"] = keyframePayload{Type: "generation", ID: strings.ToLower(req.Frame0GenerationID)}
	}
	if req.Frame1GenerationID != "" {
		keyframes["frame1"] = keyframePayload{Type: "generation", ID: strings.ToLower(req.Frame1GenerationID)}
	}
	if len(keyframes) > 0 {
		payload.Keyframes = keyframes
	}
	return payload
}
