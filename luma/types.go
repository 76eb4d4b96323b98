// Package luma is a client for the Luma Labs Dream Machine v1 API. It
// submits image and video generation jobs, polls them to completion and
// reports results, using closed enumerations validated before any request
// leaves the process.
package luma

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Kind discriminates a generation request or job.
type Kind string

const (
	KindImage Kind = "image"
	KindVideo Kind = "video"
)

// AspectRatio is one of the seven ratios accepted by the API.
type AspectRatio string

const (
	AspectRatioSquare        AspectRatio = "1:1"
	AspectRatioLandscape     AspectRatio = "16:9"
	AspectRatioPortrait      AspectRatio = "9:16"
	AspectRatioClassic       AspectRatio = "4:3"
	AspectRatioClassicTall   AspectRatio = "3:4"
	AspectRatioCinematic     AspectRatio = "21:9"
	AspectRatioCinematicTall AspectRatio = "9:21"
)

var validAspectRatios = map[AspectRatio]bool{
	AspectRatioSquare:        true,
	AspectRatioLandscape:     true,
	AspectRatioPortrait:      true,
	AspectRatioClassic:       true,
	AspectRatioClassicTall:   true,
	AspectRatioCinematic:     true,
	AspectRatioCinematicTall: true,
}

// AspectRatios lists the accepted values in documentation order.
func AspectRatios() []AspectRatio {
	return []AspectRatio{
		AspectRatioSquare, AspectRatioLandscape, AspectRatioPortrait,
		AspectRatioClassic, AspectRatioClassicTall,
		AspectRatioCinematic, AspectRatioCinematicTall,
	}
}

// ImageModel selects the image generation model.
type ImageModel string

const (
	ImageModelPhoton      ImageModel = "photon-1"
	ImageModelPhotonFlash ImageModel = "photon-flash-1"
)

var validImageModels = map[ImageModel]bool{
	ImageModelPhoton:      true,
	ImageModelPhotonFlash: true,
}

// VideoModel selects the video generation model.
type VideoModel string

const (
	VideoModelRay2      VideoModel = "ray-2"
	VideoModelRayFlash2 VideoModel = "ray-flash-2"
	VideoModelRay16     VideoModel = "ray-1-6"
)

var validVideoModels = map[VideoModel]bool{
	VideoModelRay2:      true,
	VideoModelRayFlash2: true,
	VideoModelRay16:     true,
}

// Resolution is the output video resolution.
type Resolution string

const (
	Resolution4K    Resolution = "4k"
	Resolution1080p Resolution = "1080p"
	Resolution720p  Resolution = "720p"
	Resolution540p  Resolution = "540p"
)

var validResolutions = map[Resolution]bool{
	Resolution4K:    true,
	Resolution1080p: true,
	Resolution720p:  true,
	Resolution540p:  true,
}

// VideoDuration is the output video length.
type VideoDuration string

const (
	VideoDuration5s VideoDuration = "5s"
	VideoDuration9s VideoDuration = "9s"
)

var validVideoDurations = map[VideoDuration]bool{
	VideoDuration5s: true,
	VideoDuration9s: true,
}

// Defaults applied by the tool dispatcher when a parameter is omitted.
const (
	DefaultAspectRatio   = AspectRatioLandscape
	DefaultImageModel    = ImageModelPhoton
	DefaultVideoModel    = VideoModelRay2
	DefaultResolution    = Resolution720p
	DefaultVideoDuration = VideoDuration5s

	// DefaultRefWeight is applied to a reference image without an explicit
	// weight.
	DefaultRefWeight = 1.0
)

// Reference list bounds enforced before submission.
const (
	MaxImageRefs     = 8
	MaxCharacterRefs = 4
	MaxStyleRefs     = 1
)

// ImageRef is a reference image with an influence weight.
type ImageRef struct {
	URL    string
	Weight float64
}

// ImageRequest describes an image generation job.
type ImageRequest struct {
	Prompt      string
	AspectRatio AspectRatio
	Model       ImageModel

	// ImageRefs bias the generation towards up to MaxImageRefs references.
	ImageRefs []ImageRef
	// StyleRefs constrain the style; the API accepts at most MaxStyleRefs.
	StyleRefs []ImageRef
	// CharacterRefs are up to MaxCharacterRefs image URLs describing a
	// single identity.
	CharacterRefs []string
	// ModifyImageRef selects an image to modify instead of generating from
	// scratch.
	ModifyImageRef *ImageRef
}

// Validate checks the request against the API's closed enumerations and
// reference bounds. It runs before any network call.
func (r ImageRequest) Validate() error {
	if strings.TrimSpace(r.Prompt) == "" {
		return &ValidationError{Field: "prompt", Message: "cannot be empty"}
	}
	if !validAspectRatios[r.AspectRatio] {
		return &ValidationError{Field: "aspect_ratio", Message: fmt.Sprintf("unsupported value %q", r.AspectRatio)}
	}
	if !validImageModels[r.Model] {
		return &ValidationError{Field: "model", Message: fmt.Sprintf("unsupported value %q", r.Model)}
	}
	if len(r.ImageRefs) > MaxImageRefs {
		return &ValidationError{Field: "image_ref", Message: fmt.Sprintf("at most %d references allowed, got %d", MaxImageRefs, len(r.ImageRefs))}
	}
	if len(r.StyleRefs) > MaxStyleRefs {
		return &ValidationError{Field: "style_ref", Message: fmt.Sprintf("at most %d reference allowed, got %d", MaxStyleRefs, len(r.StyleRefs))}
	}
	if len(r.CharacterRefs) > MaxCharacterRefs {
		return &ValidationError{Field: "character_ref", Message: fmt.Sprintf("at most %d references allowed, got %d", MaxCharacterRefs, len(r.CharacterRefs))}
	}
	for i, ref := range r.ImageRefs {
		if ref.URL == "" {
			return &ValidationError{Field: "image_ref", Message: fmt.Sprintf("reference %d has no url", i)}
		}
	}
	for i, ref := range r.StyleRefs {
		if ref.URL == "" {
			return &ValidationError{Field: "style_ref", Message: fmt.Sprintf("reference %d has no url", i)}
		}
	}
	for i, url := range r.CharacterRefs {
		if url == "" {
			return &ValidationError{Field: "character_ref", Message: fmt.Sprintf("reference %d has no url", i)}
		}
	}
	if r.ModifyImageRef != nil && r.ModifyImageRef.URL == "" {
		return &ValidationError{Field: "modify_image_ref", Message: "reference has no url"}
	}
	return nil
}

// VideoRequest describes a video generation job. A keyframe can be either
// an image URL or the identifier of a prior generation; when both are set
// for the same frame the generation identifier wins.
type VideoRequest struct {
	Prompt      string
	AspectRatio AspectRatio
	Model       VideoModel
	Loop        bool
	Resolution  Resolution
	Duration    VideoDuration

	Frame0ImageURL     string
	Frame1ImageURL     string
	Frame0GenerationID string
	Frame1GenerationID string
}

// Validate checks the request against the API's closed enumerations. It
// runs before any network call.
func (r VideoRequest) Validate() error {
	if strings.TrimSpace(r.Prompt) == "" {
		return &ValidationError{Field: "prompt", Message: "cannot be empty"}
	}
	if !validAspectRatios[r.AspectRatio] {
		return &ValidationError{Field: "aspect_ratio", Message: fmt.Sprintf("unsupported value %q", r.AspectRatio)}
	}
	if !validVideoModels[r.Model] {
		return &ValidationError{Field: "model", Message: fmt.Sprintf("unsupported value %q", r.Model)}
	}
	if !validResolutions[r.Resolution] {
		return &ValidationError{Field: "resolution", Message: fmt.Sprintf("unsupported value %q", r.Resolution)}
	}
	if !validVideoDurations[r.Duration] {
		return &ValidationError{Field: "duration", Message: fmt.Sprintf("unsupported value %q", r.Duration)}
	}
	if r.Frame0GenerationID != "" {
		if _, err := uuid.Parse(r.Frame0GenerationID); err != nil {
			return &ValidationError{Field: "frame0_id", Message: fmt.Sprintf("not a valid generation id: %q", r.Frame0GenerationID)}
		}
	}
	if r.Frame1GenerationID != "" {
		if _, err := uuid.Parse(r.Frame1GenerationID); err != nil {
			return &ValidationError{Field: "frame1_id", Message: fmt.Sprintf("not a valid generation id: %q", r.Frame1GenerationID)}
		}
	}
	return nil
}

// Status is the lifecycle state of a generation as reported by the API,
// normalised to the four states the client cares about.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// UnmarshalJSON normalises the provider's state vocabulary: "queued" maps
// to pending and "dreaming" to processing. Unknown values are kept verbatim
// and treated as non-terminal by the poller.
func (s *Status) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(string(data), `"`)
	switch strings.ToLower(raw) {
	case "queued", "pending":
		*s = StatusPending
	case "dreaming", "processing":
		*s = StatusProcessing
	case "completed":
		*s = StatusCompleted
	case "failed":
		*s = StatusFailed
	default:
		*s = Status(raw)
	}
	return nil
}

// Terminal reports whether the provider will not change this status again.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Assets carries the output URLs of a completed generation.
type Assets struct {
	// Image is the generated image, or the thumbnail for video jobs.
	Image string `json:"image,omitempty"`
	// Video is the generated video. Empty for image jobs.
	Video string `json:"video,omitempty"`
}

// Generation is a job tracked by the API under an opaque identifier.
type Generation struct {
	ID            string `json:"id"`
	Status        Status `json:"status"`
	FailureReason string `json:"failure_reason,omitempty"`
	Assets        Assets `json:"assets"`
}

// assetsReady reports whether the asset URLs a job kind must deliver are
// present. The API can flip a job to completed before the CDN URLs appear,
// so the poller keeps querying until they do.
func assetsReady(kind Kind, a Assets) bool {
	switch kind {
	case KindVideo:
		return a.Video != "" && a.Image != ""
	default:
		return a.Image != ""
	}
}
