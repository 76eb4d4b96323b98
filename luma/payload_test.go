package luma

import "testing"

func TestImagePayloadShapes(t *testing.T) {
	req := validImageRequest()
	req.ImageRefs = []ImageRef{
		{URL: "https://example.com/a.png", Weight: 0.4},
		{URL: "https://example.com/b.png"}, // weight defaults
	}
	req.StyleRefs = []ImageRef{{URL: "https://example.com/style.png"}}
	req.CharacterRefs = []string{"https://example.com/face1.png", "https://example.com/face2.png"}
	req.ModifyImageRef = &ImageRef{URL: "https://example.com/base.png", Weight: 0.9}

	payload := imagePayload(req)

	if payload.Prompt != req.Prompt || payload.AspectRatio != req.AspectRatio || payload.Model != req.Model {
		t.Error("payload does not carry prompt, aspect ratio and model verbatim")
	}
	if len(payload.ImageRef) != 2 {
		t.Fatalf("image_ref length = %d, want 2", len(payload.ImageRef))
	}
	if payload.ImageRef[0].Weight != 0.4 {
		t.Errorf("explicit weight = %v, want 0.4", payload.ImageRef[0].Weight)
	}
	if payload.ImageRef[1].Weight != DefaultRefWeight {
		t.Errorf("defaulted weight = %v, want %v", payload.ImageRef[1].Weight, DefaultRefWeight)
	}
	// The API expects style_ref as a list even for a single reference.
	if len(payload.StyleRef) != 1 || payload.StyleRef[0].URL != "https://example.com/style.png" {
		t.Errorf("style_ref = %+v, want single wrapped reference", payload.StyleRef)
	}
	// Character references group under a single identity.
	if payload.CharacterRef == nil || len(payload.CharacterRef.Identity0.Images) != 2 {
		t.Fatalf("character_ref = %+v, want identity0 with 2 images", payload.CharacterRef)
	}
	if payload.ModifyImageRef == nil || payload.ModifyImageRef.Weight != 0.9 {
		t.Errorf("modify_image_ref = %+v", payload.ModifyImageRef)
	}
}

func TestImagePayloadOmitsEmptyReferences(t *testing.T) {
	payload := imagePayload(validImageRequest())

	if payload.ImageRef != nil || payload.StyleRef != nil || payload.CharacterRef != nil || payload.ModifyImageRef != nil {
		t.Errorf("payload carries empty reference sections: %+v", payload)
	}
}

func TestVideoPayloadKeyframes(t *testing.T) {
	req := validVideoRequest()
	req.Loop = true
	req.Frame0ImageURL = "https://example.com/first.png"
	req.Frame1ImageURL = "https://example.com/last.png"

	payload := videoPayload(req)

	if !payload.Loop || payload.Resolution != req.Resolution || payload.Duration != req.Duration {
		t.Error("payload does not carry loop, resolution and duration")
	}
	if payload.Keyframes["frame0"].Type != "image" || payload.Keyframes["frame0"].URL != req.Frame0ImageURL {
		t.Errorf("frame0 = %+v", payload.Keyframes["frame0"])
	}
	if payload.Keyframes["frame1"].Type != "image" || payload.Keyframes["frame1"].URL != req.Frame1ImageURL {
		t.Errorf("frame1 = %+v", payload.Keyframes["frame1"])
	}
}

func TestVideoPayloadGenerationIDWinsAndLowercases(t *testing.T) {
	req := validVideoRequest()
	req.Frame0ImageURL = "https://example.com/first.png"
	req.Frame0GenerationID = "123E4567-E89B-12D3-A456-426614174000"

	payload := videoPayload(req)

	frame0 := payload.Keyframes["frame0"]
	if frame0.Type != "generation" {
		t.Fatalf("frame0 type = %q, want generation", frame0.Type)
	}
	if frame0.ID != "123e4567-e89b-12d3-a456-426614174000" {
		t.Errorf("frame0 id = %q, want lowercased uuid", frame0.ID)
	}
	if frame0.URL != "" {
		t.Errorf("frame0 url = %q, want empty when id is set", frame0.URL)
	}
}

func TestVideoPayloadOmitsKeyframesWhenUnset(t *testing.T) {
	payload := videoPayload(validVideoRequest())
	if payload.Keyframes != nil {
		t.Errorf("keyframes = %+v, want nil", payload.Keyframes)
	}
}
