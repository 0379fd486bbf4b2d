package captions

import "github.com/vvskad1/interview-core/core/audio"

// CaptionOptions configure one caption stream. Captions are a display-only
// preview of what the candidate is saying while recording; the authoritative
// transcript always comes from the submission response.
type CaptionOptions struct {
	// InterimCaptionCallback receives the running caption text, replaced in
	// place as recognition refines it.
	InterimCaptionCallback func(caption string)
	// SegmentCaptionCallback receives finalized caption segments as they
	// settle.
	SegmentCaptionCallback func(segment string)

	EncodingInfo audio.EncodingInfo
}

type CaptionOption func(*CaptionOptions)

func WithInterimCaptionCallback(callback func(caption string)) CaptionOption {
	return func(o *CaptionOptions) {
		o.InterimCaptionCallback = callback
	}
}

func WithSegmentCaptionCallback(callback func(segment string)) CaptionOption {
	return func(o *CaptionOptions) {
		o.SegmentCaptionCallback = callback
	}
}

func WithEncodingInfo(encodingInfo audio.EncodingInfo) CaptionOption {
	return func(o *CaptionOptions) {
		o.EncodingInfo = encodingInfo
	}
}
