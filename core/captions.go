package interview

import (
	"context"
	"fmt"

	"github.com/vvskad1/interview-core/core/audio"
	"github.com/vvskad1/interview-core/core/captions"
)

// captionFeed is the facade over an optional caption client. Caption output
// is display-only; every failure here is logged and swallowed so captions can
// never affect the turn timeline.
type captionFeed struct {
	// client stores the configured caption implementation.
	client CaptionClient

	emitEvent eventEmitter
}

func newCaptionFeed() captionFeed {
	return captionFeed{emitEvent: noopEventEmitter}
}

func (f *captionFeed) set(client CaptionClient) {
	if f != nil {
		f.client = client
	}
}

func (f *captionFeed) setEventEmitter(emitEvent eventEmitter) {
	if f == nil {
		return
	}
	if emitEvent != nil {
		f.emitEvent = emitEvent
	} else {
		f.emitEvent = noopEventEmitter
	}
}

func (f *captionFeed) isConfigured() bool {
	return f != nil && f.client != nil
}

func (f *captionFeed) start(ctx context.Context, encodingInfo audio.EncodingInfo) error {
	if !f.isConfigured() {
		return nil
	}

	captionOptions := []captions.CaptionOption{
		captions.WithInterimCaptionCallback(f.invokeCaption),
		captions.WithEncodingInfo(encodingInfo),
	}

	if err := f.client.Stream(ctx, captionOptions...); err != nil {
		return fmt.Errorf("failed to start caption stream: %w", err)
	}

	return nil
}

func (f *captionFeed) sendAudio(chunk []byte) error {
	if !f.isConfigured() {
		return nil
	}

	return f.client.SendAudio(chunk)
}

func (f *captionFeed) close() error {
	if !f.isConfigured() {
		return nil
	}

	switch c := f.client.(type) {
	case interface{ Close(context.Context) error }:
		if err := c.Close(context.Background()); err != nil {
			return fmt.Errorf("failed to close caption client: %w", err)
		}
	case interface{ Close() error }:
		if err := c.Close(); err != nil {
			return fmt.Errorf("failed to close caption client: %w", err)
		}
	case interface{ Close() }:
		c.Close()
	}

	return nil
}

func (f *captionFeed) invokeCaption(caption string) {
	f.emitEvent(captionUpdatedEvent{caption: caption})
}
