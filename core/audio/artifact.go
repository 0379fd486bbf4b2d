package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"time"
)

// Artifact is a single finalized recording: the raw capture chunks sealed into
// one WAV blob. One artifact is produced per answer and handed off exactly
// once.
type Artifact struct {
	Bytes    []byte
	MIME     string
	Duration time.Duration
}

// ArtifactBuilder accumulates raw PCM chunks while a capture is running and
// finalizes them into a single Artifact. A builder is used for exactly one
// recording and is not safe for concurrent appends.
type ArtifactBuilder struct {
	encoding EncodingInfo
	buffer   bytes.Buffer
}

func NewArtifactBuilder(encoding EncodingInfo) *ArtifactBuilder {
	if encoding.IsZero() {
		encoding = GetDefaultEncodingInfo()
	}

	return &ArtifactBuilder{encoding: encoding}
}

func (b *ArtifactBuilder) Append(pcm []byte) {
	b.buffer.Write(pcm)
}

func (b *ArtifactBuilder) Len() int {
	return b.buffer.Len()
}

// Finalize seals the buffered chunks into one WAV artifact. The builder is
// drained; appending after Finalize starts an empty recording.
func (b *ArtifactBuilder) Finalize() (*Artifact, error) {
	pcm := b.buffer.Bytes()
	b.buffer = bytes.Buffer{}

	wav, err := encodeWAV(pcm, b.encoding)
	if err != nil {
		return nil, fmt.Errorf("failed to encode artifact: %w", err)
	}

	duration := time.Duration(0)
	if bps := b.encoding.BytesPerSecond(); bps > 0 {
		duration = time.Duration(len(pcm)) * time.Second / time.Duration(bps)
	}

	return &Artifact{Bytes: wav, MIME: "audio/wav", Duration: duration}, nil
}

// encodeWAV wraps single-channel PCM data in a canonical 44-byte RIFF/WAVE
// header.
func encodeWAV(pcm []byte, encoding EncodingInfo) ([]byte, error) {
	byteSize := encoding.Format.ByteSize()
	if byteSize <= 0 {
		return nil, fmt.Errorf("unsupported encoding: %s", encoding.Format.Name())
	}

	var audioFormat uint16
	switch encoding.Format {
	case EncodingLinear16:
		audioFormat = 1
	case EncodingALaw:
		audioFormat = 6
	case EncodingMulaw:
		audioFormat = 7
	default:
		return nil, fmt.Errorf("unsupported encoding: %s", encoding.Format.Name())
	}

	const channels = 1
	sampleRate := uint32(encoding.SampleRate)
	blockAlign := uint16(channels * byteSize)
	byteRate := sampleRate * uint32(blockAlign)

	out := bytes.Buffer{}
	out.Grow(44 + len(pcm))

	out.WriteString("RIFF")
	binary.Write(&out, binary.LittleEndian, uint32(36+len(pcm)))
	out.WriteString("WAVE")

	out.WriteString("fmt ")
	binary.Write(&out, binary.LittleEndian, uint32(16))
	binary.Write(&out, binary.LittleEndian, audioFormat)
	binary.Write(&out, binary.LittleEndian, uint16(channels))
	binary.Write(&out, binary.LittleEndian, sampleRate)
	binary.Write(&out, binary.LittleEndian, byteRate)
	binary.Write(&out, binary.LittleEndian, blockAlign)
	binary.Write(&out, binary.LittleEndian, uint16(byteSize*8))

	out.WriteString("data")
	binary.Write(&out, binary.LittleEndian, uint32(len(pcm)))
	out.Write(pcm)

	return out.Bytes(), nil
}
