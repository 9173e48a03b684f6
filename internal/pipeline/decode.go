package pipeline

import (
	"context"
	"fmt"

	"github.com/audiolink/audiolink-service/internal/audio"
	"github.com/audiolink/audiolink-service/internal/modem"
	"github.com/audiolink/audiolink-service/internal/transceiver"
)

// Decoder recovers text from uploaded WAV containers.
type Decoder struct {
	transceiver    *transceiver.Transceiver
	maxUploadBytes int64
}

// NewDecoder creates a decode pipeline.
func NewDecoder(tr *transceiver.Transceiver, maxUploadBytes int64) *Decoder {
	return &Decoder{
		transceiver:    tr,
		maxUploadBytes: maxUploadBytes,
	}
}

// Decode validates and parses the uploaded blob, demodulates its samples,
// and returns the recovered text. Absence of a signal is reported as
// ErrNoSignal and never conflated with a successful decode of an empty
// message.
func (d *Decoder) Decode(ctx context.Context, blob []byte) (string, error) {
	if len(blob) == 0 {
		return "", ErrEmptyUpload
	}
	if int64(len(blob)) > d.maxUploadBytes {
		return "", fmt.Errorf("%w: %d bytes, limit is %d", ErrUploadTooLarge, len(blob), d.maxUploadBytes)
	}

	samples, sampleRate, err := audio.DecodeWAV(blob)
	if err != nil {
		return "", err
	}

	if sampleRate != modem.SampleRate {
		return "", fmt.Errorf("%w: container is %d Hz, modem expects %d Hz",
			ErrSampleRateMismatch, sampleRate, modem.SampleRate)
	}

	result, err := d.transceiver.Demodulate(ctx, samples)
	if err != nil {
		return "", err
	}
	if !result.Found {
		return "", ErrNoSignal
	}

	return string(result.Payload), nil
}
