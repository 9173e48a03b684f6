package pipeline

import (
	"context"
	"fmt"

	"github.com/audiolink/audiolink-service/internal/audio"
	"github.com/audiolink/audiolink-service/internal/modem"
	"github.com/audiolink/audiolink-service/internal/transceiver"
)

// Encoder turns text payloads into WAV containers. It is stateless and
// idempotent: the same text and profile always produce identical bytes.
type Encoder struct {
	transceiver     *transceiver.Transceiver
	maxPayloadBytes int
	defaultProfile  modem.Profile
}

// NewEncoder creates an encode pipeline.
func NewEncoder(tr *transceiver.Transceiver, maxPayloadBytes int, defaultProfile modem.Profile) *Encoder {
	return &Encoder{
		transceiver:     tr,
		maxPayloadBytes: maxPayloadBytes,
		defaultProfile:  defaultProfile,
	}
}

// Encode validates the text, modulates it with the selected profile, and
// wraps the samples in a WAV container. An empty profile name selects the
// configured default. Empty text is permitted and yields a minimal signal.
func (e *Encoder) Encode(ctx context.Context, text string, profileName string) ([]byte, error) {
	payload := []byte(text)
	if len(payload) > e.maxPayloadBytes {
		return nil, fmt.Errorf("%w: %d bytes, limit is %d", ErrPayloadTooLarge, len(payload), e.maxPayloadBytes)
	}

	profile := e.defaultProfile
	if profileName != "" {
		var err error
		if profile, err = modem.ParseProfile(profileName); err != nil {
			return nil, fmt.Errorf("%w: %q", ErrUnknownProfile, profileName)
		}
	}

	samples, err := e.transceiver.Modulate(ctx, payload, profile)
	if err != nil {
		return nil, err
	}

	container, err := audio.EncodeWAV(samples, modem.SampleRate)
	if err != nil {
		return nil, fmt.Errorf("encoding container: %w", err)
	}

	return container, nil
}
