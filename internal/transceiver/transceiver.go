package transceiver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/audiolink/audiolink-service/internal/modem"
)

var (
	// ErrModemUnavailable is returned when every pooled modem instance
	// stayed busy for the whole acquire timeout.
	ErrModemUnavailable = errors.New("no modem instance available")

	// ErrDecodeTimeout is returned when a demodulation run exceeds the
	// configured decode timeout.
	ErrDecodeTimeout = errors.New("decode timed out")
)

// feedChunkSize is the number of samples handed to the decoders per
// iteration; the timeout is checked between chunks.
const feedChunkSize = 4096

// DecodeResult is the tagged outcome of a demodulation: either a recovered
// payload (Found true, Payload possibly empty) or no signal (Found false).
// Errors are reported separately; "no signal" is not an error.
type DecodeResult struct {
	Payload []byte
	Found   bool
}

// Config contains transceiver pool configuration
type Config struct {
	PoolSize       int
	AcquireTimeout time.Duration
	DecodeTimeout  time.Duration
}

// Stats represents transceiver statistics
type Stats struct {
	Modulations   uint64 `json:"modulations"`
	Demodulations uint64 `json:"demodulations"`
	FramesDecoded uint64 `json:"frames_decoded"`
	NoSignal      uint64 `json:"no_signal"`
	Timeouts      uint64 `json:"timeouts"`
	PoolSize      int    `json:"pool_size"`
	InFlight      int    `json:"in_flight"`
}

// instance bundles the per-profile decoders of one pooled modem. An
// instance is used by at most one request at a time.
type instance struct {
	decoders map[modem.Profile]*modem.Decoder
}

func newInstance() *instance {
	decoders := make(map[modem.Profile]*modem.Decoder, len(modem.Profiles()))
	for _, p := range modem.Profiles() {
		decoders[p] = modem.NewDecoder(p)
	}
	return &instance{decoders: decoders}
}

func (in *instance) reset() {
	for _, d := range in.decoders {
		d.Reset()
	}
}

// Transceiver serializes access to a pool of modem instances
type Transceiver struct {
	config     Config
	logger     *slog.Logger
	pool       chan *instance
	modulators map[modem.Profile]*modem.Modulator

	// Statistics
	modulations   uint64
	demodulations uint64
	framesDecoded uint64
	noSignal      uint64
	timeouts      uint64

	mu sync.RWMutex
}

// New creates a transceiver with a pool of independent modem instances.
func New(config Config, logger *slog.Logger) (*Transceiver, error) {
	if config.PoolSize < 1 {
		return nil, fmt.Errorf("pool size must be at least 1, got %d", config.PoolSize)
	}
	if config.AcquireTimeout <= 0 {
		config.AcquireTimeout = 2 * time.Second
	}
	if config.DecodeTimeout <= 0 {
		config.DecodeTimeout = 15 * time.Second
	}

	pool := make(chan *instance, config.PoolSize)
	for i := 0; i < config.PoolSize; i++ {
		pool <- newInstance()
	}

	modulators := make(map[modem.Profile]*modem.Modulator, len(modem.Profiles()))
	for _, p := range modem.Profiles() {
		modulators[p] = modem.NewModulator(p)
	}

	return &Transceiver{
		config:     config,
		logger:     logger,
		pool:       pool,
		modulators: modulators,
	}, nil
}

// Modulate converts a payload into samples using the given profile. The
// returned buffer, fed back into Demodulate, reproduces the payload exactly.
func (t *Transceiver) Modulate(ctx context.Context, payload []byte, profile modem.Profile) ([]int16, error) {
	in, err := t.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer t.release(in)

	t.mu.Lock()
	t.modulations++
	t.mu.Unlock()

	return t.modulators[profile].Modulate(payload)
}

// Demodulate feeds the sample buffer chunk by chunk into one decoder per
// profile. The first CRC-valid frame wins. Found=false means the whole
// buffer was consumed without detecting a frame, which is an expected
// outcome for silence or noise, not an error.
func (t *Transceiver) Demodulate(ctx context.Context, samples []int16) (DecodeResult, error) {
	in, err := t.acquire(ctx)
	if err != nil {
		return DecodeResult{}, err
	}
	// The decoders are mutated during the run; a pristine state must be
	// guaranteed for the next caller on every exit path.
	defer func() {
		in.reset()
		t.release(in)
	}()

	t.mu.Lock()
	t.demodulations++
	t.mu.Unlock()

	deadline := time.Now().Add(t.config.DecodeTimeout)

	for offset := 0; offset < len(samples); offset += feedChunkSize {
		if err := ctx.Err(); err != nil {
			return DecodeResult{}, err
		}
		if time.Now().After(deadline) {
			t.mu.Lock()
			t.timeouts++
			t.mu.Unlock()
			t.logger.Warn("Demodulation exceeded decode timeout",
				slog.Int("samples", len(samples)),
				slog.Int("offset", offset),
			)
			return DecodeResult{}, ErrDecodeTimeout
		}

		end := offset + feedChunkSize
		if end > len(samples) {
			end = len(samples)
		}
		chunk := samples[offset:end]

		for _, profile := range modem.Profiles() {
			if payload, found := in.decoders[profile].Feed(chunk); found {
				t.mu.Lock()
				t.framesDecoded++
				t.mu.Unlock()
				t.logger.Debug("Frame decoded",
					slog.String("profile", profile.String()),
					slog.Int("payload_bytes", len(payload)),
				)
				return DecodeResult{Payload: payload, Found: true}, nil
			}
		}
	}

	t.mu.Lock()
	t.noSignal++
	t.mu.Unlock()

	return DecodeResult{Found: false}, nil
}

// acquire claims a modem instance, waiting at most the configured acquire
// timeout for one to free up.
func (t *Transceiver) acquire(ctx context.Context) (*instance, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	timer := time.NewTimer(t.config.AcquireTimeout)
	defer timer.Stop()

	select {
	case in := <-t.pool:
		return in, nil
	case <-timer.C:
		return nil, ErrModemUnavailable
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (t *Transceiver) release(in *instance) {
	t.pool <- in
}

// GetStats returns current transceiver statistics
func (t *Transceiver) GetStats() Stats {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return Stats{
		Modulations:   t.modulations,
		Demodulations: t.demodulations,
		FramesDecoded: t.framesDecoded,
		NoSignal:      t.noSignal,
		Timeouts:      t.timeouts,
		PoolSize:      t.config.PoolSize,
		InFlight:      t.config.PoolSize - len(t.pool),
	}
}

// Close waits for all in-flight operations to finish and drains the pool.
func (t *Transceiver) Close() error {
	for i := 0; i < t.config.PoolSize; i++ {
		<-t.pool
	}
	return nil
}
