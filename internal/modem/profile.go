package modem

import (
	"fmt"
	"math"
)

// Audio format shared with the container codec. A container whose sample
// rate differs from SampleRate cannot be demodulated.
const (
	SampleRate = 48000
	BitDepth   = 16
)

// MaxFrameBytes is the hard ceiling on the payload carried by one frame.
// The demodulator rejects length headers above it as noise.
const MaxFrameBytes = 4096

// amplitude of generated carriers and preambles, as a fraction of full scale
const amplitude = 0.6

// Profile selects the modulation scheme, trading transmission duration
// against noise robustness.
type Profile int

const (
	// ProfileFast uses the audible band with short symbols.
	ProfileFast Profile = iota
	// ProfileRobust uses the ultrasonic band with long symbols.
	ProfileRobust
)

// Profiles returns all known profiles in a stable order.
func Profiles() []Profile {
	return []Profile{ProfileFast, ProfileRobust}
}

// ParseProfile maps a configuration name to a Profile.
func ParseProfile(name string) (Profile, error) {
	switch name {
	case "fast":
		return ProfileFast, nil
	case "robust":
		return ProfileRobust, nil
	default:
		return 0, fmt.Errorf("unknown transmission profile %q", name)
	}
}

func (p Profile) String() string {
	switch p {
	case ProfileFast:
		return "fast"
	case ProfileRobust:
		return "robust"
	default:
		return fmt.Sprintf("profile(%d)", int(p))
	}
}

// params holds the per-profile transmission parameters. Carrier frequencies
// complete an integer number of cycles per symbol window so the two carriers
// are orthogonal and per-bit correlation is unambiguous on a clean signal.
type params struct {
	samplesPerBit int
	zeroFreq      float64
	oneFreq       float64

	preambleMinFreq float64
	preambleMaxFreq float64
	preambleLen     int
}

func (p Profile) params() params {
	switch p {
	case ProfileRobust:
		return params{
			samplesPerBit:   96,
			zeroFreq:        15000, // 30 cycles per symbol
			oneFreq:         18000, // 36 cycles per symbol
			preambleMinFreq: 14000,
			preambleMaxFreq: 19000,
			preambleLen:     960,
		}
	default:
		return params{
			samplesPerBit:   24,
			zeroFreq:        4000, // 2 cycles per symbol
			oneFreq:         8000, // 4 cycles per symbol
			preambleMinFreq: 2000,
			preambleMaxFreq: 10000,
			preambleLen:     480,
		}
	}
}

// carrier generates one symbol window of the given frequency, normalized to
// [-1, 1] before amplitude scaling.
func carrier(freq float64, size int) []float64 {
	signal := make([]float64, size)
	for i := range signal {
		t := float64(i) / SampleRate
		signal[i] = amplitude * math.Sin(2*math.Pi*freq*t)
	}
	return signal
}

// chirpPreamble generates an up-down frequency sweep used for frame
// detection. Its sharp autocorrelation peak lets the demodulator locate the
// frame start to the exact sample.
func chirpPreamble(minFreq, maxFreq float64, length int) []float64 {
	preamble := make([]float64, 0, length)
	preamble = chirp(preamble, minFreq, maxFreq, length/2)
	preamble = chirp(preamble, maxFreq, minFreq, length-length/2)
	return preamble
}

func chirp(out []float64, fromFreq, toFreq float64, length int) []float64 {
	rate := (toFreq - fromFreq) / (float64(length) / SampleRate)
	for i := 0; i < length; i++ {
		t := float64(i) / SampleRate
		out = append(out, amplitude*math.Sin(2*math.Pi*(rate/2*t+fromFreq)*t))
	}
	return out
}

// quantize converts a normalized float signal to PCM-16 samples.
func quantize(signal []float64) []int16 {
	samples := make([]int16, len(signal))
	for i, v := range signal {
		samples[i] = int16(v * 32767)
	}
	return samples
}
