package modem

import "fmt"

// frame layout constants
const (
	headerBits = 16 // big-endian payload length in bytes
	crcBits    = 8
)

// Modulator converts byte payloads into PCM-16 sample buffers for one
// transmission profile. It is stateless after construction and safe for
// concurrent use.
type Modulator struct {
	p        params
	preamble []int16
	carriers [2][]int16
	leadIn   int
	tail     int
}

// NewModulator creates a modulator for the given profile.
func NewModulator(profile Profile) *Modulator {
	p := profile.params()
	return &Modulator{
		p:        p,
		preamble: quantize(chirpPreamble(p.preambleMinFreq, p.preambleMaxFreq, p.preambleLen)),
		carriers: [2][]int16{
			quantize(carrier(p.zeroFreq, p.samplesPerBit)),
			quantize(carrier(p.oneFreq, p.samplesPerBit)),
		},
		leadIn: p.preambleLen / 4,
		tail:   p.preambleLen / 2,
	}
}

// Modulate encodes the payload into one frame of samples: lead-in silence,
// chirp preamble, length header, payload bits, CRC-8 trailer, and a short
// tail of silence. Output is deterministic for a given payload. An empty
// payload yields a minimal frame that still decodes to an empty payload.
func (m *Modulator) Modulate(payload []byte) ([]int16, error) {
	if len(payload) > MaxFrameBytes {
		return nil, fmt.Errorf("payload of %d bytes exceeds the %d byte frame ceiling", len(payload), MaxFrameBytes)
	}

	totalBits := headerBits + len(payload)*8 + crcBits
	out := make([]int16, 0, m.leadIn+len(m.preamble)+totalBits*m.p.samplesPerBit+m.tail)

	out = append(out, make([]int16, m.leadIn)...)
	out = append(out, m.preamble...)

	// length header, most significant bit first
	length := uint16(len(payload))
	for i := headerBits - 1; i >= 0; i-- {
		out = m.appendBit(out, (length>>i)&1 == 1)
	}

	var check crc8
	for _, b := range payload {
		check.update(b)
		for i := 7; i >= 0; i-- {
			out = m.appendBit(out, (b>>i)&1 == 1)
		}
	}

	sum := check.sum()
	for i := 7; i >= 0; i-- {
		out = m.appendBit(out, (sum>>i)&1 == 1)
	}

	out = append(out, make([]int16, m.tail)...)
	return out, nil
}

func (m *Modulator) appendBit(out []int16, bit bool) []int16 {
	if bit {
		return append(out, m.carriers[1]...)
	}
	return append(out, m.carriers[0]...)
}
