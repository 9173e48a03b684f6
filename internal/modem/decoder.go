package modem

// thresholdFactor scales the preamble self-correlation into the detection
// threshold. Correlation of noise or speech against the chirp stays far
// below it; an attenuated real preamble stays far above.
const thresholdFactor = 0.3

type decodeState int

const (
	searching decodeState = iota
	collecting
)

// Decoder incrementally recovers one payload from a stream of PCM-16
// samples. Feed it arbitrary chunks; it reports the payload as soon as a
// full CRC-valid frame has been assembled. A Decoder holds mutable detector
// state and is not safe for concurrent use.
type Decoder struct {
	p             params
	preamble      []float64
	preamblePower float64
	threshold     float64
	carriers      [2][]float64

	state decodeState

	// preamble detection: sliding window correlation with local-max
	// confirmation. A candidate peak is confirmed after half a preamble
	// length passes without a higher peak; the samples collected since the
	// peak are the start of the frame body.
	win       []float64
	winPos    int
	winCount  int
	localMax  float64
	candidate bool

	// frame body accumulation
	frame      []float64
	headerDone bool
	payloadLen int
}

// NewDecoder creates a decoder for the given profile.
func NewDecoder(profile Profile) *Decoder {
	p := profile.params()

	preamble := chirpPreamble(p.preambleMinFreq, p.preambleMaxFreq, p.preambleLen)
	power := 0.0
	for _, v := range preamble {
		power += v * v
	}

	return &Decoder{
		p:             p,
		preamble:      preamble,
		preamblePower: power,
		threshold:     thresholdFactor * power,
		carriers: [2][]float64{
			carrier(p.zeroFreq, p.samplesPerBit),
			carrier(p.oneFreq, p.samplesPerBit),
		},
		win:   make([]float64, p.preambleLen),
		frame: make([]float64, 0, (headerBits+crcBits)*p.samplesPerBit),
	}
}

// Reset restores the decoder to its pristine searching state.
func (d *Decoder) Reset() {
	d.state = searching
	d.winPos = 0
	d.winCount = 0
	d.localMax = 0
	d.candidate = false
	d.frame = d.frame[:0]
	d.headerDone = false
	d.payloadLen = 0
}

// Feed consumes a chunk of samples. It returns (payload, true) once a
// CRC-valid frame has been fully received; (nil, false) means more samples
// are needed or no signal has been detected so far. Both outcomes are
// non-exceptional: a buffer of silence or noise simply never yields a frame.
func (d *Decoder) Feed(samples []int16) ([]byte, bool) {
	for _, s := range samples {
		if payload, ok := d.step(float64(s) / 32768.0); ok {
			return payload, true
		}
	}
	return nil, false
}

func (d *Decoder) step(v float64) ([]byte, bool) {
	if d.state == collecting {
		d.frame = append(d.frame, v)
		return d.extract()
	}

	d.win[d.winPos] = v
	d.winPos = (d.winPos + 1) % len(d.win)
	if d.winCount < len(d.win) {
		d.winCount++
		if d.winCount < len(d.win) {
			return nil, false
		}
	}

	corr := d.correlate()
	if corr > d.threshold && corr > d.localMax {
		// A higher peak means the preamble actually ends here; whatever was
		// collected so far belonged to a premature alignment.
		d.localMax = corr
		d.candidate = true
		d.frame = d.frame[:0]
		return nil, false
	}

	if d.candidate {
		d.frame = append(d.frame, v)
		if len(d.frame) >= len(d.win)/2 {
			// No higher peak for half a preamble length: the frame start is
			// locked and the collected samples are the first body samples.
			d.state = collecting
		}
	}
	return nil, false
}

// correlate computes the dot product of the current window (oldest sample
// first) against the preamble template.
func (d *Decoder) correlate() float64 {
	sum := 0.0
	n := len(d.win)
	for i, p := range d.preamble {
		sum += d.win[(d.winPos+i)%n] * p
	}
	return sum
}

func (d *Decoder) extract() ([]byte, bool) {
	spb := d.p.samplesPerBit

	if !d.headerDone {
		if len(d.frame) < headerBits*spb {
			return nil, false
		}
		length := 0
		for i := 0; i < headerBits; i++ {
			length <<= 1
			if d.decideBit(i) {
				length |= 1
			}
		}
		if length > MaxFrameBytes {
			// Header failed the sanity bound; this was a false detection.
			d.Reset()
			return nil, false
		}
		d.headerDone = true
		d.payloadLen = length
	}

	total := (headerBits + d.payloadLen*8 + crcBits) * spb
	if len(d.frame) < total {
		return nil, false
	}

	payload := make([]byte, d.payloadLen)
	bit := headerBits
	for i := range payload {
		var b byte
		for j := 0; j < 8; j++ {
			b <<= 1
			if d.decideBit(bit) {
				b |= 1
			}
			bit++
		}
		payload[i] = b
	}

	var sum byte
	for j := 0; j < 8; j++ {
		sum <<= 1
		if d.decideBit(bit) {
			sum |= 1
		}
		bit++
	}

	d.Reset()
	if crc8Sum(payload) != sum {
		return nil, false
	}
	return payload, true
}

// decideBit discriminates one symbol window by correlating it against both
// carriers. The carriers are orthogonal over the window, so a clean symbol
// correlates with exactly one of them.
func (d *Decoder) decideBit(index int) bool {
	spb := d.p.samplesPerBit
	window := d.frame[index*spb : (index+1)*spb]

	corrOne, corrZero := 0.0, 0.0
	for i, v := range window {
		corrOne += v * d.carriers[1][i]
		corrZero += v * d.carriers[0][i]
	}
	return corrOne > corrZero
}
