package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/go-audio/wav"
)

// wavHeader is the canonical 44-byte layout of a PCM WAV file
type wavHeader struct {
	ChunkID       [4]byte // "RIFF"
	ChunkSize     uint32  // file size - 8 bytes
	Format        [4]byte // "WAVE"
	Subchunk1ID   [4]byte // "fmt "
	Subchunk1Size uint32  // 16 for PCM
	AudioFormat   uint16  // 1 for PCM
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32 // SampleRate * NumChannels * BitsPerSample / 8
	BlockAlign    uint16 // NumChannels * BitsPerSample / 8
	BitsPerSample uint16
	Subchunk2ID   [4]byte // "data"
	Subchunk2Size uint32  // number of bytes in the data chunk
}

// headerSize is the encoded size of wavHeader
const headerSize = 44

// EncodeWAV encodes mono PCM-16 samples into a WAV container. The output is
// deterministic: the same samples and sample rate always yield identical
// bytes. An empty sample slice produces a header-only container. Encoding
// fails only on invalid configuration, never on sample content.
func EncodeWAV(samples []int16, sampleRate int) ([]byte, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %d", sampleRate)
	}

	numChannels := uint16(1)
	bitsPerSample := uint16(16)
	dataSize := uint32(len(samples) * 2)

	header := wavHeader{
		ChunkID:       [4]byte{'R', 'I', 'F', 'F'},
		ChunkSize:     36 + dataSize,
		Format:        [4]byte{'W', 'A', 'V', 'E'},
		Subchunk1ID:   [4]byte{'f', 'm', 't', ' '},
		Subchunk1Size: 16,
		AudioFormat:   1, // PCM
		NumChannels:   numChannels,
		SampleRate:    uint32(sampleRate),
		ByteRate:      uint32(sampleRate) * uint32(numChannels) * uint32(bitsPerSample) / 8,
		BlockAlign:    numChannels * bitsPerSample / 8,
		BitsPerSample: bitsPerSample,
		Subchunk2ID:   [4]byte{'d', 'a', 't', 'a'},
		Subchunk2Size: dataSize,
	}

	buf := bytes.NewBuffer(make([]byte, 0, headerSize+len(samples)*2))

	if err := binary.Write(buf, binary.LittleEndian, header); err != nil {
		return nil, fmt.Errorf("failed to write WAV header: %w", err)
	}

	if err := binary.Write(buf, binary.LittleEndian, samples); err != nil {
		return nil, fmt.Errorf("failed to write audio data: %w", err)
	}

	return buf.Bytes(), nil
}

// DecodeWAV decodes a WAV container into mono PCM-16 samples and the sample
// rate declared in its header. Unknown metadata chunks before or after the
// data chunk are skipped. Returns ErrMalformedContainer,
// ErrUnsupportedBitDepth, or ErrUnsupportedChannelLayout on invalid input.
func DecodeWAV(data []byte) ([]int16, int, error) {
	dec := wav.NewDecoder(bytes.NewReader(data))

	if !dec.IsValidFile() {
		return nil, 0, fmt.Errorf("%w: not a valid WAV file", ErrMalformedContainer)
	}

	if dec.WavAudioFormat != 1 {
		return nil, 0, fmt.Errorf("%w: audio format %d is not PCM", ErrMalformedContainer, dec.WavAudioFormat)
	}

	if dec.BitDepth != 16 {
		return nil, 0, fmt.Errorf("%w: %d bits per sample", ErrUnsupportedBitDepth, dec.BitDepth)
	}

	if dec.NumChans != 1 {
		return nil, 0, fmt.Errorf("%w: %d channels, need mono", ErrUnsupportedChannelLayout, dec.NumChans)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("%w: reading sample data: %v", ErrMalformedContainer, err)
	}

	// The data chunk declares its own length; if the blob was truncated the
	// decoder recovers fewer samples than declared.
	declared := dec.PCMSize / 2
	if len(buf.Data) != declared {
		return nil, 0, fmt.Errorf("%w: data chunk declares %d samples, found %d",
			ErrMalformedContainer, declared, len(buf.Data))
	}

	samples := make([]int16, len(buf.Data))
	for i, v := range buf.Data {
		samples[i] = int16(v)
	}

	return samples, int(dec.SampleRate), nil
}
