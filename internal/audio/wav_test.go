package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"testing"
)

func sineSamples(freq float64, sampleRate, n int) []int16 {
	samples := make([]int16, n)
	for i := range samples {
		t := float64(i) / float64(sampleRate)
		samples[i] = int16(16383 * math.Sin(2*math.Pi*freq*t))
	}
	return samples
}

func TestEncodeWAV(t *testing.T) {
	sampleRate := 48000
	samples := sineSamples(440, sampleRate, 4800)

	data, err := EncodeWAV(samples, sampleRate)
	if err != nil {
		t.Fatalf("EncodeWAV failed: %v", err)
	}

	expectedSize := 44 + len(samples)*2
	if len(data) != expectedSize {
		t.Errorf("expected WAV size %d, got %d", expectedSize, len(data))
	}

	if !bytes.Equal(data[0:4], []byte("RIFF")) || !bytes.Equal(data[8:12], []byte("WAVE")) {
		t.Error("generated WAV is missing RIFF/WAVE markers")
	}

	if got := binary.LittleEndian.Uint32(data[24:28]); got != uint32(sampleRate) {
		t.Errorf("expected sample rate %d in header, got %d", sampleRate, got)
	}
}

func TestEncodeWAVDeterministic(t *testing.T) {
	samples := sineSamples(1000, 48000, 960)

	a, err := EncodeWAV(samples, 48000)
	if err != nil {
		t.Fatalf("EncodeWAV failed: %v", err)
	}
	b, err := EncodeWAV(samples, 48000)
	if err != nil {
		t.Fatalf("EncodeWAV failed: %v", err)
	}

	if !bytes.Equal(a, b) {
		t.Error("encoding the same samples twice produced different bytes")
	}
}

func TestWAVRoundTrip(t *testing.T) {
	original := []int16{0, 100, -200, 300, -400, 32767, -32768}
	sampleRate := 48000

	data, err := EncodeWAV(original, sampleRate)
	if err != nil {
		t.Fatalf("EncodeWAV failed: %v", err)
	}

	decoded, decodedRate, err := DecodeWAV(data)
	if err != nil {
		t.Fatalf("DecodeWAV failed: %v", err)
	}

	if decodedRate != sampleRate {
		t.Errorf("expected sample rate %d, got %d", sampleRate, decodedRate)
	}

	if len(decoded) != len(original) {
		t.Fatalf("expected %d samples, got %d", len(original), len(decoded))
	}

	for i, want := range original {
		if decoded[i] != want {
			t.Errorf("sample %d: expected %d, got %d", i, want, decoded[i])
		}
	}
}

func TestEncodeWAVEmptySamples(t *testing.T) {
	data, err := EncodeWAV([]int16{}, 48000)
	if err != nil {
		t.Fatalf("EncodeWAV failed on empty samples: %v", err)
	}

	if len(data) != 44 {
		t.Errorf("expected header-only container of 44 bytes, got %d", len(data))
	}

	decoded, rate, err := DecodeWAV(data)
	if err != nil {
		t.Fatalf("DecodeWAV failed on header-only container: %v", err)
	}
	if len(decoded) != 0 {
		t.Errorf("expected 0 samples, got %d", len(decoded))
	}
	if rate != 48000 {
		t.Errorf("expected sample rate 48000, got %d", rate)
	}
}

func TestEncodeWAVInvalidSampleRate(t *testing.T) {
	if _, err := EncodeWAV([]int16{1, 2, 3}, 0); err == nil {
		t.Error("expected error for zero sample rate")
	}

	if _, err := EncodeWAV([]int16{1, 2, 3}, -48000); err == nil {
		t.Error("expected error for negative sample rate")
	}
}

func TestDecodeWAVGarbage(t *testing.T) {
	blob := []byte{'R', 'I', 'F', 'F', 1, 2, 3, 4, 5, 6}

	_, _, err := DecodeWAV(blob)
	if !errors.Is(err, ErrMalformedContainer) {
		t.Errorf("expected ErrMalformedContainer for garbage blob, got %v", err)
	}
}

func TestDecodeWAVTruncatedHeader(t *testing.T) {
	data, err := EncodeWAV(sineSamples(440, 48000, 480), 48000)
	if err != nil {
		t.Fatalf("EncodeWAV failed: %v", err)
	}

	_, _, err = DecodeWAV(data[:30])
	if !errors.Is(err, ErrMalformedContainer) {
		t.Errorf("expected ErrMalformedContainer for truncated header, got %v", err)
	}
}

func TestDecodeWAVTruncatedData(t *testing.T) {
	data, err := EncodeWAV(sineSamples(440, 48000, 480), 48000)
	if err != nil {
		t.Fatalf("EncodeWAV failed: %v", err)
	}

	// Drop the final sample so the data chunk declares more than it holds.
	_, _, err = DecodeWAV(data[:len(data)-2])
	if !errors.Is(err, ErrMalformedContainer) {
		t.Errorf("expected ErrMalformedContainer for truncated data, got %v", err)
	}
}

func TestDecodeWAVStereoRejected(t *testing.T) {
	data, err := EncodeWAV(sineSamples(440, 48000, 480), 48000)
	if err != nil {
		t.Fatalf("EncodeWAV failed: %v", err)
	}

	// Patch the channel count field to 2.
	binary.LittleEndian.PutUint16(data[22:24], 2)

	_, _, err = DecodeWAV(data)
	if !errors.Is(err, ErrUnsupportedChannelLayout) {
		t.Errorf("expected ErrUnsupportedChannelLayout, got %v", err)
	}
}

func TestDecodeWAVUnsupportedBitDepth(t *testing.T) {
	data, err := EncodeWAV(sineSamples(440, 48000, 480), 48000)
	if err != nil {
		t.Fatalf("EncodeWAV failed: %v", err)
	}

	// Patch the bits-per-sample field to 8.
	binary.LittleEndian.PutUint16(data[34:36], 8)

	_, _, err = DecodeWAV(data)
	if !errors.Is(err, ErrUnsupportedBitDepth) {
		t.Errorf("expected ErrUnsupportedBitDepth, got %v", err)
	}
}

func TestDecodeWAVTrailingChunkSkipped(t *testing.T) {
	samples := []int16{10, -20, 30, -40}
	data, err := EncodeWAV(samples, 48000)
	if err != nil {
		t.Fatalf("EncodeWAV failed: %v", err)
	}

	// Append a LIST metadata chunk after the data chunk and grow the
	// declared RIFF size accordingly.
	trailer := make([]byte, 0, 16)
	trailer = append(trailer, 'L', 'I', 'S', 'T')
	trailer = binary.LittleEndian.AppendUint32(trailer, 8)
	trailer = append(trailer, 'I', 'N', 'F', 'O', 0, 0, 0, 0)

	extended := append(append([]byte{}, data...), trailer...)
	riffSize := binary.LittleEndian.Uint32(extended[4:8]) + uint32(len(trailer))
	binary.LittleEndian.PutUint32(extended[4:8], riffSize)

	decoded, _, err := DecodeWAV(extended)
	if err != nil {
		t.Fatalf("DecodeWAV failed on container with trailing chunk: %v", err)
	}

	if len(decoded) != len(samples) {
		t.Fatalf("expected %d samples, got %d", len(samples), len(decoded))
	}
	for i, want := range samples {
		if decoded[i] != want {
			t.Errorf("sample %d: expected %d, got %d", i, want, decoded[i])
		}
	}
}

func TestDecodeWAVChunkBeforeData(t *testing.T) {
	samples := []int16{1, 2, 3, 4}

	// Hand-build a container with an unknown chunk between fmt and data.
	var buf bytes.Buffer
	junk := []byte{'j', 'u', 'n', 'k', 4, 0, 0, 0, 0xde, 0xad, 0xbe, 0xef}
	dataSize := uint32(len(samples) * 2)

	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, 36+uint32(len(junk))+dataSize)
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1))      // PCM
	binary.Write(&buf, binary.LittleEndian, uint16(1))      // mono
	binary.Write(&buf, binary.LittleEndian, uint32(48000))  // sample rate
	binary.Write(&buf, binary.LittleEndian, uint32(96000))  // byte rate
	binary.Write(&buf, binary.LittleEndian, uint16(2))      // block align
	binary.Write(&buf, binary.LittleEndian, uint16(16))     // bits per sample
	buf.Write(junk)
	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, dataSize)
	binary.Write(&buf, binary.LittleEndian, samples)

	decoded, rate, err := DecodeWAV(buf.Bytes())
	if err != nil {
		t.Fatalf("DecodeWAV failed on container with interior chunk: %v", err)
	}
	if rate != 48000 {
		t.Errorf("expected sample rate 48000, got %d", rate)
	}
	if len(decoded) != len(samples) {
		t.Fatalf("expected %d samples, got %d", len(samples), len(decoded))
	}
}
