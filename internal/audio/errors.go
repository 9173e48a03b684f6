package audio

import "errors"

var (
	// ErrMalformedContainer indicates a truncated header, unrecognized
	// format tag, or a declared data length exceeding the actual bytes.
	ErrMalformedContainer = errors.New("malformed audio container")

	// ErrUnsupportedBitDepth indicates a well-formed container whose
	// sample format is not 16-bit PCM.
	ErrUnsupportedBitDepth = errors.New("unsupported bit depth")

	// ErrUnsupportedChannelLayout indicates a container with more than
	// one channel. The modem only accepts mono input.
	ErrUnsupportedChannelLayout = errors.New("unsupported channel layout")
)
