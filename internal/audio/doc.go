// Package audio implements the audio container codec: encoding PCM-16
// sample buffers into WAV files and decoding uploaded WAV files back into
// samples. The codec is pure and reentrant; it knows nothing about the modem.
package audio
