// Package modem implements the acoustic FSK modem: modulating byte payloads
// into PCM-16 sample buffers and incrementally recovering payloads from
// captured sample streams. Frames carry a chirp preamble for detection, a
// 16-bit length header, the payload, and a CRC-8 trailer.
//
// A Modulator is pure and safe for concurrent use. A Decoder carries mutable
// detector state and must not be shared between goroutines; serialization is
// the caller's responsibility.
package modem
