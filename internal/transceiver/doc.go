// Package transceiver is the modem adapter: it owns a pool of modem
// instances and serializes all modulate/demodulate calls through it, so no
// two requests ever observe interleaved decoder state. Acquisition waits are
// bounded, long decodes are bounded by a timeout, and instances are reset
// before reuse.
package transceiver
