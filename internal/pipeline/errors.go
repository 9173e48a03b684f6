package pipeline

import "errors"

var (
	// ErrPayloadTooLarge indicates a text payload above the configured ceiling.
	ErrPayloadTooLarge = errors.New("payload exceeds maximum size")

	// ErrUploadTooLarge indicates an uploaded blob above the configured limit.
	ErrUploadTooLarge = errors.New("upload exceeds maximum size")

	// ErrEmptyUpload indicates a zero-byte upload.
	ErrEmptyUpload = errors.New("uploaded file is empty")

	// ErrUnknownProfile indicates an unrecognized transmission profile name.
	ErrUnknownProfile = errors.New("unknown transmission profile")

	// ErrSampleRateMismatch indicates a well-formed container recorded at a
	// sample rate the modem cannot demodulate.
	ErrSampleRateMismatch = errors.New("container sample rate does not match the modem")

	// ErrNoSignal indicates well-formed audio that carried no decodable
	// message. This is an expected outcome, not a fault.
	ErrNoSignal = errors.New("no message found in audio")
)
