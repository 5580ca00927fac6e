package supres

import "errors"

var (
	// ErrUsage is returned for malformed command-line input.
	ErrUsage = errors.New("usage error")

	// ErrInvalidWeightSet is returned for weight-set names outside the known set.
	ErrInvalidWeightSet = errors.New("invalid weight set")

	// ErrDecode is returned when a source file can't be read or decoded.
	ErrDecode = errors.New("decode image")

	// ErrInference wraps failures of the model itself.
	ErrInference = errors.New("model inference")

	// ErrWrite is returned when the result can't be encoded or written.
	ErrWrite = errors.New("write image")

	// ErrModelUnavailable signals that the backend could not provide the requested model.
	ErrModelUnavailable = errors.New("model unavailable")

	// ErrPartialFailure is returned by a keep-going batch in which some files failed.
	ErrPartialFailure = errors.New("some images failed")
)
