package model

import "errors"

// Error sentinels shared by every package of the reader. Callers test for
// them with errors.Is; the wrapping message carries the details.
var (
	// ErrNotFound indicates a missing metadata document, source file, or metadata entry.
	ErrNotFound = errors.New("not found")

	// ErrMalformed indicates a metadata record that lacks required fields.
	ErrMalformed = errors.New("malformed metadata")

	// ErrInvalidArgument indicates an unsupported or contradictory argument.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUnrecognized indicates a tag that no reader category claims.
	ErrUnrecognized = errors.New("unrecognized tag")

	// ErrDuplicateRegistration indicates two reader categories claiming the same tag.
	ErrDuplicateRegistration = errors.New("duplicate reader registration")

	// ErrReaderContract indicates a reader that returned neither a raster plane nor a table fragment.
	ErrReaderContract = errors.New("reader contract violation")

	// ErrInvalidState indicates an operation that the current product state cannot satisfy.
	ErrInvalidState = errors.New("invalid state")

	// ErrDecode indicates a band file that could not be decoded.
	ErrDecode = errors.New("decode error")
)
