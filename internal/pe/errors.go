package pe

import "errors"

// Parse failures fall into two classes. Header-level errors (a file that is
// not a PE image, or one too short to hold its mandatory headers) abort the
// whole analysis. Directory-level errors are recovered locally and recorded
// on the report so partial results from a corrupt binary stay visible.
var (
	// ErrOutOfBounds is returned for any read past the end of the image.
	ErrOutOfBounds = errors.New("read out of bounds")

	// ErrInvalidSignature is returned when the DOS or PE magic is wrong.
	ErrInvalidSignature = errors.New("invalid PE signature")

	// ErrUnsupportedImageFormat is returned when the optional header magic
	// is neither PE32 nor PE32+.
	ErrUnsupportedImageFormat = errors.New("unsupported optional header magic")

	// ErrUnmappedRVA is returned when no section's virtual range contains
	// the requested RVA. Callers treat the owning directory as absent.
	ErrUnmappedRVA = errors.New("RVA not mapped by any section")

	// ErrMalformedResourceTree is returned for a resource subtree that is
	// too deep or points back at an already visited directory.
	ErrMalformedResourceTree = errors.New("malformed resource tree")
)
