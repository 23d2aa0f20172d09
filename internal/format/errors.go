package format

import (
	"errors"
	"fmt"
)

var (
	// ErrHeaderMismatch reports input that does not start with a known
	// header, including input too short to hold one.
	ErrHeaderMismatch = errors.New("format: not a recognized scene file")
	// ErrDecompress reports a malformed gzip stream.
	ErrDecompress = errors.New("format: corrupt compressed payload")
	// ErrDeserialize reports a payload that does not match the schema of
	// its declared version.
	ErrDeserialize = errors.New("format: payload does not match schema")
	// ErrUnsupportedVersion is matched by every *UnsupportedVersionError.
	ErrUnsupportedVersion = errors.New("format: unsupported version")
)

// UnsupportedVersionError reports a version byte outside the upgrade chain.
type UnsupportedVersionError struct {
	Version uint8
}

func (e *UnsupportedVersionError) Error() string {
	return fmt.Sprintf("format: unsupported version %d (newest known is %d)", e.Version, CurrentVersion)
}

func (e *UnsupportedVersionError) Is(target error) bool {
	return target == ErrUnsupportedVersion
}
