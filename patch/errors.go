package patch

import "errors"

// ErrUnsupportedVersion is returned when a patch container declares a
// patchVersion this package does not know how to read.
var ErrUnsupportedVersion = errors.New("patch: unsupported patch version")

// ErrUnexpectedDirective is returned when the first directive of a
// patch stream is not BEGIN, or when a directive tag is out of range.
var ErrUnexpectedDirective = errors.New("patch: unexpected directive")
