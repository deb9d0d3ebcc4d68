package segment

import "errors"

// ErrInvalidConfiguration is wrapped by every error caused by bad parameters
// or a malformed raster. Such errors abort the current image only.
var ErrInvalidConfiguration = errors.New("invalid configuration")
