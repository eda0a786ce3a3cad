package manifest

import "errors"

var (
	ErrMalformedManifest = errors.New("malformed manifest")
	ErrMissingDep        = errors.New("missing dependency declaration")
	ErrEmptyCmd          = errors.New("step has empty cmd")
	ErrOrphanStep        = errors.New("parent step has not been emitted")
)
