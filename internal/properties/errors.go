package properties

import "errors"

var (
	// ErrDecode is wrapped around any mapstructure decode failure, with
	// the offending target named in the wrapping message.
	ErrDecode = errors.New("properties: decode failed")
)
