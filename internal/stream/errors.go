package stream

import "errors"

var (
	ErrEncode = errors.New("event encode failed")
	ErrDecode = errors.New("event decode failed")
	ErrRelay  = errors.New("relay error")
	ErrClosed = errors.New("step presentation closed")
)
