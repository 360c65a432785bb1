package cache

import "errors"

var (
	ErrNotFound           = errors.New("cache: entry not found")
	ErrClosed             = errors.New("cache: closed")
	ErrEncode             = errors.New("cache: failed to encode value")
	ErrDecode             = errors.New("cache: failed to decode value")
	ErrEmptyConnectionURL = errors.New("cache: empty redis connection URL")
	ErrFailedToParseURL   = errors.New("cache: failed to parse redis connection URL")
	ErrConnectionFailed   = errors.New("cache: failed to connect to redis")
)
