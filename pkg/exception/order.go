package exception

import "errors"

var (
	ErrOrderInvalidParams = errors.New("order: invalid parameters")
	ErrOrderRejected      = errors.New("order: rejected by exchange")
	ErrOrderTimeout       = errors.New("order: exchange call timed out")
	ErrOrderNotFound      = errors.New("order: not found")
	ErrOrderNotOpen       = errors.New("order: not open")
	ErrOrderDecodeBody    = errors.New("order: decode response body")
)
