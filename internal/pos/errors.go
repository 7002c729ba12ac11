package pos

import "errors"

var (
	ErrInvalidQuantity   = errors.New("quantity must be a positive integer")
	ErrStockInsufficient = errors.New("requested quantity exceeds available stock")
	ErrLineNotFound      = errors.New("cart line not found")
	ErrDanglingFreeLine  = errors.New("free line references a missing paid line")
	ErrEmptyCart         = errors.New("cart has no paid lines, nothing to finalize")
)
