package service

import "errors"

var (
	ErrEmptyCart           = errors.New("cart is empty, nothing to checkout")
	ErrInvalidAddress      = errors.New("shipping address is missing required fields")
	IllegalTransitionError = errors.New("illegal transition of order status")
)
