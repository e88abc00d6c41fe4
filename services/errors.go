package services

import "errors"

var (
	ErrNotFound          = errors.New("record not found")
	ErrProductInactive   = errors.New("product not found or inactive")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidQuantity   = errors.New("quantity must be at least 1")

	ErrAlreadyInWishlist = errors.New("product already in wishlist")

	ErrEmptyOrder           = errors.New("order has no items")
	ErrMissingAddress       = errors.New("shipping address is required")
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
	ErrInvalidDiscount      = errors.New("discount must be between zero and the subtotal")
	ErrCannotCancel         = errors.New("order can no longer be cancelled")
	ErrInvalidTransition    = errors.New("invalid order status transition")
	ErrProofNotAccepted     = errors.New("payment proof not accepted for this payment method")

	ErrInvalidRating     = errors.New("rating must be between 1 and 5")
	ErrNotDelivered      = errors.New("order has not been delivered")
	ErrProductNotInOrder = errors.New("product is not part of this order")
	ErrAlreadyReviewed   = errors.New("product already reviewed for this order")
)
