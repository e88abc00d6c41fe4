package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// GetWishlist lists the user's wishlist with product details.
func (h *Handler) GetWishlist(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	items, err := h.wishlist.List(c.Request.Context(), userID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "count": len(items)})
}

// GetWishlistIDs returns just the product ids, for marking hearts in
// product listings.
func (h *Handler) GetWishlistIDs(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	ids, err := h.wishlist.IDs(c.Request.Context(), userID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"product_ids": ids})
}

// AddToWishlist adds a product. Duplicate adds are rejected.
func (h *Handler) AddToWishlist(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	var req struct {
		ProductID uuid.UUID `json:"product_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	item, err := h.wishlist.Add(c.Request.Context(), userID, req.ProductID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"item": item})
}

// ToggleWishlist adds the product when absent, removes it when present.
func (h *Handler) ToggleWishlist(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	productID, ok := parseUUIDParam(c, "productId")
	if !ok {
		return
	}

	added, err := h.wishlist.Toggle(c.Request.Context(), userID, productID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"in_wishlist": added})
}

// RemoveFromWishlist removes a product from the wishlist.
func (h *Handler) RemoveFromWishlist(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	productID, ok := parseUUIDParam(c, "productId")
	if !ok {
		return
	}

	if err := h.wishlist.Remove(c.Request.Context(), userID, productID); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Removed from wishlist"})
}

// ClearWishlist removes every wishlist entry for the user.
func (h *Handler) ClearWishlist(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	if err := h.wishlist.Clear(c.Request.Context(), userID); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Wishlist cleared"})
}

// MoveWishlistToCart moves a product into the cart and drops the
// wishlist entry, in one transaction.
func (h *Handler) MoveWishlistToCart(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	productID, ok := parseUUIDParam(c, "productId")
	if !ok {
		return
	}

	var req struct {
		Quantity int     `json:"quantity"`
		Size     *string `json:"size"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	item, err := h.wishlist.MoveToCart(c.Request.Context(), userID, productID, req.Quantity, req.Size)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"item": item})
}
