package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// GetCart returns the user's cart lines with a computed total.
func (h *Handler) GetCart(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	items, total, err := h.carts.List(c.Request.Context(), userID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"items": items,
		"total": total,
		"count": len(items),
	})
}

// AddToCart adds a product to the cart, merging quantities when the same
// product and size is already present.
func (h *Handler) AddToCart(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	var req struct {
		ProductID uuid.UUID `json:"product_id" binding:"required"`
		Quantity  int       `json:"quantity" binding:"required,min=1"`
		Size      *string   `json:"size"`
		Notes     *string   `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	item, err := h.carts.Add(c.Request.Context(), userID, req.ProductID, req.Quantity, req.Size, req.Notes)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"item": item})
}

// UpdateCartItem changes the quantity of a cart line. Quantity zero
// removes the line.
func (h *Handler) UpdateCartItem(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	itemID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		Quantity *int `json:"quantity" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	if err := h.carts.UpdateQuantity(c.Request.Context(), userID, itemID, *req.Quantity); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Cart updated"})
}

// RemoveCartItem deletes a single cart line.
func (h *Handler) RemoveCartItem(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	itemID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.carts.Remove(c.Request.Context(), userID, itemID); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Item removed from cart"})
}

// ClearCart empties the user's cart.
func (h *Handler) ClearCart(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	if err := h.carts.Clear(c.Request.Context(), userID); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Cart cleared"})
}

// GetCartCount returns the number of cart lines, for badge display.
func (h *Handler) GetCartCount(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	count, err := h.carts.Count(c.Request.Context(), userID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}
