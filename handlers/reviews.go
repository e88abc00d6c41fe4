package handlers

import (
	"net/http"

	"github.com/ican-bangcat/LemariLama-sub000/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// GetProductReviews lists reviews for a product with the average rating.
// Public endpoint.
func (h *Handler) GetProductReviews(c *gin.Context) {
	productID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	page, limit := paginationParams(c)

	reviews, avg, total, err := h.reviews.ListByProduct(c.Request.Context(), productID, page, limit)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"reviews":        reviews,
		"average_rating": avg,
		"total":          total,
		"page":           page,
		"limit":          limit,
	})
}

// CanReviewProduct reports whether the user may review the product, and
// which delivered order qualifies.
func (h *Handler) CanReviewProduct(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	productID, ok := parseUUIDParam(c, "productId")
	if !ok {
		return
	}

	var orderID *uuid.UUID
	if raw := c.Query("order_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order_id"})
			return
		}
		orderID = &id
	}

	allowed, resolvedOrder, err := h.reviews.CanReview(c.Request.Context(), userID, productID, orderID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"can_review": allowed,
		"order_id":   resolvedOrder,
	})
}

// CreateReview submits a review for a product from a delivered order.
func (h *Handler) CreateReview(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	var req struct {
		ProductID  uuid.UUID `json:"product_id" binding:"required"`
		OrderID    uuid.UUID `json:"order_id" binding:"required"`
		Rating     int       `json:"rating" binding:"required,min=1,max=5"`
		ReviewText *string   `json:"review_text"`
		Images     []string  `json:"images"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	review, err := h.reviews.Submit(c.Request.Context(), userID, services.SubmitReviewInput{
		ProductID:  req.ProductID,
		OrderID:    req.OrderID,
		Rating:     req.Rating,
		ReviewText: req.ReviewText,
		Images:     req.Images,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"review": review})
}

// UpdateReview edits the author's own review.
func (h *Handler) UpdateReview(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	reviewID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		Rating     int      `json:"rating" binding:"required,min=1,max=5"`
		ReviewText *string  `json:"review_text"`
		Images     []string `json:"images"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	if err := h.reviews.Update(c.Request.Context(), userID, reviewID, req.Rating, req.ReviewText, req.Images); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Review updated"})
}

// DeleteReview removes the author's own review.
func (h *Handler) DeleteReview(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	reviewID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.reviews.Delete(c.Request.Context(), userID, reviewID); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Review deleted"})
}

// UploadReviewImage uploads one review photo and returns its URL. The
// client attaches the URLs when submitting the review.
func (h *Handler) UploadReviewImage(c *gin.Context) {
	if _, ok := h.userID(c); !ok {
		return
	}
	if h.uploads == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Image upload is not configured"})
		return
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Image required"})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read uploaded file"})
		return
	}
	defer file.Close()

	result, err := h.uploads.UploadImage(c.Request.Context(), file, "reviews")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upload image"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": result.SecureURL})
}
