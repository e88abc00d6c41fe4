package handlers

import (
	"net/http"

	"github.com/ican-bangcat/LemariLama-sub000/models"

	"github.com/gin-gonic/gin"
)

type productRequest struct {
	Name          string   `json:"name" binding:"required"`
	Description   *string  `json:"description"`
	Price         float64  `json:"price" binding:"required,gt=0"`
	OriginalPrice *float64 `json:"original_price"`
	Category      *string  `json:"category"`
	Sizes         []string `json:"sizes"`
	ImageURL      *string  `json:"image_url"`
	Stock         int      `json:"stock" binding:"min=0"`
}

// GetProducts lists active products. Served from the catalog cache when
// fresh.
func (h *Handler) GetProducts(c *gin.Context) {
	products, err := h.catalog.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products, "count": len(products)})
}

// GetProduct returns a single product, bypassing the cache.
func (h *Handler) GetProduct(c *gin.Context) {
	productID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	product, err := h.catalog.Get(c.Request.Context(), productID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": product})
}

// AdminCreateProduct adds a catalog entry.
func (h *Handler) AdminCreateProduct(c *gin.Context) {
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	product := &models.Product{
		Name:          req.Name,
		Description:   req.Description,
		Price:         req.Price,
		OriginalPrice: req.OriginalPrice,
		Category:      req.Category,
		Sizes:         req.Sizes,
		ImageURL:      req.ImageURL,
		Stock:         req.Stock,
		IsActive:      true,
	}
	if err := h.catalog.Create(c.Request.Context(), product); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"product": product})
}

// AdminUpdateProduct edits a catalog entry.
func (h *Handler) AdminUpdateProduct(c *gin.Context) {
	productID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	product := &models.Product{
		ID:            productID,
		Name:          req.Name,
		Description:   req.Description,
		Price:         req.Price,
		OriginalPrice: req.OriginalPrice,
		Category:      req.Category,
		Sizes:         req.Sizes,
		ImageURL:      req.ImageURL,
		Stock:         req.Stock,
	}
	if err := h.catalog.Update(c.Request.Context(), product); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": product})
}

// AdminArchiveProduct deactivates a product. Existing orders keep their
// snapshots; the product stops appearing in listings and carts.
func (h *Handler) AdminArchiveProduct(c *gin.Context) {
	productID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.catalog.Archive(c.Request.Context(), productID); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product archived"})
}

// AdminUploadProductImage uploads a product photo and returns its URL.
func (h *Handler) AdminUploadProductImage(c *gin.Context) {
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

	result, err := h.uploads.UploadImage(c.Request.Context(), file, "products")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upload image"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": result.SecureURL})
}
