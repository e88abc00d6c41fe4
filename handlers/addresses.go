package handlers

import (
	"net/http"

	"github.com/ican-bangcat/LemariLama-sub000/models"

	"github.com/gin-gonic/gin"
)

type addressRequest struct {
	Label         string  `json:"label" binding:"required"`
	RecipientName string  `json:"recipient_name" binding:"required"`
	Phone         string  `json:"phone" binding:"required"`
	AddressLine1  string  `json:"address_line1" binding:"required"`
	AddressLine2  *string `json:"address_line2"`
	City          string  `json:"city" binding:"required"`
	State         string  `json:"state"`
	PostalCode    string  `json:"postal_code"`
	Country       string  `json:"country"`
	IsDefault     bool    `json:"is_default"`
}

// GetAddresses lists the user's address book, default first.
func (h *Handler) GetAddresses(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	addresses, err := h.addresses.List(c.Request.Context(), userID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"addresses": addresses})
}

// GetAddress returns one address book entry.
func (h *Handler) GetAddress(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	addressID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	address, err := h.addresses.Get(c.Request.Context(), userID, addressID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"address": address})
}

// CreateAddress adds an address book entry. The user's first address
// becomes the default automatically.
func (h *Handler) CreateAddress(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	var req addressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	address := &models.Address{
		UserID:        userID,
		Label:         req.Label,
		RecipientName: req.RecipientName,
		Phone:         req.Phone,
		AddressLine1:  req.AddressLine1,
		AddressLine2:  req.AddressLine2,
		City:          req.City,
		State:         req.State,
		PostalCode:    req.PostalCode,
		Country:       req.Country,
		IsDefault:     req.IsDefault,
	}
	if err := h.addresses.Create(c.Request.Context(), address); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"address": address})
}

// UpdateAddress edits an existing address book entry.
func (h *Handler) UpdateAddress(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	addressID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req addressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	address := &models.Address{
		ID:            addressID,
		UserID:        userID,
		Label:         req.Label,
		RecipientName: req.RecipientName,
		Phone:         req.Phone,
		AddressLine1:  req.AddressLine1,
		AddressLine2:  req.AddressLine2,
		City:          req.City,
		State:         req.State,
		PostalCode:    req.PostalCode,
		Country:       req.Country,
	}
	if err := h.addresses.Update(c.Request.Context(), address); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"address": address})
}

// DeleteAddress removes an address book entry.
func (h *Handler) DeleteAddress(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	addressID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.addresses.Delete(c.Request.Context(), userID, addressID); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Address deleted"})
}

// SetDefaultAddress marks one entry as the default shipping address.
func (h *Handler) SetDefaultAddress(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	addressID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.addresses.SetDefault(c.Request.Context(), userID, addressID); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Default address updated"})
}
