package handlers

import (
	"net/http"
	"strconv"

	"github.com/ican-bangcat/LemariLama-sub000/models"
	"github.com/ican-bangcat/LemariLama-sub000/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type orderLineRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Quantity  int       `json:"quantity" binding:"required,min=1"`
	Size      *string   `json:"size"`
}

// CreateOrder places an order from the submitted lines. The shipping
// address comes either from an address book entry (address_id) or as an
// inline snapshot. Stock is decremented and the matching cart lines are
// removed in the same transaction.
func (h *Handler) CreateOrder(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	var req struct {
		Items           []orderLineRequest      `json:"items" binding:"required"`
		AddressID       *uuid.UUID              `json:"address_id"`
		ShippingAddress *models.ShippingAddress `json:"shipping_address"`
		PaymentMethod   string                  `json:"payment_method" binding:"required"`
		Notes           *string                 `json:"notes"`
		DiscountAmount  float64                 `json:"discount_amount"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	shipping := req.ShippingAddress
	if req.AddressID != nil {
		address, err := h.addresses.Get(c.Request.Context(), userID, *req.AddressID)
		if err != nil {
			h.fail(c, err)
			return
		}
		snapshot := address.Snapshot()
		shipping = &snapshot
	}

	lines := make([]services.OrderLine, 0, len(req.Items))
	for _, it := range req.Items {
		lines = append(lines, services.OrderLine{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Size:      it.Size,
		})
	}

	order, err := h.orders.Place(c.Request.Context(), userID, services.PlaceOrderInput{
		Lines:           lines,
		ShippingAddress: shipping,
		PaymentMethod:   req.PaymentMethod,
		Notes:           req.Notes,
		DiscountAmount:  req.DiscountAmount,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"order": order})
}

// GetOrders lists the user's orders, newest first, with optional status
// filter and pagination.
func (h *Handler) GetOrders(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	page, limit := paginationParams(c)

	orders, total, err := h.orders.ListByUser(c.Request.Context(), userID, c.Query("status"), page, limit)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"orders": orders,
		"total":  total,
		"page":   page,
		"limit":  limit,
	})
}

// GetOrder returns one of the user's orders with its items.
func (h *Handler) GetOrder(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	orderID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	order, err := h.orders.Get(c.Request.Context(), userID, orderID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}

// TrackOrder looks an order up by its human-readable order number.
func (h *Handler) TrackOrder(c *gin.Context) {
	orderNumber := c.Param("orderNumber")
	if orderNumber == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Order number required"})
		return
	}

	order, err := h.orders.GetByNumber(c.Request.Context(), orderNumber)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"order_number":   order.OrderNumber,
		"status":         order.Status,
		"payment_status": order.PaymentStatus,
		"created_at":     order.CreatedAt,
		"updated_at":     order.UpdatedAt,
	})
}

// CancelOrder lets the customer cancel an order that is still pending.
// Reserved stock is restored.
func (h *Handler) CancelOrder(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	orderID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.orders.Cancel(c.Request.Context(), userID, orderID); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Order cancelled"})
}

// ConfirmDelivery lets the customer mark a shipped order as delivered.
func (h *Handler) ConfirmDelivery(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	orderID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.orders.ConfirmDelivery(c.Request.Context(), userID, orderID); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Delivery confirmed"})
}

// UploadPaymentProof accepts a transfer receipt image, uploads it to
// Cloudinary and attaches the URL to the order.
func (h *Handler) UploadPaymentProof(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	orderID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	if h.uploads == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Image upload is not configured"})
		return
	}

	fileHeader, err := c.FormFile("proof")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Proof image required"})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read uploaded file"})
		return
	}
	defer file.Close()

	result, err := h.uploads.UploadImage(c.Request.Context(), file, "payment_proofs")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upload image"})
		return
	}

	if err := h.orders.AttachPaymentProof(c.Request.Context(), userID, orderID, result.SecureURL); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":   "Payment proof uploaded",
		"proof_url": result.SecureURL,
	})
}

// AdminGetOrders lists all orders across users.
func (h *Handler) AdminGetOrders(c *gin.Context) {
	page, limit := paginationParams(c)

	orders, total, err := h.orders.AdminList(c.Request.Context(), c.Query("status"), page, limit)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"orders": orders,
		"total":  total,
		"page":   page,
		"limit":  limit,
	})
}

// AdminUpdateOrderStatus advances an order along the fulfilment flow.
func (h *Handler) AdminUpdateOrderStatus(c *gin.Context) {
	orderID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	if err := h.orders.AdminUpdateStatus(c.Request.Context(), orderID, req.Status); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Order status updated"})
}

// AdminUpdatePaymentStatus marks a payment as paid, failed or refunded.
func (h *Handler) AdminUpdatePaymentStatus(c *gin.Context) {
	orderID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		PaymentStatus string `json:"payment_status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	if err := h.orders.UpdatePaymentStatus(c.Request.Context(), orderID, req.PaymentStatus); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Payment status updated"})
}

func paginationParams(c *gin.Context) (page, limit int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}
