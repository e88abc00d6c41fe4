package handlers

import (
	"database/sql"
	"net/http"
	"strings"
	"time"

	"github.com/ican-bangcat/LemariLama-sub000/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// RegisterUser creates an account from phone + password.
func (h *Handler) RegisterUser(c *gin.Context) {
	var req struct {
		Phone    string  `json:"phone" binding:"required,min=9,max=15"`
		Password string  `json:"password" binding:"required,min=6"`
		FullName string  `json:"full_name" binding:"required"`
		Email    *string `json:"email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	var exists bool
	err := h.db.QueryRowContext(c.Request.Context(),
		`SELECT EXISTS(SELECT 1 FROM users WHERE phone = $1)`, req.Phone,
	).Scan(&exists)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if exists {
		c.JSON(http.StatusConflict, gin.H{"error": "Phone number already registered"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}

	userID := uuid.New()
	now := time.Now()
	_, err = h.db.ExecContext(c.Request.Context(),
		`INSERT INTO users (id, phone, email, full_name, password_hash, role, is_active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, 'customer', true, $6, $6)`,
		userID, req.Phone, req.Email, req.FullName, string(hash), now,
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}

	token, err := h.generateJWT(userID.String(), req.Phone)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	h.log.Info("user registered", zap.String("user_id", userID.String()))
	c.JSON(http.StatusCreated, gin.H{
		"token": token,
		"user": gin.H{
			"id":        userID,
			"phone":     req.Phone,
			"full_name": req.FullName,
		},
	})
}

// LoginUser authenticates by phone + password and returns a JWT.
func (h *Handler) LoginUser(c *gin.Context) {
	var req struct {
		Phone    string `json:"phone" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	var user models.User
	err := h.db.QueryRowContext(c.Request.Context(),
		`SELECT id, phone, full_name, password_hash, role, is_active FROM users WHERE phone = $1`,
		req.Phone,
	).Scan(&user.ID, &user.Phone, &user.FullName, &user.PasswordHash, &user.Role, &user.IsActive)
	if err == sql.ErrNoRows {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid phone or password"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	if !user.IsActive {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Account is deactivated"})
		return
	}
	if user.PasswordHash == nil ||
		bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(req.Password)) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid phone or password"})
		return
	}

	phone := ""
	if user.Phone != nil {
		phone = *user.Phone
	}
	token, err := h.generateJWT(user.ID.String(), phone)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user": gin.H{
			"id":        user.ID,
			"phone":     user.Phone,
			"full_name": user.FullName,
			"role":      user.Role,
		},
	})
}

// UpdatePushToken stores the device push token for order notifications.
func (h *Handler) UpdatePushToken(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	var req struct {
		PushToken string `json:"push_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	if _, err := h.db.ExecContext(c.Request.Context(),
		`UPDATE users SET push_token = $1, updated_at = $2 WHERE id = $3`,
		req.PushToken, time.Now(), userID,
	); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update push token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Push token updated"})
}

// AuthMiddleware validates JWT bearer tokens and stores user_id in the
// gin context.
func (h *Handler) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}
		if !strings.HasPrefix(authHeader, "Bearer ") {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization format"})
			c.Abort()
			return
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
			return []byte(h.cfg.JWTSecret), nil
		})
		if err != nil || !token.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			c.Abort()
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("user_phone", claims.Phone)
		c.Next()
	}
}

// AdminMiddleware requires the authenticated user to have the admin role.
// Runs after AuthMiddleware.
func (h *Handler) AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString("user_id")
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
			c.Abort()
			return
		}

		var role string
		err := h.db.QueryRowContext(c.Request.Context(),
			`SELECT role FROM users WHERE id = $1 AND is_active = true`, userID,
		).Scan(&role)
		if err != nil || role != "admin" {
			c.JSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			c.Abort()
			return
		}
		c.Next()
	}
}
