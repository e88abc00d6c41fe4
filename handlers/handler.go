package handlers

import (
	"database/sql"

	"github.com/ican-bangcat/LemariLama-sub000/config"
	"github.com/ican-bangcat/LemariLama-sub000/services"

	"go.uber.org/zap"
)

// Handler carries the services the HTTP layer dispatches into. Everything
// is injected at construction; there is no package-level state.
type Handler struct {
	cfg       *config.Config
	log       *zap.Logger
	db        *sql.DB
	carts     *services.CartService
	wishlist  *services.WishlistService
	orders    *services.OrderService
	reviews   *services.ReviewService
	addresses *services.AddressService
	catalog   *services.CatalogService
	uploads   *services.CloudinaryService
}

// New builds the handler set. uploads may be nil when no Cloudinary
// credentials are configured; upload endpoints then report unavailable.
func New(
	cfg *config.Config,
	log *zap.Logger,
	db *sql.DB,
	carts *services.CartService,
	wishlist *services.WishlistService,
	orders *services.OrderService,
	reviews *services.ReviewService,
	addresses *services.AddressService,
	catalog *services.CatalogService,
	uploads *services.CloudinaryService,
) *Handler {
	return &Handler{
		cfg:       cfg,
		log:       log,
		db:        db,
		carts:     carts,
		wishlist:  wishlist,
		orders:    orders,
		reviews:   reviews,
		addresses: addresses,
		catalog:   catalog,
		uploads:   uploads,
	}
}
