package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/ikkim/cosmetica-backend/internal/app/service"
	apperrors "github.com/ikkim/cosmetica-backend/internal/errors"
	"github.com/ikkim/cosmetica-backend/internal/middleware"
	"github.com/ikkim/cosmetica-backend/internal/pricing"
	ws "github.com/ikkim/cosmetica-backend/internal/websocket"
)

type CartController struct {
	cartService service.CartService
	hub         *ws.Hub
	upgrader    websocket.Upgrader
}

func NewCartController(cartService service.CartService, hub *ws.Hub, allowedOrigins []string) *CartController {
	return &CartController{
		cartService: cartService,
		hub:         hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				for _, allowed := range allowedOrigins {
					if allowed == "*" || allowed == origin {
						return true
					}
				}
				return false
			},
		},
	}
}

type AddToCartRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Variant   string `json:"variant"`
	Quantity  int    `json:"quantity" binding:"required,gt=0"`
}

// UpdateCartItemRequest sets a line's quantity; zero removes the line
type UpdateCartItemRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

// GetCart returns the session cart
// GET /api/v1/cart
func (ctrl *CartController) GetCart(c *gin.Context) {
	state, err := ctrl.cartService.GetCart(c.Request.Context(), middleware.GetCartKey(c))
	if err != nil {
		respondServiceError(c, err, "get cart")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"cart": state,
	})
}

// GetItemCount returns the number of units for the header badge
// GET /api/v1/cart/count
func (ctrl *CartController) GetItemCount(c *gin.Context) {
	count, err := ctrl.cartService.GetItemCount(c.Request.Context(), middleware.GetCartKey(c))
	if err != nil {
		respondServiceError(c, err, "get cart count")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"count": count,
	})
}

// AddItem adds a product to the cart, pricing it from the catalog
// POST /api/v1/cart/items
func (ctrl *CartController) AddItem(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid add to cart request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Product and a quantity of at least 1 are required")
		return
	}

	key := middleware.GetCartKey(c)
	state, err := ctrl.cartService.AddToCart(c.Request.Context(), key, service.AddToCartInput{
		ProductID: req.ProductID,
		Variant:   req.Variant,
		Quantity:  req.Quantity,
	})
	if err != nil {
		respondServiceError(c, err, "add to cart")
		return
	}

	log.Info("Item added to cart", map[string]interface{}{
		"cart_key":   key,
		"product_id": req.ProductID,
		"item_count": state.ItemCount,
	})

	c.JSON(http.StatusOK, gin.H{
		"message": "Item added to cart",
		"cart":    state,
	})
}

// UpdateItem changes a line's quantity
// PUT /api/v1/cart/items/:id
func (ctrl *CartController) UpdateItem(c *gin.Context) {
	var req UpdateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Quantity is required")
		return
	}

	state, err := ctrl.cartService.UpdateQuantity(c.Request.Context(), middleware.GetCartKey(c), c.Param("id"), *req.Quantity)
	if err != nil {
		respondServiceError(c, err, "update cart item")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"cart": state,
	})
}

// RemoveItem drops a line from the cart
// DELETE /api/v1/cart/items/:id
func (ctrl *CartController) RemoveItem(c *gin.Context) {
	state, err := ctrl.cartService.RemoveFromCart(c.Request.Context(), middleware.GetCartKey(c), c.Param("id"))
	if err != nil {
		respondServiceError(c, err, "remove cart item")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"cart": state,
	})
}

// ClearCart empties the cart
// DELETE /api/v1/cart
func (ctrl *CartController) ClearCart(c *gin.Context) {
	if err := ctrl.cartService.ClearCart(c.Request.Context(), middleware.GetCartKey(c)); err != nil {
		respondServiceError(c, err, "clear cart")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart cleared",
	})
}

// Quote prices the cart for a shipping method
// GET /api/v1/cart/quote?method=
func (ctrl *CartController) Quote(c *gin.Context) {
	method, err := pricing.ParseShippingMethod(c.DefaultQuery("method", string(pricing.ShippingStorePickup)))
	if err != nil {
		respondServiceError(c, err, "quote cart")
		return
	}

	quote, err := ctrl.cartService.Quote(c.Request.Context(), middleware.GetCartKey(c), method)
	if err != nil {
		respondServiceError(c, err, "quote cart")
		return
	}

	c.JSON(http.StatusOK, quote)
}

// Stream pushes the cart to the browser on every change
// GET /api/v1/cart/ws
func (ctrl *CartController) Stream(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	key := middleware.GetCartKey(c)

	conn, err := ctrl.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn("Failed to upgrade to WebSocket", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	if err := ws.NewClient(ctrl.hub, conn, key).Serve(c.Request.Context()); err != nil {
		log.Error("Failed to attach cart stream", err, map[string]interface{}{
			"cart_key": key,
		})
	}
}
