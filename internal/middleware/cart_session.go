package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/ikkim/cosmetica-backend/internal/app/service"
	"github.com/ikkim/cosmetica-backend/internal/cart"
	"github.com/ikkim/cosmetica-backend/pkg/logger"
)

const CartKeyContextKey = "cart_key"

// CartMerger folds a guest cart into a signed-in user's cart
type CartMerger interface {
	MergeCarts(ctx context.Context, fromKey, toKey string) (cart.State, error)
}

type CartSessionConfig struct {
	CookieName string
	MaxAge     time.Duration
	Secure     bool
}

// CartSession resolves the cart key for the request. Signed-in shoppers use
// their user id; guests get a random id in a cookie. When a guest signs in,
// the guest cart is merged into theirs and the cookie dropped.
// Must run after OptionalAuthenticate.
func CartSession(cfg CartSessionConfig, merger CartMerger) gin.HandlerFunc {
	maxAge := int(cfg.MaxAge.Seconds())

	return func(c *gin.Context) {
		log := GetLoggerFromContext(c)

		guestID := ""
		if v, err := c.Cookie(cfg.CookieName); err == nil {
			if _, err := uuid.Parse(v); err == nil {
				guestID = v
			}
		}

		c.SetSameSite(http.SameSiteLaxMode)

		if userID, ok := GetUserID(c); ok {
			key := service.UserCartKey(userID)
			log = useCartKey(c, log, key)
			if guestID != "" {
				if _, err := merger.MergeCarts(c.Request.Context(), service.GuestCartKey(guestID), key); err != nil {
					log.Error("Failed to merge guest cart", err, map[string]interface{}{
						"user_id": userID,
					})
				} else {
					c.SetCookie(cfg.CookieName, "", -1, "/", "", cfg.Secure, true)
				}
			}
			c.Set(CartKeyContextKey, key)
			c.Next()
			return
		}

		if guestID == "" {
			guestID = uuid.NewString()
			log.Debug("Issued guest cart session", nil)
		}
		// refresh on every visit so active carts do not expire
		c.SetCookie(cfg.CookieName, guestID, maxAge, "/", "", cfg.Secure, true)
		key := service.GuestCartKey(guestID)
		useCartKey(c, log, key)
		c.Set(CartKeyContextKey, key)
		c.Next()
	}
}

// useCartKey scopes the request logger to the cart so handler logs carry it
func useCartKey(c *gin.Context, log *logger.Logger, key string) *logger.Logger {
	scoped := log.WithContext(map[string]interface{}{"cart_key": key})
	c.Set("logger", scoped)
	return scoped
}

// GetCartKey returns the cart key resolved by CartSession
func GetCartKey(c *gin.Context) string {
	return c.GetString(CartKeyContextKey)
}
