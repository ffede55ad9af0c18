package service

import (
	"context"
	"errors"

	"github.com/ikkim/cosmetica-backend/internal/app/repository"
	"github.com/ikkim/cosmetica-backend/internal/cart"
	"github.com/ikkim/cosmetica-backend/internal/pricing"
	"github.com/ikkim/cosmetica-backend/pkg/logger"
	"github.com/ikkim/cosmetica-backend/pkg/metrics"
	"github.com/ikkim/cosmetica-backend/pkg/money"
	"gorm.io/gorm"
)

const (
	userCartPrefix  = "user:"
	guestCartPrefix = "guest:"
)

// UserCartKey is the session key of a signed-in shopper's cart
func UserCartKey(userID string) string {
	return userCartPrefix + userID
}

// GuestCartKey is the session key of an anonymous cart
func GuestCartKey(sessionID string) string {
	return guestCartPrefix + sessionID
}

type AddToCartInput struct {
	ProductID string
	Variant   string
	Quantity  int
}

// CartQuote is the cart together with its shipping quote
type CartQuote struct {
	Cart                 cart.State    `json:"cart"`
	Quote                pricing.Quote `json:"quote"`
	AmountToFreeShipping money.Amount  `json:"amount_to_free_shipping"`
}

type CartService interface {
	GetCart(ctx context.Context, key string) (cart.State, error)
	GetItemCount(ctx context.Context, key string) (int, error)
	AddToCart(ctx context.Context, key string, input AddToCartInput) (cart.State, error)
	UpdateQuantity(ctx context.Context, key, lineID string, quantity int) (cart.State, error)
	RemoveFromCart(ctx context.Context, key, lineID string) (cart.State, error)
	ClearCart(ctx context.Context, key string) error
	Quote(ctx context.Context, key string, method pricing.ShippingMethod) (*CartQuote, error)
	Subscribe(ctx context.Context, key string, fn cart.Listener) (cart.State, func(), error)
	MergeCarts(ctx context.Context, fromKey, toKey string) (cart.State, error)
}

type cartService struct {
	registry    *cart.Registry
	productRepo repository.ProductRepository
	rates       pricing.Rates
	metrics     *metrics.StoreMetrics
}

func NewCartService(
	registry *cart.Registry,
	productRepo repository.ProductRepository,
	rates pricing.Rates,
	m *metrics.StoreMetrics,
) CartService {
	return &cartService{
		registry:    registry,
		productRepo: productRepo,
		rates:       rates,
		metrics:     m,
	}
}

func (s *cartService) open(ctx context.Context, key string) (*cart.Store, error) {
	store, err := s.registry.Open(ctx, key)
	if err != nil {
		logger.Error("Failed to open cart", err, map[string]interface{}{
			"cart_key": key,
		})
		return nil, err
	}
	s.metrics.SetOpenCarts(s.registry.Len())
	return store, nil
}

// withStore runs fn against the live store for key. When the store was
// evicted between Open and fn, it is reopened from storage and fn runs once
// more.
func (s *cartService) withStore(ctx context.Context, key string, fn func(*cart.Store) error) (*cart.Store, error) {
	store, err := s.open(ctx, key)
	if err != nil {
		return nil, err
	}
	err = fn(store)
	if errors.Is(err, cart.ErrStoreClosed) {
		logger.Debug("Cart store closed under request, reopening", map[string]interface{}{
			"cart_key": key,
		})
		if store, err = s.open(ctx, key); err != nil {
			return nil, err
		}
		err = fn(store)
	}
	if err != nil {
		return nil, err
	}
	return store, nil
}

func (s *cartService) GetCart(ctx context.Context, key string) (cart.State, error) {
	store, err := s.open(ctx, key)
	if err != nil {
		return cart.State{}, err
	}
	return store.State(), nil
}

func (s *cartService) GetItemCount(ctx context.Context, key string) (int, error) {
	store, err := s.open(ctx, key)
	if err != nil {
		return 0, err
	}
	return store.ItemCount(), nil
}

// AddToCart prices the line from the catalog; callers never supply a price
func (s *cartService) AddToCart(ctx context.Context, key string, input AddToCartInput) (cart.State, error) {
	logger.Info("Adding item to cart", map[string]interface{}{
		"cart_key":   key,
		"product_id": input.ProductID,
		"variant":    input.Variant,
		"quantity":   input.Quantity,
	})

	if input.Quantity < 1 {
		return cart.State{}, cart.ErrInvalidQuantity
	}

	product, err := s.productRepo.FindByID(input.ProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return cart.State{}, ErrProductNotFound
		}
		return cart.State{}, err
	}
	if !product.Active {
		return cart.State{}, ErrProductUnavailable
	}
	if !product.HasVariant(input.Variant) {
		logger.Warn("Variant not offered", map[string]interface{}{
			"product_id": product.ID,
			"variant":    input.Variant,
		})
		return cart.State{}, ErrInvalidVariant
	}

	store, err := s.withStore(ctx, key, func(store *cart.Store) error {
		inCart := 0
		for _, li := range store.State().Items {
			if li.ProductID == product.ID {
				inCart += li.Quantity
			}
		}
		if inCart+input.Quantity > product.StockQuantity {
			logger.Warn("Insufficient stock for cart add", map[string]interface{}{
				"product_id": product.ID,
				"requested":  inCart + input.Quantity,
				"available":  product.StockQuantity,
			})
			return ErrInsufficientStock
		}

		return store.AddItem(ctx, cart.Item{
			ProductID: product.ID,
			Name:      product.Name,
			Price:     product.Price,
			Image:     product.ImageURL,
			Variant:   input.Variant,
		}, input.Quantity)
	})
	if err != nil {
		return cart.State{}, err
	}

	s.metrics.IncCartOp("add")
	return store.State(), nil
}

// UpdateQuantity sets a line's quantity; zero or less removes the line
func (s *cartService) UpdateQuantity(ctx context.Context, key, lineID string, quantity int) (cart.State, error) {
	store, err := s.withStore(ctx, key, func(store *cart.Store) error {
		if li, ok := store.State().Find(lineID); ok && quantity > li.Quantity {
			product, err := s.productRepo.FindByID(li.ProductID)
			if err == nil && quantity > product.StockQuantity {
				return ErrInsufficientStock
			}
		}
		return store.UpdateQuantity(ctx, lineID, quantity)
	})
	if err != nil {
		return cart.State{}, err
	}
	s.metrics.IncCartOp("update")
	return store.State(), nil
}

func (s *cartService) RemoveFromCart(ctx context.Context, key, lineID string) (cart.State, error) {
	store, err := s.withStore(ctx, key, func(store *cart.Store) error {
		return store.RemoveItem(ctx, lineID)
	})
	if err != nil {
		return cart.State{}, err
	}
	s.metrics.IncCartOp("remove")
	return store.State(), nil
}

func (s *cartService) ClearCart(ctx context.Context, key string) error {
	_, err := s.withStore(ctx, key, func(store *cart.Store) error {
		return store.Clear(ctx)
	})
	if err != nil {
		return err
	}
	s.metrics.IncCartOp("clear")
	return nil
}

func (s *cartService) Quote(ctx context.Context, key string, method pricing.ShippingMethod) (*CartQuote, error) {
	store, err := s.open(ctx, key)
	if err != nil {
		return nil, err
	}

	state := store.State()
	quote, err := s.rates.Quote(state.Subtotal, method)
	if err != nil {
		return nil, err
	}

	return &CartQuote{
		Cart:                 state,
		Quote:                quote,
		AmountToFreeShipping: s.rates.AmountToFreeShipping(state.Subtotal),
	}, nil
}

// Subscribe attaches fn to the cart and returns the state at attach time.
// fn may fire before the caller has handled the returned state.
func (s *cartService) Subscribe(ctx context.Context, key string, fn cart.Listener) (cart.State, func(), error) {
	store, err := s.open(ctx, key)
	if err != nil {
		return cart.State{}, nil, err
	}
	unsubscribe := store.Subscribe(fn)
	return store.State(), unsubscribe, nil
}

// MergeCarts moves every line of fromKey into toKey and empties fromKey.
// Used when a guest signs in with items already in their cart.
func (s *cartService) MergeCarts(ctx context.Context, fromKey, toKey string) (cart.State, error) {
	if fromKey == toKey {
		return s.GetCart(ctx, toKey)
	}

	from, err := s.open(ctx, fromKey)
	if err != nil {
		return cart.State{}, err
	}
	to, err := s.open(ctx, toKey)
	if err != nil {
		return cart.State{}, err
	}

	lines := from.State().Items
	for _, li := range lines {
		err := to.AddItem(ctx, cart.Item{
			ProductID: li.ProductID,
			Name:      li.Name,
			Price:     li.Price,
			Image:     li.Image,
			Variant:   li.Variant,
		}, li.Quantity)
		if err != nil {
			return cart.State{}, err
		}
	}

	if err := from.Clear(ctx); err != nil {
		return cart.State{}, err
	}
	if err := s.registry.Discard(ctx, fromKey); err != nil {
		// the emptied snapshot is still saved, so the guest cart stays empty
		logger.Warn("Guest cart snapshot kept after merge", map[string]interface{}{
			"cart_key": fromKey,
		})
	}

	if len(lines) > 0 {
		logger.Info("Merged guest cart", map[string]interface{}{
			"from":  fromKey,
			"to":    toKey,
			"lines": len(lines),
		})
		s.metrics.IncCartOp("merge")
	}
	return to.State(), nil
}
