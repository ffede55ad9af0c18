package scheduler

import (
	"context"
	"time"

	"github.com/ikkim/cosmetica-backend/internal/app/service"
	"github.com/ikkim/cosmetica-backend/pkg/logger"
	"github.com/ikkim/cosmetica-backend/pkg/metrics"
	"github.com/robfig/cron/v3"
)

const (
	jobCartEviction  = "cart_eviction"
	jobPaymentExpiry = "payment_expiry"

	jobTimeout = 5 * time.Minute
)

// CartEvictor drops idle cart stores from memory
type CartEvictor interface {
	EvictIdle(maxIdle time.Duration) int
}

// SnapshotPurger deletes persisted carts nobody touched for a while.
// Only the database cart storage needs it; Redis expires keys itself.
type SnapshotPurger interface {
	DeleteOlderThan(cutoff time.Time) (int64, error)
}

// PaymentExpirer settles orders and bookings stuck awaiting payment
type PaymentExpirer interface {
	ExpirePendingPayments(ctx context.Context, olderThan time.Duration) (*service.ExpiryReport, error)
}

type Config struct {
	CartEvictSpec   string
	CartIdleTimeout time.Duration
	CartTTL         time.Duration
	OrderExpirySpec string
	OrderPendingTTL time.Duration
}

// StoreScheduler runs the storefront's housekeeping jobs
type StoreScheduler struct {
	cron    *cron.Cron
	config  Config
	carts   CartEvictor
	purger  SnapshotPurger
	orders  PaymentExpirer
	metrics *metrics.StoreMetrics
	now     func() time.Time
}

// NewStoreScheduler builds the scheduler. purger may be nil.
func NewStoreScheduler(cfg Config, carts CartEvictor, purger SnapshotPurger, orders PaymentExpirer, m *metrics.StoreMetrics) *StoreScheduler {
	return &StoreScheduler{
		cron:    cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		config:  cfg,
		carts:   carts,
		purger:  purger,
		orders:  orders,
		metrics: m,
		now:     time.Now,
	}
}

func (s *StoreScheduler) Start() error {
	if _, err := s.cron.AddFunc(s.config.CartEvictSpec, func() { s.run(jobCartEviction, s.EvictCarts) }); err != nil {
		logger.Error("Failed to add cron job for cart eviction", err, map[string]interface{}{
			"spec": s.config.CartEvictSpec,
		})
		return err
	}
	if _, err := s.cron.AddFunc(s.config.OrderExpirySpec, func() { s.run(jobPaymentExpiry, s.ExpirePayments) }); err != nil {
		logger.Error("Failed to add cron job for payment expiry", err, map[string]interface{}{
			"spec": s.config.OrderExpirySpec,
		})
		return err
	}

	s.cron.Start()
	logger.Info("Store scheduler started", map[string]interface{}{
		"cart_evict_spec":   s.config.CartEvictSpec,
		"order_expiry_spec": s.config.OrderExpirySpec,
	})
	return nil
}

// Stop waits for running jobs to finish
func (s *StoreScheduler) Stop() {
	logger.Info("Stopping store scheduler...", nil)
	<-s.cron.Stop().Done()
	logger.Info("Store scheduler stopped", nil)
}

func (s *StoreScheduler) run(job string, fn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	start := s.now()
	err := fn(ctx)
	s.metrics.ObserveJob(job, s.now().Sub(start), err)
	if err != nil {
		logger.Error("Scheduled job failed", err, map[string]interface{}{
			"job": job,
		})
	}
}

// EvictCarts releases idle in-memory carts and purges stale snapshots
func (s *StoreScheduler) EvictCarts(_ context.Context) error {
	evicted := s.carts.EvictIdle(s.config.CartIdleTimeout)

	var purged int64
	if s.purger != nil && s.config.CartTTL > 0 {
		var err error
		purged, err = s.purger.DeleteOlderThan(s.now().Add(-s.config.CartTTL))
		if err != nil {
			return err
		}
	}

	if evicted > 0 || purged > 0 {
		logger.Info("Cart eviction completed", map[string]interface{}{
			"evicted": evicted,
			"purged":  purged,
		})
	}
	return nil
}

// ExpirePayments runs the pending payment sweep
func (s *StoreScheduler) ExpirePayments(ctx context.Context) error {
	report, err := s.orders.ExpirePendingPayments(ctx, s.config.OrderPendingTTL)
	if err != nil {
		return err
	}

	logger.Info("Payment expiry completed", map[string]interface{}{
		"orders_expired":     report.OrdersExpired,
		"orders_confirmed":   report.OrdersConfirmed,
		"bookings_expired":   report.BookingsExpired,
		"bookings_confirmed": report.BookingsConfirmed,
	})
	return nil
}
