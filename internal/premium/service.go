// internal/premium/service.go

package premium

import (
	"context"
	"errors"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"

	"github.com/moodlyapp/moodly-backend/internal/config"
	"github.com/moodlyapp/moodly-backend/internal/profile"
)

var (
	ErrPlanNotFound      = errors.New("unknown plan")
	ErrAlreadySubscribed = errors.New("an active subscription already exists")
	ErrNoSubscription    = errors.New("no active subscription")
	ErrPaymentFailed     = errors.New("payment failed")
	ErrPremiumRequired   = errors.New("premium subscription required")
)

// Notifier delivers user-facing notifications; the notify service
// implements it.
type Notifier interface {
	Publish(ctx context.Context, userID int64, kind, title, body string, data map[string]string) error
}

type Service interface {
	Plans() []Plan
	Subscribe(ctx context.Context, userID int64, planID string) (*Subscription, error)
	Cancel(ctx context.Context, userID int64) error
	Entitlement(ctx context.Context, userID int64) (*Entitlement, error)
	Payments(ctx context.Context, userID int64) ([]*Payment, error)

	// IsPremium answers the entitlement question other services ask.
	IsPremium(ctx context.Context, userID int64) (bool, error)

	// SetGhostMode hides or unhides a premium user from discovery.
	SetGhostMode(ctx context.Context, userID int64, enabled bool) error

	// ExpireDue lapses overdue subscriptions and lifts ghost mode for
	// the affected users. Returns how many lapsed.
	ExpireDue(ctx context.Context) (int, error)
}

type service struct {
	repo     Repository
	profiles profile.Store
	provider PaymentProvider
	notifier Notifier
	cache    *gocache.Cache
	cacheTTL time.Duration
}

func NewService(repo Repository, profiles profile.Store, provider PaymentProvider, notifier Notifier, cfg config.PremiumConfig) Service {
	ttl := cfg.EntitlementCacheTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &service{
		repo:     repo,
		profiles: profiles,
		provider: provider,
		notifier: notifier,
		cache:    gocache.New(ttl, 2*ttl),
		cacheTTL: ttl,
	}
}

func (s *service) Plans() []Plan {
	return Plans
}

func (s *service) Subscribe(ctx context.Context, userID int64, planID string) (*Subscription, error) {
	plan, ok := planByID(planID)
	if !ok {
		return nil, ErrPlanNotFound
	}

	// 1. One active period at a time
	if _, err := s.repo.ActiveSubscription(ctx, userID); err == nil {
		return nil, ErrAlreadySubscribed
	} else if !errors.Is(err, ErrNoSubscription) {
		return nil, err
	}

	// 2. Charge first, grant second
	ref, err := s.provider.Charge(ctx, userID, plan)
	if err != nil {
		recordPayment("declined")
		logrus.WithError(err).WithFields(logrus.Fields{"user_id": userID, "plan_id": planID}).Warn("charge failed")
		return nil, fmt.Errorf("%w: %v", ErrPaymentFailed, err)
	}

	payment := &Payment{
		UserID:      userID,
		PlanID:      plan.ID,
		AmountCents: plan.PriceCents,
		Currency:    plan.Currency,
		ProviderRef: ref,
		Status:      "captured",
	}
	if err := s.repo.RecordPayment(ctx, payment); err != nil {
		return nil, err
	}
	recordPayment("captured")

	now := time.Now()
	sub := &Subscription{
		UserID:     userID,
		PlanID:     plan.ID,
		Status:     StatusActive,
		StartsAt:   now,
		ExpiresAt:  now.Add(plan.Duration),
		PaymentRef: ref,
	}
	if err := s.repo.CreateSubscription(ctx, sub); err != nil {
		return nil, err
	}
	recordSubscription(plan.ID)
	s.cache.Delete(entitlementKey(userID))

	s.publish(ctx, userID, "premium.activated", "Welcome to Premium",
		fmt.Sprintf("Your %s is active until %s.", plan.Name, sub.ExpiresAt.Format("Jan 2")),
		map[string]string{"plan_id": plan.ID})

	logrus.WithFields(logrus.Fields{"user_id": userID, "plan_id": plan.ID}).Info("subscription started")
	return sub, nil
}

func (s *service) Cancel(ctx context.Context, userID int64) error {
	cancelled, err := s.repo.CancelActive(ctx, userID)
	if err != nil {
		return err
	}
	if !cancelled {
		return ErrNoSubscription
	}
	// Entitlement runs to the end of the paid period; nothing to evict.
	logrus.WithField("user_id", userID).Info("subscription cancelled")
	return nil
}

func (s *service) Entitlement(ctx context.Context, userID int64) (*Entitlement, error) {
	ent := &Entitlement{}

	sub, err := s.repo.ActiveSubscription(ctx, userID)
	switch {
	case err == nil:
		ent.Premium = true
		ent.PlanID = sub.PlanID
		ent.ExpiresAt = &sub.ExpiresAt
		ent.Cancelled = sub.CancelledAt != nil
	case errors.Is(err, ErrNoSubscription):
		// plain free tier
	default:
		return nil, err
	}

	p, err := s.profiles.Get(ctx, userID)
	if err == nil {
		ent.GhostMode = p.GhostMode
	} else if !errors.Is(err, profile.ErrProfileNotFound) {
		return nil, err
	}
	return ent, nil
}

func (s *service) Payments(ctx context.Context, userID int64) ([]*Payment, error) {
	payments, err := s.repo.ListPayments(ctx, userID)
	if err != nil {
		return nil, err
	}
	if payments == nil {
		payments = []*Payment{}
	}
	return payments, nil
}

func (s *service) IsPremium(ctx context.Context, userID int64) (bool, error) {
	key := entitlementKey(userID)
	if v, ok := s.cache.Get(key); ok {
		return v.(bool), nil
	}

	premium := false
	_, err := s.repo.ActiveSubscription(ctx, userID)
	switch {
	case err == nil:
		premium = true
	case errors.Is(err, ErrNoSubscription):
	default:
		return false, err
	}

	s.cache.Set(key, premium, s.cacheTTL)
	return premium, nil
}

func (s *service) SetGhostMode(ctx context.Context, userID int64, enabled bool) error {
	if enabled {
		premium, err := s.IsPremium(ctx, userID)
		if err != nil {
			return err
		}
		if !premium {
			return ErrPremiumRequired
		}
	}
	// Turning ghost mode off never needs an entitlement
	return s.profiles.SetGhostMode(ctx, userID, enabled)
}

func (s *service) ExpireDue(ctx context.Context) (int, error) {
	userIDs, err := s.repo.ExpireDue(ctx)
	if err != nil {
		return 0, err
	}
	for _, uid := range userIDs {
		s.cache.Delete(entitlementKey(uid))
		if err := s.profiles.SetGhostMode(ctx, uid, false); err != nil {
			logrus.WithError(err).WithField("user_id", uid).Warn("failed to lift ghost mode")
		}
		s.publish(ctx, uid, "premium.expired", "Premium expired",
			"Your subscription has ended. Resubscribe to keep ghost mode and unlimited likes.", nil)
	}
	if len(userIDs) > 0 {
		recordExpired(len(userIDs))
		logrus.WithField("count", len(userIDs)).Info("subscriptions expired")
	}
	return len(userIDs), nil
}

func (s *service) publish(ctx context.Context, userID int64, kind, title, body string, data map[string]string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Publish(ctx, userID, kind, title, body, data); err != nil {
		logrus.WithError(err).WithField("user_id", userID).Warn("failed to publish notification")
	}
}

func entitlementKey(userID int64) string {
	return fmt.Sprintf("premium:%d", userID)
}

// Sweeper lapses overdue subscriptions on an hourly cadence.
type Sweeper struct {
	service Service
}

func NewSweeper(service Service) *Sweeper {
	return &Sweeper{service: service}
}

// Start runs the sweeper until ctx is canceled.
func (s *Sweeper) Start(ctx context.Context) {
	go s.run(ctx)
}

func (s *Sweeper) run(ctx context.Context) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	s.sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	if _, err := s.service.ExpireDue(ctx); err != nil {
		logrus.WithError(err).Error("subscription expiry sweep failed")
	}
}
