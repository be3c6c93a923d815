package service

import (
	"context"
	"errors"
	"time"

	"membership-platform/backend/internal/repository"
	"membership-platform/backend/pkg/logger"
)

// EntitlementConfig selects daily ceilings by plan
type EntitlementConfig struct {
	FreeDaily      int
	PremiumDaily   int
	PremiumPlanIDs []string
	ActiveStatus   string
}

// EntitlementResolver decides the caller's daily chat ceiling
type EntitlementResolver struct {
	subs    repository.SubscriptionRepository
	cfg     EntitlementConfig
	premium map[string]struct{}
}

func NewEntitlementResolver(subs repository.SubscriptionRepository, cfg EntitlementConfig) *EntitlementResolver {
	premium := make(map[string]struct{}, len(cfg.PremiumPlanIDs))
	for _, id := range cfg.PremiumPlanIDs {
		premium[id] = struct{}{}
	}
	return &EntitlementResolver{subs: subs, cfg: cfg, premium: premium}
}

// Ceiling returns the premium ceiling when the newest active, unexpired subscription
// is on a premium plan, and the free ceiling otherwise. Lookup failures degrade to free.
func (e *EntitlementResolver) Ceiling(ctx context.Context, userID uint, now time.Time) int {
	sub, err := e.subs.LatestActive(ctx, userID, e.cfg.ActiveStatus, now)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			logger.FromContext(ctx).LogWarn(err, "subscription lookup failed, applying free ceiling", "user_id", userID)
		}
		return e.cfg.FreeDaily
	}

	if _, ok := e.premium[sub.PlanID]; ok {
		return e.cfg.PremiumDaily
	}
	return e.cfg.FreeDaily
}
