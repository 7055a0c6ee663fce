package recommendation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"myGroupBuy/domain"
	"myGroupBuy/pkg/logger"

	"github.com/samber/lo"
)

// servingInputs is everything one recommend call reads from the snapshot.
type servingInputs struct {
	user       domain.User
	candidates []domain.GroupBuy
	joined     []uint64
	popularity Popularity
}

// loadServingInputs reads the user, their joins, the open catalog and the
// trailing popularity window, then drops ineligible and already joined items.
func (s *Service) loadServingInputs(ctx context.Context, userID uint, cfg Config, now time.Time) (servingInputs, error) {
	if err := ctx.Err(); err != nil {
		return servingInputs{}, fmt.Errorf("context error: %w", err)
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return servingInputs{}, err
		}
		return servingInputs{}, fmt.Errorf("%w: failed to load user: %w", ErrUpstreamUnavailable, err)
	}

	history, err := s.contribRepo.FindByUser(ctx, userID)
	if err != nil {
		return servingInputs{}, fmt.Errorf("%w: failed to load user contributions: %w", ErrUpstreamUnavailable, err)
	}
	joined := lo.Uniq(lo.Map(history, func(c domain.Contribution, _ int) uint64 { return c.GroupBuyID }))
	joinedSet := lo.SliceToMap(joined, func(id uint64) (uint64, struct{}) { return id, struct{}{} })

	open, err := s.groupBuyRepo.FindOpen(ctx, now)
	if err != nil {
		return servingInputs{}, fmt.Errorf("%w: failed to load open group-buys: %w", ErrUpstreamUnavailable, err)
	}

	counts, err := s.contribRepo.CountJoinsSince(ctx, now.Add(-cfg.PopularityWindow))
	if err != nil {
		return servingInputs{}, fmt.Errorf("%w: failed to load popularity: %w", ErrUpstreamUnavailable, err)
	}

	checker := s.eligChecker
	if cfg.EligibilityExpr != "" {
		checker = s.eligCache.checker(cfg.EligibilityExpr)
	}

	candidates := make([]domain.GroupBuy, 0, len(open))
	for _, gb := range open {
		if !gb.IsOpen(now) {
			continue
		}
		if _, done := joinedSet[gb.ID]; done {
			continue
		}
		if checker != nil {
			ok, err := checker.IsEligible(ctx, user, gb, now)
			if err != nil {
				logger.Debug("eligibility check failed", "group_buy_id", gb.ID, "error", err)
				continue
			}
			if !ok {
				continue
			}
		}
		candidates = append(candidates, gb)
	}

	return servingInputs{
		user:       user,
		candidates: candidates,
		joined:     joined,
		popularity: Popularity(counts),
	}, nil
}
