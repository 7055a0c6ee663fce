package groupbuy

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"myGroupBuy/domain"
	"myGroupBuy/pkg/logger"
)

// ErrInvalid marks rejected input, as opposed to storage failures.
var ErrInvalid = errors.New("invalid group-buy request")

// GroupBuyRepository contract interface
type GroupBuyRepository interface {
	Create(ctx context.Context, gb *domain.GroupBuy) error
	FindByID(ctx context.Context, id uint64) (domain.GroupBuy, error)
	FindOpen(ctx context.Context, now time.Time) ([]domain.GroupBuy, error)
	Update(ctx context.Context, gb *domain.GroupBuy) error
	// Join stores the contribution and bumps the group-buy's quantity in one
	// transaction, returning the updated group-buy.
	Join(ctx context.Context, c *domain.Contribution) (domain.GroupBuy, error)
}

type Service struct {
	repo GroupBuyRepository
	now  func() time.Time
}

func NewService(repo GroupBuyRepository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

func (s *Service) ListOpen(ctx context.Context) ([]domain.GroupBuy, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	gbs, err := s.repo.FindOpen(ctx, s.now())
	if err != nil {
		logger.Error("failed to list open group-buys", "error", err)
		return nil, err
	}
	return gbs, nil
}

func (s *Service) Get(ctx context.Context, id uint64) (domain.GroupBuy, error) {
	if err := ctx.Err(); err != nil {
		return domain.GroupBuy{}, fmt.Errorf("context error: %w", err)
	}
	if id == 0 {
		return domain.GroupBuy{}, fmt.Errorf("%w: invalid group-buy id", ErrInvalid)
	}
	return s.repo.FindByID(ctx, id)
}

func validate(gb *domain.GroupBuy, now time.Time) error {
	switch {
	case strings.TrimSpace(gb.Title) == "":
		return fmt.Errorf("%w: title is required", ErrInvalid)
	case strings.TrimSpace(gb.Category) == "":
		return fmt.Errorf("%w: category is required", ErrInvalid)
	case gb.MOQ <= 0:
		return fmt.Errorf("%w: moq must be greater than 0", ErrInvalid)
	case gb.UnitPrice <= 0:
		return fmt.Errorf("%w: unit price must be greater than 0", ErrInvalid)
	case gb.BulkPrice < 0 || gb.BulkPrice > gb.UnitPrice:
		return fmt.Errorf("%w: bulk price must be between 0 and the unit price", ErrInvalid)
	case !gb.Deadline.After(now):
		return fmt.Errorf("%w: deadline must be in the future", ErrInvalid)
	}
	return nil
}

func (s *Service) Create(ctx context.Context, gb *domain.GroupBuy) (*domain.GroupBuy, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}
	if err := validate(gb, s.now()); err != nil {
		return nil, err
	}

	gb.Category = strings.ToLower(strings.TrimSpace(gb.Category))
	gb.Status = domain.GroupBuyOpen
	gb.CurrentQuantity = 0

	if err := s.repo.Create(ctx, gb); err != nil {
		logger.Error("failed to create group-buy", "error", err)
		return nil, fmt.Errorf("failed to create group-buy: %w", err)
	}

	logger.Info("group-buy created", "group_buy_id", gb.ID, "category", gb.Category)
	return gb, nil
}

// Update edits the descriptive fields and deadline of an open group-buy.
func (s *Service) Update(ctx context.Context, gb *domain.GroupBuy) (*domain.GroupBuy, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}
	if gb.ID == 0 {
		return nil, fmt.Errorf("%w: group-buy ID is required", ErrInvalid)
	}

	existing, err := s.repo.FindByID(ctx, gb.ID)
	if err != nil {
		return nil, err
	}
	if existing.Status != domain.GroupBuyOpen {
		return nil, domain.ErrGroupBuyClosed
	}
	if err := validate(gb, s.now()); err != nil {
		return nil, err
	}

	existing.Title = gb.Title
	existing.Category = strings.ToLower(strings.TrimSpace(gb.Category))
	existing.Description = gb.Description
	existing.LocationZone = gb.LocationZone
	existing.UnitPrice = gb.UnitPrice
	existing.BulkPrice = gb.BulkPrice
	existing.MOQ = gb.MOQ
	existing.Deadline = gb.Deadline

	if err := s.repo.Update(ctx, &existing); err != nil {
		logger.Error("failed to update group-buy", "group_buy_id", gb.ID, "error", err)
		return nil, fmt.Errorf("failed to update group-buy: %w", err)
	}
	return &existing, nil
}

// Cancel closes an open group-buy without fulfilling it.
func (s *Service) Cancel(ctx context.Context, id uint64) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	gb, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if gb.Status != domain.GroupBuyOpen {
		return domain.ErrGroupBuyClosed
	}
	gb.Status = domain.GroupBuyCancelled
	if err := s.repo.Update(ctx, &gb); err != nil {
		return fmt.Errorf("failed to cancel group-buy: %w", err)
	}

	logger.Info("group-buy cancelled", "group_buy_id", id)
	return nil
}

// Join commits quantity units of the user to the group-buy at its bulk
// price when one is offered.
func (s *Service) Join(ctx context.Context, userID uint, groupBuyID uint64, quantity int) (domain.Contribution, error) {
	if err := ctx.Err(); err != nil {
		return domain.Contribution{}, fmt.Errorf("context error: %w", err)
	}
	if quantity <= 0 {
		return domain.Contribution{}, fmt.Errorf("%w: quantity must be greater than 0", ErrInvalid)
	}

	gb, err := s.repo.FindByID(ctx, groupBuyID)
	if err != nil {
		return domain.Contribution{}, err
	}
	now := s.now()
	if !gb.IsOpen(now) {
		return domain.Contribution{}, domain.ErrGroupBuyClosed
	}

	price := gb.UnitPrice
	discounted := gb.BulkPrice > 0 && gb.BulkPrice < gb.UnitPrice
	if discounted {
		price = gb.BulkPrice
	}

	c := domain.Contribution{
		UserID:           userID,
		GroupBuyID:       gb.ID,
		Category:         gb.Category,
		Amount:           price * float64(quantity),
		Quantity:         quantity,
		GroupSize:        gb.CurrentQuantity + quantity,
		DiscountOffered:  discounted,
		DiscountAccepted: discounted,
		CreatedAt:        now,
	}

	updated, err := s.repo.Join(ctx, &c)
	if err != nil {
		logger.Error("failed to join group-buy", "group_buy_id", groupBuyID, "user_id", userID, "error", err)
		return domain.Contribution{}, err
	}

	logger.Info("group-buy joined",
		"group_buy_id", groupBuyID,
		"user_id", userID,
		"quantity", quantity,
		"moq_progress", updated.MOQProgress(),
	)
	return c, nil
}
