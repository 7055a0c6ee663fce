package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"myGroupBuy/domain"
	"myGroupBuy/pkg/logger"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
)

var ErrInvalid = errors.New("invalid user request")

// UserRepository contract interface
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	FindByID(ctx context.Context, id uint) (domain.User, error)
	FindByEmail(ctx context.Context, email string) (domain.User, error)
	FindAll(ctx context.Context) ([]domain.User, error)
	UpdateProfile(ctx context.Context, user *domain.User) error
}

// Profile is the part of a user the recommender reads for cold-start.
type Profile struct {
	LocationZone        string
	PreferredCategories []string
	BudgetMin           float64
	BudgetMax           float64
}

type Service struct {
	userRepo UserRepository
	validate *validator.Validate
}

func NewService(userRepo UserRepository, validate *validator.Validate) *Service {
	return &Service{
		userRepo: userRepo,
		validate: validate,
	}
}

var validRoles = map[string]bool{
	domain.RoleCustomer: true,
	domain.RoleSupplier: true,
	domain.RoleAdmin:    true,
}

// Register creates an account. Authentication is issued out of band (the
// trainer CLI's token command), so there is no password here.
func (s *Service) Register(ctx context.Context, user *domain.User) (domain.User, error) {
	if err := ctx.Err(); err != nil {
		return domain.User{}, fmt.Errorf("context error: %w", err)
	}

	if err := s.validate.Var(user.Email, "required,email"); err != nil {
		return domain.User{}, fmt.Errorf("%w: invalid email format", ErrInvalid)
	}
	if strings.TrimSpace(user.FullName) == "" {
		return domain.User{}, fmt.Errorf("%w: full name is required", ErrInvalid)
	}

	role := strings.ToLower(user.Role)
	if role == "" {
		role = domain.RoleCustomer
	}
	if !validRoles[role] {
		return domain.User{}, fmt.Errorf("%w: invalid role %q", ErrInvalid, user.Role)
	}

	existingUser, err := s.userRepo.FindByEmail(ctx, user.Email)
	if err == nil && existingUser.ID > 0 {
		return domain.User{}, domain.ErrEmailTaken
	}
	if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
		return domain.User{}, err
	}

	newUser := domain.User{
		FullName:            user.FullName,
		Email:               user.Email,
		Role:                role,
		LocationZone:        user.LocationZone,
		PreferredCategories: normalizeCategories(user.PreferredCategories),
		BudgetMin:           user.BudgetMin,
		BudgetMax:           user.BudgetMax,
	}
	if err := checkBudget(newUser.BudgetMin, newUser.BudgetMax); err != nil {
		return domain.User{}, err
	}

	if err := s.userRepo.Create(ctx, &newUser); err != nil {
		logger.Error("Failed to create new user", "error", err)
		return domain.User{}, err
	}

	logger.Info("user registered", "user_id", newUser.ID, "role", newUser.Role)
	return newUser, nil
}

func (s *Service) GetUserByID(ctx context.Context, id uint) (domain.User, error) {
	if err := ctx.Err(); err != nil {
		return domain.User{}, fmt.Errorf("context error: %w", err)
	}
	return s.userRepo.FindByID(ctx, id)
}

func (s *Service) GetAllUsers(ctx context.Context) ([]domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}
	return s.userRepo.FindAll(ctx)
}

// UpdateProfile replaces the zone, preferred categories and budget. The new
// values are picked up by the next recommend call for cold users and by the
// next training run for everyone else.
func (s *Service) UpdateProfile(ctx context.Context, id uint, p Profile) (domain.User, error) {
	if err := ctx.Err(); err != nil {
		return domain.User{}, fmt.Errorf("context error: %w", err)
	}
	if err := checkBudget(p.BudgetMin, p.BudgetMax); err != nil {
		return domain.User{}, err
	}

	existingUser, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return domain.User{}, err
	}

	existingUser.LocationZone = strings.TrimSpace(p.LocationZone)
	existingUser.PreferredCategories = normalizeCategories(p.PreferredCategories)
	existingUser.BudgetMin = p.BudgetMin
	existingUser.BudgetMax = p.BudgetMax

	if err := s.userRepo.UpdateProfile(ctx, &existingUser); err != nil {
		logger.Error("Failed to update user profile", "user_id", id, "error", err)
		return domain.User{}, err
	}

	return existingUser, nil
}

func checkBudget(low, high float64) error {
	if low < 0 || high < 0 {
		return fmt.Errorf("%w: budget cannot be negative", ErrInvalid)
	}
	if high > 0 && low > high {
		return fmt.Errorf("%w: budget_min exceeds budget_max", ErrInvalid)
	}
	return nil
}

// categories are matched case-insensitively against group-buy categories
func normalizeCategories(in []string) []string {
	out := lo.Uniq(lo.FilterMap(in, func(c string, _ int) (string, bool) {
		c = strings.ToLower(strings.TrimSpace(c))
		return c, c != ""
	}))
	if out == nil {
		return []string{}
	}
	return out
}
