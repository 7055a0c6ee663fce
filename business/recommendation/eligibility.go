package recommendation

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"time"

	"myGroupBuy/domain"
	"myGroupBuy/pkg/logger"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// EligibilityChecker decides whether a group-buy may be shown to a user on
// top of the built-in open/not-joined rules.
type EligibilityChecker interface {
	IsEligible(ctx context.Context, user domain.User, gb domain.GroupBuy, now time.Time) (bool, error)
}

// NoopEligibilityChecker allows everything.
type NoopEligibilityChecker struct{}

func (NoopEligibilityChecker) IsEligible(ctx context.Context, user domain.User, gb domain.GroupBuy, now time.Time) (bool, error) {
	return true, nil
}

// ExprEligibilityChecker evaluates an expr-lang boolean over
// {user, groupBuy, now}, e.g. `groupBuy.UnitPrice <= user.BudgetMax || user.BudgetMax == 0`.
type ExprEligibilityChecker struct {
	program *vm.Program
}

func NewExprEligibilityChecker(expression string) (*ExprEligibilityChecker, error) {
	program, err := expr.Compile(expression, expr.Env(eligibilityEnv(domain.User{}, domain.GroupBuy{}, time.Time{})))
	if err != nil {
		return nil, fmt.Errorf("failed to compile eligibility expression: %w", err)
	}
	if program.Node().Type().Kind() != reflect.Bool {
		return nil, errors.New("eligibility expression must return bool")
	}
	return &ExprEligibilityChecker{program: program}, nil
}

func (c *ExprEligibilityChecker) IsEligible(ctx context.Context, user domain.User, gb domain.GroupBuy, now time.Time) (bool, error) {
	out, err := expr.Run(c.program, eligibilityEnv(user, gb, now))
	if err != nil {
		return false, fmt.Errorf("failed to evaluate eligibility expression: %w", err)
	}
	ok, _ := out.(bool)
	return ok, nil
}

func eligibilityEnv(user domain.User, gb domain.GroupBuy, now time.Time) map[string]any {
	return map[string]any{
		"user":     user,
		"groupBuy": gb,
		"now":      now,
	}
}

// eligibilityCache compiles each distinct configured expression once.
type eligibilityCache struct {
	mu       sync.Mutex
	programs map[string]EligibilityChecker
}

func (c *eligibilityCache) checker(expression string) EligibilityChecker {
	if expression == "" {
		return NoopEligibilityChecker{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.programs == nil {
		c.programs = make(map[string]EligibilityChecker)
	}
	if ch, ok := c.programs[expression]; ok {
		return ch
	}
	ch, err := NewExprEligibilityChecker(expression)
	if err != nil {
		logger.Error("invalid eligibility expression, ignoring it", "expression", expression, "error", err)
		c.programs[expression] = NoopEligibilityChecker{}
		return NoopEligibilityChecker{}
	}
	c.programs[expression] = ch
	return ch
}
