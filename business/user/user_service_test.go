package user

import (
	"context"
	"testing"

	"myGroupBuy/domain"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memUsers struct {
	users map[uint]domain.User
}

func (m *memUsers) Create(ctx context.Context, u *domain.User) error {
	u.ID = uint(len(m.users) + 1)
	m.users[u.ID] = *u
	return nil
}

func (m *memUsers) FindByID(ctx context.Context, id uint) (domain.User, error) {
	u, ok := m.users[id]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return u, nil
}

func (m *memUsers) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return domain.User{}, domain.ErrUserNotFound
}

func (m *memUsers) FindAll(ctx context.Context) ([]domain.User, error) {
	out := make([]domain.User, 0, len(m.users))
	for i := uint(1); i <= uint(len(m.users)); i++ {
		out = append(out, m.users[i])
	}
	return out, nil
}

func (m *memUsers) UpdateProfile(ctx context.Context, u *domain.User) error {
	m.users[u.ID] = *u
	return nil
}

func newTestService() (*Service, *memUsers) {
	repo := &memUsers{users: make(map[uint]domain.User)}
	return NewService(repo, validator.New()), repo
}

func TestRegister(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	u, err := svc.Register(ctx, &domain.User{
		FullName:            "Sari",
		Email:               "sari@example.com",
		LocationZone:        "jakarta-selatan",
		PreferredCategories: []string{" Grocery", "grocery", "Household"},
	})
	require.NoError(t, err)

	assert.Equal(t, domain.RoleCustomer, u.Role)
	assert.Equal(t, []string{"grocery", "household"}, []string(repo.users[u.ID].PreferredCategories))

	_, err = svc.Register(ctx, &domain.User{FullName: "Other", Email: "sari@example.com"})
	assert.ErrorIs(t, err, domain.ErrEmailTaken)
}

func TestRegister_Rejections(t *testing.T) {
	svc, _ := newTestService()

	tests := []struct {
		name string
		user domain.User
	}{
		{"bad email", domain.User{FullName: "A", Email: "nope"}},
		{"no name", domain.User{FullName: " ", Email: "a@example.com"}},
		{"unknown role", domain.User{FullName: "A", Email: "a@example.com", Role: "root"}},
		{"inverted budget", domain.User{FullName: "A", Email: "a@example.com", BudgetMin: 50, BudgetMax: 10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), &tt.user)
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestUpdateProfile(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	u, err := svc.Register(ctx, &domain.User{FullName: "Budi", Email: "budi@example.com", Role: "Supplier"})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleSupplier, u.Role)

	updated, err := svc.UpdateProfile(ctx, u.ID, Profile{
		LocationZone:        " bandung ",
		PreferredCategories: []string{"Electronics", ""},
		BudgetMax:           200,
	})
	require.NoError(t, err)
	assert.Equal(t, "bandung", updated.LocationZone)
	assert.Equal(t, "bandung", repo.users[u.ID].LocationZone)
	assert.Equal(t, []string{"electronics"}, []string(updated.PreferredCategories))

	_, err = svc.UpdateProfile(ctx, 99, Profile{})
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	_, err = svc.UpdateProfile(ctx, u.ID, Profile{BudgetMin: -1})
	assert.ErrorIs(t, err, ErrInvalid)
}
