package repository

import (
	"context"
	"testing"
	"time"

	"membership-platform/backend/internal/models"
	"membership-platform/backend/pkg/cache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockAgentRepo struct {
	mock.Mock
}

func (m *mockAgentRepo) GetByID(ctx context.Context, id string) (*models.Agent, error) {
	args := m.Called(ctx, id)
	if a, ok := args.Get(0).(*models.Agent); ok {
		return a, args.Error(1)
	}
	return nil, args.Error(1)
}

func TestCachedAgentRepository(t *testing.T) {
	ctx := context.Background()
	next := new(mockAgentRepo)
	next.On("GetByID", ctx, "a1").Return(&models.Agent{ID: "a1", Name: "Coach"}, nil).Once()
	next.On("GetByID", ctx, "gone").Return(nil, ErrNotFound).Twice()

	repo := NewCachedAgentRepository(next, cache.New[string, models.Agent](ctx, cache.Options{TTL: time.Minute}))

	for i := 0; i < 2; i++ {
		agent, err := repo.GetByID(ctx, "a1")
		require.NoError(t, err)
		assert.Equal(t, "Coach", agent.Name)
	}

	for i := 0; i < 2; i++ {
		_, err := repo.GetByID(ctx, "gone")
		assert.ErrorIs(t, err, ErrNotFound)
	}

	next.AssertExpectations(t)
}
