package repositories

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"realtime-service/internal/mocks"
	"realtime-service/internal/models"
)

// The mocks live in their own package so they stay importable from every
// package's tests; the interface checks belong here, next to the interfaces.
var _ UserRepository = (*mocks.UserRepositoryMock)(nil)
var _ ConversationRepository = (*mocks.ConversationRepositoryMock)(nil)

func TestOrderPair(t *testing.T) {
	low, high := orderPair("alice", "bob")
	assert.Equal(t, "alice", low)
	assert.Equal(t, "bob", high)

	low, high = orderPair("bob", "alice")
	assert.Equal(t, "alice", low)
	assert.Equal(t, "bob", high)

	low, high = orderPair("same", "same")
	assert.Equal(t, "same", low)
	assert.Equal(t, "same", high)
}

func TestResolveParticipantKnownUser(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	users.On("GetUser", mock.Anything, "u1").
		Return(models.User{ID: "u1", Email: "u1@school.test"}, nil).Once()
	repo := NewConversationRepo(nil, users, false)

	ref, err := repo.resolveParticipant(context.Background(), "u1")
	require.NoError(t, err)
	require.NotNil(t, ref)
	assert.Equal(t, "u1", *ref)
	users.AssertExpectations(t)
}

func TestResolveParticipantMissingUserRecordsNull(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	users.On("GetUser", mock.Anything, "ghost").Return(models.User{}, ErrUserNotFound).Once()
	repo := NewConversationRepo(nil, users, false)

	ref, err := repo.resolveParticipant(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Nil(t, ref)
}

func TestResolveParticipantStrictRejectsMissingUser(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	users.On("GetUser", mock.Anything, "ghost").Return(models.User{}, ErrUserNotFound).Once()
	repo := NewConversationRepo(nil, users, true)

	_, err := repo.resolveParticipant(context.Background(), "ghost")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownParticipant))
}

func TestResolveParticipantPropagatesLookupFailure(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	users.On("GetUser", mock.Anything, "u1").Return(models.User{}, assert.AnError).Once()
	repo := NewConversationRepo(nil, users, false)

	_, err := repo.resolveParticipant(context.Background(), "u1")
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
}
