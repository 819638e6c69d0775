//go:build integration_test || all_tests

package test

import (
	"context"
	"time"

	"github.com/2beens/householdnotes/internal/identity"
	"github.com/2beens/householdnotes/internal/notes"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (s *IntegrationTestSuite) TestIdentityInRedis() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	t := s.T()

	redisClient := identity.NewRedisClient("localhost", s.redisPort, "")
	defer redisClient.Close()
	require.NoError(t, redisClient.Del(ctx, "hxnotes::"+identity.AuthorKey).Err())

	store := identity.NewStore(identity.NewRedisStorage(redisClient), nil)
	require.NoError(t, store.Hydrate(ctx))
	_, ok := store.Author()
	assert.False(t, ok)

	require.NoError(t, store.SetAuthor(notes.AuthorWife))
	store.Toggle()
	store.Toggle()
	store.Wait()

	// a fresh store, as after an app restart
	restarted := identity.NewStore(identity.NewRedisStorage(redisClient), nil)
	require.NoError(t, restarted.Hydrate(ctx))
	author, ok := restarted.Author()
	require.True(t, ok)
	assert.Equal(t, notes.AuthorWife, author)

	// a value written by something else is ignored
	require.NoError(t, redisClient.Set(ctx, "hxnotes::"+identity.AuthorKey, "Grandma", 0).Err())
	other := identity.NewStore(identity.NewRedisStorage(redisClient), nil)
	require.NoError(t, other.Hydrate(ctx))
	_, ok = other.Author()
	assert.False(t, ok)
}
