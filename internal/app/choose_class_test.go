package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zed38662/Solo-leveling/internal/adapters/cache"
	"github.com/zed38662/Solo-leveling/internal/domain"
	"github.com/zed38662/Solo-leveling/internal/domaintest"
)

func TestChooseClass(t *testing.T) {
	t.Parallel()

	now := time.Now()
	nowFunc := func() time.Time { return now }

	t.Run("sets class on a fresh player", func(t *testing.T) {
		t.Parallel()

		repo := newMockedRepository(t)
		playerCache := cache.NewBasicCache[*domain.PlayerStats]()

		player, err := BuildChooseClass(playerCache, repo, nowFunc)(t.Context(), UUID, "fighter")
		require.NoError(t, err)

		assert.Equal(t, domain.ClassFighter, player.Class)
		assert.Equal(t, domain.InitialLevel, player.Level)

		require.Len(t, repo.snapshots[UUID], 1)
		assert.Equal(t, domain.ClassFighter, repo.snapshots[UUID][0].Class)
	})

	t.Run("class parsing is case-insensitive", func(t *testing.T) {
		t.Parallel()

		repo := newMockedRepository(t)
		playerCache := cache.NewBasicCache[*domain.PlayerStats]()

		player, err := BuildChooseClass(playerCache, repo, nowFunc)(t.Context(), UUID, "TANKER")
		require.NoError(t, err)
		assert.Equal(t, domain.ClassTanker, player.Class)
	})

	t.Run("unknown class is rejected", func(t *testing.T) {
		t.Parallel()

		repo := newMockedRepository(t)
		playerCache := cache.NewBasicCache[*domain.PlayerStats]()

		_, err := BuildChooseClass(playerCache, repo, nowFunc)(t.Context(), UUID, "paladin")
		require.ErrorIs(t, err, domain.ErrUnknownClass)
		assert.Empty(t, repo.snapshots[UUID])
	})

	t.Run("choosing again replaces the class and keeps progression", func(t *testing.T) {
		t.Parallel()

		repo := newMockedRepository(t)
		existing := domaintest.NewPlayerBuilder(UUID, now.Add(-time.Hour)).
			WithClass(domain.ClassMage).
			WithLevel(5).
			WithExperience(30).
			BuildPtr()
		require.NoError(t, repo.StorePlayer(t.Context(), existing))

		playerCache := cache.NewBasicCache[*domain.PlayerStats]()

		player, err := BuildChooseClass(playerCache, repo, nowFunc)(t.Context(), UUID, "healer")
		require.NoError(t, err)

		assert.Equal(t, domain.ClassHealer, player.Class)
		assert.Equal(t, 5, player.Level)
		assert.Equal(t, 30, player.Experience)
		assert.Equal(t, now, player.QueriedAt)

		require.Len(t, repo.snapshots[UUID], 2)
	})

	t.Run("cached player state is refreshed", func(t *testing.T) {
		t.Parallel()

		repo := newMockedRepository(t)
		playerCache := cache.NewBasicCache[*domain.PlayerStats]()

		getPlayer := BuildGetPlayerWithCache(playerCache, repo, nowFunc)

		before, err := getPlayer(t.Context(), UUID)
		require.NoError(t, err)
		assert.Equal(t, domain.Class(""), before.Class)

		_, err = BuildChooseClass(playerCache, repo, nowFunc)(t.Context(), UUID, "ranger")
		require.NoError(t, err)

		after, err := getPlayer(t.Context(), UUID)
		require.NoError(t, err)
		assert.Equal(t, domain.ClassRanger, after.Class)
	})
}
