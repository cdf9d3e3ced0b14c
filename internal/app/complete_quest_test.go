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

func TestCompleteQuest(t *testing.T) {
	t.Parallel()

	now := time.Now()
	nowFunc := func() time.Time { return now }

	quests := []domain.Quest{
		{Title: "Warmup", ExpReward: 20, StatRewards: map[string]int{"physique": 1}},
		{Title: "Study", ExpReward: 120, StatRewards: map[string]int{"intelligence": 2, "unknown": 5}},
	}

	newRepo := func(t *testing.T) *mockedRepository {
		repo := newMockedRepository(t)
		require.NoError(t, repo.StorePlayer(t.Context(), domaintest.NewPlayerBuilder(UUID, now.Add(-time.Hour)).WithClass(domain.ClassFighter).BuildPtr()))
		require.NoError(t, repo.StoreQuests(t.Context(), UUID, domain.NewQuestLedger(quests)))
		return repo
	}

	t.Run("applies the reward and persists", func(t *testing.T) {
		t.Parallel()

		repo := newRepo(t)
		playerCache := cache.NewBasicCache[*domain.PlayerStats]()

		completed, err := BuildCompleteQuest(playerCache, repo, nowFunc)(t.Context(), UUID, 0)
		require.NoError(t, err)

		assert.Equal(t, quests[0], completed.Quest)
		assert.Equal(t, 20, completed.Player.Experience)
		assert.Equal(t, domain.InitialLevel, completed.Player.Level)
		assert.Equal(t, domain.DefaultAttributeValue+1, completed.Player.Attributes[domain.AttributePhysique])
		require.Equal(t, []domain.Quest{quests[1]}, completed.Ledger.Quests())

		// Snapshot and ledger were persisted
		require.Len(t, repo.snapshots[UUID], 2)
		assert.Equal(t, now, repo.snapshots[UUID][1].QueriedAt)

		stored, err := repo.GetQuests(t.Context(), UUID)
		require.NoError(t, err)
		require.Equal(t, []domain.Quest{quests[1]}, stored.Quests())
	})

	t.Run("rolls levels over and ignores unknown stats", func(t *testing.T) {
		t.Parallel()

		repo := newRepo(t)
		playerCache := cache.NewBasicCache[*domain.PlayerStats]()

		completed, err := BuildCompleteQuest(playerCache, repo, nowFunc)(t.Context(), UUID, 1)
		require.NoError(t, err)

		// 120 exp at level 1 (threshold 100) -> level 2 with 20 exp
		assert.Equal(t, 2, completed.Player.Level)
		assert.Equal(t, 20, completed.Player.Experience)
		assert.Equal(t, domain.DefaultAttributeValue+2, completed.Player.Attributes[domain.AttributeIntelligence])

		_, hasUnknown := completed.Player.Attributes[domain.Attribute("unknown")]
		assert.False(t, hasUnknown)
	})

	t.Run("out of range index leaves everything unchanged", func(t *testing.T) {
		t.Parallel()

		repo := newRepo(t)
		playerCache := cache.NewBasicCache[*domain.PlayerStats]()

		for _, index := range []int{-1, 2, 100} {
			_, err := BuildCompleteQuest(playerCache, repo, nowFunc)(t.Context(), UUID, index)
			require.ErrorIs(t, err, domain.ErrQuestOutOfRange)
		}

		require.Len(t, repo.snapshots[UUID], 1)

		stored, err := repo.GetQuests(t.Context(), UUID)
		require.NoError(t, err)
		require.Equal(t, quests, stored.Quests())
	})

	t.Run("empty ledger is always out of range", func(t *testing.T) {
		t.Parallel()

		repo := newMockedRepository(t)
		playerCache := cache.NewBasicCache[*domain.PlayerStats]()

		_, err := BuildCompleteQuest(playerCache, repo, nowFunc)(t.Context(), UUID, 0)
		require.ErrorIs(t, err, domain.ErrQuestOutOfRange)
	})

	t.Run("negative reward is rejected before persisting", func(t *testing.T) {
		t.Parallel()

		repo := newMockedRepository(t)
		require.NoError(t, repo.StoreQuests(t.Context(), UUID, domain.NewQuestLedger([]domain.Quest{{Title: "bad", ExpReward: -10}})))

		playerCache := cache.NewBasicCache[*domain.PlayerStats]()

		_, err := BuildCompleteQuest(playerCache, repo, nowFunc)(t.Context(), UUID, 0)
		require.ErrorIs(t, err, domain.ErrInvalidExperience)

		assert.Empty(t, repo.snapshots[UUID])

		stored, err := repo.GetQuests(t.Context(), UUID)
		require.NoError(t, err)
		require.Equal(t, 1, stored.Len())
	})

	t.Run("cached player state is refreshed", func(t *testing.T) {
		t.Parallel()

		repo := newRepo(t)
		playerCache := cache.NewBasicCache[*domain.PlayerStats]()

		getPlayer := BuildGetPlayerWithCache(playerCache, repo, nowFunc)

		before, err := getPlayer(t.Context(), UUID)
		require.NoError(t, err)
		assert.Equal(t, 0, before.Experience)

		_, err = BuildCompleteQuest(playerCache, repo, nowFunc)(t.Context(), UUID, 0)
		require.NoError(t, err)

		after, err := getPlayer(t.Context(), UUID)
		require.NoError(t, err)
		assert.Equal(t, 20, after.Experience)
	})
}

func TestGetHistory(t *testing.T) {
	t.Parallel()

	now := time.Now()

	t.Run("returns stored snapshots", func(t *testing.T) {
		t.Parallel()

		repo := newMockedRepository(t)
		require.NoError(t, repo.StorePlayer(t.Context(), domaintest.NewPlayerBuilder(UUID, now.Add(-time.Hour)).BuildPtr()))
		require.NoError(t, repo.StorePlayer(t.Context(), domaintest.NewPlayerBuilder(UUID, now).WithExperience(40).BuildPtr()))

		history, err := BuildGetHistory(repo)(t.Context(), UUID, now.Add(-2*time.Hour), now, 10)
		require.NoError(t, err)
		require.Len(t, history, 2)
	})

	t.Run("invalid uuid is rejected", func(t *testing.T) {
		t.Parallel()

		repo := newMockedRepository(t)

		_, err := BuildGetHistory(repo)(t.Context(), "nope", now.Add(-time.Hour), now, 10)
		require.Error(t, err)
	})
}
