package playerrepository

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zed38662/Solo-leveling/internal/adapters/database"
	"github.com/zed38662/Solo-leveling/internal/domain"
	"github.com/zed38662/Solo-leveling/internal/domaintest"
)

func TestPlayerDataStorageRoundTrip(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC().Truncate(time.Microsecond)

	cases := []struct {
		name   string
		player *domain.PlayerStats
	}{
		{
			name:   "fresh player",
			player: domaintest.NewPlayerBuilder(domaintest.NewUUID(t), now).BuildPtr(),
		},
		{
			name: "progressed player",
			player: domaintest.NewPlayerBuilder(domaintest.NewUUID(t), now).
				WithClass(domain.ClassMage).
				WithLevel(7).
				WithExperience(123).
				WithAttribute(domain.AttributeIntelligence, 19).
				BuildPtr(),
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()

			data, err := playerToDataStorage(c.player)
			require.NoError(t, err)

			restored, err := dbSnapshotToPlayerStats(dbSnapshot{
				ID:                "00000000-0000-0000-0000-000000000000",
				DataFormatVersion: DATA_FORMAT_VERSION,
				UUID:              c.player.UUID,
				RecordedAt:        c.player.QueriedAt,
				PlayerData:        data,
			})
			require.NoError(t, err)

			require.Equal(t, c.player, restored)
		})
	}
}

func TestPlayerDataStorageOmitsDefaults(t *testing.T) {
	t.Parallel()

	now := time.Now()

	data, err := playerToDataStorage(domaintest.NewPlayerBuilder(domaintest.NewUUID(t), now).BuildPtr())
	require.NoError(t, err)

	var stored map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &stored))
	assert.Empty(t, stored)
}

func TestQuestDataStorageRoundTrip(t *testing.T) {
	t.Parallel()

	quests := []domain.Quest{
		{
			Title:       "Morning run",
			Description: "Run 2km before breakfast",
			ExpReward:   40,
			StatRewards: map[string]int{"physique": 2},
		},
		{
			Title: "Sketch practice",
		},
	}

	data, err := questsToDataStorage(domain.NewQuestLedger(quests))
	require.NoError(t, err)

	restored, err := questsFromDataStorage(data)
	require.NoError(t, err)
	require.Equal(t, quests, restored.Quests())
}

func newTestRepository(t *testing.T, db *sqlx.DB, schema string) *PostgresPlayerRepository {
	t.Helper()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	db.MustExec(fmt.Sprintf("DROP SCHEMA IF EXISTS %s CASCADE", pq.QuoteIdentifier(schema)))

	migrator := database.NewDatabaseMigrator(db, logger)

	err := migrator.Migrate(t.Context(), schema)
	require.NoError(t, err)

	return NewPostgresPlayerRepository(db, schema)
}

func TestPostgresPlayerRepository(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping db tests in short mode.")
	}
	t.Parallel()

	ctx := t.Context()
	db, err := database.NewPostgresDatabase(database.LOCAL_CONNECTION_STRING)
	require.NoError(t, err)

	now := time.Now().UTC().Truncate(time.Microsecond)

	t.Run("StorePlayer then GetPlayer returns latest snapshot", func(t *testing.T) {
		t.Parallel()

		p := newTestRepository(t, db, "store_get_player")

		playerUUID := domaintest.NewUUID(t)

		first := domaintest.NewPlayerBuilder(playerUUID, now).BuildPtr()
		require.NoError(t, p.StorePlayer(ctx, first))

		second := domaintest.NewPlayerBuilder(playerUUID, now.Add(time.Minute)).
			WithClass(domain.ClassRanger).
			WithExperience(50).
			BuildPtr()
		require.NoError(t, p.StorePlayer(ctx, second))

		stored, err := p.GetPlayer(ctx, playerUUID)
		require.NoError(t, err)
		require.Equal(t, second, stored)
	})

	t.Run("StorePlayer skips unchanged snapshots", func(t *testing.T) {
		t.Parallel()

		p := newTestRepository(t, db, "store_unchanged")

		playerUUID := domaintest.NewUUID(t)

		player := domaintest.NewPlayerBuilder(playerUUID, now).
			WithExperience(25).
			BuildPtr()
		require.NoError(t, p.StorePlayer(ctx, player))

		unchanged := domaintest.NewPlayerBuilder(playerUUID, now.Add(time.Minute)).
			WithExperience(25).
			BuildPtr()
		require.NoError(t, p.StorePlayer(ctx, unchanged))

		history, err := p.GetHistory(ctx, playerUUID, now.Add(-time.Minute), now.Add(time.Hour), 100)
		require.NoError(t, err)
		require.Len(t, history, 1)
	})

	t.Run("GetPlayer for unknown player", func(t *testing.T) {
		t.Parallel()

		p := newTestRepository(t, db, "get_unknown_player")

		_, err := p.GetPlayer(ctx, domaintest.NewUUID(t))
		require.ErrorIs(t, err, domain.ErrPlayerNotFound)
	})

	t.Run("StorePlayer rejects denormalized uuid", func(t *testing.T) {
		t.Parallel()

		p := newTestRepository(t, db, "store_denormalized")

		player := domaintest.NewPlayerBuilder(domaintest.NewUUID(t), now).BuildPtr()
		player.UUID = "NOT-A-UUID"

		require.Error(t, p.StorePlayer(ctx, player))
	})

	t.Run("GetHistory samples snapshots in order", func(t *testing.T) {
		t.Parallel()

		p := newTestRepository(t, db, "get_history")

		playerUUID := domaintest.NewUUID(t)

		experiences := []int{0, 20, 50, 90}
		for i, experience := range experiences {
			player := domaintest.NewPlayerBuilder(playerUUID, now.Add(time.Duration(i)*time.Hour)).
				WithExperience(experience).
				BuildPtr()
			require.NoError(t, p.StorePlayer(ctx, player))
		}

		history, err := p.GetHistory(ctx, playerUUID, now.Add(-time.Minute), now.Add(4*time.Hour), 100)
		require.NoError(t, err)
		require.Len(t, history, len(experiences))
		for i, player := range history {
			assert.Equal(t, experiences[i], player.Experience)
		}
	})

	t.Run("GetHistory rejects invalid limit", func(t *testing.T) {
		t.Parallel()

		p := newTestRepository(t, db, "get_history_limit")

		_, err := p.GetHistory(ctx, domaintest.NewUUID(t), now, now.Add(time.Hour), 1)
		require.Error(t, err)
	})

	t.Run("quest ledger round trip", func(t *testing.T) {
		t.Parallel()

		p := newTestRepository(t, db, "quest_ledger")

		playerUUID := domaintest.NewUUID(t)

		// No stored ledger -> empty ledger
		ledger, err := p.GetQuests(ctx, playerUUID)
		require.NoError(t, err)
		require.Equal(t, 0, ledger.Len())

		quests := []domain.Quest{
			{Title: "Read a chapter", ExpReward: 30, StatRewards: map[string]int{"intelligence": 1}},
			{Title: "Stretch", ExpReward: 10},
		}
		require.NoError(t, p.StoreQuests(ctx, playerUUID, domain.NewQuestLedger(quests)))

		stored, err := p.GetQuests(ctx, playerUUID)
		require.NoError(t, err)
		require.Equal(t, quests, stored.Quests())

		// Storing again replaces the previous ledger
		require.NoError(t, p.StoreQuests(ctx, playerUUID, domain.NewQuestLedger(quests[1:])))

		stored, err = p.GetQuests(ctx, playerUUID)
		require.NoError(t, err)
		require.Equal(t, quests[1:], stored.Quests())
	})
}
