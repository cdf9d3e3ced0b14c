package app

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zed38662/Solo-leveling/internal/domain"
)

const UUID = "01234567-89ab-cdef-0123-456789abcdef"

// mockedRepository is an in-memory PlayerRepository that records every stored
// snapshot, like the real one does.
type mockedRepository struct {
	t *testing.T

	snapshots map[string][]domain.PlayerStats
	ledgers   map[string]*domain.QuestLedger

	getPlayerErr   error
	storePlayerErr error
	getQuestsErr   error
	storeQuestsErr error
}

func newMockedRepository(t *testing.T) *mockedRepository {
	return &mockedRepository{
		t:         t,
		snapshots: map[string][]domain.PlayerStats{},
		ledgers:   map[string]*domain.QuestLedger{},
	}
}

func (m *mockedRepository) StorePlayer(ctx context.Context, player *domain.PlayerStats) error {
	m.t.Helper()
	require.NotNil(m.t, player)

	if m.storePlayerErr != nil {
		return m.storePlayerErr
	}

	m.snapshots[player.UUID] = append(m.snapshots[player.UUID], *player)
	return nil
}

func (m *mockedRepository) GetPlayer(ctx context.Context, playerUUID string) (*domain.PlayerStats, error) {
	m.t.Helper()

	if m.getPlayerErr != nil {
		return nil, m.getPlayerErr
	}

	snapshots := m.snapshots[playerUUID]
	if len(snapshots) == 0 {
		return nil, fmt.Errorf("%w: no snapshots", domain.ErrPlayerNotFound)
	}

	latest := snapshots[len(snapshots)-1]
	return &latest, nil
}

func (m *mockedRepository) GetHistory(ctx context.Context, playerUUID string, start, end time.Time, limit int) ([]domain.PlayerStats, error) {
	m.t.Helper()
	return m.snapshots[playerUUID], nil
}

func (m *mockedRepository) StoreQuests(ctx context.Context, playerUUID string, ledger *domain.QuestLedger) error {
	m.t.Helper()
	require.NotNil(m.t, ledger)

	if m.storeQuestsErr != nil {
		return m.storeQuestsErr
	}

	m.ledgers[playerUUID] = domain.NewQuestLedger(ledger.Quests())
	return nil
}

func (m *mockedRepository) GetQuests(ctx context.Context, playerUUID string) (*domain.QuestLedger, error) {
	m.t.Helper()

	if m.getQuestsErr != nil {
		return nil, m.getQuestsErr
	}

	ledger, ok := m.ledgers[playerUUID]
	if !ok {
		return domain.NewQuestLedger(nil), nil
	}
	return domain.NewQuestLedger(ledger.Quests()), nil
}
