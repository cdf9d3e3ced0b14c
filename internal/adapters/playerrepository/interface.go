package playerrepository

import (
	"context"
	"time"

	"github.com/zed38662/Solo-leveling/internal/domain"
)

type PlayerRepository interface {
	StorePlayer(ctx context.Context, player *domain.PlayerStats) error
	GetPlayer(ctx context.Context, playerUUID string) (*domain.PlayerStats, error)
	GetHistory(ctx context.Context, playerUUID string, start, end time.Time, limit int) ([]domain.PlayerStats, error)
	StoreQuests(ctx context.Context, playerUUID string, ledger *domain.QuestLedger) error
	GetQuests(ctx context.Context, playerUUID string) (*domain.QuestLedger, error)
}
