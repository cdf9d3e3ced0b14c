package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/zed38662/Solo-leveling/internal/adapters/cache"
	"github.com/zed38662/Solo-leveling/internal/adapters/playerrepository"
	"github.com/zed38662/Solo-leveling/internal/domain"
	"github.com/zed38662/Solo-leveling/internal/logging"
	"github.com/zed38662/Solo-leveling/internal/reporting"
	"github.com/zed38662/Solo-leveling/internal/strutils"
)

type GetPlayerWithCache func(ctx context.Context, uuid string) (*domain.PlayerStats, error)

// BuildGetPlayerWithCache returns the player's latest stored state. Players
// that have never been stored get a default-constructed state, so every
// player exists from the first request.
func BuildGetPlayerWithCache(
	playerCache cache.Cache[*domain.PlayerStats],
	repo playerrepository.PlayerRepository,
	nowFunc func() time.Time,
) GetPlayerWithCache {
	return func(ctx context.Context, uuid string) (*domain.PlayerStats, error) {
		if !strutils.UUIDIsNormalized(uuid) {
			logging.FromContext(ctx).Error("UUID is not normalized", "uuid", uuid)
			err := fmt.Errorf("UUID is not normalized")
			reporting.Report(ctx, err)
			return nil, err
		}

		player, err := cache.GetOrCreate(ctx, playerCache, uuid, func() (*domain.PlayerStats, error) {
			player, err := repo.GetPlayer(ctx, uuid)
			if errors.Is(err, domain.ErrPlayerNotFound) {
				return domain.NewPlayerStats(uuid, nowFunc()), nil
			}
			if err != nil {
				// NOTE: PlayerRepository implementations handle their own error reporting
				return nil, fmt.Errorf("could not get player: %w", err)
			}
			return player, nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to cache.GetOrCreate player data: %w", err)
		}

		return player, nil
	}
}

type GetQuests func(ctx context.Context, uuid string) (*domain.QuestLedger, error)

func BuildGetQuests(repo playerrepository.PlayerRepository) GetQuests {
	return func(ctx context.Context, uuid string) (*domain.QuestLedger, error) {
		if !strutils.UUIDIsNormalized(uuid) {
			logging.FromContext(ctx).Error("UUID is not normalized", "uuid", uuid)
			err := fmt.Errorf("UUID is not normalized")
			reporting.Report(ctx, err)
			return nil, err
		}

		ledger, err := repo.GetQuests(ctx, uuid)
		if err != nil {
			// NOTE: PlayerRepository implementations handle their own error reporting
			return nil, fmt.Errorf("could not get quests: %w", err)
		}

		return ledger, nil
	}
}
