package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/zed38662/Solo-leveling/internal/adapters/cache"
	"github.com/zed38662/Solo-leveling/internal/adapters/playerrepository"
	"github.com/zed38662/Solo-leveling/internal/adapters/questprovider"
	"github.com/zed38662/Solo-leveling/internal/domain"
	"github.com/zed38662/Solo-leveling/internal/logging"
	"github.com/zed38662/Solo-leveling/internal/reporting"
	"github.com/zed38662/Solo-leveling/internal/strutils"
)

type GenerateQuests func(ctx context.Context, uuid string) (*domain.QuestLedger, error)

// BuildGenerateQuests replaces the player's quest ledger with a fresh batch
// from the quest provider. Concurrent requests for the same player share a
// single in-flight generation through the cache's claim mechanism; requests
// that race past it simply overwrite the ledger (last write wins).
//
// A failed generation leaves the stored ledger unchanged.
func BuildGenerateQuests(
	generationCache cache.Cache[*domain.QuestLedger],
	provider questprovider.QuestProvider,
	repo playerrepository.PlayerRepository,
	nowFunc func() time.Time,
) GenerateQuests {
	return func(ctx context.Context, uuid string) (*domain.QuestLedger, error) {
		if !strutils.UUIDIsNormalized(uuid) {
			logging.FromContext(ctx).Error("UUID is not normalized", "uuid", uuid)
			err := fmt.Errorf("UUID is not normalized")
			reporting.Report(ctx, err)
			return nil, err
		}

		ledger, err := cache.GetOrCreate(ctx, generationCache, uuid, func() (*domain.QuestLedger, error) {
			player, err := repo.GetPlayer(ctx, uuid)
			if errors.Is(err, domain.ErrPlayerNotFound) {
				player = domain.NewPlayerStats(uuid, nowFunc())
			} else if err != nil {
				// NOTE: PlayerRepository implementations handle their own error reporting
				return nil, fmt.Errorf("could not get player: %w", err)
			}

			quests, err := provider.GenerateQuests(ctx, player)
			if err != nil {
				// NOTE: QuestProvider implementations handle their own error reporting
				return nil, fmt.Errorf("could not generate quests: %w", err)
			}

			ledger := domain.NewQuestLedger(quests)

			err = repo.StoreQuests(ctx, uuid, ledger)
			if err != nil {
				// NOTE: PlayerRepository implementations handle their own error reporting
				return nil, fmt.Errorf("could not store quests: %w", err)
			}

			return ledger, nil
		})

		// Each generation request should produce a fresh batch. The cache is
		// only used to deduplicate concurrent requests, so drop the entry as
		// soon as the in-flight generation has completed.
		cache.Invalidate(generationCache, uuid)

		if err != nil {
			return nil, fmt.Errorf("failed to cache.GetOrCreate quest ledger: %w", err)
		}

		return ledger, nil
	}
}
